package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/glean"
	"github.com/aretw0/glean/internal/config"
)

var (
	verbose    bool
	storeURI   string
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "glean",
	Short: "A live synchronization engine for surplus-food collections",
	Long: `Glean keeps filtered projections of shared collections continuously
in sync: notification feeds for NGOs, the NGO directory for
restaurants, and the donation records flowing between them.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&storeURI, "store", "", "Store URI (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to glean.yaml")
}

// loadConfig resolves the configuration: --config wins, then a
// glean.yaml found upwards from the working directory, then defaults.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if root, err := glean.FindRoot(wd); err == nil {
			path = filepath.Join(root, config.DefaultFile)
		} else {
			path = filepath.Join(wd, config.DefaultFile)
		}
	}
	return config.Load(path)
}

// openStore builds the configured store, honoring the --store flag.
func openStore(ctx context.Context) (glean.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	uri := cfg.Store
	if storeURI != "" {
		uri = storeURI
	}

	opts := []glean.Option{
		glean.WithLogger(slog.Default()),
		glean.WithDebounce(cfg.Debounce()),
		glean.WithPollInterval(cfg.PollInterval()),
	}
	if cfg.Adapter != "" {
		opts = append(opts, glean.WithAdapter(cfg.Adapter))
	}
	return glean.NewStore(ctx, uri, opts...)
}

// waitReady polls until the view leaves PhaseLoading, then reports
// whether it came up Live.
func waitReady(phase func() glean.Phase, reason func() error, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		switch phase() {
		case glean.PhaseLive:
			return nil
		case glean.PhaseErrored:
			return reason()
		case glean.PhaseClosed:
			return fmt.Errorf("view closed before becoming live")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("view not live after %s", timeout)
}
