// Package fs implements core.Store on top of a plain directory tree.
// Each collection is a subdirectory; each document is a JSON file
// named <id>.json. Live subscriptions watch the collection directory
// with fsnotify and re-read it after a debounce window.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/glean/pkg/core"
)

const docExt = ".json"

// Config holds the configuration for the filesystem store.
type Config struct {
	Path           string
	MustExist      bool
	Debounce       time.Duration // settle window after a burst of file events
	IgnorePatterns []string      // doublestar patterns, matched against file basenames
	Logger         *slog.Logger
}

// Store is a filesystem-backed document store.
type Store struct {
	Path   string
	config Config
}

// NewStore creates a filesystem store rooted at config.Path.
func NewStore(config Config) *Store {
	if config.Debounce <= 0 {
		config.Debounce = 50 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Store{Path: config.Path, config: config}
}

// Initialize performs the necessary setup for the store root.
func (s *Store) Initialize(_ context.Context) error {
	if s.config.MustExist {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("store path does not exist: %s", s.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", s.Path)
		}
		return nil
	}
	if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	return nil
}

// Query reads every document in the collection directory, filters,
// and returns them ordered by file modification time (oldest first)
// so the result approximates insertion order.
func (s *Store) Query(_ context.Context, collection string, filter core.Filter) ([]core.Document, error) {
	if err := validateName(collection); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.Path, collection)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []core.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", collection, err)
	}

	type loaded struct {
		doc   core.Document
		mtime time.Time
	}
	var docs []loaded
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), docExt) {
			continue
		}
		if strings.HasPrefix(e.Name(), TempFilePrefix) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), docExt)
		doc, err := s.read(collection, id)
		if err != nil {
			// A writer may have removed or half-replaced the file
			// between ReadDir and read. Skip, the watcher will
			// deliver a fresh snapshot.
			s.config.Logger.Debug("skipping unreadable document", "collection", collection, "id", id, "error", err)
			continue
		}
		if !filter.Matches(doc) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		docs = append(docs, loaded{doc: doc, mtime: info.ModTime()})
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].mtime.Before(docs[j].mtime) })
	out := make([]core.Document, len(docs))
	for i, l := range docs {
		out[i] = l.doc
	}
	return out, nil
}

// Get retrieves a single document.
func (s *Store) Get(_ context.Context, collection, id string) (core.Document, error) {
	if err := validateName(collection); err != nil {
		return core.Document{}, err
	}
	if err := validateName(id); err != nil {
		return core.Document{}, err
	}
	return s.read(collection, id)
}

func (s *Store) read(collection, id string) (core.Document, error) {
	path := filepath.Join(s.Path, collection, id+docExt)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return core.Document{}, core.ErrNotFound
	}
	if err != nil {
		return core.Document{}, err
	}
	var fields core.Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return core.Document{}, fmt.Errorf("failed to parse document %s/%s: %w", collection, id, err)
	}
	return core.Document{ID: id, Fields: fields}, nil
}

// Put persists a document, creating the collection directory on first
// write. The file swap is atomic so readers never see partial JSON.
func (s *Store) Put(_ context.Context, collection string, doc core.Document) error {
	if doc.ID == "" {
		return core.ErrNoID
	}
	if err := validateName(collection); err != nil {
		return err
	}
	if err := validateName(doc.ID); err != nil {
		return err
	}

	dir := filepath.Join(s.Path, collection)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create collection directory: %w", err)
	}

	data, err := json.MarshalIndent(doc.Fields, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, doc.ID+docExt), data, 0644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// Mutate applies a partial patch with read-modify-write. The final
// swap is atomic; concurrent mutates of the same document may lose
// the race, last write wins.
func (s *Store) Mutate(ctx context.Context, collection string, id string, patch core.Fields) error {
	if err := validateName(collection); err != nil {
		return err
	}
	if err := validateName(id); err != nil {
		return err
	}
	doc, err := s.read(collection, id)
	if err != nil {
		return err
	}
	// A fieldless document deserializes to a nil map.
	doc = doc.Clone()
	for k, v := range patch {
		doc.Fields[k] = v
	}
	return s.Put(ctx, collection, doc)
}

// Delete removes a document.
func (s *Store) Delete(_ context.Context, collection string, id string) error {
	if err := validateName(collection); err != nil {
		return err
	}
	if err := validateName(id); err != nil {
		return err
	}
	path := filepath.Join(s.Path, collection, id+docExt)
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return core.ErrNotFound
	}
	return err
}

// validateName rejects names that would escape the store root.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid name: %q", name)
	}
	return nil
}
