package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	viewsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "glean_views_active",
		Help: "Number of views currently open (subscription held or pending)",
	})

	snapshotDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "glean_snapshot_deliveries_total",
		Help: "Total replacement snapshots applied to projections",
	})

	queryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "glean_query_failures_total",
		Help: "Total initial queries that failed and left a view errored",
	})

	subscriptionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "glean_subscription_failures_total",
		Help: "Total failed deliveries reported by subscriptions",
	})
)
