package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	markReadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "glean_mark_read_failures_total",
		Help: "Total failed mark-read writes, reported to callers and not retried",
	})

	notificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glean_notifications_published_total",
		Help: "Total notifications written to the store, by category",
	}, []string{"category"})
)
