package donation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var donationsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "glean_donations_submitted_total",
	Help: "Donations recorded successfully.",
})
