// Package metrics exposes shelf activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calvinalkan/shelf/internal/shelf"
)

var (
	// Registry holds the shelf collectors.
	Registry = prometheus.NewRegistry()

	items = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "shelf",
			Name:      "items",
			Help:      "Number of items on the shelf after the last change.",
		},
	)

	changes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelf",
			Name:      "changes_total",
			Help:      "Persisted shelf mutations by action.",
		},
		[]string{"action"},
	)

	sweeps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shelf",
			Name:      "sweeps_total",
			Help:      "Overdue sweeps run, by whether they changed anything.",
		},
		[]string{"changed"},
	)

	flagged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shelf",
			Name:      "overdue_flagged_total",
			Help:      "Loans flagged overdue by sweeps.",
		},
	)
)

func init() {
	Registry.MustRegister(
		items,
		changes,
		sweeps,
		flagged,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Observe records a shelf change. Register it with [shelf.Shelf.Subscribe].
func Observe(c shelf.Change) {
	changes.WithLabelValues(string(c.Action)).Inc()
	items.Set(float64(c.Size))

	if c.Action == shelf.ActionSwept {
		flagged.Add(float64(len(c.Swept)))
	}
}

// SetItems sets the item gauge, for use before the first change arrives.
func SetItems(n int) {
	items.Set(float64(n))
}

// RecordSweep counts one sweep run.
func RecordSweep(changed bool) {
	sweeps.WithLabelValues(strconv.FormatBool(changed)).Inc()
}
