// Package metrics exposes session counters in the Prometheus format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "librarybot"

// Session records per-cycle counters. A nil *Session is a valid no-op.
type Session struct {
	events      *prometheus.CounterVec
	ignored     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	books       prometheus.Gauge
	duration    prometheus.Histogram
}

// NewSession creates the session collectors and registers them on reg.
func NewSession(reg prometheus.Registerer) (*Session, error) {
	m := &Session{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Classified input lines by kind.",
		}, []string{"kind"}),
		ignored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ignored_events_total",
			Help:      "Events without a matching rule, by state.",
		}, []string{"state"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "State changes of the session machine.",
		}, []string{"from", "to"}),
		books: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "books",
			Help:      "Entries in the book collection.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time spent handling one input line, excluding the read.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.events, m.ignored, m.transitions, m.books, m.duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Cycle describes one handled input line.
type Cycle struct {
	Kind     string
	From     string
	To       string
	Handled  bool
	Books    int
	Duration time.Duration
}

// Observe records c.
func (m *Session) Observe(c Cycle) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(c.Kind).Inc()
	if !c.Handled {
		m.ignored.WithLabelValues(c.From).Inc()
	}
	if c.From != c.To {
		m.transitions.WithLabelValues(c.From, c.To).Inc()
	}
	m.books.Set(float64(c.Books))
	m.duration.Observe(c.Duration.Seconds())
}
