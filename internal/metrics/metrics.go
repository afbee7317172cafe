// Package metrics exposes rotation activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rotatonator/rotatonator-go/pkg/rotatonator/event"
)

// Collector turns engine events into metrics. Observe has the shape of an
// event listener and can be registered on a session directly.
type Collector struct {
	namespace string
	registry  *prometheus.Registry

	casts          *prometheus.CounterVec
	playerCasts    prometheus.Counter
	rosterReplaced prometheus.Counter
	turnsStarting  prometheus.Counter
	turnsNow       prometheus.Counter
	evaluations    *prometheus.CounterVec
	timingDiff     prometheus.Histogram
	healerScore    *prometheus.GaugeVec
	rosterSize     prometheus.Gauge
	chainInterval  prometheus.Gauge
}

// Option applies a configuration option to the Collector.
type Option func(*Collector)

// WithNamespace sets the namespace for all metrics. Default: "rotatonator".
func WithNamespace(namespace string) Option {
	return func(c *Collector) {
		if namespace != "" {
			c.namespace = namespace
		}
	}
}

// WithRegistry registers the metrics on r instead of a private registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(c *Collector) {
		if r != nil {
			c.registry = r
		}
	}
}

// NewCollector creates and registers all metrics.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{namespace: "rotatonator"}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(c.registry)

	c.casts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      "casts_total",
		Help:      "Chain casts detected, by whether the caster is in the roster",
	}, []string{"in_roster"})

	c.playerCasts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      "player_casts_total",
		Help:      "Chain casts by the local player",
	})

	c.rosterReplaced = auto.NewCounter(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      "roster_replacements_total",
		Help:      "Rosters replaced by chat imports",
	})

	c.turnsStarting = auto.NewCounter(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      "turns_starting_total",
		Help:      "Turn deadlines armed for the local player",
	})

	c.turnsNow = auto.NewCounter(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      "turns_now_total",
		Help:      "Turn deadlines that elapsed",
	})

	c.evaluations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Subsystem: "scoring",
		Name:      "evaluations_total",
		Help:      "Timing evaluations by accuracy",
	}, []string{"accuracy"})

	c.timingDiff = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: c.namespace,
		Subsystem: "scoring",
		Name:      "timing_diff_seconds",
		Help:      "Actual minus expected cast time",
		Buckets:   []float64{-2, -1, -0.5, -0.25, 0, 0.25, 0.5, 1, 2},
	})

	c.healerScore = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Subsystem: "scoring",
		Name:      "healer_score",
		Help:      "Cumulative score per healer",
	}, []string{"healer"})

	c.rosterSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Name:      "roster_size",
		Help:      "Healers in the current roster",
	})

	c.chainInterval = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: c.namespace,
		Name:      "chain_interval_seconds",
		Help:      "Current delay between consecutive casts",
	})

	return c
}

// SetRoster records the roster shape a session starts with.
func (c *Collector) SetRoster(size int, intervalSeconds float64) {
	c.rosterSize.Set(float64(size))
	c.chainInterval.Set(intervalSeconds)
}

// Observe records one event.
func (c *Collector) Observe(ev event.Event) {
	switch ev.Type {
	case event.CastDetected:
		c.casts.WithLabelValues(strconv.FormatBool(ev.Slot > 0)).Inc()
		if ev.IsPlayerCast {
			c.playerCasts.Inc()
		}
	case event.RosterReplaced:
		c.rosterReplaced.Inc()
		c.SetRoster(len(ev.Healers), ev.DelaySeconds)
	case event.TurnStarting:
		c.turnsStarting.Inc()
	case event.TurnNow:
		c.turnsNow.Inc()
	case event.ScoringResult:
		if ev.Timing == nil {
			return
		}
		c.evaluations.WithLabelValues(string(ev.Timing.Accuracy)).Inc()
		c.timingDiff.Observe(ev.Timing.Diff)
		c.healerScore.WithLabelValues(ev.Timing.Healer).Set(float64(ev.Timing.TotalScore))
	}
}

// Registry returns the registry the metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
