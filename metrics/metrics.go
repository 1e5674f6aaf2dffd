// Package metrics exports container activity as Prometheus metrics.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danpasecinic/quill"
)

const outcomeOK = "ok"

// Collector counts resolutions and binding changes of the containers it
// observes. Register it once and pass Options to each container.
type Collector struct {
	resolves *prometheus.CounterVec
	duration *prometheus.HistogramVec
	binds    *prometheus.CounterVec
	unbinds  prometheus.Counter
	bindings prometheus.Gauge
}

func New(namespace string) *Collector {
	return &Collector{
		resolves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolves_total",
				Help:      "Top-level resolutions by contract and outcome.",
			},
			[]string{"contract", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolve_duration_seconds",
				Help:      "Time spent building an object graph.",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"contract"},
		),
		binds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "binds_total",
				Help:      "Bindings registered by provider kind.",
			},
			[]string{"kind"},
		),
		unbinds: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unbinds_total",
				Help:      "Bindings removed.",
			},
		),
		bindings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "bindings",
				Help:      "Bindings currently registered across observed containers.",
			},
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.resolves.Describe(ch)
	c.duration.Describe(ch)
	c.binds.Describe(ch)
	c.unbinds.Describe(ch)
	c.bindings.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.resolves.Collect(ch)
	c.duration.Collect(ch)
	c.binds.Collect(ch)
	c.unbinds.Collect(ch)
	c.bindings.Collect(ch)
}

// Options wires the collector into a container.
func (c *Collector) Options() []quill.Option {
	return []quill.Option{
		quill.WithResolveObserver(c.observeResolve),
		quill.WithBindObserver(c.observeBind),
		quill.WithUnbindObserver(c.observeUnbind),
	}
}

func (c *Collector) observeResolve(key string, d time.Duration, err error) {
	c.resolves.WithLabelValues(key, Outcome(err)).Inc()
	c.duration.WithLabelValues(key).Observe(d.Seconds())
}

func (c *Collector) observeBind(_ string, kind string) {
	c.binds.WithLabelValues(kind).Inc()
	c.bindings.Inc()
}

func (c *Collector) observeUnbind(_ string, removed int) {
	c.unbinds.Add(float64(removed))
	c.bindings.Sub(float64(removed))
}

// Outcome is the label recorded for a resolution result.
func Outcome(err error) string {
	if err == nil {
		return outcomeOK
	}
	return strings.ToLower(quill.CodeOf(err).String())
}
