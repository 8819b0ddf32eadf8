package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes search progress to Prometheus. It carries its own
// registry so repeated searches in one process do not collide.
type Collector struct {
	registry *prometheus.Registry
	workers  prometheus.Gauge
}

// New builds a collector reading the live derivation count through the given
// function.
func New(workers int, derivations func() float64) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "create2_miner",
			Name:      "workers",
			Help:      "Number of concurrent search workers.",
		}),
	}
	c.workers.Set(float64(workers))
	c.registry.MustRegister(
		c.workers,
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "create2_miner",
			Name:      "derivations_total",
			Help:      "Number of CREATE2 address derivations performed.",
		}, derivations),
	)
	return c
}

// Handler returns the exposition handler for the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve blocks, serving /metrics on addr.
func (c *Collector) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	return http.ListenAndServe(addr, mux)
}
