package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DBProber executes the probe query used to derive db_up.
type DBProber interface {
	Ping(ctx context.Context) error
}

// Metrics holds the Prometheus collectors exposed on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	DBUp           prometheus.Gauge
	DBQueryLatency prometheus.Histogram
	DBErrorsTotal  prometheus.Counter
}

// New builds the collectors on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DBUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_up",
			Help: "Database connectivity status (1=up, 0=down)",
		}),
		DBQueryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "db_query_latency_seconds",
			Help: "DB query latency in seconds",
		}),
		DBErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total number of DB errors",
		}),
	}

	m.registry.MustRegister(m.DBUp, m.DBQueryLatency, m.DBErrorsTotal)
	m.registry.MustRegister(collectors.NewGoCollector())
	return m
}

// ObserveDB probes the database and updates db_up, db_query_latency_seconds
// and db_errors_total accordingly.
func (m *Metrics) ObserveDB(ctx context.Context, prober DBProber) {
	start := time.Now()
	err := prober.Ping(ctx)
	m.DBQueryLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		m.DBUp.Set(0)
		m.DBErrorsTotal.Inc()
		return
	}
	m.DBUp.Set(1)
}

// Handler returns the exposition handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
