package handler

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/tasknest/backend/internal/metrics"
)

type MetricsHandler struct {
	metrics *metrics.Metrics
	prober  metrics.DBProber
	expose  fasthttp.RequestHandler
}

func NewMetricsHandler(m *metrics.Metrics, prober metrics.DBProber) *MetricsHandler {
	return &MetricsHandler{
		metrics: m,
		prober:  prober,
		expose:  fasthttpadaptor.NewFastHTTPHandler(m.Handler()),
	}
}

// Expose probes the database on every scrape, then serves the Prometheus
// exposition format.
func (h *MetricsHandler) Expose(ctx *fasthttp.RequestCtx) {
	probeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	h.metrics.ObserveDB(probeCtx, h.prober)
	h.expose(ctx)
}
