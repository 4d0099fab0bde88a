package handler

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves a Prometheus registry.
type MetricsHandler struct {
	handler fiber.Handler
}

// NewMetricsHandler exposes gatherer; nil means the default registry.
func NewMetricsHandler(gatherer prometheus.Gatherer) *MetricsHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	promHandler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	return &MetricsHandler{handler: adaptor.HTTPHandler(promHandler)}
}

func (h *MetricsHandler) GetMetrics(c *fiber.Ctx) error {
	return h.handler(c)
}
