package controllers

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsController exposes the default Prometheus registry.
type MetricsController struct {
	BaseController
}

func (c *MetricsController) Metrics() {
	promhttp.Handler().ServeHTTP(c.Ctx.ResponseWriter, c.Ctx.Request)
}
