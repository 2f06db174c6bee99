package controllers

import (
	"context"
	"net/http"
)

type readiness interface {
	Ready() bool
}

type configurable interface {
	Configured() bool
}

type pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthController reports liveness plus the state of each dependency. The
// endpoint answers 200 unless the database is unreachable.
type HealthController struct {
	BaseController
	Store     readiness
	Generator configurable
	Database  pinger
}

func (c *HealthController) Health() {
	status := http.StatusOK
	body := map[string]interface{}{"status": "ok"}

	if c.Database != nil {
		if err := c.Database.HealthCheck(c.Ctx.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "unavailable"
		} else {
			body["database"] = "ok"
		}
	}
	if c.Store != nil {
		body["vector_store"] = c.Store.Ready()
	}
	if c.Generator != nil {
		body["generation_configured"] = c.Generator.Configured()
	}
	c.JSON(status, body)
}
