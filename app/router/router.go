package router

import (
	"context"
	"fmt"

	"github.com/beego/beego/v2/server/web"
	"github.com/plotcraft/backend-go/app/controllers"
	"github.com/plotcraft/backend-go/app/middleware"
	"github.com/plotcraft/backend-go/internal/config"
	"go.uber.org/zap"
)

// Dependencies is everything the HTTP surface needs. Optional members may be
// left nil.
type Dependencies struct {
	Server    config.ServerConfig
	Metrics   bool
	Assistant controllers.Assistant
	Tokens    middleware.TokenValidator
	Store     interface{ Ready() bool }
	Generator interface{ Configured() bool }
	Database  interface {
		HealthCheck(ctx context.Context) error
	}
	Logger *zap.Logger
}

// Route describes one registered controller route.
type Route struct {
	Pattern    string
	Methods    string
	Controller web.ControllerInterface
}

type filter struct {
	pattern string
	pos     int
	fn      web.FilterFunc
	opts    []web.FilterOpt
}

func routes(deps Dependencies) []Route {
	assistant := &controllers.AssistantController{Assistant: deps.Assistant}
	health := &controllers.HealthController{
		Store:     deps.Store,
		Generator: deps.Generator,
		Database:  deps.Database,
	}

	list := []Route{
		{Pattern: "/health", Methods: "get:Health", Controller: health},
		{Pattern: "/api/chat/general", Methods: "post:Chat;*:MethodNotAllowed", Controller: assistant},
		{Pattern: "/api/generate-scene/:scene_id", Methods: "post:GenerateSceneDraft;*:MethodNotAllowed", Controller: assistant},
	}
	if deps.Metrics {
		list = append(list, Route{Pattern: "/metrics", Methods: "get:Metrics", Controller: &controllers.MetricsController{}})
	}
	return list
}

// Register installs filters and routes on handlers.
func Register(handlers *web.ControllerRegister, deps Dependencies) error {
	if deps.Assistant == nil || deps.Tokens == nil {
		return fmt.Errorf("router: assistant and token validator are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	origins := deps.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = middleware.DefaultAllowedOrigins
	}

	filters := []filter{
		{"/*", web.BeforeRouter, middleware.RequestStart(), nil},
		{"/*", web.BeforeRouter, middleware.SecurityHeaders(), nil},
		{"/*", web.BeforeRouter, middleware.CORS(origins), nil},
		{"/api/*", web.BeforeRouter, middleware.AuthRequired(deps.Tokens, logger.Named("auth")), nil},
		{"/*", web.FinishRouter, middleware.RequestLog(logger.Named("http")), []web.FilterOpt{web.WithReturnOnOutput(false)}},
	}
	if deps.Server.RateLimit > 0 {
		// one bucket set shared by both generation endpoints
		limiter := middleware.NewRateLimiter(deps.Server.RateLimit, deps.Server.RateBurst).Filter()
		filters = append(filters,
			filter{"/api/chat/*", web.BeforeRouter, limiter, nil},
			filter{"/api/generate-scene/*", web.BeforeRouter, limiter, nil},
		)
	}
	for _, f := range filters {
		if err := handlers.InsertFilter(f.pattern, f.pos, f.fn, f.opts...); err != nil {
			return fmt.Errorf("router: filter %s: %w", f.pattern, err)
		}
	}

	for _, r := range routes(deps) {
		handlers.Add(r.Pattern, r.Controller, web.WithRouterMethods(r.Controller, r.Methods))
	}
	return nil
}

// Init registers everything on the default beego application.
func Init(deps Dependencies) error {
	return Register(web.BeeApp.Handlers, deps)
}
