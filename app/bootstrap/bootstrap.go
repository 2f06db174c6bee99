package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/plotcraft/backend-go/app/router"
	"github.com/plotcraft/backend-go/internal/auth"
	"github.com/plotcraft/backend-go/internal/config"
	"github.com/plotcraft/backend-go/internal/database"
	"github.com/plotcraft/backend-go/internal/di"
	"github.com/plotcraft/backend-go/internal/kafka"
	"github.com/plotcraft/backend-go/internal/knowledge"
	"github.com/plotcraft/backend-go/internal/logger"
	"github.com/plotcraft/backend-go/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// Options controls which infrastructure Init opens.
type Options struct {
	// SkipDatabase runs without postgres. Scene drafts and reindexing are
	// unavailable in that mode.
	SkipDatabase bool
}

// App encapsulates lifecycle resources that need to be cleaned up on shutdown.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Database  *database.Database
	Pipeline  *knowledge.Pipeline
	Assistant *services.AssistantService
	Reindex   *services.ReindexService
	Worker    *services.IndexWorker
	JWT       *auth.JWTService

	cleanupTasks []func() error
}

// Init bootstraps configuration, logger, database connections and the RAG
// pipeline.
func Init(ctx context.Context, opts Options) (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	if err := config.LoadConfig(); err != nil {
		return nil, err
	}
	cfg := config.GetAppConfig()

	app := &App{Config: cfg, Logger: logger.GetLogger()}
	infra := di.Infrastructure{Config: cfg, Logger: app.Logger}

	if !opts.SkipDatabase {
		db, err := database.InitDB(app.Logger)
		if err != nil {
			return nil, err
		}
		app.cleanupTasks = append(app.cleanupTasks, database.CloseDB)

		wrapped, err := database.Wrap(db, newLogrus(cfg.Server.Env))
		if err != nil {
			app.Shutdown()
			return nil, err
		}
		app.Database = wrapped
		infra.DB = db
	}

	// Redis only backs the embedding cache, so a failure is not fatal.
	if cfg.RAG.Embedding.Cache.Enabled {
		rdb, err := database.InitRedis(ctx)
		if err != nil {
			logger.Warn("Failed to initialize Redis, embedding cache disabled", zap.Error(err))
		} else {
			app.cleanupTasks = append(app.cleanupTasks, database.CloseRedis)
			infra.Redis = redis.UniversalClient(rdb)
		}
	}

	if _, err := di.InitContainer(ctx, infra); err != nil {
		app.Shutdown()
		return nil, err
	}
	var producer *kafka.Producer
	err := di.Invoke(func(p *knowledge.Pipeline, a *services.AssistantService, r *services.ReindexService, w *services.IndexWorker, j *auth.JWTService, kp *kafka.Producer) {
		app.Pipeline = p
		app.Assistant = a
		app.Reindex = r
		app.Worker = w
		app.JWT = j
		producer = kp
	})
	if err != nil {
		app.Shutdown()
		return nil, fmt.Errorf("failed to build application: %w", err)
	}
	app.cleanupTasks = append(app.cleanupTasks, app.Pipeline.Close)
	if producer != nil {
		app.cleanupTasks = append(app.cleanupTasks, producer.Close)
	}

	watching := config.WatchConfig(func(*config.Config) {
		logger.Info("Configuration file changed; provider settings apply on restart")
	}, func(err error) {
		logger.Warn("Ignoring invalid configuration change", zap.Error(err))
	})
	if watching {
		logger.Debug("Watching configuration file for changes")
	}

	return app, nil
}

// StartMonitoring runs the database health checker and pool sampler until ctx ends.
func (a *App) StartMonitoring(ctx context.Context) {
	if a.Database != nil {
		a.Database.StartMonitoring(ctx)
	}
}

// RouterDependencies describes the HTTP surface backed by this App.
func (a *App) RouterDependencies() router.Dependencies {
	deps := router.Dependencies{
		Server:    a.Config.Server,
		Metrics:   a.Config.Prometheus.Enabled,
		Assistant: a.Assistant,
		Tokens:    a.JWT,
		Store:     a.Pipeline.Store,
		Generator: a.Pipeline.Generator,
		Logger:    a.Logger,
	}
	if a.Database != nil {
		deps.Database = a.Database
	}
	return deps
}

// Shutdown flushes/logs and closes resources gracefully.
func (a *App) Shutdown() {
	// Execute cleanup tasks in reverse order (best effort).
	for i := len(a.cleanupTasks) - 1; i >= 0; i-- {
		if err := a.cleanupTasks[i](); err != nil {
			log.Printf("Cleanup error: %v\n", err)
		}
	}
	a.cleanupTasks = nil

	logger.Sync()
}

// newLogrus builds the logger used by the database monitors.
func newLogrus(env string) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	if env == "development" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}
