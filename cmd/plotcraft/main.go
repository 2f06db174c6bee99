package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/beego/beego/v2/server/web"
	"github.com/plotcraft/backend-go/app/bootstrap"
	"github.com/plotcraft/backend-go/app/router"
	"github.com/plotcraft/backend-go/internal/logger"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Init(ctx, bootstrap.Options{})
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer app.Shutdown()

	if err := router.Init(app.RouterDependencies()); err != nil {
		log.Fatalf("failed to register routes: %v", err)
	}
	app.StartMonitoring(ctx)

	port, err := strconv.Atoi(app.Config.Server.Port)
	if err != nil {
		log.Fatalf("invalid server port %q", app.Config.Server.Port)
	}

	web.BConfig.AppName = "plotcraft"
	web.BConfig.CopyRequestBody = true
	web.BConfig.WebConfig.AutoRender = false
	web.BConfig.Listen.HTTPPort = port
	web.BConfig.Listen.Graceful = false
	if app.Config.Server.Env == "production" {
		web.BConfig.RunMode = web.PROD
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down")
		app.Shutdown()
		os.Exit(0)
	}()

	logger.Info("Starting plotcraft API", zap.Int("port", port))
	web.Run()
}
