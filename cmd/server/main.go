package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"searchabull-keyword-engine/internal/config"
	"searchabull-keyword-engine/internal/handler"
	"searchabull-keyword-engine/internal/service"
	"searchabull-keyword-engine/pkg/logger"
	"searchabull-keyword-engine/pkg/metrics"
)

type Application struct {
	configPath string
	debug      bool
}

func main() {
	app := &Application{}

	flag.StringVar(&app.configPath, "config", "", "Configuration file path (optional, env SEARCHABULL_* overrides)")
	flag.BoolVar(&app.debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if err := app.Run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func (app *Application) Run() error {
	manager := config.NewManager()
	cfg, err := manager.Load(app.configPath)
	if err != nil {
		return err
	}
	if app.debug {
		cfg.Logger.Level = "debug"
	}
	logger.SetLogger(logger.New(cfg.Logger))
	appLog := logger.GetLogger().WithField("component", "server")

	manager.Watch(func(next *config.Config, err error) {
		if err != nil {
			appLog.WithError(err).Warn("Config change rejected")
			return
		}
		if app.debug {
			next.Logger.Level = "debug"
		}
		logger.SetLogger(logger.New(next.Logger))
		appLog.WithField("level", next.Logger.Level).Info("Config reloaded, logger updated")
	})

	engine, err := service.NewEngine(cfg, service.WithMetrics(metrics.Default()))
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	server := fiber.New(fiber.Config{
		AppName:               "searchabull-keyword-engine",
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		BodyLimit:             cfg.Server.BodyLimit,
		DisableStartupMessage: true,
	})
	controller := handler.NewController(engine, handler.ControllerConfig{RunTimeout: cfg.Server.RunTimeout})
	controller.RegisterRoutes(server, handler.NewMetricsHandler(nil))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		appLog.WithField("addr", addr).Info("Server started")
		errChan <- server.Listen(addr)
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server stopped: %w", err)
	case sig := <-sigChan:
		appLog.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	appLog.Info("Server stopped")
	return nil
}
