package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "weatherdesk/internal/api/http"
	"weatherdesk/internal/config"
	"weatherdesk/internal/provider"
	"weatherdesk/internal/scheduler"
	"weatherdesk/internal/service"
	"weatherdesk/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Durable state under the data directory.
	persist, err := store.NewManager(cfg.DataDir, zlog)
	if err != nil {
		zlog.Fatal("opening data directory", zap.Error(err))
	}
	stores := persist.LoadAll()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	owm := provider.NewClient(httpClient, cfg.OpenWeatherAPIKey, zlog)
	locator := provider.NewLocator(httpClient)

	svc := service.New(owm, stores, persist, zlog)

	// Auto-refresh follows the interval setting; a settings change
	// reschedules the job live.
	sched := scheduler.New(svc, zlog)
	svc.SetRefreshHook(sched.Reschedule)
	sched.Start(time.Duration(stores.Settings.Current().RefreshIntervalMinutes) * time.Minute)
	defer sched.Stop()

	app := httpapi.NewApp("weatherdesk")
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weatherdesk",
		})
	})

	httpapi.RegisterRoutes(app, svc, locator, zlog)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("fiber server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}

	// Flush state on the way out so a clean exit never loses data.
	if err := persist.SaveAll(svc.Stores()); err != nil {
		zlog.Error("persisting state on shutdown", zap.Error(err))
	}
}
