package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/firewatch/env-data-aggregation/internal/api/http"
	"github.com/firewatch/env-data-aggregation/internal/config"
	"github.com/firewatch/env-data-aggregation/internal/envdata"
	"github.com/firewatch/env-data-aggregation/internal/envdata/sources"
	"github.com/firewatch/env-data-aggregation/internal/geo"
	"github.com/firewatch/env-data-aggregation/internal/interpret"
	"github.com/firewatch/env-data-aggregation/internal/logger"
	"github.com/firewatch/env-data-aggregation/internal/observability"
	"github.com/firewatch/env-data-aggregation/internal/scheduler"
	"github.com/firewatch/env-data-aggregation/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound service calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Attribute tables: lazy authoritative loads with static fallback.
	tableLoader := interpret.NewHTTPTableLoader(cfg.AttrTableBaseURL, httpClient)
	decoder := interpret.NewDecoder(tableLoader, log, metrics)

	srcs, err := buildSources(cfg, httpClient, decoder, log)
	if err != nil {
		log.Fatal("failed to build sources", zap.Error(err))
	}
	metrics.SourcesEnabled.Set(float64(len(srcs)))

	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	resolver := geo.NewResolver(cfg.GeocoderAPIKey, log)

	aggregator := envdata.NewAggregator(srcs, cfg.MasterTimeout, log, metrics)
	service := envdata.NewService(aggregator, memStore, resolver, log)

	// Periodic re-attempt of failed attribute table loads.
	sched := scheduler.New(decoder, cfg.AttrTableRefresh, log)
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "env-data-aggregation",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "env-data-aggregation",
		})
	})

	httpapi.RegisterRoutes(app, service)

	// Metrics on a separate listener so the scrape port stays internal.
	metricsServer := observability.NewServer(cfg.MetricsAddr, log)
	go func() {
		if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()

	go func() {
		log.Info("api server starting", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during api shutdown", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("error during metrics shutdown", zap.Error(err))
	}
}

// buildSources instantiates the enabled adapters in config order.
func buildSources(cfg *config.AppConfig, client *http.Client, decoder *interpret.Decoder, log *zap.Logger) ([]envdata.Source, error) {
	landfireWCS := sources.NewWCSClient(sources.LandfireWCSBaseURL, client)
	usgsWCS := sources.NewWCSClient(sources.USGSWCSBaseURL, client)
	ornl := sources.NewORNLClient("", client)

	var out []envdata.Source
	for _, name := range cfg.EnabledSources {
		timeout := cfg.SourceTimeout(name)

		switch name {
		case sources.NameLandfire:
			src, err := sources.NewLandfire(landfireWCS, decoder, cfg.LandfireYear, timeout, log)
			if err != nil {
				return nil, err
			}
			out = append(out, src)
		case sources.NameMODIS:
			out = append(out, sources.NewMODIS(ornl, cfg.MODISSearchDays, timeout, log))
		case sources.NameUSGS:
			out = append(out, sources.NewUSGS(usgsWCS, timeout, log))
		case sources.NameOpenWeather:
			out = append(out, sources.NewOpenWeather(client, cfg.OpenWeatherAPIKey, "", timeout, log))
		default:
			log.Warn("ignoring unknown source", zap.String("source", name))
		}
	}
	return out, nil
}
