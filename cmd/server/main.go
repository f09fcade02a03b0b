package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-dashboard/internal/api"
	"github.com/bobby-s-dev/weather-dashboard/internal/config"
	"github.com/bobby-s-dev/weather-dashboard/internal/scheduler"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/bobby-s-dev/weather-dashboard/pkg/client"
	"github.com/bobby-s-dev/weather-dashboard/web"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "weather-dashboard",
		Short:         "Weather analytics dashboard",
		Long:          "Fetches current weather and forecasts from OpenWeatherMap and renders them as a dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	rootCmd.AddCommand(serveCmd, newCurrentCmd(), newForecastCmd(), newGeocodeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// deps holds the wired components shared by the server and the CLI.
type deps struct {
	cfg       *config.Config
	logger    *zap.Logger
	client    *client.OpenWeatherClient
	cache     services.Cache
	dashboard *services.Dashboard
	close     func()
}

// setup loads configuration and wires the client, cache and dashboard.
// withMemoryCache=false replaces the in-memory backend with no cache.
func setup(withMemoryCache bool) (*deps, error) {
	// Bootstrap logger until the configured level is known
	bootstrap, _ := zap.NewProduction()
	zap.ReplaceGlobals(bootstrap)

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg.Server.LogLevel)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)

	weatherClient := client.NewOpenWeatherClient(
		cfg.WeatherAPI.APIKey,
		cfg.WeatherAPI.BaseURL,
		cfg.WeatherAPI.GeoURL,
		client.ClientConfig{
			Timeout:        cfg.WeatherAPI.RequestTimeout,
			Threshold:      cfg.CircuitBreaker.Threshold,
			BreakerTimeout: cfg.CircuitBreaker.Timeout,
		},
		logger,
	)

	rt := &deps{
		cfg:    cfg,
		logger: logger,
		client: weatherClient,
		close:  func() { _ = logger.Sync() },
	}

	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisCache := services.NewRedisCache(rdb, cfg.Cache.Duration, logger)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisCache.Ping(ctx); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		rt.cache = redisCache
		rt.close = func() {
			_ = rdb.Close()
			_ = logger.Sync()
		}
	case config.CacheMemory:
		if withMemoryCache {
			rt.cache = services.NewWeatherCache(cfg.Cache.Duration, cfg.Cache.MaxSize, logger)
		} else {
			rt.cache = services.NewNoopCache()
		}
	default:
		rt.cache = services.NewNoopCache()
	}

	rt.dashboard = services.NewDashboard(cfg, weatherClient, rt.cache, logger)
	return rt, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = lvl
	return zapCfg.Build()
}

func serve() error {
	rt, err := setup(true)
	if err != nil {
		return err
	}
	defer rt.close()

	logger := rt.logger
	cfg := rt.cfg
	logger.Info("Starting Weather Analytics Dashboard",
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("default_unit", string(cfg.Display.DefaultUnit)))

	// Expired entries of the in-memory cache are purged on a schedule
	var janitor *scheduler.Scheduler
	if memCache, ok := rt.cache.(*services.WeatherCache); ok {
		janitor = scheduler.NewScheduler(memCache, cfg.Cache.CleanupSchedule, logger)
		if err := janitor.Start(); err != nil {
			return err
		}
		defer janitor.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:      "weather-dashboard",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JSONEncoder:  json.Marshal,
		ErrorHandler: api.ErrorHandler,
	})

	var status api.StatusProvider
	if janitor != nil {
		status = janitor
	}
	handler := api.NewHandler(rt.dashboard, rt.client, status, logger)
	api.SetupRoutes(app, handler, web.Assets(), logger)

	// Start server in goroutine
	listenErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))
		listenErr <- app.Listen(addr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}
