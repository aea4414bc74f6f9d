package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	analyticshttp "linktrack/internal/analytics/delivery/http"
	"linktrack/internal/analytics/enrichment"
	analyticssqlite "linktrack/internal/analytics/repository/sqlite"
	analyticsusecase "linktrack/internal/analytics/usecase"
	"linktrack/internal/config"
	"linktrack/internal/database"
	httpdelivery "linktrack/internal/delivery/http"
	"linktrack/internal/dispatch"
	linkhttp "linktrack/internal/linkservice/delivery/http"
	linksqlite "linktrack/internal/linkservice/repository/sqlite"
	linkusecase "linktrack/internal/linkservice/usecase"
	"linktrack/internal/metrics"
	"linktrack/internal/ratelimit"

	"github.com/redis/go-redis/v9"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

func main() {
	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		logger.Fatal("failed to create data directory", zap.Error(err))
	}

	// Open database
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	logger.Info("database initialized", zap.String("path", cfg.Database.Path))

	// Geo enrichment is optional: without a database file, requests are
	// recorded with empty geo fields.
	var geo enrichment.GeoResolver
	if cfg.Geo.DBPath != "" {
		resolver, err := enrichment.NewGeoIPResolver(cfg.Geo.DBPath)
		if err != nil {
			logger.Warn("failed to open geo database, geo enrichment disabled",
				zap.String("path", cfg.Geo.DBPath),
				zap.Error(err),
			)
		} else {
			defer resolver.Close()
			geo = resolver
		}
	}

	m := metrics.New()
	proxies := enrichment.NewTrustedProxies(cfg.TrustedProxies)
	detector := enrichment.NewDeviceDetector()
	classifier := enrichment.NewRefererClassifier()
	pipeline := enrichment.NewPipeline(proxies, geo, detector, cfg.Geo.Timeout)

	limiter := newLimiter(cfg, logger)

	// Dispatch bus and background recorder
	busLogger := dispatch.NewZapLoggerAdapter(logger)
	bus := dispatch.NewBus(cfg.Dispatch.QueueSize, busLogger)
	defer bus.Close()

	clickRepo := analyticssqlite.NewClickRepository(db)
	analyticsService := analyticsusecase.NewAnalyticsService(clickRepo, detector, classifier)

	recorder := dispatch.NewRecorder(analyticsService, logger, m, cfg.Dispatch.RecordTimeout)
	recordRouter, err := dispatch.NewRouter(bus, recorder, busLogger)
	if err != nil {
		logger.Fatal("failed to build record router", zap.Error(err))
	}

	routerCtx, stopRouter := context.WithCancel(context.Background())
	defer stopRouter()
	go func() {
		if err := recordRouter.Run(routerCtx); err != nil {
			logger.Error("record router stopped", zap.Error(err))
		}
	}()
	<-recordRouter.Running()

	// Wire dependencies
	linkRepo := linksqlite.NewLinkRepository(db)
	linkService := linkusecase.NewLinkService(linkRepo, clickReaderAdapter{analyticsService}, logger, cfg.Server.BaseURL)

	linkHandler := linkhttp.NewHandler(linkService, cfg.Server.BaseURL, bus, m, logger, db)
	statsHandler := analyticshttp.NewHandler(analyticsService, logger)

	router := httpdelivery.NewRouter(httpdelivery.RouterDeps{
		Links:     linkHandler,
		Stats:     statsHandler,
		Limiter:   limiter,
		RateLimit: cfg.RateLimit.RequestsPerMinute,
		Pipeline:  pipeline,
		Proxies:   proxies,
		Publisher: bus,
		Metrics:   m,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("base_url", cfg.Server.BaseURL),
			zap.Int("rate_limit", cfg.RateLimit.RequestsPerMinute),
			zap.String("rate_limit_backend", cfg.RateLimit.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down")

	// Graceful shutdown with 10 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	// Stop the record router after the server so in-flight events drain.
	stopRouter()

	logger.Info("server stopped")
}

// newLimiter selects the rate limiter backend from config.
func newLimiter(cfg *config.Config, logger *zap.Logger) ratelimit.Limiter {
	if cfg.RateLimit.Backend == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
		logger.Info("using redis rate limiter", zap.String("addr", cfg.RateLimit.RedisAddr))
		return ratelimit.NewRedisStore(client, cfg.RateLimit.RequestsPerMinute)
	}
	return ratelimit.NewLocal(cfg.RateLimit.RequestsPerMinute)
}

// clickReaderAdapter exposes analytics click reads in the shape the link
// service consumes, keeping the two services decoupled.
type clickReaderAdapter struct {
	analytics *analyticsusecase.AnalyticsService
}

var _ linkusecase.ClickReader = clickReaderAdapter{}

func (a clickReaderAdapter) CountByLink(ctx context.Context, linkID int64) (int64, error) {
	return a.analytics.CountByLink(ctx, linkID)
}

func (a clickReaderAdapter) CountByLinks(ctx context.Context, linkIDs []int64) (map[int64]int64, error) {
	return a.analytics.CountByLinks(ctx, linkIDs)
}

func (a clickReaderAdapter) RecentByLink(ctx context.Context, linkID int64, limit int) ([]linkusecase.ClickRecord, error) {
	clicks, err := a.analytics.RecentByLink(ctx, linkID, limit)
	if err != nil {
		return nil, err
	}

	records := make([]linkusecase.ClickRecord, 0, len(clicks))
	for _, c := range clicks {
		records = append(records, linkusecase.ClickRecord{
			OccurredAt: c.OccurredAt,
			ClientIP:   c.IP,
			Country:    c.Country,
			Region:     c.Region,
			City:       c.City,
			UserAgent:  c.UserAgent,
			Referrer:   c.Referrer,
		})
	}
	return records, nil
}
