// Package main is the entry point of the TPoS server. It wires storage,
// the Lightning gateway, the LNURL flows and the HTTP surface, then serves
// until interrupted.
package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tpos/internal/config"
	"tpos/internal/handlers"
	"tpos/internal/lnurl"
	"tpos/internal/logger"
	"tpos/internal/middleware"
	"tpos/internal/repositories"
	"tpos/internal/repositories/cache"
	"tpos/internal/routes"
	"tpos/internal/services/auth"
	"tpos/internal/services/gateway"
	"tpos/internal/services/payment"
	"tpos/internal/services/rates"
	"tpos/internal/services/tpos"
	"tpos/internal/tasks"
	"tpos/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

const (
	shutdownTimeout   = 10 * time.Second
	taskStopTimeout   = 5 * time.Second
	poolStatsInterval = time.Minute
	startupPingLimit  = 5 * time.Second
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.InitDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("failed to get database instance")
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.WithError(err).Warn("failed to close database connection")
		}
	}()
	log.Info("connected to database")

	cacheService := connectCache(ctx, cfg, log)
	if cacheService != nil {
		defer func() {
			if err := cacheService.Close(); err != nil {
				log.WithError(err).Warn("failed to close redis connection")
			}
		}()
	}

	// Storage
	walletRepo := repositories.NewWalletRepository(db, cacheService)
	tposRepo := repositories.NewTposRepository(db)
	userRepo := repositories.NewUserRepository(db)

	// Services
	lnbits := gateway.NewLNbits(cfg.LNbitsURL, cfg.GatewayTimeout, walletRepo)
	flows := payment.NewOrchestrator(lnbits, payment.NewClientFactory(lnurl.Options{
		Timeout:      cfg.LNURLTimeout,
		UserAgent:    cfg.LNURLUserAgent,
		MaxRedirects: cfg.LNURLMaxRedirects,
	}), log)
	tposService := tpos.NewService(tposRepo, walletRepo, lnbits, flows)
	authService := auth.NewService(userRepo, cfg.JWTSecret, cfg.JWTTTL)

	var priceCache rates.PriceCache
	if cacheService != nil {
		priceCache = cacheService
	}
	rateService := rates.NewService(
		rates.NewProvider(cfg.RatesURL, cfg.GatewayTimeout),
		priceCache,
		cfg.RateCacheTTL,
		cfg.RateCurrencies,
	)

	// Background tasks
	registry := tasks.NewRegistry(taskStopTimeout, log)
	defer registry.StopAll()

	scheduler := tasks.NewScheduler(log)
	if err := registry.Schedule(ctx, scheduler, cfg.RateRefreshSchedule, "rate_refresh", rateService.Refresh); err != nil {
		log.WithError(err).Fatal("invalid rate refresh schedule")
	}
	registry.StartScheduler("scheduler", scheduler)
	registry.Go(ctx, "pool_stats", func(ctx context.Context) error {
		return logPoolStats(ctx, sqlDB, cacheService, log)
	})

	// HTTP
	app := fiber.New(fiber.Config{
		AppName:      "tpos",
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Api-Key",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		Output: log.Logger.Out,
	}))

	pingers := map[string]handlers.Pinger{
		"database": repositories.NewDBHealth(db),
		"redis":    nil,
	}
	if cacheService != nil {
		pingers["redis"] = cacheService
	}

	routes.SetupRoutes(app, routes.Dependencies{
		Tpos:            handlers.NewTposHandler(tposService),
		Admin:           handlers.NewAdminHandler(registry),
		Auth:            handlers.NewAuthHandler(authService),
		Rates:           handlers.NewRateHandler(rateService),
		Health:          handlers.NewHealthHandler(pingers),
		Keys:            walletRepo,
		AuthMiddleware:  middleware.NewAuthMiddleware(authService),
		PublicRateLimit: cfg.PublicRateLimit,
	})

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(":" + cfg.Port)
	}()
	log.WithField("port", cfg.Port).Info("server started")

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-listenErr:
		log.WithError(err).Error("server stopped")
	}

	registry.StopAll()
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}

// connectCache returns nil when redis is unreachable; lookups then go
// straight to Postgres and the rate provider.
func connectCache(ctx context.Context, cfg config.Config, log *logrus.Entry) *cache.CacheService {
	cacheService := repositories.InitCache(cfg)

	pingCtx, cancel := context.WithTimeout(ctx, startupPingLimit)
	defer cancel()
	if err := cacheService.HealthCheck(pingCtx); err != nil {
		log.WithError(err).Warn("redis unavailable, running without cache")
		cacheService.Close()
		return nil
	}

	log.Info("connected to redis")
	return cacheService
}

func logPoolStats(ctx context.Context, sqlDB *sql.DB, cacheService *cache.CacheService, log *logrus.Entry) error {
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			stats := sqlDB.Stats()
			log.WithFields(logrus.Fields{
				"open":          stats.OpenConnections,
				"idle":          stats.Idle,
				"in_use":        stats.InUse,
				"wait_count":    stats.WaitCount,
				"wait_duration": stats.WaitDuration,
			}).Debug("db stats")

			if cacheService == nil {
				continue
			}
			ps := cacheService.GetStats()
			log.WithFields(logrus.Fields{
				"total":    ps.TotalConns,
				"idle":     ps.IdleConns,
				"hits":     ps.Hits,
				"misses":   ps.Misses,
				"timeouts": ps.Timeouts,
			}).Debug("redis stats")
		}
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return response.Error(c, code, err.Error())
}
