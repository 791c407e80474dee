package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/bar-order-app/config"
	"github.com/yeremiapane/bar-order-app/database"
	"github.com/yeremiapane/bar-order-app/live"
	"github.com/yeremiapane/bar-order-app/middlewares"
	"github.com/yeremiapane/bar-order-app/router"
	"github.com/yeremiapane/bar-order-app/services"
	"github.com/yeremiapane/bar-order-app/tablesession"
	"github.com/yeremiapane/bar-order-app/utils"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	utils.InitLogger(cfg.Server.Env)
	utils.SetJWTSecret(cfg.Auth.JWTSecret)
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := utils.InitTracer(ctx, "bar-order-app", cfg.Tracing.Endpoint, cfg.Server.Env)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to init tracer: %v", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				utils.ErrorLogger.Errorf("Tracer shutdown: %v", err)
			}
		}()
	}

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	if err := database.Seed(db, database.SeedOptions{
		AdminEmail:    cfg.Seed.AdminEmail,
		AdminPassword: cfg.Seed.AdminPassword,
		Tables:        cfg.Seed.Tables,
	}); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed database: %v", err)
	}

	rdb, err := config.InitRedis(cfg.Redis)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to redis: %v", err)
	}

	logger := utils.InfoLogger

	// Without Redis, events and sessions stay in this process.
	var (
		eventLog     live.EventLog
		sessionStore tablesession.Store
	)
	if rdb != nil {
		defer rdb.Close()
		eventLog = live.NewRedisLog(rdb, "bar:events", cfg.Live.LogMaxLen)
		sessionStore = tablesession.NewRedisStore(rdb)
	} else {
		logger.Warn("REDIS_ADDR not set, live events and table sessions are kept in memory")
		eventLog = live.NewMemoryLog(int(cfg.Live.LogMaxLen))
		sessionStore = tablesession.NewMemoryStore()
	}

	hub := live.NewHub(cfg.Live.Buffer, logger.WithField("component", "hub"))
	dispatcher := live.NewDispatcher(hub, eventLog, cfg.Live.PollInterval, logger.WithField("component", "dispatcher"))
	if err := dispatcher.Prime(ctx); err != nil {
		utils.ErrorLogger.Fatalf("Failed to read event log: %v", err)
	}

	orders := services.NewOrderService(db, dispatcher, logger.WithField("component", "orders"))
	payments := services.NewPaymentService(db, orders, dispatcher, logger.WithField("component", "payments"))
	tables := services.NewTableService(db, logger.WithField("component", "tables"))
	inventory := services.NewInventoryService(db, logger.WithField("component", "inventory"))
	stats := services.NewStatsService(db)

	guard := tablesession.NewGuard(sessionStore, tables, tablesession.Config{
		Secret:                []byte(cfg.Session.TokenSecret),
		SessionTTL:            cfg.Session.TTL,
		RateLimit:             cfg.Session.RateLimit,
		RateWindow:            cfg.Session.RateWindow,
		SuspiciousAccessCount: cfg.Session.SuspiciousAccessCount,
	}, logger.WithField("component", "tablesession"))

	rateLimiter := middlewares.NewRateLimiter(cfg.Server.HTTPRateLimit, time.Second)

	r := router.SetupRouter(router.Dependencies{
		DB:          db,
		Orders:      orders,
		Payments:    payments,
		Tables:      tables,
		Inventory:   inventory,
		Stats:       stats,
		Guard:       guard,
		Dispatcher:  dispatcher,
		RateLimiter: rateLimiter,
		Production:  cfg.Server.Env == "production",
		AllowOrigin: cfg.Server.AllowOrigin,
		SessionTTL:  cfg.Session.TTL,
		Heartbeat:   cfg.Live.Heartbeat,

		TrustedProxies: cfg.Server.TrustedProxies,
	})

	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Event streams never go idle on their own; closing their subscriptions
	// lets Shutdown drain them.
	srv.RegisterOnShutdown(dispatcher.Hub().CloseAll)

	g.Go(func() error {
		logger.WithField("port", cfg.Server.Port).Info("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				rateLimiter.Sweep(now)
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{"error": err}).Fatal("Server stopped")
	}
	logger.Info("Server exited")
}
