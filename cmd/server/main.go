package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	salesapp "github.com/franchise/backend/internal/application/sales"
	storeapp "github.com/franchise/backend/internal/application/store"
	syncapp "github.com/franchise/backend/internal/application/sync"
	"github.com/franchise/backend/internal/domain/shared"
	"github.com/franchise/backend/internal/infrastructure/cache"
	"github.com/franchise/backend/internal/infrastructure/config"
	"github.com/franchise/backend/internal/infrastructure/event"
	"github.com/franchise/backend/internal/infrastructure/logger"
	"github.com/franchise/backend/internal/infrastructure/persistence"
	"github.com/franchise/backend/internal/infrastructure/source"
	"github.com/franchise/backend/internal/infrastructure/webhook"
	"github.com/franchise/backend/internal/interfaces/http/handler"
	"github.com/franchise/backend/internal/interfaces/http/middleware"
	"github.com/franchise/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting catalog sync engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with the zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	storeRepo := persistence.NewGormStoreRepository(db.DB)
	linkRepo := persistence.NewGormStoreLinkRepository(db.DB)
	endpointRepo := persistence.NewGormWebhookEndpointRepository(db.DB)
	runRepo := persistence.NewGormSyncRunRepository(db.DB)

	// Sale idempotency guard: Redis when configured, in-memory otherwise.
	// A broken guard degrades to reprocessing, never to dropped sales.
	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Host != "" {
		redisStore, err := cache.NewRedisIdempotencyStore(cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
			idempotencyStore = cache.NewInMemoryIdempotencyStore()
		} else {
			idempotencyStore = redisStore
			log.Info("Redis idempotency store connected")
		}
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Source feed client
	feedClient, err := source.NewFeedClient(cfg.Source, log)
	if err != nil {
		log.Fatal("Failed to configure source feed client", zap.Error(err))
	}

	// Cascade dispatcher with its bounded worker pool
	dispatcher := webhook.NewDispatcher(cfg.Webhook, endpointRepo, log)
	defer dispatcher.Close()

	// Application services
	reconciler := storeapp.NewLinkReconciler(storeRepo, linkRepo, productRepo, cfg.Sync.ReconcileWorkers, log)
	linkService := storeapp.NewLinkService(storeRepo, linkRepo, endpointRepo, productRepo)
	upsertEngine := syncapp.NewUpsertEngine(productRepo, cfg.Sync.BatchSize, log)
	syncService := syncapp.NewSyncService(
		feedClient, upsertEngine, reconciler, runRepo,
		cfg.Sync, cfg.Source.PageSize, log,
	)
	stockUpdater := salesapp.NewStockUpdater(
		productRepo, dispatcher, idempotencyStore,
		cfg.Webhook.IdempotencyTTL, log,
	)

	// Event bus: product stock changes feed the depletion monitor
	eventBus := event.NewInMemoryEventBus(log)
	stockDepletedHandler := salesapp.NewStockDepletedHandler(log)
	eventBus.Subscribe(stockDepletedHandler)
	log.Info("Event handlers registered", zap.Strings("event_types", stockDepletedHandler.EventTypes()))
	stockUpdater.SetEventBus(eventBus)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// HTTP handlers
	syncHandler := handler.NewSyncHandler(syncService)
	storeHandler := handler.NewStoreHandler(linkService, reconciler)
	webhookHandler := handler.NewWebhookHandler(stockUpdater, syncService)
	systemHandler := handler.NewSystemHandler(map[string]handler.Pinger{
		"database": handler.PingerFunc(func(context.Context) error { return db.Ping() }),
	})

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Liveness probe outside API versioning for load balancers
	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(syncHandler).
		Register(storeHandler).
		Register(webhookHandler).
		Register(systemHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
