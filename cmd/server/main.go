package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	expenseapp "github.com/vendasys/backend/internal/application/expense"
	salesapp "github.com/vendasys/backend/internal/application/sales"
	"github.com/vendasys/backend/internal/infrastructure/cache"
	"github.com/vendasys/backend/internal/infrastructure/config"
	"github.com/vendasys/backend/internal/infrastructure/event"
	"github.com/vendasys/backend/internal/infrastructure/logger"
	"github.com/vendasys/backend/internal/infrastructure/persistence"
	"github.com/vendasys/backend/internal/infrastructure/telemetry"
	"github.com/vendasys/backend/internal/interfaces/http/handler"
	"github.com/vendasys/backend/internal/interfaces/http/middleware"
	"github.com/vendasys/backend/internal/interfaces/http/router"
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

	log.Info("Starting rollup backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database connection with GORM logging through zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := db.EnableTracing(cfg.Database.DBName); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// Aggregation cache stores
	storeFactory := cache.NewStoreFactory(cfg.Redis, cfg.Cache, cache.WithLogger(log))
	rankingStore, summaryStore, err := storeFactory.CreateStores()
	if err != nil {
		log.Fatal("Failed to create aggregation cache stores", zap.Error(err))
	}

	// Ledger repositories
	expenseLedger := persistence.NewGormExpenseLedgerRepository(db.DB)
	salesLedger := persistence.NewGormSalesLedgerRepository(db.DB)

	// Application services
	expenseDeltas := expenseapp.NewDeltaService(expenseLedger, summaryStore, log)
	expenseClasses := expenseapp.NewClassificationService(expenseLedger, rankingStore, log)
	salesRollups := salesapp.NewRollupService(salesLedger, summaryStore, log)

	// Event bus and rollup event handlers
	eventBus := event.NewInMemoryEventBus(log)
	expenseHandler := expenseapp.NewEventHandler(expenseDeltas, expenseClasses, log)
	salesHandler := salesapp.NewEventHandler(salesRollups, log)
	eventBus.Subscribe(expenseHandler)
	eventBus.Subscribe(salesHandler)
	log.Info("Event handlers registered",
		zap.Strings("expense_events", expenseHandler.EventTypes()),
		zap.Strings("sales_events", salesHandler.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// HTTP handlers
	healthHandler := handler.NewHealthHandler(db)
	salesReportHandler := handler.NewSalesReportHandler(salesRollups)
	expenseReportHandler := handler.NewExpenseReportHandler(expenseDeltas, expenseClasses)

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
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig()))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))

	// Liveness and readiness outside API versioning
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)

	partnerConfig := middleware.DefaultPartnerConfig()
	partnerConfig.Logger = log

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.PartnerWithConfig(partnerConfig))
	r.Register(salesReportHandler)
	r.Register(expenseReportHandler)
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
