package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	payoutapp "github.com/commercive/backend/internal/application/payout"
	"github.com/commercive/backend/internal/application/reconciliation"
	"github.com/commercive/backend/internal/infrastructure/auth"
	"github.com/commercive/backend/internal/infrastructure/config"
	"github.com/commercive/backend/internal/infrastructure/logger"
	"github.com/commercive/backend/internal/infrastructure/persistence"
	"github.com/commercive/backend/internal/interfaces/http/handler"
	"github.com/commercive/backend/internal/interfaces/http/middleware"
	"github.com/commercive/backend/internal/interfaces/http/router"
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
		_ = log.Sync()
	}()

	log.Info("Starting reconciliation backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with a GORM logger backed by zap
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
	log.Info("Database connected successfully")

	// Repositories
	affiliateRepo := persistence.NewGormAffiliateRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	payoutRepo := persistence.NewGormPayoutRequestRepository(db.DB, ledgerRepo)

	// Application services
	importService := reconciliation.NewImportService(
		affiliateRepo, ledgerRepo, batchRepo,
		cfg.Import.DefaultCurrency, cfg.Import.MaxRejectionsKept,
	)
	ledgerService := reconciliation.NewLedgerService(ledgerRepo)
	exportService := reconciliation.NewExportService(ledgerRepo)
	payoutService := payoutapp.NewService(payoutRepo, ledgerRepo, affiliateRepo)

	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP handlers
	reconciliationHandler := handler.NewReconciliationHandler(importService, exportService, cfg.Import.MaxFileSize)
	ledgerHandler := handler.NewLedgerHandler(ledgerService, exportService)
	payoutHandler := handler.NewPayoutHandler(payoutService)
	systemHandler := handler.NewSystemHandler(db)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request id, recovery, request logging, CORS, body limit
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Probes outside API versioning
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}))
	r.Register(systemHandler).
		Register(reconciliationHandler).
		Register(ledgerHandler).
		Register(payoutHandler)
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
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
