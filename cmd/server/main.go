package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/erp/catalogsync/internal/application/catalog"
	importapp "github.com/erp/catalogsync/internal/application/import"
	"github.com/erp/catalogsync/internal/infrastructure/cache"
	"github.com/erp/catalogsync/internal/infrastructure/config"
	"github.com/erp/catalogsync/internal/infrastructure/erp"
	fileimport "github.com/erp/catalogsync/internal/infrastructure/import"
	"github.com/erp/catalogsync/internal/infrastructure/logger"
	"github.com/erp/catalogsync/internal/infrastructure/persistence"
	"github.com/erp/catalogsync/internal/infrastructure/storage"
	"github.com/erp/catalogsync/internal/infrastructure/telemetry"
	"github.com/erp/catalogsync/internal/interfaces/http/handler"
	"github.com/erp/catalogsync/internal/interfaces/http/middleware"
	"github.com/erp/catalogsync/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.FromConfig(cfg.Log, cfg.App.Env))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting catalog sync service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFrom(cfg.App, cfg.Telemetry, version), log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.Database.DBName), log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	codec, err := persistence.NewConfigCodec(cfg.ERP.ConfigEncryptionKey)
	if err != nil {
		log.Fatal("Invalid ERP config encryption key", zap.Error(err))
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	brandRepo := persistence.NewGormBrandRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	jobRepo := persistence.NewGormImportJobRepository(db.DB)
	connectionRepo := persistence.NewGormErpConnectionRepository(db.DB, codec)

	productCache, err := cache.NewProductCacheFactory(cfg.Redis, cfg.Cache, cache.WithLogger(log)).Create()
	if err != nil {
		log.Fatal("Failed to create product cache", zap.Error(err))
	}

	blobs, err := storage.New(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize upload storage", zap.Error(err))
	}

	fallback, err := fileimport.EncodingByName(cfg.Import.FallbackEncoding)
	if err != nil {
		log.Fatal("Invalid import fallback encoding", zap.Error(err))
	}
	parser := fileimport.NewParser(fileimport.WithFallbackEncoding(fallback))

	engine := importapp.NewReconciliationEngine(productRepo, brandRepo, categoryRepo,
		importapp.WithWorkers(cfg.Import.Workers),
		importapp.WithEngineLogger(log),
	)
	registry := erp.NewDefaultRegistry()

	// Application services
	importService := importapp.NewImportService(jobRepo, blobs, parser, engine, productCache, importapp.RunConfig{
		MaxFileSize:  cfg.Import.MaxFileSize,
		PreviewRows:  cfg.Import.PreviewRows,
		HistoryLimit: cfg.Import.HistoryLimit,
		RunTimeout:   cfg.Import.RunTimeout,
	}, log)
	erpService := importapp.NewErpService(connectionRepo, jobRepo, registry, engine,
		importapp.WithRunTimeout(cfg.Import.RunTimeout),
		importapp.WithErpLogger(log),
		importapp.WithProductCache(productCache),
	)
	productService := catalogapp.NewProductService(productRepo, productCache, log)

	if err := middleware.SetupValidator(registry.IsAvailable); err != nil {
		log.Fatal("Failed to register request validators", zap.Error(err))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	tracingCfg := middleware.DefaultTracingConfig()
	tracingCfg.ServiceName = cfg.Telemetry.ServiceName
	tracingCfg.Enabled = tp.IsEnabled()

	r.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.TracingWithConfig(tracingCfg),
		middleware.SpanAttributes(),
		logger.GinMiddleware(log),
		middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	catalogRoutes := router.CatalogImportRoutes(router.Handlers{
		Import:      handler.NewImportHandler(importService, cfg.Import.MaxFileSize),
		Erp:         handler.NewErpHandler(erpService),
		Product:     handler.NewProductHandler(productService),
		MaxFileSize: cfg.Import.MaxFileSize,
	})
	router.RegisterSystemRoutes(r, handler.NewSystemHandler(db, version))
	router.NewRouter(r).Register(catalogRoutes).Setup()
	log.Info("Routes registered",
		zap.String("group", catalogRoutes.Name()),
		zap.Strings("routes", catalogRoutes.Routes()),
	)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        r,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
