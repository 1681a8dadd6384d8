package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kamrul-pu/product-catalog/internal/admin"
	"github.com/kamrul-pu/product-catalog/internal/app"
	"github.com/kamrul-pu/product-catalog/internal/catalog/products"
	"github.com/kamrul-pu/product-catalog/internal/catalog/variants"
	"github.com/kamrul-pu/product-catalog/internal/observability"
	"github.com/kamrul-pu/product-catalog/internal/platform/cache"
	"github.com/kamrul-pu/product-catalog/internal/platform/db"
	"github.com/kamrul-pu/product-catalog/internal/shared"
	"github.com/kamrul-pu/product-catalog/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "catalog_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret, cfg.CSRFTokenTTL)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	variantRepo := variants.NewRepository(dbpool)
	variantCache := variants.NewOptionCache(redisClient, cfg.VariantCacheTTL)
	variantService := variants.NewService(variantRepo, variantCache, logger)
	variantHandler := variants.NewHandler(logger, variantService, templates, csrfManager)

	productRepo := products.NewRepository(dbpool)
	productService := products.NewService(productRepo, cfg.ListPageSize)
	productHandler := products.NewHandler(logger, productService, variantService, templates, csrfManager, cfg.UploadDir)

	adminRegistry := admin.NewRegistry(dbpool)
	adminHandler := admin.NewHandler(logger, adminRegistry, templates, csrfManager)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		ProductsHandler: productHandler,
		VariantsHandler: variantHandler,
		AdminHandler:    adminHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
