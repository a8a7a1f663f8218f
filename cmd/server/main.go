package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mytheresa/go-warehouse/app"
	"github.com/mytheresa/go-warehouse/app/articles"
	"github.com/mytheresa/go-warehouse/app/categories"
	"github.com/mytheresa/go-warehouse/app/dashboard"
	"github.com/mytheresa/go-warehouse/app/orders"
	"github.com/mytheresa/go-warehouse/app/products"
	"github.com/mytheresa/go-warehouse/config"
	"github.com/mytheresa/go-warehouse/inventory"
	"github.com/mytheresa/go-warehouse/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		tp, err := initTracer(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("failed to shut down tracer", zap.Error(err))
			}
		}()
	}

	logLevel := gormlogger.Warn
	if cfg.Debug() {
		logLevel = gormlogger.Info
	}
	db, err := models.Open(cfg.DatabaseURL, logLevel)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := inventory.NewMetrics(registry)

	engine := inventory.NewEngine(db, logger.Named("engine"), metrics)
	coordinator := inventory.NewCoordinator(db, engine, logger.Named("orders"), metrics)

	articlesRepo := models.NewArticlesRepository(db)
	productsRepo := models.NewProductsRepository(db)
	ordersRepo := models.NewOrdersRepository(db)

	mux := app.NewRouter(app.Handlers{
		Articles:   articles.NewArticleHandler(articlesRepo, logger),
		Products:   products.NewProductHandler(productsRepo, logger),
		Orders:     orders.NewOrderHandler(ordersRepo, coordinator, logger),
		Categories: categories.NewCategoryHandler(models.NewCategoriesRepository(db), logger),
		Dashboard:  dashboard.NewDashboardHandler(articlesRepo, productsRepo, ordersRepo, logger),
		Metrics:    registry,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Debug() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func initTracer(ctx context.Context, cfg config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}
