// cmd/recommender/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"template-recommender/internal/analytics"
	"template-recommender/internal/api"
	"template-recommender/internal/catalog"
	"template-recommender/internal/common/config"
	"template-recommender/internal/common/database"
	"template-recommender/internal/common/logger"
	"template-recommender/internal/recommendation"
	"template-recommender/internal/storage"
)

// retryWithBackoff attempts an operation with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting template recommender",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	// --- Postgres (preference persistence) ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres init failed", zap.Error(err))
	}
	defer pg.Close()

	err = retryWithBackoff(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return pg.Ping(ctx)
	}, 5, 2*time.Second, zapLog, "postgres connection")
	if err != nil {
		zapLog.Fatal("postgres unreachable", zap.Error(err))
	}

	// --- Redis (usage analytics) ---
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis init failed", zap.Error(err))
	}
	defer rdb.Close()

	err = retryWithBackoff(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return rdb.Ping(ctx)
	}, 5, 2*time.Second, zapLog, "redis connection")
	if err != nil {
		zapLog.Fatal("redis unreachable", zap.Error(err))
	}

	// --- Elasticsearch (template catalog) ---
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch init failed", zap.Error(err))
	}

	err = retryWithBackoff(es.Ping, 5, 2*time.Second, zapLog, "elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch unreachable", zap.Error(err))
	}

	// --- Wire the recommendation service ---
	templateCatalog, err := catalog.NewElasticsearchCatalog(es.Client, cfg.Database.Elasticsearch.Index, log)
	if err != nil {
		zapLog.Fatal("catalog init failed", zap.Error(err))
	}

	usageAnalytics := analytics.NewRedisUsageAnalytics(
		rdb.Client,
		time.Duration(cfg.Recommendation.DedupeTTLHours)*time.Hour,
		log,
	)

	preferenceRepo := storage.NewPostgresPreferenceRepository(pg.DB, log)

	service := recommendation.NewService(
		templateCatalog,
		preferenceRepo,
		usageAnalytics,
		recommendation.Options{
			DefaultLimit:  cfg.Recommendation.DefaultLimit,
			MaxCandidates: cfg.Recommendation.MaxCandidates,
		},
		log,
	)

	// --- Metrics endpoint ---
	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			zapLog.Info("metrics listening", zap.String("address", cfg.Metrics.Address))
			if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
				zapLog.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	// --- JSON API ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewHandler(service, log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		zapLog.Info("api listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("api server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}
}
