// cmd/conditions-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"loan-conditions-engine/internal/audit"
	"loan-conditions-engine/internal/catalog"
	"loan-conditions-engine/internal/common/config"
	"loan-conditions-engine/internal/common/database"
	"loan-conditions-engine/internal/common/logger"
	"loan-conditions-engine/internal/common/observability"
	"loan-conditions-engine/internal/notify"
	"loan-conditions-engine/internal/resultcache"
	"loan-conditions-engine/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
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
			delay *= 2 // Exponential backoff
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

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting conditions server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Load condition catalog with retry ---
	store := catalog.NewStore(catalog.NewLoader(cfg.Catalog.CSVPath, log), log)
	err = retryWithBackoff(func() error {
		return store.Load()
	}, 5, 2*time.Second, zapLog, "Catalog load")
	if err != nil {
		zapLog.Fatal("catalog load failed after retries", zap.Error(err))
	}
	zapLog.Info("Condition catalog loaded successfully")

	opts := server.Options{}

	// --- Init PostgreSQL audit store (optional) ---
	if cfg.Database.Postgres.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		opts.Audit = audit.NewStore(pg.DB, log)
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Init Redis result cache (optional) ---
	if cfg.Database.Redis.Enabled {
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		ttl := time.Duration(cfg.Database.Redis.TTL) * time.Second
		opts.Cache = resultcache.New(rdb.Client, ttl, log)
		zapLog.Info("Redis connected successfully")
	}

	// --- Init Elasticsearch catalog index (optional) ---
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		opts.Indexer = catalog.NewIndexer(esClient.Client, cfg.Database.Elasticsearch.Index, log)
		zapLog.Info("Elasticsearch connected successfully")

		if conditions, err := store.Conditions(); err == nil {
			opts.Indexer.IndexCatalog(ctx, conditions)
		}
	}

	// --- Init SES report notifier (optional) ---
	if cfg.Integrations.AWS.SES.Enabled {
		notifier, err := notify.NewFromRegion(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SES.FromEmail, log)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		opts.Notifier = notifier
		zapLog.Info("SES notifier initialized")
	}

	srv := server.New(cfg, log, store, opts)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received, draining requests...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("graceful shutdown failed", zap.Error(err))
		}
	}

	zapLog.Info("Conditions server stopped")
}
