// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"demand-radar/internal/api"
	"demand-radar/internal/collector"
	"demand-radar/internal/common/config"
	"demand-radar/internal/common/database"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/common/observability"
	"demand-radar/internal/connectors"
	"demand-radar/internal/evidence"
	"demand-radar/internal/export"
	"demand-radar/internal/ingest"
	"demand-radar/internal/miner"
	"demand-radar/internal/models"
	"demand-radar/internal/notify"
	"demand-radar/internal/scoring"
	"demand-radar/internal/search"
	"demand-radar/internal/storage"
	"demand-radar/pkg/catalog"
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

// reindexScoredIdeas mirrors every scored idea back into the search index so
// queries reflect the database after index loss or downtime.
func reindexScoredIdeas(ctx context.Context, store *storage.Store, idx *search.Index, log *zap.Logger) error {
	ideas, err := store.ListScoredIdeas(ctx)
	if err != nil {
		return err
	}
	if len(ideas) == 0 {
		return nil
	}

	byTopic := make(map[int64][]models.BusinessIdea)
	for _, idea := range ideas {
		byTopic[idea.TopicID] = append(byTopic[idea.TopicID], idea)
	}

	indexed := 0
	for topicID, group := range byTopic {
		topic, err := store.GetTopic(ctx, topicID)
		if err != nil {
			log.Warn("Skipping topic during search reindex",
				zap.Int64("topicId", topicID),
				zap.Error(err),
			)
			continue
		}
		if err := idx.IndexIdeas(ctx, group, topic.Name); err != nil {
			log.Warn("Failed to index ideas for topic",
				zap.Int64("topicId", topicID),
				zap.Error(err),
			)
			continue
		}
		indexed += len(group)
	}

	log.Info("Search index rebuilt from scored ideas", zap.Int("ideas", indexed))
	return nil
}

func main() {
	zapLog := logger.New("info", "console")

	zapLog.Info("Starting demand radar...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild the logger now that the configured level and format are known.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("demand-radar")
	defer obs.Shutdown()

	if cfg.Observability.TracingEnabled {
		if err := obs.EnableTracing("demand-radar", cfg.Observability.JaegerEndpoint); err != nil {
			zapLog.Warn("tracing init failed, continuing without traces", zap.Error(err))
		}
	}

	profiler, err := observability.StartProfiler("server")
	if err != nil {
		zapLog.Warn("profiler init failed, continuing without profiling", zap.Error(err))
	}
	defer profiler.Stop()

	ctx := context.Background()

	// --- Init database with retry ---
	var db *sql.DB
	var closeDB func() error

	switch cfg.Database.Driver {
	case storage.DriverSQLite:
		var lite *database.SQLiteClient
		err = retryWithBackoff(func() error {
			var err error
			lite, err = database.NewSQLite(cfg.Database.SQLite)
			if err != nil {
				return err
			}
			return lite.Ping(ctx)
		}, 3, time.Second, zapLog, "SQLite open")

		if err != nil {
			zapLog.Fatal("sqlite failed", zap.Error(err))
		}
		db = lite.GetDB()
		closeDB = lite.Close
		zapLog.Info("SQLite opened successfully", zap.String("path", cfg.Database.SQLite.Path))

	default:
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			// Test the connection with context
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		db = pg.GetDB()
		closeDB = pg.Close
		zapLog.Info("PostgreSQL connected successfully")
	}
	defer closeDB()

	store := storage.New(db, cfg.Database.Driver, log)
	if err := store.Migrate(ctx); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}
	zapLog.Info("Database schema ready")

	// --- Init Elasticsearch with retry (only when search is enabled) ---
	var searchIndex *search.Index
	if cfg.Search.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			// Test the connection
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		searchIndex = search.New(esClient, cfg.Search, log)
		zapLog.Info("Elasticsearch connected successfully")

		// The index is a mirror of the database, so a failed rebuild only
		// means stale search results until the next write.
		if err := reindexScoredIdeas(ctx, store, searchIndex, zapLog); err != nil {
			zapLog.Warn("search reindex failed, continuing with stale index", zap.Error(err))
		}
	} else {
		zapLog.Info("Search is disabled, skipping Elasticsearch")
	}

	// --- Init Redis with retry (only when the connector cache is on) ---
	var redisClient *database.RedisClient
	if cfg.Connectors.CacheEnabled {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			// Test the connection with context
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Build core services ---
	registry := connectors.NewRegistry(cfg.Connectors, redisClient, log)

	weights, err := scoring.NewWeightStore(cfg.Scoring.WeightsPath, cfg.Scoring.WatchWeights, log)
	if err != nil {
		zapLog.Fatal("weight store init failed", zap.Error(err))
	}

	sourceCatalog, err := catalog.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		zapLog.Fatal("source catalog load failed", zap.Error(err))
	}

	var notifier *notify.Notifier
	if cfg.Notifications.Enabled() {
		notifier, err = notify.NewFromConfig(ctx, cfg.Notifications, log)
		if err != nil {
			zapLog.Fatal("notifier init failed", zap.Error(err))
		}
		zapLog.Info("Ranking digest notifier enabled")
	}

	handler := api.NewHandler(api.Dependencies{
		Store:     store,
		Extractor: ingest.NewTopicExtractor(log),
		Collector: collector.New(store, registry, cfg.Collector, obs, log),
		Engine:    scoring.NewEngine(log),
		Weights:   weights,
		Evidence:  evidence.New(store, cfg.Evidence, log),
		Search:    searchIndex,
		Exporter:  export.NewExporter(store, log),
		Miner:     miner.New(cfg.Miner, log),
		Notifier:  notifier,
		Catalog:   sourceCatalog,
		Logger:    log,
	})

	srv := api.NewServer(cfg.Server, handler, log)

	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error during server shutdown", zap.Error(err))
	}

	zapLog.Info("Demand radar stopped gracefully")
}
