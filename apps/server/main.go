package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	ghplatform "github.com/tilsley/repopush/apps/server/internal/platform/github"
	pgplatform "github.com/tilsley/repopush/apps/server/internal/platform/postgres"
	"github.com/tilsley/repopush/apps/server/internal/platform/telemetry"
	"github.com/tilsley/repopush/apps/server/internal/platform/validation"
	"github.com/tilsley/repopush/apps/server/internal/uploads"
	"github.com/tilsley/repopush/apps/server/internal/uploads/adapters"
	"github.com/tilsley/repopush/apps/server/internal/uploads/handler"
	"github.com/tilsley/repopush/apps/server/internal/uploads/store"
	"github.com/tilsley/repopush/apps/server/internal/uploads/store/pgmigrations"
	"github.com/tilsley/repopush/pkg/logging"
	"github.com/tilsley/repopush/schemas"
)

const serviceName = "repopush-server"

func main() {
	log := logging.New(serviceName)

	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// --- Observability ---

	ctx := context.Background()
	tel, err := telemetry.New(ctx, serviceName, cfg.OTelEnabled)
	if err != nil {
		log.Error("telemetry init failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "error", err)
		}
	}()

	// --- Upload history ---

	history, closeHistory, err := openHistory(ctx, cfg)
	if err != nil {
		log.Error("history store init failed", "backend", cfg.HistoryBackend, "error", err)
		os.Exit(1) //nolint:gocritic // nothing to flush before telemetry is exporting
	}
	defer closeHistory()

	// --- GitHub ---

	gh := ghplatform.NewTokenClient(cfg.GitHubToken, cfg.GitHubAPIURL, cfg.GitHubTimeout)
	host := adapters.NewGitHub(gh, cfg.GitHubOrg).WithWriteRate(cfg.GitHubWriteRate)

	// --- Service + HTTP ---

	collector := uploads.NewCollector(cfg.Collector, log)
	svc := uploads.NewService(host, history, collector, cfg.SourceDir, log)

	router := gin.New()

	validator, err := validation.New(schemas.OpenAPISpec)
	if err != nil {
		log.Error("openapi validation middleware init failed", "error", err)
		os.Exit(1)
	}

	router.Use(gin.Recovery(), otelgin.Middleware(serviceName), validator)
	handler.RegisterRoutes(router, svc, log)

	log.Info("starting repopush",
		"port", cfg.Port,
		"sourceDir", cfg.SourceDir,
		"history", cfg.HistoryBackend,
		"org", cfg.GitHubOrg,
	)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// openHistory connects the configured history backend. The returned func
// releases its connections.
func openHistory(ctx context.Context, cfg Config) (uploads.HistoryStore, func(), error) {
	switch cfg.HistoryBackend {
	case historyRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		return store.NewRedisStore(rdb, cfg.RedisTTL), func() { _ = rdb.Close() }, nil
	case historyPostgres:
		pool, err := pgplatform.New(ctx, cfg.PostgresURL, pgmigrations.FS)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPGStore(pool), pool.Close, nil
	default:
		return store.NewMemoryStore(cfg.HistoryMax), func() {}, nil
	}
}
