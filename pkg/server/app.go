package server

import (
	"context"
	"fmt"
	"net/http"

	"todolis-backend/pkg/cache"
	"todolis-backend/pkg/config"
	"todolis-backend/pkg/database"
	"todolis-backend/pkg/services"

	"github.com/redis/go-redis/v9"
)

// App owns the long-lived resources behind the router.
type App struct {
	Handler  http.Handler
	Services *services.Services
	pool     *database.Pool
	redis    *redis.Client
}

// NewApp wires config -> pool -> summary cache -> services -> router. Redis is
// optional; when it cannot be reached the summary cache is skipped.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	app := &App{pool: database.NewPool(cfg.DatabaseConfig())}

	var summaryCache services.SummaryCache
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			fmt.Printf("⚠️  Summary cache disabled: %v\n", err)
		} else {
			fmt.Printf("🧠 Summary cache enabled (ttl=%s)\n", cfg.SummaryCacheTTL)
			app.redis = rdb
			summaryCache = cache.NewSummaryCache(rdb, cfg.SummaryCacheTTL)
		}
	}

	app.Services = services.New(app.pool, summaryCache)
	app.Handler = NewRouter(cfg, app.Services, app.pool)
	return app, nil
}

// Close releases the store and the Redis client.
func (a *App) Close() error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	return a.pool.Close()
}
