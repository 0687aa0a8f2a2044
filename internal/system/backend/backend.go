// Package backend opens the storage and cache backends selected by configuration.
package backend

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wso2/financial-recommendation-api/internal/cache"
	"github.com/wso2/financial-recommendation-api/internal/consent"
	"github.com/wso2/financial-recommendation-api/internal/review"
	"github.com/wso2/financial-recommendation-api/internal/system/config"
	"github.com/wso2/financial-recommendation-api/internal/system/database"
	"github.com/wso2/financial-recommendation-api/internal/system/database/provider"
	"github.com/wso2/financial-recommendation-api/internal/system/log"
	"github.com/wso2/financial-recommendation-api/internal/user"
)

// Backends holds the stores shared by every module.
type Backends struct {
	Directory   user.Directory
	Reviews     review.ReviewStore
	Consents    consent.ConsentStore
	Invalidator cache.Invalidator

	db    *database.DB
	redis *goredis.Client
}

// Open connects the configured database and cache backends.
func Open(cfg *config.Config) (*Backends, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "Backend"))
	b := &Backends{}

	dbCfg := cfg.Database.Recommendation
	if dbCfg.Type == config.DatabaseTypeMemory {
		logger.Warn("Using in-memory stores; reviews and consents are lost on restart",
			log.Int("seed_users", len(dbCfg.SeedUsers)))
		b.Directory = user.NewMemoryDirectory(dbCfg.SeedUsers...)
		b.Reviews = review.NewMemoryReviewStore()
		b.Consents = consent.NewMemoryConsentStore()
	} else {
		db, err := database.Initialize(&dbCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		b.db = db
		dbClient := provider.NewDBClient(db.DB, db.Type)
		b.Directory = user.NewSQLDirectory(dbClient)
		b.Reviews = review.NewReviewStore(dbClient)
		b.Consents = consent.NewConsentStore(dbClient)
	}

	switch cfg.Cache.Type {
	case config.CacheTypeRedis:
		client, err := cache.NewRedisClient(cfg.Cache.Redis)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		b.redis = client
		b.Invalidator = cache.NewRedisInvalidator(client, cfg.Cache.Redis.KeyPrefix)
		logger.Info("Cache generations kept in redis", log.String("address", cfg.Cache.Redis.Address))
	default:
		b.Invalidator = cache.NewMemoryInvalidator()
	}

	return b, nil
}

// HealthCheck pings the database and redis when they are configured.
func (b *Backends) HealthCheck(ctx context.Context) error {
	if b.db != nil {
		if err := b.db.HealthCheck(ctx); err != nil {
			return err
		}
	}
	if b.redis != nil {
		if err := b.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
	}
	return nil
}

// Close releases backend connections.
func (b *Backends) Close() {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "Backend"))
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			logger.Warn("Failed to close redis client", log.Error(err))
		}
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			logger.Warn("Failed to close database", log.Error(err))
		}
	}
}

// WaitHealthy retries HealthCheck until it passes or the timeout elapses.
func (b *Backends) WaitHealthy(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return b.HealthCheck(ctx)
}
