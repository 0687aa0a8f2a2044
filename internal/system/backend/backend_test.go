package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/financial-recommendation-api/internal/cache"
	"github.com/wso2/financial-recommendation-api/internal/system/config"
)

func TestOpen_MemoryBackends(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabasesConfig{Recommendation: config.DatabaseConfig{
			Type:      config.DatabaseTypeMemory,
			SeedUsers: []int64{7},
		}},
		Cache: config.CacheConfig{Type: config.CacheTypeMemory},
	}

	b, err := Open(cfg)
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	known, err := b.Directory.Exists(ctx, 7)
	require.NoError(t, err)
	assert.True(t, known)

	pending, err := b.Reviews.FindPending(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, pending)

	assert.IsType(t, &cache.MemoryInvalidator{}, b.Invalidator)
	assert.NoError(t, b.HealthCheck(ctx))
}

func TestOpen_RedisUnreachable(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabasesConfig{Recommendation: config.DatabaseConfig{Type: config.DatabaseTypeMemory}},
		Cache: config.CacheConfig{Type: config.CacheTypeRedis, Redis: config.RedisConfig{
			Address:     "127.0.0.1:1",
			DialTimeout: 50 * time.Millisecond,
		}},
	}

	_, err := Open(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}
