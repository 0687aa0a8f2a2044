package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wso2/financial-recommendation-api/internal/system/config"
	"github.com/wso2/financial-recommendation-api/internal/system/log"
)

// counterClient is the subset of the redis client used for generation counters.
type counterClient interface {
	Incr(ctx context.Context, key string) *goredis.IntCmd
	Get(ctx context.Context, key string) *goredis.StringCmd
}

// RedisInvalidator shares generation counters between service instances.
type RedisInvalidator struct {
	client    counterClient
	keyPrefix string
	hooks     hooks
	logger    *log.Logger
}

// NewRedisClient connects to redis and verifies the connection.
func NewRedisClient(cfg config.RedisConfig) (*goredis.Client, error) {
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewRedisInvalidator creates an invalidator storing counters under keyPrefix+userID.
func NewRedisInvalidator(client counterClient, keyPrefix string) *RedisInvalidator {
	return &RedisInvalidator{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    log.GetLogger().With(log.String(log.LoggerKeyComponentName, "RedisInvalidator")),
	}
}

func (r *RedisInvalidator) key(userID int64) string {
	return r.keyPrefix + strconv.FormatInt(userID, 10)
}

func (r *RedisInvalidator) Generation(ctx context.Context, userID int64) (uint64, error) {
	val, err := r.client.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	gen, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cache generation %q: %w", val, err)
	}
	return gen, nil
}

func (r *RedisInvalidator) Clear(ctx context.Context, userID int64) error {
	gen, err := r.client.Incr(ctx, r.key(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to advance cache generation: %w", err)
	}
	r.logger.Debug("Cache generation advanced", log.Int64("user_id", userID), log.Int64("generation", gen))

	r.hooks.run(userID)
	return nil
}

func (r *RedisInvalidator) OnClear(hook func(userID int64)) {
	r.hooks.add(hook)
}
