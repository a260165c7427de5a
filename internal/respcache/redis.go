package respcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"equipment-ledger-backend/config"
)

// Redis shares cached responses between server instances. Flushing bumps a
// generation counter that is part of every key, so stale entries are never
// read again and expire on their own.
type Redis struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis connects to redis and checks the connection with a ping.
func NewRedis(cfg *config.RedisConfig, ttl time.Duration, logger *zap.Logger) (*Redis, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("redis response cache connected", zap.String("addr", cfg.Addr))
	return &Redis{rdb: rdb, prefix: cfg.KeyPrefix, ttl: ttl, logger: logger}, nil
}

func (r *Redis) generationKey() string {
	return r.prefix + "gen"
}

func (r *Redis) entryKey(gen int64, key string) string {
	return r.prefix + entryKey(gen, key)
}

func (r *Redis) Generation(ctx context.Context) (int64, bool) {
	gen, err := r.rdb.Get(ctx, r.generationKey()).Int64()
	switch {
	case errors.Is(err, goredis.Nil):
		return 0, true
	case err != nil:
		r.logger.Warn("cache generation read failed", zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (r *Redis) Get(ctx context.Context, gen int64, key string) (Entry, bool) {
	raw, err := r.rdb.Get(ctx, r.entryKey(gen, key)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			r.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		r.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return Entry{}, false
	}
	return e, true
}

// Set writes e under the generation the request observed before it read
// the database. After a Flush nothing reads that generation again.
func (r *Redis) Set(ctx context.Context, gen int64, key string, e Entry) {
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, r.entryKey(gen, key), raw, r.ttl).Err(); err != nil {
		r.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *Redis) Flush(ctx context.Context) {
	if err := r.rdb.Incr(ctx, r.generationKey()).Err(); err != nil {
		r.logger.Warn("cache flush failed", zap.Error(err))
	}
}

// Close closes the redis connection.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
