package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/waybridge/config"
)

// RedisBackend pushes entries onto a capped redis list, newest first.
type RedisBackend struct {
	client     *redis.Client
	key        string
	maxEntries int64
	logger     *zap.Logger
}

// NewRedisBackend creates the redis list backend. The connection is lazy;
// an unreachable redis surfaces per write, and audit writes are best-effort
// anyway.
func NewRedisBackend(cfg config.RedisAuditConfig, logger *zap.Logger) *RedisBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Key == "" {
		cfg.Key = "waybridge:audit"
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 100000
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisBackend{
		client:     client,
		key:        cfg.Key,
		maxEntries: cfg.MaxEntries,
		logger:     logger.With(zap.String("component", "audit_redis")),
	}
}

// Write LPUSHes the entry and trims the list to its cap.
func (r *RedisBackend) Write(ctx context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key, data)
	pipe.LTrim(ctx, r.key, 0, r.maxEntries-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push audit entry: %w", err)
	}
	return nil
}

// Close releases the redis connection.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
