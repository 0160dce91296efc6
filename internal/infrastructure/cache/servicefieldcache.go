package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/meterd-io/meterd/internal/shared/errors"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

// Well-known service field names.
const (
	FieldStatus      = "status"
	FieldNodeGroupID = "node_group_id"
)

const (
	fieldKeyPrefix  = "field:"
	defaultFieldTTL = 5 * time.Minute
)

// ServiceFieldCache caches individual scalar fields of a service under
// short TTLs. It backs the hot read paths (status checks, group lookups)
// without ever becoming authoritative: the TTL bounds staleness and every
// mutation path invalidates eagerly.
type ServiceFieldCache interface {
	GetField(ctx context.Context, sid, field string) (string, bool)
	SetField(ctx context.Context, sid, field, value string) error
	InvalidateField(ctx context.Context, sid, field string) error
	InvalidateAll(ctx context.Context, sid string) error
}

// RedisServiceFieldCache implements ServiceFieldCache.
type RedisServiceFieldCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Interface
}

// NewRedisServiceFieldCache creates a service field cache. A zero ttl falls
// back to the default five-minute TTL.
func NewRedisServiceFieldCache(client *redis.Client, ttl time.Duration, log logger.Interface) *RedisServiceFieldCache {
	if ttl <= 0 {
		ttl = defaultFieldTTL
	}
	return &RedisServiceFieldCache{client: client, ttl: ttl, logger: log}
}

func (c *RedisServiceFieldCache) key(sid, field string) string {
	return fmt.Sprintf("%s%s:%s", fieldKeyPrefix, sid, field)
}

// GetField returns the cached value and true on a hit. Errors degrade to a
// miss.
func (c *RedisServiceFieldCache) GetField(ctx context.Context, sid, field string) (string, bool) {
	value, err := c.client.Get(ctx, c.key(sid, field)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warnw("service field cache read failed, treating as miss",
				"sid", sid,
				"field", field,
				"error", err,
			)
		}
		return "", false
	}
	return value, true
}

// SetField stores one field value with the configured TTL.
func (c *RedisServiceFieldCache) SetField(ctx context.Context, sid, field, value string) error {
	if err := c.client.Set(ctx, c.key(sid, field), value, c.ttl).Err(); err != nil {
		return apperrors.NewCacheUnavailableError("failed to cache service field", err)
	}
	return nil
}

// InvalidateField deletes one cached field.
func (c *RedisServiceFieldCache) InvalidateField(ctx context.Context, sid, field string) error {
	if err := c.client.Del(ctx, c.key(sid, field)).Err(); err != nil {
		return apperrors.NewCacheUnavailableError("failed to invalidate service field", err)
	}
	return nil
}

// InvalidateAll deletes every cached field of the service.
func (c *RedisServiceFieldCache) InvalidateAll(ctx context.Context, sid string) error {
	keys := []string{
		c.key(sid, FieldStatus),
		c.key(sid, FieldNodeGroupID),
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return apperrors.NewCacheUnavailableError("failed to invalidate service fields", err)
	}
	c.logger.Debugw("service field cache invalidated", "sid", sid)
	return nil
}
