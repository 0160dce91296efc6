// Package cache provides the Redis-backed read-side caches. Every cache
// here is an optimization over the store: callers must treat any cache
// failure as a miss and fall through to the store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/meterd-io/meterd/internal/shared/errors"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

// CachedNode is the wire form of one node in a cached list.
type CachedNode struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	ServerAddress string  `json:"server_address"`
	ServerPort    uint16  `json:"server_port"`
	Protocol      string  `json:"protocol"`
	Method        string  `json:"method"`
	GroupID       uint    `json:"group_id"`
	Rate          float64 `json:"rate"`
	SortOrder     int     `json:"sort_order"`
}

// NodeListCache caches resolved node lists per service and group. Group ID 0
// is the default-group fallback and gets its own key, so a service moved off
// the fallback never sees a stale fallback list under its new group key.
type NodeListCache interface {
	GetList(ctx context.Context, sid string, groupID uint) ([]CachedNode, bool)
	SetList(ctx context.Context, sid string, groupID uint, nodes []CachedNode) error
	InvalidateService(ctx context.Context, sid string) error
}

const (
	groupKeyPrefix    = "group:"
	baseListTTL       = 60 * time.Minute
	listTTLJitter     = 10 * time.Minute // anti-stampede
	invalidateScanMax = 256
)

// RedisNodeListCache implements NodeListCache on Redis string keys holding
// JSON arrays.
type RedisNodeListCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Interface
}

// NewRedisNodeListCache creates a node list cache. A zero ttl falls back to
// the default one-hour TTL.
func NewRedisNodeListCache(client *redis.Client, ttl time.Duration, log logger.Interface) *RedisNodeListCache {
	if ttl <= 0 {
		ttl = baseListTTL
	}
	return &RedisNodeListCache{client: client, ttl: ttl, logger: log}
}

func (c *RedisNodeListCache) key(sid string, groupID uint) string {
	return fmt.Sprintf("%s%s:%d", groupKeyPrefix, sid, groupID)
}

// GetList returns the cached list and true on a hit. Any Redis error is
// logged and reported as a miss; the caller falls through to the store.
func (c *RedisNodeListCache) GetList(ctx context.Context, sid string, groupID uint) ([]CachedNode, bool) {
	data, err := c.client.Get(ctx, c.key(sid, groupID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warnw("node list cache read failed, treating as miss",
				"sid", sid,
				"group_id", groupID,
				"error", err,
			)
		}
		return nil, false
	}

	var nodes []CachedNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		c.logger.Warnw("node list cache entry corrupt, treating as miss",
			"sid", sid,
			"group_id", groupID,
			"error", err,
		)
		return nil, false
	}

	return nodes, true
}

// SetList stores the resolved list with a jittered TTL. An empty list is
// cached too, so repeated resolutions of an empty group skip the store.
func (c *RedisNodeListCache) SetList(ctx context.Context, sid string, groupID uint, nodes []CachedNode) error {
	data, err := json.Marshal(nodes)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal node list", err)
	}

	if err := c.client.Set(ctx, c.key(sid, groupID), data, c.ttlWithJitter()).Err(); err != nil {
		return apperrors.NewCacheUnavailableError("failed to cache node list", err)
	}

	c.logger.Debugw("node list cached", "sid", sid, "group_id", groupID, "count", len(nodes))
	return nil
}

// InvalidateService deletes every cached list for the service, whichever
// group it was resolved under.
func (c *RedisNodeListCache) InvalidateService(ctx context.Context, sid string) error {
	pattern := fmt.Sprintf("%s%s:*", groupKeyPrefix, sid)

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, invalidateScanMax).Result()
		if err != nil {
			return apperrors.NewCacheUnavailableError("failed to scan node list keys", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return apperrors.NewCacheUnavailableError("failed to delete node list keys", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.logger.Debugw("node list cache invalidated", "sid", sid)
	return nil
}

func (c *RedisNodeListCache) ttlWithJitter() time.Duration {
	return c.ttl + time.Duration(rand.Int64N(int64(listTTLJitter)))
}
