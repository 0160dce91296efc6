package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceFieldCacheRoundTrip(t *testing.T) {
	_, client := setupTestRedis(t)
	c := NewRedisServiceFieldCache(client, 5*time.Minute, newNopLogger())
	ctx := context.Background()

	_, ok := c.GetField(ctx, "SVC-1", FieldStatus)
	assert.False(t, ok)

	require.NoError(t, c.SetField(ctx, "SVC-1", FieldStatus, "active"))

	got, ok := c.GetField(ctx, "SVC-1", FieldStatus)
	require.True(t, ok)
	assert.Equal(t, "active", got)
}

func TestServiceFieldCacheFieldsAreIndependent(t *testing.T) {
	_, client := setupTestRedis(t)
	c := NewRedisServiceFieldCache(client, 5*time.Minute, newNopLogger())
	ctx := context.Background()

	require.NoError(t, c.SetField(ctx, "SVC-1", FieldStatus, "active"))
	require.NoError(t, c.SetField(ctx, "SVC-1", FieldNodeGroupID, "2"))

	require.NoError(t, c.InvalidateField(ctx, "SVC-1", FieldStatus))

	_, ok := c.GetField(ctx, "SVC-1", FieldStatus)
	assert.False(t, ok)

	got, ok := c.GetField(ctx, "SVC-1", FieldNodeGroupID)
	require.True(t, ok)
	assert.Equal(t, "2", got)
}

func TestServiceFieldCacheInvalidateAll(t *testing.T) {
	_, client := setupTestRedis(t)
	c := NewRedisServiceFieldCache(client, 5*time.Minute, newNopLogger())
	ctx := context.Background()

	require.NoError(t, c.SetField(ctx, "SVC-1", FieldStatus, "suspended"))
	require.NoError(t, c.SetField(ctx, "SVC-1", FieldNodeGroupID, "3"))

	require.NoError(t, c.InvalidateAll(ctx, "SVC-1"))

	_, ok := c.GetField(ctx, "SVC-1", FieldStatus)
	assert.False(t, ok)
	_, ok = c.GetField(ctx, "SVC-1", FieldNodeGroupID)
	assert.False(t, ok)
}

func TestServiceFieldCacheTTLBoundsStaleness(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewRedisServiceFieldCache(client, time.Minute, newNopLogger())
	ctx := context.Background()

	require.NoError(t, c.SetField(ctx, "SVC-1", FieldStatus, "active"))

	mr.FastForward(time.Minute + time.Second)

	_, ok := c.GetField(ctx, "SVC-1", FieldStatus)
	assert.False(t, ok, "stale field must expire within the TTL")
}

func TestServiceFieldCacheUnavailableRedisIsAMiss(t *testing.T) {
	mr, client := setupTestRedis(t)
	c := NewRedisServiceFieldCache(client, time.Minute, newNopLogger())
	ctx := context.Background()

	require.NoError(t, c.SetField(ctx, "SVC-1", FieldStatus, "active"))
	mr.Close()

	_, ok := c.GetField(ctx, "SVC-1", FieldStatus)
	assert.False(t, ok)

	err := c.SetField(ctx, "SVC-1", FieldStatus, "active")
	assert.Error(t, err, "writes surface the failure for the caller to log")
}
