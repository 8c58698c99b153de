package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/funnel"
)

func TestFunnelRedisStore_SetAndGet(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	store := funnel.NewRedisStore(infra.RedisClient)
	ctx := context.Background()

	err := store.Set(ctx, "visitor-1", "FunnelStart", "send-money:start", 0)
	require.NoError(t, err)

	value, found, err := store.Get(ctx, "visitor-1", "FunnelStart")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "send-money:start", value)
}

func TestFunnelRedisStore_GetMissing(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	store := funnel.NewRedisStore(infra.RedisClient)
	ctx := context.Background()

	value, found, err := store.Get(ctx, "visitor-1", "NoSuchKey")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)
}

func TestFunnelRedisStore_Overwrite(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	store := funnel.NewRedisStore(infra.RedisClient)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "visitor-1", "SubSection", "tnc-popup", 0))
	require.NoError(t, store.Set(ctx, "visitor-1", "SubSection", "kyc-popup", 0))

	value, found, err := store.Get(ctx, "visitor-1", "SubSection")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "kyc-popup", value)
}

func TestFunnelRedisStore_Delete(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	store := funnel.NewRedisStore(infra.RedisClient)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "visitor-1", "UniqueRefNum", "WU123456", 0))
	require.NoError(t, store.Delete(ctx, "visitor-1", "UniqueRefNum"))

	_, found, err := store.Get(ctx, "visitor-1", "UniqueRefNum")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFunnelRedisStore_DeleteMissingIsNoop(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	store := funnel.NewRedisStore(infra.RedisClient)

	err := store.Delete(context.Background(), "visitor-1", "NeverSet")
	require.NoError(t, err)
}

func TestFunnelRedisStore_TTLExpiry(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	store := funnel.NewRedisStore(infra.RedisClient)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "visitor-1", "NewUser", "true", 500*time.Millisecond))

	_, found, err := store.Get(ctx, "visitor-1", "NewUser")
	require.NoError(t, err)
	assert.True(t, found)

	time.Sleep(700 * time.Millisecond)

	_, found, err = store.Get(ctx, "visitor-1", "NewUser")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFunnelRedisStore_VisitorIsolation(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, false, true)

	store := funnel.NewRedisStore(infra.RedisClient)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "visitor-1", "FunnelStart", "send-money:start", 0))

	_, found, err := store.Get(ctx, "visitor-2", "FunnelStart")
	require.NoError(t, err)
	assert.False(t, found)
}
