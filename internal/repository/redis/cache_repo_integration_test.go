//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/face-matcher/internal/cfg"
	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/internal/repository/redis/converter"
	"github.com/DRSN-tech/face-matcher/pkg/clients"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *clients.RedisClient {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := clients.NewRedisClient(&cfg.RedisCfg{
		Addr:        endpoint,
		DialTimeout: 5 * time.Second,
		Timeout:     3 * time.Second,
	})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx))

	return client
}

func TestCacheRepo_Integration(t *testing.T) {
	client := setupRedis(t)
	repo := NewCacheRepo(client, converter.NewMatchEntryConverter(), logger.Nop{})
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	entry := &domain.CacheEntry{
		PhotoID: 42,
		Matches: []domain.MatchResult{
			{PersonID: 1, Name: "Ann", Distance: 0.25, Box: domain.Box{X: 10, Y: 20, Width: 30, Height: 40}},
		},
		ComputedAt: now,
		ExpiresAt:  now.Add(time.Hour),
	}

	t.Run("miss", func(t *testing.T) {
		got, err := repo.GetMatches(ctx, 7)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("set get delete", func(t *testing.T) {
		require.NoError(t, repo.SetMatches(ctx, entry, time.Hour))

		ttl, err := client.Client.TTL(ctx, "face-matches:42").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 59*time.Minute)

		got, err := repo.GetMatches(ctx, 42)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, entry.Matches, got.Matches)
		assert.True(t, entry.ExpiresAt.Equal(got.ExpiresAt))

		require.NoError(t, repo.DeleteMatches(ctx, 42))
		got, err = repo.GetMatches(ctx, 42)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("corrupted entry is dropped", func(t *testing.T) {
		require.NoError(t, client.Client.Set(ctx, "face-matches:9", "not json", time.Hour).Err())

		got, err := repo.GetMatches(ctx, 9)
		require.NoError(t, err)
		assert.Nil(t, got)

		n, err := client.Client.Exists(ctx, "face-matches:9").Result()
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("id mismatch is dropped", func(t *testing.T) {
		require.NoError(t, client.Client.Set(ctx, "face-matches:10", `{"photo_id":11,"matches":[]}`, time.Hour).Err())

		got, err := repo.GetMatches(ctx, 10)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
