package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newEntry(photoID int64, now time.Time, ttl time.Duration) *domain.CacheEntry {
	return &domain.CacheEntry{
		PhotoID:    photoID,
		Matches:    []domain.MatchResult{{PersonID: 1, Name: "Ann", Distance: 0.1}},
		ComputedAt: now,
		ExpiresAt:  now.Add(ttl),
	}
}

func TestCacheRepo_SetGetDelete(t *testing.T) {
	clk := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	repo := NewCacheRepo(clk.Now, logger.Nop{})
	ctx := context.Background()

	got, err := repo.GetMatches(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.SetMatches(ctx, newEntry(1, clk.Now(), time.Hour), time.Hour))
	got, err = repo.GetMatches(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ann", got.Matches[0].Name)

	got.Matches[0].Name = "mutated"
	again, _ := repo.GetMatches(ctx, 1)
	assert.Equal(t, "Ann", again.Matches[0].Name)

	require.NoError(t, repo.DeleteMatches(ctx, 1))
	got, _ = repo.GetMatches(ctx, 1)
	assert.Nil(t, got)
}

func TestCacheRepo_Expiry(t *testing.T) {
	clk := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	repo := NewCacheRepo(clk.Now, logger.Nop{})
	ctx := context.Background()

	require.NoError(t, repo.SetMatches(ctx, newEntry(1, clk.Now(), time.Hour), time.Hour))
	require.NoError(t, repo.SetMatches(ctx, newEntry(2, clk.Now(), 3*time.Hour), 3*time.Hour))

	clk.Advance(time.Hour)
	got, _ := repo.GetMatches(ctx, 1)
	assert.Nil(t, got, "entry is expired exactly at ExpiresAt")

	assert.Equal(t, 1, repo.Sweep(clk.Now()))
	assert.Equal(t, 1, repo.Len())

	got, _ = repo.GetMatches(ctx, 2)
	assert.NotNil(t, got)
}

func TestCacheRepo_RunSweeperStopsOnCancel(t *testing.T) {
	clk := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	repo := NewCacheRepo(clk.Now, logger.Nop{})
	require.NoError(t, repo.SetMatches(context.Background(), newEntry(1, clk.Now(), time.Minute), time.Minute))
	clk.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		repo.RunSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return repo.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
