package memory

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
)

// CacheRepo — процессный кэш результатов сопоставления.
// Используется, когда Redis отключён или недоступен при старте.
type CacheRepo struct {
	mu      sync.RWMutex
	entries map[int64]domain.CacheEntry
	now     func() time.Time
	logger  logger.Logger
}

func NewCacheRepo(now func() time.Time, logger logger.Logger) *CacheRepo {
	if now == nil {
		now = time.Now
	}

	return &CacheRepo{
		entries: make(map[int64]domain.CacheEntry),
		now:     now,
		logger:  logger,
	}
}

// GetMatches возвращает nil для отсутствующей или истёкшей записи.
func (c *CacheRepo) GetMatches(_ context.Context, photoID int64) (*domain.CacheEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[photoID]
	c.mu.RUnlock()

	if !ok || entry.Expired(c.now()) {
		return nil, nil
	}

	entry.Matches = append([]domain.MatchResult(nil), entry.Matches...)
	return &entry, nil
}

// SetMatches сохраняет копию записи. ttl учитывается через entry.ExpiresAt.
func (c *CacheRepo) SetMatches(_ context.Context, entry *domain.CacheEntry, _ time.Duration) error {
	stored := *entry
	stored.Matches = append([]domain.MatchResult{}, entry.Matches...)

	c.mu.Lock()
	c.entries[entry.PhotoID] = stored
	c.mu.Unlock()

	return nil
}

func (c *CacheRepo) DeleteMatches(_ context.Context, photoID int64) error {
	c.mu.Lock()
	delete(c.entries, photoID)
	c.mu.Unlock()

	return nil
}

// Sweep удаляет истёкшие записи и возвращает их количество.
func (c *CacheRepo) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, entry := range c.entries {
		if entry.Expired(now) {
			delete(c.entries, id)
			removed++
		}
	}

	return removed
}

func (c *CacheRepo) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RunSweeper периодически вызывает Sweep до отмены ctx.
func (c *CacheRepo) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(c.now()); n > 0 {
				c.logger.Debugf("memory cache: swept %d expired entries", n)
			}
		}
	}
}
