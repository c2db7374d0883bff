package usecase

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/DRSN-tech/face-matcher/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// Clock возвращает текущее время; подменяется в тестах.
type Clock func() time.Time

// ComputeFunc вычисляет совпадения для фото при промахе кэша.
type ComputeFunc func(ctx context.Context) (*Computation, error)

// ResultCache кэширует результаты сопоставления по фото с TTL.
// Одновременные промахи по одному фото объединяются в одно вычисление.
type ResultCache struct {
	repo   CacheRepository
	ttl    time.Duration
	now    Clock
	group  singleflight.Group
	logger logger.Logger

	// gens растёт при каждой инвалидации фото; вычисление, начатое до неё,
	// не сохраняет свой результат.
	mu   sync.Mutex
	gens map[int64]uint64
}

func NewResultCache(repo CacheRepository, ttl time.Duration, now Clock, logger logger.Logger) *ResultCache {
	if now == nil {
		now = time.Now
	}

	return &ResultCache{
		repo:   repo,
		ttl:    ttl,
		now:    now,
		logger: logger,
		gens:   make(map[int64]uint64),
	}
}

// GetOrCompute возвращает непросроченный результат из кэша или вычисляет его через compute.
// Вычисление выполняется на контексте, отвязанном от вызывающего: отмена ctx
// прерывает только ожидание этого вызова. Ошибки compute не кэшируются.
func (c *ResultCache) GetOrCompute(ctx context.Context, photoID int64, compute ComputeFunc) ([]domain.MatchResult, error) {
	const op = "ResultCache.GetOrCompute"

	if matches, ok := c.lookup(ctx, photoID); ok {
		return matches, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(c.flightKey(photoID), func() (any, error) {
		gen := c.generation(photoID)

		if matches, ok := c.lookup(flightCtx, photoID); ok {
			return matches, nil
		}

		res, err := compute(flightCtx)
		if err != nil {
			return nil, err
		}
		if res == nil {
			res = &Computation{}
		}

		if res.Cacheable {
			c.storeIfCurrent(flightCtx, photoID, gen, res.Matches)
		}

		return res.Matches, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, e.Wrap(op, res.Err)
		}
		return cloneMatches(res.Val.([]domain.MatchResult)), nil
	case <-ctx.Done():
		return nil, e.Wrap(op, ctx.Err())
	}
}

// Invalidate удаляет результат для фото из кэша. Вычисление, уже идущее для
// этого фото, дожидается своих вызывающих, но в кэш не попадает, а следующий
// вызов GetOrCompute запускает новое.
func (c *ResultCache) Invalidate(ctx context.Context, photoID int64) error {
	c.mu.Lock()
	c.gens[photoID]++
	c.group.Forget(c.flightKey(photoID))
	c.mu.Unlock()

	if err := c.repo.DeleteMatches(ctx, photoID); err != nil {
		return e.Wrap("ResultCache.Invalidate", err)
	}

	return nil
}

// lookup трактует ошибку хранилища как промах.
func (c *ResultCache) lookup(ctx context.Context, photoID int64) ([]domain.MatchResult, bool) {
	entry, err := c.repo.GetMatches(ctx, photoID)
	if err != nil {
		c.logger.Warnf("match cache read failed for photo %d, recomputing: %v", photoID, err)
		return nil, false
	}

	if entry == nil || entry.Expired(c.now()) {
		return nil, false
	}

	return cloneMatches(entry.Matches), true
}

func (c *ResultCache) generation(photoID int64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[photoID]
}

// storeIfCurrent сохраняет результат, только если фото не инвалидировали
// после начала вычисления.
func (c *ResultCache) storeIfCurrent(ctx context.Context, photoID int64, gen uint64, matches []domain.MatchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[photoID] != gen {
		c.logger.Debugf("photo %d was invalidated during computation, result not cached", photoID)
		return
	}

	c.store(ctx, photoID, matches)
}

func (c *ResultCache) store(ctx context.Context, photoID int64, matches []domain.MatchResult) {
	now := c.now()
	entry := &domain.CacheEntry{
		PhotoID:    photoID,
		Matches:    cloneMatches(matches),
		ComputedAt: now,
		ExpiresAt:  now.Add(c.ttl),
	}

	if err := c.repo.SetMatches(ctx, entry, c.ttl); err != nil {
		c.logger.Warnf("match cache write failed for photo %d: %v", photoID, err)
	}
}

func (c *ResultCache) flightKey(photoID int64) string {
	return strconv.FormatInt(photoID, 10)
}

func cloneMatches(matches []domain.MatchResult) []domain.MatchResult {
	res := make([]domain.MatchResult, len(matches))
	copy(res, matches)
	return res
}
