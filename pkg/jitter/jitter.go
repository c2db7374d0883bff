// Package jitter вычисляет интервалы повторов со случайной добавкой,
// чтобы клиенты не повторяли запросы синхронно.
package jitter

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Duration возвращает d с добавкой в диапазоне [0, d*jitterFactor].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	randMutex.Lock()
	defer randMutex.Unlock()
	return DurationWithSeed(d, jitterFactor, globalRand)
}

// DurationWithSeed — то же, что Duration, но с переданным генератором.
func DurationWithSeed(d time.Duration, jitterFactor float64, rng *rand.Rand) time.Duration {
	if jitterFactor <= 0 || d <= 0 {
		return d
	}
	return d + time.Duration(rng.Float64()*jitterFactor*float64(d))
}

// ExponentialBackoff возвращает base*2^attempt, ограниченное max, с джиттером.
// attempt нумеруется с нуля.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	backoff := base
	for i := 0; i < attempt && backoff < max; i++ {
		backoff *= 2
	}
	if backoff > max {
		backoff = max
	}
	return Duration(backoff, jitterFactor)
}

// Sleep ждёт d или отмены ctx. Если до дедлайна ctx осталось меньше d,
// возвращает context.DeadlineExceeded сразу, не дожидаясь его.
func Sleep(ctx context.Context, d time.Duration) error {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= d {
		return context.DeadlineExceeded
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
