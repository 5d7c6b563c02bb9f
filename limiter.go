package packslip

import (
	"context"
	"sync"
)

// Limiter bounds how many tasks run at once while preserving FIFO
// admission: waiters are granted slots in the order they arrived, so a
// burst of renders cannot starve earlier submissions.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	running int
	waiters []chan struct{}
}

// NewLimiter creates a limiter admitting at most limit concurrent
// holders. A limit below 1 is treated as 1.
func NewLimiter(limit int) *Limiter {
	if limit < 1 {
		limit = 1
	}
	return &Limiter{limit: limit}
}

// Acquire blocks until a slot is free or ctx is done. On success the
// caller must Release exactly once.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	if l.running < l.limit {
		l.running++
		l.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	l.waiters = append(l.waiters, ready)
	l.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		for i, w := range l.waiters {
			if w == ready {
				l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
				l.mu.Unlock()
				return ctx.Err()
			}
		}
		l.mu.Unlock()
		// The slot was already handed to us concurrently with
		// cancellation; give it back so it isn't leaked.
		l.Release()
		return ctx.Err()
	}
}

// Release frees a slot, handing it directly to the oldest waiter if
// one exists.
func (l *Limiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.waiters) > 0 {
		ready := l.waiters[0]
		l.waiters = l.waiters[1:]
		close(ready)
		return
	}
	l.running--
}

// runLimited executes tasks with at most limit running concurrently and
// returns results indexed by submission order. Slots are acquired in
// the submission loop, so tasks start in FIFO order even though they
// finish in any order. A ctx cancellation surfaces as that task's error.
func runLimited[T any](ctx context.Context, limit int, tasks []func(context.Context) (T, error)) ([]T, []error) {
	limiter := NewLimiter(limit)
	results := make([]T, len(tasks))
	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		if err := limiter.Acquire(ctx); err != nil {
			errs[i] = err
			continue
		}

		wg.Add(1)
		go func(i int, task func(context.Context) (T, error)) {
			defer wg.Done()
			defer limiter.Release()
			results[i], errs[i] = task(ctx)
		}(i, task)
	}
	wg.Wait()

	return results, errs
}
