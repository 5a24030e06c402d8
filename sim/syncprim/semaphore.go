// Package syncprim implements the synchronization primitives used by the
// semaphore and monitor disciplines: a counting semaphore, a mutual-exclusion
// lock with condition variables, and a read-preferring read-write lock.
// All blocking operations take a context and unblock promptly on cancellation,
// which is what lets Stop interrupt workers parked inside a wait.
package syncprim

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Semaphore is a counting semaphore with cancellable acquisition.
type Semaphore struct {
	w *semaphore.Weighted
}

// NewSemaphore creates a semaphore with the given initial count.
func NewSemaphore(count int64) *Semaphore {
	s := &Semaphore{w: semaphore.NewWeighted(count)}
	return s
}

// NewBinary creates a semaphore restricted to counts 0/1, usable as a
// mutual-exclusion primitive.
func NewBinary() *Semaphore {
	return NewSemaphore(1)
}

// Acquire decrements the semaphore, blocking while the count is zero.
// Returns ctx.Err() if the context is cancelled while blocked.
func (s *Semaphore) Acquire(ctx context.Context) error {
	return s.w.Acquire(ctx, 1)
}

// TryAcquire decrements the semaphore without blocking and reports success.
func (s *Semaphore) TryAcquire() bool {
	return s.w.TryAcquire(1)
}

// Release increments the semaphore, waking one blocked acquirer if any.
func (s *Semaphore) Release() {
	s.w.Release(1)
}
