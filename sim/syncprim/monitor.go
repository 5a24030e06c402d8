package syncprim

import (
	"context"
	"sync"
)

// Monitor is a mutual-exclusion lock with associated condition variables.
// Unlike sync.Cond, waits are cancellable: a waiter parked in Cond.Wait
// returns with the context's error as soon as the context is cancelled,
// which Stop relies on to unblock workers.
type Monitor struct {
	mu sync.Mutex
}

// Lock acquires the monitor.
func (m *Monitor) Lock() {
	m.mu.Lock()
}

// Unlock releases the monitor.
func (m *Monitor) Unlock() {
	m.mu.Unlock()
}

// NewCond creates a condition variable associated with the monitor.
func (m *Monitor) NewCond() *Cond {
	return &Cond{m: m}
}

// Cond is a condition variable whose waiters are queued FIFO, each on its own
// channel so that Signal wakes exactly one and cancellation can remove a
// waiter without disturbing the rest.
type Cond struct {
	m       *Monitor
	waiters []chan struct{}
}

// Wait atomically releases the monitor and blocks until woken by Signal or
// Broadcast, or until ctx is cancelled. The monitor is reacquired before
// returning, on both paths. Callers must re-check their predicate in a loop,
// as with any condition variable.
func (c *Cond) Wait(ctx context.Context) error {
	ch := make(chan struct{})
	c.waiters = append(c.waiters, ch)
	c.m.Unlock()

	select {
	case <-ch:
		c.m.Lock()
		return nil
	case <-ctx.Done():
		c.m.Lock()
		if !c.remove(ch) {
			// A signal raced with cancellation and already picked this
			// waiter. Pass the wakeup on so it is not lost.
			c.Signal()
		}
		return ctx.Err()
	}
}

// Signal wakes the longest-waiting goroutine, if any. The monitor must be held.
func (c *Cond) Signal() {
	if len(c.waiters) == 0 {
		return
	}
	close(c.waiters[0])
	c.waiters = c.waiters[1:]
}

// Broadcast wakes all waiting goroutines. The monitor must be held.
func (c *Cond) Broadcast() {
	for _, ch := range c.waiters {
		close(ch)
	}
	c.waiters = nil
}

// remove unregisters a cancelled waiter and reports whether it was still
// queued. The monitor must be held.
func (c *Cond) remove(ch chan struct{}) bool {
	for i, w := range c.waiters {
		if w == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return true
		}
	}
	return false
}
