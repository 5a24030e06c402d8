package syncprim

import "context"

// Lock is a mutual-exclusion lock whose Acquire is cancellable, built on a
// Monitor condition. The fork locks of the monitor-discipline dining
// philosophers use it in place of a bare sync.Mutex, so that a philosopher
// blocked on a fork still exits promptly on Stop.
type Lock struct {
	mon  Monitor
	free *Cond
	held bool
}

// NewLock creates an unlocked Lock.
func NewLock() *Lock {
	l := &Lock{}
	l.free = l.mon.NewCond()
	return l
}

// Acquire blocks until the lock is available or ctx is cancelled.
func (l *Lock) Acquire(ctx context.Context) error {
	l.mon.Lock()
	defer l.mon.Unlock()
	for l.held {
		if err := l.free.Wait(ctx); err != nil {
			return err
		}
	}
	l.held = true
	return nil
}

// Release unlocks the lock, waking one blocked acquirer if any.
func (l *Lock) Release() {
	l.mon.Lock()
	defer l.mon.Unlock()
	l.held = false
	l.free.Signal()
}
