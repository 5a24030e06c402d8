package syncprim

import "context"

// RWLock is a read-preferring, write-exclusive lock: any number of readers
// may hold it concurrently, a writer requires zero active readers and
// excludes everyone. Arriving readers are never held back by a queued writer,
// which is exactly the readers-preferred policy of the classic problem (and
// why sync.RWMutex, which gates new readers behind a pending writer, is not
// used here).
type RWLock struct {
	mon      Monitor
	released *Cond
	readers  int
	writer   bool
}

// NewRWLock creates an unlocked RWLock.
func NewRWLock() *RWLock {
	l := &RWLock{}
	l.released = l.mon.NewCond()
	return l
}

// RLock acquires the lock for reading, blocking while a writer is active.
func (l *RWLock) RLock(ctx context.Context) error {
	l.mon.Lock()
	defer l.mon.Unlock()
	for l.writer {
		if err := l.released.Wait(ctx); err != nil {
			return err
		}
	}
	l.readers++
	return nil
}

// RUnlock undoes a single RLock call.
func (l *RWLock) RUnlock() {
	l.mon.Lock()
	defer l.mon.Unlock()
	l.readers--
	if l.readers == 0 {
		l.released.Broadcast()
	}
}

// Lock acquires the lock for writing, blocking while any reader or another
// writer is active.
func (l *RWLock) Lock(ctx context.Context) error {
	l.mon.Lock()
	defer l.mon.Unlock()
	for l.writer || l.readers > 0 {
		if err := l.released.Wait(ctx); err != nil {
			return err
		}
	}
	l.writer = true
	return nil
}

// Unlock releases the write lock.
func (l *RWLock) Unlock() {
	l.mon.Lock()
	defer l.mon.Unlock()
	l.writer = false
	l.released.Broadcast()
}

// Readers returns the number of readers currently holding the lock.
func (l *RWLock) Readers() int {
	l.mon.Lock()
	defer l.mon.Unlock()
	return l.readers
}
