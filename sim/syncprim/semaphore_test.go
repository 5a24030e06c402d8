package syncprim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaphore_Counting(t *testing.T) {
	// GIVEN a semaphore with count 2
	s := NewSemaphore(2)

	// THEN two non-blocking acquisitions succeed and a third fails
	assert.True(t, s.TryAcquire())
	assert.True(t, s.TryAcquire())
	assert.False(t, s.TryAcquire())

	// WHEN one permit is released
	s.Release()

	// THEN an acquisition succeeds again
	assert.True(t, s.TryAcquire())
}

func TestSemaphore_AcquireBlocksUntilRelease(t *testing.T) {
	// GIVEN a drained binary semaphore
	s := NewBinary()
	require.True(t, s.TryAcquire())

	// WHEN a goroutine blocks in Acquire and the permit is released
	done := make(chan error, 1)
	go func() {
		done <- s.Acquire(context.Background())
	}()
	s.Release()

	// THEN the blocked acquisition completes
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not complete after Release")
	}
}

func TestSemaphore_AcquireUnblocksOnCancellation(t *testing.T) {
	// GIVEN a drained binary semaphore
	s := NewBinary()
	require.True(t, s.TryAcquire())

	// WHEN a blocked Acquire's context is cancelled
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Acquire(ctx)
	}()
	cancel()

	// THEN the wait unblocks with the context's error
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not unblock on cancellation")
	}
}
