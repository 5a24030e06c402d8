package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncsim/syncsim/sim/events"
)

func newTestController() (*Controller, *events.Feed, *Stats) {
	feed := events.NewFeed()
	stats := NewStats()
	return NewController(fastConfig(), feed, stats), feed, stats
}

func TestController_Start_RejectsMissingSelection(t *testing.T) {
	// GIVEN a controller with nothing selected
	c, _, _ := newTestController()

	// WHEN started
	err := c.Start()

	// THEN the contract violation is rejected synchronously
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.False(t, c.Running())

	// AND selecting only a problem is still not enough
	require.NoError(t, c.SetProblem(ProducerConsumer))
	assert.ErrorIs(t, c.Start(), ErrNoSelection)
}

func TestController_StartStop_Lifecycle(t *testing.T) {
	// GIVEN a configured controller
	c, feed, _ := newTestController()
	require.NoError(t, c.SetProblem(ProducerConsumer))
	require.NoError(t, c.SetDiscipline(Semaphore))

	// WHEN started
	require.NoError(t, c.Start())
	assert.True(t, c.Running())

	// AND started again
	require.NoError(t, c.Start()) // no-op while running

	time.Sleep(100 * time.Millisecond)

	// WHEN stopped twice
	c.Stop()
	c.Stop() // no-op when already stopped

	// THEN the run ended and produced events
	assert.False(t, c.Running())
	assert.Greater(t, feed.Len(), 0)
}

func TestController_QuietAfterStop(t *testing.T) {
	// GIVEN a running simulation
	c, feed, _ := newTestController()
	require.NoError(t, c.SetProblem(DiningPhilosophers))
	require.NoError(t, c.SetDiscipline(Monitor))
	require.NoError(t, c.Start())
	time.Sleep(100 * time.Millisecond)

	// WHEN it is stopped
	c.Stop()
	n := feed.Len()

	// THEN no further event is emitted during a quiet period
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, feed.Len(), "events emitted after Stop returned")
}

func TestController_SwitchingSelectionStopsAndResets(t *testing.T) {
	// GIVEN a running simulation
	c, feed, stats := newTestController()
	require.NoError(t, c.SetProblem(ProducerConsumer))
	require.NoError(t, c.SetDiscipline(Monitor))
	require.NoError(t, c.Start())
	time.Sleep(100 * time.Millisecond)
	require.True(t, c.Running())

	// WHEN the problem is switched while running
	require.NoError(t, c.SetProblem(ReadersWriters))

	// THEN the previous run was stopped and all state reset
	assert.False(t, c.Running())
	assert.Equal(t, 0, feed.Len())
	assert.Equal(t, int64(0), stats.Produced())

	// AND the new selection starts cleanly with no leftover workers feeding
	// the history
	require.NoError(t, c.Start())
	time.Sleep(100 * time.Millisecond)
	c.Stop()
	for _, r := range feed.Snapshot() {
		assert.NotContains(t, r.Actor, "producer", "worker from the previous problem outlived the switch")
		assert.NotContains(t, r.Actor, "consumer", "worker from the previous problem outlived the switch")
	}
}

func TestController_SelectionValidation(t *testing.T) {
	// GIVEN a controller
	c, _, _ := newTestController()

	// WHEN given unknown names
	// THEN they are rejected
	assert.Error(t, c.SetProblem("cigarette-smokers"))
	assert.Error(t, c.SetDiscipline("hope"))
}

func TestController_Warning_OnlyUnderUnsafe(t *testing.T) {
	// GIVEN a controller
	c, _, _ := newTestController()

	// THEN no warning without a selection
	assert.Empty(t, c.Warning())

	// WHEN the unsafe discipline is selected
	require.NoError(t, c.SetDiscipline(Unsafe))

	// THEN the warning surfaces
	assert.Equal(t, UnsafeWarning, c.Warning())

	// AND clears when a safe discipline is selected
	require.NoError(t, c.SetDiscipline(Semaphore))
	assert.Empty(t, c.Warning())
}

func TestController_ResetRestoresInitialState(t *testing.T) {
	// GIVEN a stopped run with history and counters
	c, feed, stats := newTestController()
	require.NoError(t, c.SetProblem(ReadersWriters))
	require.NoError(t, c.SetDiscipline(Semaphore))
	require.NoError(t, c.Start())
	time.Sleep(150 * time.Millisecond)
	c.Stop()
	require.Greater(t, feed.Len(), 0)

	// WHEN reset
	c.Reset()

	// THEN feed and stats equal a freshly constructed run's initial state
	assert.Equal(t, 0, feed.Len())
	assert.Equal(t, int64(0), stats.Reads())
	assert.Equal(t, int64(0), stats.Writes())
	assert.Equal(t, int64(0), stats.TotalDiagnostics())

	// AND the selection survives the reset
	p, d := c.Selection()
	assert.Equal(t, ReadersWriters, p)
	assert.Equal(t, Semaphore, d)
}
