package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syncsim/syncsim/sim/events"
)

// Simulation is the lifecycle contract shared by the three problems.
// Start spawns all worker goroutines and returns without blocking; it is a
// no-op when already running. Stop cancels every worker, unblocks any wait
// they are parked in, and returns only once all of them have terminated;
// repeated Stop calls are no-ops. After Stop returns, no further record is
// emitted for the run.
type Simulation interface {
	Name() string
	Start()
	Stop()
	Running() bool
}

// NewSimulation constructs the simulation for a (problem, discipline) pair
// over fresh shared state.
func NewSimulation(problem ProblemKind, discipline Discipline, cfg Config, feed *events.Feed, stats *Stats) (Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch problem {
	case ProducerConsumer:
		return NewProducerConsumerSimulation(discipline, cfg, feed, stats), nil
	case DiningPhilosophers:
		return NewDiningPhilosophersSimulation(discipline, cfg, feed, stats), nil
	case ReadersWriters:
		return NewReadersWritersSimulation(discipline, cfg, feed, stats), nil
	}
	return nil, fmt.Errorf("unknown problem %q", problem)
}

// harness owns the run lifecycle common to all problems: the running flag,
// the run context that cancellation flows through, worker spawning with
// per-worker seeded generators, and the post-stop emission gate.
type harness struct {
	name  string
	feed  *events.Feed
	stats *Stats
	seed  int64

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	stopped bool
	workers int

	wg   sync.WaitGroup
	gate atomic.Bool // true while emissions are allowed
}

func newHarness(name string, seed int64, feed *events.Feed, stats *Stats) harness {
	return harness{name: name, feed: feed, stats: stats, seed: seed}
}

// Name returns the simulation's display name.
func (h *harness) Name() string { return h.name }

// begin transitions the harness to running and returns the run context.
// The second return is false when the run is already started (or was
// started once before; simulations are single-shot, the Controller builds a
// fresh one per start).
func (h *harness) begin() (context.Context, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running || h.stopped {
		return nil, false
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.running = true
	h.gate.Store(true)
	return ctx, true
}

// spawn launches one worker goroutine with its own independently seeded
// generator, so workers never contend on a shared random source.
func (h *harness) spawn(ctx context.Context, body func(ctx context.Context, rng *rand.Rand)) {
	h.mu.Lock()
	rng := rand.New(rand.NewSource(h.seed + int64(h.workers)))
	h.workers++
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		body(ctx, rng)
	}()
}

// halt cancels the run and blocks until every worker has terminated. The
// emission gate closes only after the join, so the last records of exiting
// workers still land in the feed, and nothing lands after halt returns.
// Idempotent.
func (h *harness) halt() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.stopped = true
	cancel := h.cancel
	h.mu.Unlock()

	cancel()
	h.wg.Wait()
	h.gate.Store(false)
}

// Running reports whether workers are active.
func (h *harness) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// emit publishes an ordinary state transition, unless the run has fully
// stopped.
func (h *harness) emit(actor string, state events.State, message string) {
	if !h.gate.Load() {
		return
	}
	h.feed.Emit(actor, state, message)
}

// diagnose publishes an invariant-violation record and counts it.
func (h *harness) diagnose(actor string, state events.State, kind events.DiagKind, message string) {
	if !h.gate.Load() {
		return
	}
	h.stats.Diagnostic(kind)
	h.feed.EmitDiagnostic(actor, state, kind, message)
}

// sleep pauses the worker for a duration drawn from r, returning false if
// the run was cancelled first.
func (h *harness) sleep(ctx context.Context, rng *rand.Rand, r Range) bool {
	return h.pause(ctx, r.pick(rng))
}

// pause pauses the worker for a fixed duration, returning false on
// cancellation.
func (h *harness) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
