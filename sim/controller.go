package sim

import (
	"errors"
	"sync"

	"github.com/syncsim/syncsim/sim/events"
)

// ErrNoSelection is returned by Start when the problem or discipline has not
// been selected yet. This is a configuration-contract violation, rejected
// before any worker is spawned.
var ErrNoSelection = errors.New("no problem or discipline selected")

// Controller holds the currently active simulation and translates the
// external lifecycle and configuration commands into engine operations. At
// most one simulation is active at a time; switching the problem or the
// discipline while running stops the previous simulation fully before the
// new selection is installed.
type Controller struct {
	cfg   Config
	feed  *events.Feed
	stats *Stats

	mu         sync.Mutex
	problem    ProblemKind
	discipline Discipline
	active     Simulation
}

// NewController creates a controller with nothing selected.
func NewController(cfg Config, feed *events.Feed, stats *Stats) *Controller {
	return &Controller{cfg: cfg, feed: feed, stats: stats}
}

// SetProblem selects the problem. If a simulation is running it is stopped
// and all state is reset before the selection takes effect.
func (c *Controller) SetProblem(p ProblemKind) error {
	if _, err := ParseProblemKind(string(p)); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.problem = p
	return nil
}

// SetDiscipline selects the synchronization discipline. If a simulation is
// running it is stopped and all state is reset before the selection takes
// effect.
func (c *Controller) SetDiscipline(d Discipline) error {
	if _, err := ParseDiscipline(string(d)); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.discipline = d
	return nil
}

// Selection returns the current (problem, discipline) pair.
func (c *Controller) Selection() (ProblemKind, Discipline) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.problem, c.discipline
}

// Warning returns the renderer-facing warning for the current selection:
// non-empty exactly when the unsafe discipline is selected.
func (c *Controller) Warning() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.discipline == Unsafe {
		return UnsafeWarning
	}
	return ""
}

// Start constructs the simulation for the current selection over fresh shared
// state and starts it. It is a no-op when already running and fails
// synchronously when nothing is selected.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && c.active.Running() {
		return nil
	}
	if c.problem == "" || c.discipline == "" {
		return ErrNoSelection
	}
	s, err := NewSimulation(c.problem, c.discipline, c.cfg, c.feed, c.stats)
	if err != nil {
		return err
	}
	c.active = s
	s.Start()
	return nil
}

// Stop stops the active simulation, blocking until every worker has
// terminated. No-op when nothing is running.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.active.Stop()
	}
}

// Reset stops the active simulation and clears the event history, the
// counters, and the shared state back to the initial configuration. The
// selection is kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	if c.active != nil {
		c.active.Stop()
		c.active = nil
	}
	c.feed.Reset()
	c.stats.Reset()
}

// Running reports whether a simulation is currently active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return false
	}
	return c.active.Running()
}
