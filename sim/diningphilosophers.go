package sim

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/syncsim/syncsim/sim/events"
	"github.com/syncsim/syncsim/sim/syncprim"
)

// fork abstracts the per-fork primitive of the two safe disciplines: a binary
// semaphore or a cancellable mutual-exclusion lock. Both disciplines share
// one philosopher body over this interface.
type fork interface {
	acquire(ctx context.Context) error
	release()
}

type semaphoreFork struct{ sem *syncprim.Semaphore }

func (f semaphoreFork) acquire(ctx context.Context) error { return f.sem.Acquire(ctx) }
func (f semaphoreFork) release()                          { f.sem.Release() }

type lockFork struct{ l *syncprim.Lock }

func (f lockFork) acquire(ctx context.Context) error { return f.l.Acquire(ctx) }
func (f lockFork) release()                          { f.l.Release() }

// DiningPhilosophersSimulation runs philosophers around a cyclic table of
// forks under one of the three disciplines.
type DiningPhilosophersSimulation struct {
	harness
	cfg        Config
	discipline Discipline

	forks []fork // semaphore and monitor disciplines

	// Unsafe discipline: a bare occupancy flag per fork, read and written
	// with no synchronization whatsoever. The check-then-act race on these
	// flags is the behavior under demonstration; do not guard them.
	forkTaken []bool
}

// NewDiningPhilosophersSimulation creates the simulation with fresh forks for
// the given discipline.
func NewDiningPhilosophersSimulation(discipline Discipline, cfg Config, feed *events.Feed, stats *Stats) *DiningPhilosophersSimulation {
	s := &DiningPhilosophersSimulation{
		harness:    newHarness("dining-philosophers", cfg.Seed, feed, stats),
		cfg:        cfg,
		discipline: discipline,
	}
	n := cfg.Philosophers
	switch discipline {
	case Semaphore:
		s.forks = make([]fork, n)
		for i := range s.forks {
			s.forks[i] = semaphoreFork{sem: syncprim.NewBinary()}
		}
	case Monitor:
		s.forks = make([]fork, n)
		for i := range s.forks {
			s.forks[i] = lockFork{l: syncprim.NewLock()}
		}
	default:
		s.forkTaken = make([]bool, n)
	}
	return s
}

// Start seats the philosophers.
func (s *DiningPhilosophersSimulation) Start() {
	ctx, ok := s.begin()
	if !ok {
		return
	}
	for i := 0; i < s.cfg.Philosophers; i++ {
		seat := i
		id := fmt.Sprintf("philosopher-%d", i)
		s.spawn(ctx, func(ctx context.Context, rng *rand.Rand) {
			s.philosopher(ctx, rng, id, seat)
		})
	}
}

// Stop cancels all philosophers and waits for them to leave the table.
func (s *DiningPhilosophersSimulation) Stop() {
	s.halt()
}

func forkID(i int) string { return fmt.Sprintf("fork-%d", i) }

func (s *DiningPhilosophersSimulation) philosopher(ctx context.Context, rng *rand.Rand, id string, seat int) {
	n := s.cfg.Philosophers
	left, right := seat, (seat+1)%n

	for ctx.Err() == nil {
		s.emit(id, events.StateThinking, "thinking")
		if !s.sleep(ctx, rng, s.cfg.Timing.Think) {
			return
		}

		if s.discipline == Unsafe {
			if !s.dineUnsafe(ctx, rng, id, left, right) {
				return
			}
			continue
		}
		if !s.dine(ctx, rng, id, seat, left, right) {
			return
		}
	}
}

// dine is the deadlock-free protocol shared by the semaphore and monitor
// disciplines: even seats take the left fork first, odd seats the right, so
// no cyclic acquisition order can form.
func (s *DiningPhilosophersSimulation) dine(ctx context.Context, rng *rand.Rand, id string, seat, left, right int) bool {
	first, second := left, right
	if seat%2 == 1 {
		first, second = right, left
	}

	s.emit(id, events.StateWaiting, fmt.Sprintf("waiting on fork %d", first))
	if s.forks[first].acquire(ctx) != nil {
		return false
	}
	s.emit(forkID(first), events.StateHeld, fmt.Sprintf("picked up by %s", id))
	s.emit(id, events.StateHungry, fmt.Sprintf("picked up fork %d", first))

	s.emit(id, events.StateWaiting, fmt.Sprintf("waiting on fork %d", second))
	if s.forks[second].acquire(ctx) != nil {
		s.forks[first].release()
		s.emit(forkID(first), events.StateFree, "")
		return false
	}
	s.emit(forkID(second), events.StateHeld, fmt.Sprintf("picked up by %s", id))
	s.emit(id, events.StateHungry, fmt.Sprintf("picked up fork %d", second))

	s.emit(id, events.StateEating, "eating")
	ate := s.sleep(ctx, rng, s.cfg.Timing.Eat)

	s.forks[first].release()
	s.forks[second].release()
	s.emit(forkID(first), events.StateFree, "")
	s.emit(forkID(second), events.StateFree, "")
	s.emit(id, events.StateThinking, "put down forks")
	if ate {
		s.stats.AddMeal()
	}
	return ate
}

// dineUnsafe mirrors the original demo's racy protocol: check a bare flag,
// sleep inside the race window, then set it. When the second fork is
// observed taken, the philosopher reports a potential deadlock, releases the
// first fork after a backoff, and retries, a livelock-avoidance heuristic
// specific to this demonstration, not a deadlock-recovery algorithm.
func (s *DiningPhilosophersSimulation) dineUnsafe(ctx context.Context, rng *rand.Rand, id string, left, right int) bool {
	s.emit(id, events.StateHungry, "trying to pick up forks")

	if s.forkTaken[left] {
		s.emit(id, events.StateWaiting, fmt.Sprintf("waiting on fork %d", left))
		return s.pause(ctx, s.cfg.Timing.PollBackoff)
	}
	if !s.pause(ctx, s.cfg.Timing.RaceWindow) {
		return false
	}
	if s.forkTaken[left] {
		// A neighbor seized the fork inside the window and both sides now
		// believe they hold it.
		s.diagnose(id, events.StateHungry, events.DiagPotentialDeadlock,
			fmt.Sprintf("fork %d seized by neighbor inside the race window", left))
	}
	s.forkTaken[left] = true
	s.emit(forkID(left), events.StateHeld, fmt.Sprintf("picked up by %s", id))
	s.emit(id, events.StateHungry, fmt.Sprintf("picked up fork %d", left))

	if s.forkTaken[right] {
		s.diagnose(id, events.StateWaiting, events.DiagPotentialDeadlock,
			fmt.Sprintf("holds fork %d but cannot get fork %d", left, right))
		if !s.pause(ctx, s.cfg.Timing.DeadlockBackoff) {
			s.forkTaken[left] = false
			s.emit(forkID(left), events.StateFree, "")
			return false
		}
		s.forkTaken[left] = false
		s.emit(forkID(left), events.StateFree, "")
		return true
	}
	if !s.pause(ctx, s.cfg.Timing.RaceWindow) {
		s.forkTaken[left] = false
		s.emit(forkID(left), events.StateFree, "")
		return false
	}
	s.forkTaken[right] = true
	s.emit(forkID(right), events.StateHeld, fmt.Sprintf("picked up by %s", id))
	s.emit(id, events.StateHungry, fmt.Sprintf("picked up fork %d", right))

	s.emit(id, events.StateEating, "eating")
	ate := s.sleep(ctx, rng, s.cfg.Timing.Eat)

	s.forkTaken[left] = false
	s.forkTaken[right] = false
	s.emit(forkID(left), events.StateFree, "")
	s.emit(forkID(right), events.StateFree, "")
	s.emit(id, events.StateThinking, "put down forks")
	if ate {
		s.stats.AddMeal()
	}
	return ate
}
