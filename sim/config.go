package sim

import (
	"fmt"
	"math/rand"
	"time"
)

// ProblemKind selects which classic concurrency problem a run simulates.
type ProblemKind string

const (
	ProducerConsumer   ProblemKind = "producer-consumer"
	DiningPhilosophers ProblemKind = "dining-philosophers"
	ReadersWriters     ProblemKind = "readers-writers"
)

// ProblemKinds lists the supported problems in presentation order.
func ProblemKinds() []ProblemKind {
	return []ProblemKind{ProducerConsumer, DiningPhilosophers, ReadersWriters}
}

// ParseProblemKind validates a problem name from the configuration surface.
func ParseProblemKind(s string) (ProblemKind, error) {
	switch ProblemKind(s) {
	case ProducerConsumer, DiningPhilosophers, ReadersWriters:
		return ProblemKind(s), nil
	}
	return "", fmt.Errorf("unknown problem %q (expected one of %v)", s, ProblemKinds())
}

// Discipline selects the synchronization strategy governing a run. It is
// immutable for the run's lifetime.
type Discipline string

const (
	Semaphore Discipline = "semaphore"
	Monitor   Discipline = "monitor"
	Unsafe    Discipline = "unsafe"
)

// Disciplines lists the supported disciplines in presentation order.
func Disciplines() []Discipline {
	return []Discipline{Semaphore, Monitor, Unsafe}
}

// ParseDiscipline validates a discipline name from the configuration surface.
func ParseDiscipline(s string) (Discipline, error) {
	switch Discipline(s) {
	case Semaphore, Monitor, Unsafe:
		return Discipline(s), nil
	}
	return "", fmt.Errorf("unknown discipline %q (expected one of %v)", s, Disciplines())
}

// UnsafeWarning is the renderer-facing warning shown whenever the unsafe
// discipline is selected.
const UnsafeWarning = "WARNING: race conditions will occur!"

// Range is a duration interval [Min, Max) that workers draw randomized
// think/work pauses from.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// pick draws a duration from the range using the worker's own generator.
func (r Range) pick(rng *rand.Rand) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rng.Int63n(int64(r.Max-r.Min)))
}

// Timing groups the pacing parameters of all three problems. The
// randomization is observability pacing only; correctness never depends on
// these values.
type Timing struct {
	ProducerIdle Range // pause after a successful produce
	ConsumerIdle Range // pause after a successful consume
	Think        Range // philosopher thinking time
	Eat          Range // philosopher eating time
	Read         Range // reader hold time on the shared resource
	ReaderIdle   Range // reader pause between reads
	Write        Range // writer hold time on the shared resource
	WriterIdle   Range // writer pause between writes

	RaceWindow      time.Duration // unsafe-mode sleep between check and mutation
	PollBackoff     time.Duration // unsafe-mode retry delay after observing full/empty/taken
	DeadlockBackoff time.Duration // unsafe-mode hold time before releasing the first fork
}

// DefaultTiming returns the pacing of the original demonstrator: idle periods
// of one to two and a half seconds so interleavings are visible, and a 50ms
// race window in unsafe mode.
func DefaultTiming() Timing {
	return Timing{
		ProducerIdle:    Range{1000 * time.Millisecond, 2000 * time.Millisecond},
		ConsumerIdle:    Range{1500 * time.Millisecond, 2500 * time.Millisecond},
		Think:           Range{1000 * time.Millisecond, 2000 * time.Millisecond},
		Eat:             Range{1500 * time.Millisecond, 2000 * time.Millisecond},
		Read:            Range{1000 * time.Millisecond, 2000 * time.Millisecond},
		ReaderIdle:      Range{500 * time.Millisecond, 1000 * time.Millisecond},
		Write:           Range{1500 * time.Millisecond, 2500 * time.Millisecond},
		WriterIdle:      Range{1000 * time.Millisecond, 2500 * time.Millisecond},
		RaceWindow:      50 * time.Millisecond,
		PollBackoff:     100 * time.Millisecond,
		DeadlockBackoff: 500 * time.Millisecond,
	}
}

// FastTiming compresses all ranges to a few milliseconds. Tests use it to
// drive many produce/consume/eat cycles through a run that lasts well under a
// second.
func FastTiming() Timing {
	return Timing{
		ProducerIdle:    Range{1 * time.Millisecond, 3 * time.Millisecond},
		ConsumerIdle:    Range{1 * time.Millisecond, 3 * time.Millisecond},
		Think:           Range{1 * time.Millisecond, 3 * time.Millisecond},
		Eat:             Range{1 * time.Millisecond, 3 * time.Millisecond},
		Read:            Range{1 * time.Millisecond, 3 * time.Millisecond},
		ReaderIdle:      Range{1 * time.Millisecond, 2 * time.Millisecond},
		Write:           Range{1 * time.Millisecond, 3 * time.Millisecond},
		WriterIdle:      Range{1 * time.Millisecond, 2 * time.Millisecond},
		RaceWindow:      2 * time.Millisecond,
		PollBackoff:     1 * time.Millisecond,
		DeadlockBackoff: 2 * time.Millisecond,
	}
}

// Config groups the fixed parameters of the engine. Actor counts and the
// buffer capacity are deliberately not exposed on the CLI; they match the
// original demonstrator.
type Config struct {
	Producers      int // producer workers in producer-consumer
	Consumers      int // consumer workers in producer-consumer
	BufferCapacity int // bounded buffer capacity C

	Philosophers int // philosophers (and forks) at the table

	Readers int // reader workers in readers-writers
	Writers int // writer workers in readers-writers

	Seed   int64  // base seed; worker i uses Seed+i for its own generator
	Timing Timing // pacing parameters
}

// DefaultConfig returns the fixed defaults: 2 producers, 2 consumers,
// capacity 5; 5 philosophers; 3 readers, 2 writers.
func DefaultConfig() Config {
	return Config{
		Producers:      2,
		Consumers:      2,
		BufferCapacity: 5,
		Philosophers:   5,
		Readers:        3,
		Writers:        2,
		Seed:           42,
		Timing:         DefaultTiming(),
	}
}

// Validate rejects configurations no simulation can run with.
func (c Config) Validate() error {
	if c.Producers < 1 || c.Consumers < 1 {
		return fmt.Errorf("need at least one producer and one consumer, got %d/%d", c.Producers, c.Consumers)
	}
	if c.BufferCapacity < 1 {
		return fmt.Errorf("buffer capacity must be positive, got %d", c.BufferCapacity)
	}
	if c.Philosophers < 2 {
		return fmt.Errorf("need at least two philosophers, got %d", c.Philosophers)
	}
	if c.Readers < 1 || c.Writers < 1 {
		return fmt.Errorf("need at least one reader and one writer, got %d/%d", c.Readers, c.Writers)
	}
	return nil
}
