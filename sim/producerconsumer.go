package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/syncsim/syncsim/sim/events"
	"github.com/syncsim/syncsim/sim/syncprim"
)

// boundedBuffer is the shared buffer of the producer-consumer problem. Its
// own mutex protects structural integrity only (as the original demo's
// synchronized list did); enforcing the capacity bound is the discipline's
// job, and the unsafe discipline's check-then-act race happens above this
// layer.
type boundedBuffer struct {
	mu    sync.Mutex
	items []int
}

// append adds an item unconditionally and returns the new occupancy.
func (b *boundedBuffer) append(v int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, v)
	return len(b.items)
}

// removeFront pops the oldest item; ok is false when the buffer is empty.
func (b *boundedBuffer) removeFront() (v int, size int, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == 0 {
		return 0, 0, false
	}
	v = b.items[0]
	b.items = b.items[1:]
	return v, len(b.items), true
}

// size returns the current occupancy.
func (b *boundedBuffer) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// ProducerConsumerSimulation runs producers and consumers over a bounded
// buffer under one of the three disciplines.
type ProducerConsumerSimulation struct {
	harness
	cfg        Config
	discipline Discipline
	buf        boundedBuffer

	// Semaphore discipline: empty starts at capacity, full at zero, mutex
	// binary.
	empty, full, mutex *syncprim.Semaphore

	// Monitor discipline: one lock, two conditions.
	mon      syncprim.Monitor
	notFull  *syncprim.Cond
	notEmpty *syncprim.Cond
}

// NewProducerConsumerSimulation creates the simulation with fresh shared
// state for the given discipline.
func NewProducerConsumerSimulation(discipline Discipline, cfg Config, feed *events.Feed, stats *Stats) *ProducerConsumerSimulation {
	s := &ProducerConsumerSimulation{
		harness:    newHarness("producer-consumer", cfg.Seed, feed, stats),
		cfg:        cfg,
		discipline: discipline,
	}
	switch discipline {
	case Semaphore:
		s.empty = syncprim.NewSemaphore(int64(cfg.BufferCapacity))
		s.full = syncprim.NewSemaphore(0)
		s.mutex = syncprim.NewBinary()
	case Monitor:
		s.notFull = s.mon.NewCond()
		s.notEmpty = s.mon.NewCond()
	}
	return s
}

// Start spawns the producer and consumer workers.
func (s *ProducerConsumerSimulation) Start() {
	ctx, ok := s.begin()
	if !ok {
		return
	}
	for i := 0; i < s.cfg.Producers; i++ {
		id := fmt.Sprintf("producer-%d", i)
		s.spawn(ctx, func(ctx context.Context, rng *rand.Rand) {
			s.producer(ctx, rng, id)
		})
	}
	for i := 0; i < s.cfg.Consumers; i++ {
		id := fmt.Sprintf("consumer-%d", i)
		s.spawn(ctx, func(ctx context.Context, rng *rand.Rand) {
			s.consumer(ctx, rng, id)
		})
	}
}

// Stop cancels all workers and waits for them to terminate.
func (s *ProducerConsumerSimulation) Stop() {
	s.halt()
}

// BufferSize returns the current buffer occupancy.
func (s *ProducerConsumerSimulation) BufferSize() int {
	return s.buf.size()
}

func (s *ProducerConsumerSimulation) emitBuffer(size int) {
	state := events.StateHeld
	if size == 0 {
		state = events.StateFree
	}
	s.emit("buffer", state, fmt.Sprintf("occupancy %d/%d", size, s.cfg.BufferCapacity))
}

func (s *ProducerConsumerSimulation) producer(ctx context.Context, rng *rand.Rand, id string) {
	item := 0
	for ctx.Err() == nil {
		var ok bool
		switch s.discipline {
		case Semaphore:
			ok = s.produceSemaphore(ctx, id, item)
		case Monitor:
			ok = s.produceMonitor(ctx, id, item)
		default:
			ok = s.produceUnsafe(ctx, id, item)
		}
		if ctx.Err() != nil {
			return
		}
		if !ok {
			// Unsafe poll saw a full buffer; back off and re-check.
			if !s.pause(ctx, s.cfg.Timing.PollBackoff) {
				return
			}
			continue
		}
		item++
		s.emit(id, events.StateRunning, "")
		if !s.sleep(ctx, rng, s.cfg.Timing.ProducerIdle) {
			return
		}
	}
}

func (s *ProducerConsumerSimulation) produceSemaphore(ctx context.Context, id string, item int) bool {
	s.emit(id, events.StateWaiting, "waiting on empty semaphore")
	if s.empty.Acquire(ctx) != nil {
		return false
	}
	s.emit(id, events.StateWaiting, "waiting on mutex")
	if s.mutex.Acquire(ctx) != nil {
		s.empty.Release()
		return false
	}

	s.emit(id, events.StateProducing, fmt.Sprintf("producing item %d", item))
	size := s.buf.append(item)
	s.stats.AddProduced()
	s.emit(id, events.StateProducing, fmt.Sprintf("produced %d", item))
	s.emitBuffer(size)

	s.mutex.Release()
	s.full.Release()
	return true
}

func (s *ProducerConsumerSimulation) produceMonitor(ctx context.Context, id string, item int) bool {
	s.mon.Lock()
	for s.buf.size() >= s.cfg.BufferCapacity {
		s.emit(id, events.StateWaiting, "waiting on notFull condition")
		if s.notFull.Wait(ctx) != nil {
			s.mon.Unlock()
			return false
		}
	}

	s.emit(id, events.StateProducing, fmt.Sprintf("producing item %d", item))
	size := s.buf.append(item)
	s.stats.AddProduced()
	s.emit(id, events.StateProducing, fmt.Sprintf("produced %d", item))
	s.emitBuffer(size)

	s.notEmpty.Signal()
	s.mon.Unlock()
	return true
}

func (s *ProducerConsumerSimulation) produceUnsafe(ctx context.Context, id string, item int) bool {
	s.emit(id, events.StateChecking, "checking buffer")
	if s.buf.size() >= s.cfg.BufferCapacity {
		s.emit(id, events.StateWaiting, "buffer full")
		return false
	}

	s.emit(id, events.StateProducing, fmt.Sprintf("producing item %d", item))
	// The race window: another producer can pass the same capacity check
	// before this append lands.
	if !s.pause(ctx, s.cfg.Timing.RaceWindow) {
		return false
	}
	size := s.buf.append(item)
	if size > s.cfg.BufferCapacity {
		s.diagnose(id, events.StateProducing, events.DiagBufferOverflow,
			fmt.Sprintf("buffer overflow: size %d exceeds capacity %d", size, s.cfg.BufferCapacity))
	}
	s.stats.AddProduced()
	s.emit(id, events.StateProducing, fmt.Sprintf("produced %d", item))
	s.emitBuffer(size)
	return true
}

func (s *ProducerConsumerSimulation) consumer(ctx context.Context, rng *rand.Rand, id string) {
	for ctx.Err() == nil {
		var ok bool
		switch s.discipline {
		case Semaphore:
			ok = s.consumeSemaphore(ctx, id)
		case Monitor:
			ok = s.consumeMonitor(ctx, id)
		default:
			ok = s.consumeUnsafe(ctx, id)
		}
		if ctx.Err() != nil {
			return
		}
		if !ok {
			if !s.pause(ctx, s.cfg.Timing.PollBackoff) {
				return
			}
			continue
		}
		s.emit(id, events.StateRunning, "")
		if !s.sleep(ctx, rng, s.cfg.Timing.ConsumerIdle) {
			return
		}
	}
}

func (s *ProducerConsumerSimulation) consumeSemaphore(ctx context.Context, id string) bool {
	s.emit(id, events.StateWaiting, "waiting on full semaphore")
	if s.full.Acquire(ctx) != nil {
		return false
	}
	s.emit(id, events.StateWaiting, "waiting on mutex")
	if s.mutex.Acquire(ctx) != nil {
		s.full.Release()
		return false
	}

	item, size, _ := s.buf.removeFront()
	s.stats.AddConsumed()
	s.emit(id, events.StateConsuming, fmt.Sprintf("consumed %d", item))
	s.emitBuffer(size)

	s.mutex.Release()
	s.empty.Release()
	return true
}

func (s *ProducerConsumerSimulation) consumeMonitor(ctx context.Context, id string) bool {
	s.mon.Lock()
	for s.buf.size() == 0 {
		s.emit(id, events.StateWaiting, "waiting on notEmpty condition")
		if s.notEmpty.Wait(ctx) != nil {
			s.mon.Unlock()
			return false
		}
	}

	item, size, _ := s.buf.removeFront()
	s.stats.AddConsumed()
	s.emit(id, events.StateConsuming, fmt.Sprintf("consumed %d", item))
	s.emitBuffer(size)

	s.notFull.Signal()
	s.mon.Unlock()
	return true
}

func (s *ProducerConsumerSimulation) consumeUnsafe(ctx context.Context, id string) bool {
	s.emit(id, events.StateChecking, "checking buffer")
	if s.buf.size() == 0 {
		s.emit(id, events.StateWaiting, "buffer empty")
		return false
	}

	s.emit(id, events.StateConsuming, "consuming")
	// Race window between the emptiness check and the removal.
	if !s.pause(ctx, s.cfg.Timing.RaceWindow) {
		return false
	}
	item, size, ok := s.buf.removeFront()
	if !ok {
		// Another consumer drained the buffer inside the window.
		s.diagnose(id, events.StateConsuming, events.DiagBufferUnderflow,
			"buffer underflow: removal from empty buffer")
		return false
	}
	s.stats.AddConsumed()
	s.emit(id, events.StateConsuming, fmt.Sprintf("consumed %d", item))
	s.emitBuffer(size)
	return true
}
