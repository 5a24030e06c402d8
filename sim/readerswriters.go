package sim

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/syncsim/syncsim/sim/events"
	"github.com/syncsim/syncsim/sim/syncprim"
)

// resourceID is the actor id of the single shared resource.
const resourceID = "resource"

// ReadersWritersSimulation runs readers and writers over one shared resource
// with a readers-preferred policy.
type ReadersWritersSimulation struct {
	harness
	cfg        Config
	discipline Discipline

	// Shared counters. Under the semaphore discipline readCount is guarded
	// by readCountAccess; under the unsafe discipline both fields are
	// mutated bare; that data race is the behavior under demonstration.
	readCount    int
	writerActive bool

	// Semaphore discipline.
	resourceAccess  *syncprim.Semaphore
	readCountAccess *syncprim.Semaphore

	// Monitor discipline.
	rw *syncprim.RWLock
}

// NewReadersWritersSimulation creates the simulation with fresh shared state
// for the given discipline.
func NewReadersWritersSimulation(discipline Discipline, cfg Config, feed *events.Feed, stats *Stats) *ReadersWritersSimulation {
	s := &ReadersWritersSimulation{
		harness:    newHarness("readers-writers", cfg.Seed, feed, stats),
		cfg:        cfg,
		discipline: discipline,
	}
	switch discipline {
	case Semaphore:
		s.resourceAccess = syncprim.NewBinary()
		s.readCountAccess = syncprim.NewBinary()
	case Monitor:
		s.rw = syncprim.NewRWLock()
	}
	return s
}

// Start spawns the reader and writer workers.
func (s *ReadersWritersSimulation) Start() {
	ctx, ok := s.begin()
	if !ok {
		return
	}
	for i := 0; i < s.cfg.Readers; i++ {
		id := fmt.Sprintf("reader-%d", i)
		s.spawn(ctx, func(ctx context.Context, rng *rand.Rand) {
			s.reader(ctx, rng, id)
		})
	}
	for i := 0; i < s.cfg.Writers; i++ {
		id := fmt.Sprintf("writer-%d", i)
		s.spawn(ctx, func(ctx context.Context, rng *rand.Rand) {
			s.writer(ctx, rng, id)
		})
	}
}

// Stop cancels all workers and waits for them to terminate.
func (s *ReadersWritersSimulation) Stop() {
	s.halt()
}

func (s *ReadersWritersSimulation) reader(ctx context.Context, rng *rand.Rand, id string) {
	for ctx.Err() == nil {
		var ok bool
		switch s.discipline {
		case Semaphore:
			ok = s.readSemaphore(ctx, rng, id)
		case Monitor:
			ok = s.readMonitor(ctx, rng, id)
		default:
			ok = s.readUnsafe(ctx, rng, id)
		}
		if !ok {
			return
		}
		s.emit(id, events.StateIdle, "finished reading")
		if !s.sleep(ctx, rng, s.cfg.Timing.ReaderIdle) {
			return
		}
	}
}

func (s *ReadersWritersSimulation) readSemaphore(ctx context.Context, rng *rand.Rand, id string) bool {
	s.emit(id, events.StateWaiting, "waiting on readCountAccess")
	if s.readCountAccess.Acquire(ctx) != nil {
		return false
	}
	s.readCount++
	if s.readCount == 1 {
		// First reader in locks writers out.
		s.emit(id, events.StateWaiting, "waiting on resourceAccess")
		if s.resourceAccess.Acquire(ctx) != nil {
			s.readCount--
			s.readCountAccess.Release()
			return false
		}
	}
	s.readCountAccess.Release()

	s.emit(id, events.StateReading, "reading")
	s.emit(resourceID, events.StateReading, fmt.Sprintf("read by %s", id))
	held := s.sleep(ctx, rng, s.cfg.Timing.Read)

	// Leave even when cancelled mid-read, so the last reader out releases
	// the resource for any still-draining writer.
	if s.readCountAccess.Acquire(context.Background()) != nil {
		return false
	}
	s.readCount--
	last := s.readCount == 0
	if last {
		s.resourceAccess.Release()
	}
	s.readCountAccess.Release()

	if held {
		s.stats.AddRead()
	}
	if last {
		s.emit(resourceID, events.StateFree, "")
	}
	return held
}

func (s *ReadersWritersSimulation) readMonitor(ctx context.Context, rng *rand.Rand, id string) bool {
	s.emit(id, events.StateWaiting, "waiting on read lock")
	if s.rw.RLock(ctx) != nil {
		return false
	}

	s.emit(id, events.StateReading, "reading")
	s.emit(resourceID, events.StateReading, fmt.Sprintf("read by %s", id))
	held := s.sleep(ctx, rng, s.cfg.Timing.Read)

	s.rw.RUnlock()
	if held {
		s.stats.AddRead()
	}
	if s.rw.Readers() == 0 {
		s.emit(resourceID, events.StateFree, "")
	}
	return held
}

func (s *ReadersWritersSimulation) readUnsafe(ctx context.Context, rng *rand.Rand, id string) bool {
	s.emit(id, events.StateChecking, "checking resource")
	if s.writerActive {
		s.diagnose(id, events.StateReading, events.DiagReaderDuringWrite,
			fmt.Sprintf("%s reading while a writer is active", id))
	}

	s.readCount++
	s.emit(id, events.StateReading, "reading")
	s.emit(resourceID, events.StateReading, fmt.Sprintf("read by %s", id))
	held := s.sleep(ctx, rng, s.cfg.Timing.Read)

	s.readCount--
	if held {
		s.stats.AddRead()
	}
	if s.readCount == 0 {
		s.emit(resourceID, events.StateFree, "")
	}
	return held
}

func (s *ReadersWritersSimulation) writer(ctx context.Context, rng *rand.Rand, id string) {
	for ctx.Err() == nil {
		var ok bool
		switch s.discipline {
		case Semaphore:
			ok = s.writeSemaphore(ctx, rng, id)
		case Monitor:
			ok = s.writeMonitor(ctx, rng, id)
		default:
			ok = s.writeUnsafe(ctx, rng, id)
		}
		if !ok {
			return
		}
		s.emit(id, events.StateIdle, "finished writing")
		if !s.sleep(ctx, rng, s.cfg.Timing.WriterIdle) {
			return
		}
	}
}

func (s *ReadersWritersSimulation) writeSemaphore(ctx context.Context, rng *rand.Rand, id string) bool {
	s.emit(id, events.StateWaiting, "waiting on resourceAccess")
	if s.resourceAccess.Acquire(ctx) != nil {
		return false
	}

	s.emit(id, events.StateWriting, "writing")
	s.emit(resourceID, events.StateWriting, fmt.Sprintf("written by %s", id))
	held := s.sleep(ctx, rng, s.cfg.Timing.Write)

	s.resourceAccess.Release()
	if held {
		s.stats.AddWrite()
	}
	s.emit(resourceID, events.StateFree, "")
	return held
}

func (s *ReadersWritersSimulation) writeMonitor(ctx context.Context, rng *rand.Rand, id string) bool {
	s.emit(id, events.StateWaiting, "waiting on write lock")
	if s.rw.Lock(ctx) != nil {
		return false
	}

	s.emit(id, events.StateWriting, "writing")
	s.emit(resourceID, events.StateWriting, fmt.Sprintf("written by %s", id))
	held := s.sleep(ctx, rng, s.cfg.Timing.Write)

	s.rw.Unlock()
	if held {
		s.stats.AddWrite()
	}
	s.emit(resourceID, events.StateFree, "")
	return held
}

func (s *ReadersWritersSimulation) writeUnsafe(ctx context.Context, rng *rand.Rand, id string) bool {
	s.emit(id, events.StateChecking, "checking resource")
	if s.writerActive {
		s.diagnose(id, events.StateWriting, events.DiagMultiWriter,
			"two writers active simultaneously")
	}
	if n := s.readCount; n > 0 {
		s.diagnose(id, events.StateWriting, events.DiagWriterDuringRead,
			fmt.Sprintf("%s writing while %d readers active", id, n))
	}

	s.writerActive = true
	s.emit(id, events.StateWriting, "writing")
	s.emit(resourceID, events.StateWriting, fmt.Sprintf("written by %s", id))
	held := s.sleep(ctx, rng, s.cfg.Timing.Write)

	s.writerActive = false
	if held {
		s.stats.AddWrite()
	}
	s.emit(resourceID, events.StateFree, "")
	return held
}
