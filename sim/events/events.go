// Package events provides the append-only state-change feed produced by the
// simulation engine and consumed by renderers.
// This package has no dependencies on sim/: it stores pure data types plus
// the fan-out feed.
package events

import "sync"

// State is the logical state of an actor or resource as reported to renderers.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateChecking  State = "checking"
	StateWaiting   State = "waiting"
	StateProducing State = "producing"
	StateConsuming State = "consuming"
	StateThinking  State = "thinking"
	StateHungry    State = "hungry"
	StateEating    State = "eating"
	StateReading   State = "reading"
	StateWriting   State = "writing"
	// Resource occupancy states. Forks report held/free; the shared
	// readers-writers resource reports reading/writing/free.
	StateHeld State = "held"
	StateFree State = "free"
)

// DiagKind identifies an invariant-violation diagnostic. Diagnostics are only
// ever produced under the unsafe discipline; they are observational and never
// abort the run.
type DiagKind string

const (
	DiagBufferOverflow    DiagKind = "buffer-overflow"
	DiagBufferUnderflow   DiagKind = "buffer-underflow"
	DiagPotentialDeadlock DiagKind = "potential-deadlock"
	DiagReaderDuringWrite DiagKind = "reader-during-write"
	DiagWriterDuringRead  DiagKind = "writer-during-read"
	DiagMultiWriter       DiagKind = "multi-writer"
)

// Record is a single entry of the feed. Records are immutable after emission
// and ordered by Seq.
type Record struct {
	Seq     uint64
	Actor   string   // e.g. "producer-0", "philosopher-3", "fork-2", "buffer"
	State   State    // new logical state of the actor/resource
	Message string   // optional free-text detail
	Diag    DiagKind // empty for ordinary state transitions
}

// IsDiagnostic reports whether the record carries an invariant-violation
// diagnostic.
func (r Record) IsDiagnostic() bool {
	return r.Diag != ""
}

// Sink receives records as they are appended. Sinks must not block for long;
// they are invoked on the emitting worker's goroutine. Sinks have no channel
// back into the engine.
type Sink interface {
	Publish(Record)
}

// Feed is the ordered, append-only event history for a run, with fan-out to
// any number of attached sinks. Safe for concurrent use.
type Feed struct {
	mu      sync.Mutex
	seq     uint64
	records []Record
	sinks   []Sink
}

// NewFeed creates a Feed publishing to the given sinks.
func NewFeed(sinks ...Sink) *Feed {
	return &Feed{sinks: sinks}
}

// Attach adds a sink. Attaching during a run is allowed; the sink only sees
// records emitted after attachment.
func (f *Feed) Attach(s Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, s)
}

// Emit appends an ordinary state-transition record and returns it.
func (f *Feed) Emit(actor string, state State, message string) Record {
	return f.append(Record{Actor: actor, State: state, Message: message})
}

// EmitDiagnostic appends an invariant-violation record and returns it.
func (f *Feed) EmitDiagnostic(actor string, state State, diag DiagKind, message string) Record {
	return f.append(Record{Actor: actor, State: state, Message: message, Diag: diag})
}

func (f *Feed) append(r Record) Record {
	f.mu.Lock()
	f.seq++
	r.Seq = f.seq
	f.records = append(f.records, r)
	sinks := f.sinks
	f.mu.Unlock()
	for _, s := range sinks {
		s.Publish(r)
	}
	return r
}

// Len returns the number of records emitted so far.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// Snapshot returns a copy of the history in emission order.
func (f *Feed) Snapshot() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Record, len(f.records))
	copy(out, f.records)
	return out
}

// Reset discards the history and restarts sequence numbering. Attached sinks
// are kept.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq = 0
	f.records = nil
}
