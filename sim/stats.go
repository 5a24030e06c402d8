package sim

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/syncsim/syncsim/sim/events"
)

// Stats aggregates run counters for final reporting: successful transfers
// per problem and invariant-violation diagnostics by kind. Workers update it
// concurrently; everything is either atomic or mutex-guarded.
type Stats struct {
	produced atomic.Int64
	consumed atomic.Int64
	meals    atomic.Int64
	reads    atomic.Int64
	writes   atomic.Int64

	mu    sync.Mutex
	diags map[events.DiagKind]int64
}

// NewStats creates zeroed Stats.
func NewStats() *Stats {
	return &Stats{diags: make(map[events.DiagKind]int64)}
}

func (s *Stats) AddProduced() { s.produced.Add(1) }
func (s *Stats) AddConsumed() { s.consumed.Add(1) }
func (s *Stats) AddMeal()     { s.meals.Add(1) }
func (s *Stats) AddRead()     { s.reads.Add(1) }
func (s *Stats) AddWrite()    { s.writes.Add(1) }

// Diagnostic counts one invariant-violation of the given kind.
func (s *Stats) Diagnostic(kind events.DiagKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diags[kind]++
}

func (s *Stats) Produced() int64 { return s.produced.Load() }
func (s *Stats) Consumed() int64 { return s.consumed.Load() }
func (s *Stats) Meals() int64    { return s.meals.Load() }
func (s *Stats) Reads() int64    { return s.reads.Load() }
func (s *Stats) Writes() int64   { return s.writes.Load() }

// DiagnosticCount returns how many diagnostics of the given kind occurred.
func (s *Stats) DiagnosticCount(kind events.DiagKind) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diags[kind]
}

// TotalDiagnostics returns the diagnostic count across all kinds.
func (s *Stats) TotalDiagnostics() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, v := range s.diags {
		n += v
	}
	return n
}

// Reset restores all counters to zero.
func (s *Stats) Reset() {
	s.produced.Store(0)
	s.consumed.Store(0)
	s.meals.Store(0)
	s.reads.Store(0)
	s.writes.Store(0)
	s.mu.Lock()
	s.diags = make(map[events.DiagKind]int64)
	s.mu.Unlock()
}

// Summary is a value snapshot of the counters, marshallable to YAML for the
// --summary-format yaml output.
type Summary struct {
	Produced    int64            `yaml:"produced"`
	Consumed    int64            `yaml:"consumed"`
	Meals       int64            `yaml:"meals"`
	Reads       int64            `yaml:"reads"`
	Writes      int64            `yaml:"writes"`
	Diagnostics map[string]int64 `yaml:"diagnostics,omitempty"`
}

// Summary snapshots the current counters.
func (s *Stats) Summary() Summary {
	out := Summary{
		Produced: s.Produced(),
		Consumed: s.Consumed(),
		Meals:    s.Meals(),
		Reads:    s.Reads(),
		Writes:   s.Writes(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.diags) > 0 {
		out.Diagnostics = make(map[string]int64, len(s.diags))
		for k, v := range s.diags {
			out.Diagnostics[string(k)] = v
		}
	}
	return out
}

// Print displays aggregated counters at the end of a run.
func (sum Summary) Print() {
	fmt.Println("=== Simulation Summary ===")
	fmt.Printf("Items produced       : %d\n", sum.Produced)
	fmt.Printf("Items consumed       : %d\n", sum.Consumed)
	fmt.Printf("Meals eaten          : %d\n", sum.Meals)
	fmt.Printf("Reads completed      : %d\n", sum.Reads)
	fmt.Printf("Writes completed     : %d\n", sum.Writes)
	if len(sum.Diagnostics) == 0 {
		fmt.Println("Diagnostics          : none")
		return
	}
	for kind, n := range sum.Diagnostics {
		fmt.Printf("Diagnostic %-21s: %d\n", kind, n)
	}
}
