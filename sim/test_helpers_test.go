package sim

import (
	"fmt"
	"time"

	"github.com/syncsim/syncsim/sim/events"
)

// fastConfig returns the default configuration with test pacing, so a few
// hundred milliseconds of wall time cover many actor cycles.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Timing = FastTiming()
	return cfg
}

// runFor starts the simulation, lets it run for d, then stops it and blocks
// until every worker has terminated.
func runFor(s Simulation, d time.Duration) {
	s.Start()
	time.Sleep(d)
	s.Stop()
}

// stateCount counts records for the given actor in the given state.
func stateCount(records []events.Record, actor string, state events.State) int {
	n := 0
	for _, r := range records {
		if r.Actor == actor && r.State == state {
			n++
		}
	}
	return n
}

// diagnosticCount counts diagnostic records of the given kind.
func diagnosticCount(records []events.Record, kind events.DiagKind) int {
	n := 0
	for _, r := range records {
		if r.Diag == kind {
			n++
		}
	}
	return n
}

// bufferOccupancies extracts every reported buffer occupancy from the feed.
func bufferOccupancies(records []events.Record) []int {
	var out []int
	for _, r := range records {
		if r.Actor != "buffer" {
			continue
		}
		var size, capacity int
		if _, err := fmt.Sscanf(r.Message, "occupancy %d/%d", &size, &capacity); err == nil {
			out = append(out, size)
		}
	}
	return out
}
