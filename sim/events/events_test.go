package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector is a test sink accumulating published records.
type collector struct {
	records []Record
}

func (c *collector) Publish(r Record) {
	c.records = append(c.records, r)
}

func TestFeed_Emit_AssignsOrderedSequenceNumbers(t *testing.T) {
	// GIVEN an empty feed
	f := NewFeed()

	// WHEN three records are emitted
	f.Emit("producer-0", StateProducing, "producing item 0")
	f.Emit("buffer", StateHeld, "occupancy 1/5")
	f.Emit("producer-0", StateRunning, "")

	// THEN the history is ordered with sequence numbers 1..3
	snap := f.Snapshot()
	require.Len(t, snap, 3)
	for i, r := range snap {
		assert.Equal(t, uint64(i+1), r.Seq)
	}
	assert.Equal(t, "producer-0", snap[0].Actor)
	assert.Equal(t, StateHeld, snap[1].State)
}

func TestFeed_EmitDiagnostic_MarksRecord(t *testing.T) {
	// GIVEN a feed
	f := NewFeed()

	// WHEN a diagnostic is emitted
	r := f.EmitDiagnostic("consumer-1", StateConsuming, DiagBufferUnderflow, "buffer underflow")

	// THEN the record carries the diagnostic kind
	assert.True(t, r.IsDiagnostic())
	assert.Equal(t, DiagBufferUnderflow, r.Diag)

	// AND ordinary records do not
	plain := f.Emit("consumer-1", StateIdle, "")
	assert.False(t, plain.IsDiagnostic())
}

func TestFeed_Snapshot_IsACopy(t *testing.T) {
	// GIVEN a feed with one record
	f := NewFeed()
	f.Emit("reader-0", StateReading, "reading")

	// WHEN the snapshot is mutated
	snap := f.Snapshot()
	snap[0].Actor = "tampered"

	// THEN the feed history is unchanged
	assert.Equal(t, "reader-0", f.Snapshot()[0].Actor)
}

func TestFeed_FanOut_PublishesToAllSinksInOrder(t *testing.T) {
	// GIVEN a feed with two sinks
	a := &collector{}
	b := &collector{}
	f := NewFeed(a)
	f.Attach(b)

	// WHEN records are emitted
	f.Emit("writer-0", StateWriting, "writing")
	f.Emit("writer-0", StateIdle, "finished writing")

	// THEN both sinks observed both records in emission order
	require.Len(t, a.records, 2)
	require.Len(t, b.records, 2)
	assert.Equal(t, uint64(1), a.records[0].Seq)
	assert.Equal(t, uint64(2), b.records[1].Seq)
}

func TestFeed_Reset_ClearsHistoryAndRestartsNumbering(t *testing.T) {
	// GIVEN a feed with history
	f := NewFeed()
	f.Emit("philosopher-0", StateThinking, "thinking")
	require.Equal(t, 1, f.Len())

	// WHEN the feed is reset
	f.Reset()

	// THEN the history is gone and numbering restarts at 1
	assert.Equal(t, 0, f.Len())
	r := f.Emit("philosopher-0", StateThinking, "thinking")
	assert.Equal(t, uint64(1), r.Seq)
}
