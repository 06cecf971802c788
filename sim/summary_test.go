package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeEvents_NilLogIsSafe(t *testing.T) {
	summary := SummarizeEvents(nil)

	assert.Equal(t, 0, summary.Loads)
	assert.Equal(t, 0, summary.Evictions)
	assert.Empty(t, summary.EvictionsByBlock)
	assert.Empty(t, summary.TopEvicted(5))
}

func TestSummarizeEvents_CountsByTypeAndBlock(t *testing.T) {
	events := []Event{
		{Type: EventLoad, BlockAddr: 0},
		{Type: EventEvict, BlockAddr: 0},
		{Type: EventLoad, BlockAddr: 0, SharedWith: []TensorID{3}},
		{Type: EventEvict, BlockAddr: 0},
		{Type: EventLoad, BlockAddr: 4096},
		{Type: EventEvict, BlockAddr: 4096},
		{Type: EventAccess, BlockAddr: 8192, Write: true},
		{Type: EventAccess, BlockAddr: 8192},
	}

	summary := SummarizeEvents(events)

	assert.Equal(t, 3, summary.Loads)
	assert.Equal(t, 3, summary.Evictions)
	assert.Equal(t, 2, summary.Accesses)
	assert.Equal(t, 1, summary.WriteAccesses)
	assert.Equal(t, 1, summary.SharedTouches)
	assert.Equal(t, map[uint64]int{0: 2, 4096: 1}, summary.EvictionsByBlock)
}

func TestEventSummary_TopEvicted_RanksAndTruncates(t *testing.T) {
	summary := &EventSummary{
		EvictionsByBlock: map[uint64]int{
			0:     1,
			4096:  3,
			8192:  3, // ties with 4096, lower address wins
			12288: 2,
		},
	}

	top := summary.TopEvicted(3)

	assert.Equal(t, []BlockEvictions{
		{BlockAddr: 4096, Count: 3},
		{BlockAddr: 8192, Count: 3},
		{BlockAddr: 12288, Count: 2},
	}, top)
}

// TestSummarizeEvents_FromSimulatorRun ties the summary to a real thrashing
// run: each block is evicted once as the plan cycles three blocks through a
// two-block cache, and the address tiebreak puts block 0 first.
func TestSummarizeEvents_FromSimulatorRun(t *testing.T) {
	table := threeDisjointTensors()
	plan := ExecutionPlan{
		readNode(0, 0),
		readNode(1, 1),
		readNode(2, 2),
		readNode(3, 0),
		readNode(4, 1),
	}
	s := newTestSimulator(t, Config{RAMSizeBytes: 8192, BlockSizeBytes: 4096, CaptureEvents: true}, table, plan)
	s.Run()

	summary := SummarizeEvents(s.Events())

	assert.Equal(t, 5, summary.Loads)
	assert.Equal(t, 3, summary.Evictions)
	top := summary.TopEvicted(1)
	assert.Equal(t, []BlockEvictions{{BlockAddr: 0, Count: 1}}, top)
}
