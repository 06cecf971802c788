package sim

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reportScenario builds and runs a small aliased workload: tensors 0 and 1
// share block 0, tensor 2 sits alone, and the plan forces one eviction.
func reportScenario(t *testing.T, cfg Config) *Simulator {
	t.Helper()
	table := tableOf(
		&Tensor{Address: 0, Size: 2048},
		&Tensor{Address: 1024, Size: 2048},
		&Tensor{Address: 4096, Size: 4096},
		&Tensor{Address: 8192, Size: 4096},
	)
	plan := ExecutionPlan{
		readNode(0, 0),
		readNode(1, 1),
		writeNode(2, 2),
		readNode(3, 3), // capacity 2: evicts the shared block
	}
	s := newTestSimulator(t, cfg, table, plan)
	s.Run()
	return s
}

func TestBuildReport_SnapshotsStatsAndIndex(t *testing.T) {
	s := reportScenario(t, Config{RAMSizeBytes: 8192, BlockSizeBytes: 4096, CaptureEvents: true})

	r := BuildReport(s)

	assert.Equal(t, *s.Stats, r.Stats)
	assert.Equal(t, s.Stats.HitRatios(), r.Ratios)
	assert.Equal(t, 4, r.TensorCount)
	assert.Equal(t, 3, r.AlignedTensors, "tensor 1 starts off-boundary")
	assert.Equal(t, 3, r.UniqueBlocks)
	assert.Equal(t, 2, r.Capacity)
	assert.Equal(t, map[int]int{2: 1, 1: 2}, r.SharingHistogram)

	// the one shared block lists both members with their offsets
	require.Len(t, r.SharingGroups, 1)
	g := r.SharingGroups[0]
	assert.Equal(t, uint64(0), g.BlockAddr)
	require.Len(t, g.Members, 2)
	assert.Equal(t, SharingMember{TensorID: 0, Offset: 0, Size: 2048}, g.Members[0])
	assert.Equal(t, SharingMember{TensorID: 1, Offset: 1024, Size: 2048}, g.Members[1])

	// eviction hotspots come from the captured log
	require.Len(t, r.EvictionHotspots, 1)
	assert.Equal(t, BlockEvictions{BlockAddr: 0, Count: 1}, r.EvictionHotspots[0])
}

func TestBuildReport_SeriesQuantiles(t *testing.T) {
	s := reportScenario(t, Config{RAMSizeBytes: 8192, BlockSizeBytes: 4096, CaptureSeries: true})

	r := BuildReport(s)

	// resident bytes by step: 4096, 4096, 8192, 8192
	assert.Equal(t, 4096.0, r.ResidentBytesP50)
	assert.Equal(t, 8192.0, r.ResidentBytesP90)
	assert.Equal(t, 8192.0, r.ResidentBytesP99)
	// three loads over four nodes
	assert.InDelta(t, 3.0*4096/4, r.MeanIOPerNode, 1e-9)
}

func TestBuildReport_WithoutCaptures_LeavesOptionalSectionsEmpty(t *testing.T) {
	s := reportScenario(t, Config{RAMSizeBytes: 8192, BlockSizeBytes: 4096})

	r := BuildReport(s)

	assert.Empty(t, r.EvictionHotspots)
	assert.Equal(t, 0.0, r.ResidentBytesP50)
	assert.Equal(t, 0.0, r.MeanIOPerNode)
}

func TestReportFprint_RendersEverySection(t *testing.T) {
	s := reportScenario(t, Config{RAMSizeBytes: 8192, BlockSizeBytes: 4096, CaptureEvents: true, CaptureSeries: true})
	r := BuildReport(s)

	var buf bytes.Buffer
	r.Fprint(&buf)
	out := buf.String()

	assert.Contains(t, out, "=== Memory Simulation Report ===")
	assert.Contains(t, out, "RAM Size")
	assert.Contains(t, out, "Block Size           : 4096 bytes")
	assert.Contains(t, out, "Cache Capacity       : 2 blocks")
	assert.Contains(t, out, "Block-aligned tensors: 3/4")
	assert.Contains(t, out, "Memory saved through sharing")
	assert.Contains(t, out, "Blocks with 2 tensors: 1")
	assert.Contains(t, out, "Block 0x0:")
	assert.Contains(t, out, "tensor 1: offset 1024, size 2048 bytes")
	assert.Contains(t, out, "--- Eviction Hotspots ---")
	assert.Contains(t, out, "Block 0x0 evicted 1 times")
	assert.Contains(t, out, "Block hit ratio")
	assert.Contains(t, out, "Block Evictions      : 1")
}

func TestFprintEvents_GroupsByStep(t *testing.T) {
	events := []Event{
		{Step: 0, NodeIndex: 0, Type: EventLoad, TensorID: 0, BlockAddr: 0, BlockSize: 4096},
		{Step: 0, NodeIndex: 0, Type: EventAccess, TensorID: 0, BlockAddr: 0, BlockSize: 4096, Write: true},
		{Step: 2, NodeIndex: 5, Type: EventEvict, TensorID: 0, BlockAddr: 0, BlockSize: 4096},
	}

	var buf bytes.Buffer
	FprintEvents(&buf, events)
	out := buf.String()

	assert.Contains(t, out, "=== Memory Event Log ===")
	assert.Contains(t, out, "step 0:\n")
	assert.Contains(t, out, "step 2:\n")
	assert.Contains(t, out, "node 0: load tensor 0")
	assert.Contains(t, out, "node 5: evict tensor 0")
}
