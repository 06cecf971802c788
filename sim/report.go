package sim

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/stat"
)

// maxPrintedSharingGroups bounds the shared-block listing in the printed
// report; the Report struct itself keeps every group.
const maxPrintedSharingGroups = 8

// maxEvictionHotspots bounds the most-evicted-blocks ranking.
const maxEvictionHotspots = 5

// SharingMember is one tensor's placement inside a shared block.
type SharingMember struct {
	TensorID TensorID
	Offset   int64  // tensor start relative to the block start; negative when the tensor begins in an earlier block
	Size     uint64 // tensor size in bytes
}

// SharingGroup lists the tensors co-owning one block.
type SharingGroup struct {
	BlockAddr uint64
	Members   []SharingMember
}

// Report is the human-readable summary of a finished run: the raw counters,
// derived ratios, structural sharing analysis from the block index, and
// quantiles over the per-node series when those were captured.
type Report struct {
	Config Config
	Stats  Stats
	Ratios HitRatios

	TensorCount    int
	AlignedTensors int
	UniqueBlocks   int
	Capacity       int

	SharingHistogram map[int]int // owner count -> number of blocks
	SharingGroups    []SharingGroup

	// most-evicted blocks from the event log; empty when capture was off
	EvictionHotspots []BlockEvictions

	// series summaries; zero when CaptureSeries was off
	ResidentBytesP50 float64
	ResidentBytesP90 float64
	ResidentBytesP99 float64
	MeanIOPerNode    float64
}

// BuildReport assembles a Report from a simulator after Run has returned.
// It reads the Stats and series as an immutable snapshot.
func BuildReport(s *Simulator) *Report {
	r := &Report{
		Config:           s.Config,
		Stats:            *s.Stats,
		Ratios:           s.Stats.HitRatios(),
		TensorCount:      s.Index.TensorCount(),
		AlignedTensors:   s.Index.AlignedTensorCount(),
		UniqueBlocks:     s.Index.UniqueBlockCount(),
		Capacity:         s.Resident.Capacity(),
		SharingHistogram: s.Index.SharingHistogram(),
	}

	for _, start := range s.Index.SharedBlocks() {
		group := SharingGroup{BlockAddr: start}
		for _, id := range s.Index.TensorsForBlock(start) {
			t, _ := s.Index.Tensor(id)
			group.Members = append(group.Members, SharingMember{
				TensorID: id,
				Offset:   int64(t.Address) - int64(start),
				Size:     t.Size,
			})
		}
		r.SharingGroups = append(r.SharingGroups, group)
	}

	if events := s.Events(); len(events) > 0 {
		r.EvictionHotspots = SummarizeEvents(events).TopEvicted(maxEvictionHotspots)
	}

	if len(s.ResidentBytesByStep) > 0 {
		resident := toSortedFloats(s.ResidentBytesByStep)
		r.ResidentBytesP50 = stat.Quantile(0.50, stat.Empirical, resident, nil)
		r.ResidentBytesP90 = stat.Quantile(0.90, stat.Empirical, resident, nil)
		r.ResidentBytesP99 = stat.Quantile(0.99, stat.Empirical, resident, nil)
		r.MeanIOPerNode = stat.Mean(ioDeltas(s.CumulativeIOByStep), nil)
	}
	return r
}

// Print writes the report to stdout at the end of a run.
func (r *Report) Print() {
	r.Fprint(os.Stdout)
}

// Fprint renders the full report.
func (r *Report) Fprint(w io.Writer) {
	fmt.Fprintln(w, "=== Memory Simulation Report ===")
	fmt.Fprintf(w, "RAM Size             : %s (%d bytes)\n", humanize.IBytes(uint64(r.Config.RAMSizeBytes)), r.Config.RAMSizeBytes)
	fmt.Fprintf(w, "Block Size           : %d bytes\n", r.Config.BlockSizeBytes)
	fmt.Fprintf(w, "Cache Capacity       : %s blocks\n", humanize.Comma(int64(r.Capacity)))

	fmt.Fprintln(w, "\n--- Block Alignment ---")
	fmt.Fprintf(w, "Block-aligned tensors: %d/%d\n", r.AlignedTensors, r.TensorCount)
	fmt.Fprintf(w, "Unique blocks covered: %s\n", humanize.Comma(int64(r.UniqueBlocks)))

	fmt.Fprintln(w, "\n--- Sharing ---")
	fmt.Fprintf(w, "Memory saved through sharing: %s bytes\n", humanize.Comma(r.Stats.MemorySavedSharing))
	fmt.Fprintf(w, "Shared block access ratio   : %.4f\n", r.Ratios.Shared)
	for _, owners := range sortedKeys(r.SharingHistogram) {
		fmt.Fprintf(w, "Blocks with %d tensors: %d\n", owners, r.SharingHistogram[owners])
	}
	for i, g := range r.SharingGroups {
		if i == maxPrintedSharingGroups {
			fmt.Fprintf(w, "... and %d more shared blocks\n", len(r.SharingGroups)-maxPrintedSharingGroups)
			break
		}
		fmt.Fprintf(w, "Block 0x%x:\n", g.BlockAddr)
		for _, m := range g.Members {
			fmt.Fprintf(w, "  tensor %d: offset %d, size %d bytes\n", m.TensorID, m.Offset, m.Size)
		}
	}

	fmt.Fprintln(w, "\n--- Performance ---")
	fmt.Fprintf(w, "Block hit ratio      : %.4f\n", r.Ratios.Block)
	fmt.Fprintf(w, "Tensor hit ratio     : %.4f\n", r.Ratios.Tensor)
	fmt.Fprintf(w, "Peak resident memory : %s (%d bytes)\n", humanize.IBytes(uint64(r.Stats.PeakResidentBytes)), r.Stats.PeakResidentBytes)
	fmt.Fprintf(w, "Total I/O            : %s (%d bytes)\n", humanize.IBytes(uint64(r.Stats.TotalIOBytes)), r.Stats.TotalIOBytes)
	if r.ResidentBytesP50 > 0 || r.MeanIOPerNode > 0 {
		fmt.Fprintf(w, "Resident bytes p50/p90/p99 : %.0f / %.0f / %.0f\n", r.ResidentBytesP50, r.ResidentBytesP90, r.ResidentBytesP99)
		fmt.Fprintf(w, "Mean I/O per node    : %.1f bytes\n", r.MeanIOPerNode)
	}

	if len(r.EvictionHotspots) > 0 {
		fmt.Fprintln(w, "\n--- Eviction Hotspots ---")
		for _, h := range r.EvictionHotspots {
			fmt.Fprintf(w, "Block 0x%x evicted %d times\n", h.BlockAddr, h.Count)
		}
	}

	fmt.Fprintln(w, "\n--- Counters ---")
	fmt.Fprintf(w, "Block Hits           : %s\n", humanize.Comma(r.Stats.BlockHits))
	fmt.Fprintf(w, "Block Misses         : %s\n", humanize.Comma(r.Stats.BlockMisses))
	fmt.Fprintf(w, "Block Evictions      : %s\n", humanize.Comma(r.Stats.BlockEvictions))
	fmt.Fprintf(w, "Tensor Hits          : %s\n", humanize.Comma(r.Stats.TensorHits))
	fmt.Fprintf(w, "Tensor Misses        : %s\n", humanize.Comma(r.Stats.TensorMisses))
	fmt.Fprintf(w, "Shared Block Accesses: %s\n", humanize.Comma(r.Stats.SharedBlockAccesses))
}

// FprintEvents renders the chronological event log grouped by replay step.
func FprintEvents(w io.Writer, events []Event) {
	fmt.Fprintln(w, "=== Memory Event Log ===")
	currentStep := int64(-1)
	for _, e := range events {
		if e.Step != currentStep {
			currentStep = e.Step
			fmt.Fprintf(w, "step %d:\n", currentStep)
		}
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// toSortedFloats converts a series for quantile computation.
func toSortedFloats(xs []int64) []float64 {
	fs := make([]float64, len(xs))
	for i, x := range xs {
		fs[i] = float64(x)
	}
	sort.Float64s(fs)
	return fs
}

// ioDeltas turns a cumulative I/O series into per-node increments.
func ioDeltas(cum []int64) []float64 {
	ds := make([]float64, len(cum))
	prev := int64(0)
	for i, c := range cum {
		ds[i] = float64(c - prev)
		prev = c
	}
	return ds
}

// sortedKeys returns the histogram keys in ascending order.
func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
