// sim/simulator.go
package sim

import (
	"github.com/sirupsen/logrus"
)

// Simulator replays an execution plan against a bounded block-paged memory
// model. It owns the resident cache, the dirty tracking and the running
// statistics; the tensor table and plan are read-only borrowed inputs. One
// instance serves one logical thread of control: Run is fully synchronous
// and, given identical inputs, produces bit-identical Stats and Event Log.
type Simulator struct {
	Config Config
	Index  *BlockIndex
	Plan   ExecutionPlan

	Resident *ResidentSet
	Stats    *Stats

	// per-node series, populated when Config.CaptureSeries is set
	ResidentBytesByStep []int64
	CumulativeIOByStep  []int64

	events []Event
	// resident block starts per tensor, maintained on load and eviction
	tensorResident map[TensorID]map[uint64]struct{}
	step           int64
}

// NewSimulator validates the configuration, builds the block index and
// prepares a simulator. Configuration violations surface here, before any
// replay starts.
func NewSimulator(cfg Config, table TensorTable, plan ExecutionPlan) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		Config: cfg,
		Index:  NewBlockIndex(table, cfg.BlockSizeBytes),
		Plan:   plan,
	}
	s.reset()
	return s, nil
}

// reset clears all mutable replay state so Run always starts from the same
// initial conditions.
func (s *Simulator) reset() {
	s.Resident = NewResidentSet(s.Config.Capacity())
	s.Stats = &Stats{MemorySavedSharing: s.Index.SharingSavings()}
	s.events = nil
	s.tensorResident = make(map[TensorID]map[uint64]struct{})
	s.step = 0
	s.ResidentBytesByStep = nil
	s.CumulativeIOByStep = nil
}

// Run replays the whole plan in order and returns the final statistics.
// Inputs of each node are accessed as reads, then outputs as writes, exactly
// as listed; the plan order encodes the engine's scheduling decision and is
// never reordered. Run can be called again and yields the same result.
func (s *Simulator) Run() *Stats {
	s.reset()
	logrus.Infof("Replaying %d plan nodes: ram=%d bytes, block=%d bytes, capacity=%d blocks",
		len(s.Plan), s.Config.RAMSizeBytes, s.Config.BlockSizeBytes, s.Resident.Capacity())
	if misaligned := s.Index.TensorCount() - s.Index.AlignedTensorCount(); misaligned > 0 {
		logrus.Debugf("%d of %d tensors start off a %d-byte boundary",
			misaligned, s.Index.TensorCount(), s.Config.BlockSizeBytes)
	}

	for step, node := range s.Plan {
		s.step = int64(step)
		logrus.Debugf("step %d: node %d (%s)", step, node.NodeIndex, node.Operator)
		for _, id := range node.Inputs {
			s.accessTensor(id, node.NodeIndex, false)
		}
		for _, id := range node.Outputs {
			s.accessTensor(id, node.NodeIndex, true)
		}
		if s.Config.CaptureSeries {
			s.ResidentBytesByStep = append(s.ResidentBytesByStep, s.residentBytes())
			s.CumulativeIOByStep = append(s.CumulativeIOByStep, s.Stats.TotalIOBytes)
		}
	}

	logrus.Infof("Replay done: %d hits, %d misses, %d evictions, %d I/O bytes",
		s.Stats.BlockHits, s.Stats.BlockMisses, s.Stats.BlockEvictions, s.Stats.TotalIOBytes)
	return s.Stats
}

// Events returns the captured event log in chronological order. It is nil
// when Config.CaptureEvents is unset.
func (s *Simulator) Events() []Event {
	return s.events
}

// HitRatios derives the hit-ratio summary from the current statistics.
func (s *Simulator) HitRatios() HitRatios {
	return s.Stats.HitRatios()
}

// ResidentBlocksOf returns the ascending starts of the tensor's currently
// resident blocks.
func (s *Simulator) ResidentBlocksOf(id TensorID) []uint64 {
	blocks, ok := s.Index.BlocksForTensor(id)
	if !ok {
		return nil
	}
	resident := make([]uint64, 0, len(blocks))
	for _, start := range blocks {
		if _, in := s.tensorResident[id][start]; in {
			resident = append(resident, start)
		}
	}
	return resident
}

// residentBytes returns the bytes currently held by the cache. Shared blocks
// count once; partially covered blocks count in full.
func (s *Simulator) residentBytes() int64 {
	return int64(s.Resident.Len()) * s.Config.BlockSizeBytes
}

// accessTensor replays one tensor access. Every block the tensor spans is
// either touched (hit) or demand-loaded (miss); the tensor counts as a hit
// only when all of its blocks hit. A plan reference to a tensor missing from
// the table is skipped: partial traces are an expected artifact of the
// extraction tooling, never fatal.
func (s *Simulator) accessTensor(id TensorID, nodeIndex int, isWrite bool) {
	blocks, known := s.Index.BlocksForTensor(id)
	if !known {
		logrus.Warnf("plan node %d references unknown tensor %d, skipping access", nodeIndex, id)
		return
	}

	allHit := true
	for _, start := range blocks {
		if blk := s.Resident.Get(start); blk != nil {
			s.hitBlock(blk, id, nodeIndex, isWrite)
		} else {
			allHit = false
			s.loadBlock(start, nodeIndex)
		}
	}

	if allHit {
		s.Stats.TensorHits++
	} else {
		s.Stats.TensorMisses++
	}
	if rb := s.residentBytes(); rb > s.Stats.PeakResidentBytes {
		s.Stats.PeakResidentBytes = rb
	}
}

// hitBlock refreshes an already resident block: most-recently-used position,
// access step, and the dirty flag on writes.
func (s *Simulator) hitBlock(blk *Block, id TensorID, nodeIndex int, isWrite bool) {
	blk.LastAccessStep = s.step
	if isWrite {
		blk.Dirty = true
	}
	s.Resident.Touch(blk)
	s.Stats.BlockHits++
	if blk.Shared() {
		s.Stats.SharedBlockAccesses++
	}
	s.recordEvent(Event{
		Step:       s.step,
		NodeIndex:  nodeIndex,
		Type:       EventAccess,
		TensorID:   id,
		BlockAddr:  blk.Start,
		BlockSize:  s.Config.BlockSizeBytes,
		SharedWith: excludeTensor(blk.TensorIDs, id),
		Write:      isWrite,
	})
}

// loadBlock demand-loads the block starting at start, evicting the
// least-recently-used block first when the cache is full. The load itself
// costs one full block of I/O regardless of how many bytes of it the
// accessing tensor covers; the block enters the cache clean, a later write
// hit marks it dirty.
func (s *Simulator) loadBlock(start uint64, nodeIndex int) {
	if s.Resident.Full() {
		s.evictLRU(nodeIndex)
	}

	owners := s.Index.TensorsForBlock(start)
	blk := &Block{
		Start:          start,
		TensorIDs:      owners,
		LastAccessStep: s.step,
	}
	s.Resident.Insert(blk)
	for _, tid := range owners {
		if s.tensorResident[tid] == nil {
			s.tensorResident[tid] = make(map[uint64]struct{})
		}
		s.tensorResident[tid][start] = struct{}{}
	}

	s.Stats.BlockMisses++
	s.Stats.TotalIOBytes += s.Config.BlockSizeBytes
	if blk.Shared() {
		s.Stats.SharedBlockAccesses++
	}
	s.recordEvent(Event{
		Step:       s.step,
		NodeIndex:  nodeIndex,
		Type:       EventLoad,
		TensorID:   blk.Primary(),
		BlockAddr:  start,
		BlockSize:  s.Config.BlockSizeBytes,
		SharedWith: excludeTensor(owners, blk.Primary()),
	})
}

// evictLRU removes the least-recently-used block. A dirty victim costs a
// second full block of I/O for the write-back; a clean victim is free.
func (s *Simulator) evictLRU(nodeIndex int) {
	victim := s.Resident.RemoveLRU()
	if victim == nil {
		return
	}
	for _, tid := range victim.TensorIDs {
		delete(s.tensorResident[tid], victim.Start)
	}

	if victim.Dirty {
		s.Stats.TotalIOBytes += s.Config.BlockSizeBytes
	}
	s.Stats.BlockEvictions++
	s.recordEvent(Event{
		Step:       s.step,
		NodeIndex:  nodeIndex,
		Type:       EventEvict,
		TensorID:   victim.Primary(),
		BlockAddr:  victim.Start,
		BlockSize:  s.Config.BlockSizeBytes,
		SharedWith: excludeTensor(victim.TensorIDs, victim.Primary()),
	})
}

// recordEvent appends to the event log when capture is enabled.
func (s *Simulator) recordEvent(e Event) {
	if !s.Config.CaptureEvents {
		return
	}
	s.events = append(s.events, e)
}

// excludeTensor returns ids without the given tensor, preserving order.
// The input is never mutated; callers hand the result to an Event.
func excludeTensor(ids []TensorID, id TensorID) []TensorID {
	if len(ids) <= 1 {
		return nil
	}
	out := make([]TensorID, 0, len(ids)-1)
	for _, t := range ids {
		if t != id {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
