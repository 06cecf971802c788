package sim

// Stats aggregates the counters of one simulation run for final reporting.
// All counters accumulate monotonically across the run; MemorySavedSharing
// is the one structural value, computed from the block index before replay
// and independent of the access pattern.
type Stats struct {
	BlockHits           int64 // block accesses satisfied by a resident block
	BlockMisses         int64 // block accesses that demand-loaded
	BlockEvictions      int64 // LRU evictions performed to make room
	TensorHits          int64 // tensor accesses with every spanning block resident
	TensorMisses        int64 // tensor accesses where any spanning block loaded
	TotalIOBytes        int64 // bytes loaded plus dirty write-back bytes
	PeakResidentBytes   int64 // max resident bytes observed after any access
	SharedBlockAccesses int64 // hits or loads on blocks owned by more than one tensor
	MemorySavedSharing  int64 // tensor bytes minus unique block bytes; negative when padding dominates
}

// HitRatios summarizes a Stats record as fractions of total block or tensor
// accesses. All ratios are zero when the corresponding denominator is zero.
type HitRatios struct {
	Block  float64 // BlockHits / (BlockHits + BlockMisses)
	Tensor float64 // TensorHits / (TensorHits + TensorMisses)
	Shared float64 // SharedBlockAccesses / max(1, BlockHits + BlockMisses)
}

// HitRatios derives the hit-ratio summary, guarding every division by zero.
func (s *Stats) HitRatios() HitRatios {
	var r HitRatios
	if blockAccesses := s.BlockHits + s.BlockMisses; blockAccesses > 0 {
		r.Block = float64(s.BlockHits) / float64(blockAccesses)
		r.Shared = float64(s.SharedBlockAccesses) / float64(blockAccesses)
	}
	if tensorAccesses := s.TensorHits + s.TensorMisses; tensorAccesses > 0 {
		r.Tensor = float64(s.TensorHits) / float64(tensorAccesses)
	}
	return r
}
