package sim

import "sort"

// BlockIndex precomputes the block-aligned coverage of every tensor: which
// aligned block starts a tensor spans, and which tensors overlap a given
// block. It is built once before simulation and never mutated, so lookups
// during replay are allocation-free and deterministic.
type BlockIndex struct {
	blockSize    int64
	tensors      TensorTable
	tensorBlocks map[TensorID][]uint64  // tensor id -> ascending aligned block starts
	blockTensors map[uint64][]TensorID  // block start -> ascending tensor ids overlapping it
	totalBytes   int64                  // sum of all tensor sizes
}

// NewBlockIndex computes block coverage for every tensor in the table.
// Tensors are processed in ascending id order so every derived slice is
// deterministic regardless of map iteration order.
func NewBlockIndex(table TensorTable, blockSizeBytes int64) *BlockIndex {
	x := &BlockIndex{
		blockSize:    blockSizeBytes,
		tensors:      table,
		tensorBlocks: make(map[TensorID][]uint64, len(table)),
		blockTensors: make(map[uint64][]TensorID),
	}

	ids := make([]TensorID, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	bs := uint64(blockSizeBytes)
	for _, id := range ids {
		t := table[id]
		x.totalBytes += int64(t.Size)
		if t.Size == 0 {
			// covers no bytes, touches no blocks
			x.tensorBlocks[id] = nil
			continue
		}
		first := (t.Address / bs) * bs
		last := ((t.Address + t.Size - 1) / bs) * bs
		blocks := make([]uint64, 0, (last-first)/bs+1)
		for b := first; b <= last; b += bs {
			blocks = append(blocks, b)
			x.blockTensors[b] = append(x.blockTensors[b], id)
		}
		x.tensorBlocks[id] = blocks
	}
	return x
}

// BlockSize returns the paging granularity the index was built with.
func (x *BlockIndex) BlockSize() int64 {
	return x.blockSize
}

// Tensor looks up a tensor record by id.
func (x *BlockIndex) Tensor(id TensorID) (*Tensor, bool) {
	t, ok := x.tensors[id]
	return t, ok
}

// TensorCount returns the number of tensors in the table.
func (x *BlockIndex) TensorCount() int {
	return len(x.tensors)
}

// BlocksForTensor returns the ascending block starts covering the tensor's
// byte range, and whether the tensor exists at all. A known zero-size tensor
// returns an empty coverage with ok=true.
func (x *BlockIndex) BlocksForTensor(id TensorID) ([]uint64, bool) {
	blocks, ok := x.tensorBlocks[id]
	return blocks, ok
}

// TensorsForBlock returns the ascending ids of all tensors whose byte range
// overlaps the block starting at start. The returned slice is shared with the
// index and must not be mutated.
func (x *BlockIndex) TensorsForBlock(start uint64) []TensorID {
	return x.blockTensors[start]
}

// UniqueBlockCount returns the number of distinct blocks needed to cover
// every tensor in the table.
func (x *BlockIndex) UniqueBlockCount() int {
	return len(x.blockTensors)
}

// SharingSavings returns total tensor bytes minus the bytes of the minimal
// block set covering all tensors. Positive when allocator reuse packs several
// tensors into the same blocks; negative when block padding dominates.
// Independent of any access pattern, so it is computed once per index.
func (x *BlockIndex) SharingSavings() int64 {
	return x.totalBytes - int64(x.UniqueBlockCount())*x.blockSize
}

// SharedBlocks returns the ascending starts of blocks overlapped by more than
// one tensor.
func (x *BlockIndex) SharedBlocks() []uint64 {
	var starts []uint64
	for start, owners := range x.blockTensors {
		if len(owners) > 1 {
			starts = append(starts, start)
		}
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })
	return starts
}

// SharingHistogram returns how many blocks are overlapped by exactly n
// tensors, keyed by n.
func (x *BlockIndex) SharingHistogram() map[int]int {
	hist := make(map[int]int)
	for _, owners := range x.blockTensors {
		hist[len(owners)]++
	}
	return hist
}

// AlignedTensorCount returns how many tensors start exactly on a block
// boundary.
func (x *BlockIndex) AlignedTensorCount() int {
	n := 0
	for _, t := range x.tensors {
		if t.Address%uint64(x.blockSize) == 0 {
			n++
		}
	}
	return n
}
