package sim

// Block is the unit of cache residency. It always spans exactly one
// blockSize-aligned window; a partially overlapping tensor still loads the
// full block. A block is created on a demand-load miss and destroyed on
// eviction. Several tensors may co-own one block (allocator memory reuse):
// that block's I/O and RAM usage are still counted once.
type Block struct {
	Start          uint64     // block-aligned base address
	TensorIDs      []TensorID // tensors overlapping this block, ascending, static per run
	LastAccessStep int64      // replay step of the most recent hit or load
	Dirty          bool       // written since load; costs a write-back on eviction
	PrevLRU        *Block     // recency doubly linked list: previous (less recent)
	NextLRU        *Block     // recency doubly linked list: next (more recent)
}

// Shared reports whether more than one tensor owns this block.
func (b *Block) Shared() bool {
	return len(b.TensorIDs) > 1
}

// Primary returns the lowest-id tensor served by this block.
func (b *Block) Primary() TensorID {
	return b.TensorIDs[0]
}

// ResidentSet is the bounded resident-block cache: a hash map from block
// start address to entry, plus an intrusive doubly linked list ordered by
// recency. The least-recently-used block sits at the head, the
// most-recently-used at the tail, giving O(1) hit, insert and evict.
// Invariant: Len() <= Capacity() at all observable points, and at most one
// entry exists per start address.
type ResidentSet struct {
	capacity int
	blocks   map[uint64]*Block
	lruHead  *Block // least recently used
	lruTail  *Block // most recently used
}

// NewResidentSet creates an empty cache holding at most capacity blocks.
func NewResidentSet(capacity int) *ResidentSet {
	return &ResidentSet{
		capacity: capacity,
		blocks:   make(map[uint64]*Block, capacity),
	}
}

// Len returns the number of resident blocks.
func (rs *ResidentSet) Len() int {
	return len(rs.blocks)
}

// Capacity returns the maximum number of resident blocks.
func (rs *ResidentSet) Capacity() int {
	return rs.capacity
}

// Full reports whether the next insert requires an eviction first.
func (rs *ResidentSet) Full() bool {
	return len(rs.blocks) >= rs.capacity
}

// Get returns the resident block starting at start, or nil on a miss.
func (rs *ResidentSet) Get(start uint64) *Block {
	return rs.blocks[start]
}

// Insert adds a block as most-recently-used. The caller must have checked
// that no block with the same start is resident and that the cache is not
// full.
func (rs *ResidentSet) Insert(b *Block) {
	rs.blocks[b.Start] = b
	rs.appendToList(b)
}

// Touch moves an already resident block to the most-recently-used position.
func (rs *ResidentSet) Touch(b *Block) {
	if rs.lruTail == b {
		return
	}
	rs.removeFromList(b)
	rs.appendToList(b)
}

// RemoveLRU detaches and returns the least-recently-used block, or nil when
// the cache is empty.
func (rs *ResidentSet) RemoveLRU() *Block {
	victim := rs.lruHead
	if victim == nil {
		return nil
	}
	rs.removeFromList(victim)
	delete(rs.blocks, victim.Start)
	return victim
}

// LRU returns the current eviction candidate without removing it.
func (rs *ResidentSet) LRU() *Block {
	return rs.lruHead
}

// appendToList inserts a block at the tail (most recent end) of the list.
func (rs *ResidentSet) appendToList(b *Block) {
	b.NextLRU = nil
	// in a doubly linked list, either both head and tail are nil, or neither is
	if rs.lruTail != nil {
		// non-empty list; append block at end
		rs.lruTail.NextLRU = b
		b.PrevLRU = rs.lruTail
		rs.lruTail = b
	} else {
		// empty list; create list with a single block
		rs.lruHead = b
		rs.lruTail = b
		b.PrevLRU = nil
	}
}

// removeFromList detaches a block from the recency list.
func (rs *ResidentSet) removeFromList(b *Block) {
	if b.PrevLRU != nil {
		// a - b - block - c => a - b - c
		b.PrevLRU.NextLRU = b.NextLRU
	} else {
		// block - c - d => c - d
		rs.lruHead = b.NextLRU
	}
	if b.NextLRU != nil {
		// a - b - block - c => a - b - c
		b.NextLRU.PrevLRU = b.PrevLRU
	} else {
		// a - b - block => a - b
		rs.lruTail = b.PrevLRU
	}
	b.NextLRU = nil
	b.PrevLRU = nil
}
