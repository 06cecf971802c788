package sim

import (
	"testing"
)

func TestResidentSet_InsertAndGet_RoundTrips(t *testing.T) {
	rs := NewResidentSet(2)
	blk := &Block{Start: 4096, TensorIDs: []TensorID{1}}

	rs.Insert(blk)

	if got := rs.Get(4096); got != blk {
		t.Fatalf("expected inserted block back, got %v", got)
	}
	if rs.Get(0) != nil {
		t.Error("expected nil for a non-resident address")
	}
	if rs.Len() != 1 {
		t.Errorf("expected Len 1, got %d", rs.Len())
	}
}

func TestResidentSet_RemoveLRU_PopsOldestFirst(t *testing.T) {
	// GIVEN three blocks inserted in order
	rs := NewResidentSet(3)
	b0 := &Block{Start: 0}
	b1 := &Block{Start: 4096}
	b2 := &Block{Start: 8192}
	rs.Insert(b0)
	rs.Insert(b1)
	rs.Insert(b2)

	// THEN eviction order follows insertion order
	if victim := rs.RemoveLRU(); victim != b0 {
		t.Fatalf("expected b0 evicted first, got %+v", victim)
	}
	if victim := rs.RemoveLRU(); victim != b1 {
		t.Fatalf("expected b1 evicted second, got %+v", victim)
	}
	if victim := rs.RemoveLRU(); victim != b2 {
		t.Fatalf("expected b2 evicted last, got %+v", victim)
	}
	if rs.RemoveLRU() != nil {
		t.Error("expected nil from an empty cache")
	}
	if rs.Len() != 0 {
		t.Errorf("expected empty cache, got Len %d", rs.Len())
	}
}

func TestResidentSet_Touch_MovesBlockToMostRecent(t *testing.T) {
	// GIVEN two resident blocks with b0 least recent
	rs := NewResidentSet(2)
	b0 := &Block{Start: 0}
	b1 := &Block{Start: 4096}
	rs.Insert(b0)
	rs.Insert(b1)

	// WHEN b0 is touched
	rs.Touch(b0)

	// THEN b1 becomes the eviction candidate
	if rs.LRU() != b1 {
		t.Fatalf("expected b1 as LRU after touching b0, got %+v", rs.LRU())
	}
	if victim := rs.RemoveLRU(); victim != b1 {
		t.Fatalf("expected b1 evicted, got %+v", victim)
	}
	// touched block is removed from the map too once evicted
	if victim := rs.RemoveLRU(); victim != b0 {
		t.Fatalf("expected b0 evicted second, got %+v", victim)
	}
}

func TestResidentSet_Touch_TailIsNoOp(t *testing.T) {
	rs := NewResidentSet(2)
	b0 := &Block{Start: 0}
	b1 := &Block{Start: 4096}
	rs.Insert(b0)
	rs.Insert(b1)

	rs.Touch(b1)

	if rs.LRU() != b0 {
		t.Fatalf("touching the most-recent block must not reorder, LRU is %+v", rs.LRU())
	}
}

func TestResidentSet_Full_TracksCapacity(t *testing.T) {
	rs := NewResidentSet(1)
	if rs.Full() {
		t.Fatal("empty cache reported full")
	}
	rs.Insert(&Block{Start: 0})
	if !rs.Full() {
		t.Fatal("cache at capacity reported not full")
	}
	if rs.Capacity() != 1 {
		t.Errorf("expected capacity 1, got %d", rs.Capacity())
	}
}

func TestResidentSet_ListPointers_ClearedOnRemoval(t *testing.T) {
	// GIVEN a removed middle block
	rs := NewResidentSet(3)
	b0 := &Block{Start: 0}
	b1 := &Block{Start: 4096}
	b2 := &Block{Start: 8192}
	rs.Insert(b0)
	rs.Insert(b1)
	rs.Insert(b2)
	rs.Touch(b1) // b1 detaches from the middle and reattaches at the tail

	rs.RemoveLRU() // b0
	rs.RemoveLRU() // b2
	victim := rs.RemoveLRU() // b1

	if victim != b1 {
		t.Fatalf("expected b1 last after touch, got %+v", victim)
	}
	if victim.PrevLRU != nil || victim.NextLRU != nil {
		t.Error("expected list pointers cleared on removal")
	}
}
