package sim

import (
	"fmt"
	"strings"
)

// EventType identifies what happened to a block during replay.
type EventType string

const (
	// EventLoad records a demand load after a block miss.
	EventLoad EventType = "load"
	// EventEvict records an LRU eviction making room for a load.
	EventEvict EventType = "evict"
	// EventAccess records a hit on an already resident block.
	EventAccess EventType = "access"
)

// Event is one chronological record of block activity. Events are appended
// during replay when Config.CaptureEvents is set and are immutable once
// appended.
//
// TensorID is the accessing tensor for access events and the primary
// (lowest-id) owner for load and evict events. SharedWith lists the other
// tensors served by the block, ascending, excluding TensorID. Write is
// meaningful only for access events; loads and evictions always record false.
type Event struct {
	Step       int64      // replay position of the plan node (0-based)
	NodeIndex  int        // the engine's node id
	Type       EventType  // load, evict or access
	TensorID   TensorID   // accessor (access) or primary owner (load, evict)
	BlockAddr  uint64     // block-aligned base address
	BlockSize  int64      // bytes moved or retained, always the full block
	SharedWith []TensorID // co-owning tensors beyond TensorID, ascending
	Write      bool       // access was a write
}

// String renders the event the way the event-log printer shows it.
func (e Event) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "node %d: %s tensor %d", e.NodeIndex, e.Type, e.TensorID)
	if len(e.SharedWith) > 0 {
		fmt.Fprintf(&sb, " (shared with %v)", e.SharedWith)
	}
	if e.Type == EventAccess {
		if e.Write {
			sb.WriteString(" (write)")
		} else {
			sb.WriteString(" (read)")
		}
	}
	fmt.Fprintf(&sb, " [block 0x%x, %d bytes]", e.BlockAddr, e.BlockSize)
	return sb.String()
}
