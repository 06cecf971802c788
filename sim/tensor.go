package sim

// TensorID identifies a tensor in the simulated address space.
// IDs come from the engine's tensor table and are unique within one trace.
type TensorID int

// Tensor describes one tensor's memory placement. Tensors are created once
// from the tensor table at simulator construction and never mutated; the
// allocator may place several tensors over the same bytes (memory reuse),
// which is how shared blocks arise.
type Tensor struct {
	ID          TensorID // unique tensor id from the engine's table
	Address     uint64   // byte offset in the simulated address space
	Size        uint64   // extent in bytes (0 is legal and covers no blocks)
	DataType    string   // opaque engine type name, e.g. "float32"
	UsageCount  int      // number of plan accesses that reference this tensor
	UsedByNodes []int    // node indices that reference this tensor, in plan order
}

// TensorTable maps tensor ids to their placement records. It is a read-only
// borrowed input: the simulator never mutates it during a run.
type TensorTable map[TensorID]*Tensor

// PlanNode is one scheduled operator execution. Inputs are accessed as reads
// and outputs as writes, in the order listed.
type PlanNode struct {
	NodeIndex int        // the engine's node id (distinct from replay position)
	Operator  string     // opaque operator name, e.g. "conv2d"
	Inputs    []TensorID // tensors read by this node
	Outputs   []TensorID // tensors written by this node
}

// ExecutionPlan is the authoritative ordered access sequence to replay.
// The order encodes the real engine's scheduling decision and is never
// reordered by the simulator.
type ExecutionPlan []PlanNode
