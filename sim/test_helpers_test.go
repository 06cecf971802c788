package sim

import "testing"

// Shared builders for simulator tests. Tests construct tiny tensor tables and
// plans inline; these helpers keep the id bookkeeping out of the way.

// tableOf builds a tensor table with ids taken from the slice position.
func tableOf(tensors ...*Tensor) TensorTable {
	table := make(TensorTable, len(tensors))
	for i, t := range tensors {
		t.ID = TensorID(i)
		table[t.ID] = t
	}
	return table
}

// readNode builds a plan node reading the given tensors.
func readNode(nodeIndex int, ids ...TensorID) PlanNode {
	return PlanNode{NodeIndex: nodeIndex, Operator: "read", Inputs: ids}
}

// writeNode builds a plan node writing the given tensors.
func writeNode(nodeIndex int, ids ...TensorID) PlanNode {
	return PlanNode{NodeIndex: nodeIndex, Operator: "write", Outputs: ids}
}

// newTestSimulator builds a simulator and fails the test on configuration
// errors, which these tests never intend to trigger.
func newTestSimulator(t *testing.T, cfg Config, table TensorTable, plan ExecutionPlan) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, table, plan)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return s
}

// threeDisjointTensors places one block-sized tensor in each of the first
// three blocks, the shape most LRU tests want.
func threeDisjointTensors() TensorTable {
	return tableOf(
		&Tensor{Address: 0, Size: 4096},
		&Tensor{Address: 4096, Size: 4096},
		&Tensor{Address: 8192, Size: 4096},
	)
}
