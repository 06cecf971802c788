// Package workload produces the two read-only inputs the simulator replays:
// tensor tables and execution plans, either loaded from the canonical JSON
// trace format emitted by the extraction tooling or synthesized
// deterministically for experiments.
package workload

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/inference-sim/memsim/sim"
)

// Trace bundles a tensor table with the execution plan that references it.
type Trace struct {
	Tensors sim.TensorTable
	Plan    sim.ExecutionPlan
}

// traceFile is the canonical on-disk JSON shape. Required fields are
// pointers so that a missing field is distinguishable from a zero value and
// can be rejected here, before the structures reach the simulator core.
type traceFile struct {
	Tensors map[sim.TensorID]tensorRecord `json:"tensors"`
	Plan    []planRecord                  `json:"plan"`
}

type tensorRecord struct {
	Address     *uint64 `json:"address"`
	Size        *uint64 `json:"size"`
	DataType    string  `json:"data_type,omitempty"`
	UsageCount  int     `json:"usage_count,omitempty"`
	UsedByNodes []int   `json:"used_by_nodes,omitempty"`
}

type planRecord struct {
	NodeIndex *int           `json:"node_index"`
	Operator  string         `json:"operator,omitempty"`
	Inputs    []sim.TensorID `json:"inputs,omitempty"`
	Outputs   []sim.TensorID `json:"outputs,omitempty"`
}

// LoadTrace reads and validates a canonical JSON trace. Structural problems
// (missing address, size or node_index) are rejected here; a plan referencing
// a tensor id absent from the table is left alone, the simulator skips such
// accesses with a diagnostic.
//
// When every tensor in the file carries a zero usage count, usage counts and
// used-by-node lists are derived from the plan, matching what the extraction
// tooling computes for engine dumps that omit them.
func LoadTrace(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace file: %w", err)
	}
	var tf traceFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing trace file %s: %w", path, err)
	}

	t := &Trace{Tensors: make(sim.TensorTable, len(tf.Tensors))}
	for id, r := range tf.Tensors {
		if r.Address == nil {
			return nil, fmt.Errorf("tensor %d: missing required field \"address\"", id)
		}
		if r.Size == nil {
			return nil, fmt.Errorf("tensor %d: missing required field \"size\"", id)
		}
		t.Tensors[id] = &sim.Tensor{
			ID:          id,
			Address:     *r.Address,
			Size:        *r.Size,
			DataType:    r.DataType,
			UsageCount:  r.UsageCount,
			UsedByNodes: r.UsedByNodes,
		}
	}

	t.Plan = make(sim.ExecutionPlan, 0, len(tf.Plan))
	for i, r := range tf.Plan {
		if r.NodeIndex == nil {
			return nil, fmt.Errorf("plan entry %d: missing required field \"node_index\"", i)
		}
		t.Plan = append(t.Plan, sim.PlanNode{
			NodeIndex: *r.NodeIndex,
			Operator:  r.Operator,
			Inputs:    r.Inputs,
			Outputs:   r.Outputs,
		})
	}

	if !hasUsageCounts(t.Tensors) {
		DeriveUsage(t.Tensors, t.Plan)
	}
	return t, nil
}

// SaveTrace writes a trace in the canonical JSON format, indented so that
// hand inspection and diffing stay practical.
func SaveTrace(path string, t *Trace) error {
	tf := traceFile{
		Tensors: make(map[sim.TensorID]tensorRecord, len(t.Tensors)),
		Plan:    make([]planRecord, 0, len(t.Plan)),
	}
	for id, tensor := range t.Tensors {
		addr, size := tensor.Address, tensor.Size
		tf.Tensors[id] = tensorRecord{
			Address:     &addr,
			Size:        &size,
			DataType:    tensor.DataType,
			UsageCount:  tensor.UsageCount,
			UsedByNodes: tensor.UsedByNodes,
		}
	}
	for _, node := range t.Plan {
		idx := node.NodeIndex
		tf.Plan = append(tf.Plan, planRecord{
			NodeIndex: &idx,
			Operator:  node.Operator,
			Inputs:    node.Inputs,
			Outputs:   node.Outputs,
		})
	}

	data, err := json.MarshalIndent(&tf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling trace: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing trace file: %w", err)
	}
	return nil
}

// DeriveUsage fills UsageCount and UsedByNodes on every tensor from the plan.
// Node lists follow plan order; a node referencing a tensor through both an
// input and an output appears once per access.
func DeriveUsage(table sim.TensorTable, plan sim.ExecutionPlan) {
	for _, t := range table {
		t.UsageCount = 0
		t.UsedByNodes = nil
	}
	for _, node := range plan {
		for _, id := range node.Inputs {
			if t, ok := table[id]; ok {
				t.UsageCount++
				t.UsedByNodes = append(t.UsedByNodes, node.NodeIndex)
			}
		}
		for _, id := range node.Outputs {
			if t, ok := table[id]; ok {
				t.UsageCount++
				t.UsedByNodes = append(t.UsedByNodes, node.NodeIndex)
			}
		}
	}
}

// hasUsageCounts reports whether any tensor already carries usage metadata.
func hasUsageCounts(table sim.TensorTable) bool {
	for _, t := range table {
		if t.UsageCount != 0 {
			return true
		}
	}
	return false
}

// TensorIDs returns the table's ids in ascending order, for deterministic
// iteration by callers that render or export per-tensor data.
func (t *Trace) TensorIDs() []sim.TensorID {
	ids := make([]sim.TensorID, 0, len(t.Tensors))
	for id := range t.Tensors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
