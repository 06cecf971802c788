package workload

import (
	"fmt"

	"github.com/inference-sim/memsim/sim"
)

// defaultOperators is the operator vocabulary used when SynthesisConfig does
// not supply one. The names are cosmetic; the simulator treats operators as
// opaque strings.
var defaultOperators = []string{"conv2d", "depthwise_conv2d", "matmul", "add", "relu", "reshape", "softmax"}

// SynthesisConfig controls deterministic generation of a synthetic trace.
// The same config always produces the same trace. Generation draws from two
// isolated streams derived from Seed: SubsystemPlacement for the tensor table
// and SubsystemPlan for the plan, so changing plan-shape knobs never changes
// the generated memory layout.
//
// Loaded from YAML via LoadSynthesisSpec(path) or assembled directly.
type SynthesisConfig struct {
	Seed           int64    `yaml:"seed"`
	TensorCount    int      `yaml:"tensor_count"`
	NodeCount      int      `yaml:"node_count"`
	MinTensorBytes int64    `yaml:"min_tensor_bytes"` // smallest generated tensor size (inclusive)
	MaxTensorBytes int64    `yaml:"max_tensor_bytes"` // largest generated tensor size (inclusive)
	ShareFraction  float64  `yaml:"share_fraction"`   // fraction of tensors placed over a previously allocated range (allocator reuse)
	InputsPerNode  int      `yaml:"inputs_per_node"`
	OutputsPerNode int      `yaml:"outputs_per_node"`
	Operators      []string `yaml:"operators,omitempty"` // operator vocabulary; defaults to defaultOperators

	// SizeDist overrides the uniform [MinTensorBytes, MaxTensorBytes] size
	// draw. Draws are clamped to that range so block coverage stays bounded.
	SizeDist *SizeDistSpec `yaml:"size_distribution,omitempty"`
}

// Validate checks the generation parameters before any randomness is drawn.
func (c SynthesisConfig) Validate() error {
	if c.TensorCount <= 0 {
		return fmt.Errorf("TensorCount must be > 0, got %d", c.TensorCount)
	}
	if c.NodeCount <= 0 {
		return fmt.Errorf("NodeCount must be > 0, got %d", c.NodeCount)
	}
	if c.MinTensorBytes <= 0 {
		return fmt.Errorf("MinTensorBytes must be > 0, got %d", c.MinTensorBytes)
	}
	if c.MaxTensorBytes < c.MinTensorBytes {
		return fmt.Errorf("MaxTensorBytes (%d) must be >= MinTensorBytes (%d)", c.MaxTensorBytes, c.MinTensorBytes)
	}
	if c.ShareFraction < 0 || c.ShareFraction > 1 {
		return fmt.Errorf("ShareFraction must be in [0, 1], got %f", c.ShareFraction)
	}
	if c.InputsPerNode <= 0 {
		return fmt.Errorf("InputsPerNode must be > 0, got %d", c.InputsPerNode)
	}
	if c.OutputsPerNode < 0 {
		return fmt.Errorf("OutputsPerNode must be >= 0, got %d", c.OutputsPerNode)
	}
	if c.SizeDist != nil {
		if _, err := NewSizeSampler(*c.SizeDist); err != nil {
			return fmt.Errorf("size_distribution: %w", err)
		}
	}
	return nil
}

// Synthesize generates a tensor table and execution plan with controllable
// size spread and allocator reuse. Addresses come from a bump allocator;
// a ShareFraction of tensors is instead placed inside an earlier tensor's
// range, which is what produces shared blocks during replay. Sizes default
// to a uniform draw, so most tensors start off block boundaries, exercising
// the partial-coverage blocks at both ends of a span.
func Synthesize(cfg SynthesisConfig) (*Trace, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sampler := SizeSampler(&UniformSampler{min: cfg.MinTensorBytes, max: cfg.MaxTensorBytes})
	if cfg.SizeDist != nil {
		var err error
		if sampler, err = NewSizeSampler(*cfg.SizeDist); err != nil {
			return nil, err
		}
	}
	rng := NewPartitionedRNG(NewTraceKey(cfg.Seed))
	placement := rng.ForSubsystem(SubsystemPlacement)
	planRNG := rng.ForSubsystem(SubsystemPlan)
	ops := cfg.Operators
	if len(ops) == 0 {
		ops = defaultOperators
	}
	dataTypes := []string{"float32", "float16", "int8", "int32"}

	table := make(sim.TensorTable, cfg.TensorCount)
	var cursor uint64
	for i := 0; i < cfg.TensorCount; i++ {
		id := sim.TensorID(i)
		size := uint64(clampSize(sampler.Sample(placement), cfg.MinTensorBytes, cfg.MaxTensorBytes))

		var addr uint64
		if i > 0 && placement.Float64() < cfg.ShareFraction {
			// allocator reuse: overlay a previously placed tensor,
			// either at its base or at an offset inside its range
			prev := table[sim.TensorID(placement.Intn(i))]
			addr = prev.Address
			if prev.Size > 1 && placement.Intn(2) == 0 {
				addr += uint64(placement.Int63n(int64(prev.Size)))
			}
		} else {
			addr = cursor
			cursor += size
		}

		table[id] = &sim.Tensor{
			ID:       id,
			Address:  addr,
			Size:     size,
			DataType: dataTypes[placement.Intn(len(dataTypes))],
		}
	}

	plan := make(sim.ExecutionPlan, 0, cfg.NodeCount)
	for n := 0; n < cfg.NodeCount; n++ {
		node := sim.PlanNode{
			NodeIndex: n,
			Operator:  ops[planRNG.Intn(len(ops))],
		}
		for i := 0; i < cfg.InputsPerNode; i++ {
			node.Inputs = append(node.Inputs, sim.TensorID(planRNG.Intn(cfg.TensorCount)))
		}
		for i := 0; i < cfg.OutputsPerNode; i++ {
			node.Outputs = append(node.Outputs, sim.TensorID(planRNG.Intn(cfg.TensorCount)))
		}
		plan = append(plan, node)
	}

	t := &Trace{Tensors: table, Plan: plan}
	DeriveUsage(t.Tensors, t.Plan)
	return t, nil
}

func clampSize(v, min, max int64) int64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
