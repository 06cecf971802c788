package workload

import (
	"hash/fnv"
	"math/rand"
)

// === TraceKey ===

// TraceKey uniquely identifies a reproducible synthetic trace.
// Two syntheses with the same TraceKey and identical configuration
// MUST produce bit-for-bit identical traces.
type TraceKey int64

// NewTraceKey creates a TraceKey from a seed value.
func NewTraceKey(seed int64) TraceKey {
	return TraceKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemPlacement is the RNG subsystem for tensor placement: sizes,
	// addresses, and data types. Uses the master seed directly so a trace's
	// memory layout is a function of the seed alone.
	SubsystemPlacement = "placement"

	// SubsystemPlan is the RNG subsystem for plan generation: operators and
	// operand selection. Isolated from placement so plan-shape knobs
	// (NodeCount, InputsPerNode) never perturb the tensor table.
	SubsystemPlan = "plan"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemPlacement: uses the master seed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type PartitionedRNG struct {
	key        TraceKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a TraceKey.
func NewPartitionedRNG(key TraceKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemPlacement {
		// Placement uses the master seed directly: two traces synthesized
		// with the same seed share a memory layout even when their plan
		// parameters differ.
		derivedSeed = int64(p.key)
	} else {
		// All other subsystems: XOR with hash for isolation.
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the TraceKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() TraceKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
