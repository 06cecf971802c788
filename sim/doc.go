// Package sim provides the core block-granularity memory simulator for memsim.
//
// # Reading Guide
//
// Start with these three files to understand the replay kernel:
//   - tensor.go: the two read-only inputs (TensorTable placement records, ExecutionPlan access order)
//   - resident.go: the bounded resident-block cache and its intrusive LRU list
//   - simulator.go: the replay loop and the per-access hit/miss/evict state machine
//
// # Architecture
//
// The sim package is pure in-memory state with no file or network boundary;
// framing lives in sub-packages:
//   - sim/workload/: canonical JSON trace loading and synthetic trace generation
//   - sim/record/: event-log and stats sinks (CSV with YAML sidecar, SQLite)
//
// A run is fully synchronous and deterministic: identical configuration and
// inputs produce bit-identical Stats and Event Log. All cross-references
// between tensors and blocks are integer ids and aligned addresses, never
// owning pointers, so the index (blockindex.go) stays immutable while the
// resident cache churns.
//
// # Accounting Rules
//
// The numeric accounting is the contract of this package:
//   - a miss loads the full block (blockSize I/O) no matter how few bytes the tensor covers
//   - evicting a dirty block costs a second full block of write-back I/O; clean evictions are free
//   - blocks shared by several tensors count once in I/O, residency and peak memory
//   - a tensor access is a hit only when every block it spans was already resident
package sim
