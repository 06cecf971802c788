// Package testutil provides shared test infrastructure for the memory
// simulator: the golden scenario dataset and its loader. The types here
// deliberately avoid importing sim so that in-package sim tests can use them
// without an import cycle; tests convert the plain records to sim types.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenCase `json:"tests"`
}

// GoldenCase is one replay scenario with its hand-computed expected counters.
type GoldenCase struct {
	Name           string                  `json:"name"`
	RAMSizeBytes   int64                   `json:"ram_size_bytes"`
	BlockSizeBytes int64                   `json:"block_size_bytes"`
	Tensors        map[string]GoldenTensor `json:"tensors"`
	Plan           []GoldenNode            `json:"plan"`
	Stats          GoldenStats             `json:"stats"`
}

// GoldenTensor mirrors one tensor table entry.
type GoldenTensor struct {
	Address  uint64 `json:"address"`
	Size     uint64 `json:"size"`
	DataType string `json:"data_type,omitempty"`
}

// GoldenNode mirrors one execution plan entry.
type GoldenNode struct {
	NodeIndex int    `json:"node_index"`
	Operator  string `json:"operator,omitempty"`
	Inputs    []int  `json:"inputs,omitempty"`
	Outputs   []int  `json:"outputs,omitempty"`
}

// GoldenStats holds the expected final counters. Every field is an exact
// integer match: the simulator is deterministic, so no tolerances apply.
type GoldenStats struct {
	BlockHits           int64 `json:"block_hits"`
	BlockMisses         int64 `json:"block_misses"`
	BlockEvictions      int64 `json:"block_evictions"`
	TensorHits          int64 `json:"tensor_hits"`
	TensorMisses        int64 `json:"tensor_misses"`
	TotalIOBytes        int64 `json:"total_io_bytes"`
	PeakResidentBytes   int64 `json:"peak_resident_bytes"`
	SharedBlockAccesses int64 `json:"shared_block_accesses"`
	MemorySavedSharing  int64 `json:"memory_saved_sharing"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ →
// repo root testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}
