package sim

import "fmt"

// DefaultBlockSize is the conventional paging granularity in bytes.
const DefaultBlockSize = 4096

// Config groups the memory model parameters for one simulation run.
type Config struct {
	RAMSizeBytes   int64 // total simulated memory budget in bytes (must be > 0)
	BlockSizeBytes int64 // paging granularity in bytes (must be > 0, conventionally a power of two)
	CaptureEvents  bool  // retain the full chronological event log (disable for very long traces)
	CaptureSeries  bool  // record per-node resident-bytes and cumulative-I/O series
}

// Validate checks the configuration before a simulator is constructed.
// Violations surface here, never mid-run.
func (c Config) Validate() error {
	if c.RAMSizeBytes <= 0 {
		return fmt.Errorf("RAMSizeBytes must be > 0, got %d", c.RAMSizeBytes)
	}
	if c.BlockSizeBytes <= 0 {
		return fmt.Errorf("BlockSizeBytes must be > 0, got %d", c.BlockSizeBytes)
	}
	if c.RAMSizeBytes < c.BlockSizeBytes {
		return fmt.Errorf("RAMSizeBytes (%d) must fit at least one block of %d bytes", c.RAMSizeBytes, c.BlockSizeBytes)
	}
	return nil
}

// Capacity returns the resident cache capacity in whole blocks.
func (c Config) Capacity() int {
	return int(c.RAMSizeBytes / c.BlockSizeBytes)
}
