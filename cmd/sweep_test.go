package cmd

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSweepSpec_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	content := "block_size_bytes: 8192\nram_sizes:\n  - 4KiB\n  - 16KiB\n  - 1MiB\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	spec, err := loadSweepSpec(path)
	require.NoError(t, err)

	assert.Equal(t, int64(8192), spec.BlockSizeBytes)
	assert.Equal(t, []string{"4KiB", "16KiB", "1MiB"}, spec.RAMSizes)
}

func TestLoadSweepSpec_BlockSizeOptional(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ram_sizes: [8KiB]\n"), 0644))

	spec, err := loadSweepSpec(path)
	require.NoError(t, err)

	assert.Zero(t, spec.BlockSizeBytes)
	assert.Equal(t, []string{"8KiB"}, spec.RAMSizes)
}

func TestLoadSweepSpec_Errors(t *testing.T) {
	_, err := loadSweepSpec(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err, "missing file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ram_sizes: {not a list"), 0644))
	_, err = loadSweepSpec(path)
	assert.Error(t, err, "malformed YAML")
}

func TestWriteSweepCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	rows := [][]string{
		{"4096", "1", "0", "4", "3", "0", "4", "16384", "4096", "0", "0.000000", "0.000000"},
	}

	require.NoError(t, writeSweepCSV(path, rows))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, sweepColumns, records[0])
	assert.Equal(t, rows[0], records[1])
}

func TestSweepCommand_EndToEnd(t *testing.T) {
	// GIVEN the thrashing trace swept over one- and two-block budgets
	tracePath := writeThrashTrace(t)
	outPath := filepath.Join(t.TempDir(), "sweep.csv")

	rootCmd.SetArgs([]string{
		"sweep", "--log", "error",
		"--trace", tracePath,
		"--ram-list", "4KiB,8KiB",
		"--block", "4096",
		"--out", outPath,
	})

	// WHEN the sweep executes
	output := captureStdout(t, func() {
		require.NoError(t, rootCmd.Execute())
	})

	// THEN the table appears on stdout and the CSV carries one row per budget
	assert.Contains(t, output, "RAM")
	assert.Contains(t, output, "4.0 KiB")
	assert.Contains(t, output, "8.0 KiB")

	file, err := os.Open(outPath)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3, "header plus two budget rows")
	assert.Equal(t, sweepColumns, records[0])

	// one-block budget: every access misses, three evictions
	assert.Equal(t, "4096", records[1][0])
	assert.Equal(t, "1", records[1][1])
	assert.Equal(t, "3", records[1][4])
	assert.Equal(t, "16384", records[1][7])

	// two-block budget: still all misses, but only two evictions
	assert.Equal(t, "8192", records[2][0])
	assert.Equal(t, "2", records[2][1])
	assert.Equal(t, "2", records[2][4])
	assert.Equal(t, "16384", records[2][7])
}
