package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/memsim/sim"
	"github.com/inference-sim/memsim/sim/workload"
)

var (
	// CLI flags for the sweep command
	sweepTracePath string   // Input trace JSON
	sweepRAMList   []string // RAM budgets to replay, humanized sizes
	sweepSpecPath  string   // YAML sweep spec (alternative to --ram-list)
	sweepBlockSize int64    // Paging granularity in bytes
	sweepOut       string   // CSV results path (empty prints the table only)
)

// SweepSpec describes a budget sweep loaded from a YAML file.
type SweepSpec struct {
	BlockSizeBytes int64    `yaml:"block_size_bytes,omitempty"`
	RAMSizes       []string `yaml:"ram_sizes"`
}

// sweepColumns are the CSV headers for sweep results, one row per budget.
var sweepColumns = []string{
	"ram_size_bytes", "capacity_blocks",
	"block_hits", "block_misses", "block_evictions",
	"tensor_hits", "tensor_misses",
	"total_io_bytes", "peak_resident_bytes", "shared_block_accesses",
	"block_hit_ratio", "tensor_hit_ratio",
}

// sweepCmd replays one trace across several RAM budgets
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Replay one trace across several RAM budgets and tabulate the results",
	Run: func(cmd *cobra.Command, args []string) {
		if sweepTracePath == "" {
			logrus.Fatalf("No trace file provided. Exiting sweep.")
		}

		budgets := sweepRAMList
		if sweepSpecPath != "" {
			spec, err := loadSweepSpec(sweepSpecPath)
			if err != nil {
				logrus.Fatalf("Loading sweep spec: %v", err)
			}
			budgets = spec.RAMSizes
			if spec.BlockSizeBytes > 0 {
				sweepBlockSize = spec.BlockSizeBytes
			}
		}
		if len(budgets) == 0 {
			logrus.Fatalf("No RAM budgets given: use --ram-list or --spec.")
		}

		trace, err := workload.LoadTrace(sweepTracePath)
		if err != nil {
			logrus.Fatalf("Loading trace: %v", err)
		}
		logrus.Infof("Sweeping %d budgets over %d plan nodes", len(budgets), len(trace.Plan))

		var rows [][]string
		fmt.Printf("%-12s %-10s %-14s %-12s %-12s %-12s\n",
			"RAM", "Capacity", "BlockHitRatio", "TotalIO", "Evictions", "Peak")
		for _, budget := range budgets {
			ramBytes, err := humanize.ParseBytes(budget)
			if err != nil {
				logrus.Fatalf("Invalid RAM budget %q: %v", budget, err)
			}
			cfg := sim.Config{
				RAMSizeBytes:   int64(ramBytes),
				BlockSizeBytes: sweepBlockSize,
			}
			if err := cfg.Validate(); err != nil {
				logrus.Warnf("Skipping budget %q: %v", budget, err)
				continue
			}

			s, err := sim.NewSimulator(cfg, trace.Tensors, trace.Plan)
			if err != nil {
				logrus.Fatalf("Building simulator for budget %q: %v", budget, err)
			}
			stats := s.Run()
			ratios := stats.HitRatios()

			fmt.Printf("%-12s %-10d %-14.4f %-12s %-12d %-12s\n",
				humanize.IBytes(ramBytes),
				cfg.Capacity(),
				ratios.Block,
				humanize.IBytes(uint64(stats.TotalIOBytes)),
				stats.BlockEvictions,
				humanize.IBytes(uint64(stats.PeakResidentBytes)))

			rows = append(rows, []string{
				strconv.FormatInt(cfg.RAMSizeBytes, 10),
				strconv.Itoa(cfg.Capacity()),
				strconv.FormatInt(stats.BlockHits, 10),
				strconv.FormatInt(stats.BlockMisses, 10),
				strconv.FormatInt(stats.BlockEvictions, 10),
				strconv.FormatInt(stats.TensorHits, 10),
				strconv.FormatInt(stats.TensorMisses, 10),
				strconv.FormatInt(stats.TotalIOBytes, 10),
				strconv.FormatInt(stats.PeakResidentBytes, 10),
				strconv.FormatInt(stats.SharedBlockAccesses, 10),
				strconv.FormatFloat(ratios.Block, 'f', 6, 64),
				strconv.FormatFloat(ratios.Tensor, 'f', 6, 64),
			})
		}

		if sweepOut != "" {
			if err := writeSweepCSV(sweepOut, rows); err != nil {
				logrus.Fatalf("Writing sweep results: %v", err)
			}
			logrus.Infof("Sweep results written to %s", sweepOut)
		}
	},
}

// loadSweepSpec parses a YAML sweep description.
func loadSweepSpec(path string) (*SweepSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sweep spec: %w", err)
	}
	var spec SweepSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing sweep spec: %w", err)
	}
	return &spec, nil
}

// writeSweepCSV writes the per-budget result rows.
func writeSweepCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating sweep results file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(sweepColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	return nil
}

func init() {
	sweepCmd.Flags().StringVar(&sweepTracePath, "trace", "", "Path to the trace JSON (tensor table + execution plan)")
	sweepCmd.Flags().StringSliceVar(&sweepRAMList, "ram-list", nil, "Comma-separated RAM budgets to replay (e.g. 1MiB,4MiB,16MiB)")
	sweepCmd.Flags().StringVar(&sweepSpecPath, "spec", "", "YAML sweep spec with ram_sizes and optional block_size_bytes")
	sweepCmd.Flags().Int64Var(&sweepBlockSize, "block", sim.DefaultBlockSize, "Paging granularity in bytes")
	sweepCmd.Flags().StringVar(&sweepOut, "out", "", "Write per-budget results as CSV to this path")

	rootCmd.AddCommand(sweepCmd)
}
