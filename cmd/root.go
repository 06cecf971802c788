package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/inference-sim/memsim/sim"
	"github.com/inference-sim/memsim/sim/record"
	"github.com/inference-sim/memsim/sim/workload"
)

var (
	// CLI flags shared by all subcommands
	logLevel string // Log verbosity level

	// CLI flags for the run command
	tracePath    string // Input trace JSON (tensor table + execution plan)
	ramSize      string // Simulated RAM budget, accepts humanized sizes like "64MiB"
	blockSize    int64  // Paging granularity in bytes
	eventsCSV    string // CSV event log output path (empty disables capture)
	eventsHeader string // YAML sidecar path for the event log (defaults next to the CSV)
	sqlitePath   string // SQLite output path ("auto" picks an xid-stamped name)
	printEvents  bool   // Dump the chronological event log to stdout
	noReport     bool   // Skip the printed report
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "memsim",
	Short: "Block-granularity memory simulator for on-device inference traces",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd replays one trace against one memory budget
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a tensor-access trace against a bounded RAM budget",
	Run: func(cmd *cobra.Command, args []string) {
		if tracePath == "" {
			logrus.Fatalf("No trace file provided. Exiting simulation.")
		}
		ramBytes, err := humanize.ParseBytes(ramSize)
		if err != nil {
			logrus.Fatalf("Invalid --ram value %q: %v", ramSize, err)
		}

		trace, err := workload.LoadTrace(tracePath)
		if err != nil {
			logrus.Fatalf("Loading trace: %v", err)
		}
		logrus.Infof("Loaded trace: %d tensors, %d plan nodes", len(trace.Tensors), len(trace.Plan))

		cfg := sim.Config{
			RAMSizeBytes:   int64(ramBytes),
			BlockSizeBytes: blockSize,
			CaptureEvents:  eventsCSV != "" || sqlitePath != "" || printEvents,
			CaptureSeries:  !noReport,
		}
		s, err := sim.NewSimulator(cfg, trace.Tensors, trace.Plan)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		startTime := time.Now()
		stats := s.Run()
		logrus.Infof("Replay took %v", time.Since(startTime))

		if !noReport {
			sim.BuildReport(s).Print()
		}
		if printEvents {
			sim.FprintEvents(os.Stdout, s.Events())
		}
		if eventsCSV != "" {
			headerPath := eventsHeader
			if headerPath == "" {
				headerPath = strings.TrimSuffix(eventsCSV, filepath.Ext(eventsCSV)) + ".yaml"
			}
			header := record.NewEventLogHeader(cfg, len(s.Events()), tracePath)
			if err := record.ExportEventLog(header, s.Events(), headerPath, eventsCSV); err != nil {
				logrus.Fatalf("Exporting event log: %v", err)
			}
			logrus.Infof("Event log written to %s (header %s)", eventsCSV, headerPath)
		}
		if sqlitePath != "" {
			path := sqlitePath
			if path == "auto" {
				path = ""
			}
			rec, err := record.NewSQLiteRecorder(path)
			if err != nil {
				logrus.Fatalf("Opening sqlite recorder: %v", err)
			}
			rec.WriteEvents(s.Events())
			if err := rec.WriteRun(cfg, stats); err != nil {
				logrus.Fatalf("Recording run: %v", err)
			}
			if err := rec.Close(); err != nil {
				logrus.Fatalf("Closing sqlite recorder: %v", err)
			}
			logrus.Infof("Run recorded to sqlite (run_id=%s)", rec.RunID)
		}

		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	// route Fatalf through atexit so registered sink flushes still run
	logrus.StandardLogger().ExitFunc = atexit.Exit
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVar(&tracePath, "trace", "", "Path to the trace JSON (tensor table + execution plan)")
	runCmd.Flags().StringVar(&ramSize, "ram", "64MiB", "Simulated RAM budget (plain bytes or humanized, e.g. 8MiB)")
	runCmd.Flags().Int64Var(&blockSize, "block", sim.DefaultBlockSize, "Paging granularity in bytes")
	runCmd.Flags().StringVar(&eventsCSV, "events", "", "Write the event log as CSV to this path")
	runCmd.Flags().StringVar(&eventsHeader, "events-header", "", "YAML sidecar path for the event log (defaults next to --events)")
	runCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Record events and stats to this SQLite database (\"auto\" picks a name)")
	runCmd.Flags().BoolVar(&printEvents, "print-events", false, "Print the chronological event log after the run")
	runCmd.Flags().BoolVar(&noReport, "no-report", false, "Skip the printed report")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
