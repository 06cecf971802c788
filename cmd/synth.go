package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/memsim/sim/workload"
)

var (
	// CLI flags for the synth command
	synthOut      string  // Output trace JSON path
	synthSpecPath string  // YAML synthesis spec (alternative to the shape flags)
	synthSeed     int64   // Seed for deterministic generation
	synthTensors  int     // Number of tensors to place
	synthNodes    int     // Number of plan nodes to generate
	synthMinBytes int64   // Smallest tensor size in bytes
	synthMaxBytes int64   // Largest tensor size in bytes
	synthShare    float64 // Fraction of tensors overlaid on earlier allocations
	synthInputs   int     // Inputs per plan node
	synthOutputs  int     // Outputs per plan node
)

// synthCmd generates a synthetic trace for experiments
var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Generate a deterministic synthetic trace",
	Run: func(cmd *cobra.Command, args []string) {
		if synthOut == "" {
			logrus.Fatalf("No output path provided. Exiting generation.")
		}

		cfg := workload.SynthesisConfig{
			Seed:           synthSeed,
			TensorCount:    synthTensors,
			NodeCount:      synthNodes,
			MinTensorBytes: synthMinBytes,
			MaxTensorBytes: synthMaxBytes,
			ShareFraction:  synthShare,
			InputsPerNode:  synthInputs,
			OutputsPerNode: synthOutputs,
		}
		if synthSpecPath != "" {
			spec, err := workload.LoadSynthesisSpec(synthSpecPath)
			if err != nil {
				logrus.Fatalf("Loading synthesis spec: %v", err)
			}
			cfg = *spec
		}
		trace, err := workload.Synthesize(cfg)
		if err != nil {
			logrus.Fatalf("Invalid synthesis configuration: %v", err)
		}
		if err := workload.SaveTrace(synthOut, trace); err != nil {
			logrus.Fatalf("Writing trace: %v", err)
		}
		logrus.Infof("Synthetic trace written to %s: %d tensors, %d plan nodes (seed %d)",
			synthOut, len(trace.Tensors), len(trace.Plan), cfg.Seed)
	},
}

func init() {
	synthCmd.Flags().StringVar(&synthOut, "out", "", "Output trace JSON path")
	synthCmd.Flags().StringVar(&synthSpecPath, "spec", "", "YAML synthesis spec; overrides the shape flags")
	synthCmd.Flags().Int64Var(&synthSeed, "seed", 42, "Seed for deterministic generation")
	synthCmd.Flags().IntVar(&synthTensors, "tensors", 200, "Number of tensors to place")
	synthCmd.Flags().IntVar(&synthNodes, "nodes", 500, "Number of plan nodes to generate")
	synthCmd.Flags().Int64Var(&synthMinBytes, "min-bytes", 256, "Smallest tensor size in bytes")
	synthCmd.Flags().Int64Var(&synthMaxBytes, "max-bytes", 65536, "Largest tensor size in bytes")
	synthCmd.Flags().Float64Var(&synthShare, "share", 0.15, "Fraction of tensors overlaid on earlier allocations")
	synthCmd.Flags().IntVar(&synthInputs, "inputs", 2, "Inputs per plan node")
	synthCmd.Flags().IntVar(&synthOutputs, "outputs", 1, "Outputs per plan node")

	rootCmd.AddCommand(synthCmd)
}
