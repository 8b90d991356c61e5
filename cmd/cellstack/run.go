package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	redisAdapter "github.com/cellstack/cellstack/pkg/adapters/redis"
	"github.com/cellstack/cellstack/pkg/runner"
	"github.com/cellstack/cellstack/pkg/tensor"
)

var runCmd = &cobra.Command{
	Use:   "run <model.yaml> <sequence.json>",
	Short: "Run an input sequence through a model",
	Long: `Loads a stack descriptor and scans a timestep sequence through it.
The sequence file holds one (batch x features) matrix per timestep, as a
JSON array of matrices. The final output tensor is printed as JSON.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		training, _ := cmd.Flags().GetBool("training")
		runID, _ := cmd.Flags().GetString("run-id")
		redisAddr, _ := cmd.Flags().GetString("redis")
		every, _ := cmd.Flags().GetInt("checkpoint-every")
		logger := newLogger(cmd)

		stack, err := loadStack(args[0])
		if err != nil {
			return err
		}

		steps, err := loadSequence(args[1], stack.DType())
		if err != nil {
			return err
		}

		r := runner.NewRunner(stack)
		r.Training = training
		r.CheckpointEvery = every
		r.Logger = logger
		if redisAddr != "" {
			store := redisAdapter.New(redisAddr, "", 0)
			defer store.Close()
			r.Store = store
		}

		result, err := r.Run(cmd.Context(), runID, steps)
		if err != nil {
			return err
		}

		logger.Info("run finished", "run_id", result.RunID, "steps", result.Steps)
		out, err := json.Marshal(result.Output)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("training", false, "Step in training mode")
	runCmd.Flags().String("run-id", "", "Run ID for checkpointing (generated when empty)")
	runCmd.Flags().String("redis", "", "Redis address for durable checkpoints (e.g. localhost:6379)")
	runCmd.Flags().Int("checkpoint-every", 0, "Checkpoint after every N steps (0: only at the end)")
}

// loadSequence reads one input matrix per timestep from a JSON file.
func loadSequence(path string, dtype tensor.DType) ([]*tensor.Tensor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sequence: %w", err)
	}

	var raw [][][]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode sequence: %w", err)
	}

	steps := make([]*tensor.Tensor, 0, len(raw))
	for i, rows := range raw {
		t, err := tensor.FromRows(rows, dtype)
		if err != nil {
			return nil, fmt.Errorf("sequence step %d: %w", i, err)
		}
		steps = append(steps, t)
	}
	return steps, nil
}
