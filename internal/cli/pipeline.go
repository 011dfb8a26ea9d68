package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

const defaultTestTimeout = 10 * time.Minute

// NewPipelineCmd создаёт группу команд для управления конвейером.
func NewPipelineCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run and inspect the development pipeline",
	}

	cmd.AddCommand(
		newPipelineAssignCmd(orchFn, outFn),
		newPipelineRunCmd(orchFn, outFn),
		newPipelineTestCmd(orchFn, outFn),
	)

	return cmd
}

func newPipelineAssignCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	return &cobra.Command{
		Use:   "assign",
		Short: "Classify and enqueue open issues for the active project",
		RunE: func(cmd *cobra.Command, args []string) error {
			enqueued, err := orchFn().AssignIssues(cmd.Context())
			if err != nil {
				return err
			}
			outFn().Success("enqueued tasks: " + strconv.Itoa(enqueued))
			return nil
		},
	}
}

func newPipelineRunCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Assign issues and start workers for the active project",
		RunE: func(cmd *cobra.Command, args []string) error {
			enqueued, err := orchFn().RunPipeline(cmd.Context())
			if err != nil {
				return err
			}
			outFn().Success("pipeline started, enqueued tasks: " + strconv.Itoa(enqueued))
			return nil
		},
	}
}

func newPipelineTestCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the active project's test suite once",
		RunE: func(cmd *cobra.Command, args []string) error {
			passed, output, err := orchFn().RunTests(cmd.Context(), timeout)
			if err != nil {
				return err
			}
			out := outFn()
			out.Print(nil, nil, map[string]any{"passed": passed, "output": output})
			if !passed {
				out.Error("tests failed")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", defaultTestTimeout, "test run timeout")
	return cmd
}

