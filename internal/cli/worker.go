package cli

import (
	"github.com/spf13/cobra"
)

// NewWorkerCmd создаёт группу команд для управления воркерами.
func NewWorkerCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage the worker pool",
	}

	cmd.AddCommand(
		newWorkerStartCmd(orchFn, outFn),
		newWorkerStopCmd(orchFn, outFn),
		newWorkerStatusCmd(orchFn, outFn),
	)

	return cmd
}

func newWorkerStartCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start one worker goroutine per agent kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := orchFn().StartWorkers(cmd.Context()); err != nil {
				return err
			}
			outFn().Success("workers started")
			return nil
		},
	}
}

func newWorkerStopCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := orchFn().StopWorkers(); err != nil {
				return err
			}
			outFn().Success("workers stopped")
			return nil
		},
	}
}

func newWorkerStatusCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-kind worker state",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot := orchFn().WorkerStatus()

			headers := []string{"KIND", "STATE"}
			rows := make([][]string, 0, len(snapshot))
			for kind, snap := range snapshot {
				rows = append(rows, []string{string(kind), string(snap.State)})
			}

			outFn().Print(headers, rows, snapshot)
			return nil
		},
	}
}
