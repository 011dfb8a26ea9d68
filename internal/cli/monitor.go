package cli

import (
	"github.com/spf13/cobra"
)

// NewMonitorCmd создаёт группу команд для управления Pipeline Monitor.
func NewMonitorCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Manage the CI pipeline monitor",
	}

	cmd.AddCommand(
		newMonitorStartCmd(orchFn, outFn),
		newMonitorStopCmd(orchFn, outFn),
		newMonitorStatusCmd(orchFn, outFn),
	)

	return cmd
}

func newMonitorStartCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the CI monitor for the active project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := orchFn().StartActiveMonitor(cmd.Context()); err != nil {
				return err
			}
			outFn().Success("monitor started")
			return nil
		},
	}
}

func newMonitorStopCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the CI monitor for the active project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := orchFn().StopActiveMonitor(); err != nil {
				return err
			}
			outFn().Success("monitor stopped")
			return nil
		},
	}
}

func newMonitorStatusCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the CI monitor is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, err := orchFn().MonitorStatus()
			if err != nil {
				return err
			}
			outFn().JSON(map[string]bool{"running": running})
			return nil
		},
	}
}
