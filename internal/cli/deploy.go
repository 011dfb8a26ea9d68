package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/shaiso/devpipeline/internal/deploy"
)

// NewDeployCmd создаёт группу команд для деплоя активного проекта.
func NewDeployCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Run the deployment finisher for the active project",
		RunE: func(cmd *cobra.Command, args []string) error {
			result := orchFn().Deploy(cmd.Context())
			return printDeployResult(outFn(), result)
		},
	}

	cmd.AddCommand(newRedeployCmd(orchFn, outFn))
	return cmd
}

func newRedeployCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	return &cobra.Command{
		Use:   "redeploy",
		Short: "Re-run the deployment finisher for the active project",
		RunE: func(cmd *cobra.Command, args []string) error {
			result := orchFn().Redeploy(cmd.Context())
			return printDeployResult(outFn(), result)
		},
	}
}

func printDeployResult(out *Output, result deploy.Result) error {
	out.JSON(result)
	if !result.Success {
		return errors.New(result.Note)
	}
	return nil
}
