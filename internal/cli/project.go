package cli

import (
	"github.com/spf13/cobra"
)

// NewProjectCmd создаёт группу команд для управления проектами.
func NewProjectCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		newProjectCreateCmd(orchFn, outFn),
		newProjectListCmd(orchFn, outFn),
		newProjectSwitchCmd(orchFn, outFn),
		newProjectActiveCmd(orchFn, outFn),
	)

	return cmd
}

func newProjectCreateCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	var requirements string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := orchFn().CreateProject(cmd.Context(), args[0], requirements)
			if err != nil {
				return err
			}
			outFn().JSON(project)
			return nil
		},
	}
	cmd.Flags().StringVar(&requirements, "requirements", "", "product requirements text")
	return cmd
}

func newProjectListCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects := orchFn().ListProjects()

			headers := []string{"NAME", "STATUS", "REPOSITORY", "UPDATED"}
			rows := make([][]string, len(projects))
			for i, p := range projects {
				rows[i] = []string{p.Name, string(p.Status), p.Repository, p.UpdatedAt.Format("2006-01-02 15:04:05")}
			}

			outFn().Print(headers, rows, projects)
			return nil
		},
	}
}

func newProjectSwitchCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <name>",
		Short: "Switch the active project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := orchFn().SwitchProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			outFn().Success("switched active project to " + args[0])
			return nil
		},
	}
}

func newProjectActiveCmd(orchFn OrchestratorFn, outFn OutputFn) *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Show the active project",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := orchFn().ActiveProject()
			if err != nil {
				return err
			}
			outFn().JSON(project)
			return nil
		},
	}
}
