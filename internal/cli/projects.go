package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/tasktracker/pkg/client"
	"github.com/Skotchmaster/tasktracker/pkg/taskview"
)

func newProjectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "Manage projects",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your projects, most recently updated first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.run(cmd, true, func(ctx context.Context) error {
					projects, err := a.client.ListProjects(ctx)
					if err != nil {
						return err
					}
					printProjects(cmd.OutOrStdout(), projects)
					return nil
				})
			},
		},
		newProjectCreateCmd(a),
		&cobra.Command{
			Use:   "show <project-id>",
			Short: "Show a project and its tasks",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.run(cmd, true, func(ctx context.Context) error {
					p, err := a.client.GetProject(ctx, args[0])
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "%s  %s\n", p.ID, p.Name)
					if p.Description != nil && *p.Description != "" {
						fmt.Fprintln(out, *p.Description)
					}
					fmt.Fprintln(out)
					printTasks(out, taskview.Sort(p.Tasks, taskview.SortByDueDate, taskview.Asc))
					return nil
				})
			},
		},
		newProjectUpdateCmd(a),
		&cobra.Command{
			Use:   "delete <project-id>",
			Short: "Delete a project and all of its tasks",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.run(cmd, true, func(ctx context.Context) error {
					if err := a.client.DeleteProject(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
					return nil
				})
			},
		},
	)
	return cmd
}

func newProjectCreateCmd(a *app) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := client.CreateProjectInput{Name: args[0]}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			return a.run(cmd, true, func(ctx context.Context) error {
				p, err := a.client.CreateProject(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project %s  %s\n", p.ID, p.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	return cmd
}

func newProjectUpdateCmd(a *app) *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Rename a project or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in client.UpdateProjectInput
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			return a.run(cmd, true, func(ctx context.Context) error {
				p, err := a.client.UpdateProject(ctx, args[0], in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s  %s\n", p.ID, p.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.MarkFlagsOneRequired("name", "description")
	return cmd
}

func printProjects(w io.Writer, projects []client.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects yet")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUPDATED")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}
