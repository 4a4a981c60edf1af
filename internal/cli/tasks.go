package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/tasktracker/pkg/client"
	"github.com/Skotchmaster/tasktracker/pkg/taskview"
)

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "Manage the tasks of a project",
	}

	cmd.AddCommand(
		newTaskListCmd(a),
		newTaskAddCmd(a),
		newTaskEditCmd(a),
		newTaskMoveCmd(a),
		&cobra.Command{
			Use:   "rm <task-id>",
			Short: "Delete a task",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.run(cmd, true, func(ctx context.Context) error {
					if err := a.client.DeleteTask(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[0])
					return nil
				})
			},
		},
	)
	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	var status, serverSort, order string
	var desc, board bool

	cmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List tasks, optionally filtered by status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := client.TaskQuery{Sort: serverSort}
			if status != "" {
				st, err := parseStatus(status)
				if err != nil {
					return err
				}
				q.Status = st
			}
			field, err := parseSortField(order)
			if err != nil {
				return err
			}

			return a.run(cmd, true, func(ctx context.Context) error {
				tasks, err := a.client.ListTasks(ctx, args[0], q)
				if err != nil {
					return err
				}

				if field != "" {
					dir := taskview.Asc
					if desc {
						dir = taskview.Desc
					}
					tasks = taskview.Sort(tasks, field, dir)
				}

				if board {
					printBoard(cmd.OutOrStdout(), taskview.GroupByStatus(tasks))
				} else {
					printTasks(cmd.OutOrStdout(), tasks)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Only tasks with this status (pending, in-progress, completed)")
	cmd.Flags().StringVar(&serverSort, "sort", client.SortDueDateAsc, "Server side order (dueDateAsc, dueDateDesc)")
	cmd.Flags().StringVarP(&order, "order", "o", "", "Client side order (title, status, dueDate)")
	cmd.Flags().BoolVar(&desc, "desc", false, "Reverse the client side order")
	cmd.Flags().BoolVarP(&board, "board", "b", false, "Group tasks into status columns")
	return cmd
}

func newTaskAddCmd(a *app) *cobra.Command {
	var description, due, status, priority string

	cmd := &cobra.Command{
		Use:   "add <project-id> <title>",
		Short: "Add a task to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := client.CreateTaskInput{Title: args[1], Priority: client.Priority(strings.ToUpper(priority))}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if due != "" {
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				in.DueDate = &d
			}
			if status != "" {
				st, err := parseStatus(status)
				if err != nil {
					return err
				}
				in.Status = st
			}

			return a.run(cmd, true, func(ctx context.Context) error {
				t, err := a.client.CreateTask(ctx, args[0], in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added task %s  %s [%s]\n", t.ID, t.Title, t.Status)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVar(&due, "due", "", "Due date, YYYY-MM-DD")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Initial status (default pending)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Priority (low, medium, high)")
	return cmd
}

func newTaskEditCmd(a *app) *cobra.Command {
	var title, description, due, priority string
	var clearDue bool

	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Change a task's title, description, due date or priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in client.UpdateTaskInput
			if cmd.Flags().Changed("title") {
				in.Title = &title
			}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("priority") {
				p := client.Priority(strings.ToUpper(priority))
				in.Priority = &p
			}
			switch {
			case clearDue:
				in.ClearDueDate = true
			case due != "":
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				in.DueDate = &d
			}

			return a.run(cmd, true, func(ctx context.Context) error {
				t, err := a.client.UpdateTask(ctx, args[0], in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s  %s\n", t.ID, t.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&due, "due", "", "New due date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority (low, medium, high)")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}

func newTaskMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <project-id> <task-id> <status>",
		Short: "Move a task to another status column",
		Long: `Move a task to another status column.

The board is updated optimistically before the server answers. If the update
fails the previous board is restored, and in every case the board is fetched
again before it is printed.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, taskID := args[0], args[1]
			to, err := parseStatus(args[2])
			if err != nil {
				return err
			}

			return a.run(cmd, true, func(ctx context.Context) error {
				cache := taskview.NewCache()
				key := taskview.QueryKey{ProjectID: projectID, Sort: client.SortDueDateAsc}
				tasks, err := cache.Fetch(ctx, key, func(ctx context.Context) ([]client.Task, error) {
					return a.client.ListTasks(ctx, projectID, key.Query())
				})
				if err != nil {
					return err
				}

				var from client.Status
				for _, t := range tasks {
					if t.ID == taskID {
						from = t.Status
					}
				}
				if from == "" {
					return fmt.Errorf("task %s not found in project %s", taskID, projectID)
				}

				mover := &taskview.StatusMover{Store: cache, Updater: a.client, Logger: a.logger}
				moveErr := mover.Move(ctx, key, taskID, from, to)

				if board, ok := cache.Snapshot(key); ok {
					printBoard(cmd.OutOrStdout(), taskview.GroupByStatus(board))
				}
				return moveErr
			})
		},
	}
}

func parseStatus(s string) (client.Status, error) {
	st := client.Status(strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(s))))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q (want pending, in-progress or completed)", s)
	}
	return st, nil
}

func parseSortField(s string) (taskview.SortField, error) {
	switch taskview.SortField(s) {
	case "":
		return "", nil
	case taskview.SortByTitle, taskview.SortByStatus, taskview.SortByDueDate:
		return taskview.SortField(s), nil
	}
	return "", fmt.Errorf("unknown order %q (want title, status or dueDate)", s)
}

func parseDue(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("due date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

func formatDue(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.DateOnly)
}

func printTasks(w io.Writer, tasks []client.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tDUE\tPRIORITY")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Status, formatDue(t.DueDate), t.Priority)
	}
	_ = tw.Flush()
}

func printBoard(w io.Writer, columns map[client.Status][]client.Task) {
	for i, st := range client.Statuses {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", st, len(columns[st]))
		for _, t := range columns[st] {
			fmt.Fprintf(w, "  %s  %s  due %s\n", t.ID, t.Title, formatDue(t.DueDate))
		}
	}
}
