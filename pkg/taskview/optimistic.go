package taskview

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Skotchmaster/tasktracker/pkg/client"
)

// Store is the slice of Cache that StatusMover needs.
type Store interface {
	CancelQueries(projectID string)
	Snapshot(key QueryKey) ([]client.Task, bool)
	Put(key QueryKey, tasks []client.Task)
	Invalidate(ctx context.Context, projectID string) error
}

type Updater interface {
	UpdateTaskStatus(ctx context.Context, taskID string, status client.Status) (*client.Task, error)
}

// StatusMover moves a task between board columns optimistically.
type StatusMover struct {
	Store   Store
	Updater Updater
	Logger  *slog.Logger
}

// Move shows the new status in the cached listing before the server answers.
// A failed update restores the previous listing exactly. Either way the
// project's listings are refetched. Moving to the same column is a no-op.
func (m *StatusMover) Move(ctx context.Context, key QueryKey, taskID string, from, to client.Status) error {
	if from == to {
		return nil
	}
	if !to.Valid() {
		return fmt.Errorf("taskview: unknown status %q", to)
	}

	m.Store.CancelQueries(key.ProjectID)
	prev, had := m.Store.Snapshot(key)
	// Nothing cached means nothing to show yet; an empty listing would be made up.
	if had {
		m.Store.Put(key, WithStatus(prev, taskID, to))
	}

	_, err := m.Updater.UpdateTaskStatus(ctx, taskID, to)
	if err != nil && had {
		m.Store.Put(key, prev)
	}

	// The refetch runs even if the caller gave up on ctx.
	if ierr := m.Store.Invalidate(context.WithoutCancel(ctx), key.ProjectID); ierr != nil {
		m.logger().Warn("task refetch failed", "project_id", key.ProjectID, "error", ierr)
	}
	return err
}

func (m *StatusMover) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// WithStatus returns a copy of tasks with one task moved to status.
func WithStatus(tasks []client.Task, taskID string, status client.Status) []client.Task {
	out := slices.Clone(tasks)
	for i := range out {
		if out[i].ID == taskID {
			out[i].Status = status
			out[i].Completed = status == client.StatusCompleted
		}
	}
	return out
}
