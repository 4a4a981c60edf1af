package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/tasktracker/internal/events"
	"github.com/Skotchmaster/tasktracker/internal/models"
	"github.com/Skotchmaster/tasktracker/internal/transport"
)

func ptr[T any](v T) *T { return &v }

func TestProjectService_CRUDAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com").User
	other := env.register(t, "other@example.com").User

	p, err := env.Projects.CreateProject(ctx, owner.ID, transport.CreateProjectRequest{Name: " Launch ", Description: ptr("q4")})
	require.NoError(t, err)
	assert.Equal(t, "Launch", p.Name)

	got, err := env.Projects.GetProject(ctx, owner.ID, p.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Tasks)
	assert.Empty(t, got.Tasks)

	_, err = env.Projects.GetProject(ctx, other.ID, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.Projects.UpdateProject(ctx, other.ID, p.ID, transport.UpdateProjectRequest{Name: ptr("Hijack")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.Projects.UpdateProject(ctx, owner.ID, p.ID, transport.UpdateProjectRequest{Name: ptr("  ")})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := env.Projects.UpdateProject(ctx, owner.ID, p.ID, transport.UpdateProjectRequest{Name: ptr("Launch v2")})
	require.NoError(t, err)
	assert.Equal(t, "Launch v2", updated.Name)
	assert.Equal(t, "q4", *updated.Description)

	assert.ErrorIs(t, env.Projects.DeleteProject(ctx, other.ID, p.ID), ErrNotFound)
	require.NoError(t, env.Projects.DeleteProject(ctx, owner.ID, p.ID))

	list, err := env.Projects.ListProjects(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	msgs := env.Events.Messages(events.TopicProjects)
	require.Len(t, msgs, 3)
	assert.Equal(t, events.ProjectCreated, msgs[0].Value["type"])
	assert.Equal(t, events.ProjectUpdated, msgs[1].Value["type"])
	assert.Equal(t, events.ProjectDeleted, msgs[2].Value["type"])
}

func TestTaskService_CreateRejectsForeignAssignee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com").User
	other := env.register(t, "other@example.com").User

	p, err := env.Projects.CreateProject(ctx, owner.ID, transport.CreateProjectRequest{Name: "Board"})
	require.NoError(t, err)

	_, err = env.Tasks.CreateTask(ctx, owner.ID, p.ID, transport.CreateTaskRequest{
		Title: "Test task", DueDate: ptr(time.Now()), AssigneeID: ptr(other.ID),
	})
	require.ErrorIs(t, err, ErrValidation)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "assigneeId", fe.Field)

	tasks, err := env.Tasks.ListTasks(ctx, owner.ID, p.ID, transport.ListTasksQuery{})
	require.NoError(t, err)
	assert.Empty(t, tasks)

	task, err := env.Tasks.CreateTask(ctx, owner.ID, p.ID, transport.CreateTaskRequest{
		Title: "Mine", AssigneeID: ptr(owner.ID), Priority: "HIGH",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, task.Status)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	assert.Equal(t, owner.ID, *task.AssigneeID)
}

func TestTaskService_ListFiltersAndValidates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com").User
	other := env.register(t, "other@example.com").User

	p, err := env.Projects.CreateProject(ctx, owner.ID, transport.CreateProjectRequest{Name: "Board"})
	require.NoError(t, err)

	for _, st := range []string{"PENDING", "IN_PROGRESS", "IN_PROGRESS"} {
		_, err := env.Tasks.CreateTask(ctx, owner.ID, p.ID, transport.CreateTaskRequest{Title: st, Status: st})
		require.NoError(t, err)
	}

	inProgress, err := env.Tasks.ListTasks(ctx, owner.ID, p.ID, transport.ListTasksQuery{Status: "IN_PROGRESS", Sort: "dueDateAsc"})
	require.NoError(t, err)
	assert.Len(t, inProgress, 2)

	_, err = env.Tasks.ListTasks(ctx, owner.ID, p.ID, transport.ListTasksQuery{Status: "DONE"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.Tasks.ListTasks(ctx, owner.ID, p.ID, transport.ListTasksQuery{Sort: "title"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.Tasks.ListTasks(ctx, other.ID, p.ID, transport.ListTasksQuery{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskService_UpdateStatusAndCompleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com").User
	other := env.register(t, "other@example.com").User

	p, err := env.Projects.CreateProject(ctx, owner.ID, transport.CreateProjectRequest{Name: "Board"})
	require.NoError(t, err)
	task, err := env.Tasks.CreateTask(ctx, owner.ID, p.ID, transport.CreateTaskRequest{
		Title: "Ship", DueDate: ptr(time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	_, err = env.Tasks.UpdateTask(ctx, other.ID, task.ID, transport.UpdateTaskRequest{Status: ptr("COMPLETED")})
	assert.ErrorIs(t, err, ErrNotFound)

	moved, err := env.Tasks.UpdateTask(ctx, owner.ID, task.ID, transport.UpdateTaskRequest{Status: ptr("IN_PROGRESS")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, moved.Status)
	assert.False(t, moved.Completed)

	done, err := env.Tasks.UpdateTask(ctx, owner.ID, task.ID, transport.UpdateTaskRequest{Completed: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.True(t, done.Completed)

	reopened, err := env.Tasks.UpdateTask(ctx, owner.ID, task.ID, transport.UpdateTaskRequest{
		Completed: ptr(false),
		DueDate:   transport.Null[time.Time](),
		Title:     ptr("Ship it"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, reopened.Status)
	assert.Nil(t, reopened.DueDate)
	assert.Equal(t, "Ship it", reopened.Title)

	_, err = env.Tasks.UpdateTask(ctx, owner.ID, task.ID, transport.UpdateTaskRequest{AssigneeID: transport.Some(other.ID)})
	assert.ErrorIs(t, err, ErrValidation)

	msgs := env.Events.Messages(events.TopicTasks)
	require.Len(t, msgs, 4)
	assert.Equal(t, events.TaskCreated, msgs[0].Value["type"])
	assert.Equal(t, events.TaskStatusChanged, msgs[1].Value["type"])
	assert.Equal(t, "PENDING", msgs[1].Value["prevStatus"])
	assert.Equal(t, "IN_PROGRESS", msgs[1].Value["status"])
}

func TestTaskService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "owner@example.com").User
	other := env.register(t, "other@example.com").User

	p, err := env.Projects.CreateProject(ctx, owner.ID, transport.CreateProjectRequest{Name: "Board"})
	require.NoError(t, err)
	task, err := env.Tasks.CreateTask(ctx, owner.ID, p.ID, transport.CreateTaskRequest{Title: "Drop me"})
	require.NoError(t, err)

	assert.ErrorIs(t, env.Tasks.DeleteTask(ctx, other.ID, task.ID), ErrNotFound)
	require.NoError(t, env.Tasks.DeleteTask(ctx, owner.ID, task.ID))
	assert.ErrorIs(t, env.Tasks.DeleteTask(ctx, owner.ID, task.ID), ErrNotFound)
}
