package service

import (
	"context"
	"strings"
	"time"

	"github.com/Skotchmaster/tasktracker/internal/events"
	"github.com/Skotchmaster/tasktracker/internal/logging"
	"github.com/Skotchmaster/tasktracker/internal/models"
	"github.com/Skotchmaster/tasktracker/internal/repo"
	"github.com/Skotchmaster/tasktracker/internal/transport"
)

type TaskService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *TaskService) ListTasks(ctx context.Context, ownerID, projectID string, q transport.ListTasksQuery) ([]models.Task, error) {
	filter := repo.TaskFilter{
		Status: models.TaskStatus(q.Status),
		Sort:   repo.TaskSort(q.Sort),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, &FieldError{Field: "status", Message: "Invalid status"}
	}
	if !filter.Sort.Valid() {
		return nil, &FieldError{Field: "sort", Message: "Invalid sort"}
	}

	if _, err := s.Repo.GetProject(ctx, ownerID, projectID, false); err != nil {
		return nil, mapNotFound(err)
	}
	items, err := s.Repo.ListTasks(ctx, projectID, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Task{}
	}
	return items, nil
}

func (s *TaskService) CreateTask(ctx context.Context, ownerID, projectID string, req transport.CreateTaskRequest) (*models.Task, error) {
	project, err := s.Repo.GetProject(ctx, ownerID, projectID, false)
	if err != nil {
		return nil, mapNotFound(err)
	}

	if err := checkAssignee(project, req.AssigneeID); err != nil {
		return nil, err
	}

	t := &models.Task{
		ProjectID:   project.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		DueDate:     utcPtr(req.DueDate),
		Priority:    models.PriorityMedium,
		AssigneeID:  req.AssigneeID,
	}
	if t.Title == "" {
		return nil, &FieldError{Field: "title", Message: "Required"}
	}
	t.SetStatus(models.StatusPending)
	if req.Status != "" {
		st := models.TaskStatus(req.Status)
		if !st.Valid() {
			return nil, &FieldError{Field: "status", Message: "Invalid status"}
		}
		t.SetStatus(st)
	}
	if req.Priority != "" {
		pr := models.TaskPriority(req.Priority)
		if !pr.Valid() {
			return nil, &FieldError{Field: "priority", Message: "Invalid priority"}
		}
		t.Priority = pr
	}

	if err := s.Repo.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	s.touch(ctx, project.ID)

	publish(ctx, s.Events, events.TopicTasks, t.ID, events.TaskEvent{
		Type: events.TaskCreated, TaskID: t.ID, ProjectID: t.ProjectID, Status: string(t.Status), At: time.Now().UTC(),
	})
	return t, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, ownerID, taskID string, req transport.UpdateTaskRequest) (*models.Task, error) {
	t, err := s.Repo.GetOwnedTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	prev := t.Status

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, &FieldError{Field: "title", Message: "Required"}
		}
		t.Title = title
	}
	if req.Description.Set {
		t.Description = req.Description.Value
	}
	if req.DueDate.Set {
		t.DueDate = utcPtr(req.DueDate.Value)
	}
	if req.Priority != nil {
		pr := models.TaskPriority(*req.Priority)
		if !pr.Valid() {
			return nil, &FieldError{Field: "priority", Message: "Invalid priority"}
		}
		t.Priority = pr
	}
	if req.AssigneeID.Set {
		if req.AssigneeID.Value != nil && *req.AssigneeID.Value != ownerID {
			return nil, &FieldError{Field: "assigneeId", Message: "Assignee must be the project owner"}
		}
		t.AssigneeID = req.AssigneeID.Value
	}

	switch {
	case req.Status != nil:
		st := models.TaskStatus(*req.Status)
		if !st.Valid() {
			return nil, &FieldError{Field: "status", Message: "Invalid status"}
		}
		t.SetStatus(st)
	case req.Completed != nil && *req.Completed:
		t.SetStatus(models.StatusCompleted)
	case req.Completed != nil && t.Status == models.StatusCompleted:
		t.SetStatus(models.StatusPending)
	}

	if err := s.Repo.SaveTask(ctx, t); err != nil {
		return nil, err
	}
	s.touch(ctx, t.ProjectID)

	ev := events.TaskEvent{
		Type: events.TaskUpdated, TaskID: t.ID, ProjectID: t.ProjectID, Status: string(t.Status), At: time.Now().UTC(),
	}
	if prev != t.Status {
		ev.Type = events.TaskStatusChanged
		ev.PrevStatus = string(prev)
	}
	publish(ctx, s.Events, events.TopicTasks, t.ID, ev)
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	t, err := s.Repo.GetOwnedTask(ctx, ownerID, taskID)
	if err != nil {
		return mapNotFound(err)
	}
	if err := s.Repo.DeleteTask(ctx, t.ID); err != nil {
		return mapNotFound(err)
	}
	s.touch(ctx, t.ProjectID)

	publish(ctx, s.Events, events.TopicTasks, t.ID, events.TaskEvent{
		Type: events.TaskDeleted, TaskID: t.ID, ProjectID: t.ProjectID, At: time.Now().UTC(),
	})
	return nil
}

// Tasks may only be assigned to the project owner.
func checkAssignee(p *models.Project, assigneeID *string) error {
	if assigneeID != nil && *assigneeID != p.OwnerID {
		return &FieldError{Field: "assigneeId", Message: "Assignee must be the project owner"}
	}
	return nil
}

func (s *TaskService) touch(ctx context.Context, projectID string) {
	if err := s.Repo.TouchProject(ctx, projectID); err != nil {
		logging.FromContext(ctx).Warn("touch_project_failed", "project_id", projectID, "error", err)
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
