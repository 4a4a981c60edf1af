package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/tasktracker/internal/models"
)

type TaskSort string

const (
	SortDefault     TaskSort = ""
	SortDueDateAsc  TaskSort = "dueDateAsc"
	SortDueDateDesc TaskSort = "dueDateDesc"
)

func (s TaskSort) Valid() bool {
	switch s {
	case SortDefault, SortDueDateAsc, SortDueDateDesc:
		return true
	}
	return false
}

type TaskFilter struct {
	Status models.TaskStatus
	Sort   TaskSort
}

func (r *GormRepo) ListTasks(ctx context.Context, projectID string, f TaskFilter) ([]models.Task, error) {
	q := r.DB.WithContext(ctx).Where("project_id = ?", projectID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	switch f.Sort {
	case SortDueDateAsc:
		q = q.Order("due_date ASC")
	case SortDueDateDesc:
		q = q.Order("due_date DESC")
	default:
		q = q.Order("updated_at DESC")
	}

	items := make([]models.Task, 0)
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return items, nil
}

func (r *GormRepo) CreateTask(ctx context.Context, t *models.Task) error {
	if err := r.DB.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetOwnedTask loads a task whose project belongs to ownerID.
func (r *GormRepo) GetOwnedTask(ctx context.Context, ownerID, id string) (*models.Task, error) {
	if !validID(ownerID, id) {
		return nil, ErrNotFound
	}

	var t models.Task
	err := r.DB.WithContext(ctx).
		Select("tasks.*").
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("tasks.id = ? AND projects.owner_id = ?", id, ownerID).
		First(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *GormRepo) SaveTask(ctx context.Context, t *models.Task) error {
	if err := r.DB.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (r *GormRepo) DeleteTask(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}

	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchProject bumps updated_at so the project list reflects task activity.
func (r *GormRepo) TouchProject(ctx context.Context, projectID string) error {
	if err := r.DB.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", projectID).
		Update("updated_at", time.Now().UTC()).Error; err != nil {
		return fmt.Errorf("touch project: %w", err)
	}
	return nil
}
