package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/tasktracker/internal/models"
)

func (r *GormRepo) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	items := make([]models.Project, 0)
	if err := r.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return items, nil
}

func (r *GormRepo) CreateProject(ctx context.Context, p *models.Project) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// GetProject returns the project only when ownerID owns it.
func (r *GormRepo) GetProject(ctx context.Context, ownerID, id string, withTasks bool) (*models.Project, error) {
	if !validID(ownerID, id) {
		return nil, ErrNotFound
	}

	q := r.DB.WithContext(ctx)
	if withTasks {
		q = q.Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("updated_at DESC")
		})
	}

	var p models.Project
	if err := q.Where("id = ? AND owner_id = ?", id, ownerID).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *GormRepo) SaveProject(ctx context.Context, p *models.Project) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Save(p).Error; err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

// DeleteProject removes the project and its tasks.
func (r *GormRepo) DeleteProject(ctx context.Context, ownerID, id string) error {
	if !validID(ownerID, id) {
		return ErrNotFound
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Project{})
		if res.Error != nil {
			return fmt.Errorf("delete project: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("delete project tasks: %w", err)
		}
		return nil
	})
}
