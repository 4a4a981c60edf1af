package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Skotchmaster/tasktracker/internal/events"
	"github.com/Skotchmaster/tasktracker/internal/logging"
	"github.com/Skotchmaster/tasktracker/internal/models"
	"github.com/Skotchmaster/tasktracker/internal/repo"
	"github.com/Skotchmaster/tasktracker/internal/transport"
)

type ProjectService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *ProjectService) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	items, err := s.Repo.ListProjects(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Project{}
	}
	return items, nil
}

func (s *ProjectService) CreateProject(ctx context.Context, ownerID string, req transport.CreateProjectRequest) (*models.Project, error) {
	p := &models.Project{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		OwnerID:     ownerID,
	}
	if p.Name == "" {
		return nil, &FieldError{Field: "name", Message: "Required"}
	}
	if err := s.Repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicProjects, p.ID, events.ProjectEvent{
		Type: events.ProjectCreated, ProjectID: p.ID, OwnerID: ownerID, Name: p.Name, At: time.Now().UTC(),
	})
	return p, nil
}

// GetProject returns the project with its tasks. A project owned by someone
// else is reported as ErrNotFound.
func (s *ProjectService) GetProject(ctx context.Context, ownerID, id string) (*models.Project, error) {
	p, err := s.Repo.GetProject(ctx, ownerID, id, true)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if p.Tasks == nil {
		p.Tasks = []models.Task{}
	}
	return p, nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, ownerID, id string, req transport.UpdateProjectRequest) (*models.Project, error) {
	p, err := s.Repo.GetProject(ctx, ownerID, id, false)
	if err != nil {
		return nil, mapNotFound(err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, &FieldError{Field: "name", Message: "Required"}
		}
		p.Name = name
	}
	if req.Description != nil {
		p.Description = req.Description
	}

	if err := s.Repo.SaveProject(ctx, p); err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicProjects, p.ID, events.ProjectEvent{
		Type: events.ProjectUpdated, ProjectID: p.ID, OwnerID: ownerID, Name: p.Name, At: time.Now().UTC(),
	})
	return p, nil
}

func (s *ProjectService) DeleteProject(ctx context.Context, ownerID, id string) error {
	if err := s.Repo.DeleteProject(ctx, ownerID, id); err != nil {
		return mapNotFound(err)
	}

	publish(ctx, s.Events, events.TopicProjects, id, events.ProjectEvent{
		Type: events.ProjectDeleted, ProjectID: id, OwnerID: ownerID, At: time.Now().UTC(),
	})
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// publish is best effort: a broker outage must not fail the request.
func publish(ctx context.Context, p events.Publisher, topic, key string, event any) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "key", key, "error", err)
	}
}
