package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tasktracker/internal/logging"
	authmw "github.com/Skotchmaster/tasktracker/internal/middleware/auth"
	"github.com/Skotchmaster/tasktracker/internal/models"
	"github.com/Skotchmaster/tasktracker/internal/service"
	"github.com/Skotchmaster/tasktracker/internal/transport"
)

type ProjectHTTP struct {
	Projects *service.ProjectService
	Tasks    *service.TaskService
}

func ownerID(c echo.Context) (string, error) {
	id, ok := authmw.FromEcho(c)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return id.ID, nil
}

// mapServiceError turns service sentinels into HTTP errors. notFound is the
// message used for ErrNotFound.
func mapServiceError(c echo.Context, op string, err error, notFound string) error {
	l := logging.FromContext(c.Request().Context()).With("handler", op)

	var fe *service.FieldError
	switch {
	case errors.As(err, &fe):
		l.Warn(op+"_failed", "status", 400, "reason", fe.Error())
		return fieldError(fe)
	case errors.Is(err, service.ErrNotFound):
		l.Warn(op+"_failed", "status", 404, "reason", notFound)
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	default:
		l.Error(op+"_failed", "status", 500, "error", err)
		return err
	}
}

func (h *ProjectHTTP) ListProjects(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	projects, err := h.Projects.ListProjects(c.Request().Context(), owner)
	if err != nil {
		return mapServiceError(c, "list_projects", err, "")
	}
	return c.JSON(http.StatusOK, echo.Map{"projects": projects})
}

func (h *ProjectHTTP) CreateProject(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	req, err := bindAndValidate[transport.CreateProjectRequest](c)
	if err != nil {
		return err
	}

	p, err := h.Projects.CreateProject(c.Request().Context(), owner, req)
	if err != nil {
		return mapServiceError(c, "create_project", err, "")
	}
	return c.JSON(http.StatusCreated, echo.Map{"project": p})
}

// projectDetail always carries the task list, even when empty.
type projectDetail struct {
	*models.Project
	Tasks []models.Task `json:"tasks"`
}

func (h *ProjectHTTP) GetProject(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	p, err := h.Projects.GetProject(c.Request().Context(), owner, c.Param("id"))
	if err != nil {
		return mapServiceError(c, "get_project", err, "Project not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"project": projectDetail{Project: p, Tasks: p.Tasks}})
}

func (h *ProjectHTTP) UpdateProject(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	req, err := bindAndValidate[transport.UpdateProjectRequest](c)
	if err != nil {
		return err
	}

	p, err := h.Projects.UpdateProject(c.Request().Context(), owner, c.Param("id"), req)
	if err != nil {
		return mapServiceError(c, "update_project", err, "Project not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"project": p})
}

func (h *ProjectHTTP) DeleteProject(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	if err := h.Projects.DeleteProject(c.Request().Context(), owner, c.Param("id")); err != nil {
		return mapServiceError(c, "delete_project", err, "Project not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProjectHTTP) ListTasks(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	q, err := bindAndValidate[transport.ListTasksQuery](c)
	if err != nil {
		return err
	}

	tasks, err := h.Tasks.ListTasks(c.Request().Context(), owner, c.Param("id"), q)
	if err != nil {
		return mapServiceError(c, "list_tasks", err, "Project not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"tasks": tasks})
}

func (h *ProjectHTTP) CreateTask(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	req, err := bindAndValidate[transport.CreateTaskRequest](c)
	if err != nil {
		return err
	}

	t, err := h.Tasks.CreateTask(c.Request().Context(), owner, c.Param("id"), req)
	if err != nil {
		return mapServiceError(c, "create_task", err, "Project not found")
	}
	return c.JSON(http.StatusCreated, echo.Map{"task": t})
}

func (h *ProjectHTTP) UpdateTask(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	req, err := bindAndValidate[transport.UpdateTaskRequest](c)
	if err != nil {
		return err
	}

	t, err := h.Tasks.UpdateTask(c.Request().Context(), owner, c.Param("id"), req)
	if err != nil {
		return mapServiceError(c, "update_task", err, "Task not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"task": t})
}

func (h *ProjectHTTP) DeleteTask(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}

	if err := h.Tasks.DeleteTask(c.Request().Context(), owner, c.Param("id")); err != nil {
		return mapServiceError(c, "delete_task", err, "Task not found")
	}
	return c.NoContent(http.StatusNoContent)
}
