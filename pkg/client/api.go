package client

import (
	"context"
	"net/http"
	"net/url"
)

var withCredentials = RequestOptions{Credentials: true}

func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	var res AuthResult
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.Do(ctx, http.MethodPost, "/auth/register", body, &res, withCredentials); err != nil {
		return nil, err
	}
	c.session.Set(res.AccessToken, &res.User)
	return &res, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var res AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.Do(ctx, http.MethodPost, "/auth/login", body, &res, withCredentials); err != nil {
		return nil, err
	}
	c.session.Set(res.AccessToken, &res.User)
	return &res, nil
}

func (c *Client) Refresh(ctx context.Context) (*AuthResult, error) {
	return c.refresh(ctx)
}

// Bootstrap restores a session from the refresh cookie with a single refresh.
// On failure the session is cleared and false is returned.
func (c *Client) Bootstrap(ctx context.Context) bool {
	if _, err := c.refresh(ctx); err != nil {
		c.logger.Debug("bootstrap refresh failed", "error", err)
		c.session.Clear()
		return false
	}
	return true
}

// Logout drops the refresh cookie server side. The local session is cleared
// even when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.session.Clear()
	return c.Do(ctx, http.MethodPost, "/auth/logout", nil, nil, withCredentials)
}

// LogoutAll revokes every refresh token of the signed in user.
func (c *Client) LogoutAll(ctx context.Context) error {
	defer c.session.Clear()
	return c.Do(ctx, http.MethodPost, "/auth/logout-all", nil, nil, withCredentials)
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var res struct {
		User User `json:"user"`
	}
	if err := c.Do(ctx, http.MethodGet, "/auth/me", nil, &res, withCredentials); err != nil {
		return nil, err
	}
	return &res.User, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var res struct {
		Projects []Project `json:"projects"`
	}
	if err := c.Do(ctx, http.MethodGet, "/projects", nil, &res, withCredentials); err != nil {
		return nil, err
	}
	return res.Projects, nil
}

func (c *Client) CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error) {
	return c.project(ctx, http.MethodPost, "/projects", in)
}

func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	return c.project(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil)
}

func (c *Client) UpdateProject(ctx context.Context, id string, in UpdateProjectInput) (*Project, error) {
	return c.project(ctx, http.MethodPatch, "/projects/"+url.PathEscape(id), in)
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil, withCredentials)
}

func (c *Client) project(ctx context.Context, method, path string, body any) (*Project, error) {
	var res struct {
		Project Project `json:"project"`
	}
	if err := c.Do(ctx, method, path, body, &res, withCredentials); err != nil {
		return nil, err
	}
	return &res.Project, nil
}

func (c *Client) ListTasks(ctx context.Context, projectID string, q TaskQuery) ([]Task, error) {
	path := "/projects/" + url.PathEscape(projectID) + "/tasks"
	if qs := q.Encode(); qs != "" {
		path += "?" + qs
	}

	var res struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.Do(ctx, http.MethodGet, path, nil, &res, withCredentials); err != nil {
		return nil, err
	}
	return res.Tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, projectID string, in CreateTaskInput) (*Task, error) {
	return c.task(ctx, http.MethodPost, "/projects/"+url.PathEscape(projectID)+"/tasks", in)
}

func (c *Client) UpdateTask(ctx context.Context, taskID string, in UpdateTaskInput) (*Task, error) {
	return c.task(ctx, http.MethodPatch, "/projects/tasks/"+url.PathEscape(taskID), in)
}

func (c *Client) UpdateTaskStatus(ctx context.Context, taskID string, status Status) (*Task, error) {
	return c.UpdateTask(ctx, taskID, UpdateTaskInput{Status: &status})
}

func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.Do(ctx, http.MethodDelete, "/projects/tasks/"+url.PathEscape(taskID), nil, nil, withCredentials)
}

func (c *Client) task(ctx context.Context, method, path string, body any) (*Task, error) {
	var res struct {
		Task Task `json:"task"`
	}
	if err := c.Do(ctx, method, path, body, &res, withCredentials); err != nil {
		return nil, err
	}
	return &res.Task, nil
}
