package client

import (
	"encoding/json"
	"net/url"
	"time"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Statuses lists every status in board order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Order is the column index of s, or len(Statuses) for unknown values.
func (s Status) Order() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return len(Statuses)
}

func (s Status) Valid() bool { return s.Order() < len(Statuses) }

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	OwnerID     string    `json:"ownerId"`
	Tasks       []Task    `json:"tasks,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      Status     `json:"status"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    Priority   `json:"priority"`
	AssigneeID  *string    `json:"assigneeId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// AuthResult is what register, login and refresh return.
type AuthResult struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
}

const (
	SortDueDateAsc  = "dueDateAsc"
	SortDueDateDesc = "dueDateDesc"
)

// TaskQuery filters a task listing. Zero fields are left out.
type TaskQuery struct {
	Status Status
	Sort   string
}

func (q TaskQuery) Encode() string {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	return v.Encode()
}

type CreateProjectInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type UpdateProjectInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type CreateTaskInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      Status     `json:"status,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	AssigneeID  *string    `json:"assigneeId,omitempty"`
}

// UpdateTaskInput is a partial update. Nil fields are not sent.
// ClearDueDate sends an explicit null for dueDate.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *Status
	Completed    *bool
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *Priority
}

func (in UpdateTaskInput) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if in.Title != nil {
		m["title"] = *in.Title
	}
	if in.Description != nil {
		m["description"] = *in.Description
	}
	if in.Status != nil {
		m["status"] = *in.Status
	}
	if in.Completed != nil {
		m["completed"] = *in.Completed
	}
	switch {
	case in.ClearDueDate:
		m["dueDate"] = nil
	case in.DueDate != nil:
		m["dueDate"] = in.DueDate.UTC()
	}
	if in.Priority != nil {
		m["priority"] = *in.Priority
	}
	return json.Marshal(m)
}
