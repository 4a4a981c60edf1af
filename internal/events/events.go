package events

import "time"

const (
	UserRegistered          = "user_registered"
	UserLoggedOutEverywhere = "user_logged_out_everywhere"

	ProjectCreated = "project_created"
	ProjectUpdated = "project_updated"
	ProjectDeleted = "project_deleted"

	TaskCreated       = "task_created"
	TaskUpdated       = "task_updated"
	TaskStatusChanged = "task_status_changed"
	TaskDeleted       = "task_deleted"
)

type UserEvent struct {
	Type   string    `json:"type"`
	UserID string    `json:"userID"`
	Email  string    `json:"email,omitempty"`
	At     time.Time `json:"at"`
}

type ProjectEvent struct {
	Type      string    `json:"type"`
	ProjectID string    `json:"projectID"`
	OwnerID   string    `json:"ownerID"`
	Name      string    `json:"name,omitempty"`
	At        time.Time `json:"at"`
}

type TaskEvent struct {
	Type       string    `json:"type"`
	TaskID     string    `json:"taskID"`
	ProjectID  string    `json:"projectID"`
	Status     string    `json:"status,omitempty"`
	PrevStatus string    `json:"prevStatus,omitempty"`
	At         time.Time `json:"at"`
}
