package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "PENDING"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

type User struct {
	ID           string    `gorm:"type:uuid;primaryKey"        json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"        json:"email"`
	PasswordHash string    `gorm:"not null"                    json:"-"`
	Name         string    `gorm:"not null"                    json:"name"`
	TokenVersion int       `gorm:"not null;default:0"          json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PublicUser is the only user shape that leaves the server.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}

type Project struct {
	ID          string    `gorm:"type:uuid;primaryKey"                json:"id"`
	Name        string    `gorm:"not null"                            json:"name"`
	Description *string   `json:"description"`
	OwnerID     string    `gorm:"type:uuid;index;not null"            json:"ownerId"`
	Owner       *User     `gorm:"constraint:OnDelete:CASCADE"         json:"-"`
	Tasks       []Task    `gorm:"constraint:OnDelete:CASCADE"         json:"tasks,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `gorm:"index"                               json:"updatedAt"`
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type Task struct {
	ID          string       `gorm:"type:uuid;primaryKey"                      json:"id"`
	ProjectID   string       `gorm:"type:uuid;index;not null"                  json:"projectId"`
	Title       string       `gorm:"not null"                                  json:"title"`
	Description *string      `json:"description"`
	Status      TaskStatus   `gorm:"type:varchar(16);not null;default:PENDING" json:"status"`
	Completed   bool         `gorm:"not null;default:false"                    json:"completed"`
	DueDate     *time.Time   `gorm:"index"                                     json:"dueDate"`
	Priority    TaskPriority `gorm:"type:varchar(8);not null;default:MEDIUM"   json:"priority"`
	AssigneeID  *string      `gorm:"type:uuid"                                 json:"assigneeId"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `gorm:"index"                                     json:"updatedAt"`
}

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.SetStatus(StatusPending)
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return nil
}

// SetStatus keeps Completed in step with Status.
func (t *Task) SetStatus(s TaskStatus) {
	t.Status = s
	t.Completed = s == StatusCompleted
}

func All() []any {
	return []any{&User{}, &Project{}, &Task{}}
}
