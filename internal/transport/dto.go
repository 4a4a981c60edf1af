package transport

import (
	"bytes"
	"encoding/json"
	"time"
)

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name"     validate:"required,min=1,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateProjectRequest struct {
	Name        string  `json:"name"        validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"        validate:"omitnil,min=1,max=200"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
}

type ListTasksQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED"`
	Sort   string `query:"sort"   validate:"omitempty,oneof=dueDateAsc dueDateDesc"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,min=1,max=200"`
	Description *string    `json:"description" validate:"omitnil,max=5000"`
	Status      string     `json:"status"      validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	AssigneeID  *string    `json:"assigneeId"`
}

type UpdateTaskRequest struct {
	Title       *string             `json:"title"       validate:"omitnil,min=1,max=200"`
	Description Nullable[string]    `json:"description"`
	Status      *string             `json:"status"      validate:"omitnil,oneof=PENDING IN_PROGRESS COMPLETED"`
	Completed   *bool               `json:"completed"`
	DueDate     Nullable[time.Time] `json:"dueDate"`
	Priority    *string             `json:"priority"    validate:"omitnil,oneof=LOW MEDIUM HIGH"`
	AssigneeID  Nullable[string]    `json:"assigneeId"`
}

// Nullable tells an absent field apart from an explicit null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func Some[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: &v} }

func Null[T any]() Nullable[T] { return Nullable[T]{Set: true} }
