package models

import "time"

// Todo represents a row in the PostgreSQL todos table. UserID is set from
// the authenticated session, never from client input.
type Todo struct {
	Entity
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UserID      int64      `json:"user_id"`
}

// CreateTodoRequest is the JSON body for POST /api/todos.
type CreateTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateTodoRequest is the JSON body for PUT /api/todos/{id}.
type UpdateTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IsCompleted bool   `json:"is_completed"`
}
