package todo

import (
	"context"
	"time"

	"github.com/ersinakyuz/todoapp-backend/internal/apperr"
	"github.com/ersinakyuz/todoapp-backend/internal/auth"
	"github.com/ersinakyuz/todoapp-backend/internal/models"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 1000
)

// TodoStore defines the interface for task persistence. Reads only see
// non-deleted rows except ExportByOwner, which is the audit path.
type TodoStore interface {
	ListByOwner(ctx context.Context, ownerID int64, completed *bool) ([]models.Todo, error)
	GetByID(ctx context.Context, id int64) (*models.Todo, error)
	CreateTodo(ctx context.Context, t *models.Todo) error
	UpdateTodo(ctx context.Context, t *models.Todo) error
	SoftDeleteTodo(ctx context.Context, t *models.Todo) error
	ExportByOwner(ctx context.Context, ownerID int64) ([]models.ExportTodo, error)
}

// UserLookup resolves the session principal to a live user record.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Service orchestrates ownership-scoped task operations. Every mutation
// re-derives the owner from the active session; owner ids carried in
// client payloads are never trusted.
type Service struct {
	todos TodoStore
	users UserLookup
	audit auth.AuditTrail
}

func NewService(todos TodoStore, users UserLookup, audit auth.AuditTrail) *Service {
	return &Service{todos: todos, users: users, audit: audit}
}

func (s *Service) currentUser(ctx context.Context) (*models.User, error) {
	id, ok := auth.IdentityFrom(ctx)
	if !ok {
		return nil, apperr.Unauthorized("authentication required")
	}
	user, err := s.users.GetByUsername(ctx, id.Username)
	if err != nil {
		return nil, apperr.Convert(err, "failed to resolve user")
	}
	if user == nil {
		return nil, apperr.Unauthorized("user not found")
	}
	return user, nil
}

// List returns the current user's tasks. A nil filter returns all of
// them; true/false selects completed/incomplete only.
func (s *Service) List(ctx context.Context, completed *bool) ([]models.Todo, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, apperr.Convert(err, "failed to list tasks")
	}
	todos, err := s.todos.ListByOwner(ctx, user.ID, completed)
	if err != nil {
		return nil, apperr.Convert(err, "failed to list tasks")
	}
	return todos, nil
}

// Get returns one of the current user's tasks. Tasks owned by someone
// else read as not found.
func (s *Service) Get(ctx context.Context, id int64) (*models.Todo, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, apperr.Convert(err, "failed to load task")
	}
	return s.owned(ctx, user, id)
}

// Create adds a task owned by the current user.
func (s *Service) Create(ctx context.Context, req models.CreateTodoRequest) (*models.Todo, error) {
	if err := validateTodo(req.Title, req.Description); err != nil {
		return nil, err
	}

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, apperr.Convert(err, "failed to add task")
	}

	t := &models.Todo{
		Title:       req.Title,
		Description: req.Description,
		UserID:      user.ID,
	}
	if err := s.todos.CreateTodo(ctx, t); err != nil {
		return nil, apperr.Convert(err, "failed to add task")
	}

	s.record(ctx, user.Username, t.ID, "create")
	return t, nil
}

// Update rewrites a task's title, description, and completion state.
// Completing stamps CompletedAt; un-completing clears it.
func (s *Service) Update(ctx context.Context, id int64, req models.UpdateTodoRequest) (*models.Todo, error) {
	if err := validateTodo(req.Title, req.Description); err != nil {
		return nil, err
	}

	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, apperr.Convert(err, "failed to update task")
	}
	t, err := s.owned(ctx, user, id)
	if err != nil {
		return nil, apperr.Convert(err, "failed to update task")
	}

	t.Title = req.Title
	t.Description = req.Description
	switch {
	case req.IsCompleted && !t.IsCompleted:
		now := time.Now().UTC()
		t.CompletedAt = &now
	case !req.IsCompleted && t.IsCompleted:
		t.CompletedAt = nil
	}
	t.IsCompleted = req.IsCompleted

	if err := s.todos.UpdateTodo(ctx, t); err != nil {
		return nil, apperr.Convert(err, "failed to update task")
	}

	s.record(ctx, user.Username, t.ID, "update")
	return t, nil
}

// Complete marks a task done and stamps CompletedAt.
func (s *Service) Complete(ctx context.Context, id int64) (*models.Todo, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, apperr.Convert(err, "failed to complete task")
	}
	t, err := s.owned(ctx, user, id)
	if err != nil {
		return nil, apperr.Convert(err, "failed to complete task")
	}

	if !t.IsCompleted {
		now := time.Now().UTC()
		t.IsCompleted = true
		t.CompletedAt = &now
	}
	if err := s.todos.UpdateTodo(ctx, t); err != nil {
		return nil, apperr.Convert(err, "failed to complete task")
	}

	s.record(ctx, user.Username, t.ID, "complete")
	return t, nil
}

// Delete soft-deletes a task; the row is retained.
func (s *Service) Delete(ctx context.Context, id int64) error {
	user, err := s.currentUser(ctx)
	if err != nil {
		return apperr.Convert(err, "failed to delete task")
	}
	t, err := s.owned(ctx, user, id)
	if err != nil {
		return apperr.Convert(err, "failed to delete task")
	}
	if err := s.todos.SoftDeleteTodo(ctx, t); err != nil {
		return apperr.Convert(err, "failed to delete task")
	}

	s.record(ctx, user.Username, t.ID, "delete")
	return nil
}

// Export snapshots the current user's account: profile plus every task
// ever created, soft-deleted rows included.
func (s *Service) Export(ctx context.Context) (*models.AccountExport, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, apperr.Convert(err, "failed to export account")
	}
	todos, err := s.todos.ExportByOwner(ctx, user.ID)
	if err != nil {
		return nil, apperr.Convert(err, "failed to export account")
	}
	return &models.AccountExport{
		User:        *user,
		Todos:       todos,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func (s *Service) owned(ctx context.Context, user *models.User, id int64) (*models.Todo, error) {
	t, err := s.todos.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Convert(err, "failed to load task")
	}
	// A foreign task reads the same as a missing one.
	if t == nil || t.UserID != user.ID {
		return nil, apperr.NotFound("task not found")
	}
	return t, nil
}

func validateTodo(title, description string) error {
	if title == "" || description == "" {
		return apperr.Validation("title and description must not be empty")
	}
	if len(title) > maxTitleLen {
		return apperr.Validation("title must be at most 100 characters")
	}
	if len(description) > maxDescriptionLen {
		return apperr.Validation("description must be at most 1000 characters")
	}
	return nil
}

func (s *Service) record(ctx context.Context, actor string, todoID int64, action string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, models.AuditEvent{
		Entity:   "todo",
		EntityID: todoID,
		Actor:    actor,
		Action:   action,
		At:       time.Now().UTC(),
	})
}
