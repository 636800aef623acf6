package todo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ersinakyuz/todoapp-backend/internal/apperr"
	"github.com/ersinakyuz/todoapp-backend/internal/auth"
	"github.com/ersinakyuz/todoapp-backend/internal/models"
)

// fakeTodoStore honors the store contract: reads skip soft-deleted rows,
// inserts and updates stamp the audit fields, ExportByOwner sees
// everything.
type fakeTodoStore struct {
	todos  []*models.Todo
	nextID int64
}

func (f *fakeTodoStore) ListByOwner(_ context.Context, ownerID int64, completed *bool) ([]models.Todo, error) {
	var out []models.Todo
	for _, t := range f.todos {
		if t.UserID != ownerID || t.IsDeleted {
			continue
		}
		if completed != nil && t.IsCompleted != *completed {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTodoStore) GetByID(_ context.Context, id int64) (*models.Todo, error) {
	for _, t := range f.todos {
		if t.ID == id && !t.IsDeleted {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTodoStore) CreateTodo(_ context.Context, t *models.Todo) error {
	f.nextID++
	t.ID = f.nextID
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.IsDeleted = false
	cp := *t
	f.todos = append(f.todos, &cp)
	return nil
}

func (f *fakeTodoStore) UpdateTodo(_ context.Context, t *models.Todo) error {
	for _, e := range f.todos {
		if e.ID == t.ID {
			created := e.CreatedAt
			*e = *t
			e.CreatedAt = created
			e.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return nil
}

func (f *fakeTodoStore) SoftDeleteTodo(_ context.Context, t *models.Todo) error {
	for _, e := range f.todos {
		if e.ID == t.ID {
			e.IsDeleted = true
			e.UpdatedAt = time.Now().UTC()
		}
	}
	return nil
}

func (f *fakeTodoStore) ExportByOwner(_ context.Context, ownerID int64) ([]models.ExportTodo, error) {
	var out []models.ExportTodo
	for _, t := range f.todos {
		if t.UserID != ownerID {
			continue
		}
		out = append(out, models.ExportTodo{Todo: *t, Deleted: t.IsDeleted})
	}
	return out, nil
}

type fakeUserLookup struct {
	users map[string]*models.User
}

func (f *fakeUserLookup) GetByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func newTestService() (*Service, *fakeTodoStore) {
	todos := &fakeTodoStore{}
	users := &fakeUserLookup{users: map[string]*models.User{
		"alice": {Entity: models.Entity{ID: 1}, Username: "alice"},
		"bob":   {Entity: models.Entity{ID: 2}, Username: "bob"},
	}}
	return NewService(todos, users, nil), todos
}

func identityCtx(username string) context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{Username: username})
}

func asAppErr(t *testing.T, err error) *apperr.Error {
	t.Helper()
	e, ok := err.(*apperr.Error)
	if !ok {
		t.Fatalf("expected *apperr.Error, got %T: %v", err, err)
	}
	return e
}

func addTodo(t *testing.T, svc *Service, ctx context.Context, title string) *models.Todo {
	t.Helper()
	created, err := svc.Create(ctx, models.CreateTodoRequest{Title: title, Description: "something to do"})
	if err != nil {
		t.Fatalf("Create(%s): %v", title, err)
	}
	return created
}

func boolPtr(b bool) *bool { return &b }

func TestCreate(t *testing.T) {
	svc, _ := newTestService()

	created := addTodo(t, svc, identityCtx("alice"), "buy milk")
	if created.ID == 0 {
		t.Error("no id assigned")
	}
	if created.UserID != 1 {
		t.Errorf("owner = %d, want 1 (resolved from session)", created.UserID)
	}
	if created.IsCompleted || created.CompletedAt != nil {
		t.Error("new task must start incomplete")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := identityCtx("alice")

	tests := []struct {
		name string
		req  models.CreateTodoRequest
	}{
		{"empty title", models.CreateTodoRequest{Description: "d"}},
		{"empty description", models.CreateTodoRequest{Title: "t"}},
		{"title too long", models.CreateTodoRequest{Title: strings.Repeat("x", 101), Description: "d"}},
		{"description too long", models.CreateTodoRequest{Title: "t", Description: strings.Repeat("x", 1001)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			if e := asAppErr(t, err); e.Code != 400 {
				t.Errorf("code = %d, want 400", e.Code)
			}
		})
	}
}

func TestCreate_RequiresIdentity(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), models.CreateTodoRequest{Title: "t", Description: "d"})
	if e := asAppErr(t, err); e.Code != 401 {
		t.Errorf("code = %d, want 401", e.Code)
	}
}

func TestList_CompletionFilter(t *testing.T) {
	svc, _ := newTestService()
	ctx := identityCtx("alice")

	open := addTodo(t, svc, ctx, "open task")
	done := addTodo(t, svc, ctx, "done task")
	if _, err := svc.Complete(ctx, done.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	tests := []struct {
		name   string
		filter *bool
		want   []int64
	}{
		{"all", nil, []int64{open.ID, done.ID}},
		{"completed", boolPtr(true), []int64{done.ID}},
		{"incomplete", boolPtr(false), []int64{open.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			todos, err := svc.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(todos) != len(tt.want) {
				t.Fatalf("got %d todos, want %d", len(todos), len(tt.want))
			}
			got := map[int64]bool{}
			for _, td := range todos {
				got[td.ID] = true
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("missing todo %d", id)
				}
			}
		})
	}
}

func TestOwnershipScoping(t *testing.T) {
	svc, _ := newTestService()
	alicesTodo := addTodo(t, svc, identityCtx("alice"), "alice's task")
	bob := identityCtx("bob")

	// Bob cannot see or touch Alice's task; it reads as missing.
	if _, err := svc.Get(bob, alicesTodo.ID); asAppErr(t, err).Code != 404 {
		t.Error("Get across owners did not 404")
	}
	_, err := svc.Update(bob, alicesTodo.ID, models.UpdateTodoRequest{Title: "t", Description: "d"})
	if asAppErr(t, err).Code != 404 {
		t.Error("Update across owners did not 404")
	}
	if err := svc.Delete(bob, alicesTodo.ID); asAppErr(t, err).Code != 404 {
		t.Error("Delete across owners did not 404")
	}

	todos, err := svc.List(bob, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(todos) != 0 {
		t.Errorf("bob sees %d of alice's todos", len(todos))
	}
}

func TestComplete_StampsCompletedAt(t *testing.T) {
	svc, _ := newTestService()
	ctx := identityCtx("alice")
	created := addTodo(t, svc, ctx, "task")

	done, err := svc.Complete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !done.IsCompleted {
		t.Error("task not completed")
	}
	if done.CompletedAt == nil {
		t.Error("CompletedAt not stamped")
	}
}

func TestUpdate_ClearsCompletedAt(t *testing.T) {
	svc, _ := newTestService()
	ctx := identityCtx("alice")
	created := addTodo(t, svc, ctx, "task")

	if _, err := svc.Complete(ctx, created.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	// Un-completing clears the completion timestamp.
	reopened, err := svc.Update(ctx, created.ID, models.UpdateTodoRequest{
		Title: "task", Description: "something to do", IsCompleted: false,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if reopened.IsCompleted {
		t.Error("task still completed")
	}
	if reopened.CompletedAt != nil {
		t.Error("CompletedAt not cleared on un-completion")
	}
}

func TestUpdate_PreservesCompletedAtWhenStillCompleted(t *testing.T) {
	svc, _ := newTestService()
	ctx := identityCtx("alice")
	created := addTodo(t, svc, ctx, "task")

	done, err := svc.Complete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	stamped := *done.CompletedAt

	updated, err := svc.Update(ctx, created.ID, models.UpdateTodoRequest{
		Title: "renamed", Description: "something to do", IsCompleted: true,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.CompletedAt == nil || !updated.CompletedAt.Equal(stamped) {
		t.Error("CompletedAt changed on an update that kept the task completed")
	}
}

func TestDelete_SoftDeletes(t *testing.T) {
	svc, todos := newTestService()
	ctx := identityCtx("alice")
	created := addTodo(t, svc, ctx, "task")
	originalCreatedAt := todos.todos[0].CreatedAt

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// Invisible to normal reads.
	if _, err := svc.Get(ctx, created.ID); asAppErr(t, err).Code != 404 {
		t.Error("deleted task still readable")
	}
	listed, err := svc.List(ctx, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 0 {
		t.Error("deleted task still listed")
	}

	// Row retained with the original CreatedAt.
	row := todos.todos[0]
	if !row.IsDeleted {
		t.Error("row not flagged deleted")
	}
	if !row.CreatedAt.Equal(originalCreatedAt) {
		t.Error("CreatedAt changed on soft delete")
	}
}

func TestExport_IncludesSoftDeletedRows(t *testing.T) {
	svc, _ := newTestService()
	ctx := identityCtx("alice")

	kept := addTodo(t, svc, ctx, "kept")
	removed := addTodo(t, svc, ctx, "removed")
	if err := svc.Delete(ctx, removed.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	snapshot, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if snapshot.User.Username != "alice" {
		t.Errorf("export user = %q", snapshot.User.Username)
	}
	if len(snapshot.Todos) != 2 {
		t.Fatalf("export has %d todos, want 2", len(snapshot.Todos))
	}
	byID := map[int64]models.ExportTodo{}
	for _, td := range snapshot.Todos {
		byID[td.ID] = td
	}
	if byID[kept.ID].Deleted {
		t.Error("live todo marked deleted in export")
	}
	if !byID[removed.ID].Deleted {
		t.Error("soft-deleted todo not marked in export")
	}
}
