package todo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ersinakyuz/todoapp-backend/internal/apperr"
	"github.com/ersinakyuz/todoapp-backend/internal/models"
)

// FileStore defines the interface for export artifact storage.
type FileStore interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Handler holds task HTTP handlers.
type Handler struct {
	svc   *Service
	files FileStore
}

func NewHandler(svc *Service, files FileStore) *Handler {
	return &Handler{svc: svc, files: files}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	e := apperr.From(err)
	writeJSON(w, e.Code, map[string]string{"error": e.Message})
}

// List returns the current user's tasks; ?completed=true|false filters by
// completion state.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var completed *bool
	if v := r.URL.Query().Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, apperr.Validation("completed must be true or false"))
			return
		}
		completed = &b
	}

	todos, err := h.svc.List(r.Context(), completed)
	if err != nil {
		writeError(w, err)
		return
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	writeJSON(w, http.StatusOK, todos)
}

// Get returns a single task.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := todoID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Create adds a task for the current user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}
	t, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Update rewrites a task.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := todoID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req models.UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}
	t, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Complete marks a task done.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := todoID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	t, err := h.svc.Complete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Delete soft-deletes a task.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := todoID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// Export snapshots the account (soft-deleted tasks included), archives
// the snapshot to object storage, and streams it back.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.svc.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		writeError(w, apperr.Internal("failed to export account"))
		return
	}

	key := fmt.Sprintf("%d/export-%s.json", snapshot.User.ID, uuid.New().String())
	if err := h.files.Put(r.Context(), key, data); err != nil {
		// The archive copy is best-effort; the download still succeeds.
		log.Printf("export upload error: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=account-export.json")
	w.Write(data)
}

func todoID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperr.Validation("invalid task id")
	}
	return id, nil
}
