package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ersinakyuz/todoapp-backend/internal/apperr"
	"github.com/ersinakyuz/todoapp-backend/internal/models"
)

// Handler holds auth and account HTTP handlers.
type Handler struct {
	svc      *Service
	sessions *SessionStore
}

func NewHandler(svc *Service, sessions *SessionStore) *Handler {
	return &Handler{svc: svc, sessions: sessions}
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

// Register creates a new user and signs it in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	session, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.bindSession(w, r, session); err != nil {
		writeError(w, apperr.Internal("session creation failed"))
		return
	}

	writeJSON(w, http.StatusCreated, loginResponse(session))
}

// Login authenticates a user and establishes both session channels.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	session, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.bindSession(w, r, session); err != nil {
		writeError(w, apperr.Internal("session creation failed"))
		return
	}

	writeJSON(w, http.StatusOK, loginResponse(session))
}

// Logout ends the principal session and clears both cookies. The bearer
// token itself is stateless and simply expires.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSession(w, r)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.CurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile changes the current user's name fields.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}
	if err := h.svc.UpdateProfile(r.Context(), req.FirstName, req.LastName); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
}

// ChangePassword replaces the current user's password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}
	if err := h.svc.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// DeleteAccount soft-deletes the current user and ends the session.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAccount(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.clearSession(w, r)
	writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}

// bindSession sets the two credential channels: the signed token in a
// strict cookie with the token's own expiry, and an independent principal
// session cookie. They are provisioned together but not linked.
func (h *Handler) bindSession(w http.ResponseWriter, r *http.Request, session *Session) error {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		Expires:  session.ExpiresAt,
	})

	sid, err := h.sessions.Create(r.Context(), session.User.Username)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})
	return nil
}

// clearSession removes both cookies together; clearing only one would
// leave a half-open session.
func (h *Handler) clearSession(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		h.sessions.Delete(r.Context(), cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func loginResponse(session *Session) map[string]any {
	return map[string]any{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"user":       session.User,
	}
}
