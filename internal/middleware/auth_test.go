package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ersinakyuz/todoapp-backend/internal/auth"
)

type fakeSessions struct {
	sessions map[string]string
}

func (f *fakeSessions) Get(_ context.Context, sessionID string) (string, error) {
	return f.sessions[sessionID], nil
}

func newTestChain(t *testing.T) (*auth.TokenManager, *fakeSessions, http.Handler, *auth.Identity) {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", "todoapp", "todoapp-web", 24)
	sessions := &fakeSessions{sessions: map[string]string{"sid-1": "alice"}}

	var seen auth.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFrom(r.Context())
		if !ok {
			t.Error("handler reached without identity")
		}
		seen = id
		w.WriteHeader(http.StatusOK)
	})
	return tokens, sessions, RequireAuth(tokens, sessions)(next), &seen
}

func TestRequireAuth_BearerToken(t *testing.T) {
	tokens, _, handler, seen := newTestChain(t)
	token, _, err := tokens.Issue(42, "alice", "Alice", "Smith")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if seen.UserID != 42 || seen.Username != "alice" {
		t.Errorf("identity = %+v", seen)
	}
}

func TestRequireAuth_TokenCookie(t *testing.T) {
	tokens, _, handler, seen := newTestChain(t)
	token, _, err := tokens.Issue(42, "alice", "Alice", "Smith")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.TokenCookie, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if seen.Username != "alice" {
		t.Errorf("identity = %+v", seen)
	}
}

func TestRequireAuth_PrincipalCookie(t *testing.T) {
	_, _, handler, seen := newTestChain(t)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "sid-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if seen.Username != "alice" || seen.UserID != 0 {
		t.Errorf("identity = %+v", seen)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(r *http.Request)
	}{
		{"no credentials", func(r *http.Request) {}},
		{"garbage bearer token", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer not.a.token")
		}},
		{"malformed header", func(r *http.Request) {
			r.Header.Set("Authorization", "token abc")
		}},
		{"unknown session", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "sid-unknown"})
		}},
		{"invalid bearer does not fall back to valid session", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer not.a.token")
			r.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "sid-1"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, handler, _ := newTestChain(t)
			req := httptest.NewRequest("GET", "/", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	issuer := auth.NewTokenManager("test-secret", "todoapp", "todoapp-web", -1)
	token, _, err := issuer.Issue(42, "alice", "Alice", "Smith")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, _, handler, _ := newTestChain(t)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
