package auth

import (
	"context"
	"errors"
	"time"

	"github.com/ersinakyuz/todoapp-backend/internal/apperr"
	"github.com/ersinakyuz/todoapp-backend/internal/models"
	"github.com/ersinakyuz/todoapp-backend/internal/store"
)

const maxNameLen = 50

// UserStore defines the interface for user persistence. Lookups only see
// non-deleted rows; SoftDelete cascades to the user's todos.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
	SoftDelete(ctx context.Context, u *models.User) error
}

// AuditTrail records change-journal events. Implementations must not fail
// the surrounding request.
type AuditTrail interface {
	Record(ctx context.Context, ev models.AuditEvent)
}

// Session is the result of a successful registration or login: the signed
// token plus the user it asserts.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Service orchestrates registration, login, and account management.
type Service struct {
	users  UserStore
	tokens *TokenManager
	audit  AuditTrail
}

func NewService(users UserStore, tokens *TokenManager, audit AuditTrail) *Service {
	return &Service{users: users, tokens: tokens, audit: audit}
}

// Register creates a new user and issues a session for it.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*Session, error) {
	if req.Username == "" || req.Password == "" {
		return nil, apperr.Validation("username and password must not be empty")
	}
	if len(req.Username) > maxNameLen || len(req.FirstName) > maxNameLen || len(req.LastName) > maxNameLen {
		return nil, apperr.Validation("username, first name and last name must be at most 50 characters")
	}

	existing, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperr.Convert(err, "registration failed")
	}
	if existing != nil {
		return nil, apperr.Conflict("username is already taken")
	}

	if err := ValidatePassword(req.Password); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Convert(err, "registration failed")
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The partial unique index is authoritative under concurrent
		// registration; the existence check above is only a fast path.
		if errors.Is(err, store.ErrUsernameTaken) {
			return nil, apperr.Conflict("username is already taken")
		}
		return nil, apperr.Convert(err, "registration failed")
	}

	s.record(ctx, "user", user.ID, user.Username, "register")
	return s.issueSession(user)
}

// Login verifies the credentials and issues a session. An unknown
// username and a wrong password yield the same error so usernames cannot
// be enumerated.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*Session, error) {
	if req.Username == "" || req.Password == "" {
		return nil, apperr.Validation("username and password must not be empty")
	}

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperr.Convert(err, "login failed")
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("invalid username or password")
	}

	return s.issueSession(user)
}

// CurrentUser loads the user behind the active session principal.
func (s *Service) CurrentUser(ctx context.Context) (*models.User, error) {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return nil, apperr.Unauthorized("authentication required")
	}
	user, err := s.users.GetByUsername(ctx, id.Username)
	if err != nil {
		return nil, apperr.Convert(err, "failed to load profile")
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

// UpdateProfile changes the current user's first and last name.
func (s *Service) UpdateProfile(ctx context.Context, firstName, lastName string) error {
	if firstName == "" || lastName == "" {
		return apperr.Validation("first name and last name must not be empty")
	}
	if len(firstName) > maxNameLen || len(lastName) > maxNameLen {
		return apperr.Validation("first name and last name must be at most 50 characters")
	}

	user, err := s.CurrentUser(ctx)
	if err != nil {
		return apperr.Convert(err, "failed to update profile")
	}

	user.FirstName = firstName
	user.LastName = lastName
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Convert(err, "failed to update profile")
	}

	s.record(ctx, "user", user.ID, user.Username, "update_profile")
	return nil
}

// ChangePassword replaces the current user's password after verifying the
// current one and re-applying the policy.
func (s *Service) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperr.Validation("password fields must not be empty")
	}
	if currentPassword == newPassword {
		return apperr.Validation("new password must be different from the current password")
	}

	user, err := s.CurrentUser(ctx)
	if err != nil {
		return apperr.Convert(err, "failed to change password")
	}

	if !CheckPassword(currentPassword, user.PasswordHash) {
		return apperr.Validation("current password is incorrect")
	}
	if err := ValidatePassword(newPassword); err != nil {
		return apperr.Validation(err.Error())
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return apperr.Convert(err, "failed to change password")
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Convert(err, "failed to change password")
	}

	s.record(ctx, "user", user.ID, user.Username, "change_password")
	return nil
}

// DeleteAccount soft-deletes the current user and all of their todos.
// The caller is responsible for ending the session afterwards.
func (s *Service) DeleteAccount(ctx context.Context) error {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return apperr.Convert(err, "failed to delete account")
	}
	if err := s.users.SoftDelete(ctx, user); err != nil {
		return apperr.Convert(err, "failed to delete account")
	}

	s.record(ctx, "user", user.ID, user.Username, "delete")
	return nil
}

func (s *Service) issueSession(user *models.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Username, user.FirstName, user.LastName)
	if err != nil {
		return nil, apperr.Convert(err, "failed to issue session")
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) record(ctx context.Context, entity string, entityID int64, actor, action string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, models.AuditEvent{
		Entity:   entity,
		EntityID: entityID,
		Actor:    actor,
		Action:   action,
		At:       time.Now().UTC(),
	})
}
