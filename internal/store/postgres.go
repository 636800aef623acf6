package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ersinakyuz/todoapp-backend/internal/models"
)

// ErrUsernameTaken is reported when an insert collides with a live
// (non-deleted) username.
var ErrUsernameTaken = errors.New("username already taken")

const pgUniqueViolation = "23505"

// PostgresStore handles user and todo CRUD against PostgreSQL. Every read
// carries the is_deleted = FALSE predicate; rows are never physically
// removed by the application.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the schema if it doesn't exist. Username uniqueness is
// a partial index so a soft-deleted username can be re-registered and
// concurrent registrations cannot race past the service-level check.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			username      VARCHAR(50)   NOT NULL,
			password_hash VARCHAR(70)   NOT NULL,
			first_name    VARCHAR(50)   NOT NULL,
			last_name     VARCHAR(50)   NOT NULL,
			created_at    TIMESTAMPTZ   NOT NULL,
			updated_at    TIMESTAMPTZ   NOT NULL,
			is_deleted    BOOLEAN       NOT NULL DEFAULT FALSE
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_username_live
			ON users (username) WHERE NOT is_deleted`,
		`CREATE TABLE IF NOT EXISTS todos (
			id           BIGSERIAL PRIMARY KEY,
			title        VARCHAR(100)  NOT NULL,
			description  VARCHAR(1000) NOT NULL,
			is_completed BOOLEAN       NOT NULL DEFAULT FALSE,
			completed_at TIMESTAMPTZ,
			user_id      BIGINT        NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at   TIMESTAMPTZ   NOT NULL,
			updated_at   TIMESTAMPTZ   NOT NULL,
			is_deleted   BOOLEAN       NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS todos_user_id ON todos (user_id) WHERE NOT is_deleted`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// stampInsert and stampUpdate are the single interception point for audit
// bookkeeping: every insert and update of any entity goes through them.
// created_at is never written by an UPDATE statement.
func stampInsert(e *models.Entity) {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	e.IsDeleted = false
}

func stampUpdate(e *models.Entity) {
	e.UpdatedAt = time.Now().UTC()
}

// ── Users ────────────────────────────────────────────────

// GetByUsername returns the live user with that username, or nil.
func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, first_name, last_name, created_at, updated_at, is_deleted
		 FROM users WHERE username = $1 AND is_deleted = FALSE`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt, &u.IsDeleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	stampInsert(&u.Entity)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, first_name, last_name, created_at, updated_at, is_deleted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		u.Username, u.PasswordHash, u.FirstName, u.LastName, u.CreatedAt, u.UpdatedAt, u.IsDeleted,
	).Scan(&u.ID)
	if isUniqueViolation(err) {
		return ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, u *models.User) error {
	stampUpdate(&u.Entity)
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, first_name = $2, last_name = $3, updated_at = $4
		 WHERE id = $5 AND is_deleted = FALSE`,
		u.PasswordHash, u.FirstName, u.LastName, u.UpdatedAt, u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// SoftDelete flags the user deleted and cascades to every todo they own,
// in one transaction.
func (s *PostgresStore) SoftDelete(ctx context.Context, u *models.User) error {
	stampUpdate(&u.Entity)
	u.IsDeleted = true

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE users SET is_deleted = TRUE, updated_at = $1 WHERE id = $2`,
		u.UpdatedAt, u.ID,
	); err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE todos SET is_deleted = TRUE, updated_at = $1 WHERE user_id = $2 AND is_deleted = FALSE`,
		u.UpdatedAt, u.ID,
	); err != nil {
		return fmt.Errorf("soft delete user todos: %w", err)
	}
	return tx.Commit(ctx)
}

// ── Todos ────────────────────────────────────────────────

// ListByOwner returns the owner's live todos, optionally filtered by
// completion state. A nil filter returns all of them.
func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID int64, completed *bool) ([]models.Todo, error) {
	query := `SELECT id, title, description, is_completed, completed_at, user_id, created_at, updated_at, is_deleted
			  FROM todos WHERE user_id = $1 AND is_deleted = FALSE`
	args := []any{ownerID}
	if completed != nil {
		query += ` AND is_completed = $2`
		args = append(args, *completed)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var todos []models.Todo
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.IsCompleted, &t.CompletedAt,
			&t.UserID, &t.CreatedAt, &t.UpdatedAt, &t.IsDeleted); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// GetByID returns the live todo, or nil.
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*models.Todo, error) {
	var t models.Todo
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, description, is_completed, completed_at, user_id, created_at, updated_at, is_deleted
		 FROM todos WHERE id = $1 AND is_deleted = FALSE`, id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.IsCompleted, &t.CompletedAt,
		&t.UserID, &t.CreatedAt, &t.UpdatedAt, &t.IsDeleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get todo: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) CreateTodo(ctx context.Context, t *models.Todo) error {
	stampInsert(&t.Entity)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO todos (title, description, is_completed, completed_at, user_id, created_at, updated_at, is_deleted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		t.Title, t.Description, t.IsCompleted, t.CompletedAt, t.UserID, t.CreatedAt, t.UpdatedAt, t.IsDeleted,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateTodo(ctx context.Context, t *models.Todo) error {
	stampUpdate(&t.Entity)
	_, err := s.pool.Exec(ctx,
		`UPDATE todos SET title = $1, description = $2, is_completed = $3, completed_at = $4, updated_at = $5
		 WHERE id = $6 AND is_deleted = FALSE`,
		t.Title, t.Description, t.IsCompleted, t.CompletedAt, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	return nil
}

func (s *PostgresStore) SoftDeleteTodo(ctx context.Context, t *models.Todo) error {
	stampUpdate(&t.Entity)
	t.IsDeleted = true
	_, err := s.pool.Exec(ctx,
		`UPDATE todos SET is_deleted = TRUE, updated_at = $1 WHERE id = $2`,
		t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("soft delete todo: %w", err)
	}
	return nil
}

// ExportByOwner is the audit/export path: it returns every todo the owner
// has ever created, soft-deleted rows included, with original created_at.
func (s *PostgresStore) ExportByOwner(ctx context.Context, ownerID int64) ([]models.ExportTodo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, description, is_completed, completed_at, user_id, created_at, updated_at, is_deleted
		 FROM todos WHERE user_id = $1 ORDER BY created_at`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("export todos: %w", err)
	}
	defer rows.Close()

	var todos []models.ExportTodo
	for rows.Next() {
		var t models.ExportTodo
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.IsCompleted, &t.CompletedAt,
			&t.UserID, &t.CreatedAt, &t.UpdatedAt, &t.IsDeleted); err != nil {
			return nil, fmt.Errorf("scan export todo: %w", err)
		}
		t.Deleted = t.IsDeleted
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
