package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/foodgram/internal/domain"
)

const userColumns = `id, email, username, first_name, last_name, password_hash, is_admin, token_version, created_at`

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.IsAdmin, &u.TokenVersion, &u.CreatedAt)
	return u, err
}

// Create inserts u and returns the stored row. A taken email or username
// yields domain.ErrConflict.
func (s *UserStore) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, username, first_name, last_name, password_hash, is_admin)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.Email, u.Username, u.FirstName, u.LastName, u.PasswordHash, u.IsAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user with this email or username: %w", domain.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// List returns a page of users ordered by id along with the total count.
func (s *UserStore) List(ctx context.Context, limit, offset int) ([]*domain.User, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users ORDER BY id ASC LIMIT ? OFFSET ?
	`, pageLimit(limit), offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func collectUsers(rows *sql.Rows) ([]*domain.User, error) {
	defer closeRows(rows)

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// SetPassword stores a new hash and invalidates every issued token.
func (s *UserStore) SetPassword(ctx context.Context, id int64, hash string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, token_version = token_version + 1 WHERE id = ?
	`, hash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectOneRow(result, "user")
}

// BumpTokenVersion invalidates every token issued for the user so far.
func (s *UserStore) BumpTokenVersion(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET token_version = token_version + 1 WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to update token version: %w", err)
	}
	return expectOneRow(result, "user")
}

func expectOneRow(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
