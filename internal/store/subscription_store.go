package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/foodgram/internal/domain"
)

type SubscriptionStore struct {
	db *sql.DB
}

func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// Add subscribes userID to authorID. An existing subscription yields
// domain.ErrConflict.
func (s *SubscriptionStore) Add(ctx context.Context, userID, authorID int64) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, author_id) VALUES (?, ?)
		ON CONFLICT (user_id, author_id) DO NOTHING
	`, userID, authorID)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("subscription: %w", domain.ErrConflict)
	}
	return nil
}

// Remove deletes the subscription. A missing one yields domain.ErrAbsent.
func (s *SubscriptionStore) Remove(ctx context.Context, userID, authorID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM subscriptions WHERE user_id = ? AND author_id = ?
	`, userID, authorID)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("subscription: %w", domain.ErrAbsent)
	}
	return nil
}

func (s *SubscriptionStore) Exists(ctx context.Context, userID, authorID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM subscriptions WHERE user_id = ? AND author_id = ?
	`, userID, authorID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}
	return n > 0, nil
}

// ListAuthors returns a page of the users userID is subscribed to, in the
// order the subscriptions were made, and the total count.
func (s *SubscriptionStore) ListAuthors(ctx context.Context, userID int64, limit, offset int) ([]*domain.User, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM subscriptions WHERE user_id = ?
	`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash,
		       u.is_admin, u.token_version, u.created_at
		FROM subscriptions s JOIN users u ON u.id = s.author_id
		WHERE s.user_id = ?
		ORDER BY s.id ASC
		LIMIT ? OFFSET ?
	`, userID, pageLimit(limit), offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
