package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/foodgram/internal/domain"
)

type TagStore struct {
	db *sql.DB
}

func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

func (s *TagStore) Create(ctx context.Context, name, color, slug string) (*domain.Tag, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (name, color, slug) VALUES (?, ?, ?)
	`, name, color, slug)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("tag %q: %w", slug, domain.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *TagStore) GetByID(ctx context.Context, id int64) (*domain.Tag, error) {
	tag := &domain.Tag{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, color, slug FROM tags WHERE id = ?
	`, id).Scan(&tag.ID, &tag.Name, &tag.Color, &tag.Slug)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	return tag, nil
}

func (s *TagStore) List(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, color, slug FROM tags ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer closeRows(rows)

	var tags []*domain.Tag
	for rows.Next() {
		tag := &domain.Tag{}
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Color, &tag.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return tags, nil
}
