package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/foodgram/internal/domain"
)

// recipeSet is a per-user set of recipes kept in a (user_id, recipe_id)
// table. Favorites and the shopping cart share it.
type recipeSet struct {
	db    *sql.DB
	table string
	what  string
}

// Add puts recipeID into the user's set. Adding a recipe twice yields
// domain.ErrConflict.
func (s *recipeSet) Add(ctx context.Context, userID, recipeID int64) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO `+s.table+` (user_id, recipe_id) VALUES (?, ?)
		ON CONFLICT (user_id, recipe_id) DO NOTHING
	`, userID, recipeID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("recipe %d: %w", recipeID, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to add to %s: %w", s.what, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recipe already in %s: %w", s.what, domain.ErrConflict)
	}
	return nil
}

// Remove takes recipeID out of the user's set. Removing a recipe that is not
// there yields domain.ErrAbsent.
func (s *recipeSet) Remove(ctx context.Context, userID, recipeID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM `+s.table+` WHERE user_id = ? AND recipe_id = ?
	`, userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to remove from %s: %w", s.what, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recipe not in %s: %w", s.what, domain.ErrAbsent)
	}
	return nil
}

func (s *recipeSet) Contains(ctx context.Context, userID, recipeID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM `+s.table+` WHERE user_id = ? AND recipe_id = ?
	`, userID, recipeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", s.what, err)
	}
	return n > 0, nil
}

type FavoriteStore struct {
	recipeSet
}

func NewFavoriteStore(db *sql.DB) *FavoriteStore {
	return &FavoriteStore{recipeSet{db: db, table: "favorites", what: "favorites"}}
}

type CartStore struct {
	recipeSet
}

func NewCartStore(db *sql.DB) *CartStore {
	return &CartStore{recipeSet{db: db, table: "cart_entries", what: "shopping cart"}}
}

// Lines returns every ingredient line of every recipe in the user's cart.
func (s *CartStore) Lines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ri.recipe_id, i.id, i.name, u.name, ri.amount
		FROM cart_entries c
		JOIN recipe_ingredients ri ON ri.recipe_id = c.recipe_id
		JOIN ingredients i ON i.id = ri.ingredient_id
		JOIN units u ON u.id = i.unit_id
		WHERE c.user_id = ?
		ORDER BY c.id ASC, ri.id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	defer closeRows(rows)

	var lines []domain.CartLine
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.RecipeID, &l.IngredientID, &l.IngredientName, &l.UnitName, &l.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}
	return lines, nil
}
