package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/foodgram/internal/domain"
)

const ingredientSelect = `
	SELECT i.id, i.name, u.id, u.name
	FROM ingredients i JOIN units u ON u.id = i.unit_id
`

type IngredientStore struct {
	db *sql.DB
}

func NewIngredientStore(db *sql.DB) *IngredientStore {
	return &IngredientStore{db: db}
}

// UnitByName returns the unit called name, creating it if needed.
func (s *IngredientStore) UnitByName(ctx context.Context, name string) (*domain.Unit, error) {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO units (name) VALUES (?) ON CONFLICT (name) DO NOTHING
	`, name); err != nil {
		return nil, fmt.Errorf("failed to create unit: %w", err)
	}

	unit := &domain.Unit{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name FROM units WHERE name = ?
	`, name).Scan(&unit.ID, &unit.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return unit, nil
}

// Create inserts an ingredient. created is false when the (name, unit) pair
// already existed, in which case the existing row is returned.
func (s *IngredientStore) Create(ctx context.Context, name string, unitID int64) (ing *domain.Ingredient, created bool, err error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO ingredients (name, unit_id) VALUES (?, ?)
		ON CONFLICT (name, unit_id) DO NOTHING
	`, name, unitID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, false, fmt.Errorf("unit %d: %w", unitID, domain.ErrNotFound)
		}
		return nil, false, fmt.Errorf("failed to create ingredient: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	ing = &domain.Ingredient{}
	err = s.db.QueryRowContext(ctx, ingredientSelect+`WHERE i.name = ? AND i.unit_id = ?`, name, unitID).
		Scan(&ing.ID, &ing.Name, &ing.Unit.ID, &ing.Unit.Name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return ing, n > 0, nil
}

func (s *IngredientStore) GetByID(ctx context.Context, id int64) (*domain.Ingredient, error) {
	ing := &domain.Ingredient{}
	err := s.db.QueryRowContext(ctx, ingredientSelect+`WHERE i.id = ?`, id).
		Scan(&ing.ID, &ing.Name, &ing.Unit.ID, &ing.Unit.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}

	return ing, nil
}

func (s *IngredientStore) List(ctx context.Context) ([]*domain.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx, ingredientSelect+`ORDER BY i.name ASC, i.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return collectIngredients(rows)
}

// Search returns ingredients whose name contains query, ignoring case, in
// name order. Ranking is left to the caller.
func (s *IngredientStore) Search(ctx context.Context, query string) ([]*domain.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx, ingredientSelect+`
		WHERE instr(fold(i.name), fold(?)) > 0
		ORDER BY i.name ASC, i.id ASC
	`, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search ingredients: %w", err)
	}
	return collectIngredients(rows)
}

func (s *IngredientStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingredients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ingredients: %w", err)
	}
	return n, nil
}

func collectIngredients(rows *sql.Rows) ([]*domain.Ingredient, error) {
	defer closeRows(rows)

	ingredients := make([]*domain.Ingredient, 0)
	for rows.Next() {
		ing := &domain.Ingredient{}
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Unit.ID, &ing.Unit.Name); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingredients: %w", err)
	}

	return ingredients, nil
}
