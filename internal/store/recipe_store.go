package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vbonduro/foodgram/internal/domain"
)

const recipeSelect = `
	SELECT r.id, r.author_id, r.name, r.text, r.image, r.cooking_time, r.created_at,
	       u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash,
	       u.is_admin, u.token_version, u.created_at
	FROM recipes r JOIN users u ON u.id = r.author_id
`

type RecipeStore struct {
	db *sql.DB
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

func scanRecipe(row rowScanner) (*domain.Recipe, error) {
	r := &domain.Recipe{Author: &domain.User{}}
	a := r.Author
	err := row.Scan(&r.ID, &r.AuthorID, &r.Name, &r.Text, &r.Image, &r.CookingTime, &r.CreatedAt,
		&a.ID, &a.Email, &a.Username, &a.FirstName, &a.LastName, &a.PasswordHash,
		&a.IsAdmin, &a.TokenVersion, &a.CreatedAt)
	return r, err
}

// Create stores a recipe with its tags and ingredient lines in one
// transaction and returns the new id. An unknown tag or ingredient id yields
// domain.ErrNotFound.
func (s *RecipeStore) Create(ctx context.Context, authorID int64, d domain.RecipeDraft, imageKey string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	result, err := tx.ExecContext(ctx, `
		INSERT INTO recipes (author_id, name, text, image, cooking_time) VALUES (?, ?, ?, ?, ?)
	`, authorID, d.Name, d.Text, imageKey, d.CookingTime)
	if err != nil {
		return 0, fmt.Errorf("failed to create recipe: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := writeRecipeRelations(ctx, tx, id, d); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit recipe: %w", err)
	}
	return id, nil
}

// Update replaces the recipe's fields, tags and ingredient lines.
func (s *RecipeStore) Update(ctx context.Context, id int64, d domain.RecipeDraft, imageKey string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	result, err := tx.ExecContext(ctx, `
		UPDATE recipes SET name = ?, text = ?, image = ?, cooking_time = ? WHERE id = ?
	`, d.Name, d.Text, imageKey, d.CookingTime, id)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	if err := expectOneRow(result, "recipe"); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear recipe tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}

	if err := writeRecipeRelations(ctx, tx, id, d); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe: %w", err)
	}
	return nil
}

func writeRecipeRelations(ctx context.Context, tx execer, recipeID int64, d domain.RecipeDraft) error {
	for _, tagID := range d.TagIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)
		`, recipeID, tagID); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("tag %d: %w", tagID, domain.ErrNotFound)
			}
			return fmt.Errorf("failed to add recipe tag: %w", err)
		}
	}
	for _, line := range d.Ingredients {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES (?, ?, ?)
		`, recipeID, line.IngredientID, line.Amount); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("ingredient %d: %w", line.IngredientID, domain.ErrNotFound)
			}
			if isUniqueViolation(err) {
				return fmt.Errorf("ingredient %d listed twice: %w", line.IngredientID, domain.ErrConflict)
			}
			return fmt.Errorf("failed to add recipe ingredient: %w", err)
		}
	}
	return nil
}

func (s *RecipeStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM recipes WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return expectOneRow(result, "recipe")
}

// GetByID returns the recipe with author, tags and ingredient lines loaded,
// or nil if it does not exist.
func (s *RecipeStore) GetByID(ctx context.Context, id int64) (*domain.Recipe, error) {
	r, err := scanRecipe(s.db.QueryRowContext(ctx, recipeSelect+`WHERE r.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	if err := s.loadRelations(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns a page of recipes matching f, newest first, and the total
// number of matches.
func (s *RecipeStore) List(ctx context.Context, f domain.RecipeFilter) ([]*domain.Recipe, int, error) {
	where, args := recipeWhere(f)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes r`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	pageArgs := append(append([]any{}, args...), pageLimit(f.Limit), f.Offset)
	rows, err := s.db.QueryContext(ctx, recipeSelect+where+`
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ? OFFSET ?
	`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes, err := collectRecipes(rows)
	if err != nil {
		return nil, 0, err
	}
	for _, r := range recipes {
		if err := s.loadRelations(ctx, r); err != nil {
			return nil, 0, err
		}
	}
	return recipes, total, nil
}

func recipeWhere(f domain.RecipeFilter) (string, []any) {
	var conds []string
	var args []any

	if f.AuthorID != 0 {
		conds = append(conds, `r.author_id = ?`)
		args = append(args, f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		conds = append(conds, `r.id IN (
			SELECT rt.recipe_id FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE t.slug IN (`+placeholders(len(f.TagSlugs))+`))`)
		for _, slug := range f.TagSlugs {
			args = append(args, slug)
		}
	}
	if f.FavoritedBy != 0 {
		conds = append(conds, `r.id IN (SELECT recipe_id FROM favorites WHERE user_id = ?)`)
		args = append(args, f.FavoritedBy)
	}
	if f.InCartOf != 0 {
		conds = append(conds, `r.id IN (SELECT recipe_id FROM cart_entries WHERE user_id = ?)`)
		args = append(args, f.InCartOf)
	}

	if len(conds) == 0 {
		return " ", nil
	}
	return " WHERE " + strings.Join(conds, " AND ") + " ", args
}

func collectRecipes(rows *sql.Rows) ([]*domain.Recipe, error) {
	defer closeRows(rows)

	recipes := make([]*domain.Recipe, 0)
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipes: %w", err)
	}
	return recipes, nil
}

func (s *RecipeStore) loadRelations(ctx context.Context, r *domain.Recipe) error {
	tags, err := s.tagsFor(ctx, r.ID)
	if err != nil {
		return err
	}
	lines, err := s.ingredientsFor(ctx, r.ID)
	if err != nil {
		return err
	}
	r.Tags = tags
	r.Ingredients = lines
	return nil
}

func (s *RecipeStore) tagsFor(ctx context.Context, recipeID int64) ([]domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, t.slug
		FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id = ?
		ORDER BY t.name ASC, t.id ASC
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipe tags: %w", err)
	}
	defer closeRows(rows)

	tags := make([]domain.Tag, 0)
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan recipe tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipe tags: %w", err)
	}
	return tags, nil
}

func (s *RecipeStore) ingredientsFor(ctx context.Context, recipeID int64) ([]domain.RecipeIngredient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.name, u.id, u.name, ri.amount
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		JOIN units u ON u.id = i.unit_id
		WHERE ri.recipe_id = ?
		ORDER BY ri.id ASC
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipe ingredients: %w", err)
	}
	defer closeRows(rows)

	lines := make([]domain.RecipeIngredient, 0)
	for rows.Next() {
		var l domain.RecipeIngredient
		if err := rows.Scan(&l.Ingredient.ID, &l.Ingredient.Name, &l.Ingredient.Unit.ID, &l.Ingredient.Unit.Name, &l.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipe ingredients: %w", err)
	}
	return lines, nil
}
