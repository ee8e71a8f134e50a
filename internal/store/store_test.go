package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/foodgram/internal/db"
	"github.com/vbonduro/foodgram/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })
	return d
}

func createUser(t *testing.T, d *sql.DB, username string) *domain.User {
	t.Helper()
	u, err := NewUserStore(d).Create(context.Background(), &domain.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "First",
		LastName:     "Last",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return u
}

func createIngredient(t *testing.T, d *sql.DB, name, unit string) *domain.Ingredient {
	t.Helper()
	ctx := context.Background()
	s := NewIngredientStore(d)
	u, err := s.UnitByName(ctx, unit)
	require.NoError(t, err)
	ing, _, err := s.Create(ctx, name, u.ID)
	require.NoError(t, err)
	return ing
}

// createRecipe stores a recipe tagged "breakfast" with the given lines.
func createRecipe(t *testing.T, d *sql.DB, author *domain.User, name string, lines ...domain.IngredientAmount) int64 {
	t.Helper()
	id, err := NewRecipeStore(d).Create(context.Background(), author.ID, domain.RecipeDraft{
		Name:        name,
		Text:        "Mix and bake.",
		CookingTime: 30,
		TagIDs:      []int64{breakfastTagID(t, d)},
		Ingredients: lines,
	}, fmt.Sprintf("%s.png", name))
	require.NoError(t, err)
	return id
}

func breakfastTagID(t *testing.T, d *sql.DB) int64 {
	t.Helper()
	var id int64
	require.NoError(t, d.QueryRow("SELECT id FROM tags WHERE slug = 'breakfast'").Scan(&id))
	return id
}

func amount(ing *domain.Ingredient, n int) domain.IngredientAmount {
	return domain.IngredientAmount{IngredientID: ing.ID, Amount: n}
}
