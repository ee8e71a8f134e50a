package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/foodgram/internal/domain"
)

func names(ings []*domain.Ingredient) []string {
	out := make([]string, len(ings))
	for i, ing := range ings {
		out[i] = ing.Name
	}
	return out
}

func TestSearchIngredients_PrefixFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.ingredient(t, "brown sugar", "g")
	env.ingredient(t, "sugar", "g")
	env.ingredient(t, "salt", "g")
	env.ingredient(t, "Sugar syrup", "ml")

	got, err := env.catalog.SearchIngredients(ctx, "sug")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sugar syrup", "sugar", "brown sugar"}, names(got))

	all, err := env.catalog.SearchIngredients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := env.catalog.SearchIngredients(ctx, "pepper")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchIngredients_SecretIngredients(t *testing.T) {
	env := newTestEnv(t)
	env.ingredient(t, "Secret ingredient 1", "g")
	env.ingredient(t, "Secret ingredient 2", "g")

	got, err := env.catalog.SearchIngredients(context.Background(), "Secret")
	require.NoError(t, err)
	assert.Equal(t, []string{"Secret ingredient 1", "Secret ingredient 2"}, names(got))
}

func TestGetIngredientAndTag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	salt := env.ingredient(t, "salt", "g")

	got, err := env.catalog.GetIngredient(ctx, salt.ID)
	require.NoError(t, err)
	assert.Equal(t, "g", got.Unit.Name)

	_, err = env.catalog.GetIngredient(ctx, 999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	tags, err := env.catalog.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 3)

	tag, err := env.catalog.GetTag(ctx, tags[0].ID)
	require.NoError(t, err)
	assert.Equal(t, tags[0].Slug, tag.Slug)

	_, err = env.catalog.GetTag(ctx, 999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestImportIngredients(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.ingredient(t, "salt", "g")

	data := `[
		{"name": "salt", "measurement_unit": "g"},
		{"name": "milk", "measurement_unit": "ml"},
		{"name": "water", "measurement_unit": "ml"},
		{"name": "", "measurement_unit": "g"},
		{"name": "nameless unit"}
	]`
	res, err := env.catalog.ImportIngredients(ctx, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Found: 5, Added: 2, Skipped: 2, Total: 3}, res)

	again, err := env.catalog.ImportIngredients(ctx, strings.NewReader(data))
	require.NoError(t, err)
	assert.Zero(t, again.Added)

	_, err = env.catalog.ImportIngredients(ctx, strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestImportTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	data := `[
		{"name": "Dessert", "color": "#ff00aa", "slug": "dessert"},
		{"name": "Lunch again", "color": "#49B64E", "slug": "lunch"},
		{"name": "Bad colour", "color": "pink", "slug": "pink"},
		{"name": "Bad slug", "color": "#000000", "slug": "not a slug"},
		{"name": "", "color": "#000000", "slug": "nameless"}
	]`
	res, err := env.catalog.ImportTags(ctx, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Found: 5, Added: 1, Skipped: 3, Total: 4}, res)

	tags, err := env.catalog.ListTags(ctx)
	require.NoError(t, err)
	var dessert *domain.Tag
	for _, tg := range tags {
		if tg.Slug == "dessert" {
			dessert = tg
		}
	}
	require.NotNil(t, dessert)
	assert.Equal(t, "#FF00AA", dessert.Color)

	_, err = env.catalog.ImportTags(ctx, strings.NewReader(`{"name": "x"}`))
	assert.Error(t, err)
}
