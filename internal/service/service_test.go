package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/foodgram/internal/auth"
	"github.com/vbonduro/foodgram/internal/db"
	"github.com/vbonduro/foodgram/internal/document/fpdf"
	"github.com/vbonduro/foodgram/internal/domain"
	"github.com/vbonduro/foodgram/internal/mediastore"
	"github.com/vbonduro/foodgram/internal/store"
)

// pdfText is s as an uncompressed PDF shows it in a UTF-8 font: big-endian
// UTF-16 without a byte order mark.
func pdfText(s string) string {
	var b []byte
	for _, u := range utf16.Encode([]rune(s)) {
		b = append(b, byte(u>>8), byte(u))
	}
	return string(b)
}

// stubMediaStore is a minimal in-memory mediastore.MediaStore for tests.
type stubMediaStore struct {
	mu      sync.Mutex
	saved   map[string][]byte
	next    int
	saveErr error
}

func newStubMediaStore() *stubMediaStore {
	return &stubMediaStore{saved: make(map[string][]byte)}
}

func (s *stubMediaStore) Save(_ context.Context, _ string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, _ := io.ReadAll(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	key := "recipes/" + strconv.Itoa(s.next) + ".png"
	s.saved[key] = data
	return key, nil
}

func (s *stubMediaStore) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.saved[key]
	if !ok {
		return nil, "", mediastore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), "image/png", nil
}

func (s *stubMediaStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.saved[key]; !ok {
		return mediastore.ErrNotFound
	}
	delete(s.saved, key)
	return nil
}

func (s *stubMediaStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.saved[key]
	return ok
}

type testEnv struct {
	db      *sql.DB
	users   *UserService
	recipes *RecipeService
	catalog *CatalogService
	media   *stubMediaStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	media := newStubMediaStore()
	recipeStore := store.NewRecipeStore(d)
	ingredientStore := store.NewIngredientStore(d)
	tagStore := store.NewTagStore(d)

	return &testEnv{
		db:    d,
		media: media,
		users: NewUserService(store.NewUserStore(d), store.NewSubscriptionStore(d), recipeStore, tokens, logger),
		recipes: NewRecipeService(recipeStore, ingredientStore, tagStore,
			store.NewFavoriteStore(d), store.NewCartStore(d), media, fpdf.New(fpdf.WithCompression(false)), logger),
		catalog: NewCatalogService(tagStore, ingredientStore, logger),
	}
}

func (e *testEnv) register(t *testing.T, username string) *domain.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), Registration{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "s3cret-pass",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) ingredient(t *testing.T, name, unit string) *domain.Ingredient {
	t.Helper()
	ctx := context.Background()
	s := store.NewIngredientStore(e.db)
	un, err := s.UnitByName(ctx, unit)
	require.NoError(t, err)
	ing, _, err := s.Create(ctx, name, un.ID)
	require.NoError(t, err)
	return ing
}

func (e *testEnv) tagID(t *testing.T, slug string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, e.db.QueryRow("SELECT id FROM tags WHERE slug = ?", slug).Scan(&id))
	return id
}

func (e *testEnv) draft(t *testing.T, name string, lines ...domain.IngredientAmount) domain.RecipeDraft {
	t.Helper()
	return domain.RecipeDraft{
		Name:        name,
		Text:        "Cook it.",
		CookingTime: 10,
		Image:       &domain.ImageUpload{Data: []byte("png"), MimeType: "image/png"},
		TagIDs:      []int64{e.tagID(t, "lunch")},
		Ingredients: lines,
	}
}

func (e *testEnv) recipe(t *testing.T, author *domain.User, name string, lines ...domain.IngredientAmount) *domain.Recipe {
	t.Helper()
	r, err := e.recipes.Create(context.Background(), author, e.draft(t, name, lines...))
	require.NoError(t, err)
	return r
}

func line(ing *domain.Ingredient, amount int) domain.IngredientAmount {
	return domain.IngredientAmount{IngredientID: ing.ID, Amount: amount}
}
