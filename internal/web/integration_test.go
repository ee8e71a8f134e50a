package web_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/foodgram/internal/auth"
	"github.com/vbonduro/foodgram/internal/db"
	"github.com/vbonduro/foodgram/internal/document/fpdf"
	"github.com/vbonduro/foodgram/internal/mediastore"
	"github.com/vbonduro/foodgram/internal/service"
	"github.com/vbonduro/foodgram/internal/store"
	"github.com/vbonduro/foodgram/internal/web"
)

// minimalPNG carries the PNG signature, which is all
// http.DetectContentType needs.
var minimalPNG = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}

var pngDataURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString(minimalPNG)

// memMediaStore is a simple in-memory implementation of mediastore.MediaStore.
type memMediaStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	mimes   map[string]string
	counter int
}

func newMemMediaStore() *memMediaStore {
	return &memMediaStore{
		data:  make(map[string][]byte),
		mimes: make(map[string]string),
	}
}

func (m *memMediaStore) Save(_ context.Context, mimeType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	key := fmt.Sprintf("recipes/%d.png", m.counter)
	m.data[key] = data
	m.mimes[key] = mimeType
	return key, nil
}

func (m *memMediaStore) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, "", mediastore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), m.mimes[key], nil
}

func (m *memMediaStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.mimes, key)
	return nil
}

// pdfText is s as an uncompressed PDF shows it in a UTF-8 font: big-endian
// UTF-16 without a byte order mark.
func pdfText(s string) string {
	var b []byte
	for _, u := range utf16.Encode([]rune(s)) {
		b = append(b, byte(u>>8), byte(u))
	}
	return string(b)
}

type apiClient struct {
	t     *testing.T
	srv   *httptest.Server
	token string
}

// newTestServer sets up a real web.Server backed by in-memory SQLite with a
// few ingredients loaded.
func newTestServer(t *testing.T) *apiClient {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	media := newMemMediaStore()

	recipeStore := store.NewRecipeStore(database)
	ingredientStore := store.NewIngredientStore(database)
	tagStore := store.NewTagStore(database)

	users := service.NewUserService(store.NewUserStore(database), store.NewSubscriptionStore(database), recipeStore, tokens, logger)
	recipes := service.NewRecipeService(recipeStore, ingredientStore, tagStore,
		store.NewFavoriteStore(database), store.NewCartStore(database), media, fpdf.New(fpdf.WithCompression(false)), logger)
	catalog := service.NewCatalogService(tagStore, ingredientStore, logger)

	_, err = catalog.ImportIngredients(context.Background(), strings.NewReader(`[
		{"name": "flour", "measurement_unit": "g"},
		{"name": "sugar", "measurement_unit": "g"},
		{"name": "brown sugar", "measurement_unit": "g"}
	]`))
	require.NoError(t, err)

	srv := httptest.NewServer(web.NewServer(users, recipes, catalog, media, web.Options{}, logger))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return &apiClient{t: t, srv: srv}
}

func (c *apiClient) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, rd)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, data
}

func (c *apiClient) expect(status int, method, path string, body any) []byte {
	c.t.Helper()
	resp, data := c.do(method, path, body)
	require.Equal(c.t, status, resp.StatusCode, "%s %s: %s", method, path, data)
	return data
}

func (c *apiClient) decode(data []byte, v any) {
	c.t.Helper()
	require.NoError(c.t, json.Unmarshal(data, v))
}

// signUp registers a user, logs in and keeps the token on the client.
func (c *apiClient) signUp(username string) int64 {
	c.t.Helper()
	var u struct {
		ID int64 `json:"id"`
	}
	c.decode(c.expect(http.StatusCreated, "POST", "/api/users/", map[string]string{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "Test",
		"last_name":  "User",
		"password":   "s3cret-pass",
	}), &u)

	var tok struct {
		AuthToken string `json:"auth_token"`
	}
	c.decode(c.expect(http.StatusOK, "POST", "/api/auth/token/login/", map[string]string{
		"email":    username + "@example.com",
		"password": "s3cret-pass",
	}), &tok)
	c.token = tok.AuthToken
	return u.ID
}

type idName struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (c *apiClient) ingredientID(name string) int64 {
	c.t.Helper()
	var ings []idName
	c.decode(c.expect(http.StatusOK, "GET", "/api/ingredients/?name="+name, nil), &ings)
	require.NotEmpty(c.t, ings)
	return ings[0].ID
}

func (c *apiClient) tagIDs() []int64 {
	c.t.Helper()
	var tags []idName
	c.decode(c.expect(http.StatusOK, "GET", "/api/tags/", nil), &tags)
	ids := make([]int64, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}

func (c *apiClient) createRecipe(name string, lines ...map[string]int64) int64 {
	c.t.Helper()
	var rec idName
	c.decode(c.expect(http.StatusCreated, "POST", "/api/recipes/", map[string]any{
		"ingredients":  lines,
		"tags":         c.tagIDs()[:1],
		"image":        pngDataURI,
		"name":         name,
		"text":         "Mix and bake.",
		"cooking_time": 20,
	}), &rec)
	return rec.ID
}

func TestIntegration_HealthAndMetrics(t *testing.T) {
	c := newTestServer(t)
	c.expect(http.StatusOK, "GET", "/healthz", nil)
	body := c.expect(http.StatusOK, "GET", "/metrics", nil)
	assert.Contains(t, string(body), "foodgram_http_requests_total")
}

func TestIntegration_RegisterAndLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	c := newTestServer(t)
	id := c.signUp("anna")

	var me struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	c.decode(c.expect(http.StatusOK, "GET", "/api/users/me/", nil), &me)
	assert.Equal(t, id, me.ID)
	assert.Equal(t, "anna", me.Username)

	c.expect(http.StatusBadRequest, "POST", "/api/users/", map[string]string{
		"email": "anna@example.com", "username": "anna2", "first_name": "a", "last_name": "b", "password": "s3cret-pass",
	})

	c.expect(http.StatusNoContent, "POST", "/api/auth/token/logout/", nil)
	c.expect(http.StatusUnauthorized, "GET", "/api/users/me/", nil)

	c.token = ""
	c.expect(http.StatusUnauthorized, "GET", "/api/users/me/", nil)
	c.expect(http.StatusOK, "GET", "/api/users/", nil)
}

func TestIntegration_IngredientSearchRanksPrefixFirst(t *testing.T) {
	c := newTestServer(t)

	var ings []struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	}
	c.decode(c.expect(http.StatusOK, "GET", "/api/ingredients/?name=SUG", nil), &ings)
	require.Len(t, ings, 2)
	assert.Equal(t, "Sugar", ings[0].Name)
	assert.Equal(t, "Brown sugar", ings[1].Name)
	assert.Equal(t, "g", ings[0].MeasurementUnit)

	c.expect(http.StatusNotFound, "GET", "/api/ingredients/999/", nil)
}

func TestIntegration_RecipeLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	c := newTestServer(t)
	c.signUp("chef")
	flour := c.ingredientID("flour")

	id := c.createRecipe("Bread", map[string]int64{"id": flour, "amount": 500})

	var rec struct {
		Name        string `json:"name"`
		Image       string `json:"image"`
		Ingredients []struct {
			Name   string `json:"name"`
			Amount int    `json:"amount"`
		} `json:"ingredients"`
		IsFavorited bool `json:"is_favorited"`
	}
	c.decode(c.expect(http.StatusOK, "GET", fmt.Sprintf("/api/recipes/%d/", id), nil), &rec)
	assert.Equal(t, "Bread", rec.Name)
	require.Len(t, rec.Ingredients, 1)
	assert.Equal(t, "Flour", rec.Ingredients[0].Name)
	assert.False(t, rec.IsFavorited)

	img, err := http.Get(rec.Image)
	require.NoError(t, err)
	_ = img.Body.Close()
	assert.Equal(t, http.StatusOK, img.StatusCode)
	assert.Equal(t, "image/png", img.Header.Get("Content-Type"))

	c.expect(http.StatusCreated, "POST", fmt.Sprintf("/api/recipes/%d/favorite/", id), nil)
	c.expect(http.StatusBadRequest, "POST", fmt.Sprintf("/api/recipes/%d/favorite/", id), nil)

	var page struct {
		Count int `json:"count"`
	}
	c.decode(c.expect(http.StatusOK, "GET", "/api/recipes/?is_favorited=1", nil), &page)
	assert.Equal(t, 1, page.Count)

	other := &apiClient{t: t, srv: c.srv}
	other.signUp("other")
	other.expect(http.StatusForbidden, "DELETE", fmt.Sprintf("/api/recipes/%d/", id), nil)

	c.expect(http.StatusNoContent, "DELETE", fmt.Sprintf("/api/recipes/%d/", id), nil)
	c.expect(http.StatusNotFound, "GET", fmt.Sprintf("/api/recipes/%d/", id), nil)
}

func TestIntegration_CreateRecipeErrors(t *testing.T) {
	c := newTestServer(t)
	c.signUp("chef")

	c.expect(http.StatusNotFound, "POST", "/api/recipes/", map[string]any{
		"ingredients": []map[string]int64{{"id": 999, "amount": 1}},
		"tags":        c.tagIDs()[:1],
		"image":       pngDataURI,
		"name":        "Ghost", "text": "x", "cooking_time": 1,
	})

	body := c.expect(http.StatusBadRequest, "POST", "/api/recipes/", map[string]any{
		"ingredients": []map[string]int64{},
		"tags":        c.tagIDs()[:1],
		"image":       pngDataURI,
		"name":        "Empty", "text": "x", "cooking_time": 1,
	})
	assert.Contains(t, string(body), "ingredients")

	c.token = ""
	c.expect(http.StatusUnauthorized, "POST", "/api/recipes/", map[string]any{})
}

func TestIntegration_ShoppingCartDownload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	c := newTestServer(t)
	c.signUp("shopper")
	flour := c.ingredientID("flour")

	r1 := c.createRecipe("Bread", map[string]int64{"id": flour, "amount": 100})
	r2 := c.createRecipe("Cake", map[string]int64{"id": flour, "amount": 200})

	c.expect(http.StatusCreated, "POST", fmt.Sprintf("/api/recipes/%d/shopping_cart/", r1), nil)
	c.expect(http.StatusCreated, "POST", fmt.Sprintf("/api/recipes/%d/shopping_cart/", r2), nil)

	body := c.expect(http.StatusBadRequest, "POST", fmt.Sprintf("/api/recipes/%d/shopping_cart/", r1), nil)
	assert.Contains(t, string(body), "errors")

	resp, pdf := c.do("GET", "/api/recipes/download_shopping_cart/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "shopping_list.pdf")
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Contains(t, string(pdf), pdfText("Flour: 300, g"))

	c.expect(http.StatusNoContent, "DELETE", fmt.Sprintf("/api/recipes/%d/shopping_cart/", r1), nil)
	c.expect(http.StatusBadRequest, "DELETE", fmt.Sprintf("/api/recipes/%d/shopping_cart/", r1), nil)
}

func TestIntegration_Subscriptions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	c := newTestServer(t)
	chefID := c.signUp("chef")
	flour := c.ingredientID("flour")
	c.createRecipe("Bread", map[string]int64{"id": flour, "amount": 100})

	c.expect(http.StatusBadRequest, "POST", fmt.Sprintf("/api/users/%d/subscribe/", chefID), nil)

	reader := &apiClient{t: t, srv: c.srv}
	reader.signUp("reader")

	var author struct {
		IsSubscribed bool `json:"is_subscribed"`
		RecipesCount int  `json:"recipes_count"`
	}
	reader.decode(reader.expect(http.StatusCreated, "POST", fmt.Sprintf("/api/users/%d/subscribe/", chefID), nil), &author)
	assert.True(t, author.IsSubscribed)
	assert.Equal(t, 1, author.RecipesCount)

	reader.expect(http.StatusBadRequest, "POST", fmt.Sprintf("/api/users/%d/subscribe/", chefID), nil)

	var subs struct {
		Count int `json:"count"`
	}
	reader.decode(reader.expect(http.StatusOK, "GET", "/api/users/subscriptions/?recipes_limit=1", nil), &subs)
	assert.Equal(t, 1, subs.Count)

	reader.expect(http.StatusNoContent, "DELETE", fmt.Sprintf("/api/users/%d/subscribe/", chefID), nil)
	reader.expect(http.StatusBadRequest, "DELETE", fmt.Sprintf("/api/users/%d/subscribe/", chefID), nil)
	reader.expect(http.StatusNotFound, "POST", "/api/users/999/subscribe/", nil)
}
