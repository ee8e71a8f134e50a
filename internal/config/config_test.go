package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.DBPath)
	assert.Equal(t, "/media/", cfg.MediaURL)
	assert.Equal(t, 6, cfg.PageSize)
	assert.Equal(t, 720*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 20, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DB_PATH", "/custom/db.sqlite")
	t.Setenv("TOKEN_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("PAGE_SIZE", "10")
	t.Setenv("TAGS_FILE", "data/tags.json")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://foodgram.example ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/custom/db.sqlite", cfg.DBPath)
	assert.Equal(t, "s3cret", cfg.TokenSecret)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, "data/tags.json", cfg.TagsFile)
	assert.Equal(t, []string{"http://localhost:3000", "https://foodgram.example"}, cfg.CORSAllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalidNumbers(t *testing.T) {
	t.Setenv("PAGE_SIZE", "six")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("PAGE_SIZE", "6")
	t.Setenv("TOKEN_TTL", "forever")
	_, err = Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Error(t, cfg.Validate(), "missing secret")

	t.Setenv("FOODGRAM_TEST_MODE", "1")
	cfg, err = Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate(), "test mode supplies a secret")

	cfg.MediaURL = "media"
	assert.Error(t, cfg.Validate())
}
