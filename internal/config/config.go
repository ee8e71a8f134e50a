package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr         string
	DBPath             string
	MediaPath          string
	MediaURL           string
	LogLevel           string
	LogFile            string
	TokenSecret        string
	TokenTTL           time.Duration
	PageSize           int
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	PDFFontFile        string
	IngredientsFile    string
	TagsFile           string
	TestMode           bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; variables already set win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	tokenTTL, err := getDuration("TOKEN_TTL", 720*time.Hour)
	if err != nil {
		return nil, err
	}
	window, err := getDuration("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}
	pageSize, err := getInt("PAGE_SIZE", 6)
	if err != nil {
		return nil, err
	}
	rateLimit, err := getInt("RATE_LIMIT_REQUESTS", 20)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
		DBPath:             getEnv("DB_PATH", "/data/foodgram.db"),
		MediaPath:          getEnv("MEDIA_PATH", "/data/media"),
		MediaURL:           getEnv("MEDIA_URL", "/media/"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
		TokenSecret:        getEnv("TOKEN_SECRET", ""),
		TokenTTL:           tokenTTL,
		PageSize:           pageSize,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		RateLimitRequests:  rateLimit,
		RateLimitWindow:    window,
		PDFFontFile:        getEnv("PDF_FONT_FILE", ""),
		IngredientsFile:    getEnv("INGREDIENTS_FILE", "data/ingredients.json"),
		TagsFile:           getEnv("TAGS_FILE", ""),
		TestMode:           os.Getenv("FOODGRAM_TEST_MODE") == "1",
	}
	if cfg.TestMode && cfg.TokenSecret == "" {
		cfg.TokenSecret = "foodgram-test-secret"
	}
	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.TokenSecret == "" {
		return errors.New("TOKEN_SECRET is required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if !strings.HasPrefix(c.MediaURL, "/") || !strings.HasSuffix(c.MediaURL, "/") {
		return fmt.Errorf("MEDIA_URL must start and end with '/', got %q", c.MediaURL)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
