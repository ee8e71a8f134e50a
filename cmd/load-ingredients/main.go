// Command load-ingredients imports a JSON list of ingredients, and optionally
// a JSON list of tags, into the database. Entries that already exist are
// skipped, so it is safe to run on every deploy.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/vbonduro/foodgram/internal/config"
	"github.com/vbonduro/foodgram/internal/db"
	"github.com/vbonduro/foodgram/internal/logging"
	"github.com/vbonduro/foodgram/internal/service"
	"github.com/vbonduro/foodgram/internal/store"
)

type importFunc func(ctx context.Context, f *os.File) (service.ImportResult, error)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ingredientsPath := flag.String("file", cfg.IngredientsFile, "path to the ingredients JSON file")
	tagsPath := flag.String("tags", cfg.TagsFile, "path to a tags JSON file (optional)")
	flag.Parse()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	catalog := service.NewCatalogService(store.NewTagStore(database), store.NewIngredientStore(database), logger)
	ctx := context.Background()

	if *tagsPath != "" {
		if !load(ctx, logger, "tags", *tagsPath, func(ctx context.Context, f *os.File) (service.ImportResult, error) {
			return catalog.ImportTags(ctx, f)
		}) {
			return
		}
	}
	load(ctx, logger, "ingredients", *ingredientsPath, func(ctx context.Context, f *os.File) (service.ImportResult, error) {
		return catalog.ImportIngredients(ctx, f)
	})
}

func load(ctx context.Context, logger *slog.Logger, kind, path string, run importFunc) bool {
	f, err := os.Open(path)
	if err != nil {
		logger.Error("failed to open import file", "kind", kind, "path", path, "error", err)
		return false
	}
	defer func() { _ = f.Close() }()

	res, err := run(ctx, f)
	if err != nil {
		logger.Error("import failed", "kind", kind, "path", path, "error", err)
		return false
	}
	logger.Info("import finished",
		"kind", kind,
		"path", path,
		"found", res.Found,
		"added", res.Added,
		"skipped", res.Skipped,
		"total", res.Total,
	)
	return true
}
