package main

import (
	"log"

	"github.com/vbonduro/foodgram/internal/auth"
	"github.com/vbonduro/foodgram/internal/config"
	"github.com/vbonduro/foodgram/internal/db"
	"github.com/vbonduro/foodgram/internal/document/fpdf"
	"github.com/vbonduro/foodgram/internal/logging"
	"github.com/vbonduro/foodgram/internal/mediastore/local"
	"github.com/vbonduro/foodgram/internal/service"
	"github.com/vbonduro/foodgram/internal/store"
	"github.com/vbonduro/foodgram/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return
	}

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

	tokens, err := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("failed to initialize token manager", "error", err)
		return
	}

	media, err := local.New(cfg.MediaPath)
	if err != nil {
		logger.Error("failed to initialize media store", "error", err)
		return
	}

	var pdfOpts []fpdf.Option
	if cfg.PDFFontFile != "" {
		logger.Info("using PDF font", "path", cfg.PDFFontFile)
		pdfOpts = append(pdfOpts, fpdf.WithFontFile(cfg.PDFFontFile))
	}

	userStore := store.NewUserStore(database)
	subscriptionStore := store.NewSubscriptionStore(database)
	recipeStore := store.NewRecipeStore(database)
	ingredientStore := store.NewIngredientStore(database)
	tagStore := store.NewTagStore(database)

	users := service.NewUserService(userStore, subscriptionStore, recipeStore, tokens, logger)
	recipes := service.NewRecipeService(
		recipeStore,
		ingredientStore,
		tagStore,
		store.NewFavoriteStore(database),
		store.NewCartStore(database),
		media,
		fpdf.New(pdfOpts...),
		logger,
	)
	catalog := service.NewCatalogService(tagStore, ingredientStore, logger)

	server := web.NewServer(users, recipes, catalog, media, web.Options{
		PageSize:          cfg.PageSize,
		MediaURL:          cfg.MediaURL,
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}
