package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vbonduro/foodgram/internal/domain"
	"github.com/vbonduro/foodgram/internal/search"
	"github.com/vbonduro/foodgram/internal/validation"
)

// tagRepository is the subset of store.TagStore that CatalogService requires.
type tagRepository interface {
	Create(ctx context.Context, name, color, slug string) (*domain.Tag, error)
	GetByID(ctx context.Context, id int64) (*domain.Tag, error)
	List(ctx context.Context) ([]*domain.Tag, error)
}

// ingredientRepository is the subset of store.IngredientStore that
// CatalogService requires.
type ingredientRepository interface {
	UnitByName(ctx context.Context, name string) (*domain.Unit, error)
	Create(ctx context.Context, name string, unitID int64) (*domain.Ingredient, bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Ingredient, error)
	List(ctx context.Context) ([]*domain.Ingredient, error)
	Search(ctx context.Context, query string) ([]*domain.Ingredient, error)
	Count(ctx context.Context) (int, error)
}

// CatalogService serves the read-mostly reference data: tags and the
// ingredient catalogue.
type CatalogService struct {
	tags        tagRepository
	ingredients ingredientRepository
	logger      *slog.Logger
}

func NewCatalogService(tags tagRepository, ingredients ingredientRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{tags: tags, ingredients: ingredients, logger: logger}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	return s.tags.List(ctx)
}

func (s *CatalogService) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	t, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("tag %d: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id int64) (*domain.Ingredient, error) {
	ing, err := s.ingredients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ing == nil {
		return nil, fmt.Errorf("ingredient %d: %w", id, domain.ErrNotFound)
	}
	return ing, nil
}

// SearchIngredients returns the ingredients whose name contains query, names
// starting with it first. An empty query lists the whole catalogue.
func (s *CatalogService) SearchIngredients(ctx context.Context, query string) ([]*domain.Ingredient, error) {
	if query == "" {
		return s.ingredients.List(ctx)
	}
	candidates, err := s.ingredients.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search ingredients: %w", err)
	}
	return search.Rank(query, candidates), nil
}

// ImportResult counts the entries seen by an import. Total is the size of
// the catalogue afterwards.
type ImportResult struct {
	Found   int
	Added   int
	Skipped int
	Total   int
}

type ingredientRecord struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=200"`
}

// ImportIngredients loads a JSON array of {name, measurement_unit} objects.
// Units are created on demand, ingredients already in the catalogue are left
// alone and invalid entries are skipped.
func (s *CatalogService) ImportIngredients(ctx context.Context, r io.Reader) (ImportResult, error) {
	var records []ingredientRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return ImportResult{}, fmt.Errorf("failed to decode ingredients: %w", err)
	}

	res := ImportResult{Found: len(records)}
	units := make(map[string]int64)
	for _, rec := range records {
		rec.Name = strings.TrimSpace(rec.Name)
		rec.MeasurementUnit = strings.TrimSpace(rec.MeasurementUnit)
		if err := validation.Struct(&rec); err != nil {
			res.Skipped++
			s.logger.Warn("skipping invalid ingredient", "name", rec.Name, "measurement_unit", rec.MeasurementUnit, "error", err)
			continue
		}

		unitID, ok := units[rec.MeasurementUnit]
		if !ok {
			unit, err := s.ingredients.UnitByName(ctx, rec.MeasurementUnit)
			if err != nil {
				return res, err
			}
			unitID = unit.ID
			units[rec.MeasurementUnit] = unitID
		}

		_, created, err := s.ingredients.Create(ctx, rec.Name, unitID)
		if err != nil {
			return res, err
		}
		if created {
			res.Added++
		}
	}

	total, err := s.ingredients.Count(ctx)
	if err != nil {
		return res, err
	}
	res.Total = total

	s.logger.Info("ingredients imported", "found", res.Found, "added", res.Added, "skipped", res.Skipped, "total", res.Total)
	return res, nil
}

type tagRecord struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,hexcolor"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
}

// ImportTags loads a JSON array of {name, color, slug} objects. Tags whose
// slug is taken are left alone and invalid entries are skipped.
func (s *CatalogService) ImportTags(ctx context.Context, r io.Reader) (ImportResult, error) {
	var records []tagRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return ImportResult{}, fmt.Errorf("failed to decode tags: %w", err)
	}

	res := ImportResult{Found: len(records)}
	for _, rec := range records {
		if err := validation.Struct(&rec); err != nil {
			res.Skipped++
			s.logger.Warn("skipping invalid tag", "slug", rec.Slug, "error", err)
			continue
		}
		if _, err := s.tags.Create(ctx, rec.Name, strings.ToUpper(rec.Color), rec.Slug); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return res, err
		}
		res.Added++
	}

	tags, err := s.tags.List(ctx)
	if err != nil {
		return res, err
	}
	res.Total = len(tags)

	s.logger.Info("tags imported", "found", res.Found, "added", res.Added, "skipped", res.Skipped, "total", res.Total)
	return res, nil
}
