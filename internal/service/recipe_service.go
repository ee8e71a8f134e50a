package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vbonduro/foodgram/internal/document"
	"github.com/vbonduro/foodgram/internal/domain"
	"github.com/vbonduro/foodgram/internal/mediastore"
	"github.com/vbonduro/foodgram/internal/metrics"
	"github.com/vbonduro/foodgram/internal/shopping"
	"github.com/vbonduro/foodgram/internal/validation"
)

const (
	productName     = "Foodgram"
	shoppingSubject = "Shopping list"
)

// recipeRepository is the subset of store.RecipeStore that RecipeService
// requires.
type recipeRepository interface {
	Create(ctx context.Context, authorID int64, d domain.RecipeDraft, imageKey string) (int64, error)
	Update(ctx context.Context, id int64, d domain.RecipeDraft, imageKey string) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Recipe, error)
	List(ctx context.Context, f domain.RecipeFilter) ([]*domain.Recipe, int, error)
}

// recipeSetRepository is the subset of store.FavoriteStore and
// store.CartStore that RecipeService requires.
type recipeSetRepository interface {
	Add(ctx context.Context, userID, recipeID int64) error
	Remove(ctx context.Context, userID, recipeID int64) error
	Contains(ctx context.Context, userID, recipeID int64) (bool, error)
}

// cartRepository is the subset of store.CartStore that RecipeService
// requires.
type cartRepository interface {
	recipeSetRepository
	Lines(ctx context.Context, userID int64) ([]domain.CartLine, error)
}

type ingredientLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Ingredient, error)
}

type tagLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Tag, error)
}

type RecipeService struct {
	recipes     recipeRepository
	ingredients ingredientLookup
	tags        tagLookup
	favorites   recipeSetRepository
	cart        cartRepository
	media       mediastore.MediaStore
	renderer    document.Renderer
	logger      *slog.Logger
}

func NewRecipeService(
	recipes recipeRepository,
	ingredients ingredientLookup,
	tags tagLookup,
	favorites recipeSetRepository,
	cart cartRepository,
	media mediastore.MediaStore,
	renderer document.Renderer,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		recipes:     recipes,
		ingredients: ingredients,
		tags:        tags,
		favorites:   favorites,
		cart:        cart,
		media:       media,
		renderer:    renderer,
		logger:      logger,
	}
}

// validateDraft checks the field rules of a recipe draft. The image is only
// mandatory on create.
func validateDraft(d domain.RecipeDraft, requireImage bool) error {
	verr := &domain.ValidationError{}
	if err := validation.Struct(d); err != nil && !errors.As(err, &verr) {
		return err
	}
	if requireImage && d.Image == nil {
		verr.Add("image", "This field is required.")
	}
	return verr.OrNil()
}

// checkReferences resolves the draft's tag and ingredient ids. An unknown tag
// is an input error; an unknown ingredient is reported as not found.
func (s *RecipeService) checkReferences(ctx context.Context, d domain.RecipeDraft) error {
	for _, id := range d.TagIDs {
		tag, err := s.tags.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if tag == nil {
			return domain.NewValidationError("tags", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
		}
	}
	for _, line := range d.Ingredients {
		ing, err := s.ingredients.GetByID(ctx, line.IngredientID)
		if err != nil {
			return err
		}
		if ing == nil {
			return fmt.Errorf("ingredient %d: %w", line.IngredientID, domain.ErrNotFound)
		}
	}
	return nil
}

func (s *RecipeService) saveImage(ctx context.Context, img *domain.ImageUpload) (string, error) {
	key, err := s.media.Save(ctx, img.MimeType, bytes.NewReader(img.Data))
	if err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return key, nil
}

// discardImage removes a stored image. Failures only leave an orphaned file
// behind, so they are logged.
func (s *RecipeService) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.media.Delete(ctx, key); err != nil && !errors.Is(err, mediastore.ErrNotFound) {
		s.logger.Error("failed to delete image", "key", key, "error", err)
	}
}

func (s *RecipeService) Create(ctx context.Context, u *domain.User, d domain.RecipeDraft) (*domain.Recipe, error) {
	if err := validateDraft(d, true); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, d); err != nil {
		return nil, err
	}

	key, err := s.saveImage(ctx, d.Image)
	if err != nil {
		return nil, err
	}
	id, err := s.recipes.Create(ctx, u.ID, d, key)
	if err != nil {
		s.discardImage(ctx, key)
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}
	s.logger.Info("recipe created", "recipe_id", id, "author_id", u.ID)
	return s.Get(ctx, id)
}

// Update replaces a recipe's contents. Only its author or an admin may do so.
// A nil draft image keeps the current one.
func (s *RecipeService) Update(ctx context.Context, u *domain.User, id int64, d domain.RecipeDraft) (*domain.Recipe, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.CanEdit(existing) {
		return nil, domain.ErrForbidden
	}
	if err := validateDraft(d, false); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, d); err != nil {
		return nil, err
	}

	key := existing.Image
	if d.Image != nil {
		if key, err = s.saveImage(ctx, d.Image); err != nil {
			return nil, err
		}
	}
	if err := s.recipes.Update(ctx, id, d, key); err != nil {
		if key != existing.Image {
			s.discardImage(ctx, key)
		}
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	if key != existing.Image {
		s.discardImage(ctx, existing.Image)
	}
	s.logger.Info("recipe updated", "recipe_id", id, "user_id", u.ID)
	return s.Get(ctx, id)
}

func (s *RecipeService) Delete(ctx context.Context, u *domain.User, id int64) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !u.CanEdit(existing) {
		return domain.ErrForbidden
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	s.discardImage(ctx, existing.Image)
	s.logger.Info("recipe deleted", "recipe_id", id, "user_id", u.ID)
	return nil
}

func (s *RecipeService) Get(ctx context.Context, id int64) (*domain.Recipe, error) {
	r, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("recipe %d: %w", id, domain.ErrNotFound)
	}
	return r, nil
}

func (s *RecipeService) List(ctx context.Context, f domain.RecipeFilter) ([]*domain.Recipe, int, error) {
	return s.recipes.List(ctx, f)
}

// Marks tells whether a viewer has favorited a recipe or put it in the cart.
type Marks struct {
	Favorited bool
	InCart    bool
}

// MarksFor returns the viewer's marks on a recipe. Anonymous viewers have none.
func (s *RecipeService) MarksFor(ctx context.Context, viewer *domain.User, recipeID int64) (Marks, error) {
	if viewer == nil {
		return Marks{}, nil
	}
	fav, err := s.favorites.Contains(ctx, viewer.ID, recipeID)
	if err != nil {
		return Marks{}, err
	}
	inCart, err := s.cart.Contains(ctx, viewer.ID, recipeID)
	if err != nil {
		return Marks{}, err
	}
	return Marks{Favorited: fav, InCart: inCart}, nil
}

func (s *RecipeService) addTo(ctx context.Context, set recipeSetRepository, u *domain.User, recipeID int64) (*domain.Recipe, error) {
	r, err := s.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := set.Add(ctx, u.ID, r.ID); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *RecipeService) removeFrom(ctx context.Context, set recipeSetRepository, u *domain.User, recipeID int64) error {
	if _, err := s.Get(ctx, recipeID); err != nil {
		return err
	}
	return set.Remove(ctx, u.ID, recipeID)
}

// AddFavorite adds a recipe to u's favorites. A second add yields
// domain.ErrConflict.
func (s *RecipeService) AddFavorite(ctx context.Context, u *domain.User, recipeID int64) (*domain.Recipe, error) {
	return s.addTo(ctx, s.favorites, u, recipeID)
}

func (s *RecipeService) RemoveFavorite(ctx context.Context, u *domain.User, recipeID int64) error {
	return s.removeFrom(ctx, s.favorites, u, recipeID)
}

// AddToCart adds a recipe to u's shopping cart. A second add yields
// domain.ErrConflict.
func (s *RecipeService) AddToCart(ctx context.Context, u *domain.User, recipeID int64) (*domain.Recipe, error) {
	return s.addTo(ctx, s.cart, u, recipeID)
}

func (s *RecipeService) RemoveFromCart(ctx context.Context, u *domain.User, recipeID int64) error {
	return s.removeFrom(ctx, s.cart, u, recipeID)
}

// ShoppingList aggregates the ingredients of every recipe in u's cart.
func (s *RecipeService) ShoppingList(ctx context.Context, u *domain.User) ([]shopping.LineItem, error) {
	lines, err := s.cart.Lines(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read shopping cart: %w", err)
	}
	return shopping.Aggregate(lines), nil
}

// DownloadShoppingList renders u's shopping list and writes it to w. Nothing
// is written unless the whole document rendered.
func (s *RecipeService) DownloadShoppingList(ctx context.Context, u *domain.User, w io.Writer) error {
	items, err := s.ShoppingList(ctx, u)
	if err != nil {
		metrics.RecordShoppingList(0, err)
		return err
	}

	var buf bytes.Buffer
	err = s.renderer.Render(&buf, document.Document{
		Title:   productName,
		Subject: shoppingSubject,
		Author:  u.Username,
		Lines:   shopping.Lines(items),
	})
	metrics.RecordShoppingList(len(items), err)
	if err != nil {
		return fmt.Errorf("failed to render shopping list: %w", err)
	}

	s.logger.Info("shopping list rendered", "user_id", u.ID, "items", len(items), "bytes", buf.Len())
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write shopping list: %w", err)
	}
	return nil
}

// ShoppingListContentType is the media type DownloadShoppingList writes.
func (s *RecipeService) ShoppingListContentType() string {
	return s.renderer.ContentType()
}
