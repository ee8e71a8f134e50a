package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/vbonduro/foodgram/internal/auth"
	"github.com/vbonduro/foodgram/internal/domain"
	"github.com/vbonduro/foodgram/internal/validation"
)

const minPasswordLength = 8

// userRepository is the subset of store.UserStore that UserService requires.
type userRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]*domain.User, int, error)
	SetPassword(ctx context.Context, id int64, hash string) error
	BumpTokenVersion(ctx context.Context, id int64) error
}

// subscriptionRepository is the subset of store.SubscriptionStore that
// UserService requires.
type subscriptionRepository interface {
	Add(ctx context.Context, userID, authorID int64) error
	Remove(ctx context.Context, userID, authorID int64) error
	Exists(ctx context.Context, userID, authorID int64) (bool, error)
	ListAuthors(ctx context.Context, userID int64, limit, offset int) ([]*domain.User, int, error)
}

// authorRecipeRepository is the subset of store.RecipeStore used to show an
// author's recipes next to a subscription.
type authorRecipeRepository interface {
	List(ctx context.Context, f domain.RecipeFilter) ([]*domain.Recipe, int, error)
}

type tokenManager interface {
	Issue(userID, version int64) (string, error)
	Parse(token string) (*auth.Claims, error)
}

type UserService struct {
	users   userRepository
	subs    subscriptionRepository
	recipes authorRecipeRepository
	tokens  tokenManager
	logger  *slog.Logger
}

func NewUserService(
	users userRepository,
	subs subscriptionRepository,
	recipes authorRecipeRepository,
	tokens tokenManager,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:   users,
		subs:    subs,
		recipes: recipes,
		tokens:  tokens,
		logger:  logger,
	}
}

// Registration is the input to Register.
type Registration struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,max=150"`
}

// Register creates a user. An email or username already in use yields
// domain.ErrConflict.
func (s *UserService) Register(ctx context.Context, r Registration) (*domain.User, error) {
	if err := validation.Struct(&r); err != nil {
		return nil, err
	}
	if verr := validatePassword("password", r.Password, r.Username, r.Email); !verr.Empty() {
		return nil, verr
	}

	hash, err := auth.HashPassword(r.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Create(ctx, &domain.User{
		Email:        r.Email,
		Username:     r.Username,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	s.logger.Info("user registered", "user_id", u.ID)
	return u, nil
}

// validatePassword applies the password rules: a minimum length, not only
// digits and not the same as the username or email.
func validatePassword(field, password, username, email string) *domain.ValidationError {
	verr := &domain.ValidationError{}
	if len([]rune(password)) < minPasswordLength {
		verr.Add(field, fmt.Sprintf("This password is too short. It must contain at least %d characters.", minPasswordLength))
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		verr.Add(field, "This password is entirely numeric.")
	}
	lower := strings.ToLower(password)
	if lower == strings.ToLower(username) || lower == strings.ToLower(email) {
		verr.Add(field, "The password is too similar to the user data.")
	}
	return verr
}

// Login checks the credentials and returns a new auth token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	invalid := domain.NewValidationError("non_field_errors", "Unable to log in with provided credentials.")

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", invalid
	}
	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", invalid
	}

	token, err := s.tokens.Issue(u.ID, u.TokenVersion)
	if err != nil {
		return "", err
	}
	s.logger.Info("user logged in", "user_id", u.ID)
	return token, nil
}

// Authenticate resolves a token to its user. Tokens issued before the last
// logout or password change are rejected.
func (s *UserService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.TokenVersion != claims.Version {
		return nil, domain.ErrUnauthorized
	}
	return u, nil
}

// Logout invalidates every token issued to u so far.
func (s *UserService) Logout(ctx context.Context, u *domain.User) error {
	if err := s.users.BumpTokenVersion(ctx, u.ID); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return nil
}

// PasswordChange is the input to SetPassword.
type PasswordChange struct {
	NewPassword     string `json:"new_password" validate:"required,max=150"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

// SetPassword replaces u's password after checking the current one. Existing
// tokens stop working.
func (s *UserService) SetPassword(ctx context.Context, u *domain.User, pc PasswordChange) error {
	if err := validation.Struct(pc); err != nil {
		return err
	}
	current, next := pc.CurrentPassword, pc.NewPassword

	ok, err := auth.CheckPassword(u.PasswordHash, current)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewValidationError("current_password", "Invalid password.")
	}
	if verr := validatePassword("new_password", next, u.Username, u.Email); !verr.Empty() {
		return verr
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	s.logger.Info("password changed", "user_id", u.ID)
	return nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]*domain.User, int, error) {
	return s.users.List(ctx, limit, offset)
}

// IsSubscribed reports whether viewer follows authorID. Anonymous viewers
// follow nobody.
func (s *UserService) IsSubscribed(ctx context.Context, viewer *domain.User, authorID int64) (bool, error) {
	if viewer == nil {
		return false, nil
	}
	return s.subs.Exists(ctx, viewer.ID, authorID)
}

// validateSubscription rejects subscriptions a user may not hold.
func validateSubscription(u, author *domain.User) error {
	if u.ID == author.ID {
		return domain.NewValidationError("errors", "You cannot subscribe to yourself.")
	}
	return nil
}

// AuthorRecipes is an author shown with a preview of their recipes.
type AuthorRecipes struct {
	Author       *domain.User
	Recipes      []*domain.Recipe
	RecipesCount int
}

// Subscribe makes u follow authorID and returns the author with up to
// recipesLimit of their recipes (all when recipesLimit <= 0).
func (s *UserService) Subscribe(ctx context.Context, u *domain.User, authorID int64, recipesLimit int) (*AuthorRecipes, error) {
	author, err := s.Get(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if err := validateSubscription(u, author); err != nil {
		return nil, err
	}
	if err := s.subs.Add(ctx, u.ID, author.ID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("already subscribed to %s: %w", author.Username, domain.ErrConflict)
		}
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	s.logger.Info("subscribed", "user_id", u.ID, "author_id", author.ID)
	return s.withRecipes(ctx, author, recipesLimit)
}

func (s *UserService) Unsubscribe(ctx context.Context, u *domain.User, authorID int64) error {
	author, err := s.Get(ctx, authorID)
	if err != nil {
		return err
	}
	if err := s.subs.Remove(ctx, u.ID, author.ID); err != nil {
		if errors.Is(err, domain.ErrAbsent) {
			return fmt.Errorf("not subscribed to %s: %w", author.Username, domain.ErrAbsent)
		}
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	s.logger.Info("unsubscribed", "user_id", u.ID, "author_id", author.ID)
	return nil
}

// Subscriptions returns a page of the authors u follows, oldest subscription
// first, and the total number of subscriptions.
func (s *UserService) Subscriptions(ctx context.Context, u *domain.User, limit, offset, recipesLimit int) ([]*AuthorRecipes, int, error) {
	authors, total, err := s.subs.ListAuthors(ctx, u.ID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*AuthorRecipes, 0, len(authors))
	for _, a := range authors {
		ar, err := s.withRecipes(ctx, a, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, ar)
	}
	return out, total, nil
}

func (s *UserService) withRecipes(ctx context.Context, author *domain.User, recipesLimit int) (*AuthorRecipes, error) {
	recipes, count, err := s.recipes.List(ctx, domain.RecipeFilter{AuthorID: author.ID, Limit: recipesLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes of author %d: %w", author.ID, err)
	}
	return &AuthorRecipes{Author: author, Recipes: recipes, RecipesCount: count}, nil
}
