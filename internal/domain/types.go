package domain

import "time"

type User struct {
	ID           int64
	Email        string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	IsAdmin      bool
	TokenVersion int64
	CreatedAt    time.Time
}

// CanEdit reports whether u may modify or delete r.
func (u *User) CanEdit(r *Recipe) bool {
	if u == nil || r == nil {
		return false
	}
	return u.IsAdmin || r.AuthorID == u.ID
}

type Tag struct {
	ID    int64
	Name  string
	Color string
	Slug  string
}

type Unit struct {
	ID   int64
	Name string
}

type Ingredient struct {
	ID   int64
	Name string
	Unit Unit
}

// RecipeIngredient is one line of a recipe: Amount units of Ingredient.
type RecipeIngredient struct {
	Ingredient Ingredient
	Amount     int
}

type Recipe struct {
	ID          int64
	AuthorID    int64
	Name        string
	Text        string
	Image       string
	CookingTime int
	CreatedAt   time.Time

	Author      *User
	Tags        []Tag
	Ingredients []RecipeIngredient
}

// IngredientAmount is a requested recipe line before it is resolved against
// the ingredient catalogue.
type IngredientAmount struct {
	IngredientID int64 `json:"id" validate:"required"`
	Amount       int   `json:"amount" validate:"gte=1"`
}

// RecipeDraft carries the writable fields of a recipe. A nil Image on update
// keeps the stored one. The json names key validation errors.
type RecipeDraft struct {
	Name        string             `json:"name" validate:"required,max=200"`
	Text        string             `json:"text" validate:"required"`
	CookingTime int                `json:"cooking_time" validate:"gte=1"`
	Image       *ImageUpload       `json:"-"`
	TagIDs      []int64            `json:"tags" validate:"required,min=1,unique,dive,required"`
	Ingredients []IngredientAmount `json:"ingredients" validate:"required,min=1,unique=IngredientID,dive"`
}

type ImageUpload struct {
	Data     []byte
	MimeType string
}

// CartLine is one recipe ingredient line belonging to a recipe in a user's
// shopping cart, flattened for aggregation.
type CartLine struct {
	RecipeID       int64
	IngredientID   int64
	IngredientName string
	UnitName       string
	Amount         int
}

// RecipeFilter narrows a recipe listing. Zero values disable a filter.
type RecipeFilter struct {
	AuthorID    int64
	TagSlugs    []string
	FavoritedBy int64
	InCartOf    int64
	Limit       int
	Offset      int
}
