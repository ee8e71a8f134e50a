package web

import (
	"net/http"
	"net/url"

	"github.com/vbonduro/foodgram/internal/auth"
	"github.com/vbonduro/foodgram/internal/domain"
	"github.com/vbonduro/foodgram/internal/service"
	"github.com/vbonduro/foodgram/internal/shopping"
)

type userJSON struct {
	Email        string `json:"email"`
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type authorJSON struct {
	userJSON
	Recipes      []shortRecipeJSON `json:"recipes"`
	RecipesCount int               `json:"recipes_count"`
}

type tagJSON struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type ingredientJSON struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type recipeIngredientJSON struct {
	ingredientJSON
	Amount int `json:"amount"`
}

type recipeJSON struct {
	ID               int64                  `json:"id"`
	Tags             []tagJSON              `json:"tags"`
	Author           userJSON               `json:"author"`
	Ingredients      []recipeIngredientJSON `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

type shortRecipeJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

func toTagJSON(t *domain.Tag) tagJSON {
	return tagJSON{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func toIngredientJSON(ing *domain.Ingredient) ingredientJSON {
	return ingredientJSON{ID: ing.ID, Name: shopping.Capitalize(ing.Name), MeasurementUnit: ing.Unit.Name}
}

// mediaURL turns a media key into an absolute URL on this server.
func (s *Server) mediaURL(r *http.Request, key string) string {
	if key == "" {
		return ""
	}
	u := url.URL{Scheme: "http", Host: r.Host, Path: s.opts.MediaURL + key}
	if r.TLS != nil {
		u.Scheme = "https"
	}
	return u.String()
}

func (s *Server) userJSON(r *http.Request, u *domain.User) (userJSON, error) {
	subscribed, err := s.users.IsSubscribed(r.Context(), auth.UserFrom(r.Context()), u.ID)
	if err != nil {
		return userJSON{}, err
	}
	return userJSON{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}, nil
}

func (s *Server) usersJSON(r *http.Request, users []*domain.User) ([]userJSON, error) {
	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		j, err := s.userJSON(r, u)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

func (s *Server) shortRecipeJSON(r *http.Request, rec *domain.Recipe) shortRecipeJSON {
	return shortRecipeJSON{
		ID:          rec.ID,
		Name:        rec.Name,
		Image:       s.mediaURL(r, rec.Image),
		CookingTime: rec.CookingTime,
	}
}

func (s *Server) authorJSON(r *http.Request, ar *service.AuthorRecipes) (authorJSON, error) {
	u, err := s.userJSON(r, ar.Author)
	if err != nil {
		return authorJSON{}, err
	}
	recipes := make([]shortRecipeJSON, 0, len(ar.Recipes))
	for _, rec := range ar.Recipes {
		recipes = append(recipes, s.shortRecipeJSON(r, rec))
	}
	return authorJSON{userJSON: u, Recipes: recipes, RecipesCount: ar.RecipesCount}, nil
}

func (s *Server) recipeJSON(r *http.Request, rec *domain.Recipe) (recipeJSON, error) {
	author, err := s.userJSON(r, rec.Author)
	if err != nil {
		return recipeJSON{}, err
	}
	marks, err := s.recipes.MarksFor(r.Context(), auth.UserFrom(r.Context()), rec.ID)
	if err != nil {
		return recipeJSON{}, err
	}

	tags := make([]tagJSON, 0, len(rec.Tags))
	for i := range rec.Tags {
		tags = append(tags, toTagJSON(&rec.Tags[i]))
	}
	lines := make([]recipeIngredientJSON, 0, len(rec.Ingredients))
	for i := range rec.Ingredients {
		l := &rec.Ingredients[i]
		lines = append(lines, recipeIngredientJSON{ingredientJSON: toIngredientJSON(&l.Ingredient), Amount: l.Amount})
	}

	return recipeJSON{
		ID:               rec.ID,
		Tags:             tags,
		Author:           author,
		Ingredients:      lines,
		IsFavorited:      marks.Favorited,
		IsInShoppingCart: marks.InCart,
		Name:             rec.Name,
		Image:            s.mediaURL(r, rec.Image),
		Text:             rec.Text,
		CookingTime:      rec.CookingTime,
	}, nil
}

// ingredientAmountJSON is one requested recipe line.
type ingredientAmountJSON struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

type recipeRequest struct {
	Ingredients []ingredientAmountJSON `json:"ingredients"`
	Tags        []int64                `json:"tags"`
	Image       string                 `json:"image"`
	Name        string                 `json:"name"`
	Text        string                 `json:"text"`
	CookingTime int                    `json:"cooking_time"`
}

// draft converts the request into a domain draft, decoding the image if one
// was sent.
func (req recipeRequest) draft() (domain.RecipeDraft, error) {
	d := domain.RecipeDraft{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
	}
	for _, l := range req.Ingredients {
		d.Ingredients = append(d.Ingredients, domain.IngredientAmount{IngredientID: l.ID, Amount: l.Amount})
	}
	if req.Image != "" {
		img, err := decodeImage(req.Image)
		if err != nil {
			return d, err
		}
		d.Image = img
	}
	return d, nil
}
