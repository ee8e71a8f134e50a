package web

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/vbonduro/foodgram/internal/auth"
	"github.com/vbonduro/foodgram/internal/domain"
)

const shoppingListFilename = "shopping_list.pdf"

func truthy(v string) bool {
	return v == "1" || v == "true" || v == "True"
}

// recipeFilter builds a listing filter from the query string. The
// favorites and cart filters only apply to authenticated callers.
func recipeFilter(r *http.Request, p page) domain.RecipeFilter {
	q := r.URL.Query()
	f := domain.RecipeFilter{
		TagSlugs: q["tags"],
		Limit:    p.limit,
		Offset:   p.offset(),
	}
	if id, err := strconv.ParseInt(q.Get("author"), 10, 64); err == nil {
		f.AuthorID = id
	}
	if u := auth.UserFrom(r.Context()); u != nil {
		if truthy(q.Get("is_favorited")) {
			f.FavoritedBy = u.ID
		}
		if truthy(q.Get("is_in_shopping_cart")) {
			f.InCartOf = u.ID
		}
	}
	return f
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r, s.opts.PageSize)
	recipes, total, err := s.recipes.List(r.Context(), recipeFilter(r, p))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]recipeJSON, 0, len(recipes))
	for _, rec := range recipes {
		j, err := s.recipeJSON(r, rec)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out = append(out, j)
	}
	writeJSON(w, http.StatusOK, paginate(r, p, total, out))
}

func (s *Server) writeRecipe(w http.ResponseWriter, r *http.Request, status int, rec *domain.Recipe) {
	out, err := s.recipeJSON(r, rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, out)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.recipes.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeRecipe(w, r, http.StatusOK, rec)
}

func (s *Server) decodeDraft(w http.ResponseWriter, r *http.Request) (domain.RecipeDraft, error) {
	var req recipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return domain.RecipeDraft{}, err
	}
	return req.draft()
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	d, err := s.decodeDraft(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.recipes.Create(r.Context(), auth.UserFrom(r.Context()), d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeRecipe(w, r, http.StatusCreated, rec)
}

func (s *Server) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.decodeDraft(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.recipes.Update(r.Context(), auth.UserFrom(r.Context()), id, d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeRecipe(w, r, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.recipes.Delete(r.Context(), auth.UserFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	s.addRecipeMark(w, r, s.recipes.AddFavorite)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	s.removeRecipeMark(w, r, s.recipes.RemoveFavorite)
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	s.addRecipeMark(w, r, s.recipes.AddToCart)
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	s.removeRecipeMark(w, r, s.recipes.RemoveFromCart)
}

type addMarkFunc func(ctx context.Context, u *domain.User, recipeID int64) (*domain.Recipe, error)

func (s *Server) addRecipeMark(w http.ResponseWriter, r *http.Request, add addMarkFunc) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := add(r.Context(), auth.UserFrom(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.shortRecipeJSON(r, rec))
}

type removeMarkFunc func(ctx context.Context, u *domain.User, recipeID int64) error

func (s *Server) removeRecipeMark(w http.ResponseWriter, r *http.Request, remove removeMarkFunc) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := remove(r.Context(), auth.UserFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.recipes.DownloadShoppingList(r.Context(), auth.UserFrom(r.Context()), &buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", s.recipes.ShoppingListContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+shoppingListFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("write shopping list failed", "error", err)
	}
}
