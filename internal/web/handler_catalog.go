package web

import (
	"net/http"
)

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.catalog.ListTags(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]tagJSON, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTagJSON(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTag(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.catalog.GetTag(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTagJSON(t))
}

func (s *Server) handleSearchIngredients(w http.ResponseWriter, r *http.Request) {
	ings, err := s.catalog.SearchIngredients(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]ingredientJSON, 0, len(ings))
	for _, ing := range ings {
		out = append(out, toIngredientJSON(ing))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ing, err := s.catalog.GetIngredient(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIngredientJSON(ing))
}
