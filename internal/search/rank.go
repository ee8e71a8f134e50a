// Package search orders ingredient search results by match quality.
package search

import (
	"strings"

	"github.com/vbonduro/foodgram/internal/domain"
)

// Fold is the case folding used for ingredient name matching. The SQL
// prefilter registers the same function so both sides agree on what matches.
func Fold(s string) string {
	return strings.ToLower(s)
}

// Rank returns the ingredients whose name contains query, with names that
// start with query first. Relative input order is kept inside each group and
// non-matching ingredients are dropped. An empty query returns the input
// unchanged.
func Rank(query string, ingredients []*domain.Ingredient) []*domain.Ingredient {
	if query == "" {
		return ingredients
	}
	q := Fold(query)

	prefix := make([]*domain.Ingredient, 0, len(ingredients))
	var inner []*domain.Ingredient
	for _, ing := range ingredients {
		name := Fold(ing.Name)
		switch {
		case strings.HasPrefix(name, q):
			prefix = append(prefix, ing)
		case strings.Contains(name, q):
			inner = append(inner, ing)
		}
	}
	return append(prefix, inner...)
}
