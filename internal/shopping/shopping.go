// Package shopping turns the ingredient lines of a user's cart into a
// deduplicated shopping list.
package shopping

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vbonduro/foodgram/internal/domain"
)

// LineItem is the total amount of one ingredient, in one unit, needed for
// every recipe in the cart.
type LineItem struct {
	DisplayName string
	TotalAmount int
	UnitName    string
}

func (li LineItem) String() string {
	return fmt.Sprintf("%s: %d, %s", li.DisplayName, li.TotalAmount, li.UnitName)
}

type groupKey struct {
	name string
	unit string
}

// Aggregate sums line amounts per (ingredient name, unit name). Names are
// compared case-insensitively so separate ingredient rows that share a name
// and unit end up in one item. Items are sorted by display name, then unit.
func Aggregate(lines []domain.CartLine) []LineItem {
	index := make(map[groupKey]int, len(lines))
	items := make([]LineItem, 0, len(lines))

	for _, l := range lines {
		key := groupKey{name: strings.ToLower(l.IngredientName), unit: l.UnitName}
		if i, ok := index[key]; ok {
			items[i].TotalAmount += l.Amount
			continue
		}
		index[key] = len(items)
		items = append(items, LineItem{
			DisplayName: Capitalize(l.IngredientName),
			TotalAmount: l.Amount,
			UnitName:    l.UnitName,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := strings.ToLower(items[i].DisplayName), strings.ToLower(items[j].DisplayName)
		if a != b {
			return a < b
		}
		return items[i].UnitName < items[j].UnitName
	})
	return items
}

// Lines renders every item as a printable line.
func Lines(items []LineItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.String()
	}
	return out
}

// Capitalize upper-cases the first letter of s and leaves the rest alone.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
