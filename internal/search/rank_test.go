package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/foodgram/internal/domain"
)

func ingredients(names ...string) []*domain.Ingredient {
	out := make([]*domain.Ingredient, len(names))
	for i, n := range names {
		out[i] = &domain.Ingredient{ID: int64(i + 1), Name: n, Unit: domain.Unit{ID: 1, Name: "g"}}
	}
	return out
}

func names(ings []*domain.Ingredient) []string {
	out := make([]string, len(ings))
	for i, ing := range ings {
		out[i] = ing.Name
	}
	return out
}

func TestRankEmptyQueryReturnsInput(t *testing.T) {
	in := ingredients("salt", "flour", "sugar")
	assert.Equal(t, in, Rank("", in))
}

func TestRankPrefixBeforeSubstring(t *testing.T) {
	in := ingredients("brown sugar", "sugar", "icing sugar", "salt", "Sugar syrup")

	got := Rank("sug", in)

	assert.Equal(t, []string{"sugar", "Sugar syrup", "brown sugar", "icing sugar"}, names(got))
}

func TestRankSameBucketKeepsInputOrder(t *testing.T) {
	in := ingredients("Secret ingredient 1", "Secret ingredient 2")

	got := Rank("Secret", in)

	assert.Equal(t, []string{"Secret ingredient 1", "Secret ingredient 2"}, names(got))
}

func TestRankCaseInsensitive(t *testing.T) {
	in := ingredients("MILK", "oat milk", "Milk chocolate")

	got := Rank("mIlK", in)

	assert.Equal(t, []string{"MILK", "Milk chocolate", "oat milk"}, names(got))
}

func TestRankUnicodeCaseFolding(t *testing.T) {
	in := ingredients("сахар", "Сахарная пудра", "тростниковый сахар")

	got := Rank("САХ", in)

	assert.Equal(t, []string{"сахар", "Сахарная пудра", "тростниковый сахар"}, names(got))
}

func TestRankNoMatchIsEmpty(t *testing.T) {
	got := Rank("xyz", ingredients("salt", "pepper"))

	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRankDoesNotNormalizeAccents(t *testing.T) {
	got := Rank("creme", ingredients("crème fraîche"))
	assert.Empty(t, got)
}

func TestRankPartitionsInput(t *testing.T) {
	in := ingredients("apple", "pineapple", "apple juice", "grape", "crab apple", "Applesauce", "pear")
	queries := []string{"a", "app", "apple", "pe", "e", "zzz", "APPLE"}

	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			got := Rank(q, in)
			fq := strings.ToLower(q)

			seen := make(map[int64]bool)
			prefixDone := false
			for _, ing := range got {
				assert.False(t, seen[ing.ID], "duplicate %q", ing.Name)
				seen[ing.ID] = true

				name := strings.ToLower(ing.Name)
				require.Contains(t, name, fq)
				if strings.HasPrefix(name, fq) {
					assert.False(t, prefixDone, "prefix match %q after substring match", ing.Name)
				} else {
					prefixDone = true
				}
			}

			for _, ing := range in {
				if strings.Contains(strings.ToLower(ing.Name), fq) {
					assert.True(t, seen[ing.ID], "dropped %q", ing.Name)
				}
			}
		})
	}
}
