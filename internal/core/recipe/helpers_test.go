package recipe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fixtureCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog([]Recipe{
		{Title: "B Chicken Rice Bowl", Ingredients: []string{"Chicken", "Rice", "Onion"}, Steps: []string{"Cook rice.", "Fry chicken."}, Time: "20 minutes"},
		{Title: "A Chicken Broccoli", Ingredients: []string{"chicken", " rice ", "broccoli"}, Steps: []string{"Steam broccoli."}, Diets: []string{"Halal"}},
		{Title: "Vegan Stew", Ingredients: []string{"beans", "tomato", "onion", "garlic"}, Diets: []string{"vegan", "gluten-free"}},
		{Title: "Garlic Rice", Ingredients: []string{"rice", "garlic", "butter"}, Diets: []string{"vegetarian", "gluten-free"}},
		{Title: "Plain Toast", Ingredients: []string{"bread"}},
	})
	require.NoError(t, err)
	return c
}

func titles(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Recipe.Title
	}
	return out
}
