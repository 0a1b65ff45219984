package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_ThresholdAndRanking(t *testing.T) {
	c := fixtureCatalog(t)

	matches := c.Match([]string{"chicken", "rice", "garlic"}, 2, "")
	require.Len(t, matches, 3)
	// 三者都是 2 個共同食材，依標題排序
	assert.Equal(t, []string{"A Chicken Broccoli", "B Chicken Rice Bowl", "Garlic Rice"}, titles(matches))
	for _, m := range matches {
		assert.Equal(t, 2, m.Count)
	}
}

func TestMatch_CountDescendingFirst(t *testing.T) {
	c := fixtureCatalog(t)

	matches := c.Match([]string{"rice", "garlic", "butter", "chicken"}, 1, "")
	require.NotEmpty(t, matches)
	assert.Equal(t, "Garlic Rice", matches[0].Recipe.Title)
	assert.Equal(t, 3, matches[0].Count)
	for i := 1; i < len(matches); i++ {
		prev, cur := matches[i-1], matches[i]
		assert.True(t, prev.Count > cur.Count || (prev.Count == cur.Count && prev.Recipe.Title <= cur.Recipe.Title),
			"%s (%d) before %s (%d)", prev.Recipe.Title, prev.Count, cur.Recipe.Title, cur.Count)
	}
}

func TestMatch_DuplicatesCountedOnce(t *testing.T) {
	c := fixtureCatalog(t)

	matches := c.Match([]string{"rice", "rice", "RICE "}, 2, "")
	assert.Empty(t, matches)
}

func TestMatch_MinMatchBoundary(t *testing.T) {
	c := fixtureCatalog(t)
	query := []string{"beans", "tomato", "onion"}

	for minMatch := 0; minMatch <= 4; minMatch++ {
		found := false
		for _, m := range c.Match(query, minMatch, "") {
			if m.Recipe.Title == "Vegan Stew" {
				found = true
			}
		}
		assert.Equal(t, minMatch <= 3, found, "min_match=%d", minMatch)
	}
}

func TestMatch_DietFilter(t *testing.T) {
	c := fixtureCatalog(t)

	matches := c.Match([]string{"chicken", "rice", "garlic"}, 2, " HALAL ")
	assert.Equal(t, []string{"A Chicken Broccoli"}, titles(matches))

	matches = c.Match([]string{"rice", "garlic", "beans", "tomato"}, 1, "gluten-free")
	for _, m := range matches {
		assert.True(t, m.Recipe.HasDiet("gluten-free"))
	}
	assert.ElementsMatch(t, []string{"Vegan Stew", "Garlic Rice"}, titles(matches))

	assert.Empty(t, c.Match([]string{"chicken", "rice"}, 1, "keto"))
}

func TestMatch_EmptyDietMeansNoFilter(t *testing.T) {
	c := fixtureCatalog(t)
	assert.Equal(t, c.Match([]string{"rice"}, 1, ""), c.Match([]string{"rice"}, 1, "   "))
}

func TestMatch_Deterministic(t *testing.T) {
	c := fixtureCatalog(t)
	query := []string{"rice", "onion", "garlic", "chicken"}

	first := c.Match(query, 1, "")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Match(query, 1, ""))
	}
}

func TestMatch_DuplicateTitlesKeepCatalogOrder(t *testing.T) {
	c, err := NewCatalog([]Recipe{
		{Title: "Same", Ingredients: []string{"a", "b"}, Time: "first"},
		{Title: "Same", Ingredients: []string{"a", "b"}, Time: "second"},
	})
	require.NoError(t, err)

	matches := c.Match([]string{"a", "b"}, 2, "")
	require.Len(t, matches, 2)
	assert.Equal(t, "first", matches[0].Recipe.Time)
	assert.Equal(t, "second", matches[1].Recipe.Time)
}

func TestMatch_TieOnCountOrdersByTitle(t *testing.T) {
	c, err := NewCatalog([]Recipe{
		{Title: "A", Ingredients: []string{"chicken", "rice", "broccoli"}, Diets: []string{"halal"}},
		{Title: "B", Ingredients: []string{"chicken", "rice", "onion"}},
	})
	require.NoError(t, err)

	query := []string{"chicken", "rice", "garlic"}
	assert.Equal(t, []string{"A", "B"}, titles(c.Match(query, 2, "")))
	assert.Equal(t, []string{"A"}, titles(c.Match(query, 2, "halal")))
}

func TestMatch_ResultsDoNotAliasCatalog(t *testing.T) {
	c := fixtureCatalog(t)

	matches := c.Match([]string{"chicken", "rice"}, 2, "")
	require.NotEmpty(t, matches)
	matches[0].Recipe.Ingredients[0] = "mutated"

	again := c.Match([]string{"chicken", "rice"}, 2, "")
	assert.NotEqual(t, "mutated", again[0].Recipe.Ingredients[0])
}

func TestTop(t *testing.T) {
	m := []Match{{Count: 3}, {Count: 2}, {Count: 1}}
	assert.Len(t, Top(m, 2), 2)
	assert.Len(t, Top(m, 5), 3)
	assert.Len(t, Top(m, 0), 3)
}
