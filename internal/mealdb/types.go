package mealdb

import (
	"strconv"
	"strings"

	"github.com/olgasafonova/mealdb-mcp-server/internal/recipe"
)

// mealsResponse is the envelope of every TheMealDB lookup. Meals is null when
// nothing matched.
type mealsResponse struct {
	Meals []meal `json:"meals"`
}

// meal is a raw TheMealDB record. Values are strings or null, but nothing is
// assumed beyond that.
type meal map[string]any

func (m meal) str(key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func (m meal) strOr(key, fallback string) string {
	if s := m.str(key); s != "" {
		return s
	}
	return fallback
}

// toRecipe normalizes a raw record. Missing descriptive fields get
// placeholders; empty ingredient slots are dropped.
func (m meal) toRecipe() recipe.Recipe {
	r := recipe.Recipe{
		ID:           m.str("idMeal"),
		Name:         m.strOr("strMeal", recipe.Unknown),
		Cuisine:      m.strOr("strArea", recipe.Unknown),
		Category:     m.strOr("strCategory", recipe.Unknown),
		Instructions: m.strOr("strInstructions", recipe.NoInstructions),
		ImageURL:     m.str("strMealThumb"),
		YoutubeURL:   m.str("strYoutube"),
		SourceURL:    m.str("strSource"),
		Ingredients:  []recipe.Ingredient{},
		Tags:         splitTags(m.str("strTags")),
	}

	for n := 1; n <= recipe.MaxIngredientsListed; n++ {
		ing := m.str("strIngredient" + strconv.Itoa(n))
		if ing == "" {
			continue
		}
		r.Ingredients = append(r.Ingredients, recipe.Ingredient{
			Ingredient: ing,
			Measure:    m.str("strMeasure" + strconv.Itoa(n)),
		})
	}
	return r
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func toRecipes(meals []meal) []recipe.Recipe {
	out := make([]recipe.Recipe, 0, len(meals))
	for _, m := range meals {
		r := m.toRecipe()
		if r.ID == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
