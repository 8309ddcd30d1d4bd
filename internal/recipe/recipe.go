// Package recipe defines the persisted recipe data model: recipes, the
// per-term collections they are grouped into, meal plans and letter search
// summaries.
package recipe

import (
	"sort"
	"strings"
	"time"
)

// Defaults applied when the upstream record omits a field.
const (
	Unknown              = "Unknown"
	NoInstructions       = "No instructions available"
	DefaultPlanName      = "My Meal Plan"
	CollectionFallback   = "unknown_dish"
	MealPlanFallback     = "meal_plan"
	MaxIngredientsListed = 20
)

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Ingredient string `json:"ingredient"`
	Measure    string `json:"measure"`
}

// Recipe is a normalized recipe record. A later fetch of the same ID
// replaces it wholesale.
type Recipe struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Cuisine      string       `json:"cuisine"`
	Category     string       `json:"category"`
	Instructions string       `json:"instructions"`
	ImageURL     string       `json:"image_url"`
	YoutubeURL   string       `json:"youtube_url"`
	SourceURL    string       `json:"source_url"`
	Ingredients  []Ingredient `json:"ingredients"`
	Tags         []string     `json:"tags"`
}

// Summary returns the short form of r used in meal plans.
func (r Recipe) Summary() Summary {
	return Summary{
		ID:       r.ID,
		Name:     orUnknown(r.Name),
		Cuisine:  orUnknown(r.Cuisine),
		Category: orUnknown(r.Category),
	}
}

// IngredientNames returns up to n ingredient names and how many were left out.
func (r Recipe) IngredientNames(n int) (names []string, more int) {
	for i, ing := range r.Ingredients {
		if i >= n {
			return names, len(r.Ingredients) - n
		}
		names = append(names, ing.Ingredient)
	}
	return names, 0
}

// Collection maps recipe ID to recipe. It is the content of one
// recipes_info.json file.
type Collection map[string]Recipe

// Merge copies every recipe of in into c, replacing records with the same
// ID. A collection never loses records through Merge.
func (c Collection) Merge(in ...Recipe) {
	for _, r := range in {
		if r.ID == "" {
			continue
		}
		c[r.ID] = r
	}
}

// IDs returns the collection's recipe IDs in sorted order.
func (c Collection) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Recipes returns the collection's recipes ordered by ID.
func (c Collection) Recipes() []Recipe {
	out := make([]Recipe, 0, len(c))
	for _, id := range c.IDs() {
		out = append(out, c[id])
	}
	return out
}

// Summary is the short form of a recipe.
type Summary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Cuisine  string `json:"cuisine"`
	Category string `json:"category"`
}

// MealPlan is a named, timestamped list of recipe summaries.
type MealPlan struct {
	PlanID       string    `json:"plan_id,omitempty"`
	PlanName     string    `json:"plan_name"`
	CreatedDate  string    `json:"created_date"`
	TotalRecipes int       `json:"total_recipes"`
	Recipes      []Summary `json:"recipes"`
}

// NewMealPlan builds a plan from summaries, stamping it with now.
func NewMealPlan(id, name string, now time.Time, recipes []Summary) MealPlan {
	if recipes == nil {
		recipes = []Summary{}
	}
	return MealPlan{
		PlanID:       id,
		PlanName:     name,
		CreatedDate:  now.Format(time.RFC3339),
		TotalRecipes: len(recipes),
		Recipes:      recipes,
	}
}

// CreatedDay returns the date part of CreatedDate, or the raw value when it
// is not a timestamp.
func (p MealPlan) CreatedDay() string {
	if p.CreatedDate == "" {
		return Unknown
	}
	if strings.Contains(p.CreatedDate, "T") && len(p.CreatedDate) >= 10 {
		return p.CreatedDate[:10]
	}
	return p.CreatedDate
}

// LetterSummary records the outcome of a first-letter search.
type LetterSummary struct {
	Letter       string   `json:"letter"`
	FoundRecipes int      `json:"found_recipes"`
	RecipeIDs    []string `json:"recipe_ids"`
	RecipeNames  []string `json:"recipe_names"`
}

// NewLetterSummary summarizes recipes found for letter. The letter is stored
// upper-cased.
func NewLetterSummary(letter string, recipes []Recipe) LetterSummary {
	s := LetterSummary{
		Letter:      strings.ToUpper(letter),
		RecipeIDs:   make([]string, 0, len(recipes)),
		RecipeNames: make([]string, 0, len(recipes)),
	}
	for _, r := range recipes {
		s.RecipeIDs = append(s.RecipeIDs, r.ID)
		s.RecipeNames = append(s.RecipeNames, r.Name)
	}
	s.FoundRecipes = len(s.RecipeIDs)
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
