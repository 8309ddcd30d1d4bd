package cookbook

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "github.com/olgasafonova/mealdb-mcp-server/internal/errors"
	"github.com/olgasafonova/mealdb-mcp-server/internal/infra"
	"github.com/olgasafonova/mealdb-mcp-server/internal/recipe"
)

const (
	previewIngredients  = 5
	previewInstructions = 300
	topN                = 10
)

// CuisinesMarkdown lists the saved collections.
func (s *Service) CuisinesMarkdown(_ context.Context) (string, error) {
	names, err := s.store.ListCollections()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# Available Recipe Collections\n\n")
	if len(names) == 0 {
		b.WriteString("No recipe collections found. Search for some recipes first!\n")
		return b.String(), nil
	}

	fmt.Fprintf(&b, "Found **%d** recipe collections:\n\n", len(names))
	for _, name := range names {
		fmt.Fprintf(&b, "- **%s** (folder: `%s`)\n", displayName(name), name)
	}
	b.WriteString("\nUse `recipes://<folder_name>` to access recipes in that collection.\n")
	b.WriteString("\nExample: `recipes://italian` or `recipes://pasta`\n")
	return b.String(), nil
}

// CollectionMarkdown renders one collection. A missing or corrupt collection
// renders as an explanatory page.
func (s *Service) CollectionMarkdown(_ context.Context, name string) (string, error) {
	coll, err := s.store.ReadCollection(name)
	switch {
	case apperrors.IsValidation(err):
		return "", err
	case apperrors.IsNotFound(err):
		return fmt.Sprintf("# No recipes found for: %s\n\nTry searching for recipes on this topic first.", name), nil
	case err != nil:
		s.logger.Warn("Unreadable collection", "collection", name, "error", err)
		return fmt.Sprintf("# Error reading recipes data for %s\n\nThe recipes data file is corrupted.", name), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s Recipe Collection\n\n", displayName(name))
	fmt.Fprintf(&b, "Total recipes: **%d**\n\n", len(coll))

	ids := coll.IDs()
	for _, id := range ids {
		writeRecipe(&b, id, coll[id])
	}
	if len(ids) > 0 {
		fmt.Fprintf(&b, "\n**Tip**: Use `get_recipe_details('%s')` to get full details for any recipe.\n", ids[0])
	}
	return b.String(), nil
}

func writeRecipe(b *strings.Builder, id string, r recipe.Recipe) {
	fmt.Fprintf(b, "## %s\n", r.Name)
	fmt.Fprintf(b, "- **Recipe ID**: `%s`\n", id)
	fmt.Fprintf(b, "- **Cuisine**: %s\n", orUnknown(r.Cuisine))
	fmt.Fprintf(b, "- **Category**: %s\n", orUnknown(r.Category))

	if names, more := r.IngredientNames(previewIngredients); len(names) > 0 {
		fmt.Fprintf(b, "- **Main Ingredients**: %s", strings.Join(names, ", "))
		if more > 0 {
			fmt.Fprintf(b, " (+%d more)", more)
		}
		b.WriteString("\n")
	}
	if r.ImageURL != "" {
		fmt.Fprintf(b, "- **Image**: [View Recipe Photo](%s)\n", r.ImageURL)
	}
	if r.YoutubeURL != "" {
		fmt.Fprintf(b, "- **Video**: [Watch on YouTube](%s)\n", r.YoutubeURL)
	}

	instructions := r.Instructions
	if instructions == "" {
		instructions = recipe.NoInstructions
	}
	if utf8.RuneCountInString(instructions) > previewInstructions {
		fmt.Fprintf(b, "\n### Instructions Preview\n%s...\n\n", string([]rune(instructions)[:previewInstructions]))
	} else {
		fmt.Fprintf(b, "\n### Instructions\n%s\n\n", instructions)
	}
	b.WriteString("---\n\n")
}

// MealPlansMarkdown lists the saved meal plans. Plans are read concurrently;
// unreadable ones are left out.
func (s *Service) MealPlansMarkdown(ctx context.Context) (string, error) {
	stems, err := s.store.ListMealPlans()
	if err != nil {
		return "", err
	}
	if stems == nil {
		return "# No Meal Plans Found\n\nCreate your first meal plan using the `create_meal_plan` tool!", nil
	}

	tasks := make([]func(context.Context) (recipe.MealPlan, error), len(stems))
	for i, stem := range stems {
		tasks[i] = func(context.Context) (recipe.MealPlan, error) {
			return s.store.ReadMealPlan(stem)
		}
	}

	var b strings.Builder
	b.WriteString("# Available Meal Plans\n\n")

	var found int
	var body strings.Builder
	for i, out := range infra.Gather(ctx, infra.DefaultGatherLimit, tasks) {
		if out.Err != nil {
			s.logger.Debug("Skipping unreadable meal plan", "plan", stems[i], "error", out.Err)
			continue
		}
		found++
		plan := out.Value
		name := plan.PlanName
		if name == "" {
			name = "Unknown Plan"
		}
		fmt.Fprintf(&body, "## %s\n", name)
		fmt.Fprintf(&body, "- **Recipes**: %d dishes\n", plan.TotalRecipes)
		fmt.Fprintf(&body, "- **Created**: %s\n", plan.CreatedDay())
		fmt.Fprintf(&body, "- **File**: `%s.json`\n\n", stems[i])
	}

	if found == 0 {
		b.WriteString("No meal plans found. Create your first meal plan!\n")
		return b.String(), nil
	}
	fmt.Fprintf(&b, "Found **%d** meal plans:\n\n", found)
	b.WriteString(body.String())
	return b.String(), nil
}

// Count is a named tally.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats summarizes the saved recipes.
type Stats struct {
	TotalRecipes int     `json:"total_recipes"`
	Collections  int     `json:"collections"`
	MealPlans    int     `json:"meal_plans"`
	Cuisines     []Count `json:"cuisines"`
	Categories   []Count `json:"categories"`
}

// Stats tallies recipes per cuisine and category across all readable
// collections. A recipe saved in several collections counts once, using the
// copy from the last collection by name. Tallies are ordered by count
// descending, then name.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	names, err := s.store.ListCollections()
	if err != nil {
		return Stats{}, err
	}

	tasks := make([]func(context.Context) (recipe.Collection, error), len(names))
	for i, name := range names {
		tasks[i] = func(context.Context) (recipe.Collection, error) {
			return s.store.ReadCollection(name)
		}
	}

	var st Stats
	unique := recipe.Collection{}
	for i, out := range infra.Gather(ctx, infra.DefaultGatherLimit, tasks) {
		if out.Err != nil {
			s.logger.Debug("Skipping unreadable collection", "collection", names[i], "error", out.Err)
			continue
		}
		st.Collections++
		maps.Copy(unique, out.Value)
	}

	cuisines := map[string]int{}
	categories := map[string]int{}
	for _, r := range unique {
		cuisines[orUnknown(r.Cuisine)]++
		categories[orUnknown(r.Category)]++
	}
	st.TotalRecipes = len(unique)

	if plans, err := s.store.ListMealPlans(); err == nil {
		st.MealPlans = len(plans)
	}
	st.Cuisines = ranked(cuisines)
	st.Categories = ranked(categories)
	return st, nil
}

func ranked(tally map[string]int) []Count {
	out := make([]Count, 0, len(tally))
	for name, n := range tally {
		out = append(out, Count{Name: name, Count: n})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// StatsMarkdown renders Stats with the top cuisines and categories.
func (s *Service) StatsMarkdown(ctx context.Context) (string, error) {
	st, err := s.Stats(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# Recipe Collection Statistics\n\n")
	b.WriteString("## Overview\n")
	fmt.Fprintf(&b, "- **Total Recipes**: %d\n", st.TotalRecipes)
	fmt.Fprintf(&b, "- **Recipe Collections**: %d\n", st.Collections)
	fmt.Fprintf(&b, "- **Meal Plans**: %d\n\n", st.MealPlans)

	writeTop(&b, "Top Cuisines", st.Cuisines)
	writeTop(&b, "Recipe Categories", st.Categories)

	b.WriteString("**Tip**: Explore specific collections using `recipes://<cuisine_name>`\n")
	return b.String(), nil
}

func writeTop(b *strings.Builder, title string, counts []Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n", title)
	for _, c := range counts[:min(topN, len(counts))] {
		fmt.Fprintf(b, "- **%s**: %d recipes\n", c.Name, c.Count)
	}
	b.WriteString("\n")
}

// displayName turns a folder name like "chicken_curry" into "Chicken Curry".
func displayName(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

func orUnknown(s string) string {
	if s == "" {
		return recipe.Unknown
	}
	return s
}
