package cookbook

import "github.com/olgasafonova/mealdb-mcp-server/internal/recipe"

// SearchRecipesArgs contains parameters for a dish name search
type SearchRecipesArgs struct {
	DishName   string `json:"dish_name" jsonschema:"ONLY the dish or food name, e.g. Arrabiata, pasta, chicken curry"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Number of results to return (default 5, max 50)"`
}

// SearchRecipesResult is the result of a dish name search
type SearchRecipesResult struct {
	DishName   string   `json:"dish_name"`
	Found      bool     `json:"found"`
	RecipeIDs  []string `json:"recipe_ids"`
	Collection string   `json:"collection,omitempty"`
	Saved      bool     `json:"saved"`
	SaveError  string   `json:"save_error,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// GetRecipeDetailsArgs contains parameters for fetching one saved recipe
type GetRecipeDetailsArgs struct {
	RecipeID string `json:"recipe_id" jsonschema:"ONLY the numeric recipe ID, e.g. 52771"`
}

// GetRecipeDetailsResult is the result of a recipe lookup
type GetRecipeDetailsResult struct {
	Found   bool           `json:"found"`
	Recipe  *recipe.Recipe `json:"recipe,omitempty"`
	Message string         `json:"message,omitempty"`
}

// CreateMealPlanArgs contains parameters for creating a meal plan
type CreateMealPlanArgs struct {
	RecipeIDs []string `json:"recipe_ids" jsonschema:"Recipe ID numbers as strings, all IDs named in the request"`
	PlanName  string   `json:"plan_name,omitempty" jsonschema:"Name for the meal plan (default: My Meal Plan)"`
}

// CreateMealPlanResult describes the saved meal plan
type CreateMealPlanResult struct {
	PlanID       string           `json:"plan_id"`
	PlanName     string           `json:"plan_name"`
	TotalRecipes int              `json:"total_recipes"`
	Recipes      []recipe.Summary `json:"recipes"`
	MissingIDs   []string         `json:"missing_ids,omitempty"`
	Path         string           `json:"path"`
	Message      string           `json:"message"`
}

// SearchByFirstLetterArgs contains parameters for a first-letter search
type SearchByFirstLetterArgs struct {
	Letter     string `json:"letter" jsonschema:"ONLY a single letter A-Z"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Number of results to return (default 5, max 50)"`
}

// SearchByFirstLetterResult is the result of a first-letter search
type SearchByFirstLetterResult struct {
	Letter      string   `json:"letter"`
	Found       bool     `json:"found"`
	RecipeIDs   []string `json:"recipe_ids"`
	RecipeNames []string `json:"recipe_names"`
	Collection  string   `json:"collection,omitempty"`
	SummaryPath string   `json:"summary_path,omitempty"`
	Saved       bool     `json:"saved"`
	SaveError   string   `json:"save_error,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// GetRandomRecipeArgs takes no parameters
type GetRandomRecipeArgs struct{}

// GetRandomRecipeResult holds a random recipe
type GetRandomRecipeResult struct {
	Found   bool           `json:"found"`
	Recipe  *recipe.Recipe `json:"recipe,omitempty"`
	Message string         `json:"message,omitempty"`
}

// TestFilesystemArgs takes no parameters
type TestFilesystemArgs struct{}

// TestFilesystemResult reports a temp-dir write/read round trip
type TestFilesystemResult struct {
	Passed   bool              `json:"passed"`
	Platform string            `json:"platform"`
	Data     map[string]string `json:"data,omitempty"`
	Message  string            `json:"message"`
}

// GetSystemInfoArgs takes no parameters
type GetSystemInfoArgs struct{}

// GetSystemInfoResult describes the runtime and the recipes directory
type GetSystemInfoResult struct {
	Platform           string `json:"platform"`
	GoVersion          string `json:"go_version"`
	ExecutableDir      string `json:"executable_directory,omitempty"`
	RecipesDirectory   string `json:"recipes_directory"`
	RecipesDirExists   bool   `json:"recipes_dir_exists"`
	RecipesDirWritable bool   `json:"recipes_dir_is_writable"`
	WorkingDirectory   string `json:"current_working_directory,omitempty"`
	Collections        int    `json:"collections"`
	MealPlans          int    `json:"meal_plans"`
	IndexEntries       int    `json:"index_entries"`
	Error              string `json:"error,omitempty"`
}
