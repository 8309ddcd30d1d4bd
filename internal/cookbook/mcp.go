package cookbook

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	apperrors "github.com/olgasafonova/mealdb-mcp-server/internal/errors"
	"github.com/olgasafonova/mealdb-mcp-server/internal/recipe"
)

// MCP tool methods
// Each takes the tool's Args and returns its Result. Invalid input, remote
// failures and storage failures come back as typed errors; not-found is a
// successful result with Found=false.

// SearchRecipesMCP searches by dish name and saves the first MaxResults
// recipes to the dish's collection.
func (s *Service) SearchRecipesMCP(ctx context.Context, args SearchRecipesArgs) (SearchRecipesResult, error) {
	if err := ValidateDishName(args.DishName); err != nil {
		return SearchRecipesResult{}, err
	}
	dish := strings.TrimSpace(args.DishName)
	limit := NormalizeMaxResults(args.MaxResults)

	recipes, err := s.source.SearchByName(ctx, dish)
	if err != nil {
		return SearchRecipesResult{}, err
	}

	result := SearchRecipesResult{DishName: dish, RecipeIDs: []string{}}
	if len(recipes) == 0 {
		result.Message = fmt.Sprintf("No recipes found for dish: %s", dish)
		return result, nil
	}
	if len(recipes) > limit {
		recipes = recipes[:limit]
	}

	result.Found = true
	result.RecipeIDs = recipeIDs(recipes)
	result.Collection = recipe.CollectionName(dish)

	path, err := s.saveCollection(ctx, result.Collection, recipes)
	if err != nil {
		s.logger.Warn("Failed to save search results", "dish", dish, "error", err)
		result.SaveError = err.Error()
		result.Message = fmt.Sprintf("Found %d recipes but could not save them", len(recipes))
		return result, nil
	}

	result.Saved = true
	result.Message = fmt.Sprintf("Found %d recipes, saved to: %s", len(recipes), path)
	return result, nil
}

// GetRecipeDetailsMCP returns a saved recipe by ID.
func (s *Service) GetRecipeDetailsMCP(ctx context.Context, args GetRecipeDetailsArgs) (GetRecipeDetailsResult, error) {
	if err := ValidateRecipeID(args.RecipeID); err != nil {
		return GetRecipeDetailsResult{}, err
	}
	id := strings.TrimSpace(args.RecipeID)

	r, err := s.Recipe(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return GetRecipeDetailsResult{
				Message: fmt.Sprintf("No saved information found for recipe %s. Search for it first.", id),
			}, nil
		}
		return GetRecipeDetailsResult{}, err
	}
	return GetRecipeDetailsResult{Found: true, Recipe: &r}, nil
}

// CreateMealPlanMCP builds and saves a meal plan from saved recipes. IDs
// that cannot be resolved are listed in MissingIDs.
func (s *Service) CreateMealPlanMCP(ctx context.Context, args CreateMealPlanArgs) (CreateMealPlanResult, error) {
	ids, err := CleanRecipeIDs(args.RecipeIDs)
	if err != nil {
		return CreateMealPlanResult{}, err
	}
	name := PlanName(args.PlanName)

	summaries := make([]recipe.Summary, 0, len(ids))
	var missing []string
	for i, out := range s.resolveAll(ctx, ids) {
		if out.Err != nil {
			if !apperrors.IsNotFound(out.Err) {
				s.logger.Warn("Could not resolve recipe for meal plan", "recipe_id", ids[i], "error", out.Err)
			}
			missing = append(missing, ids[i])
			continue
		}
		summaries = append(summaries, out.Value.Summary())
	}

	plan := recipe.NewMealPlan(s.newID(), name, s.now(), summaries)
	path, err := s.store.WriteMealPlan(plan)
	if err != nil {
		return CreateMealPlanResult{}, err
	}

	return CreateMealPlanResult{
		PlanID:       plan.PlanID,
		PlanName:     plan.PlanName,
		TotalRecipes: plan.TotalRecipes,
		Recipes:      plan.Recipes,
		MissingIDs:   missing,
		Path:         path,
		Message:      fmt.Sprintf("Meal plan '%s' created with %d recipes. Saved to: %s", name, plan.TotalRecipes, path),
	}, nil
}

// SearchByFirstLetterMCP searches by first letter, writes the letter summary
// and saves the recipes to the letter's collection so their IDs resolve.
func (s *Service) SearchByFirstLetterMCP(ctx context.Context, args SearchByFirstLetterArgs) (SearchByFirstLetterResult, error) {
	letter := strings.TrimSpace(args.Letter)
	if err := ValidateLetter(letter); err != nil {
		return SearchByFirstLetterResult{}, err
	}
	letter = strings.ToLower(letter)
	limit := NormalizeMaxResults(args.MaxResults)

	recipes, err := s.source.SearchByLetter(ctx, letter)
	if err != nil {
		return SearchByFirstLetterResult{}, err
	}

	result := SearchByFirstLetterResult{
		Letter:      strings.ToUpper(letter),
		RecipeIDs:   []string{},
		RecipeNames: []string{},
	}
	if len(recipes) == 0 {
		result.Message = fmt.Sprintf("No recipes found starting with letter: %s", result.Letter)
		return result, nil
	}
	if len(recipes) > limit {
		recipes = recipes[:limit]
	}

	summary := recipe.NewLetterSummary(letter, recipes)
	result.Found = true
	result.RecipeIDs = summary.RecipeIDs
	result.RecipeNames = summary.RecipeNames
	result.Collection = recipe.LetterCollection(letter)

	var saveErrs []string
	if path, err := s.store.WriteLetterSummary(summary); err != nil {
		saveErrs = append(saveErrs, err.Error())
	} else {
		result.SummaryPath = path
	}
	if _, err := s.saveCollection(ctx, result.Collection, recipes); err != nil {
		saveErrs = append(saveErrs, err.Error())
	}

	if len(saveErrs) > 0 {
		s.logger.Warn("Failed to save letter search", "letter", letter, "errors", saveErrs)
		result.SaveError = strings.Join(saveErrs, "; ")
		result.Message = fmt.Sprintf("Found %d recipes starting with '%s' but could not save them", len(recipes), result.Letter)
		return result, nil
	}
	result.Saved = true
	result.Message = fmt.Sprintf("Found %d recipes starting with '%s'", len(recipes), result.Letter)
	return result, nil
}

// GetRandomRecipeMCP returns one random recipe. It is not saved.
func (s *Service) GetRandomRecipeMCP(ctx context.Context, _ GetRandomRecipeArgs) (GetRandomRecipeResult, error) {
	r, err := s.source.Random(ctx)
	if err != nil {
		return GetRandomRecipeResult{}, err
	}
	if r == nil {
		return GetRandomRecipeResult{Message: "No random recipe found"}, nil
	}
	return GetRandomRecipeResult{Found: true, Recipe: r}, nil
}

// TestFilesystemMCP writes and reads back a JSON file in a temp directory.
// Failures are reported in the result, not as errors.
func (s *Service) TestFilesystemMCP(_ context.Context, _ TestFilesystemArgs) (TestFilesystemResult, error) {
	result := TestFilesystemResult{Platform: runtime.GOOS}

	data, err := roundTrip(map[string]string{
		"test":     "data",
		"status":   "working",
		"platform": runtime.GOOS,
	})
	if err != nil {
		result.Message = fmt.Sprintf("Filesystem test FAILED: %v", err)
		return result, nil
	}

	result.Passed = true
	result.Data = data
	result.Message = fmt.Sprintf("Filesystem test PASSED on %s", runtime.GOOS)
	return result, nil
}

func roundTrip(want map[string]string) (map[string]string, error) {
	dir, err := os.MkdirTemp("", "mealdb-fs-test-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "test.json")
	raw, err := json.MarshalIndent(want, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return nil, err
	}

	raw, err = os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var got map[string]string
	if err := json.Unmarshal(raw, &got); err != nil {
		return nil, err
	}
	if !maps.Equal(want, got) {
		return got, fmt.Errorf("read back %v, wrote %v", got, want)
	}
	return got, nil
}

// GetSystemInfoMCP describes the runtime and the recipes directory.
func (s *Service) GetSystemInfoMCP(_ context.Context, _ GetSystemInfoArgs) (GetSystemInfoResult, error) {
	st := s.store.Stat()
	info := GetSystemInfoResult{
		Platform:           runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion:          runtime.Version(),
		RecipesDirectory:   st.Root,
		RecipesDirExists:   st.Exists,
		RecipesDirWritable: st.Writable,
		IndexEntries:       s.index.Len(),
		Error:              st.Error,
	}
	if exe, err := os.Executable(); err == nil {
		info.ExecutableDir = filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		info.WorkingDirectory = wd
	}
	if names, err := s.store.ListCollections(); err == nil {
		info.Collections = len(names)
	}
	if plans, err := s.store.ListMealPlans(); err == nil {
		info.MealPlans = len(plans)
	}
	return info, nil
}
