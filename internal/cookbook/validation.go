package cookbook

import (
	"strings"

	apperrors "github.com/olgasafonova/mealdb-mcp-server/internal/errors"
	"github.com/olgasafonova/mealdb-mcp-server/internal/recipe"
)

const (
	DefaultMaxResults = 5
	MaxMaxResults     = 50
	MaxPlanRecipes    = 50
)

// ValidateDishName checks a dish search term.
func ValidateDishName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.NewValidationError("dish_name", "", "is required")
	}
	if len([]rune(name)) > recipe.MaxNameLength {
		return apperrors.NewValidationError("dish_name", "", "must be at most 200 characters")
	}
	return nil
}

// NormalizeMaxResults applies the default to non-positive values and caps
// large ones.
func NormalizeMaxResults(n int) int {
	switch {
	case n <= 0:
		return DefaultMaxResults
	case n > MaxMaxResults:
		return MaxMaxResults
	default:
		return n
	}
}

// ValidateLetter checks that letter is a single ASCII letter.
func ValidateLetter(letter string) error {
	if len(letter) != 1 {
		return apperrors.NewValidationError("letter", letter, "please provide a single letter (a-z)")
	}
	c := letter[0]
	if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
		return apperrors.NewValidationError("letter", letter, "please provide a single letter (a-z)")
	}
	return nil
}

// ValidateRecipeID checks a recipe ID.
func ValidateRecipeID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.NewValidationError("recipe_id", "", "is required")
	}
	if strings.ContainsAny(id, " \t\r\n") {
		return apperrors.NewValidationError("recipe_id", id, "must not contain whitespace")
	}
	return nil
}

// CleanRecipeIDs trims ids and drops empty entries, keeping order.
func CleanRecipeIDs(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil, apperrors.NewValidationError("recipe_ids", "", "at least one recipe ID is required")
	}
	if len(out) > MaxPlanRecipes {
		return nil, apperrors.NewValidationError("recipe_ids", "", "at most 50 recipe IDs per meal plan")
	}
	return out, nil
}

// PlanName returns name, or the default plan name when name is blank.
func PlanName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return recipe.DefaultPlanName
	}
	return name
}
