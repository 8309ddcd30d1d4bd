// Package prompts holds the reusable prompt templates offered to MCP clients.
// Rendering is pure: no tool is called and nothing is written.
package prompts

import (
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	apperrors "github.com/olgasafonova/mealdb-mcp-server/internal/errors"
)

//go:embed templates/*.tmpl
var files embed.FS

var templates = template.Must(
	template.New("prompts").Option("missingkey=error").ParseFS(files, "templates/*.tmpl"),
)

// Argument describes one prompt argument. Arguments with a Default are
// optional.
type Argument struct {
	Name        string
	Description string
	Default     string
	Integer     bool
}

// Required reports whether the caller must supply a value.
func (a Argument) Required() bool { return a.Default == "" }

// Prompt is a named template with its arguments.
type Prompt struct {
	Name        string
	Description string
	Arguments   []Argument
	file        string
}

var catalog = []Prompt{
	{
		Name:        "generate_recipe_search_prompt",
		Description: "Find and discuss recipes from a specific cuisine",
		file:        "recipe_search.tmpl",
		Arguments: []Argument{
			{Name: "cuisine_type", Description: "Cuisine or dish to search for, e.g. Italian"},
			{Name: "num_recipes", Description: "How many recipes to look at", Default: "5", Integer: true},
		},
	},
	{
		Name:        "generate_meal_planning_prompt",
		Description: "Create a comprehensive meal plan",
		file:        "meal_planning.tmpl",
		Arguments: []Argument{
			{Name: "meal_type", Description: "Meal to plan, e.g. dinner or brunch"},
			{Name: "people_count", Description: "Number of people to serve", Default: "4", Integer: true},
			{Name: "dietary_restrictions", Description: "Dietary restrictions to respect", Default: "none"},
		},
	},
	{
		Name:        "generate_cooking_lesson_prompt",
		Description: "Create a structured cooking lesson around one technique",
		file:        "cooking_lesson.tmpl",
		Arguments: []Argument{
			{Name: "skill_level", Description: "Cook's skill level, e.g. beginner"},
			{Name: "technique_focus", Description: "Technique to teach, e.g. braising"},
			{Name: "cuisine_style", Description: "Cuisine the lesson draws from", Default: "any"},
		},
	},
	{
		Name:        "generate_ingredient_exploration_prompt",
		Description: "Explore recipes featuring a specific ingredient",
		file:        "ingredient_exploration.tmpl",
		Arguments: []Argument{
			{Name: "main_ingredient", Description: "Ingredient to explore"},
			{Name: "cooking_styles", Description: "Cooking styles to cover", Default: "diverse"},
			{Name: "num_recipes", Description: "How many recipes to look at", Default: "6", Integer: true},
		},
	},
	{
		Name:        "generate_cultural_cuisine_prompt",
		Description: "Explore the cultural and historical side of a cuisine",
		file:        "cultural_cuisine.tmpl",
		Arguments: []Argument{
			{Name: "cuisine_name", Description: "Cuisine to explore"},
			{Name: "cultural_context", Description: "Perspective to take, e.g. traditional or modern", Default: "traditional"},
			{Name: "num_recipes", Description: "How many recipes to look at", Default: "5", Integer: true},
		},
	},
}

// All returns every prompt.
func All() []Prompt {
	return append([]Prompt(nil), catalog...)
}

// Lookup returns the prompt called name.
func Lookup(name string) (Prompt, bool) {
	for _, p := range catalog {
		if p.Name == name {
			return p, true
		}
	}
	return Prompt{}, false
}

// Render fills the template with args. Missing optional arguments take their
// defaults; unknown arguments are ignored.
func (p Prompt) Render(args map[string]string) (string, error) {
	values := make(map[string]string, len(p.Arguments))
	for _, a := range p.Arguments {
		v := strings.TrimSpace(args[a.Name])
		if v == "" {
			if a.Required() {
				return "", apperrors.NewValidationError(a.Name, "", "is required")
			}
			v = a.Default
		}
		if a.Integer {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return "", apperrors.NewValidationError(a.Name, v, "must be a positive integer")
			}
		}
		values[a.Name] = v
	}

	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, p.file, values); err != nil {
		return "", fmt.Errorf("render %s: %w", p.Name, err)
	}
	return strings.TrimSpace(b.String()), nil
}
