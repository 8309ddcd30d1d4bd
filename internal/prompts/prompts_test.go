package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/olgasafonova/mealdb-mcp-server/internal/errors"
)

func TestCatalog(t *testing.T) {
	names := map[string]bool{}
	for _, p := range All() {
		assert.False(t, names[p.Name], "duplicate prompt %s", p.Name)
		names[p.Name] = true
		assert.NotEmpty(t, p.Description)
		assert.NotNil(t, templates.Lookup(p.file), "template for %s", p.Name)
	}
	assert.Len(t, names, 5)
}

func TestRender_Defaults(t *testing.T) {
	tests := []struct {
		name string
		args map[string]string
		want []string
	}{
		{
			name: "generate_recipe_search_prompt",
			args: map[string]string{"cuisine_type": "Italian"},
			want: []string{"Search for 5 recipes from 'Italian' cuisine", "max_results=5"},
		},
		{
			name: "generate_meal_planning_prompt",
			args: map[string]string{"meal_type": "dinner"},
			want: []string{"dinner meal plan for 4 people", "'none'", "create_meal_plan"},
		},
		{
			name: "generate_cooking_lesson_prompt",
			args: map[string]string{"skill_level": "beginner", "technique_focus": "braising"},
			want: []string{"beginner level cook", "'braising'", "within any cuisine"},
		},
		{
			name: "generate_ingredient_exploration_prompt",
			args: map[string]string{"main_ingredient": "garlic"},
			want: []string{"'garlic' through 6 diverse recipes", "diverse cooking styles"},
		},
		{
			name: "generate_cultural_cuisine_prompt",
			args: map[string]string{"cuisine_name": "Japanese"},
			want: []string{"Japanese cuisine from a traditional perspective through 5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := Lookup(tt.name)
			require.True(t, ok)

			text, err := p.Render(tt.args)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, text, w)
			}
			assert.NotContains(t, text, "{{")
			assert.NotContains(t, text, "<no value>")
			assert.Equal(t, strings.TrimSpace(text), text)
		})
	}
}

func TestRender_Overrides(t *testing.T) {
	p, _ := Lookup("generate_meal_planning_prompt")
	text, err := p.Render(map[string]string{
		"meal_type":            "brunch",
		"people_count":         "2",
		"dietary_restrictions": "vegetarian",
		"unused":               "ignored",
	})
	require.NoError(t, err)
	assert.Contains(t, text, "brunch meal plan for 2 people with dietary considerations: 'vegetarian'")
}

func TestRender_Errors(t *testing.T) {
	p, _ := Lookup("generate_recipe_search_prompt")

	_, err := p.Render(nil)
	assert.True(t, apperrors.IsValidation(err))

	for _, bad := range []string{"zero", "0", "-2"} {
		_, err = p.Render(map[string]string{"cuisine_type": "Thai", "num_recipes": bad})
		assert.True(t, apperrors.IsValidation(err), bad)
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, ok := Lookup("nope")
	assert.False(t, ok)
}

func TestArgumentRequired(t *testing.T) {
	p, _ := Lookup("generate_cooking_lesson_prompt")
	var required []string
	for _, a := range p.Arguments {
		if a.Required() {
			required = append(required, a.Name)
		}
	}
	assert.Equal(t, []string{"skill_level", "technique_focus"}, required)
}
