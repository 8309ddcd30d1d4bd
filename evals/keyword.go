package evals

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

var (
	recipeIDPattern  = regexp.MustCompile(`\b\d{5,}\b`)
	letterPattern    = regexp.MustCompile(`(?:start|starts|starting|begin|begins|beginning) with (?:the letter |letter )?['"]?([a-z])['"]?(?:\W|$)|\bletter ['"]?([a-z])['"]?(?:\W|$)`)
	countPattern     = regexp.MustCompile(`\b(\d{1,2}) (?:\w+ ){0,3}(?:recipes|dishes|options|ideas)\b`)
	dishPattern      = regexp.MustCompile(`(?:recipes? for|how (?:do i|to) (?:make|cook)|search for|look up|find me|find)\s+(?:an? |some )?(.+?)(?:\s+recipes?)?[?.!]*$`)
	leadingCount     = regexp.MustCompile(`^\d+\s+`)
	planNamePattern  = regexp.MustCompile(`(?:called|named) ['"]?([^'"]+?)['"]?(?:\s+(?:with|from|using)\b|[?.!]*$)`)
	randomKeywords   = []string{"random", "surprise me", "anything", "inspire me", "no idea what to cook"}
	diagnosticsKeys  = []string{"system info", "platform", "recipes directory", "where are my recipes", "where are recipes stored", "go version", "storage directory"}
	filesystemKeys   = []string{"filesystem", "file system", "write to disk", "save files", "disk writable"}
	mealPlanKeywords = []string{"meal plan", "plan my meals", "plan for the week", "weekly menu"}
)

// KeywordSelector is a deterministic baseline that routes requests by
// keywords. It gives the suites a reference score without an LLM.
type KeywordSelector struct{}

// SelectTool picks a tool and extracts the arguments it can recognise.
func (KeywordSelector) SelectTool(_ context.Context, input string) (string, map[string]any, error) {
	text := strings.ToLower(strings.TrimSpace(input))

	switch {
	case containsAny(text, filesystemKeys):
		return "test_filesystem", map[string]any{}, nil

	case containsAny(text, diagnosticsKeys):
		return "get_system_info", map[string]any{}, nil

	case containsAny(text, mealPlanKeywords):
		args := map[string]any{}
		if ids := recipeIDPattern.FindAllString(text, -1); len(ids) > 0 {
			list := make([]any, len(ids))
			for i, id := range ids {
				list[i] = id
			}
			args["recipe_ids"] = list
		}
		if m := planNamePattern.FindStringSubmatch(input); m != nil {
			args["plan_name"] = strings.TrimSpace(m[1])
		}
		return "create_meal_plan", args, nil

	case containsAny(text, randomKeywords):
		return "get_random_recipe", map[string]any{}, nil
	}

	if m := letterPattern.FindStringSubmatch(text); m != nil {
		letter := m[1]
		if letter == "" {
			letter = m[2]
		}
		args := map[string]any{"letter": letter}
		addCount(text, args)
		return "search_by_first_letter", args, nil
	}

	if id := recipeIDPattern.FindString(text); id != "" {
		return "get_recipe_details", map[string]any{"recipe_id": id}, nil
	}

	args := map[string]any{}
	if m := dishPattern.FindStringSubmatch(text); m != nil {
		dish := leadingCount.ReplaceAllString(countPattern.ReplaceAllString(m[1], ""), "")
		if dish = strings.TrimSpace(dish); dish != "" {
			args["dish_name"] = dish
		}
	}
	addCount(text, args)
	return "search_recipes", args, nil
}

func addCount(text string, args map[string]any) {
	if m := countPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			args["max_results"] = n
		}
	}
}

func containsAny(text string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
