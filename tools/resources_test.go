package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/olgasafonova/mealdb-mcp-server/internal/cookbook"
)

func readResource(t *testing.T, cs *mcp.ClientSession, uri string) string {
	t.Helper()
	res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: uri})
	if err != nil {
		t.Fatalf("ReadResource(%s): %v", uri, err)
	}
	if len(res.Contents) != 1 {
		t.Fatalf("ReadResource(%s): %d contents, want 1", uri, len(res.Contents))
	}
	if res.Contents[0].MIMEType != "text/markdown" {
		t.Errorf("MIMEType = %q", res.Contents[0].MIMEType)
	}
	return res.Contents[0].Text
}

func TestResources(t *testing.T) {
	cs := connect(t, newTestRegistry(t))

	if md := readResource(t, cs, CuisinesURI); !strings.Contains(md, "No recipe collections found") {
		t.Errorf("empty cuisines:\n%s", md)
	}

	_, res := callTool[cookbook.SearchRecipesResult](t, cs, "search_recipes", map[string]any{"dish_name": "Arrabiata"})
	if res.IsError {
		t.Fatalf("search_recipes failed: %s", errorText(res))
	}

	if md := readResource(t, cs, CuisinesURI); !strings.Contains(md, "(folder: `arrabiata`)") {
		t.Errorf("cuisines:\n%s", md)
	}

	md := readResource(t, cs, "recipes://arrabiata")
	for _, want := range []string{"# Arrabiata Recipe Collection", "Total recipes: **4**", "## Spicy Arrabiata Penne"} {
		if !strings.Contains(md, want) {
			t.Errorf("collection resource missing %q:\n%s", want, md)
		}
	}

	md = readResource(t, cs, StatsURI)
	if !strings.Contains(md, "- **Total Recipes**: 4") || !strings.Contains(md, "- **Italian**: 4 recipes") {
		t.Errorf("stats:\n%s", md)
	}

	if md := readResource(t, cs, MealPlansURI); !strings.Contains(md, "No Meal Plans Found") {
		t.Errorf("meal plans:\n%s", md)
	}

	if md := readResource(t, cs, "recipes://sushi"); !strings.Contains(md, "No recipes found for: sushi") {
		t.Errorf("missing collection:\n%s", md)
	}
}

func TestCollectionName(t *testing.T) {
	tests := []struct {
		uri     string
		want    string
		wantErr bool
	}{
		{uri: "recipes://italian", want: "italian"},
		{uri: "recipes://chicken%20curry", want: "chicken curry"},
		{uri: "recipes://", wantErr: true},
		{uri: "http://italian", wantErr: true},
		{uri: "recipes://%zz", wantErr: true},
	}
	for _, tt := range tests {
		got, err := collectionName(tt.uri)
		if (err != nil) != tt.wantErr {
			t.Errorf("collectionName(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("collectionName(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestPrompts(t *testing.T) {
	cs := connect(t, newTestRegistry(t))
	ctx := context.Background()

	res, err := cs.GetPrompt(ctx, &mcp.GetPromptParams{
		Name:      "generate_recipe_search_prompt",
		Arguments: map[string]string{"cuisine_type": "Thai", "num_recipes": "3"},
	})
	if err != nil {
		t.Fatalf("GetPrompt: %v", err)
	}
	if len(res.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(res.Messages))
	}
	text, ok := res.Messages[0].Content.(*mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T", res.Messages[0].Content)
	}
	if !strings.Contains(text.Text, "Search for 3 recipes from 'Thai' cuisine") {
		t.Errorf("prompt text:\n%s", text.Text)
	}

	if _, err := cs.GetPrompt(ctx, &mcp.GetPromptParams{Name: "generate_recipe_search_prompt"}); err == nil {
		t.Error("expected an error for a missing required argument")
	}
}
