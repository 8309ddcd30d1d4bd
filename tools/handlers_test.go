package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/olgasafonova/mealdb-mcp-server/internal/cookbook"
	"github.com/olgasafonova/mealdb-mcp-server/internal/index"
	"github.com/olgasafonova/mealdb-mcp-server/internal/mealdb"
	"github.com/olgasafonova/mealdb-mcp-server/internal/prompts"
	"github.com/olgasafonova/mealdb-mcp-server/internal/store"
)

const searchFixture = `{"meals":[
	{"idMeal":"52771","strMeal":"Spicy Arrabiata Penne","strArea":"Italian","strCategory":"Vegetarian","strInstructions":"Boil the pasta.","strIngredient1":"penne rigate","strMeasure1":"1 pound"},
	{"idMeal":"52772","strMeal":"Arrabiata Light","strArea":"Italian","strCategory":"Pasta","strInstructions":"Simmer."},
	{"idMeal":"52773","strMeal":"Arrabiata Bake","strArea":"Italian","strCategory":"Pasta","strInstructions":"Bake."},
	{"idMeal":"52774","strMeal":"Arrabiata Soup","strArea":"Italian","strCategory":"Soup","strInstructions":"Stir."}
]}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRegistry(t *testing.T) *HandlerRegistry {
	t.Helper()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search.php" && strings.EqualFold(r.URL.Query().Get("s"), "arrabiata"):
			_, _ = w.Write([]byte(searchFixture))
		case r.URL.Path == "/random.php":
			_, _ = w.Write([]byte(searchFixture))
		default:
			_, _ = w.Write([]byte(`{"meals":null}`))
		}
	}))
	t.Cleanup(api.Close)

	logger := testLogger()
	client := mealdb.NewClient(mealdb.WithBaseURL(api.URL), mealdb.WithLogger(logger))
	t.Cleanup(client.Close)

	st := store.New(t.TempDir(), logger)
	st.Init()
	service := cookbook.New(client, st, index.New(st, logger), logger)
	return NewHandlerRegistry(service, logger)
}

// connect serves the registry over in-memory transports and returns a
// connected client session.
func connect(t *testing.T, h *HandlerRegistry) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{Name: "test-server", Version: "v0.0.1"}, nil)
	h.RegisterAll(server)

	ct, st := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callTool[Result any](t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (Result, *mcp.CallToolResult) {
	t.Helper()
	var out Result

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if res.IsError {
		return out, res
	}

	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s result: %v", name, err)
	}
	return out, res
}

func errorText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestNewHandlerRegistry(t *testing.T) {
	logger := testLogger()
	service := cookbook.New(nil, nil, nil, logger)

	registry := NewHandlerRegistry(service, logger)
	if registry == nil {
		t.Fatal("Expected non-nil registry")
	}
	if registry.service != service {
		t.Error("Registry should hold the service reference")
	}
	if registry.logger != logger {
		t.Error("Registry should hold the logger reference")
	}

	if NewHandlerRegistry(service, nil).logger == nil {
		t.Error("Registry should default the logger")
	}
}

func TestBuildTool(t *testing.T) {
	registry := NewHandlerRegistry(nil, testLogger())

	tests := []struct {
		name      string
		spec      ToolSpec
		wantRO    bool
		wantIdem  bool
		wantDestr bool
		wantOpen  bool
	}{
		{
			name: "read-only tool",
			spec: ToolSpec{
				Name:        "get_recipe_details",
				Title:       "Get Recipe Details",
				Description: "Get a saved recipe",
				Method:      "GetRecipeDetails",
				ReadOnly:    true,
				Idempotent:  true,
			},
			wantRO:   true,
			wantIdem: true,
		},
		{
			name: "open world tool",
			spec: ToolSpec{
				Name:        "search_recipes",
				Title:       "Search Recipes",
				Description: "Search recipes by dish name",
				Method:      "SearchRecipes",
				OpenWorld:   true,
			},
			wantOpen: true,
		},
		{
			name: "destructive tool",
			spec: ToolSpec{
				Name:        "create_meal_plan",
				Title:       "Create Meal Plan",
				Description: "Create a meal plan",
				Method:      "CreateMealPlan",
				Destructive: true,
			},
			wantDestr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := registry.buildTool(tt.spec)

			if tool.Name != tt.spec.Name {
				t.Errorf("Name = %q, want %q", tool.Name, tt.spec.Name)
			}
			if tool.Description != tt.spec.Description {
				t.Errorf("Description = %q, want %q", tool.Description, tt.spec.Description)
			}
			if tool.Annotations == nil {
				t.Fatal("Expected annotations")
			}
			if tool.Annotations.Title != tt.spec.Title {
				t.Errorf("Title = %q, want %q", tool.Annotations.Title, tt.spec.Title)
			}
			if tool.Annotations.ReadOnlyHint != tt.wantRO {
				t.Errorf("ReadOnlyHint = %v, want %v", tool.Annotations.ReadOnlyHint, tt.wantRO)
			}
			if tool.Annotations.IdempotentHint != tt.wantIdem {
				t.Errorf("IdempotentHint = %v, want %v", tool.Annotations.IdempotentHint, tt.wantIdem)
			}
			if got := tool.Annotations.DestructiveHint != nil && *tool.Annotations.DestructiveHint; got != tt.wantDestr {
				t.Errorf("DestructiveHint = %v, want %v", got, tt.wantDestr)
			}
			if tool.Annotations.OpenWorldHint == nil || *tool.Annotations.OpenWorldHint != tt.wantOpen {
				t.Errorf("OpenWorldHint = %v, want %v", tool.Annotations.OpenWorldHint, tt.wantOpen)
			}
		})
	}
}

func TestAllToolsSpecs(t *testing.T) {
	seen := make(map[string]bool)
	for _, spec := range AllTools {
		if seen[spec.Name] {
			t.Errorf("duplicate tool name %q", spec.Name)
		}
		seen[spec.Name] = true

		if spec.Method == "" || spec.Title == "" || spec.Category == "" {
			t.Errorf("%s: Method, Title and Category are required", spec.Name)
		}
		if !strings.Contains(spec.Description, "USE WHEN:") || !strings.Contains(spec.Description, "RETURNS:") {
			t.Errorf("%s: description should carry USE WHEN and RETURNS sections", spec.Name)
		}
		if spec.ReadOnly && spec.Destructive {
			t.Errorf("%s: cannot be both read-only and destructive", spec.Name)
		}
	}
	if len(AllTools) != 7 {
		t.Errorf("len(AllTools) = %d, want 7", len(AllTools))
	}
}

func TestRegisterByName_Unknown(t *testing.T) {
	registry := NewHandlerRegistry(nil, testLogger())
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "v0"}, nil)

	if registry.registerByName(server, ToolSpec{Name: "bogus", Method: "Bogus"}) {
		t.Error("unknown method should not register")
	}
}

func TestRegisterAll_ListsEverything(t *testing.T) {
	cs := connect(t, newTestRegistry(t))
	ctx := context.Background()

	tools, err := cs.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, spec := range AllTools {
		if !names[spec.Name] {
			t.Errorf("tool %s not registered", spec.Name)
		}
	}

	resources, err := cs.ListResources(ctx, nil)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(resources.Resources) != 3 {
		t.Errorf("resources = %d, want 3", len(resources.Resources))
	}

	templates, err := cs.ListResourceTemplates(ctx, nil)
	if err != nil {
		t.Fatalf("ListResourceTemplates: %v", err)
	}
	if len(templates.ResourceTemplates) != 1 || templates.ResourceTemplates[0].URITemplate != CollectionURIs {
		t.Errorf("unexpected templates: %+v", templates.ResourceTemplates)
	}

	listed, err := cs.ListPrompts(ctx, nil)
	if err != nil {
		t.Fatalf("ListPrompts: %v", err)
	}
	if len(listed.Prompts) != len(prompts.All()) {
		t.Errorf("prompts = %d, want %d", len(listed.Prompts), len(prompts.All()))
	}
}

func TestEndToEnd_SearchThenDetails(t *testing.T) {
	cs := connect(t, newTestRegistry(t))

	search, res := callTool[cookbook.SearchRecipesResult](t, cs, "search_recipes", map[string]any{
		"dish_name":   "Arrabiata",
		"max_results": 3,
	})
	if res.IsError {
		t.Fatalf("search_recipes failed: %s", errorText(res))
	}
	if !search.Found || !search.Saved {
		t.Fatalf("search result = %+v", search)
	}
	if len(search.RecipeIDs) == 0 || len(search.RecipeIDs) > 3 {
		t.Fatalf("got %d ids, want 1..3", len(search.RecipeIDs))
	}

	details, res := callTool[cookbook.GetRecipeDetailsResult](t, cs, "get_recipe_details", map[string]any{
		"recipe_id": search.RecipeIDs[0],
	})
	if res.IsError {
		t.Fatalf("get_recipe_details failed: %s", errorText(res))
	}
	if !details.Found || details.Recipe == nil || details.Recipe.Name == "" {
		t.Fatalf("details = %+v", details)
	}
}

func TestEndToEnd_MealPlan(t *testing.T) {
	cs := connect(t, newTestRegistry(t))

	_, res := callTool[cookbook.SearchRecipesResult](t, cs, "search_recipes", map[string]any{"dish_name": "arrabiata", "max_results": 1})
	if res.IsError {
		t.Fatalf("search_recipes failed: %s", errorText(res))
	}

	plan, res := callTool[cookbook.CreateMealPlanResult](t, cs, "create_meal_plan", map[string]any{
		"recipe_ids": []string{"52771", "2"},
		"plan_name":  "Test Plan",
	})
	if res.IsError {
		t.Fatalf("create_meal_plan failed: %s", errorText(res))
	}
	if plan.TotalRecipes != 1 {
		t.Errorf("TotalRecipes = %d, want 1", plan.TotalRecipes)
	}
	if len(plan.MissingIDs) != 1 || plan.MissingIDs[0] != "2" {
		t.Errorf("MissingIDs = %v, want [2]", plan.MissingIDs)
	}

	md := readResource(t, cs, MealPlansURI)
	if !strings.Contains(md, "## Test Plan") {
		t.Errorf("meal plans resource missing plan:\n%s", md)
	}
}

func TestEndToEnd_ValidationError(t *testing.T) {
	cs := connect(t, newTestRegistry(t))

	_, res := callTool[cookbook.SearchByFirstLetterResult](t, cs, "search_by_first_letter", map[string]any{"letter": "ab"})
	if !res.IsError {
		t.Fatal("expected a tool error for a two-letter search")
	}
	if !strings.Contains(errorText(res), "single letter") {
		t.Errorf("error text = %q", errorText(res))
	}
}

func TestEndToEnd_Diagnostics(t *testing.T) {
	cs := connect(t, newTestRegistry(t))

	fsResult, res := callTool[cookbook.TestFilesystemResult](t, cs, "test_filesystem", map[string]any{})
	if res.IsError || !fsResult.Passed {
		t.Errorf("test_filesystem = %+v (%s)", fsResult, errorText(res))
	}

	info, res := callTool[cookbook.GetSystemInfoResult](t, cs, "get_system_info", map[string]any{})
	if res.IsError || !info.RecipesDirExists {
		t.Errorf("get_system_info = %+v (%s)", info, errorText(res))
	}

	random, res := callTool[cookbook.GetRandomRecipeResult](t, cs, "get_random_recipe", map[string]any{})
	if res.IsError || !random.Found {
		t.Errorf("get_random_recipe = %+v (%s)", random, errorText(res))
	}
}
