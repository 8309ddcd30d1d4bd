package tools

// AllTools contains all tool specifications for the recipe server.
// Tool descriptions follow a structured format for LLM tool selection:
// - USE WHEN: Natural language triggers
// - NOT FOR: Disambiguation from similar tools
// - PARAMETERS: Key arguments with defaults
// - RETURNS: What the tool returns
var AllTools = []ToolSpec{
	// ==========================================================================
	// SEARCH TOOLS
	// ==========================================================================
	{
		Name:     "search_recipes",
		Method:   "SearchRecipes",
		Title:    "Search Recipes",
		Category: "search",
		Description: `Search TheMealDB for recipes by dish name and save them locally.

USE WHEN: User asks "find recipes for X", "search for pasta dishes", "what can I cook with chicken curry".

NOT FOR: Browsing by first letter (use search_by_first_letter). Reading a recipe already found (use get_recipe_details).

PARAMETERS:
- dish_name: ONLY the dish or food name, e.g. "Arrabiata" (required)
- max_results: Number of recipes to keep (default 5, max 50)

RETURNS: Recipe IDs of the saved recipes. Use get_recipe_details with an ID for full details.`,
		OpenWorld: true,
	},
	{
		Name:     "search_by_first_letter",
		Method:   "SearchByFirstLetter",
		Title:    "Search Recipes by First Letter",
		Category: "search",
		Description: `List recipes whose name starts with a given letter and save them locally.

USE WHEN: User asks "show me recipes starting with B", "browse dishes under the letter K".

NOT FOR: Searching by dish name (use search_recipes).

PARAMETERS:
- letter: A single letter a-z (required)
- max_results: Number of recipes to keep (default 5, max 50)

RETURNS: Recipe IDs and names. The IDs work with get_recipe_details.`,
		OpenWorld: true,
	},
	{
		Name:     "get_random_recipe",
		Method:   "GetRandomRecipe",
		Title:    "Random Recipe",
		Category: "search",
		Description: `Fetch one random recipe for inspiration.

USE WHEN: User asks "surprise me", "what should I cook tonight", "give me a random recipe".

NOT FOR: Specific dishes (use search_recipes).

RETURNS: The full recipe. It is not saved locally.`,
		ReadOnly:  true,
		OpenWorld: true,
	},

	// ==========================================================================
	// READ TOOLS
	// ==========================================================================
	{
		Name:     "get_recipe_details",
		Method:   "GetRecipeDetails",
		Title:    "Get Recipe Details",
		Category: "read",
		Description: `Get the full saved details of a recipe: ingredients, measures, instructions and links.

USE WHEN: User asks "how do I make recipe 52771", "show the ingredients for that recipe", or after a search returned IDs.

NOT FOR: Finding recipes (use search_recipes first; only saved recipes can be read).

PARAMETERS:
- recipe_id: ONLY the numeric recipe ID, e.g. "52771" (required)

RETURNS: The recipe, or found=false with a message if it was never saved.`,
		ReadOnly:   true,
		Idempotent: true,
	},

	// ==========================================================================
	// PLANNING TOOLS
	// ==========================================================================
	{
		Name:     "create_meal_plan",
		Method:   "CreateMealPlan",
		Title:    "Create Meal Plan",
		Category: "plan",
		Description: `Create a named meal plan from saved recipe IDs.

USE WHEN: User says "make a meal plan with these recipes", "plan my week with 52771 and 52772".

NOT FOR: Finding recipes (search first so the IDs are saved).

PARAMETERS:
- recipe_ids: Recipe IDs as strings; include every ID named in the request (required)
- plan_name: Plan name (default "My Meal Plan"). A plan with the same name is replaced.

RETURNS: Plan ID, recipe summaries, IDs that could not be found and the saved file path.`,
		Destructive: true,
	},

	// ==========================================================================
	// DIAGNOSTIC TOOLS
	// ==========================================================================
	{
		Name:     "test_filesystem",
		Method:   "TestFilesystem",
		Title:    "Test Filesystem",
		Category: "diagnostics",
		Description: `Check that files can be written and read back in a temporary directory.

USE WHEN: Saving recipes fails and the user wants to troubleshoot.

RETURNS: Pass/fail with the platform name.`,
		ReadOnly:   true,
		Idempotent: true,
	},
	{
		Name:     "get_system_info",
		Method:   "GetSystemInfo",
		Title:    "System Info",
		Category: "diagnostics",
		Description: `Report platform, Go version and the state of the recipes directory.

USE WHEN: User asks "where are my recipes saved", "is the recipes folder writable", or is debugging the server.

RETURNS: Platform, recipes directory, existence, writability, working directory and counts of collections, meal plans and indexed recipes.`,
		ReadOnly:   true,
		Idempotent: true,
	},
}
