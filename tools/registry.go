// Package tools registers the recipe tools, resources and prompts with an MCP
// server. Tools are declared as data in AllTools and bound to their typed
// cookbook methods by the HandlerRegistry.
package tools

// ToolSpec defines a tool's metadata for declarative registration.
// Each spec maps to a cookbook method with matching Args/Result types.
type ToolSpec struct {
	// Name is the MCP tool name (e.g., "search_recipes")
	Name string

	// Method is the cookbook method name without the MCP suffix
	// (e.g., "SearchRecipes")
	Method string

	// Description is the tool description shown to LLMs
	Description string

	// Title is the human-readable tool title for annotations
	Title string

	// Category groups tools logically (search, read, plan, diagnostics)
	Category string

	// ReadOnly indicates the tool doesn't write to the recipes directory
	ReadOnly bool

	// Destructive indicates the tool can delete or overwrite data
	Destructive bool

	// Idempotent indicates repeated calls have the same effect
	Idempotent bool

	// OpenWorld indicates the tool calls the remote recipe API
	OpenWorld bool
}

// ptr is a helper to create a pointer to a value.
func ptr[T any](v T) *T {
	return &v
}
