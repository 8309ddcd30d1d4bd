package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/olgasafonova/mealdb-mcp-server/internal/cookbook"
	apperrors "github.com/olgasafonova/mealdb-mcp-server/internal/errors"
	"github.com/olgasafonova/mealdb-mcp-server/metrics"
	"github.com/olgasafonova/mealdb-mcp-server/tracing"
)

// HandlerRegistry provides type-safe tool registration by mapping
// tool names to their cookbook methods.
type HandlerRegistry struct {
	service *cookbook.Service
	logger  *slog.Logger
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry(service *cookbook.Service, logger *slog.Logger) *HandlerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &HandlerRegistry{
		service: service,
		logger:  logger,
	}
}

// RegisterAll registers every tool, resource and prompt with the MCP server.
func (h *HandlerRegistry) RegisterAll(server *mcp.Server) {
	registered := 0
	for _, spec := range AllTools {
		if h.registerByName(server, spec) {
			registered++
		}
	}
	h.RegisterResources(server)
	h.RegisterPrompts(server)
	h.logger.Info("Registered all tools", "count", registered)
}

// registerByName dispatches to the correct typed registration function.
func (h *HandlerRegistry) registerByName(server *mcp.Server, spec ToolSpec) bool {
	tool := h.buildTool(spec)
	s := h.service

	switch spec.Method {
	case "SearchRecipes":
		register(h, server, tool, spec, s.SearchRecipesMCP)
	case "GetRecipeDetails":
		register(h, server, tool, spec, s.GetRecipeDetailsMCP)
	case "CreateMealPlan":
		register(h, server, tool, spec, s.CreateMealPlanMCP)
	case "SearchByFirstLetter":
		register(h, server, tool, spec, s.SearchByFirstLetterMCP)
	case "GetRandomRecipe":
		register(h, server, tool, spec, s.GetRandomRecipeMCP)
	case "TestFilesystem":
		register(h, server, tool, spec, s.TestFilesystemMCP)
	case "GetSystemInfo":
		register(h, server, tool, spec, s.GetSystemInfoMCP)
	default:
		h.logger.Error("Unknown method, tool not registered", "method", spec.Method, "tool", spec.Name)
		return false
	}
	return true
}

// buildTool creates an mcp.Tool from a ToolSpec.
func (h *HandlerRegistry) buildTool(spec ToolSpec) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:          spec.Title,
		ReadOnlyHint:   spec.ReadOnly,
		IdempotentHint: spec.Idempotent,
	}
	if spec.Destructive {
		annotations.DestructiveHint = ptr(true)
	} else if !spec.ReadOnly {
		annotations.DestructiveHint = ptr(false)
	}
	annotations.OpenWorldHint = ptr(spec.OpenWorld)

	return &mcp.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		Annotations: annotations,
	}
}

// register is a generic helper that registers a tool with the MCP server.
// It wraps the cookbook method with panic recovery, metrics, tracing, and logging.
func register[Args, Result any](
	h *HandlerRegistry,
	server *mcp.Server,
	tool *mcp.Tool,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) {
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args Args) (res *mcp.CallToolResult, out Result, err error) {
		defer h.recoverPanic(spec.Name, &err)

		ctx, span := tracing.StartSpan(ctx, "mcp.tool."+spec.Name)
		defer span.End()

		tracing.AddToolAttributes(span, spec.Name, spec.Category)
		span.SetAttributes(attribute.Bool("mcp.tool.readonly", spec.ReadOnly))

		metrics.RequestInFlight.WithLabelValues(spec.Name).Inc()
		defer metrics.RequestInFlight.WithLabelValues(spec.Name).Dec()

		start := time.Now()
		result, err := method(ctx, args)
		duration := time.Since(start).Seconds()

		span.SetAttributes(attribute.Float64("mcp.tool.duration_seconds", duration))

		if err != nil {
			kind := apperrors.KindOf(err)
			span.SetAttributes(attribute.String("error.kind", string(kind)))
			tracing.RecordError(span, err)
			metrics.RecordRequest(spec.Name, duration, false)
			h.logger.Warn("Tool failed", "tool", spec.Name, "kind", kind, "error", err)
			var zero Result
			return nil, zero, fmt.Errorf("%s failed: %w", spec.Name, err)
		}

		span.SetStatus(codes.Ok, "")
		metrics.RecordRequest(spec.Name, duration, true)
		h.logExecution(spec, args, result)
		return nil, result, nil
	})
}

// recoverPanic recovers from panics in tool handlers and turns them into
// tool errors.
func (h *HandlerRegistry) recoverPanic(toolName string, err *error) {
	if rec := recover(); rec != nil {
		metrics.PanicsRecovered.WithLabelValues(toolName).Inc()
		h.logger.Error("Panic recovered",
			"tool", toolName,
			"panic", rec,
			"stack", string(debug.Stack()))
		if err != nil {
			*err = fmt.Errorf("%s failed: internal error", toolName)
		}
	}
}

// logExecution logs tool execution details.
func (h *HandlerRegistry) logExecution(spec ToolSpec, args, result any) {
	attrs := []any{"tool", spec.Name, "category", spec.Category}

	switch a := args.(type) {
	case cookbook.SearchRecipesArgs:
		attrs = append(attrs, "dish_name", a.DishName, "max_results", a.MaxResults)
	case cookbook.GetRecipeDetailsArgs:
		attrs = append(attrs, "recipe_id", a.RecipeID)
	case cookbook.CreateMealPlanArgs:
		attrs = append(attrs, "plan_name", a.PlanName, "requested", len(a.RecipeIDs))
	case cookbook.SearchByFirstLetterArgs:
		attrs = append(attrs, "letter", a.Letter, "max_results", a.MaxResults)
	}

	switch r := result.(type) {
	case cookbook.SearchRecipesResult:
		attrs = append(attrs, "found", r.Found, "results_count", len(r.RecipeIDs), "saved", r.Saved)
	case cookbook.GetRecipeDetailsResult:
		attrs = append(attrs, "found", r.Found)
	case cookbook.CreateMealPlanResult:
		attrs = append(attrs, "total_recipes", r.TotalRecipes, "missing", len(r.MissingIDs))
	case cookbook.SearchByFirstLetterResult:
		attrs = append(attrs, "found", r.Found, "results_count", len(r.RecipeIDs), "saved", r.Saved)
	case cookbook.GetRandomRecipeResult:
		attrs = append(attrs, "found", r.Found)
	case cookbook.TestFilesystemResult:
		attrs = append(attrs, "passed", r.Passed)
	case cookbook.GetSystemInfoResult:
		attrs = append(attrs, "writable", r.RecipesDirWritable)
	}

	h.logger.Info("Tool executed", attrs...)
}
