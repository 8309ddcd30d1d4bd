package tools

import (
	"context"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/olgasafonova/mealdb-mcp-server/internal/errors"
	"github.com/olgasafonova/mealdb-mcp-server/metrics"
	"github.com/olgasafonova/mealdb-mcp-server/tracing"
)

// Resource URIs.
const (
	ResourceScheme   = "recipes://"
	CuisinesURI      = ResourceScheme + "cuisines"
	MealPlansURI     = ResourceScheme + "meal-plans"
	StatsURI         = ResourceScheme + "stats"
	CollectionURIs   = ResourceScheme + "{cuisine}"
	markdownMIMEType = "text/markdown"
)

// RegisterResources registers the read-only markdown resources. The fixed
// URIs take precedence over the collection template.
func (h *HandlerRegistry) RegisterResources(server *mcp.Server) {
	s := h.service

	server.AddResource(&mcp.Resource{
		URI:         CuisinesURI,
		Name:        "cuisines",
		Title:       "Recipe Collections",
		Description: "List of all saved recipe collections",
		MIMEType:    markdownMIMEType,
	}, h.markdown("cuisines", func(ctx context.Context, _ string) (string, error) {
		return s.CuisinesMarkdown(ctx)
	}))

	server.AddResource(&mcp.Resource{
		URI:         MealPlansURI,
		Name:        "meal-plans",
		Title:       "Meal Plans",
		Description: "List of all saved meal plans",
		MIMEType:    markdownMIMEType,
	}, h.markdown("meal-plans", func(ctx context.Context, _ string) (string, error) {
		return s.MealPlansMarkdown(ctx)
	}))

	server.AddResource(&mcp.Resource{
		URI:         StatsURI,
		Name:        "stats",
		Title:       "Recipe Statistics",
		Description: "Totals and top cuisines and categories across saved recipes",
		MIMEType:    markdownMIMEType,
	}, h.markdown("stats", func(ctx context.Context, _ string) (string, error) {
		return s.StatsMarkdown(ctx)
	}))

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: CollectionURIs,
		Name:        "collection",
		Title:       "Recipe Collection",
		Description: "Saved recipes of one collection, e.g. recipes://italian",
		MIMEType:    markdownMIMEType,
	}, h.markdown("collection", func(ctx context.Context, uri string) (string, error) {
		name, err := collectionName(uri)
		if err != nil {
			return "", err
		}
		return s.CollectionMarkdown(ctx, name)
	}))
}

// markdown adapts a renderer to a resource handler with tracing and metrics.
func (h *HandlerRegistry) markdown(resource string, render func(ctx context.Context, uri string) (string, error)) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI

		ctx, span := tracing.StartSpan(ctx, "mcp.resource."+resource)
		defer span.End()

		text, err := render(ctx, uri)
		metrics.RecordResourceRead(resource, err == nil)
		if err != nil {
			tracing.RecordError(span, err)
			h.logger.Warn("Resource read failed", "uri", uri, "error", err)
			if apperrors.IsValidation(err) {
				return nil, mcp.ResourceNotFoundError(uri)
			}
			return nil, err
		}

		h.logger.Debug("Resource read", "uri", uri, "chars", len(text))
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      uri,
				MIMEType: markdownMIMEType,
				Text:     text,
			}},
		}, nil
	}
}

// collectionName extracts the collection from a recipes://{cuisine} URI.
func collectionName(uri string) (string, error) {
	raw, ok := strings.CutPrefix(uri, ResourceScheme)
	if !ok || raw == "" {
		return "", apperrors.NewValidationError("uri", uri, "expected recipes://<collection>")
	}
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", apperrors.NewValidationError("uri", uri, "invalid escape")
	}
	return name, nil
}
