package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/olgasafonova/mealdb-mcp-server/internal/prompts"
	"github.com/olgasafonova/mealdb-mcp-server/metrics"
)

// RegisterPrompts registers the prompt templates.
func (h *HandlerRegistry) RegisterPrompts(server *mcp.Server) {
	for _, p := range prompts.All() {
		args := make([]*mcp.PromptArgument, 0, len(p.Arguments))
		for _, a := range p.Arguments {
			desc := a.Description
			if !a.Required() {
				desc += " (default: " + a.Default + ")"
			}
			args = append(args, &mcp.PromptArgument{
				Name:        a.Name,
				Description: desc,
				Required:    a.Required(),
			})
		}

		server.AddPrompt(&mcp.Prompt{
			Name:        p.Name,
			Description: p.Description,
			Arguments:   args,
		}, h.renderPrompt(p))
	}
}

func (h *HandlerRegistry) renderPrompt(p prompts.Prompt) mcp.PromptHandler {
	return func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		text, err := p.Render(req.Params.Arguments)
		if err != nil {
			h.logger.Warn("Prompt render failed", "prompt", p.Name, "error", err)
			return nil, err
		}
		metrics.PromptRenders.WithLabelValues(p.Name).Inc()

		return &mcp.GetPromptResult{
			Description: p.Description,
			Messages: []*mcp.PromptMessage{{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			}},
		}, nil
	}
}
