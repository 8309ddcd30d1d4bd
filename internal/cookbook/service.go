// Package cookbook implements the recipe tools and resources on top of the
// remote recipe source, the recipes directory and the recipe index.
package cookbook

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/olgasafonova/mealdb-mcp-server/internal/errors"
	"github.com/olgasafonova/mealdb-mcp-server/internal/index"
	"github.com/olgasafonova/mealdb-mcp-server/internal/infra"
	"github.com/olgasafonova/mealdb-mcp-server/internal/recipe"
	"github.com/olgasafonova/mealdb-mcp-server/internal/store"
)

// RecipeSource fetches recipes from the remote recipe database.
type RecipeSource interface {
	SearchByName(ctx context.Context, term string) ([]recipe.Recipe, error)
	SearchByLetter(ctx context.Context, letter string) ([]recipe.Recipe, error)
	Random(ctx context.Context) (*recipe.Recipe, error)
}

// Service backs every recipe tool and resource.
type Service struct {
	source RecipeSource
	store  *store.Store
	index  *index.Index
	logger *slog.Logger

	now   func() time.Time
	newID func() string
}

// New creates a Service.
func New(source RecipeSource, st *store.Store, ix *index.Index, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source: source,
		store:  st,
		index:  ix,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Store returns the underlying recipes directory.
func (s *Service) Store() *store.Store { return s.store }

// Index returns the recipe index.
func (s *Service) Index() *index.Index { return s.index }

// Recipe resolves a saved recipe through the index. A missing or stale entry
// triggers one repair before the recipe is reported as not found.
func (s *Service) Recipe(ctx context.Context, id string) (recipe.Recipe, error) {
	if loc, ok := s.index.Lookup(ctx, id); ok {
		if r, err := s.readRecipe(loc, id); err == nil {
			return r, nil
		}
	}

	loc, ok := s.index.Repair(ctx, id)
	if !ok {
		return recipe.Recipe{}, apperrors.NewNotFoundError("recipe", id)
	}
	return s.readRecipe(loc, id)
}

func (s *Service) readRecipe(path, id string) (recipe.Recipe, error) {
	coll, err := s.store.ReadCollectionAt(path)
	if err != nil {
		return recipe.Recipe{}, err
	}
	r, ok := coll[id]
	if !ok {
		return recipe.Recipe{}, apperrors.NewNotFoundError("recipe", id)
	}
	return r, nil
}

// resolveAll looks up ids concurrently. Each id gets its own outcome and one
// failing lookup never cancels the others.
func (s *Service) resolveAll(ctx context.Context, ids []string) []infra.Outcome[recipe.Recipe] {
	tasks := make([]func(context.Context) (recipe.Recipe, error), len(ids))
	for i, id := range ids {
		tasks[i] = func(ctx context.Context) (recipe.Recipe, error) {
			return s.Recipe(ctx, id)
		}
	}
	return infra.Gather(ctx, infra.DefaultGatherLimit, tasks)
}

// saveCollection merges recipes into the named collection and records their
// ids in the index.
func (s *Service) saveCollection(ctx context.Context, name string, recipes []recipe.Recipe) (string, error) {
	path, err := s.store.WriteCollection(name, recipes)
	if err != nil {
		return "", err
	}
	s.index.Record(ctx, path, recipeIDs(recipes)...)
	return path, nil
}

func recipeIDs(recipes []recipe.Recipe) []string {
	out := make([]string, len(recipes))
	for i, r := range recipes {
		out[i] = r.ID
	}
	return out
}
