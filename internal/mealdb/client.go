// Package mealdb is the client for TheMealDB public JSON API.
package mealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/olgasafonova/mealdb-mcp-server/internal/base"
	apperrors "github.com/olgasafonova/mealdb-mcp-server/internal/errors"
	"github.com/olgasafonova/mealdb-mcp-server/internal/infra"
	"github.com/olgasafonova/mealdb-mcp-server/internal/recipe"
	"github.com/olgasafonova/mealdb-mcp-server/metrics"
	"github.com/olgasafonova/mealdb-mcp-server/tracing"
)

const (
	// DefaultBaseURL is the free TheMealDB API endpoint
	DefaultBaseURL = "https://www.themealdb.com/api/json/v1/1"

	// DefaultCacheTTL for cached search results
	DefaultCacheTTL = 5 * time.Minute

	// Action labels used in errors, logs and metrics.
	ActionSearch       = "search"
	ActionSearchLetter = "search_letter"
	ActionRandom       = "random"
)

// Client provides access to TheMealDB.
type Client struct {
	*base.Client
	baseURL  string
	cache    *infra.Cache[[]recipe.Recipe]
	cacheTTL time.Duration
}

// Option configures the Client.
type Option func(*settings)

type settings struct {
	baseURL  string
	cacheTTL time.Duration
	cache    *infra.Cache[[]recipe.Recipe]
	base     []base.ClientOption
}

// WithBaseURL points the client at another API root, such as a test server.
func WithBaseURL(u string) Option {
	return func(s *settings) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.base = append(s.base, base.WithHTTPClient(c)) }
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.base = append(s.base, base.WithLogger(l)) }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.base = append(s.base, base.WithTimeout(d)) }
}

// WithUserAgent sets the User-Agent sent to the API.
func WithUserAgent(ua string) Option {
	return func(s *settings) { s.base = append(s.base, base.WithUserAgent(ua)) }
}

// WithCache sets a custom search cache
func WithCache(c *infra.Cache[[]recipe.Recipe]) Option {
	return func(s *settings) { s.cache = c }
}

// WithCacheTTL sets how long search results are cached. Zero disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(s *settings) { s.cacheTTL = d }
}

// NewClient creates a TheMealDB client
func NewClient(opts ...Option) *Client {
	s := settings{baseURL: DefaultBaseURL, cacheTTL: DefaultCacheTTL}
	for _, opt := range opts {
		opt(&s)
	}
	if s.cache == nil {
		s.cache = infra.NewCache[[]recipe.Recipe](infra.DefaultMaxCacheEntries)
	}
	return &Client{
		Client:   base.NewClient(s.base...),
		baseURL:  s.baseURL,
		cache:    s.cache,
		cacheTTL: s.cacheTTL,
	}
}

// Close releases the search cache
func (c *Client) Close() {
	c.cache.Close()
}

// Stats describes the client's cache and circuit breaker.
type Stats struct {
	CacheEntries   int64                     `json:"cache_entries"`
	CacheEvictions int64                     `json:"cache_evictions"`
	Circuit        infra.CircuitBreakerStats `json:"circuit"`
}

// Stats returns a snapshot of the cache and circuit breaker.
func (c *Client) Stats() Stats {
	return Stats{
		CacheEntries:   c.cache.Size(),
		CacheEvictions: c.cache.Evictions(),
		Circuit:        c.CircuitBreakerStats(),
	}
}

// SearchByName returns recipes whose name matches term. No match is an empty
// result, not an error.
func (c *Client) SearchByName(ctx context.Context, term string) ([]recipe.Recipe, error) {
	params := url.Values{}
	params.Set("s", strings.TrimSpace(term))
	return c.search(ctx, ActionSearch, params)
}

// SearchByLetter returns recipes whose name starts with letter.
func (c *Client) SearchByLetter(ctx context.Context, letter string) ([]recipe.Recipe, error) {
	params := url.Values{}
	params.Set("f", strings.ToLower(letter))
	return c.search(ctx, ActionSearchLetter, params)
}

func (c *Client) search(ctx context.Context, action string, params url.Values) ([]recipe.Recipe, error) {
	cacheKey := action + ":" + strings.ToLower(params.Encode())
	if cached, ok := c.cache.Get(cacheKey); ok {
		metrics.RecordCacheAccess(true)
		return slices.Clone(cached), nil
	}
	metrics.RecordCacheAccess(false)

	var resp mealsResponse
	if err := c.fetch(ctx, action, "/search.php", params, true, &resp); err != nil {
		return nil, err
	}
	recipes := toRecipes(resp.Meals)

	if c.cacheTTL > 0 {
		c.cache.Set(cacheKey, recipes, c.cacheTTL)
		metrics.SetCacheSize(c.cache.Size())
	}
	return slices.Clone(recipes), nil
}

// Random returns one random recipe, or nil if the API returned none.
// Random results are never cached.
func (c *Client) Random(ctx context.Context) (*recipe.Recipe, error) {
	var resp mealsResponse
	if err := c.fetch(ctx, ActionRandom, "/random.php", nil, false, &resp); err != nil {
		return nil, err
	}
	recipes := toRecipes(resp.Meals)
	if len(recipes) == 0 {
		return nil, nil
	}
	return &recipes[0], nil
}

// fetch performs one GET against the API and decodes the JSON body into out.
func (c *Client) fetch(ctx context.Context, action, path string, params url.Values, shared bool, out any) error {
	ctx, span := tracing.StartSpan(ctx, "mealdb."+action)
	defer span.End()
	tracing.AddRecipeAPIAttributes(span, action, params.Encode())

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	body, err := c.Get(ctx, base.Request{Action: action, URL: reqURL, Shared: shared})
	if err != nil {
		tracing.RecordError(span, err)
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		err = &apperrors.RemoteError{Action: action, Err: fmt.Errorf("failed to parse response: %w", err)}
		tracing.RecordError(span, err)
		return err
	}
	return nil
}
