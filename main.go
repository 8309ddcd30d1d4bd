// MealDB MCP Server - A Model Context Protocol server for TheMealDB recipes.
// Searches recipes, saves them locally, and builds meal plans from the saved set.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olgasafonova/mealdb-mcp-server/internal/config"
	"github.com/olgasafonova/mealdb-mcp-server/internal/cookbook"
	"github.com/olgasafonova/mealdb-mcp-server/internal/index"
	"github.com/olgasafonova/mealdb-mcp-server/internal/mealdb"
	"github.com/olgasafonova/mealdb-mcp-server/internal/store"
	"github.com/olgasafonova/mealdb-mcp-server/tools"
	"github.com/olgasafonova/mealdb-mcp-server/tracing"
)

const (
	ServerName    = "mealdb-mcp-server"
	ServerVersion = "1.0.0"
)

const instructions = `MealDB MCP Server searches TheMealDB and keeps the results as a local recipe library.

Available tools:
- search_recipes: Search recipes by dish name and save them as a collection
- search_by_first_letter: Browse recipes whose name starts with a letter
- get_random_recipe: Fetch one random recipe
- get_recipe_details: Read a saved recipe by its ID
- create_meal_plan: Group saved recipes into a named meal plan
- test_filesystem: Check that the server can write files
- get_system_info: Show the platform and recipes directory

Resources:
- recipes://cuisines, recipes://meal-plans, recipes://stats
- recipes://{cuisine} for one saved collection

Search before asking for details: get_recipe_details and create_meal_plan only see saved recipes.`

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (default $"+config.EnvConfigFile+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// stdout carries the MCP protocol on stdio
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	tcfg := tracing.DefaultConfig()
	tcfg.ServiceName = ServerName
	tcfg.ServiceVersion = ServerVersion
	shutdownTracing, err := tracing.Setup(ctx, tcfg)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	server, client := newServer(ctx, cfg, logger)
	defer client.Close()

	logger.Info("Starting MealDB MCP Server",
		"name", ServerName,
		"version", ServerVersion,
		"transport", cfg.Server.Transport,
		"recipes_dir", cfg.RecipesDir,
		"api", cfg.MealDB.BaseURL,
	)

	if cfg.Server.Transport == config.TransportHTTP {
		return serveHTTP(ctx, server, cfg, logger)
	}
	return server.Run(ctx, &mcp.StdioTransport{})
}

// newServer wires storage, the index, the recipe API client and the MCP
// registrations. A recipes directory that cannot be created is logged and
// left for get_system_info to report.
func newServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*mcp.Server, *mealdb.Client) {
	st := store.New(cfg.RecipesDir, logger)
	if status := st.Init(); status.Error != "" {
		logger.Warn("Recipes directory not ready", "path", status.Root, "error", status.Error)
	}

	ix := index.New(st, logger)
	ix.Load(ctx)

	client := mealdb.NewClient(
		mealdb.WithBaseURL(cfg.MealDB.BaseURL),
		mealdb.WithTimeout(cfg.MealDB.Timeout),
		mealdb.WithCacheTTL(cfg.MealDB.CacheTTL),
		mealdb.WithLogger(logger),
		mealdb.WithUserAgent(ServerName+"/"+ServerVersion),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Logger:       logger,
		Instructions: instructions,
	})

	service := cookbook.New(client, st, ix, logger)
	tools.NewHandlerRegistry(service, logger).RegisterAll(server)

	return server, client
}

// newHTTPHandler serves MCP on /mcp with health and Prometheus endpoints,
// all behind the security middleware.
func newHTTPHandler(server *mcp.Server, cfg *config.Config, logger *slog.Logger) *SecurityMiddleware {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"name":    ServerName,
			"version": ServerVersion,
		})
	})

	return NewSecurityMiddleware(mux, logger, SecurityConfig{
		RateLimit:   cfg.Server.RateLimit,
		MaxBodySize: cfg.Server.MaxBodySize,
	})
}

func serveHTTP(ctx context.Context, server *mcp.Server, cfg *config.Config, logger *slog.Logger) error {
	handler := newHTTPHandler(server, cfg, logger)
	defer handler.Close()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Listening", "addr", srv.Addr, "endpoint", "/mcp")
	errCh := runGuarded(logger, "http server", srv.ListenAndServe)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
