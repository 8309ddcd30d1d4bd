// Command recipectl inspects and maintains a recipes directory written by
// the MealDB MCP server, and runs the tool selection evals.
//
// Usage:
//
//	recipectl index rebuild
//	recipectl index lookup 52771 --repair
//	recipectl collections
//	recipectl stats --json
//	recipectl evals --suite all
//	recipectl bench --query arrabiata
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/olgasafonova/mealdb-mcp-server/internal/config"
	"github.com/olgasafonova/mealdb-mcp-server/internal/cookbook"
	"github.com/olgasafonova/mealdb-mcp-server/internal/index"
	"github.com/olgasafonova/mealdb-mcp-server/internal/store"
)

// app carries the root flags shared by every subcommand.
type app struct {
	configPath string
	recipesDir string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "recipectl",
		Short:         "Maintain a MealDB MCP recipes directory",
		Long:          `recipectl rebuilds and queries the recipe index, summarizes saved collections, runs the tool selection evals and benchmarks the recipe API client.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file (default $"+config.EnvConfigFile+")")
	root.PersistentFlags().StringVar(&a.recipesDir, "recipes-dir", "", "Recipes directory (overrides config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		newIndexCmd(a),
		newCollectionsCmd(a),
		newStatsCmd(a),
		newEvalsCmd(a),
		newBenchCmd(a),
	)
	return root
}

// load resolves the config and a logger on the command's stderr.
func (a *app) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if a.recipesDir != "" {
		cfg.RecipesDir = a.recipesDir
	}

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

// library opens the recipes directory without creating it.
func (a *app) library(cmd *cobra.Command) (*cookbook.Service, error) {
	cfg, logger, err := a.load(cmd)
	if err != nil {
		return nil, err
	}

	st := store.New(cfg.RecipesDir, logger)
	if status := st.Stat(); !status.Exists {
		return nil, fmt.Errorf("recipes directory %s does not exist", status.Root)
	}
	return cookbook.New(nil, st, index.New(st, logger), logger), nil
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
