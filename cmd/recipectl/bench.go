package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/olgasafonova/mealdb-mcp-server/internal/mealdb"
)

func newBenchCmd(a *app) *cobra.Command {
	var queries []string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure recipe API latency, caching and concurrent searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return err
			}
			if len(queries) == 0 {
				return fmt.Errorf("at least one --query is required")
			}

			client := mealdb.NewClient(
				mealdb.WithBaseURL(cfg.MealDB.BaseURL),
				mealdb.WithTimeout(cfg.MealDB.Timeout),
				mealdb.WithCacheTTL(cfg.MealDB.CacheTTL),
				mealdb.WithLogger(logger),
				mealdb.WithUserAgent("recipectl/1.0"),
			)
			defer client.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "=== Recipe API Benchmark (%s) ===\n\n", cfg.MealDB.BaseURL)
			if err := measureCache(cmd.Context(), out, client, queries[0]); err != nil {
				return err
			}
			if err := measureConcurrent(cmd.Context(), out, client, queries, concurrency); err != nil {
				return err
			}

			st := client.Stats()
			fmt.Fprintf(out, "\n3. Client state:\n")
			fmt.Fprintf(out, "   Cache entries:   %d\n", st.CacheEntries)
			fmt.Fprintf(out, "   Cache evictions: %d\n", st.CacheEvictions)
			fmt.Fprintf(out, "   Circuit:         %s (%d consecutive failures)\n", st.Circuit.State, st.Circuit.ConsecutiveFails)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&queries, "query", "q", []string{"arrabiata", "chicken", "curry"}, "Dish names to search for")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Concurrent searches in the parallel run")
	return cmd
}

// measureCache times a search against the network and again from cache.
func measureCache(ctx context.Context, out io.Writer, client *mealdb.Client, query string) error {
	fmt.Fprintf(out, "1. Cache test (%q):\n", query)

	start := time.Now()
	meals, err := client.SearchByName(ctx, query)
	if err != nil {
		return fmt.Errorf("search %q: %w", query, err)
	}
	first := time.Since(start)

	start = time.Now()
	if _, err := client.SearchByName(ctx, query); err != nil {
		return fmt.Errorf("search %q: %w", query, err)
	}
	second := time.Since(start)

	fmt.Fprintf(out, "   Results:              %d\n", len(meals))
	fmt.Fprintf(out, "   First call (network): %v\n", first)
	fmt.Fprintf(out, "   Second call (cached): %v\n", second)
	if second > 0 {
		fmt.Fprintf(out, "   Speedup:              %.0fx\n", float64(first)/float64(second))
	}
	fmt.Fprintln(out)
	return nil
}

// measureConcurrent runs every query in parallel, bounded by limit.
func measureConcurrent(ctx context.Context, out io.Writer, client *mealdb.Client, queries []string, limit int) error {
	fmt.Fprintf(out, "2. Concurrent searches (%d queries, limit %d):\n", len(queries), limit)

	counts := make([]int, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))

	start := time.Now()
	for i, q := range queries {
		g.Go(func() error {
			meals, err := client.SearchByName(gctx, q)
			if err != nil {
				return fmt.Errorf("search %q: %w", q, err)
			}
			counts[i] = len(meals)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	for i, q := range queries {
		fmt.Fprintf(out, "   %-20s %d results\n", q, counts[i])
	}
	fmt.Fprintf(out, "   Total time: %v\n", elapsed)
	return nil
}
