package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild or query the recipe index",
	}

	rebuild := &cobra.Command{
		Use:   "rebuild",
		Short: "Rescan every collection and rewrite the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, err := a.library(cmd)
			if err != nil {
				return err
			}
			names, err := lib.Store().ListCollections()
			if err != nil {
				return err
			}
			idx := lib.Index().Rebuild(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d recipes from %d collections\n", len(idx), len(names))
			fmt.Fprintf(cmd.OutOrStdout(), "Index: %s\n", lib.Store().IndexPath())
			return nil
		},
	}

	var repair bool
	lookup := &cobra.Command{
		Use:   "lookup <recipe-id>",
		Short: "Show the collection file holding a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := a.library(cmd)
			if err != nil {
				return err
			}
			id := args[0]
			lookupFn := lib.Index().Lookup
			if repair {
				lookupFn = lib.Index().Repair
			}
			loc, ok := lookupFn(cmd.Context(), id)
			if !ok {
				return fmt.Errorf("recipe %s is not indexed", id)
			}
			fmt.Fprintln(cmd.OutOrStdout(), loc)
			return nil
		},
	}
	lookup.Flags().BoolVar(&repair, "repair", false, "Rebuild the index if the entry is missing or stale")

	cmd.AddCommand(rebuild, lookup)
	return cmd
}
