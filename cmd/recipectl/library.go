package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCollectionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List saved collections and their recipe counts",
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
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No collections saved yet")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "COLLECTION\tRECIPES")
			for _, name := range names {
				c, err := lib.Store().ReadCollection(name)
				if err != nil {
					fmt.Fprintf(w, "%s\tunreadable\n", name)
					continue
				}
				fmt.Fprintf(w, "%s\t%d\n", name, len(c))
			}
			return w.Flush()
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize saved recipes by cuisine and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lib, err := a.library(cmd)
			if err != nil {
				return err
			}
			if !asJSON {
				md, err := lib.StatsMarkdown(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}

			stats, err := lib.Stats(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of markdown")
	return cmd
}
