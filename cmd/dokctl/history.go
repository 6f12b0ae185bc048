// history.go implements 'dokctl history': the recorded operation log.
package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/amirhmoradi/dokploy-enhanced/internal/config"
	"github.com/amirhmoradi/dokploy-enhanced/internal/history"
)

func newHistoryCommand() *cobra.Command {
	opts := config.NewOptions()
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent dokctl operations against this installation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return runHistory(cmd, opts, limit)
		},
	}
	opts.AddFlags(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records to show")
	return cmd
}

func runHistory(cmd *cobra.Command, opts *config.Options, limit int) error {
	store, err := history.Open(opts.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no operations recorded")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tCOMMAND\tMODE\tSTATUS\tDURATION")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.StartedAt.Local().Format(time.RFC3339),
			rec.Command, rec.Mode, rec.Status,
			rec.FinishedAt.Sub(rec.StartedAt).Round(time.Second))
	}
	return w.Flush()
}
