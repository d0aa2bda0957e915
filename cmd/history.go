package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent conversion outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.HistoryDB == "" {
				return errors.New("history is disabled: set --history-db or COMICPACKER_HISTORY_DB")
			}
			if err := a.setup(); err != nil {
				return err
			}
			defer a.close()

			store, err := a.openHistory()
			if err != nil {
				return err
			}
			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tSTATUS\tPAGES\tSOURCE\tOUTPUT/ERROR")
			for _, r := range records {
				detail := r.Output
				if r.Error != "" {
					detail = r.ErrorKind + ": " + r.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					r.CreatedAt.Local().Format(time.DateTime), r.Status, r.Pages, r.Source, detail)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of records to show")
	return cmd
}
