package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"audiopack/internal/journal"
	"audiopack/internal/logging"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var prune int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent builds from the run journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("run history is disabled (journal.enabled = false)")
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("prune") {
				removed, err := store.Prune(cmd.Context(), prune)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d run(s)\n", removed)
			}

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Command", "Status", "Started", "Took", "Items", "Encoded", "Failed", "Written", "Error"},
				historyRows(runs),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().IntVar(&prune, "prune", 0, "Keep only the newest N runs before listing")
	return cmd
}

func historyRows(runs []journal.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		id := run.ID
		if len(id) > 8 {
			id = id[:8]
		}
		took := "-"
		if d := run.Duration(); d > 0 {
			took = logging.FormatDuration(d)
		}
		message := run.Error
		if len(message) > 60 {
			message = message[:57] + "..."
		}
		rows = append(rows, []string{
			id,
			run.Command,
			string(run.Status),
			humanize.Time(run.StartedAt),
			took,
			strconv.Itoa(run.Items),
			strconv.Itoa(run.Encoded),
			strconv.Itoa(run.Failed),
			humanize.IBytes(uint64(max(run.Bytes, 0))),
			message,
		})
	}
	return rows
}
