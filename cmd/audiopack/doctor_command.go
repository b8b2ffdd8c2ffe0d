package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"audiopack/internal/fileutil"
	"audiopack/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the encoder and directory permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			out := cmd.OutOrStdout()

			var rows [][]string
			failed := 0
			for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				state := "ok"
				if !status.Available {
					state = "missing"
					if !status.Optional {
						failed++
					}
				}
				detail := status.Detail
				if detail == "" {
					detail = status.Command
				}
				rows = append(rows, []string{status.Name, state, detail})
			}
			for _, result := range preflight.RunAll(cfg) {
				state := "ok"
				if !result.Passed {
					state = "failed"
					failed++
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}
			publishState := "not configured"
			if cfg.Publish.Configured() {
				publishState = fmt.Sprintf("%s/%s", cfg.Publish.Endpoint, cfg.Publish.Bucket)
			}
			rows = append(rows, []string{"Publish target", "info", publishState})
			rows = append(rows, []string{"Run history", "info", journalState(ctx)})
			rows = append(rows, []string{"Output", "info", outputState(cfg.OutputDir)})

			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			if failed > 0 {
				return errors.New("doctor found problems")
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}

func outputState(dir string) string {
	size, files, err := fileutil.DirSize(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "not built yet"
		}
		return err.Error()
	}
	return fmt.Sprintf("%d file(s), %s", files, humanize.IBytes(uint64(size)))
}

func journalState(ctx *commandContext) string {
	cfg := ctx.configValue()
	if !cfg.Journal.Enabled {
		return "disabled"
	}
	return cfg.JournalPath()
}
