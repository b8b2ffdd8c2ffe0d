package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"audiopack/internal/build"
	"audiopack/internal/logging"
	"audiopack/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Build, then rebuild whenever sources change",
		Long: "Watch runs a build and then rebuilds after every burst of source changes.\n" +
			"Prompts are not shown; pass --yes to let fixable sources be converted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}
			cfg := ctx.configValue()
			store := openJournalAdvisory(ctx, logger)
			if store != nil {
				defer store.Close()
			}

			o := &build.Orchestrator{Config: cfg, Logger: logger.Logger, Journal: store}
			opts := build.Options{Packages: ctx.flags.packageFilter(), Command: "watch"}
			w := &watch.Watcher{
				InputDir: cfg.InputDir,
				Debounce: time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond,
				Logger:   logger.Logger,
				Rebuild: func(runCtx context.Context, changed []string) error {
					report, err := o.Run(runCtx, opts)
					if err == nil {
						logger.Info("rebuild finished",
							logging.String(logging.FieldRunID, report.RunID),
							logging.Int("encoded", report.Encoded),
							logging.Int("reused", report.Reused),
						)
					}
					return err
				},
			}
			return w.Run(cmd.Context())
		},
	}
}
