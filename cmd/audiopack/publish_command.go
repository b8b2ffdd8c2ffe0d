package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"audiopack/internal/publish"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Mirror encoded artifacts and the atlas to the configured bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}
			cfg := ctx.configValue()
			if !cfg.Publish.Configured() {
				return errors.New("publish.endpoint and publish.bucket must be set in the config")
			}
			store, err := publish.NewMinioStore(cfg.Publish)
			if err != nil {
				return err
			}
			p := &publish.Publisher{
				Store:     store,
				Config:    cfg.Publish,
				OutputDir: cfg.OutputDir,
				Logger:    logger.Logger,
				DryRun:    dryRun,
			}
			summary, err := p.Publish(cmd.Context())
			verb := "Uploaded"
			if dryRun {
				verb = "Would upload"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d object(s) (%s), %d unchanged, %d failed\n",
				verb, summary.Uploaded, humanize.IBytes(uint64(max(summary.Bytes, 0))), summary.Skipped, summary.Failed)
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be uploaded without writing")
	return cmd
}
