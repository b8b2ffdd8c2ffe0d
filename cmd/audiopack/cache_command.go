package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"audiopack/internal/cache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the discovery cache",
	}

	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCacheVerifyCommand(ctx))

	return cacheCmd
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List cached sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			m, err := cache.Load(cfg.CacheDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			binPath := filepath.Join(cfg.CacheDir, cache.BinFile)
			if len(m) == 0 {
				fmt.Fprintf(out, "Cache at %s is empty\n", binPath)
				return nil
			}

			rows := make([][]string, 0, len(m))
			for _, path := range m.Paths() {
				it := m[path]
				rows = append(rows, []string{
					it.Package,
					relativeTo(cfg.InputDir, path),
					langLabel(it.Lang),
					strconv.FormatUint(uint64(it.Bitrate), 10),
					strconv.FormatUint(uint64(it.TargetChannels), 10),
					humanize.Comma(int64(it.NumSamples)),
					it.OutfileStem(),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Package", "Source", "Lang", "kbps", "Ch", "Samples", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			size := "unknown size"
			if info, err := os.Stat(binPath); err == nil {
				size = humanize.IBytes(uint64(info.Size()))
			}
			fmt.Fprintf(out, "Entries: %d (%s at %s)\n", len(m), size, binPath)
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the discovery cache so the next build probes every source",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			lock, err := cache.Acquire(cfg.CacheDir)
			if err != nil {
				return err
			}
			defer lock.Release()

			removed, err := cache.Clear(cfg.CacheDir)
			if err != nil {
				return err
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache already empty")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache file(s) from %s\n", removed, cfg.CacheDir)
			return nil
		},
	}
}

func newCacheVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Re-hash cached sources and report entries that no longer match",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			m, err := cache.Load(cfg.CacheDir)
			if err != nil {
				return err
			}
			findings := cache.Verify(cmd.Context(), m, cfg.Workers)
			out := cmd.OutOrStdout()
			if len(findings) == 0 {
				fmt.Fprintf(out, "All %d cache entries verified\n", len(m))
				return nil
			}
			rows := make([][]string, 0, len(findings))
			for _, f := range findings {
				rows = append(rows, []string{relativeTo(cfg.InputDir, f.Path), string(f.Problem), f.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Source", "Problem", "Detail"}, rows, nil))
			return fmt.Errorf("%d of %d cache entries are stale; run `audiopack cache clear` or touch the sources", len(findings), len(m))
		},
	}
}
