package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"audiopack/internal/config"
)

// overrideFlags are the settings a caller may override per invocation.
// Values only apply when the flag was set explicitly.
type overrideFlags struct {
	fs *pflag.FlagSet

	inputDir  string
	outputDir string
	ffmpeg    string
	packages  []string
	bitrate   uint32
	workers   int
	yes       bool
	skipCache bool
	logLevel  string
	logFormat string
	webm      bool
	ogg       bool
	mp4       bool
	flac      bool
}

func (f *overrideFlags) register(fs *pflag.FlagSet) {
	f.fs = fs
	fs.StringVar(&f.inputDir, "indir", "", "Directory containing the sound packages")
	fs.StringVar(&f.outputDir, "outdir", "", "Directory receiving encoded artifacts and the atlas")
	fs.StringVar(&f.ffmpeg, "ffmpeg", "", "ffmpeg binary name or path")
	fs.StringSliceVar(&f.packages, "packages", nil, "Only encode these packages (comma separated)")
	fs.Uint32Var(&f.bitrate, "bitrate", 0, "Default bitrate in kbps per channel")
	fs.IntVar(&f.workers, "workers", 0, "Parallel workers (0 = one per CPU)")
	fs.BoolVarP(&f.yes, "yes", "y", false, "Convert fixable sources without asking")
	fs.BoolVar(&f.skipCache, "skip-cache", false, "Ignore the discovery cache and probe every source")
	fs.StringVar(&f.logLevel, "loglevel", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "logformat", "", "Log format (console, json)")
	fs.BoolVar(&f.webm, "webm", true, "Write .webm (Opus) artifacts")
	fs.BoolVar(&f.ogg, "ogg", false, "Write .ogg (Opus) artifacts")
	fs.BoolVar(&f.mp4, "mp4", true, "Write .mp4 (AAC) artifacts")
	fs.BoolVar(&f.flac, "flac", false, "Write .flac artifacts")
}

func (f *overrideFlags) changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}

// apply copies explicitly set flags onto cfg, then normalizes and
// validates the result.
func (f *overrideFlags) apply(cfg *config.Config) error {
	if f.changed("indir") {
		cfg.InputDir = f.inputDir
	}
	if f.changed("outdir") {
		cfg.OutputDir = f.outputDir
	}
	if f.changed("ffmpeg") {
		cfg.FFmpeg = f.ffmpeg
	}
	if f.changed("bitrate") {
		cfg.Bitrate = f.bitrate
	}
	if f.changed("workers") {
		cfg.Workers = f.workers
	}
	if f.changed("yes") {
		cfg.Yes = f.yes
	}
	if f.changed("skip-cache") {
		cfg.UseCache = !f.skipCache
	}
	if f.changed("loglevel") {
		cfg.Logging.Level = f.logLevel
	}
	if f.changed("logformat") {
		cfg.Logging.Format = f.logFormat
	}
	if f.changed("webm") {
		cfg.Formats.WebM = f.webm
	}
	if f.changed("ogg") {
		cfg.Formats.Ogg = f.ogg
	}
	if f.changed("mp4") {
		cfg.Formats.MP4 = f.mp4
	}
	if f.changed("flac") {
		cfg.Formats.FLAC = f.flac
	}
	if err := cfg.Normalize(); err != nil {
		return fmt.Errorf("apply flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("apply flags: %w", err)
	}
	return nil
}

// packageFilter returns the --packages selection with blanks dropped.
func (f *overrideFlags) packageFilter() []string {
	var out []string
	for _, name := range f.packages {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
