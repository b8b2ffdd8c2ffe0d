package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"audiopack/internal/config"
)

// Option adjusts the config built by NewConfig before it is normalized.
type Option func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns a normalized config laid out under a fresh temp dir:
//
//	<base>/packages   input
//	<base>/encoded    output
//	<base>/.cache     cache
//
// Journaling is off and four workers are used unless an option says otherwise.
func NewConfig(t testing.TB, opts ...Option) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.InputDir = filepath.Join(base, "packages")
	cfg.OutputDir = filepath.Join(base, "encoded")
	cfg.CacheDir = filepath.Join(base, ".cache")
	cfg.Workers = 4
	cfg.Journal.Enabled = false
	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize test config: %v", err)
	}
	return &cfg
}

func WithPackage(name string, pkg config.Package) Option {
	return func(_ testing.TB, _ string, cfg *config.Config) { cfg.Packages[name] = pkg }
}

func WithBitrate(kbps uint32) Option {
	return func(_ testing.TB, _ string, cfg *config.Config) { cfg.Bitrate = kbps }
}

func WithFormats(f config.Formats) Option {
	return func(_ testing.TB, _ string, cfg *config.Config) { cfg.Formats = f }
}

// WithFFmpegScript points the config at a shell script standing in for ffmpeg.
// An empty script exits 0.
func WithFFmpegScript(script string) Option {
	return func(t testing.TB, base string, cfg *config.Config) {
		if script == "" {
			script = "#!/bin/sh\nexit 0\n"
		}
		cfg.FFmpeg = Executable(t, filepath.Join(base, "bin"), "ffmpeg", script)
	}
}

// Executable writes script to dir/name with the exec bit set and returns its path.
func Executable(t testing.TB, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// PrependPath puts dir first on PATH for the rest of the test.
func PrependPath(t *testing.T, dir string) {
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// BaseDir returns the temp root NewConfig laid the config out under.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.InputDir)
}

// SourcePath is where file of pkg lives on disk, inside the language
// directory for lang when lang is set.
func SourcePath(cfg *config.Config, pkg, lang, file string) string {
	p := cfg.Packages[pkg]
	dir := filepath.Join(cfg.InputDir, pkg, p.SourceDir)
	if lang != "" {
		dir = filepath.Join(dir, p.Languages[lang])
	}
	return filepath.Join(dir, file)
}
