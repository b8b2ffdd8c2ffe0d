package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"github.com/tailscale/hujson"

	"audiopack/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Formats toggles the artifacts written for every sound.
type Formats struct {
	WebM bool `toml:"webm" json:"webm"`
	Ogg  bool `toml:"ogg" json:"ogg"`
	MP4  bool `toml:"mp4" json:"mp4"`
	FLAC bool `toml:"flac" json:"flac"`
}

// Any reports whether at least one format is enabled.
func (f Formats) Any() bool {
	return f.WebM || f.Ogg || f.MP4 || f.FLAC
}

// Logging contains configuration for log output.
type Logging struct {
	Level      string `toml:"level" json:"level" validate:"oneof=debug info warn error"`
	Format     string `toml:"format" json:"format" validate:"oneof=console json"`
	File       string `toml:"file" json:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" validate:"gte=0"`
}

// Journal controls the sqlite run history.
type Journal struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Path    string `toml:"path" json:"path"`
}

// Publish describes the S3 compatible bucket that mirrors the output directory.
type Publish struct {
	Endpoint    string `toml:"endpoint" json:"endpoint"`
	Bucket      string `toml:"bucket" json:"bucket" validate:"required_with=Endpoint"`
	Prefix      string `toml:"prefix" json:"prefix"`
	Region      string `toml:"region" json:"region"`
	AccessKey   string `toml:"access_key" json:"access_key"`
	SecretKey   string `toml:"secret_key" json:"secret_key"`
	UseSSL      bool   `toml:"use_ssl" json:"use_ssl"`
	Concurrency int    `toml:"concurrency" json:"concurrency" validate:"gte=0,lte=64"`
}

// Configured reports whether enough is set to attempt an upload.
func (p Publish) Configured() bool {
	return strings.TrimSpace(p.Endpoint) != "" && strings.TrimSpace(p.Bucket) != ""
}

// Watch tunes the rebuild-on-change loop.
type Watch struct {
	DebounceMillis int `toml:"debounce_ms" json:"debounce_ms" validate:"gte=0"`
}

// Source overrides targets for one sound, keyed by file name without extension.
type Source struct {
	Bitrate  uint32 `toml:"bitrate" json:"bitrate" validate:"omitempty,gte=6,lte=512"`
	Channels uint16 `toml:"channels" json:"channels" validate:"omitempty,gte=1,lte=8"`
}

// Package is one directory of sounds under the input directory.
type Package struct {
	// SourceDir is relative to the package directory.
	SourceDir string `toml:"sourcedir" json:"sourcedir"`
	Bitrate   uint32 `toml:"bitrate" json:"bitrate" validate:"omitempty,gte=6,lte=512"`
	// Extends lists packages whose source overrides and bitrate are inherited.
	Extends []string `toml:"extends" json:"extends"`
	// Languages maps a language code to a subdirectory of SourceDir.
	Languages map[string]string `toml:"languages" json:"languages"`
	Sources   map[string]Source `toml:"sources" json:"sources" validate:"dive"`
}

// Config encapsulates all configuration values for audiopack.
type Config struct {
	InputDir  string `toml:"indir" json:"indir" validate:"required"`
	OutputDir string `toml:"outdir" json:"outdir" validate:"required"`
	CacheDir  string `toml:"cache_dir" json:"cache_dir" validate:"required"`
	FFmpeg    string `toml:"ffmpeg" json:"ffmpeg" validate:"required"`
	// Bitrate is the global default in kbps per channel.
	Bitrate  uint32 `toml:"bitrate" json:"bitrate" validate:"gte=6,lte=512"`
	Yes      bool   `toml:"yes" json:"yes"`
	UseCache bool   `toml:"use_cache" json:"use_cache"`
	// Workers bounds discovery and encoding parallelism; zero means one per CPU.
	Workers int `toml:"workers" json:"workers" validate:"gte=0,lte=256"`
	// MaxRemediationPasses caps discovery passes. N passes allow N-1
	// remediation rounds, so at least two are needed to convert anything.
	MaxRemediationPasses int `toml:"max_remediation_passes" json:"max_remediation_passes" validate:"gte=2,lte=32"`

	Formats  Formats            `toml:"formats" json:"formats"`
	Logging  Logging            `toml:"logging" json:"logging"`
	Journal  Journal            `toml:"journal" json:"journal"`
	Publish  Publish            `toml:"publish" json:"publish"`
	Watch    Watch              `toml:"watch" json:"watch"`
	Packages map[string]Package `toml:"packages" json:"packages" validate:"min=1,dive"`
}

// DefaultConfigPath returns the absolute path of the per-user configuration file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/audiopack/config.toml")
}

// projectConfigNames are looked up in the working directory, in order.
var projectConfigNames = []string{"audiopack.jsonc", "audiopack.json", "audiopack.toml"}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := decode(resolvedPath, data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		std, err := hujson.Standardize(data)
		if err != nil {
			return err
		}
		dec := json.NewDecoder(bytes.NewReader(std))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	for _, name := range projectConfigNames {
		projectPath, err := filepath.Abs(name)
		if err != nil {
			return "", false, err
		}
		if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
			return projectPath, true, nil
		}
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// PackageNames returns the configured package names in sorted order.
func (c *Config) PackageNames() []string {
	names := make([]string, 0, len(c.Packages))
	for name := range c.Packages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// CacheFile returns a path inside the cache directory.
func (c *Config) CacheFile(name string) string {
	return filepath.Join(c.CacheDir, name)
}

// JournalPath returns the sqlite history location.
func (c *Config) JournalPath() string {
	if strings.TrimSpace(c.Journal.Path) != "" {
		return c.Journal.Path
	}
	return c.CacheFile("history.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for flag values.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// ErrConfigExists is returned by WriteSample when the target is already present.
var ErrConfigExists = errors.New("config file already exists")

// WriteSample writes the sample configuration to path, creating parent
// directories. An existing file is only replaced when overwrite is set.
func WriteSample(path string, overwrite bool) error {
	if !overwrite && fileutil.Exists(path) {
		return fmt.Errorf("%w at %s", ErrConfigExists, path)
	}
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// InitTarget picks where WriteSample should go: an explicit path, the project
// file in dir when project is set, or the per-user default.
func InitTarget(explicit, dir string, project bool) (string, error) {
	switch {
	case strings.TrimSpace(explicit) != "":
		return expandPath(explicit)
	case project:
		return filepath.Join(dir, projectConfigNames[len(projectConfigNames)-1]), nil
	default:
		return DefaultConfigPath()
	}
}

// Sample returns the embedded sample configuration.
func Sample() string {
	return sampleConfig
}
