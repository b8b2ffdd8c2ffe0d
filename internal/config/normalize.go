package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

const (
	envFFmpeg    = "AUDIOPACK_FFMPEG"
	envLogLevel  = "AUDIOPACK_LOG_LEVEL"
	envAccessKey = "AUDIOPACK_S3_ACCESS_KEY"
	envSecretKey = "AUDIOPACK_S3_SECRET_KEY"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeFFmpeg(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizePublish()
	return c.normalizePackages()
}

// Normalize applies path expansion, env fallbacks, and canonicalization.
// Load calls it; callers that build a Config by hand (flags, tests) call it
// before Validate.
func (c *Config) Normalize() error {
	return c.normalize()
}

func (c *Config) normalizePaths() error {
	var err error
	if c.InputDir, err = expandPath(strings.TrimSpace(c.InputDir)); err != nil {
		return fmt.Errorf("indir: %w", err)
	}
	if c.OutputDir, err = expandPath(strings.TrimSpace(c.OutputDir)); err != nil {
		return fmt.Errorf("outdir: %w", err)
	}
	if strings.TrimSpace(c.CacheDir) == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.CacheDir, err = expandPath(strings.TrimSpace(c.CacheDir)); err != nil {
		return fmt.Errorf("cache_dir: %w", err)
	}
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	if c.Journal.Path, err = expandPath(strings.TrimSpace(c.Journal.Path)); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeFFmpeg() error {
	c.FFmpeg = strings.TrimSpace(c.FFmpeg)
	if c.FFmpeg == "" || c.FFmpeg == defaultFFmpeg {
		if value, ok := os.LookupEnv(envFFmpeg); ok && strings.TrimSpace(value) != "" {
			c.FFmpeg = strings.TrimSpace(value)
		}
	}
	if c.FFmpeg == "" {
		c.FFmpeg = defaultFFmpeg
	}
	// Bare names are resolved through PATH at run time.
	if strings.ContainsRune(c.FFmpeg, filepath.Separator) || strings.HasPrefix(c.FFmpeg, "~") {
		expanded, err := expandPath(c.FFmpeg)
		if err != nil {
			return fmt.Errorf("ffmpeg: %w", err)
		}
		c.FFmpeg = expanded
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" || c.Logging.Level == defaultLogLevel {
		if value, ok := os.LookupEnv(envLogLevel); ok && strings.TrimSpace(value) != "" {
			c.Logging.Level = strings.ToLower(strings.TrimSpace(value))
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

func (c *Config) normalizePublish() {
	c.Publish.Endpoint = strings.TrimSpace(c.Publish.Endpoint)
	c.Publish.Bucket = strings.TrimSpace(c.Publish.Bucket)
	c.Publish.Prefix = strings.Trim(strings.TrimSpace(c.Publish.Prefix), "/")
	if c.Publish.AccessKey == "" {
		if value, ok := os.LookupEnv(envAccessKey); ok {
			c.Publish.AccessKey = strings.TrimSpace(value)
		}
	}
	if c.Publish.SecretKey == "" {
		if value, ok := os.LookupEnv(envSecretKey); ok {
			c.Publish.SecretKey = strings.TrimSpace(value)
		}
	}
	if c.Publish.Concurrency == 0 {
		c.Publish.Concurrency = defaultPublishConcurrency
	}
}

func (c *Config) normalizePackages() error {
	if c.Packages == nil {
		c.Packages = map[string]Package{}
	}
	for name, pkg := range c.Packages {
		pkg.SourceDir = strings.TrimSpace(pkg.SourceDir)
		if pkg.SourceDir == "" {
			pkg.SourceDir = defaultSourceDir
		}
		pkg.SourceDir = filepath.Clean(pkg.SourceDir)

		if len(pkg.Languages) > 0 {
			langs := make(map[string]string, len(pkg.Languages))
			seen := make(map[string]string, len(pkg.Languages))
			for code, dir := range pkg.Languages {
				code = strings.TrimSpace(code)
				if code == "" {
					return fmt.Errorf("packages.%s.languages: empty language code", name)
				}
				key := LanguageKey(code)
				if other, dup := seen[key]; dup {
					return fmt.Errorf("packages.%s.languages: %q and %q name the same language", name, other, code)
				}
				seen[key] = code
				dir = strings.TrimSpace(dir)
				if dir == "" {
					dir = code
				}
				langs[code] = filepath.Clean(dir)
			}
			pkg.Languages = langs
		}
		for i, parent := range pkg.Extends {
			pkg.Extends[i] = strings.TrimSpace(parent)
		}
		c.Packages[name] = pkg
	}
	return nil
}

// LanguageKey folds code for duplicate detection only. BCP 47 tags compare
// by canonical form ("en-us" and "en-US" collide); anything else compares
// case-insensitively. Configured codes are never rewritten.
func LanguageKey(code string) string {
	code = strings.TrimSpace(code)
	if tag, err := language.Parse(code); err == nil {
		return tag.String()
	}
	return strings.ToLower(code)
}
