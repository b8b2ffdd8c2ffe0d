package preflight

import (
	"path/filepath"

	"audiopack/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryReadable("Input directory", cfg.InputDir),
		CheckCreatable("Output directory", cfg.OutputDir),
		CheckCreatable("Cache directory", cfg.CacheDir),
	}

	// Journal lives next to the cache by default; only check custom locations.
	if cfg.Journal.Enabled {
		if dir := filepath.Dir(cfg.JournalPath()); dir != cfg.CacheDir {
			results = append(results, CheckCreatable("Journal directory", dir))
		}
	}
	return results
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
