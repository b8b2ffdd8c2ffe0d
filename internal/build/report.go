package build

import (
	"time"

	"audiopack/internal/item"
)

// Report summarizes one run.
type Report struct {
	RunID string
	// Items is the number of sources discovered.
	Items int
	// Reused counts items served from the cache without reading the source.
	Reused int
	// Pending counts items that needed at least one artifact.
	Pending int
	// Encoded counts distinct output paths produced without error.
	Encoded int
	// Shared counts items whose artifact was produced for identical content.
	Shared     int
	Failed     int
	Remediated int
	Passes     int
	Bytes      int64
	Languages  []string
	Failures   []ItemFailure

	Discovery time.Duration
	Encoding  time.Duration
	Total     time.Duration

	CachePath string
	AtlasPath string
}

// Plan is the read-only result of discovery.
type Plan struct {
	Items         []item.Item
	Pending       []item.Item
	Reused        int
	FileErrors    []*item.FileError
	PackageErrors []*item.PackageError
	// UnmatchedOverrides lists, per package, source overrides that name no
	// discovered sound. They usually point at a typo in the config.
	UnmatchedOverrides map[string][]string
}
