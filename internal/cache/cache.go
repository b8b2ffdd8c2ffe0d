package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-json"

	"audiopack/internal/fileutil"
	"audiopack/internal/item"
)

const (
	// BinFile is the binary cache file name inside the cache directory.
	BinFile = "info.bin"
	// JSONFile is the debug mirror of BinFile.
	JSONFile = "info.json"
)

// ErrCorrupt marks a cache file that exists but cannot be decoded.
var ErrCorrupt = errors.New("cache file corrupt")

// Map is the cached item set keyed by absolute source path.
type Map map[string]item.Item

// Lookup implements item.Snapshot.
func (m Map) Lookup(path string) (item.Item, bool) {
	it, ok := m[path]
	return it, ok
}

// Paths returns the cached source paths in sorted order.
func (m Map) Paths() []string {
	return slices.Sorted(maps.Keys(m))
}

// FromItems builds a map from the final item list of a run.
func FromItems(items []item.Item) Map {
	m := make(Map, len(items))
	for _, it := range items {
		m[it.Path] = it
	}
	return m
}

// Load reads dir/info.bin. A missing file yields an empty map and no error;
// an undecodable file yields an empty map and an error wrapping ErrCorrupt.
func Load(dir string) (Map, error) {
	data, err := os.ReadFile(filepath.Join(dir, BinFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Map{}, nil
		}
		return Map{}, fmt.Errorf("read cache file: %w", err)
	}
	m, err := Decode(data)
	if err != nil {
		return Map{}, err
	}
	return m, nil
}

// Save writes m to dir/info.bin atomically. With debugJSON set, the
// pretty printed mirror is written too; otherwise a stale mirror is removed.
func Save(dir string, m Map, debugJSON bool) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, BinFile), data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}

	jsonPath := filepath.Join(dir, JSONFile)
	if !debugJSON {
		if err := os.Remove(jsonPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale cache mirror: %w", err)
		}
		return nil
	}
	pretty, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache mirror: %w", err)
	}
	if err := fileutil.WriteFileAtomic(jsonPath, append(pretty, '\n'), 0o644); err != nil {
		return fmt.Errorf("write cache mirror: %w", err)
	}
	return nil
}

// Clear deletes the cache files in dir. The lock file is left alone.
func Clear(dir string) (int, error) {
	removed := 0
	for _, name := range []string{BinFile, JSONFile} {
		err := os.Remove(filepath.Join(dir, name))
		switch {
		case err == nil:
			removed++
		case errors.Is(err, fs.ErrNotExist):
		default:
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return removed, nil
}
