// Package atlas writes the package to sound lookup table consumed at runtime.
package atlas

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-json"

	"audiopack/internal/fileutil"
	"audiopack/internal/item"
)

// FileName is the atlas file inside the output directory.
const FileName = ".atlas.json"

// Entry is one sound: [name, outfile stem, num_samples, lang] on the wire.
type Entry struct {
	Name       string
	Stem       string
	NumSamples uint64
	Lang       string
}

// MarshalJSON renders the entry as a four element array.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Name, e.Stem, e.NumSamples, e.Lang})
}

// UnmarshalJSON parses the four element array form.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 4 {
		return fmt.Errorf("atlas entry has %d fields, want 4", len(raw))
	}
	for i, dst := range []any{&e.Name, &e.Stem, &e.NumSamples, &e.Lang} {
		if err := json.Unmarshal(raw[i], dst); err != nil {
			return fmt.Errorf("atlas entry field %d: %w", i, err)
		}
	}
	return nil
}

// Atlas maps package names to their sounds.
type Atlas map[string][]Entry

// Build groups items by package. Entries are sorted by name, then language,
// so unchanged inputs produce byte-identical files.
func Build(items []item.Item) Atlas {
	a := make(Atlas)
	for _, it := range items {
		a[it.Package] = append(a[it.Package], Entry{
			Name:       it.Name,
			Stem:       it.OutfileStem(),
			NumSamples: it.NumSamples,
			Lang:       it.Lang,
		})
	}
	for _, entries := range a {
		slices.SortFunc(entries, func(x, y Entry) int {
			return cmp.Or(cmp.Compare(x.Name, y.Name), cmp.Compare(x.Lang, y.Lang))
		})
	}
	return a
}

// Packages returns the package names in sorted order.
func (a Atlas) Packages() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Languages returns the distinct language codes across all packages.
func (a Atlas) Languages() []string {
	seen := map[string]bool{}
	var langs []string
	for _, entries := range a {
		for _, e := range entries {
			if !seen[e.Lang] {
				seen[e.Lang] = true
				langs = append(langs, e.Lang)
			}
		}
	}
	slices.Sort(langs)
	return langs
}

// Encode writes a with one entry per line.
func (a Atlas) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("{")
	for i, pkg := range a.Packages() {
		if i > 0 {
			bw.WriteString(",")
		}
		key, err := json.Marshal(pkg)
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, "\n  %s: [", key)
		for j, e := range a[pkg] {
			line, err := e.MarshalJSON()
			if err != nil {
				return fmt.Errorf("encode %s/%s: %w", pkg, e.Name, err)
			}
			if j > 0 {
				bw.WriteString(",")
			}
			bw.WriteString("\n    ")
			bw.Write(line)
		}
		if len(a[pkg]) > 0 {
			bw.WriteString("\n  ")
		}
		bw.WriteString("]")
	}
	bw.WriteString("\n}\n")
	return bw.Flush()
}

// Write builds the atlas from items and stores it atomically in dir.
func Write(dir string, items []item.Item) (string, error) {
	path := filepath.Join(dir, FileName)
	err := fileutil.WriteAtomic(path, 0o644, Build(items).Encode)
	if err != nil {
		return "", fmt.Errorf("write atlas: %w", err)
	}
	return path, nil
}

// Read loads the atlas from dir.
func Read(dir string) (Atlas, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Atlas{}, err
		}
		return nil, fmt.Errorf("read atlas: %w", err)
	}
	var a Atlas
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse atlas: %w", err)
	}
	return a, nil
}
