package item

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"audiopack/internal/config"
	"audiopack/internal/fingerprint"
	"audiopack/internal/logging"
	"audiopack/internal/wave"
)

// Snapshot is a read-only view of previously discovered items keyed by path.
type Snapshot interface {
	Lookup(path string) (Item, bool)
}

type emptySnapshot struct{}

func (emptySnapshot) Lookup(string) (Item, bool) { return Item{}, false }

// Result collects everything one discovery pass produced.
type Result struct {
	Items         []Item
	FileErrors    []*FileError
	PackageErrors []*PackageError
	// Reused counts items served from the snapshot.
	Reused int
}

// Fixable returns the file errors a remediation pass can repair.
func (r Result) Fixable() []*FileError {
	var out []*FileError
	for _, fe := range r.FileErrors {
		if fe.Fixable() {
			out = append(out, fe)
		}
	}
	return out
}

// Unfixable returns the file errors remediation cannot repair.
func (r Result) Unfixable() []*FileError {
	var out []*FileError
	for _, fe := range r.FileErrors {
		if !fe.Fixable() {
			out = append(out, fe)
		}
	}
	return out
}

// Discoverer scans configured packages for wave sources.
type Discoverer struct {
	Config  *config.Config
	Logger  *slog.Logger
	Workers int
	// ReadFile loads source bytes; defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)
}

type candidate struct {
	path    string
	pkg     string
	lang    string
	modTime time.Time
	// err is set when the entry could not be stat'ed, e.g. a dangling symlink.
	err error
}

// Discover runs one full pass over every configured package. It never stops
// at the first failure: every item and every error is returned.
func (d *Discoverer) Discover(ctx context.Context, snapshot Snapshot) Result {
	if snapshot == nil {
		snapshot = emptySnapshot{}
	}
	logger := logging.NewComponentLogger(d.Logger, "discover")
	workers := d.workers()

	names := d.Config.PackageNames()
	perPkg := make([][]candidate, len(names))
	pkgErrs := make([][]*PackageError, len(names))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, name := range names {
		g.Go(func() error {
			perPkg[i], pkgErrs[i] = d.listPackage(name)
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	var candidates []candidate
	for i := range names {
		res.PackageErrors = append(res.PackageErrors, pkgErrs[i]...)
		candidates = append(candidates, perPkg[i]...)
	}

	items := make([]*Item, len(candidates))
	fileErrs := make([]*FileError, len(candidates))
	reused := make([]bool, len(candidates))
	g = errgroup.Group{}
	g.SetLimit(workers)
	for i, c := range candidates {
		g.Go(func() error {
			if ctx.Err() != nil {
				fileErrs[i] = &FileError{Path: c.path, Package: c.pkg, Kind: KindIO, Err: ctx.Err()}
				return nil
			}
			items[i], reused[i], fileErrs[i] = d.inspect(c, snapshot)
			return nil
		})
	}
	_ = g.Wait()

	for i := range candidates {
		switch {
		case fileErrs[i] != nil:
			res.FileErrors = append(res.FileErrors, fileErrs[i])
		case items[i] != nil:
			res.Items = append(res.Items, *items[i])
			if reused[i] {
				res.Reused++
			}
		}
	}
	slices.SortFunc(res.Items, func(a, b Item) int { return strings.Compare(a.Path, b.Path) })
	slices.SortFunc(res.FileErrors, func(a, b *FileError) int { return strings.Compare(a.Path, b.Path) })

	logger.Debug("discovery pass complete",
		logging.Int("packages", len(names)),
		logging.Int("items", len(res.Items)),
		logging.Int("reused", res.Reused),
		logging.Int("file_errors", len(res.FileErrors)),
		logging.Int("package_errors", len(res.PackageErrors)),
	)
	return res
}

func (d *Discoverer) workers() int {
	if d.Workers > 0 {
		return d.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// listPackage resolves a package's source directories and lists their wave files.
func (d *Discoverer) listPackage(name string) ([]candidate, []*PackageError) {
	pkg := d.Config.Packages[name]
	pkgDir := filepath.Join(d.Config.InputDir, name)
	if err := requireDir(pkgDir); err != nil {
		return nil, []*PackageError{{Package: name, Path: pkgDir, Reason: "missing package directory", Err: err}}
	}
	sourceDir := filepath.Join(pkgDir, pkg.SourceDir)
	if err := requireDir(sourceDir); err != nil {
		return nil, []*PackageError{{Package: name, Path: sourceDir, Reason: "missing source directory", Err: err}}
	}

	type langDir struct{ lang, dir string }
	var dirs []langDir
	if len(pkg.Languages) == 0 {
		dirs = append(dirs, langDir{lang: NoLanguage, dir: sourceDir})
	} else {
		codes := make([]string, 0, len(pkg.Languages))
		for code := range pkg.Languages {
			codes = append(codes, code)
		}
		slices.Sort(codes)
		for _, code := range codes {
			dirs = append(dirs, langDir{lang: code, dir: filepath.Join(sourceDir, pkg.Languages[code])})
		}
	}

	var out []candidate
	var errs []*PackageError
	for _, ld := range dirs {
		if err := requireDir(ld.dir); err != nil {
			errs = append(errs, &PackageError{Package: name, Path: ld.dir, Reason: "missing language directory " + ld.lang, Err: err})
			continue
		}
		entries, err := os.ReadDir(ld.dir)
		if err != nil {
			errs = append(errs, &PackageError{Package: name, Path: ld.dir, Reason: "unreadable directory", Err: err})
			continue
		}
		for _, entry := range entries {
			if !IsSourceName(entry.Name()) {
				continue
			}
			path := filepath.Join(ld.dir, entry.Name())
			info, err := entry.Info()
			if err == nil && info.Mode()&fs.ModeSymlink != 0 {
				info, err = os.Stat(path)
			}
			if err != nil {
				out = append(out, candidate{path: path, pkg: name, lang: ld.lang, err: err})
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}
			out = append(out, candidate{
				path:    path,
				pkg:     name,
				lang:    ld.lang,
				modTime: info.ModTime(),
			})
		}
	}
	return out, errs
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// IsSourceName reports whether a directory entry is a candidate source:
// a visible file with a .wav extension in any case.
func IsSourceName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".wav")
}

// SoundName strips the extension from a source file name.
func SoundName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ModificationDate formats a modification time the way the cache stores it.
func ModificationDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (d *Discoverer) inspect(c candidate, snapshot Snapshot) (*Item, bool, *FileError) {
	if c.err != nil {
		return nil, false, &FileError{Path: c.path, Package: c.pkg, Kind: KindIO, Err: fmt.Errorf("stat source: %w", c.err)}
	}
	modDate := ModificationDate(c.modTime)
	if cached, ok := snapshot.Lookup(c.path); ok && cached.ModificationDate == modDate {
		return &cached, true, nil
	}

	read := d.ReadFile
	if read == nil {
		read = os.ReadFile
	}
	data, err := read(c.path)
	if err != nil {
		kind := KindIO
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("source vanished during scan: %w", err)
		}
		return nil, false, &FileError{Path: c.path, Package: c.pkg, Kind: kind, Err: err}
	}

	info, err := wave.Probe(data)
	if err != nil {
		return nil, false, classifyProbe(c.path, c.pkg, err)
	}
	if info.SampleRate != StandardSampleRate {
		return nil, false, &FileError{
			Path:    c.path,
			Package: c.pkg,
			Kind:    KindSampleRate,
			Err:     fmt.Errorf("%w: %d Hz, want %d Hz", ErrSampleRate, info.SampleRate, StandardSampleRate),
		}
	}

	name := SoundName(c.path)
	bitrate := d.Config.ResolveBitrate(c.pkg, name)
	channels := d.Config.ResolveChannels(c.pkg, name, info.Channels)
	outfile := fingerprint.OutputName(bitrate, channels, fingerprint.Sum(data))
	return &Item{
		Path:             c.path,
		Name:             name,
		Outfile:          outfile,
		Package:          c.pkg,
		Lang:             c.lang,
		OutputPath:       filepath.Join(d.Config.OutputDir, outfile),
		Bitrate:          bitrate,
		NumSamples:       info.NumSamples,
		InputChannels:    info.Channels,
		TargetChannels:   channels,
		SampleRate:       info.SampleRate,
		ModificationDate: modDate,
	}, false, nil
}
