package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"audiopack/internal/fingerprint"
)

// Problem names what is wrong with one cache entry.
type Problem string

const (
	ProblemSourceMissing   Problem = "source missing"
	ProblemContentChanged  Problem = "content changed"
	ProblemArtifactMissing Problem = "artifact missing"
	ProblemBadOutfile      Problem = "unparseable outfile"
)

// Finding is one entry that failed verification.
type Finding struct {
	Path    string
	Problem Problem
	Detail  string
}

// Verify re-hashes every cached source and compares the result with the
// hash embedded in the entry's output name. It also reports entries whose
// primary artifact is gone. Findings come back in path order.
func Verify(ctx context.Context, m Map, workers int) []Finding {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	paths := m.Paths()
	found := make([]*Finding, len(paths))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			found[i] = verifyEntry(path, m[path].Outfile, m[path].OutputPath)
			return nil
		})
	}
	_ = g.Wait()

	var out []Finding
	for _, f := range found {
		if f != nil {
			out = append(out, *f)
		}
	}
	return out
}

func verifyEntry(path, outfile, outputPath string) *Finding {
	_, _, want, err := fingerprint.ParseOutputName(outfile)
	if err != nil {
		return &Finding{Path: path, Problem: ProblemBadOutfile, Detail: err.Error()}
	}
	got, err := fingerprint.File(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Finding{Path: path, Problem: ProblemSourceMissing}
		}
		return &Finding{Path: path, Problem: ProblemSourceMissing, Detail: err.Error()}
	}
	if got != want {
		return &Finding{
			Path:    path,
			Problem: ProblemContentChanged,
			Detail:  fingerprint.Hex(want) + " -> " + fingerprint.Hex(got),
		}
	}
	if _, err := os.Stat(outputPath); err != nil {
		return &Finding{Path: path, Problem: ProblemArtifactMissing, Detail: outputPath}
	}
	return nil
}
