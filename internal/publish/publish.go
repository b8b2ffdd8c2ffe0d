package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"audiopack/internal/atlas"
	"audiopack/internal/config"
	"audiopack/internal/encoder"
	"audiopack/internal/fingerprint"
	"audiopack/internal/logging"
)

const defaultConcurrency = 4

var contentTypes = map[string]string{
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".mp4":  "audio/mp4",
	".flac": "audio/flac",
	".json": "application/json",
}

// Summary counts what a publish did.
type Summary struct {
	Uploaded int
	Skipped  int
	Failed   int
	Bytes    int64
}

// Publisher mirrors OutputDir into the configured bucket.
type Publisher struct {
	Store     ObjectStore
	Config    config.Publish
	OutputDir string
	Logger    *slog.Logger
	// DryRun reports what would be uploaded without writing.
	DryRun bool
}

// Key returns the object key for a file name under the configured prefix.
func (p *Publisher) Key(name string) string {
	prefix := strings.Trim(p.Config.Prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Files lists the artifacts in OutputDir followed by the atlas.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read output directory: %w", err)
	}
	exts := encoder.Extensions([]encoder.Format{encoder.WebM, encoder.Ogg, encoder.MP4, encoder.FLAC})
	var names []string
	hasAtlas := false
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		switch {
		case e.Name() == atlas.FileName:
			hasAtlas = true
		case slices.Contains(exts, filepath.Ext(e.Name())):
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	if hasAtlas {
		names = append(names, atlas.FileName)
	}
	return names, nil
}

// Publish uploads every changed file. Artifacts upload concurrently; the
// atlas goes up only after all of them succeeded.
func (p *Publisher) Publish(ctx context.Context) (Summary, error) {
	logger := logging.NewComponentLogger(p.Logger, "publish")
	var summary Summary

	ok, err := p.Store.BucketExists(ctx, p.Config.Bucket)
	if err != nil {
		return summary, fmt.Errorf("check bucket %s: %w", p.Config.Bucket, err)
	}
	if !ok {
		return summary, fmt.Errorf("%w: %s", ErrBucketMissing, p.Config.Bucket)
	}

	names, err := Files(p.OutputDir)
	if err != nil {
		return summary, err
	}
	var artifacts []string
	withAtlas := false
	for _, name := range names {
		if name == atlas.FileName {
			withAtlas = true
			continue
		}
		artifacts = append(artifacts, name)
	}

	limit := p.Config.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}
	var uploaded, skipped atomic.Int64
	var written atomic.Int64
	failures := make([]error, len(artifacts))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, name := range artifacts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				failures[i] = err
				return nil
			}
			n, sent, err := p.sync(ctx, logger, name)
			switch {
			case err != nil:
				failures[i] = fmt.Errorf("%s: %w", name, err)
			case sent:
				uploaded.Add(1)
				written.Add(n)
			default:
				skipped.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, err := range failures {
		if err != nil {
			errs = append(errs, err)
		}
	}
	summary.Uploaded = int(uploaded.Load())
	summary.Skipped = int(skipped.Load())
	summary.Bytes = written.Load()
	summary.Failed = len(errs)

	if len(errs) > 0 {
		if withAtlas {
			logging.WarnWithContext(logger, "atlas not published", "publish_atlas_skipped",
				logging.Int("failed", len(errs)),
				logging.String(logging.FieldImpact, "remote atlas still describes the previous build"),
			)
		}
		return summary, errors.Join(errs...)
	}

	if withAtlas {
		n, sent, err := p.sync(ctx, logger, atlas.FileName)
		if err != nil {
			summary.Failed++
			return summary, fmt.Errorf("%s: %w", atlas.FileName, err)
		}
		if sent {
			summary.Uploaded++
			summary.Bytes += n
		} else {
			summary.Skipped++
		}
	}

	logger.Info("publish complete",
		logging.String("bucket", p.Config.Bucket),
		logging.Int("uploaded", summary.Uploaded),
		logging.Int("skipped", summary.Skipped),
		logging.Bytes("transferred", summary.Bytes),
	)
	return summary, nil
}

// sync uploads one file unless the remote copy is current. Content addressed
// artifacts are current when the sizes match. The atlas keeps its name across
// builds, so it is compared by xxHash digest as well.
func (p *Publisher) sync(ctx context.Context, logger *slog.Logger, name string) (int64, bool, error) {
	local := filepath.Join(p.OutputDir, name)
	info, err := os.Stat(local)
	if err != nil {
		return 0, false, err
	}
	var digest string
	if !contentAddressed(name) {
		sum, err := fingerprint.File(local)
		if err != nil {
			return 0, false, err
		}
		digest = fingerprint.Hex(sum)
	}
	key := p.Key(name)
	remote, found, err := p.Store.Stat(ctx, p.Config.Bucket, key)
	if err != nil {
		return 0, false, fmt.Errorf("stat %s: %w", key, err)
	}
	if found && remote.Size == info.Size() && remote.Digest == digest {
		logger.Debug("object up to date", logging.String("key", key))
		return 0, false, nil
	}
	if p.DryRun {
		logger.Info("would upload", logging.String("key", key), logging.Bytes("size", info.Size()))
		return info.Size(), true, nil
	}
	n, err := p.Store.Upload(ctx, p.Config.Bucket, key, local, contentTypes[filepath.Ext(name)], digest)
	if err != nil {
		return 0, false, fmt.Errorf("upload %s: %w", key, err)
	}
	logger.Debug("object uploaded", logging.String("key", key), logging.Bytes("size", n))
	return n, true, nil
}

// contentAddressed reports whether name embeds its content hash, so an equal
// size means equal bytes in practice.
func contentAddressed(name string) bool {
	_, _, _, err := fingerprint.ParseOutputName(strings.TrimSuffix(name, filepath.Ext(name)) + fingerprint.Ext)
	return err == nil
}
