package encoder

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"audiopack/internal/item"
	"audiopack/internal/logging"
)

// Result is the outcome for one item handed to Executor.Run.
type Result struct {
	Item item.Item
	Err  error
	// Shared is set on items whose artifact was produced by another item
	// with identical content and targets.
	Shared   bool
	Formats  int
	Bytes    int64
	Duration time.Duration
}

// Executor runs encodes in parallel.
type Executor struct {
	Encoder *Encoder
	Formats []Format
	Workers int
	Logger  *slog.Logger
	// OnProgress, when set, is called after every finished encode. Calls
	// may arrive from several goroutines.
	OnProgress func(Snapshot)
}

// Plan groups items by output path. The first item of each group is the one
// encoded; later items share its artifact.
func Plan(items []item.Item) (leaders []int, followers map[int]int) {
	byOutput := make(map[string]int, len(items))
	followers = make(map[int]int)
	for i, it := range items {
		if leader, ok := byOutput[it.OutputPath]; ok {
			followers[i] = leader
			continue
		}
		byOutput[it.OutputPath] = i
		leaders = append(leaders, i)
	}
	return leaders, followers
}

// Run encodes items and returns one Result per item, in input order. A
// failing encode never stops the others.
func (x *Executor) Run(ctx context.Context, items []item.Item) []Result {
	logger := logging.NewComponentLogger(x.Logger, "executor")
	results := make([]Result, len(items))
	for i, it := range items {
		results[i].Item = it
	}
	leaders, followers := Plan(items)
	progress := NewProgress(len(leaders))

	workers := x.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for _, idx := range leaders {
		g.Go(func() error {
			res := &results[idx]
			if err := ctx.Err(); err != nil {
				res.Err = err
				x.report(progress.Complete(res.Item.OutputPath, false))
				return nil
			}
			formats := Missing(res.Item, x.Formats)
			start := time.Now()
			res.Err = x.Encoder.Encode(ctx, res.Item, formats)
			res.Duration = time.Since(start)
			res.Formats = len(formats)
			if res.Err == nil {
				res.Bytes = artifactBytes(res.Item, formats)
			}
			snap := progress.Complete(res.Item.OutputPath, res.Err == nil)
			logger.Debug("encode finished",
				logging.String(logging.FieldPath, res.Item.Path),
				logging.String(logging.FieldOutput, res.Item.OutputPath),
				logging.Duration("duration", res.Duration),
				logging.String("progress", snap.String()),
			)
			x.report(snap)
			return nil
		})
	}
	_ = g.Wait()

	for i, leader := range followers {
		results[i].Err = results[leader].Err
		results[i].Shared = true
	}
	return results
}

func (x *Executor) report(s Snapshot) {
	if x.OnProgress != nil {
		x.OnProgress(s)
	}
}

func artifactBytes(it item.Item, formats []Format) int64 {
	var total int64
	for _, f := range formats {
		if info, err := os.Stat(it.ArtifactPath(f.Ext)); err == nil {
			total += info.Size()
		}
	}
	return total
}
