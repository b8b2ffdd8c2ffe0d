package main

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"audiopack/internal/encoder"
)

// progressReporter draws an encode progress bar when the writer is a
// terminal. Elsewhere the executor's log lines are the progress record.
type progressReporter struct {
	mu  sync.Mutex
	out io.Writer
	bar *progressbar.ProgressBar
}

func newProgressReporter(out io.Writer) *progressReporter {
	if !isTerminal(out) {
		return nil
	}
	return &progressReporter{out: out}
}

// callback returns nil for a nil reporter so callers can pass it through.
func (p *progressReporter) callback() func(encoder.Snapshot) {
	if p == nil {
		return nil
	}
	return p.update
}

func (p *progressReporter) update(s encoder.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		p.bar = progressbar.NewOptions(s.Total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription("encoding"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set(s.Done)
}

func (p *progressReporter) finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
