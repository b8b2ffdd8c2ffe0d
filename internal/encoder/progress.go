package encoder

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of Progress.
type Snapshot struct {
	Done    int
	Failed  int
	Total   int
	Percent float64
	Elapsed time.Duration
	// ETA is the mean time per finished encode times the encodes left.
	ETA time.Duration
	// Last is the output path of the most recently finished encode.
	Last string
}

// String renders "12/40 (30.0%) ETA 1m4s".
func (s Snapshot) String() string {
	base := fmt.Sprintf("%d/%d (%.1f%%)", s.Done, s.Total, s.Percent)
	if eta := formatETA(s.ETA); eta != "" && s.Done < s.Total {
		return base + " ETA " + eta
	}
	return base
}

// Progress tracks a batch of encodes. It is safe for concurrent use.
type Progress struct {
	mu      sync.Mutex
	total   int
	done    int
	failed  int
	last    string
	started time.Time
	now     func() time.Time
}

// NewProgress starts tracking total encodes.
func NewProgress(total int) *Progress {
	return newProgressAt(total, time.Now)
}

func newProgressAt(total int, now func() time.Time) *Progress {
	return &Progress{total: total, started: now(), now: now}
}

// Complete records one finished encode and returns the updated snapshot.
func (p *Progress) Complete(output string, ok bool) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if !ok {
		p.failed++
	}
	p.last = output
	return p.snapshotLocked()
}

// Snapshot returns the current state.
func (p *Progress) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Progress) snapshotLocked() Snapshot {
	s := Snapshot{
		Done:    p.done,
		Failed:  p.failed,
		Total:   p.total,
		Elapsed: p.now().Sub(p.started),
		Last:    p.last,
	}
	if p.total > 0 {
		s.Percent = float64(p.done) * 100 / float64(p.total)
	}
	if p.done > 0 && p.done < p.total {
		mean := s.Elapsed / time.Duration(p.done)
		s.ETA = mean * time.Duration(p.total-p.done)
	}
	return s
}

func formatETA(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Second)
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	parts := make([]string, 0, 3)
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 || (hours == 0 && minutes == 0) {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	return strings.Join(parts, "")
}
