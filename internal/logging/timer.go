package logging

import (
	"fmt"
	"log/slog"
	"time"
)

// Timer measures one phase of a run and logs its duration at debug level.
type Timer struct {
	logger *slog.Logger
	label  string
	start  time.Time
	now    func() time.Time
}

// StartTimer logs the phase label and starts the clock.
func StartTimer(logger *slog.Logger, label string) *Timer {
	if logger == nil {
		logger = NewNop()
	}
	logger.Debug(label)
	return &Timer{logger: logger, label: label, start: time.Now(), now: time.Now}
}

// Elapsed returns the time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return t.now().Sub(t.start)
}

// Stop logs the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := t.Elapsed()
	t.logger.Debug(t.label+" finished", String("took", FormatDuration(elapsed)))
	return elapsed
}

func (t *Timer) String() string {
	return FormatDuration(t.Elapsed())
}

// FormatDuration renders d as "850ms", "3s 40ms" or "1m 2s 3ms".
func FormatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	rest := ms % 1000
	if minutes == 0 {
		return fmt.Sprintf("%ds %dms", seconds, rest)
	}
	return fmt.Sprintf("%dm %ds %dms", minutes, seconds, rest)
}
