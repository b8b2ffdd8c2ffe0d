package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const consoleTimestampLayout = "15:04:05"

var levelLabels = []struct {
	min   slog.Level
	label string
	attrs []color.Attribute
}{
	{slog.LevelError, "ERROR", []color.Attribute{color.FgRed, color.Bold}},
	{slog.LevelWarn, "WARN ", []color.Attribute{color.FgYellow, color.Bold}},
	{slog.LevelInfo, "INFO ", []color.Attribute{color.FgCyan}},
	{slog.LevelDebug, "DEBUG", []color.Attribute{color.FgHiBlack}},
}

// consoleHandler prints "15:04:05 LEVEL [component] message key=value ...".
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	addSource bool
	colored   bool

	component string
	prefix    string // dotted group path applied to later attrs
	preset    []field
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource, colored bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: lvl, addSource: addSource, colored: colored}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}
	component := h.component
	fields := append([]field(nil), h.preset...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, &component, h.prefix, attr)
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(ts.Local().Format(consoleTimestampLayout))
	b.WriteByte(' ')
	b.WriteString(h.label(record.Level))
	b.WriteByte(' ')
	if component != "" {
		b.WriteString("[" + component + "] ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)
	if src := record.Source(); h.addSource && src != nil {
		b.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
	}
	for _, f := range fields {
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		if isSensitive(f.key) {
			b.WriteString(redacted)
		} else {
			b.WriteString(quotedValue(f.value))
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append([]field(nil), h.preset...)
	for _, attr := range attrs {
		next.preset = appendField(next.preset, &next.component, h.prefix, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *consoleHandler) label(level slog.Level) string {
	for _, l := range levelLabels {
		if level >= l.min {
			if !h.colored {
				return l.label
			}
			c := color.New(l.attrs...)
			c.EnableColor()
			return c.Sprint(l.label)
		}
	}
	return levelLabels[len(levelLabels)-1].label
}

// appendField flattens attr into dst under prefix. A top-level component
// attribute is lifted into the header instead.
func appendField(dst []field, component *string, prefix string, attr slog.Attr) []field {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		inner := prefix
		if attr.Key != "" {
			inner = prefix + attr.Key + "."
		}
		for _, a := range attr.Value.Group() {
			dst = appendField(dst, component, inner, a)
		}
		return dst
	}
	if prefix == "" && attr.Key == FieldComponent {
		*component = plainValue(attr.Value)
		return dst
	}
	if attr.Key == "" {
		return dst
	}
	return append(dst, field{key: prefix + attr.Key, value: attr.Value})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
