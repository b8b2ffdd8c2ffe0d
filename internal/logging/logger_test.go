package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func noColor() *bool {
	v := false
	return &v
}

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Console: &buf, Color: noColor()})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer logger.Close()

	NewComponentLogger(logger.Logger, "build").Info("encoded", String(FieldPath, "/in/a b.wav"), Int("count", 3))

	line := buf.String()
	if !strings.Contains(line, "INFO  [build] encoded") {
		t.Fatalf("unexpected header: %q", line)
	}
	if !strings.Contains(line, `path="/in/a b.wav"`) || !strings.Contains(line, "count=3") {
		t.Fatalf("expected fields in %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be rendered in the header only: %q", line)
	}
}

func TestConsoleLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Console: &buf, Color: noColor()})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
	if logger.DebugEnabled() {
		t.Fatal("debug must be disabled at warn level")
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "WARN  shown") {
		t.Fatalf("expected warn line, got %q", buf.String())
	}
}

func TestJSONFileSink(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "audiopack.log")
	logger, err := New(Options{Level: "info", Console: &console, Color: noColor(), File: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello", String(FieldRunID, "r1"))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	content := string(data)
	for _, want := range []string{`"ts":`, `"level":"info"`, `"msg":"hello"`, `"run_id":"r1"`} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %s in %q", want, content)
		}
	}
	if !strings.Contains(console.String(), "hello") {
		t.Fatalf("console should receive the record too, got %q", console.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{850 * time.Millisecond, "850ms"},
		{3*time.Second + 40*time.Millisecond, "3s 40ms"},
		{time.Minute + 2*time.Second + 3*time.Millisecond, "1m 2s 3ms"},
		{-time.Second, "0ms"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	WarnWithContext(logger, "cache unreadable", "cache_load_failed", String(FieldImpact, "full rescan"))
	out := buf.String()
	if !strings.Contains(out, `"event_type":"cache_load_failed"`) {
		t.Fatalf("missing event_type: %s", out)
	}
	if !strings.Contains(out, `"impact":"full rescan"`) || strings.Count(out, `"impact"`) != 1 {
		t.Fatalf("caller impact should win: %s", out)
	}
	if !strings.Contains(out, `"error_hint"`) {
		t.Fatalf("missing default error_hint: %s", out)
	}
}

func TestTeeHandlerRoutesByLevel(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoHandler := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(newTeeHandler(infoHandler, debugHandler)).With("key", "value")
	logger.Debug("debug only")

	if infoBuf.Len() != 0 {
		t.Error("info handler should not receive debug records")
	}
	if !strings.Contains(debugBuf.String(), `"key":"value"`) {
		t.Errorf("expected attrs to reach debug handler: %s", debugBuf.String())
	}
}

func TestTeeHandlerCollapses(t *testing.T) {
	if _, ok := newTeeHandler(nil, nil).(NoopHandler); !ok {
		t.Error("expected NoopHandler when every handler is nil")
	}
	inner := slog.NewJSONHandler(&bytes.Buffer{}, nil)
	if newTeeHandler(nil, inner) != inner {
		t.Error("expected a single handler to be returned unwrapped")
	}
	if NewNop().Enabled(context.Background(), slog.LevelError) {
		t.Error("nop logger should be disabled")
	}
}

func TestSizesAndSecretsPerSink(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "audiopack.log")
	logger, err := New(Options{Level: "info", Console: &console, Color: noColor(), File: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.WithGroup("publish").Info("uploaded", Bytes("size", 1536), String("secret_key", "hunter2"))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	line := console.String()
	if !strings.Contains(line, `publish.size="1.5 KiB"`) {
		t.Fatalf("expected humanized size on console: %q", line)
	}
	if strings.Contains(line, "hunter2") || !strings.Contains(line, "publish.secret_key=********") {
		t.Fatalf("secret leaked to console: %q", line)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"size":1536`) {
		t.Fatalf("expected raw byte count in JSON: %s", content)
	}
	if strings.Contains(content, "hunter2") {
		t.Fatalf("secret leaked to JSON: %s", content)
	}
}

func TestConsoleLiftsComponentOnlyAtTopLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Console: &buf, Color: noColor()})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("nested", slog.Group("job", String(FieldComponent, "inner")), Duration("took", 1500*time.Millisecond))
	line := buf.String()
	if strings.Contains(line, "[inner]") || !strings.Contains(line, "job.component=inner") {
		t.Fatalf("grouped component must stay a field: %q", line)
	}
	if !strings.Contains(line, `took="1s 500ms"`) {
		t.Fatalf("expected formatted duration: %q", line)
	}
}
