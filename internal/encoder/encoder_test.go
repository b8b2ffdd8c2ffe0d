package encoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"audiopack/internal/config"
	"audiopack/internal/item"
)

// fakeRunner records invocations and writes the output path (last argument)
// unless its extension is listed in fail.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	fail  map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()
	if slices.Contains(args, "-version") {
		return nil
	}
	out := args[len(args)-1]
	if f.fail[filepath.Ext(out)] {
		return errors.New("exit status 1")
	}
	return os.WriteFile(out, []byte("encoded:"+filepath.Base(out)), 0o644)
}

func (f *fakeRunner) outputs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		out = append(out, c[len(c)-1])
	}
	slices.Sort(out)
	return out
}

func testItem(t *testing.T, dir string, in, target uint16) item.Item {
	t.Helper()
	src := filepath.Join(dir, "click.wav")
	if err := os.WriteFile(src, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	outfile := "96kb." + string(rune('0'+target)) + "ch.00000000000000ab.webm"
	return item.Item{
		Path:           src,
		Name:           "click",
		Outfile:        outfile,
		OutputPath:     filepath.Join(dir, "out", outfile),
		Bitrate:        96,
		InputChannels:  in,
		TargetChannels: target,
		SampleRate:     48000,
	}
}

func TestArgsStereoToMonoDownmix(t *testing.T) {
	it := item.Item{OutputPath: "/o/64kb.1ch.00000000000000ab.webm", Bitrate: 64, InputChannels: 2, TargetChannels: 1}
	got := strings.Join(Args(it, "/src/a.wav", WebM), " ")
	want := "-hide_banner -loglevel error -nostdin -y -i /src/a.wav -af " + DownmixFilter +
		" -ar 48000 -ac 1 -map_metadata -1 -c:a libopus -b:a 64k -f webm /o/64kb.1ch.00000000000000ab.webm"
	if got != want {
		t.Fatalf("args mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestArgsPerFormat(t *testing.T) {
	it := item.Item{OutputPath: "/o/96kb.2ch.00000000000000ab.webm", Bitrate: 96, InputChannels: 2, TargetChannels: 2}
	tests := []struct {
		format  Format
		want    []string
		notWant string
		output  string
	}{
		{WebM, []string{"-c:a libopus", "-b:a 192k", "-f webm"}, "-af", "/o/96kb.2ch.00000000000000ab.webm"},
		{Ogg, []string{"-c:a libopus", "-b:a 192k", "-f ogg"}, "-af", "/o/96kb.2ch.00000000000000ab.ogg"},
		{MP4, []string{"-c:a aac", "-b:a 192k", "-movflags +faststart"}, "-af", "/o/96kb.2ch.00000000000000ab.mp4"},
		{FLAC, []string{"-c:a flac", "-f flac"}, "-b:a", "/o/96kb.2ch.00000000000000ab.flac"},
	}
	for _, tt := range tests {
		t.Run(tt.format.Name, func(t *testing.T) {
			args := Args(it, "/s.wav", tt.format)
			joined := strings.Join(args, " ")
			for _, w := range tt.want {
				if !strings.Contains(joined, w) {
					t.Errorf("missing %q in %s", w, joined)
				}
			}
			if strings.Contains(joined, tt.notWant) {
				t.Errorf("unexpected %q in %s", tt.notWant, joined)
			}
			if args[len(args)-1] != tt.output {
				t.Errorf("output must be last, got %q", args[len(args)-1])
			}
		})
	}
}

func TestEnabled(t *testing.T) {
	got := Enabled(config.Formats{WebM: true, FLAC: true})
	if len(got) != 2 || got[0].Name != "webm" || got[1].Name != "flac" {
		t.Fatalf("unexpected formats %+v", got)
	}
}

func TestEncodeAttemptsEveryFormat(t *testing.T) {
	dir := t.TempDir()
	it := testItem(t, dir, 1, 1)
	runner := &fakeRunner{fail: map[string]bool{".webm": true, ".flac": true}}
	enc := New("ffmpeg", runner, nil)

	err := enc.Encode(context.Background(), it, []Format{WebM, Ogg, MP4, FLAC})
	var encErr *EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncodeError, got %v", err)
	}
	if len(runner.calls) != 4 {
		t.Fatalf("expected 4 invocations, got %d", len(runner.calls))
	}
	if encErr.First.Format != "webm" || encErr.First.Output != it.OutputPath {
		t.Fatalf("first failure should name the webm output, got %+v", encErr.First)
	}
	if len(encErr.Others) != 1 || encErr.Others[0].Format != "flac" {
		t.Fatalf("expected the flac failure as well, got %+v", encErr.Others)
	}
	if _, err := os.Stat(it.ArtifactPath(".mp4")); err != nil {
		t.Fatalf("successful formats should still be written: %v", err)
	}
}

func TestEncodeCreatesOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	it := testItem(t, dir, 1, 1)
	if err := New("ffmpeg", &fakeRunner{}, nil).Encode(context.Background(), it, []Format{WebM}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := os.Stat(it.OutputPath); err != nil {
		t.Fatalf("expected artifact: %v", err)
	}
}

func TestRemediateArgs(t *testing.T) {
	got := strings.Join(RemediateArgs("/a/b.wav", "/a/.b.remedy.wav"), " ")
	if !strings.HasSuffix(got, "-i /a/b.wav -ar 48000 -c:a pcm_s16le /a/.b.remedy.wav") {
		t.Fatalf("unexpected remediation args %s", got)
	}
}

func TestCheckAvailable(t *testing.T) {
	enc := New("ffmpeg", RunnerFunc(func(context.Context, string, ...string) error {
		return errors.New("exec: not found")
	}), nil)
	if err := enc.CheckAvailable(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := New("ffmpeg", &fakeRunner{}, nil).CheckAvailable(context.Background()); err != nil {
		t.Fatalf("expected available, got %v", err)
	}
}

func TestExecutorDeduplicatesByOutputPath(t *testing.T) {
	dir := t.TempDir()
	a := testItem(t, dir, 1, 1)
	b := a
	b.Path = filepath.Join(dir, "copy.wav")
	b.Name = "copy"
	c := testItem(t, dir, 2, 2)

	runner := &fakeRunner{}
	var mu sync.Mutex
	var snaps []Snapshot
	x := &Executor{
		Encoder: New("ffmpeg", runner, nil),
		Formats: []Format{WebM, MP4},
		Workers: 3,
		OnProgress: func(s Snapshot) {
			mu.Lock()
			snaps = append(snaps, s)
			mu.Unlock()
		},
	}
	results := x.Run(context.Background(), []item.Item{a, b, c})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("unexpected error for %s: %v", r.Item.Path, r.Err)
		}
	}
	if !results[1].Shared || results[0].Shared {
		t.Fatal("second item should share the first item's artifact")
	}
	if got := runner.outputs(); len(got) != 4 {
		t.Fatalf("expected 2 artifacts x 2 formats, got %v", got)
	}
	if len(snaps) != 2 || snaps[len(snaps)-1].Done != 2 || snaps[len(snaps)-1].Percent != 100 {
		t.Fatalf("unexpected progress snapshots %+v", snaps)
	}
	if results[0].Bytes == 0 || results[0].Formats != 2 {
		t.Fatalf("expected bytes and format count on leader, got %+v", results[0])
	}
}

func TestExecutorSkipsExistingFormats(t *testing.T) {
	dir := t.TempDir()
	it := testItem(t, dir, 1, 1)
	if err := os.MkdirAll(filepath.Dir(it.OutputPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(it.OutputPath, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{}
	x := &Executor{Encoder: New("ffmpeg", runner, nil), Formats: []Format{WebM, MP4}}
	x.Run(context.Background(), []item.Item{it})
	if got := runner.outputs(); len(got) != 1 || filepath.Ext(got[0]) != ".mp4" {
		t.Fatalf("expected only the mp4 encode, got %v", got)
	}
}

func TestExecutorPropagatesFailureToSharedItems(t *testing.T) {
	dir := t.TempDir()
	a := testItem(t, dir, 1, 1)
	b := a
	b.Path = filepath.Join(dir, "dup.wav")
	x := &Executor{Encoder: New("ffmpeg", &fakeRunner{fail: map[string]bool{".webm": true}}, nil), Formats: []Format{WebM}}
	results := x.Run(context.Background(), []item.Item{a, b})
	if results[0].Err == nil || results[1].Err == nil {
		t.Fatalf("expected both items to report the failure: %+v", results)
	}
}

func TestExecutorCancelledContext(t *testing.T) {
	dir := t.TempDir()
	it := testItem(t, dir, 1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := &fakeRunner{}
	x := &Executor{Encoder: New("ffmpeg", runner, nil), Formats: []Format{WebM}}
	results := x.Run(ctx, []item.Item{it})
	if !errors.Is(results[0].Err, context.Canceled) || len(runner.calls) != 0 {
		t.Fatalf("expected cancellation without invocations, got %v (%d calls)", results[0].Err, len(runner.calls))
	}
}

func TestProgressETA(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	p := newProgressAt(4, clock)

	now = now.Add(10 * time.Second)
	s := p.Complete("a", true)
	if s.ETA != 30*time.Second || s.Percent != 25 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	now = now.Add(10 * time.Second)
	s = p.Complete("b", false)
	if s.ETA != 20*time.Second || s.Failed != 1 || s.String() != "2/4 (50.0%) ETA 20s" {
		t.Fatalf("unexpected snapshot %+v / %s", s, s)
	}
}
