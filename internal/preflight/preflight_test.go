package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"audiopack/internal/config"
	"audiopack/internal/testsupport"
)

func TestDirectoryChecks(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		check func() Result
		pass  bool
	}{
		{"existing dir", func() Result { return CheckDirectoryAccess("in", root) }, true},
		{"missing dir", func() Result { return CheckDirectoryAccess("in", filepath.Join(root, "nope")) }, false},
		{"file instead of dir", func() Result { return CheckDirectoryAccess("in", file) }, false},
		{"creatable below writable parent", func() Result { return CheckCreatable("out", filepath.Join(root, "a", "b")) }, true},
		{"blocked by a file", func() Result { return CheckCreatable("out", filepath.Join(file, "sub")) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.check()
			if result.Passed != tt.pass {
				t.Fatalf("passed=%v, want %v (%s)", result.Passed, tt.pass, result.Detail)
			}
			if result.Detail == "" {
				t.Fatal("expected a detail either way")
			}
		})
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MissingInputFails(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPackage("p1", config.Package{}))

	results := RunAll(cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Input directory" {
		t.Fatalf("expected only the input check to fail, got %+v", failed)
	}

	if err := os.MkdirAll(cfg.InputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if failed := Failed(RunAll(cfg)); len(failed) != 0 {
		t.Fatalf("expected all checks to pass, got %+v", failed)
	}
}

func TestCheckSystemDeps_StubbedFFmpeg(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithPackage("p1", config.Package{}),
		testsupport.WithFFmpegScript(""),
	)
	statuses := CheckSystemDeps(context.Background(), cfg)
	if len(statuses) != 1 || !statuses[0].Available {
		t.Fatalf("expected stubbed ffmpeg to be available, got %+v", statuses)
	}
}
