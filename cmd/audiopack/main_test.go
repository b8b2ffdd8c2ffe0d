package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"audiopack/internal/atlas"
	"audiopack/internal/journal"
	"audiopack/internal/testsupport"
)

const stubFFmpeg = `#!/bin/sh
for a in "$@"; do last="$a"; done
if [ "$last" = "-version" ]; then
	echo "ffmpeg version 7.1-stub Copyright (c) the FFmpeg developers"
	exit 0
fi
printf 'encoded' > "$last"
`

type cliEnv struct {
	base       string
	configPath string
	inputDir   string
	outputDir  string
}

func setupCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("AUDIOPACK_FFMPEG", "")
	t.Setenv("AUDIOPACK_LOG_LEVEL", "")

	env := &cliEnv{
		base:       base,
		configPath: filepath.Join(base, "audiopack.toml"),
		inputDir:   filepath.Join(base, "packages"),
		outputDir:  filepath.Join(base, "encoded"),
	}
	content := fmt.Sprintf(`indir = %q
outdir = %q
cache_dir = %q
workers = 2

[journal]
enabled = true

[packages.ui]
sourcedir = "sounds"
bitrate = 64
`, env.inputDir, env.outputDir, filepath.Join(base, ".cache"))
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	testsupport.WriteWAV(t, filepath.Join(env.inputDir, "ui", "sounds", "click.wav"), testsupport.WAV{Frames: 5})
	return env
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", e.configPath, "--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPlanListsPendingSources(t *testing.T) {
	env := setupCLIEnv(t)
	out, err := env.run(t, "plan")
	if err != nil {
		t.Fatalf("plan: %v\n%s", err, out)
	}
	for _, want := range []string{"Sources: 1", "Needs encoding: 1", "click.wav", "64kb.1ch.", "webm,mp4"} {
		if !strings.Contains(out, want) {
			t.Fatalf("plan output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(env.outputDir); !os.IsNotExist(err) {
		t.Fatal("plan must not create the output directory")
	}
}

func TestBuildWithStubEncoder(t *testing.T) {
	env := setupCLIEnv(t)
	testsupport.Executable(t, filepath.Join(env.base, "bin"), "ffmpeg", stubFFmpeg)
	testsupport.PrependPath(t, filepath.Join(env.base, "bin"))

	out, err := env.run(t, "build", "--mp4=false", "--loglevel", "error")
	if err != nil {
		t.Fatalf("build: %v\n%s", err, out)
	}
	a, err := atlas.Read(env.outputDir)
	if err != nil {
		t.Fatalf("read atlas: %v", err)
	}
	entries := a["ui"]
	if len(entries) != 1 || entries[0].Name != "click" || entries[0].NumSamples != 5 {
		t.Fatalf("unexpected atlas %+v", a)
	}
	webm := filepath.Join(env.outputDir, entries[0].Stem+".webm")
	if _, err := os.Stat(webm); err != nil {
		t.Fatalf("missing webm artifact: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.outputDir, entries[0].Stem+".mp4")); !os.IsNotExist(err) {
		t.Fatal("--mp4=false must skip the mp4 artifact")
	}

	out, err = env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v\n%s", err, out)
	}
	if !strings.Contains(out, "succeeded") || !strings.Contains(out, "build") {
		t.Fatalf("history missing the build run:\n%s", out)
	}

	out, err = env.run(t, "cache", "verify")
	if err != nil {
		t.Fatalf("cache verify: %v\n%s", err, out)
	}
	if !strings.Contains(out, "All 1 cache entries verified") {
		t.Fatalf("unexpected verify output:\n%s", out)
	}
}

func TestCacheClearOnEmptyCache(t *testing.T) {
	env := setupCLIEnv(t)
	out, err := env.run(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "Cache already empty") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestConfigShowAppliesFlags(t *testing.T) {
	env := setupCLIEnv(t)
	out, err := env.run(t, "config", "show", "--bitrate", "128", "--skip-cache")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"bitrate = 128", "use_cache = false", env.configPath} {
		if !strings.Contains(out, want) {
			t.Fatalf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestInvalidFlagValueFailsValidation(t *testing.T) {
	env := setupCLIEnv(t)
	if _, err := env.run(t, "plan", "--bitrate", "1"); err == nil {
		t.Fatal("expected a validation error for bitrate 1")
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	target := filepath.Join(base, "cfg", "audiopack.toml")

	run := func(args ...string) (string, error) {
		cmd := newRootCommand()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(append([]string{"--env-file", ""}, args...))
		err := cmd.Execute()
		return out.String(), err
	}

	out, err := run("config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := run("config", "init", "--path", target); err == nil {
		t.Fatal("expected second init to refuse overwriting")
	}
	if _, err := run("config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	out, err = run("config", "init", "--print")
	if err != nil || !strings.Contains(out, "[packages") {
		t.Fatalf("--print should emit the sample config: %v\n%s", err, out)
	}
}

func TestHistoryRowsShortenIDsAndErrors(t *testing.T) {
	started := time.Now().Add(-time.Minute)
	rows := historyRows([]journal.Run{
		{ID: "0123456789abcdef", Command: "build", Status: journal.StatusFailed, StartedAt: started, Error: strings.Repeat("x", 80)},
		{ID: "short", Command: "watch", Status: journal.StatusRunning, StartedAt: started},
	})
	if rows[0][0] != "01234567" || len(rows[0][9]) != 60 || !strings.HasSuffix(rows[0][9], "...") {
		t.Fatalf("unexpected row %v", rows[0])
	}
	if rows[1][0] != "short" || rows[1][4] != "-" {
		t.Fatalf("unfinished runs have no duration: %v", rows[1])
	}
}
