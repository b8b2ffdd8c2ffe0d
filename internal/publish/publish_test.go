package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"audiopack/internal/atlas"
	"audiopack/internal/config"
	"audiopack/internal/fingerprint"
)

type memStore struct {
	mu      sync.Mutex
	missing bool
	objects map[string]Remote
	order   []string
	failKey string
}

func (m *memStore) BucketExists(context.Context, string) (bool, error) { return !m.missing, nil }

func (m *memStore) Stat(_ context.Context, _, key string) (Remote, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	remote, ok := m.objects[key]
	return remote, ok, nil
}

func (m *memStore) Upload(_ context.Context, _, key, path, _, digest string) (int64, error) {
	if key == m.failKey {
		return 0, errors.New("access denied")
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string]Remote{}
	}
	m.objects[key] = Remote{Size: info.Size(), Digest: digest}
	m.order = append(m.order, key)
	return info.Size(), nil
}

func writeOutput(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestFilesOrdersAtlasLast(t *testing.T) {
	dir := writeOutput(t, map[string]string{
		atlas.FileName:                        "{}",
		"96kb.1ch.00000000000000bb.webm":      "b",
		"96kb.1ch.00000000000000aa.mp4":       "a",
		"notes.txt":                           "skip",
		".96kb.1ch.00000000000000cc.webm.tmp": "skip",
	})
	got, err := Files(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"96kb.1ch.00000000000000aa.mp4", "96kb.1ch.00000000000000bb.webm", atlas.FileName}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestPublishSkipsUnchangedObjects(t *testing.T) {
	const a, b = "96kb.1ch.00000000000000aa.webm", "96kb.1ch.00000000000000bb.webm"
	dir := writeOutput(t, map[string]string{
		atlas.FileName: "{}",
		a:              "aaaa",
		b:              "bb",
	})
	store := &memStore{objects: map[string]Remote{"sfx/" + a: {Size: 4}, "sfx/" + b: {Size: 99}}}
	p := &Publisher{Store: store, Config: config.Publish{Bucket: "game", Prefix: "/sfx/"}, OutputDir: dir}

	summary, err := p.Publish(context.Background())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if summary.Uploaded != 2 || summary.Skipped != 1 || summary.Bytes != 4 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if store.order[len(store.order)-1] != "sfx/"+atlas.FileName {
		t.Fatalf("atlas must be uploaded last, got %v", store.order)
	}
}

func TestPublishWithholdsAtlasOnFailure(t *testing.T) {
	dir := writeOutput(t, map[string]string{
		atlas.FileName:                   "{}",
		"96kb.1ch.00000000000000aa.webm": "a",
		"96kb.1ch.00000000000000bb.webm": "b",
	})
	store := &memStore{failKey: "96kb.1ch.00000000000000bb.webm"}
	p := &Publisher{Store: store, Config: config.Publish{Bucket: "game"}, OutputDir: dir}

	summary, err := p.Publish(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if summary.Failed != 1 || summary.Uploaded != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if _, ok := store.objects[atlas.FileName]; ok {
		t.Fatal("atlas must not be published after a failed artifact")
	}
}

func TestPublishDryRunWritesNothing(t *testing.T) {
	dir := writeOutput(t, map[string]string{"96kb.1ch.00000000000000aa.webm": "a"})
	store := &memStore{}
	p := &Publisher{Store: store, Config: config.Publish{Bucket: "game"}, OutputDir: dir, DryRun: true}
	summary, err := p.Publish(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Uploaded != 1 || len(store.order) != 0 {
		t.Fatalf("dry run uploaded %v", store.order)
	}
}

func TestPublishMissingBucket(t *testing.T) {
	p := &Publisher{Store: &memStore{missing: true}, Config: config.Publish{Bucket: "nope"}, OutputDir: t.TempDir()}
	if _, err := p.Publish(context.Background()); !errors.Is(err, ErrBucketMissing) {
		t.Fatalf("expected ErrBucketMissing, got %v", err)
	}
}

func TestPublishResendsRewrittenAtlasOfEqualSize(t *testing.T) {
	const stem = "96kb.1ch.00000000000000bb"
	oldAtlas := `{"ui":[["click","96kb.1ch.00000000000000aa",5,"_"]]}`
	newAtlas := `{"ui":[["click","` + stem + `",5,"_"]]}`
	dir := writeOutput(t, map[string]string{atlas.FileName: newAtlas, stem + ".webm": "artifact"})

	oldDir := writeOutput(t, map[string]string{atlas.FileName: oldAtlas})
	store := &memStore{}
	if _, err := store.Upload(context.Background(), "game", atlas.FileName, filepath.Join(oldDir, atlas.FileName), "", fileDigest(t, filepath.Join(oldDir, atlas.FileName))); err != nil {
		t.Fatal(err)
	}
	store.order = nil

	p := &Publisher{Store: store, Config: config.Publish{Bucket: "game"}, OutputDir: dir}
	summary, err := p.Publish(context.Background())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if summary.Uploaded != 2 || summary.Skipped != 0 {
		t.Fatalf("changed atlas must be uploaded, got %+v (order %v)", summary, store.order)
	}
	if !slices.Equal(store.order, []string{stem + ".webm", atlas.FileName}) {
		t.Fatalf("unexpected upload order %v", store.order)
	}

	store.order = nil
	summary, err = p.Publish(context.Background())
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if summary.Uploaded != 0 || summary.Skipped != 2 {
		t.Fatalf("identical atlas must be skipped, got %+v", summary)
	}
}

func fileDigest(t *testing.T, path string) string {
	t.Helper()
	sum, err := fingerprint.File(path)
	if err != nil {
		t.Fatal(err)
	}
	return fingerprint.Hex(sum)
}

func TestContentAddressed(t *testing.T) {
	cases := map[string]bool{
		"96kb.1ch.00000000000000aa.webm": true,
		"64kb.2ch.0123456789abcdef.mp4":  true,
		atlas.FileName:                   false,
		"click.webm":                     false,
	}
	for name, want := range cases {
		if got := contentAddressed(name); got != want {
			t.Errorf("contentAddressed(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestCacheControl(t *testing.T) {
	if cacheControl(atlas.FileName) != "no-cache" {
		t.Fatal("atlas must be revalidated")
	}
	if cacheControl("96kb.1ch.00000000000000aa.webm") == "no-cache" {
		t.Fatal("artifacts are immutable")
	}
}

func TestNewMinioStoreRequiresEndpoint(t *testing.T) {
	if _, err := NewMinioStore(config.Publish{Bucket: "b"}); err == nil {
		t.Fatal("expected an error without an endpoint")
	}
}
