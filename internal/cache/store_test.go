package cache

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestStore_PutGet(t *testing.T) {
	s, err := OpenStore(afero.NewMemMapFs(), "/cache")
	if err != nil {
		t.Fatalf("OpenStore error: %v", err)
	}

	if _, ok, err := s.Get("k"); err != nil || ok {
		t.Fatalf("Get before put = (%v, %v), want miss", ok, err)
	}

	if err := s.Put("k", sample("a.go")); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	got, ok, err := s.Get("k")
	if err != nil || !ok {
		t.Fatalf("Get after put = (%v, %v), want hit", ok, err)
	}
	if got.File != "a.go" || got.Score != 7 || len(got.Issues) != 1 || got.Issues[0].Line != 3 {
		t.Errorf("Get = %+v", got)
	}
}

func TestStore_Overwrite(t *testing.T) {
	s, err := OpenStore(afero.NewMemMapFs(), "/cache")
	if err != nil {
		t.Fatalf("OpenStore error: %v", err)
	}
	first := sample("a.go")
	second := sample("a.go")
	second.Summary = "second"

	if err := s.Put("k", first); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := s.Put("k", second); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	got, _, _ := s.Get("k")
	if got.Summary != "second" {
		t.Errorf("Summary = %q, want second", got.Summary)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Entries != 1 {
		t.Errorf("Entries = %d, want 1", stats.Entries)
	}
}

func TestStore_ClearAndStats(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := OpenStore(fs, "/cache")
	if err != nil {
		t.Fatalf("OpenStore error: %v", err)
	}

	for _, k := range []string{"a", "b", "c"} {
		if err := s.Put(k, sample(k)); err != nil {
			t.Fatalf("Put error: %v", err)
		}
	}
	if err := afero.WriteFile(fs, "/cache/notes.txt", []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Entries != 3 {
		t.Errorf("Entries = %d, want 3", stats.Entries)
	}
	if stats.TotalBytes <= 0 {
		t.Error("TotalBytes should be > 0")
	}
	if stats.Dir != "/cache" {
		t.Errorf("Dir = %q", stats.Dir)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	stats, _ = s.Stats()
	if stats.Entries != 0 {
		t.Errorf("Entries after clear = %d, want 0", stats.Entries)
	}
	if ok, _ := afero.Exists(fs, "/cache/notes.txt"); !ok {
		t.Error("Clear removed a file it does not own")
	}
}

func TestStore_CorruptEntry(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := OpenStore(fs, "/cache")
	if err != nil {
		t.Fatalf("OpenStore error: %v", err)
	}
	path := filepath.Join("/cache", HashKey("k")+entryExt)
	if err := afero.WriteFile(fs, path, []byte{0xc1}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := s.Get("k"); err == nil || ok {
		t.Errorf("Get corrupt = (%v, %v), want decode error", ok, err)
	}
}

func TestDefaultDir_XDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir error: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg", "tally") {
		t.Errorf("DefaultDir = %q", dir)
	}
}

func TestHashKey(t *testing.T) {
	h1 := HashKey("test")
	h2 := HashKey("test")
	h3 := HashKey("other")

	if h1 != h2 {
		t.Error("Same input should produce same hash")
	}
	if h1 == h3 {
		t.Error("Different input should produce different hash")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}
