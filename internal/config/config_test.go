package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.MaxCacheGB != 10 {
		t.Errorf("MaxCacheGB = %d, want 10", cfg.MaxCacheGB)
	}
	if cfg.Language != "en" {
		t.Errorf("Language = %q, want %q", cfg.Language, "en")
	}
	if cfg.SetupComplete {
		t.Error("SetupComplete should default to false")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for missing file", err)
	}
	if got := s.Get(); got.MaxCacheGB != 10 {
		t.Errorf("Get().MaxCacheGB = %d, want default 10", got.MaxCacheGB)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for corrupt file", err)
	}
	if got := s.Get(); got.Language != "en" {
		t.Errorf("Get().Language = %q, want default on corrupt file", got.Language)
	}
}

func TestUpdate_PersistsAndRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Update(func(c *Config) error {
		c.VideoFolder = "/tmp/videos"
		c.MaxCacheGB = 5
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	got := reloaded.Get()
	if got.VideoFolder != "/tmp/videos" || got.MaxCacheGB != 5 {
		t.Errorf("reloaded config = %+v, want VideoFolder=/tmp/videos MaxCacheGB=5", got)
	}
}

func TestEnvOverride_VideoFolder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	t.Setenv("KINGO_VIDEO_FOLDER", "/override/videos")
	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Get().VideoFolder; got != "/override/videos" {
		t.Errorf("VideoFolder = %q, want env override", got)
	}
}

func TestWatch_ReloadsOnExternalWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Update(func(c *Config) error { return nil }); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	changed := make(chan Config, 1)
	s.Watch(func(c Config) { changed <- c })

	// Give the watcher a moment to attach before the external write.
	time.Sleep(50 * time.Millisecond)

	external := Default()
	external.MaxCacheGB = 42
	data, err := json.MarshalIndent(external, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changed:
		if c.MaxCacheGB != 42 {
			t.Errorf("reloaded MaxCacheGB = %d, want 42", c.MaxCacheGB)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
