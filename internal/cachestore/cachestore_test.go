package cachestore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T, maxGB int) *Store {
	t.Helper()
	dir := t.TempDir()
	return New(dir, maxGB, zerolog.Nop())
}

func writeFile(t *testing.T, dir, name string, size int, mtime time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestExists_FastPathAndScan(t *testing.T) {
	s := newTestStore(t, 10)
	dir := s.Dir()

	writeFile(t, dir, "abc.webm", 10, time.Now())
	if !s.Exists("abc") {
		t.Error("Exists should find abc.webm via fast path")
	}

	writeFile(t, dir, "xyz.mp4", 10, time.Now())
	if !s.Exists("xyz") {
		t.Error("Exists should find xyz.mp4 via prefix scan")
	}

	if s.Exists("nope") {
		t.Error("Exists should be false for an absent id")
	}
}

func TestUsage(t *testing.T) {
	s := newTestStore(t, 10)
	dir := s.Dir()

	writeFile(t, dir, "a.webm", 100, time.Now())
	writeFile(t, dir, "b.webm", 200, time.Now())

	bytes, count, err := s.Usage()
	if err != nil {
		t.Fatal(err)
	}
	if bytes != 300 || count != 2 {
		t.Errorf("Usage() = (%d, %d), want (300, 2)", bytes, count)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t, 10)
	dir := s.Dir()

	writeFile(t, dir, "a.webm", 10, time.Now())
	writeFile(t, dir, "b.webm", 10, time.Now())

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}

	bytes, count, err := s.Usage()
	if err != nil {
		t.Fatal(err)
	}
	if bytes != 0 || count != 0 {
		t.Errorf("Usage() after Clear = (%d, %d), want (0, 0)", bytes, count)
	}
}

func TestPrune_EvictsOldestFirstUntilUnderBound(t *testing.T) {
	// 0 GB bound means "unbounded" per spec, so use a store whose bound we
	// set directly in bytes via SetMaxCacheGB is too coarse (GiB granularity);
	// exercise the internal bound with a store constructed at 0 GB and then
	// override maxBytes directly is not exposed, so pick file sizes in GiB
	// units instead: use 1 GiB bound with three ~0.5 GiB files.
	s := newTestStore(t, 1)
	dir := s.Dir()

	const half = 600 * 1024 * 1024 // 600 MiB
	oldest := time.Now().Add(-2 * time.Hour)
	middle := time.Now().Add(-1 * time.Hour)
	newest := time.Now()

	writeFile(t, dir, "old.webm", half, oldest)
	writeFile(t, dir, "mid.webm", half, middle)
	writeFile(t, dir, "new.webm", half, newest)

	if err := s.Prune(); err != nil {
		t.Fatal(err)
	}

	bytes, _, err := s.Usage()
	if err != nil {
		t.Fatal(err)
	}
	if bytes > 1<<30 {
		t.Errorf("Usage() after Prune = %d, want <= %d", bytes, int64(1)<<30)
	}

	if _, err := os.Stat(filepath.Join(dir, "new.webm")); err != nil {
		t.Error("newest file should never be evicted in the same pruning pass")
	}
	if _, err := os.Stat(filepath.Join(dir, "old.webm")); !os.IsNotExist(err) {
		t.Error("oldest file should be evicted first")
	}
}

func TestPrune_Unbounded(t *testing.T) {
	s := newTestStore(t, 0)
	dir := s.Dir()
	writeFile(t, dir, "a.webm", 10, time.Now())

	if err := s.Prune(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.webm")); err != nil {
		t.Error("unbounded store should never prune")
	}
}
