// Package cachestore is the on-disk video cache (C3): existence checks,
// usage accounting, and size-bounded LRU-by-mtime eviction.
package cachestore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"kingo/internal/apperror"
)

// Store is the cache directory. Dir is read under RLock so a concurrent
// SetDir (config reload) never races a Prune/Usage pass mid-walk.
type Store struct {
	mu       sync.RWMutex
	dir      string
	maxBytes int64 // 0 means unbounded
	log      zerolog.Logger
}

// New creates a Store rooted at dir with the given bound in GiB (0 = unbounded).
func New(dir string, maxCacheGB int, log zerolog.Logger) *Store {
	return &Store{
		dir:      dir,
		maxBytes: int64(maxCacheGB) << 30,
		log:      log,
	}
}

// SetDir updates the cache root, e.g. after a config reload.
func (s *Store) SetDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir = dir
}

// SetMaxCacheGB updates the eviction bound, e.g. after a config reload.
func (s *Store) SetMaxCacheGB(gb int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxBytes = int64(gb) << 30
}

// Dir returns the current cache root.
func (s *Store) Dir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// Exists reports whether id is cached. The exact `<id>.webm` check is a
// fast path; the directory-prefix scan is authoritative (the extractor
// may produce another container extension) and is consulted whenever the
// fast path misses.
func (s *Store) Exists(id string) bool {
	_, ok := s.Path(id)
	return ok
}

// Path returns the cached file for id, if any. Per §3, the first file
// found whose name begins with the identifier is authoritative.
func (s *Store) Path(id string) (string, bool) {
	dir := s.Dir()

	fast := filepath.Join(dir, id+".webm")
	if info, err := os.Stat(fast); err == nil && !info.IsDir() {
		return fast, true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), id) {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}

// Usage returns the total size in bytes and count of regular files in the
// cache directory.
func (s *Store) Usage() (bytes int64, count int, err error) {
	dir := s.Dir()
	entries, rerr := os.ReadDir(dir)
	if rerr != nil {
		if os.IsNotExist(rerr) {
			return 0, 0, nil
		}
		return 0, 0, apperror.Wrap("cachestore.Usage", rerr)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, ierr := entry.Info()
		if ierr != nil {
			continue
		}
		bytes += info.Size()
		count++
	}
	return bytes, count, nil
}

// Clear deletes all regular files in the cache directory unconditionally.
func (s *Store) Clear() error {
	dir := s.Dir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperror.Wrap("cachestore.Clear", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if rerr := os.Remove(filepath.Join(dir, entry.Name())); rerr != nil {
			s.log.Warn().Err(rerr).Str("file", entry.Name()).Msg("clear: failed to remove file")
		}
	}
	return nil
}

type fileStat struct {
	path  string
	size  int64
	mtime int64
}

// Prune is invoked after each successful acquisition. If total cache size
// exceeds the configured bound, files are deleted oldest-mtime-first until
// at or below the bound. A freshly completed file is the youngest in the
// directory and is therefore never evicted by the same pass. Failure to
// delete a single file is logged and non-fatal; pruning proceeds with the
// remaining candidates.
func (s *Store) Prune() error {
	s.mu.RLock()
	dir := s.dir
	bound := s.maxBytes
	s.mu.RUnlock()

	if bound <= 0 {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperror.Wrap("cachestore.Prune", err)
	}

	var files []fileStat
	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, ierr := entry.Info()
		if ierr != nil {
			continue
		}
		files = append(files, fileStat{
			path:  filepath.Join(dir, entry.Name()),
			size:  info.Size(),
			mtime: info.ModTime().UnixNano(),
		})
		total += info.Size()
	}

	if total <= bound {
		return nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].mtime < files[j].mtime })

	for _, f := range files {
		if total <= bound {
			break
		}
		if err := os.Remove(f.path); err != nil {
			if !os.IsNotExist(err) {
				s.log.Warn().Err(err).Str("file", f.path).Msg("prune: failed to remove file")
			}
			continue
		}
		total -= f.size
	}

	return nil
}
