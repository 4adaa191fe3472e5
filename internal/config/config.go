// Package config persists the application's configuration record as JSON,
// guarded by a mutex and watched on disk for external edits (tray settings
// UI, manual edits) via fsnotify.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"kingo/internal/constants"
)

// Config mirrors the original AppConfig field set and JSON tags exactly
// (camelCase), since the same userscript/tray UI round-trips this JSON.
type Config struct {
	SetupComplete  bool   `json:"setupComplete"`
	VideoFolder    string `json:"videoFolder"`
	MaxCacheGB     int    `json:"maxCacheGB"`
	StartMinimized bool   `json:"startMinimized"`
	StartOnBoot    bool   `json:"startOnBoot"`
	Language       string `json:"language"`
	CookiesFile    string `json:"cookiesFile"`
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		SetupComplete:  false,
		VideoFolder:    "",
		MaxCacheGB:     constants.DefaultMaxCacheGB,
		StartMinimized: false,
		StartOnBoot:    false,
		Language:       constants.DefaultLanguage,
		CookiesFile:    "",
	}
}

// Store is a mutex-guarded, disk-backed configuration cell. Core
// components read a Get() snapshot and never hold the lock across I/O.
type Store struct {
	mu       sync.RWMutex
	cfg      Config
	filePath string
	log      zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange func(Config)
}

// Load reads the config file, applying environment overrides on top and
// falling back to defaults on a missing or corrupt file. It never returns
// an error for a missing/corrupt file — only for an existing file it cannot
// read, or a directory it cannot create.
func Load(filePath string) (*Store, error) {
	s := &Store{filePath: filePath, log: zerolog.Nop()}

	cfg := Default()
	if data, err := os.ReadFile(filePath); err == nil {
		if uerr := json.Unmarshal(data, &cfg); uerr != nil {
			cfg = Default()
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	s.cfg = cfg

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}

	return s, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KINGO_VIDEO_FOLDER"); v != "" {
		cfg.VideoFolder = v
	}
	if v := os.Getenv("KINGO_MAX_CACHE_GB"); v != "" {
		if gb, err := strconv.Atoi(v); err == nil {
			cfg.MaxCacheGB = gb
		}
	}
	if v := os.Getenv("KINGO_COOKIES_FILE"); v != "" {
		cfg.CookiesFile = v
	}
}

// SetLogger injects a component logger; defaults to a no-op logger so
// tests that never call this still run silently.
func (s *Store) SetLogger(l zerolog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = l
}

// Get returns a copy of the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update applies fn to a copy of the configuration under an exclusive
// lock, persists it on success, and leaves the in-memory value unchanged
// on error.
func (s *Store) Update(fn func(*Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg
	if err := fn(&next); err != nil {
		return err
	}

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		return err
	}

	s.cfg = next
	if s.onChange != nil {
		s.onChange(next)
	}
	return nil
}

// Watch starts an fsnotify watch on the config file's directory, reloading
// the store on every write or create event for the file (e.g. a hand edit,
// or a future separate settings process). Update's own writes trigger a
// reload too; events are not debounced. onChange, if
// non-nil, is invoked with the freshly loaded configuration after every
// successful reload. Watch is best-effort: a failure to start the watcher
// is logged and not fatal to the daemon.
func (s *Store) Watch(onChange func(Config)) {
	s.mu.Lock()
	s.onChange = onChange
	log := s.log
	s.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("config watch disabled: fsnotify unavailable")
		return
	}
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		log.Warn().Err(err).Msg("config watch disabled: cannot watch directory")
		watcher.Close()
		return
	}

	s.mu.Lock()
	s.watcher = watcher
	s.mu.Unlock()

	go s.watchLoop(watcher, log)
}

func (s *Store) watchLoop(watcher *fsnotify.Watcher, log zerolog.Logger) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.filePath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			s.reload(log)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func (s *Store) reload(log zerolog.Logger) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Warn().Err(err).Msg("ignoring unparsable config reload")
		return
	}
	applyEnvOverrides(&cfg)

	s.mu.Lock()
	s.cfg = cfg
	onChange := s.onChange
	s.mu.Unlock()

	log.Info().Msg("configuration reloaded from disk")
	if onChange != nil {
		onChange(cfg)
	}
}

// Close stops the fsnotify watcher, if running.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
