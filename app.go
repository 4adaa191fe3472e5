package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v3/pkg/application"

	"kingo/internal/autostart"
	"kingo/internal/cachestore"
	"kingo/internal/config"
	"kingo/internal/constants"
	"kingo/internal/coordinator"
	"kingo/internal/credential"
	"kingo/internal/events"
	"kingo/internal/extractor"
	"kingo/internal/history"
	"kingo/internal/httpapi"
	"kingo/internal/logger"
	"kingo/internal/lyrics"
	"kingo/internal/notify"
	"kingo/internal/paths"
	"kingo/internal/updater"
	"kingo/internal/validate"
)

// Version is set at build time via ldflags, or read from the embedded
// VERSION file.
var Version string

// App is the tray-only application shell. It owns C1-C6's concrete
// instances and wires them together; it exposes no webview bindings of its
// own, since the daemon's only clients are the HTTP front-end's callers.
type App struct {
	ctx     context.Context
	log     zerolog.Logger
	dirs    *paths.Paths
	cfg     *config.Store
	appIcon []byte

	credentials *credential.Resolver
	extractor   *extractor.Client
	cache       *cachestore.Store
	history     *history.Ledger
	lyricsRelay *lyrics.Relay
	coord       *coordinator.Coordinator
	server      *httpapi.Server
	notifier    *notify.Notifier
	updater     *updater.Updater
}

// NewApp creates a new App application struct. appIcon is the raw PNG bytes
// embedded into the binary, written to a temp file at startup for the
// desktop notifier. Construction is otherwise deferred to ServiceStartup,
// which has the Wails context the components' loggers and the HTTP
// server's lifecycle depend on.
func NewApp(appIcon []byte) *App {
	return &App{appIcon: appIcon}
}

// ServiceStartup is called when the app starts (Wails v3 lifecycle).
func (a *App) ServiceStartup(ctx context.Context, options application.ServiceOptions) error {
	a.ctx = ctx

	dirs, err := paths.Resolve()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	a.dirs = dirs

	if err := dirs.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	if err := logger.Init(dirs.AppData); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to initialize logger: %v\n", err)
	}
	a.log = logger.Component("app")

	cfg, err := config.Load(dirs.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.SetLogger(logger.Component("config"))
	a.cfg = cfg

	a.log.Info().
		Str("version", Version).
		Str("appData", dirs.AppData).
		Msg("ivLyrics-helper starting up")

	a.credentials = credential.New(func() string {
		if cookies := cfg.Get().CookiesFile; cookies != "" {
			return cookies
		}
		return dirs.CookieFile
	})

	a.cache = cachestore.New(a.videoFolder(), cfg.Get().MaxCacheGB, logger.Component("cachestore"))
	a.history = history.Open(dirs.HistoryDBPath(), logger.Component("history"))
	a.extractor = extractor.New(dirs.YtDlpPath(), a.cache.Dir, logger.Component("extractor"))
	a.lyricsRelay = lyrics.New()
	a.notifier = notify.New(a.iconPath(), logger.Component("notify"))

	a.coord = coordinator.New(a.extractor, a.credentials, a.cache, a.history, a.baseURL, logger.Component("coordinator"))
	a.coord.SetNotifier(a.notifier)

	a.server = httpapi.New(a.cache, a.coord, a.lyricsRelay, a.baseURL, logger.Component("httpapi"))

	a.updater = updater.NewUpdater(Version)
	a.updater.SetContext(ctx)

	cfg.Watch(func(next config.Config) {
		a.cache.SetDir(a.resolveVideoFolder(next))
		a.cache.SetMaxCacheGB(next.MaxCacheGB)
	})

	go func() {
		if err := a.extractor.EnsureProvisioned(ctx, func(downloaded, total int64) {
			application.Get().Event.Emit(events.ProvisionProgress, map[string]interface{}{
				"downloaded": downloaded,
				"total":      total,
			})
		}); err != nil {
			a.log.Warn().Err(err).Msg("extractor not provisioned at startup; fetches fail until a later startup provisions it")
			return
		}
		application.Get().Event.Emit(events.ProvisionComplete, nil)
	}()

	addr := "127.0.0.1:" + strconv.Itoa(constants.HTTPPort)
	if err := a.server.Start(addr); err != nil {
		a.log.Error().Err(err).Str("addr", addr).Msg("failed to start http front-end")
		return err
	}
	a.log.Info().Str("addr", addr).Msg("http front-end listening")

	if cfg.Get().StartOnBoot {
		if err := autostart.Enable(); err != nil {
			a.log.Warn().Err(err).Msg("failed to enable autostart at startup")
		}
	}

	application.Get().Event.Emit(events.AppReady, map[string]interface{}{
		"needsSetup": !cfg.Get().SetupComplete,
	})

	return nil
}

// ServiceShutdown is called when the app shuts down (Wails v3 lifecycle).
func (a *App) ServiceShutdown() error {
	if a.server != nil {
		if err := a.server.Close(); err != nil {
			a.log.Warn().Err(err).Msg("http front-end close failed")
		}
	}
	if a.cfg != nil {
		if err := a.cfg.Close(); err != nil {
			a.log.Warn().Err(err).Msg("config watcher close failed")
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.log.Warn().Err(err).Msg("history ledger close failed")
		}
	}
	a.log.Info().Msg("application shutdown complete")
	return nil
}

func (a *App) videoFolder() string {
	return a.resolveVideoFolder(a.cfg.Get())
}

func (a *App) resolveVideoFolder(cfg config.Config) string {
	if cfg.VideoFolder != "" {
		return cfg.VideoFolder
	}
	return a.dirs.DefaultVideos
}

func (a *App) baseURL() string {
	return "http://localhost:" + strconv.Itoa(constants.HTTPPort)
}

// iconPath writes the embedded icon to a temp file on first use, matching
// the teacher's clipboard monitor icon handling, and returns its path (or
// "" if no icon was embedded, e.g. in a dev build).
func (a *App) iconPath() string {
	if len(a.appIcon) == 0 {
		return ""
	}
	p := filepath.Join(os.TempDir(), "ivlyrics-helper-notify-icon.png")
	if err := os.WriteFile(p, a.appIcon, 0644); err != nil {
		a.log.Warn().Err(err).Msg("failed to write notification icon to temp")
		return ""
	}
	return p
}

// --- SettingsService ---

// GetSettings returns the current configuration snapshot.
func (a *App) GetSettings() config.Config {
	return a.cfg.Get()
}

// SaveSettings applies fn to the configuration and persists the result. A
// non-empty VideoFolder is validated and normalized to a cleaned absolute
// path before it is written to disk.
func (a *App) SaveSettings(fn func(*config.Config) error) error {
	return a.cfg.Update(func(c *config.Config) error {
		if err := fn(c); err != nil {
			return err
		}
		if c.VideoFolder != "" {
			abs, err := validate.DirectoryPath(c.VideoFolder)
			if err != nil {
				return err
			}
			c.VideoFolder = abs
		}
		return nil
	})
}

// --- SystemService ---

// CheckForUpdate checks GitHub for a newer release of this binary.
func (a *App) CheckForUpdate() (*updater.UpdateInfo, error) {
	return a.updater.CheckForUpdate()
}

// GetAvailableAppVersions lists every published release.
func (a *App) GetAvailableAppVersions() ([]updater.Release, error) {
	return a.updater.GetAvailableReleases()
}

// InstallAppVersion downloads and applies a specific tagged release.
func (a *App) InstallAppVersion(tag string) error {
	return a.updater.InstallVersion(tag)
}

// DownloadAndApplyUpdate downloads and applies the release at downloadURL.
func (a *App) DownloadAndApplyUpdate(downloadURL string) error {
	return a.updater.DownloadAndApply(downloadURL)
}

// RestartApp quits the application so the external updater can relaunch it.
func (a *App) RestartApp() {
	a.updater.RestartApp()
}

// SetAutostart enables or disables launching the daemon at login, and
// persists the choice to configuration.
func (a *App) SetAutostart(enabled bool) error {
	var err error
	if enabled {
		err = autostart.Enable()
	} else {
		err = autostart.Disable()
	}
	if err != nil {
		return err
	}
	return a.cfg.Update(func(c *config.Config) error {
		c.StartOnBoot = enabled
		return nil
	})
}

// IsAutostartEnabled reports whether the login-item registration currently
// exists (the source of truth is the OS, not the cached config value).
func (a *App) IsAutostartEnabled() (bool, error) {
	return autostart.IsEnabled()
}

// GetVersion returns the running binary's version string.
func (a *App) GetVersion() string {
	return Version
}

// GetCacheUsage reports the current on-disk cache size and entry count.
func (a *App) GetCacheUsage() (bytes int64, count int, err error) {
	return a.cache.Usage()
}

// ClearCache deletes every cached video file.
func (a *App) ClearCache() error {
	return a.cache.Clear()
}

// GetRecentHistory returns the n most recent acquisition attempts, newest
// first. The history ledger is advisory only; a disabled ledger returns nil.
func (a *App) GetRecentHistory(n int) []history.Attempt {
	return a.history.Recent(n)
}
