// Package paths resolves the application's filesystem layout: the
// per-user data directory, the extractor binary location, and the
// default cache directory.
package paths

import (
	"os"
	"path/filepath"
	"runtime"

	"kingo/internal/constants"
)

// DevMode is set at build time via ldflags to isolate a dev environment
// from production. Example: -ldflags "-X 'kingo/internal/paths.DevMode=true'"
var DevMode string = "false"

func appDirName() string {
	if DevMode == "true" {
		return constants.AppName + "-dev"
	}
	return constants.AppName
}

// Paths holds all resolved application directories, matching the
// filesystem layout:
//
//	ivLyrics-helper/            AppData
//	ivLyrics-helper/config.json ConfigPath()
//	ivLyrics-helper/yt-dlp(.exe) YtDlpPath()
//	ivLyrics-helper/youtube_cookie.txt CookieFile
//	ivLyrics-helper/videos/     DefaultVideos
type Paths struct {
	AppData       string
	DefaultVideos string
	CookieFile    string
	ExeDir        string
}

// Resolve computes application paths based on OS conventions.
func Resolve() (*Paths, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}

	appData := filepath.Join(configDir, appDirName())

	exePath, err := os.Executable()
	if err != nil {
		return nil, err
	}

	return &Paths{
		AppData:       appData,
		DefaultVideos: filepath.Join(appData, constants.VideosDir),
		CookieFile:    filepath.Join(appData, constants.CookieFile),
		ExeDir:        filepath.Dir(exePath),
	}, nil
}

// EnsureDirectories creates the app data and default videos directories.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.AppData, p.DefaultVideos} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// ConfigPath returns the path to the persisted configuration file.
func (p *Paths) ConfigPath() string {
	return filepath.Join(p.AppData, constants.ConfigFile)
}

// HistoryDBPath returns the path to the optional acquisition-history ledger.
func (p *Paths) HistoryDBPath() string {
	return filepath.Join(p.AppData, constants.HistoryDB)
}

func ytDlpBinaryName() string {
	if runtime.GOOS == "windows" {
		return "yt-dlp.exe"
	}
	return "yt-dlp"
}

// sidecarPaths returns possible pre-bundled extractor locations, checked
// before the per-user data directory. Mirrors the teacher's sidecar
// priority: a packaged installer may ship yt-dlp next to the executable.
func (p *Paths) sidecarPaths(binaryName string) []string {
	switch runtime.GOOS {
	case "windows":
		return []string{filepath.Join(p.ExeDir, binaryName)}
	case "darwin":
		resources := filepath.Join(p.ExeDir, "..", "Resources")
		return []string{filepath.Join(resources, binaryName), filepath.Join(p.ExeDir, binaryName)}
	default:
		return []string{filepath.Join(p.ExeDir, binaryName)}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// YtDlpPath returns the extractor binary path: a sidecar location if
// present, otherwise the per-user data directory location that
// provisioning downloads to.
func (p *Paths) YtDlpPath() string {
	name := ytDlpBinaryName()
	for _, candidate := range p.sidecarPaths(name) {
		if fileExists(candidate) {
			return candidate
		}
	}
	return filepath.Join(p.AppData, name)
}
