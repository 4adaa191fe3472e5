// Package interfaces defines contracts for the application shell: one small
// interface per component, mirroring the concrete methods app.go wires
// together. Nothing imports this package; app.go wires the concrete types
// directly, and this file serves as a contract reference.
package interfaces

import (
	"context"

	"kingo/internal/config"
	"kingo/internal/coordinator"
	"kingo/internal/credential"
	"kingo/internal/extractor"
	"kingo/internal/history"
	"kingo/internal/lyrics"
	"kingo/internal/updater"
)

// Extractor is C1's contract: provision the binary, invoke it, and stream
// parsed progress.
type Extractor interface {
	EnsureProvisioned(ctx context.Context, onProgress func(downloaded, total int64)) error
	Fetch(ctx context.Context, videoID string, cred credential.Credential, onProgress func(extractor.Progress)) (string, error)
}

// CredentialResolver is C2's contract: the ordered retry chain consulted on
// age-restriction failure.
type CredentialResolver interface {
	OrderedCredentials() []credential.Credential
}

// CacheStore is C3's contract: existence, path resolution, eviction, and
// the tray/settings-facing usage query and manual clear.
type CacheStore interface {
	Exists(id string) bool
	Path(id string) (string, bool)
	Usage() (bytes int64, count int, err error)
	Prune() error
	Clear() error
}

// Coordinator is C4's contract: deduplicated acquisition with progress
// fan-out.
type Coordinator interface {
	StartOrSubscribe(id string) coordinator.Subscription
}

// LyricsRelay is C6's contract: the two push cells and the derived
// current-line query.
type LyricsRelay interface {
	SetLyrics(l lyrics.Lyrics)
	Lyrics() *lyrics.Lyrics
	SetProgress(p lyrics.Progress)
	Progress() *lyrics.Progress
	CurrentLine() *lyrics.Line
}

// HistoryLedger is the optional, non-authoritative acquisition ledger.
type HistoryLedger interface {
	Record(a history.Attempt)
	Recent(n int) []history.Attempt
}

// SettingsService is the application shell's contract for the tray/settings
// surface backed by the config store.
type SettingsService interface {
	GetSettings() config.Config
	SaveSettings(fn func(*config.Config) error) error
}

// SystemService is the application shell's contract for self-update and
// autostart management.
type SystemService interface {
	CheckForUpdate() (*updater.UpdateInfo, error)
	GetAvailableAppVersions() ([]updater.Release, error)
	InstallAppVersion(tag string) error
	DownloadAndApplyUpdate(downloadURL string) error
	RestartApp()
	SetAutostart(enabled bool) error
	IsAutostartEnabled() (bool, error)
}

// ConsoleEmitter is a function type for emitting console logs to the tray UI.
type ConsoleEmitter func(message string)
