// Package constants centralizes application-wide constants shared across
// components, avoiding magic strings and magic numbers.
package constants

import "time"

// Application metadata.
const (
	AppName    = "ivLyrics-helper"
	AppID      = "com.ivlyrics.helper"
	ConfigFile = "config.json"
	HistoryDB  = "history.db"
	CookieFile = "youtube_cookie.txt"
	VideosDir  = "videos"
)

// HTTPPort is the fixed loopback port the front-end binds. It is not
// configurable: userscript clients hardcode the URL.
const HTTPPort = 15123

// Default configuration values, mirroring the original AppConfig defaults.
const (
	DefaultMaxCacheGB = 10
	DefaultLanguage   = "en"
)

// Broadcast sizing.
const (
	// BroadcastBuffer is the per-subscriber channel capacity for an
	// in-flight acquisition's progress broadcast.
	BroadcastBuffer = 100
)

// Video id constraints (§3 of the spec: 1-20 characters, non-empty).
const (
	MinVideoIDLength = 1
	MaxVideoIDLength = 20
)

// Timeouts.
const (
	// GitHubAPITimeout bounds a single release-feed query during binary
	// provisioning.
	GitHubAPITimeout = 30 * time.Second

	// HistoryWriteTimeout bounds a single best-effort ledger write.
	HistoryWriteTimeout = 2 * time.Second
)

// ProcessingPercent is the fixed percent value emitted for the merge/
// post-process phase, per the original extractor's behaviour.
const ProcessingPercent = 99.0

// Download status values (the tagged enumeration from §3).
const (
	StatusChecking       = "checking"
	StatusDownloading    = "downloading"
	StatusProcessing     = "processing"
	StatusCompleted      = "completed"
	StatusError          = "error"
	StatusAlreadyExists  = "already-exists"
)
