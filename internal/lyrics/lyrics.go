// Package lyrics is the Lyrics/Progress Relay (C6): two mutex-guarded cells
// fed by the browser extension's "now playing" pushes, plus a derived
// current-line query for the userscript overlay. Unlike the original
// source's module-scope `static mut` line buffer, both cells here are
// guarded by a real lock — the unsynchronised variant was a latent bug,
// not a design choice worth preserving.
package lyrics

import "sync"

// Track identifies the currently playing song.
type Track struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	AlbumArt string `json:"albumArt,omitempty"`
	Duration uint64 `json:"duration"`
}

// Line is one lyric line; EndTime is nil for an unsynced or final line.
type Line struct {
	StartTime int64   `json:"startTime"`
	EndTime   *int64  `json:"endTime,omitempty"`
	Text      string  `json:"text"`
	PronText  *string `json:"pronText,omitempty"`
	TransText *string `json:"transText,omitempty"`
}

// Lyrics is the full payload pushed by POST /lyrics/sender.
type Lyrics struct {
	Track    Track  `json:"track"`
	Lines    []Line `json:"lyrics"`
	IsSynced bool   `json:"isSynced"`
}

// NextTrack previews what plays after the current track, when known.
type NextTrack struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	AlbumArt string `json:"albumArt,omitempty"`
}

// Progress is the playback position payload pushed by POST /lyrics/progress.
type Progress struct {
	Position  uint64     `json:"position"`
	IsPlaying bool       `json:"isPlaying"`
	Duration  *uint64    `json:"duration,omitempty"`
	Remaining *float64   `json:"remaining,omitempty"`
	NextTrack *NextTrack `json:"nextTrack,omitempty"`
}

// Relay holds the two process-scoped cells. The zero value is ready to use.
type Relay struct {
	mu       sync.Mutex
	lyrics   *Lyrics
	progress *Progress
}

// New returns an empty Relay.
func New() *Relay {
	return &Relay{}
}

// SetLyrics replaces the lyrics cell atomically.
func (r *Relay) SetLyrics(l Lyrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lyrics = &l
}

// Lyrics returns a snapshot of the lyrics cell, or nil if never set.
func (r *Relay) Lyrics() *Lyrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lyrics
}

// SetProgress replaces the progress cell atomically.
func (r *Relay) SetProgress(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = &p
}

// Progress returns a snapshot of the progress cell, or nil if never set.
func (r *Relay) Progress() *Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// CurrentLine computes the lyric line active at the relay's current
// position, per §4.6/§8's testable current-line algorithm: an absent
// EndTime is treated as equal to StartTime; lines are scanned in order;
// a line containing the position wins outright; otherwise the most recent
// line strictly before the position carries through inter-line gaps.
// Returns nil if either cell is unset or no line qualifies.
func (r *Relay) CurrentLine() *Line {
	r.mu.Lock()
	lyrics := r.lyrics
	progress := r.progress
	r.mu.Unlock()

	if lyrics == nil || progress == nil {
		return nil
	}
	return currentLine(lyrics.Lines, int64(progress.Position))
}

func currentLine(lines []Line, position int64) *Line {
	var carry *Line
	for i := range lines {
		line := &lines[i]
		end := line.StartTime
		if line.EndTime != nil {
			end = *line.EndTime
		}

		if position >= line.StartTime && position <= end {
			return line
		}
		if line.StartTime > position {
			return carry
		}
		carry = line
	}
	return carry
}
