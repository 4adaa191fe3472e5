// Package extractor is the Extractor Supervisor (C1): it provisions the
// yt-dlp binary, invokes it as a subprocess, parses its progress stream,
// and normalises its failure taxonomy.
package extractor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"kingo/internal/apperror"
	"kingo/internal/credential"
)

// Client invokes the extractor binary. A Client is safe for concurrent use;
// each Fetch call owns its own subprocess.
type Client struct {
	binPath  string
	cacheDir func() string
	log      zerolog.Logger
}

// New builds a Client. cacheDir is read fresh on every Fetch so a config
// reload between acquisitions is honoured without reconstructing the client.
func New(binPath string, cacheDir func() string, log zerolog.Logger) *Client {
	return &Client{binPath: binPath, cacheDir: cacheDir, log: log}
}

// EnsureProvisioned downloads the extractor binary if it is not already
// present. Safe to call before every Fetch; a present binary short-circuits.
func (c *Client) EnsureProvisioned(ctx context.Context, onProgress func(downloaded, total int64)) error {
	return Provision(ctx, c.binPath, onProgress)
}

// Fetch runs the extractor for videoID with the given credential, streaming
// parsed progress events to onProgress, and returns the path of the
// downloaded file on success. It never emits a terminal "completed" event
// itself — the coordinator owns that.
func (c *Client) Fetch(ctx context.Context, videoID string, cred credential.Credential, onProgress func(Progress)) (string, error) {
	cacheDir := c.cacheDir()
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", apperror.NewWithCode("extractor.Fetch", err, apperror.CodeInternal, "cannot create cache directory")
	}

	outputTemplate := filepath.Join(cacheDir, "%(id)s.%(ext)s")
	args := []string{
		"-f", "bestvideo[height<=1080][ext=webm]/bestvideo[height<=1080]/bestvideo[ext=webm]/bestvideo",
		"--no-playlist",
		"--progress",
		"--newline",
		"--extractor-args", "youtube:player_client=default,-tv",
		"--restrict-filenames",
		"-o", outputTemplate,
	}

	switch cred.Kind {
	case credential.KindCookieFile:
		args = append(args, "--cookies", cred.CookiePath)
	case credential.KindBrowser:
		args = append(args, "--cookies-from-browser", cred.BrowserTag)
	}

	args = append(args, fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID))

	cmd := exec.CommandContext(ctx, c.binPath, args...)
	setSysProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", apperror.NewWithCode("extractor.Fetch", err, apperror.CodeInternal, "cannot open stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", apperror.NewWithCode("extractor.Fetch", err, apperror.CodeInternal, "cannot open stderr pipe")
	}

	if err := cmd.Start(); err != nil {
		return "", apperror.NewWithCode("extractor.Fetch", err, apperror.CodeExtractorMissing, "failed to start extractor")
	}

	var stderrBuf strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)

	// Drain stdout and stderr concurrently — never stdout-then-stderr,
	// which deadlocks once yt-dlp's stderr fills an unread OS pipe buffer.
	// cmd.Wait() runs after both drains reach EOF, since Wait closes the
	// pipes.
	go func() {
		defer wg.Done()
		c.drainStdout(videoID, stdout, onProgress)
	}()
	go func() {
		defer wg.Done()
		c.drainStderr(stderr, &stderrBuf)
	}()

	wg.Wait()
	waitErr := cmd.Wait()

	if waitErr != nil {
		if ctx.Err() != nil {
			return "", apperror.NewWithCode("extractor.Fetch", apperror.ErrCancelled, apperror.CodeInternal, "cancelled")
		}
		stderrText := stderrBuf.String()
		return "", classifyFailure(stderrText, waitErr)
	}

	path, found := c.findOutput(cacheDir, videoID)
	if !found {
		return "", apperror.NewWithCode("extractor.Fetch", apperror.ErrExtractorFailed,
			apperror.CodeNetwork, "extractor exited successfully but produced no output file")
	}
	return path, nil
}

func (c *Client) drainStdout(videoID string, r io.Reader, onProgress func(Progress)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if event, ok := parseLine(videoID, line); ok && onProgress != nil {
			onProgress(event)
		}
	}
}

func (c *Client) drainStderr(r io.Reader, buf *strings.Builder) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		c.log.Debug().Str("stream", "stderr").Msg(line)
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
}

// findOutput scans the cache directory for the first entry whose filename
// begins with id, per §3's authoritative prefix-match rule.
func (c *Client) findOutput(cacheDir, id string) (string, bool) {
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), id) {
			return filepath.Join(cacheDir, entry.Name()), true
		}
	}
	return "", false
}

// classifyFailure matches stderr text against the failure taxonomy in
// §4.1: age-restricted, cookie-decryption, cookie-db-copy, or other.
func classifyFailure(stderrText string, cause error) *apperror.AppError {
	lower := strings.ToLower(stderrText)

	switch {
	case containsAny(lower, "confirm your age", "age-restrict", "inappropriate", "cookies-from-browser"):
		return apperror.NewWithCode("extractor.classifyFailure", apperror.ErrAgeRestricted,
			apperror.CodeAgeRestrictedExhaust, firstNonEmpty(stderrText, cause.Error()))
	case containsAny(lower, "dpapi", "decrypt"):
		return apperror.NewWithCode("extractor.classifyFailure", apperror.ErrCookieDecryption,
			apperror.CodeNetwork, firstNonEmpty(stderrText, cause.Error()))
	case containsAny(lower, "could not copy", "copy cookie", "cookie database"):
		return apperror.NewWithCode("extractor.classifyFailure", apperror.ErrCookieDBCopy,
			apperror.CodeNetwork, firstNonEmpty(stderrText, cause.Error()))
	default:
		return apperror.NewWithCode("extractor.classifyFailure", apperror.ErrExtractorFailed,
			apperror.CodeNetwork, firstNonEmpty(stderrText, cause.Error()))
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

