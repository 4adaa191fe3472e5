package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"kingo/internal/apperror"
	"kingo/internal/credential"
)

// writeFakeExtractor writes a shell script standing in for the yt-dlp
// binary. The success test's script writes to both stdout and stderr,
// interleaved with short sleeps, so both pipes carry output while it runs.
func writeFakeExtractor(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake extractor script is POSIX shell only")
	}
	path := filepath.Join(t.TempDir(), "fake-yt-dlp")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestClient(t *testing.T, binPath, cacheDir string) *Client {
	t.Helper()
	return New(binPath, func() string { return cacheDir }, zerolog.Nop())
}

func TestFetch_Success_ConcurrentStreamDraining(t *testing.T) {
	cacheDir := t.TempDir()
	script := fmt.Sprintf(`
echo '[download]   1.0%% of 10.00MiB at 1.00MiB/s ETA 00:10'
echo 'some noisy stderr line' >&2
sleep 0.05
echo '[download]  50.0%% of 10.00MiB at 2.00MiB/s ETA 00:05'
echo 'another stderr line' >&2
sleep 0.05
echo '[download] 100.0%% of 10.00MiB at 3.00MiB/s ETA 00:00'
printf '' > %q
exit 0
`, filepath.Join(cacheDir, "abc123.webm"))
	bin := writeFakeExtractor(t, script)
	c := newTestClient(t, bin, cacheDir)

	var events []Progress
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	path, err := c.Fetch(ctx, "abc123", credential.None(), func(p Progress) {
		events = append(events, p)
	})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if filepath.Base(path) != "abc123.webm" {
		t.Errorf("path = %q, want basename abc123.webm", path)
	}
	if len(events) != 3 {
		t.Fatalf("got %d progress events, want 3", len(events))
	}
	if *events[2].Percent != 100.0 {
		t.Errorf("final percent = %v, want 100", *events[2].Percent)
	}
}

func TestFetch_AgeRestricted(t *testing.T) {
	cacheDir := t.TempDir()
	bin := writeFakeExtractor(t, `echo 'ERROR: Sign in to confirm your age' >&2
exit 1
`)
	c := newTestClient(t, bin, cacheDir)

	_, err := c.Fetch(context.Background(), "vid1", credential.None(), nil)
	if !apperror.IsAgeRestricted(err) {
		t.Fatalf("err = %v, want age-restricted", err)
	}
}

func TestFetch_CookieDecryptionFailure(t *testing.T) {
	cacheDir := t.TempDir()
	bin := writeFakeExtractor(t, `echo 'ERROR: Could not decrypt cookie' >&2
exit 1
`)
	c := newTestClient(t, bin, cacheDir)

	_, err := c.Fetch(context.Background(), "vid1", credential.Browser("chrome"), nil)
	var ae *apperror.AppError
	if err == nil || !errors.As(err, &ae) || ae.Code != apperror.CodeNetwork {
		t.Fatalf("err = %v, want network-coded cookie-decryption failure", err)
	}
}

func TestFetch_NoOutputFileProducesError(t *testing.T) {
	cacheDir := t.TempDir()
	bin := writeFakeExtractor(t, `echo 'done, but nothing was written'
exit 0
`)
	c := newTestClient(t, bin, cacheDir)

	_, err := c.Fetch(context.Background(), "vid1", credential.None(), nil)
	if err == nil {
		t.Fatal("expected error when no output file is produced")
	}
}

func TestClassifyFailure_Other(t *testing.T) {
	err := classifyFailure("ERROR: unable to reach host", fmt.Errorf("exit status 1"))
	if err.Err != apperror.ErrExtractorFailed {
		t.Errorf("got %v, want ErrExtractorFailed", err.Err)
	}
}
