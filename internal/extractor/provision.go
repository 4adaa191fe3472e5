package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/time/rate"

	"kingo/internal/apperror"
	"kingo/internal/constants"
)

const (
	githubOwner = "yt-dlp"
	githubRepo  = "yt-dlp"
)

// release mirrors the subset of the GitHub releases API response needed
// to locate the platform asset.
type release struct {
	TagName string  `json:"tag_name"`
	Assets  []asset `json:"assets"`
}

type asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// assetName returns the release asset name for the current platform,
// matching the extractor's own naming scheme (`<name>.exe` on Windows,
// `<name>_macos` on macOS for both architectures, `<name>` on Linux).
func assetName() string {
	switch runtime.GOOS {
	case "windows":
		return "yt-dlp.exe"
	case "darwin":
		return "yt-dlp_macos"
	default:
		return "yt-dlp"
	}
}

// apiLimiter throttles outbound GitHub Releases API polling during
// provisioning checks; a single daemon process issues at most a handful of
// these per run, but the limiter exists so a pathological retry loop in a
// caller can never hammer the API into a rate-limit ban.
var apiLimiter = rate.NewLimiter(rate.Every(time.Second), 2)

// Provision ensures the extractor binary exists at binPath. A present
// binary (non-zero size) is never re-fetched — provisioning is idempotent.
// onProgress, if non-nil, is called with (downloaded, total) byte counts
// as the asset streams to disk.
func Provision(ctx context.Context, binPath string, onProgress func(downloaded, total int64)) error {
	if info, err := os.Stat(binPath); err == nil && info.Size() > 0 {
		return nil
	}

	if err := apiLimiter.Wait(ctx); err != nil {
		return apperror.Wrap("extractor.Provision", err)
	}

	rel, err := fetchLatestRelease(ctx)
	if err != nil {
		return apperror.NewWithCode("extractor.Provision", err, apperror.CodeExtractorMissing,
			"could not reach the extractor release feed")
	}

	want := assetName()
	var match *asset
	for i := range rel.Assets {
		if rel.Assets[i].Name == want {
			match = &rel.Assets[i]
			break
		}
	}
	if match == nil {
		return apperror.NewWithCode("extractor.Provision", apperror.ErrExtractorMissing,
			apperror.CodeExtractorMissing, fmt.Sprintf("no release asset named %q", want))
	}

	if err := downloadAsset(ctx, match.BrowserDownloadURL, binPath, match.Size, onProgress); err != nil {
		return apperror.NewWithCode("extractor.Provision", err, apperror.CodeExtractorMissing,
			"failed to download extractor binary")
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(binPath, 0o755); err != nil {
			return apperror.NewWithCode("extractor.Provision", err, apperror.CodeExtractorMissing,
				"failed to mark extractor binary executable")
		}
	}

	return nil
}

var releaseClient = &http.Client{Timeout: constants.GitHubAPITimeout}

func fetchLatestRelease(ctx context.Context) (*release, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", githubOwner, githubRepo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := releaseClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github releases API returned %d", resp.StatusCode)
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

var downloadClient = &http.Client{Timeout: 10 * time.Minute}

func downloadAsset(ctx context.Context, url, destPath string, size int64, onProgress func(downloaded, total int64)) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := downloadClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("asset download returned %d", resp.StatusCode)
	}

	tmpPath := destPath + ".download"
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	pr := &progressReader{r: resp.Body, total: size, onProgress: onProgress}
	if _, err := io.Copy(out, pr); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, destPath)
}

// progressReader wraps an io.Reader, reporting cumulative bytes read.
type progressReader struct {
	r          io.Reader
	total      int64
	read       int64
	onProgress func(downloaded, total int64)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		if p.onProgress != nil {
			p.onProgress(p.read, p.total)
		}
	}
	return n, err
}
