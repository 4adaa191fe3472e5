//go:build windows

package credential

import (
	"os"
	"path/filepath"
)

// windowsPriority ranks Chromium-family browsers after non-Chromium
// alternatives: Chromium's cookie store suffers from OS-level DPAPI
// encryption that frequently fails to decrypt from a non-browser process.
var windowsPriority = []string{"firefox", "whale", "chrome", "edge", "vivaldi", "opera", "brave"}

// windowsCandidates maps each tag to the relative install path(s) checked
// under %ProgramFiles%, %ProgramFiles(x86)%, and %LOCALAPPDATA%.
var windowsCandidates = map[string][]string{
	"chrome":  {filepath.Join("Google", "Chrome", "Application", "chrome.exe")},
	"edge":    {filepath.Join("Microsoft", "Edge", "Application", "msedge.exe")},
	"firefox": {filepath.Join("Mozilla Firefox", "firefox.exe")},
	"brave":   {filepath.Join("BraveSoftware", "Brave-Browser", "Application", "brave.exe")},
	"vivaldi": {filepath.Join("Vivaldi", "Application", "vivaldi.exe")},
	"opera":   {filepath.Join("Opera", "launcher.exe")},
	"whale":   {filepath.Join("Naver", "Naver Whale", "Application", "whale.exe")},
}

func detectBrowsers() []string {
	roots := []string{
		os.Getenv("ProgramFiles"),
		os.Getenv("ProgramFiles(x86)"),
		os.Getenv("LOCALAPPDATA"),
	}

	var found []string
	for _, tag := range windowsPriority {
		for _, rel := range windowsCandidates[tag] {
			if browserInstalledUnder(roots, rel) {
				found = append(found, tag)
				break
			}
		}
	}
	return found
}

func browserInstalledUnder(roots []string, rel string) bool {
	for _, root := range roots {
		if root == "" {
			continue
		}
		if info, err := os.Stat(filepath.Join(root, rel)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}
