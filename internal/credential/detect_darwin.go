//go:build darwin

package credential

import (
	"os"
	"path/filepath"
)

var darwinPriority = []string{"chrome", "edge", "firefox", "vivaldi", "opera", "brave", "whale", "safari"}

var darwinBundles = map[string]string{
	"chrome":  "Google Chrome.app",
	"edge":    "Microsoft Edge.app",
	"firefox": "Firefox.app",
	"vivaldi": "Vivaldi.app",
	"opera":   "Opera.app",
	"brave":   "Brave Browser.app",
	"whale":   "Naver Whale.app",
	"safari":  "Safari.app",
}

func detectBrowsers() []string {
	homeDir, _ := os.UserHomeDir()
	roots := []string{"/Applications", filepath.Join(homeDir, "Applications")}

	var found []string
	for _, tag := range darwinPriority {
		bundle := darwinBundles[tag]
		for _, root := range roots {
			if info, err := os.Stat(filepath.Join(root, bundle)); err == nil && info.IsDir() {
				found = append(found, tag)
				break
			}
		}
	}
	return found
}
