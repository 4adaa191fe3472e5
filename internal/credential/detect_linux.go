//go:build linux

package credential

import "os/exec"

var linuxPriority = []string{"chrome", "edge", "firefox", "vivaldi", "opera", "brave", "chromium"}

var linuxExecutables = map[string][]string{
	"chrome":   {"google-chrome", "google-chrome-stable"},
	"edge":     {"microsoft-edge", "microsoft-edge-stable"},
	"firefox":  {"firefox"},
	"vivaldi":  {"vivaldi", "vivaldi-stable"},
	"opera":    {"opera"},
	"brave":    {"brave-browser", "brave"},
	"chromium": {"chromium", "chromium-browser"},
}

func detectBrowsers() []string {
	var found []string
	for _, tag := range linuxPriority {
		for _, exe := range linuxExecutables[tag] {
			if _, err := exec.LookPath(exe); err == nil {
				found = append(found, tag)
				break
			}
		}
	}
	return found
}
