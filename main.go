package main

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/wailsapp/wails/v3/pkg/application"
)

//go:embed build/appicon.png
var appIcon []byte

//go:embed VERSION
var versionFile string

func main() {
	// Set version from embedded VERSION file if not overridden by ldflags.
	if Version == "" {
		Version = strings.TrimSpace(versionFile)
	}

	appInstance := NewApp(appIcon)

	app := application.New(application.Options{
		Name: "ivLyrics-helper",
		Icon: appIcon,
		Services: []application.Service{
			application.NewService(appInstance),
		},
	})

	// This is a tray-only daemon: the extension and the lyrics userscript
	// are the clients, not an embedded webview. The tray gives the user a
	// visible presence and a quit/restart path.
	tray := app.NewSystemTray()
	tray.SetIcon(appIcon)
	tray.SetTooltip("ivLyrics-helper")

	menu := app.NewMenu()
	menu.Add(fmt.Sprintf("ivLyrics-helper %s", Version)).SetEnabled(false)
	menu.AddSeparator()
	menu.Add("Open settings").OnClick(func(ctx *application.Context) {
		app.Event.Emit("tray:open-settings", nil)
	})
	menu.Add("Check for updates").OnClick(func(ctx *application.Context) {
		info, err := appInstance.CheckForUpdate()
		if err != nil {
			app.Event.Emit("tray:update-check-failed", err.Error())
			return
		}
		app.Event.Emit("tray:update-check-result", info)
	})
	menu.AddSeparator()
	menu.Add("Quit").OnClick(func(ctx *application.Context) {
		app.Quit()
	})
	tray.SetMenu(menu)

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
