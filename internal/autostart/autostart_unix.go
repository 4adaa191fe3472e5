//go:build !windows

package autostart

import (
	"fmt"
	"os"
	"path/filepath"

	"kingo/internal/constants"
)

func desktopFilePath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "autostart", constants.AppID+".desktop"), nil
}

func enable() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	path, err := desktopFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	contents := fmt.Sprintf(
		"[Desktop Entry]\nType=Application\nName=%s\nExec=%q\nX-GNOME-Autostart-enabled=true\nNoDisplay=true\n",
		constants.AppName, exe,
	)
	return os.WriteFile(path, []byte(contents), 0644)
}

func disable() error {
	path, err := desktopFilePath()
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func isEnabled() (bool, error) {
	path, err := desktopFilePath()
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
