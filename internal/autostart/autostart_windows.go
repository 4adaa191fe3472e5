//go:build windows

package autostart

import (
	"os"

	"golang.org/x/sys/windows/registry"

	"kingo/internal/constants"
)

const runKeyPath = `Software\Microsoft\Windows\CurrentVersion\Run`

func enable() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	key, _, err := registry.CreateKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer key.Close()

	return key.SetStringValue(constants.AppName, exe)
}

func disable() error {
	key, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.SET_VALUE)
	if err != nil {
		if err == registry.ErrNotExist {
			return nil
		}
		return err
	}
	defer key.Close()

	err = key.DeleteValue(constants.AppName)
	if err == registry.ErrNotExist {
		return nil
	}
	return err
}

func isEnabled() (bool, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, runKeyPath, registry.QUERY_VALUE)
	if err != nil {
		if err == registry.ErrNotExist {
			return false, nil
		}
		return false, err
	}
	defer key.Close()

	_, _, err = key.GetStringValue(constants.AppName)
	if err == registry.ErrNotExist {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
