//go:build !windows

package autostart

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnableDisableIsEnabled(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if enabled, err := IsEnabled(); err != nil || enabled {
		t.Fatalf("IsEnabled before Enable = (%v, %v), want (false, nil)", enabled, err)
	}

	if err := Enable(); err != nil {
		t.Fatalf("Enable returned %v", err)
	}

	if enabled, err := IsEnabled(); err != nil || !enabled {
		t.Fatalf("IsEnabled after Enable = (%v, %v), want (true, nil)", enabled, err)
	}

	path, err := desktopFilePath()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected desktop file at %s: %v", path, err)
	}
	if filepath.Base(filepath.Dir(path)) != "autostart" {
		t.Errorf("desktop file not under an autostart/ directory: %s", path)
	}

	if err := Disable(); err != nil {
		t.Fatalf("Disable returned %v", err)
	}
	if enabled, err := IsEnabled(); err != nil || enabled {
		t.Fatalf("IsEnabled after Disable = (%v, %v), want (false, nil)", enabled, err)
	}
}

func TestDisable_MissingFileIsNotAnError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := Disable(); err != nil {
		t.Errorf("Disable with no existing entry returned %v, want nil", err)
	}
}
