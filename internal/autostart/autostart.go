// Package autostart registers (or removes) the daemon as a login item,
// split by platform the same way the extractor's proc_unix.go/proc_windows.go
// split console-hiding behaviour.
package autostart

// Enable registers the current executable to launch at login.
func Enable() error { return enable() }

// Disable removes the login-item registration, if present.
func Disable() error { return disable() }

// IsEnabled reports whether the login-item registration currently exists.
func IsEnabled() (bool, error) { return isEnabled() }
