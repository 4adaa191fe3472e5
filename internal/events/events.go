// Package events centralizes the system-tray/app-shell event name
// constants, avoiding magic strings spread across the application shell.
package events

// Lifecycle events.
const (
	AppReady = "app:ready"
)

// Extractor binary provisioning events.
const (
	ProvisionProgress = "provision:progress"
	ProvisionComplete = "provision:complete"
)

// Self-update events.
const (
	UpdateProgress = "update:progress"
	UpdateComplete = "update:complete"
)
