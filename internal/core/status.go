package core

import (
	"encoding/json"
	"strings"
)

// Status is the provider-independent lifecycle state of a runtime or app.
type Status string

const (
	StatusCreating    Status = "Creating"
	StatusStarting    Status = "Starting"
	StatusRunning     Status = "Running"
	StatusUpdating    Status = "Updating"
	StatusStopping    Status = "Stopping"
	StatusStopped     Status = "Stopped"
	StatusDeleting    Status = "Deleting"
	StatusPreDeleting Status = "PreDeleting"
	StatusDeleted     Status = "Deleted"
	StatusError       Status = "Error"
	StatusUnknown     Status = "Unknown"
)

// Runtimes report TitleCase states and apps report UPPERCASE ones; both are
// matched after lower-casing.
var statusAliases = map[string]Status{
	"creating":           StatusCreating,
	"precreating":        StatusCreating,
	"provisioning":       StatusCreating,
	"starting":           StatusStarting,
	"prestarting":        StatusStarting,
	"running":            StatusRunning,
	"updating":           StatusUpdating,
	"leoreconfiguring":   StatusUpdating,
	"stopping":           StatusStopping,
	"prestopping":        StatusStopping,
	"stopped":            StatusStopped,
	"deleting":           StatusDeleting,
	"predeleting":        StatusPreDeleting,
	"deleted":            StatusDeleted,
	"error":              StatusError,
	"status_unspecified": StatusUnknown,
	"unknown":            StatusUnknown,
}

// NormalizeStatus maps a raw control-plane state onto the shared Status set.
func NormalizeStatus(raw string) Status {
	if s, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return StatusUnknown
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = NormalizeStatus(raw)
	return nil
}

// IsDeleting reports Deleting or PreDeleting.
func (s Status) IsDeleting() bool {
	return s == StatusDeleting || s == StatusPreDeleting
}

// IsTransitional reports states that are expected to change without user action.
func (s Status) IsTransitional() bool {
	switch s {
	case StatusCreating, StatusStarting, StatusUpdating, StatusStopping, StatusDeleting, StatusPreDeleting:
		return true
	}
	return false
}

// DiskStatus is the lifecycle state of a persistent disk.
type DiskStatus string

const (
	DiskCreating  DiskStatus = "Creating"
	DiskRestoring DiskStatus = "Restoring"
	DiskReady     DiskStatus = "Ready"
	DiskFailed    DiskStatus = "Failed"
	DiskDeleting  DiskStatus = "Deleting"
	DiskDeleted   DiskStatus = "Deleted"
	DiskError     DiskStatus = "Error"
	DiskUnknown   DiskStatus = "Unknown"
)

var diskStatusAliases = map[string]DiskStatus{
	"creating":  DiskCreating,
	"restoring": DiskRestoring,
	"ready":     DiskReady,
	"failed":    DiskFailed,
	"deleting":  DiskDeleting,
	"deleted":   DiskDeleted,
	"error":     DiskError,
}

func NormalizeDiskStatus(raw string) DiskStatus {
	if s, ok := diskStatusAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return DiskUnknown
}

func (s *DiskStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = NormalizeDiskStatus(raw)
	return nil
}
