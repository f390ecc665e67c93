package core

import (
	"strings"
	"time"
)

type DiskType string

const (
	DiskTypeStandard DiskType = "pd-standard"
	DiskTypeSSD      DiskType = "pd-ssd"
	DiskTypeBalanced DiskType = "pd-balanced"
)

type PersistentDisk struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	CloudContext CloudContext      `json:"cloudContext"`
	WorkspaceID  string            `json:"workspaceId,omitempty"`
	Zone         string            `json:"zone,omitempty"`
	Size         int               `json:"size"`
	DiskType     DiskType          `json:"diskType,omitempty"`
	Status       DiskStatus        `json:"status"`
	AuditInfo    AuditInfo         `json:"auditInfo"`
	Labels       map[string]string `json:"labels,omitempty"`
}

func (d PersistentDisk) CreatedAt() time.Time { return d.AuditInfo.CreatedDate }

// AppType reads the application label. ok is false when the label is missing
// or names no known app, which marks the disk as a runtime disk.
func (d PersistentDisk) AppType() (AppType, bool) {
	raw, present := d.Labels[LabelApplication]
	if !present {
		return "", false
	}
	return ParseAppType(raw)
}

// WorkspaceName reads the workspace-name label. Blank values count as missing.
func (d PersistentDisk) WorkspaceName() (string, bool) {
	name := strings.TrimSpace(d.Labels[LabelWorkspaceName])
	return name, name != ""
}

// Billable reports whether the disk still accrues storage charges.
func (d PersistentDisk) Billable() bool {
	return d.Status != DiskDeleting && d.Status != DiskFailed && d.Status != DiskDeleted
}
