package core

import (
	"fmt"
	"strings"
)

type CloudProvider string

const (
	CloudProviderGCP   CloudProvider = "GCP"
	CloudProviderAzure CloudProvider = "AZURE"
)

// ParseCloudProvider accepts any casing of a known provider name.
func ParseCloudProvider(s string) (CloudProvider, error) {
	switch CloudProvider(strings.ToUpper(strings.TrimSpace(s))) {
	case CloudProviderGCP:
		return CloudProviderGCP, nil
	case CloudProviderAzure:
		return CloudProviderAzure, nil
	}
	return "", NewAppError(ErrUnsupportedProvider, fmt.Sprintf("unsupported cloud provider %q", s))
}

// CloudContext locates a resource in its provider: a Google project for GCP,
// a managed resource group for Azure.
type CloudContext struct {
	CloudProvider CloudProvider `json:"cloudProvider"`
	CloudResource string        `json:"cloudResource"`
}

// Workspace is the unit a group of runtimes, apps and disks is watched under.
type Workspace struct {
	Namespace     string        `json:"namespace"`
	Name          string        `json:"name"`
	CloudProvider CloudProvider `json:"cloudProvider"`
	GoogleProject string        `json:"googleProject,omitempty"`
	WorkspaceID   string        `json:"workspaceId,omitempty"`
}

func (w Workspace) Key() string {
	return w.Namespace + "/" + w.Name
}

// Validate checks that the workspace carries the identifier its provider keys calls by.
func (w Workspace) Validate() error {
	if w.Namespace == "" || w.Name == "" {
		return NewAppError(ErrBadRequest, "workspace namespace and name are required")
	}
	switch w.CloudProvider {
	case CloudProviderGCP:
		if w.GoogleProject == "" {
			return NewAppError(ErrBadRequest, "googleProject is required for GCP workspaces")
		}
	case CloudProviderAzure:
		if w.WorkspaceID == "" {
			return NewAppError(ErrBadRequest, "workspaceId is required for Azure workspaces")
		}
	default:
		return NewAppError(ErrUnsupportedProvider, fmt.Sprintf("unsupported cloud provider %q", w.CloudProvider))
	}
	return nil
}
