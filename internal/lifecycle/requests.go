package lifecycle

import (
	"strings"

	"github.com/lzjever/cloudenv/internal/core"
)

type DiskConfig struct {
	Name     string            `json:"name"`
	Size     int               `json:"size,omitempty"`
	DiskType core.DiskType     `json:"diskType,omitempty"`
	Labels   map[string]string `json:"labels,omitempty"`
}

type CreateRuntimeRequest struct {
	Name               string             `json:"name"`
	RuntimeConfig      core.RuntimeConfig `json:"runtimeConfig"`
	Disk               *DiskConfig        `json:"disk,omitempty"`
	ToolDockerImage    string             `json:"toolDockerImage,omitempty"`
	AutopauseThreshold int                `json:"autopauseThreshold,omitempty"`
	Labels             map[string]string  `json:"labels,omitempty"`
}

func (r CreateRuntimeRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return core.NewAppError(core.ErrBadRequest, "runtime name is required")
	}
	if r.Disk != nil && r.Disk.Name == "" {
		return core.NewAppError(core.ErrBadRequest, "disk name is required")
	}
	return nil
}

// body is the control plane's create-runtime payload; the workspace labels
// are what disk affinity and list filters key on later.
func (r CreateRuntimeRequest) body(ws core.Workspace) map[string]interface{} {
	body := map[string]interface{}{
		"runtimeConfig": r.RuntimeConfig,
		"labels":        workspaceLabels(ws, r.Labels),
	}
	if r.Disk != nil {
		body["disk"] = r.Disk
	}
	if r.ToolDockerImage != "" {
		body["toolDockerImage"] = r.ToolDockerImage
	}
	if r.AutopauseThreshold > 0 {
		body["autopause"] = true
		body["autopauseThreshold"] = r.AutopauseThreshold
	}
	return body
}

type CreateAppRequest struct {
	Name                       string                        `json:"name"`
	AppType                    core.AppType                  `json:"appType"`
	KubernetesRuntimeConfig    *core.KubernetesRuntimeConfig `json:"kubernetesRuntimeConfig,omitempty"`
	Disk                       *DiskConfig                   `json:"disk,omitempty"`
	CustomEnvironmentVariables map[string]string             `json:"customEnvironmentVariables,omitempty"`
	Labels                     map[string]string             `json:"labels,omitempty"`
}

func (r CreateAppRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return core.NewAppError(core.ErrBadRequest, "app name is required")
	}
	if _, ok := core.ParseAppType(string(r.AppType)); !ok {
		return core.NewAppError(core.ErrBadRequest, "unknown app type "+string(r.AppType))
	}
	if r.Disk != nil && r.Disk.Name == "" {
		return core.NewAppError(core.ErrBadRequest, "disk name is required")
	}
	return nil
}

func (r CreateAppRequest) body(ws core.Workspace) map[string]interface{} {
	appType, _ := core.ParseAppType(string(r.AppType))
	labels := workspaceLabels(ws, r.Labels)
	body := map[string]interface{}{
		"appType": appType,
		"labels":  labels,
	}
	if r.KubernetesRuntimeConfig != nil {
		body["kubernetesRuntimeConfig"] = r.KubernetesRuntimeConfig
	}
	if r.Disk != nil {
		disk := *r.Disk
		disk.Labels = mergeLabels(disk.Labels, map[string]string{
			core.LabelApplication:   strings.ToLower(string(appType)),
			core.LabelWorkspaceName: ws.Name,
		})
		body["diskConfig"] = disk
	}
	if len(r.CustomEnvironmentVariables) > 0 {
		body["customEnvironmentVariables"] = r.CustomEnvironmentVariables
	}
	if ws.CloudProvider == core.CloudProviderAzure {
		body["workspaceId"] = ws.WorkspaceID
	}
	return body
}

func workspaceLabels(ws core.Workspace, extra map[string]string) map[string]string {
	return mergeLabels(extra, map[string]string{
		core.LabelWorkspaceName:      ws.Name,
		core.LabelWorkspaceNamespace: ws.Namespace,
	})
}

// mergeLabels copies base and overlays fixed; fixed wins.
func mergeLabels(base, fixed map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(fixed))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range fixed {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
