package core

import (
	"strings"
	"time"
)

// Label keys the control plane stamps on runtimes, apps and disks.
const (
	LabelApplication        = "saturnApplication"
	LabelWorkspaceName      = "saturnWorkspaceName"
	LabelWorkspaceNamespace = "saturnWorkspaceNamespace"
	LabelTool               = "tool"
)

type ResourceKind string

const (
	KindRuntime ResourceKind = "runtime"
	KindApp     ResourceKind = "app"
)

// ResourceKey identifies a compute resource across polls.
type ResourceKey struct {
	Kind     ResourceKind  `json:"kind"`
	Provider CloudProvider `json:"cloudProvider"`
	Name     string        `json:"name"`
}

func (k ResourceKey) String() string {
	return string(k.Kind) + "/" + string(k.Provider) + "/" + k.Name
}

// ComputeResource is implemented by Runtime and App only.
type ComputeResource interface {
	Key() ResourceKey
	ResourceName() string
	Provider() CloudProvider
	CreatedAt() time.Time
	CurrentStatus() Status
	// AttachedDisk is a back-reference by name; the resource does not own the disk.
	AttachedDisk() string
	Failures() []ResourceError

	computeResource()
}

type AuditInfo struct {
	Creator      string     `json:"creator"`
	CreatedDate  time.Time  `json:"createdDate"`
	DateAccessed time.Time  `json:"dateAccessed"`
	DestroyedAt  *time.Time `json:"destroyedDate,omitempty"`
}

// ResourceError is one entry of the control plane's structured error list.
type ResourceError struct {
	ErrorMessage string    `json:"errorMessage"`
	ErrorCode    int       `json:"errorCode,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type ToolType string

const (
	ToolJupyter    ToolType = "Jupyter"
	ToolRStudio    ToolType = "RStudio"
	ToolJupyterLab ToolType = "JupyterLab"
)

type CloudService string

const (
	CloudServiceGCE      CloudService = "GCE"
	CloudServiceDataproc CloudService = "DATAPROC"
	CloudServiceAzureVM  CloudService = "AZURE_VM"
)

type GPUConfig struct {
	GPUType   string `json:"gpuType"`
	NumOfGPUs int    `json:"numOfGpus"`
}

type RuntimeConfig struct {
	CloudService               CloudService `json:"cloudService"`
	MachineType                string       `json:"machineType,omitempty"`
	DiskSize                   int          `json:"diskSize,omitempty"`
	DiskName                   string       `json:"diskName,omitempty"`
	PersistentDiskID           int64        `json:"persistentDiskId,omitempty"`
	BootDiskSize               int          `json:"bootDiskSize,omitempty"`
	MasterMachineType          string       `json:"masterMachineType,omitempty"`
	MasterDiskSize             int          `json:"masterDiskSize,omitempty"`
	NumberOfWorkers            int          `json:"numberOfWorkers,omitempty"`
	NumberOfPreemptibleWorkers int          `json:"numberOfPreemptibleWorkers,omitempty"`
	WorkerMachineType          string       `json:"workerMachineType,omitempty"`
	WorkerDiskSize             int          `json:"workerDiskSize,omitempty"`
	Zone                       string       `json:"zone,omitempty"`
	Region                     string       `json:"region,omitempty"`
	GPUConfig                  *GPUConfig   `json:"gpuConfig,omitempty"`
}

type AsyncRuntimeFields struct {
	GoogleID      string `json:"googleId,omitempty"`
	OperationName string `json:"operationName,omitempty"`
	StagingBucket string `json:"stagingBucket,omitempty"`
	HostIP        string `json:"hostIp,omitempty"`
}

type Runtime struct {
	ID                 int64               `json:"id"`
	RuntimeName        string              `json:"runtimeName"`
	GoogleProject      string              `json:"googleProject,omitempty"`
	WorkspaceID        string              `json:"workspaceId,omitempty"`
	CloudContext       CloudContext        `json:"cloudContext"`
	Status             Status              `json:"status"`
	AuditInfo          AuditInfo           `json:"auditInfo"`
	RuntimeConfig      RuntimeConfig       `json:"runtimeConfig"`
	Labels             map[string]string   `json:"labels,omitempty"`
	Errors             []ResourceError     `json:"errors,omitempty"`
	AsyncRuntimeFields *AsyncRuntimeFields `json:"asyncRuntimeFields,omitempty"`
}

func (r Runtime) Key() ResourceKey {
	return ResourceKey{Kind: KindRuntime, Provider: r.Provider(), Name: r.RuntimeName}
}
func (r Runtime) ResourceName() string      { return r.RuntimeName }
func (r Runtime) Provider() CloudProvider   { return r.CloudContext.CloudProvider }
func (r Runtime) CreatedAt() time.Time      { return r.AuditInfo.CreatedDate }
func (r Runtime) CurrentStatus() Status     { return r.Status }
func (r Runtime) AttachedDisk() string      { return r.RuntimeConfig.DiskName }
func (r Runtime) AttachedDiskID() int64     { return r.RuntimeConfig.PersistentDiskID }
func (r Runtime) Failures() []ResourceError { return r.Errors }
func (Runtime) computeResource()            {}

// ToolType is read from the tool label; unlabeled runtimes are Jupyter.
func (r Runtime) ToolType() ToolType {
	switch strings.ToLower(r.Labels[LabelTool]) {
	case "rstudio":
		return ToolRStudio
	case "jupyterlab":
		return ToolJupyterLab
	default:
		return ToolJupyter
	}
}

// StagingBucket is where the control plane writes startup-script output.
func (r Runtime) StagingBucket() string {
	if r.AsyncRuntimeFields == nil {
		return ""
	}
	return r.AsyncRuntimeFields.StagingBucket
}

type AppType string

const (
	AppGalaxy         AppType = "GALAXY"
	AppCromwell       AppType = "CROMWELL"
	AppHailBatch      AppType = "HAIL_BATCH"
	AppWorkflows      AppType = "WORKFLOWS_APP"
	AppCromwellRunner AppType = "CROMWELL_RUNNER_APP"
	AppWDS            AppType = "WDS"
	AppAllowed        AppType = "ALLOWED"
	AppCustom         AppType = "CUSTOM"
)

var knownAppTypes = []AppType{AppGalaxy, AppCromwell, AppHailBatch, AppWorkflows, AppCromwellRunner, AppWDS, AppAllowed, AppCustom}

// ParseAppType matches case-insensitively; historical data mixes "galaxy" and "GALAXY".
func ParseAppType(s string) (AppType, bool) {
	up := AppType(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range knownAppTypes {
		if t == up {
			return t, true
		}
	}
	return "", false
}

type KubernetesRuntimeConfig struct {
	NumNodes           int    `json:"numNodes"`
	MachineType        string `json:"machineType"`
	AutoscalingEnabled bool   `json:"autoscalingEnabled"`
}

type App struct {
	AppName                 string                  `json:"appName"`
	AppType                 AppType                 `json:"appType"`
	Status                  Status                  `json:"status"`
	AuditInfo               AuditInfo               `json:"auditInfo"`
	DiskName                string                  `json:"diskName,omitempty"`
	KubernetesRuntimeConfig KubernetesRuntimeConfig `json:"kubernetesRuntimeConfig"`
	Region                  string                  `json:"region,omitempty"`
	CloudContext            CloudContext            `json:"cloudContext"`
	WorkspaceID             string                  `json:"workspaceId,omitempty"`
	Labels                  map[string]string       `json:"labels,omitempty"`
	Errors                  []ResourceError         `json:"errors,omitempty"`
}

func (a App) Key() ResourceKey {
	return ResourceKey{Kind: KindApp, Provider: a.Provider(), Name: a.AppName}
}
func (a App) ResourceName() string      { return a.AppName }
func (a App) Provider() CloudProvider   { return a.CloudContext.CloudProvider }
func (a App) CreatedAt() time.Time      { return a.AuditInfo.CreatedDate }
func (a App) CurrentStatus() Status     { return a.Status }
func (a App) AttachedDisk() string      { return a.DiskName }
func (a App) Failures() []ResourceError { return a.Errors }
func (App) computeResource()            {}

// GoogleProject is the project an app lives in; apps carry it only in their cloud context.
func (a App) GoogleProject() string {
	if a.CloudContext.CloudProvider == CloudProviderGCP {
		return a.CloudContext.CloudResource
	}
	return ""
}
