package lifecycle

import (
	"context"
	"net/url"

	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/objectstore"
)

// backend captures how one cloud provider's resources are addressed. GCP
// resources are keyed by project, Azure resources by workspace ID.
type backend interface {
	workspaceOwner(ws core.Workspace) string
	resourceOwner(res core.ComputeResource) string
	diskOwner(d core.PersistentDisk) string

	runtimes(owner string) string
	createRuntime(owner, name string) string
	apps(owner string) string
	disks(owner string) string

	// classify turns a resource's error list into the error info shown to the user.
	classify(ctx context.Context, res core.ComputeResource, errs []core.ResourceError, preview objectstore.Previewer) (core.ErrorInfo, error)
}

// backendFor is the only place that branches on the cloud provider.
func backendFor(p core.CloudProvider) (backend, error) {
	switch p {
	case core.CloudProviderGCP:
		return gcpBackend{}, nil
	case core.CloudProviderAzure:
		return azureBackend{}, nil
	}
	return nil, core.NewAppError(core.ErrUnsupportedProvider, "unsupported cloud provider "+string(p))
}

type gcpBackend struct{}

func (gcpBackend) workspaceOwner(ws core.Workspace) string { return ws.GoogleProject }

func (gcpBackend) resourceOwner(res core.ComputeResource) string {
	switch r := res.(type) {
	case core.Runtime:
		if r.GoogleProject != "" {
			return r.GoogleProject
		}
		return r.CloudContext.CloudResource
	case core.App:
		return r.GoogleProject()
	}
	return ""
}

func (gcpBackend) diskOwner(d core.PersistentDisk) string { return d.CloudContext.CloudResource }

func (gcpBackend) runtimes(owner string) string {
	return "/api/google/v1/runtimes/" + url.PathEscape(owner)
}

func (b gcpBackend) createRuntime(owner, name string) string {
	return b.runtimes(owner) + "/" + url.PathEscape(name)
}

func (gcpBackend) apps(owner string) string {
	return "/api/google/v1/apps/" + url.PathEscape(owner)
}

func (gcpBackend) disks(owner string) string {
	return "/api/google/v1/disks/" + url.PathEscape(owner)
}

func (b gcpBackend) classify(ctx context.Context, res core.ComputeResource, errs []core.ResourceError, preview objectstore.Previewer) (core.ErrorInfo, error) {
	rt, ok := res.(core.Runtime)
	if !ok || !hasUserScriptFailure(errs) {
		return core.ErrorList{Errors: errs}, nil
	}
	return fetchUserScriptError(ctx, preview, b.resourceOwner(rt), rt.StagingBucket())
}

type azureBackend struct{}

func (azureBackend) workspaceOwner(ws core.Workspace) string { return ws.WorkspaceID }

func (azureBackend) resourceOwner(res core.ComputeResource) string {
	switch r := res.(type) {
	case core.Runtime:
		return r.WorkspaceID
	case core.App:
		return r.WorkspaceID
	}
	return ""
}

func (azureBackend) diskOwner(d core.PersistentDisk) string { return d.WorkspaceID }

func (azureBackend) runtimes(owner string) string {
	return "/api/v2/runtimes/" + url.PathEscape(owner)
}

func (b azureBackend) createRuntime(owner, name string) string {
	return b.runtimes(owner) + "/azure/" + url.PathEscape(name)
}

func (azureBackend) apps(owner string) string {
	return "/api/apps/v2/" + url.PathEscape(owner)
}

func (azureBackend) disks(owner string) string {
	return "/api/v2/disks/" + url.PathEscape(owner)
}

// Azure startup scripts report through the error list itself.
func (azureBackend) classify(_ context.Context, _ core.ComputeResource, errs []core.ResourceError, _ objectstore.Previewer) (core.ErrorInfo, error) {
	return core.ErrorList{Errors: errs}, nil
}
