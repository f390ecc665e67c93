// Package lifecycle is the provider-agnostic face of the control plane:
// list, inspect, create, start, stop and delete runtimes, apps and disks.
// GCP and Azure differ only in the backend chosen by backendFor.
package lifecycle

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/objectstore"
)

// Provider is consumed by the reconciler and the HTTP entry points.
type Provider interface {
	ListRuntimes(ctx context.Context, f ListFilter) ([]core.Runtime, error)
	ListApps(ctx context.Context, f ListFilter) ([]core.App, error)
	ListDisks(ctx context.Context, f ListFilter) ([]core.PersistentDisk, error)
	ErrorInfo(ctx context.Context, res core.ComputeResource) (core.ErrorInfo, error)
	Start(ctx context.Context, res core.ComputeResource) error
	Stop(ctx context.Context, res core.ComputeResource) error
	Delete(ctx context.Context, res core.ComputeResource, opts DeleteOptions) error
	CreateRuntime(ctx context.Context, ws core.Workspace, req CreateRuntimeRequest) error
	CreateApp(ctx context.Context, ws core.Workspace, req CreateAppRequest) error
	DeleteDisk(ctx context.Context, disk core.PersistentDisk) error
}

// HTTPClient is the subset of controlplane.Client the provider needs.
type HTTPClient interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) error
	Post(ctx context.Context, path string, body interface{}, out interface{}) error
	Delete(ctx context.Context, path string, query url.Values) error
}

type ListFilter struct {
	Workspace core.Workspace
	// CreatorOnly restricts results to resources the caller created.
	CreatorOnly bool
}

func (f ListFilter) query() url.Values {
	q := url.Values{}
	if f.CreatorOnly {
		q.Set("role", "creator")
	}
	if f.Workspace.Name != "" {
		q.Set(core.LabelWorkspaceName, f.Workspace.Name)
	}
	if f.Workspace.Namespace != "" {
		q.Set(core.LabelWorkspaceNamespace, f.Workspace.Namespace)
	}
	return q
}

type DeleteOptions struct {
	DeleteDisk bool
}

func (o DeleteOptions) query() url.Values {
	return url.Values{"deleteDisk": {strconv.FormatBool(o.DeleteDisk)}}
}

// Leo is the Provider backed by the control plane's REST API.
type Leo struct {
	client  HTTPClient
	preview objectstore.Previewer
	log     *zap.Logger
}

func NewLeo(client HTTPClient, preview objectstore.Previewer, log *zap.Logger) *Leo {
	if log == nil {
		log = zap.NewNop()
	}
	return &Leo{client: client, preview: preview, log: log}
}

var _ Provider = (*Leo)(nil)

func (l *Leo) ListRuntimes(ctx context.Context, f ListFilter) ([]core.Runtime, error) {
	b, err := backendFor(f.Workspace.CloudProvider)
	if err != nil {
		return nil, err
	}
	var out []core.Runtime
	if err := l.client.Get(ctx, b.runtimes(b.workspaceOwner(f.Workspace)), f.query(), &out); err != nil {
		return nil, fmt.Errorf("list runtimes: %w", err)
	}
	return out, nil
}

func (l *Leo) ListApps(ctx context.Context, f ListFilter) ([]core.App, error) {
	b, err := backendFor(f.Workspace.CloudProvider)
	if err != nil {
		return nil, err
	}
	var out []core.App
	if err := l.client.Get(ctx, b.apps(b.workspaceOwner(f.Workspace)), f.query(), &out); err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	return out, nil
}

func (l *Leo) ListDisks(ctx context.Context, f ListFilter) ([]core.PersistentDisk, error) {
	b, err := backendFor(f.Workspace.CloudProvider)
	if err != nil {
		return nil, err
	}
	var out []core.PersistentDisk
	if err := l.client.Get(ctx, b.disks(b.workspaceOwner(f.Workspace)), f.query(), &out); err != nil {
		return nil, fmt.Errorf("list disks: %w", err)
	}
	return out, nil
}

func (l *Leo) Start(ctx context.Context, res core.ComputeResource) error {
	return l.action(ctx, res, "start")
}

func (l *Leo) Stop(ctx context.Context, res core.ComputeResource) error {
	return l.action(ctx, res, "stop")
}

func (l *Leo) action(ctx context.Context, res core.ComputeResource, verb string) error {
	b, err := backendFor(res.Provider())
	if err != nil {
		return err
	}
	path, err := resourcePath(b, res)
	if err != nil {
		return err
	}
	if err := l.client.Post(ctx, path+"/"+verb, nil, nil); err != nil {
		return fmt.Errorf("%s %s: %w", verb, res.Key(), err)
	}
	l.log.Info("resource "+verb+" requested", zap.String("resource", res.Key().String()))
	return nil
}

// Delete treats an already missing resource as deleted.
func (l *Leo) Delete(ctx context.Context, res core.ComputeResource, opts DeleteOptions) error {
	b, err := backendFor(res.Provider())
	if err != nil {
		return err
	}
	path, err := resourcePath(b, res)
	if err != nil {
		return err
	}
	if err := l.client.Delete(ctx, path, opts.query()); err != nil {
		if core.IsNotFound(err) {
			l.log.Info("resource already gone", zap.String("resource", res.Key().String()))
			return nil
		}
		return fmt.Errorf("delete %s: %w", res.Key(), err)
	}
	l.log.Info("resource delete requested", zap.String("resource", res.Key().String()), zap.Bool("delete_disk", opts.DeleteDisk))
	return nil
}

func (l *Leo) DeleteDisk(ctx context.Context, disk core.PersistentDisk) error {
	b, err := backendFor(disk.CloudContext.CloudProvider)
	if err != nil {
		return err
	}
	owner := b.diskOwner(disk)
	if owner == "" {
		return core.NewAppError(core.ErrBadRequest, "disk "+disk.Name+" has no owner")
	}
	if err := l.client.Delete(ctx, b.disks(owner)+"/"+url.PathEscape(disk.Name), nil); err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete disk %s: %w", disk.Name, err)
	}
	l.log.Info("disk delete requested", zap.String("disk", disk.Name))
	return nil
}

func (l *Leo) CreateRuntime(ctx context.Context, ws core.Workspace, req CreateRuntimeRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	b, err := backendFor(ws.CloudProvider)
	if err != nil {
		return err
	}
	body := req.body(ws)
	if err := l.client.Post(ctx, b.createRuntime(b.workspaceOwner(ws), req.Name), body, nil); err != nil {
		return fmt.Errorf("create runtime %s: %w", req.Name, err)
	}
	l.log.Info("runtime create requested", zap.String("runtime", req.Name), zap.String("workspace", ws.Key()))
	return nil
}

func (l *Leo) CreateApp(ctx context.Context, ws core.Workspace, req CreateAppRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	b, err := backendFor(ws.CloudProvider)
	if err != nil {
		return err
	}
	if err := l.client.Post(ctx, b.apps(b.workspaceOwner(ws))+"/"+url.PathEscape(req.Name), req.body(ws), nil); err != nil {
		return fmt.Errorf("create app %s: %w", req.Name, err)
	}
	l.log.Info("app create requested", zap.String("app", req.Name), zap.String("app_type", string(req.AppType)), zap.String("workspace", ws.Key()))
	return nil
}

// resourcePath is the details path of a runtime or app.
func resourcePath(b backend, res core.ComputeResource) (string, error) {
	owner := b.resourceOwner(res)
	if owner == "" {
		return "", core.NewAppError(core.ErrBadRequest, res.Key().String()+" has no owning project or workspace")
	}
	name := url.PathEscape(res.ResourceName())
	switch res.(type) {
	case core.Runtime:
		return b.runtimes(owner) + "/" + name, nil
	case core.App:
		return b.apps(owner) + "/" + name, nil
	}
	return "", fmt.Errorf("unsupported resource %T", res)
}
