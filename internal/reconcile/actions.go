package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/lifecycle"
	"github.com/lzjever/cloudenv/internal/observability"
	"github.com/lzjever/cloudenv/internal/resolve"
)

// Imperative operations look the target up in the latest snapshot and
// trigger an immediate refresh once the control plane has been called.

func (w *Watcher) StartResource(ctx context.Context, kind core.ResourceKind, name string) error {
	res, err := w.find(kind, name)
	if err != nil {
		return err
	}
	defer w.Refresh()
	observability.ResourceLogger(w.log, string(kind), name).Info("start requested")
	return w.provider.Start(ctx, res)
}

func (w *Watcher) StopResource(ctx context.Context, kind core.ResourceKind, name string) error {
	res, err := w.find(kind, name)
	if err != nil {
		return err
	}
	defer w.Refresh()
	observability.ResourceLogger(w.log, string(kind), name).Info("stop requested")
	return w.provider.Stop(ctx, res)
}

func (w *Watcher) DeleteResource(ctx context.Context, kind core.ResourceKind, name string, opts lifecycle.DeleteOptions) error {
	res, err := w.find(kind, name)
	if err != nil {
		return err
	}
	defer w.Refresh()
	observability.ResourceLogger(w.log, string(kind), name).Info("delete requested", zap.Bool("delete_disk", opts.DeleteDisk))
	return w.provider.Delete(ctx, res, opts)
}

func (w *Watcher) CreateRuntime(ctx context.Context, req lifecycle.CreateRuntimeRequest) error {
	defer w.Refresh()
	observability.ResourceLogger(w.log, string(core.KindRuntime), req.Name).Info("create requested")
	return w.provider.CreateRuntime(ctx, w.ws, req)
}

func (w *Watcher) CreateApp(ctx context.Context, req lifecycle.CreateAppRequest) error {
	defer w.Refresh()
	observability.ResourceLogger(w.log, string(core.KindApp), req.Name).Info("create requested")
	return w.provider.CreateApp(ctx, w.ws, req)
}

func (w *Watcher) DeleteDisk(ctx context.Context, name string) error {
	for _, d := range w.Snapshot().Resources.Disks {
		if d.Name != name {
			continue
		}
		defer w.Refresh()
		w.log.Info("disk delete requested", zap.String("disk", name))
		return w.provider.DeleteDisk(ctx, d)
	}
	return core.NewAppError(core.ErrNotFound, fmt.Sprintf("disk %q not found in workspace %s", name, w.ws.Key()))
}

// find picks the newest resource with the given name, deleting ones included.
func (w *Watcher) find(kind core.ResourceKind, name string) (core.ComputeResource, error) {
	res := w.Snapshot().Resources
	switch kind {
	case core.KindRuntime:
		var matches []core.Runtime
		for _, r := range res.Runtimes {
			if r.RuntimeName == name {
				matches = append(matches, r)
			}
		}
		if rt, ok := resolve.Current(matches, true); ok {
			return rt, nil
		}
	case core.KindApp:
		var matches []core.App
		for _, a := range res.Apps {
			if a.AppName == name {
				matches = append(matches, a)
			}
		}
		if app, ok := resolve.Current(matches, true); ok {
			return app, nil
		}
	default:
		return nil, core.NewAppError(core.ErrBadRequest, fmt.Sprintf("unknown resource kind %q", kind))
	}
	return nil, core.NewAppError(core.ErrNotFound, fmt.Sprintf("%s %q not found in workspace %s", kind, name, w.ws.Key()))
}
