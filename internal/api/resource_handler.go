package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/lifecycle"
)

func (a *API) CreateRuntime(w http.ResponseWriter, r *http.Request) {
	wt, ok := a.watcher(w, r)
	if !ok {
		return
	}
	var req lifecycle.CreateRuntimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		a.writeErr(w, r, err)
		return
	}
	if err := wt.CreateRuntime(r.Context(), req); err != nil {
		a.writeErr(w, r, err)
		return
	}
	WriteAccepted(w, "create", req.Name, environmentHref(wt.Workspace().Key()))
}

func (a *API) CreateApp(w http.ResponseWriter, r *http.Request) {
	wt, ok := a.watcher(w, r)
	if !ok {
		return
	}
	var req lifecycle.CreateAppRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		a.writeErr(w, r, err)
		return
	}
	if err := wt.CreateApp(r.Context(), req); err != nil {
		a.writeErr(w, r, err)
		return
	}
	WriteAccepted(w, "create", req.Name, environmentHref(wt.Workspace().Key()))
}

func (a *API) startHandler(kind core.ResourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wt, ok := a.watcher(w, r)
		if !ok {
			return
		}
		name := chi.URLParam(r, "resource")
		if err := wt.StartResource(r.Context(), kind, name); err != nil {
			a.writeErr(w, r, err)
			return
		}
		WriteAccepted(w, "start", name, environmentHref(wt.Workspace().Key()))
	}
}

func (a *API) stopHandler(kind core.ResourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wt, ok := a.watcher(w, r)
		if !ok {
			return
		}
		name := chi.URLParam(r, "resource")
		if err := wt.StopResource(r.Context(), kind, name); err != nil {
			a.writeErr(w, r, err)
			return
		}
		WriteAccepted(w, "stop", name, environmentHref(wt.Workspace().Key()))
	}
}

// deleteHandler accepts ?deleteDisk=true to remove the attached disk as well.
func (a *API) deleteHandler(kind core.ResourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wt, ok := a.watcher(w, r)
		if !ok {
			return
		}
		var opts lifecycle.DeleteOptions
		if v := r.URL.Query().Get("deleteDisk"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				WriteError(w, core.NewAppError(core.ErrBadRequest, "deleteDisk must be a boolean"))
				return
			}
			opts.DeleteDisk = b
		}
		name := chi.URLParam(r, "resource")
		if err := wt.DeleteResource(r.Context(), kind, name, opts); err != nil {
			a.writeErr(w, r, err)
			return
		}
		WriteAccepted(w, "delete", name, environmentHref(wt.Workspace().Key()))
	}
}

func (a *API) DeleteDisk(w http.ResponseWriter, r *http.Request) {
	wt, ok := a.watcher(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "disk")
	if err := wt.DeleteDisk(r.Context(), name); err != nil {
		a.writeErr(w, r, err)
		return
	}
	WriteAccepted(w, "delete", name, environmentHref(wt.Workspace().Key()))
}
