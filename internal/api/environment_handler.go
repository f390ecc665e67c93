package api

import (
	"net/http"

	"github.com/lzjever/cloudenv/internal/reconcile"
)

func (a *API) watcher(w http.ResponseWriter, r *http.Request) (*reconcile.Watcher, bool) {
	wt, err := a.manager.Get(workspaceKey(r))
	if err != nil {
		a.writeErr(w, r, err)
		return nil, false
	}
	return wt, true
}

// GetEnvironment returns the latest derived view of a watched workspace.
func (a *API) GetEnvironment(w http.ResponseWriter, r *http.Request) {
	wt, ok := a.watcher(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, wt.Snapshot())
}

// RefreshEnvironment forces an immediate poll, resuming a stopped watcher.
func (a *API) RefreshEnvironment(w http.ResponseWriter, r *http.Request) {
	wt, ok := a.watcher(w, r)
	if !ok {
		return
	}
	wt.Refresh()
	WriteAccepted(w, "refresh", "", environmentHref(wt.Workspace().Key()))
}
