package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/cost"
	"github.com/lzjever/cloudenv/internal/reconcile"
)

// WatchRequest carries the identity the provider keys calls by. Namespace and
// name come from the path.
type WatchRequest struct {
	CloudProvider string `json:"cloudProvider"`
	GoogleProject string `json:"googleProject,omitempty"`
	WorkspaceID   string `json:"workspaceId,omitempty"`
}

type WorkspaceResponse struct {
	Workspace              core.Workspace  `json:"workspace"`
	State                  reconcile.State `json:"state"`
	Version                uint64          `json:"version"`
	Loaded                 bool            `json:"loaded"`
	LastError              string          `json:"lastError,omitempty"`
	TotalHourlyCost        cost.Estimate   `json:"totalHourlyCost"`
	TotalHourlyCostDisplay string          `json:"totalHourlyCostDisplay"`
	EnvironmentHref        string          `json:"environmentHref"`
}

// ListWorkspaces lists watched workspaces by key with cursor pagination.
func (a *API) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"), 20, 100)
	after := ""
	if c := r.URL.Query().Get("cursor"); c != "" {
		key, err := decodeCursor(c)
		if err != nil {
			WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid cursor"))
			return
		}
		after = key
	}

	resp := make([]WorkspaceResponse, 0, limit)
	var nextCursor string
	for _, wt := range a.manager.List() {
		key := wt.Workspace().Key()
		if after != "" && key <= after {
			continue
		}
		if len(resp) == limit {
			nextCursor = encodeCursor(resp[len(resp)-1].Workspace.Key())
			break
		}
		resp = append(resp, workspaceToResponse(wt.Snapshot()))
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"workspaces": resp,
		"nextCursor": nextCursor,
	})
}

// WatchWorkspace starts reconciling a workspace. Watching an already watched
// workspace with the same identity returns it unchanged.
func (a *API) WatchWorkspace(w http.ResponseWriter, r *http.Request) {
	var req WatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, core.NewAppError(core.ErrBadRequest, "invalid request body"))
		return
	}
	provider, err := core.ParseCloudProvider(req.CloudProvider)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	ws := core.Workspace{
		Namespace:     chi.URLParam(r, "namespace"),
		Name:          chi.URLParam(r, "name"),
		CloudProvider: provider,
		GoogleProject: strings.TrimSpace(req.GoogleProject),
		WorkspaceID:   strings.TrimSpace(req.WorkspaceID),
	}

	wt, created, err := a.manager.Watch(ws)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		a.log.Info("workspace watched", zap.String("workspace", ws.Key()), zap.String("cloud_provider", string(provider)))
	}
	WriteJSON(w, status, workspaceToResponse(wt.Snapshot()))
}

func (a *API) UnwatchWorkspace(w http.ResponseWriter, r *http.Request) {
	key := workspaceKey(r)
	if err := a.manager.Unwatch(key); err != nil {
		a.writeErr(w, r, err)
		return
	}
	a.log.Info("workspace unwatched", zap.String("workspace", key))
	w.WriteHeader(http.StatusNoContent)
}

func workspaceToResponse(env *reconcile.Environment) WorkspaceResponse {
	return WorkspaceResponse{
		Workspace:              env.Workspace,
		State:                  env.State,
		Version:                env.Version,
		Loaded:                 env.Loaded,
		LastError:              env.LastError,
		TotalHourlyCost:        env.TotalHourlyCost,
		TotalHourlyCostDisplay: env.TotalHourlyCostDisplay,
		EnvironmentHref:        environmentHref(env.Workspace.Key()),
	}
}

func workspaceKey(r *http.Request) string {
	return core.Workspace{Namespace: chi.URLParam(r, "namespace"), Name: chi.URLParam(r, "name")}.Key()
}

func environmentHref(key string) string {
	return "/v1/workspaces/" + key + "/environment"
}

func parseLimit(s string, defaultVal, maxVal int) int {
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return defaultVal
	}
	if n > maxVal {
		return maxVal
	}
	return n
}
