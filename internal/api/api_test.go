package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/cost"
	"github.com/lzjever/cloudenv/internal/lifecycle"
	"github.com/lzjever/cloudenv/internal/pricing"
	"github.com/lzjever/cloudenv/internal/reconcile"
)

type stubProvider struct {
	mu         sync.Mutex
	runtimes   []core.Runtime
	calls      []string
	stopErr    error
	requestIDs []string
}

func (s *stubProvider) ListRuntimes(context.Context, lifecycle.ListFilter) ([]core.Runtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Runtime(nil), s.runtimes...), nil
}
func (s *stubProvider) ListApps(context.Context, lifecycle.ListFilter) ([]core.App, error) {
	return nil, nil
}
func (s *stubProvider) ListDisks(context.Context, lifecycle.ListFilter) ([]core.PersistentDisk, error) {
	return nil, nil
}
func (s *stubProvider) ErrorInfo(_ context.Context, res core.ComputeResource) (core.ErrorInfo, error) {
	return core.ErrorList{Errors: res.Failures()}, nil
}
func (s *stubProvider) record(call string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	return err
}
func (s *stubProvider) Start(_ context.Context, res core.ComputeResource) error {
	return s.record("start "+res.ResourceName(), nil)
}
func (s *stubProvider) Stop(ctx context.Context, res core.ComputeResource) error {
	id, _ := core.RequestIDFrom(ctx)
	s.mu.Lock()
	s.requestIDs = append(s.requestIDs, id)
	s.mu.Unlock()
	return s.record("stop "+res.ResourceName(), s.stopErr)
}
func (s *stubProvider) Delete(_ context.Context, res core.ComputeResource, opts lifecycle.DeleteOptions) error {
	if opts.DeleteDisk {
		return s.record("delete+disk "+res.ResourceName(), nil)
	}
	return s.record("delete "+res.ResourceName(), nil)
}
func (s *stubProvider) CreateRuntime(_ context.Context, _ core.Workspace, req lifecycle.CreateRuntimeRequest) error {
	return s.record("create runtime "+req.Name, nil)
}
func (s *stubProvider) CreateApp(_ context.Context, _ core.Workspace, req lifecycle.CreateAppRequest) error {
	return s.record("create app "+req.Name, nil)
}
func (s *stubProvider) DeleteDisk(_ context.Context, d core.PersistentDisk) error {
	return s.record("delete disk "+d.Name, nil)
}

func (s *stubProvider) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

type errPinger struct{ err error }

func (p errPinger) Ping(context.Context) error { return p.err }

func newTestAPI(t *testing.T, p *stubProvider, ready Pinger) (*API, *reconcile.Manager) {
	t.Helper()
	m := reconcile.NewManager(context.Background(), p, cost.NewEngine(pricing.Static()),
		reconcile.Config{PollInterval: time.Hour, IdleInterval: time.Hour}, zap.NewNop())
	t.Cleanup(m.Close)
	return NewAPI(m, ready, zap.NewNop()), m
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse error response %q: %s", w.Body.String(), err)
	}
	return resp.Code
}

func waitLoaded(t *testing.T, m *reconcile.Manager, key string) {
	t.Helper()
	wt, err := m.Get(key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for !wt.Snapshot().Loaded {
		if time.Now().After(deadline) {
			t.Fatalf("workspace %s never loaded", key)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestHealthHandler(t *testing.T) {
	api := &API{}
	r := chi.NewRouter()
	r.Get("/healthz", api.HealthHandler)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("expected body OK, got %s", w.Body.String())
	}
}

func TestReadyHandler(t *testing.T) {
	tests := []struct {
		name  string
		ready Pinger
		want  int
	}{
		{"no store", nil, http.StatusOK},
		{"store up", errPinger{}, http.StatusOK},
		{"store down", errPinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &API{ready: tt.ready}
			w := httptest.NewRecorder()
			api.ReadyHandler(w, httptest.NewRequest("GET", "/readyz", nil))
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, core.NewAppError(core.ErrBadRequest, "test error"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if code := errorCode(t, w); code != "CLOUDENV_BAD_REQUEST" {
		t.Errorf("expected code CLOUDENV_BAD_REQUEST, got %s", code)
	}
}

func TestWriteAccepted(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAccepted(w, "stop", "rt-1", "/v1/workspaces/ns/ws/environment")

	if w.Code != http.StatusAccepted {
		t.Errorf("expected status 202, got %d", w.Code)
	}
	var resp AcceptedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if resp.Action != "stop" || resp.Resource != "rt-1" || resp.StatusHref != "/v1/workspaces/ns/ws/environment" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestWatchLifecycle(t *testing.T) {
	p := &stubProvider{}
	api, _ := newTestAPI(t, p, nil)
	h := api.Router()
	body := `{"cloudProvider":"gcp","googleProject":"proj-1"}`

	w := do(t, h, "PUT", "/v1/workspaces/ns/ws-1/watch", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("first watch: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp WorkspaceResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %s", err)
	}
	if resp.Workspace.CloudProvider != core.CloudProviderGCP || resp.EnvironmentHref != "/v1/workspaces/ns/ws-1/environment" {
		t.Errorf("unexpected response %+v", resp)
	}

	if w := do(t, h, "PUT", "/v1/workspaces/ns/ws-1/watch", body); w.Code != http.StatusOK {
		t.Errorf("repeat watch: expected 200, got %d", w.Code)
	}
	w = do(t, h, "PUT", "/v1/workspaces/ns/ws-1/watch", `{"cloudProvider":"gcp","googleProject":"proj-2"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("identity change: expected 409, got %d", w.Code)
	}

	w = do(t, h, "GET", "/v1/workspaces", "")
	var list struct {
		Workspaces []WorkspaceResponse `json:"workspaces"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse list: %s", err)
	}
	if len(list.Workspaces) != 1 {
		t.Errorf("expected 1 workspace, got %d", len(list.Workspaces))
	}

	if w := do(t, h, "DELETE", "/v1/workspaces/ns/ws-1/watch", ""); w.Code != http.StatusNoContent {
		t.Errorf("unwatch: expected 204, got %d", w.Code)
	}
	w = do(t, h, "GET", "/v1/workspaces/ns/ws-1/environment", "")
	if w.Code != http.StatusNotFound || errorCode(t, w) != string(core.ErrNotWatched) {
		t.Errorf("environment after unwatch: got %d %s", w.Code, w.Body.String())
	}
}

func TestWatchValidation(t *testing.T) {
	api, _ := newTestAPI(t, &stubProvider{}, nil)
	h := api.Router()

	tests := []struct {
		name string
		body string
		code core.ErrorCode
	}{
		{"bad json", `{`, core.ErrBadRequest},
		{"unknown provider", `{"cloudProvider":"aws"}`, core.ErrUnsupportedProvider},
		{"azure without id", `{"cloudProvider":"AZURE"}`, core.ErrBadRequest},
		{"gcp without project", `{"cloudProvider":"GCP"}`, core.ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "PUT", "/v1/workspaces/ns/ws/watch", tt.body)
			if w.Code != tt.code.HTTPStatus() || errorCode(t, w) != string(tt.code) {
				t.Errorf("got %d %s, want %s", w.Code, w.Body.String(), tt.code)
			}
		})
	}
}

func TestListWorkspacesPagination(t *testing.T) {
	api, m := newTestAPI(t, &stubProvider{}, nil)
	for _, name := range []string{"c", "a", "b"} {
		if _, _, err := m.Watch(core.Workspace{Namespace: "ns", Name: name, CloudProvider: core.CloudProviderGCP, GoogleProject: "p"}); err != nil {
			t.Fatalf("watch %s: %v", name, err)
		}
	}
	h := api.Router()

	var page struct {
		Workspaces []WorkspaceResponse `json:"workspaces"`
		NextCursor string              `json:"nextCursor"`
	}
	w := do(t, h, "GET", "/v1/workspaces?limit=2", "")
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("failed to parse page: %s", err)
	}
	if len(page.Workspaces) != 2 || page.Workspaces[0].Workspace.Name != "a" || page.NextCursor == "" {
		t.Fatalf("first page = %+v", page)
	}

	w = do(t, h, "GET", "/v1/workspaces?limit=2&cursor="+page.NextCursor, "")
	page.NextCursor = ""
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("failed to parse page: %s", err)
	}
	if len(page.Workspaces) != 1 || page.Workspaces[0].Workspace.Name != "c" || page.NextCursor != "" {
		t.Errorf("second page = %+v", page)
	}

	if w := do(t, h, "GET", "/v1/workspaces?cursor=!!!", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad cursor: expected 400, got %d", w.Code)
	}
}

func TestEnvironmentAndActions(t *testing.T) {
	p := &stubProvider{runtimes: []core.Runtime{{
		RuntimeName:   "rt-1",
		GoogleProject: "proj-1",
		CloudContext:  core.CloudContext{CloudProvider: core.CloudProviderGCP, CloudResource: "proj-1"},
		Status:        core.StatusRunning,
		RuntimeConfig: core.RuntimeConfig{CloudService: core.CloudServiceGCE, MachineType: "n1-standard-4"},
	}}}
	api, m := newTestAPI(t, p, nil)
	h := api.Router()
	if w := do(t, h, "PUT", "/v1/workspaces/ns/ws-1/watch", `{"cloudProvider":"GCP","googleProject":"proj-1"}`); w.Code != http.StatusCreated {
		t.Fatalf("watch: %d %s", w.Code, w.Body.String())
	}
	waitLoaded(t, m, "ns/ws-1")

	w := do(t, h, "GET", "/v1/workspaces/ns/ws-1/environment", "")
	if w.Code != http.StatusOK {
		t.Fatalf("environment: %d %s", w.Code, w.Body.String())
	}
	var env struct {
		Loaded  bool `json:"loaded"`
		Runtime struct {
			Runtime           core.Runtime `json:"runtime"`
			HourlyCostDisplay string       `json:"hourlyCostDisplay"`
		} `json:"runtime"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to parse environment: %s", err)
	}
	if !env.Loaded || env.Runtime.Runtime.RuntimeName != "rt-1" || !strings.HasSuffix(env.Runtime.HourlyCostDisplay, "per hour") {
		t.Errorf("unexpected environment %s", w.Body.String())
	}

	steps := []struct {
		method, path, body string
		want               int
	}{
		{"POST", "/v1/workspaces/ns/ws-1/environment:refresh", "", http.StatusAccepted},
		{"POST", "/v1/workspaces/ns/ws-1/runtimes/rt-1:stop", "", http.StatusAccepted},
		{"POST", "/v1/workspaces/ns/ws-1/runtimes/rt-1:start", "", http.StatusAccepted},
		{"DELETE", "/v1/workspaces/ns/ws-1/runtimes/rt-1?deleteDisk=true", "", http.StatusAccepted},
		{"DELETE", "/v1/workspaces/ns/ws-1/runtimes/rt-1?deleteDisk=maybe", "", http.StatusBadRequest},
		{"POST", "/v1/workspaces/ns/ws-1/runtimes/missing:stop", "", http.StatusNotFound},
		{"POST", "/v1/workspaces/ns/ws-1/runtimes", `{"name":"rt-2","runtimeConfig":{"cloudService":"GCE"}}`, http.StatusAccepted},
		{"POST", "/v1/workspaces/ns/ws-1/runtimes", `{"name":""}`, http.StatusBadRequest},
		{"POST", "/v1/workspaces/ns/ws-1/apps", `{"name":"galaxy-1","appType":"galaxy"}`, http.StatusAccepted},
		{"POST", "/v1/workspaces/ns/ws-1/apps", `{"name":"x","appType":"spreadsheet"}`, http.StatusBadRequest},
		{"DELETE", "/v1/workspaces/ns/ws-1/disks/missing", "", http.StatusNotFound},
		{"POST", "/v1/workspaces/ns/other/runtimes/rt-1:stop", "", http.StatusNotFound},
	}
	for _, s := range steps {
		w := do(t, h, s.method, s.path, s.body)
		if w.Code != s.want {
			t.Errorf("%s %s: expected %d, got %d: %s", s.method, s.path, s.want, w.Code, w.Body.String())
		}
	}

	want := []string{"stop rt-1", "start rt-1", "delete+disk rt-1", "create runtime rt-2", "create app galaxy-1"}
	got := p.recorded()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("provider calls = %v, want %v", got, want)
	}
}

func TestProviderErrorsMapToResponses(t *testing.T) {
	p := &stubProvider{
		runtimes: []core.Runtime{{
			RuntimeName:  "rt-1",
			CloudContext: core.CloudContext{CloudProvider: core.CloudProviderGCP, CloudResource: "proj-1"},
			Status:       core.StatusRunning,
		}},
		stopErr: core.NewAppError(core.ErrConflict, "runtime is busy"),
	}
	api, m := newTestAPI(t, p, nil)
	h := api.Router()
	do(t, h, "PUT", "/v1/workspaces/ns/ws-1/watch", `{"cloudProvider":"GCP","googleProject":"proj-1"}`)
	waitLoaded(t, m, "ns/ws-1")

	w := do(t, h, "POST", "/v1/workspaces/ns/ws-1/runtimes/rt-1:stop", "")
	if w.Code != http.StatusConflict || errorCode(t, w) != string(core.ErrConflict) {
		t.Errorf("conflict: got %d %s", w.Code, w.Body.String())
	}

	p.mu.Lock()
	p.stopErr = errors.New("socket closed")
	p.mu.Unlock()
	w = do(t, h, "POST", "/v1/workspaces/ns/ws-1/runtimes/rt-1:stop", "")
	if w.Code != http.StatusInternalServerError || errorCode(t, w) != string(core.ErrInternal) {
		t.Errorf("plain error: got %d %s", w.Code, w.Body.String())
	}
}

func TestActionsCarryRequestID(t *testing.T) {
	p := &stubProvider{runtimes: []core.Runtime{{
		RuntimeName:  "rt-1",
		CloudContext: core.CloudContext{CloudProvider: core.CloudProviderGCP, CloudResource: "proj-1"},
		Status:       core.StatusRunning,
	}}}
	api, m := newTestAPI(t, p, nil)
	h := api.Router()
	do(t, h, "PUT", "/v1/workspaces/ns/ws-1/watch", `{"cloudProvider":"GCP","googleProject":"proj-1"}`)
	waitLoaded(t, m, "ns/ws-1")

	req := httptest.NewRequest("POST", "/v1/workspaces/ns/ws-1/runtimes/rt-1:stop", nil)
	req.Header.Set(core.RequestIDHeader, "cli-req-7")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("stop: %d %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get(core.RequestIDHeader); got != "cli-req-7" {
		t.Errorf("echoed request id = %q", got)
	}

	p.mu.Lock()
	ids := append([]string(nil), p.requestIDs...)
	p.mu.Unlock()
	if len(ids) != 1 || ids[0] != "cli-req-7" {
		t.Errorf("provider saw request ids %v, want [cli-req-7]", ids)
	}
}

// snakeKeys collects object keys containing an underscore.
func snakeKeys(v interface{}) []string {
	var out []string
	switch x := v.(type) {
	case map[string]interface{}:
		for k, child := range x {
			if strings.Contains(k, "_") {
				out = append(out, k)
			}
			out = append(out, snakeKeys(child)...)
		}
	case []interface{}:
		for _, child := range x {
			out = append(out, snakeKeys(child)...)
		}
	}
	return out
}

func TestResponsesUseCamelCase(t *testing.T) {
	p := &stubProvider{runtimes: []core.Runtime{{
		RuntimeName:  "rt-1",
		CloudContext: core.CloudContext{CloudProvider: core.CloudProviderGCP, CloudResource: "proj-1"},
		Status:       core.StatusRunning,
	}}}
	api, m := newTestAPI(t, p, nil)
	h := api.Router()
	do(t, h, "PUT", "/v1/workspaces/ns/ws-1/watch", `{"cloudProvider":"GCP","googleProject":"proj-1"}`)
	do(t, h, "PUT", "/v1/workspaces/ns/ws-2/watch", `{"cloudProvider":"GCP","googleProject":"proj-2"}`)
	waitLoaded(t, m, "ns/ws-1")

	for _, req := range []struct{ method, path string }{
		{"GET", "/v1/workspaces?limit=1"},
		{"GET", "/v1/workspaces/ns/ws-1/environment"},
		{"POST", "/v1/workspaces/ns/ws-1/runtimes/rt-1:stop"},
		{"POST", "/v1/workspaces/ns/ws-1/environment:refresh"},
	} {
		w := do(t, h, req.method, req.path, "")
		var body interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s %s: %s", req.method, req.path, err)
		}
		if keys := snakeKeys(body); len(keys) > 0 {
			t.Errorf("%s %s: snake_case keys %v", req.method, req.path, keys)
		}
	}

	w := do(t, h, "GET", "/v1/workspaces?limit=1", "")
	var page map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &page)
	if c, _ := page["nextCursor"].(string); c == "" {
		t.Errorf("expected nextCursor in %s", w.Body.String())
	}
}
