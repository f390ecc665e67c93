package reconcile

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/lifecycle"
)

type fakeProvider struct {
	mu        sync.Mutex
	runtimes  []core.Runtime
	apps      []core.App
	disks     []core.PersistentDisk
	listErr   error
	listCalls int
	// hooks replace ListRuntimes results for successive calls.
	hooks     []func(ctx context.Context) ([]core.Runtime, error)
	infoCalls map[string]int
	infoErr   error
	calls     []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{infoCalls: make(map[string]int)}
}

func (f *fakeProvider) set(fn func(f *fakeProvider)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeProvider) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeProvider) infoCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.infoCalls[name]
}

func (f *fakeProvider) ListRuntimes(ctx context.Context, _ lifecycle.ListFilter) ([]core.Runtime, error) {
	f.mu.Lock()
	f.listCalls++
	if len(f.hooks) > 0 {
		hook := f.hooks[0]
		f.hooks = f.hooks[1:]
		f.mu.Unlock()
		return hook(ctx)
	}
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.Runtime(nil), f.runtimes...), nil
}

func (f *fakeProvider) ListApps(_ context.Context, _ lifecycle.ListFilter) ([]core.App, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.App(nil), f.apps...), nil
}

func (f *fakeProvider) ListDisks(_ context.Context, _ lifecycle.ListFilter) ([]core.PersistentDisk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.PersistentDisk(nil), f.disks...), nil
}

func (f *fakeProvider) ErrorInfo(_ context.Context, res core.ComputeResource) (core.ErrorInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoCalls[res.ResourceName()]++
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return core.ErrorList{Errors: res.Failures()}, nil
}

func (f *fakeProvider) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeProvider) Start(_ context.Context, res core.ComputeResource) error {
	return f.record("start " + res.ResourceName())
}

func (f *fakeProvider) Stop(_ context.Context, res core.ComputeResource) error {
	return f.record("stop " + res.ResourceName())
}

func (f *fakeProvider) Delete(_ context.Context, res core.ComputeResource, opts lifecycle.DeleteOptions) error {
	if opts.DeleteDisk {
		return f.record("delete+disk " + res.ResourceName())
	}
	return f.record("delete " + res.ResourceName())
}

func (f *fakeProvider) CreateRuntime(_ context.Context, ws core.Workspace, req lifecycle.CreateRuntimeRequest) error {
	return f.record("create runtime " + ws.Name + "/" + req.Name)
}

func (f *fakeProvider) CreateApp(_ context.Context, ws core.Workspace, req lifecycle.CreateAppRequest) error {
	return f.record("create app " + ws.Name + "/" + req.Name)
}

func (f *fakeProvider) DeleteDisk(_ context.Context, d core.PersistentDisk) error {
	return f.record("delete disk " + d.Name)
}

func (f *fakeProvider) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func fastConfig() Config {
	return Config{PollInterval: 10 * time.Millisecond, IdleInterval: 20 * time.Millisecond, EventBuffer: 64}
}

func startWatcher(t *testing.T, f *fakeProvider, cfg Config) *Watcher {
	t.Helper()
	w := NewWatcher(testWS, f, testEngine(), cfg, zap.NewNop())
	w.Start(context.Background())
	t.Cleanup(w.Stop)
	return w
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitEvent(t *testing.T, w *Watcher, typ EventType) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-w.Events():
			if !ok {
				t.Fatalf("events closed before %s", typ)
			}
			if e.Type == typ {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", typ)
		}
	}
}

func TestWatcher_InitialSnapshotIsIdle(t *testing.T) {
	w := NewWatcher(testWS, newFakeProvider(), testEngine(), fastConfig(), zap.NewNop())
	env := w.Snapshot()
	if env.State != StateIdle || env.Loaded {
		t.Errorf("state = %s loaded = %v, want Idle/false", env.State, env.Loaded)
	}
	w.Stop()
	if _, ok := <-w.Events(); ok {
		t.Error("events should be closed after Stop")
	}
}

func TestWatcher_PollsImmediately(t *testing.T) {
	f := newFakeProvider()
	f.runtimes = []core.Runtime{gcpRuntime("rt", core.StatusRunning, t1)}
	// Long intervals: only the first poll can satisfy the wait.
	w := startWatcher(t, f, Config{PollInterval: time.Hour, IdleInterval: time.Hour})

	waitFor(t, "first poll", func() bool { return w.Snapshot().Loaded })
	env := w.Snapshot()
	if env.State != StatePolling {
		t.Errorf("state = %s, want Polling", env.State)
	}
	if env.Runtime == nil || env.Runtime.Runtime.RuntimeName != "rt" {
		t.Errorf("runtime = %+v", env.Runtime)
	}
	if env.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
}

func TestWatcher_ReplacesListEachPoll(t *testing.T) {
	f := newFakeProvider()
	f.runtimes = []core.Runtime{gcpRuntime("a", core.StatusCreating, t1)}
	w := startWatcher(t, f, fastConfig())
	waitFor(t, "runtime a", func() bool {
		env := w.Snapshot()
		return env.Runtime != nil && env.Runtime.Runtime.RuntimeName == "a"
	})

	f.set(func(f *fakeProvider) {
		f.runtimes = []core.Runtime{gcpRuntime("b", core.StatusRunning, t2)}
	})
	waitFor(t, "runtime b", func() bool {
		env := w.Snapshot()
		return env.Runtime != nil && env.Runtime.Runtime.RuntimeName == "b"
	})
	if got := len(w.Snapshot().Resources.Runtimes); got != 1 {
		t.Errorf("cached runtimes = %d, want 1 (full replacement)", got)
	}
}

func TestWatcher_VersionStableWhenUnchanged(t *testing.T) {
	f := newFakeProvider()
	f.runtimes = []core.Runtime{gcpRuntime("rt", core.StatusRunning, t1)}
	w := startWatcher(t, f, fastConfig())

	waitFor(t, "first poll", func() bool { return w.Snapshot().Loaded })
	v := w.Snapshot().Version
	n := f.listCount()
	waitFor(t, "more polls", func() bool { return f.listCount() >= n+3 })

	if got := w.Snapshot().Version; got != v {
		t.Errorf("version moved %d -> %d with identical data", v, got)
	}
}

func TestWatcher_StopsOnError(t *testing.T) {
	f := newFakeProvider()
	rt := gcpRuntime("rt", core.StatusError, t1)
	rt.Errors = []core.ResourceError{{ErrorMessage: "quota exceeded", ErrorCode: 403}}
	f.runtimes = []core.Runtime{rt}
	w := startWatcher(t, f, fastConfig())

	e := waitEvent(t, w, EventTerminal)
	if e.Reason != ReasonError {
		t.Errorf("reason = %q, want %q", e.Reason, ReasonError)
	}
	env := w.Snapshot()
	if env.State != StateTerminal {
		t.Errorf("state = %s, want Terminal", env.State)
	}
	info, ok := env.Runtime.ErrorInfo.(core.ErrorList)
	if !ok || len(info.Errors) != 1 || info.Errors[0].ErrorMessage != "quota exceeded" {
		t.Errorf("error info = %#v", env.Runtime.ErrorInfo)
	}

	n := f.listCount()
	time.Sleep(80 * time.Millisecond)
	if got := f.listCount(); got != n {
		t.Errorf("polled %d more times after terminal", got-n)
	}
	if got := f.infoCount("rt"); got != 1 {
		t.Errorf("error info fetched %d times, want 1", got)
	}
}

func TestWatcher_ErrorInfoFailureKeepsPolling(t *testing.T) {
	f := newFakeProvider()
	f.runtimes = []core.Runtime{gcpRuntime("rt", core.StatusError, t1)}
	f.infoErr = errors.New("bucket unavailable")
	w := startWatcher(t, f, fastConfig())

	waitFor(t, "last error", func() bool { return w.Snapshot().LastError != "" })
	if w.Snapshot().State == StateTerminal {
		t.Fatal("should not stop before error info is known")
	}

	f.set(func(f *fakeProvider) { f.infoErr = nil })
	e := waitEvent(t, w, EventTerminal)
	if e.Reason != ReasonError {
		t.Errorf("reason = %q", e.Reason)
	}
	if w.Snapshot().Runtime.ErrorInfo == nil {
		t.Error("error info missing after retry")
	}
}

func TestWatcher_DeletedSignal(t *testing.T) {
	f := newFakeProvider()
	f.runtimes = []core.Runtime{gcpRuntime("rt", core.StatusDeleting, t1)}
	w := startWatcher(t, f, fastConfig())
	waitFor(t, "deleting observed", func() bool { return w.Snapshot().Loaded })

	f.set(func(f *fakeProvider) { f.runtimes = nil })
	del := waitEvent(t, w, EventDeleted)
	if want := (core.ResourceKey{Kind: core.KindRuntime, Provider: core.CloudProviderGCP, Name: "rt"}).String(); del.Reason != want {
		t.Errorf("deleted reason = %q, want %q", del.Reason, want)
	}
	e := waitEvent(t, w, EventTerminal)
	if e.Reason != ReasonDeleted {
		t.Errorf("reason = %q, want %q", e.Reason, ReasonDeleted)
	}
	if w.Snapshot().Runtime != nil {
		t.Errorf("runtime should be gone, got %+v", w.Snapshot().Runtime)
	}
}

func TestWatcher_DeletedSignalWhileOthersLive(t *testing.T) {
	f := newFakeProvider()
	f.runtimes = []core.Runtime{
		gcpRuntime("old", core.StatusDeleting, t1),
		gcpRuntime("new", core.StatusRunning, t2),
	}
	w := startWatcher(t, f, fastConfig())
	waitFor(t, "deleting observed", func() bool { return w.Snapshot().Loaded })

	f.set(func(f *fakeProvider) { f.runtimes = []core.Runtime{gcpRuntime("new", core.StatusRunning, t2)} })
	e := waitEvent(t, w, EventDeleted)
	if !strings.HasSuffix(e.Reason, "/old") {
		t.Errorf("deleted reason = %q, want key of old", e.Reason)
	}
	if got := w.Snapshot().State; got != StatePolling {
		t.Errorf("state = %s, want %s while new is live", got, StatePolling)
	}

	n := f.listCount()
	waitFor(t, "polling continues", func() bool { return f.listCount() > n+1 })
drain:
	for {
		select {
		case e := <-w.Events():
			if e.Type == EventDeleted || e.Type == EventTerminal {
				t.Fatalf("unexpected %s event after vanish: %+v", e.Type, e)
			}
		default:
			break drain
		}
	}
}

func TestWatcher_FetchFailureKeepsData(t *testing.T) {
	f := newFakeProvider()
	f.runtimes = []core.Runtime{gcpRuntime("rt", core.StatusRunning, t1)}
	w := startWatcher(t, f, fastConfig())
	waitFor(t, "first poll", func() bool { return w.Snapshot().Loaded })

	f.set(func(f *fakeProvider) { f.listErr = errors.New("control plane down") })
	waitEvent(t, w, EventFetchFailed)
	env := w.Snapshot()
	if env.LastError != "control plane down" {
		t.Errorf("last error = %q", env.LastError)
	}
	if env.Runtime == nil || env.Runtime.Runtime.RuntimeName != "rt" {
		t.Errorf("previous data dropped: %+v", env.Runtime)
	}
	if env.State != StatePolling {
		t.Errorf("state = %s, want Polling", env.State)
	}

	f.set(func(f *fakeProvider) { f.listErr = nil })
	waitFor(t, "recovery", func() bool { return w.Snapshot().LastError == "" })
}

func TestWatcher_LatestWins(t *testing.T) {
	f := newFakeProvider()
	release := make(chan struct{})
	f.hooks = []func(context.Context) ([]core.Runtime, error){
		func(context.Context) ([]core.Runtime, error) {
			<-release
			return []core.Runtime{gcpRuntime("stale", core.StatusRunning, t1)}, nil
		},
	}
	f.runtimes = []core.Runtime{gcpRuntime("fresh", core.StatusRunning, t2)}
	w := startWatcher(t, f, Config{PollInterval: time.Hour, IdleInterval: time.Hour})

	waitFor(t, "first fetch in flight", func() bool { return f.listCount() == 1 })
	w.Refresh()
	waitFor(t, "fresh", func() bool {
		env := w.Snapshot()
		return env.Runtime != nil && env.Runtime.Runtime.RuntimeName == "fresh"
	})

	close(release)
	time.Sleep(50 * time.Millisecond)
	if got := w.Snapshot().Runtime.Runtime.RuntimeName; got != "fresh" {
		t.Errorf("runtime = %q, superseded result was applied", got)
	}
}

func TestWatcher_RefreshResumesFromTerminal(t *testing.T) {
	f := newFakeProvider()
	f.runtimes = []core.Runtime{gcpRuntime("rt", core.StatusError, t1)}
	w := startWatcher(t, f, fastConfig())
	waitEvent(t, w, EventTerminal)

	f.set(func(f *fakeProvider) {
		f.runtimes = []core.Runtime{gcpRuntime("rt", core.StatusStarting, t1)}
	})
	w.Refresh()
	waitFor(t, "polling", func() bool {
		env := w.Snapshot()
		return env.State == StatePolling && env.Runtime != nil && env.Runtime.Runtime.Status == core.StatusStarting
	})
	if env := w.Snapshot(); env.Runtime.ErrorInfo != nil {
		t.Errorf("error info kept after leaving Error: %#v", env.Runtime.ErrorInfo)
	}
}

func TestWatcher_ActionsRefresh(t *testing.T) {
	f := newFakeProvider()
	f.runtimes = []core.Runtime{gcpRuntime("rt", core.StatusRunning, t1)}
	f.apps = []core.App{gcpApp("galaxy-1", core.AppGalaxy, core.StatusRunning, t1, "")}
	f.disks = []core.PersistentDisk{disk("d-1", "", t1)}
	w := startWatcher(t, f, Config{PollInterval: time.Hour, IdleInterval: time.Hour})
	waitFor(t, "first poll", func() bool { return w.Snapshot().Loaded })

	ctx := context.Background()
	steps := []struct {
		name string
		do   func() error
	}{
		{"stop runtime", func() error { return w.StopResource(ctx, core.KindRuntime, "rt") }},
		{"start app", func() error { return w.StartResource(ctx, core.KindApp, "galaxy-1") }},
		{"delete runtime", func() error {
			return w.DeleteResource(ctx, core.KindRuntime, "rt", lifecycle.DeleteOptions{DeleteDisk: true})
		}},
		{"create runtime", func() error { return w.CreateRuntime(ctx, lifecycle.CreateRuntimeRequest{Name: "rt-2"}) }},
		{"create app", func() error { return w.CreateApp(ctx, lifecycle.CreateAppRequest{Name: "cromwell-1"}) }},
		{"delete disk", func() error { return w.DeleteDisk(ctx, "d-1") }},
	}
	for _, s := range steps {
		n := f.listCount()
		if err := s.do(); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
		waitFor(t, s.name+" refresh", func() bool { return f.listCount() > n })
	}

	want := []string{
		"stop rt",
		"start galaxy-1",
		"delete+disk rt",
		"create runtime ws-1/rt-2",
		"create app ws-1/cromwell-1",
		"delete disk d-1",
	}
	got := f.recorded()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWatcher_ActionOnUnknownResource(t *testing.T) {
	f := newFakeProvider()
	w := startWatcher(t, f, Config{PollInterval: time.Hour, IdleInterval: time.Hour})
	waitFor(t, "first poll", func() bool { return w.Snapshot().Loaded })

	tests := []struct {
		name string
		err  error
		code core.ErrorCode
	}{
		{"runtime", w.StopResource(context.Background(), core.KindRuntime, "missing"), core.ErrNotFound},
		{"app", w.DeleteResource(context.Background(), core.KindApp, "missing", lifecycle.DeleteOptions{}), core.ErrNotFound},
		{"disk", w.DeleteDisk(context.Background(), "missing"), core.ErrNotFound},
		{"kind", w.StartResource(context.Background(), "cluster", "x"), core.ErrBadRequest},
	}
	for _, tt := range tests {
		appErr := core.AsAppError(tt.err)
		if appErr == nil || appErr.Code != tt.code {
			t.Errorf("%s: err = %v, want %s", tt.name, tt.err, tt.code)
		}
	}
	if calls := f.recorded(); len(calls) != 0 {
		t.Errorf("provider called: %v", calls)
	}
}
