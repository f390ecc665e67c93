// Package reconcile keeps a live, derived view of each watched workspace by
// polling the lifecycle provider until the workspace reaches a terminal state.
package reconcile

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/cost"
	"github.com/lzjever/cloudenv/internal/lifecycle"
	"github.com/lzjever/cloudenv/internal/observability"
)

type EventType string

const (
	EventUpdated     EventType = "updated"
	EventFetchFailed EventType = "fetch_failed"
	EventTerminal    EventType = "terminal"
	// EventDeleted fires once per resource, when a resource seen deleting is
	// gone. Reason carries the resource key.
	EventDeleted EventType = "deleted"
)

const (
	ReasonError   = "error"
	ReasonDeleted = "deleted"
)

type Event struct {
	Type      EventType `json:"type"`
	Workspace string    `json:"workspace"`
	Version   uint64    `json:"version"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

type pollResult struct {
	gen     uint64
	res     Resources
	infos   map[core.ResourceKey]core.ErrorInfo
	infoErr error
	err     error
	took    time.Duration
	at      time.Time
}

// Watcher reconciles one workspace. Its event loop goroutine owns all mutable
// state; readers only see published Environment snapshots.
type Watcher struct {
	ws       core.Workspace
	provider lifecycle.Provider
	engine   *cost.Engine
	cfg      Config
	log      *zap.Logger

	snap    atomic.Pointer[Environment]
	events  chan Event
	refresh chan struct{}
	results chan pollResult

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewWatcher(ws core.Workspace, provider lifecycle.Provider, engine *cost.Engine, cfg Config, log *zap.Logger) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = 2 * time.Minute
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 16
	}
	w := &Watcher{
		ws:       ws,
		provider: provider,
		engine:   engine,
		cfg:      cfg,
		log:      observability.GroupLogger(log, ws.Key(), string(ws.CloudProvider)),
		events:   make(chan Event, cfg.EventBuffer),
		refresh:  make(chan struct{}, 1),
		results:  make(chan pollResult),
		done:     make(chan struct{}),
	}
	w.snap.Store(&Environment{
		Workspace:              ws,
		State:                  StateIdle,
		Apps:                   []AppView{},
		TotalHourlyCost:        cost.Estimate(math.NaN()),
		TotalHourlyCostDisplay: cost.Unknown,
	})
	return w
}

func (w *Watcher) Workspace() core.Workspace { return w.ws }

// Snapshot returns the latest published view. Callers must not modify it.
func (w *Watcher) Snapshot() *Environment { return w.snap.Load() }

// Events is closed when the watcher stops. Events are dropped when the
// buffer is full.
func (w *Watcher) Events() <-chan Event { return w.events }

// Start launches the event loop and an immediate poll. Later calls are no-ops.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		ctx, w.cancel = context.WithCancel(ctx)
		go w.run(ctx)
	})
}

// Stop cancels any in-flight fetch and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.startOnce.Do(func() {
			close(w.events)
			close(w.done)
		})
		if w.cancel != nil {
			w.cancel()
		}
	})
	<-w.done
}

// Refresh supersedes any in-flight fetch with a new one. From Terminal it
// resumes polling.
func (w *Watcher) Refresh() {
	select {
	case w.refresh <- struct{}{}:
	default:
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.events)

	var (
		gen      uint64
		inflight context.CancelFunc
		state    = StatePolling
		version  uint64
		fp       string
		last     Resources
		infos    = map[core.ResourceKey]core.ErrorInfo{}
	)
	provider := string(w.ws.CloudProvider)

	publish := func(env Environment) {
		env.State = state
		volatile := env
		volatile.Version = 0
		volatile.FetchedAt = time.Time{}
		if next := core.Fingerprint(volatile); next != fp {
			fp = next
			version++
			env.Version = version
			w.emit(Event{Type: EventUpdated, Version: version})
		}
		env.Version = version
		w.snap.Store(&env)
	}
	issue := func() {
		if inflight != nil {
			inflight()
		}
		gen++
		known := make(map[core.ResourceKey]bool, len(infos))
		for k := range infos {
			known[k] = true
		}
		fctx, cancel := context.WithCancel(ctx)
		inflight = cancel
		go w.fetch(fctx, gen, known)
	}

	publish(*w.snap.Load())
	w.log.Info("watch started")
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if inflight != nil {
				inflight()
			}
			w.log.Info("watch stopped")
			return

		case <-timer.C:
			if state == StatePolling {
				issue()
			}

		case <-w.refresh:
			timer.Stop()
			if state == StateTerminal {
				state = StatePolling
				w.log.Info("polling resumed")
			}
			issue()

		case r := <-w.results:
			if r.gen != gen {
				observability.PollStaleDiscardedTotal.Inc()
				continue
			}
			inflight()
			inflight = nil

			if r.err != nil {
				observability.PollTotal.WithLabelValues(provider, "error").Inc()
				w.log.Warn("poll failed", zap.Error(r.err))
				env := *w.snap.Load()
				env.LastError = r.err.Error()
				publish(env)
				w.emit(Event{Type: EventFetchFailed, Version: version, Reason: env.LastError})
				timer.Reset(w.cfg.PollInterval)
				continue
			}
			observability.PollTotal.WithLabelValues(provider, "ok").Inc()
			observability.PollDuration.WithLabelValues(provider).Observe(r.took.Seconds())

			current := currentResources(r.res)
			next := make(map[core.ResourceKey]core.ErrorInfo)
			for _, c := range current {
				if c.CurrentStatus() != core.StatusError {
					continue
				}
				if info, ok := infos[c.Key()]; ok {
					next[c.Key()] = info
				} else if info, ok := r.infos[c.Key()]; ok {
					next[c.Key()] = info
				}
			}
			infos = next

			gone := vanished(last, r.res)
			reason := ""
			if allErrored(current) && r.infoErr == nil {
				reason = ReasonError
			} else if len(gone) > 0 && live(r.res) == 0 {
				reason = ReasonDeleted
			}
			last = r.res
			if reason != "" {
				state = StateTerminal
			}

			env := Derive(w.ws, r.res, w.engine, infos)
			env.Loaded = true
			env.FetchedAt = r.at
			if r.infoErr != nil {
				w.log.Warn("error info fetch failed", zap.Error(r.infoErr))
				env.LastError = r.infoErr.Error()
			}
			publish(env)

			for _, k := range gone {
				w.log.Info("resource deleted", zap.String("resource", k.String()))
				w.emit(Event{Type: EventDeleted, Version: version, Reason: k.String()})
			}
			if reason != "" {
				observability.GroupTerminalTotal.WithLabelValues(reason).Inc()
				w.emit(Event{Type: EventTerminal, Version: version, Reason: reason})
				w.log.Info("polling stopped", zap.String("reason", reason))
				continue
			}
			if anyTransitional(r.res) || r.infoErr != nil {
				timer.Reset(w.cfg.PollInterval)
			} else {
				timer.Reset(w.cfg.IdleInterval)
			}
		}
	}
}

// vanished lists the resources that were deleting in prev and are absent
// from next, sorted by key.
func vanished(prev, next Resources) []core.ResourceKey {
	var out []core.ResourceKey
	for k := range deletingKeys(prev) {
		if !present(next, k) {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// fetch lists the workspace in parallel, then classifies newly errored
// resources. A superseded fetch drops its result.
func (w *Watcher) fetch(ctx context.Context, gen uint64, known map[core.ResourceKey]bool) {
	start := time.Now()
	r := pollResult{gen: gen}
	f := lifecycle.ListFilter{Workspace: w.ws, CreatorOnly: true}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		r.res.Runtimes, err = w.provider.ListRuntimes(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		r.res.Apps, err = w.provider.ListApps(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		r.res.Disks, err = w.provider.ListDisks(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		r.err = err
	} else {
		r.infos, r.infoErr = w.errorInfos(ctx, r.res, known)
	}
	r.took = time.Since(start)
	r.at = time.Now().UTC()

	if ctx.Err() != nil {
		observability.PollStaleDiscardedTotal.Inc()
		return
	}
	select {
	case w.results <- r:
	case <-ctx.Done():
		observability.PollStaleDiscardedTotal.Inc()
	}
}

func (w *Watcher) errorInfos(ctx context.Context, res Resources, known map[core.ResourceKey]bool) (map[core.ResourceKey]core.ErrorInfo, error) {
	out := make(map[core.ResourceKey]core.ErrorInfo)
	var errs []error
	for _, c := range currentResources(res) {
		if c.CurrentStatus() != core.StatusError || known[c.Key()] {
			continue
		}
		info, err := w.provider.ErrorInfo(ctx, c)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[c.Key()] = info
	}
	return out, errors.Join(errs...)
}

func (w *Watcher) emit(e Event) {
	e.Workspace = w.ws.Key()
	e.At = time.Now().UTC()
	select {
	case w.events <- e:
	default:
		w.log.Debug("event dropped", zap.String("type", string(e.Type)))
	}
}
