package reconcile

import (
	"context"
	"fmt"
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/zap"

	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/cost"
	"github.com/lzjever/cloudenv/internal/lifecycle"
	"github.com/lzjever/cloudenv/internal/observability"
)

// Manager holds one independent Watcher per workspace key.
type Manager struct {
	ctx      context.Context
	provider lifecycle.Provider
	engine   *cost.Engine
	cfg      Config
	log      *zap.Logger
	watchers *cmap.ConcurrentMap[string, *Watcher] // workspace key -> watcher
}

// NewManager binds watcher lifetimes to ctx.
func NewManager(ctx context.Context, provider lifecycle.Provider, engine *cost.Engine, cfg Config, log *zap.Logger) *Manager {
	watchers := cmap.New[*Watcher]()
	return &Manager{
		ctx:      ctx,
		provider: provider,
		engine:   engine,
		cfg:      cfg,
		log:      log,
		watchers: &watchers,
	}
}

// Watch starts reconciling ws, or returns the existing watcher for its key.
// The bool is false when the workspace was already watched.
func (m *Manager) Watch(ws core.Workspace) (*Watcher, bool, error) {
	if err := ws.Validate(); err != nil {
		return nil, false, err
	}
	for {
		w := NewWatcher(ws, m.provider, m.engine, m.cfg, m.log)
		if m.watchers.SetIfAbsent(ws.Key(), w) {
			w.Start(m.ctx)
			observability.WatchedGroups.Set(float64(m.watchers.Count()))
			return w, true, nil
		}
		existing, ok := m.watchers.Get(ws.Key())
		if !ok {
			continue
		}
		if existing.Workspace() != ws {
			return nil, false, core.NewAppError(core.ErrConflict, fmt.Sprintf("workspace %s is already watched with a different identity", ws.Key()))
		}
		return existing, false, nil
	}
}

func (m *Manager) Unwatch(key string) error {
	w, ok := m.watchers.Pop(key)
	if !ok {
		return notWatched(key)
	}
	w.Stop()
	observability.WatchedGroups.Set(float64(m.watchers.Count()))
	return nil
}

func (m *Manager) Get(key string) (*Watcher, error) {
	w, ok := m.watchers.Get(key)
	if !ok {
		return nil, notWatched(key)
	}
	return w, nil
}

// List returns watchers ordered by workspace key.
func (m *Manager) List() []*Watcher {
	items := m.watchers.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Watcher, 0, len(keys))
	for _, k := range keys {
		out = append(out, items[k])
	}
	return out
}

// Close stops every watcher.
func (m *Manager) Close() {
	for _, key := range m.watchers.Keys() {
		if w, ok := m.watchers.Pop(key); ok {
			w.Stop()
		}
	}
	observability.WatchedGroups.Set(0)
}

func notWatched(key string) error {
	return core.NewAppError(core.ErrNotWatched, fmt.Sprintf("workspace %s is not watched", key))
}
