package reconcile

import (
	"time"

	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/cost"
	"github.com/lzjever/cloudenv/internal/resolve"
)

type State string

const (
	StateIdle     State = "Idle"
	StatePolling  State = "Polling"
	StateTerminal State = "Terminal"
)

// Resources is one complete fetch of a workspace. Each poll replaces it whole.
type Resources struct {
	Runtimes []core.Runtime        `json:"runtimes"`
	Apps     []core.App            `json:"apps"`
	Disks    []core.PersistentDisk `json:"disks"`
}

type DiskView struct {
	Disk               core.PersistentDisk `json:"disk"`
	HourlyCost         cost.Estimate       `json:"hourlyCost"`
	MonthlyCost        cost.Estimate       `json:"monthlyCost"`
	MonthlyCostDisplay string              `json:"monthlyCostDisplay"`
}

type RuntimeView struct {
	Runtime           core.Runtime   `json:"runtime"`
	ToolType          core.ToolType  `json:"toolType"`
	HourlyCost        cost.Estimate  `json:"hourlyCost"`
	HourlyCostDisplay string         `json:"hourlyCostDisplay"`
	ErrorInfo         core.ErrorInfo `json:"errorInfo,omitempty"`
}

type AppView struct {
	AppType           core.AppType   `json:"appType"`
	App               core.App       `json:"app"`
	HourlyCost        cost.Estimate  `json:"hourlyCost"`
	HourlyCostDisplay string         `json:"hourlyCostDisplay"`
	Disk              *DiskView      `json:"disk,omitempty"`
	ErrorInfo         core.ErrorInfo `json:"errorInfo,omitempty"`
}

// Environment is the read-only view of one workspace. A published Environment
// is never modified; the watcher replaces it.
type Environment struct {
	Workspace              core.Workspace `json:"workspace"`
	State                  State          `json:"state"`
	Version                uint64         `json:"version"`
	Loaded                 bool           `json:"loaded"`
	FetchedAt              time.Time      `json:"fetchedAt"`
	LastError              string         `json:"lastError,omitempty"`
	Runtime                *RuntimeView   `json:"runtime,omitempty"`
	RuntimeDisk            *DiskView      `json:"runtimeDisk,omitempty"`
	Apps                   []AppView      `json:"apps"`
	TotalHourlyCost        cost.Estimate  `json:"totalHourlyCost"`
	TotalHourlyCostDisplay string         `json:"totalHourlyCostDisplay"`
	Resources              Resources      `json:"resources"`
}

// Derive builds the current view from a fetch. It is recomputed from scratch
// on every poll and does not touch its inputs.
func Derive(ws core.Workspace, res Resources, eng *cost.Engine, infos map[core.ResourceKey]core.ErrorInfo) Environment {
	env := Environment{
		Workspace: ws,
		Apps:      []AppView{},
		Resources: res,
	}
	var costs []float64

	if rt, ok := displayedRuntime(res.Runtimes); ok {
		c := eng.RuntimeCost(rt)
		env.Runtime = &RuntimeView{
			Runtime:           rt,
			ToolType:          rt.ToolType(),
			HourlyCost:        cost.Estimate(c),
			HourlyCostDisplay: cost.FormatHourly(c),
			ErrorInfo:         infos[rt.Key()],
		}
		costs = append(costs, c)
	}
	if d, ok := resolve.RuntimeDisk(res.Runtimes, res.Disks, ws.Name); ok {
		env.RuntimeDisk = diskView(eng, d)
		costs = append(costs, float64(env.RuntimeDisk.HourlyCost))
	}

	for _, t := range resolve.AppTypes(res.Apps) {
		app, ok := displayedApp(t, res.Apps)
		if !ok {
			continue
		}
		c := eng.AppCost(app)
		v := AppView{
			AppType:           t,
			App:               app,
			HourlyCost:        cost.Estimate(c),
			HourlyCostDisplay: cost.FormatHourly(c),
			ErrorInfo:         infos[app.Key()],
		}
		costs = append(costs, c)
		if d, ok := resolve.AppDisk(t, res.Apps, res.Disks, ws.Name); ok {
			v.Disk = diskView(eng, d)
			costs = append(costs, float64(v.Disk.HourlyCost))
		}
		env.Apps = append(env.Apps, v)
	}

	total := cost.Sum(costs...)
	env.TotalHourlyCost = cost.Estimate(total)
	env.TotalHourlyCostDisplay = cost.FormatHourly(total)
	return env
}

func diskView(eng *cost.Engine, d core.PersistentDisk) *DiskView {
	monthly := eng.DiskMonthly(d)
	return &DiskView{
		Disk:               d,
		HourlyCost:         cost.Estimate(eng.DiskHourly(d)),
		MonthlyCost:        cost.Estimate(monthly),
		MonthlyCostDisplay: cost.FormatMonthly(monthly),
	}
}

// A resource still being deleted is shown only when nothing newer replaces it.
func displayedRuntime(runtimes []core.Runtime) (core.Runtime, bool) {
	if rt, ok := resolve.CurrentRuntime(runtimes, false); ok {
		return rt, true
	}
	return resolve.CurrentRuntime(runtimes, true)
}

func displayedApp(t core.AppType, apps []core.App) (core.App, bool) {
	if a, ok := resolve.CurrentApp(t, apps, false); ok {
		return a, true
	}
	return resolve.CurrentApp(t, apps, true)
}

// currentResources lists the runtime and per-type apps a view would display.
func currentResources(res Resources) []core.ComputeResource {
	var out []core.ComputeResource
	if rt, ok := displayedRuntime(res.Runtimes); ok {
		out = append(out, rt)
	}
	for _, t := range resolve.AppTypes(res.Apps) {
		if a, ok := displayedApp(t, res.Apps); ok {
			out = append(out, a)
		}
	}
	return out
}

func allErrored(current []core.ComputeResource) bool {
	if len(current) == 0 {
		return false
	}
	for _, r := range current {
		if r.CurrentStatus() != core.StatusError {
			return false
		}
	}
	return true
}

func anyTransitional(res Resources) bool {
	for _, r := range res.Runtimes {
		if r.Status.IsTransitional() {
			return true
		}
	}
	for _, a := range res.Apps {
		if a.Status.IsTransitional() {
			return true
		}
	}
	for _, d := range res.Disks {
		switch d.Status {
		case core.DiskCreating, core.DiskRestoring, core.DiskDeleting:
			return true
		}
	}
	return false
}

// deletingKeys collects resources observed mid-deletion.
func deletingKeys(res Resources) map[core.ResourceKey]bool {
	out := make(map[core.ResourceKey]bool)
	for _, r := range res.Runtimes {
		if r.Status.IsDeleting() {
			out[r.Key()] = true
		}
	}
	for _, a := range res.Apps {
		if a.Status.IsDeleting() {
			out[a.Key()] = true
		}
	}
	return out
}

// live counts runtimes and apps that have not finished deleting.
func live(res Resources) int {
	n := 0
	for _, r := range res.Runtimes {
		if r.Status != core.StatusDeleted {
			n++
		}
	}
	for _, a := range res.Apps {
		if a.Status != core.StatusDeleted {
			n++
		}
	}
	return n
}

func present(res Resources, key core.ResourceKey) bool {
	for _, r := range res.Runtimes {
		if r.Key() == key && r.Status != core.StatusDeleted {
			return true
		}
	}
	for _, a := range res.Apps {
		if a.Key() == key && a.Status != core.StatusDeleted {
			return true
		}
	}
	return false
}
