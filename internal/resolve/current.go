// Package resolve derives the "current" runtime, app and disk of a workspace
// from the raw lists the control plane returns. Nothing here mutates its
// input or fails.
package resolve

import (
	"sort"

	"github.com/lzjever/cloudenv/internal/core"
)

// Current returns the newest resource by creation date. Deleting and
// PreDeleting resources are skipped unless includeDeleting is set. Equal
// creation dates keep their input order, so the later element wins.
func Current[T core.ComputeResource](resources []T, includeDeleting bool) (T, bool) {
	candidates := make([]T, 0, len(resources))
	for _, r := range resources {
		if !includeDeleting && r.CurrentStatus().IsDeleting() {
			continue
		}
		candidates = append(candidates, r)
	}
	var zero T
	if len(candidates) == 0 {
		return zero, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt().Before(candidates[j].CreatedAt())
	})
	return candidates[len(candidates)-1], true
}

// CurrentRuntime picks the workspace's current runtime.
func CurrentRuntime(runtimes []core.Runtime, includeDeleting bool) (core.Runtime, bool) {
	return Current(runtimes, includeDeleting)
}

// CurrentApp picks the current app of one type.
func CurrentApp(appType core.AppType, apps []core.App, includeDeleting bool) (core.App, bool) {
	return Current(AppsOfType(appType, apps), includeDeleting)
}

// AppsOfType filters apps by type into a new slice.
func AppsOfType(appType core.AppType, apps []core.App) []core.App {
	var out []core.App
	for _, a := range apps {
		if t, ok := core.ParseAppType(string(a.AppType)); ok && t == appType {
			out = append(out, a)
		}
	}
	return out
}

// AppTypes lists the distinct app types present, in first-seen order.
func AppTypes(apps []core.App) []core.AppType {
	seen := make(map[core.AppType]bool)
	var out []core.AppType
	for _, a := range apps {
		t, ok := core.ParseAppType(string(a.AppType))
		if !ok || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
