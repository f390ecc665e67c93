package resolve

import (
	"github.com/lzjever/cloudenv/internal/core"
)

// diskIDer is satisfied by resources that reference their disk by ID as well as by name.
type diskIDer interface {
	AttachedDiskID() int64
}

// AppDisk finds the data disk of the current app of appType.
func AppDisk(appType core.AppType, apps []core.App, disks []core.PersistentDisk, workspaceName string) (core.PersistentDisk, bool) {
	return resolveDisk(AppsOfType(appType, apps), apps, disks, workspaceName, func(d core.PersistentDisk) bool {
		t, ok := d.AppType()
		return ok && t == appType
	})
}

// RuntimeDisk finds the persistent disk of the current runtime. Runtime disks
// carry no recognizable application label.
func RuntimeDisk(runtimes []core.Runtime, disks []core.PersistentDisk, workspaceName string) (core.PersistentDisk, bool) {
	return resolveDisk(runtimes, runtimes, disks, workspaceName, func(d core.PersistentDisk) bool {
		_, ok := d.AppType()
		return !ok
	})
}

// resolveDisk implements the affinity order:
//  1. the disk the current resource (deleting included) points at, whatever its labels or status;
//  2. otherwise the newest disk of the right kind labeled for the workspace,
//     not being deleted and not referenced by any resource in all.
func resolveDisk[T core.ComputeResource](candidates, all []T, disks []core.PersistentDisk, workspaceName string, kind func(core.PersistentDisk) bool) (core.PersistentDisk, bool) {
	if current, ok := Current(candidates, true); ok {
		if d, found := attached(current, disks); found {
			return d, true
		}
		if current.AttachedDisk() != "" {
			// The referenced disk is not in the list; do not adopt another one.
			return core.PersistentDisk{}, false
		}
	}

	referenced := make(map[string]bool)
	referencedIDs := make(map[int64]bool)
	for _, r := range all {
		if name := r.AttachedDisk(); name != "" {
			referenced[name] = true
		}
		if ider, ok := any(r).(diskIDer); ok && ider.AttachedDiskID() != 0 {
			referencedIDs[ider.AttachedDiskID()] = true
		}
	}

	var best core.PersistentDisk
	found := false
	for _, d := range disks {
		if d.Status == core.DiskDeleting || d.Status == core.DiskDeleted || referenced[d.Name] || referencedIDs[d.ID] || !kind(d) {
			continue
		}
		if ws, ok := d.WorkspaceName(); !ok || ws != workspaceName {
			continue
		}
		if !found || !d.CreatedAt().Before(best.CreatedAt()) {
			best, found = d, true
		}
	}
	return best, found
}

func attached(r core.ComputeResource, disks []core.PersistentDisk) (core.PersistentDisk, bool) {
	if name := r.AttachedDisk(); name != "" {
		for _, d := range disks {
			if d.Name == name {
				return d, true
			}
		}
	}
	if ider, ok := r.(diskIDer); ok && ider.AttachedDiskID() != 0 {
		for _, d := range disks {
			if d.ID == ider.AttachedDiskID() {
				return d, true
			}
		}
	}
	return core.PersistentDisk{}, false
}
