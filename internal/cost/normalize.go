package cost

import (
	"strings"

	"github.com/lzjever/cloudenv/internal/core"
)

const (
	DefaultGCEMachineType      = "n1-standard-1"
	DefaultDataprocMachineType = "n1-standard-4"
	DefaultGCEBootDiskSize     = 250
	DefaultPersistentDiskSize  = 50
	DefaultDataprocDiskSize    = 150
	DefaultRegion              = "US-CENTRAL1"
	DefaultAzureRegion         = "eastus"

	// DefaultNodepoolMachineType is the always-on node every Kubernetes app shares.
	DefaultNodepoolMachineType = "n1-standard-1"
)

// RuntimeShape is a runtime configuration with every default applied.
type RuntimeShape struct {
	CloudService               core.CloudService
	Region                     string
	MasterMachineType          string
	MasterDiskSize             int
	BootDiskSize               int
	NumberOfWorkers            int
	NumberOfPreemptibleWorkers int
	WorkerMachineType          string
	WorkerDiskSize             int
	GPU                        *core.GPUConfig
	PersistentDiskAttached     bool
}

// Normalize fills in the control plane's defaults. Worker fields are only
// meaningful for Dataproc clusters with at least one worker; preemptible
// workers require standard workers.
func Normalize(rc core.RuntimeConfig) RuntimeShape {
	svc := rc.CloudService
	if svc == "" {
		svc = core.CloudServiceGCE
	}
	dataproc := svc == core.CloudServiceDataproc

	s := RuntimeShape{
		CloudService:           svc,
		Region:                 regionOf(rc),
		MasterMachineType:      firstNonEmpty(rc.MasterMachineType, rc.MachineType, defaultMachineType(svc)),
		PersistentDiskAttached: rc.PersistentDiskID != 0 || rc.DiskName != "",
		WorkerMachineType:      DefaultDataprocMachineType,
		WorkerDiskSize:         DefaultDataprocDiskSize,
	}

	switch {
	case rc.MasterDiskSize > 0:
		s.MasterDiskSize = rc.MasterDiskSize
	case dataproc && rc.DiskSize > 0:
		s.MasterDiskSize = rc.DiskSize
	case dataproc:
		s.MasterDiskSize = DefaultDataprocDiskSize
	}

	switch {
	case rc.BootDiskSize > 0:
		s.BootDiskSize = rc.BootDiskSize
	case svc == core.CloudServiceGCE && !s.PersistentDiskAttached:
		// Runtimes without a persistent disk keep their data on the boot disk.
		s.BootDiskSize = rc.DiskSize
		if s.BootDiskSize == 0 {
			s.BootDiskSize = DefaultGCEBootDiskSize
		}
	}

	if dataproc && rc.NumberOfWorkers > 0 {
		s.NumberOfWorkers = rc.NumberOfWorkers
		s.NumberOfPreemptibleWorkers = rc.NumberOfPreemptibleWorkers
		if rc.WorkerMachineType != "" {
			s.WorkerMachineType = rc.WorkerMachineType
		}
		if rc.WorkerDiskSize > 0 {
			s.WorkerDiskSize = rc.WorkerDiskSize
		}
	}

	if rc.GPUConfig != nil && rc.GPUConfig.NumOfGPUs > 0 && rc.GPUConfig.GPUType != "" {
		gpu := *rc.GPUConfig
		s.GPU = &gpu
	}
	return s
}

func defaultMachineType(svc core.CloudService) string {
	if svc == core.CloudServiceDataproc {
		return DefaultDataprocMachineType
	}
	return DefaultGCEMachineType
}

func regionOf(rc core.RuntimeConfig) string {
	if rc.CloudService == core.CloudServiceAzureVM {
		return firstNonEmpty(rc.Region, DefaultAzureRegion)
	}
	return strings.ToUpper(firstNonEmpty(rc.Region, RegionFromZone(rc.Zone), DefaultRegion))
}

// RegionFromZone strips the zone suffix: "us-central1-a" -> "US-CENTRAL1".
func RegionFromZone(zone string) string {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return ""
	}
	if i := strings.LastIndexByte(zone, '-'); i > 0 && len(zone)-i == 2 {
		return strings.ToUpper(zone[:i])
	}
	return strings.ToUpper(zone)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
