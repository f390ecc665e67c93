// Package cost estimates what runtimes, apps and disks cost per hour. Every
// function is pure over the injected pricing tables: results are
// non-negative, or NaN when a price is unknown. NaN must be shown as unknown,
// never as free.
package cost

import (
	"math"

	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/pricing"
)

type Engine struct {
	tables *pricing.Tables
}

func NewEngine(tables *pricing.Tables) *Engine {
	return &Engine{tables: tables}
}

func (e *Engine) Tables() *pricing.Tables { return e.tables }

var unknown = math.NaN()

func (e *Engine) price(kind pricing.Kind, region, sku string) float64 {
	p, ok := e.tables.Price(kind, region, sku)
	if !ok {
		return unknown
	}
	return p
}

// MachineHourly is cpu × cpu price + memory × RAM price for the machine's family.
func (e *Engine) MachineHourly(machineType, region string, preemptible bool) float64 {
	m, ok := e.tables.MachineType(machineType)
	if !ok {
		return unknown
	}
	cpuKind, ramKind := pricing.KindCPU, pricing.KindRAM
	if preemptible {
		cpuKind, ramKind = pricing.KindPreemptibleCPU, pricing.KindPreemptibleRAM
	}
	return float64(m.CPU)*e.price(cpuKind, region, m.Family()) + m.MemoryGB*e.price(ramKind, region, m.Family())
}

func (e *Engine) GPUHourly(gpu core.GPUConfig, region string, preemptible bool) float64 {
	if gpu.NumOfGPUs <= 0 {
		return 0
	}
	kind := pricing.KindGPU
	if preemptible {
		kind = pricing.KindPreemptibleGPU
	}
	return float64(gpu.NumOfGPUs) * e.price(kind, region, gpu.GPUType)
}

// EphemeralIPHourly prices external IPs; any VM that is not preemptible is billed as standard.
func (e *Engine) EphemeralIPHourly(standard, preemptible int) float64 {
	var total float64
	if standard > 0 {
		total += float64(standard) * e.price(pricing.KindEphemeralIP, "", pricing.IPStandard)
	}
	if preemptible > 0 {
		total += float64(preemptible) * e.price(pricing.KindEphemeralIP, "", pricing.IPPreemptible)
	}
	return total
}

// dataprocHourly is the CPU-only cluster surcharge for count nodes.
func (e *Engine) dataprocHourly(machineType string, count int) float64 {
	if count <= 0 {
		return 0
	}
	m, ok := e.tables.MachineType(machineType)
	if !ok {
		return unknown
	}
	return float64(m.CPU*count) * e.price(pricing.KindDataprocCPU, "", "")
}

func (e *Engine) standardDiskHourly(region string, sizeGB int) float64 {
	if sizeGB <= 0 {
		return 0
	}
	perGB, ok := e.tables.DiskMonthlyPerGB(region, core.DiskTypeStandard)
	if !ok {
		return unknown
	}
	return perGB * float64(sizeGB) / pricing.HoursPerMonth
}

// DiskMonthly is the monthly storage charge of a disk. Disks that are being
// deleted or failed to create cost nothing.
func (e *Engine) DiskMonthly(d core.PersistentDisk) float64 {
	if !d.Billable() {
		return 0
	}
	switch d.CloudContext.CloudProvider {
	case core.CloudProviderAzure:
		return e.azureDiskMonthly(d)
	case core.CloudProviderGCP:
		perGB, ok := e.tables.DiskMonthlyPerGB(diskRegion(d), d.DiskType)
		if !ok {
			return unknown
		}
		return perGB * float64(d.Size)
	}
	return unknown
}

// DiskHourly is DiskMonthly / 730.
func (e *Engine) DiskHourly(d core.PersistentDisk) float64 {
	return e.DiskMonthly(d) / pricing.HoursPerMonth
}

func diskRegion(d core.PersistentDisk) string {
	if r := RegionFromZone(d.Zone); r != "" {
		return r
	}
	return DefaultRegion
}

// RuntimeBaseCost is what a runtime keeps costing while stopped: its boot
// disk for a VM; master and worker disks plus the per-node Dataproc
// surcharge of the standard nodes for a cluster. Preemptible workers do not
// exist while a cluster is stopped.
func (e *Engine) RuntimeBaseCost(rt core.Runtime) float64 {
	if rt.Provider() == core.CloudProviderAzure {
		return 0
	}
	s := Normalize(rt.RuntimeConfig)
	switch s.CloudService {
	case core.CloudServiceDataproc:
		return e.standardDiskHourly(s.Region, s.MasterDiskSize+s.NumberOfWorkers*s.WorkerDiskSize) +
			e.dataprocHourly(s.MasterMachineType, 1) +
			e.dataprocHourly(s.WorkerMachineType, s.NumberOfWorkers)
	case core.CloudServiceGCE:
		return e.standardDiskHourly(s.Region, s.BootDiskSize)
	}
	return unknown
}

// RuntimeRunningCost is the hourly cost of a runtime that is up.
func (e *Engine) RuntimeRunningCost(rt core.Runtime) float64 {
	if rt.Provider() == core.CloudProviderAzure {
		return e.azureVMHourly(rt)
	}
	s := Normalize(rt.RuntimeConfig)
	total := e.RuntimeBaseCost(rt) +
		e.MachineHourly(s.MasterMachineType, s.Region, false) +
		float64(s.NumberOfWorkers)*e.MachineHourly(s.WorkerMachineType, s.Region, false) +
		e.EphemeralIPHourly(1+s.NumberOfWorkers, s.NumberOfPreemptibleWorkers)
	if s.NumberOfPreemptibleWorkers > 0 {
		node := e.MachineHourly(s.WorkerMachineType, s.Region, true) + e.standardDiskHourly(s.Region, s.WorkerDiskSize)
		total += float64(s.NumberOfPreemptibleWorkers)*node + e.dataprocHourly(s.WorkerMachineType, s.NumberOfPreemptibleWorkers)
	}
	if s.GPU != nil && s.CloudService == core.CloudServiceGCE {
		total += e.GPUHourly(*s.GPU, s.Region, false)
	}
	return total
}

// RuntimeCost applies the status gate: stopped runtimes cost their base,
// deleting or failed ones nothing. Persistent disks are priced separately.
func (e *Engine) RuntimeCost(rt core.Runtime) float64 {
	switch {
	case rt.Status == core.StatusStopped:
		return e.RuntimeBaseCost(rt)
	case rt.Status.IsDeleting(), rt.Status == core.StatusError, rt.Status == core.StatusDeleted:
		return 0
	}
	return e.RuntimeRunningCost(rt)
}

// AppStaticCost is the default nodepool's share: one always-on node plus its IP.
// Every app carries it in full.
func (e *Engine) AppStaticCost(app core.App) float64 {
	if app.Provider() == core.CloudProviderAzure {
		return unknown
	}
	region := appRegion(app)
	return e.MachineHourly(DefaultNodepoolMachineType, region, false) + e.EphemeralIPHourly(1, 0)
}

// AppRunningCost adds the app's own nodepool, each node with its IP.
func (e *Engine) AppRunningCost(app core.App) float64 {
	if app.Provider() == core.CloudProviderAzure {
		return unknown
	}
	k := app.KubernetesRuntimeConfig
	nodes := k.NumNodes
	if nodes < 0 {
		nodes = 0
	}
	dynamic := 0.0
	if nodes > 0 {
		dynamic = float64(nodes)*e.MachineHourly(k.MachineType, appRegion(app), false) + e.EphemeralIPHourly(nodes, 0)
	}
	return e.AppStaticCost(app) + dynamic
}

func (e *Engine) AppCost(app core.App) float64 {
	switch {
	case app.Status == core.StatusStopped:
		return e.AppStaticCost(app)
	case app.Status.IsDeleting(), app.Status == core.StatusError, app.Status == core.StatusDeleted:
		return 0
	}
	return e.AppRunningCost(app)
}

func appRegion(app core.App) string {
	if app.Region == "" {
		return DefaultRegion
	}
	return app.Region
}
