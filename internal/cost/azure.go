package cost

import (
	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/pricing"
)

// Azure VMs are billed by SKU; the persistent disk is priced on its own.
func (e *Engine) azureVMHourly(rt core.Runtime) float64 {
	rc := rt.RuntimeConfig
	if rc.MachineType == "" {
		return unknown
	}
	return e.price(pricing.KindAzureVM, firstNonEmpty(rc.Region, DefaultAzureRegion), rc.MachineType)
}

// Azure managed disks are billed by the smallest tier that holds them.
func (e *Engine) azureDiskMonthly(d core.PersistentDisk) float64 {
	tier, ok := e.tables.AzureDiskTierFor(d.Size)
	if !ok {
		return unknown
	}
	region := d.Zone
	if region == "" {
		region = DefaultAzureRegion
	}
	return e.price(pricing.KindAzureDiskMonthly, region, tier.Name)
}
