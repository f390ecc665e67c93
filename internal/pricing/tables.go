// Package pricing holds the immutable per-region price tables the cost engine
// reads. Tables are assembled once through a Builder and never modified
// afterwards; every lookup reports a miss instead of failing.
package pricing

import (
	"context"
	"sort"
	"strings"

	"github.com/lzjever/cloudenv/internal/core"
)

// Kind names the dimension a price entry is keyed by.
type Kind string

const (
	KindCPU              Kind = "cpu"                // per vCPU-hour, sku = machine family
	KindRAM              Kind = "ram"                // per GB-hour, sku = machine family
	KindPreemptibleCPU   Kind = "preemptible_cpu"    // per vCPU-hour
	KindPreemptibleRAM   Kind = "preemptible_ram"    // per GB-hour
	KindGPU              Kind = "gpu"                // per GPU-hour, sku = gpu type
	KindPreemptibleGPU   Kind = "preemptible_gpu"    // per GPU-hour
	KindDiskMonthly      Kind = "disk_monthly"       // per GB-month, sku = disk type
	KindEphemeralIP      Kind = "ephemeral_ip"       // per hour, sku = standard | preemptible
	KindDataprocCPU      Kind = "dataproc_cpu"       // per vCPU-hour surcharge
	KindAzureVM          Kind = "azure_vm"           // per hour, sku = vm size
	KindAzureDiskMonthly Kind = "azure_disk_monthly" // per month, sku = disk tier
)

const (
	IPStandard    = "standard"
	IPPreemptible = "preemptible"
)

// Entry is one price: (kind, region, sku) -> price. Region is empty for
// entries that are not region-specific.
type Entry struct {
	Kind   Kind
	Region string
	SKU    string
	Price  float64
}

type MachineType struct {
	Name     string
	CPU      int
	MemoryGB float64
}

// Family is the machine-type prefix that price entries are keyed by, e.g. "n1".
func (m MachineType) Family() string {
	if i := strings.IndexByte(m.Name, '-'); i > 0 {
		return m.Name[:i]
	}
	return m.Name
}

// AzureDiskTier is a managed-disk size class; a disk is billed at the smallest
// tier that fits it.
type AzureDiskTier struct {
	Name   string
	SizeGB int
}

// Source loads a complete set of tables. It is called once at process start.
type Source interface {
	Load(ctx context.Context) (*Tables, error)
}

type entryKey struct {
	kind   Kind
	region string
	sku    string
}

// Tables is read-only after Build.
type Tables struct {
	machines   map[string]MachineType
	entries    map[entryKey]float64
	azureTiers []AzureDiskTier
}

type Builder struct {
	machines   map[string]MachineType
	entries    map[entryKey]float64
	azureTiers []AzureDiskTier
}

func NewBuilder() *Builder {
	return &Builder{
		machines: make(map[string]MachineType),
		entries:  make(map[entryKey]float64),
	}
}

func (b *Builder) AddMachineType(m MachineType) *Builder {
	b.machines[strings.ToLower(m.Name)] = m
	return b
}

func (b *Builder) Add(e Entry) *Builder {
	b.entries[key(e.Kind, e.Region, e.SKU)] = e.Price
	return b
}

func (b *Builder) AddAzureDiskTier(t AzureDiskTier) *Builder {
	b.azureTiers = append(b.azureTiers, t)
	return b
}

// Build copies the accumulated data so later builder calls cannot reach the tables.
func (b *Builder) Build() *Tables {
	t := &Tables{
		machines:   make(map[string]MachineType, len(b.machines)),
		entries:    make(map[entryKey]float64, len(b.entries)),
		azureTiers: append([]AzureDiskTier(nil), b.azureTiers...),
	}
	for k, v := range b.machines {
		t.machines[k] = v
	}
	for k, v := range b.entries {
		t.entries[k] = v
	}
	sort.SliceStable(t.azureTiers, func(i, j int) bool { return t.azureTiers[i].SizeGB < t.azureTiers[j].SizeGB })
	return t
}

// Region and SKU lookups ignore case: the control plane reports "us-central1"
// and "US-CENTRAL1" interchangeably.
func key(kind Kind, region, sku string) entryKey {
	return entryKey{kind: kind, region: strings.ToUpper(strings.TrimSpace(region)), sku: strings.ToLower(strings.TrimSpace(sku))}
}

func (t *Tables) MachineType(name string) (MachineType, bool) {
	m, ok := t.machines[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// Price looks up a single entry.
func (t *Tables) Price(kind Kind, region, sku string) (float64, bool) {
	p, ok := t.entries[key(kind, region, sku)]
	return p, ok
}

// DiskMonthlyPerGB is the GB-month price of a GCP disk type.
func (t *Tables) DiskMonthlyPerGB(region string, diskType core.DiskType) (float64, bool) {
	if diskType == "" {
		diskType = core.DiskTypeStandard
	}
	return t.Price(KindDiskMonthly, region, string(diskType))
}

// AzureDiskTierFor picks the smallest tier at least sizeGB large.
func (t *Tables) AzureDiskTierFor(sizeGB int) (AzureDiskTier, bool) {
	for _, tier := range t.azureTiers {
		if tier.SizeGB >= sizeGB {
			return tier, true
		}
	}
	return AzureDiskTier{}, false
}

// Entries returns every price entry, sorted, for inspection and export.
func (t *Tables) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for k, v := range t.entries {
		out = append(out, Entry{Kind: k.kind, Region: k.region, SKU: k.sku, Price: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].SKU < out[j].SKU
	})
	return out
}

func (t *Tables) MachineTypes() []MachineType {
	out := make([]MachineType, 0, len(t.machines))
	for _, m := range t.machines {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (t *Tables) AzureDiskTiers() []AzureDiskTier {
	return append([]AzureDiskTier(nil), t.azureTiers...)
}
