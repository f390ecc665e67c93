package pricing

import (
	"context"
	"fmt"
	"sync"
)

// GPU type names as the control plane reports them.
const (
	GPUTeslaT4   = "nvidia-tesla-t4"
	GPUTeslaP4   = "nvidia-tesla-p4"
	GPUTeslaK80  = "nvidia-tesla-k80"
	GPUTeslaV100 = "nvidia-tesla-v100"
	GPUTeslaP100 = "nvidia-tesla-p100"
)

// HoursPerMonth converts monthly list prices to hourly ones.
const HoursPerMonth = 730

// t4, p4, k80, v100, p100; zero means not offered in the region.
type gpuPrices [5]float64

var gpuOrder = [5]string{GPUTeslaT4, GPUTeslaP4, GPUTeslaK80, GPUTeslaV100, GPUTeslaP100}

type regionRow struct {
	region                         string
	standardDisk, ssdDisk          float64
	balancedDisk                   float64
	cpu, ram                       float64
	preemptibleCPU, preemptibleRAM float64
	gpu, preemptibleGPU            gpuPrices
}

var gcpRegions = []regionRow{
	{"US-CENTRAL1", 0.04, 0.17, 0.1, 0.031611, 0.004237, 0.006655, 0.000892, gpuPrices{0.35, 0.6, 0.45, 2.48, 1.46}, gpuPrices{0.11, 0.216, 0.0375, 0.74, 0.43}},
	{"US-EAST1", 0.04, 0.17, 0.1, 0.031611, 0.004237, 0.006655, 0.000892, gpuPrices{0.35, 0, 0.45, 2.48, 1.46}, gpuPrices{0.11, 0, 0.0375, 0.74, 0.43}},
	{"US-EAST4", 0.045, 0.1914, 0.1126, 0.035594, 0.004771, 0.007494, 0.001004, gpuPrices{0.3941, 0.6756, 0, 0, 0}, gpuPrices{0.1239, 0.2432, 0, 0, 0}},
	{"US-WEST1", 0.04, 0.17, 0.1, 0.031611, 0.004237, 0.006655, 0.000892, gpuPrices{0.35, 0, 0.45, 2.48, 1.46}, gpuPrices{0.11, 0, 0.0375, 0.74, 0.43}},
	{"US-WEST2", 0.048, 0.204, 0.12, 0.037933, 0.005084, 0.007986, 0.00107, gpuPrices{0.42, 0.72, 0, 0, 0}, gpuPrices{0.132, 0.2592, 0, 0, 0}},
	{"US-WEST3", 0.048, 0.204, 0.12, 0.037933, 0.005084, 0.007986, 0.00107, gpuPrices{0, 0, 0, 0, 0}, gpuPrices{0, 0, 0, 0, 0}},
	{"US-WEST4", 0.045, 0.1914, 0.1126, 0.035594, 0.004771, 0.007494, 0.001004, gpuPrices{0.3941, 0, 0, 0, 0}, gpuPrices{0.1239, 0, 0, 0, 0}},
	{"NORTHAMERICA-NORTHEAST1", 0.044, 0.187, 0.11, 0.034772, 0.004661, 0.007321, 0.000981, gpuPrices{0.385, 0.66, 0, 0, 0}, gpuPrices{0.121, 0.2376, 0, 0, 0}},
	{"NORTHAMERICA-NORTHEAST2", 0.044, 0.187, 0.11, 0.034772, 0.004661, 0.007321, 0.000981, gpuPrices{0, 0, 0, 0, 0}, gpuPrices{0, 0, 0, 0, 0}},
	{"SOUTHAMERICA-EAST1", 0.0635, 0.2698, 0.1587, 0.050167, 0.006724, 0.010561, 0.001416, gpuPrices{0.5554, 0, 0, 0, 0}, gpuPrices{0.1746, 0, 0, 0, 0}},
	{"EUROPE-WEST1", 0.044, 0.187, 0.11, 0.034772, 0.004661, 0.007321, 0.000981, gpuPrices{0.385, 0, 0.495, 0, 1.606}, gpuPrices{0.121, 0, 0.0413, 0, 0.473}},
	{"EUROPE-WEST2", 0.0515, 0.219, 0.1288, 0.040715, 0.005457, 0.008572, 0.001149, gpuPrices{0.4508, 0, 0, 0, 0}, gpuPrices{0.1417, 0, 0, 0, 0}},
	{"EUROPE-WEST3", 0.0515, 0.219, 0.1288, 0.040715, 0.005457, 0.008572, 0.001149, gpuPrices{0.4508, 0, 0, 0, 0}, gpuPrices{0.1417, 0, 0, 0, 0}},
	{"EUROPE-WEST4", 0.044, 0.187, 0.11, 0.034772, 0.004661, 0.007321, 0.000981, gpuPrices{0.385, 0.66, 0, 2.728, 1.606}, gpuPrices{0.121, 0.2376, 0, 0.814, 0.473}},
	{"EUROPE-WEST6", 0.0559, 0.2375, 0.1397, 0.044161, 0.005919, 0.009297, 0.001246, gpuPrices{0, 0, 0, 0, 0}, gpuPrices{0, 0, 0, 0, 0}},
	{"EUROPE-NORTH1", 0.044, 0.187, 0.11, 0.034772, 0.004661, 0.007321, 0.000981, gpuPrices{0, 0, 0, 0, 0}, gpuPrices{0, 0, 0, 0, 0}},
	{"EUROPE-CENTRAL2", 0.0515, 0.219, 0.1288, 0.040715, 0.005457, 0.008572, 0.001149, gpuPrices{0, 0, 0, 0, 0}, gpuPrices{0, 0, 0, 0, 0}},
	{"ASIA-EAST1", 0.0463, 0.1969, 0.1158, 0.036606, 0.004906, 0.007706, 0.001033, gpuPrices{0.4053, 0, 0.5211, 2.8718, 1.6907}, gpuPrices{0.1274, 0, 0.0434, 0.8569, 0.4979}},
	{"ASIA-EAST2", 0.0556, 0.2363, 0.139, 0.043939, 0.005889, 0.00925, 0.00124, gpuPrices{0, 0, 0, 0, 0}, gpuPrices{0, 0, 0, 0, 0}},
	{"ASIA-NORTHEAST1", 0.0514, 0.2185, 0.1285, 0.04062, 0.005445, 0.008552, 0.001146, gpuPrices{0.4497, 0, 0, 0, 0}, gpuPrices{0.1414, 0, 0, 0, 0}},
	{"ASIA-NORTHEAST2", 0.0514, 0.2185, 0.1285, 0.04062, 0.005445, 0.008552, 0.001146, gpuPrices{0, 0, 0, 0, 0}, gpuPrices{0, 0, 0, 0, 0}},
	{"ASIA-NORTHEAST3", 0.0514, 0.2185, 0.1285, 0.04062, 0.005445, 0.008552, 0.001146, gpuPrices{0.4497, 0, 0, 0, 0}, gpuPrices{0.1414, 0, 0, 0, 0}},
	{"ASIA-SOUTH1", 0.048, 0.204, 0.12, 0.037933, 0.005084, 0.007986, 0.00107, gpuPrices{0.42, 0, 0, 0, 0}, gpuPrices{0.132, 0, 0, 0, 0}},
	{"ASIA-SOUTHEAST1", 0.0493, 0.2096, 0.1233, 0.038976, 0.005224, 0.008206, 0.0011, gpuPrices{0.4315, 0.7398, 0, 0, 0}, gpuPrices{0.1356, 0.2663, 0, 0, 0}},
	{"ASIA-SOUTHEAST2", 0.0538, 0.2287, 0.1345, 0.042517, 0.005699, 0.008951, 0.0012, gpuPrices{0.4707, 0, 0, 0, 0}, gpuPrices{0.1479, 0, 0, 0, 0}},
	{"AUSTRALIA-SOUTHEAST1", 0.0567, 0.2411, 0.1418, 0.044824, 0.006008, 0.009437, 0.001265, gpuPrices{0.4963, 0.8508, 0, 0, 0}, gpuPrices{0.156, 0.3063, 0, 0, 0}},
}

var machineFamilies = []struct {
	prefix    string
	memPerCPU float64
	cpus      []int
}{
	{"n1-standard", 3.75, []int{1, 2, 4, 8, 16, 32, 64, 96}},
	{"n1-highmem", 6.5, []int{2, 4, 8, 16, 32, 64, 96}},
	{"n1-highcpu", 0.9, []int{2, 4, 8, 16, 32, 64, 96}},
}

type azureRegion struct {
	region string
	vm     map[string]float64
	disk   map[string]float64
}

var azureDiskTiers = []AzureDiskTier{
	{"E1", 4}, {"E2", 8}, {"E3", 16}, {"E4", 32}, {"E6", 64}, {"E10", 128},
	{"E15", 256}, {"E20", 512}, {"E30", 1024}, {"E40", 2048}, {"E50", 4096},
}

var azureRegions = []azureRegion{
	{
		region: "eastus",
		vm: map[string]float64{
			"Standard_DS1_v2": 0.073, "Standard_DS2_v2": 0.146, "Standard_DS3_v2": 0.293,
			"Standard_DS4_v2": 0.585, "Standard_DS5_v2": 1.17,
			"Standard_D2s_v3": 0.096, "Standard_D4s_v3": 0.192, "Standard_D8s_v3": 0.384,
			"Standard_E4s_v3": 0.252, "Standard_E8s_v3": 0.504,
			"Standard_NC6s_v3": 3.06,
		},
		disk: map[string]float64{
			"E1": 0.3, "E2": 0.6, "E3": 1.2, "E4": 2.4, "E6": 4.8, "E10": 9.6,
			"E15": 19.2, "E20": 38.4, "E30": 76.8, "E40": 153.6, "E50": 307.2,
		},
	},
	{
		region: "westus2",
		vm: map[string]float64{
			"Standard_DS1_v2": 0.073, "Standard_DS2_v2": 0.146, "Standard_DS3_v2": 0.293,
			"Standard_DS4_v2": 0.585, "Standard_DS5_v2": 1.17,
			"Standard_D2s_v3": 0.096, "Standard_D4s_v3": 0.192, "Standard_D8s_v3": 0.384,
			"Standard_E4s_v3": 0.252, "Standard_E8s_v3": 0.504,
		},
		disk: map[string]float64{
			"E1": 0.3, "E2": 0.6, "E3": 1.2, "E4": 2.4, "E6": 4.8, "E10": 9.6,
			"E15": 19.2, "E20": 38.4, "E30": 76.8, "E40": 153.6, "E50": 307.2,
		},
	},
	{
		region: "westeurope",
		vm: map[string]float64{
			"Standard_DS1_v2": 0.087, "Standard_DS2_v2": 0.175, "Standard_DS3_v2": 0.35,
			"Standard_DS4_v2": 0.7, "Standard_DS5_v2": 1.4,
			"Standard_D2s_v3": 0.115, "Standard_D4s_v3": 0.23, "Standard_D8s_v3": 0.46,
		},
		disk: map[string]float64{
			"E1": 0.33, "E2": 0.66, "E3": 1.32, "E4": 2.64, "E6": 5.28, "E10": 10.56,
			"E15": 21.12, "E20": 42.24, "E30": 84.48, "E40": 168.96, "E50": 337.92,
		},
	},
}

var static = sync.OnceValue(func() *Tables {
	b := NewBuilder()
	for _, fam := range machineFamilies {
		for _, cpu := range fam.cpus {
			b.AddMachineType(MachineType{
				Name:     fmt.Sprintf("%s-%d", fam.prefix, cpu),
				CPU:      cpu,
				MemoryGB: fam.memPerCPU * float64(cpu),
			})
		}
	}
	for _, r := range gcpRegions {
		b.Add(Entry{Kind: KindDiskMonthly, Region: r.region, SKU: "pd-standard", Price: r.standardDisk})
		b.Add(Entry{Kind: KindDiskMonthly, Region: r.region, SKU: "pd-ssd", Price: r.ssdDisk})
		b.Add(Entry{Kind: KindDiskMonthly, Region: r.region, SKU: "pd-balanced", Price: r.balancedDisk})
		b.Add(Entry{Kind: KindCPU, Region: r.region, SKU: "n1", Price: r.cpu})
		b.Add(Entry{Kind: KindRAM, Region: r.region, SKU: "n1", Price: r.ram})
		b.Add(Entry{Kind: KindPreemptibleCPU, Region: r.region, SKU: "n1", Price: r.preemptibleCPU})
		b.Add(Entry{Kind: KindPreemptibleRAM, Region: r.region, SKU: "n1", Price: r.preemptibleRAM})
		for i, gpu := range gpuOrder {
			if r.gpu[i] > 0 {
				b.Add(Entry{Kind: KindGPU, Region: r.region, SKU: gpu, Price: r.gpu[i]})
			}
			if r.preemptibleGPU[i] > 0 {
				b.Add(Entry{Kind: KindPreemptibleGPU, Region: r.region, SKU: gpu, Price: r.preemptibleGPU[i]})
			}
		}
	}
	b.Add(Entry{Kind: KindEphemeralIP, SKU: IPStandard, Price: 0.004})
	b.Add(Entry{Kind: KindEphemeralIP, SKU: IPPreemptible, Price: 0.002})
	b.Add(Entry{Kind: KindDataprocCPU, Price: 0.01})

	for _, t := range azureDiskTiers {
		b.AddAzureDiskTier(t)
	}
	for _, r := range azureRegions {
		for sku, p := range r.vm {
			b.Add(Entry{Kind: KindAzureVM, Region: r.region, SKU: sku, Price: p})
		}
		for tier, p := range r.disk {
			b.Add(Entry{Kind: KindAzureDiskMonthly, Region: r.region, SKU: tier, Price: p})
		}
	}
	return b.Build()
})

// Static returns the built-in tables. The same pointer is returned on every call.
func Static() *Tables { return static() }

// StaticSource serves the built-in tables.
type StaticSource struct{}

func (StaticSource) Load(context.Context) (*Tables, error) { return Static(), nil }
