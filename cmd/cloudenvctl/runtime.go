package main

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/lifecycle"
)

// defaultResourceName matches the names the UI generates for new resources.
func defaultResourceName() string {
	return "saturn-" + uuid.New().String()
}

var runtimeCmd = &cobra.Command{
	Use:     "runtime",
	Aliases: []string{"rt"},
	Short:   "Create, start, stop and delete a workspace's runtime",
}

type runtimeOptions struct {
	name              string
	cloudService      string
	machineType       string
	diskSize          int
	zone              string
	region            string
	gpuType           string
	gpuCount          int
	workers           int
	preemptible       int
	workerMachineType string
	workerDiskSize    int
	pdName            string
	pdSize            int
	pdType            string
	toolImage         string
	autopause         int
}

var (
	rtOpts       runtimeOptions
	rtDeleteDisk bool
)

func (o runtimeOptions) request() lifecycle.CreateRuntimeRequest {
	name := o.name
	if name == "" {
		name = defaultResourceName()
	}
	rc := core.RuntimeConfig{
		CloudService: core.CloudService(strings.ToUpper(o.cloudService)),
		Zone:         o.zone,
		Region:       o.region,
	}
	if rc.CloudService == core.CloudServiceDataproc {
		rc.MasterMachineType = o.machineType
		rc.MasterDiskSize = o.diskSize
		rc.NumberOfWorkers = o.workers
		rc.NumberOfPreemptibleWorkers = o.preemptible
		rc.WorkerMachineType = o.workerMachineType
		rc.WorkerDiskSize = o.workerDiskSize
	} else {
		rc.MachineType = o.machineType
		rc.DiskSize = o.diskSize
	}
	if o.gpuCount > 0 {
		rc.GPUConfig = &core.GPUConfig{GPUType: o.gpuType, NumOfGPUs: o.gpuCount}
	}
	req := lifecycle.CreateRuntimeRequest{
		Name:               name,
		RuntimeConfig:      rc,
		ToolDockerImage:    o.toolImage,
		AutopauseThreshold: o.autopause,
	}
	if o.pdName != "" {
		req.Disk = &lifecycle.DiskConfig{Name: o.pdName, Size: o.pdSize, DiskType: core.DiskType(o.pdType)}
	}
	return req
}

var rtCreateCmd = &cobra.Command{
	Use:   "create <namespace>/<name>",
	Short: "Create a runtime in a watched workspace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := mustWorkspacePath(args[0])
		req := rtOpts.request()
		if err := req.Validate(); err != nil {
			fail(err)
		}
		var resp AcceptedResponse
		if err := NewClient(apiURL).Post(path+"/runtimes", req, &resp); err != nil {
			fail(err)
		}
		printResult(resp)
	},
}

// resourceAction builds the start/stop/delete commands shared by runtimes and apps.
func resourceAction(collection, verb, short string, deleteDisk *bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <namespace>/<name> <resource>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			path := mustWorkspacePath(args[0]) + "/" + collection + "/" + url.PathEscape(args[1])
			client := NewClient(apiURL)

			var resp AcceptedResponse
			var err error
			switch verb {
			case "delete":
				q := url.Values{}
				if deleteDisk != nil && *deleteDisk {
					q.Set("deleteDisk", "true")
				}
				if len(q) > 0 {
					path += "?" + q.Encode()
				}
				err = client.Delete(path, &resp)
			default:
				err = client.Post(path+":"+verb, nil, &resp)
			}
			if err != nil {
				fail(err)
			}
			printResult(resp)
		},
	}
}

func init() {
	f := rtCreateCmd.Flags()
	f.StringVar(&rtOpts.name, "name", "", "Runtime name (default saturn-<uuid>)")
	f.StringVar(&rtOpts.cloudService, "cloud-service", "GCE", "GCE, DATAPROC or AZURE_VM")
	f.StringVar(&rtOpts.machineType, "machine-type", "", "Machine type, or master machine type for Dataproc")
	f.IntVar(&rtOpts.diskSize, "disk-size", 0, "Boot disk size in GB, or master disk size for Dataproc")
	f.StringVar(&rtOpts.zone, "zone", "", "Zone, e.g. us-central1-a")
	f.StringVar(&rtOpts.region, "region", "", "Region, for Dataproc and Azure")
	f.StringVar(&rtOpts.gpuType, "gpu-type", "", "GPU type, e.g. nvidia-tesla-t4")
	f.IntVar(&rtOpts.gpuCount, "gpu-count", 0, "Number of GPUs")
	f.IntVar(&rtOpts.workers, "workers", 0, "Dataproc worker count")
	f.IntVar(&rtOpts.preemptible, "preemptible-workers", 0, "Dataproc preemptible worker count")
	f.StringVar(&rtOpts.workerMachineType, "worker-machine-type", "", "Dataproc worker machine type")
	f.IntVar(&rtOpts.workerDiskSize, "worker-disk-size", 0, "Dataproc worker disk size in GB")
	f.StringVar(&rtOpts.pdName, "pd-name", "", "Persistent disk to create or attach")
	f.IntVar(&rtOpts.pdSize, "pd-size", 0, "Persistent disk size in GB")
	f.StringVar(&rtOpts.pdType, "pd-type", "", "Persistent disk type (pd-standard, pd-ssd, pd-balanced)")
	f.StringVar(&rtOpts.toolImage, "tool-image", "", "Tool docker image")
	f.IntVar(&rtOpts.autopause, "autopause", 0, "Autopause threshold in minutes (0 disables)")

	rtDelete := resourceAction("runtimes", "delete", "Delete a runtime", &rtDeleteDisk)
	rtDelete.Flags().BoolVar(&rtDeleteDisk, "delete-disk", false, "Also delete the attached persistent disk")

	runtimeCmd.AddCommand(
		rtCreateCmd,
		resourceAction("runtimes", "start", "Start a stopped runtime", nil),
		resourceAction("runtimes", "stop", "Stop a running runtime", nil),
		rtDelete,
	)
	rootCmd.AddCommand(runtimeCmd)
}
