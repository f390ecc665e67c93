package main

import (
	"github.com/spf13/cobra"

	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/lifecycle"
)

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Create, start, stop and delete Kubernetes apps",
}

type appOptions struct {
	name        string
	appType     string
	numNodes    int
	machineType string
	autoscale   bool
	pdName      string
	pdSize      int
	env         map[string]string
}

var (
	appOpts       appOptions
	appDeleteDisk bool
)

func (o appOptions) request() lifecycle.CreateAppRequest {
	name := o.name
	if name == "" {
		name = defaultResourceName()
	}
	req := lifecycle.CreateAppRequest{
		Name:                       name,
		AppType:                    core.AppType(o.appType),
		CustomEnvironmentVariables: o.env,
	}
	if o.numNodes > 0 || o.machineType != "" {
		req.KubernetesRuntimeConfig = &core.KubernetesRuntimeConfig{
			NumNodes:           o.numNodes,
			MachineType:        o.machineType,
			AutoscalingEnabled: o.autoscale,
		}
	}
	if o.pdName != "" {
		req.Disk = &lifecycle.DiskConfig{Name: o.pdName, Size: o.pdSize}
	}
	return req
}

var appCreateCmd = &cobra.Command{
	Use:   "create <namespace>/<name>",
	Short: "Create an app in a watched workspace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := mustWorkspacePath(args[0])
		req := appOpts.request()
		if err := req.Validate(); err != nil {
			fail(err)
		}
		var resp AcceptedResponse
		if err := NewClient(apiURL).Post(path+"/apps", req, &resp); err != nil {
			fail(err)
		}
		printResult(resp)
	},
}

func init() {
	f := appCreateCmd.Flags()
	f.StringVar(&appOpts.name, "name", "", "App name (default saturn-<uuid>)")
	f.StringVar(&appOpts.appType, "type", "GALAXY", "App type, e.g. GALAXY, CROMWELL, WDS")
	f.IntVar(&appOpts.numNodes, "num-nodes", 0, "Node count of the app's nodepool")
	f.StringVar(&appOpts.machineType, "machine-type", "", "Nodepool machine type")
	f.BoolVar(&appOpts.autoscale, "autoscale", false, "Enable nodepool autoscaling")
	f.StringVar(&appOpts.pdName, "pd-name", "", "Persistent disk to create or attach")
	f.IntVar(&appOpts.pdSize, "pd-size", 0, "Persistent disk size in GB")
	f.StringToStringVar(&appOpts.env, "env", nil, "Custom environment variables, KEY=VALUE")

	appDelete := resourceAction("apps", "delete", "Delete an app", &appDeleteDisk)
	appDelete.Flags().BoolVar(&appDeleteDisk, "delete-disk", false, "Also delete the app's persistent disk")

	appCmd.AddCommand(
		appCreateCmd,
		resourceAction("apps", "start", "Start a stopped app", nil),
		resourceAction("apps", "stop", "Stop a running app", nil),
		appDelete,
	)
	rootCmd.AddCommand(appCmd)
}
