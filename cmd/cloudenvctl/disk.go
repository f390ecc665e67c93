package main

import (
	"net/url"

	"github.com/spf13/cobra"
)

var diskCmd = &cobra.Command{
	Use:   "disk",
	Short: "Manage persistent disks",
}

var diskDeleteCmd = &cobra.Command{
	Use:   "delete <namespace>/<name> <disk>",
	Short: "Delete a persistent disk",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		path := mustWorkspacePath(args[0]) + "/disks/" + url.PathEscape(args[1])
		var resp AcceptedResponse
		if err := NewClient(apiURL).Delete(path, &resp); err != nil {
			fail(err)
		}
		printResult(resp)
	},
}

func init() {
	diskCmd.AddCommand(diskDeleteCmd)
	rootCmd.AddCommand(diskCmd)
}
