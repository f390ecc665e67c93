package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Choose which workspaces cloudenvd watches",
}

var (
	wsProvider      string
	wsGoogleProject string
	wsWorkspaceID   string
	wsListLimit     int
	wsListAll       bool
)

// workspacePath turns "namespace/name" into the API path of that workspace.
func workspacePath(arg string) (string, error) {
	parts := strings.Split(arg, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("workspace must be given as <namespace>/<name>, got %q", arg)
	}
	return "/v1/workspaces/" + url.PathEscape(parts[0]) + "/" + url.PathEscape(parts[1]), nil
}

func mustWorkspacePath(arg string) string {
	p, err := workspacePath(arg)
	if err != nil {
		fail(err)
	}
	return p
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

var wsWatchCmd = &cobra.Command{
	Use:   "watch <namespace>/<name>",
	Short: "Start watching a workspace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := mustWorkspacePath(args[0])
		req := map[string]string{
			"cloudProvider": wsProvider,
			"googleProject": wsGoogleProject,
			"workspaceId":   wsWorkspaceID,
		}

		var ws WorkspaceRow
		if err := NewClient(apiURL).Put(path+"/watch", req, &ws); err != nil {
			fail(err)
		}
		printResult(ws)
	},
}

var wsUnwatchCmd = &cobra.Command{
	Use:   "unwatch <namespace>/<name>",
	Short: "Stop watching a workspace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := mustWorkspacePath(args[0])
		if err := NewClient(apiURL).Delete(path+"/watch", nil); err != nil {
			fail(err)
		}
		fmt.Printf("Workspace %s is no longer watched.\n", args[0])
	},
}

var wsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watched workspaces",
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL)

		var rows []WorkspaceRow
		cursor := ""
		for {
			q := url.Values{"limit": {fmt.Sprint(wsListLimit)}}
			if cursor != "" {
				q.Set("cursor", cursor)
			}
			var resp WorkspaceListResponse
			if err := client.Get("/v1/workspaces?"+q.Encode(), &resp); err != nil {
				fail(err)
			}
			rows = append(rows, resp.Workspaces...)
			cursor = resp.NextCursor
			if !wsListAll || cursor == "" {
				break
			}
		}
		printResult(rows)
		if cursor != "" && output != "json" {
			fmt.Println("More workspaces available; use --all to list them.")
		}
	},
}

func init() {
	wsWatchCmd.Flags().StringVar(&wsProvider, "provider", "GCP", "Cloud provider (GCP, AZURE)")
	wsWatchCmd.Flags().StringVar(&wsGoogleProject, "google-project", "", "Google project of a GCP workspace")
	wsWatchCmd.Flags().StringVar(&wsWorkspaceID, "workspace-id", "", "Workspace ID of an Azure workspace")
	wsListCmd.Flags().IntVar(&wsListLimit, "limit", 20, "Page size")
	wsListCmd.Flags().BoolVar(&wsListAll, "all", false, "Follow cursors until every workspace is listed")

	workspaceCmd.AddCommand(wsWatchCmd, wsUnwatchCmd, wsListCmd)
	rootCmd.AddCommand(workspaceCmd)
}
