package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL string
	output string
)

var rootCmd = &cobra.Command{
	Use:   "cloudenvctl",
	Short: "cloudenv CLI - watch cloud environments and manage their runtimes, apps and disks",
	Long: `cloudenvctl talks to a cloudenvd server. It shows the current runtime,
apps, disks and estimated hourly cost of watched workspaces, and starts,
stops, creates and deletes resources through it.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	defaultURL := os.Getenv("CLOUDENV_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVarP(&apiURL, "api-url", "a", defaultURL, "cloudenvd API URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
}
