package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:     "env",
	Aliases: []string{"environment"},
	Short:   "Show the current runtime, apps, disks and cost of a workspace",
}

var envWatchInterval time.Duration

var envShowCmd = &cobra.Command{
	Use:   "show <namespace>/<name>",
	Short: "Show the latest environment view",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := mustWorkspacePath(args[0])
		var env EnvironmentView
		if err := NewClient(apiURL).Get(path+"/environment", &env); err != nil {
			fail(err)
		}
		printResult(env)
	},
}

var envRefreshCmd = &cobra.Command{
	Use:   "refresh <namespace>/<name>",
	Short: "Poll the control plane now, resuming a stopped watch",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := mustWorkspacePath(args[0])
		var resp AcceptedResponse
		if err := NewClient(apiURL).Post(path+"/environment:refresh", nil, &resp); err != nil {
			fail(err)
		}
		printResult(resp)
	},
}

var envWatchCmd = &cobra.Command{
	Use:   "watch <namespace>/<name>",
	Short: "Print the environment each time it changes, until polling stops",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := mustWorkspacePath(args[0])
		client := NewClient(apiURL)

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		var last uint64
		for {
			var env EnvironmentView
			if err := client.Get(path+"/environment", &env); err != nil {
				fail(err)
			}
			if env.Version != last {
				last = env.Version
				if output != "json" {
					fmt.Printf("--- %s\n", time.Now().Format(time.RFC3339))
				}
				printResult(env)
			}
			if env.State == "Terminal" {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(envWatchInterval):
			}
		}
	},
}

func init() {
	envWatchCmd.Flags().DurationVar(&envWatchInterval, "interval", 5*time.Second, "How often to re-read the environment")
	envCmd.AddCommand(envShowCmd, envRefreshCmd, envWatchCmd)
	rootCmd.AddCommand(envCmd)
}
