package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

var obsCmd = &cobra.Command{
	Use:   "obs",
	Short: "Observability commands (query VictoriaMetrics)",
}

var vmsingleURL string

type VMResponse struct {
	Status string `json:"status"`
	Data   struct {
		Result []struct {
			Metric map[string]string `json:"metric"`
			Value  []interface{}     `json:"value"`
		} `json:"result"`
	} `json:"data"`
}

type namedQuery struct {
	name  string
	query string
}

var summaryQueries = []namedQuery{
	{"Poll Success Rate", `sum(rate(cloudenv_poll_total{result="ok"}[5m])) / sum(rate(cloudenv_poll_total[5m])) * 100`},
	{"Poll Rate", `sum(rate(cloudenv_poll_total[5m]))`},
	{"Watched Workspaces", `cloudenv_watched_groups`},
	{"HTTP Request Rate", `sum(rate(cloudenv_http_requests_total[5m]))`},
	{"Active Requests", `cloudenv_active_requests`},
	{"Resource Action Errors", `sum(rate(cloudenv_resource_actions_total{code!~"2.."}[5m]))`},
}

var latencyQueries = []namedQuery{
	{"HTTP P50", `histogram_quantile(0.5, sum(rate(cloudenv_http_request_duration_seconds_bucket[5m])) by (le))`},
	{"HTTP P95", `histogram_quantile(0.95, sum(rate(cloudenv_http_request_duration_seconds_bucket[5m])) by (le))`},
	{"Poll P50", `histogram_quantile(0.5, sum(rate(cloudenv_poll_duration_seconds_bucket[5m])) by (le))`},
	{"Poll P95", `histogram_quantile(0.95, sum(rate(cloudenv_poll_duration_seconds_bucket[5m])) by (le))`},
}

var pollQueries = []namedQuery{
	{"Poll Error Rate", `sum(rate(cloudenv_poll_total{result="error"}[5m]))`},
	{"Stale Polls Discarded", `rate(cloudenv_poll_stale_discarded_total[5m])`},
	{"Terminal (error)", `sum(cloudenv_group_terminal_total{reason="error"})`},
	{"Terminal (deleted)", `sum(cloudenv_group_terminal_total{reason="deleted"})`},
}

var upstreamQueries = []namedQuery{
	{"Control Plane 5xx Rate", `sum(rate(cloudenv_controlplane_requests_total{code=~"5.."}[5m]))`},
	{"Control Plane Request Rate", `sum(rate(cloudenv_controlplane_requests_total[5m]))`},
	{"Userscript Fetch Errors", `sum(cloudenv_userscript_fetch_total{result="error"})`},
}

func obsQueryCmd(use, short string, queries []namedQuery) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Run: func(cmd *cobra.Command, args []string) {
			base := vmsingleURL
			if base == "" {
				base = "http://localhost:8428"
			}
			for _, q := range queries {
				fmt.Printf("%s: %s\n", q.name, queryVM(base, q.query))
			}
		},
	}
}

var vmClient = &http.Client{Timeout: 10 * time.Second}

func queryVM(baseURL, query string) string {
	resp, err := vmClient.Get(baseURL + "/api/v1/query?query=" + url.QueryEscape(query))
	if err != nil {
		return "error: " + err.Error()
	}
	defer resp.Body.Close()

	var vmResp VMResponse
	if err := json.NewDecoder(resp.Body).Decode(&vmResp); err != nil {
		return "parse error"
	}

	if len(vmResp.Data.Result) == 0 {
		return "no data"
	}

	result := vmResp.Data.Result[0]
	if len(result.Value) >= 2 {
		return fmt.Sprintf("%v", result.Value[1])
	}
	return "no value"
}

func init() {
	obsCmd.PersistentFlags().StringVar(&vmsingleURL, "vm-url", "http://localhost:8428", "VictoriaMetrics URL")
	obsCmd.AddCommand(
		obsQueryCmd("summary", "Show system summary metrics", summaryQueries),
		obsQueryCmd("latency", "Show HTTP and poll latency", latencyQueries),
		obsQueryCmd("polls", "Show reconciler poll outcomes", pollQueries),
		obsQueryCmd("upstream", "Show control plane and object storage metrics", upstreamQueries),
	)
	rootCmd.AddCommand(obsCmd)
}
