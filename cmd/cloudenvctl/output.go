package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/lzjever/cloudenv/internal/core"
)

type WorkspaceRow struct {
	Workspace       core.Workspace `json:"workspace"`
	State           string         `json:"state"`
	Version         uint64         `json:"version"`
	Loaded          bool           `json:"loaded"`
	LastError       string         `json:"lastError"`
	TotalHourlyCost string         `json:"totalHourlyCostDisplay"`
}

type WorkspaceListResponse struct {
	Workspaces []WorkspaceRow `json:"workspaces"`
	NextCursor string         `json:"nextCursor"`
}

type DiskRow struct {
	Disk               core.PersistentDisk `json:"disk"`
	MonthlyCostDisplay string              `json:"monthlyCostDisplay"`
}

type RuntimeRow struct {
	Runtime           core.Runtime    `json:"runtime"`
	ToolType          string          `json:"toolType"`
	HourlyCostDisplay string          `json:"hourlyCostDisplay"`
	ErrorInfo         json.RawMessage `json:"errorInfo,omitempty"`
}

type AppRow struct {
	AppType           string          `json:"appType"`
	App               core.App        `json:"app"`
	HourlyCostDisplay string          `json:"hourlyCostDisplay"`
	Disk              *DiskRow        `json:"disk,omitempty"`
	ErrorInfo         json.RawMessage `json:"errorInfo,omitempty"`
}

// EnvironmentView mirrors the server's environment document; error info is
// kept raw and decoded only for display.
type EnvironmentView struct {
	Workspace              core.Workspace `json:"workspace"`
	State                  string         `json:"state"`
	Version                uint64         `json:"version"`
	Loaded                 bool           `json:"loaded"`
	FetchedAt              time.Time      `json:"fetchedAt"`
	LastError              string         `json:"lastError,omitempty"`
	Runtime                *RuntimeRow    `json:"runtime,omitempty"`
	RuntimeDisk            *DiskRow       `json:"runtimeDisk,omitempty"`
	Apps                   []AppRow       `json:"apps"`
	TotalHourlyCostDisplay string         `json:"totalHourlyCostDisplay"`
}

type AcceptedResponse struct {
	Action     string `json:"action"`
	Resource   string `json:"resource"`
	StatusHref string `json:"statusHref"`
}

func printResult(v interface{}) {
	if output == "json" {
		json.NewEncoder(os.Stdout).Encode(v)
		return
	}
	printTable(os.Stdout, v)
}

func printTable(out io.Writer, v interface{}) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	switch data := v.(type) {
	case []WorkspaceRow:
		if len(data) == 0 {
			fmt.Fprintln(out, "No workspaces watched.")
			return
		}
		fmt.Fprintln(w, "WORKSPACE\tPROVIDER\tSTATE\tVERSION\tHOURLY COST\tLAST ERROR")
		for _, ws := range data {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", ws.Workspace.Key(), ws.Workspace.CloudProvider, ws.State, ws.Version, ws.TotalHourlyCost, truncate(ws.LastError, 40))
		}
	case WorkspaceRow:
		fmt.Fprintf(w, "Workspace:\t%s\n", data.Workspace.Key())
		fmt.Fprintf(w, "Provider:\t%s\n", data.Workspace.CloudProvider)
		fmt.Fprintf(w, "State:\t%s\n", data.State)
	case EnvironmentView:
		printEnvironment(w, data)
	case AcceptedResponse:
		if data.Resource != "" {
			fmt.Fprintf(w, "%s %s accepted.\n", capitalize(data.Action), data.Resource)
		} else {
			fmt.Fprintf(w, "%s accepted.\n", capitalize(data.Action))
		}
		fmt.Fprintf(w, "Status:\t%s\n", data.StatusHref)
	default:
		json.NewEncoder(out).Encode(v)
	}
	w.Flush()
}

func printEnvironment(w *tabwriter.Writer, env EnvironmentView) {
	fmt.Fprintf(w, "Workspace:\t%s (%s)\n", env.Workspace.Key(), env.Workspace.CloudProvider)
	fmt.Fprintf(w, "State:\t%s (version %d)\n", env.State, env.Version)
	if !env.Loaded {
		fmt.Fprintf(w, "Loading...\t\n")
		return
	}
	fmt.Fprintf(w, "Fetched:\t%s\n", env.FetchedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Total cost:\t%s\n", env.TotalHourlyCostDisplay)
	if env.LastError != "" {
		fmt.Fprintf(w, "Last error:\t%s\n", env.LastError)
	}
	fmt.Fprintln(w)

	if env.Runtime == nil && len(env.Apps) == 0 {
		fmt.Fprintln(w, "No runtimes or apps.")
		return
	}
	fmt.Fprintln(w, "KIND\tNAME\tTYPE\tSTATUS\tCOST\tDISK\tDISK COST")
	if rt := env.Runtime; rt != nil {
		disk, diskCost := diskColumns(env.RuntimeDisk)
		fmt.Fprintf(w, "runtime\t%s\t%s\t%s\t%s\t%s\t%s\n", rt.Runtime.RuntimeName, rt.ToolType, rt.Runtime.Status, rt.HourlyCostDisplay, disk, diskCost)
	}
	for _, app := range env.Apps {
		disk, diskCost := diskColumns(app.Disk)
		fmt.Fprintf(w, "app\t%s\t%s\t%s\t%s\t%s\t%s\n", app.App.AppName, app.AppType, app.App.Status, app.HourlyCostDisplay, disk, diskCost)
	}

	if env.Runtime != nil && len(env.Runtime.ErrorInfo) > 0 {
		fmt.Fprintf(w, "\nruntime %s error:\n%s\n", env.Runtime.Runtime.RuntimeName, describeErrorInfo(env.Runtime.ErrorInfo))
	}
	for _, app := range env.Apps {
		if len(app.ErrorInfo) > 0 {
			fmt.Fprintf(w, "\napp %s error:\n%s\n", app.App.AppName, describeErrorInfo(app.ErrorInfo))
		}
	}
}

func diskColumns(d *DiskRow) (string, string) {
	if d == nil {
		return "-", "-"
	}
	return d.Disk.Name, d.MonthlyCostDisplay
}

// describeErrorInfo renders the classifier's result: the raw script output
// for user-script failures, one line per error otherwise.
func describeErrorInfo(raw json.RawMessage) string {
	info, err := core.DecodeErrorInfo(raw)
	if err != nil {
		return "  " + string(raw)
	}
	switch v := info.(type) {
	case core.UserScriptError:
		return "  user script failed:\n" + indent(v.Detail)
	case core.ErrorList:
		if len(v.Errors) == 0 {
			return "  (no details reported)"
		}
		lines := make([]string, 0, len(v.Errors))
		for _, e := range v.Errors {
			if e.ErrorCode != 0 {
				lines = append(lines, fmt.Sprintf("  [%d] %s", e.ErrorCode, e.ErrorMessage))
			} else {
				lines = append(lines, "  "+e.ErrorMessage)
			}
		}
		return strings.Join(lines, "\n")
	}
	return "  " + string(raw)
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
