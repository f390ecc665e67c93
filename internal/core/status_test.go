package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"Running", StatusRunning},
		{"RUNNING", StatusRunning},
		{"PROVISIONING", StatusCreating},
		{"PreCreating", StatusCreating},
		{"Creating", StatusCreating},
		{"PreStarting", StatusStarting},
		{"LeoReconfiguring", StatusUpdating},
		{"PRESTOPPING", StatusStopping},
		{"Stopped", StatusStopped},
		{"DELETING", StatusDeleting},
		{"PREDELETING", StatusPreDeleting},
		{"Error", StatusError},
		{"STATUS_UNSPECIFIED", StatusUnknown},
		{"something-new", StatusUnknown},
		{"", StatusUnknown},
	}
	for _, tt := range tests {
		if got := NormalizeStatus(tt.raw); got != tt.want {
			t.Errorf("NormalizeStatus(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestStatus_UnmarshalNormalizes(t *testing.T) {
	var app App
	if err := json.Unmarshal([]byte(`{"appName":"galaxy-1","appType":"GALAXY","status":"PREDELETING"}`), &app); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if app.Status != StatusPreDeleting {
		t.Errorf("status = %s, want PreDeleting", app.Status)
	}
	if !app.Status.IsDeleting() {
		t.Error("PreDeleting should count as deleting")
	}
}

func TestStatus_IsTransitional(t *testing.T) {
	for _, s := range []Status{StatusCreating, StatusStarting, StatusUpdating, StatusStopping, StatusDeleting, StatusPreDeleting} {
		if !s.IsTransitional() {
			t.Errorf("%s should be transitional", s)
		}
	}
	for _, s := range []Status{StatusRunning, StatusStopped, StatusError, StatusDeleted, StatusUnknown} {
		if s.IsTransitional() {
			t.Errorf("%s should not be transitional", s)
		}
	}
}

func TestPersistentDisk_Labels(t *testing.T) {
	d := PersistentDisk{Labels: map[string]string{LabelApplication: "galaxy", LabelWorkspaceName: "ws-1"}}
	if at, ok := d.AppType(); !ok || at != AppGalaxy {
		t.Errorf("AppType = %s,%v want GALAXY,true", at, ok)
	}
	if ws, ok := d.WorkspaceName(); !ok || ws != "ws-1" {
		t.Errorf("WorkspaceName = %s,%v", ws, ok)
	}

	bare := PersistentDisk{}
	if _, ok := bare.AppType(); ok {
		t.Error("missing app label should not parse")
	}
	if _, ok := bare.WorkspaceName(); ok {
		t.Error("missing workspace label should not parse")
	}

	garbage := PersistentDisk{Labels: map[string]string{LabelApplication: "not-an-app", LabelWorkspaceName: "  "}}
	if _, ok := garbage.AppType(); ok {
		t.Error("unknown app label should not parse")
	}
	if _, ok := garbage.WorkspaceName(); ok {
		t.Error("blank workspace label should not parse")
	}
}

func TestParseCloudProvider(t *testing.T) {
	if p, err := ParseCloudProvider("azure"); err != nil || p != CloudProviderAzure {
		t.Errorf("ParseCloudProvider(azure) = %s, %v", p, err)
	}
	if _, err := ParseCloudProvider("aws"); err == nil {
		t.Error("expected error for aws")
	}
}

func TestWorkspace_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ws      Workspace
		wantErr bool
	}{
		{"gcp ok", Workspace{Namespace: "ns", Name: "ws", CloudProvider: CloudProviderGCP, GoogleProject: "proj"}, false},
		{"gcp missing project", Workspace{Namespace: "ns", Name: "ws", CloudProvider: CloudProviderGCP}, true},
		{"azure ok", Workspace{Namespace: "ns", Name: "ws", CloudProvider: CloudProviderAzure, WorkspaceID: "uuid"}, false},
		{"azure missing id", Workspace{Namespace: "ns", Name: "ws", CloudProvider: CloudProviderAzure, GoogleProject: "proj"}, true},
		{"no provider", Workspace{Namespace: "ns", Name: "ws"}, true},
		{"no name", Workspace{Namespace: "ns", CloudProvider: CloudProviderGCP, GoogleProject: "proj"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ws.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAppError_NotFoundThroughWrap(t *testing.T) {
	err := fmt.Errorf("delete runtime: %w", &AppError{Code: CodeForStatus(http.StatusNotFound), Message: "gone", Status: 404})
	if !IsNotFound(err) {
		t.Error("wrapped 404 should be not found")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("plain error should not be not found")
	}
	if got := AsAppError(errors.New("boom")).Code; got != ErrInternal {
		t.Errorf("AsAppError code = %s, want %s", got, ErrInternal)
	}
	if AsAppError(nil) != nil {
		t.Error("AsAppError(nil) should be nil")
	}
}

func TestCodeForStatus(t *testing.T) {
	tests := map[int]ErrorCode{
		400: ErrBadRequest,
		401: ErrUnauthorized,
		403: ErrForbidden,
		404: ErrNotFound,
		409: ErrConflict,
		500: ErrControlPlane,
		503: ErrControlPlane,
		504: ErrControlPlaneTimeout,
	}
	for status, want := range tests {
		if got := CodeForStatus(status); got != want {
			t.Errorf("CodeForStatus(%d) = %s, want %s", status, got, want)
		}
	}
}

func TestErrorInfo_RoundTrip(t *testing.T) {
	for _, info := range []ErrorInfo{
		ErrorList{Errors: []ResourceError{{ErrorMessage: "quota exceeded", ErrorCode: 403}}},
		UserScriptError{Detail: "Error: X"},
	} {
		b, err := json.Marshal(info)
		if err != nil {
			t.Fatalf("marshal %T: %v", info, err)
		}
		got, err := DecodeErrorInfo(b)
		if err != nil {
			t.Fatalf("decode %s: %v", b, err)
		}
		if got.Type() != info.Type() {
			t.Errorf("type = %s, want %s", got.Type(), info.Type())
		}
	}
}
