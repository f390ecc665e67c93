package core

import (
	"encoding/json"
	"fmt"
)

type ErrorInfoType string

const (
	ErrorInfoList       ErrorInfoType = "ErrorList"
	ErrorInfoUserScript ErrorInfoType = "UserScriptError"
)

// ErrorInfo is what the error classifier reports for a resource in Error:
// either the control plane's coded error list or raw startup-script output.
// Implemented by ErrorList and UserScriptError only.
type ErrorInfo interface {
	Type() ErrorInfoType
	errorInfo()
}

type ErrorList struct {
	Errors []ResourceError `json:"errors"`
}

func (ErrorList) Type() ErrorInfoType { return ErrorInfoList }
func (ErrorList) errorInfo()          {}

func (e ErrorList) MarshalJSON() ([]byte, error) {
	errs := e.Errors
	if errs == nil {
		errs = []ResourceError{}
	}
	return json.Marshal(struct {
		Type   ErrorInfoType   `json:"type"`
		Errors []ResourceError `json:"errors"`
	}{ErrorInfoList, errs})
}

type UserScriptError struct {
	Detail string `json:"detail"`
}

func (UserScriptError) Type() ErrorInfoType { return ErrorInfoUserScript }
func (UserScriptError) errorInfo()          {}

func (e UserScriptError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   ErrorInfoType `json:"type"`
		Detail string        `json:"detail"`
	}{ErrorInfoUserScript, e.Detail})
}

// DecodeErrorInfo reverses the MarshalJSON encodings above.
func DecodeErrorInfo(b []byte) (ErrorInfo, error) {
	var probe struct {
		Type   ErrorInfoType   `json:"type"`
		Errors []ResourceError `json:"errors"`
		Detail string          `json:"detail"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return nil, err
	}
	switch probe.Type {
	case ErrorInfoList:
		return ErrorList{Errors: probe.Errors}, nil
	case ErrorInfoUserScript:
		return UserScriptError{Detail: probe.Detail}, nil
	}
	return nil, fmt.Errorf("unknown error info type %q", probe.Type)
}
