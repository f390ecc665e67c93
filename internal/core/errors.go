package core

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrBadRequest          ErrorCode = "CLOUDENV_BAD_REQUEST"
	ErrUnauthorized        ErrorCode = "CLOUDENV_UNAUTHORIZED"
	ErrForbidden           ErrorCode = "CLOUDENV_FORBIDDEN"
	ErrNotFound            ErrorCode = "CLOUDENV_NOT_FOUND"
	ErrConflict            ErrorCode = "CLOUDENV_CONFLICT"
	ErrNotWatched          ErrorCode = "CLOUDENV_NOT_WATCHED"
	ErrUnsupportedProvider ErrorCode = "CLOUDENV_UNSUPPORTED_PROVIDER"
	ErrInternal            ErrorCode = "CLOUDENV_INTERNAL"
	ErrControlPlane        ErrorCode = "CLOUDENV_CONTROL_PLANE_ERROR"
	ErrControlPlaneTimeout ErrorCode = "CLOUDENV_CONTROL_PLANE_TIMEOUT"
)

// HTTPStatus returns the HTTP status code for this error code.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	case ErrBadRequest, ErrUnsupportedProvider:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound, ErrNotWatched:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrControlPlane:
		return http.StatusBadGateway
	case ErrControlPlaneTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// CodeForStatus maps a control-plane HTTP status onto an error code.
func CodeForStatus(status int) ErrorCode {
	switch {
	case status == http.StatusBadRequest:
		return ErrBadRequest
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusGatewayTimeout:
		return ErrControlPlaneTimeout
	case status >= 500:
		return ErrControlPlane
	default:
		return ErrInternal
	}
}

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Status is the upstream HTTP status when the error came from the control plane.
	Status int `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// IsNotFound reports whether err carries ErrNotFound anywhere in its chain.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrNotFound
}

// AsAppError unwraps err into an *AppError, wrapping unknown errors as
// internal. It returns nil for a nil error.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewAppError(ErrInternal, err.Error())
}
