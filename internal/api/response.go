package api

import (
	"encoding/json"
	"net/http"

	"github.com/lzjever/cloudenv/internal/core"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, err *core.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code.HTTPStatus())
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    string(err.Code),
		Message: err.Message,
	})
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// AcceptedResponse acknowledges an imperative call. The environment at
// StatusHref reflects it after the triggered refresh.
type AcceptedResponse struct {
	Action     string `json:"action"`
	Resource   string `json:"resource,omitempty"`
	StatusHref string `json:"statusHref"`
}

func WriteAccepted(w http.ResponseWriter, action, resource, href string) {
	WriteJSON(w, http.StatusAccepted, AcceptedResponse{
		Action:     action,
		Resource:   resource,
		StatusHref: href,
	})
}
