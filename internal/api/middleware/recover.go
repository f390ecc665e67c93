package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/lzjever/cloudenv/internal/core"
)

// Recoverer turns a handler panic into a CLOUDENV_INTERNAL response.
// http.ErrAbortHandler is re-raised so the server aborts the connection.
func Recoverer(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				log.Error("panic recovered",
					zap.Any("panic", rvr),
					zap.String("stack", string(debug.Stack())),
					zap.String("request_id", GetRequestID(r)),
					zap.String("workspace", workspaceOf(r)),
				)
				appErr := core.NewAppError(core.ErrInternal, "internal server error")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(appErr.Code.HTTPStatus())
				json.NewEncoder(w).Encode(appErr)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
