package middleware

import (
	"net/http"
	"strings"

	"github.com/lzjever/cloudenv/internal/core"
)

// maxRequestIDLen bounds caller-supplied IDs before they are echoed and
// forwarded to the control plane.
const maxRequestIDLen = 128

// RequestID reuses the caller's X-Request-ID or mints one. The ID is stored
// in the request context, where the control-plane client picks it up for
// calls made on behalf of this request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(core.RequestIDHeader))
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = core.NewID()
		}
		w.Header().Set(core.RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(core.WithRequestID(r.Context(), requestID)))
	})
}

func GetRequestID(r *http.Request) string {
	id, _ := core.RequestIDFrom(r.Context())
	return id
}
