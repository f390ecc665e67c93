package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lzjever/cloudenv/internal/observability"
)

// Metrics records request counts and latency by route pattern, and counts
// runtime, app and disk actions by kind and verb.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		observability.ActiveRequests.Inc()
		defer observability.ActiveRequests.Dec()

		next.ServeHTTP(ww, r)

		route := getRoutePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)

		observability.HTTPRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		observability.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		if kind, action, ok := resourceAction(r.Method, route); ok {
			observability.ResourceActionsTotal.WithLabelValues(kind, action, code).Inc()
		}
	})
}

var actionKinds = map[string]string{
	"runtimes": "runtime",
	"apps":     "app",
	"disks":    "disk",
}

// resourceAction classifies a workspace route such as
// ".../{name}/runtimes/{resource}:stop" into ("runtime", "stop").
func resourceAction(method, pattern string) (kind, action string, ok bool) {
	const marker = "/{name}/"
	i := strings.Index(pattern, marker)
	if i < 0 {
		return "", "", false
	}
	collection, rest, hasItem := strings.Cut(pattern[i+len(marker):], "/")
	kind, ok = actionKinds[collection]
	if !ok {
		return "", "", false
	}
	switch {
	case !hasItem && method == http.MethodPost:
		return kind, "create", true
	case hasItem && method == http.MethodDelete:
		return kind, "delete", true
	case hasItem && method == http.MethodPost:
		if j := strings.LastIndexByte(rest, ':'); j >= 0 {
			return kind, rest[j+1:], true
		}
	}
	return "", "", false
}

func getRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := rctx.RoutePattern()
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}
