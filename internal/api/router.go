package api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lzjever/cloudenv/internal/api/middleware"
	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/reconcile"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type API struct {
	manager *reconcile.Manager
	ready   Pinger
	log     *zap.Logger
}

// NewAPI serves the watched workspaces of manager. ready may be nil.
func NewAPI(manager *reconcile.Manager, ready Pinger, log *zap.Logger) *API {
	return &API{
		manager: manager,
		ready:   ready,
		log:     log,
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recoverer(a.log))
	r.Use(middleware.Logger(a.log))
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Health endpoints
	r.Get("/healthz", a.HealthHandler)
	r.Get("/readyz", a.ReadyHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/workspaces", a.ListWorkspaces)

		r.Route("/workspaces/{namespace}/{name}", func(r chi.Router) {
			r.Put("/watch", a.WatchWorkspace)
			r.Delete("/watch", a.UnwatchWorkspace)

			r.Get("/environment", a.GetEnvironment)
			r.Post("/environment:refresh", a.RefreshEnvironment)

			r.Post("/runtimes", a.CreateRuntime)
			r.Post("/runtimes/{resource}:start", a.startHandler(core.KindRuntime))
			r.Post("/runtimes/{resource}:stop", a.stopHandler(core.KindRuntime))
			r.Delete("/runtimes/{resource}", a.deleteHandler(core.KindRuntime))

			r.Post("/apps", a.CreateApp)
			r.Post("/apps/{resource}:start", a.startHandler(core.KindApp))
			r.Post("/apps/{resource}:stop", a.stopHandler(core.KindApp))
			r.Delete("/apps/{resource}", a.deleteHandler(core.KindApp))

			r.Delete("/disks/{disk}", a.DeleteDisk)
		})
	})

	return r
}

// writeErr maps err onto the error response shape, hiding unexpected errors.
func (a *API) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *core.AppError
	if errors.As(err, &appErr) {
		WriteError(w, appErr)
		return
	}
	a.log.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetRequestID(r)),
		zap.Error(err),
	)
	WriteError(w, core.NewAppError(core.ErrInternal, "internal error"))
}

// encodeCursor encodes a workspace key as an opaque cursor.
func encodeCursor(key string) string {
	if key == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(key))
}

func decodeCursor(s string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
