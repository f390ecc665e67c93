package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lzjever/cloudenv/internal/core"
	"github.com/lzjever/cloudenv/internal/objectstore"
	"github.com/lzjever/cloudenv/internal/observability"
)

const (
	userScriptFailed     = "Userscript failed"
	userScriptOutputFile = "userscript_output.txt"
)

// ErrorInfo re-reads the resource to get its full error list, then lets the
// provider's backend decide how to present it.
func (l *Leo) ErrorInfo(ctx context.Context, res core.ComputeResource) (core.ErrorInfo, error) {
	b, err := backendFor(res.Provider())
	if err != nil {
		return nil, err
	}
	path, err := resourcePath(b, res)
	if err != nil {
		return nil, err
	}

	var errs []core.ResourceError
	switch r := res.(type) {
	case core.Runtime:
		var details core.Runtime
		if err := l.client.Get(ctx, path, nil, &details); err != nil {
			return nil, fmt.Errorf("get runtime details: %w", err)
		}
		errs = details.Errors
		if details.AsyncRuntimeFields != nil {
			r.AsyncRuntimeFields = details.AsyncRuntimeFields
		}
		res = r
	case core.App:
		var details core.App
		if err := l.client.Get(ctx, path, nil, &details); err != nil {
			return nil, fmt.Errorf("get app details: %w", err)
		}
		errs = details.Errors
	}

	info, err := b.classify(ctx, res, errs, l.preview)
	if err != nil {
		return nil, err
	}
	l.log.Debug("error info classified", zap.String("resource", res.Key().String()), zap.String("type", string(info.Type())))
	return info, nil
}

func hasUserScriptFailure(errs []core.ResourceError) bool {
	for _, e := range errs {
		if strings.Contains(e.ErrorMessage, userScriptFailed) {
			return true
		}
	}
	return false
}

func fetchUserScriptError(ctx context.Context, preview objectstore.Previewer, project, bucket string) (core.ErrorInfo, error) {
	if preview == nil {
		return nil, core.NewAppError(core.ErrInternal, "no object store configured for startup-script output")
	}
	if bucket == "" {
		return nil, core.NewAppError(core.ErrNotFound, "runtime has no staging bucket")
	}
	text, err := preview.Preview(ctx, project, bucket, userScriptOutputFile)
	if err != nil {
		observability.UserscriptFetchTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch %s: %w", userScriptOutputFile, err)
	}
	observability.UserscriptFetchTotal.WithLabelValues("ok").Inc()
	return core.UserScriptError{Detail: text}, nil
}
