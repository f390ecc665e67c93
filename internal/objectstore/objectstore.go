// Package objectstore reads short previews of objects in cloud storage.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/lzjever/cloudenv/internal/core"
)

type Config struct {
	CredentialsFile string `envconfig:"GCS_CREDENTIALS_FILE"`
	PreviewBytes    int64  `envconfig:"USERSCRIPT_PREVIEW_BYTES" default:"20000"`
}

// Previewer returns the first bytes of an object as text. project is the
// project billed for the read.
type Previewer interface {
	Preview(ctx context.Context, project, bucket, object string) (string, error)
}

type GCS struct {
	client   *storage.Client
	maxBytes int64
	log      *zap.Logger
}

// NewGCS uses the credentials file when set, Application Default Credentials otherwise.
func NewGCS(ctx context.Context, cfg Config, log *zap.Logger) (*GCS, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	maxBytes := cfg.PreviewBytes
	if maxBytes <= 0 {
		maxBytes = 20000
	}
	return &GCS{client: client, maxBytes: maxBytes, log: log}, nil
}

func (g *GCS) Preview(ctx context.Context, project, bucket, object string) (string, error) {
	b := g.client.Bucket(bucket)
	if project != "" {
		b = b.UserProject(project)
	}
	r, err := b.Object(object).NewRangeReader(ctx, 0, g.maxBytes)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return "", core.NewAppError(core.ErrNotFound, fmt.Sprintf("gs://%s/%s not found", bucket, object))
		}
		return "", fmt.Errorf("open gs://%s/%s: %w", bucket, object, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read gs://%s/%s: %w", bucket, object, err)
	}
	g.log.Debug("object preview fetched",
		zap.String("bucket", bucket),
		zap.String("object", object),
		zap.Int("bytes", len(data)),
	)
	return string(data), nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

// Unavailable fails every preview with Err. It stands in when no storage
// client could be built, so only the user-script path is affected.
type Unavailable struct {
	Err error
}

func (u Unavailable) Preview(_ context.Context, _, bucket, object string) (string, error) {
	return "", fmt.Errorf("preview gs://%s/%s: object storage unavailable: %w", bucket, object, u.Err)
}
