package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/jjudge-oj/grader/config"
)

// Object is a single blob written to a backend.
type Object struct {
	Key             string
	Body            io.Reader
	Size            int64
	ContentType     string
	ContentEncoding string
	Metadata        map[string]string
}

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, obj Object) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// NewBackend builds the backend named by cfg.StorageBackend and makes sure
// its bucket exists. It returns nil, nil when storage is disabled.
func NewBackend(ctx context.Context, cfg config.Config) (ObjectStorage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.StorageBackend {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendMinio:
		backend, err = NewMinioClient(cfg.Minio)
	case config.BackendGCS:
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s storage: %w", cfg.StorageBackend, err)
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return backend, nil
}
