package storage

import (
	"context"
	"io"
)

// DumpStore reads bulk upstream dumps from an object storage bucket. The
// preload utilities consume dumps dropped there by operators or scheduled
// export jobs; this service never writes objects itself.
type DumpStore interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Bucket() string
}
