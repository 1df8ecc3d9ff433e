package port

import (
	"context"
	"io"
	"time"
)

// ArtifactObject is one report artifact on its way to the artifact store.
type ArtifactObject struct {
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
	// SHA256 is the hex digest written next to the artifact locally; stores
	// keep it as object metadata so downloads can be checked against the
	// manifest.
	SHA256 string
}

// StoredArtifact identifies an artifact after it was stored.
type StoredArtifact struct {
	Key  string
	ETag string
}

// ArtifactStore keeps published run artifacts. Implementations own the bucket
// or container; callers only deal in keys.
type ArtifactStore interface {
	Put(ctx context.Context, obj ArtifactObject) (*StoredArtifact, error)
	// DeleteAll removes every key, reporting the first failure.
	DeleteAll(ctx context.Context, keys []string) error
	// DownloadURL returns a time-limited link that saves as filename.
	DownloadURL(ctx context.Context, key, filename string, expiry time.Duration) (string, error)
}
