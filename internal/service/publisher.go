package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	"docstracker/internal/config"
	"docstracker/internal/port"
	"docstracker/internal/report"
)

// ArtifactPublisher uploads run artifacts to object storage and returns
// presigned download links.
type ArtifactPublisher struct {
	store port.ArtifactStore
	cfg   *config.S3Config
	log   logrus.FieldLogger
}

// NewArtifactPublisher creates an ArtifactPublisher.
func NewArtifactPublisher(store port.ArtifactStore, cfg *config.S3Config, log logrus.FieldLogger) *ArtifactPublisher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ArtifactPublisher{store: store, cfg: cfg, log: log.WithField("component", "publisher")}
}

// ObjectKey is the storage key of an artifact: <prefix>/<runID>/<name>.
func (p *ArtifactPublisher) ObjectKey(runID, name string) string {
	return path.Join(p.cfg.KeyPrefix, runID, name)
}

// Publish uploads every artifact under the run's key prefix. Objects already
// uploaded are removed again when a later upload fails, so a run is either
// fully published or not at all.
func (p *ArtifactPublisher) Publish(ctx context.Context, runID string, artifacts []report.Artifact) ([]port.ArtifactLink, error) {
	uploaded := make([]string, 0, len(artifacts))
	links := make([]port.ArtifactLink, 0, len(artifacts))

	expiry := time.Duration(p.cfg.PresignExpiry) * time.Second

	for _, art := range artifacts {
		key := p.ObjectKey(runID, art.Name)
		data, err := os.ReadFile(art.Path)
		if err != nil {
			p.rollback(ctx, uploaded)
			return nil, fmt.Errorf("reading %s: %w", art.Name, err)
		}
		if _, err := p.store.Put(ctx, port.ArtifactObject{
			Key:         key,
			Body:        bytes.NewReader(data),
			ContentType: art.ContentType,
			Size:        int64(len(data)),
			SHA256:      art.SHA256,
		}); err != nil {
			p.rollback(ctx, uploaded)
			return nil, fmt.Errorf("uploading %s: %w", art.Name, err)
		}
		uploaded = append(uploaded, key)

		url, err := p.store.DownloadURL(ctx, key, art.Name, expiry)
		if err != nil {
			p.log.WithError(err).WithField("key", key).Warn("publisher: presign failed")
			url = ""
		}
		links = append(links, port.ArtifactLink{Name: art.Name, URL: url})
	}

	p.log.WithFields(logrus.Fields{
		"run_id":  runID,
		"bucket":  p.cfg.Bucket,
		"objects": len(uploaded),
	}).Info("publisher: artifacts uploaded")
	return links, nil
}

func (p *ArtifactPublisher) rollback(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := p.store.DeleteAll(ctx, keys); err != nil {
		p.log.WithError(err).WithField("keys", len(keys)).Warn("publisher: rollback delete failed")
	}
}
