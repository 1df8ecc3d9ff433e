package port

import (
	"context"
	"time"
)

// ArtifactLink points at one published report artifact.
type ArtifactLink struct {
	Name string
	URL  string
}

// RunNotice summarises a finished reconciliation run for operators.
type RunNotice struct {
	RunID          string
	Root           string
	Mode           string
	FinishedAt     time.Time
	Groups         int
	CompleteGroups int
	FilesScanned   int
	Diagnostics    int
	Links          []ArtifactLink
}

// RunNotifier delivers run-completed notices.
type RunNotifier interface {
	NotifyRunCompleted(ctx context.Context, recipients []string, notice RunNotice) error
}
