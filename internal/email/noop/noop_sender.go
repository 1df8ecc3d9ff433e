package noop

import (
	"context"

	"github.com/sirupsen/logrus"

	"docstracker/internal/port"
)

type noopNotifier struct {
	log logrus.FieldLogger
}

// NewNoopNotifier creates a RunNotifier that only logs the notice.
func NewNoopNotifier(log logrus.FieldLogger) port.RunNotifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &noopNotifier{log: log.WithField("component", "notifier")}
}

func (n *noopNotifier) NotifyRunCompleted(_ context.Context, recipients []string, notice port.RunNotice) error {
	entry := n.log.WithFields(logrus.Fields{
		"run_id":     notice.RunID,
		"root":       notice.Root,
		"mode":       notice.Mode,
		"groups":     notice.Groups,
		"complete":   notice.CompleteGroups,
		"recipients": len(recipients),
	})
	for _, l := range notice.Links {
		entry = entry.WithField("link."+l.Name, l.URL)
	}
	entry.Info("notifier: run completed (noop)")
	return nil
}
