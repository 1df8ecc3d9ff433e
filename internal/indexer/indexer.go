// Package indexer walks the root folder one level deep and classifies every
// file it finds.
package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"docstracker/internal/domain"
	"docstracker/internal/pattern"
)

const (
	DefaultWorkers = 6
	MaxWorkers     = 16
)

// Options configures a scan.
type Options struct {
	Workers    int
	Hasher     Hasher
	SkipHidden bool
}

// ScanResult holds the classified files in folder order then file order.
type ScanResult struct {
	Folders     []string            `json:"folders"`
	Entries     []domain.FileEntry  `json:"entries"`
	Diagnostics []domain.Diagnostic `json:"diagnostics"`
}

// Indexer scans a root folder with a bounded pool of folder workers.
type Indexer struct {
	classifier *pattern.Classifier
	opts       Options
	log        logrus.FieldLogger
}

// New creates an Indexer. Workers outside 1..MaxWorkers are clamped and zero
// selects DefaultWorkers.
func New(classifier *pattern.Classifier, opts Options, log logrus.FieldLogger) *Indexer {
	switch {
	case opts.Workers <= 0:
		opts.Workers = DefaultWorkers
	case opts.Workers > MaxWorkers:
		opts.Workers = MaxWorkers
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Indexer{classifier: classifier, opts: opts, log: log.WithField("component", "indexer")}
}

type folderResult struct {
	entries     []domain.FileEntry
	diagnostics []domain.Diagnostic
}

// Scan classifies the files inside each immediate child folder of fsys. In
// per-folder mode the folder name is bound to {INVOICE}; in per-declaration
// mode {INVOICE} is captured generically. Folder and file failures are
// recorded as diagnostics. An unreadable root returns ErrInvalidRoot.
// Cancelling ctx stops new folders from starting; the partial result is
// returned together with ctx.Err().
func (ix *Indexer) Scan(ctx context.Context, fsys fs.FS, mode domain.GroupMode) (*ScanResult, error) {
	rootEntries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRoot, err)
	}

	result := &ScanResult{}
	for _, e := range rootEntries {
		if !e.IsDir() || (ix.opts.SkipHidden && hidden(e.Name())) {
			continue
		}
		result.Folders = append(result.Folders, e.Name())
	}

	slots := make([]folderResult, len(result.Folders))
	g := new(errgroup.Group)
	g.SetLimit(ix.opts.Workers)

	for i, folder := range result.Folders {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			slots[i] = ix.scanFolder(fsys, folder, mode)
			return nil
		})
	}
	_ = g.Wait()

	for _, s := range slots {
		result.Entries = append(result.Entries, s.entries...)
		result.Diagnostics = append(result.Diagnostics, s.diagnostics...)
	}

	ix.log.WithFields(logrus.Fields{
		"folders":     len(result.Folders),
		"files":       len(result.Entries),
		"diagnostics": len(result.Diagnostics),
		"mode":        mode,
	}).Info("indexer: scan finished")

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (ix *Indexer) scanFolder(fsys fs.FS, folder string, mode domain.GroupMode) folderResult {
	var out folderResult
	warn := func(p string, err error) {
		ix.log.WithField("path", p).WithError(err).Warn("indexer: unreadable entry")
		out.diagnostics = append(out.diagnostics, domain.Diagnostic{Kind: domain.DiagScanWarning, Path: p, Message: err.Error()})
	}

	var (
		matcher *pattern.Matcher
		err     error
	)
	if mode == domain.ModePerFolder {
		matcher, err = ix.classifier.ForInvoice(folder)
	} else {
		matcher, err = ix.classifier.Deferred()
	}
	if err != nil {
		warn(folder, err)
		return out
	}

	files, err := fs.ReadDir(fsys, folder)
	if err != nil {
		warn(folder, err)
		return out
	}

	for _, f := range files {
		name := f.Name()
		if f.IsDir() || (ix.opts.SkipHidden && hidden(name)) {
			continue
		}
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		docType, tokens := matcher.Match(stem)

		entry := domain.FileEntry{
			Folder:  folder,
			Name:    name,
			Stem:    stem,
			Ext:     strings.ToLower(ext),
			DocType: docType,
			Tokens:  tokens,
		}
		if ix.opts.Hasher != nil {
			p := path.Join(folder, name)
			// The name alone classifies the file, so a failed hash keeps the entry.
			if sum, err := ix.opts.Hasher.Hash(fsys, p); err != nil {
				warn(p, err)
			} else {
				entry.Hash = sum
			}
		}
		out.entries = append(out.entries, entry)
	}
	return out
}

// hidden matches dot files and the lock files office suites leave behind.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$")
}
