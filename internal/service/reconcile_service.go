package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"docstracker/internal/config"
	"docstracker/internal/domain"
	"docstracker/internal/grouper"
	"docstracker/internal/indexer"
	"docstracker/internal/master"
	"docstracker/internal/pattern"
	"docstracker/internal/port"
	"docstracker/internal/reference"
	"docstracker/internal/report"
	"docstracker/internal/validator"
)

// AccessCheckName is the file CheckAccess writes and removes in the root.
const AccessCheckName = ".access_check.tmp"

// RunInput is the DTO for one reconciliation run.
type RunInput struct {
	Root          string `json:"root"`
	ReferenceDir  string `json:"reference_dir"`
	MasterPath    string `json:"master_path"`
	RequireMaster bool   `json:"require_master"`
	KeyDigits     int    `json:"key_digits"`
	IgnoreCase    bool   `json:"ignore_case"`
	FallbackType  string `json:"fallback_type"`
	Workers       int    `json:"workers"`
	HashFiles     bool   `json:"hash_files"`
	SkipHidden    bool   `json:"skip_hidden"`
	OutputDir     string `json:"output_dir"`
	XLSX          bool   `json:"xlsx"`
	Prefix        string `json:"prefix"`
	Publish       bool   `json:"publish"`
}

// RunInputFromConfig seeds a RunInput from the loaded configuration.
func RunInputFromConfig(cfg *config.Config) RunInput {
	return RunInput{
		Root:          cfg.Scan.Root,
		ReferenceDir:  cfg.Reference.Dir,
		MasterPath:    cfg.Master.Path,
		RequireMaster: cfg.Master.Require,
		KeyDigits:     cfg.Master.KeyDigits,
		IgnoreCase:    cfg.Reference.IgnoreCase,
		FallbackType:  cfg.Reference.FallbackType,
		Workers:       cfg.Scan.Workers,
		HashFiles:     cfg.Scan.HashFiles,
		SkipHidden:    cfg.Scan.SkipHidden,
		OutputDir:     cfg.Output.Dir,
		XLSX:          cfg.Output.XLSX,
		Prefix:        cfg.Output.Prefix,
		Publish:       cfg.Output.Publish,
	}
}

// RunSummary is the outcome of a run.
type RunSummary struct {
	RunID       string                    `json:"run_id"`
	Root        string                    `json:"root"`
	Mode        domain.GroupMode          `json:"mode"`
	Results     []domain.EvaluationResult `json:"results"`
	Unlinked    []string                  `json:"unlinked_folders,omitempty"`
	Diagnostics []domain.Diagnostic       `json:"diagnostics"`
	Artifacts   []report.Artifact         `json:"artifacts"`
	Totals      report.Totals             `json:"totals"`
	Links       []port.ArtifactLink       `json:"links,omitempty"`
}

// ClassifyInput is the DTO for classifying file stems against a reference.
type ClassifyInput struct {
	ReferenceDir string   `json:"reference_dir"`
	IgnoreCase   bool     `json:"ignore_case"`
	Invoice      string   `json:"invoice"`
	Stems        []string `json:"stems"`
}

// Classification is the result for one stem.
type Classification struct {
	Stem    string         `json:"stem"`
	DocType domain.DocType `json:"doc_type"`
	Tokens  domain.Tokens  `json:"tokens"`
}

// ReconcileService defines the reconciliation contract.
type ReconcileService interface {
	Run(ctx context.Context, input RunInput) (*RunSummary, error)
	Classify(ctx context.Context, input ClassifyInput) ([]Classification, error)
	Reference(ctx context.Context, dir, fallbackType string) (*domain.Reference, error)
	CheckAccess(ctx context.Context, root string) error
}

type reconcileService struct {
	publisher  *ArtifactPublisher
	notifier   port.RunNotifier
	recipients []string
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewReconcileService creates a new ReconcileService implementation.
// store and notifier may be nil; publishing then reports a warning and
// notification is skipped.
func NewReconcileService(
	store port.ArtifactStore,
	notifier port.RunNotifier,
	cfg *config.Config,
	log logrus.FieldLogger,
) ReconcileService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &reconcileService{
		notifier:   notifier,
		recipients: cfg.Email.Recipients,
		log:        log,
		now:        time.Now,
	}
	if store != nil {
		s.publisher = NewArtifactPublisher(store, &cfg.S3, log)
	}
	return s
}

func (s *reconcileService) Run(ctx context.Context, input RunInput) (*RunSummary, error) {
	runID := uuid.New().String()
	log := s.log.WithFields(logrus.Fields{"component": "reconcile", "run_id": runID, "root": input.Root})
	started := s.now()
	log.Info("reconcile: run started")

	ref, err := reference.Load(input.ReferenceDir, reference.Options{FallbackType: input.FallbackType})
	if err != nil {
		log.WithError(err).Error("reconcile: loading reference failed")
		return nil, err
	}
	classifier, err := pattern.NewClassifier(ref.Syntax, pattern.Options{IgnoreCase: input.IgnoreCase})
	if err != nil {
		log.WithError(err).Error("reconcile: compiling naming syntax failed")
		return nil, err
	}

	if err := checkRoot(input.Root); err != nil {
		return nil, err
	}

	var diags []domain.Diagnostic
	records, masterDiags, err := s.loadMaster(input, log)
	if err != nil {
		return nil, err
	}
	diags = append(diags, masterDiags...)

	mode := domain.ModePerFolder
	if len(records) > 0 {
		mode = domain.ModePerDeclaration
	}

	ixOpts := indexer.Options{Workers: input.Workers, SkipHidden: input.SkipHidden}
	if input.HashFiles {
		ixOpts.Hasher = indexer.SHA256Hasher{}
	}
	scan, err := indexer.New(classifier, ixOpts, log).Scan(ctx, os.DirFS(input.Root), mode)
	if err != nil {
		log.WithError(err).Error("reconcile: scan failed")
		return nil, err
	}
	diags = append(diags, scan.Diagnostics...)

	var (
		groups   []domain.Group
		unlinked []string
	)
	if mode == domain.ModePerDeclaration {
		groups, unlinked = grouper.ByDeclaration(records, scan.Entries)
	} else {
		groups = grouper.ByFolder(scan.Folders, scan.Entries)
	}

	engine := validator.NewEngine(validator.NewDefaultRegistry(), log)
	results, evalDiags := engine.EvaluateAll(ctx, groups, ref.Matrix, input.Workers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	diags = append(diags, evalDiags...)

	outDir := input.OutputDir
	if outDir == "" {
		outDir = input.Root
	}
	assembler := report.NewAssembler(report.Options{Dir: outDir, XLSX: input.XLSX, Prefix: input.Prefix}, log)
	written, err := assembler.Write(report.Input{
		RunID:       runID,
		Root:        input.Root,
		Mode:        mode,
		GeneratedAt: started,
		Folders:     scan.Folders,
		Entries:     scan.Entries,
		Results:     results,
		Unlinked:    unlinked,
		Diagnostics: diags,
	})
	if err != nil {
		log.WithError(err).Error("reconcile: writing report failed")
		return nil, fmt.Errorf("writing report: %w", err)
	}

	summary := &RunSummary{
		RunID:       runID,
		Root:        input.Root,
		Mode:        mode,
		Results:     results,
		Unlinked:    unlinked,
		Diagnostics: diags,
		Artifacts:   written.Artifacts,
		Totals:      written.Manifest.Totals,
	}

	if input.Publish {
		s.publish(ctx, summary, log)
	}
	s.notify(ctx, summary, log)

	log.WithFields(logrus.Fields{
		"mode":        mode,
		"groups":      summary.Totals.Groups,
		"complete":    summary.Totals.CompleteGroups,
		"diagnostics": len(summary.Diagnostics),
		"elapsed":     s.now().Sub(started).String(),
	}).Info("reconcile: run finished")
	return summary, nil
}

// loadMaster reads the declaration master. Without RequireMaster an unusable
// master degrades the run to per-folder mode with a MasterWarning.
func (s *reconcileService) loadMaster(input RunInput, log logrus.FieldLogger) ([]domain.DeclarationRecord, []domain.Diagnostic, error) {
	if input.MasterPath == "" {
		if input.RequireMaster {
			return nil, nil, domain.ErrMasterRequired
		}
		return nil, nil, nil
	}

	records, diags, err := master.Load(input.MasterPath, master.Options{KeyDigits: input.KeyDigits})
	if err == nil && len(records) == 0 {
		err = &domain.ValidationError{Msg: fmt.Sprintf("%s has no usable declaration rows", filepath.Base(input.MasterPath))}
	}
	if err != nil {
		if input.RequireMaster {
			log.WithError(err).Error("reconcile: master unusable")
			return nil, nil, err
		}
		log.WithError(err).Warn("reconcile: master unusable, falling back to per-folder mode")
		diags = append(diags, domain.Diagnostic{
			Kind:    domain.DiagMasterWarning,
			Path:    input.MasterPath,
			Message: err.Error(),
		})
		return nil, diags, nil
	}
	return records, diags, nil
}

func (s *reconcileService) publish(ctx context.Context, summary *RunSummary, log logrus.FieldLogger) {
	if s.publisher == nil {
		summary.Diagnostics = append(summary.Diagnostics, domain.Diagnostic{
			Kind:    domain.DiagPublishWarning,
			Message: domain.ErrPublishDisabled.Error(),
		})
		return
	}
	links, err := s.publisher.Publish(ctx, summary.RunID, summary.Artifacts)
	if err != nil {
		log.WithError(err).Warn("reconcile: publishing failed")
		summary.Diagnostics = append(summary.Diagnostics, domain.Diagnostic{
			Kind:    domain.DiagPublishWarning,
			Message: err.Error(),
		})
		return
	}
	summary.Links = links
}

func (s *reconcileService) notify(ctx context.Context, summary *RunSummary, log logrus.FieldLogger) {
	if s.notifier == nil {
		return
	}
	notice := port.RunNotice{
		RunID:          summary.RunID,
		Root:           summary.Root,
		Mode:           string(summary.Mode),
		FinishedAt:     s.now(),
		Groups:         summary.Totals.Groups,
		CompleteGroups: summary.Totals.CompleteGroups,
		FilesScanned:   summary.Totals.FilesScanned,
		Diagnostics:    len(summary.Diagnostics),
		Links:          summary.Links,
	}
	if err := s.notifier.NotifyRunCompleted(ctx, s.recipients, notice); err != nil {
		log.WithError(err).Warn("reconcile: notification failed")
		summary.Diagnostics = append(summary.Diagnostics, domain.Diagnostic{
			Kind:    domain.DiagPublishWarning,
			Message: fmt.Sprintf("notification failed: %v", err),
		})
	}
}

func (s *reconcileService) Classify(_ context.Context, input ClassifyInput) ([]Classification, error) {
	ref, err := reference.Load(input.ReferenceDir, reference.Options{})
	if err != nil {
		return nil, err
	}
	c, err := pattern.NewClassifier(ref.Syntax, pattern.Options{IgnoreCase: input.IgnoreCase})
	if err != nil {
		return nil, err
	}
	var m *pattern.Matcher
	if input.Invoice != "" {
		m, err = c.ForInvoice(input.Invoice)
	} else {
		m, err = c.Deferred()
	}
	if err != nil {
		return nil, err
	}

	out := make([]Classification, 0, len(input.Stems))
	for _, stem := range input.Stems {
		d, tokens := m.Match(stem)
		out = append(out, Classification{Stem: stem, DocType: d, Tokens: tokens})
	}
	return out, nil
}

func (s *reconcileService) Reference(_ context.Context, dir, fallbackType string) (*domain.Reference, error) {
	ref, err := reference.Load(dir, reference.Options{FallbackType: fallbackType})
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// CheckAccess verifies the root is a directory the process can write to by
// creating and removing a marker file.
func (s *reconcileService) CheckAccess(_ context.Context, root string) error {
	if err := checkRoot(root); err != nil {
		return err
	}
	marker := filepath.Join(root, AccessCheckName)
	if err := os.WriteFile(marker, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("%w: not writable: %v", domain.ErrInvalidRoot, err)
	}
	if err := os.Remove(marker); err != nil {
		return fmt.Errorf("%w: removing marker: %v", domain.ErrInvalidRoot, err)
	}
	s.log.WithField("root", root).Info("reconcile: access check passed")
	return nil
}

func checkRoot(root string) error {
	if root == "" {
		return fmt.Errorf("%w: no root folder given", domain.ErrInvalidRoot)
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s does not exist", domain.ErrInvalidRoot, root)
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidRoot, root)
	}
	return nil
}
