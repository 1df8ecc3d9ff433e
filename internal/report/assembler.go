// Package report writes the run artifacts: the report as CSV and XLSX, the
// raw file index, checksum sidecars and the run manifest.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"docstracker/internal/csvexport"
	"docstracker/internal/domain"
)

// ManifestName is the fixed name of the run manifest.
const ManifestName = "REPORT.MANIFEST.json"

// Content types of the produced artifacts.
const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeJSON = "application/json"
)

// Options configures the assembler.
type Options struct {
	// Dir receives the artifacts. It is created when missing.
	Dir string
	// XLSX adds the workbook next to the CSV report.
	XLSX bool
	// Prefix names the report artifacts; empty selects "report".
	Prefix string
}

// Input is everything a run hands over for rendering.
type Input struct {
	RunID       string
	Root        string
	Mode        domain.GroupMode
	GeneratedAt time.Time
	Folders     []string
	Entries     []domain.FileEntry
	Results     []domain.EvaluationResult
	Unlinked    []string
	Diagnostics []domain.Diagnostic
}

// Artifact describes one written file.
type Artifact struct {
	Name        string `json:"name"`
	Path        string `json:"-"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	SHA256      string `json:"sha256"`
}

// Totals summarises a run.
type Totals struct {
	Groups         int `json:"groups"`
	CompleteGroups int `json:"complete_groups"`
	Folders        int `json:"folders"`
	FilesScanned   int `json:"files_scanned"`
	UnknownFiles   int `json:"unknown_files"`
	Diagnostics    int `json:"diagnostics"`
}

// Manifest is the JSON document written alongside the artifacts.
type Manifest struct {
	RunID           string              `json:"run_id"`
	GeneratedAt     string              `json:"generated_at"`
	RootPath        string              `json:"root_path"`
	Mode            domain.GroupMode    `json:"mode"`
	Files           map[string]string   `json:"files"`
	Artifacts       []Artifact          `json:"artifacts"`
	Totals          Totals              `json:"totals"`
	UnlinkedFolders []string            `json:"unlinked_folders,omitempty"`
	Diagnostics     []domain.Diagnostic `json:"diagnostics,omitempty"`
}

// Result lists every file the assembler wrote, manifest last.
type Result struct {
	Manifest  Manifest
	Artifacts []Artifact
}

// Assembler renders run output to disk.
type Assembler struct {
	opts Options
	log  logrus.FieldLogger
}

// NewAssembler creates an Assembler.
func NewAssembler(opts Options, log logrus.FieldLogger) *Assembler {
	if opts.Prefix == "" {
		opts.Prefix = "report"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Assembler{opts: opts, log: log.WithField("component", "report")}
}

// Write renders the artifacts atomically, writes a .sha256 sidecar for each
// data artifact and finishes with the manifest.
func (a *Assembler) Write(in Input) (*Result, error) {
	if err := os.MkdirAll(a.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	at := in.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}

	reportCSV, err := renderResults(in.Mode, in.Results)
	if err != nil {
		return nil, err
	}
	filesCSV, err := renderFiles(in.Entries)
	if err != nil {
		return nil, err
	}

	type pending struct {
		name        string
		contentType string
		data        []byte
	}
	outputs := []pending{
		{csvexport.BuildFilename(a.opts.Prefix, at, "csv"), ContentTypeCSV, reportCSV},
	}
	if a.opts.XLSX {
		wb, err := buildWorkbook(in.Mode, in.Results, in.Entries)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, pending{csvexport.BuildFilename(a.opts.Prefix, at, "xlsx"), ContentTypeXLSX, wb})
	}
	outputs = append(outputs, pending{csvexport.BuildFilename("files", at, "csv"), ContentTypeCSV, filesCSV})

	res := &Result{}
	manifest := Manifest{
		RunID:           in.RunID,
		GeneratedAt:     at.Format(time.RFC3339),
		RootPath:        in.Root,
		Mode:            in.Mode,
		Files:           make(map[string]string, len(outputs)),
		Totals:          totals(in),
		UnlinkedFolders: in.Unlinked,
		Diagnostics:     in.Diagnostics,
	}
	for _, out := range outputs {
		art, err := a.writeArtifact(out.name, out.contentType, out.data)
		if err != nil {
			return nil, err
		}
		if err := writeAtomic(art.Path+".sha256", []byte(art.SHA256+"\n")); err != nil {
			return nil, fmt.Errorf("writing checksum sidecar: %w", err)
		}
		manifest.Files[art.Name] = art.SHA256
		manifest.Artifacts = append(manifest.Artifacts, art)
		res.Artifacts = append(res.Artifacts, art)
	}

	body, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	art, err := a.writeArtifact(ManifestName, ContentTypeJSON, append(body, '\n'))
	if err != nil {
		return nil, err
	}
	res.Artifacts = append(res.Artifacts, art)
	res.Manifest = manifest

	a.log.WithFields(logrus.Fields{
		"run_id":    in.RunID,
		"dir":       a.opts.Dir,
		"artifacts": len(res.Artifacts),
		"groups":    manifest.Totals.Groups,
	}).Info("report: artifacts written")
	return res, nil
}

func (a *Assembler) writeArtifact(name, contentType string, data []byte) (Artifact, error) {
	path := filepath.Join(a.opts.Dir, name)
	if err := writeAtomic(path, data); err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Name:        name,
		Path:        path,
		ContentType: contentType,
		Size:        int64(len(data)),
		SHA256:      sha256Hex(data),
	}, nil
}

func renderResults(mode domain.GroupMode, results []domain.EvaluationResult) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(csvexport.BOM)
	w := csvexport.NewResultWriter(&buf, mode)
	if err := w.WriteHeader(); err != nil {
		return nil, fmt.Errorf("writing report header: %w", err)
	}
	if err := w.WriteResults(results); err != nil {
		return nil, fmt.Errorf("writing report rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing report: %w", err)
	}
	return buf.Bytes(), nil
}

func renderFiles(entries []domain.FileEntry) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(csvexport.BOM)
	w := csvexport.NewFileWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		return nil, fmt.Errorf("writing file index header: %w", err)
	}
	if err := w.WriteFiles(entries); err != nil {
		return nil, fmt.Errorf("writing file index rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing file index: %w", err)
	}
	return buf.Bytes(), nil
}

func totals(in Input) Totals {
	t := Totals{
		Groups:       len(in.Results),
		Folders:      len(in.Folders),
		FilesScanned: len(in.Entries),
		Diagnostics:  len(in.Diagnostics),
	}
	for i := range in.Results {
		if in.Results[i].Complete() {
			t.CompleteGroups++
		}
	}
	for i := range in.Entries {
		if in.Entries[i].DocType == domain.DocUnknown {
			t.UnknownFiles++
		}
	}
	return t
}
