package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"docstracker/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// List separators used inside a single cell.
const (
	InvoiceSeparator = "-"
	ListSeparator    = ";"
)

// fileColumns defines the header of the raw file index.
var fileColumns = []string{
	"Folder",
	"File",
	"Stem",
	"Ext",
	"DocType",
	"CDs",
	"Bill",
	"Invoice",
	"Booking",
	"Tokens",
	"Hash",
}

// ResultColumns returns the report header. The key column is named after the
// grouping mode: CDs per declaration, Folder per folder.
func ResultColumns(mode domain.GroupMode) []string {
	key := "CDs"
	if mode == domain.ModePerFolder {
		key = "Folder"
	}
	cols := make([]string, 0, 4+domain.SlotCount+3)
	cols = append(cols, key, "Invoices", "CDsType", "Bill")
	for _, d := range domain.Slots {
		cols = append(cols, string(d))
	}
	return append(cols, "MissingDocs", "MismatchDocs", "Issues")
}

// FileColumns returns the header of the raw file index.
func FileColumns() []string {
	return append([]string(nil), fileColumns...)
}

// Writer wraps csv.Writer for exporting report rows or the file index.
type Writer struct {
	csv     *csv.Writer
	columns []string
}

// NewResultWriter creates a Writer for evaluation results.
func NewResultWriter(w io.Writer, mode domain.GroupMode) *Writer {
	return &Writer{csv: csv.NewWriter(w), columns: ResultColumns(mode)}
}

// NewFileWriter creates a Writer for the raw file index.
func NewFileWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w), columns: fileColumns}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(w.columns)
}

// WriteResults writes one row per evaluation result.
func (w *Writer) WriteResults(results []domain.EvaluationResult) error {
	for i := range results {
		if err := w.csv.Write(ResultRow(&results[i])); err != nil {
			return err
		}
	}
	return nil
}

// WriteFiles writes one row per indexed file.
func (w *Writer) WriteFiles(entries []domain.FileEntry) error {
	for i := range entries {
		if err := w.csv.Write(FileRow(&entries[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// ResultRow renders a result in ResultColumns order.
func ResultRow(res *domain.EvaluationResult) []string {
	row := make([]string, 0, 4+domain.SlotCount+3)
	row = append(row, res.Key, strings.Join(res.Invoices, InvoiceSeparator), res.Type, res.Bill)
	for _, s := range res.Statuses {
		row = append(row, string(s))
	}
	return append(row,
		joinDocTypes(res.Missing),
		joinDocTypes(res.Mismatched),
		strings.Join(res.Issues, ListSeparator),
	)
}

// FileRow renders a file entry in FileColumns order. Tokens holds every
// extracted token as name=value pairs sorted by name.
func FileRow(e *domain.FileEntry) []string {
	pairs := make([]string, 0, len(e.Tokens))
	for _, name := range e.Tokens.Names() {
		pairs = append(pairs, name+"="+e.Tokens[name])
	}
	return []string{
		e.Folder,
		e.Name,
		e.Stem,
		e.Ext,
		string(e.DocType),
		e.Tokens[domain.TokenCDs],
		e.Tokens[domain.TokenBill],
		e.Tokens[domain.TokenInvoice],
		e.Tokens[domain.TokenBooking],
		strings.Join(pairs, ListSeparator),
		e.Hash,
	}
}

func joinDocTypes(ds []domain.DocType) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = string(d)
	}
	return strings.Join(parts, ListSeparator)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans an artifact prefix for use in a file or object name.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// TimestampLayout formats the run time embedded in artifact names.
const TimestampLayout = "20060102_150405"

// BuildFilename returns an artifact name.
// Format: {sanitized_prefix}_{YYYYMMDD_HHMMSS}.{ext}
func BuildFilename(prefix string, at time.Time, ext string) string {
	sanitized := SanitizeFilename(prefix)
	if sanitized == "" {
		sanitized = "report"
	}
	return fmt.Sprintf("%s_%s.%s", sanitized, at.Format(TimestampLayout), strings.TrimPrefix(ext, "."))
}
