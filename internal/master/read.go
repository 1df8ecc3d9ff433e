package master

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"docstracker/internal/domain"
)

// Format identifies a master file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", &domain.ValidationError{Msg: fmt.Sprintf("unsupported master format %q", filepath.Ext(path))}
}

// ReadFile opens and reads a master file.
func ReadFile(path string) (Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Table{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("opening master: %w", err)
	}
	defer f.Close()
	return Read(f, format)
}

// Read parses a master sheet. The first non-blank row is the header.
func Read(r io.Reader, format Format) (Table, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	case FormatXLSX:
		rows, err = readXLSX(r)
	default:
		return Table{}, &domain.ValidationError{Msg: fmt.Sprintf("unsupported master format %q", format)}
	}
	if err != nil {
		return Table{}, err
	}

	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		return Table{Header: row, Rows: rows[i+1:]}, nil
	}
	return Table{}, &domain.ValidationError{Msg: "master has no header row"}
}

// readCSV accepts UTF-8 with an optional byte order mark and falls back to
// Latin-1 when the content is not valid UTF-8.
func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading master: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		if data, err = charmap.ISO8859_1.NewDecoder().Bytes(data); err != nil {
			return nil, &domain.ValidationError{Msg: fmt.Sprintf("decoding master: %v", err)}
		}
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, &domain.ValidationError{Msg: fmt.Sprintf("parsing master csv: %v", err)}
	}
	return rows, nil
}

// readXLSX reads the first sheet with raw cell values so numeric declaration
// numbers are not reformatted by the cell style.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &domain.ValidationError{Msg: fmt.Sprintf("opening master workbook: %v", err)}
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &domain.ValidationError{Msg: fmt.Sprintf("reading sheet %q: %v", sheet, err)}
	}
	return rows, nil
}

// Load reads and normalizes a master file in one step.
func Load(path string, opts Options) ([]domain.DeclarationRecord, []domain.Diagnostic, error) {
	t, err := ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return Normalize(t, opts)
}
