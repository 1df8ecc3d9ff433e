package csvexport

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstracker/internal/domain"
)

func TestWriteHeader_PerDeclaration(t *testing.T) {
	var buf bytes.Buffer
	w := NewResultWriter(&buf, domain.ModePerDeclaration)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, 19)
	assert.Equal(t, "CDs", row[0])
	assert.Equal(t, "Invoices", row[1])
	assert.Equal(t, "D01", row[4])
	assert.Equal(t, "D12", row[15])
	assert.Equal(t, "Issues", row[18])
}

func TestWriteHeader_PerFolder(t *testing.T) {
	cols := ResultColumns(domain.ModePerFolder)
	assert.Equal(t, "Folder", cols[0])
	assert.Equal(t, "MissingDocs", cols[16])
}

func sampleResult() domain.EvaluationResult {
	res := domain.EvaluationResult{
		Key:        "123456789012",
		Invoices:   []string{"INV001", "INV002"},
		Type:       "E11",
		Bill:       "MSKU000111",
		Missing:    []domain.DocType{domain.D03, domain.D12},
		Mismatched: []domain.DocType{domain.D08},
		Issues:     []string{"Duplicate:D02", "OrphanFiles"},
	}
	for i := range res.Statuses {
		res.Statuses[i] = domain.StatusNull
	}
	res.Statuses[0] = domain.StatusYes
	res.Statuses[1] = domain.StatusYes
	res.Statuses[2] = domain.StatusNo
	res.Statuses[7] = domain.StatusMismatch
	res.Statuses[11] = domain.StatusNo
	return res
}

func TestWriteResults(t *testing.T) {
	var buf bytes.Buffer
	w := NewResultWriter(&buf, domain.ModePerDeclaration)
	require.NoError(t, w.WriteResults([]domain.EvaluationResult{sampleResult()}))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, 19)
	assert.Equal(t, "123456789012", row[0])
	assert.Equal(t, "INV001-INV002", row[1])
	assert.Equal(t, "E11", row[2])
	assert.Equal(t, "MSKU000111", row[3])
	assert.Equal(t, "Yes", row[4])
	assert.Equal(t, "No", row[6])
	assert.Equal(t, "Null", row[7])
	assert.Equal(t, "Mismatch", row[11])
	assert.Equal(t, "D03;D12", row[16])
	assert.Equal(t, "D08", row[17])
	assert.Equal(t, "Duplicate:D02;OrphanFiles", row[18])
}

func TestWriteResults_EmptyLists(t *testing.T) {
	res := domain.EvaluationResult{Key: "INV001", Invoices: []string{"INV001"}}
	row := ResultRow(&res)
	assert.Equal(t, "", row[16])
	assert.Equal(t, "", row[17])
	assert.Equal(t, "", row[18])
}

func TestWriteFiles(t *testing.T) {
	entry := domain.FileEntry{
		Folder:  "INV001",
		Name:    "INV001_BL_MSKU1_BKG_B7.pdf",
		Stem:    "INV001_BL_MSKU1_BKG_B7",
		Ext:     ".pdf",
		DocType: domain.D08,
		Tokens:  domain.Tokens{"INVOICE": "INV001", "Bill": "MSKU1", "Booking": "B7"},
		Hash:    "abc",
	}

	var buf bytes.Buffer
	w := NewFileWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteFiles([]domain.FileEntry{entry}))
	w.Flush()
	require.NoError(t, w.Error())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, FileColumns(), rows[0])
	assert.Equal(t, []string{
		"INV001", "INV001_BL_MSKU1_BKG_B7.pdf", "INV001_BL_MSKU1_BKG_B7", ".pdf", "D08",
		"", "MSKU1", "INV001", "B7", "Bill=MSKU1;Booking=B7;INVOICE=INV001", "abc",
	}, rows[1])
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Q3 Customs Report", "Q3_Customs_Report"},
		{"special chars", "HCM / Cat Lai (Oct–Dec)", "HCM_Cat_Lai_Oct_Dec"},
		{"hyphens and underscores preserved", "my-report_2025", "my-report_2025"},
		{"consecutive underscores collapsed", "test___report", "test_report"},
		{"leading/trailing cleaned", "  hello  ", "hello"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestBuildFilename(t *testing.T) {
	at := time.Date(2025, 3, 9, 14, 5, 0, 0, time.UTC)
	assert.Equal(t, "report_20250309_140500.csv", BuildFilename("report", at, "csv"))
	assert.Equal(t, "files_20250309_140500.csv", BuildFilename("files", at, ".csv"))
	assert.Equal(t, "report_20250309_140500.xlsx", BuildFilename("", at, "xlsx"))

	// runs in the same minute get distinct names
	later := at.Add(17 * time.Second)
	assert.NotEqual(t, BuildFilename("report", at, "csv"), BuildFilename("report", later, "csv"))
	assert.Equal(t, "report_20250309_140517.csv", BuildFilename("report", later, "csv"))
}
