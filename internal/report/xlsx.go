package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"docstracker/internal/csvexport"
	"docstracker/internal/domain"
)

// Sheet names in the workbook.
const (
	SheetReport = "Report"
	SheetFiles  = "Files"
)

// buildWorkbook renders the report and the file index into one workbook.
func buildWorkbook(mode domain.GroupMode, results []domain.EvaluationResult, entries []domain.FileEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetReport); err != nil {
		return nil, fmt.Errorf("naming report sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetFiles); err != nil {
		return nil, fmt.Errorf("creating files sheet: %w", err)
	}

	reportRows := make([][]string, 0, len(results)+1)
	reportRows = append(reportRows, csvexport.ResultColumns(mode))
	for i := range results {
		reportRows = append(reportRows, csvexport.ResultRow(&results[i]))
	}
	if err := writeSheet(f, SheetReport, reportRows); err != nil {
		return nil, err
	}

	fileRows := make([][]string, 0, len(entries)+1)
	fileRows = append(fileRows, csvexport.FileColumns())
	for i := range entries {
		fileRows = append(fileRows, csvexport.FileRow(&entries[i]))
	}
	if err := writeSheet(f, SheetFiles, fileRows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]string) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) > 0 {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("freezing %s header: %w", sheet, err)
		}
	}
	return nil
}
