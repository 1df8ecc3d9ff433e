package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"docstracker/internal/domain"
)

// syntaxHeaderLabels are first-column values that mark a header row in syntax.csv.
var syntaxHeaderLabels = map[string]bool{
	"id":      true,
	"code":    true,
	"docid":   true,
	"docs id": true,
	"docsid":  true,
}

// nullCells are the requirement cell spellings that mean "not applicable".
var nullCells = map[string]bool{
	"":     true,
	"null": true,
	"nan":  true,
	"none": true,
}

var mandatoryCells = map[string]bool{
	"yes":       true,
	"y":         true,
	"x":         true,
	"mandatory": true,
}

// ParseSyntaxCSV reads naming rules from DocID[,Description],Pattern rows.
// The first non-blank row is skipped as a header when its first cell is a
// known label.
func ParseSyntaxCSV(r io.Reader) ([]domain.NamingRule, error) {
	records, err := readAll(r, "syntax")
	if err != nil {
		return nil, err
	}

	var rules []domain.NamingRule
	headerChecked := false
	for _, rc := range records {
		rec, line := rc.fields, rc.line
		if blankRecord(rec) {
			continue
		}
		first := strings.TrimSpace(rec[0])
		if !headerChecked {
			headerChecked = true
			if syntaxHeaderLabels[strings.ToLower(first)] {
				continue
			}
		}
		if len(rec) < 2 {
			return nil, &domain.ConfigError{Source: "syntax", Line: line, Msg: "expected at least a document type and a pattern"}
		}
		docType, err := domain.ParseDocType(first)
		if err != nil {
			return nil, &domain.ConfigError{Source: "syntax", Line: line, Msg: err.Error()}
		}
		rule := domain.NamingRule{DocType: docType}
		if len(rec) > 2 {
			rule.Description = strings.TrimSpace(rec[1])
			rule.Template = strings.TrimSpace(rec[2])
		} else {
			rule.Template = strings.TrimSpace(rec[1])
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// ParseMatrixCSV reads the requirement matrix. The first non-blank row is the
// header: column 0 holds the declaration type, the remaining columns are
// mapped by their D01..D12 header, or positionally when the header carries no
// document codes. Parsing stops at a row whose first cell starts with "Note".
func ParseMatrixCSV(r io.Reader) (domain.RequirementMatrix, error) {
	var matrix domain.RequirementMatrix
	records, err := readAll(r, "template")
	if err != nil {
		return matrix, err
	}

	var columns map[int]domain.DocType
	seen := make(map[string]bool)
	for _, rc := range records {
		rec, line := rc.fields, rc.line
		if blankRecord(rec) {
			continue
		}
		if columns == nil {
			columns = headerColumns(rec)
			continue
		}
		cdsType := strings.TrimSpace(rec[0])
		if strings.HasPrefix(strings.ToLower(cdsType), "note") {
			break
		}
		if cdsType == "" {
			continue
		}
		if seen[cdsType] {
			return matrix, &domain.ConfigError{Source: "template", Line: line, Msg: fmt.Sprintf("declaration type %q is listed more than once", cdsType)}
		}
		seen[cdsType] = true

		row := domain.RequirementRow{Type: cdsType}
		for col, docType := range columns {
			if col >= len(rec) {
				continue
			}
			req, err := ParseRequirement(rec[col])
			if err != nil {
				return matrix, &domain.ConfigError{Source: "template", Line: line, Msg: fmt.Sprintf("%s/%s: %v", cdsType, docType, err)}
			}
			row.Slots[docType.Index()] = req
		}
		matrix.Rows = append(matrix.Rows, row)
	}
	if columns == nil {
		return matrix, &domain.ConfigError{Source: "template", Msg: "missing header row"}
	}
	return matrix, nil
}

// ParseRequirement interprets one matrix cell: Null spellings, Yes spellings
// or a {TOKEN} reference.
func ParseRequirement(cell string) (domain.Requirement, error) {
	v := strings.TrimSpace(cell)
	lower := strings.ToLower(v)
	switch {
	case nullCells[lower]:
		return domain.Requirement{Kind: domain.NotApplicable}, nil
	case mandatoryCells[lower]:
		return domain.Requirement{Kind: domain.Mandatory}, nil
	case strings.HasPrefix(v, "{") && strings.HasSuffix(v, "}"):
		token := strings.TrimSpace(v[1 : len(v)-1])
		if token == "" {
			return domain.Requirement{}, errors.New("empty token reference")
		}
		return domain.Requirement{Kind: domain.MandatoryWithToken, Token: token}, nil
	}
	return domain.Requirement{}, fmt.Errorf("unrecognised requirement %q", v)
}

func headerColumns(header []string) map[int]domain.DocType {
	columns := make(map[int]domain.DocType)
	for col := 1; col < len(header); col++ {
		if d, err := domain.ParseDocType(header[col]); err == nil {
			columns[col] = d
		}
	}
	if len(columns) > 0 {
		return columns
	}
	for col := 1; col <= domain.SlotCount; col++ {
		columns[col] = domain.Slots[col-1]
	}
	return columns
}

// record is one CSV row with the 1-based line it starts on. encoding/csv
// drops empty lines, so the index in the slice is not the line number.
type record struct {
	line   int
	fields []string
}

func readAll(r io.Reader, source string) ([]record, error) {
	cr := csv.NewReader(stripBOM(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var records []record
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.ConfigError{Source: source, Msg: err.Error()}
		}
		line, _ := cr.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
	return records, nil
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
