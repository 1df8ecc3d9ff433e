// Package master reads the declaration master and collapses it into one
// record per declaration key.
package master

import (
	"strings"

	"docstracker/internal/domain"
)

// Canonical column names.
const (
	ColCDs     = "CDs"
	ColInvoice = "Invoice"
	ColCDsType = "CDsType"
	ColBill    = "Bill"
)

var requiredColumns = []string{ColCDs, ColInvoice, ColCDsType, ColBill}

// Columns maps each canonical column to its index in the raw header.
type Columns map[string]int

// DetectColumns maps raw header names to the canonical columns. Headers are
// compared lower-cased with everything but letters and digits removed, so
// "CDs No.", "cds_no" and "CDSNO" are equivalent. The declaration-type
// column is detected before the declaration column so "CDs Type" is never
// taken for the key. The first header matching a column wins.
func DetectColumns(header []string) (Columns, error) {
	cols := make(Columns, len(requiredColumns))
	for i, raw := range header {
		clean := cleanHeader(raw)
		if clean == "" {
			continue
		}
		switch {
		case strings.Contains(clean, "cdstype") || strings.HasPrefix(clean, "type"):
			setOnce(cols, ColCDsType, i)
		case strings.HasPrefix(clean, "inv"):
			setOnce(cols, ColInvoice, i)
		case strings.Contains(clean, "bill") || strings.Contains(clean, "awb") || strings.Contains(clean, "bl"):
			setOnce(cols, ColBill, i)
		case strings.HasPrefix(clean, "cds") || strings.HasSuffix(clean, "cds") ||
			strings.Contains(clean, "cdsno") || strings.Contains(clean, "cdsnm") ||
			strings.Contains(clean, "barcode"):
			setOnce(cols, ColCDs, i)
		}
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.ValidationError{Missing: missing}
	}
	return cols, nil
}

func setOnce(cols Columns, name string, idx int) {
	if _, ok := cols[name]; !ok {
		cols[name] = idx
	}
}

func cleanHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
