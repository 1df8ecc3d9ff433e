package master

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"docstracker/internal/domain"
)

// DefaultKeyDigits is the declaration key length used when none is configured.
const DefaultKeyDigits = 12

// Table is a raw master sheet: one header row followed by data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Options controls key normalization.
type Options struct {
	// KeyDigits is the key length: longer numbers are truncated, shorter ones
	// rejected. Zero selects DefaultKeyDigits.
	KeyDigits int
}

// Normalize collapses master rows into one record per normalized key, ordered
// by first appearance. Type and bill come from the first row of the key that
// carries a value; invoices are deduplicated and sorted. Rows whose key is
// missing or shorter than KeyDigits are skipped and reported as MasterWarning
// diagnostics.
func Normalize(t Table, opts Options) ([]domain.DeclarationRecord, []domain.Diagnostic, error) {
	cols, err := DetectColumns(t.Header)
	if err != nil {
		return nil, nil, err
	}
	digits := opts.KeyDigits
	if digits <= 0 {
		digits = DefaultKeyDigits
	}

	var (
		order   []string
		byKey   = make(map[string]*domain.DeclarationRecord)
		invSets = make(map[string]map[string]bool)
		diags   []domain.Diagnostic
	)
	for i, row := range t.Rows {
		raw := cell(row, cols[ColCDs])
		key := NormalizeKey(raw, digits)
		if key == "" {
			if !blankRow(row) {
				diags = append(diags, domain.Diagnostic{
					Kind:    domain.DiagMasterWarning,
					Path:    fmt.Sprintf("row %d", i+2),
					Message: fmt.Sprintf("no declaration number in %q", raw),
				})
			}
			continue
		}
		if len(key) != digits {
			diags = append(diags, domain.Diagnostic{
				Kind:    domain.DiagMasterWarning,
				Path:    fmt.Sprintf("row %d", i+2),
				Message: fmt.Sprintf("declaration number %q has %d digits, want at least %d", raw, len(key), digits),
			})
			continue
		}

		rec, ok := byKey[key]
		if !ok {
			rec = &domain.DeclarationRecord{Key: key}
			byKey[key] = rec
			invSets[key] = make(map[string]bool)
			order = append(order, key)
		}
		if rec.Type == "" {
			rec.Type = cell(row, cols[ColCDsType])
		}
		if rec.Bill == "" {
			rec.Bill = cell(row, cols[ColBill])
		}
		if inv := cell(row, cols[ColInvoice]); inv != "" {
			invSets[key][inv] = true
		}
	}

	records := make([]domain.DeclarationRecord, 0, len(order))
	for _, key := range order {
		rec := byKey[key]
		rec.Invoices = make([]string, 0, len(invSets[key]))
		for inv := range invSets[key] {
			rec.Invoices = append(rec.Invoices, inv)
		}
		sort.Strings(rec.Invoices)
		records = append(records, *rec)
	}
	return records, diags, nil
}

// NormalizeKey turns a raw declaration number into its comparison key.
// Spaces and thousands separators are removed, spreadsheet scientific
// notation such as 1.23456789012E+11 is expanded exactly, and the remaining
// digits are truncated to the first n.
func NormalizeKey(raw string, n int) string {
	s := strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	digits := domain.DigitsOnly(s)
	if strings.ContainsAny(s, ".eE") {
		if r, ok := new(big.Rat).SetString(s); ok && r.Sign() > 0 {
			digits = new(big.Int).Quo(r.Num(), r.Denom()).String()
		}
	}
	if n > 0 && len(digits) > n {
		digits = digits[:n]
	}
	return digits
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
