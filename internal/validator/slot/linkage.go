package slot

import (
	"fmt"

	"docstracker/internal/domain"
)

// DeclarationLinkValidator checks D01 candidates: the CDs token must match the
// group's declaration and the stem must name one of the group's invoices.
// Folder groups without an inferred declaration skip the CDs half.
func DeclarationLinkValidator() *BuiltinValidator {
	return &BuiltinValidator{
		key:  "link.declaration",
		name: "Linkage: Declaration and Invoice",
		applies: func(d domain.DocType, _ domain.Requirement) bool {
			return d == domain.D01
		},
		fn: func(g *domain.Group, f *domain.FileEntry) ValidationResult {
			if g.CDs != "" {
				cds, ok := f.Tokens.Get(domain.TokenCDs)
				if !ok {
					return ValidationResult{Message: fmt.Sprintf("%s: no declaration number in file name", f.Name)}
				}
				if !domain.MatchesCDs(cds, g.CDs) {
					return ValidationResult{Message: fmt.Sprintf("%s: declaration %s does not match %s", f.Name, cds, g.CDs)}
				}
			}
			if !domain.ContainsAny(f.Stem, g.Invoices) {
				return ValidationResult{Message: fmt.Sprintf("%s: names none of the group invoices", f.Name)}
			}
			return ValidationResult{Passed: true}
		},
	}
}

// BillMatchValidator checks D08 candidates against the group's bill. Groups
// without a bill accept any candidate.
func BillMatchValidator() *BuiltinValidator {
	return &BuiltinValidator{
		key:  "match.bill",
		name: "Match: Bill of Lading",
		applies: func(d domain.DocType, _ domain.Requirement) bool {
			return d == domain.D08
		},
		fn: func(g *domain.Group, f *domain.FileEntry) ValidationResult {
			if g.Bill == "" {
				return ValidationResult{Passed: true}
			}
			bill, _ := f.Tokens.Get(domain.TokenBill)
			if bill != g.Bill {
				return ValidationResult{Message: fmt.Sprintf("%s: bill %q does not match %q", f.Name, bill, g.Bill)}
			}
			return ValidationResult{Passed: true}
		},
	}
}

// InvoiceTokenValidator checks token-constrained slots other than D01 and
// D08: the stem must name one of the group's invoices.
func InvoiceTokenValidator() *BuiltinValidator {
	return &BuiltinValidator{
		key:  "token.invoice",
		name: "Token: Invoice Reference",
		applies: func(d domain.DocType, req domain.Requirement) bool {
			return req.Kind == domain.MandatoryWithToken && d != domain.D01 && d != domain.D08
		},
		fn: func(g *domain.Group, f *domain.FileEntry) ValidationResult {
			if !domain.ContainsAny(f.Stem, g.Invoices) {
				return ValidationResult{Message: fmt.Sprintf("%s: names none of the group invoices", f.Name)}
			}
			return ValidationResult{Passed: true}
		},
	}
}
