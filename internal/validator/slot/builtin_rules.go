// Package slot holds the built-in candidate checks applied to files competing
// for a document slot.
package slot

import (
	"docstracker/internal/domain"
)

// ValidationResult is the outcome of one check against one candidate file.
type ValidationResult struct {
	Passed  bool
	Message string
}

// BuiltinValidator wraps a check function and its metadata for the registry.
type BuiltinValidator struct {
	key     string
	name    string
	applies func(domain.DocType, domain.Requirement) bool
	fn      func(*domain.Group, *domain.FileEntry) ValidationResult
}

func (b *BuiltinValidator) RuleKey() string  { return b.key }
func (b *BuiltinValidator) RuleName() string { return b.name }

func (b *BuiltinValidator) Applies(d domain.DocType, req domain.Requirement) bool {
	return b.applies(d, req)
}

func (b *BuiltinValidator) Validate(g *domain.Group, f *domain.FileEntry) ValidationResult {
	return b.fn(g, f)
}

// AllBuiltinValidators returns the built-in checks in evaluation order.
func AllBuiltinValidators() []*BuiltinValidator {
	return []*BuiltinValidator{
		DeclarationLinkValidator(),
		BillMatchValidator(),
		InvoiceTokenValidator(),
	}
}
