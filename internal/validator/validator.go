package validator

import (
	"docstracker/internal/domain"
	"docstracker/internal/validator/slot"
)

// Validator is a single candidate check for a document slot.
type Validator interface {
	Validate(g *domain.Group, f *domain.FileEntry) slot.ValidationResult
	Applies(d domain.DocType, req domain.Requirement) bool
	RuleKey() string
	RuleName() string
}
