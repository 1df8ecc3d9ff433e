package domain

import (
	"fmt"
	"strings"
)

// DocType is a document-category code. Valid codes are D01..D12 plus DocUnknown.
type DocType string

const (
	D01 DocType = "D01"
	D02 DocType = "D02"
	D03 DocType = "D03"
	D04 DocType = "D04"
	D05 DocType = "D05"
	D06 DocType = "D06"
	D07 DocType = "D07"
	D08 DocType = "D08"
	D09 DocType = "D09"
	D10 DocType = "D10"
	D11 DocType = "D11"
	D12 DocType = "D12"

	DocUnknown DocType = "UNKNOWN"
)

// SlotCount is the number of document slots in a requirement row.
const SlotCount = 12

// Slots lists the document slots in evaluation and precedence order.
var Slots = [SlotCount]DocType{D01, D02, D03, D04, D05, D06, D07, D08, D09, D10, D11, D12}

// Index returns the zero-based slot position of d, or -1 for DocUnknown and
// unrecognised codes.
func (d DocType) Index() int {
	for i, s := range Slots {
		if s == d {
			return i
		}
	}
	return -1
}

// Valid reports whether d is one of D01..D12.
func (d DocType) Valid() bool { return d.Index() >= 0 }

// ParseDocType accepts codes such as "D05", "d05" or " D05 ".
func ParseDocType(s string) (DocType, error) {
	d := DocType(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown document type %q", s)
	}
	return d, nil
}

// SlotStatus is the evaluation outcome for one document slot.
type SlotStatus string

const (
	StatusYes      SlotStatus = "Yes"
	StatusNo       SlotStatus = "No"
	StatusMismatch SlotStatus = "Mismatch"
	StatusNull     SlotStatus = "Null"
)

// RequirementKind describes how a slot is required for a declaration type.
type RequirementKind int

const (
	NotApplicable RequirementKind = iota
	Mandatory
	MandatoryWithToken
)

func (k RequirementKind) String() string {
	switch k {
	case Mandatory:
		return "Yes"
	case MandatoryWithToken:
		return "Token"
	default:
		return "Null"
	}
}

// GroupMode selects how files are pooled before evaluation.
type GroupMode string

const (
	ModePerDeclaration GroupMode = "per_cds"
	ModePerFolder      GroupMode = "per_folder"
)

// DiagnosticKind classifies a recovered, non-fatal condition.
type DiagnosticKind string

const (
	DiagScanWarning       DiagnosticKind = "ScanWarning"
	DiagEvaluationFailure DiagnosticKind = "EvaluationFailure"
	DiagMasterWarning     DiagnosticKind = "MasterWarning"
	DiagPublishWarning    DiagnosticKind = "PublishWarning"
)

// Well-known token names.
const (
	TokenCDs     = "CDs"
	TokenBill    = "Bill"
	TokenInvoice = "INVOICE"
	TokenBooking = "Booking"
)

// Issue tags emitted by the rule engine.
const (
	IssueDuplicatePrefix = "Duplicate:"
	IssueOrphanFiles     = "OrphanFiles"
	IssueUnknownCDsType  = "UnknownCDsType"
)
