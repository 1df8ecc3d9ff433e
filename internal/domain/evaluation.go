package domain

// Group is a pool of files evaluated together: one declaration, or one folder
// when no master is available. Groups are derived per run and never persisted.
type Group struct {
	Key      string      `json:"key"`
	CDs      string      `json:"cds"`
	Type     string      `json:"cds_type"`
	Bill     string      `json:"bill"`
	Invoices []string    `json:"invoices"`
	Files    []FileEntry `json:"files"`
	Mode     GroupMode   `json:"mode"`
}

// EvaluationResult is the per-group outcome of applying a requirement row.
type EvaluationResult struct {
	Key        string                `json:"key"`
	Invoices   []string              `json:"invoices"`
	Type       string                `json:"cds_type"`
	Bill       string                `json:"bill"`
	Statuses   [SlotCount]SlotStatus `json:"statuses"`
	Missing    []DocType             `json:"missing_docs"`
	Mismatched []DocType             `json:"mismatch_docs"`
	Issues     []string              `json:"issues"`
}

// Status returns the status for slot d.
func (r *EvaluationResult) Status(d DocType) SlotStatus {
	i := d.Index()
	if i < 0 {
		return ""
	}
	return r.Statuses[i]
}

// Complete reports whether no slot is missing or mismatched.
func (r *EvaluationResult) Complete() bool {
	return len(r.Missing) == 0 && len(r.Mismatched) == 0
}

// Diagnostic is a recovered condition surfaced as data rather than an error.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Path    string         `json:"path,omitempty"`
	Message string         `json:"message"`
}
