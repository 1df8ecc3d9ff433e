package domain

// NamingRule is one naming-syntax entry: a document type and its filename template.
type NamingRule struct {
	DocType     DocType `json:"doc_type" yaml:"doc"`
	Template    string  `json:"pattern" yaml:"pattern"`
	Description string  `json:"description,omitempty" yaml:"description"`
}

// Requirement is a single cell of the requirement matrix.
type Requirement struct {
	Kind  RequirementKind `json:"kind"`
	Token string          `json:"token,omitempty"`
}

// String renders the requirement the way it is written in the matrix.
func (r Requirement) String() string {
	switch r.Kind {
	case Mandatory:
		return "Yes"
	case MandatoryWithToken:
		return "{" + r.Token + "}"
	default:
		return "Null"
	}
}

// RequirementRow holds the requirements of one declaration type, indexed by slot.
type RequirementRow struct {
	Type  string                 `json:"cds_type"`
	Slots [SlotCount]Requirement `json:"slots"`
}

// For returns the requirement for slot d. Unknown slots are NotApplicable.
func (r *RequirementRow) For(d DocType) Requirement {
	i := d.Index()
	if i < 0 {
		return Requirement{}
	}
	return r.Slots[i]
}

// RequirementMatrix is the ordered set of requirement rows.
type RequirementMatrix struct {
	Rows         []RequirementRow `json:"rows"`
	FallbackType string           `json:"fallback_type"`
}

// Row returns the row for a declaration type.
func (m *RequirementMatrix) Row(cdsType string) (RequirementRow, bool) {
	for i := range m.Rows {
		if m.Rows[i].Type == cdsType {
			return m.Rows[i], true
		}
	}
	return RequirementRow{}, false
}

// Fallback returns the designated fallback row: the configured fallback type
// when present, otherwise the first row. An empty matrix yields an all-Null row.
func (m *RequirementMatrix) Fallback() RequirementRow {
	if m.FallbackType != "" {
		if row, ok := m.Row(m.FallbackType); ok {
			return row
		}
	}
	if len(m.Rows) > 0 {
		return m.Rows[0]
	}
	return RequirementRow{}
}

// Resolve picks the row for cdsType, falling back when the type is empty or
// unknown. known is false only for a non-empty type missing from the matrix.
func (m *RequirementMatrix) Resolve(cdsType string) (row RequirementRow, known bool) {
	if cdsType == "" {
		return m.Fallback(), true
	}
	if row, ok := m.Row(cdsType); ok {
		return row, true
	}
	return m.Fallback(), false
}

// Reference is the immutable run context: naming syntax plus requirement matrix.
type Reference struct {
	Syntax []NamingRule      `json:"syntax"`
	Matrix RequirementMatrix `json:"matrix"`
}
