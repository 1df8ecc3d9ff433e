package reference

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"

	"docstracker/internal/domain"
)

type yamlRequirement struct {
	Type string         `yaml:"type"`
	Docs map[string]any `yaml:"docs"`
}

type yamlReference struct {
	FallbackType string              `yaml:"fallback_type"`
	Syntax       []domain.NamingRule `yaml:"syntax"`
	Requirements []yamlRequirement   `yaml:"requirements"`
}

// ParseYAML reads a combined reference document:
//
//	fallback_type: A11
//	syntax:
//	  - doc: D01
//	    pattern: "{INVOICE}_ToKhaiHQ7N_QDTQ_{CDs_12digits}"
//	requirements:
//	  - type: A11
//	    docs: {D01: "Yes", D02: "{INVOICE}"}
//
// Slots left out of docs are Null.
func ParseYAML(r io.Reader) (domain.Reference, error) {
	var ref domain.Reference
	data, err := io.ReadAll(r)
	if err != nil {
		return ref, fmt.Errorf("reading reference yaml: %w", err)
	}
	var doc yamlReference
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ref, &domain.ConfigError{Source: "reference.yaml", Msg: err.Error()}
	}

	for i, rule := range doc.Syntax {
		d, err := domain.ParseDocType(string(rule.DocType))
		if err != nil {
			return ref, &domain.ConfigError{Source: "reference.yaml", Msg: fmt.Sprintf("syntax[%d]: %v", i, err)}
		}
		rule.DocType = d
		rule.Template = strings.TrimSpace(rule.Template)
		ref.Syntax = append(ref.Syntax, rule)
	}

	seen := make(map[string]bool)
	for i, req := range doc.Requirements {
		cdsType := strings.TrimSpace(req.Type)
		if cdsType == "" {
			return ref, &domain.ConfigError{Source: "reference.yaml", Msg: fmt.Sprintf("requirements[%d]: missing type", i)}
		}
		if seen[cdsType] {
			return ref, &domain.ConfigError{Source: "reference.yaml", Msg: fmt.Sprintf("declaration type %q is listed more than once", cdsType)}
		}
		seen[cdsType] = true

		row := domain.RequirementRow{Type: cdsType}
		for code, raw := range req.Docs {
			d, err := domain.ParseDocType(code)
			if err != nil {
				return ref, &domain.ConfigError{Source: "reference.yaml", Msg: fmt.Sprintf("%s: %v", cdsType, err)}
			}
			parsed, err := ParseRequirement(yamlCell(raw))
			if err != nil {
				return ref, &domain.ConfigError{Source: "reference.yaml", Msg: fmt.Sprintf("%s/%s: %v", cdsType, d, err)}
			}
			row.Slots[d.Index()] = parsed
		}
		ref.Matrix.Rows = append(ref.Matrix.Rows, row)
	}
	ref.Matrix.FallbackType = strings.TrimSpace(doc.FallbackType)
	return ref, nil
}

// yamlCell renders a decoded YAML scalar back to its matrix spelling. An
// unquoted {TOKEN} decodes as a one-key mapping, and unquoted yes/no may
// decode as booleans.
func yamlCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "yes"
		}
		return "null"
	case map[string]any:
		if len(val) == 1 {
			for k := range val {
				return "{" + k + "}"
			}
		}
	}
	return fmt.Sprint(v)
}
