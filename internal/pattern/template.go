package pattern

import (
	"regexp"
	"strings"

	"docstracker/internal/domain"
)

// placeholderRE finds {NAME} placeholders. Braces inside a name are not allowed,
// so stray braces stay literal.
var placeholderRE = regexp.MustCompile(`\{([^{}]+)\}`)

// segment is either literal text or a placeholder name.
type segment struct {
	literal     string
	placeholder string
}

func (s segment) isPlaceholder() bool { return s.placeholder != "" }

// template is a parsed naming rule ready to be compiled for a given invoice.
type template struct {
	docType  domain.DocType
	raw      string
	segments []segment
}

func parseTemplate(docType domain.DocType, raw string) template {
	t := template{docType: docType, raw: raw}
	last := 0
	for _, loc := range placeholderRE.FindAllStringSubmatchIndex(raw, -1) {
		if loc[0] > last {
			t.segments = append(t.segments, segment{literal: raw[last:loc[0]]})
		}
		name := strings.TrimSpace(raw[loc[2]:loc[3]])
		if name == "" {
			t.segments = append(t.segments, segment{literal: raw[loc[0]:loc[1]]})
		} else {
			t.segments = append(t.segments, segment{placeholder: name})
		}
		last = loc[1]
	}
	if last < len(raw) {
		t.segments = append(t.segments, segment{literal: raw[last:]})
	}
	return t
}

// compile builds the anchored expression for t. When hasInvoice is true the
// {INVOICE} placeholder becomes the quoted invoice literal, matched
// case-sensitively even when ignoreCase is set. The returned slice names the
// token captured by each group, in group order.
func (t template) compile(invoice string, hasInvoice, ignoreCase bool) (*regexp.Regexp, []string, error) {
	var b strings.Builder
	var names []string
	if ignoreCase {
		b.WriteString("(?i)")
	}
	b.WriteString("^")
	for _, seg := range t.segments {
		if !seg.isPlaceholder() {
			b.WriteString(regexp.QuoteMeta(seg.literal))
			continue
		}
		switch {
		case seg.placeholder == domain.TokenInvoice && hasInvoice:
			b.WriteString("((?-i:")
			b.WriteString(regexp.QuoteMeta(invoice))
			b.WriteString("))")
			names = append(names, domain.TokenInvoice)
		case seg.placeholder == "CDs_12digits" || seg.placeholder == "pCDs_12digits":
			b.WriteString(`(\d{12})`)
			names = append(names, domain.TokenCDs)
		default:
			b.WriteString(`([^_]+)`)
			names = append(names, seg.placeholder)
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, nil, err
	}
	return re, names, nil
}
