package pattern

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"docstracker/internal/domain"
)

// Options tunes classification.
type Options struct {
	// IgnoreCase makes literal template text match case-insensitively.
	// Substituted invoice identifiers always match case-sensitively.
	IgnoreCase bool
}

// Classifier holds the parsed naming syntax for one run. It is safe for
// concurrent use; compiled matchers are cached per invoice.
type Classifier struct {
	templates []template
	opts      Options

	mu       sync.Mutex
	deferred *Matcher
	byInv    map[string]*Matcher
}

// NewClassifier parses the naming rules. Rules are ordered by document type
// (D01 first) regardless of the order they were configured in.
func NewClassifier(rules []domain.NamingRule, opts Options) (*Classifier, error) {
	seen := make(map[domain.DocType]bool, len(rules))
	templates := make([]template, 0, len(rules))
	for i, r := range rules {
		if !r.DocType.Valid() {
			return nil, &domain.ConfigError{Source: "syntax", Line: i + 1, Msg: fmt.Sprintf("unknown document type %q", r.DocType)}
		}
		if r.Template == "" {
			return nil, &domain.ConfigError{Source: "syntax", Line: i + 1, Msg: fmt.Sprintf("%s has an empty pattern", r.DocType)}
		}
		if seen[r.DocType] {
			return nil, &domain.ConfigError{Source: "syntax", Line: i + 1, Msg: fmt.Sprintf("%s is declared more than once", r.DocType)}
		}
		seen[r.DocType] = true
		templates = append(templates, parseTemplate(r.DocType, r.Template))
	}
	sort.SliceStable(templates, func(a, b int) bool {
		return templates[a].docType.Index() < templates[b].docType.Index()
	})

	c := &Classifier{templates: templates, opts: opts, byInv: make(map[string]*Matcher)}
	// Compiling the deferred matcher up front surfaces template errors before any scan.
	if _, err := c.Deferred(); err != nil {
		return nil, err
	}
	return c, nil
}

// Deferred returns the matcher that captures {INVOICE} as an ordinary token.
func (c *Classifier) Deferred() (*Matcher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deferred != nil {
		return c.deferred, nil
	}
	m, err := c.build("", false)
	if err != nil {
		return nil, err
	}
	c.deferred = m
	return m, nil
}

// ForInvoice returns the matcher with {INVOICE} bound to invoice.
func (c *Classifier) ForInvoice(invoice string) (*Matcher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.byInv[invoice]; ok {
		return m, nil
	}
	m, err := c.build(invoice, true)
	if err != nil {
		return nil, err
	}
	c.byInv[invoice] = m
	return m, nil
}

// Rules returns the naming rules in precedence order.
func (c *Classifier) Rules() []domain.NamingRule {
	out := make([]domain.NamingRule, len(c.templates))
	for i, t := range c.templates {
		out[i] = domain.NamingRule{DocType: t.docType, Template: t.raw}
	}
	return out
}

func (c *Classifier) build(invoice string, hasInvoice bool) (*Matcher, error) {
	m := &Matcher{rules: make([]compiledRule, 0, len(c.templates))}
	for _, t := range c.templates {
		re, names, err := t.compile(invoice, hasInvoice, c.opts.IgnoreCase)
		if err != nil {
			return nil, &domain.ConfigError{Source: "syntax", Msg: fmt.Sprintf("%s pattern %q: %v", t.docType, t.raw, err)}
		}
		m.rules = append(m.rules, compiledRule{docType: t.docType, re: re, tokens: names})
	}
	return m, nil
}

type compiledRule struct {
	docType domain.DocType
	re      *regexp.Regexp
	tokens  []string
}

// Matcher classifies file stems against an ordered rule list.
type Matcher struct {
	rules []compiledRule
}

// Match returns the first document type whose pattern matches stem, with the
// extracted tokens. No match yields DocUnknown and an empty token map.
func (m *Matcher) Match(stem string) (domain.DocType, domain.Tokens) {
	for _, r := range m.rules {
		sub := r.re.FindStringSubmatch(stem)
		if sub == nil {
			continue
		}
		tokens := make(domain.Tokens, len(r.tokens))
		for i, name := range r.tokens {
			v := sub[i+1]
			if v == "" {
				continue
			}
			if _, ok := tokens[name]; !ok {
				tokens[name] = v
			}
		}
		supplement(stem, r.docType, tokens)
		return r.docType, tokens
	}
	return domain.DocUnknown, domain.Tokens{}
}
