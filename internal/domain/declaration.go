package domain

import (
	"sort"
	"strings"
)

// Tokens maps a token name to the substring extracted from a file stem.
// A missing key means the token was not extracted; an empty value is never stored.
type Tokens map[string]string

// Get returns the token value and whether it was extracted.
func (t Tokens) Get(name string) (string, bool) {
	v, ok := t[name]
	return v, ok
}

// Clone returns an independent copy of t. A nil map clones to an empty map.
func (t Tokens) Clone() Tokens {
	out := make(Tokens, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Names returns the token names in lexical order.
func (t Tokens) Names() []string {
	names := make([]string, 0, len(t))
	for k := range t {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// FileEntry is one classified file found during a scan.
type FileEntry struct {
	Folder  string  `json:"folder"`
	Name    string  `json:"name"`
	Stem    string  `json:"stem"`
	Ext     string  `json:"ext"`
	DocType DocType `json:"doc_type"`
	Tokens  Tokens  `json:"tokens"`
	Hash    string  `json:"hash,omitempty"`
}

// DeclarationRecord is the aggregate of all master rows sharing a declaration key.
type DeclarationRecord struct {
	Key      string   `json:"cds"`
	Type     string   `json:"cds_type"`
	Bill     string   `json:"bill"`
	Invoices []string `json:"invoices"`
}

// MatchesCDs reports whether a CDs token refers to the declaration key.
// Non-digits in the token are ignored and the token may carry more digits
// than the key when keys are configured shorter than the printed number.
func MatchesCDs(token, key string) bool {
	if key == "" {
		return false
	}
	digits := DigitsOnly(token)
	return len(digits) >= len(key) && digits[:len(key)] == key
}

// DigitsOnly strips every non-ASCII-digit rune from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ContainsAny reports whether s contains any non-empty needle.
func ContainsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}
