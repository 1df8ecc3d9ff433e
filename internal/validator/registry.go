package validator

import "docstracker/internal/validator/slot"

// Registry holds slot validators keyed by rule key, in registration order.
type Registry struct {
	validators map[string]Validator
	order      []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{validators: make(map[string]Validator)}
}

// NewDefaultRegistry returns a registry holding the built-in slot checks.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, v := range slot.AllBuiltinValidators() {
		r.Register(v)
	}
	return r
}

// Register adds a validator, replacing any previous one with the same key
// while keeping its position.
func (r *Registry) Register(v Validator) {
	if _, ok := r.validators[v.RuleKey()]; !ok {
		r.order = append(r.order, v.RuleKey())
	}
	r.validators[v.RuleKey()] = v
}

// Get returns the validator for a given rule key, or nil if not found.
func (r *Registry) Get(key string) Validator {
	return r.validators[key]
}

// All returns all registered validators in registration order.
func (r *Registry) All() []Validator {
	out := make([]Validator, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.validators[k])
	}
	return out
}
