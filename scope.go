package kati

// Scope is a target-local variable table, as created by rule-specific
// assignments ("target: VAR = value"). A nil *Scope means "no target-local
// scope", i.e. plain global lookups. Scopes never chain to one another —
// per spec.md §4.3, lookups consult the scope snapshot first, then global —
// there is exactly one level of shadowing.
type Scope struct {
	locals map[Symbol]*Variable
}

// NewScope returns an empty target-local scope.
func NewScope() *Scope {
	return &Scope{locals: make(map[Symbol]*Variable)}
}

// Lookup resolves sym in this scope if present, falling back to the global
// binding.
func (s *Scope) Lookup(sym Symbol) *Variable {
	if s != nil {
		if v, ok := s.locals[sym]; ok {
			return v
		}
	}
	return sym.globalVariable()
}

// LookupLocal returns only the scope-local binding, or nil.
func (s *Scope) LookupLocal(sym Symbol) *Variable {
	if s == nil {
		return nil
	}
	return s.locals[sym]
}

// Set installs v as sym's binding: scope-local if s is non-nil, global
// otherwise.
func (s *Scope) Set(sym Symbol, v *Variable) {
	if s != nil {
		s.locals[sym] = v
		return
	}
	sym.setGlobalVariable(v)
}

// Unset removes sym's binding entirely: deletes the scope-local entry if s
// is non-nil, or clears the global binding otherwise. Used to restore a
// variable to "undefined" after a temporary binding (e.g. $(foreach)'s
// loop variable) that had no prior value.
func (s *Scope) Unset(sym Symbol) {
	if s != nil {
		delete(s.locals, sym)
		return
	}
	sym.setGlobalVariable(nil)
}

// Snapshot returns an independent copy of the scope's local bindings, used
// when the planner materializes a DepNode (spec.md §4.6 step 8: "Snapshot
// the final rule-specific variables onto the node").
func (s *Scope) Snapshot() *Scope {
	if s == nil {
		return nil
	}
	out := NewScope()
	for k, v := range s.locals {
		out.locals[k] = v
	}
	return out
}
