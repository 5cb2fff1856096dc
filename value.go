package kati

// Value is an expression-tree node. Variants: Literal, ValueList, SymRef,
// VarRef, VarSubst, FuncCall. Dispatch is a type switch in the evaluator
// (see eval.go) rather than a virtual method per spec.md's design note
// against embedding inheritance-style dispatch into the tree itself.
type Value interface {
	value()
	location() Location
}

// Literal is a fully literal byte run with no further expansion.
type Literal struct {
	Bytes []byte
	Loc   Location
}

func (*Literal) value()            {}
func (l *Literal) location() Location { return l.Loc }

// ValueList concatenates its children left to right with no separator.
type ValueList struct {
	Children []Value
	Loc      Location
}

func (*ValueList) value()               {}
func (v *ValueList) location() Location { return v.Loc }

// SymRef is a reference to a variable whose name is a compile-time literal,
// e.g. $(CC) or $X.
type SymRef struct {
	Sym Symbol
	Loc Location
}

func (*SymRef) value()               {}
func (s *SymRef) location() Location { return s.Loc }

// VarRef is a reference to a variable whose name is itself an expression,
// e.g. $($(X)) or $($(a)_$(b)).
type VarRef struct {
	Name Value
	Loc  Location
}

func (*VarRef) value()               {}
func (v *VarRef) location() Location { return v.Loc }

// VarSubst implements $(name:pattern=replacement), both the generic %
// substitution and GNU Make's suffix-only shorthand ($(name:.c=.o)).
type VarSubst struct {
	Name        Value
	Pattern     Value
	Replacement Value
	Loc         Location
}

func (*VarSubst) value()               {}
func (v *VarSubst) location() Location { return v.Loc }

// FuncCall invokes a built-in or user function. Argument evaluation is the
// function implementation's responsibility (most evaluate eagerly).
type FuncCall struct {
	Info *FuncInfo
	Args []Value
	Loc  Location
}

func (*FuncCall) value()               {}
func (f *FuncCall) location() Location { return f.Loc }

// literal builds a Literal from a plain string.
func literal(s string, loc Location) Value {
	return &Literal{Bytes: []byte(s), Loc: loc}
}

// simplify collapses a ValueList with a single child (or none) so trivial
// expressions do not incur pointless nested-list evaluation overhead.
func simplify(children []Value, loc Location) Value {
	switch len(children) {
	case 0:
		return &Literal{Loc: loc}
	case 1:
		return children[0]
	default:
		return &ValueList{Children: children, Loc: loc}
	}
}
