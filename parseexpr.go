package kati

import "fmt"

// exprParser turns the already line-joined text of a makefile expression
// (RHS of an assignment, a rule's target/prereq list, a recipe line, ...)
// into a Value tree, per spec.md §4.1's "Expression parsing" rules.
type exprParser struct {
	src []byte
	pos int
	loc Location
}

func parseValue(src []byte, loc Location) (Value, error) {
	p := &exprParser{src: src, loc: loc}
	v, err := p.parseUntil(-1)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// parseUntil parses a run of literal/$-expressions. If stop >= 0, parsing
// also halts (without consuming) upon encountering that raw byte at
// depth 0 — used when parsing one argument out of a comma-separated list.
func (p *exprParser) parseUntil(stop int) (Value, error) {
	var parts []Value
	litStart := p.pos
	flushLit := func() {
		if p.pos > litStart {
			parts = append(parts, &Literal{Bytes: append([]byte(nil), p.src[litStart:p.pos]...), Loc: p.loc})
		}
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if stop >= 0 && int(c) == stop {
			break
		}
		if c != '$' {
			p.pos++
			continue
		}
		flushLit()
		v, err := p.parseDollar()
		if err != nil {
			return nil, err
		}
		parts = append(parts, v)
		litStart = p.pos
	}
	flushLit()
	return simplify(parts, p.loc), nil
}

// parseDollar consumes a '$' and whatever follows it.
func (p *exprParser) parseDollar() (Value, error) {
	start := p.pos
	p.pos++ // consume '$'
	if p.pos >= len(p.src) {
		return &Literal{Bytes: []byte("$"), Loc: p.loc}, nil
	}
	c := p.src[p.pos]
	switch c {
	case '$':
		p.pos++
		return &Literal{Bytes: []byte("$"), Loc: p.loc}, nil
	case '(':
		p.pos++
		return p.parseParen('(', ')')
	case '{':
		p.pos++
		return p.parseParen('{', '}')
	default:
		// $X: single-byte variable name.
		p.pos++
		_ = start
		return &SymRef{Sym: Intern(string([]byte{c})), Loc: p.loc}, nil
	}
}

// parseParen parses the content after "$(" or "${" through the matching
// close, then dispatches on content per spec.md §4.1: function call,
// VarSubst, or a plain symbol/variable reference.
func (p *exprParser) parseParen(open, close byte) (Value, error) {
	innerStart := p.pos
	depth := 1
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src):
			p.pos += 2
			continue
		case c == '(' || c == '{':
			depth++
		case c == ')' || c == '}':
			depth--
			if depth == 0 {
				inner := p.src[innerStart:p.pos]
				p.pos++ // consume close
				return p.parseInner(inner)
			}
		}
		p.pos++
	}
	return nil, fmt.Errorf("%s: unterminated $%c...%c", p.loc, open, close)
}

// parseInner interprets the already-extracted, still-balanced content of a
// $(...)/${...} construct.
func (p *exprParser) parseInner(inner []byte) (Value, error) {
	head, headEnd := scanHead(inner)
	if info, ok := lookupFunc(string(head)); ok {
		if headEnd < len(inner) && isSpaceByte(inner[headEnd]) {
			argsStart := headEnd + 1
			for argsStart < len(inner) && isSpaceByte(inner[argsStart]) {
				argsStart++
			}
			args, err := splitArgs(inner[argsStart:], info.MaxArity, p.loc)
			if err != nil {
				return nil, err
			}
			return &FuncCall{Info: info, Args: args, Loc: p.loc}, nil
		}
	}

	if ci := findTopLevelColon(inner); ci >= 0 {
		name := inner[:ci]
		rest := inner[ci+1:]
		eq := findTopLevelByte(rest, '=')
		if eq >= 0 {
			nameVal, err := parseValue(name, p.loc)
			if err != nil {
				return nil, err
			}
			patVal, err := parseValue(rest[:eq], p.loc)
			if err != nil {
				return nil, err
			}
			replVal, err := parseValue(rest[eq+1:], p.loc)
			if err != nil {
				return nil, err
			}
			return &VarSubst{Name: nameVal, Pattern: patVal, Replacement: replVal, Loc: p.loc}, nil
		}
	}

	nameVal, err := parseValue(inner, p.loc)
	if err != nil {
		return nil, err
	}
	if lit, ok := nameVal.(*Literal); ok {
		return &SymRef{Sym: InternBytes(lit.Bytes), Loc: p.loc}, nil
	}
	return &VarRef{Name: nameVal, Loc: p.loc}, nil
}

// scanHead returns the leading run of non-space, non-colon bytes at depth 0
// (balanced parens skipped whole), used to test for a function name.
func scanHead(s []byte) (head []byte, end int) {
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			continue
		case c == '(' || c == '{':
			depth++
		case c == ')' || c == '}':
			depth--
		case depth == 0 && (isSpaceByte(c) || c == ':'):
			return s[:i], i
		}
	}
	return s, len(s)
}

func findTopLevelColon(s []byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
		case c == '(' || c == '{':
			depth++
		case c == ')' || c == '}':
			depth--
		case c == ':' && depth == 0:
			return i
		}
	}
	return -1
}

func findTopLevelByte(s []byte, target byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
		case c == '(' || c == '{':
			depth++
		case c == ')' || c == '}':
			depth--
		case c == target && depth == 0:
			return i
		}
	}
	return -1
}

// splitArgs splits a function's unparsed argument text at top-level commas,
// stopping at maxArity pieces (remaining commas become part of the last
// argument), per spec.md §4.1. maxArity < 0 means unbounded.
func splitArgs(s []byte, maxArity int, loc Location) ([]Value, error) {
	if len(s) == 0 {
		return nil, nil
	}
	var pieces [][]byte
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
		case c == '(' || c == '{':
			depth++
		case c == ')' || c == '}':
			depth--
		case c == ',' && depth == 0:
			if maxArity < 0 || len(pieces)+1 < maxArity {
				pieces = append(pieces, s[last:i])
				last = i + 1
			}
		}
	}
	pieces = append(pieces, s[last:])

	vals := make([]Value, len(pieces))
	for i, piece := range pieces {
		v, err := parseValue(piece, loc)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t'
}
