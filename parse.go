// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package kati

import (
	"fmt"
	"strings"
)

// ParseMakefile parses the full text of one makefile into a flat statement
// list, per spec.md §4.1: same grammar, same line discipline, same
// directive set as GNU Make (ifeq/ifneq/ifdef/ifndef, define/endef,
// include/-include/sinclude, export/unexport, static pattern rules,
// ordinary and double-colon rules, and the four assignment operators).
func ParseMakefile(data []byte, filename string) ([]Stmt, error) {
	p := &fileParser{lines: splitLogicalLines(data), filename: filename}
	stmts, err := p.parseBlock(nil)
	if err != nil {
		return nil, err
	}
	return stmts, nil
}

type fileParser struct {
	lines    []logicalLine
	pos      int
	filename string
	lastRule *RuleStmt
}

func (p *fileParser) loc() Location {
	if p.pos < len(p.lines) {
		return Location{Filename: p.filename, Line: p.lines[p.pos].line}
	}
	return Location{Filename: p.filename}
}

// parseBlock parses statements until EOF or until a directive line whose
// first word is in terminators is seen (the caller consumes that line);
// used for ifeq/else/endif nesting.
func (p *fileParser) parseBlock(terminators map[string]bool) ([]Stmt, error) {
	var stmts []Stmt
	for p.pos < len(p.lines) {
		ll := p.lines[p.pos]

		if ll.isRecipe {
			if p.lastRule == nil {
				p.pos++
				continue // a tab-indented line with no preceding rule; GNU Make ignores/warns
			}
			v, err := parseValue([]byte(ll.text[1:]), p.loc())
			if err != nil {
				return nil, err
			}
			p.lastRule.Recipe = append(p.lastRule.Recipe, v)
			p.pos++
			continue
		}

		trimmed := strings.TrimSpace(stripComment(ll.text))
		if trimmed == "" {
			p.pos++
			continue
		}

		word := firstWord(trimmed)
		if terminators != nil && terminators[word] {
			return stmts, nil
		}

		switch word {
		case "define":
			s, err := p.parseDefine(trimmed)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
			p.lastRule = nil
			continue

		case "ifeq", "ifneq", "ifdef", "ifndef":
			s, err := p.parseIf(trimmed)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
			p.lastRule = nil
			continue

		case "include", "-include", "sinclude":
			loc := p.loc()
			rest := strings.TrimSpace(trimmed[len(word):])
			v, err := parseValue([]byte(rest), loc)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, &IncludeStmt{Expr: v, MustExist: word == "include", Loc: loc})
			p.pos++
			p.lastRule = nil
			continue

		case "export", "unexport":
			s := p.parseExport(trimmed, word == "export")
			stmts = append(stmts, s)
			p.pos++
			p.lastRule = nil
			continue

		case "override":
			s, err := p.parseAssignOrRule(strings.TrimSpace(trimmed[len("override"):]), true)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
			p.pos++
			continue

		case "vpath":
			// vpath search-path directives are out of scope (no VPATH-based
			// search in the planner); accepted and ignored so makefiles using
			// it still parse.
			p.pos++
			continue
		}

		s, err := p.parseAssignOrRule(trimmed, false)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		if r, ok := s.(*RuleStmt); ok {
			p.lastRule = r
		} else {
			p.lastRule = nil
		}
		p.pos++
	}
	return stmts, nil
}

func firstWord(s string) string {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s
	}
	return s[:i]
}

// parseDefine consumes a "define NAME [op]" ... "endef" block and returns
// an AssignStmt whose Rhs is the block body, parsed as one expression.
func (p *fileParser) parseDefine(headerLine string) (Stmt, error) {
	loc := p.loc()
	header := strings.TrimSpace(headerLine[len("define"):])
	name, op := splitDefineHeader(header)

	var body []string
	p.pos++
	for p.pos < len(p.lines) {
		text := p.lines[p.pos].text
		if strings.TrimSpace(text) == "endef" {
			p.pos++
			break
		}
		raw := text
		if p.lines[p.pos].isRecipe {
			raw = "\t" + text[1:]
		}
		body = append(body, raw)
		p.pos++
	}
	bodyText := strings.Join(body, "\n")

	rhs, err := parseValue([]byte(bodyText), loc)
	if err != nil {
		return nil, err
	}
	return &AssignStmt{
		Lhs: literal(name, loc), Op: op, Rhs: rhs, OrigRhs: bodyText, Loc: loc,
	}, nil
}

func splitDefineHeader(header string) (name string, op AssignOp) {
	op = OpRecursive
	for _, cand := range []struct {
		tok string
		op  AssignOp
	}{
		{"::=", OpSimple}, {":=", OpSimple}, {"+=", OpAppend}, {"?=", OpCondSet}, {"=", OpRecursive},
	} {
		if i := strings.Index(header, cand.tok); i >= 0 {
			return strings.TrimSpace(header[:i]), cand.op
		}
	}
	return strings.TrimSpace(header), OpRecursive
}

// parseIf parses one ifeq/ifneq/ifdef/ifndef through its matching endif,
// folding "else ifeq ..." chains into a nested IfStmt in FalseStmts.
func (p *fileParser) parseIf(headerLine string) (Stmt, error) {
	loc := p.loc()
	word := firstWord(headerLine)
	var op CondOp
	switch word {
	case "ifeq":
		op = CondIfeq
	case "ifneq":
		op = CondIfneq
	case "ifdef":
		op = CondIfdef
	case "ifndef":
		op = CondIfndef
	}
	rest := strings.TrimSpace(headerLine[len(word):])

	var lhs, rhs Value
	var err error
	if op == CondIfeq || op == CondIfneq {
		lhs, rhs, err = parseIfeqArgs(rest, loc)
	} else {
		lhs, err = parseValue([]byte(rest), loc)
	}
	if err != nil {
		return nil, err
	}

	p.pos++
	trueStmts, err := p.parseBlock(map[string]bool{"else": true, "endif": true})
	if err != nil {
		return nil, err
	}

	stmt := &IfStmt{Op: op, Lhs: lhs, Rhs: rhs, TrueStmts: trueStmts, Loc: loc}

	word2 := firstWord(strings.TrimSpace(stripComment(p.lines[p.pos].text)))
	if word2 == "else" {
		elseRest := strings.TrimSpace(strings.TrimSpace(stripComment(p.lines[p.pos].text))[len("else"):])
		if elseRest != "" {
			// "else ifeq ..." chain.
			nested, err := p.parseIf(elseRest)
			if err != nil {
				return nil, err
			}
			stmt.FalseStmts = []Stmt{nested}
			return stmt, nil
		}
		p.pos++
		falseStmts, err := p.parseBlock(map[string]bool{"endif": true})
		if err != nil {
			return nil, err
		}
		stmt.FalseStmts = falseStmts
	}
	p.pos++ // consume "endif"
	return stmt, nil
}

// parseIfeqArgs parses the "(a,b)" or "'a' 'b'" forms of ifeq/ifneq.
func parseIfeqArgs(s string, loc Location) (Value, Value, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		inner := s[1 : len(s)-1]
		ci := findTopLevelByte([]byte(inner), ',')
		if ci < 0 {
			return nil, nil, fmt.Errorf("%s: ifeq: expected comma", loc)
		}
		lhs, err := parseValue([]byte(inner[:ci]), loc)
		if err != nil {
			return nil, nil, err
		}
		rhs, err := parseValue([]byte(strings.TrimSpace(inner[ci+1:])), loc)
		if err != nil {
			return nil, nil, err
		}
		return lhs, rhs, nil
	}
	parts := splitQuoted(s)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("%s: ifeq: expected two quoted arguments", loc)
	}
	lhs, err := parseValue([]byte(parts[0]), loc)
	if err != nil {
		return nil, nil, err
	}
	rhs, err := parseValue([]byte(parts[1]), loc)
	if err != nil {
		return nil, nil, err
	}
	return lhs, rhs, nil
}

func splitQuoted(s string) []string {
	var out []string
	i := 0
	for i < len(s) {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i >= len(s) {
			break
		}
		q := s[i]
		if q != '\'' && q != '"' {
			break
		}
		j := strings.IndexByte(s[i+1:], q)
		if j < 0 {
			break
		}
		out = append(out, s[i+1:i+1+j])
		i = i + 1 + j + 1
	}
	return out
}

func (p *fileParser) parseExport(line string, isExport bool) Stmt {
	loc := p.loc()
	word := "export"
	if !isExport {
		word = "unexport"
	}
	rest := strings.TrimSpace(line[len(word):])
	if rest == "" {
		return &ExportStmt{Expr: nil, IsExport: isExport, Loc: loc}
	}
	v, _ := parseValue([]byte(rest), loc)
	return &ExportStmt{Expr: v, IsExport: isExport, Loc: loc}
}

// parseAssignOrRule classifies one non-directive line as either a variable
// assignment or a rule (possibly a static-pattern or target-specific-
// variable rule), per spec.md §4.1.
func (p *fileParser) parseAssignOrRule(line string, isOverride bool) (Stmt, error) {
	loc := p.loc()
	b := []byte(line)

	// A top-level colon before the operator makes the line a rule (possibly
	// with a target-specific assignment), not a plain assignment.
	if opPos, opLen, op, ok := findAssignOp(b); ok && (findTopLevelColon(b) < 0 || findTopLevelColon(b) >= opPos) {
		lhsText := strings.TrimSpace(string(b[:opPos]))
		rhsText := string(b[opPos+opLen:])
		isExport := false
		if strings.HasPrefix(lhsText, "export ") {
			isExport = true
			lhsText = strings.TrimSpace(lhsText[len("export"):])
		}
		lhsv, err := parseValue([]byte(lhsText), loc)
		if err != nil {
			return nil, err
		}
		isFinal := false
		trimmedRhs := strings.TrimRight(rhsText, " \t")
		if strings.HasSuffix(trimmedRhs, "$=") {
			isFinal = true
			rhsText = trimmedRhs[:len(trimmedRhs)-2]
		}
		rhsv, err := parseValue([]byte(rhsText), loc)
		if err != nil {
			return nil, err
		}
		return &AssignStmt{
			Lhs: lhsv, Op: op, Rhs: rhsv, OrigRhs: strings.TrimSpace(rhsText),
			IsOverride: isOverride, IsExport: isExport, IsFinal: isFinal, Loc: loc,
		}, nil
	}

	ci := findTopLevelColon(b)
	if ci < 0 {
		return nil, fmt.Errorf("%s: missing separator", loc)
	}

	targetsText := string(b[:ci])
	isDouble := false
	rest := b[ci+1:]
	if len(rest) > 0 && rest[0] == ':' {
		isDouble = true
		rest = rest[1:]
	}

	targetsVal, err := parseValue([]byte(targetsText), loc)
	if err != nil {
		return nil, err
	}

	// Target-specific variable: "target : [override] VAR op value".
	if aPos, aLen, aOp, ok := findAssignOp(rest); ok {
		candLHS := strings.TrimSpace(string(rest[:aPos]))
		ov := false
		bareLHS := candLHS
		if strings.HasPrefix(candLHS, "override ") {
			ov = true
			bareLHS = strings.TrimSpace(candLHS[len("override"):])
		}
		if isSingleWord(bareLHS) {
			lhsv, err := parseValue([]byte(bareLHS), loc)
			if err != nil {
				return nil, err
			}
			rhsText := string(rest[aPos+aLen:])
			rhsv, err := parseValue([]byte(rhsText), loc)
			if err != nil {
				return nil, err
			}
			return &TargetAssignStmt{
				Targets: targetsVal,
				Assign: &AssignStmt{
					Lhs: lhsv, Op: aOp, Rhs: rhsv, OrigRhs: strings.TrimSpace(rhsText),
					IsOverride: ov, Loc: loc,
				},
				Loc: loc,
			}, nil
		}
	}

	// Static pattern rule: "targets : target-pattern : prereq-patterns".
	if ci2 := findTopLevelColon(rest); ci2 >= 0 && !isDouble {
		targetPatText := string(rest[:ci2])
		prereqPatText, recipeText := splitInlineRecipe(string(rest[ci2+1:]))
		targetPatVal, err := parseValue([]byte(targetPatText), loc)
		if err != nil {
			return nil, err
		}
		prereqPatVal, err := parseValue([]byte(prereqPatText), loc)
		if err != nil {
			return nil, err
		}
		var inlineRecipe Value
		if recipeText != "" {
			inlineRecipe, err = parseValue([]byte(recipeText), loc)
			if err != nil {
				return nil, err
			}
		}
		return &RuleStmt{
			Targets: targetsVal, IsDoubleColon: isDouble, IsStaticPattern: true,
			StaticTargetPattern: targetPatVal, StaticPrereqPattern: prereqPatVal,
			InlineRecipe: inlineRecipe, Loc: loc,
		}, nil
	}

	prereqText, recipeText := splitInlineRecipe(string(rest))
	prereqVal, err := parseValue([]byte(prereqText), loc)
	if err != nil {
		return nil, err
	}
	var inlineRecipe Value
	if recipeText != "" {
		inlineRecipe, err = parseValue([]byte(recipeText), loc)
		if err != nil {
			return nil, err
		}
	}
	return &RuleStmt{
		Targets: targetsVal, IsDoubleColon: isDouble, Prereqs: prereqVal,
		InlineRecipe: inlineRecipe, Loc: loc,
	}, nil
}

func isSingleWord(s string) bool {
	return len(splitFields(s)) == 1
}

// splitInlineRecipe splits a rule's remaining text at the first top-level
// ';', which separates the prerequisite list from an inline recipe.
func splitInlineRecipe(s string) (prereqs, recipe string) {
	i := findTopLevelByte([]byte(s), ';')
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// findAssignOp finds the left-most top-level assignment operator in b,
// preferring the longest match at each position ("::=" over ":=" over
// "=").
func findAssignOp(b []byte) (pos, length int, op AssignOp, ok bool) {
	depth := 0
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == '\\' && i+1 < len(b):
			i++
			continue
		case c == '(' || c == '{':
			depth++
			continue
		case c == ')' || c == '}':
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth != 0 {
			continue
		}
		switch {
		case c == ':' && i+2 < len(b) && b[i+1] == ':' && b[i+2] == '=':
			return i, 3, OpSimple, true
		case c == ':' && i+1 < len(b) && b[i+1] == '=':
			return i, 2, OpSimple, true
		case c == '+' && i+1 < len(b) && b[i+1] == '=':
			return i, 2, OpAppend, true
		case c == '?' && i+1 < len(b) && b[i+1] == '=':
			return i, 2, OpCondSet, true
		case c == '=':
			return i, 1, OpRecursive, true
		}
	}
	return 0, 0, 0, false
}
