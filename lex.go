// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package kati

import "strings"

// logicalLine is one backslash-continuation-joined source line, with its
// starting line number preserved for diagnostics.
type logicalLine struct {
	text    string
	line    int
	isRecipe bool // began with a tab in the raw source
}

// splitLogicalLines implements GNU Make's line-joining discipline: a
// trailing unescaped backslash joins the next physical line, with the
// leading whitespace of the continuation collapsed to a single space
// (recipe lines keep continuations intact for the shell to see instead).
func splitLogicalLines(data []byte) []logicalLine {
	raw := strings.Split(normalizeNewlines(string(data)), "\n")
	var out []logicalLine
	i := 0
	for i < len(raw) {
		startLine := i + 1
		line := raw[i]
		isRecipe := strings.HasPrefix(line, "\t")
		var buf strings.Builder
		buf.WriteString(line)
		for endsWithOddBackslash(buf.String()) && i+1 < len(raw) {
			i++
			s := buf.String()
			if isRecipe {
				buf.Reset()
				buf.WriteString(s)
				buf.WriteByte('\n')
				buf.WriteString(raw[i])
			} else {
				s = s[:len(s)-1]
				next := strings.TrimLeft(raw[i], " \t")
				buf.Reset()
				buf.WriteString(s)
				buf.WriteByte(' ')
				buf.WriteString(next)
			}
		}
		out = append(out, logicalLine{text: buf.String(), line: startLine, isRecipe: isRecipe})
		i++
	}
	return out
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func endsWithOddBackslash(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// stripComment removes a top-level (not inside $(...)) unescaped '#' and
// everything after it, honoring GNU Make's rule that '#' only starts a
// comment outside of balanced parens and when not backslash-escaped.
func stripComment(line string) string {
	depth := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line):
			i++
		case c == '(' || c == '{':
			depth++
		case c == ')' || c == '}':
			if depth > 0 {
				depth--
			}
		case c == '#':
			return line[:i]
		}
	}
	return line
}
