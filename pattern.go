package kati

import "strings"

// pattern is a parsed GNU Make "%" pattern: a prefix and suffix either side
// of one optional '%' wildcard, replacing the teacher's "{name}"-capture
// dialect (see pattern_test.go) with the single-wildcard grammar spec.md
// §4.6 actually calls for.
type pattern struct {
	text   string
	hasPct bool
	prefix string
	suffix string
}

func newPattern(text string) pattern {
	i := strings.IndexByte(text, '%')
	if i < 0 {
		return pattern{text: text}
	}
	return pattern{text: text, hasPct: true, prefix: text[:i], suffix: text[i+1:]}
}

// patternMatches reports whether word matches the GNU Make pattern text
// (used by $(filter)/$(filter-out), which treat a pattern with no '%' as
// matching only that exact word).
func patternMatches(patternText, word string) bool {
	return newPattern(patternText).match(word)
}

// match reports whether word matches p.
func (p pattern) match(word string) bool {
	if !p.hasPct {
		return p.text == word
	}
	if len(word) < len(p.prefix)+len(p.suffix) {
		return false
	}
	return strings.HasPrefix(word, p.prefix) && strings.HasSuffix(word, p.suffix)
}

// stem returns the text matched by '%' in word, assuming match(word) is
// true already. Panics-free: returns "" for a non-% pattern.
func (p pattern) stem(word string) string {
	if !p.hasPct {
		return ""
	}
	return word[len(p.prefix) : len(word)-len(p.suffix)]
}

// substStem replaces '%' in replacement with stem; if replacement has no
// '%', it is returned verbatim (GNU Make's static-pattern-rule shorthand).
func substStem(replacement, stem string) string {
	i := strings.IndexByte(replacement, '%')
	if i < 0 {
		return replacement
	}
	return replacement[:i] + stem + replacement[i+1:]
}
