package kati

import (
	"sort"
	"strings"
)

// introspectionValue resolves the handful of read-only pseudo-variables
// that do not live in the symbol table as ordinary bindings, per spec.md
// §4.3. Returns nil (not found) to fall through to an ordinary lookup.
func introspectionValue(ev *Evaluator, sym Symbol) []byte {
	name := sym.String()
	switch name {
	case ".SHELLSTATUS":
		return []byte(itoa(ev.shellStatus))
	case ".VARIABLES", ".KATI_SYMBOLS":
		wantMacrosExcluded := name == ".KATI_SYMBOLS"
		names := make([]string, 0, len(allBoundSymbols()))
		for _, s := range allBoundSymbols() {
			v := s.globalVariable()
			if v.Obsolete != "" {
				continue
			}
			if wantMacrosExcluded && looksLikeFunctionMacro(v) {
				continue
			}
			names = append(names, s.String())
		}
		sort.Strings(names)
		return []byte(strings.Join(names, " "))
	case "MAKEFILE_LIST":
		return []byte(strings.Join(ev.makefileList, " "))
	case "MAKECMDGOALS":
		return []byte(strings.Join(ev.goals, " "))
	default:
		return nil
	}
}

// looksLikeFunctionMacro reports whether v's recursive expansion references a
// $(call)-style positional parameter ($1..$9 or $(1)..$(9)), the signal
// spec.md §4.3 uses to exclude function-like macros from .KATI_SYMBOLS.
func looksLikeFunctionMacro(v *Variable) bool {
	if v == nil || v.Flavor != FlavorRecursive {
		return false
	}
	s := v.OrigRHS
	for i := 0; i+1 < len(s); i++ {
		if s[i] != '$' {
			continue
		}
		c := s[i+1]
		if c >= '1' && c <= '9' {
			return true
		}
		if c == '(' && i+3 < len(s) && s[i+2] >= '1' && s[i+2] <= '9' && s[i+3] == ')' {
			return true
		}
	}
	return false
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// patsubstOne applies one GNU Make %-pattern substitution to a single word.
// If pattern has no '%', it behaves as a suffix replacement: a trailing
// match of pattern in word is replaced by repl (GNU Make's degenerate
// patsubst form).
func patsubstOne(pattern, repl, word string) string {
	pi := strings.IndexByte(pattern, '%')
	if pi < 0 {
		if strings.HasSuffix(word, pattern) && pattern != "" {
			return word[:len(word)-len(pattern)] + repl
		}
		if word == pattern {
			return repl
		}
		return word
	}
	prefix, suffix := pattern[:pi], pattern[pi+1:]
	if !strings.HasPrefix(word, prefix) || !strings.HasSuffix(word, suffix) {
		return word
	}
	if len(word) < len(prefix)+len(suffix) {
		return word
	}
	stem := word[len(prefix) : len(word)-len(suffix)]
	ri := strings.IndexByte(repl, '%')
	if ri < 0 {
		return repl
	}
	return repl[:ri] + stem + repl[ri+1:]
}
