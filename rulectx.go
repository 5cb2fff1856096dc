package kati

import (
	"path/filepath"
	"strings"
)

// ruleContext supplies the values of automatic variables ($@ $< $^ $+ $? $*
// and their D/F suffixed forms) while evaluating one DepNode's recipe or
// rule-specific variable assignments, per spec.md §3 ("Automatic variable").
type ruleContext struct {
	output           string
	outputPattern    string // "%" pattern text, for $* stem derivation
	stem             string
	actualInputs     []string // $^ (deduped) / first is $<
	newerInputs      []string // $? — inputs newer than the output
	allPrereqsOrdered []string // $+ — all prereqs, in order, not deduped
}

func (ctx *ruleContext) first() string {
	if ctx == nil || len(ctx.actualInputs) == 0 {
		return ""
	}
	return ctx.actualInputs[0]
}

func (ctx *ruleContext) value(name byte) []byte {
	if ctx == nil {
		return nil
	}
	switch name {
	case '@':
		return []byte(ctx.output)
	case '<':
		return []byte(ctx.first())
	case '^':
		return []byte(dedupJoin(ctx.actualInputs))
	case '+':
		return []byte(strings.Join(ctx.allPrereqsOrdered, " "))
	case '?':
		return []byte(strings.Join(ctx.newerInputs, " "))
	case '*':
		return []byte(ctx.stem)
	}
	return nil
}

// applyDirFileSuffix expands "$@D"/"$@F" style directory/file suffixes
// applied to any automatic variable's value.
func applyDirFileSuffix(val []byte, suffix byte) []byte {
	words := strings.Fields(string(val))
	out := make([]string, len(words))
	for i, w := range words {
		switch suffix {
		case 'D':
			d := filepath.Dir(w)
			out[i] = d
		case 'F':
			out[i] = filepath.Base(w)
		default:
			out[i] = w
		}
	}
	return []byte(strings.Join(out, " "))
}

func dedupJoin(words []string) string {
	seen := make(map[string]bool, len(words))
	var out []string
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}
