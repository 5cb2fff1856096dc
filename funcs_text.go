package kati

import (
	"sort"
	"strconv"
	"strings"
)

func init() {
	registerFunc("subst", 3, 3, func(ev *Evaluator, args []Value) []byte {
		from := rawArg(ev, args, 0)
		to := rawArg(ev, args, 1)
		text := rawArg(ev, args, 2)
		if from == "" {
			return []byte(text)
		}
		return []byte(strings.ReplaceAll(text, from, to))
	})

	registerFunc("patsubst", 3, 3, func(ev *Evaluator, args []Value) []byte {
		pattern := arg(ev, args, 0)
		repl := arg(ev, args, 1)
		words := splitFields(ev.ExpandString(args[2]))
		out := make([]string, len(words))
		for i, w := range words {
			out[i] = patsubstOne(pattern, repl, w)
		}
		return []byte(strings.Join(out, " "))
	})

	registerFunc("strip", 1, 1, func(ev *Evaluator, args []Value) []byte {
		return []byte(strings.Join(splitFields(rawArg(ev, args, 0)), " "))
	})

	registerFunc("findstring", 2, 2, func(ev *Evaluator, args []Value) []byte {
		needle := rawArg(ev, args, 0)
		haystack := rawArg(ev, args, 1)
		if strings.Contains(haystack, needle) {
			return []byte(needle)
		}
		return nil
	})

	registerFunc("filter", 2, 2, func(ev *Evaluator, args []Value) []byte {
		patterns := splitFields(arg(ev, args, 0))
		words := splitFields(ev.ExpandString(args[1]))
		var out []string
		for _, w := range words {
			for _, p := range patterns {
				if patternMatches(p, w) {
					out = append(out, w)
					break
				}
			}
		}
		return []byte(strings.Join(out, " "))
	})

	registerFunc("filter-out", 2, 2, func(ev *Evaluator, args []Value) []byte {
		patterns := splitFields(arg(ev, args, 0))
		words := splitFields(ev.ExpandString(args[1]))
		var out []string
		for _, w := range words {
			match := false
			for _, p := range patterns {
				if patternMatches(p, w) {
					match = true
					break
				}
			}
			if !match {
				out = append(out, w)
			}
		}
		return []byte(strings.Join(out, " "))
	})

	registerFunc("sort", 1, 1, func(ev *Evaluator, args []Value) []byte {
		words := splitFields(ev.ExpandString(args[0]))
		sort.Strings(words)
		out := words[:0]
		var last string
		first := true
		for _, w := range words {
			if first || w != last {
				out = append(out, w)
				last = w
				first = false
			}
		}
		return []byte(strings.Join(out, " "))
	})

	registerFunc("word", 2, 2, func(ev *Evaluator, args []Value) []byte {
		n, err := strconv.Atoi(arg(ev, args, 0))
		if err != nil || n < 1 {
			ev.panicf("word: non-numeric or zero first argument")
			return nil
		}
		words := splitFields(ev.ExpandString(args[1]))
		if n > len(words) {
			return nil
		}
		return []byte(words[n-1])
	})

	registerFunc("wordlist", 3, 3, func(ev *Evaluator, args []Value) []byte {
		s, err1 := strconv.Atoi(arg(ev, args, 0))
		e, err2 := strconv.Atoi(arg(ev, args, 1))
		if err1 != nil || err2 != nil || s < 1 {
			ev.panicf("wordlist: invalid bounds")
			return nil
		}
		words := splitFields(ev.ExpandString(args[2]))
		if s > len(words) {
			return nil
		}
		if e > len(words) {
			e = len(words)
		}
		if e < s {
			return nil
		}
		return []byte(strings.Join(words[s-1:e], " "))
	})

	registerFunc("words", 1, 1, func(ev *Evaluator, args []Value) []byte {
		return []byte(strconv.Itoa(len(splitFields(ev.ExpandString(args[0])))))
	})

	registerFunc("firstword", 1, 1, func(ev *Evaluator, args []Value) []byte {
		words := splitFields(ev.ExpandString(args[0]))
		if len(words) == 0 {
			return nil
		}
		return []byte(words[0])
	})

	registerFunc("lastword", 1, 1, func(ev *Evaluator, args []Value) []byte {
		words := splitFields(ev.ExpandString(args[0]))
		if len(words) == 0 {
			return nil
		}
		return []byte(words[len(words)-1])
	})

	registerFunc("join", 2, 2, func(ev *Evaluator, args []Value) []byte {
		a := splitFields(ev.ExpandString(args[0]))
		b := splitFields(ev.ExpandString(args[1]))
		n := len(a)
		if len(b) > n {
			n = len(b)
		}
		out := make([]string, n)
		for i := 0; i < n; i++ {
			var x, y string
			if i < len(a) {
				x = a[i]
			}
			if i < len(b) {
				y = b[i]
			}
			out[i] = x + y
		}
		return []byte(strings.Join(out, " "))
	})
}
