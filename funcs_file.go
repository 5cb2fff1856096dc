package kati

import (
	"path/filepath"
	"strings"
)

func init() {
	registerFunc("wildcard", 1, 1, func(ev *Evaluator, args []Value) []byte {
		ev.Shared.Stats.incWildcard()
		var out []string
		for _, pat := range splitFields(ev.ExpandString(args[0])) {
			out = append(out, ev.Shared.Glob.Glob(ev.Shared.Stats, pat)...)
		}
		return []byte(strings.Join(out, " "))
	})

	registerFunc("dir", 1, 1, func(ev *Evaluator, args []Value) []byte {
		words := splitFields(ev.ExpandString(args[0]))
		out := make([]string, len(words))
		for i, w := range words {
			d := filepath.Dir(w)
			if !strings.HasSuffix(d, "/") {
				d += "/"
			}
			out[i] = d
		}
		return []byte(strings.Join(out, " "))
	})

	registerFunc("notdir", 1, 1, func(ev *Evaluator, args []Value) []byte {
		words := splitFields(ev.ExpandString(args[0]))
		out := make([]string, len(words))
		for i, w := range words {
			out[i] = filepath.Base(w)
		}
		return []byte(strings.Join(out, " "))
	})

	registerFunc("suffix", 1, 1, func(ev *Evaluator, args []Value) []byte {
		words := splitFields(ev.ExpandString(args[0]))
		var out []string
		for _, w := range words {
			if ext := filepath.Ext(w); ext != "" {
				out = append(out, ext)
			}
		}
		return []byte(strings.Join(out, " "))
	})

	registerFunc("basename", 1, 1, func(ev *Evaluator, args []Value) []byte {
		words := splitFields(ev.ExpandString(args[0]))
		out := make([]string, len(words))
		for i, w := range words {
			if ext := filepath.Ext(w); ext != "" {
				out[i] = strings.TrimSuffix(w, ext)
			} else {
				out[i] = w
			}
		}
		return []byte(strings.Join(out, " "))
	})

	registerFunc("addsuffix", 2, 2, func(ev *Evaluator, args []Value) []byte {
		suffix := rawArg(ev, args, 0)
		words := splitFields(ev.ExpandString(args[1]))
		out := make([]string, len(words))
		for i, w := range words {
			out[i] = w + suffix
		}
		return []byte(strings.Join(out, " "))
	})

	registerFunc("addprefix", 2, 2, func(ev *Evaluator, args []Value) []byte {
		prefix := rawArg(ev, args, 0)
		words := splitFields(ev.ExpandString(args[1]))
		out := make([]string, len(words))
		for i, w := range words {
			out[i] = prefix + w
		}
		return []byte(strings.Join(out, " "))
	})

	registerFunc("realpath", 1, 1, func(ev *Evaluator, args []Value) []byte {
		words := splitFields(ev.ExpandString(args[0]))
		var out []string
		for _, w := range words {
			if p, err := filepath.Abs(w); err == nil {
				if resolved, err := filepath.EvalSymlinks(p); err == nil {
					out = append(out, resolved)
				}
			}
		}
		return []byte(strings.Join(out, " "))
	})

	registerFunc("abspath", 1, 1, func(ev *Evaluator, args []Value) []byte {
		words := splitFields(ev.ExpandString(args[0]))
		out := make([]string, len(words))
		for i, w := range words {
			out[i] = filepath.Clean(abspathOf(w))
		}
		return []byte(strings.Join(out, " "))
	})
}

func abspathOf(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
