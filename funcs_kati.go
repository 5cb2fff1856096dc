package kati

import "strings"

// Extension functions beyond GNU Make, carried over from the historical
// Android kati build (spec.md §4.4's "Plus extensions" list). Most tweak
// bookkeeping on the Variable or Evaluator rather than producing text.
func init() {
	registerFunc("KATI_deprecated_var", 1, 2, func(ev *Evaluator, args []Value) []byte {
		return tagVariables(ev, args, func(v *Variable, msg string) { v.Deprecated = msg })
	})

	registerFunc("KATI_obsolete_var", 1, 2, func(ev *Evaluator, args []Value) []byte {
		return tagVariables(ev, args, func(v *Variable, msg string) { v.Obsolete = msg })
	})

	registerFunc("KATI_deprecate_export", 1, 2, func(ev *Evaluator, args []Value) []byte {
		for _, name := range splitFields(arg(ev, args, 0)) {
			ev.deprecatedExports[Intern(name)] = rawArg(ev, args, 1)
		}
		return nil
	})

	registerFunc("KATI_obsolete_export", 1, 2, func(ev *Evaluator, args []Value) []byte {
		for _, name := range splitFields(arg(ev, args, 0)) {
			ev.obsoleteExports[Intern(name)] = rawArg(ev, args, 1)
		}
		return nil
	})

	registerFunc("KATI_profile_makefile", 1, -1, func(ev *Evaluator, args []Value) []byte {
		// Profiling output is an out-of-scope collaborator (spec.md Non-goals);
		// the call is accepted and ignored: nothing is recorded and it
		// expands to nothing.
		return nil
	})

	registerFunc("KATI_variable_location", 1, 1, func(ev *Evaluator, args []Value) []byte {
		v := ev.Scope.Lookup(Intern(arg(ev, args, 0)))
		if v == nil || len(v.DefFrame) == 0 {
			return nil
		}
		return []byte(v.DefFrame[len(v.DefFrame)-1].Location.String())
	})

	registerFunc("KATI_extra_file_deps", 1, -1, func(ev *Evaluator, args []Value) []byte {
		for _, a := range args {
			ev.extraFileDeps = append(ev.extraFileDeps, splitFields(ev.ExpandString(a))...)
		}
		return nil
	})

	registerFunc("KATI_shell_no_rerun", 1, 1, func(ev *Evaluator, args []Value) []byte {
		ev.shellNoRerun[rawArg(ev, args, 0)] = true
		return nil
	})

	registerFunc("KATI_foreach_sep", 4, 4, func(ev *Evaluator, args []Value) []byte {
		sep := rawArg(ev, args, 0)
		return ev.doForeach(arg(ev, args, 1), ev.ExpandString(args[2]), args[3], sep)
	})

	registerFunc("KATI_file_no_rerun", 1, 1, func(ev *Evaluator, args []Value) []byte {
		ev.fileNoRerun[rawArg(ev, args, 0)] = true
		return nil
	})

	registerFunc("KATI_visibility_prefix", 1, 2, func(ev *Evaluator, args []Value) []byte {
		prefix := arg(ev, args, 0)
		for _, name := range splitFields(arg(ev, args, 1)) {
			sym := Intern(name)
			if v := ev.Scope.Lookup(sym); v != nil {
				v.VisibilityPrefixes = append(v.VisibilityPrefixes, prefix)
			}
		}
		return nil
	})

	registerFunc("KATI_debug_var", 1, -1, func(ev *Evaluator, args []Value) []byte {
		var parts []string
		for _, name := range splitFields(arg(ev, args, 0)) {
			v := ev.Scope.Lookup(Intern(name))
			if v == nil {
				parts = append(parts, name+"=<undefined>")
				continue
			}
			parts = append(parts, name+"="+ev.lookupOrigText(v))
		}
		return []byte(strings.Join(parts, " "))
	})
}

func tagVariables(ev *Evaluator, args []Value, set func(v *Variable, msg string)) []byte {
	msg := rawArg(ev, args, 1)
	for _, name := range splitFields(arg(ev, args, 0)) {
		if v := ev.Scope.Lookup(Intern(name)); v != nil {
			set(v, msg)
		}
	}
	return nil
}

func (ev *Evaluator) lookupOrigText(v *Variable) string {
	if v.OrigRHS != "" {
		return v.OrigRHS
	}
	return string(v.Simple)
}
