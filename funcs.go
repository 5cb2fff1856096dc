package kati

import "strings"

// FuncInfo describes one entry in the built-in function registry: its
// name, its arity bounds (MaxArity < 0 means unbounded, and governs how
// many top-level commas splitArgs honors before folding the rest into the
// last argument), and its implementation. Per-argument trimming and
// right-trim-only-first-argument subtleties (spec.md §4.4) are handled
// inside each Impl, since they vary per function rather than following one
// mechanical rule.
type FuncInfo struct {
	Name     string
	MinArity int
	MaxArity int
	Impl     func(ev *Evaluator, args []Value) []byte
}

var funcRegistry = map[string]*FuncInfo{}

func registerFunc(name string, minArity, maxArity int, impl func(ev *Evaluator, args []Value) []byte) {
	funcRegistry[name] = &FuncInfo{Name: name, MinArity: minArity, MaxArity: maxArity, Impl: impl}
}

// lookupFunc resolves a candidate head token to its FuncInfo, used by the
// expression parser to decide "function call" vs. "variable reference".
func lookupFunc(name string) (*FuncInfo, bool) {
	f, ok := funcRegistry[name]
	return f, ok
}

// arg returns the trimmed, expanded value of args[i], or "" if the
// function was called with fewer arguments than i+1.
func arg(ev *Evaluator, args []Value, i int) string {
	if i >= len(args) {
		return ""
	}
	return strings.TrimSpace(ev.ExpandString(args[i]))
}

// rawArg is like arg but does not trim, for functions whose argument is
// data rather than a word list (e.g. the text argument to $(info)).
func rawArg(ev *Evaluator, args []Value, i int) string {
	if i >= len(args) {
		return ""
	}
	return ev.ExpandString(args[i])
}

func init() {
	registerFunc("if", 2, 3, func(ev *Evaluator, args []Value) []byte {
		if rawArg(ev, args, 0) != "" {
			return []byte(rawArg(ev, args, 1))
		}
		return []byte(rawArg(ev, args, 2))
	})

	registerFunc("and", 0, -1, func(ev *Evaluator, args []Value) []byte {
		var last string
		for _, a := range args {
			last = ev.ExpandString(a)
			if last == "" {
				return nil
			}
		}
		return []byte(last)
	})

	registerFunc("or", 0, -1, func(ev *Evaluator, args []Value) []byte {
		for _, a := range args {
			v := ev.ExpandString(a)
			if v != "" {
				return []byte(v)
			}
		}
		return nil
	})

	registerFunc("foreach", 3, 3, func(ev *Evaluator, args []Value) []byte {
		return ev.doForeach(arg(ev, args, 0), ev.ExpandString(args[1]), args[2], " ")
	})

	registerFunc("call", 1, -1, func(ev *Evaluator, args []Value) []byte {
		name := arg(ev, args, 0)
		sym := Intern(name)
		variable := ev.Scope.Lookup(sym)
		if variable == nil {
			return nil
		}
		savedPositional := ev.positional
		ev.positional = args[1:]
		ev.evalDepth--
		var result []byte
		switch variable.Flavor {
		case FlavorRecursive:
			result = ev.Expand(variable.Recur)
		default:
			result = variable.Simple
		}
		ev.evalDepth++
		ev.positional = savedPositional
		return result
	})

	registerFunc("value", 1, 1, func(ev *Evaluator, args []Value) []byte {
		name := arg(ev, args, 0)
		v := ev.Scope.Lookup(Intern(name))
		if v == nil {
			return nil
		}
		return []byte(v.OrigRHS)
	})

	registerFunc("origin", 1, 1, func(ev *Evaluator, args []Value) []byte {
		name := arg(ev, args, 0)
		v := ev.Scope.Lookup(Intern(name))
		if v == nil {
			return []byte("undefined")
		}
		return []byte(v.Origin.String())
	})

	registerFunc("flavor", 1, 1, func(ev *Evaluator, args []Value) []byte {
		name := arg(ev, args, 0)
		v := ev.Scope.Lookup(Intern(name))
		if v == nil {
			return []byte("undefined")
		}
		return []byte(v.Flavor.String())
	})

	registerFunc("eval", 1, 1, func(ev *Evaluator, args []Value) []byte {
		text := ev.ExpandString(args[0])
		stmts, err := ParseMakefile([]byte(text), ev.Loc.Filename)
		if err != nil {
			ev.panicf("eval: %v", err)
			return nil
		}
		for _, s := range stmts {
			if err := ev.execStmt(s); err != nil {
				if d, ok := err.(*Diagnostic); ok {
					panic(d)
				}
				ev.panicf("eval: %v", err)
				return nil
			}
		}
		return nil
	})
}

// doForeach binds varName to each word of list in turn, expanding textVal
// once per word and joining the results with sep, per spec.md §4.4.
func (ev *Evaluator) doForeach(varName, list string, textVal Value, sep string) []byte {
	sym := Intern(varName)
	saved := ev.Scope.Lookup(sym)
	results := make([]string, 0, 8)
	for _, word := range splitFields(list) {
		ev.Scope.Set(sym, &Variable{Origin: OriginAutomatic, Flavor: FlavorSimple, Simple: []byte(word)})
		results = append(results, ev.ExpandString(textVal))
	}
	if saved != nil {
		ev.Scope.Set(sym, saved)
	} else {
		ev.Scope.Unset(sym)
	}
	return []byte(strings.Join(results, sep))
}
