package kati

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
)

// SharedContext bundles the process-wide singletons spec.md's design notes
// call out explicitly: the glob cache, the makefile cache, the command
// results log, and the stats counters. Passing one explicit context through
// the pipeline (rather than file-scope globals) is what spec.md §9 asks
// for: "Model them as explicit context objects passed through the
// pipeline; provide a single facade that constructs them at startup."
type SharedContext struct {
	Glob            *GlobCache
	Makefiles       *MakefileCache
	CmdLog          *CommandLog
	Stats           *Stats
	Warn            *WarnConfig
	UseFindEmulator bool
}

// NewSharedContext constructs a fresh set of process-wide singletons.
func NewSharedContext() *SharedContext {
	return &SharedContext{
		Glob:            NewGlobCache(),
		Makefiles:       NewMakefileCache(),
		CmdLog:          NewCommandLog(),
		Stats:           &Stats{},
		Warn:            DefaultWarnConfig(),
		UseFindEmulator: true,
	}
}

// WarnConfig configures which diagnostics are warnings vs. fatal errors,
// mirroring spec.md §6's --warn_*/--werror_* flag families.
type WarnConfig struct {
	WerrorOverridingCommands bool
	WarnPhonyLooksReal       bool
	WerrorWritable           bool
	WerrorRealToPhony        bool
	WerrorRealNoCmdsOrDeps   bool
	WerrorRealNoCmds         bool
	ColorWarnings            bool
	WritablePrefixes         []string
}

func DefaultWarnConfig() *WarnConfig {
	return &WarnConfig{WarnPhonyLooksReal: true}
}

// SideEffectMode governs whether $(shell)/$(file)/$(info) etc. run
// immediately or are deferred into the delayed-output-commands buffer,
// per spec.md §9's "Recipe execution embedded in evaluation" design note.
type SideEffectMode int

const (
	SideEffectImmediate SideEffectMode = iota
	SideEffectDeferred
)

// Evaluator is the mutable context threaded through expression evaluation.
// It holds no hidden state beyond what is stored on itself, per spec.md
// §4.2.
type Evaluator struct {
	Shared *SharedContext

	Scope *Scope // current target-local scope; nil for global lookups
	Loc   Location

	evalDepth int
	SideEffects SideEffectMode

	guard map[Symbol]bool // symbols_for_eval recursion guard
	frames frameStack

	delayed []string // FIFO of deferred shell snippets ($(info)/$(warning)/$(error) under avoidIO)

	shellStatus int

	exports    map[Symbol]bool
	exportAll  bool

	makefileList []string
	goals        []string
	usedUndefined map[Symbol]bool

	ruleCtx *ruleContext

	// positional holds $(1) $(2) ... bound by the most recent $(call).
	positional []Value

	readonlyNames map[Symbol]bool // installed by .KATI_READONLY

	deprecatedExports map[Symbol]string
	obsoleteExports   map[Symbol]string
	extraFileDeps     []string
	shellNoRerun      map[string]bool
	fileNoRerun       map[string]bool

	rules        *RuleSet
	targetScopes map[string]*Scope
}

// NewEvaluator creates a root evaluator bound to shared. It binds no
// variables; Bootstrap (see bootstrap.go) ingests the environment and the
// default variables separately.
func NewEvaluator(shared *SharedContext) *Evaluator {
	return &Evaluator{
		Shared:            shared,
		guard:             make(map[Symbol]bool),
		exports:           make(map[Symbol]bool),
		usedUndefined:     make(map[Symbol]bool),
		readonlyNames:     make(map[Symbol]bool),
		deprecatedExports: make(map[Symbol]string),
		obsoleteExports:   make(map[Symbol]string),
		shellNoRerun:      make(map[string]bool),
		fileNoRerun:       make(map[string]bool),
		rules:             NewRuleSet(),
		targetScopes:      make(map[string]*Scope),
	}
}

// avoidIO reports whether side-effecting functions must defer instead of
// running immediately (set while translating recipes for Ninja).
func (ev *Evaluator) avoidIO() bool {
	return ev.SideEffects == SideEffectDeferred
}

// RuleSet returns the rule database accumulated by execRule/execInclude so
// far. Callers typically call it only after the whole makefile has run.
func (ev *Evaluator) RuleSet() *RuleSet {
	return ev.rules
}

// DefaultGoal returns the first non-special target declared in the
// makefile, matching GNU Make's rule that the first target named by any
// rule (one not starting with '.') becomes the implicit goal.
func (ev *Evaluator) DefaultGoal() string {
	for _, out := range ev.rules.Outputs() {
		if !strings.HasPrefix(out, ".") {
			return out
		}
	}
	return ""
}

// SetCommandLineVariable binds name=value as a command-line-origin
// variable, the precedence level spec.md §3 gives to NAME=VALUE operands
// on the kati command line.
func SetCommandLineVariable(ev *Evaluator, name, value string) {
	ev.Assign(ev.Scope, &AssignStmt{
		Lhs: &Literal{Bytes: []byte(name)},
		Op:  OpSimple,
		Rhs: &Literal{Bytes: []byte(value)},
		OrigRhs: value,
	}, OriginCommandLine)
}

// ExecStatements runs a parsed makefile's top-level statements against ev,
// the same entry point EvalInclude uses for nested makefiles.
func ExecStatements(ev *Evaluator, stmts []Stmt) error {
	return ev.execStmts(stmts)
}

// DumpVariableTrace prints, for each bound variable whose name matches
// filter (a glob, or "" for all), the location where it was last assigned.
// Grounded on spec.md §6's --dump_variable_assignment_trace flag.
func DumpVariableTrace(ev *Evaluator, filter string, w io.Writer) {
	for _, sym := range allBoundSymbols() {
		name := sym.String()
		if filter != "" {
			if ok, _ := filepath.Match(filter, name); !ok {
				continue
			}
		}
		v := sym.globalVariable()
		if v == nil || len(v.DefFrame) == 0 {
			continue
		}
		frame := v.DefFrame[len(v.DefFrame)-1]
		fmt.Fprintf(w, "%s := %s  # %s\n", name, string(v.Simple), frame.Location.String())
	}
}

// EmitDeferred appends a shell snippet to the delayed-output-commands FIFO.
func (ev *Evaluator) EmitDeferred(s string) {
	ev.delayed = append(ev.delayed, s)
}

// DrainDeferred returns and clears the delayed-output-commands buffer, in
// FIFO order, for the Ninja emitter to splice as the recipe's prefix.
func (ev *Evaluator) DrainDeferred() []string {
	out := ev.delayed
	ev.delayed = nil
	return out
}

// ---- expression evaluation ----

// Expand evaluates v to its byte-string value.
func (ev *Evaluator) Expand(v Value) []byte {
	if v == nil {
		return nil
	}
	switch n := v.(type) {
	case *Literal:
		return n.Bytes

	case *ValueList:
		var buf []byte
		for _, c := range n.Children {
			buf = append(buf, ev.Expand(c)...)
		}
		return buf

	case *SymRef:
		return ev.expandSymRef(n)

	case *VarRef:
		name := ev.Expand(n.Name)
		return ev.expandSymRef(&SymRef{Sym: InternBytes(name), Loc: n.Loc})

	case *VarSubst:
		return ev.expandVarSubst(n)

	case *FuncCall:
		return ev.expandFuncCall(n)

	default:
		return nil
	}
}

// ExpandString is a convenience wrapper returning a Go string.
func (ev *Evaluator) ExpandString(v Value) string {
	return string(ev.Expand(v))
}

func (ev *Evaluator) expandSymRef(n *SymRef) []byte {
	ev.Loc = n.Loc

	// Positional parameters bound by $(call).
	if n.Sym >= '1' && n.Sym <= '9' {
		idx := int(n.Sym - '1')
		if idx < len(ev.positional) {
			return ev.Expand(ev.positional[idx])
		}
	}

	// Automatic variables and their D/F suffixed forms, valid only while
	// evaluating a recipe or rule-specific assignment.
	if ev.ruleCtx != nil {
		name := n.Sym.String()
		if len(name) == 1 && isAutomaticLetter(name[0]) {
			return ev.ruleCtx.value(name[0])
		}
		if len(name) == 2 && isAutomaticLetter(name[0]) && (name[1] == 'D' || name[1] == 'F') {
			return applyDirFileSuffix(ev.ruleCtx.value(name[0]), name[1])
		}
	}

	if v := introspectionValue(ev, n.Sym); v != nil {
		return v
	}

	variable := ev.Scope.Lookup(n.Sym)
	if variable == nil {
		ev.usedUndefined[n.Sym] = true
		return nil
	}

	if variable.Obsolete != "" {
		ev.panicf("variable %q is obsolete: %s", n.Sym.String(), variable.Obsolete)
		return nil
	}
	if variable.Deprecated != "" {
		ev.warnf("variable %q is deprecated: %s", n.Sym.String(), variable.Deprecated)
	}

	switch variable.Flavor {
	case FlavorSimple, FlavorShellStatus, FlavorVariableNames:
		return variable.Simple
	case FlavorRecursive:
		if ev.guard[n.Sym] {
			ev.Shared.Stats.incRecursionTrip()
			ev.panicf("recursive variable %q references itself (eventually)", n.Sym.String())
			return nil
		}
		ev.guard[n.Sym] = true
		ev.evalDepth++
		val := ev.Expand(variable.Recur)
		ev.evalDepth--
		delete(ev.guard, n.Sym)
		return val
	default:
		return nil
	}
}

func isAutomaticLetter(b byte) bool {
	switch b {
	case '@', '<', '^', '+', '?', '*':
		return true
	}
	return false
}

func (ev *Evaluator) expandVarSubst(n *VarSubst) []byte {
	name := ev.Expand(n.Name)
	val := ev.expandSymRef(&SymRef{Sym: InternBytes(name), Loc: n.Loc})
	pattern := string(ev.Expand(n.Pattern))
	repl := string(ev.Expand(n.Replacement))

	words := splitFields(string(val))
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = patsubstOne(pattern, repl, w)
	}
	return []byte(strings.Join(out, " "))
}

func (ev *Evaluator) expandFuncCall(n *FuncCall) []byte {
	ev.Loc = n.Loc
	ev.frames.push(Frame{Kind: FrameFunCall, Name: n.Info.Name, Location: n.Loc})
	ev.evalDepth++
	result := n.Info.Impl(ev, n.Args)
	ev.evalDepth--
	ev.frames.pop()
	return result
}

// ---- variable assignment ----

// Assign performs a variable assignment with the given origin, honoring the
// flavor/append/conditional rules of spec.md §4.2 and the origin precedence
// and readonly monotonicity rules of §3/§4.3.
func (ev *Evaluator) Assign(scope *Scope, a *AssignStmt, origin Origin) error {
	name := ev.Expand(a.Lhs)
	if len(name) == 0 {
		return ev.fatalf("*** empty variable name")
	}
	sym := InternBytes(name)

	if sym.String() == ".KATI_READONLY" {
		return ev.markReadonly(scope, a)
	}

	existing := scope.Lookup(sym)
	if err := existing.canOverwrite(); err != nil {
		return ev.fatalf("%s: %v", sym.String(), err)
	}

	switch a.Op {
	case OpSimple:
		val := ev.Expand(a.Rhs)
		ev.store(scope, sym, existing, origin, &Variable{
			Origin: origin, Flavor: FlavorSimple, Simple: val,
			OrigRHS: a.OrigRhs, AssignOp: a.Op, ReadOnly: a.IsFinal,
		})

	case OpRecursive:
		ev.store(scope, sym, existing, origin, &Variable{
			Origin: origin, Flavor: FlavorRecursive, Recur: a.Rhs,
			OrigRHS: a.OrigRhs, AssignOp: a.Op, ReadOnly: a.IsFinal,
		})

	case OpAppend:
		if existing == nil {
			ev.store(scope, sym, existing, origin, &Variable{
				Origin: origin, Flavor: FlavorRecursive, Recur: a.Rhs,
				OrigRHS: a.OrigRhs, AssignOp: a.Op, ReadOnly: a.IsFinal,
			})
			break
		}
		if !existing.wins(origin) {
			break
		}
		switch existing.Flavor {
		case FlavorSimple:
			appended := append(append([]byte(nil), existing.Simple...), ' ')
			appended = append(appended, ev.Expand(a.Rhs)...)
			ev.store(scope, sym, existing, origin, &Variable{
				Origin: origin, Flavor: FlavorSimple, Simple: appended,
				OrigRHS: existing.OrigRHS + " " + a.OrigRhs, AssignOp: a.Op, ReadOnly: a.IsFinal,
			})
		default:
			merged := simplify([]Value{existing.Recur, literal(" ", a.Loc), a.Rhs}, a.Loc)
			ev.store(scope, sym, existing, origin, &Variable{
				Origin: origin, Flavor: FlavorRecursive, Recur: merged,
				OrigRHS: existing.OrigRHS + " " + a.OrigRhs, AssignOp: a.Op, ReadOnly: a.IsFinal,
			})
		}

	case OpCondSet:
		if existing != nil {
			break
		}
		ev.store(scope, sym, existing, origin, &Variable{
			Origin: origin, Flavor: FlavorRecursive, Recur: a.Rhs,
			OrigRHS: a.OrigRhs, AssignOp: a.Op, ReadOnly: a.IsFinal,
		})
	}

	if a.IsExport {
		ev.exports[sym] = true
	}
	return nil
}

// markReadonly implements spec.md §4.3's ".KATI_READONLY := names" directive:
// naming a variable here makes every later assignment to it a fatal error,
// whether the variable is already defined or still to come.
func (ev *Evaluator) markReadonly(scope *Scope, a *AssignStmt) error {
	for _, name := range splitFields(string(ev.Expand(a.Rhs))) {
		sym := Intern(name)
		ev.readonlyNames[sym] = true
		if v := scope.Lookup(sym); v != nil {
			v.ReadOnly = true
			continue
		}
		scope.Set(sym, &Variable{Origin: OriginFile, Flavor: FlavorSimple, ReadOnly: true})
	}
	return nil
}

func (ev *Evaluator) store(scope *Scope, sym Symbol, existing *Variable, origin Origin, v *Variable) {
	if !existing.wins(origin) {
		return
	}
	v.DefFrame = append(ev.frames.snapshot(), Frame{Kind: FrameParse, Name: sym.String(), Location: ev.Loc})
	scope.Set(sym, v)
}

// ---- conditionals ----

func (ev *Evaluator) EvalIf(s *IfStmt, run func([]Stmt) error) error {
	var take bool
	switch s.Op {
	case CondIfeq, CondIfneq:
		lhs := string(ev.Expand(s.Lhs))
		rhs := string(ev.Expand(s.Rhs))
		eq := lhs == rhs
		take = eq == (s.Op == CondIfeq)
	case CondIfdef, CondIfndef:
		name := ev.Expand(s.Lhs)
		sym := InternBytes(name)
		defined := ev.Scope.Lookup(sym) != nil
		take = defined == (s.Op == CondIfdef)
	}
	if take {
		return run(s.TrueStmts)
	}
	return run(s.FalseStmts)
}

// ---- export/unexport ----

func (ev *Evaluator) EvalExport(s *ExportStmt) {
	if s.Expr == nil {
		ev.exportAll = s.IsExport
		return
	}
	for _, name := range splitFields(string(ev.Expand(s.Expr))) {
		ev.exports[Intern(name)] = s.IsExport
	}
}

// Environ returns the environment strings for a spawned subprocess,
// honoring export/unexport per spec.md §6.
func (ev *Evaluator) Environ() []string {
	var out []string
	for _, sym := range allBoundSymbols() {
		export, explicit := ev.exports[sym]
		if explicit {
			if export {
				out = append(out, sym.String()+"="+string(ev.lookupSimpleValue(sym)))
			}
			continue
		}
		if ev.exportAll {
			out = append(out, sym.String()+"="+string(ev.lookupSimpleValue(sym)))
		}
	}
	return out
}

func (ev *Evaluator) lookupSimpleValue(sym Symbol) []byte {
	return ev.expandSymRef(&SymRef{Sym: sym})
}

// ---- diagnostics ----

func (ev *Evaluator) errorf(format string, args ...interface{}) {
	glog.Errorf("%s: *** %s", ev.Loc, fmt.Sprintf(format, args...))
}

func (ev *Evaluator) warnf(format string, args ...interface{}) {
	glog.Warningf("%s: %s", ev.Loc, fmt.Sprintf(format, args...))
}

func (ev *Evaluator) fatalf(format string, args ...interface{}) error {
	return &Diagnostic{Loc: ev.Loc, Message: fmt.Sprintf(format, args...)}
}

// panicf raises a fatal evaluation error from a context with no error-return
// channel, such as a Value.Expand call buried inside $(eval)/variable
// expansion. execStmt's deferred recover turns the panic back into a normal
// error at the nearest statement boundary, matching how $(error) already
// aborts evaluation in funcs_io.go.
func (ev *Evaluator) panicf(format string, args ...interface{}) {
	panic(&Diagnostic{Loc: ev.Loc, Message: fmt.Sprintf(format, args...)})
}

// splitFields splits on GNU Make's notion of whitespace (space, tab,
// newline) without allocating an intermediate []byte per word.
func splitFields(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}
