package kati

import "fmt"

// execStmt dispatches one parsed statement against the evaluator's current
// scope, accumulating rules into ev.rules and applying variable/
// conditional/include/export semantics immediately (spec.md §4.2: Make
// statements execute top-to-bottom, interleaved with expansion).
func (ev *Evaluator) execStmt(s Stmt) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if d, ok := r.(*Diagnostic); ok {
				err = d
				return
			}
			panic(r)
		}
	}()

	ev.Loc = s.Location()
	switch n := s.(type) {
	case *AssignStmt:
		origin := OriginFile
		if n.IsOverride {
			origin = OriginOverride
		}
		return ev.Assign(ev.Scope, n, origin)

	case *TargetAssignStmt:
		return ev.execTargetAssign(n)

	case *RuleStmt:
		return ev.execRule(n)

	case *CommandStmt:
		return nil // the parser attaches recipe lines to their RuleStmt and never emits a CommandStmt

	case *IfStmt:
		return ev.EvalIf(n, ev.execStmts)

	case *IncludeStmt:
		return ev.execInclude(n)

	case *ExportStmt:
		ev.EvalExport(n)
		return nil

	default:
		return fmt.Errorf("%s: unhandled statement type %T", ev.Loc, s)
	}
}

func (ev *Evaluator) execStmts(stmts []Stmt) error {
	for _, s := range stmts {
		if err := ev.execStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (ev *Evaluator) execTargetAssign(n *TargetAssignStmt) error {
	for _, target := range splitFields(ev.ExpandString(n.Targets)) {
		scope := ev.targetScopes[target]
		if scope == nil {
			scope = NewScope()
			ev.targetScopes[target] = scope
		}
		if err := ev.Assign(scope, n.Assign, OriginFile); err != nil {
			return err
		}
	}
	return nil
}

// execRule expands a rule statement's target/prereq lists and folds the
// result into ev.rules, honoring .PHONY/.KATI_RESTAT/.KATI_IMPLICIT_OUTPUTS
// pseudo-targets and the static-pattern-rule shape, per spec.md §4.6.
func (ev *Evaluator) execRule(n *RuleStmt) error {
	targets := splitFields(ev.ExpandString(n.Targets))
	prereqText := ev.ExpandString(n.Prereqs)

	switch {
	case len(targets) == 1 && targets[0] == ".PHONY":
		for _, t := range splitFields(prereqText) {
			ev.rules.SetPhony(t)
		}
		return nil
	case len(targets) == 1 && targets[0] == ".KATI_RESTAT":
		for _, t := range splitFields(prereqText) {
			ev.rules.SetRestat(t)
		}
		return nil
	}

	prereqs, orderOnly, validations := splitPrereqClauses(prereqText)

	recipe := n.Recipe
	if n.InlineRecipe != nil {
		recipe = append([]Value{n.InlineRecipe}, recipe...)
	}

	if n.IsStaticPattern {
		targetPat := newPattern(ev.ExpandString(n.StaticTargetPattern))
		prereqPatText := ev.ExpandString(n.StaticPrereqPattern)
		for _, t := range targets {
			if !targetPat.match(t) {
				return ev.fatalf("target %q does not match static pattern %q", t, targetPat.text)
			}
			stem := targetPat.stem(t)
			pr, oo, val := splitPrereqClauses(prereqPatText)
			r := &Rule{
				Output: t, IsDoubleColon: n.IsDoubleColon,
				Recipe: recipe, HasCommands: len(recipe) > 0,
				Vars: ev.targetScopes[t], Loc: n.Loc,
			}
			for _, p := range pr {
				r.Prereqs = append(r.Prereqs, substStem(p, stem))
			}
			for _, p := range oo {
				r.OrderOnly = append(r.OrderOnly, substStem(p, stem))
			}
			for _, p := range val {
				r.Validations = append(r.Validations, substStem(p, stem))
			}
			if err := ev.addOneRule(r); err != nil {
				return err
			}
		}
		return nil
	}

	for _, t := range targets {
		r := &Rule{
			Output: t, IsDoubleColon: n.IsDoubleColon,
			Prereqs: prereqs, OrderOnly: orderOnly, Validations: validations,
			Recipe: recipe, HasCommands: len(recipe) > 0,
			Vars: ev.targetScopes[t], Loc: n.Loc,
		}
		if isPatternText(t) {
			r.Output = ""
			r.OutputPattern = t
		}
		if err := ev.addOneRule(r); err != nil {
			return err
		}
	}

	for _, t := range targets {
		if scope := ev.targetScopes[t]; scope != nil {
			if iv := scope.LookupLocal(Intern(".KATI_IMPLICIT_OUTPUTS")); iv != nil {
				for _, extra := range splitFields(string(iv.Simple)) {
					ev.rules.SetImplicitOutput(extra, t)
				}
			}
		}
	}
	return nil
}

func (ev *Evaluator) addOneRule(r *Rule) error {
	var overridden *Rule
	if compiled, ok := compileSuffixRule(r); ok {
		overridden = ev.rules.AddRule(compiled)
	} else {
		overridden = ev.rules.AddRule(r)
	}
	if overridden == nil {
		return nil
	}
	savedLoc := ev.Loc
	ev.Loc = r.Loc
	defer func() { ev.Loc = savedLoc }()
	if ev.Shared.Warn.WerrorOverridingCommands {
		return ev.fatalf("overriding commands for target %q (previously defined at %s)", r.Output, overridden.Loc)
	}
	ev.warnf("overriding commands for target %q (previously defined at %s)", r.Output, overridden.Loc)
	return nil
}

func isPatternText(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '%' {
			return true
		}
	}
	return false
}

// splitPrereqClauses splits GNU Make's "normal | order-only || validation"
// prerequisite text into its three lists.
func splitPrereqClauses(text string) (normal, orderOnly, validations []string) {
	words := splitFields(text)
	section := 0 // 0=normal, 1=order-only, 2=validations
	for _, w := range words {
		switch w {
		case "|":
			section = 1
			continue
		case "||":
			section = 2
			continue
		}
		switch section {
		case 0:
			normal = append(normal, w)
		case 1:
			orderOnly = append(orderOnly, w)
		case 2:
			validations = append(validations, w)
		}
	}
	return
}

func (ev *Evaluator) execInclude(n *IncludeStmt) error {
	return EvalInclude(ev, n)
}
