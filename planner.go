package kati

import (
	"os"
	"strings"
)

// patternTrie indexes implicit and suffix rules by the literal suffix of
// their output pattern (the text after '%'), so matching a target only
// returns rules whose suffix is actually a suffix of the target. It is a
// flat map keyed by the suffix string itself, not a trie: candidates visits
// every key, so a lookup costs time linear in the number of distinct
// suffixes.
type patternTrie struct {
	bySuffix map[string][]*Rule
}

func newPatternTrie() *patternTrie {
	return &patternTrie{bySuffix: make(map[string][]*Rule)}
}

func (t *patternTrie) insert(r *Rule) {
	suffix := patternSuffix(r.OutputPattern)
	t.bySuffix[suffix] = append(t.bySuffix[suffix], r)
}

// candidates returns every implicit/suffix rule whose output pattern could
// possibly match target, most-recently-declared first (spec.md: "rules at
// the same level are reversed before scanning").
func (t *patternTrie) candidates(target string) []*Rule {
	var out []*Rule
	for suffix, rules := range t.bySuffix {
		if !strings.HasSuffix(target, suffix) {
			continue
		}
		for i := len(rules) - 1; i >= 0; i-- {
			out = append(out, rules[i])
		}
	}
	return out
}

func patternSuffix(outputPattern string) string {
	p := newPattern(outputPattern)
	return p.suffix
}

// compileSuffixRule turns a GNU Make ".a.b:" two-suffix rule into an
// implicit rule "%.b: %.a" on the fly, per spec.md §4.6.
func compileSuffixRule(r *Rule) (*Rule, bool) {
	if r.OutputPattern != "" || !strings.HasPrefix(r.Output, ".") {
		return nil, false
	}
	rest := r.Output[1:]
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return nil, false
	}
	from, to := rest[:dot], rest[dot+1:]
	if strings.ContainsAny(from, "./") || strings.ContainsAny(to, "./") {
		return nil, false
	}
	compiled := *r
	compiled.Output = ""
	compiled.OutputPattern = "%." + to
	compiled.Prereqs = append([]string{"%." + from}, r.Prereqs...)
	return &compiled, true
}

// Planner walks a RuleSet and builds DepNodes for a set of requested
// top-level targets, per spec.md §4.6's build_plan algorithm.
type Planner struct {
	rules   *RuleSet
	warn    *WarnConfig
	built   map[string]*DepNode
	building map[string]bool
}

func NewPlanner(rules *RuleSet, warn *WarnConfig) *Planner {
	return &Planner{rules: rules, warn: warn, built: make(map[string]*DepNode), building: make(map[string]bool)}
}

// Plan builds DepNodes for every requested target and returns them in the
// order requested.
func (p *Planner) Plan(requested []string) ([]*DepNode, error) {
	out := make([]*DepNode, 0, len(requested))
	for _, t := range requested {
		n, err := p.buildPlan(t, "")
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// buildPlan implements build_plan(output, needed_by).
func (p *Planner) buildPlan(output, neededBy string) (*DepNode, error) {
	if n, ok := p.built[output]; ok {
		return n, nil
	}
	if p.building[output] {
		// A cycle in the DAG; return a placeholder rather than recursing
		// forever. The caller already has the in-progress node once it
		// finishes, via p.built.
		return &DepNode{Output: output}, nil
	}
	p.building[output] = true
	defer delete(p.building, output)

	node := &DepNode{Output: output, Requested: output}
	node.IsPhony = p.rules.phony[output]
	node.IsRestat = p.rules.restat[output]

	if primaryOf, ok := p.rules.implicitOuts[output]; ok {
		node.Output = primaryOf
		node.IsPhony = p.rules.phony[primaryOf]
		node.IsRestat = p.rules.restat[primaryOf]
	}

	rule, scope, err := p.pickRule(node.Output)
	if err != nil {
		return nil, err
	}
	p.built[output] = node
	if rule == nil {
		p.emitNoRuleDiagnostics(node)
		return node, nil
	}

	node.Recipe = rule.Recipe
	node.Vars = scope.Snapshot()

	seen := make(map[string]bool)
	for _, pr := range rule.Prereqs {
		if seen[pr] {
			continue
		}
		seen[pr] = true
		child, err := p.buildPlan(pr, node.Output)
		if err != nil {
			return nil, err
		}
		node.Inputs = append(node.Inputs, pr)
		node.Deps = append(node.Deps, child)
		if !p.rules.phony[pr] {
			node.ActualInputFiles = append(node.ActualInputFiles, pr)
		}
		if node.IsPhony == false && child.IsPhony && p.warn.WerrorRealToPhony {
			return nil, &Diagnostic{Loc: rule.Loc, Message: "real target " + output + " depends on phony target " + pr}
		}
	}
	for _, oo := range rule.OrderOnly {
		child, err := p.buildPlan(oo, node.Output)
		if err != nil {
			return nil, err
		}
		node.OrderOnlyInputs = append(node.OrderOnlyInputs, oo)
		node.Deps = append(node.Deps, child)
	}
	for _, v := range rule.Validations {
		child, err := p.buildPlan(v, node.Output)
		if err != nil {
			return nil, err
		}
		node.Validations = append(node.Validations, v)
		node.Deps = append(node.Deps, child)
	}

	if p.warn.WarnPhonyLooksReal && node.IsPhony && strings.Contains(node.Output, "/") {
		glogWarningf(rule.Loc, "phony target %q contains a slash", node.Output)
	}
	if !node.IsPhony && len(node.Recipe) == 0 {
		if len(node.Inputs) == 0 && p.warn.WerrorRealNoCmdsOrDeps {
			return nil, &Diagnostic{Loc: rule.Loc, Message: "real target " + output + " has no commands and no prerequisites"}
		}
		if len(node.Inputs) > 0 && p.warn.WerrorRealNoCmds {
			return nil, &Diagnostic{Loc: rule.Loc, Message: "real target " + output + " has prerequisites but no commands"}
		}
	}

	return node, nil
}

// pickRule selects the primary rule, else the best-matching implicit or
// suffix rule, per spec.md §4.6 "Implicit-rule matching": the rule whose
// pattern matches and whose prerequisites all "exist" in some form, most
// recently declared wins; an explicit rule always beats an implicit one.
func (p *Planner) pickRule(output string) (*Rule, *Scope, error) {
	if m := p.rules.Merger(output); m != nil {
		if len(m.DoubleColon) > 0 && (m.Primary != nil || len(m.NonPrimary) > 0) {
			return nil, nil, &Diagnostic{Message: "target " + output + " declared both :: and : "}
		}
		if len(m.DoubleColon) > 0 {
			merged := mergeDoubleColon(m.DoubleColon)
			return merged, merged.Vars, nil
		}
		if m.Primary != nil {
			scope := m.Primary.Vars
			for _, np := range m.NonPrimary {
				m.Primary.Prereqs = append(m.Primary.Prereqs, np.Prereqs...)
			}
			return m.Primary, scope, nil
		}
		if len(m.NonPrimary) > 0 {
			merged := &Rule{Output: output, Loc: m.NonPrimary[0].Loc}
			for _, np := range m.NonPrimary {
				merged.Prereqs = append(merged.Prereqs, np.Prereqs...)
			}
			return merged, nil, nil
		}
	}

	for _, r := range p.rules.candidates(output) {
		pat := newPattern(r.OutputPattern)
		if !pat.match(output) {
			continue
		}
		stem := pat.stem(output)
		if p.prereqsExist(r.Prereqs, stem) {
			applied := applyStaticPattern(r, output, stem)
			return applied, applied.Vars, nil
		}
	}
	return nil, nil, nil
}

func mergeDoubleColon(rules []*Rule) *Rule {
	merged := &Rule{Output: rules[0].Output, IsDoubleColon: true, Loc: rules[0].Loc, Vars: rules[0].Vars}
	for _, r := range rules {
		merged.Prereqs = append(merged.Prereqs, r.Prereqs...)
		merged.Recipe = append(merged.Recipe, r.Recipe...)
	}
	return merged
}

func applyStaticPattern(r *Rule, output, stem string) *Rule {
	applied := *r
	applied.Output = output
	applied.OutputPattern = ""
	applied.Prereqs = make([]string, len(r.Prereqs))
	for i, pr := range r.Prereqs {
		applied.Prereqs[i] = substStem(pr, stem)
	}
	return &applied
}

// prereqsExist reports whether every prerequisite of an implicit-rule
// candidate, after substituting the stem, names something buildable: a
// rule output, a phony target, a file already on disk, or a name for which
// candidates returns at least one implicit rule (that rule's pattern and
// prerequisites are not checked further).
func (p *Planner) prereqsExist(prereqPatterns []string, stem string) bool {
	for _, prPat := range prereqPatterns {
		pr := substStem(prPat, stem)
		if p.rules.phony[pr] {
			continue
		}
		if p.rules.Merger(pr) != nil {
			continue
		}
		if len(p.rules.candidates(pr)) > 0 {
			continue
		}
		if _, err := os.Stat(pr); err == nil {
			continue
		}
		return false
	}
	return true
}

func (p *Planner) emitNoRuleDiagnostics(node *DepNode) {
	if _, err := os.Stat(node.Output); err == nil {
		return
	}
	glogWarningf(Location{}, "no rule to make target %q", node.Output)
}
