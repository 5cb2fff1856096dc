package kati

// Rule is one accumulated "targets : prereqs" declaration (spec.md §4.6's
// "Accumulation"). A single output symbol may be declared by several
// Rules; RuleMerger combines them.
type Rule struct {
	Output        string
	IsDoubleColon bool
	OutputPattern string // non-empty for implicit/suffix rules ("%.o", ".c.o")
	Prereqs       []string
	OrderOnly     []string
	Validations   []string
	Recipe        []Value
	HasCommands   bool
	Vars          *Scope // rule-specific assignments in effect when this rule was declared
	Loc           Location
}

// RuleMerger aggregates every Rule declaring one output symbol, per
// spec.md §4.6's "Rule merging" semantics.
type RuleMerger struct {
	Output        string
	DoubleColon   []*Rule // all double-colon rules coexist
	Primary       *Rule   // the single-colon command-bearing rule, if any
	NonPrimary    []*Rule // single-colon rules without commands; prereqs merged
	ImplicitGroup []string // .KATI_IMPLICIT_OUTPUTS naming this as primary
}

// RuleSet accumulates rules and implicit/suffix rules across a whole
// evaluation run, indexed the way the planner needs: exact output name for
// ordinary rules, and a suffix-keyed map (patternTrie) for implicit/suffix
// rules.
type RuleSet struct {
	mergers map[string]*RuleMerger
	order   []string // insertion order of mergers, for deterministic iteration

	implicit []*Rule // rules with OutputPattern set, insertion order
	trie     *patternTrie

	phony        map[string]bool
	restat       map[string]bool
	implicitOuts map[string]string // extra-output -> primary output
}

func NewRuleSet() *RuleSet {
	return &RuleSet{
		mergers:      make(map[string]*RuleMerger),
		trie:         newPatternTrie(),
		phony:        make(map[string]bool),
		restat:       make(map[string]bool),
		implicitOuts: make(map[string]string),
	}
}

// AddRule merges r into the rule set, applying the primary/non-primary and
// double-colon coexistence rules of spec.md §4.6. It returns the rule that
// was demoted because r overrides its commands, or nil if no rule was
// overridden — the caller (run.go's addOneRule) surfaces the configured
// warning/error for a non-nil return.
func (rs *RuleSet) AddRule(r *Rule) *Rule {
	if r.OutputPattern != "" {
		rs.implicit = append(rs.implicit, r)
		rs.trie.insert(r)
		return nil
	}

	m, ok := rs.mergers[r.Output]
	if !ok {
		m = &RuleMerger{Output: r.Output}
		rs.mergers[r.Output] = m
		rs.order = append(rs.order, r.Output)
	}

	if r.IsDoubleColon {
		m.DoubleColon = append(m.DoubleColon, r)
		return nil
	}

	if !r.HasCommands {
		m.NonPrimary = append(m.NonPrimary, r)
		return nil
	}

	var overridden *Rule
	if m.Primary != nil {
		// Overriding commands: the newer rule wins, the older is demoted to a
		// prerequisite-only contributor.
		old := m.Primary
		old.HasCommands = false
		m.NonPrimary = append(m.NonPrimary, old)
		overridden = old
	}
	m.Primary = r
	return overridden
}

// SetPhony / SetRestat / SetImplicitOutput record the special-target
// annotations spec.md §4.6 names (.PHONY, .KATI_RESTAT,
// .KATI_IMPLICIT_OUTPUTS).
func (rs *RuleSet) SetPhony(target string)  { rs.phony[target] = true }
func (rs *RuleSet) SetRestat(target string) { rs.restat[target] = true }
func (rs *RuleSet) SetImplicitOutput(extra, primary string) {
	rs.implicitOuts[extra] = primary
}

// Merger returns the merger for an exact output name, or nil.
func (rs *RuleSet) Merger(output string) *RuleMerger {
	return rs.mergers[output]
}

// candidates returns every implicit/suffix rule whose output pattern could
// possibly match target, delegating to the suffix trie.
func (rs *RuleSet) candidates(target string) []*Rule {
	return rs.trie.candidates(target)
}

// Outputs returns every exact output name in insertion order.
func (rs *RuleSet) Outputs() []string {
	return rs.order
}
