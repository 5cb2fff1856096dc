package kati

// DepNode is one node of the dependency DAG the planner builds: everything
// needed to either hand to the Ninja emitter or run directly (both out of
// scope; this package hands back the graph and stops).
type DepNode struct {
	Output string

	Inputs       []string // $^ : actual (non-order-only) prerequisites, deduped
	OrderOnlyInputs []string
	Validations  []string

	Recipe []Value
	Vars   *Scope // rule-specific variables snapshotted at build_plan time

	IsPhony  bool
	IsRestat bool

	// Requested is the name this node was requested as. It differs from
	// Output only when .KATI_IMPLICIT_OUTPUTS redirected the request to a
	// primary output; Output above is always the primary.
	Requested string

	Deps []*DepNode // resolved recursively; cycles are not expanded twice

	ActualInputFiles []string // subset of Inputs that are not .PHONY targets (for $? computation)
}
