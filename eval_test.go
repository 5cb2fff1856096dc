package kati

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEvaluator() *Evaluator {
	return NewEvaluator(NewSharedContext())
}

func mustExec(t *testing.T, ev *Evaluator, src string) error {
	t.Helper()
	stmts, err := ParseMakefile([]byte(src), "Makefile")
	require.NoError(t, err)
	return ExecStatements(ev, stmts)
}

func TestKatiReadonlyBlocksFutureAssignment(t *testing.T) {
	ev := mustEvaluator()
	require.NoError(t, mustExec(t, ev, "TEST_EVAL_RO_1 := first\n.KATI_READONLY := TEST_EVAL_RO_1\n"))

	err := mustExec(t, ev, "TEST_EVAL_RO_1 := second\n")
	require.Error(t, err, "assigning a .KATI_READONLY name must fail")
	assert.Contains(t, err.Error(), "readonly")

	v := ev.Scope.Lookup(Intern("TEST_EVAL_RO_1"))
	if assert.NotNil(t, v) {
		assert.Equal(t, "first", string(v.Simple), "the readonly value must be unchanged")
	}
}

func TestKatiReadonlyPreDefinition(t *testing.T) {
	ev := mustEvaluator()
	require.NoError(t, mustExec(t, ev, ".KATI_READONLY := TEST_EVAL_RO_2\n"))

	err := mustExec(t, ev, "TEST_EVAL_RO_2 := late\n")
	require.Error(t, err, "naming a not-yet-defined variable still blocks its first assignment")
}

func TestKatiReadonlyPseudoNameNotStored(t *testing.T) {
	ev := mustEvaluator()
	require.NoError(t, mustExec(t, ev, ".KATI_READONLY := TEST_EVAL_RO_3\n"))
	assert.Nil(t, ev.Scope.Lookup(Intern(".KATI_READONLY")), ".KATI_READONLY is a directive, not a stored variable")
}

func TestRecursiveVariableSelfReferenceIsFatal(t *testing.T) {
	ev := mustEvaluator()
	err := mustExec(t, ev, "TEST_EVAL_RECUR = $(TEST_EVAL_RECUR)\nX := $(TEST_EVAL_RECUR)\n")
	require.Error(t, err, "a recursive variable that references itself must abort evaluation")
	var d *Diagnostic
	require.ErrorAs(t, err, &d)
}

func TestObsoleteVariableReadIsFatal(t *testing.T) {
	ev := mustEvaluator()
	sym := Intern("TEST_EVAL_OBSOLETE")
	sym.setGlobalVariable(&Variable{Origin: OriginFile, Flavor: FlavorSimple, Simple: []byte("x"), Obsolete: "use TEST_EVAL_REPLACEMENT instead"})

	err := mustExec(t, ev, "X := $(TEST_EVAL_OBSOLETE)\n")
	require.Error(t, err, "reading an obsolete variable must abort evaluation, not just log")
}

func TestForeachRestoresPriorGlobalBinding(t *testing.T) {
	ev := mustEvaluator()
	require.NoError(t, mustExec(t, ev, "TEST_EVAL_FE := keep\nRESULT := $(foreach TEST_EVAL_FE,a b c,$(TEST_EVAL_FE))\n"))

	v := ev.Scope.Lookup(Intern("TEST_EVAL_FE"))
	if assert.NotNil(t, v) {
		assert.Equal(t, "keep", string(v.Simple), "foreach must restore the loop variable's pre-existing global value")
	}
	result := ev.Scope.Lookup(Intern("RESULT"))
	require.NotNil(t, result)
	assert.Equal(t, "a b c", string(result.Simple))
}

func TestForeachUnsetsPreviouslyUnboundVariable(t *testing.T) {
	ev := mustEvaluator()
	require.NoError(t, mustExec(t, ev, "RESULT := $(foreach TEST_EVAL_FE_UNSET,x y,$(TEST_EVAL_FE_UNSET))\n"))
	assert.Nil(t, ev.Scope.Lookup(Intern("TEST_EVAL_FE_UNSET")), "a loop variable with no prior binding must end up unbound again")
}
