package kati

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddRuleOverridingCommandsDemotesPrimary(t *testing.T) {
	rs := NewRuleSet()

	first := &Rule{Output: "foo.o", HasCommands: true, Loc: Location{Filename: "a.mk", Line: 1}}
	assert.Nil(t, rs.AddRule(first), "first rule for an output is never an override")

	second := &Rule{Output: "foo.o", HasCommands: true, Loc: Location{Filename: "b.mk", Line: 2}}
	overridden := rs.AddRule(second)
	if assert.NotNil(t, overridden, "second command-bearing rule for the same output must demote the first") {
		assert.Same(t, first, overridden)
		assert.False(t, first.HasCommands, "the demoted rule loses HasCommands")
	}

	m := rs.Merger("foo.o")
	assert.Same(t, second, m.Primary)
	assert.Contains(t, m.NonPrimary, first)
}

func TestAddRuleNonPrimaryNeverOverrides(t *testing.T) {
	rs := NewRuleSet()
	cmds := &Rule{Output: "foo.o", HasCommands: true}
	assert.Nil(t, rs.AddRule(cmds))

	prereqOnly := &Rule{Output: "foo.o", HasCommands: false}
	assert.Nil(t, rs.AddRule(prereqOnly), "a commandless rule merges prerequisites without overriding anything")

	m := rs.Merger("foo.o")
	assert.Same(t, cmds, m.Primary)
	assert.Contains(t, m.NonPrimary, prereqOnly)
}

func TestAddRuleDoubleColonCoexist(t *testing.T) {
	rs := NewRuleSet()
	a := &Rule{Output: "foo", IsDoubleColon: true, HasCommands: true}
	b := &Rule{Output: "foo", IsDoubleColon: true, HasCommands: true}
	assert.Nil(t, rs.AddRule(a))
	assert.Nil(t, rs.AddRule(b), "double-colon rules accumulate rather than override")

	m := rs.Merger("foo")
	assert.Equal(t, []*Rule{a, b}, m.DoubleColon)
	assert.Nil(t, m.Primary)
}

func TestAddRuleImplicitNeverOverrides(t *testing.T) {
	rs := NewRuleSet()
	r := &Rule{OutputPattern: "%.o", HasCommands: true}
	assert.Nil(t, rs.AddRule(r))
	assert.Len(t, rs.candidates("foo.o"), 1)
}
