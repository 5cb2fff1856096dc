package kati

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlannerDAGClosure(t *testing.T) {
	rs := NewRuleSet()
	rs.AddRule(&Rule{Output: "all", Prereqs: []string{"a.o", "b.o"}, HasCommands: true})
	rs.AddRule(&Rule{Output: "a.o", Prereqs: []string{"a.c", "common.h"}, HasCommands: true})
	rs.AddRule(&Rule{Output: "b.o", Prereqs: []string{"b.c", "common.h"}, HasCommands: true})
	rs.SetPhony("all")

	p := NewPlanner(rs, DefaultWarnConfig())
	nodes, err := p.Plan([]string{"all"})
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	root := nodes[0]
	assert.Equal(t, "all", root.Output)
	assert.True(t, root.IsPhony)
	require.Len(t, root.Deps, 2)

	var aObj, bObj *DepNode
	for _, d := range root.Deps {
		switch d.Output {
		case "a.o":
			aObj = d
		case "b.o":
			bObj = d
		}
	}
	require.NotNil(t, aObj)
	require.NotNil(t, bObj)
	assert.ElementsMatch(t, []string{"a.c", "common.h"}, aObj.Inputs)
	assert.ElementsMatch(t, []string{"b.c", "common.h"}, bObj.Inputs)
}

func TestPlannerDAGClosureDoesNotRevisitSharedNode(t *testing.T) {
	rs := NewRuleSet()
	rs.AddRule(&Rule{Output: "all", Prereqs: []string{"a.o", "b.o"}, HasCommands: true})
	rs.AddRule(&Rule{Output: "a.o", Prereqs: []string{"shared.h"}, HasCommands: true})
	rs.AddRule(&Rule{Output: "b.o", Prereqs: []string{"shared.h"}, HasCommands: true})
	rs.AddRule(&Rule{Output: "shared.h", HasCommands: true})
	rs.SetPhony("all")

	p := NewPlanner(rs, DefaultWarnConfig())
	nodes, err := p.Plan([]string{"all"})
	require.NoError(t, err)

	aObj := nodes[0].Deps[0]
	bObj := nodes[0].Deps[1]
	assert.Same(t, aObj.Deps[0], bObj.Deps[0], "the shared prerequisite must build to the same node both times")
}

func TestPlannerDoubleColonAggregatesRecipes(t *testing.T) {
	rs := NewRuleSet()
	first := &Rule{Output: "log", IsDoubleColon: true, HasCommands: true, Recipe: []Value{literal("echo first", Location{})}}
	second := &Rule{Output: "log", IsDoubleColon: true, HasCommands: true, Recipe: []Value{literal("echo second", Location{})}}
	rs.AddRule(first)
	rs.AddRule(second)
	rs.SetPhony("log")

	p := NewPlanner(rs, DefaultWarnConfig())
	nodes, err := p.Plan([]string{"log"})
	require.NoError(t, err)
	assert.Len(t, nodes[0].Recipe, 2, "both double-colon rules' recipes must be aggregated")
}

func TestPlannerImplicitPatternRuleSubstitutesStem(t *testing.T) {
	rs := NewRuleSet()
	rs.AddRule(&Rule{
		OutputPattern: "%.o",
		Prereqs:       []string{"%.c"},
		HasCommands:   true,
	})
	rs.AddRule(&Rule{Output: "foo.c", HasCommands: true})

	p := NewPlanner(rs, DefaultWarnConfig())
	nodes, err := p.Plan([]string{"foo.o"})
	require.NoError(t, err)
	assert.Equal(t, []string{"foo.c"}, nodes[0].Inputs)
}

func TestPlannerRealDependingOnPhonyWarnsOrErrors(t *testing.T) {
	rs := NewRuleSet()
	rs.AddRule(&Rule{Output: "out.bin", Prereqs: []string{"clean"}, HasCommands: true})
	rs.AddRule(&Rule{Output: "clean", HasCommands: true})
	rs.SetPhony("clean")

	warn := DefaultWarnConfig()
	warn.WerrorRealToPhony = true
	p := NewPlanner(rs, warn)
	_, err := p.Plan([]string{"out.bin"})
	require.Error(t, err, "a real target depending on a phony one must be fatal under --werror_real_to_phony")
}
