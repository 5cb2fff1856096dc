package kati

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanOverwriteReadonlyMonotonicity(t *testing.T) {
	var nilVar *Variable
	assert.NoError(t, nilVar.canOverwrite(), "an unset variable can always be assigned")

	writable := &Variable{Origin: OriginFile, Flavor: FlavorSimple, Simple: []byte("1")}
	assert.NoError(t, writable.canOverwrite())

	readonly := &Variable{Origin: OriginFile, Flavor: FlavorSimple, Simple: []byte("1"), ReadOnly: true}
	require.Error(t, readonly.canOverwrite(), "once a variable is readonly, no further assignment may succeed")

	// Readonly status, once set, is never cleared by anything canOverwrite
	// itself does — it is a one-way latch per spec.md §3.
	readonly.ReadOnly = true
	assert.Error(t, readonly.canOverwrite())
}

func TestVariableWinsOriginPrecedence(t *testing.T) {
	var nilVar *Variable
	assert.True(t, nilVar.wins(OriginFile), "no existing binding always loses to a new one")

	fileVar := &Variable{Origin: OriginFile}
	assert.True(t, fileVar.wins(OriginFile))
	assert.True(t, fileVar.wins(OriginCommandLine))

	cliVar := &Variable{Origin: OriginCommandLine}
	assert.False(t, cliVar.wins(OriginFile), "a file assignment may never override a command-line one")
	assert.True(t, cliVar.wins(OriginCommandLine))

	overrideVar := &Variable{Origin: OriginOverride}
	assert.False(t, overrideVar.wins(OriginFile))
	assert.False(t, overrideVar.wins(OriginCommandLine))
	assert.True(t, overrideVar.wins(OriginOverride))

	readonlyVar := &Variable{Origin: OriginFile, ReadOnly: true}
	assert.False(t, readonlyVar.wins(OriginOverride), "readonly blocks every origin, even override")
}
