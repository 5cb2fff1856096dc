package kati

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckShellReplayUnchangedOutput(t *testing.T) {
	dec := checkShellReplay(CommandResult{Shell: "/bin/sh", ShellFlag: "-c", Cmd: "printf stable", Result: "stable"})
	assert.False(t, dec.MustRegen, "identical replayed output must not force regeneration")
}

func TestCheckShellReplayChangedOutput(t *testing.T) {
	dec := checkShellReplay(CommandResult{Shell: "/bin/sh", ShellFlag: "-c", Cmd: "printf fresh", Result: "stale"})
	assert.True(t, dec.MustRegen, "a changed shell output must force regeneration")
}

func TestCheckShellReplayFailingCommand(t *testing.T) {
	dec := checkShellReplay(CommandResult{Shell: "/bin/sh", ShellFlag: "-c", Cmd: "exit 1", Result: ""})
	assert.True(t, dec.MustRegen, "a command that fails on replay must force regeneration")
}

func TestCheckFindFastPathMissingDirNowExists(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "new")
	require.NoError(t, os.Mkdir(missing, 0o755))

	dec := checkFindFastPath(CommandResult{MissingDirs: []string{missing}}, 0)
	assert.True(t, dec.MustRegen, "a previously-missing find root that now exists must force regeneration")
}

func TestCheckFindFastPathSeenFileDeleted(t *testing.T) {
	dir := t.TempDir()
	gone := filepath.Join(dir, "gone.o")

	dec := checkFindFastPath(CommandResult{Files: []string{gone}}, 0)
	assert.True(t, dec.MustRegen, "a file the find emulator previously saw but which is now gone must force regeneration")
}

func TestCheckFindFastPathStableWhenNothingChanged(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.o")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0o644))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	genTime := float64(info.ModTime().Unix() + 1)

	dec := checkFindFastPath(CommandResult{Files: []string{present}, ReadDirs: []string{dir}}, genTime)
	assert.False(t, dec.MustRegen, "no signal changed, so the find emulator should not be re-run")
}

func TestNeedsRegenWatchedFileMissing(t *testing.T) {
	shared := NewSharedContext()
	stamp := &Stamp{WatchedFiles: []string{filepath.Join(t.TempDir(), "does-not-exist.mk")}}
	dec := NeedsRegen(stamp, shared, &IgnoreDirtyPatterns{})
	assert.True(t, dec.MustRegen)
}
