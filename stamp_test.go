package kati

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestStampRoundTrip(t *testing.T) {
	want := &Stamp{
		GenTime:      1234.5,
		WatchedFiles: []string{"Makefile", "build/config.mk"},
		UndefinedEnv: []string{"UNSET_ENV_VAR"},
		EnvSnapshot:  []EnvPair{{Name: "PATH", Value: "/bin:/usr/bin"}, {Name: "CC", Value: "clang"}},
		Globs: []GlobRecord{
			{Pattern: "src/*.c", Matches: []string{"src/a.c", "src/b.c"}},
			{Pattern: "*.h", Matches: nil},
		},
		Commands: []CommandResult{
			{Op: CmdShell, Shell: "/bin/sh", ShellFlag: "-c", Cmd: "echo hi", Result: "hi\n", Source: "Makefile", Line: 3},
			{
				Op: CmdFind, Cmd: "find . -name '*.o'", Source: "Makefile", Line: 9,
				MissingDirs: []string{"obj"},
				Files:       []string{"a.o", "b.o"},
				ReadDirs:    []string{".", "sub"},
			},
			{Op: CmdRead, Cmd: "VERSION", Source: "Makefile", Line: 1},
			{Op: CmdReadMissing, Cmd: "VERSION.local", Source: "Makefile", Line: 2},
			{Op: CmdWrite, Cmd: "generated.mk", Source: "Makefile", Line: 12},
			{Op: CmdAppend, Cmd: "generated.mk", Source: "Makefile", Line: 13},
		},
		OrigArgs: "kati -f Makefile all",
	}

	var buf bytes.Buffer
	if err := WriteStamp(&buf, want); err != nil {
		t.Fatalf("WriteStamp: %v", err)
	}

	got, err := ReadStamp(&buf)
	if err != nil {
		t.Fatalf("ReadStamp: %v", err)
	}

	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("stamp round-trip changed the decoded value (-want +got):\n%s", diff)
	}
}

func TestStampRoundTripEmpty(t *testing.T) {
	want := &Stamp{}
	var buf bytes.Buffer
	if err := WriteStamp(&buf, want); err != nil {
		t.Fatalf("WriteStamp: %v", err)
	}
	got, err := ReadStamp(&buf)
	if err != nil {
		t.Fatalf("ReadStamp: %v", err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("empty stamp round-trip changed the decoded value (-want +got):\n%s", diff)
	}
}
