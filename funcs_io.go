package kati

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/gokati/kati/internal/findemu"
)

func init() {
	registerFunc("shell", 1, 1, func(ev *Evaluator, args []Value) []byte {
		cmd := rawArg(ev, args, 0)
		if ev.avoidIO() {
			return ev.deferredShell(cmd)
		}
		return ev.runShellNow(cmd)
	})

	registerFunc("info", 1, 1, func(ev *Evaluator, args []Value) []byte {
		fmt.Println(rawArg(ev, args, 0))
		return nil
	})

	registerFunc("warning", 1, 1, func(ev *Evaluator, args []Value) []byte {
		ev.warnf("%s", rawArg(ev, args, 0))
		return nil
	})

	registerFunc("error", 1, 1, func(ev *Evaluator, args []Value) []byte {
		ev.errorf("%s", rawArg(ev, args, 0))
		panic(&Diagnostic{Loc: ev.Loc, Message: rawArg(ev, args, 0)})
	})

	registerFunc("file", 1, 2, func(ev *Evaluator, args []Value) []byte {
		spec := rawArg(ev, args, 0)
		spec = strings.TrimSpace(spec)
		switch {
		case strings.HasPrefix(spec, "<"):
			return ev.fileRead(strings.TrimSpace(spec[1:]))
		case strings.HasPrefix(spec, ">>"):
			ev.fileWrite(strings.TrimSpace(spec[2:]), rawArg(ev, args, 1), true)
			return nil
		case strings.HasPrefix(spec, ">"):
			ev.fileWrite(strings.TrimSpace(spec[1:]), rawArg(ev, args, 1), false)
			return nil
		default:
			return ev.fileRead(spec)
		}
	})
}

// shellSafeForAvoidIO implements spec.md §4.4's avoid_io shell heuristic:
// the command is empty, or is an arithmetic-only "echo $((...))" whose
// output cannot vary between evaluation time and Ninja-run time.
var shellSafeRE = regexp.MustCompile(`^echo \$\(\([0-9+\-*/%() \t]*\)\)$`)

func shellSafeForAvoidIO(cmd string) bool {
	return cmd == "" || shellSafeRE.MatchString(cmd)
}

// deferredShell implements $(shell) under avoid_io: translating a recipe
// for the Ninja emitter rather than running commands eagerly.
func (ev *Evaluator) deferredShell(cmd string) []byte {
	if shellSafeForAvoidIO(cmd) {
		return []byte("$(" + cmd + ")")
	}
	if ev.evalDepth > 1 {
		ev.panicf("$(shell %s) cannot be deferred from within a nested expansion", cmd)
		return nil
	}
	return []byte("$(" + cmd + ")")
}

// runShellNow actually executes cmd through the platform shell, recording
// the invocation into the command-results log for regeneration.
func (ev *Evaluator) runShellNow(cmd string) []byte {
	ev.Shared.Stats.incShell()

	if ev.Shared.UseFindEmulator {
		if res, ok := findemu.Run(cmd); ok {
			ev.Shared.CmdLog.Record(CommandResult{
				Op: CmdFind, Cmd: cmd, Result: res.Output,
				Source: ev.Loc.Filename, Line: ev.Loc.Line,
				MissingDirs: res.MissingDirs, Files: res.Files, ReadDirs: res.ReadDirs,
			})
			return []byte(res.Output)
		}
	}

	shellPath := "/bin/sh"
	if v := ev.Scope.Lookup(Intern("SHELL")); v != nil && len(v.Simple) > 0 {
		shellPath = string(v.Simple)
	}

	c := exec.Command(shellPath, "-c", cmd)
	c.Env = append(os.Environ(), ev.Environ()...)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	err := c.Run()

	status := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			status = exitErr.ExitCode()
		} else {
			status = 127
		}
	}
	ev.shellStatus = status

	ev.Shared.CmdLog.Record(CommandResult{
		Op: CmdShell, Shell: shellPath, ShellFlag: "-c",
		Cmd: cmd, Result: stdout.String(),
		Source: ev.Loc.Filename, Line: ev.Loc.Line,
	})

	out := strings.TrimRight(stdout.String(), "\n")
	out = strings.ReplaceAll(out, "\n", " ")
	return []byte(out)
}

func (ev *Evaluator) fileRead(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		ev.Shared.CmdLog.Record(CommandResult{Op: CmdReadMissing, Cmd: path, Source: ev.Loc.Filename, Line: ev.Loc.Line})
		return nil
	}
	ev.Shared.CmdLog.Record(CommandResult{Op: CmdRead, Cmd: path, Source: ev.Loc.Filename, Line: ev.Loc.Line})
	return bytes.TrimRight(data, "\n")
}

func (ev *Evaluator) fileWrite(path, text string, appendMode bool) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	op := CmdWrite
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		op = CmdAppend
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		ev.errorf("file: cannot open %q: %v", path, err)
		return
	}
	defer f.Close()
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	f.WriteString(text)
	ev.Shared.CmdLog.Record(CommandResult{Op: op, Cmd: path, Source: ev.Loc.Filename, Line: ev.Loc.Line})
}
