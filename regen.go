package kati

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/gokati/kati/internal/findemu"
)

// RegenDecision is the outcome of a regeneration check.
type RegenDecision struct {
	MustRegen bool
	Reason    string
}

// IgnoreDirtyPatterns holds the --ignore_dirty / --no_ignore_dirty pattern
// pairs that override whether a watched file's mtime triggers regen.
type IgnoreDirtyPatterns struct {
	Ignore   []string
	NoIgnore []string
}

func (p *IgnoreDirtyPatterns) shouldIgnore(path string) bool {
	for _, pat := range p.NoIgnore {
		if ok, _ := filepath.Match(pat, path); ok {
			return false
		}
	}
	for _, pat := range p.Ignore {
		if ok, _ := filepath.Match(pat, path); ok {
			return true
		}
	}
	return false
}

// NeedsRegen implements spec.md §4.8's check, fanning the glob/command
// replay out across two workers sharing one mutex-guarded result cell.
// Both workers always run to completion; the first "must regenerate"
// decision recorded in the cell is the one returned.
func NeedsRegen(stamp *Stamp, shared *SharedContext, ignoreDirty *IgnoreDirtyPatterns) RegenDecision {
	if dec := checkWatchedFiles(stamp, ignoreDirty); dec.MustRegen {
		return dec
	}
	if dec := checkEnv(stamp); dec.MustRegen {
		return dec
	}

	var mu sync.Mutex
	result := RegenDecision{}
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		dec := checkGlobs(stamp, shared)
		mu.Lock()
		if dec.MustRegen && !result.MustRegen {
			result = dec
		}
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		dec := checkCommands(stamp, shared)
		mu.Lock()
		if dec.MustRegen && !result.MustRegen {
			result = dec
		}
		mu.Unlock()
	}()

	wg.Wait()
	return result
}

func checkWatchedFiles(stamp *Stamp, ignoreDirty *IgnoreDirtyPatterns) RegenDecision {
	for _, path := range stamp.WatchedFiles {
		if ignoreDirty != nil && ignoreDirty.shouldIgnore(path) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return RegenDecision{MustRegen: true, Reason: "watched file missing: " + path}
		}
		if info.ModTime().Unix() > int64(stamp.GenTime) {
			return RegenDecision{MustRegen: true, Reason: "watched file newer than stamp: " + path}
		}
	}
	return RegenDecision{}
}

func checkEnv(stamp *Stamp) RegenDecision {
	for _, name := range stamp.UndefinedEnv {
		if _, ok := os.LookupEnv(name); ok {
			return RegenDecision{MustRegen: true, Reason: "env var now defined: " + name}
		}
	}
	for _, pair := range stamp.EnvSnapshot {
		if os.Getenv(pair.Name) != pair.Value {
			return RegenDecision{MustRegen: true, Reason: "env var changed: " + pair.Name}
		}
	}
	return RegenDecision{}
}

func checkGlobs(stamp *Stamp, shared *SharedContext) RegenDecision {
	for _, g := range stamp.Globs {
		fresh := shared.Glob.Glob(shared.Stats, g.Pattern)
		if !stringSlicesEqual(fresh, g.Matches) {
			return RegenDecision{MustRegen: true, Reason: "glob changed: " + g.Pattern}
		}
	}
	return RegenDecision{}
}

func checkCommands(stamp *Stamp, shared *SharedContext) RegenDecision {
	for _, c := range stamp.Commands {
		switch c.Op {
		case CmdReadMissing:
			if _, err := os.Stat(c.Cmd); err == nil {
				return RegenDecision{MustRegen: true, Reason: "previously-missing file now exists: " + c.Cmd}
			}
		case CmdRead:
			info, err := os.Stat(c.Cmd)
			if err != nil || info.ModTime().Unix() > int64(stamp.GenTime) {
				return RegenDecision{MustRegen: true, Reason: "read file changed: " + c.Cmd}
			}
		case CmdWrite, CmdAppend:
			// idempotent by construction; never triggers regen.
		case CmdFind:
			if dec := checkFindFastPath(c, stamp.GenTime); dec.MustRegen {
				if res, ok := findemu.Run(c.Cmd); !ok || res.Output != c.Result {
					return dec
				}
			}
		case CmdShell:
			if dec := checkShellReplay(c); dec.MustRegen {
				return dec
			}
		}
	}
	return RegenDecision{}
}

// checkShellReplay implements spec.md §4.8's "Shell(cmd) → always replay
// and compare" rule: it re-runs the recorded command through the recorded
// shell and flag, and regenerates only if its stdout differs from the
// stdout captured at stamp time.
func checkShellReplay(c CommandResult) RegenDecision {
	shellPath := c.Shell
	if shellPath == "" {
		shellPath = "/bin/sh"
	}
	shellFlag := c.ShellFlag
	if shellFlag == "" {
		shellFlag = "-c"
	}
	cmd := exec.Command(shellPath, shellFlag, c.Cmd)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return RegenDecision{MustRegen: true, Reason: "shell command failed on replay: " + c.Cmd}
	}
	if stdout.String() != c.Result {
		return RegenDecision{MustRegen: true, Reason: "shell output changed: " + c.Cmd}
	}
	return RegenDecision{}
}

// checkFindFastPath implements the Find(cmd) fast path: skip re-running the
// find emulator unless a missing dir now exists, a seen file was deleted,
// or a read dir's mtime moved past gen-time.
func checkFindFastPath(c CommandResult, genTime float64) RegenDecision {
	for _, d := range c.MissingDirs {
		if _, err := os.Stat(d); err == nil {
			return RegenDecision{MustRegen: true, Reason: "find: missing dir now exists: " + d}
		}
	}
	for _, f := range c.Files {
		if _, err := os.Stat(f); err != nil {
			return RegenDecision{MustRegen: true, Reason: "find: seen file deleted: " + f}
		}
	}
	for _, d := range c.ReadDirs {
		info, err := os.Stat(d)
		if err != nil || info.ModTime().Unix() > int64(genTime) {
			return RegenDecision{MustRegen: true, Reason: "find: read dir changed: " + d}
		}
	}
	return RegenDecision{}
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
