// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

// Command kati parses and evaluates a makefile and its rule graph without
// executing any recipe: it plans the DepNode DAG, runs the regeneration
// check, and (when asked) dumps the result. The Ninja emitter and the
// direct executor that would normally consume the plan are out of scope
// for this binary and are represented here only by stub collaborators.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	flag "github.com/spf13/pflag"

	"github.com/gokati/kati"
	"github.com/gokati/kati/cmd/kati/directexec"
	"github.com/gokati/kati/cmd/kati/ninjaemit"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("kati", flag.ContinueOnError)

	var (
		makefile        = fs.StringP("file", "f", "", "the makefile to read (default: search GNUmakefile, makefile, Makefile)")
		chdir           = fs.StringP("directory", "C", "", "change to DIR before reading the makefile")
		jobs            = fs.IntP("jobs", "j", 1, "parallel job count passed through to the Ninja build, not used by this planner")
		silent          = fs.BoolP("silent", "s", false, "suppress command echo (passed through to the direct executor)")
		ignoreErrors    = fs.BoolP("ignore-errors", "i", false, "ignore recipe failures (passed through to the direct executor)")
		debugFlags      = fs.StringP("debug", "d", "", "comma-separated debug flags")
		dumpStamp       = fs.Bool("dump_kati_stamp", false, "parse and print a .kati_stamp file instead of evaluating")
		dumpIncludes    = fs.Bool("dump_include_graph", false, "accepted and ignored: no include graph is printed")
		dumpVarTrace    = fs.Bool("dump_variable_assignment_trace", false, "after evaluation, print each variable with the location of its last assignment")
		varTraceFilter  = fs.String("variable_assignment_trace_filter", "", "only trace variables matching this glob")
		emitNinja       = fs.Bool("ninja", false, "emit a build.ninja instead of just planning")
		regen           = fs.Bool("regen", false, "run only the incremental regeneration check")
		regenDebug      = fs.Bool("regen_debug", false, "print the reason a regeneration check decided to rerun")
		regenIgnoringKB = fs.Bool("regen_ignoring_kati_binary", false, "don't treat a changed kati binary as a regen trigger")
		useFindEmulator = fs.Bool("use_find_emulator", true, "emulate cd+find+findleaves.py shell invocations instead of spawning a shell")
		genAllTargets   = fs.Bool("gen_all_targets", false, "plan every target in the makefile, not just the default goal")
		noBuiltinRules  = fs.Bool("no_builtin_rules", false, "skip installing the default suffix rules")
		detectAndroidEcho = fs.Bool("detect_android_echo", false, "accepted and ignored: has no effect")
		ignoreDirty     = fs.StringSlice("ignore_dirty", nil, "glob patterns whose dirtiness never forces a regen")
		noIgnoreDirty   = fs.StringSlice("no_ignore_dirty", nil, "glob patterns that override --ignore_dirty")
		ignoreOptInc    = fs.Bool("ignore_optional_include", false, "silently skip missing -include targets")
		writable        = fs.StringSlice("writable", nil, "path prefixes that -Werror=writable will not flag")
		werrorOverriding = fs.Bool("werror_overriding_commands", false, "treat a rule that silently overrides another rule's recipe as an error")
		warnPhonyReal   = fs.Bool("warn_real_no_phony", false, "warn when a .PHONY target's name contains a slash")
	)
	_ = dumpIncludes
	_ = detectAndroidEcho

	if err := fs.Parse(argv); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, "kati:", err)
		return 2
	}

	if *chdir != "" {
		if err := os.Chdir(*chdir); err != nil {
			fmt.Fprintln(os.Stderr, "kati:", err)
			return 1
		}
	}

	var assigns []string
	var goals []string
	for _, a := range fs.Args() {
		if strings.Contains(a, "=") {
			assigns = append(assigns, a)
		} else {
			goals = append(goals, a)
		}
	}

	if *dumpStamp {
		path := *makefile
		if path == "" {
			path = ".kati_stamp"
		}
		return dumpStampFile(path)
	}

	mkPath, err := resolveMakefile(*makefile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "kati:", err)
		return 1
	}

	shared := kati.NewSharedContext()
	shared.UseFindEmulator = *useFindEmulator
	shared.Warn.WerrorOverridingCommands = *werrorOverriding
	shared.Warn.WarnPhonyLooksReal = *warnPhonyReal
	shared.Warn.WritablePrefixes = *writable

	ev := kati.NewEvaluator(shared)
	opts := kati.DefaultBootstrapOptions()
	opts.Goals = goals
	opts.NoBuiltinRules = *noBuiltinRules
	kati.Bootstrap(ev, opts)

	for _, a := range assigns {
		name, val, _ := strings.Cut(a, "=")
		kati.SetCommandLineVariable(ev, name, val)
	}

	stmts, err := kati.ParseMakefile(mustRead(mkPath), mkPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "kati:", err)
		return 1
	}
	if err := kati.ExecStatements(ev, stmts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	requested := goals
	if *genAllTargets {
		requested = ev.RuleSet().Outputs()
	}
	if len(requested) == 0 {
		requested = []string{ev.DefaultGoal()}
	}

	planner := kati.NewPlanner(ev.RuleSet(), shared.Warn)
	nodes, err := planner.Plan(requested)
	if err != nil {
		fmt.Fprintln(os.Stderr, "kati:", err)
		return 1
	}

	if *regen {
		stampPath := ".kati_stamp"
		stamp, err := loadStamp(stampPath)
		if err != nil {
			fmt.Println("no previous stamp, regeneration required")
			return 0
		}
		ignore := &kati.IgnoreDirtyPatterns{Ignore: *ignoreDirty, NoIgnore: *noIgnoreDirty}
		_ = regenIgnoringKB
		decision := kati.NeedsRegen(stamp, shared, ignore)
		if *regenDebug {
			fmt.Printf("regen: %+v\n", decision)
		}
		if decision.MustRegen {
			fmt.Println("regeneration required:", decision.Reason)
			return 1
		}
		fmt.Println("up to date")
		return 0
	}

	if *dumpVarTrace {
		kati.DumpVariableTrace(ev, *varTraceFilter, os.Stdout)
	}
	if *ignoreOptInc {
		glog.V(1).Info("--ignore_optional_include: missing -include targets were already tolerated by EvalInclude")
	}

	if *emitNinja {
		return ninjaemit.Emit(nodes, os.Stdout)
	}

	return directexec.Run(nodes, directexec.Options{
		Jobs:         *jobs,
		Silent:       *silent,
		IgnoreErrors: *ignoreErrors,
		Debug:        *debugFlags,
	})
}

func resolveMakefile(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	for _, candidate := range []string{"GNUmakefile", "makefile", "Makefile"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no makefile found (looked for GNUmakefile, makefile, Makefile)")
}

func mustRead(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "kati:", err)
		os.Exit(1)
	}
	return data
}

func dumpStampFile(path string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "kati:", err)
		return 1
	}
	defer f.Close()
	stamp, err := kati.ReadStamp(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "kati:", err)
		return 1
	}
	fmt.Printf("GenTime: %v\n", stamp.GenTime)
	fmt.Printf("WatchedFiles: %d\n", len(stamp.WatchedFiles))
	fmt.Printf("Commands: %d\n", len(stamp.Commands))
	fmt.Printf("Globs: %d\n", len(stamp.Globs))
	return 0
}

func loadStamp(path string) (*kati.Stamp, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return kati.ReadStamp(f)
}
