package kati

import (
	"os"
	"runtime"
)

// BootstrapOptions carries the handful of values the synthetic bootstrap
// makefile needs that come from outside any makefile text: the detected
// toolchain, the invoking command line, and the requested goals.
type BootstrapOptions struct {
	CC, CXX, AR string
	MakeVersion string
	Shell       string
	OrigArgs    []string
	Goals       []string
	Curdir      string

	// NoBuiltinRules skips installDefaultSuffixRules, matching --no_builtin_rules.
	NoBuiltinRules bool
}

// DefaultBootstrapOptions fills in the platform-appropriate defaults, the
// way Kati's built-in bootstrap step does before parsing the user's
// top-level makefile.
func DefaultBootstrapOptions() *BootstrapOptions {
	cc := firstEnv("CC", "cc")
	cxx := firstEnv("CXX", "c++")
	ar := firstEnv("AR", "ar")
	shell := firstEnv("SHELL", "/bin/sh")
	cwd, _ := os.Getwd()
	return &BootstrapOptions{
		CC: cc, CXX: cxx, AR: ar,
		MakeVersion: "gokati-3.82-compatible",
		Shell:       shell,
		Curdir:      cwd,
	}
}

func firstEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// Bootstrap seeds ev's global scope with the default variables, suffix
// rules, and introspection values GNU Make provides even with no makefile
// text at all, per spec.md §6.
func Bootstrap(ev *Evaluator, opts *BootstrapOptions) {
	setEnvDefault(ev, "CC", opts.CC)
	setEnvDefault(ev, "CXX", opts.CXX)
	setEnvDefault(ev, "AR", opts.AR)
	setEnvDefault(ev, "SHELL", opts.Shell)
	setSimple(ev, "MAKE_VERSION", opts.MakeVersion)
	setSimple(ev, "KATI", "true")
	setSimple(ev, "CURDIR", opts.Curdir)
	setSimple(ev, "MAKE", "kati")

	for _, e := range os.Environ() {
		name, value, ok := splitEnvEntry(e)
		if !ok {
			continue
		}
		sym := Intern(name)
		if sym.globalVariable() != nil {
			continue
		}
		sym.setGlobalVariable(&Variable{Origin: OriginEnvironment, Flavor: FlavorSimple, Simple: []byte(value)})
	}

	ev.goals = opts.Goals

	if !opts.NoBuiltinRules {
		installDefaultSuffixRules(ev)
	}
	_ = runtime.GOOS
}

func setEnvDefault(ev *Evaluator, name, value string) {
	if v := os.Getenv(name); v != "" {
		setSimpleOrigin(ev, name, v, OriginEnvironment)
		return
	}
	setSimpleOrigin(ev, name, value, OriginDefault)
}

func setSimple(ev *Evaluator, name, value string) {
	setSimpleOrigin(ev, name, value, OriginDefault)
}

func setSimpleOrigin(ev *Evaluator, name, value string, origin Origin) {
	Intern(name).setGlobalVariable(&Variable{Origin: origin, Flavor: FlavorSimple, Simple: []byte(value)})
}

func splitEnvEntry(e string) (name, value string, ok bool) {
	for i := 0; i < len(e); i++ {
		if e[i] == '=' {
			return e[:i], e[i+1:], true
		}
	}
	return "", "", false
}

// installDefaultSuffixRules registers the handful of ".c.o:"-style suffix
// rules GNU Make ships with out of the box, compiled down to implicit
// rules by the planner the same way user-declared suffix rules are.
func installDefaultSuffixRules(ev *Evaluator) {
	defaults := []struct {
		suffixRule string
		recipe     string
	}{
		{".c.o", "$(CC) $(CFLAGS) -c -o $@ $<"},
		{".cc.o", "$(CXX) $(CXXFLAGS) -c -o $@ $<"},
		{".cpp.o", "$(CXX) $(CXXFLAGS) -c -o $@ $<"},
	}
	for _, d := range defaults {
		loc := Location{Filename: "<builtin>"}
		recipe, _ := parseValue([]byte(d.recipe), loc)
		r := &Rule{Output: d.suffixRule, Recipe: []Value{recipe}, HasCommands: true, Loc: loc}
		if compiled, ok := compileSuffixRule(r); ok {
			ev.rules.AddRule(compiled)
		}
	}
}
