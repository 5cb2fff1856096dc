package findemu

import (
	"fmt"
	"os"
	"strings"
)

// Result is what a successful emulation reports back to the caller for
// regeneration tracking (spec.md §4.8's Find(cmd) fast path).
type Result struct {
	Output      string
	MissingDirs []string
	Files       []string
	ReadDirs    []string
}

// Run attempts to emulate cmdline exactly. It returns ok=false when the
// command falls outside the supported grammar or uses unsupported features;
// in those cases the caller must fall back to running a real shell. A root
// directory that does not exist is not a failure: it is recorded in
// Result.MissingDirs and contributes no output.
func Run(cmdline string) (Result, bool) {
	cmd, err := Parse(cmdline)
	if err != nil {
		return Result{}, false
	}

	cwd := "."
	if cmd.HasChangeDir {
		cwd = cmd.ChangeDir
	}
	if cmd.HasIfTest {
		testPath := joinPath(cwd, cmd.TestDir)
		if info, err := os.Stat(testPath); err != nil || !info.IsDir() {
			return Result{Output: ""}, true
		}
	}

	var res Result
	switch {
	case cmd.Find != nil:
		out, ok := runFind(cwd, cmd.Find, &res)
		if !ok {
			return Result{}, false
		}
		res.Output = out
	case cmd.FindLeaves != nil:
		out, ok := runFindLeaves(cwd, cmd.FindLeaves, &res)
		if !ok {
			return Result{}, false
		}
		res.Output = out
	default:
		return Result{}, false
	}
	return res, true
}

func joinPath(dir, rel string) string {
	if rel == "" {
		return dir
	}
	if strings.HasPrefix(rel, "/") {
		return rel
	}
	return dir + "/" + rel
}

// runFind walks every root directory of fc, emitting entries that satisfy
// fc.Expr in the order Node.Children returns them, with loop detection: a
// per-invocation map from node identity to the path it was first seen at
// stops traversal if a symlink cycle would otherwise recurse forever.
func runFind(cwd string, fc *FindCmd, res *Result) (string, bool) {
	var out []string
	visiting := make(map[*Node]string)
	maxDepth, hasMax := maxDepthOf(fc.Expr)
	prune := containsPrune(fc.Expr)

	for _, d := range fc.Dirs {
		rootPath := joinPath(cwd, d)
		if _, err := os.Stat(rootPath); err != nil {
			res.MissingDirs = append(res.MissingDirs, rootPath)
			continue
		}
		root := &Node{path: rootPath}
		walkFind(root, d, 0, fc, res, visiting, out2(&out), hasMax, maxDepth, prune)
	}
	return strings.Join(out, " "), true
}

// out2 returns a closure appending to *out, keeping walkFind's signature
// free of a direct slice pointer param for readability at call sites.
func out2(out *[]string) func(string) {
	return func(s string) { *out = append(*out, s) }
}

func walkFind(n *Node, relPath string, depth int, fc *FindCmd, res *Result, visiting map[*Node]string, emit func(string), hasMax bool, maxDepth int, hasPrune bool) {
	if prev, seen := visiting[n]; seen {
		fmt.Fprintf(os.Stderr, "findemu: warning: filesystem loop detected at %s (first seen at %s)\n", relPath, prev)
		return
	}
	visiting[n] = relPath
	defer delete(visiting, n)

	n.getOrInit()
	name := n.Name()

	if evalExpr(fc.Expr, n, name, depth, fc.FollowSymlink) && (fc.Expr == nil || hasPrintOrBare(fc.Expr)) {
		emit(relPath)
	}

	if hasPrune && evalExpr(fc.Expr, n, name, depth, fc.FollowSymlink) {
		return // the matched -prune branch; do not descend further
	}

	resolved := n.Resolve(fc.FollowSymlink)
	if resolved.getOrInit() != KindDirectory {
		return
	}
	if hasMax && depth >= maxDepth {
		return
	}

	children, err := resolved.Children()
	if err != nil {
		return
	}
	res.ReadDirs = append(res.ReadDirs, resolved.Path())
	for _, c := range children {
		childRel := relPath + "/" + c.Name()
		res.Files = append(res.Files, c.Path())
		walkFind(c, childRel, depth+1, fc, res, visiting, emit, hasMax, maxDepth, hasPrune)
	}
}

// hasPrintOrBare reports whether entries matching e are printed: true for a
// nil expression, for an explicit -print, and for any expression containing
// a test (-name, -type, -maxdepth, -mindepth, or a negated test), since a
// find expression with no -print still prints by default.
func hasPrintOrBare(e *ExprNode) bool {
	if e == nil {
		return true
	}
	switch e.Kind {
	case KindPrint:
		return true
	case KindOr, KindAnd:
		return hasPrintOrBare(e.Left) || hasPrintOrBare(e.Right)
	case KindName, KindType, KindMaxdepth, KindMindepth, KindNot:
		return true // a bare test with no explicit -print still implies one
	default:
		return false
	}
}
