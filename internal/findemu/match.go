package findemu

import (
	"path/filepath"
	"strings"
)

// fnmatchPeriod implements fnmatch(3) with FNM_PERIOD: a leading '.' in
// name is only matched by a literal '.' at the start of pattern, never by
// '*', '?', or a character class, per spec.md §4.7's "-name uses fnmatch
// with FNM_PERIOD in run_find" rule.
func fnmatchPeriod(pattern, name string) bool {
	if strings.HasPrefix(name, ".") && !strings.HasPrefix(pattern, ".") {
		return false
	}
	ok, _ := filepath.Match(pattern, name)
	return ok
}

// typeMatches reports whether kind satisfies one of the fnmatch -type
// letters (b c d p l f s), resolved against the node's symlink-following
// policy.
func typeMatches(n *Node, letters string, followSymlink bool) bool {
	kind := n.getOrInit()
	if kind == KindSymlink && followSymlink {
		kind = n.target.getOrInit()
	}
	for i := 0; i < len(letters); i++ {
		switch letters[i] {
		case 'f':
			if kind == KindFile {
				return true
			}
		case 'd':
			if kind == KindDirectory {
				return true
			}
		case 'l':
			if kind == KindSymlink {
				return true
			}
		case 'b', 'c', 'p', 's':
			// Device/fifo/socket nodes are not modeled distinctly; treat as
			// never matching rather than guessing.
		}
	}
	return false
}

// evalExpr evaluates one ExprNode against a candidate entry, returning
// whether the entry should be printed (or, for -prune, whether pruning
// should suppress descent — captured by walkFind rather than here).
func evalExpr(e *ExprNode, n *Node, name string, depth int, followSymlink bool) bool {
	if e == nil {
		return true // bare "find DIR" implies -print
	}
	switch e.Kind {
	case KindOr:
		return evalExpr(e.Left, n, name, depth, followSymlink) || evalExpr(e.Right, n, name, depth, followSymlink)
	case KindAnd:
		return evalExpr(e.Left, n, name, depth, followSymlink) && evalExpr(e.Right, n, name, depth, followSymlink)
	case KindNot:
		return !evalExpr(e.Left, n, name, depth, followSymlink)
	case KindName:
		return fnmatchPeriod(e.Text, name)
	case KindType:
		return typeMatches(n, e.Text, followSymlink)
	case KindMaxdepth:
		return depth <= e.N
	case KindMindepth:
		return depth >= e.N
	case KindPrint, KindPruneOr:
		return true
	default:
		return true
	}
}

// containsPrune reports whether e anywhere contains a "-prune" term, used
// by runFind to decide whether a directory's descent should be skipped.
func containsPrune(e *ExprNode) bool {
	if e == nil {
		return false
	}
	if e.Kind == KindPruneOr {
		return true
	}
	return containsPrune(e.Left) || containsPrune(e.Right)
}

func maxDepthOf(e *ExprNode) (int, bool) {
	if e == nil {
		return 0, false
	}
	if e.Kind == KindMaxdepth {
		return e.N, true
	}
	if d, ok := maxDepthOf(e.Left); ok {
		return d, true
	}
	return maxDepthOf(e.Right)
}
