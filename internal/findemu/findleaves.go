package findemu

import (
	"path/filepath"
	"sort"
)

// runFindLeaves emulates findleaves.py: for every --dir root, it walks the
// tree depth-first and, in each directory, emits every file matching any
// of the patterns; once a directory yields a match the walk does not
// descend further into it (a match is a "leaf"). Directories whose base
// name matches a --prune glob are skipped entirely. Matches above a depth
// less than --mindepth are not considered. Output is sorted before being
// joined, matching the tool's own sorted-listing behavior.
func runFindLeaves(cwd string, fl *FindLeavesCmd, res *Result) (string, bool) {
	var out []string
	visiting := make(map[*Node]bool)

	for _, d := range fl.Dirs {
		rootPath := joinPath(cwd, d)
		root := &Node{path: rootPath}
		if root.getOrInit() == KindUnknown {
			res.MissingDirs = append(res.MissingDirs, rootPath)
			continue
		}
		walkFindLeaves(root, d, 0, fl, res, visiting, &out)
	}

	sort.Strings(out)
	return joinSpace(out), true
}

func walkFindLeaves(n *Node, relPath string, depth int, fl *FindLeavesCmd, res *Result, visiting map[*Node]bool, out *[]string) {
	if visiting[n] {
		return
	}
	visiting[n] = true
	defer delete(visiting, n)

	if isPruned(filepath.Base(relPath), fl.Prune) {
		return
	}

	kind := n.getOrInit()
	if kind != KindDirectory {
		return
	}

	children, err := n.Children()
	if err != nil {
		return
	}
	res.ReadDirs = append(res.ReadDirs, n.Path())

	var matched []string
	var subdirs []*Node
	var subdirRel []string
	for _, c := range children {
		res.Files = append(res.Files, c.Path())
		childRel := relPath + "/" + c.Name()
		switch c.getOrInit() {
		case KindFile:
			if depth+1 >= effectiveMinDepth(fl.MinDepth) && matchesAny(c.Name(), fl.Patterns) {
				matched = append(matched, childRel)
			}
		case KindDirectory:
			subdirs = append(subdirs, c)
			subdirRel = append(subdirRel, childRel)
		}
	}

	if len(matched) > 0 {
		*out = append(*out, matched...)
		return // this directory is a leaf; do not descend into its subdirectories
	}

	for i, c := range subdirs {
		walkFindLeaves(c, subdirRel[i], depth+1, fl, res, visiting, out)
	}
}

func effectiveMinDepth(md int) int {
	if md < 0 {
		return 0
	}
	return md
}

func isPruned(base string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

func matchesAny(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	for _, p := range patterns {
		if fnmatchPeriod(p, name) {
			return true
		}
	}
	return false
}

func joinSpace(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}
