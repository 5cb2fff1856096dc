package findemu

import (
	"os"
	"path/filepath"
	"sync"
)

// NodeKind classifies what a Node turned out to be once its first read
// happened (spec.md §4.7's File/Dir/Symlink/SymlinkError/UnsupportedSymlink
// variants).
type NodeKind int

const (
	KindUnknown NodeKind = iota
	KindFile
	KindDirectory
	KindSymlink
	KindSymlinkError
	KindUnsupportedSymlink
)

// Node is one lazily-materialized filesystem entry. Its real kind (file,
// dir, symlink, ...) is resolved on first access via getOrInit, which is
// one-shot and idempotent: concurrent callers block on the same mutex and
// all observe the same resolved kind.
type Node struct {
	mu       sync.Mutex
	resolved bool
	kind     NodeKind
	target   *Node // resolved symlink target, when kind == KindSymlink

	path     string
	children map[string]*Node
	listed   bool
}

// Tree is the root of a lazily-constructed directory tree, one per find
// emulator invocation's working directory.
type Tree struct {
	root *Node
}

func NewTree(rootPath string) *Tree {
	return &Tree{root: &Node{path: rootPath}}
}

// getOrInit resolves n's kind from the filesystem, exactly once.
func (n *Node) getOrInit() NodeKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.resolved {
		return n.kind
	}
	n.resolved = true

	info, err := os.Lstat(n.path)
	if err != nil {
		n.kind = KindUnknown
		return n.kind
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		dest, err := os.Readlink(n.path)
		if err != nil {
			n.kind = KindSymlinkError
			return n.kind
		}
		if filepath.IsAbs(dest) {
			n.kind = KindUnsupportedSymlink
			return n.kind
		}
		n.kind = KindSymlink
		n.target = &Node{path: filepath.Join(filepath.Dir(n.path), dest)}
	case info.IsDir():
		n.kind = KindDirectory
	default:
		n.kind = KindFile
	}
	return n.kind
}

// Children materializes (once) and returns n's directory entries. The
// first call returns them in the order os.ReadDir gives, which is sorted by
// file name; a repeat call returns the cached entries in map iteration
// order, which is not defined.
func (n *Node) Children() ([]*Node, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.listed {
		out := make([]*Node, 0, len(n.children))
		for _, c := range n.children {
			out = append(out, c)
		}
		return out, nil
	}
	entries, err := os.ReadDir(n.path)
	if err != nil {
		return nil, err
	}
	n.children = make(map[string]*Node, len(entries))
	out := make([]*Node, 0, len(entries))
	for _, e := range entries {
		child := &Node{path: filepath.Join(n.path, e.Name())}
		n.children[e.Name()] = child
		out = append(out, child)
	}
	n.listed = true
	return out, nil
}

func (n *Node) Name() string { return filepath.Base(n.path) }
func (n *Node) Path() string { return n.path }

// Resolve follows a chain of symlink Nodes (when permitted) down to a
// terminal File/Directory node, or returns the symlink node itself when
// followSymlink is false.
func (n *Node) Resolve(followSymlink bool) *Node {
	kind := n.getOrInit()
	if kind != KindSymlink || !followSymlink {
		return n
	}
	return n.target.Resolve(followSymlink)
}
