package kati

import (
	"os"
	"sync"
)

// MakefileCache is the process-wide cache of parsed makefiles, keyed by
// resolved path, per spec.md §4.5 ("parse it (through a process-wide
// makefile cache)"). It lets the same file be $(include)d from multiple
// places without re-lexing it.
type MakefileCache struct {
	mu    sync.Mutex
	files map[string]*parsedMakefile
}

type parsedMakefile struct {
	stmts []Stmt
	err   error
}

func NewMakefileCache() *MakefileCache {
	return &MakefileCache{files: make(map[string]*parsedMakefile)}
}

// Load parses path, or returns the cached parse from a previous call.
func (c *MakefileCache) Load(path string, stats *Stats) ([]Stmt, error) {
	c.mu.Lock()
	if pm, ok := c.files[path]; ok {
		c.mu.Unlock()
		return pm.stmts, pm.err
	}
	c.mu.Unlock()

	data, err := os.ReadFile(path)
	var pm parsedMakefile
	if err != nil {
		pm.err = err
	} else {
		if stats != nil {
			stats.incMakefileRead()
		}
		pm.stmts, pm.err = ParseMakefile(data, path)
	}

	c.mu.Lock()
	c.files[path] = &pm
	c.mu.Unlock()
	return pm.stmts, pm.err
}
