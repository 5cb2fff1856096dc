package kati

import "fmt"

// EvalInclude implements the include/-include/sinclude directive, per
// spec.md §4.5: evaluate the operand, tokenize into whitespace-separated
// patterns, glob each, and execute every resolved file's statements in the
// current evaluator. Each included file goes through the process-wide
// makefile cache and is appended to MAKEFILE_LIST.
func EvalInclude(ev *Evaluator, n *IncludeStmt) error {
	text := ev.ExpandString(n.Expr)
	ev.frames.push(Frame{Kind: FrameParse, Name: text, Location: n.Loc})
	defer ev.frames.pop()

	for _, pat := range splitFields(text) {
		matches := ev.Shared.Glob.Glob(ev.Shared.Stats, pat)
		if len(matches) == 0 {
			if n.MustExist {
				return fmt.Errorf("%s: %s: no such file to include", n.Loc, pat)
			}
			continue
		}
		for _, path := range matches {
			stmts, err := ev.Shared.Makefiles.Load(path, ev.Shared.Stats)
			if err != nil {
				if n.MustExist {
					return fmt.Errorf("%s: %s: %w", n.Loc, path, err)
				}
				continue
			}
			ev.makefileList = append(ev.makefileList, path)
			if err := ev.execStmts(stmts); err != nil {
				return err
			}
		}
	}
	return nil
}
