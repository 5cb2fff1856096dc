// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

// Package directexec would run a DepNode DAG's recipes directly, without
// going through Ninja. It is out of scope for this repository (spec.md's
// Non-goals name the direct executor explicitly); this package exists only
// as the thin collaborator cmd/kati wires its CLI flags through, so that
// the flag surface and call site both exist even though the traversal
// itself is not implemented here.
package directexec

import (
	"fmt"

	"github.com/gokati/kati"
)

// Options mirrors the subset of kati's command-line flags that a direct
// executor would need: parallelism, output verbosity, and failure handling.
type Options struct {
	Jobs         int
	Silent       bool
	IgnoreErrors bool
	Debug        string
}

// Run reports that direct execution isn't implemented and returns a
// non-zero status, rather than silently doing nothing.
func Run(nodes []*kati.DepNode, opts Options) int {
	fmt.Println("directexec: direct recipe execution is not implemented; use --ninja")
	return 1
}
