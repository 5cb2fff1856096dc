// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

// Package ninjaemit would translate a planned DepNode DAG into a Ninja
// build file. It is out of scope for this repository (spec.md's
// Non-goals name the Ninja emitter explicitly); this package exists only
// as the thin collaborator cmd/kati's --ninja flag calls into.
package ninjaemit

import (
	"fmt"
	"io"

	"github.com/gokati/kati"
)

// Emit reports that Ninja emission isn't implemented and returns a
// non-zero status, rather than silently writing nothing to w.
func Emit(nodes []*kati.DepNode, w io.Writer) int {
	fmt.Fprintln(w, "# ninjaemit: build.ninja emission is not implemented")
	return 1
}
