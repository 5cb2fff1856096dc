package kati

import (
	"fmt"

	"github.com/golang/glog"
)

// Diagnostic is a fatal evaluation error, formatted the way GNU Make and
// Kati format theirs: "file:line: *** message.  Stop." for top-level
// failures propagated out of Run.
type Diagnostic struct {
	Loc     Location
	Message string
}

func (d *Diagnostic) Error() string {
	if d.Loc.IsZero() {
		return fmt.Sprintf("*** %s.  Stop.", d.Message)
	}
	return fmt.Sprintf("%s: *** %s.  Stop.", d.Loc, d.Message)
}

// glogWarningf logs a non-fatal diagnostic through glog, prefixed with loc
// when one is available.
func glogWarningf(loc Location, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if loc.IsZero() {
		glog.Warningf("*** %s", msg)
		return
	}
	glog.Warningf("%s: *** %s", loc, msg)
}
