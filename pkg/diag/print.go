package diag

import (
	"fmt"
	"io"
)

// PrintReporter formats diagnostics to an io.Writer exactly in the
// "file:line: level: message" shape spec.md §7 specifies, the way the
// teacher's CLI prints straight to stdout rather than through a structured
// logging library (none appears anywhere in the retrieved example pack).
//
// MinLevel suppresses anything below it; the CLI's -v flag (spec.md §6.4)
// lowers it to Note, its default being Warn so a plain run stays quiet
// about informational notes.
type PrintReporter struct {
	W        io.Writer
	MinLevel Level
}

func NewPrintReporter(w io.Writer) *PrintReporter { return &PrintReporter{W: w, MinLevel: Warn} }

func (p *PrintReporter) Report(d Diagnostic) {
	if d.Level < p.MinLevel {
		return
	}
	fmt.Fprintln(p.W, d.String())
}
