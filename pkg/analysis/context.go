// Package analysis implements the per-function analyzer of spec.md §4.4:
// a fixed sequence of passes over one procedure's instruction array,
// computing stack-frame shape, branch/call resolution, push/pop pairing,
// flag liveness and register usage to a fixed point.
package analysis

import (
	"fmt"

	"github.com/oisee/x86trans/pkg/diag"
	"github.com/oisee/x86trans/pkg/proto"
	"github.com/oisee/x86trans/pkg/x86"
)

// Context is the per-procedure state every pass reads and mutates
// (spec.md §9 "Global mutable state": packaged into a value the passes
// take by reference, constructed once per procedure by the driver).
type Context struct {
	FuncName string
	Proto    *proto.Proto // the procedure's own prototype, if known

	Ops       []x86.Instruction
	Labels    []string        // parallel array, indexed by instruction index
	LabelRefs []*x86.LabelRef // parallel array, indexed by instruction index

	Equates []x86.Equate

	Attrs          x86.FuncAttr
	BPFrame        bool
	SPFrame        bool
	StackFrameUsed bool
	StackFrameSize int

	// ParsedData holds parsed_data blocks collected between "endp" and the
	// next "proc"/"ends" for the current procedure — jump tables and
	// in-procedure constant arrays (spec.md glossary).
	ParsedData map[string]*x86.JumpTable

	// Aliases maps secondary label names (multiple consecutive labels
	// before the same instruction) to their shared instruction index;
	// Labels[i] holds only the one name the renderer prints.
	Aliases map[string]int

	DB       proto.DB
	Reporter diag.Reporter

	// AllowUnresolved mirrors the CLI's -rf flag (spec.md §6.4/§7 category
	// 3): when false, an indirect call whose stack argument count can't be
	// recovered from the post-call cleanup is a fatal error rather than a
	// best-effort zero-arg guess.
	AllowUnresolved bool

	// MaxArgGroups bounds how many interleaved pending-call argument groups
	// collectArgGroup cycles through; 0 means x86.MaxArgGroups (the -m
	// override of spec.md §6.4).
	MaxArgGroups int

	epoch int
}

// NewContext builds an empty Context wired to the given collaborators.
func NewContext(db proto.DB, reporter diag.Reporter) *Context {
	return &Context{DB: db, Reporter: reporter}
}

// Reset clears all per-function state so the Context is ready for the next
// procedure (spec.md §5, §8 property 6). Collaborators (DB, Reporter) are
// retained across procedures.
func (c *Context) Reset() {
	c.FuncName = ""
	c.Proto = nil
	c.Ops = nil
	c.Labels = nil
	c.LabelRefs = nil
	c.Equates = nil
	c.Attrs = 0
	c.BPFrame = false
	c.SPFrame = false
	c.StackFrameUsed = false
	c.StackFrameSize = 0
	c.ParsedData = nil
	c.Aliases = nil
	c.epoch = 0
}

// nextEpoch returns a fresh per-invocation magic value for traversal
// epoch-marking (spec.md §9 "Epoch-based traversal").
func (c *Context) nextEpoch() int {
	c.epoch++
	return c.epoch
}

func (c *Context) report(l diag.Level, i int, msg string) {
	if c.Reporter == nil {
		return
	}
	mnemonic := ""
	line := 0
	if i >= 0 && i < len(c.Ops) {
		line = c.Ops[i].Line
	}
	c.Reporter.Report(diag.Diagnostic{
		File: funcFile(c, i), Line: line, Func: c.FuncName, Mnemonic: mnemonic,
		Level: l, Message: msg,
	})
}

func funcFile(c *Context, i int) string {
	if i >= 0 && i < len(c.Ops) {
		return c.Ops[i].File
	}
	return ""
}

func (c *Context) fatal(i int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	c.report(diag.Error, i, msg)
	return &diag.FatalError{Diagnostic: diag.Diagnostic{
		File: funcFile(c, i), Func: c.FuncName, Level: diag.Error, Message: msg,
	}}
}

// addLabelRef links instruction from -> target's label-reference list.
func (c *Context) addLabelRef(target, from int) {
	ref := &x86.LabelRef{InstrIdx: from, Next: c.LabelRefs[target]}
	c.LabelRefs[target] = ref
}

// findLabel returns the instruction index labelled name, or -1. Checks the
// primary Labels array first, then aliases sharing an instruction with
// another primary label.
func (c *Context) findLabel(name string) int {
	for i, l := range c.Labels {
		if l == name {
			return i
		}
	}
	if i, ok := c.Aliases[name]; ok {
		return i
	}
	return -1
}
