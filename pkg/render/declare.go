package render

import (
	"fmt"
	"strings"

	"github.com/oisee/x86trans/pkg/analysis"
	"github.com/oisee/x86trans/pkg/x86"
)

// needs accumulates the entry-point declarations the body emission pass
// discovered it required, so they can be printed once at function top
// (spec.md §4.9 "Once the body is emitted, the renderer emits...").
type needs struct {
	need64BitDivTemp bool
	unresolvedCall   bool
	condVars         map[x86.CondOp]bool
	jumpTables       []*x86.JumpTable
}

func newNeeds() *needs {
	return &needs{condVars: make(map[x86.CondOp]bool)}
}

// renderDeclarations emits the stack-frame union, userstack buffer,
// va_list, register locals, MMX locals, save slots, cond_* variables,
// temporaries and jump-table arrays (spec.md §4.9 final paragraph).
func renderDeclarations(c *analysis.Context, need *needs) string {
	var b strings.Builder

	if c.StackFrameUsed {
		fmt.Fprintf(&b, "\tunion { u32 d[%d]; u16 w[%d]; u8 b[%d]; } sf;\n",
			c.StackFrameSize/4+1, c.StackFrameSize/2+1, c.StackFrameSize+1)
	}
	if c.Proto != nil && c.Proto.IsUserStack {
		fmt.Fprintf(&b, "\tu8 userstack[USERSTACK_SIZE];\n")
	}
	if c.Proto != nil && c.Proto.IsVararg {
		b.WriteString("\tva_list ap;\n")
	}

	for _, r := range usedLocals(c) {
		fmt.Fprintf(&b, "\tu32 %s;\n", r)
	}
	for _, mm := range usedMMXLocals(c) {
		fmt.Fprintf(&b, "\tmmxr %s;\n", mm)
	}
	for _, r := range savedRegisters(c) {
		fmt.Fprintf(&b, "\tu32 save_%s;\n", r)
	}

	for _, cond := range orderedCondVars(need.condVars) {
		fmt.Fprintf(&b, "\tint %s;\n", cond)
	}
	if need.need64BitDivTemp {
		b.WriteString("\tu64 tmp64;\n")
	}
	if need.unresolvedCall {
		b.WriteString("\t/* unresolved_call declared by the runtime support header */\n")
	}
	for _, jt := range need.jumpTables {
		fmt.Fprintf(&b, "\tstatic const void *jt_%s[] = { %s };\n", jt.Label, jumpTableEntries(c, jt))
	}

	if b.Len() == 0 {
		return ""
	}
	b.WriteString("\n")
	return b.String()
}

// usedLocals returns a 32-bit local for every register except SP that a
// live instruction reads or writes, sorted for deterministic output.
// Argument registers are not excluded.
func usedLocals(c *analysis.Context) []string {
	var names []string
	var mask x86.RegMask
	for i := range c.Ops {
		in := &c.Ops[i]
		if in.Flags.Has(x86.FlagRMD) {
			continue
		}
		mask |= in.RegMaskSrc | in.RegMaskDst
	}
	for r := x86.RegAX; r <= x86.RegBP; r++ {
		if mask.Has(r) {
			names = append(names, r.Name32())
		}
	}
	return names
}

func usedMMXLocals(c *analysis.Context) []string {
	var names []string
	for i := range c.Ops {
		in := &c.Ops[i]
		for idx := 0; idx < in.OperandCount; idx++ {
			if in.Operands[idx].Reg.IsMMX() {
				names = append(names, in.Operands[idx].Reg.Name32())
			}
		}
	}
	return dedupe(names)
}

func savedRegisters(c *analysis.Context) []string {
	var names []string
	for i := range c.Ops {
		in := &c.Ops[i]
		if in.Op == x86.OpPush && in.Flags.Has(x86.FlagRSAVE) {
			names = append(names, in.Operands[0].Reg.Name32())
		}
	}
	return dedupe(names)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func orderedCondVars(set map[x86.CondOp]bool) []string {
	order := []x86.CondOp{x86.CondO, x86.CondC, x86.CondZ, x86.CondBE, x86.CondS, x86.CondP, x86.CondL, x86.CondLE}
	var out []string
	for _, c := range order {
		if set[c] {
			out = append(out, "cond_"+c.String())
		}
	}
	return out
}

func jumpTableEntries(c *analysis.Context, jt *x86.JumpTable) string {
	var parts []string
	for _, e := range jt.Entries {
		label := c.Labels[e.BTIdx]
		if label == "" {
			label = e.Label
		}
		parts = append(parts, "&&"+label)
	}
	return strings.Join(parts, ", ")
}
