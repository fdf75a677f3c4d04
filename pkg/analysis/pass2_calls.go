package analysis

import "github.com/oisee/x86trans/pkg/x86"

// runCallAndBranchResolution is Pass 2 (spec.md §4.4): resolve call
// prototypes, link branches to their label targets, recover jump tables,
// and reclassify unresolvable jumps as tail calls.
func (c *Context) runCallAndBranchResolution() error {
	for i := range c.Ops {
		in := &c.Ops[i]
		if in.Flags.Has(x86.FlagRMD) {
			continue
		}

		switch in.Op {
		case x86.OpCall:
			c.resolveDirectCall(i)

		case x86.OpJmp, x86.OpJcc, x86.OpJecxz:
			if in.Flags.Has(x86.FlagTAIL) {
				continue
			}
			if in.Operands[0].Kind == x86.OprRegMem {
				if !c.recoverJumpTable(i) {
					c.reclassifyAsTailcall(i, "tailcall via jump")
				}
				continue
			}
			if in.Operands[0].Kind == x86.OprLabel {
				target := c.findLabel(in.Operands[0].Name)
				if target < 0 {
					c.reclassifyAsTailcall(i, "tailcall via jump")
					continue
				}
				if target == i+1 {
					in.Flags |= x86.FlagRMD // alignment no-op
					continue
				}
				in.BranchTarget = target
				c.addLabelRef(target, i)
			}
		}
	}
	return nil
}

func (c *Context) resolveDirectCall(i int) {
	in := &c.Ops[i]
	if in.Operands[0].Kind != x86.OprLabel {
		return // indirect call, handled by origin tracing in Pass 3
	}
	p, ok := c.DB.Lookup(in.Operands[0].Name)
	if !ok {
		return // left unresolved for Pass 3
	}
	in.Proto = p.Clone()
	if in.Proto.IsNoreturn {
		in.Flags |= x86.FlagTAIL
	}
}

// reclassifyAsTailcall turns a jump that cannot be resolved as an
// intra-procedure branch into a tail call (spec.md §4.4 Pass 2).
func (c *Context) reclassifyAsTailcall(i int, reason string) {
	in := &c.Ops[i]
	in.Op = x86.OpCall
	in.Flags = (in.Flags &^ (x86.FlagCJMP | x86.FlagCC)) | x86.FlagJMP | x86.FlagTAIL
	in.BranchTarget = -1
	c.report(0, i, reason)
}
