package analysis

import "github.com/oisee/x86trans/pkg/x86"

// OriginKind classifies how an indirect call's register operand traces
// back to its value (spec.md §4.8 "resolve_origin").
type OriginKind uint8

const (
	OriginUnknown OriginKind = iota
	OriginConst              // traced to a single "mov reg, label" / "lea reg, [label...]"
	OriginMulti              // more than one reaching definition, or a writer that is not a label load
	OriginCaller             // traced to an incoming argument register, never locally set
)

// Origin is the result of tracing an indirect call's register back to its
// defining instruction(s).
type Origin struct {
	Kind  OriginKind
	Label string // resolved callee name, set only for OriginConst
}

// resolveOrigin walks backward from an indirect-call site looking for the
// single instruction that last wrote the register the call dereferences.
// Multiple live predecessors reaching the call without a common writer
// downgrade the result to OriginMulti; reaching the procedure entry without
// any writer at all means the value arrived from the caller (OriginCaller).
func (c *Context) resolveOrigin(callIdx int, r x86.Reg) Origin {
	epoch := c.nextEpoch()
	return c.resolveOriginFrom(callIdx-1, r, epoch, 0)
}

const maxOriginScanDepth = 256

func (c *Context) resolveOriginFrom(idx int, r x86.Reg, epoch, depth int) Origin {
	if depth > maxOriginScanDepth {
		return Origin{Kind: OriginMulti}
	}
	for idx >= 0 {
		if c.hasIncomingRef(idx + 1) {
			return Origin{Kind: OriginMulti}
		}
		in := &c.Ops[idx]
		if in.CCScratch == epoch {
			return Origin{Kind: OriginMulti}
		}
		in.CCScratch = epoch

		if in.RegMaskDst.Has(r) {
			if lbl, ok := tryResolveConst(*in, r); ok {
				return Origin{Kind: OriginConst, Label: lbl}
			}
			return Origin{Kind: OriginMulti}
		}
		idx--
	}
	return Origin{Kind: OriginCaller}
}

// tryResolveConst recognizes "mov r, label"/"mov r, offset label"/
// "lea r, [label]" as a constant-origin write and returns the resolved
// symbol name. A numeric immediate ("mov r, const") is not recognized.
func tryResolveConst(in x86.Instruction, r x86.Reg) (string, bool) {
	if in.OperandCount != 2 || in.Operands[0].Kind != x86.OprReg || in.Operands[0].Reg != r {
		return "", false
	}
	switch in.Op {
	case x86.OpMov:
		switch in.Operands[1].Kind {
		case x86.OprLabel, x86.OprOffset:
			return in.Operands[1].Name, true
		}
	case x86.OpLea:
		if in.Operands[1].Kind == x86.OprRegMem {
			return bareDataLabel(in.Operands[1].Name), true
		}
	}
	return "", false
}
