package analysis

import (
	"github.com/oisee/x86trans/pkg/diag"
	"github.com/oisee/x86trans/pkg/x86"
)

// runFrameClassification is Pass 1 (spec.md §4.4): classify the stack
// frame from the procedure's entry sequence, then find and remove the
// matching teardown at every return point.
func (c *Context) runFrameClassification() error {
	c.classifyEntry()
	for i := range c.Ops {
		if c.Ops[i].Flags.Has(x86.FlagTAIL) {
			c.matchTeardown(i)
		}
	}
	return nil
}

func (c *Context) classifyEntry() {
	n := len(c.Ops)
	if n >= 2 && isPushReg(c.Ops[0], x86.RegBP) && isMovRegReg(c.Ops[1], x86.RegBP, x86.RegSP) {
		c.BPFrame = true
		c.Ops[0].Flags |= x86.FlagRMD
		c.Ops[1].Flags |= x86.FlagRMD

		idx := 2
		switch {
		case idx < n && isSubRegConst(c.Ops[idx], x86.RegSP):
			c.StackFrameSize = int(c.Ops[idx].Operands[1].Value)
			c.Ops[idx].Flags |= x86.FlagRMD

		case idx < n && isPushReg(c.Ops[idx], x86.RegCX):
			k := 0
			for idx < n && isPushReg(c.Ops[idx], x86.RegCX) {
				c.Ops[idx].Flags |= x86.FlagRMD
				k++
				idx++
			}
			c.StackFrameSize = k * 4

		case idx+1 < n && isMovRegConst(c.Ops[idx], x86.RegAX) && isCallTo(c.Ops[idx+1], "__alloca_probe"):
			c.StackFrameSize = int(c.Ops[idx].Operands[1].Value)
			c.Ops[idx].Flags |= x86.FlagRMD
			c.Ops[idx+1].Flags |= x86.FlagRMD
		}
		c.StackFrameUsed = c.StackFrameSize > 0
		return
	}

	// SP frame: accumulate scratch "push ecx" or an explicit "sub esp, N".
	idx := 0
	for idx < n && isPushReg(c.Ops[idx], x86.RegCX) {
		c.Ops[idx].Flags |= x86.FlagRMD
		c.StackFrameSize += 4
		idx++
	}
	if idx < n && isSubRegConst(c.Ops[idx], x86.RegSP) {
		c.StackFrameSize += int(c.Ops[idx].Operands[1].Value)
		c.Ops[idx].Flags |= x86.FlagRMD
	}
	c.SPFrame = true
	c.StackFrameUsed = c.StackFrameSize > 0
}

// matchTeardown scans backward from a return-point instruction for the
// matching teardown sequence and marks it RMD. Missing teardown is
// tolerated when the procedure is declared noreturn.
func (c *Context) matchTeardown(retIdx int) {
	i := retIdx - 1
	if c.BPFrame {
		if i >= 0 && c.Ops[i].Op == x86.OpLeave {
			c.Ops[i].Flags |= x86.FlagRMD
			return
		}
		// add esp, N realigning a scratch area, then pop ebp
		if i >= 0 && isAddRegConst(c.Ops[i], x86.RegSP) {
			c.Ops[i].Flags |= x86.FlagRMD
			i--
		}
		if i >= 0 && isPopReg(c.Ops[i], x86.RegBP) {
			c.Ops[i].Flags |= x86.FlagRMD
			return
		}
		if !c.Attrs.Has(x86.AttrNoreturn) {
			c.report(diag.Warn, retIdx, "missing bp-frame teardown before return")
		}
		return
	}

	if i >= 0 && isAddRegConst(c.Ops[i], x86.RegSP) {
		c.Ops[i].Flags |= x86.FlagRMD
		i--
	}
	for i >= 0 && isPopReg(c.Ops[i], x86.RegCX) {
		c.Ops[i].Flags |= x86.FlagRMD
		i--
	}
}

func isPushReg(in x86.Instruction, r x86.Reg) bool {
	return in.Op == x86.OpPush && in.OperandCount >= 1 &&
		in.Operands[0].Kind == x86.OprReg && in.Operands[0].Reg == r
}

func isPopReg(in x86.Instruction, r x86.Reg) bool {
	return in.Op == x86.OpPop && in.OperandCount >= 1 &&
		in.Operands[0].Kind == x86.OprReg && in.Operands[0].Reg == r
}

func isMovRegReg(in x86.Instruction, dst, src x86.Reg) bool {
	return in.Op == x86.OpMov && in.OperandCount == 2 &&
		in.Operands[0].Kind == x86.OprReg && in.Operands[0].Reg == dst &&
		in.Operands[1].Kind == x86.OprReg && in.Operands[1].Reg == src
}

func isMovRegConst(in x86.Instruction, dst x86.Reg) bool {
	return in.Op == x86.OpMov && in.OperandCount == 2 &&
		in.Operands[0].Kind == x86.OprReg && in.Operands[0].Reg == dst &&
		in.Operands[1].Kind == x86.OprConst
}

func isSubRegConst(in x86.Instruction, dst x86.Reg) bool {
	return in.Op == x86.OpSub && in.OperandCount == 2 &&
		in.Operands[0].Kind == x86.OprReg && in.Operands[0].Reg == dst &&
		in.Operands[1].Kind == x86.OprConst
}

func isAddRegConst(in x86.Instruction, dst x86.Reg) bool {
	return in.Op == x86.OpAdd && in.OperandCount == 2 &&
		in.Operands[0].Kind == x86.OprReg && in.Operands[0].Reg == dst &&
		in.Operands[1].Kind == x86.OprConst
}

func isCallTo(in x86.Instruction, name string) bool {
	return in.Op == x86.OpCall && in.OperandCount >= 1 &&
		in.Operands[0].Kind == x86.OprLabel && in.Operands[0].Name == name
}
