package analysis

import (
	"github.com/oisee/x86trans/pkg/proto"
	"github.com/oisee/x86trans/pkg/x86"
)

// runFlowAnalysis is Pass 4 (spec.md §4.4): pair callee-save push/pop,
// propagate the direction flag, trace each condition-flag consumer back to
// its setter, detect 32-bit vs 64-bit division width, and synthesize
// fastcall register arguments for unresolved calls.
func (c *Context) runFlowAnalysis() error {
	if err := c.pairSaveRegisters(); err != nil {
		return err
	}
	if err := c.propagateDirectionFlag(); err != nil {
		return err
	}
	c.traceFlagSetters()
	c.detectDivisionWidth()
	c.synthesizeFastcallArgs()
	return nil
}

// pairSaveRegisters finds, for every live "push reg" not already
// consumed by frame classification, the forward-reachable "pop reg" that
// restores it before every return, marking both FlagRSAVE (spec.md §8
// property 2: register-save symmetry).
func (c *Context) pairSaveRegisters() error {
	for i := range c.Ops {
		in := &c.Ops[i]
		if in.Op != x86.OpPush || in.Flags.Has(x86.FlagRMD) || in.OperandCount != 1 {
			continue
		}
		if in.Operands[0].Kind != x86.OprReg {
			continue
		}
		r := in.Operands[0].Reg
		epoch := c.nextEpoch()
		if c.scanForPop(i+1, r, epoch, 0) {
			in.Flags |= x86.FlagRSAVE
		}
	}
	return nil
}

const maxPopScanDepth = 256

// scanForPop walks forward from idx looking for a "pop r" reachable along
// every path before a FlagTAIL instruction, the way the original
// scan_for_pop recurses across branches with a depth guard.
func (c *Context) scanForPop(idx int, r x86.Reg, epoch, depth int) bool {
	if depth > maxPopScanDepth {
		return false
	}
	for idx < len(c.Ops) {
		in := &c.Ops[idx]
		if in.CCScratch == epoch {
			return true // already confirmed reachable from here
		}
		in.CCScratch = epoch

		if isPopReg(*in, r) {
			in.Flags |= x86.FlagRSAVE
			return true
		}
		if in.RegMaskDst.Has(r) || (in.Flags.Has(x86.FlagDATA) && in.Operands[0].Kind == x86.OprReg && in.Operands[0].Reg == r) {
			return false // clobbered before restore
		}
		if in.Flags.Has(x86.FlagTAIL) {
			return false
		}
		if in.Flags.Has(x86.FlagCJMP) && in.BranchTarget >= 0 {
			if !c.scanForPop(in.BranchTarget, r, epoch, depth+1) {
				return false
			}
		}
		if in.Flags.Has(x86.FlagJMP) && !in.Flags.Has(x86.FlagCJMP) {
			if in.BranchTarget < 0 {
				return false
			}
			idx = in.BranchTarget
			continue
		}
		idx++
	}
	return false
}

// propagateDirectionFlag scans the instructions in array order, tracking the
// most recent std/cld, and sets FlagDF on every string op that follows a
// std. Any string op (with or without a REP prefix) that has no std/cld
// before it in array order is a fatal error.
func (c *Context) propagateDirectionFlag() error {
	known := false
	set := false
	for i := range c.Ops {
		in := &c.Ops[i]
		switch in.Op {
		case x86.OpStd:
			known, set = true, true
		case x86.OpCld:
			known, set = true, false
		case x86.OpLods, x86.OpStos, x86.OpMovs, x86.OpCmps, x86.OpScas:
			if !known {
				return c.fatal(i, "string op with no preceding std/cld")
			}
			if set {
				in.Flags |= x86.FlagDF
			}
		}
	}
	return nil
}

// traceFlagSetters resolves, for every FlagCC consumer, the CondSource that
// describes where its predicate comes from (spec.md §9 design note).
func (c *Context) traceFlagSetters() {
	for i := range c.Ops {
		in := &c.Ops[i]
		if !in.Flags.Has(x86.FlagCC) {
			continue
		}
		in.CondSrc = c.resolveCondSource(i)
		if in.CondSrc.Kind != x86.CondMaterialized {
			in.SetSetterOf(in.CondSrc.Setter)
		}
	}
}

// resolveCondSource walks backward from a flag consumer over straight-line
// code to the nearest FlagFLAGS-setting instruction. Crossing a label
// (multiple live predecessors) without first finding a setter degrades the
// result to CondMaterialized, the conservative branch of the sum type.
func (c *Context) resolveCondSource(consumer int) x86.CondSource {
	j := consumer - 1
	for j >= 0 {
		if c.hasIncomingRef(j + 1) {
			return x86.CondSource{Kind: x86.CondMaterialized, Setter: -1, Var: materializedVarName(j + 1)}
		}
		in := &c.Ops[j]
		if in.Flags.Has(x86.FlagRMD) {
			j--
			continue
		}
		if in.Flags.Has(x86.FlagFLAGS) {
			kind := x86.CondDirect
			if j != consumer-1 {
				kind = x86.CondIndirect
			}
			return x86.CondSource{Kind: kind, Setter: j}
		}
		j--
	}
	return x86.CondSource{Kind: x86.CondMaterialized, Setter: -1, Var: materializedVarName(0)}
}

func materializedVarName(i int) string {
	return "cond_" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	p := len(buf)
	for i > 0 {
		p--
		buf[p] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		p--
		buf[p] = '-'
	}
	return string(buf[p:])
}

func (c *Context) hasIncomingRef(idx int) bool {
	return idx >= 0 && idx < len(c.LabelRefs) && c.LabelRefs[idx] != nil
}

// detectDivisionWidth scans backward from each div/idiv for the cdq (or
// "xor edx,edx") that established its dividend width, marking Flag32BIT
// when found.
func (c *Context) detectDivisionWidth() {
	for i := range c.Ops {
		in := &c.Ops[i]
		if in.Op != x86.OpDiv && in.Op != x86.OpIdiv {
			continue
		}
		for j := i - 1; j >= 0 && j >= i-32; j-- {
			p := c.Ops[j]
			if p.Op == x86.OpCdq {
				in.Flags |= x86.Flag32BIT
				break
			}
			if p.Op == x86.OpXor && p.OperandCount == 2 &&
				p.Operands[0].Kind == x86.OprReg && p.Operands[0].Reg == x86.RegDX &&
				p.Operands[1].Kind == x86.OprReg && p.Operands[1].Reg == x86.RegDX {
				in.Flags |= x86.Flag32BIT
				break
			}
			if p.RegMaskDst.Has(x86.RegDX) {
				break
			}
		}
	}
}

// synthesizeFastcallArgs prepends ECX (and, when EDX is read, EDX) register
// arguments to an unresolved call's synthesized prototype and marks it
// __fastcall. The trigger is the call instruction's own source register
// mask including ECX or EDX; register liveness before the call site is not
// examined.
func (c *Context) synthesizeFastcallArgs() {
	for i := range c.Ops {
		in := &c.Ops[i]
		if in.Op != x86.OpCall || in.Proto == nil || !in.Proto.IsUnresolved {
			continue
		}
		if in.RegMaskSrc.Has(x86.RegCX) || in.RegMaskSrc.Has(x86.RegDX) {
			in.Proto.IsFastcall = true
			intT := proto.CType{Name: "int", Width: 4}
			regArgs := []proto.Arg{{Reg: proto.ArgRegCX, Type: intT}}
			if in.RegMaskSrc.Has(x86.RegDX) {
				regArgs = append(regArgs, proto.Arg{Reg: proto.ArgRegDX, Type: intT})
			}
			in.Proto.Args = append(regArgs, in.Proto.Args...)
			in.Proto.ArgC += len(regArgs)
			in.Proto.ArgCReg += len(regArgs)
		}
	}
}
