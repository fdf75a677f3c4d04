package analysis

import "github.com/oisee/x86trans/pkg/x86"

// collectCallArgs implements spec.md §4.7: for every live call, walk
// backward over the immediately preceding run of plain "push" instructions
// not already claimed by another call's argument group, assigning each one
// an ArgNum (1-based, the push nearest the call being argument 1) and an
// ArgGroup that wraps modulo MaxArgGroups. ArgNext is not set here.
func (c *Context) collectCallArgs() error {
	groupCap := c.MaxArgGroups
	if groupCap <= 0 {
		groupCap = x86.MaxArgGroups
	}
	group := 0
	for i := range c.Ops {
		in := &c.Ops[i]
		if in.Op != x86.OpCall || in.Flags.Has(x86.FlagRMD) {
			continue
		}
		argc := 0
		if in.Proto != nil {
			argc = in.Proto.StackArgs()
		}
		if argc == 0 {
			continue
		}
		group++
		c.collectArgGroup(i, argc, group%groupCap)
	}
	return nil
}

// collectArgGroup walks backward from a call collecting up to argc
// unclaimed pushes, the way collect_call_args_r does with an epoch-tagged
// backward scan — stopping at another call or a label boundary; pushes
// already claimed by an earlier group are passed over.
func (c *Context) collectArgGroup(callIdx, argc, grp int) {
	epoch := c.nextEpoch()
	ord := 1
	j := callIdx - 1
	for j >= 0 && ord <= argc {
		if c.hasIncomingRef(j + 1) {
			break // path ambiguity: another predecessor joins here
		}
		in := &c.Ops[j]
		if in.CCScratch == epoch {
			break
		}
		in.CCScratch = epoch

		if in.Op == x86.OpCall {
			break
		}
		if in.Op == x86.OpPush && in.ArgNum == 0 && !in.Flags.Has(x86.FlagRMD) {
			in.ArgNum = ord
			in.ArgGroup = grp
			in.Flags |= x86.FlagFARG
			if isVarargPush(in) {
				in.Flags |= x86.FlagVAPUSH
			}
			ord++
			j--
			continue
		}
		if in.RegMaskDst != 0 {
			// a non-push instruction between argument pushes is tolerated
			// (address computation feeding a later push); keep scanning.
		}
		j--
	}
}

// isVarargPush reports whether a push operand looks like it forwards a
// va_list cursor rather than a plain scalar argument (spec.md glossary
// VAPUSH): a register-indirect operand through esi/edi, the registers a
// va_arg walk advances.
func isVarargPush(in *x86.Instruction) bool {
	if in.OperandCount == 0 {
		return false
	}
	o := in.Operands[0]
	return o.Kind == x86.OprRegMem && (o.IndirectRegs.Has(x86.RegSI) || o.IndirectRegs.Has(x86.RegDI))
}
