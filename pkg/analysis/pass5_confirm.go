package analysis

import "github.com/oisee/x86trans/pkg/x86"

// runSaveConfirmation is Pass 5 (spec.md §4.4): the last pass clears
// FlagRSAVE on any push/pop pair whose register turned out never to be
// clobbered between the pair, since such a pair is dead weight rather than
// a genuine callee-save (spec.md §8 property 2, confirmed only after every
// other pass has finished mutating register masks).
func (c *Context) runSaveConfirmation() error {
	for i := range c.Ops {
		in := &c.Ops[i]
		if in.Op != x86.OpPush || !in.Flags.Has(x86.FlagRSAVE) || in.OperandCount != 1 {
			continue
		}
		r := in.Operands[0].Reg
		if !c.registerClobberedBefore(i, r) {
			in.Flags &^= x86.FlagRSAVE
			if j := c.matchingPop(i, r); j >= 0 {
				c.Ops[j].Flags &^= x86.FlagRSAVE
			}
		}
	}
	return nil
}

func (c *Context) registerClobberedBefore(pushIdx int, r x86.Reg) bool {
	for j := pushIdx + 1; j < len(c.Ops); j++ {
		in := &c.Ops[j]
		if isPopReg(*in, r) {
			return false
		}
		if in.RegMaskDst.Has(r) {
			return true
		}
	}
	return false
}

func (c *Context) matchingPop(pushIdx int, r x86.Reg) int {
	for j := pushIdx + 1; j < len(c.Ops); j++ {
		if isPopReg(c.Ops[j], r) {
			return j
		}
	}
	return -1
}
