package parser

import (
	"fmt"
	"strings"

	"github.com/oisee/x86trans/pkg/proto"
	"github.com/oisee/x86trans/pkg/x86"
)

// ParseInstruction looks up words[0] (after consuming any recognized
// prefixes) against the static mnemonic table, parses its operands, and
// applies the per-op fixups of spec.md §4.2.
func ParseInstruction(words []string, db proto.DB) (x86.Instruction, error) {
	in := x86.NewInstruction()
	if len(words) == 0 {
		return in, fmt.Errorf("empty instruction line")
	}

	i := 0
	for i < len(words) {
		if f, ok := x86.LookupPrefix(words[i]); ok {
			in.Flags |= f
			i++
			continue
		}
		break
	}
	if i >= len(words) {
		return in, fmt.Errorf("prefix with no mnemonic")
	}

	mnemonic := words[i]
	info, ok := x86.LookupMnemonic(mnemonic)
	if !ok {
		return in, fmt.Errorf("unhandled mnemonic %q", mnemonic)
	}
	i++

	in.Op = info.Op
	in.Flags |= info.Flags
	in.PFO = info.PFO
	in.PFOInv = info.PFOInv

	operandWords := splitOperands(words[i:])
	if len(operandWords) < info.MinOperands || len(operandWords) > info.MaxOperands {
		return in, fmt.Errorf("%q expects %d-%d operands, got %d", mnemonic, info.MinOperands, info.MaxOperands, len(operandWords))
	}

	for _, ow := range operandWords {
		opr, _, err := ParseOperand(ow, 0, in.Op, db)
		if err != nil {
			return in, fmt.Errorf("operand of %q: %w", mnemonic, err)
		}
		in.Operands[in.OperandCount] = opr
		in.OperandCount++
	}

	applyFixups(&in, mnemonic)
	computeRegMasks(&in)
	return in, nil
}

// splitOperands regroups the already-whitespace-tokenized remainder of a
// line into one []string per comma-separated operand (operands themselves
// may legitimately contain multiple tokens, e.g. "dword ptr [ebp+8]").
func splitOperands(words []string) [][]string {
	var out [][]string
	var cur []string
	for _, w := range words {
		if strings.HasSuffix(w, ",") {
			cur = append(cur, strings.TrimSuffix(w, ","))
			out = append(out, cur)
			cur = nil
			continue
		}
		cur = append(cur, w)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// applyFixups implements the per-op adjustments of spec.md §4.2.
func applyFixups(in *x86.Instruction, mnemonic string) {
	switch in.Op {
	case x86.OpCmp, x86.OpTest:
		// sources only, no destination write despite the generic parse.

	case x86.OpCdq:
		in.Operands[0] = x86.Operand{Kind: x86.OprReg, Width: x86.LenDword, Reg: x86.RegDX}
		in.Operands[1] = x86.Operand{Kind: x86.OprReg, Width: x86.LenDword, Reg: x86.RegAX}
		in.OperandCount = 2

	case x86.OpLods, x86.OpStos, x86.OpMovs, x86.OpCmps, x86.OpScas:
		// di/si always step by the transfer width even on ops with no ax
		// operand to hang it off (movs), so render.stringOpStep can read it
		// back uniformly from Operands[0].
		width := stringOpWidth(mnemonic)
		diReg := x86.Operand{Kind: x86.OprReg, Width: width, Reg: x86.RegDI}
		siReg := x86.Operand{Kind: x86.OprReg, Width: width, Reg: x86.RegSI}
		cx := x86.Operand{Kind: x86.OprReg, Width: x86.LenDword, Reg: x86.RegCX}
		ax := x86.Operand{Kind: x86.OprReg, Width: width, Reg: x86.RegAX}
		switch in.Op {
		case x86.OpLods:
			in.Operands[0], in.Operands[1], in.Operands[2] = ax, siReg, cx
		case x86.OpStos:
			in.Operands[0], in.Operands[1], in.Operands[2] = diReg, ax, cx
		case x86.OpMovs:
			in.Operands[0], in.Operands[1], in.Operands[2] = diReg, siReg, cx
		case x86.OpCmps, x86.OpScas:
			in.Operands[0], in.Operands[1], in.Operands[2] = diReg, ax, cx
		}
		in.OperandCount = 3

	case x86.OpJecxz:
		in.RegMaskSrc = in.RegMaskSrc.With(x86.RegCX)

	case x86.OpMul, x86.OpDiv, x86.OpIdiv:
		if in.OperandCount == 1 {
			in.Operands[1] = x86.Operand{Kind: x86.OprReg, Width: x86.LenDword, Reg: x86.RegDX}
			in.Operands[2] = x86.Operand{Kind: x86.OprReg, Width: x86.LenDword, Reg: x86.RegAX}
			in.OperandCount = 3
		}
	case x86.OpImul:
		if in.OperandCount == 1 {
			in.Operands[1] = x86.Operand{Kind: x86.OprReg, Width: x86.LenDword, Reg: x86.RegDX}
			in.Operands[2] = x86.Operand{Kind: x86.OprReg, Width: x86.LenDword, Reg: x86.RegAX}
			in.OperandCount = 3
		}

	case x86.OpLeave:
		in.RegMaskSrc = in.RegMaskSrc.With(x86.RegBP)
		in.RegMaskDst = in.RegMaskDst.With(x86.RegBP).With(x86.RegSP)
	}

	if x86.IsReadModifyWrite(in.Op) && in.OperandCount >= 1 {
		// RMW ops: destination mask folds into source mask — computed
		// alongside the generic register masks in computeRegMasks.
	}

	if in.Op == x86.OpSub || in.Op == x86.OpSbb || in.Op == x86.OpXor {
		if in.OperandCount == 2 && operandsIdentical(in.Operands[0], in.Operands[1]) {
			in.Operands[1] = x86.Operand{} // clear source: known zeroing idiom
		}
	}

	if in.Op == x86.OpMov && in.OperandCount == 2 && operandsIdentical(in.Operands[0], in.Operands[1]) {
		in.Flags |= x86.FlagRMD
	}
	if in.Op == x86.OpLea && in.OperandCount == 2 && isZeroDisplacementSelf(in.Operands[0], in.Operands[1]) {
		in.Flags |= x86.FlagRMD
	}
}

func stringOpWidth(mnemonic string) x86.LenMod {
	switch {
	case strings.HasSuffix(mnemonic, "b"):
		return x86.LenByte
	case strings.HasSuffix(mnemonic, "w"):
		return x86.LenWord
	case strings.HasSuffix(mnemonic, "d"):
		return x86.LenDword
	default:
		return x86.LenDword
	}
}

func operandsIdentical(a, b x86.Operand) bool {
	return a.Kind == b.Kind && a.Reg == b.Reg && a.Name == b.Name && a.Width == b.Width
}

// isZeroDisplacementSelf reports whether dst is "reg" and src is the
// addressing expression "[reg+0]" for the same register.
func isZeroDisplacementSelf(dst, src x86.Operand) bool {
	if dst.Kind != x86.OprReg || src.Kind != x86.OprRegMem {
		return false
	}
	return src.IndirectRegs == x86.RegMask(dst.Reg.Mask()) &&
		(src.Name == "["+dst.Reg.Name32()+"+0]" || src.Name == "["+dst.Reg.Name32()+"]")
}

// computeRegMasks derives RegMaskSrc/RegMaskDst from the parsed operands,
// folding read-modify-write destinations into the source mask per
// spec.md §4.2.
func computeRegMasks(in *x86.Instruction) {
	rmw := x86.IsReadModifyWrite(in.Op)
	writesDst := in.Flags.Has(x86.FlagDATA)

	for idx := 0; idx < in.OperandCount; idx++ {
		o := in.Operands[idx]
		switch o.Kind {
		case x86.OprReg:
			if idx == 0 && writesDst {
				in.RegMaskDst = in.RegMaskDst.With(o.Reg)
				if rmw {
					in.RegMaskSrc = in.RegMaskSrc.With(o.Reg)
				}
			} else {
				in.RegMaskSrc = in.RegMaskSrc.With(o.Reg)
			}
		case x86.OprRegMem:
			for r := x86.RegAX; r <= x86.RegSP; r++ {
				if o.IndirectRegs.Has(r) {
					in.RegMaskSrc = in.RegMaskSrc.With(r)
				}
			}
		}
	}
}
