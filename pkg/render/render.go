package render

import (
	"fmt"
	"strings"

	"github.com/oisee/x86trans/pkg/analysis"
	"github.com/oisee/x86trans/pkg/x86"
)

// Render walks an analyzed Context top to bottom and returns the C
// function body text (spec.md §4.9). The caller is responsible for
// wrapping the result in the enclosing translation unit.
func Render(c *analysis.Context) (string, error) {
	var body strings.Builder
	need := newNeeds()

	for i := range c.Ops {
		in := &c.Ops[i]
		if c.Labels[i] != "" {
			fmt.Fprintf(&body, "%s:\n", c.Labels[i])
		}
		if in.Flags.Has(x86.FlagRMD) {
			continue
		}
		stmt, err := renderInstruction(c, i, need)
		if err != nil {
			return "", err
		}
		if stmt != "" {
			fmt.Fprintf(&body, "\t%s\n", stmt)
		}
	}

	decls := renderDeclarations(c, need)
	return decls + body.String(), nil
}

// renderInstruction emits the statement (or short block) for one live
// instruction, per the per-op shapes spec.md §4.9 lists.
func renderInstruction(c *analysis.Context, i int, need *needs) (string, error) {
	in := &c.Ops[i]
	switch in.Op {
	case x86.OpNop:
		return "", nil

	case x86.OpMov, x86.OpMovzx, x86.OpMovsx:
		return renderMov(in, need), nil

	case x86.OpLea:
		return renderLea(in), nil

	case x86.OpAdd, x86.OpSub, x86.OpAnd, x86.OpOr, x86.OpXor, x86.OpShl, x86.OpShr, x86.OpSar:
		return renderArith(in, need), nil

	case x86.OpInc, x86.OpDec:
		op := "++"
		if in.Op == x86.OpDec {
			op = "--"
		}
		return fmt.Sprintf("%s%s;", Lvalue(in.Operands[0]), op), nil

	case x86.OpNeg:
		return fmt.Sprintf("%s = -%s;", Lvalue(in.Operands[0]), Operand(in.Operands[0], in.Operands[0].Width, true)), nil

	case x86.OpNot:
		return fmt.Sprintf("%s = ~%s;", Lvalue(in.Operands[0]), Operand(in.Operands[0], in.Operands[0].Width, false)), nil

	case x86.OpCmp, x86.OpTest:
		return "", nil // pure flag-setter; no destination write

	case x86.OpPush, x86.OpPop:
		return renderPushPop(in, need), nil

	case x86.OpCdq:
		return "edx = (s32)eax >> 31;", nil

	case x86.OpLods, x86.OpStos, x86.OpMovs, x86.OpCmps, x86.OpScas:
		return renderStringOp(in), nil

	case x86.OpCall:
		return renderCall(c, i, need)

	case x86.OpRet:
		return renderRet(c, need), nil

	case x86.OpJmp, x86.OpJcc, x86.OpJecxz:
		return renderJump(c, i, need)

	case x86.OpScc:
		return renderSetcc(c, i, need), nil

	case x86.OpMul, x86.OpImul, x86.OpDiv, x86.OpIdiv:
		return renderMulDiv(in, need), nil

	case x86.OpStd, x86.OpCld:
		return "", nil // folded into FlagDF propagation, nothing to emit

	case x86.OpEmms:
		return "/* emms */", nil

	case x86.OpAdc, x86.OpSbb:
		return renderAdcSbb(in, need), nil

	case x86.OpRol, x86.OpRor:
		return renderRotate(in, need), nil

	case x86.OpRcl, x86.OpRcr:
		return renderRotateCarry(in, need), nil

	case x86.OpShrd:
		return renderShrd(in, need), nil

	case x86.OpBsf:
		return renderBsf(in, need), nil

	case x86.OpXchg:
		return renderXchg(in, need), nil

	default:
		return fmt.Sprintf("/* unhandled op %d */", in.Op), nil
	}
}

// bitWidth returns the operand width in bits, defaulting an unspecified
// width to the 32-bit register locals declare.go always declares.
func bitWidth(w x86.LenMod) int {
	b := w.Bytes()
	if b == 0 {
		b = 4
	}
	return b * 8
}

// renderAdcSbb folds the incoming carry into the add/sub and recomputes it
// from the widened result, so a chain of adc/sbb across register pairs
// carries correctly (spec.md §4.2: adc/sbb always consume cond_c).
func renderAdcSbb(in *x86.Instruction, need *needs) string {
	dst, src := in.Operands[0], in.Operands[1]
	need.need64BitDivTemp = true
	need.condVars[x86.CondC] = true
	op := "+"
	if in.Op == x86.OpSbb {
		op = "-"
	}
	dstVal := Operand(dst, x86.LenDword, false)
	srcVal := Operand(src, dst.Width, false)
	return fmt.Sprintf("tmp64 = (u64)%s %s (u64)%s %s cond_c; %s = (u32)tmp64; cond_c = (tmp64 >> 32) & 1;",
		dstVal, op, srcVal, op, Lvalue(dst))
}

// renderRotate renders rol/ror. The carry flag is only recomputed when a
// later instruction actually consumes it (in.PFOMask), matching the
// PFOMask-gated style renderArith already uses for cond_z.
func renderRotate(in *x86.Instruction, need *needs) string {
	dst, cnt := in.Operands[0], in.Operands[1]
	bits := bitWidth(dst.Width)
	srcVal := Operand(dst, dst.Width, false)
	cntVal := Operand(cnt, x86.LenByte, false)
	var stmt string
	if in.Op == x86.OpRol {
		stmt = fmt.Sprintf("%s = (u32)((%s << (%s %% %d)) | (%s >> (%d - (%s %% %d))));",
			Lvalue(dst), srcVal, cntVal, bits, srcVal, bits, cntVal, bits)
	} else {
		stmt = fmt.Sprintf("%s = (u32)((%s >> (%s %% %d)) | (%s << (%d - (%s %% %d))));",
			Lvalue(dst), srcVal, cntVal, bits, srcVal, bits, cntVal, bits)
	}
	if in.PFOMask != 0 {
		need.condVars[x86.CondC] = true
		stmt += fmt.Sprintf(" cond_c = (%s >> %d) & 1;", srcVal, bits-1)
	}
	return stmt
}

// renderRotateCarry renders rcl/rcr by widening the value plus the incoming
// carry into a (bits+1)-wide rotation, the way a bits-through-carry rotate
// is usually expressed in C (spec.md §4.2: rcl/rcr always consume cond_c).
func renderRotateCarry(in *x86.Instruction, need *needs) string {
	dst, cnt := in.Operands[0], in.Operands[1]
	need.condVars[x86.CondC] = true
	need.need64BitDivTemp = true
	bits := bitWidth(dst.Width)
	ext := bits + 1
	srcVal := Operand(dst, dst.Width, false)
	cntVal := Operand(cnt, x86.LenByte, false)
	var shiftExpr string
	if in.Op == x86.OpRcl {
		shiftExpr = fmt.Sprintf("(tmp64 << (%s %% %d)) | (tmp64 >> (%d - (%s %% %d)))", cntVal, ext, ext, cntVal, ext)
	} else {
		shiftExpr = fmt.Sprintf("(tmp64 >> (%s %% %d)) | (tmp64 << (%d - (%s %% %d)))", cntVal, ext, ext, cntVal, ext)
	}
	return fmt.Sprintf("tmp64 = ((u64)cond_c << %d) | (u64)%s; tmp64 = (%s) & ((1ULL << %d) - 1); cond_c = (tmp64 >> %d) & 1; %s = (u32)(tmp64 & ((1ULL << %d) - 1));",
		bits, srcVal, shiftExpr, ext, bits, Lvalue(dst), bits)
}

// renderShrd renders the double-precision shift: dst's vacated high bits
// are filled from src's low bits rather than zero-filled (spec.md §4.2).
func renderShrd(in *x86.Instruction, need *needs) string {
	dst, src, cnt := in.Operands[0], in.Operands[1], in.Operands[2]
	need.condVars[x86.CondC] = true
	bits := bitWidth(dst.Width)
	dstVal := Operand(dst, dst.Width, false)
	srcVal := Operand(src, dst.Width, false)
	cntVal := Operand(cnt, x86.LenByte, false)
	return fmt.Sprintf("cond_c = (%s >> ((%s %% %d) - 1)) & 1; %s = (u32)((%s >> (%s %% %d)) | (%s << (%d - (%s %% %d))));",
		dstVal, cntVal, bits, Lvalue(dst), dstVal, cntVal, bits, srcVal, bits, cntVal, bits)
}

// renderBsf renders bit-scan-forward via __builtin_ffs, the GCC builtin
// S1 requires verbatim: zero-source is the one case ffs's own "0 means no
// bit set" return can't be used directly, so it's special-cased.
func renderBsf(in *x86.Instruction, need *needs) string {
	dst, src := in.Operands[0], in.Operands[1]
	srcVal := Operand(src, dst.Width, false)
	stmt := fmt.Sprintf("%s = %s ? __builtin_ffs(%s) - 1 : 0;", Lvalue(dst), srcVal, srcVal)
	if in.PFOMask != 0 {
		need.condVars[x86.CondZ] = true
		stmt += fmt.Sprintf(" cond_z = (%s == 0);", srcVal)
	}
	return stmt
}

// renderXchg swaps the two operands through the shared 64-bit scratch
// rather than declaring a dedicated temp for a single-use swap.
func renderXchg(in *x86.Instruction, need *needs) string {
	a, b := in.Operands[0], in.Operands[1]
	need.need64BitDivTemp = true
	aVal := Operand(a, a.Width, false)
	bVal := Operand(b, a.Width, false)
	return fmt.Sprintf("tmp64 = %s; %s = %s; %s = (u32)tmp64;", aVal, Lvalue(a), bVal, Lvalue(b))
}

func renderMov(in *x86.Instruction, need *needs) string {
	dst, src := in.Operands[0], in.Operands[1]
	signed := in.Op == x86.OpMovsx
	rhs := Operand(src, dst.Width, signed)
	if in.Op == x86.OpMovzx || in.Op == x86.OpMovsx {
		return fmt.Sprintf("%s = %s%s;", Lvalue(dst), castFor(dst.Width, signed), rhs)
	}
	return fmt.Sprintf("%s = %s;", Lvalue(dst), rhs)
}

func renderLea(in *x86.Instruction) string {
	dst, src := in.Operands[0], in.Operands[1]
	return fmt.Sprintf("%s = (u32)&%s;", Lvalue(dst), strings.Trim(src.Name, "[]"))
}

func renderArith(in *x86.Instruction, need *needs) string {
	dst, src := in.Operands[0], in.Operands[1]
	op, ok := arithOperator[in.Op]
	if !ok {
		op = "?"
	}
	stmt := fmt.Sprintf("%s %s= %s;", Lvalue(dst), op, Operand(src, dst.Width, false))
	if in.PFOMask != 0 {
		need.condVars[x86.CondZ] = true
		stmt += fmt.Sprintf(" cond_z = (%s == 0);", Lvalue(dst))
	}
	return stmt
}

func renderPushPop(in *x86.Instruction, need *needs) string {
	if in.Flags.Has(x86.FlagRSAVE) {
		if in.Op == x86.OpPush {
			return fmt.Sprintf("save_%s = %s;", in.Operands[0].Reg.Name32(), Operand(in.Operands[0], in.Operands[0].Width, false))
		}
		return fmt.Sprintf("%s = save_%s;", Lvalue(in.Operands[0]), in.Operands[0].Reg.Name32())
	}
	if in.Flags.Has(x86.FlagFARG) {
		return "" // consumed directly by the owning call's argument list
	}
	return "/* unpaired push/pop */"
}

func renderStringOp(in *x86.Instruction) string {
	step := stringOpStep(in)
	if !in.Flags.Has(x86.FlagREP) {
		return step
	}
	return fmt.Sprintf("for (; ecx != 0; ecx--) { %s }", step)
}

func stringOpStep(in *x86.Instruction) string {
	dir := "+="
	width := 1
	if in.Operands[0].Width.Bytes() > 0 {
		width = in.Operands[0].Width.Bytes()
	}
	switch in.Op {
	case x86.OpLods:
		// a sub-dword lods must go through LOBYTE/LOWORD: eax is the only
		// declared local, and a plain "al = ..." would name a variable
		// that was never declared (spec.md §4.9 register-local macros).
		ax := in.Operands[0]
		return fmt.Sprintf("%s = *(u%d *)esi; esi %s %d;", Lvalue(ax), width*8, dir, width)
	case x86.OpStos:
		// the destination pointer cast already truncates the store, so the
		// source read needs no redundant mask (spec.md §4.9 "suppressed
		// when the constant/value already fits the narrower type").
		return fmt.Sprintf("*(u%d *)edi = eax; edi %s %d;", width*8, dir, width)
	case x86.OpMovs:
		return fmt.Sprintf("*(u%d *)edi = *(u%d *)esi; edi %s %d; esi %s %d;", width*8, width*8, dir, width, dir, width)
	case x86.OpCmps:
		return fmt.Sprintf("cond_z = (*(u%d *)esi == *(u%d *)edi); esi %s %d; edi %s %d;", width*8, width*8, dir, width, dir, width)
	case x86.OpScas:
		ax := in.Operands[1]
		return fmt.Sprintf("cond_z = (%s == *(u%d *)edi); edi %s %d;", Operand(ax, ax.Width, false), width*8, dir, width)
	default:
		return "/* string op */"
	}
}

func renderMulDiv(in *x86.Instruction, need *needs) string {
	switch in.Op {
	case x86.OpMul, x86.OpImul:
		if in.OperandCount == 3 {
			return fmt.Sprintf("edx:eax = (u64)eax * (u64)%s;", Operand(in.Operands[2], x86.LenDword, false))
		}
		dst := in.Operands[0]
		return fmt.Sprintf("%s *= %s;", Lvalue(dst), Operand(in.Operands[1], dst.Width, true))
	case x86.OpDiv, x86.OpIdiv:
		signed := in.Op == x86.OpIdiv
		if in.Flags.Has(x86.Flag32BIT) {
			return fmt.Sprintf("eax = (u32)eax / %s; edx = (u32)eax %% %s;", Operand(in.Operands[2], x86.LenDword, signed), Operand(in.Operands[2], x86.LenDword, signed))
		}
		need.need64BitDivTemp = true
		return fmt.Sprintf("tmp64 = ((u64)edx << 32) | eax; eax = (u32)(tmp64 / %s); edx = (u32)(tmp64 %% %s);", Operand(in.Operands[2], x86.LenDword, signed), Operand(in.Operands[2], x86.LenDword, signed))
	}
	return ""
}

func renderSetcc(c *analysis.Context, i int, need *needs) string {
	in := &c.Ops[i]
	cond := condSourceExpr(c, i, need)
	return fmt.Sprintf("%s = (%s) ? 1 : 0;", Lvalue(in.Operands[0]), cond)
}

func renderCall(c *analysis.Context, i int, need *needs) (string, error) {
	in := &c.Ops[i]
	name := in.Operands[0].Name
	if in.Proto != nil && in.Proto.IsUnresolved && in.Operands[0].Kind == x86.OprRegMem {
		need.unresolvedCall = true
		args := callArgList(c, i)
		if in.Flags.Has(x86.FlagTAIL) {
			return fmt.Sprintf("return unresolved_call(%s%s);", Operand(in.Operands[0], x86.LenDword, false), args), nil
		}
		return fmt.Sprintf("eax = unresolved_call(%s%s);", Operand(in.Operands[0], x86.LenDword, false), args), nil
	}

	args := callArgList(c, i)
	call := fmt.Sprintf("%s(%s)", name, strings.TrimPrefix(args, ", "))
	if in.Flags.Has(x86.FlagTAIL) {
		if in.Proto != nil && in.Proto.Return.Name == "void" {
			return call + "; return;", nil
		}
		return "return " + call + ";", nil
	}
	if in.Proto != nil && in.Proto.HasRetReg {
		return "eax = " + call + ";", nil
	}
	return call + ";", nil
}

func callArgList(c *analysis.Context, callIdx int) string {
	var names []string
	for j := callIdx - 1; j >= 0; j-- {
		in := &c.Ops[j]
		if in.Op != x86.OpPush || in.ArgNum == 0 {
			continue
		}
		names = append(names, Operand(in.Operands[0], in.Operands[0].Width, false))
	}
	// names were collected nearest-first, which is argument order: the push
	// closest to the call is argument 1.
	if len(names) == 0 {
		return ""
	}
	return ", " + strings.Join(names, ", ")
}

func renderRet(c *analysis.Context, need *needs) string {
	if c.Proto == nil {
		return "return eax;"
	}
	switch c.Proto.Return.Name {
	case "void":
		return "return;"
	case "__int64", "int64_t", "long long":
		need.need64BitDivTemp = true
		return "return ((u64)edx << 32) | eax;"
	default:
		return "return eax;"
	}
}

func renderJump(c *analysis.Context, i int, need *needs) (string, error) {
	in := &c.Ops[i]

	if in.JumpTable != nil {
		need.jumpTables = append(need.jumpTables, in.JumpTable)
		idxExpr := Operand(in.Operands[0], x86.LenDword, false)
		return fmt.Sprintf("goto *jt_%s[%s];", in.JumpTable.Label, idxExpr), nil
	}

	if in.BranchTarget < 0 {
		return "/* unresolved branch */", nil
	}
	target := c.Labels[in.BranchTarget]
	if target == "" {
		return "", fmt.Errorf("branch target %d has no live label", in.BranchTarget)
	}

	if in.Op == x86.OpJecxz {
		return fmt.Sprintf("if (ecx == 0) goto %s;", target), nil
	}
	if in.Op == x86.OpJmp {
		return fmt.Sprintf("goto %s;", target), nil
	}

	cond := condSourceExpr(c, i, need)
	if in.PFOInv {
		cond = "!(" + cond + ")"
	}
	return fmt.Sprintf("if (%s) goto %s;", cond, target), nil
}

// condSourceExpr renders the predicate for a FlagCC consumer from its
// resolved CondSource (spec.md §9's three-state FlagUsage).
func condSourceExpr(c *analysis.Context, consumer int, need *needs) string {
	in := &c.Ops[consumer]
	switch in.CondSrc.Kind {
	case x86.CondDirect, x86.CondIndirect:
		setter := &c.Ops[in.CondSrc.Setter]
		return directCondExpr(setter, in.PFO)
	case x86.CondMaterialized:
		need.condVars[in.PFO] = true
		return in.CondSrc.Var
	default:
		return "0"
	}
}

// directCondExpr restates the setter's arithmetic as a C relational
// expression (spec.md S6: "if ((s32)eax < (s32)ebx) goto L;").
func directCondExpr(setter *x86.Instruction, cond x86.CondOp) string {
	if setter.Op == x86.OpCmp && setter.OperandCount == 2 {
		signed := !unsignedCond[cond]
		lhs := Operand(setter.Operands[0], setter.Operands[0].Width, signed)
		rhs := Operand(setter.Operands[1], setter.Operands[0].Width, signed)
		if tpl, ok := condExpr[cond]; ok {
			return fmt.Sprintf(tpl, lhs, rhs)
		}
	}
	if setter.OperandCount >= 1 {
		return fmt.Sprintf("%s %s 0", Operand(setter.Operands[0], setter.Operands[0].Width, true), relForCond(cond))
	}
	return "0"
}

func relForCond(c x86.CondOp) string {
	switch c {
	case x86.CondZ:
		return "=="
	case x86.CondS:
		return "<"
	case x86.CondL:
		return "<"
	case x86.CondLE:
		return "<="
	default:
		return "!="
	}
}
