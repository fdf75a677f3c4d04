package render

import (
	"strings"
	"testing"

	"github.com/oisee/x86trans/pkg/analysis"
	"github.com/oisee/x86trans/pkg/proto"
	"github.com/oisee/x86trans/pkg/x86"
)

// regMemOp builds an already-resolved stack-access operand the way the
// analysis package's StackAccess pass hands one to the renderer: Name is
// the final "a1"/"sf.b[4]" text, so derefMemory/Lvalue print it verbatim.
func regMemOp(name string, w x86.LenMod) x86.Operand {
	return x86.Operand{Kind: x86.OprRegMem, Name: name, Width: w}
}

// TestGoldenScenarios reproduces the end-to-end scenarios in table form,
// one Context fixture per scenario, checking the statements the renderer
// is required to emit.
func TestGoldenScenarios(t *testing.T) {
	tests := []struct {
		name         string
		build        func() *analysis.Context
		wantContains []string
	}{
		{
			// S1: a lods/stos loop over two widths, a word-width neg, a
			// decrementing counter, and a cdq/bsf tail.
			name: "S1_string_loop_and_bsf_tail",
			build: func() *analysis.Context {
				c := analysis.NewContext(proto.EmptyDB{}, nil)
				byteAX := regOp(x86.RegAX, x86.LenByte)
				byteSI := regOp(x86.RegSI, x86.LenByte)
				byteDI := regOp(x86.RegDI, x86.LenByte)
				cxDword := regOp(x86.RegCX, x86.LenDword)
				c.Ops = []x86.Instruction{
					{ // 0: lodsb
						Op: x86.OpLods, OperandCount: 3,
						Operands:     [x86.MaxOperands]x86.Operand{byteAX, byteSI, cxDword},
						BranchTarget: -1,
					},
					{ // 1: stosb
						Op: x86.OpStos, OperandCount: 3,
						Operands:     [x86.MaxOperands]x86.Operand{byteDI, byteAX, cxDword},
						BranchTarget: -1,
					},
					{ // 2: neg ax — loop target
						Op: x86.OpNeg, OperandCount: 1,
						Operands:     [x86.MaxOperands]x86.Operand{regOp(x86.RegAX, x86.LenWord)},
						BranchTarget: -1,
					},
					{ // 3: dec ecx
						Op: x86.OpDec, OperandCount: 1,
						Operands:     [x86.MaxOperands]x86.Operand{cxDword},
						BranchTarget: -1,
					},
					{ // 4: jnz loop
						Op: x86.OpJcc, OperandCount: 1,
						Operands:     [x86.MaxOperands]x86.Operand{{Kind: x86.OprLabel, Name: "loop"}},
						PFO:          x86.CondZ,
						PFOInv:       true,
						CondSrc:      x86.CondSource{Kind: x86.CondDirect, Setter: 3},
						BranchTarget: 2,
					},
					{ // 5: cdq
						Op: x86.OpCdq, OperandCount: 2,
						BranchTarget: -1,
					},
					{ // 6: bsf eax, ecx
						Op: x86.OpBsf, OperandCount: 2,
						Operands:     [x86.MaxOperands]x86.Operand{regOp(x86.RegAX, x86.LenDword), cxDword},
						BranchTarget: -1,
					},
					{ // 7: mov eax, 1
						Op: x86.OpMov, OperandCount: 2,
						Operands:     [x86.MaxOperands]x86.Operand{regOp(x86.RegAX, x86.LenDword), constOp(1)},
						BranchTarget: -1,
					},
					{ // 8: ret
						Op: x86.OpRet, Flags: x86.FlagTAIL, BranchTarget: -1,
					},
				}
				c.Labels = make([]string, len(c.Ops))
				c.Labels[2] = "loop"
				return c
			},
			wantContains: []string{
				"LOBYTE(eax) = *(u8 *)esi; esi += 1;",
				"*(u8 *)edi = eax; edi += 1;",
				"LOWORD(eax) = -(s16)(u16)eax;",
				"ecx--;",
				"goto loop;",
				"edx = (s32)eax >> 31;",
				"eax = ecx ? __builtin_ffs(ecx) - 1 : 0;",
				"eax = 1;",
				"return eax;",
			},
		},
		{
			// S2: a resolved BP-frame argument read, straight through to
			// the return — the frame push/mov/pop are already RMD by the
			// time the renderer sees them.
			name: "S2_bp_frame_one_int_arg",
			build: func() *analysis.Context {
				c := analysis.NewContext(proto.EmptyDB{}, nil)
				c.Proto = &proto.Proto{Name: "f", Return: proto.CType{Name: "int"}, Args: []proto.Arg{{Type: proto.CType{Name: "int"}}}}
				c.Ops = []x86.Instruction{
					{Op: x86.OpPush, OperandCount: 1, Operands: [x86.MaxOperands]x86.Operand{regOp(x86.RegBP, x86.LenDword)}, Flags: x86.FlagRMD, BranchTarget: -1},
					{Op: x86.OpMov, OperandCount: 2, Operands: [x86.MaxOperands]x86.Operand{regOp(x86.RegBP, x86.LenDword), regOp(x86.RegSP, x86.LenDword)}, Flags: x86.FlagRMD, BranchTarget: -1},
					{Op: x86.OpMov, OperandCount: 2, Operands: [x86.MaxOperands]x86.Operand{regOp(x86.RegAX, x86.LenDword), regMemOp("a1", x86.LenDword)}, BranchTarget: -1},
					{Op: x86.OpAdd, OperandCount: 2, Operands: [x86.MaxOperands]x86.Operand{regOp(x86.RegAX, x86.LenDword), constOp(1)}, BranchTarget: -1},
					{Op: x86.OpPop, OperandCount: 1, Operands: [x86.MaxOperands]x86.Operand{regOp(x86.RegBP, x86.LenDword)}, Flags: x86.FlagRMD, BranchTarget: -1},
					{Op: x86.OpRet, Flags: x86.FlagTAIL, BranchTarget: -1},
				}
				c.Labels = make([]string, len(c.Ops))
				return c
			},
			wantContains: []string{
				"eax = a1;",
				"eax += 1;",
				"return eax;",
			},
		},
		{
			// S3: a stdcall return never emits a stack adjustment, no
			// matter what the "retn N" operand said.
			name: "S3_stdcall_retn_no_stack_adjust",
			build: func() *analysis.Context {
				c := analysis.NewContext(proto.EmptyDB{}, nil)
				c.Proto = &proto.Proto{Name: "f", Return: proto.CType{Name: "int"}, IsStdcall: true, ArgCStack: 2, Args: []proto.Arg{{}, {}}}
				c.Ops = []x86.Instruction{
					{Op: x86.OpRet, OperandCount: 1, Operands: [x86.MaxOperands]x86.Operand{constOp(8)}, Flags: x86.FlagTAIL, BranchTarget: -1},
				}
				c.Labels = make([]string, len(c.Ops))
				return c
			},
			wantContains: []string{"return eax;"},
		},
		{
			// S4: an indirect call whose prototype could not be resolved
			// goes through the unresolved_call runtime shim.
			name: "S4_unresolved_indirect_call",
			build: func() *analysis.Context {
				c := analysis.NewContext(proto.EmptyDB{}, nil)
				c.Ops = []x86.Instruction{
					{
						Op: x86.OpCall, OperandCount: 1,
						Operands: [x86.MaxOperands]x86.Operand{{Kind: x86.OprRegMem, Name: "eax", Width: x86.LenDword}},
						Proto:    &proto.Proto{IsUnresolved: true},
						BranchTarget: -1,
					},
					{Op: x86.OpRet, Flags: x86.FlagTAIL, BranchTarget: -1},
				}
				c.Labels = make([]string, len(c.Ops))
				return c
			},
			wantContains: []string{"eax = unresolved_call(eax);"},
		},
		{
			// S5: an indirect jump through a recovered jump table.
			name: "S5_jump_table",
			build: func() *analysis.Context {
				c := analysis.NewContext(proto.EmptyDB{}, nil)
				jt := &x86.JumpTable{
					Label: "tab",
					Entries: []x86.JumpTableEntry{
						{Label: "L0", BTIdx: 1},
						{Label: "L1", BTIdx: 2},
						{Label: "L2", BTIdx: 3},
					},
				}
				c.Ops = []x86.Instruction{
					{
						Op: x86.OpJmp, OperandCount: 1,
						Operands:     [x86.MaxOperands]x86.Operand{regOp(x86.RegAX, x86.LenDword)},
						JumpTable:    jt,
						BranchTarget: -1,
					},
					{Op: x86.OpRet, Flags: x86.FlagTAIL, BranchTarget: -1}, // L0
					{Op: x86.OpRet, Flags: x86.FlagTAIL, BranchTarget: -1}, // L1
					{Op: x86.OpRet, Flags: x86.FlagTAIL, BranchTarget: -1}, // L2
				}
				c.Labels = []string{"", "L0", "L1", "L2"}
				return c
			},
			wantContains: []string{
				"goto *jt_tab[eax];",
				"static const void *jt_tab[] = { &&L0, &&L1, &&L2 };",
			},
		},
		{
			// S6: a direct-path signed compare renders straight from the
			// cmp's own operands instead of a materialized cond_* detour.
			name: "S6_direct_signed_compare",
			build: func() *analysis.Context {
				c := analysis.NewContext(proto.EmptyDB{}, nil)
				c.Ops = []x86.Instruction{
					{Op: x86.OpCmp, OperandCount: 2, Operands: [x86.MaxOperands]x86.Operand{regOp(x86.RegAX, x86.LenDword), regOp(x86.RegBX, x86.LenDword)}, BranchTarget: -1},
					{
						Op: x86.OpJcc, OperandCount: 1,
						Operands:     [x86.MaxOperands]x86.Operand{{Kind: x86.OprLabel, Name: "L"}},
						PFO:          x86.CondL,
						CondSrc:      x86.CondSource{Kind: x86.CondDirect, Setter: 0},
						BranchTarget: 2,
					},
					{Op: x86.OpRet, Flags: x86.FlagTAIL, BranchTarget: -1},
				}
				c.Labels = []string{"", "", "L"}
				return c
			},
			wantContains: []string{"if ((s32)eax < (s32)ebx) goto L;"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.build()
			out, err := Render(c)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tc.wantContains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q, got:\n%s", want, out)
				}
			}
		})
	}
}

// TestDirectCondExprUnsignedAndFlagConditions covers the branch conditions
// review comment (b) identified as falling through to the broken
// operand-vs-zero fallback: jb/jc (CondC), jbe/jna (CondBE), js (CondS).
func TestDirectCondExprUnsignedAndFlagConditions(t *testing.T) {
	cmp := &x86.Instruction{
		Op: x86.OpCmp, OperandCount: 2,
		Operands: [x86.MaxOperands]x86.Operand{regOp(x86.RegAX, x86.LenDword), regOp(x86.RegBX, x86.LenDword)},
	}
	tests := []struct {
		cond x86.CondOp
		want string
	}{
		// eax/ebx are declared u32 locals, so the bare names already compare
		// unsigned; no explicit cast text is needed at dword width.
		{x86.CondC, "eax < ebx"},
		{x86.CondBE, "eax <= ebx"},
		{x86.CondS, "((s32)eax - (s32)ebx) < 0"},
	}
	for _, tc := range tests {
		got := directCondExpr(cmp, tc.cond)
		if got != tc.want {
			t.Errorf("directCondExpr(%v) = %q, want %q", tc.cond, got, tc.want)
		}
	}
}
