package header

import (
	"testing"

	"github.com/oisee/x86trans/pkg/analysis"
	"github.com/oisee/x86trans/pkg/proto"
	"github.com/oisee/x86trans/pkg/x86"
)

func regOp(r x86.Reg, w x86.LenMod) x86.Operand {
	return x86.Operand{Kind: x86.OprReg, Reg: r, Width: w}
}

func constOp(v uint64) x86.Operand {
	return x86.Operand{Kind: x86.OprConst, Width: x86.LenDword, Value: v}
}

func TestAnalyzeBasicGuess(t *testing.T) {
	c := analysis.NewContext(proto.EmptyDB{}, nil)
	c.FuncName = "sub_401000"
	c.Ops = []x86.Instruction{
		{Op: x86.OpMov, OperandCount: 2, Operands: [x86.MaxOperands]x86.Operand{regOp(x86.RegAX, x86.LenDword), regOp(x86.RegCX, x86.LenDword)}, RegMaskSrc: x86.RegMask(x86.RegCX.Mask()), RegMaskDst: x86.RegMask(x86.RegAX.Mask())},
		{Op: x86.OpCall, OperandCount: 1, Operands: [x86.MaxOperands]x86.Operand{{Kind: x86.OprLabel, Name: "sub_402000"}}},
		{Op: x86.OpRet, Flags: x86.FlagTAIL},
	}
	g := Analyze(c)
	if g.Name != "sub_401000" {
		t.Errorf("got Name %q", g.Name)
	}
	if !g.RegMaskDep.Has(x86.RegCX) {
		t.Errorf("ecx is read before written, should be in RegMaskDep")
	}
	if g.RegMaskDep.Has(x86.RegAX) {
		t.Errorf("eax is written, not read-before-written, should not be in RegMaskDep")
	}
	if len(g.Callees) != 1 || g.Callees[0] != "sub_402000" {
		t.Errorf("got Callees %v", g.Callees)
	}
}

func TestInferIsStdcallFromRetImm(t *testing.T) {
	c := analysis.NewContext(proto.EmptyDB{}, nil)
	c.Ops = []x86.Instruction{
		{Op: x86.OpRet, OperandCount: 1, Operands: [x86.MaxOperands]x86.Operand{constOp(8)}, Flags: x86.FlagTAIL},
	}
	if !inferIsStdcall(c) {
		t.Errorf("ret 8 should infer stdcall")
	}
}

func TestInferIsStdcallPlainRet(t *testing.T) {
	c := analysis.NewContext(proto.EmptyDB{}, nil)
	c.Ops = []x86.Instruction{
		{Op: x86.OpRet, Flags: x86.FlagTAIL},
	}
	if inferIsStdcall(c) {
		t.Errorf("a plain ret should not infer stdcall")
	}
}

func TestInferHasRetWrite(t *testing.T) {
	c := analysis.NewContext(proto.EmptyDB{}, nil)
	c.Ops = []x86.Instruction{
		{Op: x86.OpMov, OperandCount: 2, Operands: [x86.MaxOperands]x86.Operand{regOp(x86.RegAX, x86.LenDword), constOp(1)}, RegMaskDst: x86.RegMask(x86.RegAX.Mask())},
	}
	if inferHasRet(c) != HasRetTrue {
		t.Errorf("got %v, want HasRetTrue", inferHasRet(c))
	}
}

func TestInferHasRetForwardedFromCall(t *testing.T) {
	c := analysis.NewContext(proto.EmptyDB{}, nil)
	c.Ops = []x86.Instruction{
		{Op: x86.OpCall, RegMaskDst: x86.RegMask(x86.RegAX.Mask())},
	}
	if inferHasRet(c) != HasRetUnresolved {
		t.Errorf("got %v, want HasRetUnresolved", inferHasRet(c))
	}
}

func TestInferHasRetNever(t *testing.T) {
	c := analysis.NewContext(proto.EmptyDB{}, nil)
	c.Ops = []x86.Instruction{
		{Op: x86.OpNop},
	}
	if inferHasRet(c) != HasRetFalse {
		t.Errorf("got %v, want HasRetFalse", inferHasRet(c))
	}
}

func TestResolveDepsPropagatesAcrossCallers(t *testing.T) {
	leaf := &Guess{Name: "leaf", RegMaskDep: x86.RegMask(x86.RegCX.Mask()), HasRet: HasRetTrue}
	mid := &Guess{Name: "mid", HasRet: HasRetUnresolved, Callees: []string{"leaf"}}
	all := map[string]*Guess{"leaf": leaf, "mid": mid}
	ResolveDeps(all)
	if !mid.RegMaskDep.Has(x86.RegCX) {
		t.Errorf("mid should inherit leaf's RegMaskDep")
	}
	if mid.HasRet != HasRetTrue {
		t.Errorf("mid should inherit leaf's resolved HasRet, got %v", mid.HasRet)
	}
}

func TestResolveDepsBreaksCycle(t *testing.T) {
	a := &Guess{Name: "a", Callees: []string{"b"}}
	b := &Guess{Name: "b", Callees: []string{"a"}}
	all := map[string]*Guess{"a": a, "b": b}
	ResolveDeps(all) // must terminate
	if !a.depResolved || !b.depResolved {
		t.Errorf("both a and b should be marked resolved despite the cycle")
	}
}

func TestToProtoSynthesizesArgs(t *testing.T) {
	g := Guess{Name: "sub_401000", ArgCStack: 2, IsStdcall: true, HasRet: HasRetTrue}
	p := g.ToProto()
	if p.ArgC != 2 || len(p.Args) != 2 || !p.IsStdcall || !p.HasRetReg {
		t.Errorf("got %+v", p)
	}
}
