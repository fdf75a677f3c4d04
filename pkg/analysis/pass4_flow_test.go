package analysis

import (
	"testing"

	"github.com/oisee/x86trans/pkg/proto"
	"github.com/oisee/x86trans/pkg/x86"
)

func TestPairSaveRegistersFindsMatchingPop(t *testing.T) {
	c := NewContext(proto.EmptyDB{}, nil)
	c.Ops = []x86.Instruction{
		{Op: x86.OpPush, OperandCount: 1, Operands: [x86.MaxOperands]x86.Operand{regOp(x86.RegSI, x86.LenDword)}, BranchTarget: -1},
		{Op: x86.OpMov, OperandCount: 2, Operands: [x86.MaxOperands]x86.Operand{regOp(x86.RegAX, x86.LenDword), regOp(x86.RegCX, x86.LenDword)}, RegMaskDst: x86.RegMask(x86.RegAX.Mask()), BranchTarget: -1},
		{Op: x86.OpPop, OperandCount: 1, Operands: [x86.MaxOperands]x86.Operand{regOp(x86.RegSI, x86.LenDword)}, BranchTarget: -1},
		{Op: x86.OpRet, Flags: x86.FlagTAIL, BranchTarget: -1},
	}
	if err := c.pairSaveRegisters(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Ops[0].Flags.Has(x86.FlagRSAVE) {
		t.Errorf("push esi should be marked FlagRSAVE")
	}
	if !c.Ops[2].Flags.Has(x86.FlagRSAVE) {
		t.Errorf("pop esi should be marked FlagRSAVE")
	}
}

func TestPairSaveRegistersClobberedBeforeRestore(t *testing.T) {
	c := NewContext(proto.EmptyDB{}, nil)
	c.Ops = []x86.Instruction{
		{Op: x86.OpPush, OperandCount: 1, Operands: [x86.MaxOperands]x86.Operand{regOp(x86.RegSI, x86.LenDword)}, BranchTarget: -1},
		{Op: x86.OpMov, OperandCount: 2, Operands: [x86.MaxOperands]x86.Operand{regOp(x86.RegSI, x86.LenDword), regOp(x86.RegCX, x86.LenDword)}, RegMaskDst: x86.RegMask(x86.RegSI.Mask()), BranchTarget: -1},
		{Op: x86.OpRet, Flags: x86.FlagTAIL, BranchTarget: -1},
	}
	if err := c.pairSaveRegisters(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Ops[0].Flags.Has(x86.FlagRSAVE) {
		t.Errorf("push esi should not be marked FlagRSAVE when esi is clobbered before any pop")
	}
}

func TestPropagateDirectionFlagOK(t *testing.T) {
	c := NewContext(proto.EmptyDB{}, nil)
	c.Ops = []x86.Instruction{
		{Op: x86.OpStd},
		{Op: x86.OpStos, Flags: x86.FlagREP},
	}
	if err := c.propagateDirectionFlag(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Ops[1].Flags.Has(x86.FlagDF) {
		t.Errorf("stos after std should carry FlagDF")
	}
}

func TestPropagateDirectionFlagFatalWithoutSetter(t *testing.T) {
	c := NewContext(proto.EmptyDB{}, nil)
	c.FuncName = "sub_401000"
	c.Ops = []x86.Instruction{
		{Op: x86.OpStos, Flags: x86.FlagREP},
	}
	if err := c.propagateDirectionFlag(); err == nil {
		t.Errorf("expected a fatal error for a string op with no preceding std/cld")
	}
}

func TestTraceFlagSettersDirect(t *testing.T) {
	c := NewContext(proto.EmptyDB{}, nil)
	c.Ops = []x86.Instruction{
		{Op: x86.OpCmp, OperandCount: 2, Flags: x86.FlagFLAGS, BranchTarget: -1},
		{Op: x86.OpScc, Flags: x86.FlagCC, BranchTarget: -1},
	}
	c.LabelRefs = make([]*x86.LabelRef, len(c.Ops))
	c.traceFlagSetters()
	if c.Ops[1].CondSrc.Kind != x86.CondDirect || c.Ops[1].CondSrc.Setter != 0 {
		t.Errorf("got %+v", c.Ops[1].CondSrc)
	}
}

func TestTraceFlagSettersMaterializedAcrossLabel(t *testing.T) {
	c := NewContext(proto.EmptyDB{}, nil)
	c.Ops = []x86.Instruction{
		{Op: x86.OpCmp, OperandCount: 2, Flags: x86.FlagFLAGS, BranchTarget: -1},
		{Op: x86.OpNop, BranchTarget: -1}, // jump target: a second predecessor joins here
		{Op: x86.OpScc, Flags: x86.FlagCC, BranchTarget: -1},
	}
	c.LabelRefs = make([]*x86.LabelRef, len(c.Ops))
	c.LabelRefs[1] = &x86.LabelRef{InstrIdx: 0} // something branches into index 1
	c.traceFlagSetters()
	if c.Ops[2].CondSrc.Kind != x86.CondMaterialized {
		t.Errorf("got %+v, want CondMaterialized since a label join sits between setter and consumer", c.Ops[2].CondSrc)
	}
}

func TestDetectDivisionWidthCdq(t *testing.T) {
	c := NewContext(proto.EmptyDB{}, nil)
	c.Ops = []x86.Instruction{
		{Op: x86.OpCdq},
		{Op: x86.OpIdiv, OperandCount: 1},
	}
	c.detectDivisionWidth()
	if !c.Ops[1].Flags.Has(x86.Flag32BIT) {
		t.Errorf("idiv after cdq should be marked Flag32BIT")
	}
}

func TestDetectDivisionWidthNoSetter(t *testing.T) {
	c := NewContext(proto.EmptyDB{}, nil)
	c.Ops = []x86.Instruction{
		{Op: x86.OpDiv, OperandCount: 1},
	}
	c.detectDivisionWidth()
	if c.Ops[0].Flags.Has(x86.Flag32BIT) {
		t.Errorf("div with no preceding width-setter should not be marked Flag32BIT")
	}
}

func TestSynthesizeFastcallArgsMarksUnresolvedProto(t *testing.T) {
	c := NewContext(proto.EmptyDB{}, nil)
	c.Ops = []x86.Instruction{
		{
			Op:         x86.OpCall,
			Proto:      &proto.Proto{IsUnresolved: true},
			RegMaskSrc: x86.RegMask(x86.RegCX.Mask()),
		},
	}
	c.synthesizeFastcallArgs()
	if !c.Ops[0].Proto.IsFastcall {
		t.Errorf("expected IsFastcall to be set when ecx is live at an unresolved call")
	}
}
