package parser

import (
	"testing"

	"github.com/oisee/x86trans/pkg/proto"
	"github.com/oisee/x86trans/pkg/x86"
)

func TestParseInstructionSimple(t *testing.T) {
	in, err := ParseInstruction([]string{"mov", "eax,", "ebx"}, proto.EmptyDB{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Op != x86.OpMov || in.OperandCount != 2 {
		t.Fatalf("got %+v", in)
	}
	if in.Operands[0].Reg != x86.RegAX || in.Operands[1].Reg != x86.RegBX {
		t.Errorf("got operands %+v", in.Operands)
	}
	if !in.RegMaskDst.Has(x86.RegAX) || !in.RegMaskSrc.Has(x86.RegBX) {
		t.Errorf("reg masks: src=%#x dst=%#x", in.RegMaskSrc, in.RegMaskDst)
	}
}

func TestParseInstructionUnknownMnemonic(t *testing.T) {
	if _, err := ParseInstruction([]string{"frobnicate", "eax"}, proto.EmptyDB{}); err == nil {
		t.Errorf("expected an error for an unknown mnemonic")
	}
}

func TestParseInstructionPrefix(t *testing.T) {
	in, err := ParseInstruction([]string{"rep", "stosd"}, proto.EmptyDB{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !in.Flags.Has(x86.FlagREP) {
		t.Errorf("expected FlagREP, got %#x", in.Flags)
	}
	if in.Op != x86.OpStos || in.OperandCount != 3 {
		t.Errorf("got %+v", in)
	}
}

func TestParseInstructionCdqImplicitOperands(t *testing.T) {
	in, err := ParseInstruction([]string{"cdq"}, proto.EmptyDB{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.OperandCount != 2 || in.Operands[0].Reg != x86.RegDX || in.Operands[1].Reg != x86.RegAX {
		t.Errorf("got %+v", in)
	}
}

func TestParseInstructionDivImplicitOperands(t *testing.T) {
	in, err := ParseInstruction([]string{"div", "ecx"}, proto.EmptyDB{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.OperandCount != 3 {
		t.Fatalf("got %+v", in)
	}
	if in.Operands[1].Reg != x86.RegDX || in.Operands[2].Reg != x86.RegAX {
		t.Errorf("got %+v", in.Operands)
	}
}

func TestParseInstructionWrongOperandCount(t *testing.T) {
	if _, err := ParseInstruction([]string{"add", "eax"}, proto.EmptyDB{}); err == nil {
		t.Errorf("expected an error: add requires 2 operands")
	}
}

func TestParseInstructionMovSelfIsRMD(t *testing.T) {
	in, err := ParseInstruction([]string{"mov", "eax,", "eax"}, proto.EmptyDB{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !in.Flags.Has(x86.FlagRMD) {
		t.Errorf("mov eax, eax should be flagged FlagRMD")
	}
}

func TestParseInstructionXorSelfClearsSource(t *testing.T) {
	in, err := ParseInstruction([]string{"xor", "eax,", "eax"}, proto.EmptyDB{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !in.Operands[1].Zero() {
		t.Errorf("xor eax, eax should clear the source operand, got %+v", in.Operands[1])
	}
}

func TestParseInstructionRMWFoldsDestIntoSource(t *testing.T) {
	in, err := ParseInstruction([]string{"inc", "ecx"}, proto.EmptyDB{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !in.RegMaskSrc.Has(x86.RegCX) || !in.RegMaskDst.Has(x86.RegCX) {
		t.Errorf("inc ecx: src=%#x dst=%#x, want ECX in both", in.RegMaskSrc, in.RegMaskDst)
	}
}
