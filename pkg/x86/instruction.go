package x86

import "github.com/oisee/x86trans/pkg/proto"

// JumpTableEntry is one element of a recovered jump table: a label
// reference inside the procedure, plus the instruction index it resolved
// to once linked (-1 until then).
type JumpTableEntry struct {
	Label string
	BTIdx int
}

// JumpTable is the parsed_data entry recovered for an indirect jump
// (spec.md §4.5).
type JumpTable struct {
	Label   string // name of the data symbol (e.g. "tab")
	Entries []JumpTableEntry
}

// Instruction is one parsed instruction (spec.md §3).
type Instruction struct {
	Op           Op
	Operands     [MaxOperands]Operand
	OperandCount int

	Flags InstrFlag

	PFO    CondOp
	PFOInv bool

	// RegMaskSrc/RegMaskDst: bit i set iff the instruction reads/writes
	// register RegAX+i.
	RegMaskSrc RegMask
	RegMaskDst RegMask

	// PFOMask indicates which condition-flag results must be materialized
	// into C variables for later consumers (bit CondX set per x86.CondOp).
	PFOMask uint16

	// CCScratch is a visited-epoch marker reused across traversals.
	CCScratch int

	// BranchTarget is the resolved instruction-array index for a branch,
	// or -1 if unresolved / not a branch.
	BranchTarget int

	JumpTable *JumpTable

	// Proto is the (possibly synthesized, possibly cloned) prototype for a
	// OpCall instruction.
	Proto *proto.Proto

	// Push/pop bookkeeping for call-argument collection (spec.md §4.7).
	ArgNum   int // 1-based index into the callee's argument list, or 0
	ArgGroup int // which pending call's argument group this push belongs to
	ArgPass  int // pass-through arg index (forwarding a caller's own arg)
	ArgNext  int // index of another push of the same logical argument, or -1

	// Line/File identify the source disassembly location for diagnostics.
	File string
	Line int

	// setterOf records, for a FlagCC consumer, the index of the single
	// flag-setting predecessor when it can be identified directly (the
	// "direct path" of spec.md §4.9/§8 property 4); -1 otherwise.
	setterOf int

	// CondSrc is the resolved condition-predicate source for a FlagCC
	// consumer, computed by the backward flag-setter trace.
	CondSrc CondSource
}

// NewInstruction returns an Instruction with branch/arg-chain fields reset
// to their "unresolved" sentinel values.
func NewInstruction() Instruction {
	return Instruction{BranchTarget: -1, ArgNext: -1, setterOf: -1}
}

// SetterOf returns the flag-setter instruction index for a FlagCC
// instruction resolved via the direct path, or -1 if none / not yet set.
func (in *Instruction) SetterOf() int { return in.setterOf }

// SetSetterOf records the direct-path flag-setter index.
func (in *Instruction) SetSetterOf(i int) { in.setterOf = i }

// Equate is a symbolic stack-offset name emitted by the disassembler, e.g.
// "arg_8 = dword ptr 10h" (spec.md glossary).
type Equate struct {
	Name   string
	Width  LenMod
	Offset int
}

// LabelRef links a labelled instruction to one of its referencing branch
// sites; entries for one label form a singly linked list via Next.
type LabelRef struct {
	InstrIdx int
	Next     *LabelRef
}
