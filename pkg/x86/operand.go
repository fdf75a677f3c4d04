package x86

import "github.com/oisee/x86trans/pkg/proto"

// LenMod is the operand/instruction width tag. Order matters: widening
// decisions compare tags directly (spec.md §3).
type LenMod uint8

const (
	LenUnspec LenMod = iota
	LenByte
	LenWord
	LenDword
	LenQword
)

// Bytes returns the width in bytes, or 0 for LenUnspec.
func (l LenMod) Bytes() int {
	switch l {
	case LenByte:
		return 1
	case LenWord:
		return 2
	case LenDword:
		return 4
	case LenQword:
		return 8
	default:
		return 0
	}
}

func (l LenMod) String() string {
	switch l {
	case LenByte:
		return "byte"
	case LenWord:
		return "word"
	case LenDword:
		return "dword"
	case LenQword:
		return "qword"
	default:
		return "unspec"
	}
}

// OperandKind is the variant tag of an Operand.
type OperandKind uint8

const (
	OprUnspec OperandKind = iota
	OprReg
	OprRegMem // memory through an addressing expression
	OprLabel  // named symbol
	OprOffset // address-of symbol used as an immediate
	OprConst  // numeric immediate
)

// OperandFlag is a small flag set carried per Operand.
type OperandFlag uint8

const (
	OperandIsPtr OperandFlag = 1 << iota
	OperandIsArray
	OperandTypeFromVar // width was inferred from the header, not the mnemonic
	OperandSizeMismatch
	OperandSizeLT // inferred width smaller than the mnemonic requested
	OperandHadDS  // stripped a "ds:" prefix
)

func (f OperandFlag) Has(bit OperandFlag) bool { return f&bit != 0 }

// Operand is one operand of an Instruction (spec.md §3).
type Operand struct {
	Kind  OperandKind
	Width LenMod
	Reg   Reg
	Value uint64 // for OprConst

	// Name carries the label/symbol name for OprLabel/OprOffset, or the
	// rendered memory expression text for OprRegMem.
	Name string

	// Proto is set for OprLabel/OprOffset operands that resolved against
	// the header's ProtoDB.
	Proto *proto.Proto

	Flags OperandFlag

	// IndirectRegs is the set of registers referenced inside a RegMem
	// addressing expression (e.g. both EBX and ESI in [ebx+esi+4]).
	IndirectRegs RegMask
}

// IsMemory reports whether the operand reads/writes through memory.
func (o Operand) IsMemory() bool { return o.Kind == OprRegMem }

// Zero reports whether the operand slot is unused.
func (o Operand) Zero() bool { return o.Kind == OprUnspec }
