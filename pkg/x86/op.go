package x86

// Op is the mnemonic-op enum a parsed instruction is tagged with.
type Op uint8

const (
	OpInvalid Op = iota
	OpNop
	OpPush
	OpPop
	OpLeave
	OpMov
	OpLea
	OpMovzx
	OpMovsx
	OpXchg
	OpNot
	OpCdq
	OpLods
	OpStos
	OpMovs
	OpCmps
	OpScas
	OpStd
	OpCld
	OpRet
	OpAdd
	OpSub
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpSar
	OpShrd
	OpRol
	OpRor
	OpRcl
	OpRcr
	OpAdc
	OpSbb
	OpBsf
	OpInc
	OpDec
	OpNeg
	OpMul
	OpImul
	OpDiv
	OpIdiv
	OpTest
	OpCmp
	OpCall
	OpJmp
	OpJecxz
	OpJcc
	OpScc
	OpEmms
)

// CondOp is the condition-flag operation a Jcc/SETcc/adc/sbb/rcl/rcr
// depends on (spec.md glossary: pfo).
type CondOp uint8

const (
	CondNone CondOp = iota
	CondO          // OF=1
	CondC          // CF=1
	CondZ          // ZF=1
	CondBE         // CF=1||ZF=1
	CondS          // SF=1
	CondP          // PF=1
	CondL          // SF!=OF
	CondLE         // ZF=1||SF!=OF
)

func (c CondOp) String() string {
	switch c {
	case CondO:
		return "o"
	case CondC:
		return "c"
	case CondZ:
		return "z"
	case CondBE:
		return "be"
	case CondS:
		return "s"
	case CondP:
		return "p"
	case CondL:
		return "l"
	case CondLE:
		return "le"
	default:
		return ""
	}
}

// InstrFlag is the per-instruction bitset (spec.md §3).
type InstrFlag uint32

const (
	FlagRMD    InstrFlag = 1 << iota // removed/optimized out
	FlagDATA                        // writes operand[0]
	FlagFLAGS                       // sets condition flags
	FlagJMP                         // branch or call
	FlagCJMP                        // conditional branch
	FlagCC                          // consumes condition flags
	FlagTAIL                        // ret or tail call
	FlagRSAVE                       // push/pop is a callee-save pair
	FlagREP                         // rep-prefixed string op
	FlagREPZ                        // rep is repe/repz
	FlagREPNZ                       // rep is repne/repnz
	FlagFARG                        // push collected as a call argument
	FlagEBPScratch                  // ebp used as scratch, not frame pointer
	FlagDF                          // direction flag set at this instruction
	FlagATAIL                       // tail call reusing incoming arg frame
	Flag32BIT                       // 32-bit (not 64-bit) division variant
	FlagLOCK                        // lock prefix present
	FlagVAPUSH                      // vararg list push
)

func (f InstrFlag) Has(bit InstrFlag) bool { return f&bit != 0 }

// condCJmpFlags is the flag set every conditional-branch op_table row also
// carries (OPF_CJMP_CC in the original: OPF_JMP|OPF_CJMP|OPF_CC).
const condCJmpFlags = FlagJMP | FlagCJMP | FlagCC

// MaxOperands is the maximum operand count any instruction carries.
const MaxOperands = 3

// MaxOps is the minimum required instruction-array capacity per procedure
// (spec.md §3 invariants: "never exceeds a fixed capacity (>= 4096)").
const MaxOps = 4096

// MaxArgGroups bounds the number of interleaved pending-call argument
// groups tracked at once (spec.md §7 capacity category).
const MaxArgGroups = 2
