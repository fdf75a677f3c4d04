package x86

// MnemonicInfo is one static mnemonic-table entry (spec.md §4.2).
type MnemonicInfo struct {
	Op        Op
	MinOperands int
	MaxOperands int
	Flags     InstrFlag
	PFO       CondOp
	PFOInv    bool
}

// mnemonicTable is the ~130-entry static table mapping an exact mnemonic
// string to its op/operand-count/flags/condition-code data. Grounded on
// the op_table[] of the translator this spec was distilled from.
var mnemonicTable = map[string]MnemonicInfo{
	"nop":   {Op: OpNop},
	"push":  {Op: OpPush, MinOperands: 1, MaxOperands: 1},
	"pop":   {Op: OpPop, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA},
	"leave": {Op: OpLeave, Flags: FlagDATA},
	"mov":   {Op: OpMov, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA},
	"lea":   {Op: OpLea, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA},
	"movzx": {Op: OpMovzx, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA},
	"movsx": {Op: OpMovsx, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA},
	"xchg":  {Op: OpXchg, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA},
	"not":   {Op: OpNot, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA},
	"cdq":   {Op: OpCdq, Flags: FlagDATA},

	"lodsb": {Op: OpLods, Flags: FlagDATA},
	"lodsw": {Op: OpLods, Flags: FlagDATA},
	"lodsd": {Op: OpLods, Flags: FlagDATA},
	"stosb": {Op: OpStos, Flags: FlagDATA},
	"stosw": {Op: OpStos, Flags: FlagDATA},
	"stosd": {Op: OpStos, Flags: FlagDATA},
	"movsb": {Op: OpMovs, Flags: FlagDATA},
	"movsw": {Op: OpMovs, Flags: FlagDATA},
	"movsd": {Op: OpMovs, Flags: FlagDATA},
	"cmpsb": {Op: OpCmps, Flags: FlagDATA | FlagFLAGS},
	"cmpsw": {Op: OpCmps, Flags: FlagDATA | FlagFLAGS},
	"cmpsd": {Op: OpCmps, Flags: FlagDATA | FlagFLAGS},
	"scasb": {Op: OpScas, Flags: FlagDATA | FlagFLAGS},
	"scasw": {Op: OpScas, Flags: FlagDATA | FlagFLAGS},
	"scasd": {Op: OpScas, Flags: FlagDATA | FlagFLAGS},

	"std": {Op: OpStd, Flags: FlagDATA},
	"cld": {Op: OpCld, Flags: FlagDATA},

	"add": {Op: OpAdd, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS},
	"sub": {Op: OpSub, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS},
	"and": {Op: OpAnd, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS},
	"or":  {Op: OpOr, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS},
	"xor": {Op: OpXor, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS},
	"shl": {Op: OpShl, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS},
	"shr": {Op: OpShr, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS},
	"sal": {Op: OpShl, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS},
	"sar": {Op: OpSar, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS},

	"shrd": {Op: OpShrd, MinOperands: 3, MaxOperands: 3, Flags: FlagDATA | FlagFLAGS},
	"rol":  {Op: OpRol, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS},
	"ror":  {Op: OpRor, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS},
	"rcl":  {Op: OpRcl, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS | FlagCC, PFO: CondC},
	"rcr":  {Op: OpRcr, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS | FlagCC, PFO: CondC},
	"adc":  {Op: OpAdc, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS | FlagCC, PFO: CondC},
	"sbb":  {Op: OpSbb, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS | FlagCC, PFO: CondC},
	"bsf":  {Op: OpBsf, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA | FlagFLAGS},

	"inc": {Op: OpInc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagFLAGS},
	"dec": {Op: OpDec, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagFLAGS},
	"neg": {Op: OpNeg, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagFLAGS},

	"mul":  {Op: OpMul, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagFLAGS},
	"imul": {Op: OpImul, MinOperands: 1, MaxOperands: 3, Flags: FlagDATA | FlagFLAGS},
	"div":  {Op: OpDiv, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagFLAGS},
	"idiv": {Op: OpIdiv, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagFLAGS},

	"test": {Op: OpTest, MinOperands: 2, MaxOperands: 2, Flags: FlagFLAGS},
	"cmp":  {Op: OpCmp, MinOperands: 2, MaxOperands: 2, Flags: FlagFLAGS},

	"retn": {Op: OpRet, MinOperands: 0, MaxOperands: 1, Flags: FlagTAIL},
	"ret":  {Op: OpRet, MinOperands: 0, MaxOperands: 1, Flags: FlagTAIL},

	"call":  {Op: OpCall, MinOperands: 1, MaxOperands: 1, Flags: FlagJMP | FlagDATA | FlagFLAGS},
	"jmp":   {Op: OpJmp, MinOperands: 1, MaxOperands: 1, Flags: FlagJMP},
	"jecxz": {Op: OpJecxz, MinOperands: 1, MaxOperands: 1, Flags: FlagJMP | FlagCJMP},

	"jo":   {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondO},
	"jno":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondO, PFOInv: true},
	"jc":   {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondC},
	"jb":   {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondC},
	"jnc":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondC, PFOInv: true},
	"jnb":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondC, PFOInv: true},
	"jae":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondC, PFOInv: true},
	"jz":   {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondZ},
	"je":   {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondZ},
	"jnz":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondZ, PFOInv: true},
	"jne":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondZ, PFOInv: true},
	"jbe":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondBE},
	"jna":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondBE},
	"ja":   {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondBE, PFOInv: true},
	"jnbe": {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondBE, PFOInv: true},
	"js":   {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondS},
	"jns":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondS, PFOInv: true},
	"jp":   {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondP},
	"jpe":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondP},
	"jnp":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondP, PFOInv: true},
	"jpo":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondP, PFOInv: true},
	"jl":   {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondL},
	"jnge": {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondL},
	"jge":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondL, PFOInv: true},
	"jnl":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondL, PFOInv: true},
	"jle":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondLE},
	"jng":  {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondLE},
	"jg":   {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondLE, PFOInv: true},
	"jnle": {Op: OpJcc, MinOperands: 1, MaxOperands: 1, Flags: condCJmpFlags, PFO: CondLE, PFOInv: true},

	"seto":   {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondO},
	"setno":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondO, PFOInv: true},
	"setc":   {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondC},
	"setb":   {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondC},
	"setnc":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondC, PFOInv: true},
	"setae":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondC, PFOInv: true},
	"setnb":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondC, PFOInv: true},
	"setz":   {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondZ},
	"sete":   {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondZ},
	"setnz":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondZ, PFOInv: true},
	"setne":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondZ, PFOInv: true},
	"setbe":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondBE},
	"setna":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondBE},
	"seta":   {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondBE, PFOInv: true},
	"setnbe": {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondBE, PFOInv: true},
	"sets":   {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondS},
	"setns":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondS, PFOInv: true},
	"setp":   {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondP},
	"setpe":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondP},
	"setnp":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondP, PFOInv: true},
	"setpo":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondP, PFOInv: true},
	"setl":   {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondL},
	"setnge": {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondL},
	"setge":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondL, PFOInv: true},
	"setnl":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondL, PFOInv: true},
	"setle":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondLE},
	"setng":  {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondLE},
	"setg":   {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondLE, PFOInv: true},
	"setnle": {Op: OpScc, MinOperands: 1, MaxOperands: 1, Flags: FlagDATA | FlagCC, PFO: CondLE, PFOInv: true},

	"emms": {Op: OpEmms, Flags: FlagDATA},
	"movq": {Op: OpMov, MinOperands: 2, MaxOperands: 2, Flags: FlagDATA},
}

// LookupMnemonic returns the static table entry for an exact mnemonic
// match, and whether it exists.
func LookupMnemonic(mnemonic string) (MnemonicInfo, bool) {
	info, ok := mnemonicTable[mnemonic]
	return info, ok
}

// prefixTable is the recognized instruction-prefix keyword set
// (spec.md §4.2).
var prefixTable = map[string]InstrFlag{
	"rep":    FlagREP,
	"repe":   FlagREP | FlagREPZ,
	"repz":   FlagREP | FlagREPZ,
	"repne":  FlagREP | FlagREPNZ,
	"repnz":  FlagREP | FlagREPNZ,
	"lock":   FlagLOCK,
}

// LookupPrefix returns the flags ORed in by a recognized instruction
// prefix keyword.
func LookupPrefix(word string) (InstrFlag, bool) {
	f, ok := prefixTable[word]
	return f, ok
}

// IsStringOp reports whether op is one of the lods/stos/movs/cmps/scas
// family that receives implicit edi/esi/ecx/eax operands.
func IsStringOp(op Op) bool {
	switch op {
	case OpLods, OpStos, OpMovs, OpCmps, OpScas:
		return true
	default:
		return false
	}
}

// IsReadModifyWrite reports whether op folds its destination mask into its
// source mask (spec.md §4.2 per-op fixups).
func IsReadModifyWrite(op Op) bool {
	switch op {
	case OpNot, OpAdd, OpAnd, OpOr, OpRcl, OpRcr, OpAdc, OpInc, OpDec, OpNeg,
		OpSub, OpSbb, OpXor, OpShl, OpShr, OpSar, OpRol, OpRor, OpShrd, OpPush, OpImul:
		return true
	default:
		return false
	}
}
