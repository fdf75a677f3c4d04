package parser

import "github.com/oisee/x86trans/pkg/x86"

var reg32 = map[string]x86.Reg{
	"eax": x86.RegAX, "ebx": x86.RegBX, "ecx": x86.RegCX, "edx": x86.RegDX,
	"esi": x86.RegSI, "edi": x86.RegDI, "ebp": x86.RegBP, "esp": x86.RegSP,
}
var regMM = map[string]x86.Reg{
	"mm0": x86.RegMM0, "mm1": x86.RegMM1, "mm2": x86.RegMM2, "mm3": x86.RegMM3,
	"mm4": x86.RegMM4, "mm5": x86.RegMM5, "mm6": x86.RegMM6, "mm7": x86.RegMM7,
}
var reg16 = map[string]x86.Reg{
	"ax": x86.RegAX, "bx": x86.RegBX, "cx": x86.RegCX, "dx": x86.RegDX,
	"si": x86.RegSI, "di": x86.RegDI, "bp": x86.RegBP, "sp": x86.RegSP,
}
var reg8l = map[string]x86.Reg{
	"al": x86.RegAX, "bl": x86.RegBX, "cl": x86.RegCX, "dl": x86.RegDX,
}
var reg8h = map[string]x86.Reg{
	"ah": x86.RegAX, "bh": x86.RegBX, "ch": x86.RegCX, "dh": x86.RegDX,
}

// RecognizeRegister returns the register and width a bare register-name
// token denotes, checked in the same precedence order as the original
// parse_reg: 32-bit/MMX, then 16-bit, then 8-bit-high, then 8-bit-low.
func RecognizeRegister(word string) (x86.Reg, x86.LenMod, bool) {
	if r, ok := reg32[word]; ok {
		return r, x86.LenDword, true
	}
	if r, ok := regMM[word]; ok {
		return r, x86.LenQword, true
	}
	if r, ok := reg16[word]; ok {
		return r, x86.LenWord, true
	}
	if r, ok := reg8h[word]; ok {
		return r, x86.LenByte, true
	}
	if r, ok := reg8l[word]; ok {
		return r, x86.LenByte, true
	}
	return x86.RegUnspec, x86.LenUnspec, false
}
