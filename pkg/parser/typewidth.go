package parser

import (
	"github.com/oisee/x86trans/pkg/proto"
	"github.com/oisee/x86trans/pkg/x86"
)

// dwordTypeNames / wordTypeNames / byteTypeNames are the width-inference
// table of spec.md §4.1, applied to a header-declared C type name in
// precedence order: function/function-pointer, then DWORD-width names,
// then WORD-width names, then BYTE-width names.
var dwordTypeNames = map[string]bool{
	"int": true, "DWORD": true, "UINT": true, "LONG": true, "float": true,
	"BOOL": true, "size_t": true, "unsigned": true, "unsigned int": true,
	"__int32": true, "int32_t": true, "uint32_t": true,
}
var wordTypeNames = map[string]bool{
	"int16_t": true, "WORD": true, "uint16_t": true, "__int16": true, "short": true,
}
var byteTypeNames = map[string]bool{
	"char": true, "BYTE": true, "int8_t": true, "uint8_t": true,
	"CRITICAL_SECTION": true, "_UNKNOWN": true, "unsigned char": true,
}

// InferWidthFromCType applies the width-inference table to a header type
// name. isPtr reports whether the type should additionally be treated as a
// pointer operand.
func InferWidthFromCType(t proto.CType) (width x86.LenMod, isPtr bool, ok bool) {
	if t.IsFunc || t.IsFPtr {
		return x86.LenDword, true, true
	}
	switch {
	case dwordTypeNames[t.Name]:
		return x86.LenDword, false, true
	case wordTypeNames[t.Name]:
		return x86.LenWord, false, true
	case byteTypeNames[t.Name]:
		return x86.LenByte, false, true
	default:
		return x86.LenUnspec, false, false
	}
}
