package parser

import (
	"fmt"
	"strings"

	"github.com/oisee/x86trans/pkg/proto"
	"github.com/oisee/x86trans/pkg/x86"
)

// sizePrefixWidths maps a size-prefix keyword to its width tag
// (spec.md §4.1 step 2).
var sizePrefixWidths = map[string]x86.LenMod{
	"byte": x86.LenByte, "word": x86.LenWord, "dword": x86.LenDword, "qword": x86.LenQword,
}

// isBranchOp reports whether op's single operand is a branch target.
func isBranchOp(op x86.Op) bool {
	switch op {
	case x86.OpJmp, x86.OpJcc, x86.OpJecxz, x86.OpCall:
		return true
	default:
		return false
	}
}

// ParseOperand converts the words starting at index i into one fully
// populated Operand and returns the next unconsumed word index
// (spec.md §4.1).
func ParseOperand(words []string, i int, op x86.Op, db proto.DB) (x86.Operand, int, error) {
	if i >= len(words) {
		return x86.Operand{}, i, fmt.Errorf("operand expected, got end of line")
	}

	// Step 1: branch label recognition, optionally preceded by
	// "near ptr" or "short". Only commits if the remaining token is a bare
	// identifier — an indirect branch ("jmp [eax]") falls through to the
	// generic cases below.
	if isBranchOp(op) {
		j := i
		switch {
		case words[j] == "short":
			j++
		case j+1 < len(words) && words[j] == "near" && words[j+1] == "ptr":
			j += 2
		}
		if j < len(words) && looksLikeBareLabel(words[j]) {
			opr := x86.Operand{Kind: x86.OprLabel, Width: x86.LenDword, Name: words[j]}
			annotateLabel(&opr, db)
			return opr, j + 1, nil
		}
	}

	// Step 2: "<size> ptr" prefix.
	width := x86.LenUnspec
	if w, ok := sizePrefixWidths[words[i]]; ok && i+1 < len(words) && words[i+1] == "ptr" {
		width = w
		i += 2
		if i >= len(words) {
			return x86.Operand{}, i, fmt.Errorf("operand expected after size prefix")
		}
	}

	// Step 3: "offset <sym>" / "(offset <sym>)".
	if words[i] == "offset" || words[i] == "(offset" {
		if i+1 >= len(words) {
			return x86.Operand{}, i, fmt.Errorf("offset expects a symbol")
		}
		name := strings.TrimSuffix(words[i+1], ")")
		opr := x86.Operand{Kind: x86.OprOffset, Width: x86.LenDword, Name: name}
		annotateLabel(&opr, db)
		return opr, i + 2, nil
	}

	word := words[i]
	hadDS := false
	if strings.HasPrefix(word, "ds:") {
		word = word[3:]
		hadDS = true
	} else if strings.HasPrefix(word, "cs:") || strings.HasPrefix(word, "ss:") || strings.HasPrefix(word, "es:") {
		word = word[3:]
	} else if strings.HasPrefix(word, "fs:") || strings.HasPrefix(word, "gs:") {
		return x86.Operand{}, i, fmt.Errorf("unsupported segment prefix in %q", words[i])
	}

	switch {
	case strings.HasPrefix(word, "["):
		opr, err := parseBracket(word, width)
		if err != nil {
			return x86.Operand{}, i, err
		}
		if hadDS {
			opr.Flags |= x86.OperandHadDS
		}
		return opr, i + 1, nil

	case strings.ContainsRune(word, '[') && !strings.HasPrefix(word, "["):
		// label[reg] form: the leading identifier is kept as the name,
		// the bracketed part contributes an indirect register mask.
		br := strings.IndexByte(word, '[')
		label := word[:br]
		inner, err := parseBracket(word[br:], width)
		if err != nil {
			return x86.Operand{}, i, err
		}
		inner.Name = word
		_ = label
		if hadDS {
			inner.Flags |= x86.OperandHadDS
		}
		return inner, i + 1, nil

	case LooksNumeric(word):
		v, err := ParseNumber(word)
		if err != nil {
			return x86.Operand{}, i, err
		}
		return x86.Operand{Kind: x86.OprConst, Width: width, Value: v}, i + 1, nil
	}

	if r, w, ok := RecognizeRegister(word); ok {
		rw := w
		if width != x86.LenUnspec {
			rw = width
		}
		return x86.Operand{Kind: x86.OprReg, Width: rw, Reg: r}, i + 1, nil
	}

	// Any remaining identifier is a label.
	opr := x86.Operand{Kind: x86.OprLabel, Width: width, Name: word}
	if hadDS {
		opr.Flags |= x86.OperandHadDS
	}
	annotateLabel(&opr, db)
	return opr, i + 1, nil
}

func looksLikeBareLabel(word string) bool {
	if word == "" {
		return false
	}
	if strings.ContainsAny(word, "[]") {
		return false
	}
	if _, _, ok := RecognizeRegister(word); ok {
		return false
	}
	return !LooksNumeric(word)
}

// parseBracket parses a "[...]" addressing expression, re-emitting numeric
// literals in C-friendly form and collecting the set of referenced
// registers (spec.md §4.1 step 4).
func parseBracket(expr string, width x86.LenMod) (x86.Operand, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(expr, "["), "]")
	parts := splitAddrTerms(inner)

	var mask x86.RegMask
	var rendered []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		// "reg*scale" — keep the register, drop the scale in the raw
		// name (the renderer re-derives addressing math from width/regs).
		base := part
		if star := strings.IndexByte(part, '*'); star >= 0 {
			base = part[:star]
		}
		if r, _, ok := RecognizeRegister(base); ok {
			mask = mask.With(r)
			rendered = append(rendered, part)
			continue
		}
		if LooksNumeric(part) {
			v, err := ParseNumber(part)
			if err != nil {
				return x86.Operand{}, err
			}
			rendered = append(rendered, fmt.Sprintf("%d", int64(v)))
			continue
		}
		rendered = append(rendered, part) // symbolic term (var_*, arg_*, label)
	}

	return x86.Operand{
		Kind:         x86.OprRegMem,
		Width:        width,
		Name:         "[" + strings.Join(rendered, "+") + "]",
		IndirectRegs: mask,
	}, nil
}

// splitAddrTerms splits an addressing-expression body on '+' while
// tolerating a leading '-' on the first term (e.g. "-4+eax").
func splitAddrTerms(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '+' && i != start {
			out = append(out, s[start:i])
			start = i + 1
		} else if s[i] == '-' && i != start {
			out = append(out, s[start:i])
			start = i
		}
	}
	out = append(out, s[start:])
	return out
}

// annotateLabel consults the ProtoDB to type-annotate a LABEL/OFFSET
// operand (spec.md §4.1).
func annotateLabel(opr *x86.Operand, db proto.DB) {
	if db == nil {
		return
	}
	p, ok := db.Lookup(opr.Name)
	if !ok {
		return
	}
	opr.Proto = p
	opr.Flags |= x86.OperandTypeFromVar
	if p.IsFunc || p.IsFPtr {
		opr.Width = x86.LenDword
		opr.Flags |= x86.OperandIsPtr
		return
	}
	ct := p.Return
	if len(p.Args) == 0 && !p.IsFunc {
		// variable reference (not a call target): the Proto's Return field
		// doubles as the variable's own C type for plain data labels.
	}
	w, isPtr, ok := InferWidthFromCType(ct)
	if !ok {
		return
	}
	if ct.IsArray {
		opr.Flags |= x86.OperandIsArray
	}
	if isPtr || ct.IsPointer {
		opr.Flags |= x86.OperandIsPtr
	}
	if opr.Width != x86.LenUnspec && opr.Width != w {
		opr.Flags |= x86.OperandSizeMismatch
		if w < opr.Width {
			opr.Flags |= x86.OperandSizeLT
		}
	}
	opr.Width = w
}
