// Package render turns an analyzed analysis.Context into straight-line C
// (spec.md §4.9): no control-structure recovery, explicit goto labels.
package render

import (
	"fmt"
	"strings"

	"github.com/oisee/x86trans/pkg/x86"
)

// castFor returns the C cast prefix, e.g. "(u8)" or "(s16)", for reading an
// operand at the given width/signedness.
func castFor(w x86.LenMod, signed bool) string {
	switch w {
	case x86.LenByte:
		if signed {
			return "(s8)"
		}
		return "(u8)"
	case x86.LenWord:
		if signed {
			return "(s16)"
		}
		return "(u16)"
	case x86.LenQword:
		if signed {
			return "(s64)"
		}
		return "(u64)"
	default:
		if signed {
			return "(s32)"
		}
		return "(u32)"
	}
}

// regExpr renders a register read at width w. Only the 32-bit (and MMX)
// locals are ever declared (declare.go), so a sub-dword read masks the full
// register instead of naming a variable that doesn't exist, e.g. "(u16)eax"
// rather than "ax" — the LOBYTE/LOWORD macros are assignment-target-only
// (regLvalue), since a plain read doesn't need to preserve the other bits.
func regExpr(r x86.Reg, w x86.LenMod, signed bool) string {
	name := r.Name32()
	if r.IsMMX() || w == x86.LenUnspec || w == x86.LenDword || w == x86.LenQword {
		if signed {
			return castFor(w, true) + name
		}
		return name
	}
	masked := castFor(w, false) + name
	if signed {
		return castFor(w, true) + masked
	}
	return masked
}

// regLvalue renders a register write at width w: the bare 32-bit name at
// dword width, or the LOBYTE/LOWORD runtime macro (spec.md §6.3's macro
// set) for a sub-dword destination, so the untouched high bits of the
// underlying 32-bit local survive the assignment.
func regLvalue(r x86.Reg, w x86.LenMod) string {
	name := r.Name32()
	if r.IsMMX() {
		return name
	}
	switch w {
	case x86.LenByte:
		return fmt.Sprintf("LOBYTE(%s)", name)
	case x86.LenWord:
		return fmt.Sprintf("LOWORD(%s)", name)
	default:
		return name
	}
}

// Operand renders one operand for use as an rvalue, applying a cast only
// when the operand's natural width differs from want, or when signedness
// matters for the consuming op.
func Operand(o x86.Operand, want x86.LenMod, signed bool) string {
	switch o.Kind {
	case x86.OprReg:
		return regExpr(o.Reg, o.Width, signed)
	case x86.OprConst:
		if fitsNarrow(o.Value, want) {
			return fmt.Sprintf("%d", o.Value)
		}
		return fmt.Sprintf("%s%d", castFor(want, signed), o.Value)
	case x86.OprLabel, x86.OprOffset:
		return "&" + o.Name
	case x86.OprRegMem:
		return derefMemory(o, want, signed)
	default:
		return "/*?*/"
	}
}

// fitsNarrow reports whether a constant value needs no explicit cast
// because it already fits the destination width (spec.md §4.9: "suppressed
// when the constant value fits in the narrower type").
func fitsNarrow(v uint64, w x86.LenMod) bool {
	switch w {
	case x86.LenByte:
		return v <= 0xFF
	case x86.LenWord:
		return v <= 0xFFFF
	default:
		return true
	}
}

// derefMemory renders a RegMem operand as a cast pointer dereference, e.g.
// "*(u8 *)(esi+4)", collapsing to the stack-frame/argument forms the
// analysis package's StackAccess already decided on when Operand.Name
// carries one of those renderings verbatim.
func derefMemory(o x86.Operand, want x86.LenMod, signed bool) string {
	if strings.HasPrefix(o.Name, "a") || strings.HasPrefix(o.Name, "sf.") {
		return o.Name // already a resolved stack-access rendering
	}
	width := o.Width
	if width == x86.LenUnspec {
		width = want
	}
	ptrType := castFor(width, signed)
	return fmt.Sprintf("*(%s *)%s", strings.TrimSuffix(strings.TrimPrefix(ptrType, "("), ")"), o.Name)
}

// Lvalue renders an operand as an assignment target — no cast on a plain
// register, a dereference for memory.
func Lvalue(o x86.Operand) string {
	switch o.Kind {
	case x86.OprReg:
		return regLvalue(o.Reg, o.Width)
	case x86.OprRegMem:
		if strings.HasPrefix(o.Name, "a") || strings.HasPrefix(o.Name, "sf.") {
			return o.Name
		}
		width := o.Width
		ptrType := strings.TrimSuffix(strings.TrimPrefix(castFor(width, false), "("), ")")
		return fmt.Sprintf("*(%s *)%s", ptrType, o.Name)
	default:
		return "/*?*/"
	}
}
