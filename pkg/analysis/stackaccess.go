package analysis

import (
	"strconv"
	"strings"

	"github.com/oisee/x86trans/pkg/x86"
)

// StackAccessKind classifies a decoded ebp/esp-relative memory operand.
type StackAccessKind uint8

const (
	StackAccessNone StackAccessKind = iota
	StackAccessArg                  // incoming argument, e.g. arg_8 -> a3
	StackAccessLocal                // local stack variable, e.g. var_10 -> sf.d[...]
)

// StackAccess is the decoded shape of an ebp±N / esp±N / equate±N addressing
// expression (spec.md §4.6 "parse_stack_access").
type StackAccess struct {
	Kind   StackAccessKind
	Index  int    // argument ordinal (1-based), or a local's byte distance below ebp
	Width  x86.LenMod
	Equate string // matched Equates entry name, if any
}

// ParseStackAccess decomposes a rendered memory expression against the
// procedure's Equates table and its frame shape, returning ok=false for
// any expression that isn't a recognized frame access.
func (c *Context) ParseStackAccess(expr string, width x86.LenMod) (StackAccess, bool) {
	inner := strings.TrimSuffix(strings.TrimPrefix(expr, "["), "]")

	base, offset, ok := splitBaseOffset(inner)
	if !ok {
		return StackAccess{}, false
	}

	switch base {
	case "ebp":
		if !c.BPFrame {
			return StackAccess{}, false
		}
		return c.classifyFrameAccess(offset, width)
	case "esp":
		if !c.SPFrame && !c.StackFrameUsed {
			return StackAccess{}, false
		}
		return c.classifyFrameAccess(offset-c.StackFrameSize, width)
	default:
		// equate+N form: the base is an Equates name whose offset is added
		// to N. An "esp+equate+N" expression is not decoded (its base is esp
		// and the remainder is not a plain integer).
		for _, eq := range c.Equates {
			if eq.Name == base {
				return c.classifyFrameAccess(eq.Offset+offset, width)
			}
		}
		return StackAccess{}, false
	}
}

// classifyFrameAccess maps a signed ebp-relative offset to incoming
// argument / local classification: offsets >= 8 (past saved ebp and
// return address) are caller arguments; offsets < 0 are locals.
func (c *Context) classifyFrameAccess(off int, width x86.LenMod) (StackAccess, bool) {
	if off >= 8 {
		return StackAccess{Kind: StackAccessArg, Index: (off-8)/4 + 1, Width: width}, true
	}
	if off < 0 {
		return StackAccess{Kind: StackAccessLocal, Index: -off, Width: width}, true
	}
	return StackAccess{}, false
}

// splitBaseOffset splits "reg+N", "reg-N", or "reg" into its register/
// equate base and signed integer offset.
func splitBaseOffset(s string) (string, int, bool) {
	for i := 1; i < len(s); i++ {
		if s[i] == '+' || s[i] == '-' {
			n, err := strconv.Atoi(strings.TrimPrefix(s[i:], "+"))
			if err != nil {
				return "", 0, false
			}
			return s[:i], n, true
		}
	}
	return s, 0, true
}
