package analysis

import (
	"strings"

	"github.com/oisee/x86trans/pkg/x86"
)

// recoverJumpTable implements spec.md §4.5: given an indirect jump whose
// memory operand names a data label (e.g. "jmp [tab+eax*4]"), find the
// matching parsed_data block, link each entry to the label it names inside
// this procedure, and attach the table to the branching instruction.
// Returns false if no matching data block could be found.
func (c *Context) recoverJumpTable(i int) bool {
	in := &c.Ops[i]
	opr := in.Operands[0]
	if opr.Kind != x86.OprRegMem {
		return false
	}
	label := bareDataLabel(opr.Name)
	if label == "" {
		return false
	}
	jt, ok := c.ParsedData[label]
	if !ok {
		return false
	}

	resolved := &x86.JumpTable{Label: label}
	for _, e := range jt.Entries {
		idx := c.findLabel(e.Label)
		if idx < 0 {
			return false
		}
		c.addLabelRef(idx, i)
		resolved.Entries = append(resolved.Entries, x86.JumpTableEntry{Label: e.Label, BTIdx: idx})
	}
	in.JumpTable = resolved
	return true
}

// bareDataLabel extracts the leading identifier from a rendered memory
// expression like "[tab+eax*4]" or "[tab+eax]". A leading register name
// ("[eax+4]") is not a data label and yields "".
func bareDataLabel(expr string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(expr, "["), "]")
	parts := strings.SplitN(inner, "+", 2)
	if len(parts) == 0 {
		return ""
	}
	candidate := parts[0]
	if candidate == "" || isDigitByte(candidate[0]) {
		return ""
	}
	for r := x86.RegAX; r <= x86.RegSP; r++ {
		if candidate == r.Name32() {
			return ""
		}
	}
	return candidate
}

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }
