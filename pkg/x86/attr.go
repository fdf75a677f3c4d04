package x86

// FuncAttr is the IDA "; Attributes:" comment bitset (spec.md §6.1).
type FuncAttr uint8

const (
	AttrBPFrame FuncAttr = 1 << iota
	AttrLibFunc
	AttrStatic
	AttrNoreturn
	AttrThunk
	AttrFPD
)

func (a FuncAttr) Has(bit FuncAttr) bool { return a&bit != 0 }

// ParseAttrToken maps one token of an "; Attributes: ..." comment to its
// bit, or 0/false if unrecognized (recoverable per spec.md §7: "unparsed
// attribute keyword" is warn-only, never fatal).
func ParseAttrToken(tok string) (FuncAttr, bool) {
	switch tok {
	case "bp-based frame":
		return AttrBPFrame, true
	case "library function":
		return AttrLibFunc, true
	case "static":
		return AttrStatic, true
	case "noreturn":
		return AttrNoreturn, true
	case "thunk":
		return AttrThunk, true
	default:
		return 0, false
	}
}
