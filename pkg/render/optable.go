package render

import "github.com/oisee/x86trans/pkg/x86"

// arithOperator maps a binary arithmetic op to its C infix operator
// (spec.md §4.9 "small translation table").
var arithOperator = map[x86.Op]string{
	x86.OpAdd: "+",
	x86.OpSub: "-",
	x86.OpAnd: "&",
	x86.OpOr:  "|",
	x86.OpXor: "^",
	x86.OpShl: "<<",
	x86.OpShr: ">>",
	x86.OpSar: ">>",
}

// condExpr maps a CondOp to the C relational snippet placed between the two
// operand placeholders %[1]s (lhs), %[2]s (rhs) of the cmp that set the
// flags (spec.md §4.9's direct path). CondS/CondO/CondP have no meaning as
// a plain lhs-rhs relation, so they restate the subtraction the cmp did.
var condExpr = map[x86.CondOp]string{
	x86.CondZ:  "%[1]s == %[2]s",
	x86.CondL:  "%[1]s < %[2]s",
	x86.CondLE: "%[1]s <= %[2]s",
	x86.CondC:  "%[1]s < %[2]s",
	x86.CondBE: "%[1]s <= %[2]s",
	x86.CondS:  "(%[1]s - %[2]s) < 0",
	x86.CondO:  "((((%[1]s) ^ (%[2]s)) & ((%[1]s) ^ ((%[1]s) - (%[2]s)))) >> 31) & 1",
	x86.CondP:  "!__builtin_parity((u8)((%[1]s) - (%[2]s)))",
}

// unsignedCond marks the conditions whose compare operands must be cast
// unsigned rather than the signed default (spec.md §4.9: jb/jc, jbe/jna).
var unsignedCond = map[x86.CondOp]bool{
	x86.CondC:  true,
	x86.CondBE: true,
}
