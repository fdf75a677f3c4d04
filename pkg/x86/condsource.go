package x86

// CondKind tags how a condition-flag consumer's predicate should be
// rendered (spec.md §9 design note: a sum type instead of an interface,
// since there are exactly three shapes and none of them carry behavior).
type CondKind uint8

const (
	// CondDirect: the single flag-setting predecessor was identified
	// unambiguously; render the predicate straight from its operands.
	CondDirect CondKind = iota
	// CondIndirect: flags pass through untouched from an earlier
	// instruction reached along every path; render from that setter.
	CondIndirect
	// CondMaterialized: more than one flag-setter can reach this consumer,
	// or the setter crosses a label; a cond_<n> variable was materialized
	// at each candidate setter and is referenced here by name.
	CondMaterialized
)

// CondSource records, for one FlagCC-consuming instruction, how its
// condition predicate should be rendered.
type CondSource struct {
	Kind   CondKind
	Setter int    // instruction index of the resolved/materialized setter, -1 if none
	Var    string // cond_<n> variable name, set only when Kind == CondMaterialized
}
