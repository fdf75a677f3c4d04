// Package replist models the replacement/skip-list collaborator: a set of
// procedure names the driver has decided to leave untranslated. Reading
// the list from its file format is out of scope (spec.md §1).
package replist

// List answers whether a named procedure should be skipped entirely
// (spec.md §7: "skipped procedure on a skip-list" is warn-only, never an
// error).
type List interface {
	Skip(funcName string) bool
}

// Set is a List backed by a plain set, useful for tests and small
// hand-built lists.
type Set map[string]struct{}

func (s Set) Skip(funcName string) bool {
	_, ok := s[funcName]
	return ok
}

// NewSet builds a Set from a slice of names.
func NewSet(names []string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}
