// Package header implements the simplified analysis pass of spec.md §4.10:
// instead of emitting code, it infers a prototype guess for a procedure
// from its resolved instruction stream, then closes callee dependencies
// across the whole translation unit.
package header

import (
	"github.com/oisee/x86trans/pkg/analysis"
	"github.com/oisee/x86trans/pkg/proto"
	"github.com/oisee/x86trans/pkg/x86"
)

// Guess is one function's inferred prototype plus the bookkeeping needed
// to close inter-procedural dependencies (spec.md §4.10).
type Guess struct {
	Name string

	RegMaskDep x86.RegMask // registers read before written: approximate arg set
	ArgCStack  int
	IsStdcall  bool
	HasRet     HasRetState

	Callees []string // names of functions called, for dependency closure

	depResolved bool // cycle guard for the inter-procedural closure pass
}

// HasRetState is the tri-state spec.md §4.10 calls for.
type HasRetState uint8

const (
	HasRetUnresolved HasRetState = iota
	HasRetTrue
	HasRetFalse
)

// Analyze runs the header-inference pass over an already branch-resolved
// Context (frame classification and call/branch resolution, i.e. Pass 1-2
// of the full analyzer, must already have run).
func Analyze(c *analysis.Context) Guess {
	g := Guess{Name: c.FuncName}
	g.RegMaskDep = regMaskDep(c)
	g.ArgCStack = inferArgCStack(c)
	g.IsStdcall = inferIsStdcall(c)
	g.HasRet = inferHasRet(c)
	g.Callees = calleeNames(c)
	return g
}

// regMaskDep collects every register read before it is first written,
// walking top to bottom — the approximate incoming-argument register set.
func regMaskDep(c *analysis.Context) x86.RegMask {
	var written, dep x86.RegMask
	for i := range c.Ops {
		in := &c.Ops[i]
		if in.Flags.Has(x86.FlagRMD) {
			continue
		}
		for r := x86.RegAX; r <= x86.RegSP; r++ {
			if in.RegMaskSrc.Has(r) && !written.Has(r) {
				dep = dep.With(r)
			}
		}
		written |= in.RegMaskDst
	}
	return dep
}

// inferArgCStack takes the largest positive ebp+N access seen and derives
// a stack-argument count, adjusting by 1 when the procedure has no
// recognized BP-frame attribute (spec.md §4.10).
func inferArgCStack(c *analysis.Context) int {
	maxIdx := 0
	for i := range c.Ops {
		in := &c.Ops[i]
		for idx := 0; idx < in.OperandCount; idx++ {
			o := in.Operands[idx]
			if o.Kind != x86.OprRegMem {
				continue
			}
			if sa, ok := c.ParseStackAccess(o.Name, o.Width); ok && sa.Kind == analysis.StackAccessArg {
				if sa.Index > maxIdx {
					maxIdx = sa.Index
				}
			}
		}
	}
	if maxIdx == 0 {
		return 0
	}
	if !c.Attrs.Has(x86.AttrBPFrame) {
		return maxIdx + 1
	}
	return maxIdx
}

func inferIsStdcall(c *analysis.Context) bool {
	for i := range c.Ops {
		in := &c.Ops[i]
		if in.Op == x86.OpRet && in.OperandCount >= 1 && in.Operands[0].Kind == x86.OprConst && in.Operands[0].Value != 0 {
			return true
		}
	}
	return false
}

// inferHasRet reports whether EAX is written on some path reaching a
// return (true), never written (false), or only ever forwarded from an
// unresolved callee's return value (unresolved, settled during closure).
func inferHasRet(c *analysis.Context) HasRetState {
	sawWrite, sawForward := false, false
	for i := range c.Ops {
		in := &c.Ops[i]
		if in.Flags.Has(x86.FlagRMD) {
			continue
		}
		if in.RegMaskDst.Has(x86.RegAX) {
			if in.Op == x86.OpCall {
				sawForward = true
			} else {
				sawWrite = true
			}
		}
	}
	switch {
	case sawWrite:
		return HasRetTrue
	case sawForward:
		return HasRetUnresolved
	default:
		return HasRetFalse
	}
}

func calleeNames(c *analysis.Context) []string {
	var out []string
	for i := range c.Ops {
		in := &c.Ops[i]
		if in.Op == x86.OpCall && in.Operands[0].Kind == x86.OprLabel {
			out = append(out, in.Operands[0].Name)
		}
	}
	return out
}

// ResolveDeps is hg_fp_resolve_deps: a recursive, cycle-guarded pass that
// propagates each callee's whole RegMaskDep and HasRet state up into every
// caller, run once every function in the translation unit has an initial
// Guess. The callee mask is not narrowed by register liveness at the call
// site.
func ResolveDeps(all map[string]*Guess) {
	for _, g := range all {
		resolveOne(g, all, make(map[string]bool))
	}
}

func resolveOne(g *Guess, all map[string]*Guess, visiting map[string]bool) {
	if g.depResolved || visiting[g.Name] {
		return
	}
	visiting[g.Name] = true
	defer delete(visiting, g.Name)

	for _, callee := range g.Callees {
		cg, ok := all[callee]
		if !ok {
			continue
		}
		resolveOne(cg, all, visiting)
		g.RegMaskDep |= cg.RegMaskDep
		if g.HasRet == HasRetUnresolved {
			g.HasRet = cg.HasRet
		}
	}
	g.depResolved = true
}

// ToProto renders a Guess into the best-effort Proto a resolved header
// entry would have produced, for use when no real header data exists.
func (g Guess) ToProto() *proto.Proto {
	p := &proto.Proto{
		Name:         g.Name,
		Return:       proto.CType{Name: "int", Width: 4},
		IsFunc:       true,
		IsStdcall:    g.IsStdcall,
		IsUnresolved: true,
		ArgCStack:    g.ArgCStack,
		HasRetReg:    g.HasRet != HasRetFalse,
	}
	for i := 0; i < g.ArgCStack; i++ {
		p.Args = append(p.Args, proto.Arg{Type: proto.CType{Name: "int", Width: 4}})
	}
	p.ArgC = len(p.Args)
	return p
}
