package analysis

import (
	"github.com/oisee/x86trans/pkg/proto"
	"github.com/oisee/x86trans/pkg/x86"
)

// runFinalization is Pass 3 (spec.md §4.4): drop unreferenced labels,
// synthesize prototypes for calls that never resolved against the header,
// and expand vararg call sites to their actual pushed-argument count.
func (c *Context) runFinalization() error {
	for i := range c.Ops {
		in := &c.Ops[i]
		if in.Op != x86.OpCall || in.Flags.Has(x86.FlagRMD) {
			continue
		}
		if in.Proto == nil {
			p, err := c.resolveIndirectProto(i)
			if err != nil {
				return err
			}
			in.Proto = p
		} else if in.Proto.IsVararg {
			c.expandVarargStackArgs(i)
		}
	}
	c.gcDeadLabels()
	return nil
}

// resolveIndirectProto traces an unresolved call's register operand back
// to its origin (spec.md §4.8) and looks up the resulting label against
// the header before falling back to a fully synthetic prototype.
func (c *Context) resolveIndirectProto(callIdx int) (*proto.Proto, error) {
	in := &c.Ops[callIdx]
	if in.Operands[0].Kind == x86.OprRegMem && in.Operands[0].IndirectRegs != 0 {
		for r := x86.RegAX; r <= x86.RegSP; r++ {
			if !in.Operands[0].IndirectRegs.Has(r) {
				continue
			}
			origin := c.resolveOrigin(callIdx, r)
			if origin.Kind == OriginConst {
				if p, ok := c.DB.Lookup(origin.Label); ok {
					return p.Clone(), nil
				}
			}
			break
		}
	}
	return c.synthesizeProto(callIdx)
}

// synthesizeProto builds the best-effort prototype for a call that
// resolved to no header entry: an unresolved, int-returning, stdcall-ish
// function whose argument count is inferred from the stack cleanup that
// follows the call (spec.md §4.4 "call finalization"). When no cleanup
// sequence can be found, the argument count cannot be recovered at all
// (spec.md §7 category 3) and this is fatal unless AllowUnresolved (-rf).
func (c *Context) synthesizeProto(callIdx int) (*proto.Proto, error) {
	n, ok := c.stackCleanupArgCount(callIdx)
	if !ok && !c.AllowUnresolved {
		return nil, c.fatal(callIdx, "indirect call argument count cannot be recovered (pass -rf to tolerate)")
	}
	p := &proto.Proto{
		Name:         "",
		Return:       proto.CType{Name: "int", Width: 4},
		IsFunc:       true,
		IsUnresolved: true,
		ArgC:         n,
		ArgCStack:    n,
	}
	for i := 0; i < n; i++ {
		p.Args = append(p.Args, proto.Arg{Type: proto.CType{Name: "int", Width: 4}})
	}
	return p, nil
}

// stackCleanupArgCount inspects the instruction immediately following a
// call for a caller-cleanup "add esp, N" (cdecl) and marks it consumed,
// reporting ok=false when no such cleanup is present — a stdcall callee
// cleans its own stack, so this case carries no recoverable argument
// count at all rather than a genuine zero.
func (c *Context) stackCleanupArgCount(callIdx int) (int, bool) {
	j := callIdx + 1
	if j >= len(c.Ops) {
		return 0, false
	}
	if isAddRegConst(c.Ops[j], x86.RegSP) {
		n := int(c.Ops[j].Operands[1].Value) / 4
		c.Ops[j].Flags |= x86.FlagRMD
		return n, true
	}
	return 0, false
}

// expandVarargStackArgs extends a resolved vararg Proto's Args with
// synthetic int slots for each extra pushed argument beyond the declared
// fixed prefix, inferred the same way as an unresolved call. The base
// proto is already known here, so an absent cleanup sequence just means
// no extra varargs were pushed rather than an unrecoverable count.
func (c *Context) expandVarargStackArgs(callIdx int) {
	in := &c.Ops[callIdx]
	total, _ := c.stackCleanupArgCount(callIdx)
	fixed := in.Proto.StackArgs()
	for i := fixed; i < total; i++ {
		in.Proto.Args = append(in.Proto.Args, proto.Arg{Type: proto.CType{Name: "int", Width: 4}})
		in.Proto.ArgC++
		in.Proto.ArgCStack++
	}
}

// gcDeadLabels clears Labels entries with no surviving LabelRefs, so the
// renderer never emits a goto target nothing jumps to.
func (c *Context) gcDeadLabels() {
	for i, refs := range c.LabelRefs {
		if refs == nil {
			c.Labels[i] = ""
		}
	}
}
