// Package translate wires the per-function pipeline (source lines ->
// parsed instructions -> analyzed Context -> rendered C) into the single
// entry point cmd/x86trans drives.
package translate

import (
	"fmt"
	"io"
	"strings"

	"github.com/oisee/x86trans/pkg/analysis"
	"github.com/oisee/x86trans/pkg/diag"
	"github.com/oisee/x86trans/pkg/parser"
	"github.com/oisee/x86trans/pkg/proto"
	"github.com/oisee/x86trans/pkg/render"
	"github.com/oisee/x86trans/pkg/replist"
	"github.com/oisee/x86trans/pkg/source"
	"github.com/oisee/x86trans/pkg/x86"
)

// Options configures one translation run (spec.md §6.4).
type Options struct {
	AllowUnresolved bool // -rf: tolerate indirect calls whose argument count can't be recovered
	Verbose         bool // -v
	MaxArgGroups    int  // -m, defaults to x86.MaxArgGroups when 0
}

// Run drains src procedure by procedure, skipping names replist marks,
// and writes each translated function to out. A returned error is a
// *diag.FatalError, an error from render.Render, or an I/O error from
// src/out.
func Run(src source.Reader, db proto.DB, skip replist.List, reporter diag.Reporter, out io.Writer, opt Options) error {
	ctx := analysis.NewContext(db, reporter)
	ctx.AllowUnresolved = opt.AllowUnresolved
	ctx.MaxArgGroups = opt.MaxArgGroups
	for {
		proc, ok, err := src.NextProcedure()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if skip.Skip(proc.Name) {
			reporter.Report(diag.Diagnostic{Func: proc.Name, Level: diag.Warn, Message: "skipped procedure on skip-list"})
			continue
		}

		ctx.Reset()
		if err := LoadProcedure(ctx, proc, db); err != nil {
			return err
		}
		if err := ctx.Analyze(); err != nil {
			return err
		}
		body, err := render.Render(ctx)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "%s\n", FunctionSignature(ctx)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "{\n%s}\n\n", body); err != nil {
			return err
		}
	}
}

// LoadProcedure parses every line of proc into ctx's Ops/Labels/Equates,
// resolving operand labels against db as it goes (spec.md §6.1).
func LoadProcedure(ctx *analysis.Context, proc source.Procedure, db proto.DB) error {
	ctx.FuncName = proc.Name
	if p, ok := db.Lookup(proc.Name); ok {
		ctx.Proto = p.Clone()
	}

	lines := proc.Lines()
	ctx.Labels = make([]string, 0, len(lines))
	ctx.LabelRefs = make([]*x86.LabelRef, 0, len(lines))
	ctx.ParsedData = make(map[string]*x86.JumpTable)
	ctx.Aliases = make(map[string]int)

	var pendingData *x86.JumpTable
	var pendingLabels []string

	for _, line := range lines {
		switch line.Directive {
		case source.DirAttributes:
			applyAttributes(ctx, line.DirectiveArg)
			continue
		case source.DirSctEnd:
			return nil
		case source.DirLabel:
			pendingLabels = append(pendingLabels, line.Words[0])
			continue
		case source.DirEquate:
			ctx.Equates = append(ctx.Equates, parseEquate(line.Words))
			continue
		case source.DirData:
			pendingData = collectDataEntry(ctx, line, pendingData)
			continue
		}
		if len(line.Words) == 0 {
			continue
		}

		in, err := parser.ParseInstruction(line.Words, db)
		if err != nil {
			return &diag.FatalError{Diagnostic: diag.Diagnostic{
				File: line.File, Line: line.Lineno, Func: proc.Name, Level: diag.Error, Message: err.Error(),
			}}
		}
		in.File, in.Line = line.File, line.Lineno

		idx := len(ctx.Ops)
		ctx.Ops = append(ctx.Ops, in)
		primary := ""
		if len(pendingLabels) > 0 {
			primary = pendingLabels[len(pendingLabels)-1]
			for _, alias := range pendingLabels[:len(pendingLabels)-1] {
				ctx.Aliases[alias] = idx
			}
			pendingLabels = nil
		}
		ctx.Labels = append(ctx.Labels, primary)
		ctx.LabelRefs = append(ctx.LabelRefs, nil)
	}
	return nil
}

func applyAttributes(ctx *analysis.Context, arg string) {
	for _, tok := range strings.Split(arg, ",") {
		tok = strings.TrimSpace(tok)
		if strings.HasPrefix(tok, "fpd=") {
			ctx.Attrs |= x86.AttrFPD
			continue
		}
		if bit, ok := x86.ParseAttrToken(tok); ok {
			ctx.Attrs |= bit
		} else if tok != "" && ctx.Reporter != nil {
			ctx.Reporter.Report(diag.Diagnostic{Func: ctx.FuncName, Level: diag.Warn, Message: fmt.Sprintf("unparsed attribute keyword %q", tok)})
		}
	}
}

func parseEquate(words []string) x86.Equate {
	eq := x86.Equate{Name: words[0]}
	if len(words) < 5 {
		return eq
	}
	switch words[2] {
	case "byte":
		eq.Width = x86.LenByte
	case "word":
		eq.Width = x86.LenWord
	case "dword":
		eq.Width = x86.LenDword
	case "qword":
		eq.Width = x86.LenQword
	}
	if n, err := parser.ParseNumber(words[4]); err == nil {
		eq.Offset = int(n)
	}
	return eq
}

// collectDataEntry accumulates "<label> dd offset L0, offset L1, ..." rows
// (first word the data label, second the db/dw/dd directive) into the jump
// table under construction for that label.
func collectDataEntry(ctx *analysis.Context, line source.Line, cur *x86.JumpTable) *x86.JumpTable {
	words := line.Words
	if len(words) < 2 {
		return cur
	}
	label := words[0]
	if cur == nil || cur.Label != label {
		cur = &x86.JumpTable{Label: label}
		ctx.ParsedData[label] = cur
	}
	for _, w := range words[2:] {
		w = strings.TrimSuffix(w, ",")
		if strings.HasPrefix(w, "offset") {
			continue
		}
		cur.Entries = append(cur.Entries, x86.JumpTableEntry{Label: w, BTIdx: -1})
	}
	return cur
}

// FunctionSignature renders the "<ret> [conv] name(args)" line (spec.md
// §6.3), falling back to "int <name>(void)", with no calling convention,
// when the procedure never resolved against the header.
func FunctionSignature(ctx *analysis.Context) string {
	p := ctx.Proto
	if p == nil {
		return fmt.Sprintf("int %s(void)", ctx.FuncName)
	}
	conv := ""
	switch {
	case p.IsFastcall:
		conv = "__fastcall "
	case p.IsStdcall:
		conv = "__stdcall "
	}
	ret := p.Return.Name
	if ret == "" {
		ret = "int"
	}
	var args []string
	for i, a := range p.Args {
		name := fmt.Sprintf("a%d", i+1)
		if a.Reg != proto.ArgRegNone {
			name = fmt.Sprintf("a%d/<%s>", i+1, argRegName(a.Reg))
		}
		args = append(args, fmt.Sprintf("%s %s", typeName(a.Type), name))
	}
	argList := "void"
	if len(args) > 0 {
		argList = strings.Join(args, ", ")
	}
	return fmt.Sprintf("%s %s%s(%s)", ret, conv, ctx.FuncName, argList)
}

func typeName(t proto.CType) string {
	if t.Name == "" {
		return "int"
	}
	if t.IsPointer {
		return t.Name + " *"
	}
	return t.Name
}

func argRegName(r proto.ArgReg) string {
	switch r {
	case proto.ArgRegAX:
		return "eax"
	case proto.ArgRegBX:
		return "ebx"
	case proto.ArgRegCX:
		return "ecx"
	case proto.ArgRegDX:
		return "edx"
	case proto.ArgRegSI:
		return "esi"
	case proto.ArgRegDI:
		return "edi"
	default:
		return "?"
	}
}
