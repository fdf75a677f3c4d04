// Package headerdb is a deliberately thin concrete proto.DB: it recognizes
// plain C prototype lines ("int __stdcall Foo(int a, int b);") out of a
// seed header file. Full C declaration parsing (aggregates, typedefs,
// macro expansion) is out of scope (spec.md §6.2, Non-goals).
package headerdb

import (
	"bufio"
	"io"
	"strings"

	"github.com/oisee/x86trans/pkg/proto"
)

// Parse reads r line by line and builds a proto.MapDB from every line that
// looks like a single-line function prototype ending in ";".
func Parse(r io.Reader) (proto.MapDB, error) {
	db := make(proto.MapDB)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") || !strings.HasSuffix(line, ";") {
			continue
		}
		if p, ok := parsePrototypeLine(strings.TrimSuffix(line, ";")); ok {
			db[p.Name] = p
		}
	}
	return db, sc.Err()
}

// parsePrototypeLine handles "<ret> [conv] <name>(<args>)" with args being
// a comma-separated "<type> <name>" list, "void", or "...".
func parsePrototypeLine(decl string) (*proto.Proto, bool) {
	open := strings.IndexByte(decl, '(')
	shut := strings.LastIndexByte(decl, ')')
	if open < 0 || shut < 0 || shut < open {
		return nil, false
	}
	head := strings.Fields(strings.TrimSpace(decl[:open]))
	if len(head) < 1 {
		return nil, false
	}
	name := head[len(head)-1]
	retParts := head[:len(head)-1]

	retPointer := false
	for strings.HasPrefix(name, "*") {
		retPointer = true
		name = name[1:]
	}

	p := &proto.Proto{Name: name, IsFunc: true}
	p.Return.IsPointer = retPointer
	for _, tok := range retParts {
		switch tok {
		case "__stdcall":
			p.IsStdcall = true
		case "__fastcall":
			p.IsFastcall = true
		case "__cdecl", "__usercall", "__userpurge":
			// calling-convention tokens with no dedicated bit here.
		case "__noreturn":
			p.IsNoreturn = true
		default:
			p.Return.Name = strings.TrimSuffix(p.Return.Name+" "+tok, " ")
			p.Return.Name = strings.TrimSpace(p.Return.Name)
			if strings.HasSuffix(tok, "*") {
				p.Return.IsPointer = true
			}
		}
	}
	if p.Return.Name == "" {
		p.Return.Name = "int"
	}
	p.Return.Width = widthOf(p.Return.Name)

	argsText := strings.TrimSpace(decl[open+1 : shut])
	if argsText == "" || argsText == "void" {
		return p, true
	}
	for _, a := range strings.Split(argsText, ",") {
		a = strings.TrimSpace(a)
		if a == "..." {
			p.IsVararg = true
			continue
		}
		fields := strings.Fields(a)
		typ := strings.Join(fields, " ")
		if len(fields) > 1 {
			typ = strings.Join(fields[:len(fields)-1], " ") // drop the arg name
		}
		p.Args = append(p.Args, proto.Arg{Type: proto.CType{
			Name:      typ,
			IsPointer: strings.Contains(a, "*"),
			Width:     widthOf(typ),
		}})
	}
	p.ArgC = len(p.Args)
	p.ArgCStack = p.StackArgs()
	return p, true
}

func widthOf(typeName string) int {
	switch typeName {
	case "char", "BYTE", "byte", "bool", "BOOLEAN":
		return 1
	case "short", "WORD", "word":
		return 2
	case "__int64", "long long", "double":
		return 8
	default:
		return 4
	}
}
