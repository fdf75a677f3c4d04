package asmfile

import (
	"strings"
	"testing"

	"github.com/oisee/x86trans/pkg/source"
)

func TestNextProcedureSimple(t *testing.T) {
	text := strings.Join([]string{
		"sub_401000 proc near",
		"push ebp",
		"mov ebp, esp",
		"pop ebp",
		"retn",
		"sub_401000 endp",
	}, "\n")

	r := New(strings.NewReader(text), "t.asm")
	proc, ok, err := r.NextProcedure()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a procedure")
	}
	if proc.Name != "sub_401000" {
		t.Errorf("Name: got %q want sub_401000", proc.Name)
	}
	lines := proc.Lines()
	if len(lines) != 4 {
		t.Fatalf("got %d body lines, want 4: %+v", len(lines), lines)
	}
	if lines[0].Words[0] != "push" || lines[3].Words[0] != "retn" {
		t.Errorf("unexpected body order: %+v", lines)
	}

	_, ok, err = r.NextProcedure()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("expected no further procedures")
	}
}

func TestNextProcedureMultiChunk(t *testing.T) {
	text := strings.Join([]string{
		"sub_401000 proc near",
		"push ebp",
		"jmp loc_500000",
		"; START OF FUNCTION CHUNK FOR sub_401000",
		"loc_500000:",
		"pop ebp",
		"retn",
		"; END OF FUNCTION CHUNK FOR sub_401000",
		"sub_401000 endp",
	}, "\n")

	r := New(strings.NewReader(text), "t.asm")
	proc, ok, err := r.NextProcedure()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a procedure")
	}
	if len(proc.Chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(proc.Chunks))
	}
	if len(proc.Chunks[1].Lines) != 3 {
		t.Errorf("second chunk: got %d lines, want 3 (label+pop+retn): %+v", len(proc.Chunks[1].Lines), proc.Chunks[1].Lines)
	}
}

func TestTokenizeAttributesComment(t *testing.T) {
	r := New(strings.NewReader(""), "t.asm")
	line := r.tokenize("; Attributes: bp-based frame")
	if line.Directive != source.DirAttributes {
		t.Fatalf("got directive %v", line.Directive)
	}
	if line.DirectiveArg != "bp-based frame" {
		t.Errorf("got arg %q", line.DirectiveArg)
	}
}

func TestTokenizeEquate(t *testing.T) {
	r := New(strings.NewReader(""), "t.asm")
	line := r.tokenize("arg_0 = dword ptr  8")
	if line.Directive != source.DirEquate {
		t.Fatalf("got directive %v, words %+v", line.Directive, line.Words)
	}
}

func TestTokenizeLabel(t *testing.T) {
	r := New(strings.NewReader(""), "t.asm")
	line := r.tokenize("loc_401020:")
	if line.Directive != source.DirLabel || len(line.Words) != 1 || line.Words[0] != "loc_401020" {
		t.Errorf("got %+v", line)
	}
}

func TestParseNumberHexAndDecimal(t *testing.T) {
	tests := map[string]int64{"10h": 0x10, "0x10": 0x10, "42": 42}
	for in, want := range tests {
		got, err := ParseNumber(in)
		if err != nil {
			t.Errorf("ParseNumber(%q): unexpected error %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseNumber(%q): got %d want %d", in, got, want)
		}
	}
}
