// Package asmfile is a deliberately thin concrete source.Reader: a
// line-oriented tokenizer for the disassembly shape spec.md §6.1
// describes. It stitches function chunks, recognizes the directing
// comments, and leaves everything else to the core.
package asmfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/oisee/x86trans/pkg/source"
)

// Reader tokenizes an io.Reader into source.Procedure values in file
// order, one NextProcedure call per "proc ... endp" block.
type Reader struct {
	sc        *bufio.Scanner
	file      string
	lineno    int
	exhausted bool
}

// New wraps r, tagging every Line with file for diagnostics.
func New(r io.Reader, file string) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	return &Reader{sc: sc, file: file}
}

func (a *Reader) NextProcedure() (source.Procedure, bool, error) {
	if a.exhausted {
		return source.Procedure{}, false, nil
	}

	// skip forward to the next "proc" line.
	var name string
	for a.sc.Scan() {
		a.lineno++
		line := a.tokenize(a.sc.Text())
		if line.Directive == source.DirProc {
			name = line.Words[0]
			break
		}
	}
	if err := a.sc.Err(); err != nil {
		return source.Procedure{}, false, err
	}
	if name == "" {
		a.exhausted = true
		return source.Procedure{}, false, nil
	}

	proc := source.Procedure{Name: name, Chunks: []source.Chunk{{Lines: nil}}}
	cur := 0
	for a.sc.Scan() {
		a.lineno++
		line := a.tokenize(a.sc.Text())
		switch line.Directive {
		case source.DirEndp:
			return proc, true, nil
		case source.DirChunkStart:
			proc.Chunks = append(proc.Chunks, source.Chunk{})
			cur = len(proc.Chunks) - 1
			continue
		case source.DirChunkEnd:
			continue
		case source.DirSctEnd:
			return proc, true, nil
		}
		proc.Chunks[cur].Lines = append(proc.Chunks[cur].Lines, line)
	}
	if err := a.sc.Err(); err != nil {
		return source.Procedure{}, false, err
	}
	return proc, true, nil
}

// tokenize classifies one raw text line per spec.md §6.1.
func (a *Reader) tokenize(raw string) source.Line {
	line := source.Line{File: a.file, Lineno: a.lineno}

	if idx := strings.Index(raw, ";"); idx >= 0 {
		line.Comment = strings.TrimSpace(raw[idx+1:])
		raw = raw[:idx]
	}
	raw = strings.TrimSpace(raw)

	if line.Comment != "" {
		classifyComment(&line)
		if line.Directive != source.DirNone && raw == "" {
			return line
		}
	}

	if raw == "" {
		return line
	}

	if strings.HasSuffix(raw, ":") && !strings.Contains(raw[:len(raw)-1], " ") {
		line.Directive = source.DirLabel
		line.Words = []string{strings.TrimSuffix(raw, ":")}
		return line
	}

	line.Words = strings.Fields(raw)
	if len(line.Words) == 0 {
		return line
	}

	switch {
	case len(line.Words) >= 2 && line.Words[1] == "proc":
		line.Directive = source.DirProc
	case len(line.Words) >= 2 && line.Words[1] == "endp":
		line.Directive = source.DirEndp
	case len(line.Words) >= 4 && line.Words[1] == "=" && isSizeWord(line.Words[2]) && line.Words[3] == "ptr":
		line.Directive = source.DirEquate
	case isDataDirective(line.Words[0]):
		line.Directive = source.DirData
	}
	return line
}

func classifyComment(line *source.Line) {
	c := line.Comment
	switch {
	case strings.HasPrefix(c, "Attributes:"):
		line.Directive = source.DirAttributes
		line.DirectiveArg = strings.TrimSpace(strings.TrimPrefix(c, "Attributes:"))
	case strings.HasPrefix(c, "START OF FUNCTION CHUNK FOR "):
		line.Directive = source.DirChunkStart
		line.DirectiveArg = strings.TrimPrefix(c, "START OF FUNCTION CHUNK FOR ")
	case strings.HasPrefix(c, "END OF FUNCTION CHUNK"):
		line.Directive = source.DirChunkEnd
	case strings.HasPrefix(c, "FUNCTION CHUNK AT "):
		line.Directive = source.DirChunkAt
		line.DirectiveArg = strings.TrimPrefix(c, "FUNCTION CHUNK AT ")
	case strings.HasPrefix(c, "sctpatch:"):
		line.Directive = source.DirSctPatch
	case strings.HasPrefix(c, "sctproto:"):
		line.Directive = source.DirSctProto
	case strings.HasPrefix(c, "sctend"):
		line.Directive = source.DirSctEnd
	}
}

func isSizeWord(w string) bool {
	switch w {
	case "byte", "word", "dword", "qword":
		return true
	default:
		return false
	}
}

func isDataDirective(w string) bool {
	switch w {
	case "db", "dw", "dd":
		return true
	default:
		return false
	}
}

// ParseNumber is exported for callers that need to decode an equate's
// hex payload outside the operand parser (e.g. chunk-at offsets).
func ParseNumber(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 64)
		return v, err
	}
	if strings.HasSuffix(strings.ToLower(s), "h") {
		v, err := strconv.ParseInt(s[:len(s)-1], 16, 64)
		return v, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad numeric literal %q: %w", s, err)
	}
	return v, nil
}
