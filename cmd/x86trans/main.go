// Command x86trans translates one disassembled x86 procedure stream into
// straight-line C, or (the header subcommand) infers a header of best-guess
// prototypes from the same input (spec.md §6.4).
package main

import (
	"fmt"
	"os"

	"github.com/oisee/x86trans/pkg/analysis"
	"github.com/oisee/x86trans/pkg/diag"
	"github.com/oisee/x86trans/pkg/header"
	"github.com/oisee/x86trans/pkg/proto"
	"github.com/oisee/x86trans/pkg/proto/headerdb"
	"github.com/oisee/x86trans/pkg/replist"
	"github.com/oisee/x86trans/pkg/replist/flatfile"
	"github.com/oisee/x86trans/pkg/source"
	"github.com/oisee/x86trans/pkg/source/asmfile"
	"github.com/oisee/x86trans/pkg/translate"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "x86trans",
		Short: "x86trans — per-function x86 disassembly to C translator",
	}

	var verbose, allowUnresolved bool
	var maxArgGroups int

	translateCmd := &cobra.Command{
		Use:   "translate <out.c> <in.asm> <hdr.h> [skip-list...]",
		Short: "Translate a disassembly stream into C against a header",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(args, verbose, allowUnresolved, maxArgGroups)
		},
	}
	translateCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print note-level diagnostics too")
	translateCmd.Flags().BoolVar(&allowUnresolved, "rf", false, "tolerate indirect calls whose argument count can't be recovered")
	translateCmd.Flags().IntVarP(&maxArgGroups, "max-arg-groups", "m", 0, "override the interleaved-call argument-group capacity")

	var hdrOut string
	headerCmd := &cobra.Command{
		Use:   "header <in.asm> <seed-hdr> [skip-list...]",
		Short: "Infer a header of best-guess prototypes from a disassembly stream",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeader(args, hdrOut)
		},
	}
	headerCmd.Flags().StringVar(&hdrOut, "hdr", "", "output header file path (default: stdout)")

	rootCmd.AddCommand(translateCmd, headerCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTranslate(args []string, verbose, allowUnresolved bool, maxArgGroups int) error {
	outPath, asmPath, hdrPath := args[0], args[1], args[2]
	skipPaths := args[3:]

	db, err := loadHeader(hdrPath)
	if err != nil {
		return fmt.Errorf("loading header %s: %w", hdrPath, err)
	}
	skip, err := loadSkipList(skipPaths)
	if err != nil {
		return err
	}

	asmFile, err := os.Open(asmPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", asmPath, err)
	}
	defer asmFile.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	reporter := diag.NewPrintReporter(os.Stdout)
	if verbose {
		reporter.MinLevel = diag.Note
	}
	reader := asmfile.New(asmFile, asmPath)

	opt := translate.Options{AllowUnresolved: allowUnresolved, Verbose: verbose, MaxArgGroups: maxArgGroups}
	if err := translate.Run(reader, db, skip, reporter, out, opt); err != nil {
		var fatal *diag.FatalError
		if asFatal(err, &fatal) {
			fmt.Fprintln(os.Stderr, fatal.Error())
		}
		return err
	}
	return nil
}

func runHeader(args []string, hdrOut string) error {
	asmPath, seedPath := args[0], args[1]
	skipPaths := args[2:]

	seed, err := loadHeader(seedPath)
	if err != nil {
		return fmt.Errorf("loading seed header %s: %w", seedPath, err)
	}
	skip, err := loadSkipList(skipPaths)
	if err != nil {
		return err
	}

	asmFile, err := os.Open(asmPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", asmPath, err)
	}
	defer asmFile.Close()

	out := os.Stdout
	if hdrOut != "" {
		f, err := os.Create(hdrOut)
		if err != nil {
			return fmt.Errorf("creating %s: %w", hdrOut, err)
		}
		defer f.Close()
		out = f
	}

	reporter := diag.NewPrintReporter(os.Stderr)
	reader := asmfile.New(asmFile, asmPath)
	ctx := analysis.NewContext(seed, reporter)

	guesses := make(map[string]*header.Guess)
	var order []string
	for {
		proc, ok, err := reader.NextProcedure()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if skip.Skip(proc.Name) {
			continue
		}
		ctx.Reset()
		if err := translate.LoadProcedure(ctx, proc, seed); err != nil {
			return err
		}
		if err := ctx.Analyze(); err != nil {
			return err
		}
		g := header.Analyze(ctx)
		guesses[proc.Name] = &g
		order = append(order, proc.Name)
	}
	header.ResolveDeps(guesses)

	for _, name := range order {
		p := guesses[name].ToProto()
		fmt.Fprintf(out, "%s;\n", prototypeLine(p))
	}
	return nil
}

func prototypeLine(p *proto.Proto) string {
	conv := ""
	if p.IsStdcall {
		conv = "__stdcall "
	}
	argc := len(p.Args)
	argList := "void"
	if argc > 0 {
		parts := make([]string, argc)
		for i := range parts {
			parts[i] = fmt.Sprintf("int a%d", i+1)
		}
		argList = joinComma(parts)
	}
	return fmt.Sprintf("int %s%s(%s)", conv, p.Name, argList)
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

func loadHeader(path string) (proto.DB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return headerdb.Parse(f)
}

func loadSkipList(paths []string) (replist.List, error) {
	set := replist.NewSet(nil)
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("opening skip-list %s: %w", p, err)
		}
		s, err := flatfile.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading skip-list %s: %w", p, err)
		}
		for k := range s {
			set[k] = struct{}{}
		}
	}
	return set, nil
}

func asFatal(err error, target **diag.FatalError) bool {
	fe, ok := err.(*diag.FatalError)
	if !ok {
		return false
	}
	*target = fe
	return true
}

var _ source.Reader = (*asmfile.Reader)(nil)
