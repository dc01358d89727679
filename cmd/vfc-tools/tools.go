package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/thatisuday/commando"

	"github.com/glyphware/vfc"
	"github.com/glyphware/vfc/diag"
	"github.com/glyphware/vfc/source"
)

// render is intentionally absent: this compiler never produces glyph
// outlines (§1 Non-goals, "outline rasterization is out of scope"), so
// there is nothing for a render subcommand to rasterize.
func main() {
	commando.
		SetExecutableName("vfc-tools").
		SetVersion("v0.0.1").
		SetDescription("CLI for compiling and diagnosing variable-font source files.")

	commando.
		Register(nil).
		AddFlag("verbose,V", "display additional output", commando.Bool, nil)

	commando.
		Register("compile").
		SetDescription("Compile a source font into GDEF/GPOS/GSUB layout tables.").
		SetShortDescription("compile source").
		AddArgument("source", "source font file path", "").
		AddFlag("out,o", "output file for the compiled GDEF table (\"-\" prints table sizes instead)", commando.String, "-").
		SetAction(runCompileCommand)

	commando.
		Register("inspect").
		SetDescription("Print table sizes and diagnostics for a source font, without writing output.").
		SetShortDescription("inspect source").
		AddArgument("source", "source font file path", "").
		AddFlag("errors,e", "print diagnostics even on success", commando.Bool, nil).
		SetAction(runInspectCommand)

	commando.
		Register("diff").
		SetDescription("Compile two source fonts and report which layout tables differ.").
		SetShortDescription("diff two sources").
		AddArgument("source-a", "first source font file path", "").
		AddArgument("source-b", "second source font file path", "").
		SetAction(runDiffCommand)

	commando.Parse(nil)
}

func runCompileCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	sourcePath := args["source"].Value
	font := mustLoadSource(sourcePath)
	compiled, diags := mustCompile(font)
	printDiagnostics(diags)

	outPath, err := flags["out"].GetString()
	if err != nil {
		fatalf("invalid --out flag: %v", err)
	}
	if outPath == "" || outPath == "-" {
		fmt.Printf("GDEF=%d GPOS=%d GSUB=%d bytes\n", len(compiled.Layout.GDEF), len(compiled.Layout.GPOS), len(compiled.Layout.GSUB))
		return
	}
	if err := os.WriteFile(outPath, compiled.Layout.GDEF, 0o644); err != nil {
		fatalf("cannot write %s: %v", outPath, err)
	}
	fmt.Printf("wrote %s (GDEF table, %d bytes)\n", outPath, len(compiled.Layout.GDEF))
}

func runInspectCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	sourcePath := args["source"].Value
	font := mustLoadSource(sourcePath)
	fmt.Printf("Path: %s\n", sourcePath)
	fmt.Printf("UnitsPerEm: %d\n", font.UnitsPerEm)
	fmt.Printf("Axes: %d\n", len(font.Axes))
	fmt.Printf("Masters: %d\n", len(font.Masters))
	fmt.Printf("Glyphs: %d\n", len(font.Glyphs))

	compiled, diags := mustCompile(font)
	tables := map[string][]byte{"GDEF": compiled.Layout.GDEF, "GPOS": compiled.Layout.GPOS, "GSUB": compiled.Layout.GSUB}
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s: %d bytes\n", name, len(tables[name]))
	}

	showErrors, err := flags["errors"].GetBool()
	if err != nil {
		fatalf("invalid --errors flag: %v", err)
	}
	if showErrors {
		printDiagnostics(diags)
	}
}

func runDiffCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	fontA := mustLoadSource(args["source-a"].Value)
	fontB := mustLoadSource(args["source-b"].Value)
	compiledA, _ := mustCompile(fontA)
	compiledB, _ := mustCompile(fontB)

	diffTable("GDEF", compiledA.Layout.GDEF, compiledB.Layout.GDEF)
	diffTable("GPOS", compiledA.Layout.GPOS, compiledB.Layout.GPOS)
	diffTable("GSUB", compiledA.Layout.GSUB, compiledB.Layout.GSUB)
}

func diffTable(name string, a, b []byte) {
	switch {
	case len(a) == 0 && len(b) == 0:
		fmt.Printf("%s: absent in both\n", name)
	case len(a) != len(b):
		fmt.Printf("%s: differs (%d vs %d bytes)\n", name, len(a), len(b))
	case string(a) != string(b):
		fmt.Printf("%s: differs (same length, different bytes)\n", name)
	default:
		fmt.Printf("%s: identical (%d bytes)\n", name, len(a))
	}
}

func mustLoadSource(path string) *source.Font {
	if path == "" {
		fatalf("source path is required")
	}
	font, warnings, err := vfc.LoadSourceFile(path)
	if err != nil {
		fatalf("cannot load %s: %v", path, err)
	}
	for _, w := range warnings {
		fmt.Printf("warning: %s\n", w.Detail)
	}
	return font
}

func mustCompile(font *source.Font) (*vfc.Compiled, []diag.Diagnostic) {
	compiled, diags, err := vfc.Compile(font, vfc.Options{})
	if err != nil {
		printDiagnostics(diags)
		fatalf("compile failed: %v", err)
	}
	return compiled, diags
}

func printDiagnostics(diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Println(d.String())
	}
}

func fatalf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, "vfc-tools: "+format+"\n", args...)
	os.Exit(1)
}
