package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"

	"github.com/glyphware/vfc"
	"github.com/glyphware/vfc/diag"
)

func tracer() tracing.Trace {
	return tracing.Select("vfc.inspect")
}

func main() {
	initDisplay()
	setupTracing()

	fontPath := flag.String("source", "", "source font file to load")
	flag.Parse()

	repl, err := readline.New("vfc-inspect > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{repl: repl}

	if *fontPath != "" {
		if err := intp.load(*fontPath); err != nil {
			tracer().Errorf(err.Error())
			os.Exit(4)
		}
	}

	pterm.Info.Println("Welcome to vfc-inspect. Quit with <ctrl>D")
	intp.REPL()
}

func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{Text: " !  ", Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack)}
	pterm.Error.Prefix = pterm.Prefix{Text: " Error", Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack)}
}

func setupTracing() {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":      "go",
		"trace.vfc.inspect": "Info",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Println("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())
	tracer().SetTraceLevel(tracing.LevelInfo)
}

// Intp is the REPL's interpreter state: the currently loaded source path
// and the result of the last compile, if any.
type Intp struct {
	repl     *readline.Instance
	path     string
	compiled *vfc.Compiled
	diags    []diag.Diagnostic
}

func (intp *Intp) String() string {
	if intp.path == "" {
		return "(no font loaded)"
	}
	return fmt.Sprintf("(%s)", intp.path)
}

func (intp *Intp) load(path string) error {
	font, warnings, err := vfc.LoadSourceFile(path)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		pterm.Warning.Println(w.Detail)
	}
	compiled, diags, err := vfc.Compile(font, vfc.Options{})
	intp.path = path
	intp.compiled = compiled
	intp.diags = diags
	if err != nil {
		pterm.Error.Println(err)
		return nil // a compile failure still leaves the REPL usable for `diagnostics`
	}
	pterm.Success.Printf("loaded and compiled %s\n", path)
	return nil
}

// REPL runs the read-compile-inspect loop until EOF.
func (intp *Intp) REPL() {
	for {
		pterm.Println(intp.String())
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if quit := intp.execute(line); quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

func (intp *Intp) execute(line string) (quit bool) {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return true
	case "help":
		intp.help()
	case "load":
		if len(fields) < 2 {
			pterm.Error.Println("usage: load <source-file>")
			return false
		}
		if err := intp.load(fields[1]); err != nil {
			pterm.Error.Println(err)
		}
	case "tables":
		intp.printTables()
	case "diagnostics":
		intp.printDiagnostics()
	case "write":
		if len(fields) < 2 {
			pterm.Error.Println("usage: write <path> (writes the GDEF table bytes)")
			return false
		}
		intp.writeGDEF(fields[1])
	default:
		pterm.Error.Printf("unknown command %q (try 'help')\n", fields[0])
	}
	return false
}

func (intp *Intp) help() {
	pterm.Println(`
  load <path>       load and compile a source font
  tables            print GDEF/GPOS/GSUB byte sizes
  diagnostics       print collected diagnostics
  write <path>      write the compiled GDEF table bytes to <path>
  quit              leave the REPL
`)
}

func (intp *Intp) printTables() {
	if intp.compiled == nil {
		pterm.Error.Println("no font loaded (use 'load <path>')")
		return
	}
	l := intp.compiled.Layout
	pterm.Printf("GDEF: %d bytes\n", len(l.GDEF))
	pterm.Printf("GPOS: %d bytes\n", len(l.GPOS))
	pterm.Printf("GSUB: %d bytes\n", len(l.GSUB))
}

func (intp *Intp) printDiagnostics() {
	if len(intp.diags) == 0 {
		pterm.Println("(no diagnostics)")
		return
	}
	for _, d := range intp.diags {
		pterm.Println(d.String())
	}
}

func (intp *Intp) writeGDEF(path string) {
	if intp.compiled == nil {
		pterm.Error.Println("no font loaded (use 'load <path>')")
		return
	}
	if err := os.WriteFile(path, intp.compiled.Layout.GDEF, 0o644); err != nil {
		pterm.Error.Println(err)
		return
	}
	pterm.Success.Printf("wrote %s (%d bytes)\n", path, len(intp.compiled.Layout.GDEF))
}
