package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"

	"github.com/glyphware/vfc"
)

func tracer() tracing.Trace {
	return tracing.Select("vfc.cli")
}

func main() {
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	sourcePath := flag.String("source", "", "source font file to compile")
	outPath := flag.String("out", "", "output file for the assembled font, or for the GDEF table alone when no font was assembled (omit to only report diagnostics)")
	selfCheck := flag.Bool("selfcheck", false, "round-trip the assembled font through sfnt.Parse before writing it out")
	flag.Parse()

	setupTracing(*tlevel)

	if *sourcePath == "" {
		pterm.Error.Println("missing -source")
		flag.Usage()
		os.Exit(2)
	}

	font, warnings, err := vfc.LoadSourceFile(*sourcePath)
	if err != nil {
		tracer().Errorf("cannot load %s: %v", *sourcePath, err)
		os.Exit(1)
	}
	for _, w := range warnings {
		pterm.Warning.Println(w.Detail)
	}

	compiled, diags, err := vfc.Compile(font, vfc.Options{SelfCheck: *selfCheck})
	for _, d := range diags {
		line := d.String()
		if d.Severity.String() == "error" {
			pterm.Error.Println(line)
		} else {
			pterm.Warning.Println(line)
		}
	}
	if err != nil {
		tracer().Errorf("compilation failed: %v", err)
		os.Exit(1)
	}

	pterm.Info.Printf("compiled: GDEF=%d bytes, GPOS=%d bytes, GSUB=%d bytes\n",
		len(compiled.Layout.GDEF), len(compiled.Layout.GPOS), len(compiled.Layout.GSUB))

	if *outPath == "" {
		return
	}
	if len(compiled.Bytes()) == 0 {
		pterm.Warning.Println("no assembled font bytes (pass non-layout tables via a library caller to produce a full sfnt); writing GDEF table only")
		if err := os.WriteFile(*outPath, compiled.Layout.GDEF, 0o644); err != nil {
			tracer().Errorf("cannot write %s: %v", *outPath, err)
			os.Exit(1)
		}
		return
	}
	if err := compiled.WriteFile(*outPath); err != nil {
		tracer().Errorf("cannot write %s: %v", *outPath, err)
		os.Exit(1)
	}
	pterm.Success.Printf("wrote %s\n", *outPath)
}

func setupTracing(level string) {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
		"trace.vfc.cli":   "Info",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Println("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())
	switch level {
	case "Debug":
		tracer().SetTraceLevel(tracing.LevelDebug)
	case "Error":
		tracer().SetTraceLevel(tracing.LevelError)
	default:
		tracer().SetTraceLevel(tracing.LevelInfo)
	}
}
