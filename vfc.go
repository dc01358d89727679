/*
Package vfc is the top-level entry point of the variable-font compiler:
it wires the Source Model, Variation Solver, Feature-file Parser,
Anchor/Kern Synthesizer and Layout Compiler into one `Compile` call and
assembles the result into sfnt bytes, in the spirit of a thin root
package sitting over a deeper tree of components.
*/
package vfc

import (
	"fmt"
	"os"

	"github.com/npillmayer/schuko/tracing"

	"github.com/glyphware/vfc/diag"
	"github.com/glyphware/vfc/layout"
	"github.com/glyphware/vfc/sfntwriter"
	"github.com/glyphware/vfc/source"
)

func tracer() tracing.Trace {
	return tracing.Select("vfc")
}

// Options configures a single Compile call.
type Options struct {
	// ExtraTables carries already-serialized non-layout sfnt tables
	// (head, hhea, maxp, hmtx, cmap, post, name, glyf/loca, ...) that the
	// caller assembled elsewhere. Compile never invents glyph outlines or
	// metrics tables itself (§1 Non-goals: outline rasterization is out
	// of scope) — it only contributes GSUB/GPOS/GDEF and hands the rest
	// through untouched.
	ExtraTables map[sfntwriter.Tag][]byte
	// SelfCheck round-trips the assembled bytes through
	// sfntwriter.SelfCheck before Compile returns, surfacing a malformed
	// table directory as an error instead of shipping it.
	SelfCheck bool
}

// Compiled is the result of a top-level Compile call.
type Compiled struct {
	// Layout holds the raw GSUB/GPOS/GDEF bytes (§4.5's three table
	// outputs), available even when Font is nil (e.g. ExtraTables was
	// never supplied and the caller only wants the layout tables).
	Layout *layout.Compiled
	// Font is the fully assembled sfnt byte stream, set once Layout
	// compiled cleanly and sfntwriter.Assemble succeeded.
	Font []byte
}

// Bytes returns the assembled font bytes, or nil if Compile never
// reached sfnt assembly.
func (c *Compiled) Bytes() []byte {
	if c == nil {
		return nil
	}
	return c.Font
}

// WriteFile writes the assembled font bytes to path.
func (c *Compiled) WriteFile(path string) error {
	if c == nil || len(c.Font) == 0 {
		return fmt.Errorf("vfc: no assembled font bytes to write")
	}
	return os.WriteFile(path, c.Font, 0o644)
}

// Compile runs the full pipeline over an already-lifted source font:
// layout compilation (component E, which itself schedules its
// independent Anchors/Kerning/FeatureAST stages through a
// pipeline.Scheduler — see layout.Compile), then sfnt assembly via
// sfntwriter if the caller supplied the surrounding non-layout tables.
//
// Diagnostics are always returned, even on success: warnings (unknown
// GDEF category, alignment zone that could not be matched, and so on)
// do not stop compilation but are still worth surfacing (§7).
func Compile(src *source.Font, opts Options) (*Compiled, []diag.Diagnostic, error) {
	collector := &diag.Collector{}
	compiledLayout := layout.Compile(src, collector)
	result := &Compiled{Layout: compiledLayout}
	diagnostics := collector.All()

	if collector.HasErrors() {
		return result, diagnostics, fmt.Errorf("vfc: layout compilation failed (%d diagnostic(s), see errors)", len(diagnostics))
	}

	if len(opts.ExtraTables) == 0 {
		tracer().Debugf("no ExtraTables supplied, skipping sfnt assembly")
		return result, diagnostics, nil
	}

	tables := make(map[sfntwriter.Tag][]byte, len(opts.ExtraTables)+3)
	for tag, bytes := range opts.ExtraTables {
		tables[tag] = bytes
	}
	if len(compiledLayout.GSUB) > 0 {
		tables[sfntwriter.MakeTag("GSUB")] = compiledLayout.GSUB
	}
	if len(compiledLayout.GPOS) > 0 {
		tables[sfntwriter.MakeTag("GPOS")] = compiledLayout.GPOS
	}
	tables[sfntwriter.MakeTag("GDEF")] = compiledLayout.GDEF

	fontBytes, err := sfntwriter.Assemble(tables)
	if err != nil {
		return result, diagnostics, fmt.Errorf("vfc: sfnt assembly failed: %w", err)
	}
	result.Font = fontBytes

	if opts.SelfCheck {
		if _, err := sfntwriter.SelfCheck(fontBytes); err != nil {
			return result, diagnostics, fmt.Errorf("vfc: assembled font failed self-check: %w", err)
		}
	}
	tracer().Infof("compiled font: %d bytes, %d table(s)", len(fontBytes), len(tables))
	return result, diagnostics, nil
}

// LoadSource reads and lifts plist-like source text into a Font (§4.1),
// the usual first step before calling Compile.
func LoadSource(text string) (*source.Font, []source.Warning, error) {
	res, err := source.Load(text)
	if err != nil {
		return nil, nil, err
	}
	return res.Font, res.Warnings, nil
}

// LoadSourceFile reads path and lifts it via LoadSource.
func LoadSourceFile(path string) (*source.Font, []source.Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("vfc: cannot read source file %s: %w", path, err)
	}
	return LoadSource(string(data))
}
