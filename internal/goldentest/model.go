// Package goldentest holds small hand-authored source fixtures together
// with expected-lookup models, and the minimal decoders needed to check
// a compiled GSUB/GPOS/GDEF byte blob against them without going through
// a full sfnt.Font (this compiler's output has no cmap/glyf/mandatory
// table set of its own, so golang.org/x/image/font/sfnt or ot.Parse
// cannot navigate it directly).
//
// This is the compiled-table analogue of internal/ttxtest: where
// ttxtest's ExpectedGSUB/ExpectedGPOS models are derived from fonttools
// TTX dumps, ExpectedLookup here is derived from a compiled vfc.Compiled
// value, but the "normalized model, only covering what tests need"
// shape is the same.
package goldentest

// ExpectedLookup is a normalized view of one LookupList entry: its type
// and subtable count, without decoding subtable-specific fields.
type ExpectedLookup struct {
	Type         int
	SubtableCount int
}

// ExpectedLayout summarizes a compiled GSUB or GPOS table's LookupList.
type ExpectedLayout struct {
	Lookups []ExpectedLookup
}

// ExpectedGDEF summarizes a compiled GDEF table's glyph class coverage.
type ExpectedGDEF struct {
	HasGlyphClassDef bool
	HasMarkAttachClassDef bool
	HasItemVarStore bool
}
