package layout

import "sort"

// GDEFClass follows the OpenType GDEF GlyphClassDef enumeration.
type GDEFClass uint16

const (
	GDEFClassBase      GDEFClass = 1
	GDEFClassLigature  GDEFClass = 2
	GDEFClassMark      GDEFClass = 3
	GDEFClassComponent GDEFClass = 4
)

// GDEFBuilder accumulates the pieces of the GDEF table (§4.5 "4. Emit
// GDEF (class def, mark-attachment classes, variation index subtable
// for anchors/value records)").
type GDEFBuilder struct {
	GlyphClass       map[GlyphID]GDEFClass
	MarkAttachClass  map[GlyphID]uint16
	MarkGlyphSets    [][]GlyphID // one filter set per mark-to-mark lookup, in assignment order
	ItemVarStore     []byte      // pre-serialized ItemVariationStore, nil if no variable anchors/values
}

func NewGDEFBuilder() *GDEFBuilder {
	return &GDEFBuilder{
		GlyphClass:      map[GlyphID]GDEFClass{},
		MarkAttachClass: map[GlyphID]uint16{},
	}
}

// AddMarkGlyphSet appends a mark filtering set and returns its index,
// for use as a LookupEntry.MarkFilterSet value.
func (b *GDEFBuilder) AddMarkGlyphSet(gids []GlyphID) uint16 {
	b.MarkGlyphSets = append(b.MarkGlyphSets, gids)
	return uint16(len(b.MarkGlyphSets) - 1)
}

// Build serializes the GDEF header plus whichever of its four optional
// subtables are populated.
func (b *GDEFBuilder) Build() []byte {
	hasMajorMinor2 := len(b.MarkGlyphSets) > 0
	w := newBuf()
	if hasMajorMinor2 || len(b.ItemVarStore) > 0 {
		w.u16(1).u16(3) // version 1.3: adds MarkGlyphSetsDef + ItemVarStore
	} else {
		w.u16(1).u16(0)
	}
	classDefOffAt := w.placeholder(2)
	attachListOffAt := w.placeholder(2)
	ligCaretOffAt := w.placeholder(2)
	markAttachOffAt := w.placeholder(2)
	var markGlyphSetsOffAt, itemVarStoreOffAt int
	if hasMajorMinor2 || len(b.ItemVarStore) > 0 {
		markGlyphSetsOffAt = w.placeholder(2)
		itemVarStoreOffAt = w.placeholder(2)
	}
	if len(b.GlyphClass) > 0 {
		w.patchU16(classDefOffAt, uint16(w.len()))
		buildClassDef(w, b.GlyphClass)
	}
	// AttachList and LigCaretList are not populated by this compiler (no
	// attachment-point or ligature-caret data is carried by the source
	// model); their offsets stay NULL.
	_ = attachListOffAt
	_ = ligCaretOffAt

	if len(b.MarkAttachClass) > 0 {
		off := w.len()
		w.patchU16(markAttachOffAt, uint16(off))
		buildMarkAttachClassDef(w, b.MarkAttachClass)
	}
	if hasMajorMinor2 {
		off := w.len()
		w.patchU16(markGlyphSetsOffAt, uint16(off))
		buildMarkGlyphSetsDef(w, b.MarkGlyphSets)
	}
	if len(b.ItemVarStore) > 0 {
		w.patchU16(itemVarStoreOffAt, uint16(w.len()))
		w.bytes(b.ItemVarStore)
	}
	return w.b
}

// buildClassDef emits a GDEF/GSUB/GPOS common ClassDef table. Format 2
// (glyph-range runs) is used unconditionally: it is never larger than
// format 1 for a sparse, non-contiguous glyph-id assignment, which is
// the typical shape of a GDEF glyph-class table.
func buildClassDef(w *buf, classes map[GlyphID]GDEFClass) {
	type run struct {
		start, end GlyphID
		class      GDEFClass
	}
	gids := make([]GlyphID, 0, len(classes))
	for g := range classes {
		gids = append(gids, g)
	}
	sort.Slice(gids, func(i, j int) bool { return gids[i] < gids[j] })

	var runs []run
	for _, g := range gids {
		c := classes[g]
		if n := len(runs); n > 0 && runs[n-1].class == c && runs[n-1].end+1 == g {
			runs[n-1].end = g
			continue
		}
		runs = append(runs, run{start: g, end: g, class: c})
	}
	w.u16(2)
	w.u16(uint16(len(runs)))
	for _, r := range runs {
		w.u16(uint16(r.start)).u16(uint16(r.end)).u16(uint16(r.class))
	}
}

// buildMarkAttachClassDef reuses the same ClassDef encoding as
// buildClassDef but over arbitrary uint16 class values.
func buildMarkAttachClassDef(w *buf, classes map[GlyphID]uint16) {
	generic := make(map[GlyphID]GDEFClass, len(classes))
	for g, c := range classes {
		generic[g] = GDEFClass(c)
	}
	buildClassDef(w, generic)
}

// buildMarkGlyphSetsDef emits the MarkGlyphSetsDef table (GDEF 1.2+):
// a format-1 header followed by one CoverageOffset per set.
func buildMarkGlyphSetsDef(w *buf, sets [][]GlyphID) {
	w.u16(1) // MarkSetTableFormat
	w.u16(uint16(len(sets)))
	recordsAt := w.placeholder(len(sets) * 4) // Offset32 per set
	tableStart := recordsAt - 4

	for i, set := range sets {
		off := w.len() - tableStart
		w.patchU32(recordsAt+i*4, uint32(off))
		buildCoverageFormat1(w, set)
	}
}

// buildCoverageFormat1 emits a Coverage table, format 1 (sorted glyph
// list) — sufficient and canonical for the small, explicit glyph sets
// this compiler produces (mark filtering sets, single-glyph lookups).
func buildCoverageFormat1(w *buf, gids []GlyphID) {
	sorted := make([]GlyphID, len(gids))
	copy(sorted, gids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	w.u16(1)
	w.u16(uint16(len(sorted)))
	for _, g := range sorted {
		w.u16(uint16(g))
	}
}
