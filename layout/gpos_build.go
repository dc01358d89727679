package layout

import (
	"sort"
	"strconv"
	"strings"

	"github.com/glyphware/vfc/feaast"
	"github.com/glyphware/vfc/synth"
	"github.com/glyphware/vfc/variation"
)

// DeltaLocator resolves an interned delta-set index (as produced by
// synth's variation.Interner calls) to its final ItemVariationStore
// (outer, inner) coordinate, once the whole font's store has been built
// by BuildItemVariationStore. A nil entry (index < 0) means "no
// variation for this field".
type DeltaLocator func(internIndex int) (outer, inner int, ok bool)

// NewDeltaLocator adapts a variation.Store's EntryLocation slice into a
// DeltaLocator closure.
func NewDeltaLocator(store variation.Store) DeltaLocator {
	return func(internIndex int) (int, int, bool) {
		if internIndex < 0 || internIndex >= len(store.EntryLocation) {
			return 0, 0, false
		}
		loc := store.EntryLocation[internIndex]
		return loc.Outer, loc.Inner, true
	}
}

// buildAnchor encodes an Anchor table: format 1 when the anchor
// has no variation (the common static-font-equivalent case), format 3
// (with VariationIndex device-table offsets) when either coordinate
// carries deltas.
func buildAnchor(w *buf, x, y int16, xDeltaIdx, yDeltaIdx int, locate DeltaLocator) {
	xOuter, xInner, xHas := locate(xDeltaIdx)
	yOuter, yInner, yHas := locate(yDeltaIdx)
	if !xHas && !yHas {
		w.u16(1)
		w.i16(x)
		w.i16(y)
		return
	}
	w.u16(3)
	w.i16(x)
	w.i16(y)
	xDevAt := w.placeholder(2)
	yDevAt := w.placeholder(2)
	tableStart := xDevAt - 6
	if xHas {
		w.patchU16(xDevAt, uint16(w.len()-tableStart))
		buildVariationIndexTable(w, xOuter, xInner)
	}
	if yHas {
		w.patchU16(yDevAt, uint16(w.len()-tableStart))
		buildVariationIndexTable(w, yOuter, yInner)
	}
}

// buildVariationIndexTable emits a Device table tagged as a
// VariationIndex table (deltaFormat == 0x8000), the OpenType 1.8
// mechanism for attaching an ItemVariationStore delta-set reference to
// a static field.
func buildVariationIndexTable(w *buf, outer, inner int) {
	w.u16(uint16(outer))
	w.u16(uint16(inner))
	w.u16(0x8000)
}

func resolvedAnchorI16(a *synth.ResolvedAnchor) (x, y int16) {
	return int16(a.X), int16(a.Y)
}

// BuildMarkToBaseSubtable encodes one MarkBasePos format-1 subtable
// (GPOS lookup type 4) for a single synthesized mark-attachment group
// (§4.4 "Output... one pending lookup per kind"). Every synthesized
// group occupies markClass 0: grouping multiple named groups into one
// lookup with several mark classes is a real-compiler optimization this
// compiler intentionally skips, matching the spec's instruction to add
// each synthesized lookup as its own lookup rather than merge it into a
// shared one.
func BuildMarkToBaseSubtable(group synth.MarkAttachLookup, gids map[string]GlyphID, locate DeltaLocator) []byte {
	return buildMarkAttachSubtable(group.Marks, group.Bases, gids, locate)
}

// BuildMarkToMarkSubtable encodes one MarkMarkPos format-1 subtable
// (GPOS lookup type 6); wire-format identical to MarkBasePos, only the
// semantic role of the "base" side (mark1 glyphs) differs.
func BuildMarkToMarkSubtable(group synth.MarkAttachLookup, gids map[string]GlyphID, locate DeltaLocator) []byte {
	return buildMarkAttachSubtable(group.Marks, group.Bases, gids, locate)
}

func buildMarkAttachSubtable(marks, bases []synth.GroupMember, gids map[string]GlyphID, locate DeltaLocator) []byte {
	markGids, markByGID := sortMembersByGID(marks, gids)
	baseGids, baseByGID := sortMembersByGID(bases, gids)

	w := newBuf()
	w.u16(1) // MarkBasePosFormat1 / MarkMarkPosFormat1
	markCovOffAt := w.placeholder(2)
	baseCovOffAt := w.placeholder(2)
	w.u16(1) // markClassCount: always 1, see doc comment above
	markArrayOffAt := w.placeholder(2)
	baseArrayOffAt := w.placeholder(2)

	w.patchU16(markCovOffAt, uint16(w.len()))
	buildCoverageFormat1(w, markGids)

	w.patchU16(baseCovOffAt, uint16(w.len()))
	buildCoverageFormat1(w, baseGids)

	w.patchU16(markArrayOffAt, uint16(w.len()))
	buildMarkArray(w, markGids, markByGID, locate)

	w.patchU16(baseArrayOffAt, uint16(w.len()))
	buildBaseArray(w, baseGids, baseByGID, locate)

	return w.b
}

// memberGIDs resolves a member list's glyph names to GIDs verbatim,
// preserving member order; used for mark-filtering sets (GDEF), whose
// Coverage tables have no parallel record array to keep in lockstep with.
func memberGIDs(members []synth.GroupMember, gids map[string]GlyphID) []GlyphID {
	out := make([]GlyphID, 0, len(members))
	for _, m := range members {
		out = append(out, gids[m.Glyph])
	}
	return out
}

// sortMembersByGID orders members by their resolved GlyphID (not glyph
// name), matching buildCoverageFormat1's own GID sort: MarkRecord[i]/
// BaseRecord[i] must line up with Coverage index i, and GIDs come from
// font.GlyphOrder, which is not generally lexicographic in glyph name.
func sortMembersByGID(members []synth.GroupMember, gids map[string]GlyphID) ([]GlyphID, map[GlyphID]synth.GroupMember) {
	byGID := make(map[GlyphID]synth.GroupMember, len(members))
	out := make([]GlyphID, 0, len(members))
	for _, m := range members {
		g := gids[m.Glyph]
		byGID[g] = m
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, byGID
}

func buildMarkArray(w *buf, markGids []GlyphID, byGID map[GlyphID]synth.GroupMember, locate DeltaLocator) {
	w.u16(uint16(len(markGids)))
	recordsAt := w.placeholder(len(markGids) * 4) // MarkRecord: uint16 class + Offset16
	tableStart := recordsAt - 2

	for i, g := range markGids {
		m := byGID[g]
		at := recordsAt + i*4
		w.patchU16(at, 0) // markClass
		off := w.len() - tableStart
		w.patchU16(at+2, uint16(off))
		x, y := resolvedAnchorI16(m.Anchor)
		xIdx, yIdx := anchorDeltaIndices(m.Anchor)
		buildAnchor(w, x, y, xIdx, yIdx, locate)
	}
}

func buildBaseArray(w *buf, baseGids []GlyphID, byGID map[GlyphID]synth.GroupMember, locate DeltaLocator) {
	w.u16(uint16(len(baseGids)))
	recordsAt := w.placeholder(len(baseGids) * 2) // one Offset16 per base (markClassCount == 1)
	tableStart := recordsAt - 2

	for i, g := range baseGids {
		b := byGID[g]
		off := w.len() - tableStart
		w.patchU16(recordsAt+i*2, uint16(off))
		x, y := resolvedAnchorI16(b.Anchor)
		xIdx, yIdx := anchorDeltaIndices(b.Anchor)
		buildAnchor(w, x, y, xIdx, yIdx, locate)
	}
}

// CursiveRule is one `pos cursive <glyph|class> <entry> <exit>;` feature
// statement (§4.3 gposRule's cursive shape), resolved from the feaast
// tree: Glyphs is the rule's glyph-or-class membership, Entry/Exit are
// nil when the corresponding anchor was written as NULL.
type CursiveRule struct {
	Glyphs []string
	Entry  *CursiveAnchor
	Exit   *CursiveAnchor
}

// CursiveAnchor is a static (non-variable) anchor coordinate: inline
// `pos cursive` anchors in a feature file carry no master/variation
// data, unlike synth-resolved mark anchors.
type CursiveAnchor struct {
	X, Y int16
}

// ExtractCursiveRules walks tree for every `pos cursive ...;` statement
// and resolves its glyph-or-class operand against named classes declared
// earlier in the same tree (§4.3 GlyphClassDeclNode).
func ExtractCursiveRules(tree *feaast.Tree) []CursiveRule {
	if tree == nil || tree.Root == nil {
		return nil
	}
	classes := collectNamedClasses(tree.Root)
	var rules []CursiveRule
	for _, n := range tree.Root.FindAll(feaast.GposNode) {
		kids := semanticChildren(n.Children)
		if len(kids) < 2 || kids[0].Token == nil || kids[0].Token.Kind != feaast.PosKw {
			continue
		}
		if kids[1].Token == nil || kids[1].Token.Kind != feaast.CursiveKw {
			continue
		}
		var glyphNode *feaast.Node
		var anchors []*feaast.Node
		for _, k := range kids[2:] {
			switch k.Kind {
			case feaast.GlyphOrClassNode:
				if glyphNode == nil {
					glyphNode = k
				}
			case feaast.AnchorNode:
				anchors = append(anchors, k)
			}
		}
		if glyphNode == nil || len(anchors) < 2 {
			continue
		}
		rule := CursiveRule{Glyphs: expandGlyphOrClass(glyphNode, classes)}
		if x, y, isNull := parseAnchorXY(anchors[0]); !isNull {
			rule.Entry = &CursiveAnchor{X: x, Y: y}
		}
		if x, y, isNull := parseAnchorXY(anchors[1]); !isNull {
			rule.Exit = &CursiveAnchor{X: x, Y: y}
		}
		rules = append(rules, rule)
	}
	return rules
}

// parseAnchorXY reads an AnchorNode's reconstructed source text (e.g.
// "<anchor 120 -40>" or "<anchor NULL>") into its coordinate pair, or
// reports isNull for the NULL form.
func parseAnchorXY(n *feaast.Node) (x, y int16, isNull bool) {
	text := strings.TrimSpace(n.Text())
	text = strings.TrimSuffix(strings.TrimPrefix(text, "<"), ">")
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "anchor"))
	fields := strings.Fields(text)
	if len(fields) < 2 || fields[0] == "NULL" {
		return 0, 0, true
	}
	xv, errX := strconv.Atoi(fields[0])
	yv, errY := strconv.Atoi(fields[1])
	if errX != nil || errY != nil {
		return 0, 0, true
	}
	return int16(xv), int16(yv), false
}

// BuildCursivePosSubtable encodes a CursivePosFormat1 subtable (GPOS
// lookup type 3) covering every glyph named across rules: Coverage and
// the parallel EntryExitRecord list are built from one GID-sorted glyph
// list, the same lockstep pattern buildMarkAttachSubtable and
// BuildSingleSubstSubtable use, so record index i always matches
// Coverage index i.
func BuildCursivePosSubtable(rules []CursiveRule, gids map[string]GlyphID, locate DeltaLocator) []byte {
	byGID := make(map[GlyphID]CursiveRule, len(rules))
	for _, r := range rules {
		for _, name := range r.Glyphs {
			if g, ok := gids[name]; ok {
				byGID[g] = r
			}
		}
	}
	if len(byGID) == 0 {
		return nil
	}
	sorted := make([]GlyphID, 0, len(byGID))
	for g := range byGID {
		sorted = append(sorted, g)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	w := newBuf()
	w.u16(1) // CursivePosFormat1
	covOffAt := w.placeholder(2)
	w.u16(uint16(len(sorted)))
	recordsAt := w.placeholder(len(sorted) * 4) // EntryExitRecord: Offset16 entry + Offset16 exit

	for i, g := range sorted {
		r := byGID[g]
		at := recordsAt + i*4
		if r.Entry != nil {
			w.patchU16(at, uint16(w.len()))
			buildAnchor(w, r.Entry.X, r.Entry.Y, -1, -1, locate)
		}
		if r.Exit != nil {
			w.patchU16(at+2, uint16(w.len()))
			buildAnchor(w, r.Exit.X, r.Exit.Y, -1, -1, locate)
		}
	}

	w.patchU16(covOffAt, uint16(w.len()))
	buildCoverageFormat1(w, sorted)
	return w.b
}

// anchorDeltaIndices returns the X/Y variation.Interner indices for a
// resolved anchor's deltas, or -1 when that coordinate has none; synth
// interns them at resolve time (synth.resolveAnchor), so this package
// only has to pass the indices through a DeltaLocator.
func anchorDeltaIndices(a *synth.ResolvedAnchor) (xIdx, yIdx int) {
	return a.InternedXIndex, a.InternedYIndex
}
