package layout

import (
	"sort"

	"github.com/glyphware/vfc/synth"
)

// BuildPairPosSubtables groups a synthesizer kerning plan into PairPos
// format-1 subtables (GPOS lookup type 2), one subtable per distinct
// left glyph, following the common compiler convention of bucketing
// pair rules by first glyph to keep each PairSet small and the
// Coverage table simple (format 1, one left glyph per entry).
//
// Group/Group class-pair rules (PairPosFormat2) are not emitted: every
// rule reaching this builder has already been expanded to individual
// glyph pairs by synth.ExpandMixedPairs, and synth never resolves a
// Group/Group pair into anything but per-member glyph pairs either, so
// format 2's class-matrix encoding has no input shape to exercise here
// — see DESIGN.md.
func BuildPairPosSubtables(pairs []synth.ResolvedKernPair, gids map[string]GlyphID, locate DeltaLocator) [][]byte {
	byLeft := map[GlyphID][]synth.ResolvedKernPair{}
	for _, p := range pairs {
		left, ok := gids[p.Left.Name]
		if !ok {
			continue
		}
		byLeft[left] = append(byLeft[left], p)
	}
	lefts := make([]GlyphID, 0, len(byLeft))
	for g := range byLeft {
		lefts = append(lefts, g)
	}
	sort.Slice(lefts, func(i, j int) bool { return lefts[i] < lefts[j] })

	var subtables [][]byte
	for _, left := range lefts {
		rules := byLeft[left]
		sort.Slice(rules, func(i, j int) bool { return rules[i].Right.Name < rules[j].Right.Name })
		subtables = append(subtables, buildPairPosFormat1(left, rules, gids, locate))
	}
	return subtables
}

func buildPairPosFormat1(left GlyphID, rules []synth.ResolvedKernPair, gids map[string]GlyphID, locate DeltaLocator) []byte {
	varies := false
	for _, r := range rules {
		if _, _, ok := locate(r.DeltaIndex); ok {
			varies = true
			break
		}
	}
	format1 := VFXAdvance
	if varies {
		format1 |= VFXAdvDevice
	}

	w := newBuf()
	w.u16(1) // PairPosFormat1
	covOffAt := w.placeholder(2)
	w.u16(uint16(format1))
	w.u16(0) // valueFormat2: no second-glyph value record (§4.4 kerning is a single x-advance adjustment on the left glyph)
	w.u16(1) // pairSetCount: one PairSet for the single Coverage glyph
	setOffAt := w.placeholder(2)
	tableStart := 0

	w.patchU16(covOffAt, uint16(w.len()))
	buildCoverageFormat1(w, []GlyphID{left})

	w.patchU16(setOffAt, uint16(w.len()-tableStart))
	buildPairSet(w, rules, format1, gids, locate)
	return w.b
}

func buildPairSet(w *buf, rules []synth.ResolvedKernPair, format1 ValueFormat, gids map[string]GlyphID, locate DeltaLocator) {
	w.u16(uint16(len(rules)))
	for _, r := range rules {
		right, ok := gids[r.Right.Name]
		if !ok {
			continue
		}
		w.u16(uint16(right))
		writeXAdvanceValueRecord(w, int16(r.Value), r.DeltaIndex, format1, locate)
	}
}

// writeXAdvanceValueRecord writes a ValueRecord containing only an
// x-advance field (plus, when format1 declares it, a VariationIndex
// device table), with device-table offsets relative to the start of
// the enclosing PairPos subtable buffer (tableStart == 0, since
// buildPairPosFormat1 starts a fresh buf per subtable).
func writeXAdvanceValueRecord(w *buf, xAdvance int16, deltaIdx int, format1 ValueFormat, locate DeltaLocator) {
	w.i16(xAdvance)
	if format1&VFXAdvDevice == 0 {
		return
	}
	devAt := w.placeholder(2)
	outer, inner, ok := locate(deltaIdx)
	if !ok {
		return // NULL offset: this particular pair does not vary
	}
	w.patchU16(devAt, uint16(w.len()))
	buildVariationIndexTable(w, outer, inner)
}
