/*
Package synth implements the anchor/kern synthesizer (§4.4, component
D): turning the source model's per-layer anchors and kerning pairs into
the data mark-to-base, mark-to-mark, and pair/class kerning lookups are
built from, with every value resolved across masters through the
variation solver (component B).

Grounded on original_source/fontbe/src/features/marks.rs (mark grouping,
pruning, mark-to-mark promotion) and original_source/fontbe/src/kern.rs
(kerning rule materialization), reimplemented over this module's own
source.Font and variation.Solve rather than fea-rs's builder types.
*/
package synth

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"

	"github.com/glyphware/vfc/diag"
	"github.com/glyphware/vfc/source"
	"github.com/glyphware/vfc/variation"
)

func tracer() tracing.Trace {
	return tracing.Select("vfc.synth")
}

// ResolvedAnchor is an anchor's (default, deltas) pair for each of its two
// coordinates, already run through the variation solver.
type ResolvedAnchor struct {
	GlyphName string
	Name      string // bare group name, e.g. "top"
	Component int    // ligature component index, 0 unless a ligature anchor
	X, Y      float64
	XDeltas   []variation.RegionDelta
	YDeltas   []variation.RegionDelta
	// InternedXIndex/InternedYIndex are this anchor's delta-set indices
	// within the shared font-wide variation.Interner, or -1 when that
	// coordinate has no variation (§4.2 "Interning"; the layout compiler
	// resolves these to final ItemVariationStore coordinates via
	// variation.Store.EntryLocation).
	InternedXIndex int
	InternedYIndex int
}

// resolveAnchor collects every master layer's sample of the named anchor
// on glyphName and solves for its default position plus per-axis deltas
// (§4.4 "Anchor positions vary across the design space exactly like any
// other metric"), interning any nonzero delta vectors into interner so
// the layout compiler can later address them from a shared
// ItemVariationStore.
func resolveAnchor(font *source.Font, glyphName string, kind source.AnchorKind, name string, component int, interner *variation.Interner, collector *diag.Collector) (*ResolvedAnchor, bool) {
	idx, ok := font.GlyphByName(glyphName)
	if !ok {
		return nil, false
	}
	glyph := font.Glyphs[idx]
	low, high := source.AxisExtrema(font.Axes)

	var xSamples, ySamples []variation.Sample
	for _, layer := range glyph.Layers {
		if layer.IsIntermediate {
			// intermediate layers do not carry a stable master id the
			// solver can key samples on; the synthesizer only resolves
			// across true masters (§4.4 Non-goals).
			continue
		}
		master := font.MasterByID(layer.MasterID)
		if master == nil {
			continue
		}
		for _, a := range layer.Anchors {
			if a.Kind != kind || a.Name != name || a.Component != component {
				continue
			}
			loc := source.Normalize(font.Axes, low, high, master.Location)
			xSamples = append(xSamples, variation.Sample{MasterID: master.ID, Location: loc, Value: a.X})
			ySamples = append(ySamples, variation.Sample{MasterID: master.ID, Location: loc, Value: a.Y})
			break
		}
	}
	if len(xSamples) == 0 {
		return nil, false
	}
	defMaster := font.Default()
	if defMaster == nil {
		return nil, false
	}
	metric := fmt.Sprintf("%s.%s", glyphName, name)
	defX, dx, err := variation.Solve(metric+".x", defMaster.ID, xSamples, variation.UnitFUnits)
	if err != nil {
		collector.Add(diag.Warnf(diag.KindVariation, glyphName, diag.Range{}, "%s", err.Error()))
		return nil, false
	}
	defY, dy, err := variation.Solve(metric+".y", defMaster.ID, ySamples, variation.UnitFUnits)
	if err != nil {
		collector.Add(diag.Warnf(diag.KindVariation, glyphName, diag.Range{}, "%s", err.Error()))
		return nil, false
	}
	xIdx, yIdx := -1, -1
	if interner != nil {
		if idx, _ := interner.Intern(dx); idx >= 0 {
			xIdx = idx
		}
		if idx, _ := interner.Intern(dy); idx >= 0 {
			yIdx = idx
		}
	}
	return &ResolvedAnchor{
		GlyphName:      glyphName,
		Name:           name,
		Component:      component,
		X:              defX,
		Y:              defY,
		XDeltas:        dx,
		YDeltas:        dy,
		InternedXIndex: xIdx,
		InternedYIndex: yIdx,
	}, true
}
