package layout

import "github.com/glyphware/vfc/variation"

// BuildItemVariationStore serializes a variation.Store into the
// OpenType ItemVariationStore binary format (§6 "GDEF table... item
// variation store for variable anchors and value records").
//
// Simplification: each ItemVariationData subtable is encoded uniformly
// short (int16 deltas) or uniformly long (int32 deltas) per
// variation.VariationData.ShortFormat, rather than OpenType's
// mixed-width per-region split (the LONG_WORDS_FLAG high bits of
// wordDeltaCount can, in principle, promote only some columns to
// int32) — every delta in a subtable already shares a region set by
// construction (variation.BuildStore groups by exact region-index set),
// and real designer deltas are overwhelmingly FUnit-scale and fit int16,
// so the per-column split buys nothing here; see DESIGN.md.
func BuildItemVariationStore(store variation.Store) []byte {
	w := newBuf()
	w.u16(1) // ItemVariationStore format
	regionListOffAt := w.placeholder(4)
	w.u16(uint16(len(store.Subtables)))
	dataOffsetsAt := w.placeholder(len(store.Subtables) * 4)

	w.patchU32(regionListOffAt, uint32(w.len()))
	buildVariationRegionList(w, store.Axes, store.Regions)

	for i, vd := range store.Subtables {
		w.patchU32(dataOffsetsAt+i*4, uint32(w.len()))
		buildItemVariationData(w, vd)
	}
	return w.b
}

func buildVariationRegionList(w *buf, axes []string, regions []variation.Region) {
	w.u16(uint16(len(axes)))
	w.u16(uint16(len(regions)))
	for _, r := range regions {
		for _, axis := range axes {
			t := r[axis] // zero Tent (0,0,0) if this region doesn't constrain axis
			w.i16(f2dot14(t.Start))
			w.i16(f2dot14(t.Peak))
			w.i16(f2dot14(t.End))
		}
	}
}

func f2dot14(v float64) int16 {
	scaled := v * 16384
	if scaled > 32767 {
		scaled = 32767
	}
	if scaled < -32768 {
		scaled = -32768
	}
	return int16(scaled)
}

func buildItemVariationData(w *buf, vd variation.VariationData) {
	w.u16(uint16(len(vd.Rows)))
	wordDeltaCount := uint16(len(vd.RegionIndices))
	if !vd.ShortFormat {
		wordDeltaCount |= 0x8000
	}
	w.u16(wordDeltaCount)
	w.u16(uint16(len(vd.RegionIndices)))
	for _, ri := range vd.RegionIndices {
		w.u16(uint16(ri))
	}
	for _, row := range vd.Rows {
		for _, d := range row {
			if vd.ShortFormat {
				w.i16(int16(d))
			} else {
				w.u32(uint32(d))
			}
		}
	}
}
