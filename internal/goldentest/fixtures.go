package goldentest

import "github.com/glyphware/vfc/source"

// MarkAttachFont builds a minimal two-master font with one base glyph
// carrying a "top" anchor and one mark glyph carrying the matching
// "_top" anchor, the smallest input that forces the layout compiler to
// emit a MarkBasePos (GPOS lookup type 4). Mirrors the fixture shape of
// synth/synth_test.go's twoMasterFont, built directly as a source.Font
// rather than through the plist lifter, to keep golden fixtures
// independent of lift-grammar detail.
func MarkAttachFont() *source.Font {
	f := &source.Font{
		UnitsPerEm: 1000,
		Axes: []source.Axis{
			{Name: "Weight", Tag: "wght", Min: 400, Default: 400, Max: 900},
		},
		Masters: []source.Master{
			{ID: "light", Name: "Light", Location: source.DesignLocation{"wght": 400}},
			{ID: "bold", Name: "Bold", Location: source.DesignLocation{"wght": 900}},
		},
		DefaultMaster: 0,
		GDEFCategories: map[string]string{
			"a":        "Base",
			"dotabove": "Mark",
		},
	}
	f.Glyphs = []source.Glyph{
		{
			Name:   "a",
			Export: true,
			Layers: []source.Layer{
				{MasterID: "light", Anchors: []source.Anchor{{Name: "top", Kind: source.AnchorBase, X: 250, Y: 480}}},
				{MasterID: "bold", Anchors: []source.Anchor{{Name: "top", Kind: source.AnchorBase, X: 260, Y: 480}}},
			},
		},
		{
			Name:   "dotabove",
			Export: true,
			Layers: []source.Layer{
				{MasterID: "light", Anchors: []source.Anchor{{Name: "top", Kind: source.AnchorMark, X: 0, Y: 520}}},
				{MasterID: "bold", Anchors: []source.Anchor{{Name: "top", Kind: source.AnchorMark, X: 0, Y: 540}}},
			},
		},
	}
	f.GlyphOrder = map[string]int{"a": 0, "dotabove": 1}
	return f
}

// KernPairFont builds a minimal two-master font with a single explicit
// kerning pair between two base glyphs, the smallest input that forces
// the layout compiler to emit a PairPos (GPOS lookup type 2).
func KernPairFont() *source.Font {
	f := &source.Font{
		UnitsPerEm: 1000,
		Axes: []source.Axis{
			{Name: "Weight", Tag: "wght", Min: 400, Default: 400, Max: 900},
		},
		Masters: []source.Master{
			{ID: "light", Name: "Light", Location: source.DesignLocation{"wght": 400}},
			{ID: "bold", Name: "Bold", Location: source.DesignLocation{"wght": 900}},
		},
		DefaultMaster: 0,
		GDEFCategories: map[string]string{
			"A": "Base",
			"V": "Base",
		},
	}
	f.Glyphs = []source.Glyph{
		{
			Name:   "A",
			Export: true,
			Layers: []source.Layer{
				{MasterID: "light", Width: 600},
				{MasterID: "bold", Width: 650},
			},
		},
		{
			Name:   "V",
			Export: true,
			Layers: []source.Layer{
				{MasterID: "light", Width: 600},
				{MasterID: "bold", Width: 650},
			},
		},
	}
	f.GlyphOrder = map[string]int{"A": 0, "V": 1}
	f.Kerning = []source.KernPair{
		{
			Left:  source.KernParticipant{Name: "A"},
			Right: source.KernParticipant{Name: "V"},
			ByMaster: map[string]float64{
				"light": -40,
				"bold":  -60,
			},
		},
	}
	return f
}
