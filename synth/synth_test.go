package synth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glyphware/vfc/diag"
	"github.com/glyphware/vfc/source"
	"github.com/glyphware/vfc/variation"
)

func twoMasterFont(topLight, topBold, underDotLight, underDotBold [2]float64) *source.Font {
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
		GDEFCategories: map[string]string{},
	}
	f.Glyphs = []source.Glyph{
		{
			Name:   "a",
			Export: true,
			Layers: []source.Layer{
				{MasterID: "light", Anchors: []source.Anchor{{Name: "top", Kind: source.AnchorBase, X: topLight[0], Y: topLight[1]}}},
				{MasterID: "bold", Anchors: []source.Anchor{{Name: "top", Kind: source.AnchorBase, X: topBold[0], Y: topBold[1]}}},
			},
		},
		{
			Name:   "dotabove",
			Export: true,
			Layers: []source.Layer{
				{MasterID: "light", Anchors: []source.Anchor{{Name: "top", Kind: source.AnchorMark, X: underDotLight[0], Y: underDotLight[1]}}},
				{MasterID: "bold", Anchors: []source.Anchor{{Name: "top", Kind: source.AnchorMark, X: underDotBold[0], Y: underDotBold[1]}}},
			},
		},
	}
	f.GlyphOrder = map[string]int{"a": 0, "dotabove": 1}
	return f
}

func TestBuildMarkLookupsProducesMarkToBaseGroup(t *testing.T) {
	f := twoMasterFont([2]float64{250, 600}, [2]float64{260, 650}, [2]float64{0, 0}, [2]float64{0, 0})
	collector := &diag.Collector{}
	groups := BuildMarkLookups(f, nil, variation.NewInterner(), collector)
	require.Len(t, groups, 1)
	g := groups[0]
	require.Equal(t, "top", g.Group)
	require.False(t, g.IsMarkToMark)
	require.Len(t, g.Bases, 1)
	require.Len(t, g.Marks, 1)
	require.Equal(t, "a", g.Bases[0].Glyph)
	require.Equal(t, "dotabove", g.Marks[0].Glyph)
	require.Equal(t, 250.0, g.Bases[0].Anchor.X)
	require.NotEmpty(t, g.Bases[0].Anchor.XDeltas)
}

func TestBuildMarkLookupsPrunesOneSidedGroups(t *testing.T) {
	f := &source.Font{
		Axes:          []source.Axis{{Tag: "wght", Min: 400, Default: 400, Max: 900}},
		Masters:       []source.Master{{ID: "light", Location: source.DesignLocation{"wght": 400}}},
		DefaultMaster: 0,
		Glyphs: []source.Glyph{
			{
				Name:   "a",
				Export: true,
				Layers: []source.Layer{
					{MasterID: "light", Anchors: []source.Anchor{{Name: "orphan", Kind: source.AnchorBase, X: 1, Y: 2}}},
				},
			},
		},
		GlyphOrder: map[string]int{"a": 0},
	}
	collector := &diag.Collector{}
	groups := BuildMarkLookups(f, nil, variation.NewInterner(), collector)
	require.Empty(t, groups)
}

func TestBuildMarkLookupsPromotesMarkToMark(t *testing.T) {
	f := &source.Font{
		Axes:          []source.Axis{{Tag: "wght", Min: 400, Default: 400, Max: 900}},
		Masters:       []source.Master{{ID: "light", Location: source.DesignLocation{"wght": 400}}},
		DefaultMaster: 0,
		Glyphs: []source.Glyph{
			{
				Name:   "acutecomb",
				Export: true,
				Layers: []source.Layer{
					{MasterID: "light", Anchors: []source.Anchor{
						{Name: "top", Kind: source.AnchorBase, X: 100, Y: 500},
						{Name: "top", Kind: source.AnchorMark, X: 50, Y: 0},
					}},
				},
			},
			{
				Name:   "gravecomb",
				Export: true,
				Layers: []source.Layer{
					{MasterID: "light", Anchors: []source.Anchor{
						{Name: "top", Kind: source.AnchorMark, X: 40, Y: 0},
					}},
				},
			},
		},
		GlyphOrder: map[string]int{"acutecomb": 0, "gravecomb": 1},
	}
	collector := &diag.Collector{}
	groups := BuildMarkLookups(f, nil, variation.NewInterner(), collector)
	require.Len(t, groups, 1)
	require.True(t, groups[0].IsMarkToMark)
	require.True(t, groups[0].UseMarkFilteringSet)
	require.Len(t, groups[0].Bases, 1)
	require.Equal(t, "acutecomb", groups[0].Bases[0].Glyph)
	require.Len(t, groups[0].Marks, 2)
	require.Equal(t, "acutecomb", groups[0].Marks[0].Glyph)
	require.Equal(t, "gravecomb", groups[0].Marks[1].Glyph)
}

func TestBuildKernPlanResolvesAndSorts(t *testing.T) {
	f := &source.Font{
		Axes:          []source.Axis{{Tag: "wght", Min: 400, Default: 400, Max: 900}},
		Masters:       []source.Master{{ID: "light", Location: source.DesignLocation{"wght": 400}}, {ID: "bold", Location: source.DesignLocation{"wght": 900}}},
		DefaultMaster: 0,
		Kerning: []source.KernPair{
			{
				Left:     source.KernParticipant{Name: "V"},
				Right:    source.KernParticipant{Name: "A"},
				ByMaster: map[string]float64{"light": -60, "bold": -120},
			},
			{
				Left:     source.KernParticipant{Name: "A"},
				Right:    source.KernParticipant{Name: "V"},
				ByMaster: map[string]float64{"light": -40, "bold": -40},
			},
		},
	}
	interner := variation.NewInterner()
	plan, errs := BuildKernPlan(f, interner)
	require.Empty(t, errs)
	require.Len(t, plan.Pairs, 2)
	require.Equal(t, "A", plan.Pairs[0].Left.Name)
	require.Equal(t, "V", plan.Pairs[1].Left.Name)
	require.Equal(t, -40.0, plan.Pairs[0].Value)
	require.Equal(t, -1, plan.Pairs[0].DeltaIndex)
	require.Equal(t, -60.0, plan.Pairs[1].Value)
	require.GreaterOrEqual(t, plan.Pairs[1].DeltaIndex, 0)
}

func TestExpandMixedPairsEnumeratesGroupMembers(t *testing.T) {
	plan := &KernPlan{Pairs: []ResolvedKernPair{
		{
			Left:  source.KernParticipant{IsGroup: true, Name: "O"},
			Right: source.KernParticipant{Name: "V"},
			Value: -30,
		},
	}}
	groups := source.KerningGroups{"O": {"O", "Q", "C"}}
	out := ExpandMixedPairs(plan, groups)
	require.Len(t, out, 3)
	for _, p := range out {
		require.False(t, p.Left.IsGroup)
		require.Equal(t, "V", p.Right.Name)
	}
}
