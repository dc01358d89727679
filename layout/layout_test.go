package layout

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glyphware/vfc/diag"
	"github.com/glyphware/vfc/feaast"
	"github.com/glyphware/vfc/source"
	"github.com/glyphware/vfc/synth"
)

func TestMakeTagRoundTrips(t *testing.T) {
	require.Equal(t, "GSUB", MakeTag("GSUB").String())
	require.Equal(t, "wght", MakeTag("wght").String())
}

func TestBuildAnchorFormat1WhenStatic(t *testing.T) {
	w := newBuf()
	locate := func(int) (int, int, bool) { return 0, 0, false }
	buildAnchor(w, 250, 600, -1, -1, locate)
	require.Equal(t, uint16(1), binary.BigEndian.Uint16(w.b[0:2]))
	require.Equal(t, int16(250), int16(binary.BigEndian.Uint16(w.b[2:4])))
	require.Equal(t, int16(600), int16(binary.BigEndian.Uint16(w.b[4:6])))
	require.Len(t, w.b, 6)
}

func TestBuildAnchorFormat3WhenVariable(t *testing.T) {
	w := newBuf()
	locate := func(idx int) (int, int, bool) {
		if idx == 3 {
			return 1, 2, true
		}
		return 0, 0, false
	}
	buildAnchor(w, 250, 600, 3, -1, locate)
	require.Equal(t, uint16(3), binary.BigEndian.Uint16(w.b[0:2]))
	xDevOff := binary.BigEndian.Uint16(w.b[6:8])
	require.NotZero(t, xDevOff)
	require.Equal(t, uint16(1), binary.BigEndian.Uint16(w.b[xDevOff:xDevOff+2]))
	require.Equal(t, uint16(2), binary.BigEndian.Uint16(w.b[xDevOff+2:xDevOff+4]))
	require.Equal(t, uint16(0x8000), binary.BigEndian.Uint16(w.b[xDevOff+4:xDevOff+6]))
	yDevOff := binary.BigEndian.Uint16(w.b[8:10])
	require.Zero(t, yDevOff) // y coordinate does not vary: NULL device offset
}

func TestBuildPairPosSubtablesGroupsByLeftGlyph(t *testing.T) {
	gids := map[string]GlyphID{"A": 4, "V": 7, "W": 9}
	pairs := []synth.ResolvedKernPair{
		{Left: source.KernParticipant{Name: "A"}, Right: source.KernParticipant{Name: "V"}, Value: -80, DeltaIndex: -1},
		{Left: source.KernParticipant{Name: "A"}, Right: source.KernParticipant{Name: "W"}, Value: -40, DeltaIndex: -1},
	}
	locate := func(int) (int, int, bool) { return 0, 0, false }
	subtables := BuildPairPosSubtables(pairs, gids, locate)
	require.Len(t, subtables, 1)
	sub := subtables[0]
	require.Equal(t, uint16(1), binary.BigEndian.Uint16(sub[0:2])) // PairPosFormat1
	pairSetCount := binary.BigEndian.Uint16(sub[8:10])
	require.Equal(t, uint16(1), pairSetCount)
}

func TestExtractSubstRulesClassifiesLigatureAndSingle(t *testing.T) {
	src := `
feature liga {
    sub f i by f_i;
    sub a by a.sc;
} liga;
`
	tree := feaast.Parse(src)
	require.Empty(t, tree.Errors)
	rules := ExtractSubstRules(tree)
	require.Len(t, rules, 2)
	require.Equal(t, LigatureSubst, rules[0].Kind)
	require.Equal(t, []string{"f_i"}, rules[0].Output[0])
	require.Equal(t, SingleSubst, rules[1].Kind)
}

func TestExtractSubstRulesResolvesNamedClass(t *testing.T) {
	src := `
@vowels = [a e i o u];
feature smcp {
    sub @vowels by a.sc;
} smcp;
`
	tree := feaast.Parse(src)
	rules := ExtractSubstRules(tree)
	require.Len(t, rules, 1)
	require.ElementsMatch(t, []string{"a", "e", "i", "o", "u"}, rules[0].Input[0])
}

func TestPromoteIfOversizeWrapsWhenOffsetOverflows(t *testing.T) {
	big := make([]byte, 70000)
	typ, subs := promoteIfOversize(GSUBSingle, [][]byte{big}, GSUBExtension, wrapExtensionSub)
	require.Equal(t, GSUBExtension, typ)
	require.Len(t, subs, 1)
	require.Equal(t, uint16(1), binary.BigEndian.Uint16(subs[0][0:2]))
	require.Equal(t, GSUBSingle, binary.BigEndian.Uint16(subs[0][2:4]))
}

func TestPromoteIfOversizeLeavesSmallLookupsAlone(t *testing.T) {
	small := []byte{1, 2, 3, 4}
	typ, subs := promoteIfOversize(GSUBSingle, [][]byte{small}, GSUBExtension, wrapExtensionSub)
	require.Equal(t, GSUBSingle, typ)
	require.Equal(t, small, subs[0])
}

func TestCompileProducesGDEFAndGPOSForAnchorsAndKerning(t *testing.T) {
	f := &source.Font{
		UnitsPerEm: 1000,
		Axes:       []source.Axis{{Name: "Weight", Tag: "wght", Min: 400, Default: 400, Max: 400}},
		Masters:    []source.Master{{ID: "regular", Name: "Regular", Location: source.DesignLocation{"wght": 400}}},
		DefaultMaster: 0,
		GDEFCategories: map[string]string{},
		Glyphs: []source.Glyph{
			{Name: "a", Export: true, Layers: []source.Layer{
				{MasterID: "regular", Anchors: []source.Anchor{{Name: "top", Kind: source.AnchorBase, X: 250, Y: 600}}},
			}},
			{Name: "dotabove", Export: true, Layers: []source.Layer{
				{MasterID: "regular", Anchors: []source.Anchor{{Name: "top", Kind: source.AnchorMark, X: 0, Y: 0}}},
			}},
			{Name: "V", Export: true},
			{Name: "W", Export: true},
		},
		Kerning: []source.KernPair{
			{Left: source.KernParticipant{Name: "V"}, Right: source.KernParticipant{Name: "W"}, ByMaster: map[string]float64{"regular": -60}},
		},
	}
	f.GlyphOrder = map[string]int{"a": 0, "dotabove": 1, "V": 2, "W": 3}

	collector := &diag.Collector{}
	compiled := Compile(f, collector)
	require.NotEmpty(t, compiled.GDEF)
	require.NotEmpty(t, compiled.GPOS)
	require.False(t, collector.HasErrors())
}
