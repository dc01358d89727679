package source

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeAnchorName(t *testing.T) {
	cases := []struct {
		raw       string
		wantKind  AnchorKind
		wantName  string
		wantComp  int
	}{
		{"top", AnchorBase, "top", 0},
		{"_top", AnchorMark, "top", 0},
		{"top_1", AnchorLigature, "top", 1},
		{"top_2", AnchorLigature, "top", 2},
		{"*origin", AnchorOrigin, "*origin", 0},
		{"caret_", AnchorBase, "caret_", 0},
	}
	for _, c := range cases {
		kind, name, comp := DecodeAnchorName(c.raw)
		require.Equalf(t, c.wantKind, kind, "raw=%q", c.raw)
		require.Equalf(t, c.wantName, name, "raw=%q", c.raw)
		require.Equalf(t, c.wantComp, comp, "raw=%q", c.raw)
	}
}

func TestDecodeCodepointsRadix(t *testing.T) {
	require.Equal(t, []uint32{0x41, 0x42}, DecodeCodepoints("0041,0042", 16))
	require.Equal(t, []uint32{65, 66}, DecodeCodepoints("65,66", 10))
}

const minimalLegacySource = `
{
unitsPerEm = 1000;
fontMaster = (
{
id = "m1";
weightValue = 400;
ascender = 800;
descender = -200;
capHeight = 700;
xHeight = 500;
italicAngle = 0;
},
{
id = "m2";
weightValue = 900;
ascender = 800;
descender = -200;
capHeight = 700;
xHeight = 500;
italicAngle = 0;
}
);
glyphs = (
{
glyphname = "A";
unicode = "0041";
category = "Letter";
layers = (
{
associatedMasterId = "m1";
width = 600;
anchors = (
{ name = "top"; x = 100; y = 400; },
);
},
{
associatedMasterId = "m2";
width = 650;
anchors = (
{ name = "top"; x = 120; y = 400; },
);
},
);
},
{
glyphname = "acutecomb";
unicode = "0301";
category = "Mark";
subCategory = "Nonspacing";
layers = (
{
associatedMasterId = "m1";
width = 0;
anchors = (
{ name = "_top"; x = 50; y = 50; },
);
},
{
associatedMasterId = "m2";
width = 0;
anchors = (
{ name = "_top"; x = 55; y = 55; },
);
},
);
}
);
}
`

func TestLoadLegacyLiftsAxesAndMasters(t *testing.T) {
	res, err := Load(minimalLegacySource)
	require.NoError(t, err)
	f := res.Font
	require.Len(t, f.Axes, 1)
	require.Equal(t, "wght", f.Axes[0].Tag)
	require.Len(t, f.Masters, 2)
	require.Equal(t, 400.0, f.Masters[0].Location["wght"])
	require.Equal(t, 900.0, f.Masters[1].Location["wght"])
	require.Equal(t, "Regular", f.Masters[0].Name)

	aIdx, ok := f.GlyphByName("A")
	require.True(t, ok)
	require.Equal(t, 600.0, f.Glyphs[aIdx].Layers[0].Width)

	markIdx, ok := f.GlyphByName("acutecomb")
	require.True(t, ok)
	require.Equal(t, CategoryMark, f.Glyphs[markIdx].Category)
}

func TestDefaultMasterSelectionFallsBackToIndexZero(t *testing.T) {
	res, err := Load(minimalLegacySource)
	require.NoError(t, err)
	require.Equal(t, 0, res.Font.DefaultMaster)
}
