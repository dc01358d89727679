package vfc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glyphware/vfc/sfntwriter"
)

const minimalSourceText = `
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

func TestCompileWithoutExtraTablesSkipsAssembly(t *testing.T) {
	font, _, err := LoadSource(minimalSourceText)
	require.NoError(t, err)

	compiled, diags, err := Compile(font, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, compiled.Layout.GDEF)
	require.Nil(t, compiled.Bytes())
	for _, d := range diags {
		require.NotEqual(t, "error", d.Severity.String())
	}
}

func TestCompileAssemblesFontWhenExtraTablesSupplied(t *testing.T) {
	font, _, err := LoadSource(minimalSourceText)
	require.NoError(t, err)

	head := make([]byte, 54)
	compiled, _, err := Compile(font, Options{
		ExtraTables: map[sfntwriter.Tag][]byte{
			sfntwriter.MakeTag("head"): head,
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, compiled.Bytes())
}

func TestLoadSourceFileRejectsMissingFile(t *testing.T) {
	_, _, err := LoadSourceFile("/nonexistent/path/does-not-exist.glyphs")
	require.Error(t, err)
}
