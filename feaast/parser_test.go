package feaast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripSimpleFeature(t *testing.T) {
	src := "feature kern {\n    pos A B -80;\n} kern;\n"
	require.True(t, RoundTrips(src))
}

func TestRoundTripWithComments(t *testing.T) {
	src := "# a leading comment\nfeature liga {\n    sub f i by f_i; # inline\n} liga;\n"
	require.True(t, RoundTrips(src))
}

func TestParseFeatureBlockProducesNoErrors(t *testing.T) {
	src := "feature kern {\n    pos A B -80;\n    pos [C D] E <1 2 3 4>;\n} kern;\n"
	tree := Parse(src)
	require.Empty(t, tree.Errors)
	features := tree.Root.FindAll(FeatureNode)
	require.Len(t, features, 1)
	gpos := tree.Root.FindAll(GposNode)
	require.Len(t, gpos, 2)
}

func TestParseMarkClassAndMarkAttach(t *testing.T) {
	src := "markClass [acutecomb gravecomb] <anchor 0 0> @TOP_MARKS;\n" +
		"feature mark {\n    pos base [a e] <anchor 250 450> mark @TOP_MARKS;\n} mark;\n"
	tree := Parse(src)
	require.Empty(t, tree.Errors)
	require.Len(t, tree.Root.FindAll(MarkClassNode), 1)
	require.Len(t, tree.Root.FindAll(GposNode), 1)
}

func TestParseNamedGlyphClassDecl(t *testing.T) {
	src := "@UPPER = [A B C D];\n"
	tree := Parse(src)
	require.Empty(t, tree.Errors)
	require.Len(t, tree.Root.FindAll(GlyphClassDeclNode), 1)
}

func TestParseLookupBlockAndReference(t *testing.T) {
	src := "lookup KERN1 {\n    pos A B -80;\n} KERN1;\n" +
		"feature kern {\n    lookup KERN1;\n} kern;\n"
	tree := Parse(src)
	require.Empty(t, tree.Errors)
	require.Len(t, tree.Root.FindAll(LookupBlockNode), 1)
	require.Len(t, tree.Root.FindAll(LookupRefNode), 1)
}

func TestParseScriptAndLanguageStatements(t *testing.T) {
	src := "feature kern {\n    script latn;\n    language DEU ;\n    pos A B -10;\n} kern;\n"
	tree := Parse(src)
	require.Empty(t, tree.Errors)
	require.Len(t, tree.Root.FindAll(ScriptNode), 1)
	require.Len(t, tree.Root.FindAll(LanguageNode), 1)
}

func TestParseRecoversFromMalformedStatement(t *testing.T) {
	src := "feature kern {\n    pos A B ???;\n    pos C D -10;\n} kern;\n"
	tree := Parse(src)
	require.NotEmpty(t, tree.Errors)
	// despite the error, the well-formed rule after it still parses.
	require.GreaterOrEqual(t, len(tree.Root.FindAll(GposNode)), 1)
}

func TestParseSubstitutionRule(t *testing.T) {
	src := "feature liga {\n    sub f i by f_i;\n    rsub a' c by a_dot;\n} liga;\n"
	tree := Parse(src)
	require.Empty(t, tree.Errors)
	require.Len(t, tree.Root.FindAll(GsubNode), 2)
}

func TestPrintReconstructsWhitespaceExactly(t *testing.T) {
	src := "feature  kern   {\n\tpos   A  B  -80 ; \n} kern ;\n"
	tree := Parse(src)
	require.Equal(t, src, Print(tree))
}
