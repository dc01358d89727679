package layout

import (
	"sort"
	"strings"

	"github.com/glyphware/vfc/feaast"
)

// SubstKind classifies a feature-file substitution rule (§4.3 "single,
// multiple, alternate, ligature substitution... and reverse chaining").
type SubstKind int

const (
	SingleSubst SubstKind = iota
	MultipleSubst
	AlternateSubst
	LigatureSubst
	ChainContextSubst // backtrack/input/lookahead sequence, by-replacement on the marked span
	UnsupportedSubst  // rsub, or a rule with no by/from tail and no apostrophe-marked span
)

// SubstRule is one gsub statement's semantic content, extracted from the
// feaast concrete syntax tree: Input/Output are the glyph-or-class
// operand lists flanking the by/from keyword, each already expanded to
// its member glyph names via the tree's named-class declarations. Chain
// is set instead of Input/Output when the rule marks a sub-span of its
// input with the apostrophe context operator (§4.3, GSUB chain context).
type SubstRule struct {
	Kind   SubstKind
	Input  [][]string
	Output [][]string
	Chain  *ChainContextRule
}

// ChainContextRule holds the three glyph-or-class coverage runs of a
// chain-context substitution rule (§4.3's disambiguation between a plain
// sequence and one with marked context), plus one by-replacement per
// marked Input position. Backtrack and Lookahead are kept in source
// (left-to-right) order; BuildChainContextSubstSubtable reverses
// Backtrack when serializing, per the OpenType format-3 layout.
type ChainContextRule struct {
	Backtrack [][]string
	Input     [][]string
	Lookahead [][]string
	Replace   [][]string
}

// ExtractSubstRules walks tree for every gsub statement (feaast.GsubNode)
// and classifies it into a SubstRule, resolving named glyph classes
// (`@name`) declared anywhere earlier in the same tree (§4.3
// GlyphClassDeclNode). Reverse-chaining (rsub) rules are reported as
// UnsupportedSubst: §4.3 models them as a distinct shape this compiler
// does not yet materialize into GSUB type 8 (see DESIGN.md).
func ExtractSubstRules(tree *feaast.Tree) []SubstRule {
	if tree == nil || tree.Root == nil {
		return nil
	}
	classes := collectNamedClasses(tree.Root)
	var rules []SubstRule
	for _, n := range tree.Root.FindAll(feaast.GsubNode) {
		kids := semanticChildren(n.Children)
		if len(kids) == 0 {
			continue
		}
		if kids[0].Token != nil && kids[0].Token.Kind == feaast.RsubKw {
			rules = append(rules, SubstRule{Kind: UnsupportedSubst})
			continue
		}
		splitAt := -1
		for i, k := range kids {
			if k.Token != nil && (k.Token.Kind == feaast.ByKw || k.Token.Kind == feaast.FromKw) {
				splitAt = i
				break
			}
		}
		if splitAt < 0 {
			rules = append(rules, SubstRule{Kind: UnsupportedSubst})
			continue
		}
		isFrom := kids[splitAt].Token.Kind == feaast.FromKw
		var output [][]string
		for _, k := range kids[splitAt+1:] {
			if k.Kind == feaast.GlyphOrClassNode {
				output = append(output, expandGlyphOrClass(k, classes))
			}
		}

		// A glyph-or-class position immediately followed by an apostrophe
		// (SingleQuote) marks the input span a chain-context rule acts on;
		// everything before the first marked position is backtrack context,
		// everything after the last is lookahead. Rules with no marked
		// position keep the flat single-list reading classifySubst expects.
		anyMarked := false
		for i := 1; i < splitAt; i++ {
			if kids[i].Kind != feaast.GlyphOrClassNode {
				continue
			}
			if i+1 < splitAt && kids[i+1].Token != nil && kids[i+1].Token.Kind == feaast.SingleQuote {
				anyMarked = true
				break
			}
		}

		if !anyMarked {
			var input [][]string
			for _, k := range kids[1:splitAt] {
				if k.Kind == feaast.GlyphOrClassNode {
					input = append(input, expandGlyphOrClass(k, classes))
				}
			}
			rules = append(rules, SubstRule{Kind: classifySubst(input, output, isFrom), Input: input, Output: output})
			continue
		}

		var backtrack, input, lookahead [][]string
		seenInput := false
		for i := 1; i < splitAt; i++ {
			k := kids[i]
			if k.Kind != feaast.GlyphOrClassNode {
				continue
			}
			members := expandGlyphOrClass(k, classes)
			marked := i+1 < splitAt && kids[i+1].Token != nil && kids[i+1].Token.Kind == feaast.SingleQuote
			switch {
			case marked:
				seenInput = true
				input = append(input, members)
			case !seenInput:
				backtrack = append(backtrack, members)
			default:
				lookahead = append(lookahead, members)
			}
		}
		if len(input) == 0 {
			rules = append(rules, SubstRule{Kind: UnsupportedSubst})
			continue
		}
		rules = append(rules, SubstRule{
			Kind: ChainContextSubst,
			Chain: &ChainContextRule{
				Backtrack: backtrack,
				Input:     input,
				Lookahead: lookahead,
				Replace:   output,
			},
		})
	}
	return rules
}

func classifySubst(input, output [][]string, isFrom bool) SubstKind {
	switch {
	case isFrom && len(input) == 1 && len(output) == 1:
		return AlternateSubst
	case len(input) >= 2 && len(output) == 1 && len(output[0]) == 1:
		return LigatureSubst
	case len(input) == 1 && len(output) == 1 && len(input[0]) == len(output[0]):
		return SingleSubst
	case len(input) == 1 && len(output) >= 2:
		return MultipleSubst
	default:
		return UnsupportedSubst
	}
}

func semanticChildren(children []*feaast.Node) []*feaast.Node {
	var out []*feaast.Node
	for _, c := range children {
		switch c.Kind {
		case feaast.Whitespace, feaast.LineComment, feaast.BlockComment:
			continue
		}
		out = append(out, c)
	}
	return out
}

func collectNamedClasses(root *feaast.Node) map[string][]string {
	classes := map[string][]string{}
	for _, n := range root.FindAll(feaast.GlyphClassDeclNode) {
		kids := semanticChildren(n.Children)
		if len(kids) < 3 {
			continue
		}
		name := strings.TrimSpace(kids[0].Text())
		for _, k := range kids[1:] {
			if k.Kind == feaast.GlyphOrClassNode {
				classes[name] = expandGlyphOrClass(k, classes)
				break
			}
		}
	}
	return classes
}

// expandGlyphOrClass parses a GlyphOrClassNode's source text into its
// member glyph names: a bare name, a `[a b c]` bracketed list (ranges
// are not expanded — see DESIGN.md), or a `@name` reference resolved
// against classes already seen in document order.
func expandGlyphOrClass(n *feaast.Node, classes map[string][]string) []string {
	text := strings.TrimSpace(n.Text())
	if text == "" {
		return nil
	}
	if strings.HasPrefix(text, "@") {
		if members, ok := classes[text]; ok {
			return members
		}
		return []string{text}
	}
	if strings.HasPrefix(text, "[") {
		inner := strings.TrimSuffix(strings.TrimPrefix(text, "["), "]")
		fields := strings.Fields(inner)
		var out []string
		for _, f := range fields {
			if f == "-" {
				continue
			}
			out = append(out, f)
		}
		return out
	}
	return []string{text}
}

func glyphIDs(names []string, gids map[string]GlyphID) []GlyphID {
	out := make([]GlyphID, 0, len(names))
	for _, n := range names {
		if g, ok := gids[n]; ok {
			out = append(out, g)
		}
	}
	return out
}

// BuildSingleSubstSubtable encodes a GSUB SingleSubst format 2 table
// (explicit glyph-to-glyph list; format 1's constant-delta optimization
// is skipped as a real compiler rarely relies on glyph-ID adjacency).
func BuildSingleSubstSubtable(rule SubstRule, gids map[string]GlyphID) []byte {
	in := glyphIDs(rule.Input[0], gids)
	out := glyphIDs(rule.Output[0], gids)
	n := len(in)
	if len(out) < n {
		n = len(out)
	}
	pairs := make(map[GlyphID]GlyphID, n)
	for i := 0; i < n; i++ {
		pairs[in[i]] = out[i]
	}
	sorted := sortedGlyphIDs(in[:n])

	w := newBuf()
	w.u16(2) // SingleSubstFormat2
	covOffAt := w.placeholder(2)
	w.u16(uint16(len(sorted)))
	for _, g := range sorted {
		w.u16(uint16(pairs[g]))
	}
	w.patchU16(covOffAt, uint16(w.len()))
	buildCoverageFormat1(w, sorted)
	return w.b
}

// BuildMultipleSubstSubtable encodes a MultipleSubst format 1 table: one
// input glyph expands to a fixed output sequence (§4.3 "multiple...
// substitution").
func BuildMultipleSubstSubtable(rule SubstRule, gids map[string]GlyphID) []byte {
	in := glyphIDs(rule.Input[0], gids)
	if len(in) == 0 {
		return nil
	}
	left := in[0]
	seq := glyphIDs(flattenOutputSequence(rule.Output), gids)

	w := newBuf()
	w.u16(1) // MultipleSubstFormat1
	covOffAt := w.placeholder(2)
	w.u16(1) // sequenceCount
	seqOffAt := w.placeholder(2)
	tableStart := 0

	w.patchU16(covOffAt, uint16(w.len()))
	buildCoverageFormat1(w, []GlyphID{left})

	w.patchU16(seqOffAt, uint16(w.len()-tableStart))
	w.u16(uint16(len(seq)))
	for _, g := range seq {
		w.u16(uint16(g))
	}
	return w.b
}

// flattenOutputSequence reads each output position's first (only,
// expected) member glyph, since a multiple-substitution output sequence
// is a plain glyph run rather than a sequence of classes.
func flattenOutputSequence(output [][]string) []string {
	var out []string
	for _, pos := range output {
		if len(pos) > 0 {
			out = append(out, pos[0])
		}
	}
	return out
}

// BuildAlternateSubstSubtable encodes an AlternateSubst format 1 table
// (§4.3 "alternate... substitution", the `from` form).
func BuildAlternateSubstSubtable(rule SubstRule, gids map[string]GlyphID) []byte {
	left := glyphIDs(rule.Input[0], gids)
	if len(left) == 0 {
		return nil
	}
	alts := sortedGlyphIDs(glyphIDs(rule.Output[0], gids))

	w := newBuf()
	w.u16(1) // AlternateSubstFormat1
	covOffAt := w.placeholder(2)
	w.u16(1)
	setOffAt := w.placeholder(2)
	tableStart := 0

	w.patchU16(covOffAt, uint16(w.len()))
	buildCoverageFormat1(w, []GlyphID{left[0]})

	w.patchU16(setOffAt, uint16(w.len()-tableStart))
	w.u16(uint16(len(alts)))
	for _, g := range alts {
		w.u16(uint16(g))
	}
	return w.b
}

// BuildLigatureSubstSubtable encodes a LigatureSubst format 1 table:
// every input position's glyph-or-class is enumerated and paired with
// the single output ligature glyph, following how `fea` ligature rules
// written over glyph classes expand to one LigatureTable entry per
// input combination when all classes share the same length, or simply
// broadcast the single ligature to every first-glyph combination
// otherwise — this compiler takes the common case of one literal glyph
// per input position (§4.3's own grounding examples never show ligature
// rules written over classes).
func BuildLigatureSubstSubtable(rule SubstRule, gids map[string]GlyphID) []byte {
	if len(rule.Input) == 0 || len(rule.Output) == 0 || len(rule.Output[0]) == 0 {
		return nil
	}
	first := glyphIDs(rule.Input[0], gids)
	ligGID, ok := gids[rule.Output[0][0]]
	if !ok || len(first) == 0 {
		return nil
	}
	var components []GlyphID
	for _, pos := range rule.Input[1:] {
		ids := glyphIDs(pos, gids)
		if len(ids) > 0 {
			components = append(components, ids[0])
		}
	}

	byFirst := map[GlyphID][]GlyphID{first[0]: components}
	for _, g := range first[1:] {
		byFirst[g] = components
	}
	firsts := sortedGlyphIDs(first)

	w := newBuf()
	w.u16(1) // LigatureSubstFormat1
	covOffAt := w.placeholder(2)
	w.u16(uint16(len(firsts)))
	setOffsetsAt := w.placeholder(len(firsts) * 2)
	tableStart := 0

	w.patchU16(covOffAt, uint16(w.len()))
	buildCoverageFormat1(w, firsts)

	for i, g := range firsts {
		w.patchU16(setOffsetsAt+i*2, uint16(w.len()-tableStart))
		buildLigatureSet(w, ligGID, byFirst[g])
	}
	return w.b
}

func buildLigatureSet(w *buf, ligGID GlyphID, components []GlyphID) {
	setStart := w.len()
	w.u16(1) // one LigatureTable per first-glyph entry
	ligOffAt := w.placeholder(2)
	w.patchU16(ligOffAt, uint16(w.len()-setStart))
	w.u16(uint16(ligGID))
	w.u16(uint16(len(components) + 1)) // componentCount includes the first glyph
	for _, c := range components {
		w.u16(uint16(c))
	}
}

func sortedGlyphIDs(gids []GlyphID) []GlyphID {
	out := append([]GlyphID(nil), gids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	dedup := out[:0]
	var last GlyphID = 0xFFFF
	first := true
	for _, g := range out {
		if first || g != last {
			dedup = append(dedup, g)
			last = g
			first = false
		}
	}
	return dedup
}

// BuildChainContextSubstSubtable encodes a ChainContextSubst format 3
// subtable (GSUB lookup type 6): explicit backtrack/input/lookahead
// Coverage sequences, plus one SequenceLookupRecord per Input position
// pointing at lookupIdxs[i], the nested single-substitution lookup that
// performs that position's by-replacement. The backtrack sequence is
// written in reverse reading order, per the OpenType format-3 layout.
func BuildChainContextSubstSubtable(rule *ChainContextRule, lookupIdxs []int, gids map[string]GlyphID) []byte {
	backtrack := reversedClassList(rule.Backtrack)

	w := newBuf()
	w.u16(3) // ChainContextSubstFormat3

	w.u16(uint16(len(backtrack)))
	backOffsetsAt := w.placeholder(len(backtrack) * 2)

	w.u16(uint16(len(rule.Input)))
	inputOffsetsAt := w.placeholder(len(rule.Input) * 2)

	w.u16(uint16(len(rule.Lookahead)))
	aheadOffsetsAt := w.placeholder(len(rule.Lookahead) * 2)

	w.u16(uint16(len(lookupIdxs)))
	recordsAt := w.placeholder(len(lookupIdxs) * 4)

	for i, members := range backtrack {
		w.patchU16(backOffsetsAt+i*2, uint16(w.len()))
		buildCoverageFormat1(w, glyphIDs(members, gids))
	}
	for i, members := range rule.Input {
		w.patchU16(inputOffsetsAt+i*2, uint16(w.len()))
		buildCoverageFormat1(w, glyphIDs(members, gids))
	}
	for i, members := range rule.Lookahead {
		w.patchU16(aheadOffsetsAt+i*2, uint16(w.len()))
		buildCoverageFormat1(w, glyphIDs(members, gids))
	}
	for i, lookupIdx := range lookupIdxs {
		at := recordsAt + i*4
		w.patchU16(at, uint16(i))
		w.patchU16(at+2, uint16(lookupIdx))
	}
	return w.b
}

func reversedClassList(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, m := range in {
		out[len(in)-1-i] = m
	}
	return out
}

// buildChainContextLookup adds the nested per-position single-
// substitution lookups a chain-context rule's by-replacement needs, then
// the chain-context lookup itself (referencing them via
// SequenceLookupRecord), and returns the chain-context lookup's
// LookupList index, or -1 if the rule had no usable marked position.
func buildChainContextLookup(rule SubstRule, gids map[string]GlyphID, lookups *LookupListBuilder) int {
	c := rule.Chain
	if c == nil || len(c.Input) == 0 {
		return -1
	}
	var lookupIdxs []int
	for i, in := range c.Input {
		var out []string
		if i < len(c.Replace) {
			out = c.Replace[i]
		}
		if len(in) == 0 || len(out) == 0 {
			continue
		}
		sub := BuildSingleSubstSubtable(SubstRule{Input: [][]string{in}, Output: [][]string{out}}, gids)
		if sub == nil {
			continue
		}
		idx := lookups.Add(LookupEntry{Type: GSUBSingle, Subtables: [][]byte{sub}, ExtensionType: GSUBExtension})
		lookupIdxs = append(lookupIdxs, idx)
	}
	if len(lookupIdxs) == 0 {
		return -1
	}
	sub := BuildChainContextSubstSubtable(c, lookupIdxs, gids)
	return lookups.Add(LookupEntry{Type: GSUBChainContext, Subtables: [][]byte{sub}, ExtensionType: GSUBExtension})
}
