package feaast

import "fmt"

// Parse tokenizes and parses feature-file source into a lossless CST,
// recording diagnostics instead of aborting on error (§4.3 "Error
// model"). The tree is always well-formed, even in the presence of
// errors: downstream compilation may still succeed if errors lie in
// unused branches (§4.3, §7 "Feature parse error").
func Parse(src string) *Tree {
	p := &parser{toks: Lex(src)}
	root := &Node{Kind: RootNode}
	p.pushNode(root)
	for !p.atEOF() {
		before := p.cur
		p.topLevelItem(EmptyTokenSet)
		if p.cur == before {
			// no production consumed anything; force progress so the
			// parser can never loop forever on unexpected input.
			p.errf("unexpected token %q", p.currentText())
			p.bumpRaw()
		}
	}
	p.skipTriviaInto() // trailing trivia before EOF, attached to root
	root.End = p.byteEnd()
	p.popNode()
	return &Tree{Root: root, Errors: p.errors}
}

type parser struct {
	toks    []Token
	cur     int // index into toks, may point at trivia
	stack   []*Node
	errors  []Diagnostic
	lastEnd int
}

func (p *parser) node() *Node { return p.stack[len(p.stack)-1] }

func (p *parser) pushNode(n *Node) { p.stack = append(p.stack, n) }

func (p *parser) popNode() *Node {
	n := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return n
}

// startNode opens a new interior node of the given kind as a child of the
// current top-of-stack node.
func (p *parser) startNode(kind Kind) *Node {
	n := &Node{Kind: kind, Start: p.byteStart()}
	p.pushNode(n)
	return n
}

// finishNode closes the current node and appends it to its parent.
func (p *parser) finishNode() *Node {
	n := p.popNode()
	n.End = p.lastEnd
	parent := p.node()
	parent.Children = append(parent.Children, n)
	return n
}

func (p *parser) errf(format string, args ...any) {
	start, end := p.byteStart(), p.byteStart()
	if p.cur < len(p.toks) {
		end = p.toks[p.cur].End
	}
	p.errors = append(p.errors, Diagnostic{Start: start, End: end, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) byteStart() int {
	p.skipTriviaInto()
	if p.cur < len(p.toks) {
		return p.toks[p.cur].Start
	}
	return p.byteEnd()
}

func (p *parser) byteEnd() int {
	if len(p.toks) == 0 {
		return 0
	}
	return p.toks[len(p.toks)-1].End
}

// skipTriviaInto appends every trivia token from the current position
// onward as plain leaf children of whichever node is currently open, so
// that trivia and real tokens stay interleaved in document order and
// Node.Text can reconstruct the source by simple concatenation.
func (p *parser) skipTriviaInto() {
	for p.cur < len(p.toks) && IsTrivia(p.toks[p.cur].Kind) {
		t := p.toks[p.cur]
		p.cur++
		leaf := &Node{Kind: t.Kind, Token: &t, Start: t.Start, End: t.End}
		parent := p.node()
		parent.Children = append(parent.Children, leaf)
	}
}

func (p *parser) atEOF() bool {
	p.skipTriviaInto()
	return p.cur >= len(p.toks) || p.toks[p.cur].Kind == EOF
}

// nth returns the nth non-trivia token ahead (0 == current).
func (p *parser) nth(n int) Token {
	idx := p.cur
	skipped := 0
	for idx < len(p.toks) {
		if IsTrivia(p.toks[idx].Kind) {
			idx++
			continue
		}
		if skipped == n {
			return p.toks[idx]
		}
		skipped++
		idx++
	}
	return Token{Kind: EOF}
}

func (p *parser) at(ks ...Kind) bool {
	t := p.nth(0)
	for _, k := range ks {
		if t.Kind == k {
			return true
		}
	}
	return false
}

func (p *parser) currentText() string {
	return p.nth(0).Text
}

// bumpRaw consumes exactly one non-trivia token as a leaf of the current
// node, regardless of kind, first flushing any trivia that precedes it.
func (p *parser) bumpRaw() *Node {
	p.skipTriviaInto()
	if p.cur >= len(p.toks) {
		return nil
	}
	t := p.toks[p.cur]
	p.cur++
	leaf := &Node{Kind: t.Kind, Token: &t, Start: t.Start, End: t.End}
	p.lastEnd = t.End
	parent := p.node()
	parent.Children = append(parent.Children, leaf)
	return leaf
}

// eat consumes the current token if it matches kind.
func (p *parser) eat(kind Kind) bool {
	if p.nth(0).Kind != kind {
		return false
	}
	p.bumpRaw()
	return true
}

// eatIdentAs consumes an Ident token whose raw text equals raw, tagging it
// with kind in the tree (used for the context-sensitive keywords
// "base"/"ligature", §4.3).
func (p *parser) eatIdentAs(raw string, kind Kind) bool {
	t := p.nth(0)
	if t.Kind != Ident || t.Text != raw {
		return false
	}
	leaf := p.bumpRaw()
	leaf.Kind = kind
	return true
}

// isNameLike reports whether t could stand as a bare name (a feature,
// lookup, script or language tag, or a glyph name) even though the lexer
// tagged it with a keyword Kind: feature-file names may legitimately
// collide in spelling with a reserved word (a feature can be tagged
// "mark", a lookup can be named "sub").
func isNameLike(t Token) bool {
	if t.Kind == Ident {
		return true
	}
	_, isKeyword := keywords[t.Text]
	return isKeyword
}

// eatName consumes a bare name in a position where feature/lookup/script/
// language tags and glyph names are expected (see isNameLike), relabeling
// the leaf as Ident in the tree regardless of which keyword it matched.
func (p *parser) eatName() *Node {
	if !isNameLike(p.nth(0)) {
		return nil
	}
	leaf := p.bumpRaw()
	leaf.Kind = Ident
	return leaf
}

// expectRecover consumes kind if present; otherwise records a diagnostic
// and scans forward to the nearest token in recovery (§4.3
// "expect_recover"). On an empty recovery set at EOF it simply stops.
func (p *parser) expectRecover(kind Kind, recovery TokenSet) bool {
	if p.eat(kind) {
		return true
	}
	p.errf("expected %s, found %q", kind, p.currentText())
	for !p.atEOF() && !recovery.Contains(p.nth(0).Kind) {
		p.bumpRaw()
	}
	return false
}

// skipTo consumes tokens (as an ErrorNode) until one in recovery is seen,
// or EOF; used when a production cannot even identify what it is.
func (p *parser) skipTo(recovery TokenSet) {
	p.startNode(ErrorNode)
	for !p.atEOF() && !recovery.Contains(p.nth(0).Kind) {
		p.bumpRaw()
	}
	p.finishNode()
}

// ---- top-level items (§4.3) ----

func (p *parser) topLevelItem(recovery TokenSet) {
	switch {
	case p.at(FeatureKw):
		p.featureBlock(recovery)
	case p.at(LookupKw):
		p.lookupBlockOrRef(recovery)
	case p.at(LookupflagKw):
		p.lookupflagStatement(recovery)
	case p.at(ScriptKw):
		p.scriptStatement(recovery)
	case p.at(LanguageKw):
		p.languageStatement(recovery)
	case p.at(LanguagesystemKw):
		p.languageSystemStatement(recovery)
	case p.at(NamedGlyphClass):
		p.glyphClassDecl(recovery)
	case p.at(MarkClassKw):
		p.markClassStatement(recovery)
	case p.at(SubtableKw):
		p.subtableStatement(recovery)
	case p.at(SizemenunameKw):
		p.sizemenunameBlock(recovery)
	case p.at(CvParametersKw):
		p.cvParametersBlock(recovery)
	case p.at(FeatureNamesKw):
		p.featureNamesBlock(recovery)
	case p.at(SubKw, RsubKw, PosKw, IgnoreKw, EnumKw):
		p.rule(recovery)
	default:
		p.errf("unexpected token %q at top level", p.currentText())
		p.skipTo(recovery.Union(TopLevel))
	}
}

// featureBlock: feature <tag> { ... } <tag>;
func (p *parser) featureBlock(recovery TokenSet) {
	p.startNode(FeatureNode)
	p.expectRecover(FeatureKw, recovery)
	p.eatName() // feature tag, e.g. "kern", "liga", or "mark"
	bodyRecovery := recovery.With(RBrace)
	if p.expectRecover(LBrace, bodyRecovery) {
		inner := recovery.Union(FeatureBodyItem)
		for !p.at(RBrace) && !p.atEOF() {
			before := p.cur
			p.featureBodyItem(inner)
			if p.cur == before {
				p.errf("unexpected token %q in feature block", p.currentText())
				p.bumpRaw()
			}
		}
		p.expectRecover(RBrace, recovery.With(Ident, Semi))
		p.eatName() // closing tag repeat
		p.expectRecover(Semi, recovery)
	}
	p.finishNode()
}

func (p *parser) featureBodyItem(recovery TokenSet) {
	switch {
	case p.at(LookupKw):
		p.lookupBlockOrRef(recovery)
	case p.at(LookupflagKw):
		p.lookupflagStatement(recovery)
	case p.at(ScriptKw):
		p.scriptStatement(recovery)
	case p.at(LanguageKw):
		p.languageStatement(recovery)
	case p.at(NamedGlyphClass):
		p.glyphClassDecl(recovery)
	case p.at(MarkClassKw):
		p.markClassStatement(recovery)
	case p.at(SubtableKw):
		p.subtableStatement(recovery)
	case p.at(ParametersKw):
		p.parametersStatement(recovery)
	case p.at(SizemenunameKw):
		p.sizemenunameBlock(recovery)
	case p.at(CvParametersKw):
		p.cvParametersBlock(recovery)
	case p.at(FeatureNamesKw):
		p.featureNamesBlock(recovery)
	case p.at(SubKw, RsubKw, PosKw, IgnoreKw, EnumKw):
		p.rule(recovery)
	default:
		// unknown: nothing is consumed here; the caller sees no progress,
		// reports the token and skips it.
	}
}

// lookupBlockOrRef distinguishes `lookup name { ... } [name];` (a block
// definition) from `lookup name;` (a reference to a lookup defined
// elsewhere), by lookahead on the token following the name (§4.3).
func (p *parser) lookupBlockOrRef(recovery TokenSet) {
	if isNameLike(p.nth(1)) && p.nth(2).Kind == Semi {
		p.startNode(LookupRefNode)
		p.expectRecover(LookupKw, recovery)
		p.eatName()
		p.expectRecover(Semi, recovery)
		p.finishNode()
		return
	}
	p.startNode(LookupBlockNode)
	p.expectRecover(LookupKw, recovery)
	p.eatName()
	p.eat(UseExtensionKw)
	bodyRecovery := recovery.With(RBrace)
	if p.expectRecover(LBrace, bodyRecovery) {
		inner := recovery.Union(FeatureBodyItem)
		for !p.at(RBrace) && !p.atEOF() {
			before := p.cur
			p.featureBodyItem(inner)
			if p.cur == before {
				p.errf("unexpected token %q in lookup block", p.currentText())
				p.bumpRaw()
			}
		}
		p.expectRecover(RBrace, recovery.With(Ident, Semi))
		p.eatName()
		p.expectRecover(Semi, recovery)
	}
	p.finishNode()
}

func (p *parser) lookupflagStatement(recovery TokenSet) {
	p.startNode(LookupflagNode)
	p.expectRecover(LookupflagKw, recovery.With(Semi))
	for !p.at(Semi) && !p.atEOF() {
		if p.eat(Ident) || p.eat(Number) {
			continue
		}
		if p.at(MarkKw) {
			p.bumpRaw()
			if p.at(NamedGlyphClass) {
				p.bumpRaw()
			}
			continue
		}
		break
	}
	p.expectRecover(Semi, recovery)
	p.finishNode()
}

func (p *parser) scriptStatement(recovery TokenSet) {
	p.startNode(ScriptNode)
	p.expectRecover(ScriptKw, recovery.With(Semi))
	p.eatName()
	p.expectRecover(Semi, recovery)
	p.finishNode()
}

func (p *parser) languageStatement(recovery TokenSet) {
	p.startNode(LanguageNode)
	p.expectRecover(LanguageKw, recovery.With(Semi))
	p.eatName()
	if p.at(Ident) && (p.currentText() == "exclude_dflt" || p.currentText() == "include_dflt") {
		p.bumpRaw()
	}
	p.expectRecover(Semi, recovery)
	p.finishNode()
}

// languageSystemStatement: languagesystem <script> <language>; — top-level
// only, declares a (script, language) pair that feature lookups bind to
// by default when no explicit script/language statement overrides it.
func (p *parser) languageSystemStatement(recovery TokenSet) {
	p.startNode(LanguageSystemNode)
	p.expectRecover(LanguagesystemKw, recovery.With(Semi))
	p.eatName()
	p.eatName()
	p.expectRecover(Semi, recovery)
	p.finishNode()
}

// glyphClassDecl: @name = [glyphs...];
func (p *parser) glyphClassDecl(recovery TokenSet) {
	p.startNode(GlyphClassDeclNode)
	p.expectRecover(NamedGlyphClass, recovery.With(Semi))
	if p.expectRecover(Eq, recovery.With(Semi)) {
		p.glyphOrClass(recovery.With(Semi))
	}
	p.expectRecover(Semi, recovery)
	p.finishNode()
}

func (p *parser) markClassStatement(recovery TokenSet) {
	p.startNode(MarkClassNode)
	p.expectRecover(MarkClassKw, recovery.With(Semi))
	p.glyphOrClass(recovery.With(LAngle, Semi))
	p.anchorNode(recovery.With(NamedGlyphClass, Semi))
	p.eat(NamedGlyphClass)
	p.expectRecover(Semi, recovery)
	p.finishNode()
}

func (p *parser) subtableStatement(recovery TokenSet) {
	p.startNode(SubtableNode)
	p.expectRecover(SubtableKw, recovery.With(Semi))
	p.expectRecover(Semi, recovery)
	p.finishNode()
}

func (p *parser) parametersStatement(recovery TokenSet) {
	p.startNode(ErrorNode) // treated as opaque tail data, not yet modeled as its own node kind
	p.eat(ParametersKw)
	for !p.at(Semi) && !p.atEOF() {
		p.bumpRaw()
	}
	p.eat(Semi)
	p.finishNode()
}

// sizemenunameBlock: sizemenuname { ... } or sizemenuname "string";
func (p *parser) sizemenunameBlock(recovery TokenSet) {
	p.startNode(SizemenunameNode)
	p.expectRecover(SizemenunameKw, recovery.With(Semi, LBrace))
	p.nameStatementTail(recovery)
	p.finishNode()
}

func (p *parser) featureNamesBlock(recovery TokenSet) {
	p.startNode(FeatureNamesNode)
	p.expectRecover(FeatureNamesKw, recovery.With(Semi, LBrace))
	p.nameStatementTail(recovery)
	p.finishNode()
}

func (p *parser) cvParametersBlock(recovery TokenSet) {
	p.startNode(CvParametersNode)
	p.expectRecover(CvParametersKw, recovery.With(LBrace))
	if p.expectRecover(LBrace, recovery.With(RBrace)) {
		for !p.at(RBrace) && !p.atEOF() {
			before := p.cur
			switch {
			case p.at(FeatUiLabelNameIDKw), p.at(FeatUiTooltipTextNameIDKw),
				p.at(SampleTextNameIDKw), p.at(ParamUiLabelNameIDKw):
				p.bumpRaw()
				p.nameStatementTail(recovery.With(RBrace))
			case p.at(CharacterKw):
				p.bumpRaw()
				p.eat(HexNumber)
				p.eat(Semi)
			default:
				p.bumpRaw()
			}
			if p.cur == before {
				p.bumpRaw()
			}
		}
		p.expectRecover(RBrace, recovery.With(Semi))
	}
	p.eat(Semi)
	p.finishNode()
}

// nameStatementTail parses either `{ name 1 "..."; ... }` or a bare
// `"string";` tail shared by sizemenuname/featureNames/cv parameter name
// blocks, then consumes the trailing semicolon of the enclosing
// statement.
func (p *parser) nameStatementTail(recovery TokenSet) {
	if p.eat(LBrace) {
		for !p.at(RBrace) && !p.atEOF() {
			before := p.cur
			if p.currentText() == "name" && p.at(Ident) {
				p.bumpRaw()
				for !p.at(Semi) && !p.atEOF() {
					p.bumpRaw()
				}
				p.eat(Semi)
			} else {
				p.bumpRaw()
			}
			if p.cur == before {
				p.bumpRaw()
			}
		}
		p.expectRecover(RBrace, recovery.With(Semi))
		p.eat(Semi)
		return
	}
	for !p.at(Semi) && !p.atEOF() {
		p.bumpRaw()
	}
	p.expectRecover(Semi, recovery)
}

// ---- glyphs, classes, anchors, value records ----

func (p *parser) glyphOrClass(recovery TokenSet) {
	p.startNode(GlyphOrClassNode)
	switch {
	case p.at(LBracket):
		p.bumpRaw()
		for !p.at(RBracket) && !p.atEOF() {
			if p.eatName() != nil || p.eat(NamedGlyphClass) {
				if p.at(Dash) {
					p.bumpRaw()
					p.eatName()
				}
				continue
			}
			break
		}
		p.expectRecover(RBracket, recovery)
	case p.at(NamedGlyphClass):
		p.bumpRaw()
	default:
		p.eatName()
	}
	p.finishNode()
}

// anchorNode: <anchor x y> or <anchor NULL> or <anchor contourpoint>
func (p *parser) anchorNode(recovery TokenSet) {
	p.startNode(AnchorNode)
	p.expectRecover(LAngle, recovery.With(RAngle))
	p.eat(AnchorKw)
	if p.at(Ident) && p.currentText() == "NULL" {
		p.bumpRaw()
	} else {
		p.eat(Dash)
		p.eat(Number)
		p.eat(Dash)
		p.eat(Number)
		if p.eat(Ident) { // contourpoint
			p.eat(Number)
		}
	}
	p.expectRecover(RAngle, recovery)
	p.finishNode()
}

// valueRecord: a bare number, or <xPla yPla xAdv yAdv>, or <anchor-like
// 4-number form>.
func (p *parser) valueRecord(recovery TokenSet) {
	p.startNode(ValueRecordNode)
	switch {
	case p.at(Dash, Number):
		p.eat(Dash)
		p.eat(Number)
	case p.at(LAngle):
		p.bumpRaw()
		for i := 0; i < 4 && !p.atEOF() && !p.at(RAngle); i++ {
			p.eat(Dash)
			p.eat(Number)
		}
		p.expectRecover(RAngle, recovery)
	}
	p.finishNode()
}

// ---- rules (§4.3 positioning and substitution shapes) ----

func (p *parser) rule(recovery TokenSet) {
	switch {
	case p.at(IgnoreKw):
		p.ignoreRule(recovery)
	case p.at(EnumKw):
		p.bumpRaw() // enum prefixes a pair pos/sub rule; fall through to it
		p.rule(recovery)
	case p.at(PosKw):
		p.gposRule(recovery)
	case p.at(SubKw), p.at(RsubKw):
		p.gsubRule(recovery)
	}
}

func (p *parser) ignoreRule(recovery TokenSet) {
	p.startNode(ErrorNode) // "ignore" rules carry no semantic weight for compiled output
	p.bumpRaw()
	for !p.at(Semi) && !p.atEOF() {
		p.bumpRaw()
	}
	p.eat(Semi)
	p.finishNode()
}

// gposRule implements the five shapes of §4.3: single, pair, cursive,
// mark-to-base/mark-to-mark, and chain, disambiguated by lookahead.
// "Disambiguation between pair and chain is done by lookahead: a value
// record followed by `;` is single; two glyphs with a value record is
// pair; otherwise the rule is chained."
func (p *parser) gposRule(recovery TokenSet) {
	p.startNode(GposNode)
	p.expectRecover(PosKw, recovery.With(Semi))
	switch {
	case p.at(CursiveKw):
		p.bumpRaw()
		p.glyphOrClass(recovery)
		p.anchorNode(recovery)
		p.anchorNode(recovery)
	case p.at(MarkKw):
		p.bumpRaw()
		p.glyphOrClass(recovery)
		for p.at(LAngle) {
			p.anchorNode(recovery)
			p.eat(MarkKw)
			p.eat(NamedGlyphClass)
		}
	case p.eatIdentAs("base", BaseKw):
		p.glyphOrClass(recovery)
		for p.at(LAngle) {
			p.anchorNode(recovery)
			p.eat(MarkKw)
			p.eat(NamedGlyphClass)
		}
	case p.eatIdentAs("ligature", LigatureKw):
		p.glyphOrClass(recovery)
		for p.at(LAngle) || p.at(Ident) {
			if p.currentText() == "ligComponent" {
				p.bumpRaw()
				continue
			}
			if !p.at(LAngle) {
				break
			}
			p.anchorNode(recovery)
			p.eat(MarkKw)
			p.eat(NamedGlyphClass)
		}
	default:
		p.gposGlyphRule(recovery)
	}
	p.expectRecover(Semi, recovery)
	p.finishNode()
}

// gposGlyphRule handles the single/pair/chain trio that share a leading
// glyph-or-class sequence.
func (p *parser) gposGlyphRule(recovery TokenSet) {
	glyphCount := 0
	for p.at(Ident, NamedGlyphClass, LBracket) {
		p.glyphOrClass(recovery)
		glyphCount++
	}
	switch {
	case glyphCount <= 1 && p.at(Dash, Number, LAngle):
		// single positioning: one glyph/class, one value record.
		p.valueRecord(recovery)
	case glyphCount >= 2 && p.at(Dash, Number, LAngle):
		// pair positioning, form B: glyph glyph valuerecord.
		p.valueRecord(recovery)
	case glyphCount >= 1 && p.at(Ident, NamedGlyphClass, LBracket):
		// pair positioning, form A: glyph valuerecord glyph [valuerecord];
		// the second operand was already consumed as a "glyph" above when
		// lookahead couldn't tell them apart from a contextual sequence;
		// here we are instead in the chain-context case: a run of glyphs
		// with no intervening value record means a contextual/chain rule,
		// so keep consuming context glyphs and optional lookup refs.
		for p.at(Ident, NamedGlyphClass, LBracket) {
			p.glyphOrClass(recovery)
			if p.at(LParen) { // lookup invocation marker is not modeled; skip defensively
				p.bumpRaw()
			}
		}
		if p.at(Dash, Number, LAngle) {
			p.valueRecord(recovery)
		}
	case glyphCount >= 1:
		// chain rule with no trailing value record: pure context glyphs,
		// already consumed above.
	}
	if !p.at(Semi) {
		p.errf("malformed positioning rule near %q", p.currentText())
		for !p.at(Semi) && !p.atEOF() {
			p.bumpRaw()
		}
	}
}

// gsubRule implements single/multiple/alternate/ligature/chain
// substitution (§4.3), and reverse chaining substitution (rsub).
func (p *parser) gsubRule(recovery TokenSet) {
	p.startNode(GsubNode)
	isReverse := p.at(RsubKw)
	if isReverse {
		p.expectRecover(RsubKw, recovery.With(Semi))
	} else {
		p.expectRecover(SubKw, recovery.With(Semi))
	}
	for p.at(Ident, NamedGlyphClass, LBracket) {
		p.glyphOrClass(recovery)
		p.eat(SingleQuote) // marks this position as the chain-context input span (§4.3)
	}
	if p.eat(ByKw) || p.eat(FromKw) {
		for p.at(Ident, NamedGlyphClass, LBracket) {
			p.glyphOrClass(recovery)
		}
	}
	for !p.at(Semi) && !p.atEOF() {
		p.bumpRaw()
	}
	p.expectRecover(Semi, recovery)
	p.finishNode()
}
