package feaast

// TokenSet is a small set of Kind values, used for the "recovery
// token set" error-recovery pattern (§4.3, §9): each production takes a
// TokenSet that, if encountered during an error, pops parsing back to the
// caller. Grounded directly on the teacher-adjacent reference grammar's
// TokenSet (original_source's fea-rs grammar, src/grammar/*.rs), reduced
// from a generated two-word bitset to a plain map for clarity.
type TokenSet map[Kind]bool

// NewTokenSet builds a TokenSet from a list of kinds.
func NewTokenSet(kinds ...Kind) TokenSet {
	ts := make(TokenSet, len(kinds))
	for _, k := range kinds {
		ts[k] = true
	}
	return ts
}

// Union returns a new TokenSet containing the members of ts and other.
func (ts TokenSet) Union(other TokenSet) TokenSet {
	out := make(TokenSet, len(ts)+len(other))
	for k := range ts {
		out[k] = true
	}
	for k := range other {
		out[k] = true
	}
	return out
}

// With returns a new TokenSet with kinds added.
func (ts TokenSet) With(kinds ...Kind) TokenSet {
	return ts.Union(NewTokenSet(kinds...))
}

// Contains reports whether k is a member of ts.
func (ts TokenSet) Contains(k Kind) bool {
	return ts[k]
}

// EmptyTokenSet is the recovery set with no members: used at the
// outermost (top-level) production, where there is no caller to recover
// to.
var EmptyTokenSet = TokenSet{}

// TopLevel is the set of tokens that may start a top-level item,
// following §4.3's item list.
var TopLevel = NewTokenSet(FeatureKw, LookupKw, LookupflagKw, ScriptKw, LanguageKw,
	LanguagesystemKw, NamedGlyphClass, MarkClassKw, SubtableKw, SizemenunameKw,
	CvParametersKw, FeatureNamesKw, SubKw, RsubKw, PosKw, IgnoreKw, EnumKw)

// FeatureBodyItem is the set of tokens that may start an item inside a
// `feature ... { }` block (§4.3 "Top-level productions").
var FeatureBodyItem = NewTokenSet(PosKw, SubKw, RsubKw, IgnoreKw, EnumKw,
	NamedGlyphClass, MarkClassKw, ParametersKw, SubtableKw, LookupKw,
	LookupflagKw, ScriptKw, LanguageKw, FeatureKw, SizemenunameKw,
	CvParametersKw, FeatureNamesKw, RBrace)
