/*
Package feaast implements the feature-file lexer and parser of §4.3
(component C): a tokenizer producing a fixed closed set of token kinds,
and a recursive-descent parser with "recovery token set" error recovery
that always produces a well-formed, lossless concrete syntax tree.
*/
package feaast

// Kind identifies a token or tree-node kind. The same enumeration space
// is shared between leaf tokens (Ident, Number, ...) and interior tree
// nodes (FeatureNode, GposNode, ...), following the teacher's Tag-as-
// closed-enum convention (ot/ot.go's Tag) generalized to a node kind.
type Kind int

const (
	// --- trivia ---
	Whitespace Kind = iota
	LineComment
	BlockComment

	// --- literals / names ---
	Ident
	Number
	HexNumber
	NamedGlyphClass // @name
	GlyphName
	String

	// --- punctuation ---
	LBrace
	RBrace
	LParen
	RParen
	LAngle
	RAngle
	LBracket
	RBracket
	Semi
	Comma
	Dash
	Quote
	SingleQuote
	Apostrophe
	Eq

	// --- keywords ---
	FeatureKw
	LookupKw
	LookupflagKw
	ScriptKw
	LanguageKw
	LanguagesystemKw
	SubKw
	PosKw
	RsubKw
	IgnoreKw
	EnumKw
	MarkKw
	MarkClassKw
	CursiveKw
	BaseKw
	LigatureKw
	AnchorKw
	ByKw
	FromKw
	UseExtensionKw
	FeatureNamesKw
	CvParametersKw
	SizemenunameKw
	ParametersKw
	SubtableKw
	FeatUiLabelNameIDKw
	FeatUiTooltipTextNameIDKw
	SampleTextNameIDKw
	ParamUiLabelNameIDKw
	CharacterKw

	EOF
	Error

	// --- tree node kinds (never produced by the lexer) ---
	RootNode
	FeatureNode
	LookupBlockNode
	LookupRefNode
	LookupflagNode
	ScriptNode
	LanguageNode
	LanguageSystemNode
	GlyphClassDeclNode
	MarkClassNode
	SubtableNode
	SizemenunameNode
	CvParametersNode
	FeatureNamesNode
	GposNode
	GsubNode
	ValueRecordNode
	AnchorNode
	AnchorMarkNode
	GlyphOrClassNode
	ErrorNode
)

var keywords = map[string]Kind{
	"feature":                 FeatureKw,
	"lookup":                  LookupKw,
	"lookupflag":              LookupflagKw,
	"script":                  ScriptKw,
	"language":                LanguageKw,
	"languagesystem":          LanguagesystemKw,
	"sub":                     SubKw,
	"substitute":              SubKw,
	"pos":                     PosKw,
	"position":                PosKw,
	"rsub":                    RsubKw,
	"reversesub":              RsubKw,
	"ignore":                  IgnoreKw,
	"enum":                    EnumKw,
	"enumerate":               EnumKw,
	"mark":                    MarkKw,
	"markClass":               MarkClassKw,
	"cursive":                 CursiveKw,
	"base":                    BaseKw,
	"ligature":                LigatureKw,
	"anchor":                  AnchorKw,
	"by":                      ByKw,
	"from":                    FromKw,
	"useExtension":            UseExtensionKw,
	"featureNames":            FeatureNamesKw,
	"cvParameters":            CvParametersKw,
	"sizemenuname":            SizemenunameKw,
	"parameters":              ParametersKw,
	"subtable":                SubtableKw,
	"FeatUiLabelNameID":       FeatUiLabelNameIDKw,
	"FeatUiTooltipTextNameID": FeatUiTooltipTextNameIDKw,
	"SampleTextNameID":        SampleTextNameIDKw,
	"ParamUiLabelNameID":      ParamUiLabelNameIDKw,
	"Character":               CharacterKw,
}

// contextSensitiveKeywords are recognized as identifiers everywhere
// except inside positioning-rule productions that expect them (§4.3:
// "Keywords `base` and `ligature` are recognized as context-sensitive
// identifiers").
var contextSensitiveKeywords = map[string]bool{
	"base":     true,
	"ligature": true,
}

func (k Kind) String() string {
	switch k {
	case Whitespace:
		return "Whitespace"
	case LineComment:
		return "LineComment"
	case BlockComment:
		return "BlockComment"
	case Ident:
		return "Ident"
	case Number:
		return "Number"
	case HexNumber:
		return "HexNumber"
	case NamedGlyphClass:
		return "NamedGlyphClass"
	case GlyphName:
		return "GlyphName"
	case String:
		return "String"
	case Semi:
		return "Semi"
	case EOF:
		return "EOF"
	case Error:
		return "Error"
	default:
		return "Kind"
	}
}
