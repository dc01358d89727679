package layout

import "github.com/glyphware/vfc/feaast"

// LangSysTag is one declared `languagesystem <script> <language>;`
// statement (§4.3, §4.5 "Language systems"), in source order.
type LangSysTag struct {
	Script Tag
	Lang   Tag
}

// ExtractLanguageSystems walks tree for every top-level languagesystem
// statement and resolves its script/language tag pair.
func ExtractLanguageSystems(tree *feaast.Tree) []LangSysTag {
	if tree == nil || tree.Root == nil {
		return nil
	}
	var out []LangSysTag
	for _, n := range tree.Root.FindAll(feaast.LanguageSystemNode) {
		var names []string
		for _, k := range semanticChildren(n.Children) {
			if k.Kind == feaast.Ident {
				names = append(names, k.Text())
			}
		}
		if len(names) < 2 {
			continue
		}
		out = append(out, LangSysTag{Script: MakeTag(names[0]), Lang: MakeTag(names[1])})
	}
	return out
}

// bindFeature registers featureIdx under every declared language system,
// or DFLT/dflt alone when none were declared (§4.5 "Language systems": "If
// the feature source contains explicit languagesystem statements, lookups
// without explicit script/language bind only to those. If none are
// present, bind to DFLT/dflt only.").
func bindFeature(scripts *ScriptListBuilder, systems []LangSysTag, featureIdx int) {
	if len(systems) == 0 {
		scripts.BindDefault(TagDFLT, featureIdx)
		return
	}
	for _, sys := range systems {
		scripts.Bind(sys.Script, sys.Lang, featureIdx)
	}
}
