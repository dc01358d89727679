package layout

import (
	"context"
	"sort"

	"github.com/glyphware/vfc/diag"
	"github.com/glyphware/vfc/feaast"
	"github.com/glyphware/vfc/pipeline"
	"github.com/glyphware/vfc/source"
	"github.com/glyphware/vfc/synth"
	"github.com/glyphware/vfc/variation"
)

// kernPlanResult bundles BuildKernPlan's two return values into a
// single type so it can travel through one pipeline.Slot.
type kernPlanResult struct {
	plan *synth.KernPlan
	errs []error
}

// Compiled is the layout compiler's binary output (§4.5's three table
// bytes), ready for sfntwriter to place into an sfnt table directory.
type Compiled struct {
	GSUB []byte // nil if no substitution rules/lookups were produced
	GPOS []byte // nil if no positioning rules/lookups were produced
	GDEF []byte
}

// Compile runs the whole layout compiler pipeline of §4.5: resolve glyph
// IDs, parse the embedded feature source, merge it with the synthesized
// mark/kern lookups, assign lookup/feature/script indices, and emit
// GPOS/GSUB/GDEF bytes with extension-subtable promotion where needed.
func Compile(font *source.Font, collector *diag.Collector) *Compiled {
	gids := buildGlyphIDs(font)
	interner := variation.NewInterner()

	// Anchors (mark resolution), Kerning (kern plan), and FeatureAST are
	// the three independent first-layer work items of §5's DAG (Source
	// Model → {Anchors, Kerning, FeatureAST} → Marks → Kerning lookups →
	// Layout Compiler): none reads another's output, so they run as
	// concurrent pipeline items, sharing only the mutex-guarded
	// interner and diagnostic collector. Everything downstream of this
	// join (Marks construction from resolved anchors, kern-lookup
	// construction, GSUB/GPOS/GDEF assembly) has genuine sequential
	// dependencies and stays synchronous.
	markGroupsSlot := pipeline.NewSlot[[]synth.MarkAttachLookup]()
	kernPlanSlot := pipeline.NewSlot[kernPlanResult]()
	treeSlot := pipeline.NewSlot[*feaast.Tree]()

	sched := pipeline.NewScheduler(context.Background())
	sched.Submit(pipeline.NewItem("anchors", func(ctx context.Context) error {
		// featureClasses (AST-declared GDEF classes from markClass/
		// substitution statements) is left nil: the feature tree hasn't
		// been parsed yet at this point, and PreferFeatureGDEFClasses is
		// rare enough in practice that this compiler resolves it from
		// font.GDEFCategories only (see DESIGN.md Open Questions).
		markGroupsSlot.Publish(synth.BuildMarkLookups(font, nil, interner, collector), nil)
		return nil
	}))
	sched.Submit(pipeline.NewItem("kerning", func(ctx context.Context) error {
		plan, errs := synth.BuildKernPlan(font, interner)
		kernPlanSlot.Publish(kernPlanResult{plan: plan, errs: errs}, nil)
		return nil
	}))
	sched.Submit(pipeline.NewItem("featureAST", func(ctx context.Context) error {
		treeSlot.Publish(feaast.Parse(font.Features), nil)
		return nil
	}))
	_ = sched.Wait() // none of the three items above can themselves fail fatally

	markGroups, _ := markGroupsSlot.Wait(context.Background())
	kernResult, _ := kernPlanSlot.Wait(context.Background())
	for _, err := range kernResult.errs {
		collector.Add(diag.Warnf(diag.KindVariation, "", diag.Range{}, "%s", err.Error()))
	}
	var kernPairs []synth.ResolvedKernPair
	if kernResult.plan != nil {
		kernPairs = synth.ExpandMixedPairs(kernResult.plan, font.KerningGroups)
	}

	tree, _ := treeSlot.Wait(context.Background())
	for _, e := range tree.Errors {
		collector.Add(diag.Errorf(diag.KindFeatureSyn, "", diag.Range{Start: e.Start, End: e.End}, "%s", e.Message))
	}
	substRules := ExtractSubstRules(tree)
	cursiveRules := ExtractCursiveRules(tree)
	langSystems := ExtractLanguageSystems(tree)

	axisOrder := make([]string, len(font.Axes))
	for i, a := range font.Axes {
		axisOrder[i] = a.Tag
	}
	store := variation.BuildStore(axisOrder, interner.Entries())
	locate := NewDeltaLocator(store)

	gsubLookups := NewLookupListBuilder()
	gsubFeatures := NewFeatureListBuilder()
	gsubScripts := NewScriptListBuilder()
	var gsubLookupIdxs []int
	for _, rule := range substRules {
		if rule.Kind == ChainContextSubst {
			if idx := buildChainContextLookup(rule, gids, gsubLookups); idx >= 0 {
				gsubLookupIdxs = append(gsubLookupIdxs, idx)
			}
			continue
		}
		var subtable []byte
		var typ uint16
		switch rule.Kind {
		case SingleSubst:
			subtable, typ = BuildSingleSubstSubtable(rule, gids), GSUBSingle
		case MultipleSubst:
			subtable, typ = BuildMultipleSubstSubtable(rule, gids), GSUBMultiple
		case AlternateSubst:
			subtable, typ = BuildAlternateSubstSubtable(rule, gids), GSUBAlternate
		case LigatureSubst:
			subtable, typ = BuildLigatureSubstSubtable(rule, gids), GSUBLigature
		default:
			collector.Add(diag.Warnf(diag.KindCompile, "", diag.Range{}, "substitution rule shape not compiled (reverse-chain, or no by/from tail and no marked context span)"))
			continue
		}
		if subtable == nil {
			continue
		}
		idx := gsubLookups.Add(LookupEntry{Type: typ, Subtables: [][]byte{subtable}, ExtensionType: GSUBExtension})
		gsubLookupIdxs = append(gsubLookupIdxs, idx)
	}
	if len(gsubLookupIdxs) > 0 {
		featIdx := gsubFeatures.Add(MakeTag("rlig"), gsubLookupIdxs)
		bindFeature(gsubScripts, langSystems, featIdx)
	}

	gposLookups := NewLookupListBuilder()
	gposFeatures := NewFeatureListBuilder()
	gposScripts := NewScriptListBuilder()

	gdefBuilder := NewGDEFBuilder()
	for name, class := range font.GDEFCategories {
		if gid, ok := gids[name]; ok {
			gdefBuilder.GlyphClass[gid] = gdefClassFromName(class)
		}
	}

	if len(kernPairs) > 0 {
		var kernLookupIdxs []int
		for _, sub := range BuildPairPosSubtables(kernPairs, gids, locate) {
			idx := gposLookups.Add(LookupEntry{Type: GPOSPair, Subtables: [][]byte{sub}, ExtensionType: GPOSExtension})
			kernLookupIdxs = append(kernLookupIdxs, idx)
		}
		if len(kernLookupIdxs) > 0 {
			featIdx := gposFeatures.Add(MakeTag("kern"), kernLookupIdxs)
			bindFeature(gposScripts, langSystems, featIdx)
		}
	}

	// Cursive attachment (§4.3 gposRule's cursive shape, GPOS lookup type
	// 3) comes straight from the feature file, unlike kern/mark/mkmk,
	// which are synthesized from the source model.
	if len(cursiveRules) > 0 {
		if sub := BuildCursivePosSubtable(cursiveRules, gids, locate); sub != nil {
			idx := gposLookups.Add(LookupEntry{Type: GPOSCursive, Subtables: [][]byte{sub}, ExtensionType: GPOSExtension})
			featIdx := gposFeatures.Add(MakeTag("curs"), []int{idx})
			bindFeature(gposScripts, langSystems, featIdx)
		}
	}

	// Synthesized mark/mkmk lookups are added as their own lookups and
	// bound into the mark/mkmk features for all default language
	// systems, never merged into user-written lookups of the same name
	// (§4.5 "feature provider hook").
	var markIdxs, mkmkIdxs []int
	for _, g := range markGroups {
		typ := GPOSMarkToBase
		if g.IsMarkToMark {
			typ = GPOSMarkToMark
		}
		var sub []byte
		if g.IsMarkToMark {
			sub = BuildMarkToMarkSubtable(g, gids, locate)
		} else {
			sub = BuildMarkToBaseSubtable(g, gids, locate)
		}
		flag := LookupFlag(0)
		var markFilterSet uint16
		if g.IsMarkToMark && g.UseMarkFilteringSet {
			flag = LookupFlagUseMarkFilteringSet
			markFilterSet = gdefBuilder.AddMarkGlyphSet(memberGIDs(g.Marks, gids))
		}
		idx := gposLookups.Add(LookupEntry{Type: typ, Flag: flag, MarkFilterSet: markFilterSet, Subtables: [][]byte{sub}, ExtensionType: GPOSExtension})
		if g.IsMarkToMark {
			mkmkIdxs = append(mkmkIdxs, idx)
		} else {
			markIdxs = append(markIdxs, idx)
		}
	}
	if len(markIdxs) > 0 {
		featIdx := gposFeatures.Add(MakeTag("mark"), markIdxs)
		bindFeature(gposScripts, langSystems, featIdx)
	}
	if len(mkmkIdxs) > 0 {
		featIdx := gposFeatures.Add(MakeTag("mkmk"), mkmkIdxs)
		bindFeature(gposScripts, langSystems, featIdx)
	}

	ivs := BuildItemVariationStore(store)
	if len(store.Subtables) > 0 {
		gdefBuilder.ItemVarStore = ivs
	}

	compiled := &Compiled{GDEF: gdefBuilder.Build()}
	if len(gsubFeatures.Entries) > 0 {
		compiled.GSUB = buildLayoutTable(gsubScripts, gsubFeatures, gsubLookups)
	}
	if len(gposFeatures.Entries) > 0 {
		compiled.GPOS = buildLayoutTable(gposScripts, gposFeatures, gposLookups)
	}
	return compiled
}

// buildLayoutTable assembles a GSUB/GPOS table's version header plus its
// three common-table offsets (§4.5 "2. ... ScriptList/FeatureList/
// LookupList").
func buildLayoutTable(scripts *ScriptListBuilder, features *FeatureListBuilder, lookups *LookupListBuilder) []byte {
	w := newBuf()
	w.u16(1) // majorVersion
	w.u16(0) // minorVersion (1.0, no FeatureVariations)
	scriptOffAt := w.placeholder(2)
	featureOffAt := w.placeholder(2)
	lookupOffAt := w.placeholder(2)

	w.patchU16(scriptOffAt, uint16(w.len()))
	w.bytes(scripts.Build())
	w.patchU16(featureOffAt, uint16(w.len()))
	w.bytes(features.Build())
	w.patchU16(lookupOffAt, uint16(w.len()))
	w.bytes(lookups.Build())
	return w.b
}

// buildGlyphIDs assigns glyph IDs from the font's glyph order (§4.5 "1.
// Resolve all glyph names to glyph IDs against the compiled font's final
// glyph order"): glyph 0 is reserved for .notdef per OpenType convention
// even though the source model carries no explicit .notdef entry, so
// every other glyph's ID is its source index plus one.
func buildGlyphIDs(font *source.Font) map[string]GlyphID {
	gids := make(map[string]GlyphID, len(font.Glyphs))
	names := make([]string, 0, len(font.Glyphs))
	for name := range font.GlyphOrder {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return font.GlyphOrder[names[i]] < font.GlyphOrder[names[j]] })
	for i, name := range names {
		gids[name] = GlyphID(i + 1)
	}
	return gids
}

func gdefClassFromName(name string) GDEFClass {
	switch name {
	case "Base":
		return GDEFClassBase
	case "Ligature":
		return GDEFClassLigature
	case "Mark":
		return GDEFClassMark
	case "Component":
		return GDEFClassComponent
	default:
		return 0
	}
}
