package synth

import (
	"sort"

	"github.com/glyphware/vfc/diag"
	"github.com/glyphware/vfc/source"
	"github.com/glyphware/vfc/variation"
)

// GroupMember pairs a glyph with its resolved anchor in a mark group.
type GroupMember struct {
	Glyph  string
	Anchor *ResolvedAnchor
}

// MarkAttachLookup is one synthesized mark-to-base or mark-to-mark
// lookup: a single named group (e.g. "top") with its base/mark1 glyphs
// on one side and mark/mark2 glyphs on the other (§4.4 "Mark attachment
// synthesis").
type MarkAttachLookup struct {
	Group               string
	Bases               []GroupMember // base glyphs (or mark1 glyphs, for mark-to-mark)
	Marks               []GroupMember // mark glyphs (or mark2 glyphs, for mark-to-mark)
	IsMarkToMark        bool
	UseMarkFilteringSet bool
}

// gdefClassFor resolves a glyph's effective GDEF class, honoring
// PreferFeatureGDEFClasses precedence (§4.4): an explicit GDEFCategories
// table wins unless the source opted feature-AST classes ahead of it, in
// which case featureClasses (derived from markClass/substitution
// statements already parsed by component C) takes precedence.
func gdefClassFor(font *source.Font, featureClasses map[string]string, glyph string) (string, bool) {
	if font.PreferFeatureGDEFClasses {
		if c, ok := featureClasses[glyph]; ok {
			return c, true
		}
	}
	if c, ok := font.GDEFCategories[glyph]; ok {
		return c, true
	}
	if c, ok := featureClasses[glyph]; ok {
		return c, true
	}
	return "", false
}

// BuildMarkLookups synthesizes every mark-to-base and mark-to-mark
// lookup the font's anchors imply. featureClasses is the (possibly nil)
// glyph->GDEF-class map derived from the feature AST by the layout
// compiler; pass nil when the source carries no feature-AST GDEF
// overrides.
//
// Grounded on original_source/fontbe/src/features/marks.rs's
// MarkLookupBuilder: glyphs are first pruned to those whose group name
// has both a base-side and a mark-side anchor (groups with only one side
// produce nothing — §4.4 "Pruning"), then re-partitioned a second time
// to split out mark-to-mark groups from mark-to-base groups, following
// the same "does a mark glyph also carry a base anchor in that group"
// test the original performs.
func BuildMarkLookups(font *source.Font, featureClasses map[string]string, interner *variation.Interner, collector *diag.Collector) []MarkAttachLookup {
	type anchorRef struct {
		glyph string
		a     source.Anchor
	}
	var baseRefs, markRefs []anchorRef
	baseGroups := map[string]bool{}
	markGroups := map[string]bool{}

	for _, g := range font.Glyphs {
		if !g.Export {
			continue
		}
		seen := map[string]bool{}
		for _, layer := range g.Layers {
			for _, a := range layer.Anchors {
				key := anchorKindKey(a)
				if seen[key] {
					continue
				}
				seen[key] = true
				switch a.Kind {
				case source.AnchorBase:
					baseGroups[a.Name] = true
					baseRefs = append(baseRefs, anchorRef{g.Name, a})
				case source.AnchorMark:
					markGroups[a.Name] = true
					markRefs = append(markRefs, anchorRef{g.Name, a})
				}
			}
		}
	}

	used := map[string]bool{}
	for name := range baseGroups {
		if markGroups[name] {
			used[name] = true
		}
	}

	isMarkGlyph := map[string]bool{}
	for _, ref := range markRefs {
		if used[ref.a.Name] {
			isMarkGlyph[ref.glyph] = true
		}
	}

	// mark-to-base groups: a glyph is treated as a base unless it is
	// itself a mark glyph or GDEF explicitly classifies it otherwise.
	base2base := map[string]*MarkAttachLookup{}
	for _, ref := range baseRefs {
		if !used[ref.a.Name] || isMarkGlyph[ref.glyph] {
			continue
		}
		if cls, ok := gdefClassFor(font, featureClasses, ref.glyph); ok && cls != "Base" && cls != "" {
			continue
		}
		resolved, ok := resolveAnchor(font, ref.glyph, ref.a.Kind, ref.a.Name, 0, interner, collector)
		if !ok {
			continue
		}
		grp := base2base[ref.a.Name]
		if grp == nil {
			grp = &MarkAttachLookup{Group: ref.a.Name}
			base2base[ref.a.Name] = grp
		}
		grp.Bases = append(grp.Bases, GroupMember{Glyph: ref.glyph, Anchor: resolved})
	}

	// mark-to-mark groups: a base anchor on a glyph that is ITSELF a
	// mark, in a group that also has a mark anchor somewhere, promotes
	// that group to mark-to-mark and turns on the mark filtering set
	// (§4.4 "Mark-to-mark promotion").
	mark2mark := map[string]*MarkAttachLookup{}
	for _, ref := range baseRefs {
		if !used[ref.a.Name] || !isMarkGlyph[ref.glyph] {
			continue
		}
		resolved, ok := resolveAnchor(font, ref.glyph, ref.a.Kind, ref.a.Name, 0, interner, collector)
		if !ok {
			continue
		}
		grp := mark2mark[ref.a.Name]
		if grp == nil {
			grp = &MarkAttachLookup{Group: ref.a.Name, IsMarkToMark: true, UseMarkFilteringSet: true}
			mark2mark[ref.a.Name] = grp
		}
		grp.Bases = append(grp.Bases, GroupMember{Glyph: ref.glyph, Anchor: resolved})
	}

	for _, ref := range markRefs {
		if !used[ref.a.Name] {
			continue
		}
		resolved, ok := resolveAnchor(font, ref.glyph, ref.a.Kind, ref.a.Name, 0, interner, collector)
		if !ok {
			continue
		}
		if grp, ok := base2base[ref.a.Name]; ok {
			grp.Marks = append(grp.Marks, GroupMember{Glyph: ref.glyph, Anchor: resolved})
		}
		if grp, ok := mark2mark[ref.a.Name]; ok {
			grp.Marks = append(grp.Marks, GroupMember{Glyph: ref.glyph, Anchor: resolved})
		}
	}

	var out []MarkAttachLookup
	for _, grp := range base2base {
		if len(grp.Bases) == 0 || len(grp.Marks) == 0 {
			continue
		}
		out = append(out, *grp)
	}
	for _, grp := range mark2mark {
		if len(grp.Bases) == 0 || len(grp.Marks) == 0 {
			continue
		}
		out = append(out, *grp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsMarkToMark != out[j].IsMarkToMark {
			return !out[i].IsMarkToMark
		}
		return out[i].Group < out[j].Group
	})
	return out
}

func anchorKindKey(a source.Anchor) string {
	switch a.Kind {
	case source.AnchorBase:
		return "base:" + a.Name
	case source.AnchorMark:
		return "mark:" + a.Name
	case source.AnchorLigature:
		return "liga:" + a.Name
	default:
		return "origin"
	}
}
