package layout

import "sort"

// LangSysBuilder accumulates a LangSys record's feature-index list
// (§4.5 "3. Assign lookup indices in source order...").
type LangSysBuilder struct {
	RequiredFeature int // index into FeatureListBuilder's entries, -1 if none
	FeatureIndices  []int
}

// ScriptBuilder holds one script's DefaultLangSys plus any explicit
// non-default language systems, keyed by language tag.
type ScriptBuilder struct {
	Default  *LangSysBuilder
	LangSyss map[Tag]*LangSysBuilder
}

// ScriptListBuilder assembles the ScriptList common table (§4.5
// "Language systems"): scripts/languages bind to feature-index lists,
// built up by the compiler from `languagesystem` statements (or the
// DFLT/dflt-only fallback when none are present).
type ScriptListBuilder struct {
	scripts map[Tag]*ScriptBuilder
}

func NewScriptListBuilder() *ScriptListBuilder {
	return &ScriptListBuilder{scripts: map[Tag]*ScriptBuilder{}}
}

func (b *ScriptListBuilder) script(tag Tag) *ScriptBuilder {
	s, ok := b.scripts[tag]
	if !ok {
		s = &ScriptBuilder{LangSyss: map[Tag]*LangSysBuilder{}}
		b.scripts[tag] = s
	}
	return s
}

// BindDefault registers featureIdx under script/DefaultLangSys, creating
// both if absent.
func (b *ScriptListBuilder) BindDefault(script Tag, featureIdx int) {
	s := b.script(script)
	if s.Default == nil {
		s.Default = &LangSysBuilder{RequiredFeature: -1}
	}
	s.Default.FeatureIndices = append(s.Default.FeatureIndices, featureIdx)
}

// Bind registers featureIdx under script/lang, creating both if absent.
func (b *ScriptListBuilder) Bind(script, lang Tag, featureIdx int) {
	s := b.script(script)
	ls, ok := s.LangSyss[lang]
	if !ok {
		ls = &LangSysBuilder{RequiredFeature: -1}
		s.LangSyss[lang] = ls
	}
	ls.FeatureIndices = append(ls.FeatureIndices, featureIdx)
}

func (b *ScriptListBuilder) sortedScriptTags() []Tag {
	tags := make([]Tag, 0, len(b.scripts))
	for t := range b.scripts {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Build serializes the ScriptList table (§8 invariant 3: deterministic
// byte output requires iterating scripts/languages in sorted tag order,
// never map order).
func (b *ScriptListBuilder) Build() []byte {
	w := newBuf()
	tags := b.sortedScriptTags()
	w.u16(uint16(len(tags)))
	recordsAt := w.placeholder(len(tags) * 6) // ScriptRecord: Tag(4) + Offset16(2)

	// ScriptRecord offsets are from the beginning of the ScriptList table,
	// i.e. from offset 0 of this buffer.
	scriptOffsets := make([]int, len(tags))
	for i, tag := range tags {
		scriptOffsets[i] = w.len()
		buildScriptTable(w, b.scripts[tag])
	}
	for i, tag := range tags {
		at := recordsAt + i*6
		w.patchU32At(at, uint32(tag))
		w.patchU16(at+4, uint16(scriptOffsets[i]))
	}
	return w.b
}

// patchU32At writes a big-endian tag value at a byte offset that was
// not reserved via placeholder (ScriptRecord packs Tag+Offset16 in one
// fixed-size record, so both fields share one patch pass).
func (w *buf) patchU32At(at int, v uint32) {
	w.b[at] = byte(v >> 24)
	w.b[at+1] = byte(v >> 16)
	w.b[at+2] = byte(v >> 8)
	w.b[at+3] = byte(v)
}

func buildScriptTable(w *buf, s *ScriptBuilder) {
	startLangSysCount := 0
	if s.LangSyss != nil {
		startLangSysCount = len(s.LangSyss)
	}
	defaultOffAt := w.placeholder(2)
	w.u16(uint16(startLangSysCount))
	recordsAt := w.placeholder(startLangSysCount * 6)
	tableStart := w.len() - 2 - 2 - startLangSysCount*6 // offset base: start of ScriptTable

	langTags := make([]Tag, 0, startLangSysCount)
	for t := range s.LangSyss {
		langTags = append(langTags, t)
	}
	sort.Slice(langTags, func(i, j int) bool { return langTags[i] < langTags[j] })

	if s.Default != nil {
		off := w.len() - tableStart
		w.patchU16(defaultOffAt, uint16(off))
		buildLangSysTable(w, s.Default)
	}
	for i, tag := range langTags {
		off := w.len() - tableStart
		at := recordsAt + i*6
		w.patchU32At(at, uint32(tag))
		w.patchU16(at+4, uint16(off))
		buildLangSysTable(w, s.LangSyss[tag])
	}
}

func buildLangSysTable(w *buf, ls *LangSysBuilder) {
	w.u16(0) // LookupOrder, reserved NULL
	if ls.RequiredFeature < 0 {
		w.u16(0xFFFF)
	} else {
		w.u16(uint16(ls.RequiredFeature))
	}
	w.u16(uint16(len(ls.FeatureIndices)))
	for _, idx := range ls.FeatureIndices {
		w.u16(uint16(idx))
	}
}

// FeatureEntry is one FeatureList slot: a tag plus the lookup indices
// it references, in the order they were assigned (§4.5 "3. Assign
// lookup indices in source order, then append provider-contributed
// lookups").
type FeatureEntry struct {
	Tag            Tag
	LookupIndices  []int
}

// FeatureListBuilder accumulates feature entries in assignment order;
// OpenType's FeatureList is NOT required to be tag-sorted (unlike
// ScriptList), so insertion order is preserved verbatim to keep
// LangSys feature-index references (by position) valid.
type FeatureListBuilder struct {
	Entries []FeatureEntry
}

func NewFeatureListBuilder() *FeatureListBuilder {
	return &FeatureListBuilder{}
}

// Add appends a feature entry and returns its index for use in
// ScriptListBuilder.Bind/BindDefault.
func (b *FeatureListBuilder) Add(tag Tag, lookupIndices []int) int {
	b.Entries = append(b.Entries, FeatureEntry{Tag: tag, LookupIndices: lookupIndices})
	return len(b.Entries) - 1
}

func (b *FeatureListBuilder) Build() []byte {
	w := newBuf()
	w.u16(uint16(len(b.Entries)))
	recordsAt := w.placeholder(len(b.Entries) * 6)

	// FeatureRecord offsets are from the beginning of the FeatureList
	// table, i.e. from offset 0 of this buffer.
	featureTableOffsets := make([]int, len(b.Entries))
	for i, e := range b.Entries {
		featureTableOffsets[i] = w.len()
		w.u16(0) // FeatureParams, NULL (no feature-specific params emitted)
		w.u16(uint16(len(e.LookupIndices)))
		for _, li := range e.LookupIndices {
			w.u16(uint16(li))
		}
	}
	for i, e := range b.Entries {
		at := recordsAt + i*6
		w.patchU32At(at, uint32(e.Tag))
		w.patchU16(at+4, uint16(featureTableOffsets[i]))
	}
	return w.b
}

// LookupListBuilder assembles the LookupList common table. Lookups are
// added in final assignment order (user-AST lookups first, then
// provider-contributed synthesized lookups, per §4.5 step 3); each
// entry is pre-serialized lookup-subtable bytes plus its type and flag,
// so this builder only has to wrap them in the outer Lookup record and
// the LookupList offset array.
type LookupListBuilder struct {
	Lookups []LookupEntry
}

// LookupEntry is one fully-built lookup: type, flag, and one or more
// already-serialized subtables (each an independent offset target).
// ExtensionType, when nonzero, is the Extension lookup type (GPOSExtension
// or GSUBExtension) Add promotes this lookup to if any subtable's offset
// would overflow an Offset16 (§4.5 step 5); zero skips the check, for
// callers (GDEF, or lookups known to always be small) with nothing to
// promote to.
type LookupEntry struct {
	Type          uint16
	Flag          LookupFlag
	MarkFilterSet uint16 // only meaningful when Flag&LookupFlagUseMarkFilteringSet != 0
	Subtables     [][]byte
	ExtensionType uint16
}

func NewLookupListBuilder() *LookupListBuilder { return &LookupListBuilder{} }

// Add appends a lookup, promoting it to an Extension lookup first if
// ExtensionType is set and any subtable needs it, and returns its index
// for use as a FeatureEntry.LookupIndices member.
func (b *LookupListBuilder) Add(e LookupEntry) int {
	if e.ExtensionType != 0 {
		wrap := wrapExtensionPos
		if e.ExtensionType == GSUBExtension {
			wrap = wrapExtensionSub
		}
		e.Type, e.Subtables = promoteIfOversize(e.Type, e.Subtables, e.ExtensionType, wrap)
	}
	b.Lookups = append(b.Lookups, e)
	return len(b.Lookups) - 1
}

func (b *LookupListBuilder) Build() []byte {
	w := newBuf()
	w.u16(uint16(len(b.Lookups)))
	recordsAt := w.placeholder(len(b.Lookups) * 2)

	// Lookup offsets are from the beginning of the LookupList table, i.e.
	// from offset 0 of this buffer.
	lookupOffsets := make([]int, len(b.Lookups))
	for i, lk := range b.Lookups {
		lookupOffsets[i] = w.len()
		buildLookupTable(w, lk)
	}
	for i := range b.Lookups {
		w.patchU16(recordsAt+i*2, uint16(lookupOffsets[i]))
	}
	return w.b
}

func buildLookupTable(w *buf, lk LookupEntry) {
	w.u16(lk.Type)
	w.u16(uint16(lk.Flag))
	w.u16(uint16(len(lk.Subtables)))
	recordsAt := w.placeholder(len(lk.Subtables) * 2)
	tableStart := recordsAt - 6 // start of this Lookup table (Type+Flag+Count fields precede it)
	if lk.Flag&LookupFlagUseMarkFilteringSet != 0 {
		w.u16(lk.MarkFilterSet)
	}

	offs := make([]int, len(lk.Subtables))
	for i, st := range lk.Subtables {
		offs[i] = w.len() - tableStart
		w.bytes(st)
	}
	for i := range lk.Subtables {
		w.patchU16(recordsAt+i*2, uint16(offs[i]))
	}
}
