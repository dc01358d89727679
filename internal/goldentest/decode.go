package goldentest

import (
	"encoding/binary"
	"fmt"
)

// DecodeLayoutLookups reads the LookupList of a compiled GSUB or GPOS
// table (version header + ScriptList/FeatureList/LookupList offsets,
// per the OpenType "Common Table Formats" chapter, the layout this
// compiler's layout.buildLayoutTable emits) and returns a normalized
// view of each lookup's type and subtable count.
func DecodeLayoutLookups(table []byte) (ExpectedLayout, error) {
	if len(table) < 10 {
		return ExpectedLayout{}, fmt.Errorf("goldentest: layout table too short: %d bytes", len(table))
	}
	lookupListOffset := binary.BigEndian.Uint16(table[6:8])
	if int(lookupListOffset) >= len(table) {
		return ExpectedLayout{}, fmt.Errorf("goldentest: lookupListOffset %d out of range (table is %d bytes)", lookupListOffset, len(table))
	}
	lookupList := table[lookupListOffset:]
	if len(lookupList) < 2 {
		return ExpectedLayout{}, fmt.Errorf("goldentest: truncated LookupList")
	}
	count := binary.BigEndian.Uint16(lookupList[0:2])
	if len(lookupList) < 2+int(count)*2 {
		return ExpectedLayout{}, fmt.Errorf("goldentest: LookupList offset array truncated")
	}
	out := ExpectedLayout{Lookups: make([]ExpectedLookup, 0, count)}
	for i := 0; i < int(count); i++ {
		lkOff := binary.BigEndian.Uint16(lookupList[2+i*2 : 4+i*2])
		lk := lookupList[lkOff:]
		if len(lk) < 6 {
			return ExpectedLayout{}, fmt.Errorf("goldentest: truncated Lookup table at index %d", i)
		}
		lkType := binary.BigEndian.Uint16(lk[0:2])
		subtableCount := binary.BigEndian.Uint16(lk[4:6])
		out.Lookups = append(out.Lookups, ExpectedLookup{
			Type:          int(lkType),
			SubtableCount: int(subtableCount),
		})
	}
	return out, nil
}

// DecodeGDEF reads a compiled GDEF table's header and reports which of
// its optional subtables are present, following the offset layout
// layout.GDEFBuilder.Build emits (version 1.0's four offsets, plus the
// MarkGlyphSetsDef/ItemVarStore offsets version 1.2/1.3 append).
func DecodeGDEF(table []byte) (ExpectedGDEF, error) {
	if len(table) < 12 {
		return ExpectedGDEF{}, fmt.Errorf("goldentest: GDEF table too short: %d bytes", len(table))
	}
	minor := binary.BigEndian.Uint16(table[2:4])
	classDefOff := binary.BigEndian.Uint16(table[4:6])
	markAttachOff := binary.BigEndian.Uint16(table[10:12])

	var hasItemVarStore bool
	if minor == 3 && len(table) >= 16 {
		itemVarStoreOff := binary.BigEndian.Uint16(table[14:16])
		hasItemVarStore = itemVarStoreOff != 0
	}
	return ExpectedGDEF{
		HasGlyphClassDef:      classDefOff != 0,
		HasMarkAttachClassDef: markAttachOff != 0,
		HasItemVarStore:       hasItemVarStore,
	}, nil
}
