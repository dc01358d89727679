/*
Package layout implements the layout compiler (§4.5, component E): it
merges the feature-file AST (component C) with the synthesized
mark/kern lookups (component D) and emits GPOS, GSUB and GDEF table
bytes, following the OpenType Layout Common Table Formats verbatim.

Table/tag scaffolding (Tag, the tableBase/genericTable split) is adapted
from ot/ot.go's reader-side pattern, turned around to build bytes
instead of parsing them.
*/
package layout

import (
	"encoding/binary"

	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("vfc.layout")
}

// Tag is a 4-byte OpenType tag (table, script, language, feature or
// axis identifier), following ot.Tag's representation and string form.
type Tag uint32

// MakeTag builds a Tag from a (up to 4-byte) string, space-padding or
// truncating as ot.T does.
func MakeTag(s string) Tag {
	b := []byte((s + "    ")[:4])
	return Tag(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

func (t Tag) String() string {
	b := []byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
	return string(b)
}

var (
	TagDFLT = MakeTag("DFLT")
	TagGSUB = MakeTag("GSUB")
	TagGPOS = MakeTag("GPOS")
	TagGDEF = MakeTag("GDEF")
)

// GlyphID is a font-internal glyph identifier assigned by the compiler
// from the final glyph order (§4.5 "1. Resolve all glyph names...").
type GlyphID uint16

// buf is a small big-endian byte writer used by every table builder in
// this package; OpenType table bodies are entirely big-endian (§6
// "Byte layout follows the OpenType specification verbatim").
type buf struct {
	b []byte
}

func newBuf() *buf { return &buf{} }

func (w *buf) len() int { return len(w.b) }

func (w *buf) u8(v uint8) *buf {
	w.b = append(w.b, v)
	return w
}

func (w *buf) u16(v uint16) *buf {
	w.b = binary.BigEndian.AppendUint16(w.b, v)
	return w
}

func (w *buf) i16(v int16) *buf {
	return w.u16(uint16(v))
}

func (w *buf) u32(v uint32) *buf {
	w.b = binary.BigEndian.AppendUint32(w.b, v)
	return w
}

func (w *buf) bytes(b []byte) *buf {
	w.b = append(w.b, b...)
	return w
}

// placeholder reserves n bytes (zeroed) and returns their starting
// offset, to be patched later via patchU16/patchU32 once a forward
// offset is known — the standard two-pass pattern OpenType serializers
// use for offset tables.
func (w *buf) placeholder(n int) int {
	start := len(w.b)
	w.b = append(w.b, make([]byte, n)...)
	return start
}

func (w *buf) patchU16(at int, v uint16) {
	binary.BigEndian.PutUint16(w.b[at:at+2], v)
}

func (w *buf) patchU32(at int, v uint32) {
	binary.BigEndian.PutUint32(w.b[at:at+4], v)
}

// LookupFlag bits (OpenType LookupFlag, common table formats).
type LookupFlag uint16

const (
	LookupFlagRightToLeft        LookupFlag = 0x0001
	LookupFlagIgnoreBaseGlyphs   LookupFlag = 0x0002
	LookupFlagIgnoreLigatures    LookupFlag = 0x0004
	LookupFlagIgnoreMarks        LookupFlag = 0x0008
	LookupFlagUseMarkFilteringSet LookupFlag = 0x0010
	LookupFlagMarkAttachTypeMask LookupFlag = 0xFF00
)

// GPOS lookup types (OpenType GPOS table, LookupType enumeration).
const (
	GPOSSingle        uint16 = 1
	GPOSPair          uint16 = 2
	GPOSCursive       uint16 = 3
	GPOSMarkToBase    uint16 = 4
	GPOSMarkToLigature uint16 = 5
	GPOSMarkToMark    uint16 = 6
	GPOSContext       uint16 = 7
	GPOSChainContext  uint16 = 8
	GPOSExtension     uint16 = 9
)

// GSUB lookup types.
const (
	GSUBSingle       uint16 = 1
	GSUBMultiple     uint16 = 2
	GSUBAlternate    uint16 = 3
	GSUBLigature     uint16 = 4
	GSUBContext      uint16 = 5
	GSUBChainContext uint16 = 6
	GSUBExtension    uint16 = 7
	GSUBReverseChain uint16 = 8
)

// ValueFormat bits for a GPOS ValueRecord (§ "Value Records and Value
// Formats").
type ValueFormat uint16

const (
	VFXPlacement  ValueFormat = 0x0001
	VFYPlacement  ValueFormat = 0x0002
	VFXAdvance    ValueFormat = 0x0004
	VFYAdvance    ValueFormat = 0x0008
	VFXPlaDevice  ValueFormat = 0x0010
	VFYPlaDevice  ValueFormat = 0x0020
	VFXAdvDevice  ValueFormat = 0x0040
	VFYAdvDevice  ValueFormat = 0x0080
)

// ValueRecord is a value record's logical content: either field may be
// variable, carrying a delta-set index into the font's shared
// ItemVariationStore (§4.5 "item variation store for ... value
// records"); DeltaIndex == -1 means "no device/variation table".
type ValueRecord struct {
	XPlacement, YPlacement int16
	XAdvance, YAdvance     int16
	XAdvDeltaIndex         int
	YAdvDeltaIndex         int
	XPlaDeltaIndex         int
	YPlaDeltaIndex         int
}

// NewValueRecord returns a ValueRecord with every delta index defaulted
// to -1 ("no variation"), since the struct's zero value would otherwise
// be indistinguishable from "varies via interned delta-set 0".
func NewValueRecord() ValueRecord {
	return ValueRecord{XAdvDeltaIndex: -1, YAdvDeltaIndex: -1, XPlaDeltaIndex: -1, YPlaDeltaIndex: -1}
}

// format returns the ValueFormat this record needs: a field is included
// only when it (or its variation index) is nonzero/set, keeping the
// emitted bytes minimal the way a hand-written feature compiler would.
func (v ValueRecord) format() ValueFormat {
	var f ValueFormat
	if v.XPlacement != 0 || v.XPlaDeltaIndex >= 0 {
		f |= VFXPlacement
	}
	if v.YPlacement != 0 || v.YPlaDeltaIndex >= 0 {
		f |= VFYPlacement
	}
	if v.XAdvance != 0 || v.XAdvDeltaIndex >= 0 {
		f |= VFXAdvance
	}
	if v.YAdvance != 0 || v.YAdvDeltaIndex >= 0 {
		f |= VFYAdvance
	}
	if v.XPlaDeltaIndex >= 0 {
		f |= VFXPlaDevice
	}
	if v.YPlaDeltaIndex >= 0 {
		f |= VFYPlaDevice
	}
	if v.XAdvDeltaIndex >= 0 {
		f |= VFXAdvDevice
	}
	if v.YAdvDeltaIndex >= 0 {
		f |= VFYAdvDevice
	}
	return f
}

// appendValueRecord writes v's non-device fields per its format; device
// table offsets are written as zero placeholders and returned so the
// caller (which knows the shared variation store's final layout) can
// patch them once all lookups are serialized.
func appendValueRecord(w *buf, v ValueRecord) (devicePatchSites []int, deltaIndices []int) {
	f := v.format()
	if f&VFXPlacement != 0 {
		w.i16(v.XPlacement)
	}
	if f&VFYPlacement != 0 {
		w.i16(v.YPlacement)
	}
	if f&VFXAdvance != 0 {
		w.i16(v.XAdvance)
	}
	if f&VFYAdvance != 0 {
		w.i16(v.YAdvance)
	}
	if f&VFXPlaDevice != 0 {
		devicePatchSites = append(devicePatchSites, w.placeholder(2))
		deltaIndices = append(deltaIndices, v.XPlaDeltaIndex)
	}
	if f&VFYPlaDevice != 0 {
		devicePatchSites = append(devicePatchSites, w.placeholder(2))
		deltaIndices = append(deltaIndices, v.YPlaDeltaIndex)
	}
	if f&VFXAdvDevice != 0 {
		devicePatchSites = append(devicePatchSites, w.placeholder(2))
		deltaIndices = append(deltaIndices, v.XAdvDeltaIndex)
	}
	if f&VFYAdvDevice != 0 {
		devicePatchSites = append(devicePatchSites, w.placeholder(2))
		deltaIndices = append(deltaIndices, v.YAdvDeltaIndex)
	}
	return devicePatchSites, deltaIndices
}
