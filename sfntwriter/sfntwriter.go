/*
Package sfntwriter assembles a table directory and whole-font byte
stream from a set of already-serialized SFNT tables (§4.5's output-side
mirror of the teacher's read-only ot.Parse): table-directory construction,
per-table and whole-font checksums, 4-byte padding, and sorted tag
ordering, following the OpenType/TrueType "sfnt" container format.
*/
package sfntwriter

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
)

func tracer() tracing.Trace {
	return tracing.Select("vfc.sfntwriter")
}

// Tag is a 4-byte SFNT table tag.
type Tag uint32

// MakeTag builds a Tag from a (up to 4-byte) string, space-padding or
// truncating to exactly 4 bytes.
func MakeTag(s string) Tag {
	b := []byte((s + "    ")[:4])
	return Tag(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

func (t Tag) String() string {
	b := []byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
	return string(b)
}

// sfntVersionTrueType and sfntVersionOpenType are the two legal
// sfnt-header version tags; this compiler always emits CFF-less,
// TrueType-outline-free fonts (glyph outlines are out of scope, per
// SPEC_FULL.md's Layer.Shapes non-goal), so it always uses the
// TrueType-style 0x00010000 version — the common choice for
// variable-font compilers that ship a minimal glyf/loca stub alongside
// layout tables.
const sfntVersionTrueType uint32 = 0x00010000

// Assemble builds the complete sfnt byte stream for the given table set,
// computing each table's checksum, padding tables to a 4-byte boundary,
// ordering TableRecords by tag as OpenType requires, and patching the
// head table's checkSumAdjustment field once the whole-font checksum is
// known (§4.5 "emits a compiled OpenType font").
//
// tables must already contain any non-layout tables the caller needs
// (head, hhea, maxp, hmtx, cmap, post, name, ...); Assemble only
// arranges bytes, it never invents table content.
func Assemble(tables map[Tag][]byte) ([]byte, error) {
	tags := make([]Tag, 0, len(tables))
	for t := range tables {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	numTables := len(tags)
	searchRange, entrySelector, rangeShift := binarySearchParams(numTables)

	header := make([]byte, 12+16*numTables)
	binary.BigEndian.PutUint32(header[0:4], sfntVersionTrueType)
	binary.BigEndian.PutUint16(header[4:6], uint16(numTables))
	binary.BigEndian.PutUint16(header[6:8], uint16(searchRange))
	binary.BigEndian.PutUint16(header[8:10], uint16(entrySelector))
	binary.BigEndian.PutUint16(header[10:12], uint16(rangeShift))

	offset := uint32(len(header))
	headOffset := -1
	var body []byte
	for i, tag := range tags {
		table := tables[tag]
		padded := padTo4(table)
		checksum := tableChecksum(padded)

		rec := header[12+16*i : 12+16*i+16]
		binary.BigEndian.PutUint32(rec[0:4], uint32(tag))
		binary.BigEndian.PutUint32(rec[4:8], checksum)
		binary.BigEndian.PutUint32(rec[8:12], offset)
		binary.BigEndian.PutUint32(rec[12:16], uint32(len(table)))

		if tag == MakeTag("head") {
			if len(table) < 12 {
				return nil, fmt.Errorf("sfntwriter: head table too short (%d bytes)", len(table))
			}
			headOffset = len(header) + len(body) + 8 // checkSumAdjustment is at byte offset 8 within head
		}
		body = append(body, padded...)
		offset += uint32(len(padded))
	}

	out := append(append([]byte(nil), header...), body...)
	if headOffset >= 0 {
		binary.BigEndian.PutUint32(out[headOffset:headOffset+4], 0)
		adjustment := 0xB1B0AFBA - tableChecksum(padTo4(out))
		binary.BigEndian.PutUint32(out[headOffset:headOffset+4], adjustment)
	}
	return out, nil
}

// SelfCheck round-trips font bytes through golang.org/x/image/font/sfnt
// to validate the table directory and offsets this package just wrote
// (§4.5 "self-checks its own output"), mirroring how
// internal/fontload.ParseOpenTypeFont validates a font read from disk.
func SelfCheck(fontBytes []byte) (*sfnt.Font, error) {
	f, err := sfnt.Parse(fontBytes)
	if err != nil {
		tracer().Errorf("sfntwriter self-check failed: %v", err)
		return nil, err
	}
	return f, nil
}

func padTo4(b []byte) []byte {
	n := len(b) % 4
	if n == 0 {
		return b
	}
	return append(append([]byte(nil), b...), make([]byte, 4-n)...)
}

// tableChecksum is the OpenType table checksum algorithm: sum of the
// table's bytes interpreted as big-endian uint32 words (the table must
// already be padded to a 4-byte boundary), with 32-bit wraparound.
func tableChecksum(padded []byte) uint32 {
	var sum uint32
	for i := 0; i+4 <= len(padded); i += 4 {
		sum += binary.BigEndian.Uint32(padded[i : i+4])
	}
	return sum
}

// binarySearchParams computes the sfnt header's searchRange/
// entrySelector/rangeShift fields from the table count, per the OpenType
// spec's binary-search-friendly table directory layout.
func binarySearchParams(numTables int) (searchRange, entrySelector, rangeShift int) {
	entries := 1
	maxPow2 := 0
	for entries*2 <= numTables {
		entries *= 2
		maxPow2++
	}
	searchRange = entries * 16
	entrySelector = maxPow2
	rangeShift = numTables*16 - searchRange
	return
}
