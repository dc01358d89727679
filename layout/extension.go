package layout

// maxOffset16 is the largest value an Offset16 field can hold; any
// subtable whose serialized LookupList distance from its Lookup table
// would exceed this must be wrapped in an Extension subtable (§4.5 step
// 5, "All offsets are validated against the 16-bit limit with automatic
// extension-subtable promotion").
const maxOffset16 = 0xFFFF

// needsExtension reports whether a subtable's offset from its Lookup
// table's subtable-offset array would overflow an Offset16, given the
// byte position that array entry will be patched at and the subtable's
// own serialized length.
func needsExtension(subtableOffsetFieldPos, subtableLen int) bool {
	return subtableOffsetFieldPos+subtableLen > maxOffset16
}

// wrapExtensionPos wraps a GPOS subtable's bytes in an ExtensionPosFormat1
// record (GPOS lookup type 9): a 2-byte format, the wrapped lookup's real
// type, and an Offset32 to the original subtable bytes appended
// immediately after the 8-byte header.
func wrapExtensionPos(realType uint16, subtable []byte) []byte {
	w := newBuf()
	w.u16(1) // ExtensionPosFormat1
	w.u16(realType)
	w.u32(8) // extensionOffset: fixed header length, subtable follows immediately
	w.bytes(subtable)
	return w.b
}

// wrapExtensionSub wraps a GSUB subtable in an ExtensionSubstFormat1
// record (GSUB lookup type 7); wire-identical to wrapExtensionPos.
func wrapExtensionSub(realType uint16, subtable []byte) []byte {
	w := newBuf()
	w.u16(1) // ExtensionSubstFormat1
	w.u16(realType)
	w.u32(8)
	w.bytes(subtable)
	return w.b
}

// promoteIfOversize builds a Lookup table's SubTable offset array,
// promoting any subtable whose own Offset16 slot would overflow to an
// Extension wrapper, and switching the whole lookup's declared type to
// the Extension type once any subtable is promoted (OpenType requires
// every subtable in an extension lookup to share the wrapper type).
func promoteIfOversize(lookupType uint16, subtables [][]byte, extensionType uint16, wrap func(realType uint16, subtable []byte) []byte) (effectiveType uint16, out [][]byte) {
	// buildLookupTable (scriptlist.go) places the SubTable offset array
	// right after a fixed 6-byte header (type, flag, subtableCount) plus
	// an optional 2-byte markFilteringSet; conservatively assume the
	// worst case (8 bytes) plus the array itself when estimating each
	// entry's field position, since the exact base is only known once
	// sibling subtable sizes are finalized.
	headerLen := 8 + len(subtables)*2
	promote := false
	pos := headerLen
	for _, st := range subtables {
		if needsExtension(pos, len(st)) {
			promote = true
			break
		}
		pos += len(st)
	}
	if !promote {
		return lookupType, subtables
	}
	wrapped := make([][]byte, len(subtables))
	for i, st := range subtables {
		wrapped[i] = wrap(lookupType, st)
	}
	return extensionType, wrapped
}
