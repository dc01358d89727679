package sfntwriter

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeTagRoundTrips(t *testing.T) {
	require.Equal(t, "head", MakeTag("head").String())
	require.Equal(t, "GDEF", MakeTag("GDEF").String())
}

func TestAssembleOrdersTablesByTagAndPads(t *testing.T) {
	tables := map[Tag][]byte{
		MakeTag("GSUB"): {1, 2, 3}, // 3 bytes, needs 1 byte of padding
		MakeTag("GDEF"): {9, 9, 9, 9},
	}
	out, err := Assemble(tables)
	require.NoError(t, err)

	numTables := int(binary.BigEndian.Uint16(out[4:6]))
	require.Equal(t, 2, numTables)

	firstTag := Tag(binary.BigEndian.Uint32(out[12:16]))
	secondTag := Tag(binary.BigEndian.Uint32(out[28:32]))
	require.Equal(t, MakeTag("GDEF"), firstTag) // "GDEF" < "GSUB" lexically
	require.Equal(t, MakeTag("GSUB"), secondTag)

	gsubLen := binary.BigEndian.Uint32(out[28+12 : 28+16])
	require.Equal(t, uint32(3), gsubLen)
}

func TestAssemblePatchesHeadChecksumAdjustment(t *testing.T) {
	head := make([]byte, 54) // minimal head table length
	tables := map[Tag][]byte{
		MakeTag("head"): head,
		MakeTag("GDEF"): {1, 2, 3, 4},
	}
	out, err := Assemble(tables)
	require.NoError(t, err)

	headOffsetRecord := 12 + 16 // "GDEF" (0x47...) sorts before "head" (0x68...)
	headOffset := binary.BigEndian.Uint32(out[headOffsetRecord+8 : headOffsetRecord+12])
	adjustment := binary.BigEndian.Uint32(out[headOffset+8 : headOffset+12])

	binary.BigEndian.PutUint32(out[headOffset+8:headOffset+12], 0)
	require.Equal(t, uint32(0xB1B0AFBA)-tableChecksum(padTo4(out)), adjustment)
}

func TestTableChecksumSumsBigEndianWords(t *testing.T) {
	require.Equal(t, uint32(0x00010203), tableChecksum([]byte{0, 1, 2, 3}))
	require.Equal(t, uint32(0x00010203+0x04050607), tableChecksum([]byte{0, 1, 2, 3, 4, 5, 6, 7}))
}

func TestBinarySearchParamsMatchSpecExamples(t *testing.T) {
	sr, es, rs := binarySearchParams(9)
	require.Equal(t, 128, sr) // largest power of two <= 9 is 8, 8*16=128
	require.Equal(t, 3, es)
	require.Equal(t, 9*16-128, rs)
}
