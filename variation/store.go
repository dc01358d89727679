package variation

import "sort"

// Store is the built item-variation-store model: a deduplicated region
// list plus one or more VariationData subtables grouping delta sets that
// share an identical region set (the OpenType ItemVariationStore shape,
// §6 "GDEF table... item variation store").
type Store struct {
	Axes    []string // axis order used to encode every Region
	Regions []Region
	Subtables []VariationData
	// EntryLocation maps an input entry's position in the []RegionDelta
	// slice passed to BuildStore (the Interner's flat index, since
	// Interner.Entries() preserves assignment order) to the
	// (outer, inner) ItemVariationStore coordinate it landed at — the
	// addressing pair a VariationIndex table (Offset16 device-table slot
	// in a GPOS ValueRecord or GDEF Anchor format 3) needs to reference
	// that delta set.
	EntryLocation []DeltaSetLocation
}

// DeltaSetLocation addresses one row within Store.Subtables: Subtables
// index (outer) and row index within that subtable (inner).
type DeltaSetLocation struct {
	Outer, Inner int
}

// VariationData groups delta rows that all reference the same ordered
// set of region indices (the "outer" index selects the subtable; the
// "inner" index selects the row within it).
type VariationData struct {
	RegionIndices []int
	// Rows holds one row per interned delta set assigned to this
	// subtable; Rows[i][j] is the delta for RegionIndices[j].
	Rows [][]int32
	// ShortFormat indicates all deltas in this subtable fit signed
	// 16-bit ("long" word format otherwise, per the OpenType IVS
	// short/long delta-format selection named in SPEC_FULL.md).
	ShortFormat bool
}

// BuildStore packs every interned delta set into an ItemVariationStore:
// deltas that touch an identical set of regions are grouped into one
// VariationData subtable to keep the encoding compact, mirroring how
// real variable-font compilers minimize the outer/inner index space.
func BuildStore(axes []string, entries [][]RegionDelta) Store {
	store := Store{Axes: axes}
	regionIndex := map[string]int{}
	regionOf := func(r Region) int {
		key := regionKey(r)
		if idx, ok := regionIndex[key]; ok {
			return idx
		}
		idx := len(store.Regions)
		regionIndex[key] = idx
		store.Regions = append(store.Regions, r)
		return idx
	}

	type group struct {
		regionSet []int
		rows      [][]int32
		entryIdx  []int // original entries-slice index of each row, parallel to rows
	}
	groups := map[string]*group{}
	var groupOrder []string

	for entryIdx, entry := range entries {
		indices := make([]int, len(entry))
		row := make([]int32, len(entry))
		for i, rd := range entry {
			indices[i] = regionOf(rd.Region)
			row[i] = rd.Delta
		}
		gkey := intsKey(indices)
		g, ok := groups[gkey]
		if !ok {
			g = &group{regionSet: indices}
			groups[gkey] = g
			groupOrder = append(groupOrder, gkey)
		}
		g.rows = append(g.rows, row)
		g.entryIdx = append(g.entryIdx, entryIdx)
	}

	sort.Strings(groupOrder)
	store.EntryLocation = make([]DeltaSetLocation, len(entries))
	for outer, gkey := range groupOrder {
		g := groups[gkey]
		short := true
		for _, row := range g.rows {
			for _, d := range row {
				if d > 32767 || d < -32768 {
					short = false
				}
			}
		}
		for inner, idx := range g.entryIdx {
			store.EntryLocation[idx] = DeltaSetLocation{Outer: outer, Inner: inner}
		}
		store.Subtables = append(store.Subtables, VariationData{
			RegionIndices: g.regionSet,
			Rows:          g.rows,
			ShortFormat:   short,
		})
	}
	return store
}

func intsKey(xs []int) string {
	s := ""
	for _, x := range xs {
		s += itoa(x) + ","
	}
	return s
}

func itoa(x int) string {
	if x == 0 {
		return "0"
	}
	neg := x < 0
	if neg {
		x = -x
	}
	var buf [20]byte
	i := len(buf)
	for x > 0 {
		i--
		buf[i] = byte('0' + x%10)
		x /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
