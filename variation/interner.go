package variation

import (
	"fmt"
	"sort"
	"sync"
)

// deltaSetKey is a canonical, comparable representation of an ordered
// sequence of (region, delta) pairs, used to key the interner map
// (§4.2 "Interning").
type deltaSetKey string

func keyFor(deltas []RegionDelta) deltaSetKey {
	s := ""
	for _, d := range deltas {
		s += fmt.Sprintf("%s|%d;", regionKey(d.Region), d.Delta)
	}
	return deltaSetKey(s)
}

func regionKey(r Region) string {
	axes := make([]string, 0, len(r))
	for a := range r {
		axes = append(axes, a)
	}
	sort.Strings(axes)
	s := ""
	for _, a := range axes {
		t := r[a]
		s += fmt.Sprintf("%s(%.6f,%.6f,%.6f)", a, t.Start, t.Peak, t.End)
	}
	return s
}

// Interner deduplicates identical delta-set vectors across metrics,
// guarded so concurrent callers adding identical deltas observe the same
// index (§4.2 "Interning", §5 "variation-delta interner").
type Interner struct {
	mu      sync.Mutex
	byKey   map[deltaSetKey]int
	entries [][]RegionDelta
}

// NewInterner creates an empty Interner.
func NewInterner() *Interner {
	return &Interner{byKey: map[deltaSetKey]int{}}
}

// Intern returns the index of deltas within the interner's table,
// registering a new entry if this exact ordered sequence has not been
// seen before. An empty slice is never interned and returns (-1, false).
func (in *Interner) Intern(deltas []RegionDelta) (index int, isNew bool) {
	if len(deltas) == 0 {
		return -1, false
	}
	key := keyFor(deltas)
	in.mu.Lock()
	defer in.mu.Unlock()
	if idx, ok := in.byKey[key]; ok {
		return idx, false
	}
	idx := len(in.entries)
	cp := make([]RegionDelta, len(deltas))
	copy(cp, deltas)
	in.entries = append(in.entries, cp)
	in.byKey[key] = idx
	return idx, true
}

// Entries returns a snapshot of every interned delta set, in assignment
// order (index == position in this slice).
func (in *Interner) Entries() [][]RegionDelta {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([][]RegionDelta, len(in.entries))
	for i, e := range in.entries {
		cp := make([]RegionDelta, len(e))
		copy(cp, e)
		out[i] = cp
	}
	return out
}

// Len reports the number of distinct delta sets interned so far.
func (in *Interner) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.entries)
}
