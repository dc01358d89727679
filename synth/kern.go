package synth

import (
	"sort"

	"github.com/glyphware/vfc/source"
	"github.com/glyphware/vfc/variation"
)

// ResolvedKernPair is one kerning rule, with its value already resolved
// across masters via the variation solver. DeltaIndex is -1 when the
// pair has no variation (a single master, or all masters agreeing).
type ResolvedKernPair struct {
	Left, Right source.KernParticipant
	Value       float64
	DeltaIndex  int
}

// KernPlan is the materialized set of kerning rules ready for the layout
// compiler to turn into pair-adjustment and class-pair-adjustment
// lookups (§4.4 "Kerning synthesis").
type KernPlan struct {
	Pairs []ResolvedKernPair
}

// BuildKernPlan resolves every kerning pair declared on the font across
// the design space and interns shared delta vectors, following
// original_source/fontbe/src/kern.rs: each participant pair's value is
// solved independently of the others (kerning deltas are not grouped by
// shared regions the way mark anchors are, since kern.rs interns purely
// to avoid re-emitting identical delta vectors, not to group lookups).
func BuildKernPlan(font *source.Font, interner *variation.Interner) (*KernPlan, []error) {
	var errs []error
	plan := &KernPlan{}

	low, high := source.AxisExtrema(font.Axes)
	locByMaster := make(map[string]source.NormalizedLocation, len(font.Masters))
	for _, m := range font.Masters {
		locByMaster[m.ID] = source.Normalize(font.Axes, low, high, m.Location)
	}
	defMaster := font.Default()
	if defMaster == nil {
		return plan, []error{errNoDefaultMaster{}}
	}

	for _, pair := range font.Kerning {
		var samples []variation.Sample
		for masterID, value := range pair.ByMaster {
			loc, ok := locByMaster[masterID]
			if !ok {
				continue
			}
			samples = append(samples, variation.Sample{MasterID: masterID, Location: loc, Value: value})
		}
		if len(samples) == 0 {
			continue
		}
		metric := kernMetricKey(pair.Left, pair.Right)
		defValue, deltas, err := variation.Solve(metric, defMaster.ID, samples, variation.UnitFUnits)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		idx := -1
		if interner != nil {
			idx, _ = interner.Intern(deltas)
		}
		plan.Pairs = append(plan.Pairs, ResolvedKernPair{
			Left:       pair.Left,
			Right:      pair.Right,
			Value:      defValue,
			DeltaIndex: idx,
		})
	}

	sort.Slice(plan.Pairs, func(i, j int) bool {
		pi, pj := plan.Pairs[i], plan.Pairs[j]
		if pi.Left.Name != pj.Left.Name {
			return pi.Left.Name < pj.Left.Name
		}
		return pi.Right.Name < pj.Right.Name
	})
	return plan, errs
}

func kernMetricKey(l, r source.KernParticipant) string {
	tag := func(p source.KernParticipant) string {
		if p.IsGroup {
			return "@" + p.Name
		}
		return p.Name
	}
	return "kern:" + tag(l) + "/" + tag(r)
}

// ExpandMixedPairs turns any Glyph/Group or Group/Glyph pair in plan into
// one ResolvedKernPair per member of the group side, leaving Glyph/Glyph
// and Group/Group pairs untouched. This mirrors kern.rs's handling of
// mixed participant kinds, which the OpenType pair-positioning format has
// no direct class-pair encoding for (a class-pair rule requires both
// sides to be classes), so fontbe enumerates the group side's members
// into individual glyph pairs instead.
func ExpandMixedPairs(plan *KernPlan, groups source.KerningGroups) []ResolvedKernPair {
	var out []ResolvedKernPair
	for _, p := range plan.Pairs {
		switch {
		case p.Left.IsGroup && !p.Right.IsGroup:
			for _, g := range groups[p.Left.Name] {
				out = append(out, ResolvedKernPair{
					Left:       source.KernParticipant{Name: g},
					Right:      p.Right,
					Value:      p.Value,
					DeltaIndex: p.DeltaIndex,
				})
			}
		case !p.Left.IsGroup && p.Right.IsGroup:
			for _, g := range groups[p.Right.Name] {
				out = append(out, ResolvedKernPair{
					Left:       p.Left,
					Right:      source.KernParticipant{Name: g},
					Value:      p.Value,
					DeltaIndex: p.DeltaIndex,
				})
			}
		default:
			out = append(out, p)
		}
	}
	return out
}

type errNoDefaultMaster struct{}

func (errNoDefaultMaster) Error() string { return "kern: font has no default master" }
