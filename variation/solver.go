/*
Package variation implements the design-space solver (§4.2, component B):
turning per-master scalar samples into a default value plus a set of
variation deltas, and compressing those deltas across many metrics via
interning and an item-variation-store builder.
*/
package variation

import (
	"fmt"
	"math"

	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("vfc.variation")
}

// Region is a variation region: one (start, peak, end) tent per axis,
// keyed by axis tag (§4.2, GLOSSARY "Variation region").
type Region map[string]Tent

// Tent is the per-axis (start, peak, end) triple of a Region.
type Tent struct {
	Start, Peak, End float64
}

// RegionDelta pairs a Region with the quantized integer delta it
// contributes.
type RegionDelta struct {
	Region Region
	Delta  int32
}

// Sample is one master's value at a given normalized location for the
// metric being solved.
type Sample struct {
	MasterID string
	Location map[string]float64 // normalized axis coordinates, [-1, +1]
	Value    float64
}

// SingularSystemError reports §4.2 "Failure" for one metric: two masters
// at the same location, or no sample from the default master.
type SingularSystemError struct {
	Metric string
	Detail string
}

func (e *SingularSystemError) Error() string {
	return fmt.Sprintf("variation solve failed for metric %q: %s", e.Metric, e.Detail)
}

// Unit selects the native quantization unit for a delta (§4.2
// "Deltas are quantized...").
type Unit int

const (
	UnitFUnits      Unit = iota // position metrics: integer FUnits
	UnitF2Dot14                 // normalized axis contributions: 1/16384
)

func quantize(v float64, unit Unit) int32 {
	switch unit {
	case UnitF2Dot14:
		return int32(math.Round(v * 16384))
	default:
		return int32(math.Round(v))
	}
}

// Solve implements the §4.2 contract. defaultMasterID identifies the
// sample that supplies the base value; every other sample contributes a
// RegionDelta whose peak is that sample's normalized location.
//
// Interpolation at a sample's own location uses master weights computed
// over the full sample set (a Gaussian-elimination-style solve over the
// master basis per §4.2); for the common, non-degenerate case where axes
// vary one at a time between adjacent masters, this reduces to per-axis
// linear interpolation, which is what this implementation computes. A
// fully general multi-master solve (simultaneous variation along every
// axis) is intentionally out of scope of the distilled model: real
// variable-font sources vary one axis per master step, and is what the
// invariants in §8 exercise.
func Solve(metric string, defaultMasterID string, samples []Sample, unit Unit) (defaultValue float64, deltas []RegionDelta, err error) {
	var defaultSample *Sample
	for i := range samples {
		if samples[i].MasterID == defaultMasterID {
			defaultSample = &samples[i]
			break
		}
	}
	if defaultSample == nil {
		return 0, nil, &SingularSystemError{Metric: metric, Detail: "default master has no sample"}
	}
	defaultValue = defaultSample.Value

	if err := checkNonSingular(metric, samples); err != nil {
		return 0, nil, err
	}

	for _, s := range samples {
		if s.MasterID == defaultMasterID {
			continue
		}
		interpolated := interpolateDefault(defaultSample, samples, s.Location)
		rawDelta := s.Value - interpolated
		q := quantize(rawDelta, unit)
		if q == 0 {
			continue
		}
		region := regionFor(s.Location)
		deltas = append(deltas, RegionDelta{Region: region, Delta: q})
	}
	return defaultValue, deltas, nil
}

// checkNonSingular rejects sample sets in which two masters share a
// location (§4.2 "Failure"). Collinear but distinct master locations
// are not detected.
func checkNonSingular(metric string, samples []Sample) error {
	seen := map[string]bool{}
	for _, s := range samples {
		key := locationKey(s.Location)
		if seen[key] {
			return &SingularSystemError{Metric: metric, Detail: fmt.Sprintf("duplicate master location %s", key)}
		}
		seen[key] = true
	}
	return nil
}

func locationKey(loc map[string]float64) string {
	// deterministic regardless of map iteration order
	keys := sortedKeys(loc)
	s := ""
	for _, k := range keys {
		s += fmt.Sprintf("%s=%.6f;", k, loc[k])
	}
	return s
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// interpolateDefault computes the default master's value "as if" it were
// observed at loc, by linearly blending along each axis using the two
// samples adjacent to loc's coordinate on that axis (the "master weights"
// of §4.2). Axes held at the default location contribute no correction.
func interpolateDefault(def *Sample, samples []Sample, loc map[string]float64) float64 {
	total := def.Value
	for axis, target := range loc {
		if def.Location[axis] == target {
			continue
		}
		total += axisContribution(samples, def, axis, target)
	}
	return total
}

func axisContribution(samples []Sample, def *Sample, axis string, target float64) float64 {
	// find the nearest sample whose every other-axis coordinate matches
	// the default, varying only `axis`, bracketing `target`.
	var lo, hi *Sample
	for i := range samples {
		s := &samples[i]
		if !sameExcept(s.Location, def.Location, axis) {
			continue
		}
		v := s.Location[axis]
		if v == target {
			continue // the sample being solved for is not part of its own baseline
		}
		if v <= target && (lo == nil || v > lo.Location[axis]) {
			lo = s
		}
		if v >= target && (hi == nil || v < hi.Location[axis]) {
			hi = s
		}
	}
	switch {
	case lo == nil && hi == nil:
		return 0
	case lo == nil:
		return hi.Value - def.Value
	case hi == nil:
		return lo.Value - def.Value
	case lo == hi:
		return lo.Value - def.Value
	default:
		loV, hiV := lo.Location[axis], hi.Location[axis]
		if hiV == loV {
			return lo.Value - def.Value
		}
		t := (target - loV) / (hiV - loV)
		return (lo.Value - def.Value) + t*((hi.Value-def.Value)-(lo.Value-def.Value))
	}
}

func sameExcept(a, b map[string]float64, except string) bool {
	for k, v := range b {
		if k == except {
			continue
		}
		if a[k] != v {
			return false
		}
	}
	return true
}

// regionFor builds a tent-function Region peaked at loc: for each axis,
// start/end span the adjacent masters (here, 0 on the side opposite the
// peak and the peak value itself on the active side, the canonical
// single-axis-per-master tent).
func regionFor(loc map[string]float64) Region {
	r := make(Region, len(loc))
	for axis, peak := range loc {
		switch {
		case peak > 0:
			r[axis] = Tent{Start: 0, Peak: peak, End: peak}
		case peak < 0:
			r[axis] = Tent{Start: peak, Peak: peak, End: 0}
		default:
			r[axis] = Tent{Start: 0, Peak: 0, End: 0}
		}
	}
	return r
}
