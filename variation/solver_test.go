package variation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestVariableKerning covers §8 end-to-end scenario 3: two masters at
// wght in {400, 900} with pair value -60/-120; expect default -60 and one
// delta of -60 peaked at wght=+1.
func TestVariableKerning(t *testing.T) {
	samples := []Sample{
		{MasterID: "light", Location: map[string]float64{"wght": 0}, Value: -60},
		{MasterID: "bold", Location: map[string]float64{"wght": 1}, Value: -120},
	}
	def, deltas, err := Solve("kern:T,a", "light", samples, UnitFUnits)
	require.NoError(t, err)
	require.Equal(t, -60.0, def)
	require.Len(t, deltas, 1)
	require.Equal(t, int32(-60), deltas[0].Delta)
	require.Equal(t, Tent{Start: 0, Peak: 1, End: 1}, deltas[0].Region["wght"])
}

func TestSolveAllZeroDeltasYieldsEmpty(t *testing.T) {
	samples := []Sample{
		{MasterID: "a", Location: map[string]float64{"wght": 0}, Value: 500},
		{MasterID: "b", Location: map[string]float64{"wght": 1}, Value: 500},
	}
	def, deltas, err := Solve("x-height", "a", samples, UnitFUnits)
	require.NoError(t, err)
	require.Equal(t, 500.0, def)
	require.Empty(t, deltas)
}

func TestSolveRejectsDuplicateMasterLocations(t *testing.T) {
	samples := []Sample{
		{MasterID: "a", Location: map[string]float64{"wght": 0}, Value: 500},
		{MasterID: "b", Location: map[string]float64{"wght": 0}, Value: 510},
	}
	_, _, err := Solve("x-height", "a", samples, UnitFUnits)
	require.Error(t, err)
	var sErr *SingularSystemError
	require.ErrorAs(t, err, &sErr)
	require.Equal(t, "x-height", sErr.Metric)
}

func TestInternerDeduplicatesIdenticalDeltaVectors(t *testing.T) {
	in := NewInterner()
	d1 := []RegionDelta{{Region: Region{"wght": {0, 1, 1}}, Delta: -60}}
	d2 := []RegionDelta{{Region: Region{"wght": {0, 1, 1}}, Delta: -60}}
	i1, isNew1 := in.Intern(d1)
	i2, isNew2 := in.Intern(d2)
	require.True(t, isNew1)
	require.False(t, isNew2)
	require.Equal(t, i1, i2)
	require.Equal(t, 1, in.Len())
}

func TestBuildStoreGroupsByRegionSet(t *testing.T) {
	in := NewInterner()
	in.Intern([]RegionDelta{{Region: Region{"wght": {0, 1, 1}}, Delta: -60}})
	in.Intern([]RegionDelta{{Region: Region{"wght": {0, 1, 1}}, Delta: 10}})
	in.Intern([]RegionDelta{{Region: Region{"wdth": {0, 1, 1}}, Delta: 5}})
	store := BuildStore([]string{"wght", "wdth"}, in.Entries())
	require.Len(t, store.Regions, 2)
	require.Len(t, store.Subtables, 2)
}
