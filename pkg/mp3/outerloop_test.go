package mp3

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepFromGainMatchesTable(t *testing.T) {
	for gain := -210.0; gain < 190.0; gain += 17.0 {
		got := stepFromGain(gain)
		want := math.Exp2(gain / 4.0)
		assert.InEpsilonf(t, want, got, 1e-6, "gain=%v", gain)
	}

	// Outside the table's covered range, the math.Pow fallback still
	// agrees with the closed form.
	got := stepFromGain(500)
	want := math.Pow(2.0, 500.0/4.0)
	assert.InEpsilon(t, want, got, 1e-9)
}

// TestAmplificationXrpowConsistency checks property 2: after
// quantizeGranule re-quantizes a band at a raised scalefactor, the
// resulting ix for that band matches a from-scratch quantizeRange call at
// the same effective gain -- amplification never leaves ix stale relative
// to the scalefactor that produced it.
func TestAmplificationXrpowConsistency(t *testing.T) {
	enc := newTestLoop(t)

	var xr [GRANULE_SIZE]float64
	for i := range xr {
		xr[i] = float64((i%23)-11) * 137.0
	}
	enc.xr[0][0] = xr

	gi := &GranuleInfo{BlockType: NormType}
	gi.reset()
	gi.GlobalGain = 180

	var scalefac ScaleFactor
	var ix [GRANULE_SIZE]int64
	enc.quantizeGranule(&xr, gi, &scalefac, &ix)

	sfbLong := enc.scalefacBandIndexLong()
	band := 3
	scalefac.L[band]++

	enc.quantizeGranule(&xr, gi, &scalefac, &ix)

	var want [GRANULE_SIZE]int64
	var ixMax int64
	quantizeRange(&xr, &want, sfbLong[band], sfbLong[band+1], quantGain(gi, int64(scalefac.L[band])), &ixMax)

	for i := sfbLong[band]; i < sfbLong[band+1]; i++ {
		assert.Equalf(t, want[i], ix[i], "bin %d out of sync with its band's scalefactor after amplification", i)
	}
}

func TestIncScalefacScaleHalvesExistingFactors(t *testing.T) {
	gi := &GranuleInfo{BlockType: NormType}
	gi.reset()
	var scalefac ScaleFactor
	scalefac.L[0] = 7
	scalefac.L[1] = 4
	scalefac.S[0][0] = 9

	ok := incScalefacScale(gi, &scalefac)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), gi.ScaleFactorScale)
	assert.Equal(t, int32(3), scalefac.L[0])
	assert.Equal(t, int32(2), scalefac.L[1])
	assert.Equal(t, int32(4), scalefac.S[0][0])

	// Second call is a no-op: scalefac_scale is already 1.
	before := scalefac
	ok = incScalefacScale(gi, &scalefac)
	assert.False(t, ok)
	assert.Equal(t, before, scalefac)
}

func TestIncSubblockGainSaturates(t *testing.T) {
	gi := &GranuleInfo{BlockType: ShortType}
	gi.reset()
	for i := 0; i < 7; i++ {
		assert.True(t, incSubblockGain(gi, 0))
	}
	assert.Equal(t, int64(7), gi.SubblockGain[0])
	assert.False(t, incSubblockGain(gi, 0), "subblock_gain must saturate at 7")
}

func TestAmpScalefacBandsSingleWorstPicksHighestRatio(t *testing.T) {
	gi := &GranuleInfo{BlockType: NormType}
	gi.reset()
	var scalefac ScaleFactor

	refs := []bandRef{
		{sfb: 0, ratio: 1.5},
		{sfb: 1, ratio: 3.0},
		{sfb: 2, ratio: 0.5},
	}

	moved, saturated := ampScalefacBands(gi, &scalefac, refs, true)
	assert.True(t, moved)
	assert.False(t, saturated)
	assert.Equal(t, int32(0), scalefac.L[0], "only the single worst band should move")
	assert.Equal(t, int32(1), scalefac.L[1])
	assert.Equal(t, int32(0), scalefac.L[2])
}

func TestAmpScalefacBandsAllOffendersMoveTogether(t *testing.T) {
	gi := &GranuleInfo{BlockType: NormType}
	gi.reset()
	var scalefac ScaleFactor

	refs := []bandRef{
		{sfb: 0, ratio: 1.5},
		{sfb: 1, ratio: 3.0},
		{sfb: 2, ratio: 0.5},
	}

	moved, saturated := ampScalefacBands(gi, &scalefac, refs, false)
	assert.True(t, moved)
	assert.False(t, saturated)
	assert.Equal(t, int32(1), scalefac.L[0])
	assert.Equal(t, int32(1), scalefac.L[1])
	assert.Equal(t, int32(0), scalefac.L[2], "band under threshold must not move")
}

func TestBalanceNoiseBorrowsWithinAvailable(t *testing.T) {
	ok, extra := balanceNoise(1000, 900, 200)
	assert.True(t, ok)
	assert.Equal(t, int64(100), extra)

	ok, extra = balanceNoise(1000, 900, 50)
	assert.False(t, ok)
	assert.Equal(t, int64(0), extra)

	ok, extra = balanceNoise(800, 900, 0)
	assert.True(t, ok)
	assert.Equal(t, int64(0), extra)
}
