package mp3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantCompareModesPreferLowerOverCount(t *testing.T) {
	best := noiseResult{overCount: 3, overNoise: 10, totNoise: 50, maxNoise: 5, klemmNoise: 20}
	better := noiseResult{overCount: 1, overNoise: 2, totNoise: 40, maxNoise: 4, klemmNoise: 15}

	modes := []comparatorMode{
		CompareOverCount, CompareOverOverAvg, CompareKlemmNoise2, CompareKlemmNoise3,
	}
	for _, m := range modes {
		assert.Truef(t, quantCompare(m, best, better), "mode %v should prefer the candidate with fewer overs", m)
		assert.Falsef(t, quantCompare(m, better, best), "mode %v should not regress to the worse candidate", m)
	}
}

func TestQuantCompareTotalAndMaxNoise(t *testing.T) {
	best := noiseResult{totNoise: 100, maxNoise: 10}
	better := noiseResult{totNoise: 50, maxNoise: 4}

	assert.True(t, quantCompare(CompareTotalNoise, best, better))
	assert.True(t, quantCompare(CompareMaxNoise, best, better))
	assert.False(t, quantCompare(CompareTotalNoise, better, best))
}

func TestLoopBreakStopsWhenNothingAmplified(t *testing.T) {
	gi := &GranuleInfo{BlockType: NormType}
	gi.reset()
	assert.True(t, loopBreak(gi, []bool{false, false}))
	assert.False(t, loopBreak(gi, []bool{false, true}))
}

// TestBandErrorZeroWhenReconstructionMatches checks that a band with no
// quantization error (ix chosen exactly to reconstruct xr) reports ~zero
// squared error, the baseline calcNoise / quant_compare's ratios are built
// from.
func TestBandErrorZeroWhenReconstructionMatches(t *testing.T) {
	enc := newTestLoop(t)

	gi := &GranuleInfo{BlockType: NormType, GlobalGain: 210}
	gi.reset()
	gi.GlobalGain = 210

	var xr [GRANULE_SIZE]float64
	var ix [GRANULE_SIZE]int64
	// global_gain=210, scalefac=0 -> stepFromGain(0) == 1, so
	// reconstruction is ix[i]**(4/3) directly.
	ix[5] = 8 // 8**(4/3) == 16
	xr[5] = 16

	errE := enc.bandError(&ix, gi, &xr, 0, 5, 6)
	assert.InDelta(t, 0.0, errE, 1e-6)
}

func TestBandErrorSignIndependent(t *testing.T) {
	enc := newTestLoop(t)
	gi := &GranuleInfo{BlockType: NormType, GlobalGain: 210}
	gi.reset()
	gi.GlobalGain = 210

	var xrPos, xrNeg [GRANULE_SIZE]float64
	var ix [GRANULE_SIZE]int64
	ix[0] = 8
	xrPos[0] = 16
	xrNeg[0] = -16

	errPos := enc.bandError(&ix, gi, &xrPos, 0, 0, 1)
	errNeg := enc.bandError(&ix, gi, &xrNeg, 0, 0, 1)
	assert.InDelta(t, errPos, errNeg, 1e-9)
}
