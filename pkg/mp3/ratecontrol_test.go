package mp3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestZeroEnergyGranuleProducesMinimumState checks property 6: a silent
// granule is never run through the outer loop and instead short-circuits
// to global_gain=210, big_values=0, count1=0.
func TestZeroEnergyGranuleProducesMinimumState(t *testing.T) {
	enc := newTestLoop(t)
	enc.Wave.Channels = 1
	enc.Mpeg.GranulesPerFrame = 2
	enc.Mpeg.Version = MPEG_II // skip calcSCFSI's MPEG-I-only path
	enc.meanBits = 2000

	for gr := int64(0); gr < 2; gr++ {
		for i := range enc.mdctFrequency[0][gr] {
			enc.mdctFrequency[0][gr][i] = 0
		}
		for i := range enc.xr[gr][0] {
			enc.xr[gr][0][i] = 0
		}
	}
	for i := range enc.PerceptualEnergy[0] {
		enc.PerceptualEnergy[0][i] = 0
	}

	enc.cbrIterationLoop()

	for gr := int64(0); gr < 2; gr++ {
		gi := &enc.sideInfo.Granules[gr].Channels[0].Tt
		assert.Equal(t, uint64(210), gi.GlobalGain)
		assert.Equal(t, uint64(0), gi.BigValues)
		assert.Equal(t, uint64(0), gi.Count1)
	}
}

func TestPrepareGranulePopulatesXrView(t *testing.T) {
	enc := newTestLoop(t)
	enc.Mpeg.Version = MPEG_II
	enc.mdctFrequency[0][0][10] = 1234
	enc.mdctFrequency[0][0][11] = -4321

	enc.prepareGranule(0, 0)

	assert.Equal(t, int32(1234), enc.l3loop.Xrabs[10])
	assert.Equal(t, int32(4321), enc.l3loop.Xrabs[11])
	assert.Equal(t, int32(4321), enc.l3loop.Xrmax)
	assert.Equal(t, int32(4321), enc.l3loop.Xrmaxl[0])
}

func TestCalcMinBitsNeverExceedsCalcMaxBits(t *testing.T) {
	enc := newTestLoop(t)
	enc.Mpeg.BitsPerFrame = 800
	enc.Mpeg.GranulesPerFrame = 2
	enc.meanBits = 400
	pe := 50.0
	enc.PerceptualEnergy[0][0] = pe

	min := enc.calcMinBits()
	max := enc.calcMaxBits(0, 0)
	assert.LessOrEqual(t, min, max)
}

func TestMSConvertNoopWhenNotJointStereo(t *testing.T) {
	enc := newTestLoop(t)
	enc.Wave.Channels = 2
	enc.Mpeg.ModeExt = int64(MPG_MD_LR)
	enc.xr[0][0][0] = 10
	enc.xr[0][1][0] = 4

	enc.msConvert(0)
	assert.Equal(t, 10.0, enc.xr[0][0][0])
	assert.Equal(t, 4.0, enc.xr[0][1][0])
}

func TestMSConvertProducesMidSide(t *testing.T) {
	enc := newTestLoop(t)
	enc.Wave.Channels = 2
	enc.Mpeg.ModeExt = int64(MPG_MD_MS_LR)
	enc.xr[0][0][0] = 10
	enc.xr[0][1][0] = 4

	enc.msConvert(0)
	assert.InDelta(t, 14.0/SQRT2, enc.xr[0][0][0], 1e-9)
	assert.InDelta(t, 6.0/SQRT2, enc.xr[0][1][0], 1e-9)
}

// TestSelectFrameBitrateIndexPicksLowestThatFits checks spec.md 4.10
// point 5: selectFrameBitrateIndex must return the lowest bitrate index
// in [BitrateMin, BitrateMax] whose frame capacity covers totalBits,
// never a higher one, and report zero shortfall when one fits.
func TestSelectFrameBitrateIndexPicksLowestThatFits(t *testing.T) {
	enc := newTestLoop(t)
	enc.Config.BitrateMin = 32
	enc.Config.BitrateMax = 320

	small := enc.frameCapacityBits(1) - enc.sideInfoLen
	idx, shortfall := enc.selectFrameBitrateIndex(small / 2)
	assert.Equal(t, int64(0), shortfall)
	assert.Equal(t, int64(1), idx, "lowest allowed index already covers a small frame")

	big := enc.frameCapacityBits(10) - enc.sideInfoLen
	idx, shortfall = enc.selectFrameBitrateIndex(big)
	assert.Equal(t, int64(0), shortfall)
	assert.LessOrEqual(t, idx, int64(10))
	assert.GreaterOrEqual(t, enc.frameCapacityBits(idx)-enc.sideInfoLen, big)
}

// TestSelectFrameBitrateIndexReportsShortfallAtCeiling checks that when
// totalBits exceeds even Config.BitrateMax's frame capacity,
// selectFrameBitrateIndex returns the topmost allowed index together with
// the remaining shortfall, rather than silently truncating.
func TestSelectFrameBitrateIndexReportsShortfallAtCeiling(t *testing.T) {
	enc := newTestLoop(t)
	enc.Config.BitrateMin = 32
	enc.Config.BitrateMax = 64

	ceilIdx, err := findBitrateIndex(64, enc.Mpeg.Version)
	assert.NoError(t, err)
	capacity := enc.frameCapacityBits(int64(ceilIdx)) - enc.sideInfoLen

	idx, shortfall := enc.selectFrameBitrateIndex(capacity + 500)
	assert.Equal(t, int64(ceilIdx), idx)
	assert.Equal(t, int64(500), shortfall)
}

// TestApplyFrameBitrateIndexUpdatesDerivedFields checks that committing a
// bitrate index recomputes every field NewEncoder originally derived from
// the nominal bitrate, so formatBitstream's header and the reservoir's
// stuffing see a consistent frame size afterward.
func TestApplyFrameBitrateIndexUpdatesDerivedFields(t *testing.T) {
	enc := newTestLoop(t)
	before := enc.Mpeg.BitsPerFrame

	lowIdx, err := findBitrateIndex(32, enc.Mpeg.Version)
	assert.NoError(t, err)
	enc.applyFrameBitrateIndex(int64(lowIdx))

	assert.Equal(t, int64(lowIdx), enc.Mpeg.BitrateIndex)
	assert.Equal(t, int64(32), enc.Mpeg.Bitrate)
	assert.Less(t, enc.Mpeg.BitsPerFrame, before, "dropping to the lowest allowed bitrate must shrink the frame")
	assert.Equal(t, (enc.Mpeg.BitsPerFrame-enc.sideInfoLen)/enc.Mpeg.GranulesPerFrame, enc.meanBits)
}

// TestSelectFrameBitrateDropsBelowNominalForQuietFrame checks scenario E4:
// a frame whose granules only used a handful of bits must end up coded at
// a bitrate index below the nominal one NewEncoder picked from
// Config.BitrateMax, instead of staying pinned to it.
func TestSelectFrameBitrateDropsBelowNominalForQuietFrame(t *testing.T) {
	enc, err := NewEncoder(44100, 1, WithVBRMode(VBRMTRH), WithBitrateRange(32, 320))
	assert.NoError(t, err)
	nominal := enc.Mpeg.BitrateIndex

	for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
		enc.sideInfo.Granules[gr].Channels[0].Tt.Part2_3Length = 10
	}

	enc.selectFrameBitrate()

	assert.Less(t, enc.Mpeg.BitrateIndex, nominal)
}

// TestSelectFrameBitrateRescalesWhenCeilingTooSmall checks spec.md 4.10
// point 5's fallback: when even Config.BitrateMax's frame capacity can't
// carry what was quantized, selectFrameBitrate re-quantizes the granules
// (via rescaleOverBudgetGranules/outerLoop) so their Part2_3Length no
// longer exceeds the ceiling bitrate's capacity.
func TestSelectFrameBitrateRescalesWhenCeilingTooSmall(t *testing.T) {
	enc, err := NewEncoder(44100, 1, WithVBRMode(VBRMTRH), WithBitrateRange(32, 48))
	assert.NoError(t, err)

	for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
		enc.prepareGranule(gr, 0)
		spectrum := make([]int32, GRANULE_SIZE)
		for i := range spectrum {
			spectrum[i] = int32((i*37 + 11) % 4000 * (1 - 2*(i%2)))
			enc.xr[gr][0][i] = float64(spectrum[i])
		}
		fillGranuleSpectrum(enc, spectrum)
		gi := &enc.sideInfo.Granules[gr].Channels[0].Tt
		gi.GlobalGain = 150
		gi.Part2_3Length = 4000
	}

	ceilIdx, err := findBitrateIndex(48, enc.Mpeg.Version)
	assert.NoError(t, err)
	ceilCapacity := enc.frameCapacityBits(int64(ceilIdx)) - enc.sideInfoLen

	enc.selectFrameBitrate()

	assert.Equal(t, int64(ceilIdx), enc.Mpeg.BitrateIndex)
	total := enc.getFramebits()
	assert.Less(t, total, int64(8000), "rescaling must shrink the granules from their original 4000-bit targets")
	assert.LessOrEqual(t, total, ceilCapacity+100)
}
