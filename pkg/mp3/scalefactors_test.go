package mp3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleBitcountPicksSmallestCompressIndex(t *testing.T) {
	gi := &GranuleInfo{BlockType: NormType}
	gi.reset()
	var scalefac ScaleFactor
	scalefac.L[0] = 1
	scalefac.L[11] = 1

	ok := scaleBitcount(gi, &scalefac)
	assert.True(t, ok)
	assert.Equal(t, uint64(sLen1Table[gi.ScaleFactorCompress]), gi.ScaleFactorLen[0])
	assert.Equal(t, uint64(sLen2Table[gi.ScaleFactorCompress]), gi.ScaleFactorLen[2])

	// Every prior compress index in the table must have been too small to
	// hold these scalefactors, or a smaller index would have been chosen.
	for c := 0; c < int(gi.ScaleFactorCompress); c++ {
		tooSmall := int64(1) >= (int64(1) << sLen1Table[c])
		assert.Truef(t, tooSmall || int64(1) >= (int64(1)<<sLen2Table[c]),
			"compress index %d should not have sufficed", c)
	}
}

func TestScaleBitcountLSFPacksPreflagIntoCompress(t *testing.T) {
	gi := &GranuleInfo{BlockType: NormType}
	gi.reset()
	gi.PreFlag = 1
	var scalefac ScaleFactor

	scaleBitcountLSF(gi, &scalefac)
	assert.Equal(t, uint64(1), gi.ScaleFactorCompress&1, "preflag bit should be packed into scalefac_compress")
}

func TestCalcSCFSIPopulatesEnergyAndDecidesOnSecondGranule(t *testing.T) {
	enc := newTestLoop(t)
	enc.Mpeg.Version = MPEG_I
	ch := int64(0)

	spectrum := make([]int32, GRANULE_SIZE)
	for i := range spectrum {
		spectrum[i] = int32(1<<24 + i)
	}
	fillGranuleSpectrum(enc, spectrum)

	var xmin PsyXMin
	enc.calcSCFSI(&xmin, ch, 0)
	assert.NotZero(t, enc.l3loop.EnTot[0], "calcSCFSI must populate EnTot from the granule's energy")

	enc.calcSCFSI(&xmin, ch, 1)
	// gr==1 path must not panic and must leave a defined (0 or 1) scfsi
	// per band regardless of which branch it takes.
	for band := 0; band < 4; band++ {
		v := enc.sideInfo.ScaleFactorSelectInfo[ch][band]
		assert.Truef(t, v == 0 || v == 1, "band %d", band)
	}
}
