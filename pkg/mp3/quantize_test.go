package mp3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLoop(t *testing.T) *Encoder {
	t.Helper()
	enc, err := NewEncoder(44100, 2, WithBitrateRange(32, 128))
	assert.NoError(t, err)
	return enc
}

// fillGranuleSpectrum seeds l3loop's Xr/Xrabs/Xrmax/Xrsq view the way
// prepareGranule does, without needing a full psy/MDCT pass.
func fillGranuleSpectrum(enc *Encoder, xr []int32) {
	enc.l3loop.Xr = xr
	enc.l3loop.Xrmax = 0
	for i := GRANULE_SIZE - 1; i >= 0; i-- {
		enc.l3loop.Xrsq[i] = mulSR(xr[i], xr[i])
		xa := xr[i]
		if xa < 0 {
			xa = -xa
		}
		enc.l3loop.Xrabs[i] = xa
		if enc.l3loop.Xrabs[i] > enc.l3loop.Xrmax {
			enc.l3loop.Xrmax = enc.l3loop.Xrabs[i]
		}
	}
}

// TestGainMonotonicity checks property 1: raising quantizerStepSize (the
// gain) never increases the resulting Huffman bit cost for a fixed
// scalefac/block_type/xrpow, since a coarser step can only merge or zero
// out bins, never split one value into a larger vocabulary.
func TestGainMonotonicity(t *testing.T) {
	enc := newTestLoop(t)

	spectrum := make([]int32, GRANULE_SIZE)
	for i := range spectrum {
		// A deterministic pseudo-random-looking but reproducible spread.
		spectrum[i] = int32((i*37 + 11) % 4000 * (1 - 2*(i%2)))
	}
	fillGranuleSpectrum(enc, spectrum)

	gi := &GranuleInfo{BlockType: NormType}
	gi.reset()

	var prevBits int64 = -1
	for step := int64(-100); step < 100; step += 4 {
		var ix [GRANULE_SIZE]int64
		enc.quantize(&ix, step)
		bits := enc.countBits(&ix, gi)
		if prevBits >= 0 {
			assert.LessOrEqualf(t, bits, prevBits,
				"count_bits should not increase as gain grows (step=%d)", step)
		}
		prevBits = bits
	}
}

// TestSignRoundTrip checks property 5: every nonzero spectral bin's
// quantized index carries through as a nonzero ix, and a true-zero bin
// quantizes to zero.
func TestSignRoundTrip(t *testing.T) {
	enc := newTestLoop(t)

	spectrum := make([]int32, GRANULE_SIZE)
	spectrum[0] = 0
	spectrum[1] = 5000
	spectrum[2] = -5000

	fillGranuleSpectrum(enc, spectrum)

	var ix [GRANULE_SIZE]int64
	enc.quantize(&ix, -100)

	assert.Equal(t, int64(0), ix[0], "a zero bin must quantize to zero")
	assert.NotZero(t, ix[1], "a nonzero positive bin must not quantize to zero")
	assert.NotZero(t, ix[2], "a nonzero negative bin must not quantize to zero")
	assert.Equal(t, ix[1], ix[2], "magnitude-equal bins of opposite sign quantize to the same index")
}

// TestZeroEnergyGranuleQuantizesToZero checks the all-silent half of
// property 6: an all-zero spectrum quantizes to an all-zero ix at any
// step size, with zero big_values/count1.
func TestZeroEnergyGranuleQuantizesToZero(t *testing.T) {
	enc := newTestLoop(t)
	spectrum := make([]int32, GRANULE_SIZE)
	fillGranuleSpectrum(enc, spectrum)

	var ix [GRANULE_SIZE]int64
	ixMax := enc.quantize(&ix, 0)
	assert.Equal(t, int64(0), ixMax)

	gi := &GranuleInfo{BlockType: NormType}
	gi.reset()
	calcRunLength(&ix, gi)
	assert.Equal(t, uint64(0), gi.BigValues)
	assert.Equal(t, uint64(0), gi.Count1)
}
