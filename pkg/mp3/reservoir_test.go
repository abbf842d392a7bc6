package mp3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestReservoirBalance checks property 4: summing (mean_bits -
// part2_3_length) across a frame's granule-channels equals the reservoir
// delta reservoirAdjust actually applies.
func TestReservoirBalance(t *testing.T) {
	enc := newTestLoop(t)
	enc.Wave.Channels = 2
	enc.meanBits = 2000
	enc.reservoirSize = 500

	before := enc.reservoirSize
	var delta int64
	for ch := int64(0); ch < 2; ch++ {
		gi := &GranuleInfo{Part2_3Length: uint64(300 + ch*50)}
		meanShare := enc.meanBits / enc.Wave.Channels
		delta += meanShare - int64(gi.Part2_3Length)
		enc.reservoirAdjust(gi)
	}

	assert.Equal(t, before+delta, enc.reservoirSize)
}

func TestMaxReservoirBitsCapsAt4095(t *testing.T) {
	enc := newTestLoop(t)
	enc.Wave.Channels = 1
	enc.meanBits = 5000
	enc.reservoirMaxSize = 0
	pe := 0.0
	assert.Equal(t, int64(4095), enc.maxReservoirBits(&pe))
}

func TestMaxReservoirBitsBorrowsFromReservoir(t *testing.T) {
	enc := newTestLoop(t)
	enc.Wave.Channels = 1
	enc.meanBits = 500
	enc.reservoirMaxSize = 4000
	enc.reservoirSize = 3000
	pe := 1000.0

	bits := enc.maxReservoirBits(&pe)
	assert.Greater(t, bits, int64(500), "high PE with reservoir banked should borrow extra bits")
	assert.LessOrEqual(t, bits, int64(4095))
}

// TestReservoirFrameEndStaysWithinBudget checks the reservoir half of
// property 3: reservoirFrameEnd never leaves reservoirSize above
// reservoirMaxSize.
func TestReservoirFrameEndStaysWithinBudget(t *testing.T) {
	enc := newTestLoop(t)
	enc.Wave.Channels = 2
	enc.Mpeg.GranulesPerFrame = 2
	enc.reservoirMaxSize = 1000
	enc.reservoirSize = 5000

	enc.reservoirFrameEnd()
	assert.LessOrEqual(t, enc.reservoirSize, enc.reservoirMaxSize)
}

// TestReservoirFrameEndRedistributesStuffingBits checks that when
// granule 0/channel 0 cannot absorb every stuffing bit under the 4095
// ceiling, the remainder is spread to later granule-channels rather than
// silently dropped, matching spec.md's reservoir-overflow fallback.
func TestReservoirFrameEndRedistributesStuffingBits(t *testing.T) {
	enc := newTestLoop(t)
	enc.Wave.Channels = 2
	enc.Mpeg.GranulesPerFrame = 2
	enc.reservoirMaxSize = 0
	enc.reservoirSize = 4100 // over_bits will be huge once %8'd down

	enc.sideInfo.Granules[0].Channels[0].Tt.Part2_3Length = 4090
	enc.sideInfo.Granules[0].Channels[1].Tt.Part2_3Length = 100
	enc.sideInfo.Granules[1].Channels[0].Tt.Part2_3Length = 100
	enc.sideInfo.Granules[1].Channels[1].Tt.Part2_3Length = 100

	enc.reservoirFrameEnd()

	for gr := int64(0); gr < 2; gr++ {
		for ch := int64(0); ch < 2; ch++ {
			gi := &enc.sideInfo.Granules[gr].Channels[ch].Tt
			assert.LessOrEqualf(t, gi.Part2_3Length, uint64(4095), "gr=%d ch=%d", gr, ch)
		}
	}
}
