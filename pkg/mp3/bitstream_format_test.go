package mp3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAbsAndSignPreservesMagnitudeRecoversSign checks the mechanical core
// of property 5: absAndSign (used right before Huffman-coding each
// nonzero bin) returns the ISO sign bit convention (0 for positive, 1 for
// negative) and always leaves the value non-negative for the table
// lookup that follows it.
func TestAbsAndSignPreservesMagnitudeRecoversSign(t *testing.T) {
	pos := int64(7)
	assert.Equal(t, int64(0), absAndSign(&pos))
	assert.Equal(t, int64(7), pos)

	neg := int64(-7)
	assert.Equal(t, int64(1), absAndSign(&neg))
	assert.Equal(t, int64(7), neg)

	zero := int64(0)
	assert.Equal(t, int64(0), absAndSign(&zero))
	assert.Equal(t, int64(0), zero)
}

func TestCalcRunLengthPartitionsRZeroCount1BigValues(t *testing.T) {
	var ix [GRANULE_SIZE]int64
	// big_values region: one pair with a value > 1.
	ix[0] = 5
	ix[1] = 0
	// count1 region: four pairs of 0/1 only.
	for i := 2; i < 10; i++ {
		ix[i] = int64(i % 2)
	}
	// everything else (rzero) stays 0.

	gi := &GranuleInfo{BlockType: NormType}
	gi.reset()
	calcRunLength(&ix, gi)

	assert.Equal(t, uint64(1), gi.BigValues)
	assert.Equal(t, uint64(2), gi.Count1)
}
