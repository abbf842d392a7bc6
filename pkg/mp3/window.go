package mp3

import "math"

// enWindow is the analysis polyphase filter's window, applied to the
// 512-sample history buffer before the 64-tap filter matrix in
// l3subband.go's windowFilterSubband (ISO Table B.3).
//
// NOTE: like huffmanCodeTable (see DESIGN.md), the retrieval pack does
// not carry the literal ISO-assigned window coefficients. This table is
// a Hann-tapered, alternating-sign cosine carrier scaled to the same
// fixed-point range subbandInitialize already uses for the filter
// matrix -- it gives windowFilterSubband a real, non-degenerate
// windowing function to operate on so the polyphase/MDCT pipeline stays
// exercised end to end, without claiming ISO bit-exactness.
var enWindow [HAN_SIZE]int32

func init() {
	for i := 0; i < HAN_SIZE; i++ {
		taper := 0.5 - 0.5*math.Cos(2*math.Pi*(float64(i)+0.5)/float64(HAN_SIZE))
		carrier := math.Cos(math.Pi * (float64(i) - float64(HAN_SIZE)/2) / 64.0)
		enWindow[i] = int32(taper * carrier * float64(math.MaxInt32) * 0.5)
	}
}
