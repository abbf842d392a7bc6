package mp3

// Fixed-point 32-bit multiplication helpers used by the polyphase
// filterbank and MDCT. Casting to int64 first avoids overflow; the R
// variants round before truncating back to 32 bits.

func mul(a, b int32) int32 {
	return int32((int64(a) * int64(b)) >> 32)
}

func mulR(a, b int32) int32 {
	return int32(((int64(a) * int64(b)) + 0x80000000) >> 32)
}

// mulSR is like mulR but shifts one bit less, for operands already
// scaled by an extra factor of two.
func mulSR(a, b int32) int32 {
	return int32(((int64(a) * int64(b)) + 0x40000000) >> 31)
}

// cmuls multiplies two complex numbers together, used by the MDCT's
// aliasing-reduction butterfly.
func cmuls(aReal, aImag, bReal, bImag *int32) (int32, int32) {
	resReal := int32((int64(*aReal)*int64(*bReal) - int64(*aImag)*int64(*bImag)) >> 31)
	resImag := int32((int64(*aReal)*int64(*bImag) + int64(*aImag)*int64(*bReal)) >> 31)
	return resReal, resImag
}
