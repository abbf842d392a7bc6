package mp3

import "math"

// chooseScalefactorCompress dispatches to the MPEG-1 or LSF scalefactor
// packing scheme depending on the active version (spec.md 12).
func (enc *Encoder) chooseScalefactorCompress(gi *GranuleInfo, scalefac *ScaleFactor) {
	if enc.Mpeg.Version == MPEG_I {
		if !scaleBitcount(gi, scalefac) {
			gi.ScaleFactorCompress = 15
		}
		return
	}
	scaleBitcountLSF(gi, scalefac)
}

// calcPart2Length returns the bit cost of encoding one granule's
// scalefactors in the main data block (spec.md 2, "Bit Counter" ->
// part2_length), honoring MPEG-1 scfsi carry-over between granule 0 and
// granule 1.
func (enc *Encoder) calcPart2Length(gr int64, ch int64) int64 {
	gi := &enc.sideInfo.Granules[gr].Channels[ch].Tt
	if enc.Mpeg.Version != MPEG_I {
		return int64(gi.Part2Length)
	}
	bits := int64(0)
	sLen1 := sLen1Table[gi.ScaleFactorCompress]
	sLen2 := sLen2Table[gi.ScaleFactorCompress]
	if gr == 0 || enc.sideInfo.ScaleFactorSelectInfo[ch][0] == 0 {
		bits += sLen1 * 6
	}
	if gr == 0 || enc.sideInfo.ScaleFactorSelectInfo[ch][1] == 0 {
		bits += sLen1 * 5
	}
	if gr == 0 || enc.sideInfo.ScaleFactorSelectInfo[ch][2] == 0 {
		bits += sLen2 * 5
	}
	if gr == 0 || enc.sideInfo.ScaleFactorSelectInfo[ch][3] == 0 {
		bits += sLen2 * 5
	}
	if gi.BlockType == ShortType || gi.MixedBlockFlag {
		startSfb := int64(0)
		if gi.MixedBlockFlag {
			startSfb = int64(gi.SfbSmin)
		}
		bits += sLen2 * 3 * (sbMaxShort - startSfb)
	}
	return bits
}

var scfsiBandLong = [5]int64{0, 6, 11, 16, 21}

const (
	enTotKrit       = 10
	enDifKrit       = 100
	enScfsiBandKrit = 10
	xmScfsiBandKrit = 10
)

// calcSCFSI estimates scfsi (scalefactor select info) ahead of final
// quantization, mirroring the teacher's predictive heuristic: if granule
// 0 and 1's energy profiles are close enough, assume their scalefactors
// will end up equal and let granule 1 skip re-encoding that band (spec.md
// 2; supplemented feature best_scalefac_store in finalize.go double
// checks this against the final values).
func (enc *Encoder) calcSCFSI(l3XMin *PsyXMin, ch int64, gr int64) {
	sideInfo := &enc.sideInfo
	scalefacBandLong := enc.scalefacBandIndexLong()

	temp := int64(0)
	for i := GRANULE_SIZE - 1; i >= 0; i-- {
		temp += int64(enc.l3loop.Xrsq[i]) >> 10
	}
	if temp != 0 {
		enc.l3loop.EnTot[gr] = int32(math.Log(float64(temp)*4.768371584e-07) / LN2)
	} else {
		enc.l3loop.EnTot[gr] = 0
	}

	for sfb := sbPsyLong - 1; sfb >= 0; sfb-- {
		start, end := scalefacBandLong[sfb], scalefacBandLong[sfb+1]
		temp = 0
		for i := start; i < end; i++ {
			temp += int64(enc.l3loop.Xrsq[i]) >> 10
		}
		if temp != 0 {
			enc.l3loop.En[gr][sfb] = int32(math.Log(float64(temp)*4.768371584e-07) / LN2)
		} else {
			enc.l3loop.En[gr][sfb] = 0
		}
		if l3XMin.L[gr][ch][sfb] != 0 {
			enc.l3loop.Xm[gr][sfb] = int32(math.Log(l3XMin.L[gr][ch][sfb]) / LN2)
		} else {
			enc.l3loop.Xm[gr][sfb] = 0
		}
	}

	if gr != 1 {
		return
	}
	condition := int64(2)
	if absInt32(enc.l3loop.EnTot[0]-enc.l3loop.EnTot[1]) < enTotKrit {
		condition++
	}
	tp := int64(0)
	for sfb := 0; sfb < sbPsyLong; sfb++ {
		tp += absInt32(enc.l3loop.En[0][sfb] - enc.l3loop.En[1][sfb])
	}
	if tp < enDifKrit {
		condition++
	}
	if condition != 6 {
		for band := 0; band < 4; band++ {
			sideInfo.ScaleFactorSelectInfo[ch][band] = 0
		}
		return
	}
	for band := 0; band < 4; band++ {
		sum0, sum1 := int64(0), int64(0)
		start, end := scfsiBandLong[band], scfsiBandLong[band+1]
		for sfb := start; sfb < end; sfb++ {
			sum0 += absInt32(enc.l3loop.En[0][sfb] - enc.l3loop.En[1][sfb])
			sum1 += absInt32(enc.l3loop.Xm[0][sfb] - enc.l3loop.Xm[1][sfb])
		}
		if sum0 < enScfsiBandKrit && sum1 < xmScfsiBandKrit {
			sideInfo.ScaleFactorSelectInfo[ch][band] = 1
		} else {
			sideInfo.ScaleFactorSelectInfo[ch][band] = 0
		}
	}
}

func absInt32(v int32) int64 {
	if v < 0 {
		return int64(-v)
	}
	return int64(v)
}
