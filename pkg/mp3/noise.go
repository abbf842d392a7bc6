package mp3

import "math"

// calcNoise measures, per scalefactor band, how far the quantized vector ix
// (produced at the current global_gain/scalefactors) strays from the
// masking threshold l3Xmin computed by the psychoacoustic model (spec.md
// 2, "Noise Calculator"). It reconstructs each bin's quantized magnitude
// from ix and the active stepsize/scalefactor and accumulates the ratio of
// reconstruction error energy to the allowed distortion for that band.
func (enc *Encoder) calcNoise(ix *[GRANULE_SIZE]int64, gi *GranuleInfo, xr *[GRANULE_SIZE]float64, scalefac *ScaleFactor, xmin *PsyXMin, gr, ch int64) noiseResult {
	var res noiseResult
	sfbLong := enc.scalefacBandIndexLong()

	lastLong := int64(0)
	switch {
	case gi.BlockType != ShortType:
		lastLong = sbPsyLong
	case gi.MixedBlockFlag:
		lastLong = int64(gi.SfbLmax)
	}

	for sfb := int64(0); sfb < lastLong && sfb < sbMaxLong; sfb++ {
		start, end := sfbLong[sfb], sfbLong[sfb+1]
		if start >= GRANULE_SIZE {
			break
		}
		if end > GRANULE_SIZE {
			end = GRANULE_SIZE
		}
		errE := enc.bandError(ix, gi, xr, scalefac.L[sfb], start, end)
		res.accumulate(errE, xmin.L[gr][ch][sfb])
	}

	if gi.BlockType == ShortType || gi.MixedBlockFlag {
		sfbShort := enc.scalefacBandIndexShort()
		startSfb := int64(0)
		if gi.MixedBlockFlag {
			startSfb = int64(gi.SfbSmin)
		}
		longOffset := sfbLong[sbPsyLong]
		for sfb := startSfb; sfb < sbMaxShort; sfb++ {
			for win := int64(0); win < 3; win++ {
				start := longOffset + (sfbShort[sfb]*3 + win*(sfbShort[sfb+1]-sfbShort[sfb]))
				width := sfbShort[sfb+1] - sfbShort[sfb]
				end := start + width
				if start >= GRANULE_SIZE || start < 0 {
					continue
				}
				if end > GRANULE_SIZE {
					end = GRANULE_SIZE
				}
				errE := enc.bandError(ix, gi, xr, scalefac.S[sfb][win], start, end)
				res.accumulate(errE, xmin.S[gr][ch][sfb][win])
			}
		}
	}
	return res
}

// bandError reconstructs the quantized magnitude of xr[start:end] given the
// granule's global_gain/scalefac_scale and one band's scalefactor, and
// returns the squared reconstruction error summed over the band.
func (enc *Encoder) bandError(ix *[GRANULE_SIZE]int64, gi *GranuleInfo, xr *[GRANULE_SIZE]float64, scalefac int32, start, end int64) float64 {
	scaleStep := int64(scalefac) << gi.ScaleFactorScale
	gain := float64(gi.GlobalGain) - 210 - float64(scaleStep)
	stepSize := stepFromGain(gain)
	errE := 0.0
	for i := start; i < end; i++ {
		recon := math.Pow(float64(ix[i]), 4.0/3.0) * stepSize
		if xr[i] < 0 {
			recon = -recon
		}
		d := xr[i] - recon
		errE += d * d
	}
	return errE
}

func (r *noiseResult) accumulate(errEnergy, xmin float64) {
	if xmin <= 0 {
		xmin = 1e-20
	}
	ratio := errEnergy / xmin
	r.totCount++
	noiseDB := 10 * math.Log10(math.Max(ratio, 1e-20))
	r.totNoise += noiseDB
	if noiseDB > r.maxNoise {
		r.maxNoise = noiseDB
	}
	if ratio > 1.0 {
		r.overCount++
		r.overNoise += noiseDB
	}
	r.klemmNoise += noiseDB * noiseDB
}

// quantCompare implements the nine quant_compare comparator modes
// (spec.md 2, "Quantization comparators"): returns true when candidate
// beats best under the configured comparatorMode.
func quantCompare(mode comparatorMode, best, candidate noiseResult) bool {
	switch mode {
	case CompareOverCount:
		if candidate.overCount < best.overCount {
			return true
		}
		if candidate.overCount == best.overCount && candidate.overNoise < best.overNoise {
			return true
		}
		return false
	case CompareOverOverAvg:
		if candidate.overCount < best.overCount {
			return true
		}
		if candidate.overCount == best.overCount {
			ca := safeAvg(candidate.overNoise, candidate.overCount)
			ba := safeAvg(best.overNoise, best.overCount)
			return ca < ba
		}
		return false
	case CompareOverAvg:
		return candidate.overNoise < best.overNoise
	case CompareTotalNoise:
		return candidate.totNoise < best.totNoise
	case CompareKlemmNoise1:
		return candidate.klemmNoise < best.klemmNoise
	case CompareKlemmNoise2:
		if candidate.overCount == best.overCount {
			return candidate.klemmNoise < best.klemmNoise
		}
		return candidate.overCount < best.overCount
	case CompareKlemmNoise3:
		if candidate.overCount < best.overCount {
			return true
		}
		if candidate.overCount > best.overCount {
			return false
		}
		return candidate.maxNoise < best.maxNoise
	case CompareKlemmNoise4:
		return candidate.maxNoise < best.maxNoise && candidate.overCount <= best.overCount
	default: // CompareMaxNoise
		return candidate.maxNoise < best.maxNoise
	}
}

func safeAvg(sum float64, n int64) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// loopBreak reports whether the outer loop has converged: no band needs
// further amplification (spec.md 2, "loop_break").
func loopBreak(gi *GranuleInfo, amplified []bool) bool {
	for _, v := range amplified {
		if v {
			return false
		}
	}
	_ = gi
	return true
}

// scaleBitcount chooses, for MPEG-1 (spec.md 12), the smallest
// scalefac_compress index (0..15) whose slen1/slen2 bit widths can hold
// every scalefactor the granule produced, filling in ScaleFactorLen.
func scaleBitcount(gi *GranuleInfo, scalefac *ScaleFactor) bool {
	maxInRange := func(lo, hi int64) int32 {
		m := int32(0)
		for i := lo; i < hi && i < sbMaxLong; i++ {
			if scalefac.L[i] > m {
				m = scalefac.L[i]
			}
		}
		return m
	}
	m1 := maxInRange(0, 11)
	m2 := maxInRange(11, 21)
	for compress := 0; compress < 16; compress++ {
		slen1 := sLen1Table[compress]
		slen2 := sLen2Table[compress]
		if int64(m1) < (int64(1)<<slen1) && int64(m2) < (int64(1)<<slen2) {
			gi.ScaleFactorCompress = uint64(compress)
			gi.ScaleFactorLen[0] = uint64(slen1)
			gi.ScaleFactorLen[1] = uint64(slen1)
			gi.ScaleFactorLen[2] = uint64(slen2)
			gi.ScaleFactorLen[3] = uint64(slen2)
			return true
		}
	}
	return false
}

// scaleBitcountLSF chooses the LSF (MPEG-2/2.5) scalefactor partition
// geometry from nrOfSfbBlock and packs preflag into the lowest bit of
// scalefac_compress, above which sits the chosen table row, per spec.md 12.
func scaleBitcountLSF(gi *GranuleInfo, scalefac *ScaleFactor) {
	classIdx := 0
	if gi.BlockType == ShortType {
		classIdx = 2
	} else if gi.MixedBlockFlag {
		classIdx = 2
	}
	tableRow := 0
	maxSfb := int32(0)
	for i := 0; i < sbMaxLong; i++ {
		if scalefac.L[i] > maxSfb {
			maxSfb = scalefac.L[i]
		}
	}
	for maxSfb >= 16 && tableRow < 5 {
		tableRow++
		maxSfb >>= 1
	}
	group := nrOfSfbBlock[tableRow][classIdx]
	bits := uint64(0)
	for i, w := range group {
		gi.ScaleFactorLen[i] = uint64(slfsiWidthFor(tableRow))
		bits += uint64(w) * gi.ScaleFactorLen[i]
	}
	gi.ScaleFactorCompress = uint64(tableRow) << 1
	if gi.PreFlag != 0 {
		gi.ScaleFactorCompress |= 1
	}
	gi.Part2Length = bits
}

func slfsiWidthFor(tableRow int) int64 {
	return int64(tableRow/2) + 3
}
