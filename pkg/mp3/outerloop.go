package mp3

import "math"

const maxOuterLoopIterations = 30

// quantGain returns the effective gain for one scalefactor band, whose
// quantizer step is 2**(gain/4) (see stepFromGain): global_gain - 210
// lowered by that band's scalefactor
// (doubled when scalefac_scale is set), per spec.md 2/9.
func quantGain(gi *GranuleInfo, sf int64) float64 {
	return float64(gi.GlobalGain) - 210 - float64(sf<<gi.ScaleFactorScale)
}

// subblockGainOffset folds a short window's subblock_gain into the
// effective gain; each unit is a boost of 8 gain steps, about 12dB
// (linear: 2x every 4 steps, matching ipow20Table's 0.25 step), in the
// same steps as global_gain (spec.md 9).
func subblockGainOffset(gi *GranuleInfo, win int) float64 {
	return -float64(gi.SubblockGain[win]) * 8.0
}

// stepFromGain converts a quantizer gain (global_gain/8ths units) into its
// linear step size, preferring ipow20Table's precomputed lookup over a
// runtime math.Pow call when gain falls in the table's covered range
// (spec.md 9, "preserve exactly"); amplification rarely pushes gain outside
// [-210,190) in practice, so the math.Pow fallback only matters at extremes.
func stepFromGain(gain float64) float64 {
	idx := int64(gain) + 210
	if idx >= 0 && idx < int64(len(ipow20Table)) {
		return ipow20Table[idx]
	}
	return math.Pow(2.0, gain/4.0)
}

func quantizeRange(xr *[GRANULE_SIZE]float64, ix *[GRANULE_SIZE]int64, start, end int64, gain float64, ixMax *int64) {
	if start < 0 {
		start = 0
	}
	if end > GRANULE_SIZE {
		end = GRANULE_SIZE
	}
	step := stepFromGain(gain)
	for i := start; i < end; i++ {
		mag := math.Abs(xr[i]) / step
		v := int64(math.Pow(mag, 0.75) + 0.5)
		ix[i] = v
		if v > *ixMax {
			*ixMax = v
		}
	}
}

// quantizeGranule re-quantizes an entire granule's spectral line vector
// honoring per-band scalefactors and subblock_gain, superseding the
// scalefactor-blind global-only quantize() used by the initial bin search
// (spec.md 9: "amplification changes per-band step size, not just
// global_gain").
func (enc *Encoder) quantizeGranule(xr *[GRANULE_SIZE]float64, gi *GranuleInfo, scalefac *ScaleFactor, ix *[GRANULE_SIZE]int64) int64 {
	ixMax := int64(0)
	sfbLong := enc.scalefacBandIndexLong()

	lastLong := int64(0)
	switch {
	case gi.BlockType != ShortType:
		lastLong = sbPsyLong
	case gi.MixedBlockFlag:
		lastLong = int64(gi.SfbLmax)
	}
	for sfb := int64(0); sfb < lastLong && sfb < sbMaxLong; sfb++ {
		quantizeRange(xr, ix, sfbLong[sfb], sfbLong[sfb+1], quantGain(gi, int64(scalefac.L[sfb])), &ixMax)
	}

	if gi.BlockType == ShortType || gi.MixedBlockFlag {
		sfbShort := enc.scalefacBandIndexShort()
		startSfb := int64(0)
		if gi.MixedBlockFlag {
			startSfb = int64(gi.SfbSmin)
		}
		longOffset := sfbLong[sbPsyLong]
		for sfb := startSfb; sfb < sbMaxShort; sfb++ {
			width := sfbShort[sfb+1] - sfbShort[sfb]
			for win := 0; win < 3; win++ {
				start := longOffset + sfbShort[sfb]*3 + int64(win)*width
				end := start + width
				gain := quantGain(gi, int64(scalefac.S[sfb][win])) + subblockGainOffset(gi, win)
				quantizeRange(xr, ix, start, end, gain, &ixMax)
			}
		}
	}
	return ixMax
}

type bandRef struct {
	isShort  bool
	sfb, win int64
	ratio    float64
}

// bandNoiseRatios recomputes calcNoise's per-band breakdown so
// ampScalefacBands knows which bands to push (spec.md 2, "Amplification").
func (enc *Encoder) bandNoiseRatios(ix *[GRANULE_SIZE]int64, gi *GranuleInfo, xr *[GRANULE_SIZE]float64, scalefac *ScaleFactor, xmin *PsyXMin, gr, ch int64) []bandRef {
	var refs []bandRef
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
		errE := enc.bandError(ix, gi, xr, scalefac.L[sfb], start, end)
		x := xmin.L[gr][ch][sfb]
		if x <= 0 {
			x = 1e-20
		}
		refs = append(refs, bandRef{sfb: sfb, ratio: errE / x})
	}
	if gi.BlockType == ShortType || gi.MixedBlockFlag {
		sfbShort := enc.scalefacBandIndexShort()
		startSfb := int64(0)
		if gi.MixedBlockFlag {
			startSfb = int64(gi.SfbSmin)
		}
		longOffset := sfbLong[sbPsyLong]
		for sfb := startSfb; sfb < sbMaxShort; sfb++ {
			width := sfbShort[sfb+1] - sfbShort[sfb]
			for win := int64(0); win < 3; win++ {
				start := longOffset + sfbShort[sfb]*3 + win*width
				end := start + width
				errE := enc.bandError(ix, gi, xr, scalefac.S[sfb][win], start, end)
				x := xmin.S[gr][ch][sfb][win]
				if x <= 0 {
					x = 1e-20
				}
				refs = append(refs, bandRef{isShort: true, sfb: sfb, win: win, ratio: errE / x})
			}
		}
	}
	return refs
}

const scalefacMax = 254

// ampScalefacBands raises the scalefactor of every offending band by one
// step (#ifndef RH_AMP variant, the default), or only the single worst
// band under VBR's RH/MTRH drivers (#else variant) -- spec.md 2,
// "amp_scalefac_bands". Returns whether any targeted band was over its
// threshold (moved) and whether any such band was already at scalefacMax
// and so left unchanged (saturated).
func ampScalefacBands(gi *GranuleInfo, scalefac *ScaleFactor, refs []bandRef, singleWorst bool) (moved bool, saturated bool) {
	target := refs
	if singleWorst {
		worst := -1
		worstRatio := 1.0
		for i, r := range refs {
			if r.ratio > worstRatio {
				worstRatio = r.ratio
				worst = i
			}
		}
		if worst < 0 {
			return false, false
		}
		target = refs[worst : worst+1]
	}
	for _, r := range target {
		if r.ratio <= 1.0 {
			continue
		}
		moved = true
		if r.isShort {
			v := &scalefac.S[r.sfb][r.win]
			if *v >= scalefacMax {
				saturated = true
				continue
			}
			*v++
		} else {
			v := &scalefac.L[r.sfb]
			if *v >= scalefacMax {
				saturated = true
				continue
			}
			*v++
		}
	}
	return moved, saturated
}

// incScalefacScale doubles the effective scalefactor resolution
// (scalefac_scale 0->1) and halves every existing scalefactor to
// preserve the quantization level already achieved, per spec.md 2,
// "inc_scalefac_scale". No-op (returns false) once scalefac_scale is
// already 1.
func incScalefacScale(gi *GranuleInfo, scalefac *ScaleFactor) bool {
	if gi.ScaleFactorScale != 0 {
		return false
	}
	gi.ScaleFactorScale = 1
	for i := range scalefac.L {
		scalefac.L[i] /= 2
	}
	for i := range scalefac.S {
		for w := range scalefac.S[i] {
			scalefac.S[i][w] /= 2
		}
	}
	return true
}

// incSubblockGain raises one short window's subblock_gain by one unit, up
// to its maximum of 7; the next quantizeGranule pass applies it through
// subblockGainOffset instead of further raising that window's scalefactors
// past scalefacMax (spec.md 2, "inc_subblock_gain").
func incSubblockGain(gi *GranuleInfo, win int) bool {
	if gi.SubblockGain[win] >= 7 {
		return false
	}
	gi.SubblockGain[win]++
	return true
}

// balanceNoise borrows up to availBits additional Huffman budget from the
// reservoir so an amplification step that overshot maxBits can still be
// kept, instead of being discarded outright (spec.md 2, "balance_noise";
// spec.md 4.9's reservoir borrowing).
func balanceNoise(bits, maxBits, availBits int64) (ok bool, extra int64) {
	if bits <= maxBits {
		return true, 0
	}
	over := bits - maxBits
	if over <= availBits {
		return true, over
	}
	return false, 0
}

// outerLoop is the driver of spec.md 2 ("Outer Loop"): finds the
// global_gain/scalefactor assignment for one granule-channel that best
// satisfies l3Xmin's masking thresholds within maxBits, snapshotting the
// best candidate seen across every amplification iteration.
func (enc *Encoder) outerLoop(maxBits int64, gr, ch int64) int64 {
	gi := &enc.sideInfo.Granules[gr].Channels[ch].Tt
	ix := &enc.l3Encoding[ch][gr]
	xr := &enc.xr[gr][ch]
	scalefac := &enc.scaleFactor[gr][ch]
	*scalefac = ScaleFactor{}

	gi.QuantizerStepSize = enc.binSearchStepSize(maxBits, ix, gi)

	// The seed search above uses all of maxBits; part2_length is then
	// charged against maxBits before the inner loop runs, per spec.md 4.8
	// step 2a. The scalefactors aren't known
	// yet, so chooseScalefactorCompress is called once here against the
	// still-zeroed scalefac for a cheap estimate, and again below once
	// quantizeGranule has produced real values (spec.md 2, "Bit Counter").
	enc.chooseScalefactorCompress(gi, scalefac)
	gi.Part2Length = uint64(enc.calcPart2Length(gr, ch))
	huffBits := maxBits - int64(gi.Part2Length)
	enc.innerLoop(ix, huffBits, gi)
	gi.GlobalGain = uint64(gi.QuantizerStepSize + 210)

	enc.quantizeGranule(xr, gi, scalefac, ix)
	bits := enc.countBits(ix, gi)
	enc.chooseScalefactorCompress(gi, scalefac)
	gi.Part2Length = uint64(enc.calcPart2Length(gr, ch))
	gi.Part2_3Length = uint64(bits) + gi.Part2Length

	singleWorst := enc.Config.VBR == VBRRH || enc.Config.VBR == VBRMTRH
	availBits := int64(0)
	if enc.Config.ReservoirEnable {
		availBits = enc.reservoirSize / 4
	}

	var best quantState
	bestNoise := enc.calcNoise(ix, gi, xr, scalefac, &enc.l3Xmin, gr, ch)
	best.snapshot(gi, scalefac, ix)

	for iter := 0; iter < maxOuterLoopIterations; iter++ {
		refs := enc.bandNoiseRatios(ix, gi, xr, scalefac, &enc.l3Xmin, gr, ch)
		moved, saturated := ampScalefacBands(gi, scalefac, refs, singleWorst)
		if !moved {
			break
		}
		if saturated {
			if !incScalefacScale(gi, scalefac) {
				for w := 0; w < 3; w++ {
					incSubblockGain(gi, w)
				}
			}
		}

		enc.quantizeGranule(xr, gi, scalefac, ix)
		newBits := enc.countBits(ix, gi)
		enc.chooseScalefactorCompress(gi, scalefac)
		part23 := newBits + int64(gi.Part2Length)

		ok, extra := balanceNoise(part23, maxBits, availBits)
		if !ok {
			break
		}
		availBits -= extra

		noise := enc.calcNoise(ix, gi, xr, scalefac, &enc.l3Xmin, gr, ch)
		gi.Part2_3Length = uint64(part23)
		if quantCompare(enc.Config.ComparatorMode, bestNoise, noise) {
			bestNoise = noise
			best.snapshot(gi, scalefac, ix)
		}
		if loopBreak(gi, []bool{moved}) {
			break
		}
	}

	best.restore(gi, scalefac, ix)
	gi.Part2Length = uint64(enc.calcPart2Length(gr, ch))
	return int64(gi.Part2_3Length)
}
