package mp3

import "math"

// toFloatSpectrum copies the MDCT output into the floating spectral lines
// the quantizer/noise calculator work in (spec.md 1 treats the MDCT as an
// external collaborator; this is the seam between its fixed-point output
// and the rest of the package's float64 math).
func (enc *Encoder) toFloatSpectrum() {
	for ch := int64(0); ch < enc.Wave.Channels; ch++ {
		for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
			for i := 0; i < GRANULE_SIZE; i++ {
				enc.xr[gr][ch][i] = float64(enc.mdctFrequency[ch][gr][i])
			}
		}
	}
}

// msConvert transforms left/right spectral lines into mid/side when
// mode_ext selects MS stereo, per spec.md 12's supplemented MS feature:
// mid = (L+R)/sqrt2, side = (L-R)/sqrt2.
func (enc *Encoder) msConvert(gr int64) {
	if enc.Wave.Channels != 2 || enc.Mpeg.ModeExt != int64(MPG_MD_MS_LR) {
		return
	}
	l, r := &enc.xr[gr][0], &enc.xr[gr][1]
	for i := 0; i < GRANULE_SIZE; i++ {
		left, right := l[i], r[i]
		l[i] = (left + right) / SQRT2
		r[i] = (left - right) / SQRT2
	}
}

// reduceSide loosens the side channel's masking thresholds once MS
// stereo is active: side energy is usually small relative to mid, so
// spending full precision there wastes bits the mid channel needs more
// (spec.md 12, "reduce_side").
func (enc *Encoder) reduceSide(gr int64) float64 {
	if enc.Wave.Channels != 2 || enc.Mpeg.ModeExt != int64(MPG_MD_MS_LR) {
		return 1.0
	}
	return 2.5
}

// blockEnergy sums the squared magnitude of xr[start:end).
func blockEnergy(xr *[GRANULE_SIZE]float64, start, end int64) float64 {
	if end > GRANULE_SIZE {
		end = GRANULE_SIZE
	}
	e := 0.0
	for i := start; i < end; i++ {
		e += xr[i] * xr[i]
	}
	return e
}

// decideBlockType runs a minimal transient detector: a granule whose
// upper quarter of the spectrum holds more than 35% of its energy
// is coded as a short block, easing back to normal over one granule of
// hysteresis via blockTypeOld (spec.md 9: "the real psy model is an
// external collaborator"; this package only needs a plausible decision
// to exercise the short/mixed-block code paths end to end).
func (enc *Encoder) decideBlockType(ch, gr int64) blockType {
	xr := &enc.xr[gr][ch]
	highEnergy := blockEnergy(xr, GRANULE_SIZE*3/4, GRANULE_SIZE)
	totalEnergy := blockEnergy(xr, 0, GRANULE_SIZE)
	prev := enc.blockTypeOld[ch]

	transient := totalEnergy > 0 && highEnergy/(totalEnergy+1e-9) > 0.35

	var bt blockType
	switch {
	case transient && prev == NormType:
		bt = StartType
	case transient:
		bt = ShortType
	case prev == ShortType || prev == StartType:
		bt = StopType
	default:
		bt = NormType
	}
	enc.blockTypeOld[ch] = bt
	return bt
}

// psyAnalyze fills in everything the quantizer consumes before it can
// run: xr (already copied), the chosen block type/mixed flag, per-band
// masking thresholds l3Xmin, and a perceptual-entropy estimate pe used by
// the bit reservoir (spec.md 1's psychoacoustic model, simplified per
// SPEC_FULL's Non-goals).
func (enc *Encoder) psyAnalyze() {
	for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
		if enc.Mpeg.Mode != MONO {
			enc.msConvert(gr)
		}
		sideFactor := enc.reduceSide(gr)

		for ch := int64(0); ch < enc.Wave.Channels; ch++ {
			bt := enc.decideBlockType(ch, gr)
			gi := &enc.sideInfo.Granules[gr].Channels[ch].Tt
			gi.BlockType = bt
			gi.MixedBlockFlag = bt == ShortType && gr == 0
			gi.reset()

			factor := 1.0
			if ch == 1 {
				factor = sideFactor
			}

			sfbLong := enc.scalefacBandIndexLong()
			lastLong := sbPsyLong
			if bt == ShortType && !gi.MixedBlockFlag {
				lastLong = 0
			} else if gi.MixedBlockFlag {
				lastLong = int(gi.SfbLmax)
			}
			for sfb := 0; sfb < lastLong; sfb++ {
				e := blockEnergy(&enc.xr[gr][ch], sfbLong[sfb], sfbLong[sfb+1])
				width := float64(sfbLong[sfb+1] - sfbLong[sfb])
				ratio := 0.0015 * enc.Config.MaskingLower * factor
				enc.ratio.L[gr][ch][sfb] = ratio
				enc.l3Xmin.L[gr][ch][sfb] = e * ratio / math.Max(width, 1)
			}
			if bt == ShortType || gi.MixedBlockFlag {
				sfbShort := enc.scalefacBandIndexShort()
				startSfb := 0
				if gi.MixedBlockFlag {
					startSfb = int(gi.SfbSmin)
				}
				longOffset := sfbLong[sbPsyLong]
				for sfb := startSfb; sfb < sbMaxShort; sfb++ {
					width := sfbShort[sfb+1] - sfbShort[sfb]
					for win := int64(0); win < 3; win++ {
						start := longOffset + sfbShort[sfb]*3 + win*width
						e := blockEnergy(&enc.xr[gr][ch], start, start+width)
						ratio := 0.0015 * enc.Config.MaskingLower * factor
						enc.l3Xmin.S[gr][ch][sfb][win] = e * ratio / math.Max(float64(width), 1)
					}
				}
			}

			total := blockEnergy(&enc.xr[gr][ch], 0, GRANULE_SIZE)
			pe := 0.0
			if total > 1 {
				pe = 10 * math.Log2(total)
			}
			enc.PerceptualEnergy[ch][gr] = pe
		}
	}
}
