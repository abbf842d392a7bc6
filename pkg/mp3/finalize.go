package mp3

// finalizeFrame runs the post-quantization cleanup passes spec.md 12
// names but the per-granule outer loop never needed on its own:
// best_scalefac_store (MPEG-1 scfsi truth-up), best_huffman_divide
// (region-split re-optimization) and iteration_finish (final bit
// bookkeeping).
func (enc *Encoder) finalizeFrame() {
	if enc.Mpeg.Version == MPEG_I && enc.Mpeg.GranulesPerFrame == 2 {
		for ch := int64(0); ch < enc.Wave.Channels; ch++ {
			enc.bestScalefacStore(ch)
		}
	}
	for ch := int64(0); ch < enc.Wave.Channels; ch++ {
		for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
			enc.bestHuffmanDivide(gr, ch)
		}
	}
	enc.iterationFinish()
}

// bestScalefacStore compares granule 1's final scalefactors against
// granule 0's for each of the four scfsi bands; where they match exactly,
// it sets scfsi[band]=1 and drops granule 1's redundant copy from the bit
// count, replacing calcSCFSI's pre-quantization guess with ground truth
// (spec.md 12).
func (enc *Encoder) bestScalefacStore(ch int64) {
	sf0 := &enc.scaleFactor[0][ch]
	sf1 := &enc.scaleFactor[1][ch]
	changed := false
	for band := 0; band < 4; band++ {
		start, end := scfsiBandLong[band], scfsiBandLong[band+1]
		equal := true
		for sfb := start; sfb < end && sfb < sbMaxLong; sfb++ {
			if sf0.L[sfb] != sf1.L[sfb] {
				equal = false
				break
			}
		}
		want := uint64(0)
		if equal {
			want = 1
		}
		if enc.sideInfo.ScaleFactorSelectInfo[ch][band] != want {
			enc.sideInfo.ScaleFactorSelectInfo[ch][band] = want
			changed = true
		}
	}
	if changed {
		gi1 := &enc.sideInfo.Granules[1].Channels[ch].Tt
		gi1.Part2Length = uint64(enc.calcPart2Length(1, ch))
		huffBits := int64(gi1.Part2_3Length) - int64(gi1.Part2Length)
		if huffBits < 0 {
			huffBits = 0
		}
		gi1.Part2_3Length = gi1.Part2Length + uint64(huffBits)
	}
}

// bestHuffmanDivide re-scans neighboring region0/region1 splits around
// subDivide's scalefactor-boundary-driven choice and keeps whichever
// costs fewer bits to Huffman-code, touching only the region split, never
// l3enc or scalefactors -- so re-running it twice in a row is a no-op
// (spec.md 12).
func (enc *Encoder) bestHuffmanDivide(gr, ch int64) {
	gi := &enc.sideInfo.Granules[gr].Channels[ch].Tt
	ix := &enc.l3Encoding[ch][gr]
	if gi.BigValues == 0 {
		return
	}
	baseline := gi.Region0Count
	bestBits := bigValuesBitCount(ix, gi)
	bestR0 := gi.Region0Count
	bestR1 := gi.Region1Count
	bestA1, bestA2 := gi.Address1, gi.Address2

	for delta := int64(-1); delta <= 1; delta++ {
		if delta == 0 {
			continue
		}
		r0 := int64(baseline) + delta
		if r0 < 0 || r0 > 6 {
			continue
		}
		trial := *gi
		trial.Region0Count = uint64(r0)
		sfbLong := enc.scalefacBandIndexLong()
		if int(trial.Region0Count)+1 >= len(sfbLong) {
			continue
		}
		trial.Address1 = uint64(sfbLong[trial.Region0Count+1])
		if trial.Address1 > trial.BigValues<<1 {
			continue
		}
		bigValuesTableSelect(ix, &trial)
		bits := bigValuesBitCount(ix, &trial)
		if bits < bestBits {
			bestBits = bits
			bestR0, bestR1 = trial.Region0Count, trial.Region1Count
			bestA1, bestA2 = trial.Address1, trial.Address2
		}
	}
	gi.Region0Count, gi.Region1Count = bestR0, bestR1
	gi.Address1, gi.Address2 = bestA1, bestA2
	bigValuesTableSelect(ix, gi)
}

// iterationFinish clamps each granule's final part2_3_length to 4095, the
// largest value its 12-bit side-info field holds, logging every clamp; it
// is the last checkpoint before formatBitstream (spec.md 12).
func (enc *Encoder) iterationFinish() {
	for ch := int64(0); ch < enc.Wave.Channels; ch++ {
		for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
			gi := &enc.sideInfo.Granules[gr].Channels[ch].Tt
			if gi.Part2_3Length > 4095 {
				enc.logWarn("granule exceeded part2_3 ceiling", "gr", gr, "ch", ch, "bits", gi.Part2_3Length)
				gi.Part2_3Length = 4095
			}
		}
	}
}
