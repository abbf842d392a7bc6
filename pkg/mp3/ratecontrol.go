package mp3

// rateControl dispatches to the CBR, ABR or VBR driver selected by
// Config.VBR (spec.md 6, "Rate-control drivers").
func (enc *Encoder) rateControl() {
	switch enc.Config.VBR {
	case VBROff:
		enc.cbrIterationLoop()
	case VBRAbr:
		enc.abrIterationLoop()
	default:
		enc.vbrIterationLoop()
	}
	enc.finalizeFrame()
}

// maxReservoirBitsStatic sizes reservoirMaxSize from a frame's bit count
// alone (nine tenths of it); it is recomputed for every frame in
// encodeBufferInternal and whenever applyFrameBitrateIndex commits a new
// bitrate (spec.md 4.9).
func maxReservoirBitsStatic(bitsPerFrame int64) int64 {
	max := bitsPerFrame - bitsPerFrame/10
	if max < 0 {
		max = 0
	}
	return max
}

// prepareGranule resets one granule-channel's coding state and refreshes
// l3loop's Xr/Xrabs/Xrmax view of this granule's spectrum, the scalefactor-
// blind working set binSearchStepSize/quantize still use for their initial
// global-gain guess (spec.md 2, 5; grounded on the teacher's iterationLoop
// setup block, now split out so CBR/ABR/VBR drivers all share it).
func (enc *Encoder) prepareGranule(gr, ch int64) {
	gi := &enc.sideInfo.Granules[gr].Channels[ch].Tt
	*gi = GranuleInfo{BlockType: gi.BlockType, MixedBlockFlag: gi.MixedBlockFlag}
	gi.reset()

	enc.l3loop.Xr = enc.mdctFrequency[ch][gr][:]
	enc.l3loop.Xrmax = 0
	for i := GRANULE_SIZE - 1; i >= 0; i-- {
		enc.l3loop.Xrsq[i] = mulSR(enc.l3loop.Xr[i], enc.l3loop.Xr[i])
		xa := enc.l3loop.Xr[i]
		if xa < 0 {
			xa = -xa
		}
		enc.l3loop.Xrabs[i] = xa
		if enc.l3loop.Xrabs[i] > enc.l3loop.Xrmax {
			enc.l3loop.Xrmax = enc.l3loop.Xrabs[i]
		}
	}
	enc.l3loop.Xrmaxl[gr] = enc.l3loop.Xrmax

	if enc.Mpeg.Version == MPEG_I {
		enc.calcSCFSI(&enc.l3Xmin, ch, gr)
	}
}

// cbrIterationLoop is the constant-bitrate driver (spec.md 6, "CBR"):
// every granule gets maxReservoirBits' share of the frame's fixed bit
// budget, with leftover/borrowed bits tracked by the reservoir.
func (enc *Encoder) cbrIterationLoop() {
	for ch := enc.Wave.Channels - 1; ch >= 0; ch-- {
		for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
			enc.prepareGranule(gr, ch)
			gi := &enc.sideInfo.Granules[gr].Channels[ch].Tt
			if blockEnergy(&enc.xr[gr][ch], 0, GRANULE_SIZE) == 0 {
				gi.GlobalGain = 210
				continue
			}
			maxBits := enc.maxReservoirBits(&enc.PerceptualEnergy[ch][gr])
			enc.outerLoop(maxBits, gr, ch)
			enc.reservoirAdjust(gi)
		}
	}
	enc.reservoirFrameEnd()
	enc.logDebug("cbr frame encoded", "frame", enc.frameNumber, "reservoir", enc.reservoirSize)
}

// calcTargetBits derives each granule's bit share for the ABR driver: the
// same reservoir-aware allowance as CBR, raised from the second frame on to
// at least VBRQuality tenths of the granule's share of the frame's bits
// (spec.md 6, "ABR"). It does not track the bitrate produced so far.
func (enc *Encoder) calcTargetBits(ch, gr int64) int64 {
	base := enc.maxReservoirBits(&enc.PerceptualEnergy[ch][gr])
	if enc.frameNumber == 0 {
		return base
	}
	minBits := (enc.Mpeg.BitsPerFrame * int64(enc.Config.VBRQuality)) / 10 / enc.Mpeg.GranulesPerFrame
	if base < minBits {
		return minBits
	}
	return base
}

func (enc *Encoder) abrIterationLoop() {
	for ch := enc.Wave.Channels - 1; ch >= 0; ch-- {
		for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
			enc.prepareGranule(gr, ch)
			gi := &enc.sideInfo.Granules[gr].Channels[ch].Tt
			if blockEnergy(&enc.xr[gr][ch], 0, GRANULE_SIZE) == 0 {
				gi.GlobalGain = 210
				continue
			}
			maxBits := enc.calcTargetBits(ch, gr)
			enc.outerLoop(maxBits, gr, ch)
		}
	}
	enc.selectFrameBitrate()
	for ch := int64(0); ch < enc.Wave.Channels; ch++ {
		for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
			enc.reservoirAdjust(&enc.sideInfo.Granules[gr].Channels[ch].Tt)
		}
	}
	enc.reservoirFrameEnd()
	enc.logDebug("abr frame encoded", "frame", enc.frameNumber, "reservoir", enc.reservoirSize, "bitrateIndex", enc.Mpeg.BitrateIndex)
}

// calcMinBits/calcMaxBits bound the VBR binary search's candidate bit
// budgets (spec.md 6, "VBR"): the floor is the larger of 125 bits and one
// granule-channel's mean share of a frame at Config.BitrateMin (it does not
// depend on pe), the ceiling is what the bitrate and reservoir allow in a
// single granule.
func (enc *Encoder) calcMinBits() int64 {
	lo, err := findBitrateIndex(int(enc.Config.BitrateMin), enc.Mpeg.Version)
	if err != nil {
		lo = 1
	}
	minMean := (enc.frameCapacityBits(int64(lo)) - enc.sideInfoLen) / enc.Mpeg.GranulesPerFrame / enc.Wave.Channels
	if minMean > 125 {
		return minMean
	}
	return 125
}

func (enc *Encoder) calcMaxBits(ch, gr int64) int64 {
	max := enc.maxReservoirBits(&enc.PerceptualEnergy[ch][gr])
	ceil := (enc.Mpeg.BitsPerFrame * 2) / enc.Mpeg.GranulesPerFrame
	if max > ceil {
		max = ceil
	}
	return max
}

// getFramebits totals one frame's granule budgets for bookkeeping/logging
// and for selectFrameBitrate's capacity scan (spec.md 6, 4.10 point 2).
func (enc *Encoder) getFramebits() int64 {
	total := int64(0)
	for ch := int64(0); ch < enc.Wave.Channels; ch++ {
		for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
			total += int64(enc.sideInfo.Granules[gr].Channels[ch].Tt.Part2_3Length)
		}
	}
	return total
}

// frameSlotsForBitrateIndex recomputes the whole/fractional slots-per-frame
// NewEncoder derives once for the nominal bitrate, at an arbitrary bitrate
// index -- the probe selectFrameBitrateIndex and applyFrameBitrateIndex
// share to evaluate a candidate rate without committing to it.
func (enc *Encoder) frameSlotsForBitrateIndex(idx int64) (whole int64, frac float64) {
	bitrate := bitRates[idx][enc.Mpeg.Version]
	avgSlotsPerFrame := (float64(enc.Mpeg.GranulesPerFrame) * GRANULE_SIZE / float64(enc.Wave.SampleRate)) * (float64(bitrate) * 1000 / float64(enc.Mpeg.BitsPerSlot))
	whole = int64(avgSlotsPerFrame)
	frac = avgSlotsPerFrame - float64(whole)
	return whole, frac
}

// frameCapacityBits returns the largest a frame coded at bitrate index idx
// can be (whole slots plus one padding slot, in bits) -- the ceiling
// selectFrameBitrateIndex compares a frame's actual bit usage against, per
// spec.md 4.10 point 2 ("get_framebits").
func (enc *Encoder) frameCapacityBits(idx int64) int64 {
	whole, frac := enc.frameSlotsForBitrateIndex(idx)
	padding := int64(0)
	if frac != 0 {
		padding = 1
	}
	return (whole + padding) * 8
}

// selectFrameBitrateIndex scans bitrate indices from Config.BitrateMin up
// to Config.BitrateMax and returns the lowest one whose frame capacity
// (after side info) covers totalBits, per spec.md 4.10 point 5 ("pick the
// lowest bitrate index whose frame budget covers the sum"). When even
// Config.BitrateMax falls short it returns that index along with the
// remaining shortfall, for the caller to re-quantize against.
func (enc *Encoder) selectFrameBitrateIndex(totalBits int64) (idx int64, shortfall int64) {
	lo, err := findBitrateIndex(int(enc.Config.BitrateMin), enc.Mpeg.Version)
	if err != nil {
		lo = 1
	}
	hi, err := findBitrateIndex(int(enc.Config.BitrateMax), enc.Mpeg.Version)
	if err != nil {
		hi = 14
	}
	if hi < lo {
		hi = lo
	}
	for i := int64(lo); i <= int64(hi); i++ {
		if enc.frameCapacityBits(i)-enc.sideInfoLen >= totalBits {
			return i, 0
		}
	}
	capacity := enc.frameCapacityBits(int64(hi)) - enc.sideInfoLen
	if totalBits > capacity {
		shortfall = totalBits - capacity
	}
	return int64(hi), shortfall
}

// applyFrameBitrateIndex commits idx as the frame's bitrate, recomputing
// every field NewEncoder originally derived from the nominal bitrate so
// formatBitstream's header and reservoirFrameEnd's stuffing both agree
// with the newly chosen rate (spec.md 4.10 point 2).
func (enc *Encoder) applyFrameBitrateIndex(idx int64) {
	enc.Mpeg.BitrateIndex = idx
	enc.Mpeg.Bitrate = bitRates[idx][enc.Mpeg.Version]
	whole, frac := enc.frameSlotsForBitrateIndex(idx)
	enc.Mpeg.WholeSlotsPerFrame = whole
	enc.Mpeg.FracSlotsPerFrame = frac
	enc.Mpeg.Padding = 0
	if frac != 0 {
		enc.Mpeg.Padding = 1
	}
	enc.Mpeg.SlotLag = -enc.Mpeg.FracSlotsPerFrame
	enc.Mpeg.BitsPerFrame = (whole + enc.Mpeg.Padding) * 8
	enc.meanBits = (enc.Mpeg.BitsPerFrame - enc.sideInfoLen) / enc.Mpeg.GranulesPerFrame
	if enc.Config.ReservoirEnable {
		enc.reservoirMaxSize = maxReservoirBitsStatic(enc.Mpeg.BitsPerFrame)
	} else {
		enc.reservoirMaxSize = 0
	}
}

// rescaleOverBudgetGranules re-quantizes every granule-channel with its
// target shrunk by the ratio needed to fit totalBits back within
// capacityBits, the fallback spec.md 4.10 point 5 calls for when even
// Config.BitrateMax's frame capacity can't carry the content as quantized.
func (enc *Encoder) rescaleOverBudgetGranules(capacityBits, totalBits int64) {
	if totalBits <= 0 {
		return
	}
	scale := float64(capacityBits) / float64(totalBits)
	minBits := enc.calcMinBits()
	for ch := int64(0); ch < enc.Wave.Channels; ch++ {
		for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
			gi := &enc.sideInfo.Granules[gr].Channels[ch].Tt
			if gi.Part2_3Length == 0 {
				continue
			}
			target := int64(float64(gi.Part2_3Length) * scale)
			if target < minBits {
				target = minBits
			}
			enc.outerLoop(target, gr, ch)
		}
	}
}

// selectFrameBitrate is the VBR/ABR half of spec.md 4.10 point 2/5: once
// every granule-channel in the frame has been quantized, it picks the
// lowest bitrate index whose frame capacity covers the bits actually used
// and, if even Config.BitrateMax can't carry it, re-quantizes the
// over-budget granules against a proportionally reduced target.
func (enc *Encoder) selectFrameBitrate() {
	total := enc.getFramebits()
	idx, shortfall := enc.selectFrameBitrateIndex(total)
	enc.applyFrameBitrateIndex(idx)
	if shortfall > 0 {
		capacity := enc.frameCapacityBits(idx) - enc.sideInfoLen
		enc.rescaleOverBudgetGranules(capacity, total)
	}
}

// vbrEncodeGranule binary-searches the smallest bit budget (within
// [minBits, maxBits]) at which outerLoop reports no offending band, the
// rh/mtrh VBR strategy of spec.md 6 point 4. Bounded to a handful of
// probes since each one re-runs the full outer loop.
func (enc *Encoder) vbrEncodeGranule(gr, ch, minBits, maxBits int64) int64 {
	lo, hi := minBits, maxBits
	var bits int64
	for probe := 0; probe < 6 && lo < hi; probe++ {
		mid := (lo + hi) / 2
		bits = enc.outerLoop(mid, gr, ch)
		gi := &enc.sideInfo.Granules[gr].Channels[ch].Tt
		noise := enc.calcNoise(&enc.l3Encoding[ch][gr], gi, &enc.xr[gr][ch], &enc.scaleFactor[gr][ch], &enc.l3Xmin, gr, ch)
		if noise.overCount == 0 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	if lo != hi || bits == 0 {
		bits = enc.outerLoop(hi, gr, ch)
	}
	return bits
}

// vbrPrepare resets the per-granule state vbrEncodeGranule's binary
// search will repeatedly re-derive (spec.md 6).
func (enc *Encoder) vbrPrepare(gr, ch int64) {
	enc.prepareGranule(gr, ch)
}

func (enc *Encoder) vbrIterationLoop() {
	minBits := enc.calcMinBits()
	for ch := enc.Wave.Channels - 1; ch >= 0; ch-- {
		for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
			enc.vbrPrepare(gr, ch)
			gi := &enc.sideInfo.Granules[gr].Channels[ch].Tt
			if blockEnergy(&enc.xr[gr][ch], 0, GRANULE_SIZE) == 0 {
				gi.GlobalGain = 210
				continue
			}
			maxBits := enc.calcMaxBits(ch, gr)
			if maxBits < minBits {
				maxBits = minBits
			}
			enc.vbrEncodeGranule(gr, ch, minBits, maxBits)
		}
	}
	enc.selectFrameBitrate()
	for ch := int64(0); ch < enc.Wave.Channels; ch++ {
		for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
			enc.reservoirAdjust(&enc.sideInfo.Granules[gr].Channels[ch].Tt)
		}
	}
	enc.reservoirFrameEnd()
	enc.logDebug("vbr frame encoded", "frame", enc.frameNumber, "framebits", enc.getFramebits(), "bitrateIndex", enc.Mpeg.BitrateIndex)
}
