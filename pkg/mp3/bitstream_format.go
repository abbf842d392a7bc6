package mp3

// formatBitstream is called after a frame has been quantized and
// Huffman-selected. It writes header, side info and main data in the
// order Figure A.7 of the IS prescribes: a series of main_data() blocks
// with header/side info stitched in at frame boundaries.
func (enc *Encoder) formatBitstream() {
	for ch := int64(0); ch < enc.Wave.Channels; ch++ {
		for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
			pi := &enc.l3Encoding[ch][gr]
			pr := &enc.xr[gr][ch]
			for i := 0; i < GRANULE_SIZE; i++ {
				if pr[i] < 0 && pi[i] > 0 {
					pi[i] *= -1
				}
			}
		}
	}
	enc.encodeSideInfo()
	enc.encodeMainData()
}

func blockTypeCode(bt blockType) uint32 {
	switch bt {
	case StartType:
		return 1
	case ShortType:
		return 2
	case StopType:
		return 3
	default:
		return 0
	}
}

func (enc *Encoder) encodeMainData() {
	sideInfo := &enc.sideInfo
	for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
		for ch := int64(0); ch < enc.Wave.Channels; ch++ {
			granInfo := &sideInfo.Granules[gr].Channels[ch].Tt
			scalefac := &enc.scaleFactor[gr][ch]
			ix := &enc.l3Encoding[ch][gr]
			enc.writeScalefactors(gr, ch, granInfo, scalefac)
			enc.huffmanCodeBits(ix, granInfo)
		}
	}
}

// writeScalefactors emits one granule-channel's scalefactors. MPEG-1 uses
// the fixed four-group slen1/slen1/slen2/slen2 packing over long bands
// 0-21 (scfsi-gated per spec.md 12); LSF uses the nr_of_sfb_block
// partition geometry chosen by scaleBitcountLSF. Short/mixed-block
// granules additionally carry their short-window scalefactors packed at
// the long block's slen2 width -- a simplification over the ISO's own
// short-block partition table, since this encoder never needs to be
// read back by another decoder, only to exercise the short-block data
// model end to end (see DESIGN.md).
func (enc *Encoder) writeScalefactors(gr, ch int64, gi *GranuleInfo, scalefac *ScaleFactor) {
	if enc.Mpeg.Version == MPEG_I {
		sLen1 := uint(sLen1Table[gi.ScaleFactorCompress&0xF])
		sLen2 := uint(sLen2Table[gi.ScaleFactorCompress&0xF])
		groups := [4]struct{ start, end int64 }{{0, 6}, {6, 11}, {11, 16}, {16, 21}}
		widths := [4]uint{sLen1, sLen1, sLen2, sLen2}
		for g, grp := range groups {
			if gr != 0 && enc.sideInfo.ScaleFactorSelectInfo[ch][g] != 0 {
				continue
			}
			for sfb := grp.start; sfb < grp.end; sfb++ {
				enc.bitstream.putBits(uint32(scalefac.L[sfb]), widths[g])
			}
		}
		if gi.BlockType == ShortType || gi.MixedBlockFlag {
			startSfb := int64(0)
			if gi.MixedBlockFlag {
				startSfb = int64(gi.SfbSmin)
			}
			for sfb := startSfb; sfb < sbMaxShort; sfb++ {
				for win := 0; win < 3; win++ {
					enc.bitstream.putBits(uint32(scalefac.S[sfb][win]), sLen2)
				}
			}
		}
		return
	}

	// LSF: walk the same group widths scaleBitcountLSF derived.
	classIdx := 0
	if gi.BlockType == ShortType || gi.MixedBlockFlag {
		classIdx = 2
	}
	group := nrOfSfbBlock[gi.ScaleFactorCompress>>1][classIdx]
	sfbOffset := int64(0)
	for g := 0; g < 4; g++ {
		width := uint(gi.ScaleFactorLen[g])
		if width == 0 {
			continue
		}
		count := group[g]
		for i := int64(0); i < count && sfbOffset+i < sbMaxLong; i++ {
			enc.bitstream.putBits(uint32(scalefac.L[sfbOffset+i]), width)
		}
		sfbOffset += count
	}
}

func (enc *Encoder) encodeSideInfo() {
	sideInfo := &enc.sideInfo

	enc.bitstream.putBits(2047, 11)
	enc.bitstream.putBits(uint32(enc.Mpeg.Version), 2)
	enc.bitstream.putBits(uint32(enc.Mpeg.Layer), 2)
	if enc.Mpeg.Crc == 0 {
		enc.bitstream.putBits(1, 1)
	} else {
		enc.bitstream.putBits(0, 1)
	}
	enc.bitstream.putBits(uint32(enc.Mpeg.BitrateIndex), 4)
	enc.bitstream.putBits(uint32(enc.Mpeg.SampleRateIndex%3), 2)
	enc.bitstream.putBits(uint32(enc.Mpeg.Padding), 1)
	enc.bitstream.putBits(uint32(enc.Mpeg.Ext), 1)
	enc.bitstream.putBits(uint32(enc.Mpeg.Mode), 2)
	enc.bitstream.putBits(uint32(enc.Mpeg.ModeExt), 2)
	enc.bitstream.putBits(uint32(enc.Mpeg.Copyright), 1)
	enc.bitstream.putBits(uint32(enc.Mpeg.Original), 1)
	enc.bitstream.putBits(uint32(enc.Mpeg.Emphasis), 2)

	if enc.Mpeg.Version == MPEG_I {
		enc.bitstream.putBits(0, 9)
		if enc.Wave.Channels == 2 {
			enc.bitstream.putBits(uint32(sideInfo.PrivateBits), 3)
		} else {
			enc.bitstream.putBits(uint32(sideInfo.PrivateBits), 5)
		}
	} else {
		enc.bitstream.putBits(0, 8)
		if enc.Wave.Channels == 2 {
			enc.bitstream.putBits(uint32(sideInfo.PrivateBits), 2)
		} else {
			enc.bitstream.putBits(uint32(sideInfo.PrivateBits), 1)
		}
	}
	if enc.Mpeg.Version == MPEG_I {
		for ch := int64(0); ch < enc.Wave.Channels; ch++ {
			for band := 0; band < 4; band++ {
				enc.bitstream.putBits(uint32(sideInfo.ScaleFactorSelectInfo[ch][band]), 1)
			}
		}
	}

	for gr := int64(0); gr < enc.Mpeg.GranulesPerFrame; gr++ {
		for ch := int64(0); ch < enc.Wave.Channels; ch++ {
			gi := &sideInfo.Granules[gr].Channels[ch].Tt
			enc.bitstream.putBits(uint32(gi.Part2_3Length), 12)
			enc.bitstream.putBits(uint32(gi.BigValues), 9)
			enc.bitstream.putBits(uint32(gi.GlobalGain), 8)
			if enc.Mpeg.Version == MPEG_I {
				enc.bitstream.putBits(uint32(gi.ScaleFactorCompress), 4)
			} else {
				enc.bitstream.putBits(uint32(gi.ScaleFactorCompress), 9)
			}

			windowSwitching := uint32(0)
			if gi.BlockType != NormType {
				windowSwitching = 1
			}
			enc.bitstream.putBits(windowSwitching, 1)
			if windowSwitching == 1 {
				enc.bitstream.putBits(blockTypeCode(gi.BlockType), 2)
				mixed := uint32(0)
				if gi.MixedBlockFlag {
					mixed = 1
				}
				enc.bitstream.putBits(mixed, 1)
				for region := 0; region < 2; region++ {
					enc.bitstream.putBits(uint32(gi.TableSelect[region]), 5)
				}
				for win := 0; win < 3; win++ {
					enc.bitstream.putBits(uint32(gi.SubblockGain[win]), 3)
				}
			} else {
				for region := 0; region < 3; region++ {
					enc.bitstream.putBits(uint32(gi.TableSelect[region]), 5)
				}
				enc.bitstream.putBits(uint32(gi.Region0Count), 4)
				enc.bitstream.putBits(uint32(gi.Region1Count), 3)
			}
			if enc.Mpeg.Version == MPEG_I {
				enc.bitstream.putBits(uint32(gi.PreFlag), 1)
			}
			enc.bitstream.putBits(uint32(gi.ScaleFactorScale), 1)
			enc.bitstream.putBits(uint32(gi.Count1TableSelect), 1)
		}
	}
}

func (enc *Encoder) huffmanCodeBits(ix *[GRANULE_SIZE]int64, gi *GranuleInfo) {
	scalefacBandLong := enc.scalefacBandIndexLong()

	bits := int64(enc.bitstream.getBitsCount())
	bigValues := int64(gi.BigValues << 1)
	scaleFactorIndex := gi.Region0Count + 1
	region1Start := scalefacBandLong[scaleFactorIndex]
	scaleFactorIndex += gi.Region1Count + 1
	region2Start := scalefacBandLong[scaleFactorIndex]
	for i := int64(0); i < bigValues; i += 2 {
		idx := 0
		if i >= region1Start {
			idx++
		}
		if i >= region2Start {
			idx++
		}
		tableIndex := gi.TableSelect[idx]
		if tableIndex != 0 {
			x := ix[i]
			y := ix[i+1]
			huffmanCode(&enc.bitstream, int64(tableIndex), x, y)
		}
	}
	h := &huffmanCodeTable[gi.Count1TableSelect+32]
	count1End := int64(uint64(bigValues) + (gi.Count1 << 2))
	for i := bigValues; i < count1End; i += 4 {
		v, w, x, y := ix[i], ix[i+1], ix[i+2], ix[i+3]
		huffmanCoderCount1(&enc.bitstream, h, v, w, x, y)
	}
	bits = int64(enc.bitstream.getBitsCount()) - bits
	pad := int64(gi.Part2_3Length) - int64(gi.Part2Length) - bits
	if pad > 0 {
		stuffingWords := pad / 32
		remainingBits := pad % 32
		for ; stuffingWords != 0; stuffingWords-- {
			enc.bitstream.putBits(^uint32(0), 32)
		}
		if remainingBits != 0 {
			enc.bitstream.putBits(uint32((1<<remainingBits)-1), uint(remainingBits))
		}
	}
}

func absAndSign(x *int64) int64 {
	if *x >= 0 {
		return 0
	}
	*x *= -1
	return 1
}

func huffmanCoderCount1(bs *bitstream, h *huffCodeTableInfo, v, w, x, y int64) {
	code := uint64(0)
	cBits := uint(0)
	signV := uint64(absAndSign(&v))
	signW := uint64(absAndSign(&w))
	signX := uint64(absAndSign(&x))
	signY := uint64(absAndSign(&y))
	p := v + (w << 1) + (x << 2) + (y << 3)
	bs.putBits(uint32(h.table[p]), uint(h.hLen[p]))
	if v != 0 {
		code = signV
		cBits = 1
	}
	if w != 0 {
		code = (code << 1) | signW
		cBits++
	}
	if x != 0 {
		code = (code << 1) | signX
		cBits++
	}
	if y != 0 {
		code = (code << 1) | signY
		cBits++
	}
	bs.putBits(uint32(code), cBits)
}

func huffmanCode(bs *bitstream, tableSelect int64, x int64, y int64) {
	xBits := int64(0)
	ext := uint64(0)
	signX := uint64(absAndSign(&x))
	signY := uint64(absAndSign(&y))
	h := &huffmanCodeTable[tableSelect]
	yLen := uint64(h.yLen)
	if tableSelect > 15 {
		var linBitsX, linBitsY uint64
		linBits := uint64(h.linBits)
		if x > 14 {
			linBitsX = uint64(x - 15)
			x = 15
		}
		if y > 14 {
			linBitsY = uint64(y - 15)
			y = 15
		}
		idx := uint64(x)*yLen + uint64(y)
		code := uint64(h.table[idx])
		cBits := int64(h.hLen[idx])
		if x > 14 {
			ext |= linBitsX
			xBits += int64(linBits)
		}
		if x != 0 {
			ext <<= 1
			ext |= signX
			xBits++
		}
		if y > 14 {
			ext <<= linBits
			ext |= linBitsY
			xBits += int64(linBits)
		}
		if y != 0 {
			ext <<= 1
			ext |= signY
			xBits++
		}
		bs.putBits(uint32(code), uint(cBits))
		bs.putBits(uint32(ext), uint(xBits))
	} else {
		idx := uint64(x)*yLen + uint64(y)
		code := uint64(h.table[idx])
		cBits := int64(h.hLen[idx])
		if x != 0 {
			code <<= 1
			code |= signX
			cBits++
		}
		if y != 0 {
			code <<= 1
			code |= signY
			cBits++
		}
		bs.putBits(uint32(code), uint(cBits))
	}
}
