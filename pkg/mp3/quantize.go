package mp3

import "math"

// loopInitialize builds the fixed-point lookup tables the quantizer's hot
// path uses instead of runtime math.Pow/math.Sqrt calls: stepTable[i] =
// 2**((127-i)/4) for the quantizer step conversion, int2idx[i] = the
// 3/4-power table used to turn a scaled magnitude into a quantized index.
func (enc *Encoder) loopInitialize() {
	for i := 127; i >= 0; i-- {
		enc.l3loop.StepTable[i] = math.Pow(2.0, float64(127-i)/4)
		if (enc.l3loop.StepTable[i] * 2) > math.MaxInt32 {
			enc.l3loop.StepTableI[i] = math.MaxInt32
		} else {
			enc.l3loop.StepTableI[i] = int32((enc.l3loop.StepTable[i] * 2) + 0.5)
		}
	}
	for i := 9999; i >= 0; i-- {
		enc.l3loop.Int2idx[i] = int64(math.Sqrt(math.Sqrt(float64(i))*float64(i)) - 0.0946 + 0.5)
	}
}

// quantize performs the stepSize quantization of xr -> ix and returns the
// maximum resulting ix value.
func (enc *Encoder) quantize(ix *[GRANULE_SIZE]int64, stepSize int64) int64 {
	ixMax := int64(0)
	var scale float64
	var scaleI int32
	if idx := stepSize + math.MaxInt8; idx >= 0 && idx < int64(len(enc.l3loop.StepTable)) {
		scale, scaleI = enc.l3loop.StepTable[idx], enc.l3loop.StepTableI[idx]
	} else {
		scale = math.Pow(2.0, -float64(stepSize)/4)
		scaleI = int32(math.Min(scale*2+0.5, math.MaxInt32))
	}
	if mulR(enc.l3loop.Xrmax, scaleI) > 165140 {
		ixMax = 16384
	} else {
		for i := 0; i < GRANULE_SIZE; i++ {
			ln := int64(mulR(int32(math.Abs(float64(enc.l3loop.Xr[i]))), scaleI))
			if ln < 10000 {
				ix[i] = enc.l3loop.Int2idx[ln]
			} else {
				dbl := (float64(enc.l3loop.Xrabs[i])) * scale * 4.656612875e-10
				ix[i] = int64(math.Sqrt(math.Sqrt(dbl) * dbl))
			}
			if ixMax < ix[i] {
				ixMax = ix[i]
			}
		}
	}
	return ixMax
}

func ixMax(ix *[GRANULE_SIZE]int64, begin uint64, end uint64) int64 {
	max := int64(0)
	for i := begin; i < end; i++ {
		if max < ix[i] {
			max = ix[i]
		}
	}
	return max
}

// calcRunLength partitions ix into the rzero/count1/big_values regions
// (spec.md 2: "Bit Counter" input partitioning).
func calcRunLength(ix *[GRANULE_SIZE]int64, codeInfo *GranuleInfo) {
	i := GRANULE_SIZE
	for ; i > 1; i -= 2 {
		if ix[i-1] == 0 && ix[i-2] == 0 {
			continue
		}
		break
	}
	codeInfo.Count1 = 0
	for ; i > 3; i -= 4 {
		if ix[i-1] <= 1 && ix[i-2] <= 1 && ix[i-3] <= 1 && ix[i-4] <= 1 {
			codeInfo.Count1++
		} else {
			break
		}
	}
	codeInfo.BigValues = uint64(i >> 1)
}

func count1BitCount(ix *[GRANULE_SIZE]int64, codeInfo *GranuleInfo) int64 {
	sum0 := int64(0)
	sum1 := int64(0)
	i := int64(codeInfo.BigValues << 1)
	for k := uint64(0); k < codeInfo.Count1; k++ {
		v, w, x, y := ix[i], ix[i+1], ix[i+2], ix[i+3]
		p := v + (w << 1) + (x << 2) + (y << 3)
		signBits := int64(0)
		for _, s := range [4]int64{v, w, x, y} {
			if s != 0 {
				signBits++
			}
		}
		sum0 += signBits + int64(huffmanCodeTable[32].hLen[p])
		sum1 += signBits + int64(huffmanCodeTable[33].hLen[p])
		i += 4
	}
	if sum0 < sum1 {
		codeInfo.Count1TableSelect = 0
		return sum0
	}
	codeInfo.Count1TableSelect = 1
	return sum1
}

var subdivideTable = [23]struct{ Region0Count, Region1Count uint64 }{
	{0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 1}, {1, 1}, {1, 1},
	{1, 2}, {2, 2}, {2, 3}, {2, 3}, {3, 4}, {3, 4}, {3, 4}, {4, 5},
	{4, 5}, {4, 6}, {5, 6}, {5, 6}, {5, 7}, {6, 7}, {6, 7},
}

// subDivide splits the big_values region into up to three Huffman-table
// regions at scalefactor-band boundaries (spec.md 2, "region0/1/2").
func (enc *Encoder) subDivide(codeInfo *GranuleInfo) {
	if codeInfo.BigValues == 0 {
		codeInfo.Region0Count = 0
		codeInfo.Region1Count = 0
		return
	}
	scalefacBandLong := enc.scalefacBandIndexLong()
	bigvaluesRegion := int64(codeInfo.BigValues * 2)
	scfbAnz := int64(0)
	for scalefacBandLong[scfbAnz] < bigvaluesRegion {
		scfbAnz++
	}
	remaining := scalefacBandLong[:]
	thiscount := int64(subdivideTable[scfbAnz].Region0Count)
	for ; thiscount != 0; thiscount-- {
		if remaining[thiscount+1] <= bigvaluesRegion {
			break
		}
	}
	codeInfo.Region0Count = uint64(thiscount)
	codeInfo.Address1 = uint64(remaining[thiscount+1])
	remaining = remaining[codeInfo.Region0Count+1:]
	thiscount = int64(subdivideTable[scfbAnz].Region1Count)
	for ; thiscount != 0; thiscount-- {
		if remaining[thiscount+1] <= bigvaluesRegion {
			break
		}
	}
	codeInfo.Region1Count = uint64(thiscount)
	codeInfo.Address2 = uint64(remaining[thiscount+1])
	codeInfo.Address3 = uint64(bigvaluesRegion)
}

func bigValuesTableSelect(ix *[GRANULE_SIZE]int64, codeInfo *GranuleInfo) {
	codeInfo.TableSelect[0], codeInfo.TableSelect[1], codeInfo.TableSelect[2] = 0, 0, 0
	if codeInfo.Address1 > 0 {
		codeInfo.TableSelect[0] = uint64(chooseTable(ix, 0, codeInfo.Address1))
	}
	if codeInfo.Address2 > codeInfo.Address1 {
		codeInfo.TableSelect[1] = uint64(chooseTable(ix, codeInfo.Address1, codeInfo.Address2))
	}
	if codeInfo.BigValues<<1 > codeInfo.Address2 {
		codeInfo.TableSelect[2] = uint64(chooseTable(ix, codeInfo.Address2, codeInfo.BigValues<<1))
	}
}

// chooseTable picks the cheapest big-values Huffman table for ix[begin,end)
// (spec.md 2). Only works against the fixed table geometry of ISO Table B.7.
func chooseTable(ix *[GRANULE_SIZE]int64, begin uint64, end uint64) int64 {
	var choice [2]int64
	var sum [2]int64
	max := ixMax(ix, begin, end)
	if max == 0 {
		return 0
	}
	if max < 15 {
		for i := int64(13); i >= 0; i-- {
			if huffmanCodeTable[i].xLen > uint(max) {
				choice[0] = i
				break
			}
		}
		sum[0] = countBit(ix, begin, end, uint64(choice[0]))
		switch choice[0] {
		case 2:
			if s := countBit(ix, begin, end, 3); s <= sum[0] {
				choice[0] = 3
			}
		case 5:
			if s := countBit(ix, begin, end, 6); s <= sum[0] {
				choice[0] = 6
			}
		case 7:
			s8 := countBit(ix, begin, end, 8)
			if s8 <= sum[0] {
				choice[0], sum[0] = 8, s8
			}
			if s9 := countBit(ix, begin, end, 9); s9 <= sum[0] {
				choice[0] = 9
			}
		case 10:
			s11 := countBit(ix, begin, end, 11)
			if s11 <= sum[0] {
				choice[0], sum[0] = 11, s11
			}
			if s12 := countBit(ix, begin, end, 12); s12 <= sum[0] {
				choice[0] = 12
			}
		case 13:
			if s15 := countBit(ix, begin, end, 15); s15 <= sum[0] {
				choice[0] = 15
			}
		}
	} else {
		max -= 15
		for i := 15; i < 24; i++ {
			if huffmanCodeTable[i].linMax >= uint(max) {
				choice[0] = int64(i)
				break
			}
		}
		for i := 24; i < 32; i++ {
			if huffmanCodeTable[i].linMax >= uint(max) {
				choice[1] = int64(i)
				break
			}
		}
		sum[0] = countBit(ix, begin, end, uint64(choice[0]))
		sum[1] = countBit(ix, begin, end, uint64(choice[1]))
		if sum[1] < sum[0] {
			choice[0] = choice[1]
		}
	}
	return choice[0]
}

func bigValuesBitCount(ix *[GRANULE_SIZE]int64, gi *GranuleInfo) int64 {
	bits := int64(0)
	if t := gi.TableSelect[0]; t != 0 {
		bits += countBit(ix, 0, gi.Address1, t)
	}
	if t := gi.TableSelect[1]; t != 0 {
		bits += countBit(ix, gi.Address1, gi.Address2, t)
	}
	if t := gi.TableSelect[2]; t != 0 {
		bits += countBit(ix, gi.Address2, gi.BigValues<<1, t)
	}
	return bits
}

func countBit(ix *[GRANULE_SIZE]int64, start uint64, end uint64, table uint64) int64 {
	if table == 0 {
		return 0
	}
	h := &huffmanCodeTable[table]
	sum := int64(0)
	yLen := int64(h.yLen)
	linBits := int64(h.linBits)
	escape := table > 15
	for i := int64(start); uint64(i) < end; i += 2 {
		x, y := ix[i], ix[i+1]
		if escape {
			if x > 14 {
				x = 15
				sum += linBits
			}
			if y > 14 {
				y = 15
				sum += linBits
			}
		}
		sum += int64(h.hLen[x*yLen+y])
		if x != 0 {
			sum++
		}
		if y != 0 {
			sum++
		}
	}
	return sum
}

// countBits is the full bit counter of spec.md 2: given a quantized index
// vector, returns its total part2_3 Huffman cost and fills in the
// region/table-select fields needed to actually emit it.
func (enc *Encoder) countBits(ix *[GRANULE_SIZE]int64, gi *GranuleInfo) int64 {
	calcRunLength(ix, gi)
	bits := count1BitCount(ix, gi)
	enc.subDivide(gi)
	bigValuesTableSelect(ix, gi)
	bits += bigValuesBitCount(ix, gi)
	return bits
}

// binSearchStepSize approximates a starting quantizerStepSize whose
// Huffman cost is close to desiredRate, by bisection over the legal step
// range (spec.md 2, "Binary-search starting step").
func (enc *Encoder) binSearchStepSize(desiredRate int64, ix *[GRANULE_SIZE]int64, codeInfo *GranuleInfo) int64 {
	next := int64(-120)
	count := int64(120)
	for {
		half := count / 2
		var bit int64
		if enc.quantize(ix, next+half) > 8192 {
			bit = 100000
		} else {
			bit = enc.countBits(ix, codeInfo)
		}
		if bit < desiredRate {
			count = half
		} else {
			next += half
			count -= half
		}
		if count <= 1 {
			break
		}
	}
	return next
}

// innerLoop raises quantizerStepSize monotonically until the Huffman cost
// of the resulting ix fits within maxBits (spec.md 2, "Inner Loop").
func (enc *Encoder) innerLoop(ix *[GRANULE_SIZE]int64, maxBits int64, codeInfo *GranuleInfo) int64 {
	if maxBits < 0 {
		codeInfo.QuantizerStepSize--
	}
	bits := int64(0)
	for {
		codeInfo.QuantizerStepSize++
		for enc.quantize(ix, codeInfo.QuantizerStepSize) > 8192 {
			codeInfo.QuantizerStepSize++
		}
		bits = enc.countBits(ix, codeInfo)
		if bits <= maxBits {
			break
		}
	}
	return bits
}

func (enc *Encoder) scalefacBandIndexLong() []int64 {
	return scalefacBandIndexLong[enc.Mpeg.SampleRateIndex][:]
}

func (enc *Encoder) scalefacBandIndexShort() []int64 {
	return scalefacBandIndexShort[enc.Mpeg.SampleRateIndex][:]
}
