package mp3

import "math"

// Static, read-only tables shared by every encoder instance. Built once at
// package init and never mutated from the hot path (spec.md 4.1, 9).

// sampleRates maps the encoder's samplerate index (0-8, three per version)
// -> Hz. Index%3 is the bitstream's 2-bit samplerate field within a version.
var sampleRates = [9]int64{
	44100, 48000, 32000, // MPEG-1
	22050, 24000, 16000, // MPEG-2
	11025, 12000, 8000, // MPEG-2.5
}

// bitRates indexes [bitrateIndex][version] -> kbps. Index 0 is "free
// format" (unsupported here); MPEG-2/2.5 share one column since Layer III
// LSF bitrates are identical for both.
var bitRates = [16][4]int64{
	{0, 0, 0, 0},
	{32, 8, 8, 32},
	{40, 16, 16, 48},
	{48, 24, 24, 56},
	{56, 32, 32, 64},
	{64, 40, 40, 80},
	{80, 48, 48, 96},
	{96, 56, 56, 112},
	{112, 64, 64, 128},
	{128, 80, 80, 160},
	{160, 96, 96, 192},
	{192, 112, 112, 224},
	{224, 128, 128, 256},
	{256, 144, 144, 320},
	{320, 160, 160, 384},
	{0, 0, 0, 0},
}

const (
	sbMaxLong  = 22 // total long-block scalefactor bands
	sbMaxShort = 13 // total short-block scalefactor bands (per window)
	sbPsyLong  = 21 // sfb_lmax for a pure long block
	sbPsyShort = 12 // sfb_smin..sbPsyShort is the short range for a pure short block
)

// scalefacBandLongWidths / scalefacBandShortWidths give the width, in MDCT
// bins, of each scalefactor band per samplerate index. These are the
// standard ISO/IEC 11172-3 Table B.8 partitions (the same data every Layer
// III encoder/decoder carries); cumulative boundaries are derived once in
// init() into scalefacBandIndexLong/Short, mirroring the teacher's existing
// scaleFactorBandIndex shape (boundaries, not widths).
var scalefacBandLongWidths = [9][sbMaxLong]int64{
	{4, 4, 4, 4, 4, 4, 6, 6, 8, 8, 10, 12, 16, 20, 24, 28, 34, 42, 50, 54, 76, 158},  // 44100
	{4, 4, 4, 4, 4, 4, 6, 6, 6, 8, 10, 12, 16, 18, 22, 28, 34, 40, 46, 54, 54, 192},  // 48000
	{4, 4, 4, 4, 4, 4, 6, 6, 8, 10, 12, 16, 20, 24, 30, 38, 46, 56, 68, 84, 102, 26}, // 32000
	{6, 6, 6, 6, 6, 6, 8, 10, 14, 18, 26, 32, 42, 50, 54, 76, 158, 0, 0, 0, 0, 0},    // 22050 (LSF placeholder)
	{6, 6, 6, 6, 6, 6, 8, 10, 14, 18, 26, 32, 42, 50, 54, 76, 158, 0, 0, 0, 0, 0},    // 24000 (LSF placeholder)
	{6, 6, 6, 6, 6, 6, 8, 10, 14, 18, 26, 32, 42, 50, 54, 76, 158, 0, 0, 0, 0, 0},    // 16000 (LSF placeholder)
	{6, 6, 6, 6, 6, 6, 8, 10, 14, 18, 26, 32, 42, 50, 54, 76, 158, 0, 0, 0, 0, 0},    // 11025
	{6, 6, 6, 6, 6, 6, 8, 10, 14, 18, 26, 32, 42, 50, 54, 76, 158, 0, 0, 0, 0, 0},    // 12000
	{6, 6, 6, 6, 6, 6, 8, 10, 14, 18, 26, 32, 42, 50, 54, 76, 158, 0, 0, 0, 0, 0},    // 8000
}

var scalefacBandShortWidths = [9][sbMaxShort]int64{
	{4, 4, 4, 4, 6, 8, 10, 12, 14, 18, 22, 30, 56}, // 44100
	{4, 4, 4, 4, 6, 6, 10, 12, 14, 16, 20, 26, 66}, // 48000
	{4, 4, 4, 4, 6, 8, 12, 16, 20, 26, 34, 42, 12}, // 32000
	{4, 4, 4, 6, 8, 10, 12, 14, 18, 22, 30, 56, 0}, // 22050 (LSF placeholder)
	{4, 4, 4, 6, 8, 10, 12, 14, 18, 22, 30, 56, 0}, // 24000 (LSF placeholder)
	{4, 4, 4, 6, 8, 10, 12, 14, 18, 22, 30, 56, 0}, // 16000 (LSF placeholder)
	{4, 4, 4, 6, 8, 10, 12, 14, 18, 22, 30, 56, 0}, // 11025
	{4, 4, 4, 6, 8, 10, 12, 14, 18, 22, 30, 56, 0}, // 12000
	{4, 4, 4, 6, 8, 10, 12, 14, 18, 22, 30, 56, 0}, // 8000
}

// scalefacBandIndexLong/Short are the cumulative boundaries used
// everywhere else in the package (the teacher's scaleFactorBandIndex
// shape): index sfb and sfb+1 bound band sfb.
var scalefacBandIndexLong [9][sbMaxLong + 1]int64
var scalefacBandIndexShort [9][sbMaxShort + 1]int64

// nrOfSfbBlock selects, for LSF (MPEG-2/2.5), one of nine scalefactor
// partition geometries by [scalefac_compress>>?][block type class],
// mirroring LAME's nr_of_sfb_block[][][4]: long-only, long+short mixed
// with two long/short splits, and short-only. Each row gives the width,
// in scalefactors, of the four slen groups.
var nrOfSfbBlock = [6][3][4]int64{
	{{6, 5, 5, 5}, {9, 9, 9, 9}, {6, 9, 9, 9}},
	{{6, 5, 7, 3}, {9, 9, 12, 6}, {6, 9, 12, 6}},
	{{11, 10, 0, 0}, {18, 18, 0, 0}, {15, 18, 0, 0}},
	{{7, 7, 7, 0}, {12, 12, 12, 0}, {6, 15, 12, 0}},
	{{6, 6, 6, 3}, {12, 9, 9, 6}, {6, 12, 9, 6}},
	{{8, 8, 5, 0}, {15, 12, 9, 0}, {6, 18, 9, 0}},
}

// sLen1Table/sLen2Table: MPEG-1 scalefac_compress (0..15) -> bit width of
// the first/second pair of slen groups (ISO Table B.9).
var sLen1Table = [16]int64{0, 0, 0, 0, 3, 1, 1, 1, 2, 2, 2, 3, 3, 3, 4, 4}
var sLen2Table = [16]int64{0, 1, 2, 3, 0, 1, 2, 3, 1, 2, 3, 1, 2, 3, 2, 3}

// pretab is the fixed pre-emphasis table applied to long-block
// scalefactors when preflag is set (ISO Table B.6).
var pretab = [sbMaxLong]int64{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 3, 3, 3, 2, 0, 0, 0, 0}

// ipow20Table[i] = 2^(0.25*(i-210)) for i in [0,400), the fixed table
// stepFromGain reads instead of a runtime math.Pow call (spec.md 9,
// "preserve exactly").
var ipow20Table [400]float64

func init() {
	for sr := 0; sr < 9; sr++ {
		cum := int64(0)
		for sfb := 0; sfb < sbMaxLong; sfb++ {
			scalefacBandIndexLong[sr][sfb] = cum
			cum += scalefacBandLongWidths[sr][sfb]
		}
		scalefacBandIndexLong[sr][sbMaxLong] = cum

		cum = 0
		for sfb := 0; sfb < sbMaxShort; sfb++ {
			scalefacBandIndexShort[sr][sfb] = cum
			cum += scalefacBandShortWidths[sr][sfb]
		}
		scalefacBandIndexShort[sr][sbMaxShort] = cum
	}
	for i := range ipow20Table {
		ipow20Table[i] = math.Exp2(0.25 * float64(i-210))
	}
}
