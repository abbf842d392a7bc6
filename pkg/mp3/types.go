package mp3

const (
	PI          = 3.14159265358979
	PI4         = 0.78539816339745
	PI12        = 0.26179938779915
	PI36        = 0.087266462599717
	PI64        = 0.049087385212
	SQRT2       = 1.41421356237
	LN2         = 0.69314718
	LN_TO_LOG10 = 0.2302585093
	BLKSIZE     = 1024
	/* for loop unrolling, require that HAN_SIZE%8==0 */
	HAN_SIZE      = 512
	SCALE_BLOCK   = 12
	SCALE_RANGE   = 64
	SCALE         = 32768
	SUBBAND_LIMIT = 32
	MAX_CHANNELS  = 2
	GRANULE_SIZE  = 576
	MAX_GRANULES  = 2
)

type mode int

const (
	STEREO mode = iota
	JOINT_STEREO
	DUAL_CHANNEL
	MONO
)

// modeExt selects how a JOINT_STEREO frame's two channels are coded.
// MPG_MD_LR keeps plain left/right; MPG_MD_MS_LR switches to mid/side
// (spec.md 3, "mode_ext: MPG_MD_MS_LR flag when mid/side coding is
// active").
type modeExt int64

const (
	MPG_MD_LR    modeExt = 0
	MPG_MD_MS_LR modeExt = 2
)

type emphasis int

const (
	NONE    emphasis = 0
	MU50_15 emphasis = 1
	CITT    emphasis = 3
)

// blockType enumerates the four Layer III block shapes (spec.md 3).
type blockType int

const (
	NormType blockType = iota
	StartType
	ShortType
	StopType
)

// vbrMode selects a rate-control driver (spec.md 4.10, 6).
type vbrMode int

const (
	VBROff vbrMode = iota
	VBRAbr
	VBRRH
	VBRMT
	VBRMTRH
)

type Wave struct {
	Channels   int64
	SampleRate int64
}
type MPEG struct {
	Version            mpegVersion
	Layer              int64
	GranulesPerFrame   int64
	Mode               mode
	Bitrate            int64
	Emphasis           emphasis
	Padding            int64
	BitsPerFrame       int64
	BitsPerSlot        int64
	FracSlotsPerFrame  float64
	SlotLag            float64
	WholeSlotsPerFrame int64
	BitrateIndex       int64
	SampleRateIndex    int64
	Crc                int64
	Ext                int64
	ModeExt            int64
	Copyright          int64
	Original           int64
}
type L3Loop struct {
	// Magnitudes of the spectral values
	Xr    []int32
	Xrsq  [GRANULE_SIZE]int32
	Xrabs [GRANULE_SIZE]int32
	// Maximum of xrabs array
	Xrmax int32
	// gr
	EnTot  [2]int32
	En     [2][21]int32
	Xm     [2][21]int32
	Xrmaxl [2]int32
	// 2**(-x/4) for x = -127..0
	StepTable [128]float64
	// 2**(-x/4) for x = -127..0
	StepTableI [128]int32
	// x**(3/4) for x = 0..9999
	Int2idx [10000]int64
}
type MDCT struct {
	CosL [18][36]int32
}
type Subband struct {
	Off [2]int64
	Fl  [32][64]int32
	X   [2][512]int32
}

// GranuleInfo is the per-granule-channel encoding state of spec.md 3
// ("GranuleInfo"). Field names follow the ISO/LAME naming the teacher
// already used (Part2_3Length, BigValues, ...) extended with the
// short-block/noise-shaping fields a long-block-only encoder never needed.
type GranuleInfo struct {
	BlockType         blockType
	MixedBlockFlag    bool
	GlobalGain        uint64
	QuantizerStepSize int64 // GlobalGain - 210, signed for bin search arithmetic

	ScaleFactorScale uint64 // 0 or 1
	PreFlag          uint64 // 0 or 1
	SubblockGain     [3]int64

	TableSelect       [3]uint64
	Region0Count      uint64
	Region1Count      uint64
	Count1TableSelect uint64
	Address1          uint64
	Address2          uint64
	Address3          uint64

	BigValues uint64
	Count1    uint64

	Part2Length   uint64
	Part2_3Length uint64
	Count1Bits    uint64

	ScaleFactorCompress uint64
	ScaleFactorLen      [4]uint64 // slen[0..3]

	SfbLmax uint64 // split point: long SFBs below this index
	SfbSmin uint64 // split point: short SFBs start at this index
}

// reset zeroes a GranuleInfo back to the state init_outer_loop prescribes
// (spec.md 3, "Lifecycle"), preserving BlockType/MixedBlockFlag which are
// set by the (delayed) psy/block-type decision before quantization begins.
func (gi *GranuleInfo) reset() {
	blockType := gi.BlockType
	mixed := gi.MixedBlockFlag
	*gi = GranuleInfo{BlockType: blockType, MixedBlockFlag: mixed}
	if blockType == ShortType {
		if mixed {
			gi.SfbLmax = 8
			gi.SfbSmin = 3
		}
	} else {
		gi.SfbLmax = sbPsyLong
		gi.SfbSmin = sbPsyShort
	}
}

type SideInfo struct {
	PrivateBits           uint64
	ReservoirDrain        int64
	ScaleFactorSelectInfo [MAX_CHANNELS][4]uint64
	Granules              [MAX_GRANULES]struct {
		Channels [MAX_CHANNELS]struct {
			Tt GranuleInfo
		}
	}
}
type PsyRatio struct {
	L [MAX_GRANULES][MAX_CHANNELS][sbMaxLong]float64
}
type PsyXMin struct {
	L [MAX_GRANULES][MAX_CHANNELS][sbMaxLong]float64
	S [MAX_GRANULES][MAX_CHANNELS][sbMaxShort][3]float64
}

// ScaleFactor holds the per-SFB integer scalefactors for one granule
// channel (spec.md 3): L for long bands, S for short-block windows.
type ScaleFactor struct {
	L [sbMaxLong]int32
	S [sbMaxShort][3]int32
}

// quantState is the mutable working set the outer loop snapshots and
// restores on every non-best iteration (spec.md 4.8, 9: "snapshots are
// value copies"). It bundles exactly the state amp_scalefac_bands,
// inc_scalefac_scale and inc_subblock_gain touch together, so a restore
// can never leave GranuleInfo, scalefac and xrpow out of sync.
type quantState struct {
	info     GranuleInfo
	scalefac ScaleFactor
	ix       [GRANULE_SIZE]int64
}

func (q *quantState) snapshot(info *GranuleInfo, scalefac *ScaleFactor, ix *[GRANULE_SIZE]int64) {
	q.info = *info
	q.scalefac = *scalefac
	q.ix = *ix
}

func (q *quantState) restore(info *GranuleInfo, scalefac *ScaleFactor, ix *[GRANULE_SIZE]int64) {
	*info = q.info
	*scalefac = q.scalefac
	*ix = q.ix
}

// noiseResult is calc_noise's aggregate output (spec.md 4.5).
type noiseResult struct {
	overCount  int64
	totCount   int64
	overNoise  float64
	totNoise   float64
	maxNoise   float64
	klemmNoise float64
}

type Encoder struct {
	Wave             Wave
	Mpeg             MPEG
	Config           Config
	bitstream        bitstream
	sideInfo         SideInfo
	sideInfoLen      int64
	meanBits         int64
	ratio            PsyRatio
	l3Xmin           PsyXMin
	scaleFactor      [MAX_GRANULES][MAX_CHANNELS]ScaleFactor
	buffer           [2]*int16
	PerceptualEnergy [2][2]float64
	msEnergyRatio    [MAX_GRANULES]float64
	l3Encoding       [2][2][GRANULE_SIZE]int64
	l3SubbandSamples [2][3][18][32]int32
	mdctFrequency    [2][2][GRANULE_SIZE]int32
	xr               [MAX_GRANULES][MAX_CHANNELS][GRANULE_SIZE]float64
	reservoirSize    int64
	reservoirMaxSize int64
	l3loop           L3Loop
	mdct             MDCT
	subband          Subband

	// oldValue/currentStep are not read or written anywhere:
	// binSearchStepSize starts every granule-channel from the same fixed
	// search range, not from a seed carried over from the previous one.
	oldValue    [MAX_CHANNELS]int64
	currentStep [MAX_CHANNELS]int64

	// blockTypeOld implements the one-granule psy delay line (spec.md 5,
	// 9): the decision for granule N is made from granule N+1's data, so
	// the driver holds the previous granule's chosen type here.
	blockTypeOld [MAX_CHANNELS]blockType

	frameNumber int64
}
