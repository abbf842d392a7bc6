package mp3

// comparatorMode selects one of the nine quant_compare noise-distribution
// heuristics the outer loop uses to decide whether a new amplification
// candidate beats the current best (spec.md 4.7).
type comparatorMode int

const (
	CompareMaxNoise comparatorMode = iota
	CompareOverCount
	CompareOverOverAvg
	CompareOverAvg
	CompareTotalNoise
	CompareKlemmNoise1
	CompareKlemmNoise2
	CompareKlemmNoise3
	CompareKlemmNoise4
)

// Config carries every tunable of the quantizer/rate-control pipeline.
// It is built with DefaultConfig and mutated via Option functions; the
// zero Config is not meant to be used directly.
type Config struct {
	VBR            vbrMode
	VBRQuality     int
	Quality        int
	BitrateMin     int64
	BitrateMax     int64
	ComparatorMode comparatorMode

	MaskingLower float64
	Sfb21Extra   bool

	NoiseShaping       bool
	NoiseShapingAmp    int
	SubblockGainEnable bool

	// JointStereo switches a 2-channel encode from plain left/right to
	// mid/side coding (spec.md 12's supplemented MS stereo feature).
	// Ignored for mono input.
	JointStereo bool

	ExperimentalX int
	ExperimentalY bool
	ExperimentalZ int

	// ReservoirEnable disables reservoir borrowing entirely when false,
	// forcing every granule's part2_3_length to its mean_bits share
	// (spec.md 4.9, reservoir_size pinned at 0).
	ReservoirEnable bool

	Allow8kHz bool

	Logger *logger
}

// Option mutates a Config. Options compose: later options in a NewEncoder
// call override earlier ones touching the same field.
type Option func(*Config)

// DefaultConfig returns the baseline CBR, single-pass-comparator
// configuration the teacher's encoder effectively always ran with.
func DefaultConfig() Config {
	return Config{
		VBR:                VBROff,
		VBRQuality:         4,
		Quality:            5,
		BitrateMin:         32,
		BitrateMax:         320,
		ComparatorMode:     CompareMaxNoise,
		MaskingLower:       1.0,
		Sfb21Extra:         true,
		NoiseShaping:       true,
		NoiseShapingAmp:    1,
		SubblockGainEnable: true,
		ReservoirEnable:    true,
		Logger:             newLogger(),
	}
}

func WithVBRMode(v vbrMode) Option {
	return func(c *Config) { c.VBR = v }
}

func WithVBRQuality(q int) Option {
	return func(c *Config) { c.VBRQuality = q }
}

func WithQuality(q int) Option {
	return func(c *Config) { c.Quality = q }
}

func WithBitrateRange(min, max int64) Option {
	return func(c *Config) { c.BitrateMin, c.BitrateMax = min, max }
}

func WithComparatorMode(m comparatorMode) Option {
	return func(c *Config) { c.ComparatorMode = m }
}

func WithMaskingLower(db float64) Option {
	return func(c *Config) { c.MaskingLower = db }
}

func WithNoiseShaping(enable bool) Option {
	return func(c *Config) { c.NoiseShaping = enable }
}

func WithReservoir(enable bool) Option {
	return func(c *Config) { c.ReservoirEnable = enable }
}

func WithJointStereo(enable bool) Option {
	return func(c *Config) { c.JointStereo = enable }
}

func WithLogger(l *logger) Option {
	return func(c *Config) { c.Logger = l }
}
