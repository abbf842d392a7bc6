package mp3

import "errors"

// Sentinel configuration errors (spec.md 7). Per-granule encoding
// failures are never errors -- the outer loop and rate-control drivers
// always converge to a valid granule and only log when they had to
// compromise.
var (
	ErrUnsupportedSampleRate = errors.New("mp3: unsupported sample rate")
	ErrUnsupportedBitrate    = errors.New("mp3: unsupported bitrate for this sample rate's MPEG version")
	ErrUnsupportedVersion    = errors.New("mp3: unsupported MPEG version")
	ErrUnsupportedChannels   = errors.New("mp3: unsupported channel count")
)
