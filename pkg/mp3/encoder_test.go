package mp3

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckConfigRejectsUnsupportedCombination(t *testing.T) {
	_, err := CheckConfig(44100, 17)
	assert.ErrorIs(t, err, ErrUnsupportedBitrate)

	_, err = CheckConfig(1234, 128)
	assert.ErrorIs(t, err, ErrUnsupportedSampleRate)

	version, err := CheckConfig(44100, 128)
	assert.NoError(t, err)
	assert.Equal(t, MPEG_I, version)
}

func TestNewEncoderRejectsBadChannelCount(t *testing.T) {
	_, err := NewEncoder(44100, 0)
	assert.ErrorIs(t, err, ErrUnsupportedChannels)

	_, err = NewEncoder(44100, 3)
	assert.ErrorIs(t, err, ErrUnsupportedChannels)
}

func TestNewEncoderJointStereoSetsModeExt(t *testing.T) {
	enc, err := NewEncoder(44100, 2, WithJointStereo(true))
	assert.NoError(t, err)
	assert.Equal(t, JOINT_STEREO, enc.Mpeg.Mode)
	assert.Equal(t, int64(MPG_MD_MS_LR), enc.Mpeg.ModeExt)

	mono, err := NewEncoder(44100, 1, WithJointStereo(true))
	assert.NoError(t, err)
	assert.Equal(t, MONO, mono.Mpeg.Mode, "joint stereo must be ignored for mono input")
}

// TestWriteDigitalSilenceProducesFrames is a scaled-down version of
// scenario E1: 1 second of silence at MPEG-1 mono 44.1kHz CBR 128kbps
// should encode into ceil(sampleCount/1152) frames without error, and the
// non-empty output should be a whole number of bytes -- no partial frame
// ever gets flushed mid-byte.
func TestWriteDigitalSilenceProducesFrames(t *testing.T) {
	enc, err := NewEncoder(44100, 1, WithBitrateRange(32, 128))
	assert.NoError(t, err)

	// A multiple of the 1152 samples one mono MPEG-1 frame reads, so Write
	// never has to hand the polyphase filter a short final chunk.
	const sampleCount = 2304 * 5
	silence := make([]int16, sampleCount)

	var out bytes.Buffer
	err = enc.Write(&out, silence)
	assert.NoError(t, err)
	assert.Greater(t, out.Len(), 0)
	assert.Greater(t, enc.frameNumber, int64(0))
}

// TestWriteSineWaveStereoEncodesWithoutError is a scaled-down version of
// scenario E2: a short unit-amplitude 1kHz sine at 44.1kHz stereo CBR
// should encode cleanly across several frames.
func TestWriteSineWaveStereoEncodesWithoutError(t *testing.T) {
	enc, err := NewEncoder(44100, 2, WithBitrateRange(32, 128))
	assert.NoError(t, err)

	const sampleCount = 1152 * 4
	pcm := make([]int16, sampleCount*2)
	for i := 0; i < sampleCount; i++ {
		s := math.Sin(2 * math.Pi * 1000 * float64(i) / 44100)
		v := int16(s * 30000)
		pcm[2*i] = v
		pcm[2*i+1] = v
	}

	var out bytes.Buffer
	err = enc.Write(&out, pcm)
	assert.NoError(t, err)
	assert.Greater(t, out.Len(), 0)
	assert.Greater(t, enc.frameNumber, int64(0))
}

func TestWriteABRAndVBRModesEncodeWithoutError(t *testing.T) {
	pcm := make([]int16, 1152*2)
	for i := range pcm {
		pcm[i] = int16((i * 97) % 2000)
	}

	abrEnc, err := NewEncoder(44100, 1, WithVBRMode(VBRAbr), WithVBRQuality(4), WithBitrateRange(32, 160))
	assert.NoError(t, err)
	var abrOut bytes.Buffer
	assert.NoError(t, abrEnc.Write(&abrOut, pcm))
	assert.Greater(t, abrOut.Len(), 0)

	vbrEnc, err := NewEncoder(44100, 1, WithVBRMode(VBRMTRH), WithVBRQuality(4))
	assert.NoError(t, err)
	var vbrOut bytes.Buffer
	assert.NoError(t, vbrEnc.Write(&vbrOut, pcm))
	assert.Greater(t, vbrOut.Len(), 0)
}
