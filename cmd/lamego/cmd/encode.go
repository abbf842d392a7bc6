package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"github.com/go-audio/wav"
	"github.com/spf13/cobra"

	"github.com/soundstage/lamego/pkg/mp3"
)

var (
	bitrate     int
	vbrQuality  int
	useVBR      bool
	useABR      bool
	jointStereo bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode <input.wav> <output.mp3>",
	Short: "Encode a WAV file to MP3",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEncode(args[0], args[1])
	},
	DisableFlagsInUseLine: true,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().IntVar(&bitrate, "bitrate", 128, "Target bitrate in kbps (CBR/ABR)")
	encodeCmd.Flags().IntVar(&vbrQuality, "vbr-quality", 4, "Quality 0-9; ABR floors each granule at this many tenths of its share of the frame (unused by VBR)")
	encodeCmd.Flags().BoolVar(&useVBR, "vbr", false, "Use variable bitrate encoding")
	encodeCmd.Flags().BoolVar(&useABR, "abr", false, "Use average bitrate encoding")
	encodeCmd.Flags().BoolVar(&jointStereo, "joint-stereo", false, "Encode stereo input as mid/side")
}

func runEncode(inFile, outFile string) error {
	if filepath.Ext(inFile) != ".wav" {
		return fmt.Errorf("input file %q must be a WAV file", inFile)
	}

	inputData, err := os.ReadFile(inFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inFile, err)
	}

	wavDecoder := wav.NewDecoder(bytes.NewReader(inputData))
	wavBuffer, err := wavDecoder.FullPCMBuffer()
	if err != nil {
		return fmt.Errorf("decoding WAV file %s: %w", inFile, err)
	}

	decodedData := make([]int16, len(wavBuffer.Data))
	for i, val := range wavBuffer.Data {
		decodedData[i] = int16(val)
	}

	opts := []mp3.Option{
		mp3.WithBitrateRange(32, int64(bitrate)),
		mp3.WithJointStereo(jointStereo),
	}
	switch {
	case useVBR:
		opts = append(opts, mp3.WithVBRMode(mp3.VBRMTRH), mp3.WithVBRQuality(vbrQuality))
	case useABR:
		opts = append(opts, mp3.WithVBRMode(mp3.VBRAbr), mp3.WithVBRQuality(vbrQuality))
	}
	level := charmlog.FatalLevel
	if debug {
		level = charmlog.DebugLevel
	}
	opts = append(opts, mp3.WithLogger(mp3.NewLoggerTo(os.Stderr, level)))

	enc, err := mp3.NewEncoder(wavBuffer.Format.SampleRate, wavBuffer.Format.NumChannels, opts...)
	if err != nil {
		return fmt.Errorf("configuring encoder: %w", err)
	}

	out, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outFile, err)
	}
	defer out.Close()

	if err := enc.Write(out, decodedData); err != nil {
		return fmt.Errorf("encoding %s: %w", outFile, err)
	}

	logger.Info("encoded",
		"input", inFile,
		"output", outFile,
		"samplerate", wavBuffer.Format.SampleRate,
		"channels", wavBuffer.Format.NumChannels,
	)
	return nil
}
