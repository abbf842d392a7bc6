package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-audio/wav"
	"github.com/spf13/cobra"

	"github.com/soundstage/lamego/pkg/mp3"
)

var infoCmd = &cobra.Command{
	Use:   "info <input.wav>",
	Short: "Report the MPEG version/bitrate constraints a WAV file would encode under",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(args[0])
	},
	DisableFlagsInUseLine: true,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().IntVar(&bitrate, "bitrate", 128, "Bitrate in kbps to validate against this file's samplerate")
}

func runInfo(inFile string) error {
	inputData, err := os.ReadFile(inFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inFile, err)
	}

	wavDecoder := wav.NewDecoder(bytes.NewReader(inputData))
	if err := wavDecoder.FwdToPCM(); err != nil {
		return fmt.Errorf("reading WAV header of %s: %w", inFile, err)
	}

	format := wavDecoder.Format()
	version, err := mp3.CheckConfig(format.SampleRate, bitrate)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d Hz, %d channel(s), %d-bit, mpeg version %d at %d kbps\n",
		inFile, format.SampleRate, format.NumChannels, wavDecoder.BitDepth, version, bitrate)
	return nil
}
