package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lamego",
	Short: "An MPEG Layer III audio encoder",
	Long:  "lamego encodes WAV audio into MP3 (MPEG-1/2/2.5 Layer III) files.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

var debug bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func Execute() error {
	return rootCmd.Execute()
}
