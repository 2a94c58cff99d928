package cli

import (
	"github.com/kuntal14/videoContextGeneration/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vcg",
	Short: "Context-aware video frame captioning",
	Long: `vcg turns a video into a directory of per-frame caption documents.

It extracts frames around keyframes, transcribes the audio with word
timestamps, builds a global context for the whole video in two model
passes, and then captions every frame with that context and the
transcript window around it.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringP("output", "o", "", "Workspace root directory (default ~/context)")
}
