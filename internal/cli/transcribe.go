package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kuntal14/videoContextGeneration/internal/pipeline"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [video_file]",
	Short: "Demux and transcribe a video's audio track",
	Long: `Extract a mono 16kHz track from the video and transcribe it with
word-level timestamps. Writes the CSV used by the captioning phases and
an SRT with one cue per word.

The audio directory is reset first, so stale chunks from an earlier run
never leak into the transcript.

Examples:
  vcg transcribe demo.mp4
  vcg transcribe demo.mp4 --transcriber gemini
  vcg transcribe demo.mp4 -l es`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	addTranscribeFlags(transcribeCmd)
	addVideoIDFlag(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	ctx := context.Background()

	if err := requireMediaFile(videoPath); err != nil {
		return err
	}

	transcriber, err := transcriberFromFlags(ctx, cmd)
	if err != nil {
		return err
	}

	ws, err := workspaceFromFlags(cmd, videoPath)
	if err != nil {
		return err
	}
	if err := ws.Ensure(); err != nil {
		return err
	}

	runner := pipeline.NewRunner(ws, nil, transcriber, logger)
	if err := runner.TranscribeAudio(ctx, videoPath); err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	logger.Infow("Transcript written",
		"csv", ws.TranscriptCSV(),
		"srt", ws.TranscriptSRT(),
	)
	return nil
}
