package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kuntal14/videoContextGeneration/internal/pipeline"
)

var framesCmd = &cobra.Command{
	Use:   "frames [video_file]",
	Short: "Extract the frame plan images from a video",
	Long: `Probe the video's keyframes, derive the frame plan and write one
JPEG per planned timestamp into the workspace. No model calls are made.

Examples:
  vcg frames demo.mp4
  vcg frames demo.mp4 --concurrency 8 -o /data/context`,
	Args: cobra.ExactArgs(1),
	RunE: runFrames,
}

func init() {
	rootCmd.AddCommand(framesCmd)

	addVideoIDFlag(framesCmd)
	framesCmd.Flags().
		Int("concurrency", 4, "Number of parallel frame extraction workers")
}

func runFrames(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	ctx := context.Background()

	if err := requireVideoFile(videoPath); err != nil {
		return err
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")

	ws, err := workspaceFromFlags(cmd, videoPath)
	if err != nil {
		return err
	}
	if err := ws.Ensure(); err != nil {
		return err
	}

	runner := pipeline.NewRunner(ws, nil, nil, logger)
	if err := runner.ExtractFrames(ctx, videoPath, concurrency); err != nil {
		return fmt.Errorf("frame extraction failed: %w", err)
	}

	logger.Infow("Frames written", "dir", ws.FramesDir())
	return nil
}
