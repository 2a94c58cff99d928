package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kuntal14/videoContextGeneration/internal/caption"
	"github.com/kuntal14/videoContextGeneration/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run [video_file]",
	Short: "Run the full captioning pipeline over a video",
	Long: `Run all pipeline phases over the given video: frame extraction,
audio transcription, global context construction and per-frame
captioning. Artifacts land in <output>/<video-id>/.

Re-running reuses the cached global context; pass
--force-rebuild-context to rebuild it. Pass --skip-extraction to reuse
frames and transcript from an earlier run.

Examples:
  vcg run demo.mp4
  vcg run demo.mp4 --provider openai --model gpt-4o-mini
  vcg run demo.mp4 --skip-extraction --force-rebuild-context
  vcg run lecture.mkv --concurrency 8 -o /data/context`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	addInferenceFlags(runCmd)
	addTranscribeFlags(runCmd)
	addVideoIDFlag(runCmd)

	runCmd.Flags().
		Bool("skip-extraction", false, "Reuse frames and transcript from a previous run")
	runCmd.Flags().
		Bool("force-rebuild-context", false, "Rebuild the global context even when cached")
	runCmd.Flags().
		Int("concurrency", caption.DefaultConcurrency, "Number of parallel caption workers")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	ctx := context.Background()

	skipExtraction, _ := cmd.Flags().GetBool("skip-extraction")
	forceRebuild, _ := cmd.Flags().GetBool("force-rebuild-context")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	if !skipExtraction {
		if err := requireVideoFile(videoPath); err != nil {
			return err
		}
	}

	client, err := inferenceFromFlags(ctx, cmd)
	if err != nil {
		return err
	}

	transcriber, err := transcriberFromFlags(ctx, cmd)
	if err != nil {
		// skip-extraction runs never transcribe
		if !skipExtraction {
			return err
		}
		transcriber = nil
	}

	ws, err := workspaceFromFlags(cmd, videoPath)
	if err != nil {
		return err
	}

	logger.Infow("Starting pipeline",
		"video", videoPath,
		"workspace", ws.Dir(),
		"model", client.Model(),
		"workers", concurrency,
	)

	runner := pipeline.NewRunner(ws, client, transcriber, logger)
	report, err := runner.Run(ctx, pipeline.Options{
		VideoPath:           videoPath,
		SkipExtraction:      skipExtraction,
		ForceRebuildContext: forceRebuild,
		Concurrency:         concurrency,
	})
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	logger.Infow("Caption documents written", "dir", ws.CaptionsDir(),
		"captioned", report.FramesCaptioned, "failed", report.Failed)
	return nil
}
