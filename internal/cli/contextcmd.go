package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kuntal14/videoContextGeneration/internal/pipeline"
)

var contextCmd = &cobra.Command{
	Use:   "context [video_file]",
	Short: "Build the global video context document",
	Long: `Run the two-pass global context phase over an already-populated
workspace: sample frames are described by the vision model, then a
single synthesis call produces the context document persisted as
global_context.json.

Requires frames (and ideally a transcript) from earlier 'frames' and
'transcribe' runs. A cached document is returned as-is unless --force
is set.

Examples:
  vcg context demo.mp4
  vcg context demo.mp4 --force --provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)

	addInferenceFlags(contextCmd)
	addVideoIDFlag(contextCmd)
	contextCmd.Flags().
		Bool("force", false, "Rebuild even when a cached context exists")
}

func runContext(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	ctx := context.Background()

	force, _ := cmd.Flags().GetBool("force")

	client, err := inferenceFromFlags(ctx, cmd)
	if err != nil {
		return err
	}

	ws, err := workspaceFromFlags(cmd, videoPath)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(ws, client, nil, logger)
	gc, err := runner.BuildContext(ctx, force)
	if err != nil {
		return fmt.Errorf("global context build failed: %w", err)
	}

	logger.Infow("Global context ready",
		"summary", gc.Summary,
		"style", gc.NarrativeStyle,
	)
	return nil
}
