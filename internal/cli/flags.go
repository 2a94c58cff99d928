package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kuntal14/videoContextGeneration/internal/audio"
	"github.com/kuntal14/videoContextGeneration/internal/inference"
	"github.com/kuntal14/videoContextGeneration/internal/pipeline"
	"github.com/kuntal14/videoContextGeneration/internal/transcribe"
)

// env var fallbacks for provider API keys
var providerKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

func addInferenceFlags(cmd *cobra.Command) {
	cmd.Flags().
		StringP("provider", "p", "ollama", "Inference provider (ollama, openai, anthropic, gemini)")
	cmd.Flags().
		StringP("api-key", "k", "", "Provider API key (or OPENAI_API_KEY / ANTHROPIC_API_KEY / GEMINI_API_KEY)")
	cmd.Flags().
		String("inference-url", "", "OpenAI-compatible endpoint override (or VCG_INFERENCE_URL)")
	cmd.Flags().
		StringP("model", "m", "", "Model name (default depends on provider)")
	cmd.Flags().
		Duration("timeout", 0, "Per-call inference timeout (default 2m)")
}

func addTranscribeFlags(cmd *cobra.Command) {
	cmd.Flags().
		String("transcriber", "openai", "Transcription provider (openai, gemini)")
	cmd.Flags().
		String("transcribe-key", "", "Transcription API key (defaults to the provider's env var)")
	cmd.Flags().
		StringP("language", "l", "", "Audio language hint (e.g., en, es, fr)")
	cmd.Flags().
		String("transcribe-model", "", "Transcription model (default: provider's word-timestamp model)")
	cmd.Flags().
		String("transcribe-prompt", "", "Prompt to bias transcription (names, jargon, acronyms)")
}

func addVideoIDFlag(cmd *cobra.Command) {
	cmd.Flags().
		String("video-id", "", "Workspace name for this video (default: file name)")
}

func resolveAPIKey(flagKey, provider string) (string, error) {
	if flagKey != "" {
		return flagKey, nil
	}
	envVar, ok := providerKeyEnv[provider]
	if !ok {
		// ollama does not authenticate
		return "", nil
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%s API key is required: use --api-key or set %s", provider, envVar)
}

func inferenceFromFlags(ctx context.Context, cmd *cobra.Command) (inference.Client, error) {
	provider, _ := cmd.Flags().GetString("provider")
	flagKey, _ := cmd.Flags().GetString("api-key")
	baseURL, _ := cmd.Flags().GetString("inference-url")
	model, _ := cmd.Flags().GetString("model")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if baseURL == "" {
		baseURL = os.Getenv("VCG_INFERENCE_URL")
	}

	apiKey, err := resolveAPIKey(flagKey, provider)
	if err != nil {
		return nil, err
	}

	return inference.Factory(ctx, inference.Provider(provider), apiKey, inference.Options{
		Model:   model,
		BaseURL: baseURL,
		Timeout: timeout,
	})
}

func transcriberFromFlags(ctx context.Context, cmd *cobra.Command) (transcribe.Transcriber, error) {
	provider, _ := cmd.Flags().GetString("transcriber")
	flagKey, _ := cmd.Flags().GetString("transcribe-key")
	language, _ := cmd.Flags().GetString("language")
	model, _ := cmd.Flags().GetString("transcribe-model")
	prompt, _ := cmd.Flags().GetString("transcribe-prompt")

	apiKey, err := resolveAPIKey(flagKey, provider)
	if err != nil {
		return nil, err
	}

	return transcribe.Factory(ctx, transcribe.Provider(provider), apiKey, transcribe.Options{
		Language: language,
		Model:    model,
		Prompt:   prompt,
	})
}

func workspaceFromFlags(cmd *cobra.Command, videoPath string) (pipeline.Workspace, error) {
	root, _ := cmd.Flags().GetString("output")
	videoID, _ := cmd.Flags().GetString("video-id")
	if videoID == "" {
		videoID = filepath.Base(videoPath)
	}
	return pipeline.NewWorkspace(root, videoID)
}

func requireVideoFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", path)
	}
	if !audio.IsVideoFile(path) {
		return fmt.Errorf("unsupported file type: %s (expected video file)", path)
	}
	return nil
}

func requireMediaFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", path)
	}
	if !audio.IsMediaFile(path) {
		return fmt.Errorf("unsupported file type: %s (expected audio or video file)", path)
	}
	return nil
}
