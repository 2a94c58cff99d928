package transcribe

import (
	"context"
	"fmt"

	"github.com/kuntal14/videoContextGeneration/internal/transcript"
)

// interface for word-level audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]transcript.Token, error)
}

// transcription service provider
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// transcription options
type Options struct {
	Language string
	Model    string
	Prompt   string
}

// creates transcriber based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Transcriber, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, apiKey, opts)
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// splitSegmentWords expands a timed text segment into word tokens,
// spreading the segment's duration evenly across its words. Used by
// providers that only report segment-level timing.
func splitSegmentWords(segmentIdx int, startSec, endSec float64, words []string) []transcript.Token {
	if len(words) == 0 {
		return nil
	}

	perWord := (endSec - startSec) / float64(len(words))
	if perWord < 0 {
		perWord = 0
	}

	tokens := make([]transcript.Token, 0, len(words))
	for i, word := range words {
		tokens = append(tokens, transcript.Token{
			SegmentIdx: segmentIdx,
			WordIdx:    i,
			Word:       word,
			StartSec:   startSec + float64(i)*perWord,
			EndSec:     startSec + float64(i+1)*perWord,
		})
	}
	return tokens
}
