package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kuntal14/videoContextGeneration/internal/audio"
	"github.com/kuntal14/videoContextGeneration/internal/transcript"
)

// implements Transcriber using the OpenAI Audio API with word-level
// timestamp granularity
type OpenAITranscriber struct {
	client  openai.Client
	model   string
	options Options
}

// word entry from the verbose_json response
type whisperWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// segment from the verbose_json response
type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// verbose_json response structure from Whisper
type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Words    []whisperWord    `json:"words"`
	Segments []whisperSegment `json:"segments"`
}

func NewOpenAITranscriber(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}

	return &OpenAITranscriber{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// transcribes a single audio file into word tokens
func (t *OpenAITranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
) ([]transcript.Token, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word", "segment"},
	}

	if t.options.Language != "" {
		params.Language = openai.String(t.options.Language)
	}
	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	return parseVerboseJSONWords(resp.RawJSON())
}

func parseVerboseJSONWords(rawJSON string) ([]transcript.Token, error) {
	if rawJSON == "" {
		return nil, fmt.Errorf("empty response")
	}

	var verboseResp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &verboseResp); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	if len(verboseResp.Words) > 0 {
		return wordsToTokens(verboseResp.Words, verboseResp.Segments), nil
	}

	// older backends only report segments; spread each segment's timing
	// over its words
	var tokens []transcript.Token
	for i, seg := range verboseResp.Segments {
		words := strings.Fields(seg.Text)
		tokens = append(tokens, splitSegmentWords(i, seg.Start, seg.End, words)...)
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("no words or segments in response")
	}
	return tokens, nil
}

// assigns each word to the segment containing its start time, keeping
// word indices monotonic within a segment
func wordsToTokens(words []whisperWord, segments []whisperSegment) []transcript.Token {
	tokens := make([]transcript.Token, 0, len(words))

	segmentIdx := 0
	wordIdx := 0
	for _, w := range words {
		word := strings.TrimSpace(w.Word)
		if word == "" {
			continue
		}

		for segmentIdx < len(segments)-1 && w.Start >= segments[segmentIdx].End {
			segmentIdx++
			wordIdx = 0
		}

		tokens = append(tokens, transcript.Token{
			SegmentIdx: segmentIdx,
			WordIdx:    wordIdx,
			Word:       word,
			StartSec:   w.Start,
			EndSec:     w.End,
		})
		wordIdx++
	}

	return tokens
}

// holds the result of transcribing a chunk
type chunkResult struct {
	Index  int
	Tokens []transcript.Token
	Error  error
}

// TranscribeWithChunks transcribes pre-split audio chunks in parallel and
// merges the word tokens with chunk-offset-adjusted timestamps.
func (t *OpenAITranscriber) TranscribeWithChunks(
	ctx context.Context,
	chunks []audio.ChunkInfo,
	concurrency int,
) ([]transcript.Token, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	if concurrency <= 0 {
		concurrency = 3
	}

	workChan := make(chan audio.ChunkInfo, len(chunks))
	resultChan := make(chan chunkResult, len(chunks))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chunk := range workChan {
				tokens, err := t.Transcribe(ctx, chunk.Path)
				if err == nil {
					// adjust timestamps based on chunk offset
					offset := chunk.StartTime.Seconds()
					for j := range tokens {
						tokens[j].StartSec += offset
						tokens[j].EndSec += offset
					}
				}
				resultChan <- chunkResult{Index: chunk.Index, Tokens: tokens, Error: err}
			}
		}()
	}

	for _, chunk := range chunks {
		workChan <- chunk
	}
	close(workChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]chunkResult, 0, len(chunks))
	for result := range resultChan {
		if result.Error != nil {
			return nil, fmt.Errorf("chunk %d failed: %w", result.Index, result.Error)
		}
		results = append(results, result)
	}

	// sort by index to maintain order
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	// merge, renumbering segment indices so they stay monotonic across
	// chunk boundaries
	var allTokens []transcript.Token
	segBase := 0
	for _, r := range results {
		maxSeg := -1
		for _, tok := range r.Tokens {
			tok.SegmentIdx += segBase
			if tok.SegmentIdx > maxSeg {
				maxSeg = tok.SegmentIdx
			}
			allTokens = append(allTokens, tok)
		}
		if maxSeg >= 0 {
			segBase = maxSeg + 1
		}
	}

	return allTokens, nil
}
