package transcript

import (
	"fmt"
	"sort"
	"strings"
)

// a single word with its timing, as produced by the speech-to-text stage
type Token struct {
	SegmentIdx int     `json:"segment_idx"`
	WordIdx    int     `json:"word_idx"`
	Word       string  `json:"word"`
	StartSec   float64 `json:"start_sec"`
	EndSec     float64 `json:"end_sec"`
}

// placeholders returned by windowed queries
const (
	WindowSilence     = "silence"
	WindowUnavailable = "no transcription available"
)

// DefaultWindowRadius is the half-width in seconds of the transcript
// window attached to each frame caption.
const DefaultWindowRadius = 3.0

// Index answers windowed transcript queries. Tokens are loaded once and
// sorted by start time; the index is read-only afterward, so it is safe
// for concurrent use.
type Index struct {
	tokens []Token
}

// NewIndex builds an index over the given tokens. Tokens are sorted by
// StartSec so query results are deterministic regardless of input order.
func NewIndex(tokens []Token) *Index {
	sorted := make([]Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartSec < sorted[j].StartSec
	})
	return &Index{tokens: sorted}
}

func (idx *Index) Len() int {
	return len(idx.tokens)
}

func (idx *Index) Tokens() []Token {
	return idx.tokens
}

// Window returns the words whose start time lies within radius seconds
// of ts, joined by single spaces. It returns "silence" when no words
// match and "no transcription available" when the index holds no data.
func (idx *Index) Window(ts, radius float64) string {
	if len(idx.tokens) == 0 {
		return WindowUnavailable
	}

	var words []string
	for _, tok := range idx.tokens {
		if tok.StartSec >= ts-radius && tok.StartSec <= ts+radius {
			words = append(words, tok.Word)
		}
	}

	if len(words) == 0 {
		return WindowSilence
	}
	return strings.Join(words, " ")
}

// Bucketed renders the full transcript as one line per ~bucketSec of
// speech, prefixed with the bucket's start time, for use in synthesis
// prompts. Returns "no transcription available" when empty.
func (idx *Index) Bucketed(bucketSec float64) string {
	if len(idx.tokens) == 0 {
		return WindowUnavailable
	}

	var lines []string
	var current []string
	lastTS := 0.0

	for _, tok := range idx.tokens {
		if tok.StartSec-lastTS > bucketSec && len(current) > 0 {
			lines = append(lines, fmt.Sprintf("[%ds] %s", int(lastTS), strings.Join(current, " ")))
			current = current[:0]
			lastTS = tok.StartSec
		}
		current = append(current, tok.Word)
	}

	if len(current) > 0 {
		lines = append(lines, fmt.Sprintf("[%ds] %s", int(lastTS), strings.Join(current, " ")))
	}

	return strings.Join(lines, "\n")
}
