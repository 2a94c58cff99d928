package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteSRT writes a word-timestamp SRT rendering of the transcript, one
// cue per word, as a human-readable companion to the CSV artifact.
func WriteSRT(tokens []Token, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create transcript directory: %w", err)
	}

	var sb strings.Builder
	for i, tok := range tokens {
		// index (1-based)
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// timestamps: 00:00:00,000 --> 00:00:00,000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatSRTTime(secondsToDuration(tok.StartSec)),
			formatSRTTime(secondsToDuration(tok.EndSec))))

		sb.WriteString(tok.Word)
		sb.WriteString("\n\n")
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}

func formatSRTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
