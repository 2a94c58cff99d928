package caption

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/kuntal14/videoContextGeneration/internal/inference"
	"github.com/kuntal14/videoContextGeneration/internal/logging"
	"github.com/kuntal14/videoContextGeneration/internal/media"
)

// context window requested for caption calls
const captionContextWindow = 4096

// Worker captions a single frame: it builds a prompt from the global
// context, the frame's timestamp, and its local transcript window, issues
// one JSON-constrained vision call, and returns the parsed record or an
// explicit error for the scheduler to convert.
type Worker struct {
	client inference.Client
	logger *logging.Logger
}

func NewWorker(client inference.Client, logger *logging.Logger) *Worker {
	return &Worker{client: client, logger: logger}
}

// Caption produces the record for one frame. The returned record's
// Transcript field is always the caller-supplied window, never text
// echoed by the model.
func (w *Worker) Caption(
	ctx context.Context,
	frame media.ExtractedFrame,
	contextText, window string,
) (*Record, error) {
	imageBytes, err := os.ReadFile(frame.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame image: %w", err)
	}

	prompt := buildCaptionPrompt(frame.Timestamp, contextText, window)

	resp, err := w.client.Complete(ctx, inference.Request{
		Prompt:        prompt,
		Images:        [][]byte{imageBytes},
		JSONMode:      true,
		Temperature:   0.1,
		ContextWindow: captionContextWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("caption call failed: %w", err)
	}

	cleaned := inference.FixInvalidEscapes(inference.CleanJSONResponse(resp))

	var record Record
	if err := json.Unmarshal([]byte(cleaned), &record); err != nil {
		return nil, &SchemaMismatchError{Raw: resp, Err: err}
	}

	if record.Entities == nil {
		record.Entities = []string{}
	}
	if record.Actions == nil {
		record.Actions = []string{}
	}

	// provenance: the stored window is the one we queried, not whatever
	// the model chose to echo back
	record.Transcript = window

	return &record, nil
}

func buildCaptionPrompt(timestamp, contextText, window string) string {
	var sb strings.Builder

	sb.WriteString("This ahead is a general overview of what is happening in the video; ")
	sb.WriteString("use it to ground your description of the image.\n")
	sb.WriteString("<video context>")
	sb.WriteString(contextText)
	sb.WriteString("</video context>\n")
	sb.WriteString(fmt.Sprintf("Current Timestamp: %ss\n", timestamp))
	sb.WriteString(fmt.Sprintf("Transcript Context: %q\n\n", window))

	sb.WriteString("TASK: Describe this frame.\n")
	sb.WriteString("RULES:\n")
	sb.WriteString("1. If there is a person on screen, identify them using the Global Context.\n")
	sb.WriteString("2. If the person is identified and the transcript shows them speaking, they are NOT a narrator. They are the SPEAKER on screen.\n")
	sb.WriteString("3. If the speaking voice's owner is not visible in the frame, describe them as narrating off-camera; do not invent a new person.\n")
	sb.WriteString("4. Do not quote the transcript back verbatim.\n")
	sb.WriteString("5. Be concise and just describe what the image is showing.\n\n")

	sb.WriteString("Return ONLY this JSON:\n")
	sb.WriteString(`{
  "description": "Rich paragraph completely describing what the image is showing",
  "entities": ["names of people/objects"],
  "actions": ["what is happening"]
}`)

	return sb.String()
}
