package globalcontext

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/kuntal14/videoContextGeneration/internal/inference"
	"github.com/kuntal14/videoContextGeneration/internal/logging"
	"github.com/kuntal14/videoContextGeneration/internal/media"
	"github.com/kuntal14/videoContextGeneration/internal/store"
	"github.com/kuntal14/videoContextGeneration/internal/transcript"
)

// StoreKey is the fixed document key for the global context.
const StoreKey = "global_context"

// DefaultMaxSampleFrames bounds how many frames feed the first pass.
const DefaultMaxSampleFrames = 8

// build progress of the two-pass context builder
type State int

const (
	StateUnbuilt State = iota
	StateSampling
	StateSynthesizing
	StateBuilt
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateSampling:
		return "sampling"
	case StateSynthesizing:
		return "synthesizing"
	case StateBuilt:
		return "built"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Builder performs the two-pass global context synthesis: pass 1 describes
// a sparse sample of frames through the vision backend, pass 2 combines
// those descriptions with the full transcript into one document. A failed
// build still yields the fallback document rather than an error.
type Builder struct {
	client    inference.Client
	docs      *store.Store
	logger    *logging.Logger
	maxFrames int
	state     State
}

func NewBuilder(client inference.Client, docs *store.Store, logger *logging.Logger) *Builder {
	return &Builder{
		client:    client,
		docs:      docs,
		logger:    logger,
		maxFrames: DefaultMaxSampleFrames,
		state:     StateUnbuilt,
	}
}

func (b *Builder) State() State {
	return b.state
}

// LoadOrBuild returns the persisted context unconditionally when one
// exists and force is false; otherwise it rebuilds and overwrites.
// Freshness is caller-controlled, there is no staleness check.
func (b *Builder) LoadOrBuild(
	ctx context.Context,
	frames []media.ExtractedFrame,
	index *transcript.Index,
	force bool,
) (*GlobalContext, error) {
	if !force {
		var existing GlobalContext
		err := b.docs.Load(StoreKey, &existing)
		if err == nil {
			b.state = StateBuilt
			return &existing, nil
		}
		if err != store.ErrNotFound {
			b.logger.Warnw("Could not load cached global context, rebuilding",
				"error", err,
			)
		}
	}

	doc := b.build(ctx, frames, index)
	if err := b.docs.Save(StoreKey, doc); err != nil {
		return nil, fmt.Errorf("failed to persist global context: %w", err)
	}
	return doc, nil
}

func (b *Builder) build(
	ctx context.Context,
	frames []media.ExtractedFrame,
	index *transcript.Index,
) *GlobalContext {
	b.state = StateSampling
	sampled := SampleFrames(frames, b.maxFrames)

	b.logger.Infow("Analyzing key visual frames",
		"sampled", len(sampled),
		"total", len(frames),
	)

	descriptions := make([]string, 0, len(sampled))
	for _, frame := range sampled {
		desc := b.describeFrame(ctx, frame)
		descriptions = append(descriptions, desc)
	}

	b.state = StateSynthesizing
	b.logger.Infow("Synthesizing global context")

	doc, err := b.synthesize(ctx, strings.Join(descriptions, "\n"), index.Bucketed(10.0))
	if err != nil {
		b.logger.Errorw("Global context synthesis failed, using fallback",
			"error", err,
		)
		b.state = StateFailed
		return Fallback()
	}

	b.state = StateBuilt
	return doc
}

// pass 1: one vision call per sampled frame. A failed call degrades to a
// placeholder line so the frame still contributes to synthesis input.
func (b *Builder) describeFrame(ctx context.Context, frame media.ExtractedFrame) string {
	seconds, _ := media.ParseTimestamp(frame.Timestamp)

	placeholder := fmt.Sprintf("- At %ss: Frame at %ss: analysis failed.", frame.Timestamp, frame.Timestamp)

	imageBytes, err := os.ReadFile(frame.Path)
	if err != nil {
		b.logger.Warnw("Could not read sampled frame",
			"timestamp", frame.Timestamp,
			"error", err,
		)
		return placeholder
	}

	prompt := fmt.Sprintf(
		"Describe this video frame at %.2fs precisely. Identify people, visible text, and the setting.",
		seconds,
	)

	resp, err := b.client.Complete(ctx, inference.Request{
		Prompt:      prompt,
		Images:      [][]byte{imageBytes},
		Temperature: 0.1,
	})
	if err != nil {
		b.logger.Warnw("Frame description failed",
			"timestamp", frame.Timestamp,
			"error", err,
		)
		return placeholder
	}

	return fmt.Sprintf("- At %ss: %s", frame.Timestamp, strings.TrimSpace(resp))
}

// pass 2: a single JSON-constrained synthesis call
func (b *Builder) synthesize(
	ctx context.Context,
	frameDescriptions, transcriptText string,
) (*GlobalContext, error) {
	prompt := buildSynthesisPrompt(frameDescriptions, transcriptText)

	resp, err := b.client.Complete(ctx, inference.Request{
		Prompt:      prompt,
		JSONMode:    true,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesis call failed: %w", err)
	}

	cleaned := inference.FixInvalidEscapes(inference.CleanJSONResponse(resp))

	var doc GlobalContext
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, fmt.Errorf(
			"failed to parse synthesis response: %w (response: %s)",
			err,
			inference.TruncateString(cleaned, 200),
		)
	}

	normalize(&doc)
	return &doc, nil
}

// ensures the document's collections are non-nil so consumers and the
// persisted JSON always see the full schema
func normalize(doc *GlobalContext) {
	if doc.Entities.People == nil {
		doc.Entities.People = []Person{}
	}
	if doc.Entities.Locations == nil {
		doc.Entities.Locations = []string{}
	}
	if doc.Entities.Objects == nil {
		doc.Entities.Objects = []string{}
	}
	if doc.SpeakerMap == nil {
		doc.SpeakerMap = map[string]string{}
	}
	if doc.KeyMoments == nil {
		doc.KeyMoments = []KeyMoment{}
	}
	if doc.NarrativeStyle == "" {
		doc.NarrativeStyle = "unknown"
	}
}

// SampleFrames selects up to maxFrames frames evenly spaced across the
// plan. With fewer frames than maxFrames all of them are used; otherwise
// indices floor(i*step) for the first maxFrames-1 slots plus the final
// frame, deduplicated and sorted.
func SampleFrames(frames []media.ExtractedFrame, maxFrames int) []media.ExtractedFrame {
	if maxFrames <= 0 || len(frames) <= maxFrames {
		return frames
	}

	step := float64(len(frames)) / float64(maxFrames-1)
	picked := make(map[int]bool, maxFrames)
	for i := 0; i < maxFrames-1; i++ {
		picked[int(float64(i)*step)] = true
	}
	picked[len(frames)-1] = true

	indices := make([]int, 0, len(picked))
	for idx := range picked {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	sampled := make([]media.ExtractedFrame, 0, len(indices))
	for _, idx := range indices {
		sampled = append(sampled, frames[idx])
	}
	return sampled
}

func buildSynthesisPrompt(frameDescriptions, transcriptText string) string {
	var sb strings.Builder

	sb.WriteString("You are an expert video indexer. Combine the visual frame descriptions ")
	sb.WriteString("and the audio transcript to build a detailed Global Context.\n\n")

	sb.WriteString("VISUAL DESCRIPTIONS:\n")
	sb.WriteString(frameDescriptions)
	sb.WriteString("\n\nAUDIO TRANSCRIPT:\n")
	sb.WriteString(transcriptText)
	sb.WriteString("\n\nTASK:\n")
	sb.WriteString("Identify the primary speaker(s), their names (look for self-intros or text overlays), ")
	sb.WriteString("roles, the video's style, and key events.\n")
	sb.WriteString("CRITICAL: If someone says \"I am [Name]\" or text shows a name, use it. ")
	sb.WriteString("Do NOT use generic terms like \"narrator\" if the person is on screen.\n\n")

	sb.WriteString("Return ONLY a JSON object:\n")
	sb.WriteString(`{
  "summary": "2-3 sentence overview",
  "entities": {
    "people": [
      {
        "name": "Full name",
        "role": "speaker/subject",
        "description": "appearance/identity",
        "appearance_timestamps": [list of floats]
      }
    ],
    "locations": ["places shown"],
    "objects": ["key items"]
  },
  "narrative_style": "interview/vlog/presentation/etc",
  "speaker_map": {
    "start_time-end_time": "Speaker Name"
  },
  "key_moments": [
    {
      "timestamp": float,
      "description": "what happened"
    }
  ]
}`)

	return sb.String()
}
