package globalcontext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/kuntal14/videoContextGeneration/internal/inference"
	"github.com/kuntal14/videoContextGeneration/internal/logging"
	"github.com/kuntal14/videoContextGeneration/internal/media"
	"github.com/kuntal14/videoContextGeneration/internal/store"
	"github.com/kuntal14/videoContextGeneration/internal/transcript"
)

type fakeClient struct {
	mu      sync.Mutex
	calls   []inference.Request
	respond func(req inference.Request) (string, error)
}

func (f *fakeClient) Complete(ctx context.Context, req inference.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.respond(req)
}

func (f *fakeClient) Model() string { return "fake" }

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

const validContextJSON = `{
  "summary": "A cooking tutorial.",
  "entities": {
    "people": [{"name": "Ana", "role": "speaker", "description": "chef", "appearance_timestamps": [1.0]}],
    "locations": ["kitchen"],
    "objects": ["pan"]
  },
  "narrative_style": "tutorial",
  "speaker_map": {"0.0-30.0": "Ana"},
  "key_moments": [{"timestamp": 5.0, "description": "intro"}]
}`

func writeFrames(t *testing.T, n int) []media.ExtractedFrame {
	t.Helper()
	dir := t.TempDir()
	frames := make([]media.ExtractedFrame, n)
	for i := range frames {
		ts := media.FormatTimestamp(float64(i))
		path := filepath.Join(dir, ts+".jpg")
		if err := os.WriteFile(path, []byte("jpegdata"), 0644); err != nil {
			t.Fatal(err)
		}
		frames[i] = media.ExtractedFrame{Timestamp: ts, Path: path}
	}
	return frames
}

func newTestBuilder(t *testing.T, client inference.Client) (*Builder, *store.Store) {
	t.Helper()
	docs, err := store.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewBuilder(client, docs, logging.NewNopLogger()), docs
}

func TestSampleFramesFewerThanMax(t *testing.T) {
	frames := writeFrames(t, 5)
	sampled := SampleFrames(frames, 8)
	if len(sampled) != 5 {
		t.Errorf("sampled %d frames, want all 5", len(sampled))
	}
}

func TestSampleFramesEvenSpread(t *testing.T) {
	frames := writeFrames(t, 20)
	sampled := SampleFrames(frames, 8)

	if len(sampled) > 8 {
		t.Errorf("sampled %d frames, want at most 8", len(sampled))
	}
	if sampled[0].Timestamp != frames[0].Timestamp {
		t.Errorf("first sampled frame = %s, want %s", sampled[0].Timestamp, frames[0].Timestamp)
	}
	if sampled[len(sampled)-1].Timestamp != frames[19].Timestamp {
		t.Error("final frame not included in sample")
	}

	for i := 1; i < len(sampled); i++ {
		ti, _ := media.ParseTimestamp(sampled[i-1].Timestamp)
		tj, _ := media.ParseTimestamp(sampled[i].Timestamp)
		if tj <= ti {
			t.Errorf("sampled frames not sorted: %v after %v", tj, ti)
		}
	}
}

func TestBuildTwoPassProtocol(t *testing.T) {
	frames := writeFrames(t, 3)
	index := transcript.NewIndex([]transcript.Token{
		{Word: "hello", StartSec: 0.2},
		{Word: "viewers", StartSec: 0.6},
	})

	client := &fakeClient{respond: func(req inference.Request) (string, error) {
		if req.JSONMode {
			return validContextJSON, nil
		}
		return "a person waves", nil
	}}
	builder, _ := newTestBuilder(t, client)

	doc, err := builder.LoadOrBuild(context.Background(), frames, index, false)
	if err != nil {
		t.Fatalf("LoadOrBuild error: %v", err)
	}

	// 3 vision calls then 1 synthesis call
	if client.callCount() != 4 {
		t.Fatalf("made %d inference calls, want 4", client.callCount())
	}
	for i := 0; i < 3; i++ {
		if len(client.calls[i].Images) != 1 {
			t.Errorf("pass-1 call %d carried %d images, want 1", i, len(client.calls[i].Images))
		}
		if client.calls[i].JSONMode {
			t.Errorf("pass-1 call %d requested JSON mode", i)
		}
	}
	synthesis := client.calls[3]
	if !synthesis.JSONMode {
		t.Error("synthesis call did not request JSON mode")
	}
	if len(synthesis.Images) != 0 {
		t.Error("synthesis call carried images")
	}
	if !strings.Contains(synthesis.Prompt, "a person waves") {
		t.Error("synthesis prompt missing pass-1 descriptions")
	}
	if !strings.Contains(synthesis.Prompt, "hello viewers") {
		t.Error("synthesis prompt missing transcript")
	}

	if doc.Summary != "A cooking tutorial." {
		t.Errorf("summary = %q", doc.Summary)
	}
	if builder.State() != StateBuilt {
		t.Errorf("state = %s, want built", builder.State())
	}
}

func TestBuildFallbackOnSynthesisFailure(t *testing.T) {
	frames := writeFrames(t, 2)
	index := transcript.NewIndex(nil)

	client := &fakeClient{respond: func(req inference.Request) (string, error) {
		if req.JSONMode {
			return "", fmt.Errorf("backend unavailable")
		}
		return "desc", nil
	}}
	builder, docs := newTestBuilder(t, client)

	doc, err := builder.LoadOrBuild(context.Background(), frames, index, false)
	if err != nil {
		t.Fatalf("fallback path must not error, got %v", err)
	}
	if doc.NarrativeStyle != "unknown" {
		t.Errorf("fallback narrative_style = %q, want unknown", doc.NarrativeStyle)
	}
	if len(doc.Entities.People) != 0 {
		t.Error("fallback document should have no people")
	}
	if builder.State() != StateFailed {
		t.Errorf("state = %s, want failed", builder.State())
	}

	// the fallback document is still persisted
	if !docs.Exists(StoreKey) {
		t.Error("fallback document was not persisted")
	}
}

func TestBuildFallbackOnUnparsableSynthesis(t *testing.T) {
	frames := writeFrames(t, 1)
	client := &fakeClient{respond: func(req inference.Request) (string, error) {
		if req.JSONMode {
			return "definitely not json", nil
		}
		return "desc", nil
	}}
	builder, _ := newTestBuilder(t, client)

	doc, err := builder.LoadOrBuild(context.Background(), frames, transcript.NewIndex(nil), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.NarrativeStyle != "unknown" {
		t.Errorf("expected fallback document, got %+v", doc)
	}
}

func TestFailedFrameDescriptionStillIncluded(t *testing.T) {
	frames := writeFrames(t, 2)
	client := &fakeClient{respond: func(req inference.Request) (string, error) {
		if req.JSONMode {
			return validContextJSON, nil
		}
		return "", fmt.Errorf("vision call failed")
	}}
	builder, _ := newTestBuilder(t, client)

	if _, err := builder.LoadOrBuild(context.Background(), frames, transcript.NewIndex(nil), false); err != nil {
		t.Fatal(err)
	}

	synthesis := client.calls[len(client.calls)-1]
	if !strings.Contains(synthesis.Prompt, "analysis failed") {
		t.Error("failed frames were dropped from synthesis input instead of degrading to a placeholder")
	}
}

func TestLoadOrBuildIsIdempotent(t *testing.T) {
	frames := writeFrames(t, 2)
	index := transcript.NewIndex(nil)

	client := &fakeClient{respond: func(req inference.Request) (string, error) {
		if req.JSONMode {
			return validContextJSON, nil
		}
		return "desc", nil
	}}
	builder, _ := newTestBuilder(t, client)

	first, err := builder.LoadOrBuild(context.Background(), frames, index, false)
	if err != nil {
		t.Fatal(err)
	}
	callsAfterBuild := client.callCount()

	second, err := builder.LoadOrBuild(context.Background(), frames, index, false)
	if err != nil {
		t.Fatal(err)
	}

	if client.callCount() != callsAfterBuild {
		t.Errorf("second LoadOrBuild issued %d extra inference calls",
			client.callCount()-callsAfterBuild)
	}
	if first.Summary != second.Summary || first.NarrativeStyle != second.NarrativeStyle {
		t.Errorf("cached document differs: %+v vs %+v", first, second)
	}
}

func TestForceRebuildIssuesNewCalls(t *testing.T) {
	frames := writeFrames(t, 1)
	index := transcript.NewIndex(nil)

	client := &fakeClient{respond: func(req inference.Request) (string, error) {
		if req.JSONMode {
			return validContextJSON, nil
		}
		return "desc", nil
	}}
	builder, _ := newTestBuilder(t, client)

	if _, err := builder.LoadOrBuild(context.Background(), frames, index, false); err != nil {
		t.Fatal(err)
	}
	callsAfterBuild := client.callCount()

	if _, err := builder.LoadOrBuild(context.Background(), frames, index, true); err != nil {
		t.Fatal(err)
	}
	if client.callCount() <= callsAfterBuild {
		t.Error("force rebuild did not issue new inference calls")
	}
}
