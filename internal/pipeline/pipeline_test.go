package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/kuntal14/videoContextGeneration/internal/caption"
	"github.com/kuntal14/videoContextGeneration/internal/globalcontext"
	"github.com/kuntal14/videoContextGeneration/internal/inference"
	"github.com/kuntal14/videoContextGeneration/internal/logging"
	"github.com/kuntal14/videoContextGeneration/internal/store"
	"github.com/kuntal14/videoContextGeneration/internal/transcript"
)

// fakeClient answers vision description calls with plain text, the
// synthesis call with a context document and captioning calls with a
// fixed record.
type fakeClient struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeClient) Complete(ctx context.Context, req inference.Request) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.fail {
		return "", context.DeadlineExceeded
	}

	switch {
	case req.JSONMode && len(req.Images) > 0:
		return `{"description": "a person at a desk", "entities": ["person"], "actions": ["typing"], "transcript": ""}`, nil
	case req.JSONMode:
		return `{"summary": "screen recording of a coding session", "entities": {"people": [], "objects": [], "locations": []}, "narrative_style": "tutorial", "speaker_map": {}, "key_moments": []}`, nil
	default:
		return "a desk with a monitor", nil
	}
}

func (f *fakeClient) Model() string { return "fake" }

func seedWorkspace(t *testing.T, frames []string, tokens []transcript.Token) Workspace {
	t.Helper()

	ws, err := NewWorkspace(t.TempDir(), "demo.mp4")
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if err := ws.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	for _, ts := range frames {
		path := filepath.Join(ws.FramesDir(), ts+".jpg")
		if err := os.WriteFile(path, []byte("jpeg"), 0644); err != nil {
			t.Fatalf("seeding frame %s: %v", ts, err)
		}
	}
	if tokens != nil {
		if err := transcript.SaveCSV(tokens, ws.TranscriptCSV()); err != nil {
			t.Fatalf("seeding transcript: %v", err)
		}
	}
	return ws
}

func TestRunSkipExtraction(t *testing.T) {
	frames := []string{"0.00", "1.50", "3.00"}
	tokens := []transcript.Token{
		{SegmentIdx: 0, WordIdx: 0, Word: "hello", StartSec: 1.0, EndSec: 1.2},
		{SegmentIdx: 0, WordIdx: 1, Word: "world", StartSec: 1.4, EndSec: 1.8},
	}
	ws := seedWorkspace(t, frames, tokens)

	client := &fakeClient{}
	runner := NewRunner(ws, client, nil, logging.NewNopLogger())

	report, err := runner.Run(context.Background(), Options{SkipExtraction: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if report.FramesCaptioned != 3 {
		t.Errorf("FramesCaptioned = %d, want 3", report.FramesCaptioned)
	}
	if report.Failed != 0 {
		t.Errorf("Failed = %d, want 0", report.Failed)
	}
	if report.ContextSummary != "screen recording of a coding session" {
		t.Errorf("ContextSummary = %q", report.ContextSummary)
	}
	if len(report.Samples) != 3 {
		t.Errorf("got %d samples, want 3", len(report.Samples))
	}

	// one caption record per frame, with the caller's window as
	// transcript provenance
	captions, err := store.New(ws.CaptionsDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, ts := range frames {
		var rec caption.Record
		if err := captions.Load(ts, &rec); err != nil {
			t.Errorf("missing caption record for %s: %v", ts, err)
		}
	}
	var rec caption.Record
	if err := captions.Load("1.50", &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Transcript != "hello world" {
		t.Errorf("transcript window = %q, want %q", rec.Transcript, "hello world")
	}

	// the global context document is persisted alongside the artifacts
	docs, err := store.New(ws.Dir())
	if err != nil {
		t.Fatal(err)
	}
	var gc globalcontext.GlobalContext
	if err := docs.Load(globalcontext.StoreKey, &gc); err != nil {
		t.Errorf("global context not persisted: %v", err)
	}
}

func TestRunFailsWithoutFrames(t *testing.T) {
	ws := seedWorkspace(t, nil, nil)
	runner := NewRunner(ws, &fakeClient{}, nil, logging.NewNopLogger())

	_, err := runner.Run(context.Background(), Options{SkipExtraction: true})
	if err == nil {
		t.Fatal("expected error when no frames exist")
	}
	if !strings.Contains(err.Error(), "no frames") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunDegradesWhenInferenceFails(t *testing.T) {
	frames := []string{"0.00", "2.00"}
	ws := seedWorkspace(t, frames, nil)

	client := &fakeClient{fail: true}
	runner := NewRunner(ws, client, nil, logging.NewNopLogger())

	report, err := runner.Run(context.Background(), Options{SkipExtraction: true})
	if err != nil {
		t.Fatalf("batch failures must not fail the run: %v", err)
	}
	if report.Failed != 2 {
		t.Errorf("Failed = %d, want 2", report.Failed)
	}

	// every frame still yields a record
	captions, err := store.New(ws.CaptionsDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, ts := range frames {
		var rec caption.Record
		if err := captions.Load(ts, &rec); err != nil {
			t.Errorf("missing error record for %s: %v", ts, err)
			continue
		}
		if !rec.Error {
			t.Errorf("record for %s should be flagged as an error", ts)
		}
	}
}

func TestRunReusesCachedContext(t *testing.T) {
	ws := seedWorkspace(t, []string{"0.00"}, nil)

	docs, err := store.New(ws.Dir())
	if err != nil {
		t.Fatal(err)
	}
	cached := globalcontext.GlobalContext{Summary: "cached summary", NarrativeStyle: "vlog"}
	if err := docs.Save(globalcontext.StoreKey, cached); err != nil {
		t.Fatal(err)
	}

	client := &fakeClient{}
	runner := NewRunner(ws, client, nil, logging.NewNopLogger())
	report, err := runner.Run(context.Background(), Options{SkipExtraction: true})
	if err != nil {
		t.Fatal(err)
	}
	if report.ContextSummary != "cached summary" {
		t.Errorf("expected cached context, got %q", report.ContextSummary)
	}

	// only the captioning call should have hit the backend
	if client.calls != 1 {
		t.Errorf("backend calls = %d, want 1", client.calls)
	}
}

func TestWorkspaceLayout(t *testing.T) {
	ws, err := NewWorkspace("/data/context", "clip.mp4")
	if err != nil {
		t.Fatal(err)
	}

	if got := ws.Dir(); got != filepath.Join("/data/context", "clip.mp4") {
		t.Errorf("Dir = %q", got)
	}
	if got := ws.FramesDir(); !strings.HasSuffix(got, "images") {
		t.Errorf("FramesDir = %q", got)
	}
	if got := ws.CaptionsDir(); !strings.HasSuffix(got, "images_caption") {
		t.Errorf("CaptionsDir = %q", got)
	}
	if got := ws.TranscriptCSV(); !strings.HasSuffix(got, "transcript_16k_word_ts.csv") {
		t.Errorf("TranscriptCSV = %q", got)
	}
}

func TestWorkspaceResetAudio(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), "demo.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if err := ws.Ensure(); err != nil {
		t.Fatal(err)
	}

	stale := filepath.Join(ws.AudioDir(), "old_chunk.mp3")
	if err := os.WriteFile(stale, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ws.ResetAudio(); err != nil {
		t.Fatalf("ResetAudio: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale audio file survived reset")
	}
	if _, err := os.Stat(ws.AudioDir()); err != nil {
		t.Errorf("audio dir not recreated: %v", err)
	}
}
