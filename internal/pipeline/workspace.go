package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is the per-video directory layout every phase reads and
// writes. All paths derive from Root/VideoID so two runs over the same
// video land in the same place and cached artifacts are found again.
//
//	<root>/<video-id>/
//	    images/           extracted frames, <timestamp>.jpg
//	    audio/            demuxed track + word-timestamp CSV/SRT
//	    images_caption/   one caption record per frame, <timestamp>.json
//	    global_context.json, keyframes.json, frame_plan.json
type Workspace struct {
	Root    string
	VideoID string
}

// NewWorkspace builds the layout rooted at root. An empty root falls
// back to <home>/context.
func NewWorkspace(root, videoID string) (Workspace, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Workspace{}, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		root = filepath.Join(home, "context")
	}
	return Workspace{Root: root, VideoID: videoID}, nil
}

// Dir is the per-video directory holding all artifacts.
func (w Workspace) Dir() string {
	return filepath.Join(w.Root, w.VideoID)
}

// FramesDir holds the extracted frame images.
func (w Workspace) FramesDir() string {
	return filepath.Join(w.Dir(), "images")
}

// AudioDir holds the demuxed track and the transcript artifacts.
func (w Workspace) AudioDir() string {
	return filepath.Join(w.Dir(), "audio")
}

// CaptionsDir holds one JSON record per captioned frame.
func (w Workspace) CaptionsDir() string {
	return filepath.Join(w.Dir(), "images_caption")
}

func (w Workspace) AudioPath() string {
	return filepath.Join(w.AudioDir(), "transcript_16k.wav")
}

func (w Workspace) TranscriptCSV() string {
	return filepath.Join(w.AudioDir(), "transcript_16k_word_ts.csv")
}

func (w Workspace) TranscriptSRT() string {
	return filepath.Join(w.AudioDir(), "transcript_16k_word_ts.srt")
}

// Ensure creates the directory tree.
func (w Workspace) Ensure() error {
	for _, dir := range []string{w.FramesDir(), w.AudioDir(), w.CaptionsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create workspace directory: %w", err)
		}
	}
	return nil
}

// ResetAudio deletes and recreates the audio directory so a fresh
// transcription never mixes with stale chunks or transcripts.
func (w Workspace) ResetAudio() error {
	if err := os.RemoveAll(w.AudioDir()); err != nil {
		return fmt.Errorf("failed to reset audio directory: %w", err)
	}
	if err := os.MkdirAll(w.AudioDir(), 0755); err != nil {
		return fmt.Errorf("failed to recreate audio directory: %w", err)
	}
	return nil
}
