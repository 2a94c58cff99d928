package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func writeTempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestTranscribeFlagsParse(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addTranscribeFlags(cmd)

	err := cmd.Flags().Parse([]string{
		"--transcriber", "openai",
		"--language", "en",
		"--transcribe-model", "gpt-4o-transcribe",
		"--transcribe-prompt", "Kubernetes, etcd",
	})
	if err != nil {
		t.Fatalf("flag parse error: %v", err)
	}

	if model, _ := cmd.Flags().GetString("transcribe-model"); model != "gpt-4o-transcribe" {
		t.Errorf("transcribe-model = %q, want gpt-4o-transcribe", model)
	}
	if prompt, _ := cmd.Flags().GetString("transcribe-prompt"); prompt != "Kubernetes, etcd" {
		t.Errorf("transcribe-prompt = %q, want Kubernetes, etcd", prompt)
	}
	if language, _ := cmd.Flags().GetString("language"); language != "en" {
		t.Errorf("language = %q, want en", language)
	}
}

func TestRequireVideoFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr string
	}{
		{name: "mp4 accepted", file: "lecture.mp4"},
		{name: "mkv accepted", file: "clip.mkv"},
		{name: "audio rejected", file: "track.mp3", wantErr: "expected video file"},
		{name: "text rejected", file: "notes.txt", wantErr: "unsupported file type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, tt.file)
			err := requireVideoFile(path)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("requireVideoFile(%q) = %v, want nil", tt.file, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("requireVideoFile(%q) = %v, want error containing %q", tt.file, err, tt.wantErr)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		err := requireVideoFile(filepath.Join(t.TempDir(), "gone.mp4"))
		if err == nil || !strings.Contains(err.Error(), "file not found") {
			t.Errorf("got %v, want file not found error", err)
		}
	})
}

func TestRequireMediaFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr string
	}{
		{name: "video accepted", file: "lecture.mp4"},
		{name: "audio accepted", file: "track.mp3"},
		{name: "text rejected", file: "notes.txt", wantErr: "expected audio or video file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, tt.file)
			err := requireMediaFile(path)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("requireMediaFile(%q) = %v, want nil", tt.file, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("requireMediaFile(%q) = %v, want error containing %q", tt.file, err, tt.wantErr)
			}
		})
	}
}
