package audio

import "testing"

func TestIsVideoFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"lecture.mp4", true},
		{"clip.MKV", true},
		{"demo.webm", true},
		{"track.mp3", false},
		{"notes.txt", false},
		{"noext", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsVideoFile(tt.path); got != tt.want {
				t.Errorf("IsVideoFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsAudioFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"track.mp3", true},
		{"voice.WAV", true},
		{"podcast.m4a", true},
		{"lecture.mp4", false},
		{"notes.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsAudioFile(tt.path); got != tt.want {
				t.Errorf("IsAudioFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsMediaFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"lecture.mp4", true},
		{"track.mp3", true},
		{"notes.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsMediaFile(tt.path); got != tt.want {
				t.Errorf("IsMediaFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestDefaultCompressionOptions(t *testing.T) {
	opts := DefaultCompressionOptions()

	if opts.Format != "mp3" {
		t.Errorf("Format = %q, want %q", opts.Format, "mp3")
	}
	if opts.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", opts.SampleRate)
	}
	if opts.Channels != 1 {
		t.Errorf("Channels = %d, want 1", opts.Channels)
	}
	if opts.Bitrate == "" {
		t.Error("Bitrate is empty, want a default")
	}
}
