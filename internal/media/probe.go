package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	ffmpegbin "github.com/kuntal14/videoContextGeneration/internal/ffmpeg"
)

// JSON output from the ffprobe packet scan
type ffprobePacketOutput struct {
	Packets []struct {
		PtsTime string `json:"pts_time"`
		Pos     string `json:"pos"`
		Flags   string `json:"flags"`
		Size    string `json:"size"`
	} `json:"packets"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe scans the first video stream for keyframe packets and reads the
// container duration. Probe failures are fatal to planning, not retried.
func Probe(videoPath string) ([]Keyframe, float64, error) {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return nil, 0, fmt.Errorf("video file not found: %s", videoPath)
	}

	ffprobePath, err := ffmpegbin.FFprobePath()
	if err != nil {
		return nil, 0, err
	}

	cmd := exec.Command(ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "packet=pts_time,pos,flags,size",
		"-show_entries", "format=duration",
		"-of", "json",
		videoPath,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return nil, 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe ffprobePacketOutput
	if err := json.Unmarshal(out.Bytes(), &probe); err != nil {
		return nil, 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	var keyframes []Keyframe
	for frameNum, packet := range probe.Packets {
		// the 'K' flag marks a keyframe packet
		if !strings.ContainsRune(packet.Flags, 'K') {
			continue
		}

		ptsTime, err := strconv.ParseFloat(packet.PtsTime, 64)
		if err != nil {
			continue
		}

		byteOffset := int64(-1)
		if packet.Pos != "" {
			if pos, err := strconv.ParseInt(packet.Pos, 10, 64); err == nil {
				byteOffset = pos
			}
		}

		size := int64(0)
		if packet.Size != "" {
			if s, err := strconv.ParseInt(packet.Size, 10, 64); err == nil {
				size = s
			}
		}

		keyframes = append(keyframes, Keyframe{
			Index:        frameNum,
			ByteOffset:   byteOffset,
			TimestampSec: ptsTime,
			SizeBytes:    size,
		})
	}

	return keyframes, duration, nil
}
