package media

import (
	"errors"
	"fmt"
	"strconv"
)

// a keyframe (I-frame) reported by the demuxer
type Keyframe struct {
	Index        int     `json:"frame_number"`
	ByteOffset   int64   `json:"byte_offset"`
	TimestampSec float64 `json:"pts_time"`
	SizeBytes    int64   `json:"packet_size"`
}

// ordered frame timestamps to extract, formatted to 2 decimal places.
// The formatted string is the join key between the extracted image and
// its caption document.
type FramePlan []string

var ErrEmptyKeyframeSet = errors.New("no keyframes found in video")

// margin subtracted from the video duration when planning the final frame
const tailMarginSec = 0.1

// formats a timestamp into its stable plan/file identity
func FormatTimestamp(sec float64) string {
	return fmt.Sprintf("%.2f", sec)
}

// parses a plan timestamp back into seconds
func ParseTimestamp(ts string) (float64, error) {
	return strconv.ParseFloat(ts, 64)
}

// BuildFramePlan computes the full set of frame timestamps for a video:
// every keyframe, two interior points dividing each consecutive keyframe
// interval into thirds, and a tail segment from the last keyframe to
// duration-0.1s that additionally emits the end boundary itself, so a
// near-end frame is always sampled. Zero-length intervals collapse to
// repeated timestamps.
func BuildFramePlan(keyframes []Keyframe, durationSec float64) (FramePlan, error) {
	if len(keyframes) == 0 {
		return nil, ErrEmptyKeyframeSet
	}

	plan := make(FramePlan, 0, 3*(len(keyframes)-1)+4)

	for i := 0; i < len(keyframes)-1; i++ {
		t0 := keyframes[i].TimestampSec
		t1 := keyframes[i+1].TimestampSec
		plan = append(plan,
			FormatTimestamp(t0),
			FormatTimestamp(t0+(t1-t0)/3),
			FormatTimestamp(t0+2*(t1-t0)/3),
		)
	}

	// tail segment: last keyframe to just before the end of the video
	t0 := keyframes[len(keyframes)-1].TimestampSec
	t1 := durationSec - tailMarginSec
	plan = append(plan,
		FormatTimestamp(t0),
		FormatTimestamp(t0+(t1-t0)/3),
		FormatTimestamp(t0+2*(t1-t0)/3),
		FormatTimestamp(t1),
	)

	return plan, nil
}

// returns plan timestamps with duplicates removed, preserving order.
// Repeated keyframe timestamps map to the same frame file.
func (p FramePlan) Unique() []string {
	seen := make(map[string]bool, len(p))
	out := make([]string, 0, len(p))
	for _, ts := range p {
		if seen[ts] {
			continue
		}
		seen[ts] = true
		out = append(out, ts)
	}
	return out
}
