package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/kuntal14/videoContextGeneration/internal/ffmpeg"
	"github.com/kuntal14/videoContextGeneration/internal/logging"
)

// one decoded frame image on disk, keyed by its plan timestamp
type ExtractedFrame struct {
	Timestamp string
	Path      string
}

// Extractor decodes single frames from a video at arbitrary timestamps.
type Extractor struct {
	logger *logging.Logger
}

func NewExtractor(logger *logging.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// ExtractFrames seeks to every plan timestamp and writes the nearest
// decodable frame as <timestamp>.jpg under outDir. A timestamp that
// yields no frame is logged and skipped; the captioning stage records
// the miss. If concurrency is 0 or negative, 4 workers are used.
func (e *Extractor) ExtractFrames(
	ctx context.Context,
	videoPath string,
	plan FramePlan,
	outDir string,
	concurrency int,
) ([]ExtractedFrame, error) {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("video file not found: %s", videoPath)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frames directory: %w", err)
	}

	if concurrency <= 0 {
		concurrency = 4
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		frames []ExtractedFrame
		wg     sync.WaitGroup
	)

	sem := make(chan struct{}, concurrency)

	for _, ts := range plan.Unique() {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(ts string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				return
			default:
			}

			seconds, err := ParseTimestamp(ts)
			if err != nil {
				e.logger.Warnw("Skipping unparsable plan timestamp",
					"timestamp", ts,
				)
				return
			}

			framePath := filepath.Join(outDir, ts+".jpg")

			kwargs := ffmpeg.KwArgs{
				"frames:v": 1,
				"q:v":      2, // high-quality JPEG
				"y":        "",
			}

			err = ffmpeg.Input(videoPath, ffmpeg.KwArgs{"ss": seconds}).
				Output(framePath, kwargs).
				OverWriteOutput().
				SetFfmpegPath(ffmpegPath).
				Run()

			if err != nil || !fileNonEmpty(framePath) {
				e.logger.Warnw("Could not decode frame",
					"timestamp", ts,
					"error", err,
				)
				return
			}

			mu.Lock()
			frames = append(frames, ExtractedFrame{Timestamp: ts, Path: framePath})
			mu.Unlock()
		}(ts)
	}

	// drain in-flight workers before returning so nothing writes to the
	// frames slice or the output directory after we hand control back
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(frames, func(i, j int) bool {
		ti, _ := ParseTimestamp(frames[i].Timestamp)
		tj, _ := ParseTimestamp(frames[j].Timestamp)
		return ti < tj
	})

	return frames, nil
}

// ListFrames enumerates previously extracted frame images in outDir,
// sorted by the timestamp encoded in the file name.
func ListFrames(outDir string) ([]ExtractedFrame, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames directory: %w", err)
	}

	var frames []ExtractedFrame
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			continue
		}
		ts := entry.Name()[:len(entry.Name())-len(ext)]
		if _, err := ParseTimestamp(ts); err != nil {
			continue
		}
		frames = append(frames, ExtractedFrame{
			Timestamp: ts,
			Path:      filepath.Join(outDir, entry.Name()),
		})
	}

	sort.Slice(frames, func(i, j int) bool {
		ti, _ := ParseTimestamp(frames[i].Timestamp)
		tj, _ := ParseTimestamp(frames[j].Timestamp)
		return ti < tj
	})

	return frames, nil
}

func fileNonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
