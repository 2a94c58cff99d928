package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/kuntal14/videoContextGeneration/internal/audio"
	"github.com/kuntal14/videoContextGeneration/internal/caption"
	"github.com/kuntal14/videoContextGeneration/internal/globalcontext"
	"github.com/kuntal14/videoContextGeneration/internal/inference"
	"github.com/kuntal14/videoContextGeneration/internal/logging"
	"github.com/kuntal14/videoContextGeneration/internal/media"
	"github.com/kuntal14/videoContextGeneration/internal/store"
	"github.com/kuntal14/videoContextGeneration/internal/transcribe"
	"github.com/kuntal14/videoContextGeneration/internal/transcript"
)

// store keys for the planning artifacts
const (
	keyframesKey = "keyframes"
	framePlanKey = "frame_plan"
)

// audio longer than this is split into chunks and transcribed in parallel
const chunkThreshold = 10 * time.Minute

// Options controls a single pipeline run.
type Options struct {
	VideoPath           string
	SkipExtraction      bool
	ForceRebuildContext bool
	Concurrency         int
}

// Sample is one caption pulled into the summary report.
type Sample struct {
	Timestamp   string
	Description string
	Entities    []string
}

// Report summarizes a completed run.
type Report struct {
	VideoID         string
	FramesCaptioned int
	Failed          int
	ContextSummary  string
	Samples         []Sample
	Elapsed         time.Duration
}

// Runner wires the phases together over a single workspace.
type Runner struct {
	ws          Workspace
	client      inference.Client
	transcriber transcribe.Transcriber
	logger      *logging.Logger
}

// NewRunner creates a pipeline runner. transcriber may be nil when the
// run skips extraction and reuses an existing transcript.
func NewRunner(
	ws Workspace,
	client inference.Client,
	transcriber transcribe.Transcriber,
	logger *logging.Logger,
) *Runner {
	return &Runner{
		ws:          ws,
		client:      client,
		transcriber: transcriber,
		logger:      logger,
	}
}

// Run executes the full pipeline: frame extraction, transcription,
// global context and captioning. Per-frame caption failures degrade the
// output but never fail the run; setup failures (missing video, probe
// errors, no frames) abort before anything downstream happens.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	started := time.Now()

	if err := r.ws.Ensure(); err != nil {
		return nil, err
	}

	if !opts.SkipExtraction {
		if err := r.ExtractFrames(ctx, opts.VideoPath, opts.Concurrency); err != nil {
			return nil, err
		}
		if err := r.TranscribeAudio(ctx, opts.VideoPath); err != nil {
			// captioning still works without a transcript, the
			// windows degrade to placeholders
			r.logger.Warnw("Transcription failed, continuing without transcript",
				"error", err,
			)
		}
	} else {
		r.logger.Infow("Skipping frame extraction and transcription")
	}

	frames, index, err := r.loadInputs()
	if err != nil {
		return nil, err
	}

	docs, err := store.New(r.ws.Dir())
	if err != nil {
		return nil, err
	}
	captions, err := store.New(r.ws.CaptionsDir())
	if err != nil {
		return nil, err
	}

	builder := globalcontext.NewBuilder(r.client, docs, r.logger)
	gc, err := builder.LoadOrBuild(ctx, frames, index, opts.ForceRebuildContext)
	if err != nil {
		return nil, fmt.Errorf("global context phase failed: %w", err)
	}
	r.logger.Infow("Global context ready", "state", builder.State())

	worker := caption.NewWorker(r.client, r.logger)
	scheduler := caption.NewScheduler(worker, captions, r.logger, opts.Concurrency)
	summary, err := scheduler.Run(ctx, frames, gc, index)
	if err != nil {
		return nil, fmt.Errorf("captioning phase failed: %w", err)
	}

	report := r.buildReport(captions, gc, summary)
	report.Elapsed = time.Since(started)
	r.logReport(report)
	return report, nil
}

// loadInputs reads the extracted frame list and the transcript index
// off the workspace. A missing transcript degrades to an empty index;
// missing frames are fatal.
func (r *Runner) loadInputs() ([]media.ExtractedFrame, *transcript.Index, error) {
	tokens, err := transcript.LoadCSV(r.ws.TranscriptCSV())
	if err != nil {
		r.logger.Warnw("Could not load transcript", "error", err)
	}
	index := transcript.NewIndex(tokens)

	frames, err := media.ListFrames(r.ws.FramesDir())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list frames: %w", err)
	}
	if len(frames) == 0 {
		return nil, nil, fmt.Errorf("no frames found in %s, run frame extraction first", r.ws.FramesDir())
	}

	r.logger.Infow("Loaded pipeline inputs",
		"frames", len(frames),
		"transcriptWords", index.Len())
	return frames, index, nil
}

// BuildContext runs the global context phase standalone over an
// already-populated workspace.
func (r *Runner) BuildContext(ctx context.Context, force bool) (*globalcontext.GlobalContext, error) {
	frames, index, err := r.loadInputs()
	if err != nil {
		return nil, err
	}

	docs, err := store.New(r.ws.Dir())
	if err != nil {
		return nil, err
	}

	builder := globalcontext.NewBuilder(r.client, docs, r.logger)
	return builder.LoadOrBuild(ctx, frames, index, force)
}

// ExtractFrames probes keyframes, derives the frame plan, persists both
// as artifacts and rasterizes one JPEG per plan timestamp.
func (r *Runner) ExtractFrames(
	ctx context.Context,
	videoPath string,
	concurrency int,
) error {
	docs, err := store.New(r.ws.Dir())
	if err != nil {
		return err
	}

	keyframes, duration, err := media.Probe(videoPath)
	if err != nil {
		return fmt.Errorf("keyframe probe failed: %w", err)
	}

	plan, err := media.BuildFramePlan(keyframes, duration)
	if err != nil {
		return err
	}
	r.logger.Infow("Frame plan built",
		"keyframes", len(keyframes),
		"frames", len(plan),
		"duration", duration,
	)

	if err := docs.Save(keyframesKey, keyframes); err != nil {
		return err
	}
	if err := docs.Save(framePlanKey, plan); err != nil {
		return err
	}

	extractor := media.NewExtractor(r.logger)
	frames, err := extractor.ExtractFrames(ctx, videoPath, plan.Unique(), r.ws.FramesDir(), concurrency)
	if err != nil {
		return fmt.Errorf("frame extraction failed: %w", err)
	}
	r.logger.Infow("Frames extracted", "count", len(frames))
	return nil
}

// transcribers that can process pre-split chunks in parallel
type chunkTranscriber interface {
	TranscribeWithChunks(
		ctx context.Context,
		chunks []audio.ChunkInfo,
		concurrency int,
	) ([]transcript.Token, error)
}

// TranscribeAudio demuxes a mono 16kHz track and writes the
// word-timestamp CSV and SRT artifacts.
func (r *Runner) TranscribeAudio(ctx context.Context, videoPath string) error {
	if r.transcriber == nil {
		return fmt.Errorf("no transcriber configured")
	}

	if err := r.ws.ResetAudio(); err != nil {
		return err
	}

	// Lossless PCM at the default 16 kHz mono keeps the transcription
	// backends happy without a second resample pass.
	opts := audio.DefaultCompressionOptions()
	opts.Format = "wav"
	opts.Bitrate = ""

	if err := audio.CompressAudio(ctx, videoPath, r.ws.AudioPath(), opts); err != nil {
		return fmt.Errorf("audio demux failed: %w", err)
	}

	tokens, err := r.transcribeTrack(ctx)
	if err != nil {
		return err
	}
	r.logger.Infow("Audio transcribed", "words", len(tokens))

	if err := transcript.SaveCSV(tokens, r.ws.TranscriptCSV()); err != nil {
		return err
	}
	if err := transcript.WriteSRT(tokens, r.ws.TranscriptSRT()); err != nil {
		return err
	}
	return nil
}

func (r *Runner) transcribeTrack(ctx context.Context) ([]transcript.Token, error) {
	duration, err := audio.GetDuration(r.ws.AudioPath())
	if err != nil {
		return nil, err
	}

	ct, canChunk := r.transcriber.(chunkTranscriber)
	if !canChunk || duration <= chunkThreshold {
		return r.transcriber.Transcribe(ctx, r.ws.AudioPath())
	}

	chunksDir := filepath.Join(r.ws.AudioDir(), "chunks")
	chunks, err := audio.ChunkAudio(ctx, r.ws.AudioPath(), chunkThreshold, chunksDir)
	if err != nil {
		return nil, fmt.Errorf("audio chunking failed: %w", err)
	}
	defer func() {
		if err := audio.CleanupChunks(chunks); err != nil {
			r.logger.Warnw("Failed to clean up audio chunks", "error", err)
		}
	}()

	return ct.TranscribeWithChunks(ctx, chunks, 3)
}

// buildReport samples up to three captions for the run summary.
func (r *Runner) buildReport(
	captions *store.Store,
	gc *globalcontext.GlobalContext,
	summary caption.Summary,
) *Report {
	report := &Report{
		VideoID:         r.ws.VideoID,
		FramesCaptioned: summary.Completed,
		Failed:          summary.Failed,
		ContextSummary:  gc.Summary,
	}

	keys, err := captions.Keys()
	if err != nil {
		r.logger.Warnw("Could not list caption records", "error", err)
		return report
	}
	sort.Strings(keys)

	for _, key := range keys {
		if len(report.Samples) == 3 {
			break
		}
		var rec caption.Record
		if err := captions.Load(key, &rec); err != nil {
			continue
		}
		desc := rec.Description
		if len(desc) > 100 {
			desc = desc[:100] + "..."
		}
		report.Samples = append(report.Samples, Sample{
			Timestamp:   key,
			Description: desc,
			Entities:    rec.Entities,
		})
	}
	return report
}

func (r *Runner) logReport(report *Report) {
	r.logger.Infow("Pipeline complete",
		"video", report.VideoID,
		"captioned", report.FramesCaptioned,
		"failed", report.Failed,
		"summary", report.ContextSummary,
		"elapsed", report.Elapsed.Round(time.Millisecond),
	)
	for _, s := range report.Samples {
		r.logger.Infow("Sample caption",
			"timestamp", s.Timestamp,
			"entities", s.Entities,
			"description", s.Description,
		)
	}
}
