package caption

import (
	"context"
	"errors"
	"sync"

	"github.com/kuntal14/videoContextGeneration/internal/globalcontext"
	"github.com/kuntal14/videoContextGeneration/internal/logging"
	"github.com/kuntal14/videoContextGeneration/internal/media"
	"github.com/kuntal14/videoContextGeneration/internal/store"
	"github.com/kuntal14/videoContextGeneration/internal/transcript"
)

// DefaultConcurrency keeps the pool small; the shared inference backend
// is the bottleneck resource.
const DefaultConcurrency = 4

// outcome counts of a captioning batch
type Summary struct {
	Total     int
	Completed int
	Failed    int
}

// Scheduler fans the caption worker out over all frames with a bounded
// pool. One frame's failure never cancels the others: every submitted
// frame ends with exactly one persisted record, success or failure. Runs
// are idempotent at the file level; existing caption files for the same
// keys are overwritten.
type Scheduler struct {
	worker      *Worker
	captions    *store.Store
	logger      *logging.Logger
	concurrency int
}

func NewScheduler(
	worker *Worker,
	captions *store.Store,
	logger *logging.Logger,
	concurrency int,
) *Scheduler {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Scheduler{
		worker:      worker,
		captions:    captions,
		logger:      logger,
		concurrency: concurrency,
	}
}

type taskResult struct {
	timestamp string
	failed    bool
}

// Run captions every frame and persists each record under the frame's
// timestamp key. The global context and transcript index are read-only
// for the duration of the batch; only the progress counter is shared.
func (s *Scheduler) Run(
	ctx context.Context,
	frames []media.ExtractedFrame,
	gc *globalcontext.GlobalContext,
	index *transcript.Index,
) (Summary, error) {
	if len(frames) == 0 {
		return Summary{}, nil
	}

	contextText := gc.FormatForPrompt()

	s.logger.Infow("Captioning frames",
		"frames", len(frames),
		"workers", s.concurrency,
	)

	workChan := make(chan media.ExtractedFrame)
	resultChan := make(chan taskResult, len(frames))

	var (
		mu        sync.Mutex
		completed int
		wg        sync.WaitGroup
	)
	total := len(frames)

	for i := 0; i < s.concurrency && i < len(frames); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for frame := range workChan {
				failed := s.captionOne(ctx, frame, contextText, index)

				mu.Lock()
				completed++
				done := completed
				mu.Unlock()

				s.logger.Infow("Frame captioned",
					"progress", done,
					"total", total,
					"timestamp", frame.Timestamp,
					"failed", failed,
				)

				resultChan <- taskResult{timestamp: frame.Timestamp, failed: failed}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for _, frame := range frames {
			select {
			case <-ctx.Done():
				return
			case workChan <- frame:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	summary := Summary{Total: total}
	for result := range resultChan {
		summary.Completed++
		if result.failed {
			summary.Failed++
		}
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// captions one frame and persists exactly one document for it. Returns
// whether the frame degraded to a failure record.
func (s *Scheduler) captionOne(
	ctx context.Context,
	frame media.ExtractedFrame,
	contextText string,
	index *transcript.Index,
) bool {
	seconds, err := media.ParseTimestamp(frame.Timestamp)
	window := ""
	if err == nil {
		window = index.Window(seconds, transcript.DefaultWindowRadius)
	}

	record, err := s.worker.Caption(ctx, frame, contextText, window)
	if err == nil {
		if saveErr := s.captions.Save(frame.Timestamp, record); saveErr != nil {
			s.logger.Errorw("Failed to persist caption",
				"timestamp", frame.Timestamp,
				"error", saveErr,
			)
			return true
		}
		return false
	}

	s.logger.Warnw("Caption failed",
		"timestamp", frame.Timestamp,
		"error", err,
	)

	// unparsable responses keep their raw content for repair tooling;
	// everything else becomes a well-formed error record
	var mismatch *SchemaMismatchError
	if errors.As(err, &mismatch) {
		if saveErr := s.captions.SaveDiagnostic(frame.Timestamp, mismatch.Raw); saveErr != nil {
			s.logger.Errorw("Failed to persist diagnostic wrapper",
				"timestamp", frame.Timestamp,
				"error", saveErr,
			)
		}
		return true
	}

	if saveErr := s.captions.Save(frame.Timestamp, ErrorRecord(err.Error(), window)); saveErr != nil {
		s.logger.Errorw("Failed to persist error record",
			"timestamp", frame.Timestamp,
			"error", saveErr,
		)
	}
	return true
}
