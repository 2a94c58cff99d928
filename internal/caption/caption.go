package caption

import (
	"fmt"
)

// Record is one frame's caption document. Exactly one record is written
// per planned frame timestamp, whether the inference call succeeded or
// not; the timestamp string keying the file is the sole join key back to
// the frame plan and the extracted image.
type Record struct {
	Description string   `json:"description"`
	Entities    []string `json:"entities"`
	Actions     []string `json:"actions"`
	Transcript  string   `json:"transcript"`
	Error       bool     `json:"error,omitempty"`
}

// ErrorRecord builds the well-formed record persisted for a frame whose
// captioning failed, so downstream counting still sees every frame.
func ErrorRecord(reason, window string) *Record {
	return &Record{
		Description: fmt.Sprintf("Processing error: %s", reason),
		Entities:    []string{},
		Actions:     []string{},
		Transcript:  window,
		Error:       true,
	}
}

// SchemaMismatchError reports a backend response that was not valid
// caption JSON. The raw response is carried so the scheduler can persist
// it in a diagnostic wrapper instead of discarding it.
type SchemaMismatchError struct {
	Raw string
	Err error
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("caption response did not match schema: %v", e.Err)
}

func (e *SchemaMismatchError) Unwrap() error {
	return e.Err
}
