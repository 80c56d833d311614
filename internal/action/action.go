package action

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Step is one stage of the CI grading sequence. Run returns an error to
// abort the sequence.
type Step struct {
	Name string
	Run  func() error
}

// StepResult records the outcome of one executed step.
type StepResult struct {
	Name       string `json:"name"`
	Status     string `json:"status"` // "SUCCEEDED", "FAILED", "NOT_RUN"
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

const (
	StepSucceeded = "SUCCEEDED"
	StepFailed    = "FAILED"
	StepNotRun    = "NOT_RUN"
)

// Sequence runs the steps strictly in order and stops at the first
// failure. Steps after a failed one are reported as NOT_RUN, never
// executed. The returned error identifies the failed step.
func Sequence(steps []Step, logger zerolog.Logger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(steps))
	var failed error

	for _, step := range steps {
		if failed != nil {
			results = append(results, StepResult{Name: step.Name, Status: StepNotRun})
			continue
		}

		logger.Info().Str("step", step.Name).Msg("Running step")
		start := time.Now()

		err := step.Run()
		result := StepResult{
			Name:       step.Name,
			DurationMs: time.Since(start).Milliseconds(),
		}

		if err != nil {
			result.Status = StepFailed
			result.Error = err.Error()
			failed = fmt.Errorf("step %q failed: %w", step.Name, err)
			logger.Error().Err(err).Str("step", step.Name).Msg("Step failed, aborting sequence")
		} else {
			result.Status = StepSucceeded
			logger.Info().Str("step", step.Name).Int64("duration_ms", result.DurationMs).Msg("Step succeeded")
		}

		results = append(results, result)
	}

	return results, failed
}
