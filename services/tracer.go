package services

import (
	"fmt"
	"log"
	"time"

	"github.com/playwright-community/playwright-go"

	"autoapply/models"
)

// ExecutionTracer accumulates the append-only step log of one run and takes
// the single final screenshot. A run owns exactly one tracer; steps are never
// reordered or mutated after append.
type ExecutionTracer struct {
	runID   string
	started time.Time
	steps   []models.StepRecord

	// capture is swapped in tests so the final screenshot path is
	// exercisable without a browser.
	capture func(page playwright.Page) ([]byte, error)
}

func NewExecutionTracer(runID string) *ExecutionTracer {
	return &ExecutionTracer{
		runID:   runID,
		started: time.Now(),
		capture: capturePage,
	}
}

func capturePage(page playwright.Page) ([]byte, error) {
	return page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
}

func (t *ExecutionTracer) append(outcome models.StepOutcome, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	t.steps = append(t.steps, models.StepRecord{
		Timestamp: time.Now(),
		Outcome:   outcome,
		Message:   msg,
	})
	log.Printf("[%s] %s: %s", t.runID, outcome, msg)
}

func (t *ExecutionTracer) Info(format string, args ...interface{}) {
	t.append(models.StepInfo, format, args...)
}

func (t *ExecutionTracer) Success(format string, args ...interface{}) {
	t.append(models.StepSuccess, format, args...)
}

func (t *ExecutionTracer) Warning(format string, args ...interface{}) {
	t.append(models.StepWarning, format, args...)
}

func (t *ExecutionTracer) Error(format string, args ...interface{}) {
	t.append(models.StepError, format, args...)
}

// Steps returns a copy of the log so the tracer's own slice stays
// append-only.
func (t *ExecutionTracer) Steps() []models.StepRecord {
	out := make([]models.StepRecord, len(t.steps))
	copy(out, t.steps)
	return out
}

// ErrorCount reports how many error-tagged steps have been recorded.
func (t *ExecutionTracer) ErrorCount() int {
	n := 0
	for _, s := range t.steps {
		if s.Outcome == models.StepError {
			n++
		}
	}
	return n
}

// Elapsed is the wall time since the run started.
func (t *ExecutionTracer) Elapsed() time.Duration {
	return time.Since(t.started)
}

// CaptureFinal takes the end-of-run full-page screenshot. It never fails the
// run: if the page is already gone or the capture errors, a warning step is
// recorded and nil is returned.
func (t *ExecutionTracer) CaptureFinal(page playwright.Page) []byte {
	if page == nil {
		t.Warning("screenshot skipped: no page was opened")
		return nil
	}
	png, err := t.capture(page)
	if err != nil {
		t.Warning("screenshot capture failed: %v", err)
		return nil
	}
	t.Info("final screenshot captured (%d bytes)", len(png))
	return png
}
