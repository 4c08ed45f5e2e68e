package services

import (
	"fmt"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoapply/models"
)

func TestTracer_StepsAreOrderedAndTagged(t *testing.T) {
	tracer := NewExecutionTracer("test")

	tracer.Info("starting")
	tracer.Success("filled email")
	tracer.Warning("phone reformatted")
	tracer.Error("upload failed")

	steps := tracer.Steps()
	require.Len(t, steps, 4)
	assert.Equal(t, models.StepInfo, steps[0].Outcome)
	assert.Equal(t, models.StepSuccess, steps[1].Outcome)
	assert.Equal(t, models.StepWarning, steps[2].Outcome)
	assert.Equal(t, models.StepError, steps[3].Outcome)

	for i := 1; i < len(steps); i++ {
		assert.False(t, steps[i].Timestamp.Before(steps[i-1].Timestamp))
	}
}

func TestTracer_StepsReturnsACopy(t *testing.T) {
	tracer := NewExecutionTracer("test")
	tracer.Info("one")

	steps := tracer.Steps()
	steps[0].Message = "mutated"

	assert.Equal(t, "one", tracer.Steps()[0].Message)
}

func TestTracer_ErrorCount(t *testing.T) {
	tracer := NewExecutionTracer("test")
	assert.Equal(t, 0, tracer.ErrorCount())

	tracer.Info("fine")
	tracer.Error("bad")
	tracer.Error("worse")

	assert.Equal(t, 2, tracer.ErrorCount())
}

func TestTracer_ElapsedIsNonNegative(t *testing.T) {
	tracer := NewExecutionTracer("test")
	assert.GreaterOrEqual(t, tracer.Elapsed().Seconds(), 0.0)
}

func TestCaptureFinal_ReturnsImage(t *testing.T) {
	tracer := NewExecutionTracer("test")
	tracer.capture = func(playwright.Page) ([]byte, error) {
		return []byte{0x89, 'P', 'N', 'G'}, nil
	}

	// Any non-nil page value satisfies the guard; the injected capture
	// never dereferences it.
	var page fakeScreenshotPage
	png := tracer.CaptureFinal(page)

	assert.Len(t, png, 4)
	steps := tracer.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, models.StepInfo, steps[0].Outcome)
}

func TestCaptureFinal_FailureWarnsInsteadOfAborting(t *testing.T) {
	tracer := NewExecutionTracer("test")
	tracer.capture = func(playwright.Page) ([]byte, error) {
		return nil, fmt.Errorf("page already closed")
	}

	var page fakeScreenshotPage
	png := tracer.CaptureFinal(page)

	assert.Nil(t, png)
	steps := tracer.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, models.StepWarning, steps[0].Outcome)
	assert.Contains(t, steps[0].Message, "screenshot capture failed")
}

func TestCaptureFinal_NilPageWarns(t *testing.T) {
	tracer := NewExecutionTracer("test")

	png := tracer.CaptureFinal(nil)

	assert.Nil(t, png)
	require.Len(t, tracer.Steps(), 1)
	assert.Equal(t, models.StepWarning, tracer.Steps()[0].Outcome)
}

// fakeScreenshotPage is a non-nil playwright.Page stand-in for capture
// tests; the injected capture functions never call into it.
type fakeScreenshotPage struct {
	playwright.Page
}
