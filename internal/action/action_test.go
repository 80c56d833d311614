package action

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("Runs steps in order", func(t *testing.T) {
		var order []string
		steps := []Step{
			{Name: "provision", Run: func() error { order = append(order, "provision"); return nil }},
			{Name: "grade", Run: func() error { order = append(order, "grade"); return nil }},
			{Name: "publish", Run: func() error { order = append(order, "publish"); return nil }},
		}

		results, err := Sequence(steps, logger)
		require.NoError(t, err)
		assert.Equal(t, []string{"provision", "grade", "publish"}, order)

		require.Len(t, results, 3)
		for _, result := range results {
			assert.Equal(t, StepSucceeded, result.Status)
		}
	})

	t.Run("Stops at first failure", func(t *testing.T) {
		var order []string
		steps := []Step{
			{Name: "provision", Run: func() error { order = append(order, "provision"); return nil }},
			{Name: "grade", Run: func() error { order = append(order, "grade"); return errors.New("boom") }},
			{Name: "publish", Run: func() error { order = append(order, "publish"); return nil }},
		}

		results, err := Sequence(steps, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `step "grade" failed`)

		// publish must never run after a failed grade
		assert.Equal(t, []string{"provision", "grade"}, order)

		require.Len(t, results, 3)
		assert.Equal(t, StepSucceeded, results[0].Status)
		assert.Equal(t, StepFailed, results[1].Status)
		assert.Equal(t, "boom", results[1].Error)
		assert.Equal(t, StepNotRun, results[2].Status)
	})

	t.Run("Failure in the first step skips everything", func(t *testing.T) {
		ran := false
		steps := []Step{
			{Name: "provision", Run: func() error { return errors.New("no network") }},
			{Name: "grade", Run: func() error { ran = true; return nil }},
		}

		results, err := Sequence(steps, logger)
		require.Error(t, err)
		assert.False(t, ran)
		assert.Equal(t, StepNotRun, results[1].Status)
	})

	t.Run("Empty sequence", func(t *testing.T) {
		results, err := Sequence(nil, logger)
		assert.NoError(t, err)
		assert.Empty(t, results)
	})
}
