package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AKirsch1/Deploy-to-Grading/types"
)

func TestAssignmentEnvVars(t *testing.T) {
	cfg := createValidConfig()
	cfg.Assignment.Tasks = []string{"task01", "task02"}

	vars := AssignmentEnvVars(cfg)

	assert.Contains(t, vars, "ASSIGNMENT_NAME=assignment01")
	assert.Contains(t, vars, "ASSIGNMENT_DUE_DATE=2026-10-01T23:59:59+02:00")
	assert.Contains(t, vars, "ASSIGNMENT_TEMPLATE_REPOSITORY=https://example.com/org/assignment01-template.git")
	assert.Contains(t, vars, "ASSIGNMENT_TASKS=task01 task02")
}

func TestTaskEnvVars(t *testing.T) {
	t.Run("Metrics and scoring", func(t *testing.T) {
		taskCfg := createValidTaskConfig("task01")

		vars := TaskEnvVars("task01", taskCfg)

		assert.Contains(t, vars, "TASK01_METRICS=compile test")
		assert.Contains(t, vars, "TASK01_COMPILE_MAX_POINTS=1")
		assert.Contains(t, vars, "TASK01_TEST_MAX_POINTS=5")
	})

	t.Run("Metric without scoring entry", func(t *testing.T) {
		taskCfg := createValidTaskConfig("task01")
		taskCfg.Task.Metrics = []string{"compile"}
		taskCfg.Scoring = nil

		vars := TaskEnvVars("task01", taskCfg)

		assert.Equal(t, []string{"TASK01_METRICS=compile"}, vars)
	})

	t.Run("Fractional max points", func(t *testing.T) {
		taskCfg := createValidTaskConfig("task01")
		taskCfg.Task.Metrics = []string{"style"}
		taskCfg.Scoring = map[string]types.ScoringSpec{"style": {MaxPoints: 2.5}}

		vars := TaskEnvVars("task01", taskCfg)

		assert.Contains(t, vars, "TASK01_STYLE_MAX_POINTS=2.5")
	})
}

func TestEnvPrefix(t *testing.T) {
	assert.Equal(t, "TASK01", EnvPrefix("task01"))
	assert.Equal(t, "MY_TASK", EnvPrefix("my-task"))
	assert.Equal(t, "ALREADY_UPPER", EnvPrefix("ALREADY_UPPER"))
}
