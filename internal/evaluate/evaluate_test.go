package evaluate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AKirsch1/Deploy-to-Grading/internal/models"
	"github.com/AKirsch1/Deploy-to-Grading/internal/paths"
	"github.com/AKirsch1/Deploy-to-Grading/types"
)

func writeMetricResult(t *testing.T, taskDir, metric string, result types.MetricResult) {
	t.Helper()

	resultsDir := paths.TaskResultsDir(taskDir)
	require.NoError(t, os.MkdirAll(resultsDir, 0755))

	data, err := yaml.Marshal(result)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(resultsDir, metric+".yml"), data, 0644))
}

func taskConfigWithScoring(metrics []string, scoring map[string]types.ScoringSpec) *types.TaskConfig {
	cfg := &types.TaskConfig{}
	cfg.Task.Metrics = metrics
	cfg.Scoring = scoring
	return cfg
}

func TestEvaluateTask(t *testing.T) {
	t.Run("All metrics produced results", func(t *testing.T) {
		taskDir := t.TempDir()
		writeMetricResult(t, taskDir, "compile", types.MetricResult{Metric: "compile", Points: 1, MaxPoints: 1})
		writeMetricResult(t, taskDir, "test", types.MetricResult{Metric: "test", Points: 3.5, MaxPoints: 5, Details: []string{"2 of 10 tests failed"}})

		cfg := taskConfigWithScoring([]string{"compile", "test"}, map[string]types.ScoringSpec{
			"compile": {MaxPoints: 1},
			"test":    {MaxPoints: 5},
		})

		score, err := Task(taskDir, cfg)
		require.NoError(t, err)

		assert.Equal(t, 4.5, score.Points)
		assert.Equal(t, 6.0, score.MaxPoints)
		require.Len(t, score.Metrics, 2)
		assert.Equal(t, []string{"2 of 10 tests failed"}, score.Metrics[1].Details)
	})

	t.Run("Missing result file scores zero", func(t *testing.T) {
		taskDir := t.TempDir()

		cfg := taskConfigWithScoring([]string{"test"}, map[string]types.ScoringSpec{
			"test": {MaxPoints: 5},
		})

		score, err := Task(taskDir, cfg)
		require.NoError(t, err)

		assert.Equal(t, 0.0, score.Points)
		assert.Equal(t, 5.0, score.MaxPoints)
		require.Len(t, score.Metrics, 1)
		assert.Equal(t, []string{"no result file produced"}, score.Metrics[0].Details)
	})

	t.Run("Points are clamped to the budget", func(t *testing.T) {
		taskDir := t.TempDir()
		writeMetricResult(t, taskDir, "test", types.MetricResult{Metric: "test", Points: 99, MaxPoints: 5})

		cfg := taskConfigWithScoring([]string{"test"}, map[string]types.ScoringSpec{
			"test": {MaxPoints: 5},
		})

		score, err := Task(taskDir, cfg)
		require.NoError(t, err)
		assert.Equal(t, 5.0, score.Points)
	})

	t.Run("Negative points are clamped to zero", func(t *testing.T) {
		taskDir := t.TempDir()
		writeMetricResult(t, taskDir, "test", types.MetricResult{Metric: "test", Points: -2, MaxPoints: 5})

		cfg := taskConfigWithScoring([]string{"test"}, map[string]types.ScoringSpec{
			"test": {MaxPoints: 5},
		})

		score, err := Task(taskDir, cfg)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score.Points)
	})

	t.Run("Metric without scoring entry contributes zero budget", func(t *testing.T) {
		taskDir := t.TempDir()
		writeMetricResult(t, taskDir, "compile", types.MetricResult{Metric: "compile", Points: 1, MaxPoints: 1})

		cfg := taskConfigWithScoring([]string{"compile"}, nil)

		score, err := Task(taskDir, cfg)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score.Points)
		assert.Equal(t, 0.0, score.MaxPoints)
	})

	t.Run("Malformed result file is an error", func(t *testing.T) {
		taskDir := t.TempDir()
		resultsDir := paths.TaskResultsDir(taskDir)
		require.NoError(t, os.MkdirAll(resultsDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(resultsDir, "test.yml"), []byte("points: ["), 0644))

		cfg := taskConfigWithScoring([]string{"test"}, map[string]types.ScoringSpec{
			"test": {MaxPoints: 5},
		})

		_, err := Task(taskDir, cfg)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), `failed to evaluate metric "test"`)
	})
}

func TestWriteTaskResult(t *testing.T) {
	resultsDir := filepath.Join(t.TempDir(), "results")
	score := &models.TaskScore{
		Points:    4,
		MaxPoints: 6,
		Metrics:   []models.MetricScore{{Metric: "test", Points: 4, MaxPoints: 6}},
	}

	require.NoError(t, WriteTaskResult(resultsDir, "task01", score))

	data, err := os.ReadFile(filepath.Join(resultsDir, "task01.yml"))
	require.NoError(t, err)

	var loaded models.TaskScore
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, *score, loaded)
}

func TestWriteAssignmentResult(t *testing.T) {
	resultsDir := filepath.Join(t.TempDir(), "results")

	records := []models.TaskExecutionRecord{
		{
			TaskName: "task01",
			Status:   models.TaskSucceeded,
			Score:    &models.TaskScore{Points: 4, MaxPoints: 6},
		},
		{
			TaskName: "task02",
			Status:   models.TaskFailed,
		},
	}

	aggregate, err := WriteAssignmentResult(resultsDir, "assignment01", records)
	require.NoError(t, err)

	assert.Equal(t, 4.0, aggregate.Points)
	assert.Equal(t, 6.0, aggregate.MaxPoints)
	require.Len(t, aggregate.Tasks, 2)
	assert.Equal(t, models.TaskFailed, aggregate.Tasks[1].Status)

	data, err := os.ReadFile(filepath.Join(resultsDir, "results.yml"))
	require.NoError(t, err)

	var loaded AssignmentResult
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, "assignment01", loaded.Assignment)
	assert.Equal(t, 4.0, loaded.Points)
}

func TestFormatStudentReport(t *testing.T) {
	aggregate := &AssignmentResult{
		Assignment: "assignment01",
		Points:     4,
		MaxPoints:  11,
		Tasks: []TaskResultSummary{
			{Task: "task01", Status: models.TaskSucceeded, Points: 4, MaxPoints: 6},
			{Task: "task02", Status: models.TaskFailed, Points: 0, MaxPoints: 5},
		},
	}

	report := FormatStudentReport(aggregate)

	assert.Contains(t, report, "Results for assignment01")
	assert.Contains(t, report, "task01")
	assert.Contains(t, report, "task02 (failed)")
	assert.Contains(t, report, "TOTAL")
	assert.Contains(t, report, "11.0")
}
