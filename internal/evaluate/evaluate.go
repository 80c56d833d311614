package evaluate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AKirsch1/Deploy-to-Grading/internal/models"
	"github.com/AKirsch1/Deploy-to-Grading/internal/paths"
	"github.com/AKirsch1/Deploy-to-Grading/types"
)

// Task evaluates a task's metric results. Every metric listed in the
// task config is expected to have left a result file in
// <taskDir>/build/results/<metric>.yml; a missing file scores zero
// points against the metric's budget.
func Task(taskDir string, cfg *types.TaskConfig) (*models.TaskScore, error) {
	score := &models.TaskScore{}
	resultsDir := paths.TaskResultsDir(taskDir)

	for _, metricName := range cfg.Task.Metrics {
		maxPoints := cfg.Scoring[metricName].MaxPoints

		metricScore := models.MetricScore{
			Metric:    metricName,
			MaxPoints: maxPoints,
		}

		result, err := readMetricResult(filepath.Join(resultsDir, metricName+".yml"))
		switch {
		case err != nil && os.IsNotExist(err):
			metricScore.Details = []string{"no result file produced"}
		case err != nil:
			return nil, fmt.Errorf("failed to evaluate metric %q: %w", metricName, err)
		default:
			metricScore.Points = clamp(result.Points, maxPoints)
			metricScore.Details = result.Details
		}

		score.Points += metricScore.Points
		score.MaxPoints += metricScore.MaxPoints
		score.Metrics = append(score.Metrics, metricScore)
	}

	return score, nil
}

func readMetricResult(path string) (*types.MetricResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var result types.MetricResult
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse metric result %s: %w", path, err)
	}
	return &result, nil
}

// Result files never award more than the configured budget, regardless
// of what the metric run claims.
func clamp(points, maxPoints float64) float64 {
	if points < 0 {
		return 0
	}
	if points > maxPoints {
		return maxPoints
	}
	return points
}

// WriteTaskResult stores a task's score as results/<task>.yml in the
// assignment results directory.
func WriteTaskResult(resultsDir, taskName string, score *models.TaskScore) error {
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return fmt.Errorf("failed to create results directory %s: %w", resultsDir, err)
	}

	data, err := yaml.Marshal(score)
	if err != nil {
		return fmt.Errorf("failed to marshal task result for %q: %w", taskName, err)
	}

	path := filepath.Join(resultsDir, taskName+".yml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write task result %s: %w", path, err)
	}
	return nil
}

// AssignmentResult is the aggregate document written to
// results/results.yml.
type AssignmentResult struct {
	Assignment string              `yaml:"assignment"`
	Points     float64             `yaml:"points"`
	MaxPoints  float64             `yaml:"max_points"`
	Tasks      []TaskResultSummary `yaml:"tasks"`
}

type TaskResultSummary struct {
	Task      string  `yaml:"task"`
	Status    string  `yaml:"status"`
	Points    float64 `yaml:"points"`
	MaxPoints float64 `yaml:"max_points"`
}

// WriteAssignmentResult aggregates the task records into
// results/results.yml and returns the aggregate for reporting.
func WriteAssignmentResult(resultsDir, assignmentName string, records []models.TaskExecutionRecord) (*AssignmentResult, error) {
	aggregate := &AssignmentResult{Assignment: assignmentName}

	for _, record := range records {
		taskSummary := TaskResultSummary{
			Task:   record.TaskName,
			Status: record.Status,
		}
		if record.Score != nil {
			taskSummary.Points = record.Score.Points
			taskSummary.MaxPoints = record.Score.MaxPoints
		}
		aggregate.Points += taskSummary.Points
		aggregate.MaxPoints += taskSummary.MaxPoints
		aggregate.Tasks = append(aggregate.Tasks, taskSummary)
	}

	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory %s: %w", resultsDir, err)
	}

	data, err := yaml.Marshal(aggregate)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal assignment result: %w", err)
	}

	path := filepath.Join(resultsDir, "results.yml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write assignment result %s: %w", path, err)
	}

	return aggregate, nil
}

// FormatStudentReport renders the score table shown to students at the
// end of a run.
func FormatStudentReport(aggregate *AssignmentResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Results for %s\n", aggregate.Assignment)
	fmt.Fprintf(&b, "%-24s %10s %12s\n", "TASK", "POINTS", "MAX POINTS")

	for _, task := range aggregate.Tasks {
		label := task.Task
		if task.Status != models.TaskSucceeded {
			label = fmt.Sprintf("%s (%s)", task.Task, strings.ToLower(task.Status))
		}
		fmt.Fprintf(&b, "%-24s %10.1f %12.1f\n", label, task.Points, task.MaxPoints)
	}

	fmt.Fprintf(&b, "%-24s %10.1f %12.1f\n", "TOTAL", aggregate.Points, aggregate.MaxPoints)
	return b.String()
}
