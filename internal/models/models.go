package models

import (
	"github.com/google/uuid"

	"github.com/AKirsch1/Deploy-to-Grading/types"
)

// ExecutionSummary holds the overall results of a grading workflow run.
type ExecutionSummary struct {
	WorkflowId        uuid.UUID       `json:"workflow_id"`
	WorkflowStartTime string          `json:"workflow_start_time"`
	D2GCmd            string          `json:"d2g_cmd"`
	Assignment        string          `json:"assignment"`
	Initiator         types.Initiator `json:"initiator"`
	Tasks             []TaskSummary   `json:"tasks"`
	OverallStatus     string          `json:"overall_status"` // "Success", "Failed", "Partial"
	TotalDurationMs   int64           `json:"total_duration_ms"`
	PointsAwarded     float64         `json:"points_awarded"`
	PointsPossible    float64         `json:"points_possible"`
	TasksSucceeded    int             `json:"tasks_succeeded"`
	TasksFailed       int             `json:"tasks_failed"`
	FirstFailure      *TaskSummary    `json:"first_failure,omitempty"`
}

// TaskSummary provides a concise overview of a single task's grading for
// the summary file.
type TaskSummary struct {
	TaskName   string  `json:"task_name"`
	Status     string  `json:"status"` // "SUCCEEDED", "FAILED", "SKIPPED"
	Points     float64 `json:"points"`
	MaxPoints  float64 `json:"max_points"`
	StartTime  string  `json:"start_time"` // RFC3339
	FinishTime string  `json:"finish_time"`
	DurationMs int64   `json:"duration_ms"`
	LogFile    string  `json:"log_file"` // Relative path to the detailed record
}

// Task status values used in records and summaries.
const (
	TaskSucceeded = "SUCCEEDED"
	TaskFailed    = "FAILED"
	TaskSkipped   = "SKIPPED"
)

// TaskExecutionRecord contains ALL information about a single task's
// grading. It is saved to the individual task log file
// (e.g., TASK01_3c43e9f4.json).
type TaskExecutionRecord struct {
	TaskName   string          `json:"task_name"`
	D2GCmd     string          `json:"d2g_cmd"`
	Assignment string          `json:"assignment"`
	Initiator  types.Initiator `json:"initiator"`
	WorkflowId uuid.UUID       `json:"workflow_id"`

	StartTime  string `json:"start_time"`
	FinishTime string `json:"finish_time"`
	DurationMs int64  `json:"duration_ms"`

	Metrics []MetricExecution `json:"metrics"`
	Score   *TaskScore        `json:"score,omitempty"`

	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// MetricExecution records one metric subprocess run within a task.
type MetricExecution struct {
	Metric     string   `json:"metric"`
	Handler    string   `json:"handler"` // "script" or "gradle"
	Command    []string `json:"command"`
	ExitCode   int      `json:"exit_code"`
	Stdout     string   `json:"stdout,omitempty"`
	Stderr     string   `json:"stderr,omitempty"`
	DurationMs int64    `json:"duration_ms"`
	Failed     bool     `json:"failed"`
}

// TaskScore aggregates the evaluated metric results of a task.
type TaskScore struct {
	Points    float64       `json:"points" yaml:"points"`
	MaxPoints float64       `json:"max_points" yaml:"max_points"`
	Metrics   []MetricScore `json:"metrics" yaml:"metrics"`
}

// MetricScore is one metric's contribution to a task score.
type MetricScore struct {
	Metric    string   `json:"metric" yaml:"metric"`
	Points    float64  `json:"points" yaml:"points"`
	MaxPoints float64  `json:"max_points" yaml:"max_points"`
	Details   []string `json:"details,omitempty" yaml:"details,omitempty"`
}
