package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/AKirsch1/Deploy-to-Grading/internal/logging"
	"github.com/AKirsch1/Deploy-to-Grading/internal/models"
	"github.com/AKirsch1/Deploy-to-Grading/types"
)

// generateExecutionSummary calculates the summary based on task records
// and context.
func generateExecutionSummary(
	records []models.TaskExecutionRecord,
	workflowId uuid.UUID,
	startTime time.Time,
	cfg *types.AssignmentConfig,
	cmdName string,
) models.ExecutionSummary {
	host, _ := os.Hostname()

	logDirBaseName := fmt.Sprintf("%s_%s_%s", startTime.Format("20060102T150405"), cmdName, workflowId)
	if cmdName == "submit-bg" {
		logDirBaseName = fmt.Sprintf("%s_%s_%s", startTime.Format("20060102T150405"), "submit", workflowId)
	}

	taskSummaries := make([]models.TaskSummary, 0, len(records))
	tasksSucceeded := 0
	tasksFailed := 0
	tasksSkipped := 0
	pointsAwarded := 0.0
	pointsPossible := 0.0
	var firstFailure *models.TaskSummary = nil

	for _, record := range records {
		summary := models.TaskSummary{
			TaskName:   record.TaskName,
			Status:     record.Status,
			StartTime:  record.StartTime,
			FinishTime: record.FinishTime,
			DurationMs: record.DurationMs,
			LogFile:    filepath.Join(logDirBaseName, logging.TaskRecordFileName(record.TaskName, workflowId)),
		}
		if record.Score != nil {
			summary.Points = record.Score.Points
			summary.MaxPoints = record.Score.MaxPoints
			pointsAwarded += record.Score.Points
			pointsPossible += record.Score.MaxPoints
		}
		taskSummaries = append(taskSummaries, summary)

		switch record.Status {
		case models.TaskSucceeded:
			tasksSucceeded++
		case models.TaskSkipped:
			tasksSkipped++
		default:
			tasksFailed++
			if firstFailure == nil {
				firstFailure = &taskSummaries[len(taskSummaries)-1]
			}
		}
	}

	overallStatus := "Success"
	if tasksFailed > 0 {
		overallStatus = "Failed"
	} else if tasksSkipped > 0 {
		// No failures but skipped tasks means an incomplete run
		overallStatus = "Partial"
	}

	// Determine initiator type based on command
	initiatorType := "user"
	switch cmdName {
	case "submit", "submit-bg":
		initiatorType = "d2g-submit"
	case "action":
		initiatorType = "ci"
	}

	return models.ExecutionSummary{
		WorkflowId:        workflowId,
		WorkflowStartTime: startTime.Format(time.RFC3339),
		D2GCmd:            cmdName,
		Assignment:        cfg.Assignment.Name,
		Initiator: types.Initiator{
			Type:   initiatorType,
			Id:     os.Getenv("USER"),
			Tenant: host,
		},
		Tasks:           taskSummaries,
		OverallStatus:   overallStatus,
		TotalDurationMs: time.Since(startTime).Milliseconds(),
		PointsAwarded:   pointsAwarded,
		PointsPossible:  pointsPossible,
		TasksSucceeded:  tasksSucceeded,
		TasksFailed:     tasksFailed,
		FirstFailure:    firstFailure,
	}
}

// writeSummary writes the execution summary to summary.json in the log directory.
// Returns an error if file operations fail.
func writeSummary(summary models.ExecutionSummary, logDir string) error {
	formatted, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		// This is an internal error, should be logged by caller
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	summaryPath := filepath.Join(logDir, "summary.json")
	f, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file %s: %w", summaryPath, err)
	}
	defer f.Close()

	_, err = f.Write(formatted)
	if err != nil {
		return fmt.Errorf("failed to write summary file %s: %w", summaryPath, err)
	}

	return nil
}
