package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AKirsch1/Deploy-to-Grading/internal/models"
)

// CreateLogDir returns a full path like
// ".d2g/logs/20250423T213245_run_3c43e9f4-9026-4d04-ba06-054e8903e80a"
func CreateLogDir(workflowId uuid.UUID, workflowStartTime time.Time, d2gCmd string) (string, error) {
	timestampStr := workflowStartTime.Format("20060102T150405")

	dirName := fmt.Sprintf("%s_%s_%s", timestampStr, d2gCmd, workflowId)
	fullPath := filepath.Join(".d2g", "logs", dirName)

	err := os.MkdirAll(fullPath, os.ModePerm)
	if err != nil {
		return "", fmt.Errorf("failed to create log directory '%s': %w", fullPath, err)
	}
	return fullPath, nil
}

// SaveTaskExecutionRecord stores the detailed record for a single task.
// Filename: TASKNAME_WORKFLOWID8.json (e.g., TASK01_3C43E9F4.json)
func SaveTaskExecutionRecord(logDir string, record models.TaskExecutionRecord) error {
	idPart := strings.ToUpper(record.WorkflowId.String())
	if len(idPart) > 8 {
		idPart = idPart[:8]
	}
	fileName := fmt.Sprintf("%s_%s.json", strings.ToUpper(record.TaskName), idPart)
	filePath := filepath.Join(logDir, fileName)

	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create task log file %s: %w", filePath, err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to encode task log record to %s: %w", filePath, err)
	}
	return nil
}

// TaskRecordFileName mirrors SaveTaskExecutionRecord's naming so summary
// entries can reference the record file without recomputing it ad hoc.
func TaskRecordFileName(taskName string, workflowId uuid.UUID) string {
	idPart := strings.ToUpper(workflowId.String())
	if len(idPart) > 8 {
		idPart = idPart[:8]
	}
	return fmt.Sprintf("%s_%s.json", strings.ToUpper(taskName), idPart)
}
