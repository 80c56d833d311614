package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AKirsch1/Deploy-to-Grading/internal/models"
)

func TestCreateLogDir(t *testing.T) {
	origWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(origWd) })

	workflowId := uuid.New()
	startTime := time.Date(2026, 4, 23, 21, 32, 45, 0, time.UTC)

	logDir, err := CreateLogDir(workflowId, startTime, "run")
	require.NoError(t, err)

	assert.DirExists(t, logDir)
	assert.Equal(t, filepath.Join(".d2g", "logs", "20260423T213245_run_"+workflowId.String()), logDir)
}

func TestSaveTaskExecutionRecord(t *testing.T) {
	logDir := t.TempDir()
	workflowId := uuid.New()

	record := models.TaskExecutionRecord{
		TaskName:   "task01",
		WorkflowId: workflowId,
		Status:     models.TaskSucceeded,
	}

	require.NoError(t, SaveTaskExecutionRecord(logDir, record))

	fileName := TaskRecordFileName("task01", workflowId)
	assert.True(t, strings.HasPrefix(fileName, "TASK01_"))
	assert.True(t, strings.HasSuffix(fileName, ".json"))

	data, err := os.ReadFile(filepath.Join(logDir, fileName))
	require.NoError(t, err)

	var loaded models.TaskExecutionRecord
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, "task01", loaded.TaskName)
	assert.Equal(t, models.TaskSucceeded, loaded.Status)
}
