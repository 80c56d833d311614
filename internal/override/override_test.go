package override

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AKirsch1/Deploy-to-Grading/internal/context"
	"github.com/AKirsch1/Deploy-to-Grading/types"
)

// seedTemplate pre-populates the clone staging area so no git clone
// happens during the test.
func seedTemplate(t *testing.T, ctx *context.ExecutionContext, files map[string]string) {
	t.Helper()

	cloneDir := filepath.Join(stageDir(ctx), "template")
	for path, content := range files {
		full := filepath.Join(cloneDir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	// Marker so the stage is treated as an existing clone
	require.NoError(t, os.MkdirAll(filepath.Join(cloneDir, ".git"), 0755))
}

func testContext(t *testing.T) *context.ExecutionContext {
	t.Helper()

	cfg := &types.AssignmentConfig{}
	cfg.Assignment.Name = "assignment01"
	cfg.Assignment.TemplateRepository = "https://example.com/org/template.git"
	cfg.Assignment.Tasks = []string{"task01"}

	return &context.ExecutionContext{
		Config:    cfg,
		ConfigDir: t.TempDir(),
		LogDir:    t.TempDir(),
	}
}

func writeWorkspaceFile(t *testing.T, root, path, content string) {
	t.Helper()
	full := filepath.Join(root, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func readWorkspaceFile(t *testing.T, root, path string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, path))
	require.NoError(t, err)
	return string(data)
}

func TestAssignmentFiles(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("Restores assignment-level files", func(t *testing.T) {
		ctx := testContext(t)
		seedTemplate(t, ctx, map[string]string{
			"assignment.yml":  "template version",
			"build.gradle":    "template build",
			"task01/task.yml": "template task",
		})

		writeWorkspaceFile(t, ctx.ConfigDir, "assignment.yml", "tampered")
		writeWorkspaceFile(t, ctx.ConfigDir, "task01/task.yml", "tampered task")
		writeWorkspaceFile(t, ctx.ConfigDir, "results/results.yml", "old results")

		require.NoError(t, AssignmentFiles(ctx, logger))

		assert.Equal(t, "template version", readWorkspaceFile(t, ctx.ConfigDir, "assignment.yml"))
		assert.Equal(t, "template build", readWorkspaceFile(t, ctx.ConfigDir, "build.gradle"))
		// Task folders and results are not touched at the assignment level
		assert.Equal(t, "tampered task", readWorkspaceFile(t, ctx.ConfigDir, "task01/task.yml"))
		assert.Equal(t, "old results", readWorkspaceFile(t, ctx.ConfigDir, "results/results.yml"))
	})
}

func TestTaskFiles(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("Restores task files but keeps the submission", func(t *testing.T) {
		ctx := testContext(t)
		seedTemplate(t, ctx, map[string]string{
			"task01/task.yml":           "template task",
			"task01/build.gradle":       "template build",
			"task01/src/Main.java":      "template stub",
			"task01/test/MainTest.java": "template test",
		})

		writeWorkspaceFile(t, ctx.ConfigDir, "task01/task.yml", "tampered")
		writeWorkspaceFile(t, ctx.ConfigDir, "task01/src/Main.java", "student solution")
		writeWorkspaceFile(t, ctx.ConfigDir, "task01/test/MainTest.java", "tampered test")
		writeWorkspaceFile(t, ctx.ConfigDir, "task01/build/results/test.yml", "stale result")

		require.NoError(t, TaskFiles(ctx, "task01", logger))

		assert.Equal(t, "template task", readWorkspaceFile(t, ctx.ConfigDir, "task01/task.yml"))
		assert.Equal(t, "template build", readWorkspaceFile(t, ctx.ConfigDir, "task01/build.gradle"))
		assert.Equal(t, "template test", readWorkspaceFile(t, ctx.ConfigDir, "task01/test/MainTest.java"))
		// The student's solution survives the override
		assert.Equal(t, "student solution", readWorkspaceFile(t, ctx.ConfigDir, "task01/src/Main.java"))
		assert.Equal(t, "stale result", readWorkspaceFile(t, ctx.ConfigDir, "task01/build/results/test.yml"))
	})

	t.Run("Task missing in template", func(t *testing.T) {
		ctx := testContext(t)
		seedTemplate(t, ctx, map[string]string{
			"assignment.yml": "template version",
		})

		err := TaskFiles(ctx, "task99", logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), `task "task99" not present in template repository`)
	})
}
