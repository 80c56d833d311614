package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AKirsch1/Deploy-to-Grading/types"
)

func TestWriteTpl(t *testing.T) {
	t.Run("Assignment template renders valid YAML", func(t *testing.T) {
		outPath := filepath.Join(t.TempDir(), "assignment.yml")

		err := WriteTpl("files/assignment.yml.tmpl", outPath, map[string]string{
			"AssignmentName":     "assignment01",
			"DueDate":            "2026-10-01T23:59:59+02:00",
			"TemplateRepository": "https://example.com/org/template.git",
			"FirstTask":          "task01",
		})
		require.NoError(t, err)

		data, err := os.ReadFile(outPath)
		require.NoError(t, err)

		var cfg types.AssignmentConfig
		require.NoError(t, yaml.Unmarshal(data, &cfg))
		assert.Equal(t, "assignment01", cfg.Assignment.Name)
		assert.Equal(t, "https://example.com/org/template.git", cfg.Assignment.TemplateRepository)
		assert.Equal(t, []string{"task01"}, cfg.Assignment.Tasks)
		assert.Equal(t, "temurin", cfg.Config.Toolchain.Distribution)
	})

	t.Run("Template repository line is optional", func(t *testing.T) {
		outPath := filepath.Join(t.TempDir(), "assignment.yml")

		err := WriteTpl("files/assignment.yml.tmpl", outPath, map[string]string{
			"AssignmentName": "assignment01",
			"DueDate":        "2026-10-01T23:59:59+02:00",
			"FirstTask":      "task01",
		})
		require.NoError(t, err)

		var cfg types.AssignmentConfig
		data, err := os.ReadFile(outPath)
		require.NoError(t, err)
		require.NoError(t, yaml.Unmarshal(data, &cfg))
		assert.Empty(t, cfg.Assignment.TemplateRepository)
	})

	t.Run("Task template renders valid YAML", func(t *testing.T) {
		outPath := filepath.Join(t.TempDir(), "task.yml")

		err := WriteTpl("files/task.yml.tmpl", outPath, map[string]string{"TaskName": "task01"})
		require.NoError(t, err)

		var cfg types.TaskConfig
		data, err := os.ReadFile(outPath)
		require.NoError(t, err)
		require.NoError(t, yaml.Unmarshal(data, &cfg))
		assert.Equal(t, "task01", cfg.Task.Name)
		assert.Equal(t, []string{"compile", "test"}, cfg.Task.Metrics)
		assert.Equal(t, 5.0, cfg.Scoring["test"].MaxPoints)
	})

	t.Run("Unknown template", func(t *testing.T) {
		err := WriteTpl("files/nope.tmpl", filepath.Join(t.TempDir(), "out"), nil)
		assert.Error(t, err)
	})
}
