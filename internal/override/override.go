package override

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/AKirsch1/Deploy-to-Grading/internal/context"
	"github.com/AKirsch1/Deploy-to-Grading/internal/gitx"
	"github.com/AKirsch1/Deploy-to-Grading/internal/paths"
)

// Students may only change their solution code. Everything else (build
// files, task configs, test sources) is restored from the template
// repository before grading so tampered checks cannot score points.
//
// submissionDirName is the one folder inside a task that is NEVER
// overridden.
const submissionDirName = "src"

// AssignmentFiles restores the assignment-level files (assignment.yml,
// shared build config) from the template repository. Task folders and
// the results folder are left alone; tasks are handled per task right
// before their metrics run.
func AssignmentFiles(ctx *context.ExecutionContext, logger zerolog.Logger) error {
	cloneDir, err := gitx.CloneTemplate(stageDir(ctx), ctx.Config.Assignment.TemplateRepository)
	if err != nil {
		return fmt.Errorf("template override failed: %w", err)
	}

	skip := map[string]bool{
		".git":               true,
		paths.ResultsDirName: true,
	}
	for _, task := range ctx.Config.Assignment.Tasks {
		skip[task] = true
	}

	logger.Debug().Str("template", cloneDir).Msg("Overriding assignment-level files from template")
	return copyTree(cloneDir, ctx.ConfigDir, skip)
}

// TaskFiles restores a single task folder from the template repository,
// preserving the student's submission directory.
func TaskFiles(ctx *context.ExecutionContext, taskName string, logger zerolog.Logger) error {
	cloneDir, err := gitx.CloneTemplate(stageDir(ctx), ctx.Config.Assignment.TemplateRepository)
	if err != nil {
		return fmt.Errorf("template override failed: %w", err)
	}

	templateTaskDir := filepath.Join(cloneDir, taskName)
	if _, err := os.Stat(templateTaskDir); err != nil {
		return fmt.Errorf("task %q not present in template repository: %w", taskName, err)
	}

	skip := map[string]bool{
		submissionDirName: true,
		"build":           true,
		".git":            true,
	}

	logger.Debug().Str("template_task", templateTaskDir).Msg("Overriding task files from template")
	return copyTree(templateTaskDir, ctx.TaskDir(taskName), skip)
}

func stageDir(ctx *context.ExecutionContext) string {
	return filepath.Join(ctx.LogDir, ".template-stage")
}

// copyTree copies src into dst, overwriting existing files. Top-level
// entries named in skip are not descended into.
func copyTree(src, dst string, skip map[string]bool) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("failed to read template directory %s: %w", src, err)
	}

	for _, entry := range entries {
		if skip[entry.Name()] {
			continue
		}

		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := os.MkdirAll(dstPath, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dstPath, err)
			}
			// Skip rules only apply at the top level.
			if err := copyTree(srcPath, dstPath, nil); err != nil {
				return err
			}
			continue
		}

		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open template file %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat template file %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return nil
}
