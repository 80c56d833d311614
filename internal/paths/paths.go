package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvD2GPath is the env var metric scripts read to locate the d2g
// installation (scripts/metrics/, evaluation helpers).
const EnvD2GPath = "D2G_PATH"

// ResultsDirName is the folder the grading run fills and the artifact
// step packages, relative to the assignment root.
const ResultsDirName = "results"

// TaskResultsDir is where metric runs drop their result files, relative
// to the task folder.
var taskResultsParts = []string{"build", "results"}

// InstallDir returns the directory holding the running d2g binary with
// symlinks resolved. This value is independent of the caller's working
// directory and is what gets exported as D2G_PATH.
func InstallDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to determine d2g executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve d2g executable symlinks: %w", err)
	}
	return filepath.Dir(resolved), nil
}

// ResultsDir returns the assignment-level results folder.
func ResultsDir(configDir string) string {
	return filepath.Join(configDir, ResultsDirName)
}

// TaskResultsDir returns the folder a task's metric results land in.
func TaskResultsDir(taskDir string) string {
	return filepath.Join(append([]string{taskDir}, taskResultsParts...)...)
}

// MetricScriptCandidates lists the script locations probed for a metric,
// in resolution order. Shell scripts win over python scripts; if neither
// exists the metric falls through to the gradle handler.
func MetricScriptCandidates(d2gPath, metric string) []string {
	base := filepath.Join(d2gPath, "scripts", "metrics", metric)
	return []string{base + ".sh", base + ".py"}
}
