package config

import (
	"fmt"
	"strings"

	"github.com/AKirsch1/Deploy-to-Grading/types"
)

// AssignmentEnvVars flattens the assignment config into KEY=value pairs
// for metric and evaluation subprocesses. Keys follow the established
// ASSIGNMENT_* naming that grading scripts expect.
func AssignmentEnvVars(cfg *types.AssignmentConfig) []string {
	return []string{
		fmt.Sprintf("ASSIGNMENT_NAME=%s", cfg.Assignment.Name),
		fmt.Sprintf("ASSIGNMENT_DUE_DATE=%s", cfg.Assignment.DueDate),
		fmt.Sprintf("ASSIGNMENT_TEMPLATE_REPOSITORY=%s", cfg.Assignment.TemplateRepository),
		fmt.Sprintf("ASSIGNMENT_TASKS=%s", strings.Join(cfg.Assignment.Tasks, " ")),
	}
}

// TaskEnvVars flattens a task config into KEY=value pairs, prefixed with
// the uppercased task name, e.g. TASK01_METRICS="checkstyle junit".
// Dashes in task names are mapped to underscores to stay valid env keys.
func TaskEnvVars(taskName string, cfg *types.TaskConfig) []string {
	prefix := EnvPrefix(taskName)
	vars := []string{
		fmt.Sprintf("%s_METRICS=%s", prefix, strings.Join(cfg.Task.Metrics, " ")),
	}
	for _, metric := range cfg.Task.Metrics {
		spec, ok := cfg.Scoring[metric]
		if !ok {
			continue
		}
		vars = append(vars, fmt.Sprintf("%s_%s_MAX_POINTS=%g", prefix, strings.ToUpper(metric), spec.MaxPoints))
	}
	return vars
}

// EnvPrefix converts a task name into its env var prefix.
func EnvPrefix(taskName string) string {
	return strings.ToUpper(strings.ReplaceAll(taskName, "-", "_"))
}
