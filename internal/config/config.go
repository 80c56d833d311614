package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AKirsch1/Deploy-to-Grading/types"
)

const (
	AssignmentFileName = "assignment.yml"
	TaskFileName       = "task.yml"
)

// Task folders double as env var prefixes, so keep the charset tight.
var taskNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{0,63}$`)

// Metric names map to script file names and gradle task names.
var metricNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,63}$`)

// LoadAssignmentConfig reads and parses assignment.yml. It returns the
// config and the absolute directory containing it; validation is left to
// the caller so lint can report all problems in one pass.
func LoadAssignmentConfig(filename string) (*types.AssignmentConfig, string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var cfg types.AssignmentConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve path of %s: %w", filename, err)
	}

	return &cfg, filepath.Dir(absPath), nil
}

// LoadTaskConfig reads and parses <taskDir>/task.yml. The task name
// defaults to the folder's base name when task.yml does not set one.
func LoadTaskConfig(taskDir string) (*types.TaskConfig, error) {
	path := filepath.Join(taskDir, TaskFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task config %s: %w", path, err)
	}

	var cfg types.TaskConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", path, err)
	}

	if cfg.Task.Name == "" {
		cfg.Task.Name = filepath.Base(taskDir)
	}

	return &cfg, nil
}

// ValidateAssignmentConfig checks the assignment-level fields. Errors are
// collected so the user sees every problem at once.
func ValidateAssignmentConfig(cfg *types.AssignmentConfig) error {
	errs := validateAssignmentSyntax(cfg)
	if len(errs) > 0 {
		return errors.New("assignment configuration validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

func validateAssignmentSyntax(cfg *types.AssignmentConfig) []string {
	var errs []string

	if cfg.Assignment.Name == "" {
		errs = append(errs, "field 'assignment.name' is required")
	}

	if cfg.Assignment.DueDate == "" {
		errs = append(errs, "field 'assignment.due_date' is required")
	} else if _, err := time.Parse(time.RFC3339, cfg.Assignment.DueDate); err != nil {
		errs = append(errs, fmt.Sprintf("field 'assignment.due_date' %q is not a valid RFC3339 timestamp", cfg.Assignment.DueDate))
	}

	if cfg.Assignment.TemplateRepository == "" {
		errs = append(errs, "field 'assignment.template_repository' is required")
	}

	if len(cfg.Assignment.Tasks) == 0 {
		errs = append(errs, "at least one task must be listed under 'assignment.tasks'")
	}

	seen := make(map[string]bool)
	for i, task := range cfg.Assignment.Tasks {
		taskCtx := fmt.Sprintf("assignment.tasks[%d]", i)
		if task == "" {
			errs = append(errs, fmt.Sprintf("%s: task name cannot be empty", taskCtx))
			continue
		}
		if !taskNameRegex.MatchString(task) {
			errs = append(errs, fmt.Sprintf("%s: invalid task name %q (must match %s)", taskCtx, task, taskNameRegex.String()))
		}
		lower := strings.ToLower(task)
		if seen[lower] {
			errs = append(errs, fmt.Sprintf("%s: duplicate task %q listed", taskCtx, task))
		}
		seen[lower] = true
	}

	if cfg.Config.Concurrency < 0 {
		errs = append(errs, "field 'config.concurrency' cannot be negative")
	}

	return errs
}

// ValidateTaskConfigs checks every task's metric and scoring setup, the
// dependency references, and rejects dependency cycles. Assumes the
// assignment config itself already passed ValidateAssignmentConfig.
func ValidateTaskConfigs(cfg *types.AssignmentConfig, tasks map[string]*types.TaskConfig) error {
	var errs []string

	for _, taskName := range cfg.Assignment.Tasks {
		taskCfg, ok := tasks[taskName]
		if !ok {
			errs = append(errs, fmt.Sprintf("task[%q]: no task configuration loaded", taskName))
			continue
		}
		errs = append(errs, validateTaskSyntax(taskName, taskCfg)...)
	}

	if len(errs) > 0 {
		return errors.New("task configuration validation failed:\n- " + strings.Join(errs, "\n- "))
	}

	// --- Validate dependencies & build graph for cycle detection ---

	graph := make(map[string]*TaskNode, len(tasks))
	for _, taskName := range cfg.Assignment.Tasks {
		graph[taskName] = &TaskNode{Name: taskName, Config: tasks[taskName]}
	}

	for _, taskName := range cfg.Assignment.Tasks {
		node := graph[taskName]
		for _, depName := range node.Config.Task.DependsOn {
			depNode, exists := graph[depName]
			if !exists {
				errs = append(errs, fmt.Sprintf("task[%q]: dependency %q not found in assignment.tasks", taskName, depName))
				continue
			}
			if depName == taskName {
				errs = append(errs, fmt.Sprintf("task[%q]: task cannot depend on itself", taskName))
				continue
			}
			node.Dependencies = append(node.Dependencies, depNode)
			depNode.Dependents = append(depNode.Dependents, node)
		}
	}

	if len(errs) == 0 {
		if cyclePath := detectCycle(graph); cyclePath != nil {
			errs = append(errs, fmt.Sprintf("dependency cycle detected: %s", strings.Join(cyclePath, " -> ")))
		}
	}

	if len(errs) > 0 {
		return errors.New("task configuration validation failed:\n- " + strings.Join(errs, "\n- "))
	}

	return nil
}

func validateTaskSyntax(taskName string, cfg *types.TaskConfig) []string {
	var errs []string
	taskCtx := fmt.Sprintf("task[%q]", taskName)

	if len(cfg.Task.Metrics) == 0 {
		errs = append(errs, fmt.Sprintf("%s: at least one metric must be listed under 'task.metrics'", taskCtx))
	}

	seen := make(map[string]bool)
	for i, metric := range cfg.Task.Metrics {
		metricCtx := fmt.Sprintf("%s metric[%d]", taskCtx, i)
		if metric == "" {
			errs = append(errs, fmt.Sprintf("%s: metric name cannot be empty", metricCtx))
			continue
		}
		if !metricNameRegex.MatchString(metric) {
			errs = append(errs, fmt.Sprintf("%s: invalid metric name %q (must match %s)", metricCtx, metric, metricNameRegex.String()))
		}
		if seen[metric] {
			errs = append(errs, fmt.Sprintf("%s: duplicate metric %q listed", taskCtx, metric))
		}
		seen[metric] = true
	}

	for metricName, spec := range cfg.Scoring {
		scoringCtx := fmt.Sprintf("%s scoring[%q]", taskCtx, metricName)
		if !seen[metricName] {
			errs = append(errs, fmt.Sprintf("%s: scoring entry does not match any listed metric", scoringCtx))
		}
		if spec.MaxPoints < 0 {
			errs = append(errs, fmt.Sprintf("%s: 'max_points' cannot be negative", scoringCtx))
		}
	}

	return errs
}

// detectCycle performs DFS to find cycles in the task graph.
// Returns a slice of task names representing the cycle path if found,
// otherwise nil.
func detectCycle(graph map[string]*TaskNode) []string {
	path := []string{}
	visited := make(map[string]bool)
	visiting := make(map[string]bool)

	var dfs func(nodeName string) []string

	dfs = func(nodeName string) []string {
		visited[nodeName] = true
		visiting[nodeName] = true
		path = append(path, nodeName)

		node := graph[nodeName]
		for _, dep := range node.Dependents {
			depName := dep.Name

			if visiting[depName] {
				// Encountered a node already in the current recursion stack
				cycleStartIndex := -1
				for i, nameInPath := range path {
					if nameInPath == depName {
						cycleStartIndex = i
						break
					}
				}
				if cycleStartIndex != -1 {
					return append(path[cycleStartIndex:], depName)
				}
				return append(path, depName)
			}

			if !visited[depName] {
				if cycleResult := dfs(depName); cycleResult != nil {
					return cycleResult
				}
			}
		}

		path = path[:len(path)-1]
		visiting[nodeName] = false
		return nil
	}

	for nodeName := range graph {
		if !visited[nodeName] {
			if cycle := dfs(nodeName); cycle != nil {
				return cycle
			}
		}
	}

	return nil
}
