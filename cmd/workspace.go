package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/AKirsch1/Deploy-to-Grading/internal/config"
	"github.com/AKirsch1/Deploy-to-Grading/types"
)

// loadWorkspace loads assignment.yml plus every task.yml it references
// and validates the whole set. Shared by run, submit, action and lint.
func loadWorkspace(configPath string) (*types.AssignmentConfig, string, map[string]*types.TaskConfig, error) {
	cfg, configDir, err := config.LoadAssignmentConfig(configPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to load %q: %w", configPath, err)
	}

	if err := config.ValidateAssignmentConfig(cfg); err != nil {
		return nil, "", nil, fmt.Errorf("failed to validate %q: %w", configPath, err)
	}

	taskConfigs := make(map[string]*types.TaskConfig, len(cfg.Assignment.Tasks))
	for _, taskName := range cfg.Assignment.Tasks {
		taskCfg, err := config.LoadTaskConfig(filepath.Join(configDir, taskName))
		if err != nil {
			return nil, "", nil, fmt.Errorf("failed to load task config for %q: %w", taskName, err)
		}
		taskConfigs[taskName] = taskCfg
	}

	if err := config.ValidateTaskConfigs(cfg, taskConfigs); err != nil {
		return nil, "", nil, fmt.Errorf("task configuration invalid: %w", err)
	}

	return cfg, configDir, taskConfigs, nil
}
