package config

import (
	"fmt"

	"github.com/AKirsch1/Deploy-to-Grading/types"
)

// TaskNode is one task in the dependency graph the executor walks.
type TaskNode struct {
	Name         string
	Config       *types.TaskConfig
	Dependencies []*TaskNode
	Dependents   []*TaskNode
}

// BuildTaskGraph links the loaded task configs into a dependency graph.
// The tasks map may be a subset of the assignment's tasks (--only);
// dependencies on unselected tasks are treated as satisfied. Assumes
// ValidateTaskConfigs already passed against the full set.
func BuildTaskGraph(cfg *types.AssignmentConfig, tasks map[string]*types.TaskConfig) (map[string]*TaskNode, error) {
	graph := make(map[string]*TaskNode, len(tasks))

	// First pass: create nodes
	for _, taskName := range cfg.Assignment.Tasks {
		taskCfg, ok := tasks[taskName]
		if !ok {
			continue // not selected for this run
		}
		graph[taskName] = &TaskNode{Name: taskName, Config: taskCfg}
	}

	for taskName := range tasks {
		if _, ok := graph[taskName]; !ok {
			return nil, fmt.Errorf("internal error: task %q is not part of the assignment", taskName)
		}
	}

	// Second pass: link dependencies
	for _, node := range graph {
		for _, depName := range node.Config.Task.DependsOn {
			depNode, exists := graph[depName]
			if !exists {
				continue // dependency not selected, treat as satisfied
			}
			node.Dependencies = append(node.Dependencies, depNode)
			depNode.Dependents = append(depNode.Dependents, node)
		}
	}

	return graph, nil
}
