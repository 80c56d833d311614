package context

import (
	"path/filepath"

	"github.com/google/uuid"

	"github.com/AKirsch1/Deploy-to-Grading/types"
)

// ExecutionContext carries everything a single grading run needs. It is
// built once per workflow by the invoking command and handed through the
// pipeline, executor and metric handlers.
type ExecutionContext struct {
	WorkflowId  uuid.UUID
	Config      *types.AssignmentConfig
	ConfigDir   string // Directory that holds assignment.yml
	TaskConfigs map[string]*types.TaskConfig
	LogDir      string
	ResultsDir  string   // <ConfigDir>/results, the artifact input
	OnlyTasks   []string // Selective task runs (--only)
	D2GCmd      string   // "run", "submit-bg", "action"

	// D2GPath is the absolute installation directory of the d2g binary,
	// exported to every subprocess as D2G_PATH. Metric scripts use it to
	// locate scripts/metrics/.
	D2GPath string

	NoCheckout bool // Skip the due date checkout (local experimentation)
	NoOverride bool // Skip the template repository override
}

// TaskDir returns the folder of a task within the assignment.
func (c *ExecutionContext) TaskDir(taskName string) string {
	return filepath.Join(c.ConfigDir, taskName)
}
