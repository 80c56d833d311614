package pipeline

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/AKirsch1/Deploy-to-Grading/internal/config"
	"github.com/AKirsch1/Deploy-to-Grading/internal/context"
	"github.com/AKirsch1/Deploy-to-Grading/internal/evaluate"
	"github.com/AKirsch1/Deploy-to-Grading/internal/executor"
	"github.com/AKirsch1/Deploy-to-Grading/internal/gitx"
	"github.com/AKirsch1/Deploy-to-Grading/internal/metric"
	"github.com/AKirsch1/Deploy-to-Grading/internal/models"
	"github.com/AKirsch1/Deploy-to-Grading/internal/override"
	"github.com/AKirsch1/Deploy-to-Grading/types"
)

// Pipeline grades a whole assignment: due date checkout, template
// override, per-task metric runs and evaluation. It implements
// executor.TaskRunner for the per-task part.
type Pipeline struct {
	Registry  *metric.Registry
	Initiator types.Initiator
}

func New(registry *metric.Registry, initiator types.Initiator) *Pipeline {
	return &Pipeline{Registry: registry, Initiator: initiator}
}

// Run executes the full grading workflow and returns the execution
// records of all graded tasks together with the assignment aggregate.
func (p *Pipeline) Run(ctx *context.ExecutionContext, logger zerolog.Logger) ([]models.TaskExecutionRecord, *evaluate.AssignmentResult, error) {
	cfg := ctx.Config

	// --- Due date checkout ---

	if ctx.NoCheckout {
		logger.Info().Msg("Skipping due date checkout (--no-checkout)")
	} else {
		dueDate, err := time.Parse(time.RFC3339, cfg.Assignment.DueDate)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid due date %q: %w", cfg.Assignment.DueDate, err)
		}

		previousRef, err := gitx.CheckoutDueDate(ctx.ConfigDir, dueDate)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check out submission state at due date: %w", err)
		}
		logger.Info().Str("due_date", cfg.Assignment.DueDate).Msg("Checked out submission state at due date")
		defer gitx.RevertCheckout(ctx.ConfigDir, previousRef)
	}

	// --- Template repository override (assignment level) ---

	if ctx.NoOverride || cfg.Assignment.TemplateRepository == "" {
		logger.Debug().Msg("Skipping assignment file override")
	} else if err := override.AssignmentFiles(ctx, logger); err != nil {
		return nil, nil, fmt.Errorf("failed to override assignment files from template repository: %w", err)
	}

	// --- Task selection and graph construction ---

	tasks, err := selectTasks(ctx)
	if err != nil {
		return nil, nil, err
	}

	graph, err := config.BuildTaskGraph(cfg, tasks)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build task graph: %w", err)
	}

	// --- Concurrent task grading ---

	exec := executor.NewExecutor(ctx, graph, cfg.Config.Concurrency, p)
	records, err := exec.ExecuteAndWait()
	if err != nil {
		return records, nil, err
	}

	// --- Assignment-level evaluation ---

	if err := os.MkdirAll(ctx.ResultsDir, 0755); err != nil {
		return records, nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	aggregate, err := evaluate.WriteAssignmentResult(ctx.ResultsDir, cfg.Assignment.Name, records)
	if err != nil {
		return records, nil, fmt.Errorf("failed to write assignment result: %w", err)
	}

	return records, aggregate, nil
}

// selectTasks narrows ctx.TaskConfigs down to --only selections. The
// full config set was already validated, so unknown names are the only
// possible error here.
func selectTasks(ctx *context.ExecutionContext) (map[string]*types.TaskConfig, error) {
	if len(ctx.OnlyTasks) == 0 {
		return ctx.TaskConfigs, nil
	}

	selected := make(map[string]*types.TaskConfig, len(ctx.OnlyTasks))
	for _, name := range ctx.OnlyTasks {
		cfg, ok := ctx.TaskConfigs[name]
		if !ok {
			return nil, fmt.Errorf("task %q selected via --only is not part of the assignment", name)
		}
		selected[name] = cfg
	}
	return selected, nil
}

// RunTask grades a single task: restore template files, run every
// metric, evaluate the produced result files and write the task score.
// It always returns a record, never nil.
func (p *Pipeline) RunTask(ctx *context.ExecutionContext, node *config.TaskNode, logger zerolog.Logger) *models.TaskExecutionRecord {
	startTime := time.Now()

	record := &models.TaskExecutionRecord{
		TaskName:   node.Name,
		D2GCmd:     ctx.D2GCmd,
		Assignment: ctx.Config.Assignment.Name,
		Initiator:  p.Initiator,
		WorkflowId: ctx.WorkflowId,
		StartTime:  startTime.Format(time.RFC3339),
	}

	fail := func(reason string) *models.TaskExecutionRecord {
		record.Status = models.TaskFailed
		record.FailureReason = reason
		record.FinishTime = time.Now().Format(time.RFC3339)
		record.DurationMs = time.Since(startTime).Milliseconds()
		return record
	}

	taskDir := ctx.TaskDir(node.Name)
	if _, err := os.Stat(taskDir); err != nil {
		return fail(fmt.Sprintf("task directory %s not accessible: %v", taskDir, err))
	}

	// --- Template override (task level) ---

	if !ctx.NoOverride && ctx.Config.Assignment.TemplateRepository != "" {
		if err := override.TaskFiles(ctx, node.Name, logger); err != nil {
			return fail(fmt.Sprintf("failed to override task files from template repository: %v", err))
		}
	}

	// --- Metric execution ---

	extraEnv := config.AssignmentEnvVars(ctx.Config)
	extraEnv = append(extraEnv, config.TaskEnvVars(node.Name, node.Config)...)

	for _, metricName := range node.Config.Task.Metrics {
		handler, ok := p.Registry.Resolve(ctx, metricName)
		if !ok {
			return fail(fmt.Sprintf("no handler can run metric %q", metricName))
		}

		logger.Info().Str("metric", metricName).Str("handler", handler.Name()).Msg("Running metric")

		execution := handler.Run(ctx, taskDir, metricName, extraEnv, logger)
		record.Metrics = append(record.Metrics, *execution)

		if execution.Failed {
			// Fail fast within the task. Downstream metrics would grade
			// a broken build and only add noise.
			return fail(fmt.Sprintf("metric %q failed with exit code %d", metricName, execution.ExitCode))
		}
	}

	// --- Evaluation ---

	score, err := evaluate.Task(taskDir, node.Config)
	if err != nil {
		return fail(fmt.Sprintf("failed to evaluate metric results: %v", err))
	}
	record.Score = score

	if err := os.MkdirAll(ctx.ResultsDir, 0755); err != nil {
		return fail(fmt.Sprintf("failed to create results directory: %v", err))
	}
	if err := evaluate.WriteTaskResult(ctx.ResultsDir, node.Name, score); err != nil {
		return fail(fmt.Sprintf("failed to write task result: %v", err))
	}

	record.Status = models.TaskSucceeded
	record.FinishTime = time.Now().Format(time.RFC3339)
	record.DurationMs = time.Since(startTime).Milliseconds()
	return record
}
