package executor

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AKirsch1/Deploy-to-Grading/internal/config"
	"github.com/AKirsch1/Deploy-to-Grading/internal/context"
	"github.com/AKirsch1/Deploy-to-Grading/internal/logging"
	"github.com/AKirsch1/Deploy-to-Grading/internal/models"
	"github.com/AKirsch1/Deploy-to-Grading/types"
)

type TaskState string

const (
	// Initial state, dependencies not checked or not met.
	StatePending TaskState = "PENDING"

	// Dependencies checked and met, ready for dispatch.
	StateReady TaskState = "READY"

	StateDispatching TaskState = "DISPATCHING"

	// Terminal state: task graded without a failing metric.
	StateSucceeded TaskState = "SUCCEEDED"

	// Terminal state: task failed (override error, failing metric, evaluation error).
	StateFailed TaskState = "FAILED"

	// Terminal state: task was not graded because an upstream dependency failed.
	StateSkipped TaskState = "SKIPPED"
)

// TaskRunner grades a single task. The pipeline implements this; the
// executor only schedules.
type TaskRunner interface {
	RunTask(ctx *context.ExecutionContext, node *config.TaskNode, logger zerolog.Logger) *models.TaskExecutionRecord
}

type Executor struct {
	ctx                *context.ExecutionContext
	taskGraph          map[string]*config.TaskNode
	taskStates         map[string]TaskState
	stateMutex         sync.RWMutex
	results            map[string]*models.TaskExecutionRecord
	resultsMutex       sync.RWMutex
	wg                 sync.WaitGroup
	maxConcurrency     int
	concurrencyChan    chan struct{} // Semaphore to limit concurrency
	taskCompletionChan chan struct{}
	runner             TaskRunner
	logger             zerolog.Logger
}

const DefaultConcurrency = 2

func NewExecutor(ctx *context.ExecutionContext, graph map[string]*config.TaskNode, concurrency int, runner TaskRunner) *Executor {
	instanceLogger := log.With().
		Str("component", "executor").
		Str("workflow_id", ctx.WorkflowId.String()).
		Logger()

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
		instanceLogger.Debug().Msgf("Using default concurrency: %d", concurrency)
	}

	return &Executor{
		ctx:                ctx,
		taskGraph:          graph,
		taskStates:         make(map[string]TaskState, len(graph)),
		results:            make(map[string]*models.TaskExecutionRecord),
		maxConcurrency:     concurrency,
		concurrencyChan:    make(chan struct{}, concurrency),
		taskCompletionChan: make(chan struct{}, len(graph)),
		runner:             runner,
		logger:             instanceLogger,
	}
}

func (e *Executor) ExecuteAndWait() ([]models.TaskExecutionRecord, error) {
	e.logger.Debug().Msg("Initializing DAG execution states...")

	// --- Initialize all task states ---

	e.stateMutex.Lock()
	for taskName, node := range e.taskGraph {
		e.results[taskName] = nil // Indicates not yet run/finished

		if len(node.Dependencies) == 0 {
			e.taskStates[taskName] = StateReady
			e.logger.Debug().Str("task", taskName).Msgf("Initial state: %s (no dependencies)", StateReady)
		} else {
			e.taskStates[taskName] = StatePending
			e.logger.Debug().Str("task", taskName).Msgf("Initial state: %s", StatePending)
		}
	}
	e.stateMutex.Unlock()

	e.logger.Debug().Msg("Starting DAG execution loop...")

	// --- Core execution loop ---

	activeGoroutines := 0

	for {
		if e.allTasksDone() {
			break
		}

		// Find tasks that are ready to run (PENDING -> READY)
		e.checkAndReadyTasks()

		// Launch ready tasks concurrently
		launchedCount := e.launchReadyTasks(&activeGoroutines)

		if activeGoroutines == 0 && launchedCount == 0 && !e.allTasksDone() {
			e.logger.Error().Msg("Deadlock detected or internal scheduling error. No tasks running or ready.")
			return e.collectFinalResults(), fmt.Errorf("executor deadlock: no tasks running or ready, but not all tasks are finished")
		}

		if launchedCount == 0 && activeGoroutines > 0 {
			e.logger.Debug().Msg("Waiting for any running task to complete...")
			select {
			case <-e.taskCompletionChan:
				e.logger.Debug().Msg("Received task completion signal.")
				activeGoroutines--
			case <-time.After(10 * time.Minute):
				e.logger.Warn().Msg("Timeout waiting for task completion signal.")
			}
		}
	}

	// --- Wait for any remaining tasks and collect results ---

	e.logger.Debug().Msg("Waiting for final task completions...")
	e.wg.Wait()

	// --- Handle skipped tasks and finalize results ---

	e.markSkippedTasks()
	finalResults := e.collectFinalResults()

	e.logger.Debug().Msgf("Collected %d final task execution records.", len(finalResults))

	return finalResults, nil
}

func (e *Executor) getTaskState(taskName string) TaskState {
	e.stateMutex.RLock()
	defer e.stateMutex.RUnlock()
	return e.taskStates[taskName]
}

func (e *Executor) setTaskState(taskName string, state TaskState) {
	e.stateMutex.Lock()
	defer e.stateMutex.Unlock()

	e.taskStates[taskName] = state

	e.logger.Debug().Str("task_name", taskName).Msgf("State changed to %s", state)
}

func (e *Executor) addResult(taskName string, record *models.TaskExecutionRecord) {
	e.resultsMutex.Lock()
	defer e.resultsMutex.Unlock()

	e.results[taskName] = record
}

// allTasksDone checks if all tasks in the graph are in a terminal state
func (e *Executor) allTasksDone() bool {
	e.stateMutex.RLock()
	defer e.stateMutex.RUnlock()

	for _, state := range e.taskStates {
		switch state {
		case StateSucceeded, StateFailed, StateSkipped:
			continue
		default:
			return false
		}
	}
	return true
}

// checkAndReadyTasks transitions PENDING tasks to READY if dependencies
// are met, or straight to SKIPPED when an upstream task failed.
func (e *Executor) checkAndReadyTasks() {
	e.stateMutex.Lock()
	defer e.stateMutex.Unlock()

	for taskName, state := range e.taskStates {
		if state != StatePending {
			continue
		}

		node := e.taskGraph[taskName]
		depsMet := true

		for _, depNode := range node.Dependencies {
			depState := e.taskStates[depNode.Name]
			if depState != StateSucceeded {
				depsMet = false

				if depState == StateFailed || depState == StateSkipped {
					e.logger.Debug().Str("task_name", taskName).Msgf("Skipping task because dependency %q failed or was skipped.", depNode.Name)
					e.taskStates[taskName] = StateSkipped
				}
				break
			}
		}

		if depsMet && e.taskStates[taskName] == StatePending {
			e.taskStates[taskName] = StateReady
			e.logger.Debug().Str("task_name", taskName).Msg("Task is now READY (dependencies met).")
		}
	}
}

// launchReadyTasks finds tasks in READY state and launches goroutines
// for them, respecting the concurrency limit.
func (e *Executor) launchReadyTasks(activeGoroutines *int) int {
	launchedCount := 0

	// Snapshot READY tasks to avoid mutating the map mid-iteration.
	var tasksToConsider []string
	e.stateMutex.RLock()
	for name, st := range e.taskStates {
		if st == StateReady {
			tasksToConsider = append(tasksToConsider, name)
		}
	}
	e.stateMutex.RUnlock()

	if len(tasksToConsider) > 0 {
		e.logger.Debug().Msgf("Considering %d READY tasks for dispatch: %v", len(tasksToConsider), tasksToConsider)
	}

	for _, taskName := range tasksToConsider {
		taskLogger := e.logger.With().Str("task_name", taskName).Logger()

		e.stateMutex.Lock()
		if e.taskStates[taskName] != StateReady {
			e.stateMutex.Unlock()
			taskLogger.Debug().Msg("Task no longer READY, skipping dispatch attempt.")
			continue
		}
		e.taskStates[taskName] = StateDispatching
		e.stateMutex.Unlock()

		taskLogger.Debug().Msg("Task marked DISPATCHING. Acquiring concurrency slot...")
		e.concurrencyChan <- struct{}{} // Acquire slot (blocks if full)

		// Re-check state after acquiring the semaphore. A fast upstream
		// failure may have flipped it to SKIPPED in the meantime.
		e.stateMutex.Lock()
		currentState := e.taskStates[taskName]
		if currentState != StateDispatching {
			e.stateMutex.Unlock()
			taskLogger.Warn().Msgf("Task state changed to %s while waiting for slot. Releasing slot, not launching.", currentState)
			<-e.concurrencyChan
			continue
		}
		e.stateMutex.Unlock()

		taskLogger.Info().Msg("🚀 Launching task grading")
		*activeGoroutines++
		e.wg.Add(1)
		launchedCount++
		go e.executeTask(taskName)
	}
	return launchedCount
}

// executeTask is the goroutine function handling one task's lifecycle.
func (e *Executor) executeTask(taskName string) {
	taskLogger := e.logger.With().Str("task_name", taskName).Logger()

	defer e.wg.Done()
	defer func() { <-e.concurrencyChan }() // Release semaphore slot
	defer func() {
		e.taskCompletionChan <- struct{}{}
		taskLogger.Debug().Msg("Task signaled completion.")
	}()

	node := e.taskGraph[taskName]
	startTime := time.Now()

	record := e.runner.RunTask(e.ctx, node, taskLogger)
	if record == nil {
		// Runners must always return a record; synthesize one so the
		// summary stays complete.
		record = &models.TaskExecutionRecord{
			TaskName:      taskName,
			D2GCmd:        e.ctx.D2GCmd,
			Assignment:    e.ctx.Config.Assignment.Name,
			WorkflowId:    e.ctx.WorkflowId,
			StartTime:     startTime.Format(time.RFC3339),
			Status:        models.TaskFailed,
			FailureReason: "task runner returned no execution record",
		}
	}

	if record.FinishTime == "" {
		record.FinishTime = time.Now().Format(time.RFC3339)
	}
	if record.DurationMs == 0 {
		record.DurationMs = time.Since(startTime).Milliseconds()
	}

	if record.Status == models.TaskSucceeded {
		taskLogger.Info().Float64("points", scorePoints(record)).Msg("✅ Task grading SUCCEEDED")
		e.setTaskState(taskName, StateSucceeded)
	} else {
		taskLogger.Error().Str("reason", record.FailureReason).Msg("❌ Task grading FAILED")
		e.setTaskState(taskName, StateFailed)
	}

	e.addResult(taskName, record)
	if err := logging.SaveTaskExecutionRecord(e.ctx.LogDir, *record); err != nil {
		taskLogger.Error().Err(err).Str("log_dir", e.ctx.LogDir).Msg("Failed to save task execution record")
	}

	taskLogger.Info().Msgf("🏁 Finished task grading. Final state: %s", e.getTaskState(taskName))
}

func scorePoints(record *models.TaskExecutionRecord) float64 {
	if record.Score == nil {
		return 0
	}
	return record.Score.Points
}

// markSkippedTasks iterates over tasks still PENDING after the main loop
// and marks them SKIPPED if any dependency FAILED or was SKIPPED.
// Repeats until a fixpoint since skipping one task can cascade.
func (e *Executor) markSkippedTasks() {
	e.stateMutex.Lock()
	defer e.stateMutex.Unlock()

	madeChanges := true
	for madeChanges {
		madeChanges = false
		for taskName, state := range e.taskStates {
			if state != StatePending {
				continue
			}

			node := e.taskGraph[taskName]
			for _, depNode := range node.Dependencies {
				depState := e.taskStates[depNode.Name]
				if depState == StateFailed || depState == StateSkipped {
					e.taskStates[taskName] = StateSkipped
					e.logger.Info().Str("task_name", taskName).Msgf("Marking task as %s due to upstream failure/skip.", StateSkipped)
					madeChanges = true
					break
				}
			}
		}
	}
}

// collectFinalResults returns the final TaskExecutionRecords, adding
// synthetic records for skipped tasks.
func (e *Executor) collectFinalResults() []models.TaskExecutionRecord {
	finalResults := make([]models.TaskExecutionRecord, 0, len(e.taskGraph))
	e.resultsMutex.RLock()
	defer e.resultsMutex.RUnlock()

	host, _ := os.Hostname()

	for taskName, record := range e.results {
		if record != nil {
			finalResults = append(finalResults, *record)
			continue
		}

		state := e.getTaskState(taskName)
		if state == StateSkipped {
			e.logger.Debug().Str("task_name", taskName).Msg("Creating SKIPPED record")

			skippedRecord := models.TaskExecutionRecord{
				TaskName:   taskName,
				D2GCmd:     e.ctx.D2GCmd,
				Assignment: e.ctx.Config.Assignment.Name,
				Initiator: types.Initiator{
					Type:   "system",
					Id:     "d2g-executor",
					Tenant: host,
				},
				WorkflowId:    e.ctx.WorkflowId,
				Status:        models.TaskSkipped,
				FailureReason: "upstream dependency failed or was skipped",
			}
			finalResults = append(finalResults, skippedRecord)
		} else if state != StateSucceeded && state != StateFailed {
			// Shouldn't happen if loop/wait logic is correct but log this in case
			e.logger.Error().Str("task_name", taskName).Msgf("Task finished in unexpected non-terminal state: %s", state)
		}
	}
	return finalResults
}
