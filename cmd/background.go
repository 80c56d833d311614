package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/AKirsch1/Deploy-to-Grading/internal/context"
	"github.com/AKirsch1/Deploy-to-Grading/internal/paths"
	"github.com/AKirsch1/Deploy-to-Grading/internal/pipeline"
	"github.com/AKirsch1/Deploy-to-Grading/types"
)

// BackgroundOptions carries the flags the detached process was launched
// with by 'd2g submit'.
type BackgroundOptions struct {
	WorkflowId string
	ConfigPath string
	LogDir     string
	OnlyTasks  []string
	NoCheckout bool
	NoOverride bool
}

// RunBackgroundWorkflow is executed when 'd2g' is launched with internal flags.
// It runs the full grading pipeline and logs to files.
func RunBackgroundWorkflow(opts BackgroundOptions) {
	bgWorkflowLogger := log.With().Str("workflow_id", opts.WorkflowId).Logger()

	workflowId, err := uuid.Parse(opts.WorkflowId)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Background Error: Invalid workflow ID %q: %v\n", opts.WorkflowId, err)
		os.Exit(1)
	}

	if opts.LogDir == "" {
		fmt.Fprintf(os.Stderr, "Background Error: Log directory path not provided.\n")
		os.Exit(1)
	}

	if _, err := os.Stat(opts.LogDir); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Background Error: Unable to resolve log directory %s", opts.LogDir)
	}

	bgWorkflowLogger.Info().Msg("Starting execution.")
	bgWorkflowLogger.Info().Msgf("Using config: %s", opts.ConfigPath)
	bgWorkflowLogger.Info().Msgf("Using log directory: %s", opts.LogDir)

	// --- Load assignment.yml + task configs ---

	cfg, configDir, taskConfigs, err := loadWorkspace(opts.ConfigPath)
	if err != nil {
		log.Error().Str("workflow", opts.WorkflowId).Msgf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	d2gPath, err := paths.InstallDir()
	if err != nil {
		log.Error().Str("workflow", opts.WorkflowId).Msgf("Failed to resolve installation directory: %v", err)
		os.Exit(1)
	}

	// --- Create context ---

	ctx := &context.ExecutionContext{
		WorkflowId:  workflowId,
		Config:      cfg,
		ConfigDir:   configDir,
		TaskConfigs: taskConfigs,
		LogDir:      opts.LogDir,
		ResultsDir:  paths.ResultsDir(configDir),
		OnlyTasks:   opts.OnlyTasks,
		D2GCmd:      "submit-bg",
		D2GPath:     d2gPath,
		NoCheckout:  opts.NoCheckout,
		NoOverride:  opts.NoOverride,
	}

	// --- Instantiate and run pipeline ---

	host, _ := os.Hostname()
	p := pipeline.New(GetDependencies().MetricRegistry, types.Initiator{
		Type:   "d2g-submit",
		Id:     os.Getenv("USER"),
		Tenant: host,
	})

	bgWorkflowLogger.Debug().Msg("Invoking task executor...")
	startTimeForSummary := time.Now()
	records, _, execErr := p.Run(ctx, bgWorkflowLogger)

	// --- Process results & write summary ---

	if execErr != nil {
		bgWorkflowLogger.Error().Err(execErr).Msg("Grading failed")
	} else {
		bgWorkflowLogger.Info().Msg("Grading finished. Processing results...")
	}

	// Generate summary regardless of execErr, using potentially partial records
	summary := generateExecutionSummary(records, workflowId, startTimeForSummary, cfg, "submit-bg")

	err = writeSummary(summary, opts.LogDir)
	if err != nil {
		bgWorkflowLogger.Error().Err(err).Msgf("Failed to write summary")
	} else {
		bgWorkflowLogger.Info().Msgf("Workflow summary written to %s", filepath.Join(opts.LogDir, "summary.json"))
	}

	bgWorkflowLogger.Info().Msg("Execution finished.")

	if execErr != nil {
		os.Exit(1) // Exit with error code if grading itself failed
	}

	os.Exit(0) // Exit successfully
}
