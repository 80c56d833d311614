package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AKirsch1/Deploy-to-Grading/internal/config"
	"github.com/AKirsch1/Deploy-to-Grading/internal/context"
	"github.com/AKirsch1/Deploy-to-Grading/internal/evaluate"
	"github.com/AKirsch1/Deploy-to-Grading/internal/logging"
	"github.com/AKirsch1/Deploy-to-Grading/internal/paths"
	"github.com/AKirsch1/Deploy-to-Grading/internal/pipeline"
	"github.com/AKirsch1/Deploy-to-Grading/types"
)

var runOnly []string
var isVerbose bool
var noCheckout bool
var noOverride bool

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&runOnly, "only", nil, "Grade only specified task(s)")
	runCmd.Flags().BoolVarP(&isVerbose, "verbose", "v", false, "Enable verbose logging")
	runCmd.Flags().BoolVar(&noCheckout, "no-checkout", false, "Grade the working tree instead of the state at the due date")
	runCmd.Flags().BoolVar(&noOverride, "no-override", false, "Skip restoring files from the template repository")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Grade an assignment and wait for completion",
	Long: `Run grades the assignment defined in assignment.yml synchronously.

d2g checks out the submission state at the due date, restores protected
files from the template repository, runs every task's metrics respecting
dependencies and concurrency, and writes the evaluated results to the
'results/' directory. Progress is shown in the terminal and logs are
written to '.d2g/logs/'.

Use 'd2g submit' instead for asynchronous execution that returns immediately.`,
	Run: func(cmd *cobra.Command, args []string) {
		registry := GetDependencies().MetricRegistry

		// --- Load and validate assignment.yml + task.yml files ---

		// TODO: could implement this as a flag
		configPath := config.AssignmentFileName
		cfg, configDir, taskConfigs, err := loadWorkspace(configPath)
		cobra.CheckErr(err)

		log.Info().Msgf("✓ Configuration %q loaded and validated.", configPath)
		log.Debug().Msgf("Registered metric handlers: %v", registry.RegisteredNames())

		// --- Initialize workflow context and logging ---

		workflowId := uuid.New()
		workflowStartTime := time.Now()

		logDir, err := logging.CreateLogDir(workflowId, workflowStartTime, "run")
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to create log directory for workflow %s: %w", workflowId.String(), err))
		}

		logFilePath := filepath.Join(logDir, "workflow.log")
		err = logging.ConfigureGlobalLogger(isVerbose, logFilePath)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to initialize logging: %w", err))
		}

		logCtx := log.With().Str("workflow_id", workflowId.String()).Logger()
		logCtx.Info().Msgf("Logs will be stored in: %s", logDir)

		// --- Set up execution context ---

		d2gPath, err := paths.InstallDir()
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to resolve installation directory: %w", err))
		}

		ctx := &context.ExecutionContext{
			WorkflowId:  workflowId,
			Config:      cfg,
			ConfigDir:   configDir,
			TaskConfigs: taskConfigs,
			LogDir:      logDir,
			ResultsDir:  paths.ResultsDir(configDir),
			OnlyTasks:   runOnly,
			D2GCmd:      "run",
			D2GPath:     d2gPath,
			NoCheckout:  noCheckout,
			NoOverride:  noOverride,
		}

		// --- Instantiate and run pipeline ---

		host, _ := os.Hostname()
		p := pipeline.New(registry, types.Initiator{
			Type:   "user",
			Id:     os.Getenv("USER"),
			Tenant: host,
		})

		logCtx.Info().Msg("Starting grading run...")

		records, aggregate, err := p.Run(ctx, logCtx)
		if err != nil {
			logCtx.Error().Err(err).Msg("Grading run failed")
			cobra.CheckErr(err)
		}

		// --- Construct and write workflow summary ---

		logCtx.Debug().Msg("Generating execution summary...")

		summary := generateExecutionSummary(records, workflowId, workflowStartTime, cfg, "run")

		if err = writeSummary(summary, logDir); err != nil {
			logCtx.Error().Err(err).Msg("Failed to write summary.json")
		}

		fmt.Println() // Visual spacing
		fmt.Println(evaluate.FormatStudentReport(aggregate))
		logCtx.Info().Msgf("✓ Grading complete, results in %s, logs saved to: %s", ctx.ResultsDir, logDir)

		if summary.OverallStatus == "Failed" {
			os.Exit(1)
		}
	},
}
