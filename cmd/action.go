package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AKirsch1/Deploy-to-Grading/internal/action"
	"github.com/AKirsch1/Deploy-to-Grading/internal/artifact"
	"github.com/AKirsch1/Deploy-to-Grading/internal/config"
	"github.com/AKirsch1/Deploy-to-Grading/internal/context"
	"github.com/AKirsch1/Deploy-to-Grading/internal/evaluate"
	d2glog "github.com/AKirsch1/Deploy-to-Grading/internal/log"
	"github.com/AKirsch1/Deploy-to-Grading/internal/logging"
	"github.com/AKirsch1/Deploy-to-Grading/internal/paths"
	"github.com/AKirsch1/Deploy-to-Grading/internal/pipeline"
	"github.com/AKirsch1/Deploy-to-Grading/internal/toolchain"
	"github.com/AKirsch1/Deploy-to-Grading/types"
)

var javaVersion string
var javaDistribution string
var artifactName string
var artifactDir string

func init() {
	rootCmd.AddCommand(actionCmd)

	actionCmd.Flags().StringVar(&javaVersion, "java-version", "", "Java major version to provision (defaults to the assignment's toolchain)")
	actionCmd.Flags().StringVar(&javaDistribution, "distribution", "", "JDK distribution to provision (defaults to the assignment's toolchain)")
	actionCmd.Flags().StringVar(&artifactName, "artifact-name", artifact.DefaultName, "Name of the produced results artifact")
	actionCmd.Flags().StringVar(&artifactDir, "artifact-dir", ".", "Directory the artifact archive is written to")
}

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Run the full CI grading sequence: provision, grade, publish",
	Long: `Action is the entrypoint for CI workflows. It performs the grading
sequence a student's repository pipeline needs, strictly in order:

  1. Provision a Java runtime (Temurin 17 unless configured otherwise)
  2. Grade the assignment with D2G_PATH pointing at the d2g installation
  3. Package the 'results/' directory as an artifact archive

The sequence stops at the first failing step; later steps are not run.
The produced archive is left for the surrounding CI system to upload.`,
	Run: func(cmd *cobra.Command, args []string) {
		registry := GetDependencies().MetricRegistry

		// --- Load and validate assignment.yml + task.yml files ---

		configPath := config.AssignmentFileName
		cfg, configDir, taskConfigs, err := loadWorkspace(configPath)
		cobra.CheckErr(err)

		log.Info().Msgf("✓ Configuration %q loaded and validated.", configPath)

		// --- Initialize workflow context and logging ---

		workflowId := uuid.New()
		workflowStartTime := time.Now()

		logDir, err := logging.CreateLogDir(workflowId, workflowStartTime, "action")
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to create log directory for workflow %s: %w", workflowId.String(), err))
		}

		err = logging.ConfigureGlobalLogger(Verbose, filepath.Join(logDir, "workflow.log"))
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to initialize logging: %w", err))
		}

		logCtx := log.With().Str("workflow_id", workflowId.String()).Logger()
		logCtx.Info().Msgf("Logs will be stored in: %s", logDir)

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
			D2GCmd:      "action",
			D2GPath:     d2gPath,
		}

		// --- Resolve the toolchain spec (flags win over assignment.yml) ---

		spec := cfg.Config.Toolchain.Resolve()
		if javaVersion != "" {
			spec.Version = javaVersion
		}
		if javaDistribution != "" {
			spec.Distribution = javaDistribution
		}

		host, _ := os.Hostname()
		p := pipeline.New(registry, types.Initiator{
			Type:   "ci",
			Id:     os.Getenv("USER"),
			Tenant: host,
		})

		outputStyle := types.StyleHuman
		if Verbose {
			outputStyle = types.StyleHumanVerbose
		}
		terminal := d2glog.NewLogger(outputStyle)

		// --- Run the CI sequence ---

		var archivePath string

		steps := []action.Step{
			{
				Name: "provision-java",
				Run: func() error {
					installRoot := filepath.Join(d2gPath, "toolchains")
					if home, err := os.UserHomeDir(); err == nil {
						installRoot = filepath.Join(home, ".d2g", "toolchains")
					}

					terminal.StartSpinner(fmt.Sprintf("Provisioning Java %s (%s) ...", spec.Version, spec.Distribution))
					javaHome, err := toolchain.NewProvisioner(installRoot).Ensure(spec, logCtx)
					terminal.StopSpinner()
					if err != nil {
						return err
					}
					GetDependencies().Gradle.JavaHome = javaHome
					return nil
				},
			},
			{
				Name: "grade-assignment",
				Run: func() error {
					records, aggregate, err := p.Run(ctx, logCtx)

					summary := generateExecutionSummary(records, workflowId, workflowStartTime, cfg, "action")
					if werr := writeSummary(summary, logDir); werr != nil {
						logCtx.Error().Err(werr).Msg("Failed to write summary.json")
					}

					if err != nil {
						return err
					}

					fmt.Println(evaluate.FormatStudentReport(aggregate))

					if summary.OverallStatus == "Failed" {
						return fmt.Errorf("%d of %d tasks failed", summary.TasksFailed, len(summary.Tasks))
					}
					return nil
				},
			},
			{
				Name: "publish-results",
				Run: func() error {
					path, err := artifact.Package(ctx.ResultsDir, artifactName, artifactDir)
					if err != nil {
						return err
					}
					archivePath = path
					return nil
				},
			},
		}

		results, err := action.Sequence(steps, logCtx)

		for _, result := range results {
			logCtx.Info().Str("step", result.Name).Str("status", result.Status).Int64("duration_ms", result.DurationMs).Msg("Step result")
		}

		if err != nil {
			logCtx.Error().Err(err).Msg("CI grading sequence failed")
			cobra.CheckErr(err)
		}

		logCtx.Info().Msgf("✓ CI grading sequence complete, artifact written to: %s", archivePath)
	},
}
