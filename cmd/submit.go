package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AKirsch1/Deploy-to-Grading/internal/config"
	"github.com/AKirsch1/Deploy-to-Grading/internal/log"
	"github.com/AKirsch1/Deploy-to-Grading/internal/logging"
	"github.com/AKirsch1/Deploy-to-Grading/types"
)

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringSliceVar(&runOnly, "only", nil, "Grade only specified task(s)")
	submitCmd.Flags().BoolVar(&noCheckout, "no-checkout", false, "Grade the working tree instead of the state at the due date")
	submitCmd.Flags().BoolVar(&noOverride, "no-override", false, "Skip restoring files from the template repository")
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Grade an assignment in a detached background process",
	Long: `Submit initiates the asynchronous grading of the assignment defined in
assignment.yml.

d2g launches a detached background process that performs the full grading
run, including due date checkout, template override, dependencies and
concurrency, identical to 'd2g run'. This command returns immediately
after successfully launching the background process.

Logs and the final summary for the grading run will be written to a
timestamped directory within '.d2g/logs/'.`,
	Run: func(cmd *cobra.Command, args []string) {
		outputStyle := types.StyleHuman
		if Verbose {
			outputStyle = types.StyleHumanVerbose
		}

		logger := log.NewLogger(outputStyle)

		// --- Load and validate assignment.yml ---

		configPath := config.AssignmentFileName
		_, _, _, err := loadWorkspace(configPath)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to load/validate %q: %w", configPath, err))
		}
		logger.Info("✓ Configuration %q loaded and validated.", configPath)

		// --- Prepare for background execution ---

		workflowId := uuid.New()
		workflowStartTime := time.Now()

		logDir, err := logging.CreateLogDir(workflowId, workflowStartTime, "submit")
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to create log directory for workflow %s: %w", workflowId.String(), err))
		}
		logger.Info("Logs for workflow %s will be stored in: %s", workflowId.String(), logDir)

		// Find the currently running d2g executable
		executablePath, err := os.Executable()
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to determine d2g executable path: %w", err))
		}
		logger.Verbose("Found d2g executable at: %s", executablePath)

		// Get absolute path to assignment.yml for the background process
		absConfigPath, err := filepath.Abs(configPath)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to get absolute path for config %q: %w", configPath, err))
		}

		// --- Prepare args for background process ---

		bgArgs := []string{
			"--internal-run",
			"--workflow-id", workflowId.String(),
			"--cfg-path", absConfigPath,
			"--log-dir", logDir, // this includes '.d2g/logs/' in the path
		}

		for _, taskName := range runOnly {
			bgArgs = append(bgArgs, "--only", taskName)
		}
		if noCheckout {
			bgArgs = append(bgArgs, "--no-checkout")
		}
		if noOverride {
			bgArgs = append(bgArgs, "--no-override")
		}
		if Verbose {
			bgArgs = append(bgArgs, "--verbose")
		}

		// --- Create the command for background execution ---

		bgCmd := exec.Command(executablePath, bgArgs...)

		// Prevent inheriting std streams, this is crucial for detachment
		bgCmd.Stdin = nil
		bgCmd.Stdout = nil
		bgCmd.Stderr = nil

		// Creates a new session and detaches from the controlling terminal
		bgCmd.SysProcAttr = &syscall.SysProcAttr{
			Setsid: true,
		}
		// TODO: add //go:build windows section here later for Windows detachment flags

		logger.Info("Launching background process for workflow %s ...", workflowId.String())

		// --- Start the background process ---

		err = bgCmd.Start()
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to start background d2g process: %w", err))
		}

		logger.Info("✓ Grading workflow %s submitted successfully.", workflowId.String())
		logger.Info("  Logs will be written to: %s", logDir)
	},
}
