package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/AKirsch1/Deploy-to-Grading/cmd"
	"github.com/AKirsch1/Deploy-to-Grading/internal/logging"
	"github.com/AKirsch1/Deploy-to-Grading/internal/metric"
)

func main() {
	// Check if launched in internal background mode before executing normal commands
	isInternalRun := false
	bgOpts := cmd.BackgroundOptions{}
	isVerbose := false

	for i, arg := range os.Args {
		if arg == "--internal-run" {
			isInternalRun = true
		}
		if arg == "--workflow-id" && i+1 < len(os.Args) {
			bgOpts.WorkflowId = os.Args[i+1]
		}
		if arg == "--cfg-path" && i+1 < len(os.Args) {
			bgOpts.ConfigPath = os.Args[i+1]
		}
		// Collect all --only arguments
		if arg == "--only" && i+1 < len(os.Args) {
			bgOpts.OnlyTasks = append(bgOpts.OnlyTasks, os.Args[i+1])
		}
		if arg == "--log-dir" && i+1 < len(os.Args) {
			bgOpts.LogDir = os.Args[i+1]
		}
		if arg == "--no-checkout" {
			bgOpts.NoCheckout = true
		}
		if arg == "--no-override" {
			bgOpts.NoOverride = true
		}
		if arg == "--verbose" || arg == "-v" {
			isVerbose = true
		}
	}

	logFilePath := "" // Default to terminal logging

	if isInternalRun {
		if bgOpts.LogDir == "" {
			fmt.Fprintln(os.Stderr, "Background Error: Log directory must be provided via --log-dir for internal run.")
			os.Exit(1)
		}

		logFilePath = filepath.Join(bgOpts.LogDir, "workflow.log")
	}

	err := logging.ConfigureGlobalLogger(isVerbose, logFilePath)
	if err != nil {
		// Fallback to basic stderr if logger setup fails
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	// --- Wire up metric handlers ---

	// Order matters: the script handler claims metrics that ship a script
	// under $D2G_PATH/scripts/metrics/, the gradle handler takes the rest.
	gradle := &metric.GradleHandler{}
	registry := metric.NewRegistry()
	registry.Register(&metric.ScriptHandler{})
	registry.Register(gradle)

	cmd.SetDependencies(&cmd.AppDependencies{
		MetricRegistry: registry,
		Gradle:         gradle,
	})

	// --- Execute command ---

	if isInternalRun {
		log.Info().Msgf("[Background Startup] Running background workflow %s", bgOpts.WorkflowId)
		cmd.RunBackgroundWorkflow(bgOpts)
	} else {
		log.Debug().Msg("Starting d2g CLI command execution")
		cmd.Execute()
	}
}
