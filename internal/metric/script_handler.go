package metric

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/AKirsch1/Deploy-to-Grading/internal/context"
	"github.com/AKirsch1/Deploy-to-Grading/internal/execx"
	"github.com/AKirsch1/Deploy-to-Grading/internal/models"
	"github.com/AKirsch1/Deploy-to-Grading/internal/paths"
)

// ScriptHandler runs metrics that ship as scripts in the d2g
// installation: $D2G_PATH/scripts/metrics/<metric>.sh or .py.
type ScriptHandler struct{}

func (h *ScriptHandler) Name() string {
	return "script"
}

func (h *ScriptHandler) CanRun(ctx *context.ExecutionContext, metricName string) bool {
	_, found := h.resolveScript(ctx, metricName)
	return found
}

// resolveScript probes the candidate script paths in order.
func (h *ScriptHandler) resolveScript(ctx *context.ExecutionContext, metricName string) (string, bool) {
	for _, candidate := range paths.MetricScriptCandidates(ctx.D2GPath, metricName) {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func (h *ScriptHandler) Run(ctx *context.ExecutionContext, taskDir, metricName string, extraEnv []string, logger zerolog.Logger) *models.MetricExecution {
	exec := &models.MetricExecution{
		Metric:  metricName,
		Handler: h.Name(),
	}

	scriptPath, found := h.resolveScript(ctx, metricName)
	if !found {
		// Resolve() guards against this; record it instead of panicking.
		exec.Failed = true
		exec.ExitCode = -1
		exec.Stderr = fmt.Sprintf("no metric script found for %q under %s", metricName, ctx.D2GPath)
		logger.Error().Str("metric", metricName).Msg("Metric script disappeared between resolution and execution")
		return exec
	}

	env := append([]string{fmt.Sprintf("%s=%s", paths.EnvD2GPath, ctx.D2GPath)}, extraEnv...)

	logger.Info().Str("script", scriptPath).Msgf("Executing metric %s", metricName)

	res, err := execx.Run(taskDir, env, scriptPath)
	if err != nil {
		exec.Failed = true
		exec.ExitCode = -1
		exec.Stderr = fmt.Sprintf("failed to start metric script: %s", err.Error())
		logger.Error().Err(err).Str("script", scriptPath).Msg("Failed to start metric script")
		return exec
	}

	exec.Command = res.Command
	exec.ExitCode = res.ExitCode
	exec.Stdout = res.Stdout
	exec.Stderr = res.Stderr
	exec.DurationMs = res.Duration.Milliseconds()
	exec.Failed = res.Failed()

	if exec.Failed {
		logger.Error().Int("exit_code", exec.ExitCode).Str("stderr", exec.Stderr).Msgf("Metric %s failed", metricName)
	} else {
		logger.Info().Msgf("✓ Metric %s completed", metricName)
	}

	return exec
}
