package metric

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/AKirsch1/Deploy-to-Grading/internal/context"
	"github.com/AKirsch1/Deploy-to-Grading/internal/execx"
	"github.com/AKirsch1/Deploy-to-Grading/internal/models"
	"github.com/AKirsch1/Deploy-to-Grading/internal/paths"
)

// GradleHandler is the fallback: a metric without a dedicated script is
// assumed to be a gradle task of the graded project and runs via the
// task's own gradle wrapper.
type GradleHandler struct {
	// JavaHome, when set by the runtime provisioner, is exported so the
	// wrapper picks the provisioned JDK over whatever the host has.
	JavaHome string
}

func (h *GradleHandler) Name() string {
	return "gradle"
}

// CanRun always claims the metric. Register the GradleHandler last.
func (h *GradleHandler) CanRun(ctx *context.ExecutionContext, metricName string) bool {
	return true
}

func (h *GradleHandler) Run(ctx *context.ExecutionContext, taskDir, metricName string, extraEnv []string, logger zerolog.Logger) *models.MetricExecution {
	exec := &models.MetricExecution{
		Metric:  metricName,
		Handler: h.Name(),
	}

	// Absolute wrapper path: exec resolves relative paths against the
	// parent's cwd, not cmd.Dir.
	wrapper := filepath.Join(taskDir, gradleWrapperName())

	env := append([]string{fmt.Sprintf("%s=%s", paths.EnvD2GPath, ctx.D2GPath)}, extraEnv...)
	if h.JavaHome != "" {
		env = append(env, "JAVA_HOME="+h.JavaHome)
	}

	logger.Info().Str("wrapper", wrapper).Msgf("Executing gradle metric %s", metricName)

	res, err := execx.Run(taskDir, env, wrapper, metricName)
	if err != nil {
		exec.Failed = true
		exec.ExitCode = -1
		exec.Stderr = fmt.Sprintf("failed to start gradle wrapper: %s", err.Error())
		logger.Error().Err(err).Str("wrapper", wrapper).Msg("Failed to start gradle wrapper")
		return exec
	}

	exec.Command = res.Command
	exec.ExitCode = res.ExitCode
	exec.Stdout = res.Stdout
	exec.Stderr = res.Stderr
	exec.DurationMs = res.Duration.Milliseconds()
	exec.Failed = res.Failed()

	if exec.Failed {
		logger.Error().Int("exit_code", exec.ExitCode).Msgf("Gradle metric %s failed", metricName)
	} else {
		logger.Info().Msgf("✓ Gradle metric %s completed", metricName)
	}

	return exec
}

func gradleWrapperName() string {
	if runtime.GOOS == "windows" {
		return "gradlew.bat"
	}
	return "gradlew"
}
