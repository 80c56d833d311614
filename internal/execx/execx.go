package execx

import (
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Result captures one finished subprocess. A non-zero exit code is not an
// error at this layer; callers decide what failure means.
type Result struct {
	Command  []string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Failed reports whether the process exited non-zero.
func (r *Result) Failed() bool {
	return r.ExitCode != 0
}

// Run executes a command in dir with the current environment plus
// extraEnv. It returns an error only when the process could not be
// started at all.
func Run(dir string, extraEnv []string, name string, args ...string) (*Result, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), extraEnv...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug().Str("dir", dir).Strs("command", append([]string{name}, args...)).Msg("Running subprocess")

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	res := &Result{
		Command:  append([]string{name}, args...),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: elapsed,
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}

	return res, nil
}
