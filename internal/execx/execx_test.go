package execx

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("tests use /bin/sh")
	}

	t.Run("Captures stdout and exit code", func(t *testing.T) {
		res, err := Run(t.TempDir(), nil, "sh", "-c", "echo hello")
		require.NoError(t, err)

		assert.Equal(t, "hello\n", res.Stdout)
		assert.Equal(t, 0, res.ExitCode)
		assert.False(t, res.Failed())
	})

	t.Run("Non-zero exit is not an error", func(t *testing.T) {
		res, err := Run(t.TempDir(), nil, "sh", "-c", "echo oops >&2; exit 3")
		require.NoError(t, err)

		assert.Equal(t, 3, res.ExitCode)
		assert.Equal(t, "oops\n", res.Stderr)
		assert.True(t, res.Failed())
	})

	t.Run("Extra env is passed through", func(t *testing.T) {
		res, err := Run(t.TempDir(), []string{"D2G_TEST_VAR=42"}, "sh", "-c", "echo $D2G_TEST_VAR")
		require.NoError(t, err)
		assert.Equal(t, "42\n", res.Stdout)
	})

	t.Run("Runs in the given directory", func(t *testing.T) {
		dir := t.TempDir()
		res, err := Run(dir, nil, "pwd")
		require.NoError(t, err)
		assert.Contains(t, res.Stdout, dir)
	})

	t.Run("Unstartable command is an error", func(t *testing.T) {
		_, err := Run(t.TempDir(), nil, "/nonexistent/binary")
		assert.Error(t, err)
	})
}
