package gitx

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AKirsch1/Deploy-to-Grading/internal/execx"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func git(t *testing.T, repoDir string, args ...string) string {
	t.Helper()
	res, err := execx.Run(repoDir, []string{
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	}, "git", args...)
	require.NoError(t, err)
	require.False(t, res.Failed(), "git %v failed: %s", args, res.Stderr)
	return res.Stdout
}

// initRepo creates a repo with two commits and returns their timestamps'
// midpoint as a due date that selects only the first commit.
func initRepo(t *testing.T) (repoDir string, dueDate time.Time) {
	t.Helper()

	repoDir = t.TempDir()
	git(t, repoDir, "init", "-b", "main")

	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "a.txt"), []byte("one"), 0644))
	git(t, repoDir, "add", "a.txt")
	git(t, repoDir, "commit", "-m", "first")

	// The second commit must be clearly after the due date
	dueDate = time.Now()
	time.Sleep(1100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "a.txt"), []byte("two"), 0644))
	git(t, repoDir, "add", "a.txt")
	git(t, repoDir, "commit", "-m", "second")

	return repoDir, dueDate
}

func TestCheckoutDueDate(t *testing.T) {
	requireGit(t)

	t.Run("Checks out the last commit before the due date", func(t *testing.T) {
		repoDir, dueDate := initRepo(t)

		previousRef, err := CheckoutDueDate(repoDir, dueDate)
		require.NoError(t, err)
		assert.Equal(t, "main", previousRef)

		data, err := os.ReadFile(filepath.Join(repoDir, "a.txt"))
		require.NoError(t, err)
		assert.Equal(t, "one", string(data))

		RevertCheckout(repoDir, previousRef)

		data, err = os.ReadFile(filepath.Join(repoDir, "a.txt"))
		require.NoError(t, err)
		assert.Equal(t, "two", string(data))
	})

	t.Run("No commit before the due date", func(t *testing.T) {
		repoDir, _ := initRepo(t)

		_, err := CheckoutDueDate(repoDir, time.Now().AddDate(-1, 0, 0))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no commit found before due date")
	})
}

func TestCloneTemplate(t *testing.T) {
	requireGit(t)

	t.Run("Shallow clone and reuse", func(t *testing.T) {
		templateRepo, _ := initRepo(t)
		stageDir := t.TempDir()

		cloneDir, err := CloneTemplate(stageDir, templateRepo)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(cloneDir, "a.txt"))

		// Second call reuses the existing clone
		again, err := CloneTemplate(stageDir, templateRepo)
		require.NoError(t, err)
		assert.Equal(t, cloneDir, again)
	})

	t.Run("Clone failure", func(t *testing.T) {
		_, err := CloneTemplate(t.TempDir(), filepath.Join(t.TempDir(), "missing-repo"))
		assert.Error(t, err)
	})
}
