package gitx

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AKirsch1/Deploy-to-Grading/internal/execx"
)

// CheckoutDueDate moves the assignment repository to the last commit at
// or before the due date and returns the ref to restore afterwards.
// Submissions pushed after the deadline are ignored this way.
func CheckoutDueDate(repoDir string, dueDate time.Time) (previousRef string, err error) {
	previousRef, err = currentRef(repoDir)
	if err != nil {
		return "", err
	}

	res, err := execx.Run(repoDir, nil, "git", "rev-list", "-1", "--before="+dueDate.Format(time.RFC3339), "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to run git rev-list: %w", err)
	}
	if res.Failed() {
		return "", fmt.Errorf("git rev-list failed: %s", strings.TrimSpace(res.Stderr))
	}

	sha := strings.TrimSpace(res.Stdout)
	if sha == "" {
		return "", fmt.Errorf("no commit found before due date %s", dueDate.Format(time.RFC3339))
	}

	log.Debug().Str("commit", sha).Str("due_date", dueDate.Format(time.RFC3339)).Msg("Checking out due date commit")

	res, err = execx.Run(repoDir, nil, "git", "checkout", "--detach", sha)
	if err != nil {
		return "", fmt.Errorf("failed to run git checkout: %w", err)
	}
	if res.Failed() {
		return "", fmt.Errorf("git checkout of %s failed: %s", sha, strings.TrimSpace(res.Stderr))
	}

	return previousRef, nil
}

// RevertCheckout restores the ref saved by CheckoutDueDate. Best effort:
// a failure is logged, not propagated, since grading results already
// exist at this point.
func RevertCheckout(repoDir, ref string) {
	if ref == "" {
		return
	}
	res, err := execx.Run(repoDir, nil, "git", "checkout", ref)
	if err != nil || res.Failed() {
		stderr := ""
		if res != nil {
			stderr = strings.TrimSpace(res.Stderr)
		}
		log.Warn().Err(err).Str("ref", ref).Str("stderr", stderr).Msg("Failed to revert due date checkout")
		return
	}
	log.Debug().Str("ref", ref).Msg("Reverted due date checkout")
}

// currentRef returns the symbolic branch name, or the detached HEAD sha.
func currentRef(repoDir string) (string, error) {
	res, err := execx.Run(repoDir, nil, "git", "symbolic-ref", "--short", "-q", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to run git symbolic-ref: %w", err)
	}
	if !res.Failed() {
		return strings.TrimSpace(res.Stdout), nil
	}

	res, err = execx.Run(repoDir, nil, "git", "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to run git rev-parse: %w", err)
	}
	if res.Failed() {
		return "", fmt.Errorf("git rev-parse HEAD failed: %s", strings.TrimSpace(res.Stderr))
	}
	return strings.TrimSpace(res.Stdout), nil
}

// CloneTemplate shallow-clones the assignment template repository into a
// fresh directory under stageDir and returns the clone path.
func CloneTemplate(stageDir, repository string) (string, error) {
	if err := os.MkdirAll(stageDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create staging directory %s: %w", stageDir, err)
	}

	cloneDir := filepath.Join(stageDir, "template")
	if _, err := os.Stat(cloneDir); err == nil {
		// Reuse an existing clone within the same workflow run.
		return cloneDir, nil
	}

	res, err := execx.Run(stageDir, nil, "git", "clone", "--depth", "1", repository, cloneDir)
	if err != nil {
		return "", fmt.Errorf("failed to run git clone: %w", err)
	}
	if res.Failed() {
		return "", fmt.Errorf("git clone of %s failed: %s", repository, strings.TrimSpace(res.Stderr))
	}

	return cloneDir, nil
}
