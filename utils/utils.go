package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// MkDir creates the directory targetDir/parts..., parents included,
// and aborts the command on failure.
func MkDir(targetDir string, parts ...string) {
	path := filepath.Join(append([]string{targetDir}, parts...)...)
	err := os.MkdirAll(path, 0755)
	cobra.CheckErr(err)
}

// MustNotExist aborts the command when path already exists, so
// scaffolding never clobbers a student's work.
func MustNotExist(path string) {
	if _, err := os.Stat(path); err == nil {
		cobra.CheckErr(fmt.Errorf("refusing to overwrite existing file or directory: %s", path))
	}
}
