package artifact

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

// DefaultName is the artifact name the grading workflow publishes its
// results under when the caller does not pick one.
const DefaultName = "D2G_results"

// Package bundles resultsDir into <outDir>/<name>.tar.gz and returns the
// archive path. A missing or empty results directory is an error: a run
// that produced nothing has no artifact to publish, and the failure must
// surface instead of uploading an empty archive.
func Package(resultsDir, name, outDir string) (string, error) {
	info, err := os.Stat(resultsDir)
	if err != nil {
		return "", fmt.Errorf("results directory %s not found: %w", resultsDir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("results path %s is not a directory", resultsDir)
	}

	entries, err := os.ReadDir(resultsDir)
	if err != nil {
		return "", fmt.Errorf("failed to read results directory %s: %w", resultsDir, err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("results directory %s is empty, nothing to publish", resultsDir)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory %s: %w", outDir, err)
	}

	archivePath := filepath.Join(outDir, name+".tar.gz")
	f, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create artifact %s: %w", archivePath, err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	walkErr := filepath.Walk(resultsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(resultsDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("failed to build tar header for %s: %w", path, err)
		}
		hdr.Name = filepath.ToSlash(relPath)

		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("failed to write tar header for %s: %w", path, err)
		}
		if info.IsDir() {
			return nil
		}

		in, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer in.Close()

		if _, err := io.Copy(tw, in); err != nil {
			return fmt.Errorf("failed to archive %s: %w", path, err)
		}
		return nil
	})
	if walkErr != nil {
		return "", walkErr
	}

	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize gzip stream: %w", err)
	}

	log.Debug().Str("archive", archivePath).Int("entries", len(entries)).Msg("Packaged results artifact")
	return archivePath, nil
}
