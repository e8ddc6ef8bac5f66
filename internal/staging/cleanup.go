package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Microck/FrameScribe/internal/logging"
)

// CleanStaleResult contains the outcome of a stale directory cleanup operation.
type CleanStaleResult struct {
	Removed   []string
	Reclaimed int64
	Errors    []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes working directories named tempDirName under each output
// folder of root when they are older than maxAge. Output folders left empty
// afterwards are removed too. Callers should hold the root lock.
func CleanStale(ctx context.Context, root, tempDirName string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	root = strings.TrimSpace(root)
	tempDirName = strings.TrimSpace(tempDirName)
	if root == "" || tempDirName == "" {
		return result
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if !entry.IsDir() {
			continue
		}

		outputDir := filepath.Join(root, entry.Name())
		workDir := filepath.Join(outputDir, tempDirName)
		info, err := os.Stat(workDir)
		if err != nil {
			if !os.IsNotExist(err) {
				result.Errors = append(result.Errors, CleanupError{Path: workDir, Error: err})
			}
			continue
		}
		if !info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}

		size, _ := dirSize(workDir)
		if err := os.RemoveAll(workDir); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: workDir, Error: err})
			if logger != nil {
				logger.Warn("failed to remove stale working directory",
					logging.String("path", workDir),
					logging.Error(err),
					logging.String(logging.FieldEventType, "stale_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check output_root permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, workDir)
		result.Reclaimed += size
		if logger != nil {
			logger.Info("removed stale working directory",
				logging.String("path", workDir),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.String(logging.FieldEventType, "stale_cleanup"),
			)
		}

		if rest, err := os.ReadDir(outputDir); err == nil && len(rest) == 0 {
			_ = os.Remove(outputDir)
		}
	}

	return result
}

// dirSize calculates the total size of a directory recursively.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best effort
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
