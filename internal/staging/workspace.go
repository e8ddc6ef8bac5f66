package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Microck/FrameScribe/internal/logging"
	"github.com/Microck/FrameScribe/internal/pipeline"
)

const (
	stagePreparing = "preparing output"
	stageCleanup   = "cleaning up"
	maxSuffix      = 999
)

// Collision policies for an existing output folder.
const (
	CollisionSuffix = "suffix"
	CollisionFail   = "fail"
)

// Options control Prepare.
type Options struct {
	TempDirName string
	Collision   string
	Logger      *slog.Logger
}

// Workspace is the output folder of one run and its working directory.
type Workspace struct {
	OutputDir string
	WorkDir   string
	Name      string
	logger    *slog.Logger
}

// Prepare creates the output folder for name under root, resolving name
// clashes with the collision policy, and the working directory inside it.
func Prepare(root, name string, opts Options) (*Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, stagePreparing, "", "empty output folder name", nil)
	}
	tempName := strings.TrimSpace(opts.TempDirName)
	if tempName == "" || tempName != filepath.Base(tempName) || tempName == "." || tempName == ".." {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, stagePreparing, "", fmt.Sprintf("invalid working directory name %q", opts.TempDirName), nil)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, stagePreparing, "create output root", "", err)
	}

	outputDir, err := createUnique(root, name, opts.Collision)
	if err != nil {
		return nil, err
	}
	workDir := filepath.Join(outputDir, tempName)
	if err := os.Mkdir(workDir, 0o755); err != nil {
		_ = os.Remove(outputDir)
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, stagePreparing, "create working directory", "", err)
	}

	ws := &Workspace{
		OutputDir: outputDir,
		WorkDir:   workDir,
		Name:      filepath.Base(outputDir),
		logger:    logging.NewComponentLogger(opts.Logger, "staging"),
	}
	ws.logger.Info("output folder ready",
		logging.String("output_dir", outputDir),
		logging.String("work_dir", workDir),
	)
	return ws, nil
}

func createUnique(root, name, policy string) (string, error) {
	candidate := filepath.Join(root, name)
	err := os.Mkdir(candidate, 0o755)
	if err == nil {
		return candidate, nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return "", pipeline.Wrap(pipeline.ErrConfiguration, stagePreparing, "create output folder", "", err)
	}
	if policy == CollisionFail {
		return "", pipeline.Wrap(pipeline.ErrConfiguration, stagePreparing, "",
			fmt.Sprintf("output folder %q already exists (output.collision = fail)", candidate), nil)
	}
	for n := 2; n <= maxSuffix; n++ {
		candidate = filepath.Join(root, fmt.Sprintf("%s (%d)", name, n))
		err = os.Mkdir(candidate, 0o755)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", pipeline.Wrap(pipeline.ErrConfiguration, stagePreparing, "create output folder", "", err)
		}
	}
	return "", pipeline.Wrap(pipeline.ErrConfiguration, stagePreparing, "", fmt.Sprintf("no free folder name for %q", name), nil)
}

// Path joins name onto the output folder.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.OutputDir, name)
}

// WorkPath joins name onto the working directory.
func (w *Workspace) WorkPath(name string) string {
	return filepath.Join(w.WorkDir, name)
}

// Cleanup removes the working directory and everything in it. Failures are
// returned as ErrCleanup notices.
func (w *Workspace) Cleanup() error {
	if w == nil || w.WorkDir == "" {
		return nil
	}
	if err := os.RemoveAll(w.WorkDir); err != nil {
		logging.WarnWithContext(w.logger, "failed to remove working directory", "work_dir_cleanup_failed",
			logging.String("work_dir", w.WorkDir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the folder manually or run 'framescribe clean'"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
		return pipeline.Wrap(pipeline.ErrCleanup, stageCleanup, "remove working directory", w.WorkDir, err)
	}
	w.logger.Debug("working directory removed", logging.String("work_dir", w.WorkDir))
	return nil
}

// Abandon cleans up after a failed run and removes the output folder when
// nothing else was written to it.
func (w *Workspace) Abandon() error {
	if w == nil {
		return nil
	}
	cleanupErr := w.Cleanup()
	entries, err := os.ReadDir(w.OutputDir)
	if err == nil && len(entries) == 0 {
		if err := os.Remove(w.OutputDir); err == nil {
			w.logger.Info("removed empty output folder", logging.String("output_dir", w.OutputDir))
		}
	}
	return cleanupErr
}
