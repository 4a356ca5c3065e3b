package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/seahurt/bcl2fq-local/internal/model"
)

// MoveUndetermined moves the undetermined read files bcl2fastq writes into
// outDir into outDir/UndeterminedReads. An existing UndeterminedReads
// directory is replaced, but only after both files were found.
func MoveUndetermined(ctx context.Context, outDir string) error {
	root, err := os.OpenRoot(outDir)
	if err != nil {
		return &model.PostProcessError{Path: outDir, Err: err}
	}
	defer func() {
		_ = root.Close()
	}()

	files := []string{model.UndeterminedR1, model.UndeterminedR2}
	var missing []string
	for _, name := range files {
		info, err := root.Stat(name)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			missing = append(missing, name)
			continue
		case err != nil:
			return &model.PostProcessError{Path: filepath.Join(outDir, name), Err: err}
		case !info.Mode().IsRegular():
			return &model.PostProcessError{Path: filepath.Join(outDir, name), Err: errors.New("not a regular file")}
		}
	}
	if len(missing) > 0 {
		return &model.PostProcessError{
			Path: outDir,
			Err:  fmt.Errorf("%w: %s", model.ErrUndeterminedMiss, strings.Join(missing, ", ")),
		}
	}

	if err := root.RemoveAll(model.UndeterminedDir); err != nil {
		return &model.PostProcessError{Path: filepath.Join(outDir, model.UndeterminedDir), Err: err}
	}
	if err := root.Mkdir(model.UndeterminedDir, 0o755); err != nil {
		return &model.PostProcessError{Path: filepath.Join(outDir, model.UndeterminedDir), Err: err}
	}
	for _, name := range files {
		dst := filepath.Join(model.UndeterminedDir, name)
		if err := root.Rename(name, dst); err != nil {
			return &model.PostProcessError{Path: filepath.Join(outDir, name), Err: err}
		}
		slog.DebugContext(ctx, "moved undetermined reads", "from", name, "to", dst)
	}
	return nil
}
