package service

import (
	"os"
	"os/exec"

	"github.com/seahurt/bcl2fq-local/internal/model"
)

// BinaryResolver locates the bcl2fastq executable.
type BinaryResolver struct {
	SystemPath string
	Name       string
	LookPath   func(file string) (string, error)
}

func NewBinaryResolver() BinaryResolver {
	return BinaryResolver{
		SystemPath: model.SystemBinary,
		Name:       model.BinaryName,
		LookPath:   exec.LookPath,
	}
}

// ResolveBinary is NewBinaryResolver().Resolve(explicit).
func ResolveBinary(explicit string) (string, error) {
	return NewBinaryResolver().Resolve(explicit)
}

// Resolve returns the first existing candidate of: explicit, SystemPath and
// Name looked up on $PATH. It fails with *model.BinaryNotFoundError.
func (b BinaryResolver) Resolve(explicit string) (string, error) {
	var tried []string
	for _, path := range []string{explicit, b.SystemPath} {
		if path == "" {
			continue
		}
		if isFile(path) {
			return path, nil
		}
		tried = append(tried, path)
	}

	if b.LookPath != nil && b.Name != "" {
		path, err := b.LookPath(b.Name)
		if err == nil && path != "" && isFile(path) {
			return path, nil
		}
		tried = append(tried, "$PATH")
	}

	return "", &model.BinaryNotFoundError{Name: b.Name, Candidates: tried}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
