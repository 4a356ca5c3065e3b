package service_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/seahurt/bcl2fq-local/internal/model"
	"github.com/seahurt/bcl2fq-local/internal/service"

	"github.com/stretchr/testify/require"
)

func TestBinaryResolver(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	explicit := filepath.Join(dir, "explicit", "bcl2fastq")
	system := filepath.Join(dir, "system", "bcl2fastq")
	onPath := filepath.Join(dir, "path", "bcl2fastq")
	for _, p := range []string{explicit, system, onPath} {
		creat(t, p, "#!/bin/sh\n")
		require.NoError(t, os.Chmod(p, 0o755))
	}
	missing := filepath.Join(dir, "missing", "bcl2fastq")

	lookPath := func(string) (string, error) { return onPath, nil }
	notFound := func(string) (string, error) { return "", errors.New("not found") }

	var testCases = []struct {
		scenario string
		explicit string
		system   string
		lookPath func(string) (string, error)
		then     string
	}{
		{"explicit wins", explicit, system, lookPath, explicit},
		{"system path", missing, system, lookPath, system},
		{"empty explicit", "", system, lookPath, system},
		{"search path", missing, missing, lookPath, onPath},
		{"directory is not a binary", dir, missing, lookPath, onPath},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			r := service.BinaryResolver{SystemPath: tc.system, Name: model.BinaryName, LookPath: tc.lookPath}
			got, err := r.Resolve(tc.explicit)
			require.NoError(t, err)
			require.Equal(t, tc.then, got)
		})
	}

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		r := service.BinaryResolver{SystemPath: missing, Name: model.BinaryName, LookPath: notFound}
		_, err := r.Resolve(missing)
		var notFoundErr *model.BinaryNotFoundError
		require.ErrorAs(t, err, &notFoundErr)
		require.Equal(t, []string{missing, missing, "$PATH"}, notFoundErr.Candidates)
		require.Contains(t, err.Error(), "please specify the path")
	})
}
