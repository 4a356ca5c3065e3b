// Package command turns a run configuration and a bases mask into a
// bcl2fastq invocation.
package command

import (
	"strconv"
	"strings"

	"github.com/seahurt/bcl2fq-local/internal/model"
)

// Invocation is a bcl2fastq command line. It is executed as an argv, never
// through a shell.
type Invocation struct {
	Path string
	Args []string
}

// Build returns the invocation for cfg and mask. It does not validate
// anything.
func Build(cfg model.RunConfig, mask string) Invocation {
	io := strconv.Itoa(cfg.IOProcesses)
	proc := strconv.Itoa(cfg.Processes)
	return Invocation{
		Path: cfg.Binary,
		Args: []string{
			"-r", io,
			"-d", proc,
			"-p", proc,
			"-w", io,
			"--barcode-mismatches", strconv.Itoa(cfg.Mismatches),
			"--no-lane-splitting",
			"-R", cfg.SequenceDir,
			"--output-dir", cfg.OutputDir,
			"--use-bases-mask", mask,
			"--sample-sheet", cfg.SampleSheet,
		},
	}
}

// Argv returns a copy of the full argument vector, path included.
func (i Invocation) Argv() []string {
	argv := make([]string, 0, len(i.Args)+1)
	argv = append(argv, i.Path)
	return append(argv, i.Args...)
}

// String renders the command so it can be pasted into a POSIX shell.
func (i Invocation) String() string {
	argv := i.Argv()
	quoted := make([]string, len(argv))
	for idx, arg := range argv {
		quoted[idx] = quote(arg)
	}
	return strings.Join(quoted, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./,:=+@%", r)
}
