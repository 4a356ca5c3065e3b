package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoReads          = errors.New("no reads")
	ErrSentinelTimeout  = errors.New("sequencing did not complete in time")
	ErrUndeterminedMiss = errors.New("undetermined reads missing")
)

// MetadataError reports an unreadable or malformed RunInfo.xml.
type MetadataError struct {
	Path string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("run metadata %s: %v", e.Path, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// BinaryNotFoundError is returned when none of the candidate locations
// holds a bcl2fastq binary.
type BinaryNotFoundError struct {
	Name       string
	Candidates []string
}

func (e *BinaryNotFoundError) Error() string {
	return fmt.Sprintf("%s binary not found (tried %s), please specify the path", e.Name, strings.Join(e.Candidates, ", "))
}

// PreconditionError is returned when a run can't be started, the binary
// is never launched in that case.
type PreconditionError struct {
	Path string
	Err  error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed for %s: %v", e.Path, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// ExecutionError carries the exit code of a failed bcl2fastq run.
type ExecutionError struct {
	Path     string
	ExitCode int
	Err      error
}

func (e *ExecutionError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s terminated: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s exited with code %d", e.Path, e.ExitCode)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// PostProcessError is returned when the expected outputs of a successful
// run can't be organized.
type PostProcessError struct {
	Path string
	Err  error
}

func (e *PostProcessError) Error() string {
	return fmt.Sprintf("post-processing %s: %v", e.Path, e.Err)
}

func (e *PostProcessError) Unwrap() error { return e.Err }
