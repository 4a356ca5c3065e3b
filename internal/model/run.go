package model

import (
	"log/slog"
	"time"
)

// IndexFlag is the raw IsIndexedRead attribute of a read.
type IndexFlag string

const (
	IndexedYes IndexFlag = "Y"
	IndexedNo  IndexFlag = "N"
)

// ReadDescriptor is one sequencing read segment in instrument order.
type ReadDescriptor struct {
	Number  int
	Cycles  int
	Indexed IndexFlag
}

func (r ReadDescriptor) IsIndexed() bool {
	return r.Indexed == IndexedYes
}

// Well known names inside a run directory and the bcl2fastq output directory.
const (
	RunInfoFile         = "RunInfo.xml"
	SentinelFile        = "RTAComplete.txt"
	SampleSheetFile     = "SampleSheet.csv"
	UndeterminedDir     = "UndeterminedReads"
	UndeterminedR1      = "Undetermined_S0_R1_001.fastq.gz"
	UndeterminedR2      = "Undetermined_S0_R2_001.fastq.gz"
	DefaultBinary       = "/usr/local/bin/bcl2fastq"
	SystemBinary        = "/usr/bin/bcl2fastq"
	BinaryName          = "bcl2fastq"
	DefaultPollInterval = 60 * time.Second
)

// RunConfig is everything a single run needs. It is built once by the CLI
// and passed around by value.
type RunConfig struct {
	SequenceDir  string
	OutputDir    string
	SampleSheet  string
	Mismatches   int
	Processes    int
	IOProcesses  int
	Binary       string
	CmdOnly      bool
	PollInterval time.Duration
	WaitTimeout  time.Duration // zero waits forever
	Timeout      time.Duration // zero means no limit for bcl2fastq
}

func (c RunConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("sequence_dir", c.SequenceDir),
		slog.String("output_dir", c.OutputDir),
		slog.String("sample_sheet", c.SampleSheet),
		slog.Int("mismatches", c.Mismatches),
		slog.Int("processes", c.Processes),
		slog.Int("io_processes", c.IOProcesses),
		slog.String("binary", c.Binary),
		slog.Bool("cmd_only", c.CmdOnly),
	)
}
