package model

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"

	_ "embed"
)

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource, cue.Filename("config.cue"))
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	if err := compiled.Validate(); err != nil {
		panic(err)
	}

	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
}

// Config is the validated user configuration. Durations stay strings here,
// RunConfig turns them into time.Duration.
type Config struct {
	Input        string `json:"input" yaml:"input"`
	Output       string `json:"output" yaml:"output"`
	SampleSheet  string `json:"sample_sheet" yaml:"sample_sheet"`
	Mismatch     int    `json:"mismatch" yaml:"mismatch"`
	Process      int    `json:"process" yaml:"process"`
	IOProcess    int    `json:"io_process" yaml:"io_process"`
	Binpath      string `json:"binpath" yaml:"binpath"`
	CmdOnly      bool   `json:"cmd_only" yaml:"cmd_only"`
	PollInterval string `json:"poll_interval" yaml:"poll_interval"`
	WaitTimeout  string `json:"wait_timeout" yaml:"wait_timeout"`
	Timeout      string `json:"timeout" yaml:"timeout"`
	MetricsFile  string `json:"metrics_file" yaml:"metrics_file"`
	Verbose      bool   `json:"verbose" yaml:"verbose"`
}

// LoadConfig validates YAML from r against CUE schema and decodes to Config.
func LoadConfig(r io.Reader) (*Config, error) {
	yamlFile, err := yaml.Extract("config.yaml", r)
	if err != nil {
		return nil, err
	}
	yamlValue := cueCtx.BuildFile(yamlFile)

	unified := schema.Unify(yamlValue)
	if err := unified.Validate(
		cue.All(),
		cue.Concrete(true),
	); err != nil {
		return nil, err
	}

	var out Config
	if err := unified.Decode(&out); err != nil {
		return nil, err
	}

	return &out, nil
}

// RunConfig resolves paths and durations. binary is the already resolved
// bcl2fastq location.
func (c Config) RunConfig(binary string) (RunConfig, error) {
	if c.Output == "" {
		return RunConfig{}, errors.New("output directory is required")
	}
	seqDir, err := filepath.Abs(c.Input)
	if err != nil {
		return RunConfig{}, fmt.Errorf("resolving input dir: %w", err)
	}
	outDir, err := filepath.Abs(c.Output)
	if err != nil {
		return RunConfig{}, fmt.Errorf("resolving output dir: %w", err)
	}

	sampleSheet := c.SampleSheet
	if sampleSheet == "" {
		sampleSheet = filepath.Join(seqDir, SampleSheetFile)
	}

	poll, err := ParseDuration(c.PollInterval)
	if err != nil {
		return RunConfig{}, fmt.Errorf("parsing poll_interval: %w", err)
	}
	if poll == 0 {
		poll = DefaultPollInterval
	}
	wait, err := ParseDuration(c.WaitTimeout)
	if err != nil {
		return RunConfig{}, fmt.Errorf("parsing wait_timeout: %w", err)
	}
	timeout, err := ParseDuration(c.Timeout)
	if err != nil {
		return RunConfig{}, fmt.Errorf("parsing timeout: %w", err)
	}

	return RunConfig{
		SequenceDir:  seqDir,
		OutputDir:    outDir,
		SampleSheet:  sampleSheet,
		Mismatches:   c.Mismatch,
		Processes:    c.Process,
		IOProcesses:  c.IOProcess,
		Binary:       binary,
		CmdOnly:      c.CmdOnly,
		PollInterval: poll,
		WaitTimeout:  wait,
		Timeout:      timeout,
	}, nil
}
