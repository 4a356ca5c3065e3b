package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seahurt/bcl2fq-local/internal/command"
	"github.com/seahurt/bcl2fq-local/internal/log"
	"github.com/seahurt/bcl2fq-local/internal/mask"
	"github.com/seahurt/bcl2fq-local/internal/model"
	"github.com/seahurt/bcl2fq-local/internal/runinfo"
)

var ErrAlreadyRun = errors.New("supervisor already run")

// TransitionFunc observes every state change of a Supervisor.
type TransitionFunc func(ctx context.Context, from, to State)

// Report summarizes a single run.
type Report struct {
	RunID      string
	RunInfo    runinfo.RunInfo
	Mask       string
	Invocation command.Invocation
	State      State
	Started    time.Time
	Finished   time.Time
	Waited     time.Duration
	Exec       Result
	Err        error
}

type Supervisor struct {
	cfg          model.RunConfig
	out          io.Writer
	lineFunc     LineFunc
	onTransition TransitionFunc
	runner       *Runner

	mx     sync.Mutex
	state  State
	report Report
}

// NewSupervisor creates a supervisor of one bcl2fastq run. The command
// text is written to out before anything is executed.
func NewSupervisor(cfg model.RunConfig, out io.Writer) *Supervisor {
	if out == nil {
		out = io.Discard
	}
	return &Supervisor{
		cfg:    cfg,
		out:    out,
		runner: NewRunner(),
		state:  StateIdle,
	}
}

// WithLineFunc sets the sink of bcl2fastq output lines.
func (s *Supervisor) WithLineFunc(f LineFunc) *Supervisor {
	s.lineFunc = f
	return s
}

func (s *Supervisor) WithTransitionFunc(f TransitionFunc) *Supervisor {
	s.onTransition = f
	return s
}

func (s *Supervisor) State() State {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.state
}

func (s *Supervisor) Report() Report {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.report
}

// Do drives the run through its lifecycle:
//
//	Idle -> AwaitingSequencer -> ValidatingPreconditions -> Executing -> PostProcessing -> Done
//
// Idle reads RunInfo.xml, builds the command and prints it. In command-only
// mode the run ends there. Any error moves the run to Failed and is
// returned. A Supervisor can be run only once.
func (s *Supervisor) Do(ctx context.Context) error {
	s.mx.Lock()
	if s.state != StateIdle || !s.report.Started.IsZero() {
		s.mx.Unlock()
		return ErrAlreadyRun
	}
	runID := uuid.NewString()
	s.report = Report{RunID: runID, State: StateIdle, Started: time.Now().UTC()}
	s.mx.Unlock()

	ctx = log.ContextAttrs(ctx, slog.String("run_id", runID))
	slog.DebugContext(ctx, "starting a supervisor", "config", s.cfg)

	inv, err := s.prepare(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	ctx = log.ContextAttrs(ctx, slog.String("flowcell", s.Report().RunInfo.Flowcell))
	if _, err := fmt.Fprintln(s.out, inv.String()); err != nil {
		return s.fail(ctx, fmt.Errorf("writing command: %w", err))
	}
	if s.cfg.CmdOnly {
		s.transition(ctx, StateDone)
		return nil
	}

	s.transition(ctx, StateAwaitingSequencer)
	if err := s.awaitSequencer(ctx); err != nil {
		return s.fail(ctx, err)
	}

	s.transition(ctx, StateValidatingPreconditions)
	if err := s.validate(ctx); err != nil {
		return s.fail(ctx, err)
	}

	s.transition(ctx, StateExecuting)
	if err := s.execute(ctx, inv); err != nil {
		return s.fail(ctx, err)
	}

	s.transition(ctx, StatePostProcessing)
	if err := MoveUndetermined(ctx, s.cfg.OutputDir); err != nil {
		return s.fail(ctx, err)
	}

	s.transition(ctx, StateDone)
	slog.InfoContext(ctx, "run finished", "elapsed", time.Since(s.Report().Started).Round(time.Second).String())
	return nil
}

func (s *Supervisor) prepare(ctx context.Context) (command.Invocation, error) {
	info, err := runinfo.Read(s.cfg.SequenceDir)
	if err != nil {
		return command.Invocation{}, err
	}
	m := mask.Generate(info.Reads)
	inv := command.Build(s.cfg, m)

	s.mx.Lock()
	s.report.RunInfo = info
	s.report.Mask = m
	s.report.Invocation = inv
	s.mx.Unlock()

	slog.InfoContext(ctx, "command prepared",
		"run", info.ID,
		"flowcell", info.Flowcell,
		"reads", len(info.Reads),
		"mask", m,
	)
	return inv, nil
}

func (s *Supervisor) awaitSequencer(ctx context.Context) error {
	sentinel := filepath.Join(s.cfg.SequenceDir, model.SentinelFile)
	started := time.Now()
	slog.InfoContext(ctx, "waiting for sequencing to complete", "sentinel", sentinel, "interval", s.cfg.PollInterval.String())
	err := WaitForFile(ctx, sentinel, s.cfg.PollInterval, s.cfg.WaitTimeout)

	s.mx.Lock()
	s.report.Waited = time.Since(started)
	s.mx.Unlock()
	return err
}

func (s *Supervisor) validate(_ context.Context) error {
	info, err := os.Stat(s.cfg.SampleSheet)
	if err != nil {
		return &model.PreconditionError{Path: s.cfg.SampleSheet, Err: err}
	}
	if info.IsDir() {
		return &model.PreconditionError{Path: s.cfg.SampleSheet, Err: errors.New("sample sheet is a directory")}
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return &model.PreconditionError{Path: s.cfg.OutputDir, Err: err}
	}
	return nil
}

func (s *Supervisor) execute(ctx context.Context, inv command.Invocation) error {
	results := s.runner.WaitChan()
	err := s.runner.Start(ctx, Command{
		Path:    inv.Path,
		Args:    inv.Args,
		Timeout: s.cfg.Timeout,
	}, s.lineFunc)
	if err != nil {
		return &model.ExecutionError{Path: inv.Path, ExitCode: -1, Err: err}
	}

	res := <-results
	s.mx.Lock()
	s.report.Exec = res
	s.mx.Unlock()

	slog.InfoContext(ctx, "bcl2fastq finished",
		"exit_code", res.ExitCode(),
		"lines", res.Lines,
		"elapsed", res.Stopped.Sub(res.Started).Round(time.Second).String(),
	)
	if res.Err != nil {
		return &model.ExecutionError{Path: inv.Path, ExitCode: res.ExitCode(), Err: res.Err}
	}
	return nil
}

func (s *Supervisor) transition(ctx context.Context, to State) {
	s.mx.Lock()
	from := s.state
	if !from.CanTransition(to) {
		s.mx.Unlock()
		slog.ErrorContext(ctx, "invalid state transition: ignoring", "from", from.String(), "to", to.String())
		return
	}
	s.state = to
	s.report.State = to
	if to.Terminal() {
		s.report.Finished = time.Now().UTC()
	}
	s.mx.Unlock()

	slog.DebugContext(ctx, "state changed", "from", from.String(), "to", to.String())
	if s.onTransition != nil {
		s.onTransition(ctx, from, to)
	}
}

func (s *Supervisor) fail(ctx context.Context, err error) error {
	s.mx.Lock()
	s.report.Err = err
	from := s.state
	s.mx.Unlock()
	s.transition(ctx, StateFailed)

	attrs := []any{"error", err, "state", from.String()}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		attrs = append(attrs, "path", pathErr.Path)
	}
	slog.ErrorContext(ctx, "run failed", attrs...)
	return err
}
