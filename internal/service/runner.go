package service

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	ErrRunNotStarted = errors.New("run not started")
	ErrRunInProgress = errors.New("run in progress")
)

// DefaultWaitDelay is how long a cancelled process gets between SIGTERM
// and SIGKILL.
const DefaultWaitDelay = 10 * time.Second

const maxLineSize = 1 << 20

// LineFunc receives the output of a running process one line at a time.
// Calls are serialized.
type LineFunc func(ctx context.Context, line string)

type Runner struct {
	mx         sync.RWMutex
	cmd        *exec.Cmd
	cancelFunc context.CancelFunc
	result     Result
	waits      []chan Result

	lineMx sync.Mutex
}

func NewRunner() *Runner {
	return &Runner{
		result: Result{Err: ErrRunNotStarted},
	}
}

type Command struct {
	Path      string
	Args      []string
	Env       []string // appended to the current environment
	Timeout   time.Duration
	WaitDelay time.Duration
}

type Result struct {
	Path    string
	Args    []string
	Started time.Time
	Stopped time.Time
	State   *os.ProcessState
	Lines   int64
	Err     error
}

// ExitCode returns the exit code of the process, or -1 if it did not
// exit normally or never started.
func (r Result) ExitCode() int {
	if r.State == nil {
		return -1
	}
	return r.State.ExitCode()
}

// Start runs the underlying process, it ensures only a single instance is
// active. Returns ErrRunInProgress or an exec error, otherwise nil. Does NOT
// wait on command to finish, use WaitChan method instead.
//
// Stdout and stderr are both split into lines and passed to lineFunc as
// they arrive. Cancelling ctx sends SIGTERM, then SIGKILL after WaitDelay.
func (r *Runner) Start(ctx context.Context, proto Command, lineFunc LineFunc) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.cmd != nil {
		return ErrRunInProgress
	}

	r.result = Result{
		Path: proto.Path,
		Args: append([]string(nil), proto.Args...),
	}

	if proto.Timeout == 0 {
		ctx, r.cancelFunc = context.WithCancel(ctx)
	} else {
		ctx, r.cancelFunc = context.WithTimeout(ctx, proto.Timeout)
	}

	cmd := exec.CommandContext(ctx, r.result.Path, r.result.Args...)
	if len(proto.Env) > 0 {
		cmd.Env = append(os.Environ(), proto.Env...)
	}
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = proto.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return r.startFailed(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return r.startFailed(err)
	}

	r.result.Started = time.Now().UTC()
	if err := cmd.Start(); err != nil {
		return r.startFailed(err)
	}
	slog.DebugContext(ctx, "process started", "path", proto.Path, "pid", cmd.Process.Pid)

	r.cmd = cmd
	go r.wait(ctx, cmd, stdout, stderr, lineFunc)
	return nil
}

// startFailed must be called with r.mx held.
func (r *Runner) startFailed(err error) error {
	if r.cancelFunc != nil {
		r.cancelFunc()
		r.cancelFunc = nil
	}
	r.result.Stopped = time.Now().UTC()
	r.result.Err = err
	r.notify()
	return err
}

func (r *Runner) wait(ctx context.Context, cmd *exec.Cmd, stdout, stderr io.Reader, lineFunc LineFunc) {
	var lines atomic.Int64
	// all reads must complete before cmd.Wait closes the pipes
	var g errgroup.Group
	g.Go(func() error {
		return r.processLines(ctx, stdout, lineFunc, &lines)
	})
	g.Go(func() error {
		return r.processLines(ctx, stderr, lineFunc, &lines)
	})
	streamErr := g.Wait()
	if streamErr != nil {
		slog.ErrorContext(ctx, "processing output", "error", streamErr)
	}

	err := cmd.Wait()
	if err != nil && ctx.Err() != nil {
		err = errors.Join(err, context.Cause(ctx))
	}
	stopped := time.Now().UTC()

	r.mx.Lock()
	defer r.mx.Unlock()
	if r.cancelFunc != nil {
		r.cancelFunc()
		r.cancelFunc = nil
	}
	r.result.Stopped = stopped
	r.result.State = cmd.ProcessState
	r.result.Lines = lines.Load()
	r.result.Err = err
	r.cmd = nil
	r.notify()
}

func (r *Runner) processLines(ctx context.Context, rd io.Reader, lineFunc LineFunc, lines *atomic.Int64) error {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(scanLines)
	for scanner.Scan() {
		lines.Add(1)
		if lineFunc == nil {
			continue
		}
		r.lineMx.Lock()
		lineFunc(ctx, scanner.Text())
		r.lineMx.Unlock()
	}
	err := scanner.Err()
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
		// keep draining so the process does not block on a full pipe
		_, _ = io.Copy(io.Discard, rd)
		return err
	}
	return nil
}

// scanLines is bufio.ScanLines, except that a line longer than
// maxLineSize is split into maxLineSize pieces instead of failing.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	advance, token, err := bufio.ScanLines(data, atEOF)
	if advance == 0 && token == nil && err == nil && len(data) >= maxLineSize {
		return maxLineSize, data[:maxLineSize], nil
	}
	return advance, token, err
}

// notify must be called with r.mx held.
func (r *Runner) notify() {
	for _, ch := range r.waits {
		ch <- r.result
		close(ch)
	}
	r.waits = nil
}

// WaitChan returns the channel obtaining the result of the next finished
// (or failed to start) program. Register it before Start to not miss a
// fast exit. The channel is closed once the result is delivered.
func (r *Runner) WaitChan() <-chan Result {
	ch := make(chan Result, 1)
	r.mx.Lock()
	r.waits = append(r.waits, ch)
	r.mx.Unlock()
	return ch
}

// Result returns a last command result
// or result with ErrRunNotStarted
// if nothing have been executed yet
func (r *Runner) Result() Result {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return r.result
}

// Running reports whether a process is active.
func (r *Runner) Running() bool {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return r.cmd != nil
}
