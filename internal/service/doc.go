// Package service implements supervision and execution of a bcl2fastq run.
//
// Overview
// The Supervisor owns the lifecycle of exactly one run. It reads the run
// metadata, builds the command, waits for the sequencer, checks the inputs,
// executes bcl2fastq through a Runner and organizes the outputs.
//
// Runner is a thin, opinionated wrapper around os/exec:
//   - starts the process from an argv, never through a shell
//   - reads stdout and stderr concurrently (errgroup)
//   - hands every line to a LineFunc, one call at a time
//   - terminates the process on context cancellation or timeout
//   - exposes a channel of Result values
//
// Data flow:
//
//   Supervisor                         Runner{cmd}
//       |                                  |
//   Idle: RunInfo.xml -> mask -> command   |
//   AwaitingSequencer: poll RTAComplete.txt|
//   ValidatingPreconditions: sample sheet  |
//   Executing: WaitChan() + Start() ------>| os/exec.Start
//       |<------------ lines --------------| stdout/stderr goroutines
//       |<------------ Result -------------| Wait()
//   PostProcessing: UndeterminedReads/     |
//   Done | Failed
//
// Invariants:
//   - At most one process per Runner at a time.
//   - Each execution produces one terminal Result (success or error).
//   - A missing sample sheet fails the run before anything is executed.
//   - Command-only mode stops after printing the command.
//   - The destination of undetermined reads is only replaced when both
//     source files exist.
package service
