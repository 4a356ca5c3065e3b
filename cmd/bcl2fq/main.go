package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/seahurt/bcl2fq-local/internal/model"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("bcl2fq failed", "err", err)
		fmt.Fprintf(os.Stderr, "bcl2fq: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode passes a regular bcl2fastq exit status through, anything else
// exits with 1.
func exitCode(err error) int {
	var execErr *model.ExecutionError
	if errors.As(err, &execErr) && execErr.ExitCode > 0 && execErr.ExitCode < 126 {
		return execErr.ExitCode
	}
	return 1
}
