package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/seahurt/bcl2fq-local/internal/model"
)

// WaitForFile blocks until path exists. It checks right away and then
// every interval. A zero timeout waits until ctx is done. Exceeding the
// timeout returns model.ErrSentinelTimeout.
func WaitForFile(ctx context.Context, path string, interval, timeout time.Duration) error {
	if interval <= 0 {
		interval = model.DefaultPollInterval
	}
	parent := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	started := time.Now()
	for {
		ok, err := exists(path)
		if err != nil {
			return fmt.Errorf("checking %s: %w", path, err)
		}
		if ok {
			return nil
		}
		slog.DebugContext(ctx, "sequencing not complete yet", "sentinel", path, "waited", time.Since(started).Round(time.Second).String())

		select {
		case <-ctx.Done():
			if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s not found after %s", model.ErrSentinelTimeout, path, timeout)
			}
			return fmt.Errorf("waiting for %s: %w", path, ctx.Err())
		case <-ticker.C:
		}
	}
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
