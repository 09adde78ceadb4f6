package workflow

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imtaco/livecast/internal/log"
)

// Step is one named cleanup action run during shutdown.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// WaitGracefulShutdown blocks until ctx is done or SIGINT/SIGTERM arrives, then runs
// steps in order under a shared timeout.
func WaitGracefulShutdown(
	ctx context.Context,
	logger *log.Logger,
	steps []Step,
	timeout time.Duration,
) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Graceful shutdown handler registered")
	<-ctx.Done()

	ctxClean, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic during graceful shutdown", log.Any("error", r))
			}
		}()
		logger.Info("Starting graceful shutdown", log.Int("steps", len(steps)))
		RunSteps(ctxClean, logger, steps)
	}()

	select {
	case <-ctxClean.Done():
		logger.Warn("Shutdown timeout exceeded, forcing exit")
	case <-done:
		logger.Info("Graceful shutdown completed")
	}
}

// RunSteps runs every step even when an earlier one fails.
func RunSteps(ctx context.Context, logger *log.Logger, steps []Step) {
	for _, step := range steps {
		if err := step.Run(ctx); err != nil {
			logger.Error("Shutdown step failed", log.String("step", step.Name), log.Error(err))
			continue
		}
		logger.Debug("Shutdown step done", log.String("step", step.Name))
	}
}
