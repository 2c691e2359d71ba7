package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs named tasks on cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	timeout time.Duration
}

// NewScheduler builds a scheduler whose tasks get at most timeout to run.
// Panicking tasks are recovered and overlapping runs of one task are skipped.
func NewScheduler(logger *zap.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	cronLogger := cronZapLogger{logger: logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger:  logger,
		timeout: timeout,
	}
}

// Add registers task under a standard five-field cron spec.
func (s *Scheduler) Add(spec, name string, task func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		start := time.Now()
		if err := task(ctx); err != nil {
			s.logger.Error("scheduled task failed", zap.String("task", name), zap.Duration("took", time.Since(start)), zap.Error(err))
			return
		}
		s.logger.Info("scheduled task finished", zap.String("task", name), zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("schedule %s with %q: %w", name, spec, err)
	}
	return nil
}

// Entries reports how many tasks are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Start begins running tasks in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running tasks until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

type cronZapLogger struct {
	logger *zap.SugaredLogger
}

func (l cronZapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronZapLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
