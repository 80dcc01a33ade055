package app

import (
	"fmt"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"motorent/internal/jobs"
)

// NewScheduler creates a gocron scheduler with the maintenance jobs
// registered. The caller starts it and shuts it down.
func NewScheduler(runner *jobs.Runner, logger *logrus.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(
		gocron.WithLogger(gocronLogger{entry: logger.WithField("component", "scheduler")}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	if err := runner.Register(sched); err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	return sched, nil
}

// gocronLogger adapts logrus to gocron.Logger.
type gocronLogger struct {
	entry *logrus.Entry
}

func (l gocronLogger) Debug(msg string, args ...any) { l.with(args).Debug(msg) }
func (l gocronLogger) Error(msg string, args ...any) { l.with(args).Error(msg) }
func (l gocronLogger) Info(msg string, args ...any)  { l.with(args).Info(msg) }
func (l gocronLogger) Warn(msg string, args ...any)  { l.with(args).Warn(msg) }

// with turns gocron's alternating key/value args into fields.
func (l gocronLogger) with(args []any) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(args); i += 2 {
		fields[fmt.Sprint(args[i])] = args[i+1]
	}
	return l.entry.WithFields(fields)
}
