package tasks

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-service/internal/config"
)

// Scheduler enqueues the recurring jobs on cron-style wall-clock
// schedules. Every firing enqueues a fresh task; overlapping firings of
// the same kind may run concurrently when the interval undercuts the
// job runtime.
type Scheduler struct {
	cron       *cron.Cron
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewScheduler wires the configured cron expressions to their job
// kinds. Specs use the standard five-field syntax (minute, hour,
// day-of-month, month, day-of-week) with *, */n, lists and ranges.
func NewScheduler(cfg config.SchedulerConfig, dispatcher *Dispatcher, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:       cron.New(),
		dispatcher: dispatcher,
		logger:     logger,
	}

	entries := []struct {
		spec string
		kind Kind
	}{
		{cfg.MonthlyReportSpec, KindMonthlyReport},
		{cfg.PendingReminderSpec, KindPendingReminder},
	}
	for _, entry := range entries {
		kind := entry.kind
		if _, err := s.cron.AddFunc(entry.spec, func() { s.fire(kind) }); err != nil {
			return nil, err
		}
		logger.Info("scheduled recurring job",
			zap.String("kind", string(kind)), zap.String("cron", entry.spec))
	}

	return s, nil
}

func (s *Scheduler) fire(kind Kind) {
	taskID, err := s.dispatcher.Enqueue(kind, nil)
	if err != nil {
		s.logger.Warn("scheduled enqueue failed",
			zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	s.logger.Info("scheduled job enqueued",
		zap.String("kind", string(kind)), zap.String("task_id", taskID))
}

// Start begins firing on schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the trigger. Jobs already enqueued keep running.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
