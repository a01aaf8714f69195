package task

import (
	"context"
	"time"

	"mahalla-taskboard/pkg/config"
	"mahalla-taskboard/pkg/queue"
	"mahalla-taskboard/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Scheduler enqueues the daily deadline sweep at the configured wall-clock
// time. Enqueueing is idempotent on the worker side, so a restart that fires
// an extra sweep is harmless.
type Scheduler struct {
	enqueuer queue.Enqueuer
	hour     int
	minute   int
	stop     chan struct{}
	done     chan struct{}
}

func NewScheduler(cfg *config.Config, enqueuer queue.Enqueuer) *Scheduler {
	return &Scheduler{
		enqueuer: enqueuer,
		hour:     cfg.Sweep.Hour,
		minute:   cfg.Sweep.Minute,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.run()
}

func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) run() {
	defer close(s.done)

	for {
		next := s.nextRun(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.enqueuer.Enqueue(
			asynq.NewTask(taskname.TaskDeadlineSweep, nil),
			asynq.Queue("default"),
		); err != nil {
			zap.L().Error("failed to enqueue deadline sweep", zap.Error(err))
			continue
		}

		zap.L().Info("deadline sweep enqueued", zap.Time("scheduled_for", next))
	}
}

func (s *Scheduler) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func registerScheduler(lc fx.Lifecycle, scheduler *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			scheduler.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			scheduler.Stop()
			return nil
		},
	})
}

var SchedulerModule = fx.Module("task.scheduler",
	fx.Provide(NewScheduler),
	fx.Invoke(registerScheduler),
)
