package task

import (
	"context"

	"mahalla-taskboard/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RegisterHandlers wires the task queue handlers onto the worker mux.
func RegisterHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.TaskDeadlineSweep, svc.HandleDeadlineSweep)
}

// HandleDeadlineSweep processes the periodic deadline sweep job.
func (s *Service) HandleDeadlineSweep(ctx context.Context, t *asynq.Task) error {
	swept, err := s.SweepOverdue(ctx)
	if err != nil {
		zap.L().Error("deadline sweep failed", zap.Error(err))
		return err
	}

	zap.L().Info("deadline sweep finished", zap.Int("overdue_tasks", swept))
	return nil
}
