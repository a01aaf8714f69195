package task

import (
	"context"
	"time"

	"mahalla-taskboard/services/territory"

	"gorm.io/gorm"
)

// CompletionRate returns the share of the task's mahallas, in percent, for
// which at least one resident has a completed event. A mahalla counts as
// complete if any of its users completed the task, not all. A task with no
// associated mahallas rates 0.
func (s *Service) CompletionRate(ctx context.Context, t *Task) (float64, error) {
	if len(t.Mahallas) == 0 {
		return 0, nil
	}

	completed := 0
	for _, m := range t.Mahallas {
		ok, err := s.ledger.HasCompletedByMahalla(ctx, t.ID, m.ID)
		if err != nil {
			return 0, err
		}
		if ok {
			completed++
		}
	}

	return float64(completed) / float64(len(t.Mahallas)) * 100, nil
}

// IsCompletedOnTime reports whether the task was completed before its
// deadline. A task without a deadline is always on time. A task with no
// completed event yet is not on time; callers distinguish "not yet due" by
// also checking the deadline against the clock.
func (s *Service) IsCompletedOnTime(ctx context.Context, t *Task) (bool, error) {
	if t.Deadline == nil {
		return true, nil
	}

	event, err := s.ledger.LatestCompleted(ctx, t.ID)
	if err != nil {
		return false, err
	}
	if event == nil {
		return false, nil
	}

	return !event.CreatedAt.After(*t.Deadline), nil
}

// expireOverdue applies the deadline-expiry side effect: for a task whose
// deadline passed while still active, every associated mahalla with no
// completed event from its users turns red. Idempotent.
func (s *Service) expireOverdue(ctx context.Context, tx *gorm.DB, t *Task, now time.Time) error {
	if t.Deadline == nil || t.Status != StatusActive || now.Before(*t.Deadline) {
		return nil
	}

	ledger := s.ledger.WithTx(tx)
	for _, m := range t.Mahallas {
		ok, err := ledger.HasCompletedByMahalla(ctx, t.ID, m.ID)
		if err != nil {
			return err
		}
		if ok {
			continue
		}

		if err := tx.WithContext(ctx).
			Model(&territory.Mahalla{}).
			Where("id = ?", m.ID).
			Update("health", territory.HealthRed).Error; err != nil {
			return err
		}
	}

	return nil
}
