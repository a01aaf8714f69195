package task

import (
	"context"
	"time"

	"mahalla-taskboard/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Ledger is the append-only status history of tasks. Every status change goes
// through Append, which also maintains the Task.status write-through
// projection; nothing else may write Task.status.
type Ledger struct {
	db   *gorm.DB
	node *snowflake.Node
}

func NewLedger(db *gorm.DB, node *snowflake.Node) *Ledger {
	return &Ledger{db: db, node: node}
}

// WithTx returns a ledger bound to the given transaction handle.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx, node: l.node}
}

// Append records a status transition for the task and synchronously updates
// the task's cached status. A rejection requires a reason; any other status
// must not carry one.
func (l *Ledger) Append(ctx context.Context, t *Task, actorID string, status Status, reason string) (*StatusEvent, error) {
	if !status.Valid() {
		return nil, errutil.BadRequest("unrecognized status", nil,
			errutil.WithDetails(errutil.Detail{Field: "status", Message: "must be one of active, completed, rejected"}))
	}
	if status == StatusRejected && reason == "" {
		return nil, errutil.BadRequest("rejection reason is required", nil,
			errutil.WithDetails(errutil.Detail{Field: "rejection_reason", Message: "required when status is rejected"}))
	}
	if status != StatusRejected && reason != "" {
		return nil, errutil.BadRequest("rejection reason is only allowed when rejecting", nil,
			errutil.WithDetails(errutil.Detail{Field: "rejection_reason", Message: "must be empty unless status is rejected"}))
	}

	event := &StatusEvent{
		ID:              l.node.Generate().String(),
		TaskID:          t.ID,
		UserID:          actorID,
		Status:          status,
		RejectionReason: reason,
		CreatedAt:       time.Now(),
	}

	if err := l.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}

	if err := l.db.WithContext(ctx).Model(t).Update("status", status).Error; err != nil {
		return nil, err
	}
	t.Status = status

	return event, nil
}

// Latest returns the most recently created event for the task, or nil when
// the task has no history.
func (l *Ledger) Latest(ctx context.Context, taskID string) (*StatusEvent, error) {
	var event StatusEvent
	err := l.db.WithContext(ctx).
		Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at DESC").Order("id DESC").
		First(&event).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// History returns the task's events ordered by creation time ascending.
func (l *Ledger) History(ctx context.Context, taskID string) ([]StatusEvent, error) {
	var events []StatusEvent
	err := l.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at ASC").Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// LatestCompleted returns the most recent completed event for the task, or
// nil when no user has completed it.
func (l *Ledger) LatestCompleted(ctx context.Context, taskID string) (*StatusEvent, error) {
	var event StatusEvent
	err := l.db.WithContext(ctx).
		Where("task_id = ? AND status = ?", taskID, StatusCompleted).
		Order("created_at DESC").Order("id DESC").
		First(&event).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// HasCompletedByMahalla reports whether any user of the given mahalla has a
// completed event against the task.
func (l *Ledger) HasCompletedByMahalla(ctx context.Context, taskID, mahallaID string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&StatusEvent{}).
		Joins("JOIN users ON users.id = task_status_events.user_id").
		Where("task_status_events.task_id = ? AND task_status_events.status = ?", taskID, StatusCompleted).
		Where("users.mahalla_id = ?", mahallaID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountCompletedTasksByUser counts distinct tasks the user has a completed
// event against.
func (l *Ledger) CountCompletedTasksByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&StatusEvent{}).
		Distinct("task_id").
		Where("user_id = ? AND status = ?", userID, StatusCompleted).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountCompletedUsersByMahalla counts distinct users of the mahalla with a
// completed event against the task.
func (l *Ledger) CountCompletedUsersByMahalla(ctx context.Context, taskID, mahallaID string) (int64, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&StatusEvent{}).
		Distinct("task_status_events.user_id").
		Joins("JOIN users ON users.id = task_status_events.user_id").
		Where("task_status_events.task_id = ? AND task_status_events.status = ?", taskID, StatusCompleted).
		Where("users.mahalla_id = ?", mahallaID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
