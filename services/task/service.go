package task

import (
	"context"
	"fmt"
	"time"

	"mahalla-taskboard/pkg/errutil"
	"mahalla-taskboard/pkg/sequence"
	"mahalla-taskboard/pkg/storage"
	"mahalla-taskboard/services/territory"
	"mahalla-taskboard/services/user"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	seq    sequence.Generator
	store  storage.ObjectStore
	repo   Repository
	users  user.Repository
	ledger *Ledger
}

type ServiceParams struct {
	fx.In
	DB    *gorm.DB
	Node  *snowflake.Node
	Seq   sequence.Generator  `optional:"true"`
	Store storage.ObjectStore `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		node:   p.Node,
		seq:    p.Seq,
		store:  p.Store,
		repo:   NewRepository(p.DB),
		users:  user.NewRepository(p.DB),
		ledger: NewLedger(p.DB, p.Node),
	}
}

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	MahallaIDs  []string   `json:"mahalla_ids"`
	CreatedByID string     `json:"created_by_id"`
}

// CreateTask creates a task and its initial "active" ledger event atomically.
// Deadline and the mahalla set are immutable after creation.
func (s *Service) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if req.Title == "" {
		return nil, errutil.BadRequest("task title is required", nil)
	}

	creator, err := s.users.GetByID(ctx, req.CreatedByID)
	if err != nil {
		zapLog.Error("failed query get creator", zap.Error(err))
		return nil, errutil.Internal("failed to create task", err)
	}
	if creator == nil {
		return nil, errutil.NotFound("user not found", nil)
	}
	if !creator.IsStaff {
		return nil, errutil.Forbidden("only administrators can create tasks", nil)
	}

	var mahallas []territory.Mahalla
	if len(req.MahallaIDs) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", req.MahallaIDs).Find(&mahallas).Error; err != nil {
			zapLog.Error("failed query mahallas", zap.Error(err))
			return nil, errutil.Internal("failed to create task", err)
		}
		if len(mahallas) != len(req.MahallaIDs) {
			return nil, errutil.NotFound("mahalla not found", nil)
		}
	}

	code := ""
	if s.seq != nil {
		code, err = s.seq.NextTaskCode(ctx)
		if err != nil {
			zapLog.Warn("failed to generate task code", zap.Error(err))
		}
	}

	t := &Task{
		ID:          s.node.Generate().String(),
		Code:        code,
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Status:      StatusActive,
		Mahallas:    mahallas,
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Mahallas.*").Create(t).Error; err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		if _, err := s.ledger.WithTx(tx).Append(ctx, t, creator.ID, StatusActive, ""); err != nil {
			return fmt.Errorf("failed to append initial status: %w", err)
		}

		return nil
	}); err != nil {
		zapLog.Error("failed to create task transaction", zap.Error(err))
		return nil, errutil.Internal("failed to create task", err)
	}

	zapLog.Info("task created", zap.String("task_id", t.ID), zap.String("code", t.Code))

	return t, nil
}

type AppendStatusRequest struct {
	TaskID  string `json:"task_id"`
	ActorID string `json:"actor_id"`
	Status  Status `json:"status"`
	Reason  string `json:"rejection_reason,omitempty"`
}

// AppendStatus records a status transition driven by a user action. The actor
// must belong to one of the task's assigned mahallas. A completion while the
// actor's mahalla is red promotes it to yellow; green requires grading or a
// fresh on-time cycle.
func (s *Service) AppendStatus(ctx context.Context, req AppendStatusRequest) (*StatusEvent, error) {
	actor, err := s.users.GetByID(ctx, req.ActorID)
	if err != nil {
		zap.L().Error("failed query get actor", zap.Error(err))
		return nil, errutil.Internal("failed to update task status", err)
	}
	if actor == nil {
		return nil, errutil.NotFound("user not found", nil)
	}

	t, err := s.repo.GetByID(ctx, req.TaskID)
	if err != nil {
		zap.L().Error("failed query get task", zap.Error(err))
		return nil, errutil.Internal("failed to update task status", err)
	}
	if t == nil {
		return nil, errutil.NotFound("task not found", nil)
	}

	if !taskAssignedTo(t, actor) {
		return nil, errutil.Forbidden("task not assigned to your mahalla", nil)
	}

	var event *StatusEvent
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err = s.ledger.WithTx(tx).Append(ctx, t, actor.ID, req.Status, req.Reason)
		if err != nil {
			return err
		}

		if req.Status == StatusCompleted && actor.MahallaID != nil {
			if err := promoteIfRed(ctx, tx, *actor.MahallaID); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		if _, ok := err.(errutil.BaseError); ok {
			return nil, err
		}
		zap.L().Error("failed to append status transaction", zap.Error(err), zap.String("task_id", t.ID))
		return nil, errutil.Internal("failed to update task status", err)
	}

	return event, nil
}

// promoteIfRed lifts a red mahalla to yellow when a completion arrives.
func promoteIfRed(ctx context.Context, tx *gorm.DB, mahallaID string) error {
	return tx.WithContext(ctx).
		Model(&territory.Mahalla{}).
		Where("id = ? AND health = ?", mahallaID, territory.HealthRed).
		Update("health", territory.HealthYellow).Error
}

func taskAssignedTo(t *Task, u *user.User) bool {
	if u.MahallaID == nil {
		return false
	}
	for _, m := range t.Mahallas {
		if m.ID == *u.MahallaID {
			return true
		}
	}
	return false
}

type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

type SubmitReportRequest struct {
	TaskID  string
	ActorID string
	Comment string
	Files   []FileUpload
}

// SubmitReport records a user's report against a task. Submitting does not
// change task status; only an explicit completion or a grade does.
func (s *Service) SubmitReport(ctx context.Context, req SubmitReportRequest) (*Submission, error) {
	actor, err := s.users.GetByID(ctx, req.ActorID)
	if err != nil {
		zap.L().Error("failed query get actor", zap.Error(err))
		return nil, errutil.Internal("failed to submit report", err)
	}
	if actor == nil {
		return nil, errutil.NotFound("user not found", nil)
	}

	t, err := s.repo.GetByID(ctx, req.TaskID)
	if err != nil {
		zap.L().Error("failed query get task", zap.Error(err))
		return nil, errutil.Internal("failed to submit report", err)
	}
	if t == nil {
		return nil, errutil.NotFound("task not found", nil)
	}

	if !taskAssignedTo(t, actor) {
		return nil, errutil.Forbidden("task not assigned to your mahalla", nil)
	}

	if req.Comment == "" && len(req.Files) == 0 {
		return nil, errutil.BadRequest("a comment or at least one file is required", nil)
	}

	submission := &Submission{
		ID:      s.node.Generate().String(),
		TaskID:  t.ID,
		UserID:  actor.ID,
		Comment: req.Comment,
	}

	files := make([]SubmissionFile, 0, len(req.Files))
	for _, f := range req.Files {
		objectKey := ""
		if s.store != nil {
			objectKey, err = s.store.PutSubmissionFile(ctx, submission.ID, f.Name, f.ContentType, f.Data)
			if err != nil {
				zap.L().Error("failed to store submission file", zap.Error(err), zap.String("file_name", f.Name))
				return nil, errutil.Internal("failed to store submission file", err)
			}
		}

		files = append(files, SubmissionFile{
			ID:           s.node.Generate().String(),
			SubmissionID: submission.ID,
			FileName:     f.Name,
			FileType:     f.ContentType,
			ObjectKey:    objectKey,
			UploadedAt:   time.Now(),
		})
	}
	submission.Files = files

	if err := s.db.WithContext(ctx).Create(submission).Error; err != nil {
		zap.L().Error("failed to create submission", zap.Error(err), zap.String("task_id", t.ID))
		return nil, errutil.Internal("failed to submit report", err)
	}

	return submission, nil
}

type GradeRequest struct {
	TaskID     string `json:"task_id"`
	Percentage int    `json:"percentage"`
	AdminID    string `json:"admin_id"`
}

// GradeTask applies the authoritative grading override: it appends a ledger
// event derived from the percentage band and forces every associated
// mahalla's health to that band. A task can be graded exactly once.
func (s *Service) GradeTask(ctx context.Context, req GradeRequest) (*Grade, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if req.Percentage < 0 || req.Percentage > 100 {
		return nil, errutil.BadRequest("percentage must be between 0 and 100", nil,
			errutil.WithDetails(errutil.Detail{Field: "percentage", Message: "must be in [0, 100]"}))
	}

	admin, err := s.users.GetByID(ctx, req.AdminID)
	if err != nil {
		zapLog.Error("failed query get admin", zap.Error(err))
		return nil, errutil.Internal("failed to grade task", err)
	}
	if admin == nil {
		return nil, errutil.NotFound("user not found", nil)
	}
	if !admin.IsStaff {
		return nil, errutil.Forbidden("only administrators can grade tasks", nil)
	}

	t, err := s.repo.GetByID(ctx, req.TaskID)
	if err != nil {
		zapLog.Error("failed query get task", zap.Error(err))
		return nil, errutil.Internal("failed to grade task", err)
	}
	if t == nil {
		return nil, errutil.NotFound("task not found", nil)
	}

	band := BandFor(req.Percentage)

	grade := &Grade{
		ID:         s.node.Generate().String(),
		TaskID:     t.ID,
		Percentage: req.Percentage,
		Band:       band,
		GradedByID: admin.ID,
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := NewRepository(tx).GetGrade(ctx, t.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return errutil.Conflict("task is already graded", nil)
		}

		status := StatusCompleted
		reason := ""
		if band == territory.HealthRed {
			status = StatusRejected
			reason = fmt.Sprintf("Graded with %d%% completion", req.Percentage)
		}

		if _, err := s.ledger.WithTx(tx).Append(ctx, t, admin.ID, status, reason); err != nil {
			return err
		}

		// Grading overrides any prior automatic health derivation.
		for _, m := range t.Mahallas {
			if err := tx.WithContext(ctx).
				Model(&territory.Mahalla{}).
				Where("id = ?", m.ID).
				Update("health", band).Error; err != nil {
				return err
			}
		}

		// The unique index on task_id backstops concurrent double-grades.
		if err := tx.Create(grade).Error; err != nil {
			return errutil.Conflict("task is already graded", err)
		}

		return nil
	}); err != nil {
		if _, ok := err.(errutil.BaseError); ok {
			return nil, err
		}
		zapLog.Error("failed to grade task transaction", zap.Error(err), zap.String("task_id", t.ID))
		return nil, errutil.Internal("failed to grade task", err)
	}

	zapLog.Info("task graded",
		zap.String("task_id", t.ID),
		zap.Int("percentage", req.Percentage),
		zap.String("band", band.String()),
	)

	return grade, nil
}

// GetTask returns the task read model. Reading a task opportunistically runs
// the deadline-expiry check, so an overdue task turns its silent mahallas red
// even without the periodic sweep.
func (s *Service) GetTask(ctx context.Context, taskID string) (*TaskView, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		zap.L().Error("failed query get task", zap.Error(err))
		return nil, errutil.Internal("failed to get task", err)
	}
	if t == nil {
		return nil, errutil.NotFound("task not found", nil)
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.expireOverdue(ctx, tx, t, time.Now())
	}); err != nil {
		zap.L().Error("failed to run deadline expiry", zap.Error(err), zap.String("task_id", t.ID))
		return nil, errutil.Internal("failed to get task", err)
	}

	return s.buildView(ctx, t, true)
}

type ListFilters struct {
	UserID     string
	TelegramID *int64
	MahallaID  string
	DistrictID string
	Status     string
}

// ListTasks returns task read models matching the filters. A telegram filter
// narrows to tasks assigned to that user's mahalla.
func (s *Service) ListTasks(ctx context.Context, filters ListFilters) ([]TaskView, error) {
	params := ListParams{
		MahallaID:  filters.MahallaID,
		DistrictID: filters.DistrictID,
	}

	if filters.Status != "" {
		status := Status(filters.Status)
		if !status.Valid() {
			return nil, errutil.BadRequest("unrecognized status", nil)
		}
		params.Status = status
	}

	if filters.UserID != "" || filters.TelegramID != nil {
		var u *user.User
		var err error
		if filters.UserID != "" {
			u, err = s.users.GetByID(ctx, filters.UserID)
		} else {
			u, err = s.users.GetByTelegramID(ctx, *filters.TelegramID)
		}
		if err != nil {
			zap.L().Error("failed query get user", zap.Error(err))
			return nil, errutil.Internal("failed to list tasks", err)
		}
		if u == nil {
			return nil, errutil.NotFound("user not found", nil)
		}
		if u.MahallaID == nil {
			return []TaskView{}, nil
		}
		params.MahallaID = *u.MahallaID
	}

	tasks, err := s.repo.List(ctx, params)
	if err != nil {
		zap.L().Error("failed to list tasks", zap.Error(err))
		return nil, errutil.Internal("failed to list tasks", err)
	}

	views := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		view, err := s.buildView(ctx, &tasks[i], false)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}

	return views, nil
}

func (s *Service) buildView(ctx context.Context, t *Task, detailed bool) (*TaskView, error) {
	rate, err := s.CompletionRate(ctx, t)
	if err != nil {
		zap.L().Error("failed to compute completion rate", zap.Error(err), zap.String("task_id", t.ID))
		return nil, errutil.Internal("failed to compute completion rate", err)
	}

	view := &TaskView{
		ID:                   t.ID,
		Code:                 t.Code,
		Title:                t.Title,
		Description:          t.Description,
		Status:               t.Status,
		CompletionPercentage: rate,
		Deadline:             t.Deadline,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
		Mahallas:             t.Mahallas,
	}

	if !detailed {
		return view, nil
	}

	latest, err := s.ledger.Latest(ctx, t.ID)
	if err != nil {
		return nil, errutil.Internal("failed to load status history", err)
	}
	if latest != nil {
		info := &StatusInfo{
			Status:          latest.Status,
			UpdatedByID:     latest.UserID,
			UpdatedAt:       latest.CreatedAt,
			RejectionReason: latest.RejectionReason,
		}
		if latest.User != nil {
			info.UpdatedByName = latest.User.DisplayName()
		}
		view.StatusInfo = info
	}

	submissions, err := s.repo.ListSubmissions(ctx, t.ID)
	if err != nil {
		return nil, errutil.Internal("failed to load submissions", err)
	}
	view.Submissions = submissions

	grade, err := s.repo.GetGrade(ctx, t.ID)
	if err != nil {
		return nil, errutil.Internal("failed to load grade", err)
	}
	view.Grade = grade

	return view, nil
}

// GetTaskStats aggregates user progress for one task across its mahallas.
func (s *Service) GetTaskStats(ctx context.Context, taskID string) (*TaskStats, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		zap.L().Error("failed query get task", zap.Error(err))
		return nil, errutil.Internal("failed to get task stats", err)
	}
	if t == nil {
		return nil, errutil.NotFound("task not found", nil)
	}

	stats := &TaskStats{
		MahallaStats: make([]MahallaTaskStat, 0, len(t.Mahallas)),
	}

	for _, m := range t.Mahallas {
		total, err := s.repo.CountUsersByMahalla(ctx, m.ID)
		if err != nil {
			return nil, errutil.Internal("failed to count mahalla users", err)
		}

		completed, err := s.ledger.CountCompletedUsersByMahalla(ctx, t.ID, m.ID)
		if err != nil {
			return nil, errutil.Internal("failed to count completed users", err)
		}

		stats.MahallaStats = append(stats.MahallaStats, MahallaTaskStat{
			MahallaID: m.ID,
			Name:      m.Name,
			Total:     total,
			Completed: completed,
		})

		stats.TotalUsers += total
		stats.CompletedUsers += completed
	}

	stats.PendingUsers = stats.TotalUsers - stats.CompletedUsers

	return stats, nil
}

// UserTaskStats summarizes one user's personal progress against the tasks
// assigned to their mahalla.
type UserTaskStats struct {
	TotalTasks     int64   `json:"total_tasks"`
	CompletedTasks int64   `json:"completed_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}

func (s *Service) GetUserStats(ctx context.Context, userID string) (*UserTaskStats, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		zap.L().Error("failed query get user", zap.Error(err))
		return nil, errutil.Internal("failed to get user stats", err)
	}
	if u == nil {
		return nil, errutil.NotFound("user not found", nil)
	}

	stats := &UserTaskStats{}
	if u.MahallaID == nil {
		return stats, nil
	}

	stats.TotalTasks, err = s.repo.CountByMahalla(ctx, *u.MahallaID)
	if err != nil {
		return nil, errutil.Internal("failed to get user stats", err)
	}

	stats.CompletedTasks, err = s.ledger.CountCompletedTasksByUser(ctx, u.ID)
	if err != nil {
		return nil, errutil.Internal("failed to get user stats", err)
	}

	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100
	}

	return stats, nil
}

// SweepOverdue runs the deadline-expiry check across every overdue active
// task. Safe to re-run; already-red mahallas stay red.
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	now := time.Now()

	tasks, err := s.repo.ListOverdue(ctx, now)
	if err != nil {
		zap.L().Error("failed to list overdue tasks", zap.Error(err))
		return 0, err
	}

	for i := range tasks {
		t := &tasks[i]
		if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.expireOverdue(ctx, tx, t, now)
		}); err != nil {
			zap.L().Error("failed to expire overdue task", zap.Error(err), zap.String("task_id", t.ID))
			return 0, err
		}
	}

	return len(tasks), nil
}
