package broadcast

import (
	"context"
	"encoding/json"
	"errors"

	"mahalla-taskboard/pkg/errutil"
	"mahalla-taskboard/pkg/queue"
	"mahalla-taskboard/pkg/sequence"
	"mahalla-taskboard/pkg/taskname"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	seq      sequence.Generator
	enqueuer queue.Enqueuer
	users    userRepository
}

// userRepository is the slice of the user repository the broadcast service
// needs; keeping it narrow makes the fan-out testable without the full user
// service.
type userRepository interface {
	GetByID(ctx context.Context, userID string) (*userRecord, error)
	ListRecipients(ctx context.Context, districtID, mahallaID string) ([]userRecord, error)
}

type userRecord struct {
	ID         string
	TelegramID *int64
	IsStaff    bool
}

type gormUserRepository struct {
	db *gorm.DB
}

func (r *gormUserRepository) GetByID(ctx context.Context, userID string) (*userRecord, error) {
	var u userRecord
	err := r.db.WithContext(ctx).
		Table("users").
		Select("id", "telegram_id", "is_staff").
		Where("id = ?", userID).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *gormUserRepository) ListRecipients(ctx context.Context, districtID, mahallaID string) ([]userRecord, error) {
	query := r.db.WithContext(ctx).
		Table("users").
		Select("users.id", "users.telegram_id", "users.is_staff").
		Where("users.is_active = ?", true).
		Where("users.telegram_id IS NOT NULL")

	if mahallaID != "" {
		query = query.Where("users.mahalla_id = ?", mahallaID)
	} else if districtID != "" {
		query = query.Joins("JOIN mahallas ON mahallas.id = users.mahalla_id").
			Where("mahallas.district_id = ?", districtID)
	}

	var users []userRecord
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Seq      sequence.Generator `optional:"true"`
	Enqueuer queue.Enqueuer     `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		seq:      p.Seq,
		enqueuer: p.Enqueuer,
		users:    &gormUserRepository{db: p.DB},
	}
}

type SendRequest struct {
	Message     string     `json:"message"`
	TargetType  TargetType `json:"target_type"`
	DistrictID  *string    `json:"district_id,omitempty"`
	MahallaID   *string    `json:"mahalla_id,omitempty"`
	CreatedByID string     `json:"created_by_id"`
}

// Send snapshots the current recipient set, persists the broadcast, and hands
// delivery to the worker queue.
func (s *Service) Send(ctx context.Context, req SendRequest) (*Broadcast, error) {
	if req.Message == "" {
		return nil, errutil.BadRequest("broadcast message is required", nil)
	}
	if !req.TargetType.Valid() {
		return nil, errutil.BadRequest("unrecognized target type", nil,
			errutil.WithDetails(errutil.Detail{Field: "target_type", Message: "must be one of all, district, mahalla"}))
	}
	if req.TargetType == TargetDistrict && (req.DistrictID == nil || *req.DistrictID == "") {
		return nil, errutil.BadRequest("district_id is required for district broadcasts", nil)
	}
	if req.TargetType == TargetMahalla && (req.MahallaID == nil || *req.MahallaID == "") {
		return nil, errutil.BadRequest("mahalla_id is required for mahalla broadcasts", nil)
	}

	sender, err := s.users.GetByID(ctx, req.CreatedByID)
	if err != nil {
		zap.L().Error("failed query get sender", zap.Error(err))
		return nil, errutil.Internal("failed to send broadcast", err)
	}
	if sender == nil {
		return nil, errutil.NotFound("user not found", nil)
	}
	if !sender.IsStaff {
		return nil, errutil.Forbidden("only administrators can send broadcasts", nil)
	}

	districtID, mahallaID := "", ""
	if req.DistrictID != nil {
		districtID = *req.DistrictID
	}
	if req.MahallaID != nil {
		mahallaID = *req.MahallaID
	}

	recipients, err := s.users.ListRecipients(ctx, districtID, mahallaID)
	if err != nil {
		zap.L().Error("failed to resolve broadcast recipients", zap.Error(err))
		return nil, errutil.Internal("failed to send broadcast", err)
	}

	telegramIDs := make([]int64, 0, len(recipients))
	for _, u := range recipients {
		if u.TelegramID != nil {
			telegramIDs = append(telegramIDs, *u.TelegramID)
		}
	}

	snapshot, err := json.Marshal(telegramIDs)
	if err != nil {
		return nil, errutil.Internal("failed to send broadcast", err)
	}

	code := ""
	if s.seq != nil {
		code, err = s.seq.NextBroadcastCode(ctx)
		if err != nil {
			zap.L().Warn("failed to generate broadcast code", zap.Error(err))
		}
	}

	b := &Broadcast{
		ID:              s.node.Generate().String(),
		Code:            code,
		Message:         req.Message,
		TargetType:      req.TargetType,
		DistrictID:      req.DistrictID,
		MahallaID:       req.MahallaID,
		TelegramIDs:     snapshot,
		TotalRecipients: len(telegramIDs),
		CreatedByID:     sender.ID,
	}

	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		zap.L().Error("failed to create broadcast", zap.Error(err))
		return nil, errutil.Internal("failed to send broadcast", err)
	}

	if s.enqueuer != nil {
		payload, err := json.Marshal(DeliverPayload{BroadcastID: b.ID})
		if err != nil {
			return nil, errutil.Internal("failed to send broadcast", err)
		}

		if _, err := s.enqueuer.Enqueue(
			asynq.NewTask(taskname.BroadcastDeliver, payload),
			asynq.Queue("default"),
		); err != nil {
			zap.L().Error("failed to enqueue broadcast delivery", zap.Error(err), zap.String("broadcast_id", b.ID))
			return nil, errutil.Internal("failed to send broadcast", err)
		}
	}

	zap.L().Info("broadcast queued",
		zap.String("broadcast_id", b.ID),
		zap.Int("recipients", b.TotalRecipients),
	)

	return b, nil
}

// UpdateDeliveryStatus records the delivery outcome reported by the worker.
func (s *Service) UpdateDeliveryStatus(ctx context.Context, broadcastID string, sent, failed int) error {
	result := s.db.WithContext(ctx).
		Model(&Broadcast{}).
		Where("id = ?", broadcastID).
		Updates(map[string]interface{}{
			"sent_count":   sent,
			"failed_count": failed,
		})
	if result.Error != nil {
		zap.L().Error("failed to update broadcast delivery status", zap.Error(result.Error))
		return errutil.Internal("failed to update broadcast", result.Error)
	}
	if result.RowsAffected == 0 {
		return errutil.NotFound("broadcast not found", nil)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, broadcastID string) (*Broadcast, error) {
	var b Broadcast
	err := s.db.WithContext(ctx).Where("id = ?", broadcastID).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errutil.NotFound("broadcast not found", nil)
		}
		zap.L().Error("failed query get broadcast", zap.Error(err))
		return nil, errutil.Internal("failed to get broadcast", err)
	}
	return &b, nil
}

// List returns broadcasts newest first.
func (s *Service) List(ctx context.Context) ([]Broadcast, error) {
	var broadcasts []Broadcast
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&broadcasts).Error
	if err != nil {
		zap.L().Error("failed to list broadcasts", zap.Error(err))
		return nil, errutil.Internal("failed to list broadcasts", err)
	}
	return broadcasts, nil
}
