package user

import (
	"context"

	"mahalla-taskboard/pkg/errutil"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	repo Repository
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		repo: NewRepository(p.DB),
	}
}

func (s *Service) GetByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	u, err := s.repo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		zap.L().Error("failed query get user by telegram id", zap.Error(err))
		return nil, errutil.Internal("failed to get user", err)
	}
	if u == nil {
		return nil, errutil.NotFound("user not found", nil)
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		zap.L().Error("failed query get user by id", zap.Error(err))
		return nil, errutil.Internal("failed to get user", err)
	}
	if u == nil {
		return nil, errutil.NotFound("user not found", nil)
	}
	return u, nil
}

type VerifyRequest struct {
	Phone      string `json:"phone"`
	JSHIR      string `json:"jshir"`
	TelegramID int64  `json:"telegram_id"`
}

// VerifyUser binds a telegram account to the employee record matching the
// given phone and JSHIR.
func (s *Service) VerifyUser(ctx context.Context, req VerifyRequest) (*User, error) {
	if req.Phone == "" || req.JSHIR == "" || req.TelegramID == 0 {
		return nil, errutil.BadRequest("phone, jshir and telegram_id are required", nil)
	}

	u, err := s.repo.GetByPhoneAndJSHIR(ctx, req.Phone, req.JSHIR)
	if err != nil {
		zap.L().Error("failed query get user by phone and jshir", zap.Error(err))
		return nil, errutil.Internal("failed to verify user", err)
	}
	if u == nil {
		return nil, errutil.NotFound("user not found with the provided phone and JSHIR", nil)
	}

	telegramID := req.TelegramID
	u.TelegramID = &telegramID
	if err := s.repo.Update(ctx, u); err != nil {
		zap.L().Error("failed to bind telegram id", zap.Error(err), zap.String("user_id", u.ID))
		return nil, errutil.Internal("failed to verify user", err)
	}

	return u, nil
}

// ListRecipients resolves broadcast recipients for a target scope.
func (s *Service) ListRecipients(ctx context.Context, districtID, mahallaID string) ([]User, error) {
	users, err := s.repo.ListRecipients(ctx, districtID, mahallaID)
	if err != nil {
		zap.L().Error("failed to list recipients", zap.Error(err))
		return nil, errutil.Internal("failed to list recipients", err)
	}
	return users, nil
}
