package user

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository describes database operations available for users.
type Repository interface {
	GetByID(ctx context.Context, userID string) (*User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*User, error)
	GetByPhoneAndJSHIR(ctx context.Context, phone, jshir string) (*User, error)
	Update(ctx context.Context, u *User) error
	ListRecipients(ctx context.Context, districtID, mahallaID string) ([]User, error)
	CountActive(ctx context.Context) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a gorm backed Repository implementation.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetByID(ctx context.Context, userID string) (*User, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var u User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var u User
	err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) GetByPhoneAndJSHIR(ctx context.Context, phone, jshir string) (*User, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var u User
	err := r.db.WithContext(ctx).Where("phone = ? AND jshir = ?", phone, jshir).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) Update(ctx context.Context, u *User) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}
	return r.db.WithContext(ctx).Save(u).Error
}

// ListRecipients returns active users with a bound telegram account, optionally
// narrowed to a district or a mahalla.
func (r *gormRepository) ListRecipients(ctx context.Context, districtID, mahallaID string) ([]User, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	query := r.db.WithContext(ctx).Model(&User{}).
		Where("is_active = ?", true).
		Where("telegram_id IS NOT NULL")

	if mahallaID != "" {
		query = query.Where("mahalla_id = ?", mahallaID)
	} else if districtID != "" {
		query = query.Joins("JOIN mahallas ON mahallas.id = users.mahalla_id").
			Where("mahallas.district_id = ?", districtID)
	}

	var users []User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *gormRepository) CountActive(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, gorm.ErrInvalidDB
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&User{}).Where("is_active = ?", true).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
