package task

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ListParams describes filters applied when listing tasks from the repository.
type ListParams struct {
	MahallaID  string
	DistrictID string
	Status     Status
}

// Repository describes database operations available for tasks.
type Repository interface {
	GetByID(ctx context.Context, taskID string) (*Task, error)
	List(ctx context.Context, params ListParams) ([]Task, error)
	ListOverdue(ctx context.Context, now time.Time) ([]Task, error)
	CountByMahalla(ctx context.Context, mahallaID string) (int64, error)
	GetGrade(ctx context.Context, taskID string) (*Grade, error)
	ListSubmissions(ctx context.Context, taskID string) ([]Submission, error)
	CountUsersByMahalla(ctx context.Context, mahallaID string) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a gorm backed Repository implementation.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetByID(ctx context.Context, taskID string) (*Task, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var t Task
	err := r.db.WithContext(ctx).
		Preload("Mahallas").
		Where("id = ?", taskID).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *gormRepository) List(ctx context.Context, params ListParams) ([]Task, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	query := r.db.WithContext(ctx).Model(&Task{}).Preload("Mahallas").Distinct()

	if params.MahallaID != "" {
		query = query.
			Joins("JOIN task_mahallas ON task_mahallas.task_id = tasks.id").
			Where("task_mahallas.mahalla_id = ?", params.MahallaID)
	} else if params.DistrictID != "" {
		query = query.
			Joins("JOIN task_mahallas ON task_mahallas.task_id = tasks.id").
			Joins("JOIN mahallas ON mahallas.id = task_mahallas.mahalla_id").
			Where("mahallas.district_id = ?", params.DistrictID)
	}

	if params.Status != "" {
		query = query.Where("tasks.status = ?", params.Status)
	}

	query = query.Order("tasks.created_at DESC")

	var tasks []Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *gormRepository) ListOverdue(ctx context.Context, now time.Time) ([]Task, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var tasks []Task
	err := r.db.WithContext(ctx).
		Preload("Mahallas").
		Where("deadline IS NOT NULL AND deadline < ? AND status = ?", now, StatusActive).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *gormRepository) CountByMahalla(ctx context.Context, mahallaID string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, gorm.ErrInvalidDB
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&Task{}).
		Distinct("tasks.id").
		Joins("JOIN task_mahallas ON task_mahallas.task_id = tasks.id").
		Where("task_mahallas.mahalla_id = ?", mahallaID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *gormRepository) GetGrade(ctx context.Context, taskID string) (*Grade, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var grade Grade
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&grade).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &grade, nil
}

func (r *gormRepository) ListSubmissions(ctx context.Context, taskID string) ([]Submission, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var submissions []Submission
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Files").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *gormRepository) CountUsersByMahalla(ctx context.Context, mahallaID string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, gorm.ErrInvalidDB
	}

	var count int64
	err := r.db.WithContext(ctx).
		Table("users").
		Where("mahalla_id = ?", mahallaID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
