package territory

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository describes database operations available for territories.
type Repository interface {
	CreateRegion(ctx context.Context, region *Region) error
	CreateDistrict(ctx context.Context, district *District) error
	CreateMahalla(ctx context.Context, mahalla *Mahalla) error
	GetMahalla(ctx context.Context, mahallaID string) (*Mahalla, error)
	ListMahallas(ctx context.Context, districtID string) ([]Mahalla, error)
	ListDistricts(ctx context.Context) ([]District, error)
	ListRegions(ctx context.Context) ([]Region, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a gorm backed Repository implementation.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateRegion(ctx context.Context, region *Region) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}
	return r.db.WithContext(ctx).Create(region).Error
}

func (r *gormRepository) CreateDistrict(ctx context.Context, district *District) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}
	return r.db.WithContext(ctx).Create(district).Error
}

func (r *gormRepository) CreateMahalla(ctx context.Context, mahalla *Mahalla) error {
	if r == nil || r.db == nil {
		return gorm.ErrInvalidDB
	}
	return r.db.WithContext(ctx).Create(mahalla).Error
}

func (r *gormRepository) GetMahalla(ctx context.Context, mahallaID string) (*Mahalla, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var mahalla Mahalla
	err := r.db.WithContext(ctx).
		Preload("District").
		Where("id = ?", mahallaID).
		First(&mahalla).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mahalla, nil
}

func (r *gormRepository) ListMahallas(ctx context.Context, districtID string) ([]Mahalla, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	query := r.db.WithContext(ctx).Model(&Mahalla{}).Order("name ASC")
	if districtID != "" {
		query = query.Where("district_id = ?", districtID)
	}

	var mahallas []Mahalla
	if err := query.Find(&mahallas).Error; err != nil {
		return nil, err
	}
	return mahallas, nil
}

func (r *gormRepository) ListDistricts(ctx context.Context) ([]District, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var districts []District
	if err := r.db.WithContext(ctx).Model(&District{}).Order("name ASC").Find(&districts).Error; err != nil {
		return nil, err
	}
	return districts, nil
}

func (r *gormRepository) ListRegions(ctx context.Context) ([]Region, error) {
	if r == nil || r.db == nil {
		return nil, gorm.ErrInvalidDB
	}

	var regions []Region
	if err := r.db.WithContext(ctx).Model(&Region{}).Order("name ASC").Find(&regions).Error; err != nil {
		return nil, err
	}
	return regions, nil
}
