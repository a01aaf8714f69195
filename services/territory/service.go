package territory

import (
	"context"

	"mahalla-taskboard/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	repo Repository
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		repo: NewRepository(p.DB),
	}
}

type CreateRegionRequest struct {
	Name string `json:"name"`
}

func (s *Service) CreateRegion(ctx context.Context, req CreateRegionRequest) (*Region, error) {
	if req.Name == "" {
		return nil, errutil.BadRequest("region name is required", nil)
	}

	region := &Region{
		ID:   s.node.Generate().String(),
		Name: req.Name,
		Slug: slug.Make(req.Name),
	}

	if err := s.repo.CreateRegion(ctx, region); err != nil {
		zap.L().Error("failed to create region", zap.Error(err))
		return nil, errutil.Internal("failed to create region", err)
	}

	return region, nil
}

type CreateDistrictRequest struct {
	Name     string `json:"name"`
	RegionID string `json:"region_id"`
}

func (s *Service) CreateDistrict(ctx context.Context, req CreateDistrictRequest) (*District, error) {
	if req.Name == "" || req.RegionID == "" {
		return nil, errutil.BadRequest("district name and region_id are required", nil)
	}

	district := &District{
		ID:       s.node.Generate().String(),
		Name:     req.Name,
		Slug:     slug.Make(req.Name),
		RegionID: req.RegionID,
	}

	if err := s.repo.CreateDistrict(ctx, district); err != nil {
		zap.L().Error("failed to create district", zap.Error(err))
		return nil, errutil.Internal("failed to create district", err)
	}

	return district, nil
}

type CreateMahallaRequest struct {
	Name       string `json:"name"`
	DistrictID string `json:"district_id"`
}

// CreateMahalla registers a new mahalla. Health always starts green.
func (s *Service) CreateMahalla(ctx context.Context, req CreateMahallaRequest) (*Mahalla, error) {
	if req.Name == "" || req.DistrictID == "" {
		return nil, errutil.BadRequest("mahalla name and district_id are required", nil)
	}

	mahalla := &Mahalla{
		ID:         s.node.Generate().String(),
		Name:       req.Name,
		Slug:       slug.Make(req.Name),
		DistrictID: req.DistrictID,
		Health:     HealthGreen,
	}

	if err := s.repo.CreateMahalla(ctx, mahalla); err != nil {
		zap.L().Error("failed to create mahalla", zap.Error(err))
		return nil, errutil.Internal("failed to create mahalla", err)
	}

	return mahalla, nil
}

func (s *Service) GetMahalla(ctx context.Context, mahallaID string) (*Mahalla, error) {
	mahalla, err := s.repo.GetMahalla(ctx, mahallaID)
	if err != nil {
		zap.L().Error("failed query get mahalla by id", zap.Error(err))
		return nil, errutil.Internal("failed to get mahalla", err)
	}
	if mahalla == nil {
		return nil, errutil.NotFound("mahalla not found", nil)
	}
	return mahalla, nil
}

func (s *Service) ListMahallas(ctx context.Context, districtID string) ([]Mahalla, error) {
	mahallas, err := s.repo.ListMahallas(ctx, districtID)
	if err != nil {
		zap.L().Error("failed to list mahallas", zap.Error(err))
		return nil, errutil.Internal("failed to list mahallas", err)
	}
	return mahallas, nil
}

func (s *Service) ListDistricts(ctx context.Context) ([]District, error) {
	districts, err := s.repo.ListDistricts(ctx)
	if err != nil {
		zap.L().Error("failed to list districts", zap.Error(err))
		return nil, errutil.Internal("failed to list districts", err)
	}
	return districts, nil
}

func (s *Service) ListRegions(ctx context.Context) ([]Region, error) {
	regions, err := s.repo.ListRegions(ctx)
	if err != nil {
		zap.L().Error("failed to list regions", zap.Error(err))
		return nil, errutil.Internal("failed to list regions", err)
	}
	return regions, nil
}
