package territory

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"

	"mahalla-taskboard/pkg/errutil"
	"mahalla-taskboard/services/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Region{}, &District{}, &Mahalla{})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func TestService_CreateHierarchy(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	region, err := svc.CreateRegion(ctx, CreateRegionRequest{Name: "Tashkent City"})
	require.NoError(t, err)
	require.Equal(t, "tashkent-city", region.Slug)

	district, err := svc.CreateDistrict(ctx, CreateDistrictRequest{Name: "Yunusobod", RegionID: region.ID})
	require.NoError(t, err)
	require.Equal(t, region.ID, district.RegionID)

	mahalla, err := svc.CreateMahalla(ctx, CreateMahallaRequest{Name: "Bogishamol", DistrictID: district.ID})
	require.NoError(t, err)
	require.Equal(t, HealthGreen, mahalla.Health)

	found, err := svc.GetMahalla(ctx, mahalla.ID)
	require.NoError(t, err)
	require.Equal(t, mahalla.Name, found.Name)

	mahallas, err := svc.ListMahallas(ctx, district.ID)
	require.NoError(t, err)
	require.Len(t, mahallas, 1)
}

func TestService_CreateRegion_RequiresName(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateRegion(context.Background(), CreateRegionRequest{})
	require.Error(t, err)
	require.Equal(t, errutil.StatusBadRequest, errutil.StatusOf(err))
}

func TestService_GetMahalla_NotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetMahalla(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}
