package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"mahalla-taskboard/pkg/errutil"
	"mahalla-taskboard/services/territory"
	"mahalla-taskboard/services/testutil"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t,
		&territory.Region{}, &territory.District{}, &territory.Mahalla{},
		&User{},
	)

	return NewService(ServiceParams{DB: db}), db
}

func TestService_VerifyUser(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	u := &User{ID: "u1", Username: "rustam", Phone: "+998901234567", JSHIR: "12345678901234", IsActive: true}
	require.NoError(t, db.Create(u).Error)

	verified, err := svc.VerifyUser(ctx, VerifyRequest{
		Phone:      "+998901234567",
		JSHIR:      "12345678901234",
		TelegramID: 1001,
	})
	require.NoError(t, err)
	require.NotNil(t, verified.TelegramID)
	require.Equal(t, int64(1001), *verified.TelegramID)

	found, err := svc.GetByTelegramID(ctx, 1001)
	require.NoError(t, err)
	require.Equal(t, u.ID, found.ID)
}

func TestService_VerifyUser_NoMatch(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.VerifyUser(context.Background(), VerifyRequest{
		Phone:      "+998900000000",
		JSHIR:      "00000000000000",
		TelegramID: 1001,
	})
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}

func TestService_VerifyUser_MissingFields(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.VerifyUser(context.Background(), VerifyRequest{Phone: "+998901234567"})
	require.Error(t, err)
	require.Equal(t, errutil.StatusBadRequest, errutil.StatusOf(err))
}

func TestService_GetByTelegramID_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetByTelegramID(context.Background(), 999)
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}

func TestRepository_ListRecipients(t *testing.T) {
	_, db := newTestService(t)
	repo := NewRepository(db)
	ctx := context.Background()

	district := &territory.District{ID: "d1", Name: "Yunusobod", RegionID: "r1"}
	m1 := &territory.Mahalla{ID: "m1", Name: "Bogishamol", DistrictID: district.ID}
	m2 := &territory.Mahalla{ID: "m2", Name: "Navbahor", DistrictID: "d2"}
	require.NoError(t, db.Create(district).Error)
	require.NoError(t, db.Create(m1).Error)
	require.NoError(t, db.Create(m2).Error)

	tg1, tg2, tg3 := int64(1), int64(2), int64(3)
	require.NoError(t, db.Create(&User{ID: "u1", Username: "a", MahallaID: &m1.ID, TelegramID: &tg1, IsActive: true}).Error)
	require.NoError(t, db.Create(&User{ID: "u2", Username: "b", MahallaID: &m1.ID, IsActive: true}).Error)
	require.NoError(t, db.Create(&User{ID: "u3", Username: "c", MahallaID: &m2.ID, TelegramID: &tg2, IsActive: true}).Error)
	require.NoError(t, db.Create(&User{ID: "u4", Username: "d", MahallaID: &m1.ID, TelegramID: &tg3, IsActive: false}).Error)

	byMahalla, err := repo.ListRecipients(ctx, "", m1.ID)
	require.NoError(t, err)
	require.Len(t, byMahalla, 1)
	require.Equal(t, "u1", byMahalla[0].ID)

	byDistrict, err := repo.ListRecipients(ctx, district.ID, "")
	require.NoError(t, err)
	require.Len(t, byDistrict, 1)

	all, err := repo.ListRecipients(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}
