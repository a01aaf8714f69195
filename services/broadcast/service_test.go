package broadcast

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"mahalla-taskboard/pkg/errutil"
	"mahalla-taskboard/pkg/taskname"
	"mahalla-taskboard/services/territory"
	"mahalla-taskboard/services/testutil"
	"mahalla-taskboard/services/user"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t,
		&territory.Region{}, &territory.District{}, &territory.Mahalla{},
		&user.User{},
		&Broadcast{},
	)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParams{DB: db, Node: node})

	return svc, db
}

func int64p(v int64) *int64 { return &v }

func seedUsers(t *testing.T, db *gorm.DB) (*user.User, *territory.District, *territory.Mahalla) {
	t.Helper()

	region := &territory.Region{ID: "r1", Name: "Tashkent", Slug: "tashkent"}
	district := &territory.District{ID: "d1", Name: "Yunusobod", Slug: "yunusobod", RegionID: region.ID}
	m1 := &territory.Mahalla{ID: "m1", Name: "Bogishamol", Slug: "bogishamol", DistrictID: district.ID, Health: territory.HealthGreen}
	m2 := &territory.Mahalla{ID: "m2", Name: "Navbahor", Slug: "navbahor", DistrictID: district.ID, Health: territory.HealthGreen}
	require.NoError(t, db.Create(region).Error)
	require.NoError(t, db.Create(district).Error)
	require.NoError(t, db.Create(m1).Error)
	require.NoError(t, db.Create(m2).Error)

	admin := &user.User{ID: "admin", Username: "admin", IsStaff: true, IsActive: true}
	bound := &user.User{ID: "u1", Username: "rustam", MahallaID: &m1.ID, TelegramID: int64p(1001), IsActive: true}
	unbound := &user.User{ID: "u2", Username: "karim", MahallaID: &m1.ID, IsActive: true}
	other := &user.User{ID: "u3", Username: "aziz", MahallaID: &m2.ID, TelegramID: int64p(1002), IsActive: true}
	inactive := &user.User{ID: "u4", Username: "olim", MahallaID: &m1.ID, TelegramID: int64p(1003), IsActive: false}
	require.NoError(t, db.Create(admin).Error)
	require.NoError(t, db.Create(bound).Error)
	require.NoError(t, db.Create(unbound).Error)
	require.NoError(t, db.Create(other).Error)
	require.NoError(t, db.Create(inactive).Error)

	return admin, district, m1
}

func TestService_Send_MahallaTarget(t *testing.T) {
	svc, db := newTestService(t)
	admin, _, m1 := seedUsers(t, db)
	ctx := context.Background()

	b, err := svc.Send(ctx, SendRequest{
		Message:     "water outage tomorrow",
		TargetType:  TargetMahalla,
		MahallaID:   &m1.ID,
		CreatedByID: admin.ID,
	})
	require.NoError(t, err)

	// Only active, telegram-bound residents of the mahalla are snapshotted.
	require.Equal(t, 1, b.TotalRecipients)

	var ids []int64
	require.NoError(t, json.Unmarshal(b.TelegramIDs, &ids))
	require.Equal(t, []int64{1001}, ids)
}

func TestService_Send_DistrictTarget(t *testing.T) {
	svc, db := newTestService(t)
	admin, district, _ := seedUsers(t, db)

	b, err := svc.Send(context.Background(), SendRequest{
		Message:     "district meeting",
		TargetType:  TargetDistrict,
		DistrictID:  &district.ID,
		CreatedByID: admin.ID,
	})
	require.NoError(t, err)
	require.Equal(t, 2, b.TotalRecipients)
}

func TestService_Send_Validation(t *testing.T) {
	svc, db := newTestService(t)
	admin, _, m1 := seedUsers(t, db)
	ctx := context.Background()

	_, err := svc.Send(ctx, SendRequest{
		TargetType:  TargetAll,
		CreatedByID: admin.ID,
	})
	require.Error(t, err)
	require.Equal(t, errutil.StatusBadRequest, errutil.StatusOf(err))

	_, err = svc.Send(ctx, SendRequest{
		Message:     "hello",
		TargetType:  TargetType("everyone"),
		CreatedByID: admin.ID,
	})
	require.Error(t, err)
	require.Equal(t, errutil.StatusBadRequest, errutil.StatusOf(err))

	_, err = svc.Send(ctx, SendRequest{
		Message:     "hello",
		TargetType:  TargetDistrict,
		CreatedByID: admin.ID,
	})
	require.Error(t, err)
	require.Equal(t, errutil.StatusBadRequest, errutil.StatusOf(err))

	_, err = svc.Send(ctx, SendRequest{
		Message:     "hello",
		TargetType:  TargetMahalla,
		MahallaID:   &m1.ID,
		CreatedByID: "u1",
	})
	require.Error(t, err)
	require.Equal(t, errutil.StatusForbidden, errutil.StatusOf(err))
}

func TestService_HandleDeliver(t *testing.T) {
	svc, db := newTestService(t)
	admin, _, _ := seedUsers(t, db)
	ctx := context.Background()

	b, err := svc.Send(ctx, SendRequest{
		Message:     "hello everyone",
		TargetType:  TargetAll,
		CreatedByID: admin.ID,
	})
	require.NoError(t, err)
	require.Equal(t, 2, b.TotalRecipients)

	payload, err := json.Marshal(DeliverPayload{BroadcastID: b.ID})
	require.NoError(t, err)

	err = svc.HandleDeliver(ctx, asynq.NewTask(taskname.BroadcastDeliver, payload))
	require.NoError(t, err)

	stored, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.SentCount)
	require.Equal(t, 0, stored.FailedCount)
}

func TestService_UpdateDeliveryStatus_NotFound(t *testing.T) {
	svc, db := newTestService(t)
	seedUsers(t, db)

	err := svc.UpdateDeliveryStatus(context.Background(), "missing", 1, 0)
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}

func TestService_List(t *testing.T) {
	svc, db := newTestService(t)
	admin, _, m1 := seedUsers(t, db)
	ctx := context.Background()

	_, err := svc.Send(ctx, SendRequest{Message: "first", TargetType: TargetAll, CreatedByID: admin.ID})
	require.NoError(t, err)
	_, err = svc.Send(ctx, SendRequest{Message: "second", TargetType: TargetMahalla, MahallaID: &m1.ID, CreatedByID: admin.ID})
	require.NoError(t, err)

	broadcasts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, broadcasts, 2)
}
