package stats

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"mahalla-taskboard/pkg/errutil"
	"mahalla-taskboard/services/task"
	"mahalla-taskboard/services/territory"
	"mahalla-taskboard/services/testutil"
	"mahalla-taskboard/services/user"
)

func newTestService(t *testing.T) (*Service, *task.Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t,
		&territory.Region{}, &territory.District{}, &territory.Mahalla{},
		&user.User{},
		&task.Task{}, &task.StatusEvent{}, &task.Submission{}, &task.SubmissionFile{}, &task.Grade{},
	)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParams{DB: db})
	taskSvc := task.NewService(task.ServiceParams{DB: db, Node: node})

	return svc, taskSvc, db
}

type fixture struct {
	district  *territory.District
	m1, m2    *territory.Mahalla
	admin     *user.User
	resident1 *user.User
	resident2 *user.User
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
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
	resident1 := &user.User{ID: "u1", Username: "rustam", MahallaID: &m1.ID, IsActive: true}
	resident2 := &user.User{ID: "u2", Username: "karim", MahallaID: &m2.ID, IsActive: true}
	require.NoError(t, db.Create(admin).Error)
	require.NoError(t, db.Create(resident1).Error)
	require.NoError(t, db.Create(resident2).Error)

	return fixture{district: district, m1: m1, m2: m2, admin: admin, resident1: resident1, resident2: resident2}
}

// seedTasks creates six tasks against m1: three completed, one rejected, two
// left active.
func seedTasks(t *testing.T, taskSvc *task.Service, fx fixture) {
	t.Helper()

	ctx := context.Background()

	titles := []string{"survey 1", "survey 2", "survey 3", "survey 4", "survey 5", "survey 6"}
	var created []*task.Task
	for _, title := range titles {
		tk, err := taskSvc.CreateTask(ctx, task.CreateTaskRequest{
			Title:       title,
			MahallaIDs:  []string{fx.m1.ID},
			CreatedByID: fx.admin.ID,
		})
		require.NoError(t, err)
		created = append(created, tk)
	}

	for _, tk := range created[:3] {
		_, err := taskSvc.AppendStatus(ctx, task.AppendStatusRequest{
			TaskID:  tk.ID,
			ActorID: fx.resident1.ID,
			Status:  task.StatusCompleted,
		})
		require.NoError(t, err)
	}

	_, err := taskSvc.AppendStatus(ctx, task.AppendStatusRequest{
		TaskID:  created[3].ID,
		ActorID: fx.resident1.ID,
		Status:  task.StatusRejected,
		Reason:  "photos missing",
	})
	require.NoError(t, err)
}

func TestService_GetStatistics(t *testing.T) {
	svc, taskSvc, db := newTestService(t)
	fx := seedFixture(t, db)
	seedTasks(t, taskSvc, fx)

	view, err := svc.GetStatistics(context.Background(), PeriodAll)
	require.NoError(t, err)

	require.Equal(t, int64(6), view.TotalTasks)
	require.Equal(t, int64(2), view.ActiveTasks)
	require.Equal(t, int64(3), view.CompletedTasks)
	require.Equal(t, int64(1), view.RejectedTasks)
	require.Equal(t, int64(3), view.ActiveUsers)

	require.Len(t, view.MahallaStats, 2)
	byID := map[string]MahallaStat{}
	for _, m := range view.MahallaStats {
		byID[m.MahallaID] = m
	}
	require.Equal(t, int64(6), byID["m1"].TotalTasks)
	require.Equal(t, int64(3), byID["m1"].CompletedTasks)
	require.Equal(t, float64(50), byID["m1"].CompletionRate)
	require.Equal(t, int64(0), byID["m2"].TotalTasks)
	require.Equal(t, float64(0), byID["m2"].CompletionRate)

	require.Len(t, view.DistrictStats, 1)
	require.Equal(t, int64(6), view.DistrictStats[0].TotalTasks)
	require.Equal(t, float64(50), view.DistrictStats[0].CompletionRate)

	require.NotEmpty(t, view.TopMahallas)
	require.Equal(t, "m1", view.TopMahallas[0].MahallaID)

	// The all-time view carries no per-day series.
	require.Empty(t, view.DailyCompleted)
}

func TestService_GetStatistics_Monthly(t *testing.T) {
	svc, taskSvc, db := newTestService(t)
	fx := seedFixture(t, db)
	seedTasks(t, taskSvc, fx)

	view, err := svc.GetStatistics(context.Background(), PeriodMonthly)
	require.NoError(t, err)
	require.Equal(t, int64(6), view.TotalTasks)

	require.Len(t, view.DailyCompleted, 1)
	require.Equal(t, int64(3), view.DailyCompleted[0].Completed)
}

func TestService_GetStatistics_InvalidPeriod(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetStatistics(context.Background(), Period("weekly"))
	require.Error(t, err)
	require.Equal(t, errutil.StatusBadRequest, errutil.StatusOf(err))
}

func TestService_GetMahallaStats(t *testing.T) {
	svc, taskSvc, db := newTestService(t)
	fx := seedFixture(t, db)
	seedTasks(t, taskSvc, fx)

	view, err := svc.GetMahallaStats(context.Background(), fx.m1.ID, PeriodMonthly)
	require.NoError(t, err)
	require.Equal(t, int64(6), view.TotalTasks)
	require.Equal(t, int64(3), view.CompletedTasks)
	require.Equal(t, float64(50), view.CompletionRate)
	require.Len(t, view.Series, 1)
	require.Equal(t, int64(3), view.Series[0].Completed)

	empty, err := svc.GetMahallaStats(context.Background(), fx.m2.ID, PeriodAll)
	require.NoError(t, err)
	require.Equal(t, int64(0), empty.TotalTasks)
	require.Equal(t, float64(0), empty.CompletionRate)
}

func TestService_GetMahallaStats_NotFound(t *testing.T) {
	svc, _, db := newTestService(t)
	seedFixture(t, db)

	_, err := svc.GetMahallaStats(context.Background(), "missing", PeriodAll)
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}
