package task

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"mahalla-taskboard/pkg/errutil"
	"mahalla-taskboard/services/territory"
	"mahalla-taskboard/services/testutil"
	"mahalla-taskboard/services/user"
)

func newTestLedger(t *testing.T) (*Ledger, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t,
		&territory.Region{}, &territory.District{}, &territory.Mahalla{},
		&user.User{},
		&Task{}, &StatusEvent{}, &Submission{}, &SubmissionFile{}, &Grade{},
	)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewLedger(db, node), db
}

func TestLedger_AppendMaintainsProjection(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()

	task := &Task{ID: "t1", Title: "census", Status: StatusActive}
	require.NoError(t, db.Create(task).Error)

	_, err := ledger.Append(ctx, task, "u1", StatusCompleted, "")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, task.Status)

	_, err = ledger.Append(ctx, task, "u2", StatusRejected, "incomplete photos")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, task.Status)

	var stored Task
	require.NoError(t, db.First(&stored, "id = ?", task.ID).Error)
	require.Equal(t, StatusRejected, stored.Status)

	latest, err := ledger.Latest(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, stored.Status, latest.Status)
	require.Equal(t, "incomplete photos", latest.RejectionReason)
}

func TestLedger_AppendValidation(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()

	task := &Task{ID: "t1", Title: "census", Status: StatusActive}
	require.NoError(t, db.Create(task).Error)

	_, err := ledger.Append(ctx, task, "u1", Status("archived"), "")
	require.Error(t, err)
	require.Equal(t, errutil.StatusBadRequest, errutil.StatusOf(err))

	_, err = ledger.Append(ctx, task, "u1", StatusRejected, "")
	require.Error(t, err)
	require.Equal(t, errutil.StatusBadRequest, errutil.StatusOf(err))

	_, err = ledger.Append(ctx, task, "u1", StatusCompleted, "looks good")
	require.Error(t, err)
	require.Equal(t, errutil.StatusBadRequest, errutil.StatusOf(err))

	// Nothing slipped into the ledger or the projection.
	history, err := ledger.History(ctx, task.ID)
	require.NoError(t, err)
	require.Empty(t, history)

	var stored Task
	require.NoError(t, db.First(&stored, "id = ?", task.ID).Error)
	require.Equal(t, StatusActive, stored.Status)
}

func TestLedger_HistoryIsAppendOnlyOrdered(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()

	task := &Task{ID: "t1", Title: "census", Status: StatusActive}
	require.NoError(t, db.Create(task).Error)

	_, err := ledger.Append(ctx, task, "u1", StatusActive, "")
	require.NoError(t, err)
	_, err = ledger.Append(ctx, task, "u1", StatusCompleted, "")
	require.NoError(t, err)
	_, err = ledger.Append(ctx, task, "u2", StatusRejected, "redo")
	require.NoError(t, err)

	history, err := ledger.History(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, StatusActive, history[0].Status)
	require.Equal(t, StatusCompleted, history[1].Status)
	require.Equal(t, StatusRejected, history[2].Status)
}

func TestLedger_HasCompletedByMahalla(t *testing.T) {
	ledger, db := newTestLedger(t)
	ctx := context.Background()

	m1 := &territory.Mahalla{ID: "m1", Name: "Bogishamol", Health: territory.HealthGreen}
	m2 := &territory.Mahalla{ID: "m2", Name: "Navbahor", Health: territory.HealthGreen}
	require.NoError(t, db.Create(m1).Error)
	require.NoError(t, db.Create(m2).Error)

	u1 := &user.User{ID: "u1", Username: "rustam", MahallaID: &m1.ID, IsActive: true}
	require.NoError(t, db.Create(u1).Error)

	task := &Task{ID: "t1", Title: "census", Status: StatusActive}
	require.NoError(t, db.Create(task).Error)

	_, err := ledger.Append(ctx, task, u1.ID, StatusCompleted, "")
	require.NoError(t, err)

	ok, err := ledger.HasCompletedByMahalla(ctx, task.ID, m1.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = ledger.HasCompletedByMahalla(ctx, task.ID, m2.ID)
	require.NoError(t, err)
	require.False(t, ok)
}
