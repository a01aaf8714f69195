package stats

import (
	"context"
	"sort"
	"time"

	"mahalla-taskboard/pkg/errutil"
	"mahalla-taskboard/services/task"
	"mahalla-taskboard/services/territory"
	"mahalla-taskboard/services/user"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// topMahallaLimit caps the leaderboard length in statistics responses.
const topMahallaLimit = 5

type Service struct {
	db *gorm.DB
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{db: p.DB}
}

// GetStatistics aggregates the system-wide statistics for the given period.
// Task counts are windowed on creation time; the monthly view additionally
// carries a per-day completion series keyed to when tasks turned completed.
func (s *Service) GetStatistics(ctx context.Context, period Period) (*StatsView, error) {
	if !period.Valid() {
		return nil, errutil.BadRequest("unrecognized period", nil,
			errutil.WithDetails(errutil.Detail{Field: "period", Message: "must be one of daily, monthly, all"}))
	}

	now := time.Now()
	start, bounded := period.Window(now)

	view := &StatsView{
		Period:      period,
		GeneratedAt: now,
	}

	counts, err := s.countTasksByStatus(ctx, start, bounded)
	if err != nil {
		zap.L().Error("failed to count tasks", zap.Error(err))
		return nil, errutil.Internal("failed to build statistics", err)
	}
	view.ActiveTasks = counts[task.StatusActive]
	view.CompletedTasks = counts[task.StatusCompleted]
	view.RejectedTasks = counts[task.StatusRejected]
	view.TotalTasks = view.ActiveTasks + view.CompletedTasks + view.RejectedTasks

	if err := s.db.WithContext(ctx).
		Model(&user.User{}).
		Where("is_active = ?", true).
		Count(&view.ActiveUsers).Error; err != nil {
		zap.L().Error("failed to count active users", zap.Error(err))
		return nil, errutil.Internal("failed to build statistics", err)
	}

	mahallaStats, err := s.mahallaStats(ctx, start, bounded)
	if err != nil {
		zap.L().Error("failed to build mahalla statistics", zap.Error(err))
		return nil, errutil.Internal("failed to build statistics", err)
	}
	view.MahallaStats = mahallaStats
	view.DistrictStats, err = s.districtStats(ctx, mahallaStats)
	if err != nil {
		zap.L().Error("failed to build district statistics", zap.Error(err))
		return nil, errutil.Internal("failed to build statistics", err)
	}
	view.TopMahallas = topMahallas(mahallaStats)

	if period == PeriodMonthly {
		series, err := s.dailyCompletedSeries(ctx, start, "")
		if err != nil {
			zap.L().Error("failed to build completion series", zap.Error(err))
			return nil, errutil.Internal("failed to build statistics", err)
		}
		view.DailyCompleted = series
	}

	return view, nil
}

// GetMahallaStats aggregates a single mahalla's completion performance for
// the given period.
func (s *Service) GetMahallaStats(ctx context.Context, mahallaID string, period Period) (*MahallaStatsView, error) {
	if !period.Valid() {
		return nil, errutil.BadRequest("unrecognized period", nil,
			errutil.WithDetails(errutil.Detail{Field: "period", Message: "must be one of daily, monthly, all"}))
	}

	var mahalla territory.Mahalla
	if err := s.db.WithContext(ctx).Where("id = ?", mahallaID).First(&mahalla).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errutil.NotFound("mahalla not found", nil)
		}
		zap.L().Error("failed query get mahalla", zap.Error(err))
		return nil, errutil.Internal("failed to build statistics", err)
	}

	now := time.Now()
	start, bounded := period.Window(now)

	stat, err := s.mahallaStat(ctx, &mahalla, start, bounded)
	if err != nil {
		zap.L().Error("failed to build mahalla statistics", zap.Error(err), zap.String("mahalla_id", mahallaID))
		return nil, errutil.Internal("failed to build statistics", err)
	}

	view := &MahallaStatsView{
		MahallaStat: *stat,
		Period:      period,
	}

	if period != PeriodDaily {
		seriesStart := start
		if !bounded {
			seriesStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		}
		series, err := s.dailyCompletedSeries(ctx, seriesStart, mahallaID)
		if err != nil {
			zap.L().Error("failed to build completion series", zap.Error(err), zap.String("mahalla_id", mahallaID))
			return nil, errutil.Internal("failed to build statistics", err)
		}
		view.Series = series
	}

	return view, nil
}

func (s *Service) countTasksByStatus(ctx context.Context, start time.Time, bounded bool) (map[task.Status]int64, error) {
	type row struct {
		Status task.Status
		Count  int64
	}

	query := s.db.WithContext(ctx).
		Model(&task.Task{}).
		Select("status, count(*) as count").
		Group("status")
	if bounded {
		query = query.Where("created_at >= ?", start)
	}

	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[task.Status]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (s *Service) mahallaStats(ctx context.Context, start time.Time, bounded bool) ([]MahallaStat, error) {
	var mahallas []territory.Mahalla
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&mahallas).Error; err != nil {
		return nil, err
	}

	stats := make([]MahallaStat, 0, len(mahallas))
	for i := range mahallas {
		stat, err := s.mahallaStat(ctx, &mahallas[i], start, bounded)
		if err != nil {
			return nil, err
		}
		stats = append(stats, *stat)
	}
	return stats, nil
}

func (s *Service) mahallaStat(ctx context.Context, m *territory.Mahalla, start time.Time, bounded bool) (*MahallaStat, error) {
	stat := &MahallaStat{
		MahallaID:  m.ID,
		Name:       m.Name,
		DistrictID: m.DistrictID,
		Health:     m.Health,
	}

	total := s.db.WithContext(ctx).
		Model(&task.Task{}).
		Distinct("tasks.id").
		Joins("JOIN task_mahallas ON task_mahallas.task_id = tasks.id").
		Where("task_mahallas.mahalla_id = ?", m.ID)
	if bounded {
		total = total.Where("tasks.created_at >= ?", start)
	}
	if err := total.Count(&stat.TotalTasks).Error; err != nil {
		return nil, err
	}

	completed := s.db.WithContext(ctx).
		Model(&task.StatusEvent{}).
		Distinct("task_status_events.task_id").
		Joins("JOIN users ON users.id = task_status_events.user_id").
		Joins("JOIN tasks ON tasks.id = task_status_events.task_id").
		Where("task_status_events.status = ?", task.StatusCompleted).
		Where("users.mahalla_id = ?", m.ID)
	if bounded {
		completed = completed.Where("tasks.created_at >= ?", start)
	}
	if err := completed.Count(&stat.CompletedTasks).Error; err != nil {
		return nil, err
	}

	if stat.TotalTasks > 0 {
		stat.CompletionRate = float64(stat.CompletedTasks) / float64(stat.TotalTasks) * 100
	}

	return stat, nil
}

func (s *Service) districtStats(ctx context.Context, mahallaStats []MahallaStat) ([]DistrictStat, error) {
	var districts []territory.District
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&districts).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]*DistrictStat, len(districts))
	ordered := make([]*DistrictStat, 0, len(districts))
	for _, d := range districts {
		stat := &DistrictStat{DistrictID: d.ID, Name: d.Name}
		byID[d.ID] = stat
		ordered = append(ordered, stat)
	}

	for _, m := range mahallaStats {
		stat, ok := byID[m.DistrictID]
		if !ok {
			continue
		}
		stat.TotalTasks += m.TotalTasks
		stat.CompletedTasks += m.CompletedTasks
	}

	out := make([]DistrictStat, 0, len(ordered))
	for _, stat := range ordered {
		if stat.TotalTasks > 0 {
			stat.CompletionRate = float64(stat.CompletedTasks) / float64(stat.TotalTasks) * 100
		}
		out = append(out, *stat)
	}
	return out, nil
}

func (s *Service) dailyCompletedSeries(ctx context.Context, start time.Time, mahallaID string) ([]DailyCount, error) {
	query := s.db.WithContext(ctx).
		Model(&task.Task{}).
		Select("date(tasks.updated_at) as date, count(distinct tasks.id) as completed").
		Where("tasks.status = ?", task.StatusCompleted).
		Where("tasks.updated_at >= ?", start).
		Group("date(tasks.updated_at)").
		Order("date ASC")

	if mahallaID != "" {
		query = query.
			Joins("JOIN task_mahallas ON task_mahallas.task_id = tasks.id").
			Where("task_mahallas.mahalla_id = ?", mahallaID)
	}

	var series []DailyCount
	if err := query.Scan(&series).Error; err != nil {
		return nil, err
	}
	return series, nil
}

// topMahallas returns up to topMahallaLimit mahallas ordered by completion
// rate descending, breaking ties by name so the leaderboard is stable.
func topMahallas(stats []MahallaStat) []MahallaStat {
	top := make([]MahallaStat, len(stats))
	copy(top, stats)

	sort.SliceStable(top, func(i, j int) bool {
		if top[i].CompletionRate != top[j].CompletionRate {
			return top[i].CompletionRate > top[j].CompletionRate
		}
		return top[i].Name < top[j].Name
	})

	if len(top) > topMahallaLimit {
		top = top[:topMahallaLimit]
	}
	return top
}
