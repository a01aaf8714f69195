package stats

import (
	"time"

	"mahalla-taskboard/services/territory"
)

// Period selects the reporting window. Daily and monthly windows are keyed to
// task creation; the all-time window has no lower bound.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
	PeriodAll     Period = "all"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodMonthly, PeriodAll:
		return true
	default:
		return false
	}
}

func (p Period) String() string {
	return string(p)
}

// Window returns the inclusive lower bound of the period, and whether the
// period is bounded at all.
func (p Period) Window(now time.Time) (time.Time, bool) {
	switch p {
	case PeriodDaily:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), true
	case PeriodMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	default:
		return time.Time{}, false
	}
}

// MahallaStat is the per-mahalla aggregation row. CompletionRate is the share
// of the mahalla's assigned tasks in the window that any of its residents
// completed, in percent.
type MahallaStat struct {
	MahallaID      string           `json:"mahalla_id"`
	Name           string           `json:"name"`
	DistrictID     string           `json:"district_id"`
	Health         territory.Health `json:"health"`
	TotalTasks     int64            `json:"total_tasks"`
	CompletedTasks int64            `json:"completed_tasks"`
	CompletionRate float64          `json:"completion_rate"`
}

// DistrictStat aggregates the same rate across all mahalla assignments of a
// district.
type DistrictStat struct {
	DistrictID     string  `json:"district_id"`
	Name           string  `json:"name"`
	TotalTasks     int64   `json:"total_tasks"`
	CompletedTasks int64   `json:"completed_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}

// DailyCount is one point of the monthly completion series.
type DailyCount struct {
	Date      string `json:"date"`
	Completed int64  `json:"completed"`
}

// StatsView is the full statistics payload for a period.
type StatsView struct {
	Period         Period         `json:"period"`
	TotalTasks     int64          `json:"total_tasks"`
	ActiveTasks    int64          `json:"active_tasks"`
	CompletedTasks int64          `json:"completed_tasks"`
	RejectedTasks  int64          `json:"rejected_tasks"`
	ActiveUsers    int64          `json:"active_users"`
	MahallaStats   []MahallaStat  `json:"mahalla_stats"`
	DistrictStats  []DistrictStat `json:"district_stats"`
	TopMahallas    []MahallaStat  `json:"top_mahallas"`
	DailyCompleted []DailyCount   `json:"daily_completed,omitempty"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// MahallaStatsView is the statistics payload for a single mahalla.
type MahallaStatsView struct {
	MahallaStat
	Period Period       `json:"period"`
	Series []DailyCount `json:"series,omitempty"`
}
