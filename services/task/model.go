package task

import (
	"time"

	"mahalla-taskboard/services/territory"
	"mahalla-taskboard/services/user"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusRejected:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// BandFor maps a grading percentage to its color band.
func BandFor(percentage int) territory.Health {
	switch {
	case percentage >= 85:
		return territory.HealthGreen
	case percentage >= 55:
		return territory.HealthYellow
	default:
		return territory.HealthRed
	}
}

// Task is an assignment issued to one or more mahallas. Status is a cached
// projection of the most recent StatusEvent; it is only ever written through
// the ledger.
type Task struct {
	ID          string              `gorm:"column:id;primaryKey" json:"id"`
	Code        string              `gorm:"column:code;index" json:"code"`
	Title       string              `gorm:"column:title" json:"title"`
	Description string              `gorm:"column:description" json:"description"`
	Deadline    *time.Time          `gorm:"column:deadline" json:"deadline,omitempty"`
	Status      Status              `gorm:"column:status;default:active" json:"status"`
	Mahallas    []territory.Mahalla `gorm:"many2many:task_mahallas" json:"mahallas,omitempty"`
	CreatedAt   time.Time           `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"column:updated_at" json:"updated_at"`
}

// StatusEvent is one immutable entry in a task's status history. Events are
// append-only; correcting a mistake means appending a new event.
type StatusEvent struct {
	ID              string     `gorm:"column:id;primaryKey" json:"id"`
	TaskID          string     `gorm:"column:task_id;index" json:"task_id"`
	UserID          string     `gorm:"column:user_id;index" json:"user_id"`
	User            *user.User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status          Status     `gorm:"column:status" json:"status"`
	RejectionReason string     `gorm:"column:rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `gorm:"column:created_at;index" json:"created_at"`
}

func (StatusEvent) TableName() string {
	return "task_status_events"
}

// Submission is a user's report against a task. It never changes task status
// by itself.
type Submission struct {
	ID        string           `gorm:"column:id;primaryKey" json:"id"`
	TaskID    string           `gorm:"column:task_id;index" json:"task_id"`
	UserID    string           `gorm:"column:user_id;index" json:"user_id"`
	User      *user.User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Comment   string           `gorm:"column:comment" json:"comment"`
	Files     []SubmissionFile `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
	CreatedAt time.Time        `gorm:"column:created_at" json:"created_at"`
}

type SubmissionFile struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	SubmissionID string    `gorm:"column:submission_id;index" json:"submission_id"`
	FileName     string    `gorm:"column:file_name" json:"file_name"`
	FileType     string    `gorm:"column:file_type" json:"file_type"`
	ObjectKey    string    `gorm:"column:object_key" json:"object_key,omitempty"`
	UploadedAt   time.Time `gorm:"column:uploaded_at" json:"uploaded_at"`
}

// Grade is an administrator's authoritative assessment of a task. At most one
// grade exists per task; the unique index backstops concurrent double-grades.
type Grade struct {
	ID         string           `gorm:"column:id;primaryKey" json:"id"`
	TaskID     string           `gorm:"column:task_id;uniqueIndex" json:"task_id"`
	Percentage int              `gorm:"column:percentage" json:"percentage"`
	Band       territory.Health `gorm:"column:band" json:"band"`
	GradedByID string           `gorm:"column:graded_by_id" json:"graded_by_id"`
	CreatedAt  time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"column:updated_at" json:"updated_at"`
}

func (Grade) TableName() string {
	return "task_grades"
}

// StatusInfo describes the latest ledger entry for API responses.
type StatusInfo struct {
	Status          Status    `json:"status"`
	UpdatedByID     string    `json:"updated_by_id"`
	UpdatedByName   string    `json:"updated_by_name,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
}

// TaskView is the read model returned by GetTask and ListTasks.
type TaskView struct {
	ID                   string              `json:"id"`
	Code                 string              `json:"code"`
	Title                string              `json:"title"`
	Description          string              `json:"description"`
	Status               Status              `json:"status"`
	CompletionPercentage float64             `json:"completion_percentage"`
	Deadline             *time.Time          `json:"deadline,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	Mahallas             []territory.Mahalla `json:"mahallas"`
	Submissions          []Submission        `json:"submissions,omitempty"`
	StatusInfo           *StatusInfo         `json:"status_info,omitempty"`
	Grade                *Grade              `json:"grade,omitempty"`
}

// MahallaTaskStat is the per-mahalla row of GetTaskStats.
type MahallaTaskStat struct {
	MahallaID string `json:"mahalla_id"`
	Name      string `json:"name"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
}

// TaskStats aggregates user progress for one task across its mahallas.
type TaskStats struct {
	TotalUsers     int64             `json:"total_users"`
	CompletedUsers int64             `json:"completed_users"`
	PendingUsers   int64             `json:"pending_users"`
	MahallaStats   []MahallaTaskStat `json:"mahalla_stats"`
}
