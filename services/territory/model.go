package territory

import (
	"time"
)

// Health is the traffic-light signal summarizing a mahalla's task-completion
// performance. It is derived state: only deadline expiry, an on-cycle
// completion, or a grading override may change it.
type Health string

const (
	HealthGreen  Health = "green"
	HealthYellow Health = "yellow"
	HealthRed    Health = "red"
)

func (h Health) Valid() bool {
	switch h {
	case HealthGreen, HealthYellow, HealthRed:
		return true
	default:
		return false
	}
}

func (h Health) String() string {
	return string(h)
}

type Region struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name" json:"name"`
	Slug      string    `gorm:"column:slug" json:"slug"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

type District struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Name      string    `gorm:"column:name" json:"name"`
	Slug      string    `gorm:"column:slug" json:"slug"`
	RegionID  string    `gorm:"column:region_id;index" json:"region_id"`
	Region    *Region   `gorm:"foreignKey:RegionID" json:"region,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

type Mahalla struct {
	ID         string    `gorm:"column:id;primaryKey" json:"id"`
	Name       string    `gorm:"column:name" json:"name"`
	Slug       string    `gorm:"column:slug" json:"slug"`
	DistrictID string    `gorm:"column:district_id;index" json:"district_id"`
	District   *District `gorm:"foreignKey:DistrictID" json:"district,omitempty"`
	Health     Health    `gorm:"column:health;default:green" json:"health"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`
}
