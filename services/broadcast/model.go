package broadcast

import (
	"time"

	"gorm.io/datatypes"
)

type TargetType string

const (
	TargetAll      TargetType = "all"
	TargetDistrict TargetType = "district"
	TargetMahalla  TargetType = "mahalla"
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetAll, TargetDistrict, TargetMahalla:
		return true
	default:
		return false
	}
}

// Broadcast is an announcement fanned out to telegram-bound users. The
// recipient list is snapshotted at send time so later membership changes do
// not alter delivery accounting.
type Broadcast struct {
	ID              string         `gorm:"column:id;primaryKey" json:"id"`
	Code            string         `gorm:"column:code;index" json:"code"`
	Message         string         `gorm:"column:message" json:"message"`
	TargetType      TargetType     `gorm:"column:target_type" json:"target_type"`
	DistrictID      *string        `gorm:"column:district_id" json:"district_id,omitempty"`
	MahallaID       *string        `gorm:"column:mahalla_id" json:"mahalla_id,omitempty"`
	TelegramIDs     datatypes.JSON `gorm:"column:telegram_ids" json:"telegram_ids,omitempty"`
	TotalRecipients int            `gorm:"column:total_recipients" json:"total_recipients"`
	SentCount       int            `gorm:"column:sent_count" json:"sent_count"`
	FailedCount     int            `gorm:"column:failed_count" json:"failed_count"`
	CreatedByID     string         `gorm:"column:created_by_id" json:"created_by_id"`
	CreatedAt       time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at" json:"updated_at"`
}
